package ir

// Version constants for rule documents and the engine.
const (
	// RuleFormatVersion is the rule-definition document format version.
	RuleFormatVersion = "1"

	// EngineVersion is the ontaudit engine version.
	EngineVersion = "0.1.0"
)
