package battery

import "fmt"

// ConfigErrorCode identifies why a rule could not join a battery.
type ConfigErrorCode string

const (
	// ErrCodeDuplicateRule indicates a rule name already in the battery.
	ErrCodeDuplicateRule ConfigErrorCode = "DUPLICATE_RULE"

	// ErrCodeInvalidRule indicates a rule that failed to load, validate
	// or build.
	ErrCodeInvalidRule ConfigErrorCode = "INVALID_RULE"
)

// ConfigError is a load-time problem with a rule. Nothing has executed
// when one is returned.
type ConfigError struct {
	Code   ConfigErrorCode
	Rule   string
	Source string
	Err    error
}

func (e *ConfigError) Error() string {
	msg := fmt.Sprintf("%s: rule %q", e.Code, e.Rule)
	if e.Source != "" {
		msg += " (" + e.Source + ")"
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *ConfigError) Unwrap() error {
	return e.Err
}
