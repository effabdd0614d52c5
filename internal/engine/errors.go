package engine

import (
	"errors"
	"fmt"
	"strings"

	"github.com/roach88/ontaudit/internal/ir"
)

// RuntimeError is a fatal error raised while executing a rule. Any
// runtime error aborts the rule; no partial suite is produced.
//
// RuntimeError carries the originating stage and input binding so the
// failure can be diagnosed from the message alone.
type RuntimeError struct {
	// Code identifies the error category.
	Code RuntimeErrorCode

	// Message is a human-readable description.
	Message string

	// Rule and RunID identify the execution.
	Rule  string
	RunID string

	// Stage and StageIndex identify the originating stage. StageIndex is -1
	// for errors outside the stage chain (setup, evaluation).
	Stage      string
	StageIndex int

	// Input is the token being processed when the error occurred, if any.
	Input *ir.Binding

	// Err is the underlying cause.
	Err error
}

// RuntimeErrorCode categorizes runtime errors.
type RuntimeErrorCode string

const (
	// ErrCodeSetupFailed indicates a setup hook returned an error.
	ErrCodeSetupFailed RuntimeErrorCode = "SETUP_FAILED"

	// ErrCodeStageFailed indicates a stage failed to open or process a token.
	ErrCodeStageFailed RuntimeErrorCode = "STAGE_FAILED"

	// ErrCodeEvaluationFailed indicates the case name or predicate failed.
	ErrCodeEvaluationFailed RuntimeErrorCode = "EVALUATION_FAILED"

	// ErrCodeEndMarkerViolation indicates a stage did not forward exactly
	// one end marker at end of input.
	ErrCodeEndMarkerViolation RuntimeErrorCode = "END_MARKER_VIOLATION"

	// ErrCodeQuotaExceeded indicates a queue received more bindings than
	// the configured limit.
	ErrCodeQuotaExceeded RuntimeErrorCode = "QUOTA_EXCEEDED"
)

// Error implements the error interface.
func (e *RuntimeError) Error() string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s: %s", e.Code, e.Message)

	var where []string
	if e.Rule != "" {
		where = append(where, "rule="+e.Rule)
	}
	if e.RunID != "" {
		where = append(where, "run="+e.RunID)
	}
	if e.StageIndex >= 0 && e.Stage != "" {
		where = append(where, fmt.Sprintf("stage=%s#%d", e.Stage, e.StageIndex))
	}
	if e.Input != nil {
		where = append(where, "input="+e.Input.String())
	}
	if len(where) > 0 {
		fmt.Fprintf(&b, " (%s)", strings.Join(where, ", "))
	}
	if e.Err != nil {
		fmt.Fprintf(&b, ": %v", e.Err)
	}
	return b.String()
}

// Unwrap returns the underlying cause.
func (e *RuntimeError) Unwrap() error {
	return e.Err
}

func hasCode(err error, code RuntimeErrorCode) bool {
	var re *RuntimeError
	if errors.As(err, &re) {
		return re.Code == code
	}
	return false
}

// IsStageError returns true if the error originated in a stage.
// Uses errors.As to handle wrapped errors.
func IsStageError(err error) bool {
	return hasCode(err, ErrCodeStageFailed)
}

// IsEvaluationError returns true if the error originated in the case name
// or predicate of an evaluator.
func IsEvaluationError(err error) bool {
	return hasCode(err, ErrCodeEvaluationFailed)
}

// IsSetupError returns true if a setup hook failed.
func IsSetupError(err error) bool {
	return hasCode(err, ErrCodeSetupFailed)
}

// IsEndMarkerViolation returns true if a stage broke the end marker
// protocol.
func IsEndMarkerViolation(err error) bool {
	return hasCode(err, ErrCodeEndMarkerViolation)
}

// IsQuotaError returns true if the error is a quota exceeded error.
// Matches both RuntimeError with ErrCodeQuotaExceeded and
// BindingsExceededError.
func IsQuotaError(err error) bool {
	if hasCode(err, ErrCodeQuotaExceeded) {
		return true
	}
	var be *BindingsExceededError
	return errors.As(err, &be)
}
