package veche

import "fmt"

// ErrorCode is the category of a rejected action.
type ErrorCode string

const (
	CodePhaseMismatch        ErrorCode = "phase_mismatch"
	CodeTurnViolation        ErrorCode = "turn_violation"
	CodeInsufficientFunds    ErrorCode = "insufficient_funds"
	CodeDuplicateAction      ErrorCode = "duplicate_action"
	CodeMissingRequiredField ErrorCode = "missing_required_field"
	CodeUnknownAction        ErrorCode = "unknown_action"
	CodeInvalidTarget        ErrorCode = "invalid_target"
	CodeInvalidArgument      ErrorCode = "invalid_argument"
)

// ActionError describes why an action was rejected. The state is left unchanged
// whenever an ActionError is returned.
type ActionError struct {
	Code    ErrorCode
	Message string
}

func (e *ActionError) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func reject(code ErrorCode, format string, args ...any) *ActionError {
	return &ActionError{Code: code, Message: fmt.Sprintf(format, args...)}
}
