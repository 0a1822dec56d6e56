package schema

import "fmt"

// Error codes for structured error reporting.
const (
	ErrCodeValidation        = "VALIDATION_ERROR"
	ErrCodeExecution         = "EXECUTION_ERROR"
	ErrCodeNotFound          = "NOT_FOUND"
	ErrCodeConflict          = "CONFLICT"
	ErrCodeInvalidTransition = "INVALID_TRANSITION"
	ErrCodeCycleDetected     = "CYCLE_DETECTED"
	ErrCodeDecisionPending   = "DECISION_PENDING"
	ErrCodeStore             = "STORE_ERROR"
)

// StackError is the structured error type for all stackflow operations.
type StackError struct {
	Code    string         `json:"code"`
	Message string         `json:"message"`
	Details map[string]any `json:"details,omitempty"`
	NodeID  string         `json:"node_id,omitempty"`
	Cause   error          `json:"-"`
}

func (e *StackError) Error() string {
	if e.NodeID != "" {
		return fmt.Sprintf("[%s] node %s: %s", e.Code, e.NodeID, e.Message)
	}
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

func (e *StackError) Unwrap() error {
	return e.Cause
}

// NewError creates a new StackError.
func NewError(code, message string) *StackError {
	return &StackError{Code: code, Message: message}
}

// NewErrorf creates a new StackError with a formatted message.
func NewErrorf(code, format string, args ...any) *StackError {
	return &StackError{Code: code, Message: fmt.Sprintf(format, args...)}
}

// WithNode attaches a node ID to the error.
func (e *StackError) WithNode(nodeID string) *StackError {
	e.NodeID = nodeID
	return e
}

// WithCause attaches an underlying cause.
func (e *StackError) WithCause(err error) *StackError {
	e.Cause = err
	return e
}

// WithDetails attaches key-value details.
func (e *StackError) WithDetails(details map[string]any) *StackError {
	e.Details = details
	return e
}
