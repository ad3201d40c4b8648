// internal/game/errors.go
package game

import "fmt"

// ErrorCode classifies engine failures for the gateway's error events.
type ErrorCode string

const (
	CodeValidation         ErrorCode = "validation"
	CodeAuthorization      ErrorCode = "authorization"
	CodeNotFound           ErrorCode = "not_found"
	CodeCapacity           ErrorCode = "capacity"
	CodeState              ErrorCode = "state"
	CodeContentUnavailable ErrorCode = "content_unavailable"
	CodeInternal           ErrorCode = "internal"
)

// EngineError is the engine's user-facing failure type. The gateway maps it
// onto a unicast error event; the connection stays open.
type EngineError struct {
	Code    ErrorCode
	Message string
}

func (e *EngineError) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func errValidation(format string, args ...interface{}) *EngineError {
	return &EngineError{Code: CodeValidation, Message: fmt.Sprintf(format, args...)}
}

func errAuthorization(format string, args ...interface{}) *EngineError {
	return &EngineError{Code: CodeAuthorization, Message: fmt.Sprintf(format, args...)}
}

func errNotFound(format string, args ...interface{}) *EngineError {
	return &EngineError{Code: CodeNotFound, Message: fmt.Sprintf(format, args...)}
}

func errCapacity(format string, args ...interface{}) *EngineError {
	return &EngineError{Code: CodeCapacity, Message: fmt.Sprintf(format, args...)}
}

func errState(format string, args ...interface{}) *EngineError {
	return &EngineError{Code: CodeState, Message: fmt.Sprintf(format, args...)}
}

func errInternal(format string, args ...interface{}) *EngineError {
	return &EngineError{Code: CodeInternal, Message: fmt.Sprintf(format, args...)}
}
