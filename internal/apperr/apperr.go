// Package apperr provides a wrapped-error shape with component/action/
// message/cause fields, mirroring the teacher's ToolRegistryError
// pattern. The query executor and schema reader return it; SQL
// validation, tool dispatch and orchestration use their own result and
// error types.
package apperr

import "fmt"

// Error is a component-scoped, wrapped error.
type Error struct {
	Component string
	Action    string
	Message   string
	Err       error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("[%s:%s] %s: %v", e.Component, e.Action, e.Message, e.Err)
	}
	return fmt.Sprintf("[%s:%s] %s", e.Component, e.Action, e.Message)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// New builds an Error without a wrapped cause.
func New(component, action, message string) *Error {
	return &Error{Component: component, Action: action, Message: message}
}

// Wrap builds an Error that wraps an underlying cause.
func Wrap(component, action, message string, err error) *Error {
	return &Error{Component: component, Action: action, Message: message, Err: err}
}
