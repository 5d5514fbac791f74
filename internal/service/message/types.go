package message

import "quickchat-backend/internal/model"

type ErrorCode string

const (
	ErrorCodeValidation ErrorCode = "validation_error"
	ErrorCodeForbidden  ErrorCode = "forbidden"
	ErrorCodeNotFound   ErrorCode = "not_found"
	ErrorCodeInternal   ErrorCode = "internal_error"
)

type Error struct {
	Code    ErrorCode
	Message string
	Err     error
}

func (e *Error) Error() string {
	return e.Message
}

func (e *Error) Unwrap() error {
	return e.Err
}

func newError(code ErrorCode, message string, err error) *Error {
	return &Error{Code: code, Message: message, Err: err}
}

type SendParams struct {
	Text  string
	Image string
}

// SidebarResult lists every other user and, per sender, how many messages
// the caller has not seen yet.
type SidebarResult struct {
	Users          []model.UserItem
	UnseenMessages map[string]int
}
