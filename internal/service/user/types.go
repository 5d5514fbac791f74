package user

import (
	internaljwt "quickchat-backend/internal/jwt"
	"quickchat-backend/internal/model"
)

type ErrorCode string

const (
	ErrorCodeValidation   ErrorCode = "validation_error"
	ErrorCodeUnauthorized ErrorCode = "unauthorized"
	ErrorCodeForbidden    ErrorCode = "forbidden"
	ErrorCodeNotFound     ErrorCode = "not_found"
	ErrorCodeConflict     ErrorCode = "conflict"
	ErrorCodeInternal     ErrorCode = "internal_error"
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
	return &Error{
		Code:    code,
		Message: message,
		Err:     err,
	}
}

type SignupParams struct {
	FullName string
	Email    string
	Password string
	Bio      string
}

type LoginParams struct {
	Email    string
	Password string
}

type UpdateProfileParams struct {
	FullName   string
	Bio        string
	ProfilePic string
}

type ResetPasswordParams struct {
	Email       string
	OTP         string
	NewPassword string
}

type AuthResult struct {
	User   model.UserItem
	Tokens internaljwt.TokenResponse
}
