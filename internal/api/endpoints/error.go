package endpoints

import (
	"errors"
	"fmt"
	"net/http"

	"quickchat-backend/internal/api"
	messagesvc "quickchat-backend/internal/service/message"
	usersvc "quickchat-backend/internal/service/user"
)

type HTTPError = api.HTTPError

var statusByCode = map[string]int{
	"validation_error": http.StatusBadRequest,
	"unauthorized":     http.StatusUnauthorized,
	"forbidden":        http.StatusForbidden,
	"not_found":        http.StatusNotFound,
	"conflict":         http.StatusConflict,
}

func badRequest(what string, err error) error {
	return &HTTPError{
		StatusCode: http.StatusBadRequest,
		Message:    "Invalid request payload",
		ErrorLog:   fmt.Errorf("decode %s: %w", what, err),
	}
}

// serviceError maps user and message service errors onto HTTP statuses.
// Internal failures never leak their message to the client.
func serviceError(err error) error {
	if err == nil {
		return nil
	}

	var (
		code    string
		message string
		cause   error
	)

	var userErr *usersvc.Error
	var messageErr *messagesvc.Error
	switch {
	case errors.As(err, &userErr):
		code, message, cause = string(userErr.Code), userErr.Message, userErr.Err
	case errors.As(err, &messageErr):
		code, message, cause = string(messageErr.Code), messageErr.Message, messageErr.Err
	default:
		return &HTTPError{
			StatusCode: http.StatusInternalServerError,
			Message:    "Internal server error",
			ErrorLog:   err,
		}
	}

	errorLog := errors.New(message)
	if cause != nil {
		errorLog = fmt.Errorf("%s: %w", message, cause)
	}

	status, ok := statusByCode[code]
	if !ok {
		return &HTTPError{
			StatusCode: http.StatusInternalServerError,
			Message:    "Internal server error",
			ErrorLog:   errorLog,
		}
	}
	return &HTTPError{StatusCode: status, Message: message, ErrorLog: errorLog}
}
