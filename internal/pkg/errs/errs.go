/*
Package errs provides custom error types and application-level error code constants.

This file defines the CustomError struct, which implements the standard Go error
interface and carries a business code, a client-facing message, and an HTTP
status code for the REST surface.
*/
package errs

import (
	"fmt"
	"net/http"
	"strings"

	"zerochat/internal/pkg/logx"
)

// CustomError is the custom error structure used throughout the application.
type CustomError struct {
	// Code is the business error code (see constants definition).
	Code int

	// Message is the client-facing error description.
	Message string

	// Status is the HTTP status code used when this error is returned over REST.
	Status int
}

// Error implements the standard Go error interface.
func (e CustomError) Error() string {
	return fmt.Sprintf("Error Code %d (HTTP %d): %s", e.Code, e.Status, e.Message)
}

// NewError constructs a *CustomError from a predefined error code. The optional
// details are applied printf-style when the message template has placeholders.
// An unknown code falls back to ErrUnknown.
func NewError(code int, details ...any) *CustomError {
	templateErr, ok := errorMap[code]

	if !ok {
		logx.Error(
			fmt.Errorf("attempted to create an error with a code missing from errorMap"),
			"Unknown error code requested",
			"requested_code", code,
		)

		unknownErr := errorMap[ErrUnknown]
		return &CustomError{
			Code:    unknownErr.Code,
			Message: unknownErr.Message,
			Status:  unknownErr.Status,
		}
	}

	customErr := templateErr

	if customErr.Status == 0 {
		customErr.Status = http.StatusOK
	}

	if len(details) > 0 {
		if strings.Contains(customErr.Message, "%") {
			customErr.Message = fmt.Sprintf(customErr.Message, details...)
		} else if originalErr, isErr := details[0].(error); isErr {
			logx.Error(originalErr, "Underlying error attached to rejection", "code", code)
		} else {
			logx.Warn("Details provided for error, but message template has no formatting placeholders. Details ignored.")
		}
	}

	return &customErr
}
