/*
Package errs provides custom error types and application-level error code constants.

This file defines the map from error codes to the CustomError struct used to
standardize rejection acks and HTTP responses.
*/
package errs

import "net/http"

// errorMap stores the CustomError template for every application error code.
var errorMap = map[int]CustomError{
	// 1xxx: General Request Handling Errors
	ErrInvalidParams:     {Code: ErrInvalidParams, Message: "Invalid request parameters."},
	ErrInvalidEnvelope:   {Code: ErrInvalidEnvelope, Message: "Malformed message envelope."},
	ErrMissingField:      {Code: ErrMissingField, Message: "Missing required field: %s."},
	ErrUnsupportedKind:   {Code: ErrUnsupportedKind, Message: "Unsupported request type."},
	ErrRateLimitExceeded: {Code: ErrRateLimitExceeded, Message: "Too many requests. Please try again later.", Status: http.StatusTooManyRequests},

	// 2xxx: Routing and Delivery Errors
	ErrNoSuchRecipient: {Code: ErrNoSuchRecipient, Message: "No such recipient."},
	ErrMessageTooLong:  {Code: ErrMessageTooLong, Message: "Message is too long."},
	ErrBacklogFull:     {Code: ErrBacklogFull, Message: "Recipient's mailbox is full."},

	// 3xxx: Identity and Session Errors
	ErrInvalidCredentials: {Code: ErrInvalidCredentials, Message: "Incorrect username or password."},
	ErrUsernameTaken:      {Code: ErrUsernameTaken, Message: "Username is already taken."},
	ErrNotSignedIn:        {Code: ErrNotSignedIn, Message: "Please sign in to continue."},
	ErrAlreadySignedIn:    {Code: ErrAlreadySignedIn, Message: "You are already signed in."},
	ErrSessionKicked:      {Code: ErrSessionKicked, Message: "You were signed in from another device."},
	ErrInvalidToken:       {Code: ErrInvalidToken, Message: "Session token is invalid or expired."},

	// 5xxx: Internal System Errors
	ErrUnknown: {Code: ErrUnknown, Message: "Something went wrong. Please try again.", Status: http.StatusInternalServerError},
}
