/*
Package errs provides custom error types and application-level error code constants.

These codes identify specific business or system errors both internally and in
rejection acks sent to clients.
*/
package errs

// 1xxx: General Request Handling Errors
const (
	// ErrInvalidParams indicates that request parameter validation failed.
	ErrInvalidParams = 1001

	// ErrInvalidEnvelope indicates that an inbound frame was not a valid JSON envelope.
	ErrInvalidEnvelope = 1002

	// ErrMissingField indicates that a required envelope field for the request kind was empty.
	ErrMissingField = 1003

	// ErrUnsupportedKind indicates that the envelope carried an unknown or reserved request kind.
	ErrUnsupportedKind = 1004

	// ErrRateLimitExceeded indicates that the connection rate exceeded the configured limit.
	ErrRateLimitExceeded = 1005
)

// 2xxx: Routing and Delivery Errors
const (
	// ErrNoSuchRecipient indicates that a TEXT named a username unknown to the identity directory.
	ErrNoSuchRecipient = 2001

	// ErrMessageTooLong indicates that the message body exceeded the maximum length limit.
	ErrMessageTooLong = 2002

	// ErrBacklogFull indicates that the recipient's offline backlog reached its configured cap.
	ErrBacklogFull = 2003
)

// 3xxx: Identity and Session Errors
const (
	// ErrInvalidCredentials indicates a failed username/password authentication.
	ErrInvalidCredentials = 3001

	// ErrUsernameTaken indicates a registration attempt for an existing username.
	ErrUsernameTaken = 3002

	// ErrNotSignedIn indicates a request that requires a session on an unauthenticated connection.
	ErrNotSignedIn = 3003

	// ErrAlreadySignedIn indicates a LOGIN on a connection that already owns a session.
	ErrAlreadySignedIn = 3004

	// ErrSessionKicked indicates that the connection was displaced by a newer login.
	ErrSessionKicked = 3005

	// ErrInvalidToken indicates an unusable session resume token.
	ErrInvalidToken = 3006
)

// 5xxx: Internal System Errors
const (
	// ErrUnknown represents an unclassified server internal error.
	ErrUnknown = 5000
)
