/*
Package protocol defines the JSON envelope exchanged with clients and the
typed requests and responses the relay works with.

Inbound frames are a flat JSON object whose "type" field selects the request
kind; the remaining fields are interpreted per kind. Outbound frames are
either an acknowledgment for a handled request or a delivered text message.
*/
package protocol

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"

	"zerochat/internal/pkg/errs"
)

// Kind enumerates the request kinds a client may send. Comparison is always
// by value; every kind is either handled or explicitly rejected.
type Kind string

const (
	KindLogin      Kind = "LOGIN"
	KindRegister   Kind = "REGISTER"
	KindText       Kind = "TEXT"
	KindUnregister Kind = "UNREGISTER"

	// KindEdit is reserved for profile editing. It is recognized so that it
	// can be rejected as unsupported rather than treated as malformed.
	KindEdit Kind = "EDIT"
)

// MaxMessageBytes is the maximum allowed length of a TEXT message body.
const MaxMessageBytes = 5000

// Request is a decoded, validated client request.
type Request struct {
	Kind      Kind
	Username  string
	Password  string
	Email     string
	Recipient string
	Message   string
}

// envelope mirrors the raw JSON frame sent by clients. The sender field is
// accepted for compatibility but ignored: the sender is always implied by the
// connection's session.
type envelope struct {
	Type      string `json:"type"`
	Username  string `json:"username"`
	Password  string `json:"password"`
	Email     string `json:"email"`
	Sender    string `json:"sender"`
	Recipient string `json:"recipient"`
	Message   string `json:"message"`
}

// Decode parses a raw frame into a Request and validates the fields required
// for its kind. It rejects undecodable JSON, unknown kinds, and missing
// required fields with a distinguishable error each.
func Decode(raw []byte) (Request, *errs.CustomError) {
	var env envelope
	if err := json.Unmarshal(raw, &env); err != nil {
		return Request{}, errs.NewError(errs.ErrInvalidEnvelope)
	}

	req := Request{
		Kind:      Kind(env.Type),
		Username:  env.Username,
		Password:  env.Password,
		Email:     env.Email,
		Recipient: env.Recipient,
		Message:   env.Message,
	}

	switch req.Kind {
	case KindLogin, KindUnregister:
		if req.Username == "" {
			return Request{}, errs.NewError(errs.ErrMissingField, "username")
		}
		if req.Password == "" {
			return Request{}, errs.NewError(errs.ErrMissingField, "password")
		}

	case KindRegister:
		if req.Username == "" {
			return Request{}, errs.NewError(errs.ErrMissingField, "username")
		}
		if req.Password == "" {
			return Request{}, errs.NewError(errs.ErrMissingField, "password")
		}
		if req.Email == "" {
			return Request{}, errs.NewError(errs.ErrMissingField, "email")
		}

	case KindText:
		if req.Recipient == "" {
			return Request{}, errs.NewError(errs.ErrMissingField, "recipient")
		}
		if req.Message == "" {
			return Request{}, errs.NewError(errs.ErrMissingField, "message")
		}
		if len(req.Message) > MaxMessageBytes {
			return Request{}, errs.NewError(errs.ErrMessageTooLong)
		}

	case KindEdit:
		// Reserved. Field requirements are unspecified; the router rejects it.

	default:
		return Request{}, errs.NewError(errs.ErrUnsupportedKind)
	}

	return req, nil
}

// Status is the delivery outcome reported back to the requesting client.
type Status string

const (
	// StatusDelivered means the payload was handed to the recipient's live connection.
	StatusDelivered Status = "DELIVERED"

	// StatusQueued means the payload was buffered for an offline recipient.
	StatusQueued Status = "QUEUED"

	// StatusOK means a non-delivery request (login, register, unregister) succeeded.
	StatusOK Status = "OK"

	// StatusRejected means the request was refused; Code and Reason say why.
	StatusRejected Status = "REJECTED"
)

// Ack is the acknowledgment frame sent back on the originating connection for
// every handled request.
type Ack struct {
	Type   string `json:"type"`
	For    Kind   `json:"for,omitempty"`
	Status Status `json:"status"`
	Code   int    `json:"code,omitempty"`
	Reason string `json:"reason,omitempty"`

	// ID carries the message ID assigned to a routed TEXT.
	ID string `json:"id,omitempty"`

	// Token carries the session resume token issued on a successful login.
	Token string `json:"token,omitempty"`

	// Username echoes the identity the session was established for.
	Username string `json:"username,omitempty"`
}

// NewAck builds a success acknowledgment for the given request kind.
func NewAck(kind Kind, status Status) Ack {
	return Ack{Type: "ACK", For: kind, Status: status}
}

// NewRejection builds a rejection acknowledgment from a CustomError.
func NewRejection(kind Kind, customErr *errs.CustomError) Ack {
	if customErr == nil {
		customErr = errs.NewError(errs.ErrUnknown)
	}

	return Ack{
		Type:   "ACK",
		For:    kind,
		Status: StatusRejected,
		Code:   customErr.Code,
		Reason: customErr.Message,
	}
}

// Encode serializes the ack for the wire.
func (a Ack) Encode() ([]byte, error) {
	return json.Marshal(a)
}

// Delivery is a routed text message as received by the recipient. The server
// stamps the sender from the session that submitted it.
type Delivery struct {
	Type      string `json:"type"`
	ID        string `json:"id"`
	Sender    string `json:"sender"`
	Recipient string `json:"recipient"`
	Message   string `json:"message"`
	SentAt    int64  `json:"sentAt"`
}

// NewDelivery stamps a routed text with a fresh message ID and send time.
func NewDelivery(sender, recipient, message string) Delivery {
	return Delivery{
		Type:      string(KindText),
		ID:        uuid.NewString(),
		Sender:    sender,
		Recipient: recipient,
		Message:   message,
		SentAt:    time.Now().UnixMilli(),
	}
}

// Encode serializes the delivery for the wire.
func (d Delivery) Encode() ([]byte, error) {
	return json.Marshal(d)
}
