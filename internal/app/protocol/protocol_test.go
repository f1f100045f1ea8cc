package protocol

import (
	"encoding/json"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"zerochat/internal/pkg/errs"
)

func TestDecodeLogin(t *testing.T) {
	req, decodeErr := Decode([]byte(`{"type":"LOGIN","username":"alice","password":"pw"}`))

	require.Nil(t, decodeErr)
	assert.Equal(t, KindLogin, req.Kind)
	assert.Equal(t, "alice", req.Username)
	assert.Equal(t, "pw", req.Password)
}

func TestDecodeTextIgnoresClientSenderField(t *testing.T) {
	req, decodeErr := Decode([]byte(`{"type":"TEXT","sender":"mallory","recipient":"bob","message":"hi"}`))

	require.Nil(t, decodeErr)
	assert.Equal(t, KindText, req.Kind)
	assert.Equal(t, "bob", req.Recipient)
	assert.Equal(t, "hi", req.Message)
}

func TestDecodeMissingRequiredFields(t *testing.T) {
	cases := []struct {
		name  string
		frame string
	}{
		{"login without password", `{"type":"LOGIN","username":"alice"}`},
		{"register without email", `{"type":"REGISTER","username":"alice","password":"pw"}`},
		{"text without recipient", `{"type":"TEXT","message":"hi"}`},
		{"text without message", `{"type":"TEXT","recipient":"bob"}`},
		{"unregister without username", `{"type":"UNREGISTER","password":"pw"}`},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, decodeErr := Decode([]byte(tc.frame))
			require.NotNil(t, decodeErr)
			assert.Equal(t, errs.ErrMissingField, decodeErr.Code)
		})
	}
}

func TestDecodeRejectsBadJSON(t *testing.T) {
	_, decodeErr := Decode([]byte(`not json at all`))
	require.NotNil(t, decodeErr)
	assert.Equal(t, errs.ErrInvalidEnvelope, decodeErr.Code)
}

func TestDecodeRejectsUnknownKind(t *testing.T) {
	_, decodeErr := Decode([]byte(`{"type":"TELEPORT"}`))
	require.NotNil(t, decodeErr)
	assert.Equal(t, errs.ErrUnsupportedKind, decodeErr.Code)
}

func TestDecodeAcceptsReservedEditKind(t *testing.T) {
	req, decodeErr := Decode([]byte(`{"type":"EDIT"}`))
	require.Nil(t, decodeErr)
	assert.Equal(t, KindEdit, req.Kind)
}

func TestDecodeRejectsOversizedMessage(t *testing.T) {
	frame := `{"type":"TEXT","recipient":"bob","message":"` + strings.Repeat("x", MaxMessageBytes+1) + `"}`

	_, decodeErr := Decode([]byte(frame))
	require.NotNil(t, decodeErr)
	assert.Equal(t, errs.ErrMessageTooLong, decodeErr.Code)
}

func TestNewDeliveryStampsIDAndTime(t *testing.T) {
	d := NewDelivery("alice", "bob", "hello")

	assert.Equal(t, "TEXT", d.Type)
	assert.NotEmpty(t, d.ID)
	assert.Positive(t, d.SentAt)

	raw, err := d.Encode()
	require.NoError(t, err)

	var decoded map[string]any
	require.NoError(t, json.Unmarshal(raw, &decoded))
	assert.Equal(t, "alice", decoded["sender"])
	assert.Equal(t, "bob", decoded["recipient"])
}

func TestRejectionCarriesCodeAndReason(t *testing.T) {
	ack := NewRejection(KindText, errs.NewError(errs.ErrNoSuchRecipient))

	assert.Equal(t, StatusRejected, ack.Status)
	assert.Equal(t, errs.ErrNoSuchRecipient, ack.Code)
	assert.NotEmpty(t, ack.Reason)
}
