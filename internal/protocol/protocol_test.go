package protocol

import (
	"encoding/json"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRequestEnvelopeRoundTrip(t *testing.T) {
	t.Parallel()

	req, err := NewRequest(MsgAuth, Auth{Login: "alice", Password: "sealed"})
	require.NoError(t, err)
	assert.NotEqual(t, uuid.Nil, req.ID)

	raw, err := json.Marshal(req)
	require.NoError(t, err)

	var back Request
	require.NoError(t, json.Unmarshal(raw, &back))
	assert.Equal(t, req.ID, back.ID)
	assert.Equal(t, MsgAuth, back.Type)

	body, err := DecodeBody[Auth](back.Body)
	require.NoError(t, err)
	assert.Equal(t, "alice", body.Login)
}

func TestResponseIDDistinguishesNotifications(t *testing.T) {
	t.Parallel()

	id := uuid.New()
	resp, err := NewResponse(id, MsgEmpty, struct{}{})
	require.NoError(t, err)
	require.NotNil(t, resp.ID)
	assert.Equal(t, id, *resp.ID)

	note, err := NewNotification(MsgRuntime, Runtime{Payload: "hello"})
	require.NoError(t, err)
	assert.Nil(t, note.ID)

	raw, err := json.Marshal(note)
	require.NoError(t, err)
	var back Response
	require.NoError(t, json.Unmarshal(raw, &back))
	assert.Nil(t, back.ID, "notification id must stay absent on the wire")
}

func TestNewErrorEchoesRequestID(t *testing.T) {
	t.Parallel()

	id := uuid.New()
	resp := NewError(id, "boom")
	require.NotNil(t, resp.ID)
	assert.Equal(t, id, *resp.ID)
	assert.Equal(t, MsgError, resp.Type)

	body, err := DecodeBody[Error](resp.Body)
	require.NoError(t, err)
	assert.Equal(t, "boom", body.Message)
}

func TestDecodeBodyFailures(t *testing.T) {
	t.Parallel()

	_, err := DecodeBody[Auth](nil)
	assert.ErrorContains(t, err, "missing message body")

	_, err = DecodeBody[Auth](json.RawMessage(`{`))
	assert.ErrorContains(t, err, "malformed message body")
}
