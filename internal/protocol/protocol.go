// Package protocol defines the envelope and typed message set of the
// persistent session channel between launcher and launch server.
//
// Frames carry one JSON-serialized envelope each. Requests have a random
// 128-bit id echoed by the matching response; a response without an id is an
// unsolicited notification routed to the passthrough subscriber.
package protocol

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/team-ns/launcher/pkg/manifest"
	"github.com/team-ns/launcher/pkg/profile"
)

// Transport keepalive recommended for the server side of the channel.
const (
	PingInterval = 5 * time.Second
	PongTimeout  = 10 * time.Second
)

// Client message tags.
const (
	MsgAuth             = "auth"
	MsgConnected        = "connected"
	MsgProfilesInfo     = "profilesInfo"
	MsgProfile          = "profile"
	MsgProfileResources = "profileResources"
	MsgJoinServer       = "joinServer"
	MsgCustom           = "custom"
)

// Server message tags. Response tags mirror the request where a payload is
// returned; Empty, Runtime and Error are server-only.
const (
	MsgEmpty   = "empty"
	MsgRuntime = "runtime"
	MsgError   = "error"
)

// Request is the client→server envelope.
type Request struct {
	ID   uuid.UUID       `json:"id"`
	Type string          `json:"type"`
	Body json.RawMessage `json:"body,omitempty"`
}

// Response is the server→client envelope. A nil ID marks an unsolicited
// notification.
type Response struct {
	ID   *uuid.UUID      `json:"id,omitempty"`
	Type string          `json:"type"`
	Body json.RawMessage `json:"body,omitempty"`
}

// Auth carries a login and the sealed password envelope.
type Auth struct {
	Login    string `json:"login"`
	Password string `json:"password"`
}

// AuthResult returns the authenticated identity and a fresh access token.
type AuthResult struct {
	UUID        uuid.UUID `json:"uuid"`
	AccessToken string    `json:"accessToken"`
}

// ClientInfo is the negotiated client platform.
type ClientInfo struct {
	OsType manifest.OsType `json:"osType"`
}

// Connected binds the client info to the session.
type Connected struct {
	Info ClientInfo `json:"info"`
}

// ProfilesInfo lists the catalog projection for the client platform.
type ProfilesInfo struct {
	Profiles []profile.Info `json:"profiles"`
}

// ProfileRequest asks for a profile with the selection applied.
type ProfileRequest struct {
	Profile   string   `json:"profile"`
	Optionals []string `json:"optionals"`
}

// ProfileResult returns the profile with relevant optional JVM arguments
// appended.
type ProfileResult struct {
	Profile profile.Profile `json:"profile"`
}

// ProfileResourcesRequest asks for the filtered manifests of a profile.
type ProfileResourcesRequest struct {
	Profile   string          `json:"profile"`
	OsType    manifest.OsType `json:"osType"`
	Optionals []string        `json:"optionals"`
}

// ProfileResources returns every manifest the launcher reconciles against.
type ProfileResources struct {
	Profile   manifest.RemoteDirectory `json:"profile"`
	Libraries manifest.RemoteDirectory `json:"libraries"`
	Assets    manifest.RemoteDirectory `json:"assets"`
	Natives   manifest.RemoteDirectory `json:"natives"`
	Jre       manifest.RemoteDirectory `json:"jre"`
}

// JoinServer proves an in-game server join against the session token.
type JoinServer struct {
	AccessToken string    `json:"accessToken"`
	UUID        uuid.UUID `json:"uuid"`
	ServerID    string    `json:"serverId"`
}

// Custom is the free-form passthrough payload, forwarded verbatim to the
// extension pipeline.
type Custom struct {
	Payload string `json:"payload"`
}

// Runtime wraps an extension pipeline reply.
type Runtime struct {
	Payload string `json:"payload"`
}

// Error carries a handler failure; the connection stays open.
type Error struct {
	Message string `json:"message"`
}

// NewRequest builds an envelope with a fresh random id.
func NewRequest(msgType string, body any) (Request, error) {
	raw, err := json.Marshal(body)
	if err != nil {
		return Request{}, fmt.Errorf("encode %s request: %w", msgType, err)
	}
	return Request{ID: uuid.New(), Type: msgType, Body: raw}, nil
}

// NewResponse builds a response echoing the request id.
func NewResponse(id uuid.UUID, msgType string, body any) (Response, error) {
	raw, err := json.Marshal(body)
	if err != nil {
		return Response{}, fmt.Errorf("encode %s response: %w", msgType, err)
	}
	return Response{ID: &id, Type: msgType, Body: raw}, nil
}

// NewNotification builds an unsolicited server→client frame.
func NewNotification(msgType string, body any) (Response, error) {
	raw, err := json.Marshal(body)
	if err != nil {
		return Response{}, fmt.Errorf("encode %s notification: %w", msgType, err)
	}
	return Response{Type: msgType, Body: raw}, nil
}

// NewError builds the error response for a request id.
func NewError(id uuid.UUID, message string) Response {
	resp, err := NewResponse(id, MsgError, Error{Message: message})
	if err != nil {
		// Error bodies are plain strings; this cannot fail.
		panic(err)
	}
	return resp
}

// DecodeBody unmarshals an envelope body into its typed message.
func DecodeBody[T any](raw json.RawMessage) (T, error) {
	var body T
	if len(raw) == 0 {
		return body, fmt.Errorf("missing message body")
	}
	if err := json.Unmarshal(raw, &body); err != nil {
		return body, fmt.Errorf("malformed message body: %w", err)
	}
	return body, nil
}
