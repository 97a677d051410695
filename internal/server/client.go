package server

import (
	"github.com/google/uuid"

	"github.com/team-ns/launcher/internal/protocol"
)

// Client is the per-connection session state. It is owned by the session
// goroutine and mutated only between request handlings, so no locking is
// needed.
type Client struct {
	// IP is the peer address after proxy header resolution.
	IP string

	// Identity fields, set by a successful auth exchange.
	Username    string
	UUID        uuid.UUID
	AccessToken string

	// Info is the negotiated platform, set by the connected exchange.
	Info *protocol.ClientInfo
}

// Authed reports whether the session holds an authenticated identity.
func (c *Client) Authed() bool {
	return c.AccessToken != ""
}
