package server

import (
	"context"

	"github.com/team-ns/launcher/internal/protocol"
)

// Extension hooks into the session lifecycle. The extension list is fixed at
// startup; hooks run in registration order on the session goroutine of the
// connection they observe.
type Extension interface {
	// Init runs once before the server starts accepting connections.
	Init(ctx context.Context) error

	// OnConnect observes a freshly upgraded session.
	OnConnect(c *Client)

	// PreHandle observes a request before its handler runs.
	PreHandle(c *Client, req *protocol.Request)

	// PostHandle observes the response produced for a request.
	PostHandle(c *Client, req *protocol.Request, resp *protocol.Response)

	// HandleCustom is offered every custom payload; the first extension
	// reporting handled=true produces the runtime reply.
	HandleCustom(c *Client, payload string) (reply string, handled bool)
}

// BaseExtension is a no-op Extension for embedding; implementations override
// only the hooks they care about.
type BaseExtension struct{}

func (BaseExtension) Init(context.Context) error                                { return nil }
func (BaseExtension) OnConnect(*Client)                                         {}
func (BaseExtension) PreHandle(*Client, *protocol.Request)                      {}
func (BaseExtension) PostHandle(*Client, *protocol.Request, *protocol.Response) {}
func (BaseExtension) HandleCustom(*Client, string) (string, bool)               { return "", false }
