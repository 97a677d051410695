// Package joinbroker connects the embedded game runtime's join callback to
// the launcher session. The game thread blocks on a request/reply pair, so
// at most one join is ever in flight.
package joinbroker

import (
	"context"

	"github.com/google/uuid"

	"github.com/team-ns/launcher/internal/logger"
	"github.com/team-ns/launcher/internal/protocol"
)

// JoinSender is the slice of the session the broker needs.
type JoinSender interface {
	JoinServer(ctx context.Context, proof protocol.JoinServer) error
}

// JoinRequest is emitted by the in-game callback when the client contacts a
// multiplayer server.
type JoinRequest struct {
	AccessToken     string
	SelectedProfile uuid.UUID
	ServerID        string
}

// Broker owns the request/reply queues between the game and the session.
type Broker struct {
	requests chan JoinRequest
	replies  chan string
}

// New creates an idle broker.
func New() *Broker {
	return &Broker{
		requests: make(chan JoinRequest),
		replies:  make(chan string),
	}
}

// Join is called from the game side. It blocks until the session answered;
// a non-empty reply is the error message to surface in-game.
func (b *Broker) Join(ctx context.Context, req JoinRequest) (string, error) {
	select {
	case b.requests <- req:
	case <-ctx.Done():
		return "", ctx.Err()
	}
	select {
	case reply := <-b.replies:
		return reply, nil
	case <-ctx.Done():
		return "", ctx.Err()
	}
}

// Serve forwards join requests over the session until ctx is canceled. Run
// on the session side, one goroutine per play phase.
func (b *Broker) Serve(ctx context.Context, session JoinSender) error {
	for {
		select {
		case <-ctx.Done():
			return nil
		case req := <-b.requests:
			reply := ""
			err := session.JoinServer(ctx, protocol.JoinServer{
				AccessToken: req.AccessToken,
				UUID:        req.SelectedProfile,
				ServerID:    req.ServerID,
			})
			if err != nil {
				logger.Warn("join rejected", logger.KeyServerID, req.ServerID, logger.Err(err))
				reply = err.Error()
			} else {
				logger.Info("join accepted", logger.KeyServerID, req.ServerID)
			}

			select {
			case b.replies <- reply:
			case <-ctx.Done():
				return nil
			}
		}
	}
}
