// Package client implements the launcher side of the session channel: a
// persistent websocket connection multiplexing typed request/reply exchanges
// and passing unsolicited server frames through to a subscriber.
package client

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/team-ns/launcher/internal/logger"
	"github.com/team-ns/launcher/internal/protocol"
)

// ErrSessionClosed is returned for requests issued after the transport
// failed or the session was closed.
var ErrSessionClosed = errors.New("session closed")

// Passthrough receives unsolicited server frames. Calls happen on the reader
// goroutine; implementations must not block.
type Passthrough func(resp protocol.Response)

// Session is a connected launcher session. Safe for concurrent use.
type Session struct {
	conn *websocket.Conn

	writeMu sync.Mutex

	mu      sync.Mutex
	pending map[uuid.UUID]chan protocol.Response
	closed  bool
	err     error

	passthrough Passthrough
}

// Connect dials the server's websocket endpoint and starts the reader.
// passthrough may be nil; unsolicited frames are then dropped with a log.
func Connect(ctx context.Context, url string, passthrough Passthrough) (*Session, error) {
	conn, _, err := websocket.DefaultDialer.DialContext(ctx, url, nil)
	if err != nil {
		return nil, fmt.Errorf("dial %s: %w", url, err)
	}
	s := &Session{
		conn:        conn,
		pending:     make(map[uuid.UUID]chan protocol.Response),
		passthrough: passthrough,
	}
	go s.readLoop()
	return s, nil
}

// Close tears the connection down and fails every pending request.
func (s *Session) Close() error {
	err := s.conn.Close()
	s.fail(ErrSessionClosed)
	return err
}

// fail marks the session dead and drains every waiter with the error.
func (s *Session) fail(err error) {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}
	s.closed = true
	s.err = err
	pending := s.pending
	s.pending = nil
	s.mu.Unlock()

	for _, ch := range pending {
		close(ch)
	}
}

// readLoop dispatches incoming frames to their waiters; frames without an id
// go to the passthrough subscriber.
func (s *Session) readLoop() {
	for {
		_, raw, err := s.conn.ReadMessage()
		if err != nil {
			s.fail(fmt.Errorf("%w: %v", ErrSessionClosed, err))
			return
		}

		var resp protocol.Response
		if err := json.Unmarshal(raw, &resp); err != nil {
			logger.Warn("dropping malformed server frame", logger.Err(err))
			continue
		}

		if resp.ID == nil {
			if s.passthrough != nil {
				s.passthrough(resp)
			} else {
				logger.Debug("dropping unsolicited frame", logger.KeyMessage, resp.Type)
			}
			continue
		}

		s.mu.Lock()
		ch, ok := s.pending[*resp.ID]
		if ok {
			delete(s.pending, *resp.ID)
		}
		s.mu.Unlock()

		if !ok {
			logger.Debug("dropping reply with unknown id", logger.KeyMessage, resp.Type)
			continue
		}
		ch <- resp
	}
}

// roundTrip sends one request and waits for its reply or ctx cancellation.
func (s *Session) roundTrip(ctx context.Context, req protocol.Request) (protocol.Response, error) {
	ch := make(chan protocol.Response, 1)

	s.mu.Lock()
	if s.closed {
		err := s.err
		s.mu.Unlock()
		return protocol.Response{}, err
	}
	s.pending[req.ID] = ch
	s.mu.Unlock()

	s.writeMu.Lock()
	err := s.conn.WriteJSON(req)
	s.writeMu.Unlock()
	if err != nil {
		s.mu.Lock()
		delete(s.pending, req.ID)
		s.mu.Unlock()
		return protocol.Response{}, fmt.Errorf("send %s: %w", req.Type, err)
	}

	select {
	case resp, ok := <-ch:
		if !ok {
			s.mu.Lock()
			err := s.err
			s.mu.Unlock()
			return protocol.Response{}, err
		}
		return resp, nil
	case <-ctx.Done():
		s.mu.Lock()
		delete(s.pending, req.ID)
		s.mu.Unlock()
		return protocol.Response{}, ctx.Err()
	}
}

// call performs a typed exchange: an error response becomes a Go error.
func call[T any](ctx context.Context, s *Session, msgType string, body any) (T, error) {
	var zero T
	req, err := protocol.NewRequest(msgType, body)
	if err != nil {
		return zero, err
	}
	resp, err := s.roundTrip(ctx, req)
	if err != nil {
		return zero, err
	}
	if resp.Type == protocol.MsgError {
		e, err := protocol.DecodeBody[protocol.Error](resp.Body)
		if err != nil {
			return zero, fmt.Errorf("server error with malformed body: %w", err)
		}
		return zero, errors.New(e.Message)
	}
	return protocol.DecodeBody[T](resp.Body)
}

// callEmpty performs an exchange whose success reply carries no payload.
func callEmpty(ctx context.Context, s *Session, msgType string, body any) error {
	_, err := call[json.RawMessage](ctx, s, msgType, body)
	return err
}
