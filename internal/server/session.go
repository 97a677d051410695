package server

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/gorilla/websocket"

	"github.com/team-ns/launcher/internal/logger"
	"github.com/team-ns/launcher/internal/protocol"
	"github.com/team-ns/launcher/pkg/metrics"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  4096,
	WriteBufferSize: 4096,
	// Launchers are native clients, not browsers; origin checks do not apply.
	CheckOrigin: func(*http.Request) bool { return true },
}

// session is the state of one upgraded connection. Requests are read,
// handled and answered strictly in order on a single goroutine; only the
// keepalive pinger runs beside it.
type session struct {
	srv    *Server
	conn   *websocket.Conn
	client *Client
}

// handleSession upgrades the HTTP request and runs the session loop until
// the peer disconnects or the server shuts down.
func (s *Server) handleSession(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		logger.Warn("websocket upgrade failed", logger.ClientIP(r.RemoteAddr), logger.Err(err))
		return
	}

	sess := &session{
		srv:  s,
		conn: conn,
		// chi's RealIP middleware already resolved proxy headers.
		client: &Client{IP: r.RemoteAddr},
	}
	sess.run(r.Context())
}

func (sess *session) run(ctx context.Context) {
	defer sess.conn.Close()

	metrics.SessionOpened()
	defer metrics.SessionClosed()

	logger.Info("session opened", logger.ClientIP(sess.client.IP))
	for _, ext := range sess.srv.extensions {
		ext.OnConnect(sess.client)
	}

	done := make(chan struct{})
	defer close(done)
	go sess.keepalive(done)

	sess.conn.SetReadDeadline(time.Now().Add(protocol.PongTimeout))
	sess.conn.SetPongHandler(func(string) error {
		return sess.conn.SetReadDeadline(time.Now().Add(protocol.PongTimeout))
	})

	for {
		_, raw, err := sess.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				logger.Warn("session read failed", logger.ClientIP(sess.client.IP), logger.Err(err))
			}
			break
		}

		var req protocol.Request
		if err := json.Unmarshal(raw, &req); err != nil {
			logger.Warn("malformed request envelope, closing session",
				logger.ClientIP(sess.client.IP), logger.Err(err))
			break
		}

		for _, ext := range sess.srv.extensions {
			ext.PreHandle(sess.client, &req)
		}

		resp := sess.handle(ctx, &req)

		for _, ext := range sess.srv.extensions {
			ext.PostHandle(sess.client, &req, &resp)
		}

		outcome := "ok"
		if resp.Type == protocol.MsgError {
			outcome = "error"
		}
		metrics.ObserveRequest(req.Type, outcome)

		if err := sess.conn.WriteJSON(resp); err != nil {
			logger.Warn("session write failed", logger.ClientIP(sess.client.IP), logger.Err(err))
			break
		}
	}

	logger.Info("session closed",
		logger.ClientIP(sess.client.IP), logger.Username(sess.client.Username))
}

// keepalive pings the peer on a fixed interval. WriteControl is safe to call
// concurrently with the session goroutine's WriteJSON.
func (sess *session) keepalive(done <-chan struct{}) {
	ticker := time.NewTicker(protocol.PingInterval)
	defer ticker.Stop()
	for {
		select {
		case <-done:
			return
		case <-ticker.C:
			deadline := time.Now().Add(protocol.PongTimeout)
			if err := sess.conn.WriteControl(websocket.PingMessage, nil, deadline); err != nil {
				return
			}
		}
	}
}

// handle dispatches one request to its typed handler. Handler failures keep
// the connection open: they are reported as an error response carrying the
// request id.
func (sess *session) handle(ctx context.Context, req *protocol.Request) protocol.Response {
	var (
		resp protocol.Response
		err  error
	)
	switch req.Type {
	case protocol.MsgAuth:
		resp, err = sess.handleAuth(ctx, req)
	case protocol.MsgConnected:
		resp, err = sess.handleConnected(req)
	case protocol.MsgProfilesInfo:
		resp, err = sess.handleProfilesInfo(req)
	case protocol.MsgProfile:
		resp, err = sess.handleProfile(req)
	case protocol.MsgProfileResources:
		resp, err = sess.handleProfileResources(req)
	case protocol.MsgJoinServer:
		resp, err = sess.handleJoinServer(ctx, req)
	case protocol.MsgCustom:
		resp, err = sess.handleCustom(req)
	default:
		return protocol.NewError(req.ID, "unknown message type "+req.Type)
	}
	if err != nil {
		logger.Debug("request failed", logger.KeyMessage, req.Type,
			logger.ClientIP(sess.client.IP), logger.Err(err))
		return protocol.NewError(req.ID, err.Error())
	}
	return resp
}
