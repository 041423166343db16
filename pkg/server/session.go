package server

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	tqerrors "github.com/vango-go/tablequery/internal/errors"
	"github.com/vango-go/tablequery/pkg/history"
	"github.com/vango-go/tablequery/pkg/tablequery"
)

// Live channel message types.
const (
	MessageInit      = "init"
	MessagePush      = "push"
	MessageSelectAll = "selectAll"
	MessageLocation  = "location"
	MessageURL       = "url"
	MessageState     = "state"
	MessageError     = "error"
)

// ErrSessionClosed is returned when writing to a closed session.
var ErrSessionClosed = errors.New("server: session closed")

// ClientMessage is a frame sent by the browser.
type ClientMessage struct {
	Type   string             `json:"type"`
	Params *tablequery.Params `json:"params,omitempty"`
	Value  bool               `json:"value,omitempty"`
	URL    string             `json:"url,omitempty"`
}

// ServerMessage is a frame sent to the browser.
type ServerMessage struct {
	Type  string            `json:"type"`
	Mode  string            `json:"mode,omitempty"`
	URL   string            `json:"url,omitempty"`
	State *tablequery.State `json:"state,omitempty"`
	Error *tqerrors.Error   `json:"error,omitempty"`
}

// Session is one live channel. It owns a Navigator that mirrors the browser
// location and a Syncer that writes table state through it.
type Session struct {
	server *Server
	conn   *websocket.Conn
	nav    *history.Navigator
	syncer *tablequery.Syncer

	writeMu   sync.Mutex
	closeOnce sync.Once
	done      chan struct{}

	logger *slog.Logger
}

func (s *Server) handleLive(w http.ResponseWriter, r *http.Request) {
	location := r.URL.Query().Get("url")
	if location == "" {
		writeCoded(w, tqerrors.New("T100").
			WithDetail("The live channel needs the page location in the url query parameter.").
			WithSuggestion("Connect to /ws?url=<encoded location.href>"))
		return
	}

	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		// Upgrade has already written an error response.
		s.logger.Warn("websocket upgrade failed", "error", err)
		if s.metrics != nil {
			s.metrics.RecordWebSocketError(err)
		}
		return
	}

	sess := s.newSession(conn, location)
	s.addSession(sess)
	defer s.removeSession(sess)

	sess.logger.Debug("live session opened")
	sess.run()
	sess.logger.Debug("live session closed")
}

func (s *Server) newSession(conn *websocket.Conn, location string) *Session {
	sess := &Session{
		server: s,
		conn:   conn,
		done:   make(chan struct{}),
		logger: s.logger.With("remote", conn.RemoteAddr().String()),
	}
	sess.nav = history.NewNavigator(location, sess.queuePatch)
	sess.syncer = tablequery.NewSyncer(s.codec, sess.nav)
	return sess
}

// run sends the initial state and serves client messages until the
// connection closes.
func (sess *Session) run() {
	defer sess.Close(websocket.CloseNormalClosure, "")

	cfg := sess.server.config
	sess.conn.SetReadLimit(cfg.MaxMessageSize)
	sess.conn.SetReadDeadline(time.Now().Add(cfg.ReadTimeout))
	sess.conn.SetPongHandler(func(string) error {
		return sess.conn.SetReadDeadline(time.Now().Add(cfg.ReadTimeout))
	})

	go sess.heartbeat()

	state := sess.syncer.Load()
	if err := sess.send(ServerMessage{Type: MessageInit, URL: sess.nav.Current(), State: &state}); err != nil {
		sess.fail(err)
		return
	}

	for {
		_, data, err := sess.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err,
				websocket.CloseGoingAway,
				websocket.CloseNormalClosure) {
				sess.fail(err)
			}
			return
		}
		sess.conn.SetReadDeadline(time.Now().Add(cfg.ReadTimeout))

		if err := sess.handle(data); err != nil {
			sess.fail(err)
			return
		}
	}
}

// handle processes one client frame. Client mistakes are answered with an
// error frame; only transport failures are returned.
func (sess *Session) handle(data []byte) error {
	var msg ClientMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return sess.sendError(tqerrors.New("T160").Wrap(err))
	}

	switch msg.Type {
	case MessagePush:
		if msg.Params == nil {
			return sess.sendError(tqerrors.New("T160").WithDetail("push requires params"))
		}
		if _, err := sess.syncer.Push(*msg.Params); err != nil {
			return sess.writeFailure(err)
		}

	case MessageSelectAll:
		if _, err := sess.syncer.SetSelectAll(msg.Value); err != nil {
			return sess.writeFailure(err)
		}

	case MessageLocation:
		if msg.URL == "" {
			return sess.sendError(tqerrors.New("T160").WithDetail("location requires url"))
		}
		sess.nav.Sync(msg.URL)
		state := sess.syncer.Load()
		return sess.send(ServerMessage{Type: MessageState, URL: msg.URL, State: &state})

	default:
		return sess.sendError(tqerrors.New("T160").WithInput(msg.Type).WithDetail("unknown message type"))
	}
	return nil
}

// writeFailure separates codec errors, reported to the client, from
// transport errors, which end the session.
func (sess *Session) writeFailure(err error) error {
	if errors.Is(err, tablequery.ErrInvalidURL) {
		return sess.sendError(urlError(sess.nav.Current(), err))
	}
	return err
}

// queuePatch is the Navigator's patch sink.
func (sess *Session) queuePatch(p history.URLPatch) error {
	if err := sess.send(ServerMessage{Type: MessageURL, Mode: p.Mode.String(), URL: p.URL}); err != nil {
		return err
	}
	if m := sess.server.metrics; m != nil {
		m.RecordPatch()
	}
	return nil
}

func (sess *Session) sendError(err *tqerrors.Error) error {
	sess.logger.Debug("live message rejected", "error", err)
	return sess.send(ServerMessage{Type: MessageError, Error: err})
}

// send writes one frame. Safe for concurrent use.
func (sess *Session) send(msg ServerMessage) error {
	data, err := json.Marshal(msg)
	if err != nil {
		return err
	}

	sess.writeMu.Lock()
	defer sess.writeMu.Unlock()

	select {
	case <-sess.done:
		return ErrSessionClosed
	default:
	}
	sess.conn.SetWriteDeadline(time.Now().Add(sess.server.config.WriteTimeout))
	return sess.conn.WriteMessage(websocket.TextMessage, data)
}

// heartbeat pings the client until the session closes.
func (sess *Session) heartbeat() {
	ticker := time.NewTicker(sess.server.config.HeartbeatInterval)
	defer ticker.Stop()

	for {
		select {
		case <-sess.done:
			return
		case <-ticker.C:
			deadline := time.Now().Add(sess.server.config.WriteTimeout)
			if err := sess.conn.WriteControl(websocket.PingMessage, nil, deadline); err != nil {
				sess.logger.Debug("ping failed", "error", err)
				return
			}
		}
	}
}

func (sess *Session) fail(err error) {
	sess.logger.Error("live session error", "error", err)
	if m := sess.server.metrics; m != nil {
		m.RecordWebSocketError(err)
	}
}

// Close sends a close frame and closes the connection. Safe to call more
// than once.
func (sess *Session) Close(code int, reason string) {
	sess.closeOnce.Do(func() {
		close(sess.done)
		deadline := time.Now().Add(time.Second)
		sess.conn.WriteControl(websocket.CloseMessage, websocket.FormatCloseMessage(code, reason), deadline)
		sess.conn.Close()
	})
}
