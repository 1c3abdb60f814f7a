// Package ws binds the collaboration hub to a websocket transport.
package ws

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	httpapi "github.com/jdamiba/sandstone-project/internal/delivery/http"
	"github.com/jdamiba/sandstone-project/internal/hub"
)

const (
	writeWait  = 10 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = (pongWait * 9) / 10

	maxFrameBytes = 1_100_000
)

// envelope is the wire shape of one inbound frame.
type envelope struct {
	Kind    string          `json:"kind"`
	Payload json.RawMessage `json:"payload"`
}

// Router upgrades HTTP requests into hub sessions.
type Router struct {
	hub      *hub.Hub
	logger   *zap.Logger
	upgrader websocket.Upgrader
}

// NewRouter creates a new websocket router.
func NewRouter(h *hub.Hub, logger *zap.Logger) *Router {
	return &Router{
		hub:    h,
		logger: logger,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  4096,
			WriteBufferSize: 4096,
			CheckOrigin:     func(*http.Request) bool { return true },
		},
	}
}

// HandleConnection accepts a websocket connection for the authenticated
// principal and runs it until the transport closes.
func (rt *Router) HandleConnection(w http.ResponseWriter, r *http.Request) {
	userID, ok := httpapi.PrincipalFrom(r.Context())
	if !ok {
		http.Error(w, "authentication required", http.StatusUnauthorized)
		return
	}

	conn, err := rt.upgrader.Upgrade(w, r, nil)
	if err != nil {
		rt.logger.Warn("Websocket upgrade failed", zap.Error(err))
		return
	}

	sess := rt.hub.NewSession(userID, r.URL.Query().Get("username"))
	rt.logger.Info("Websocket session accepted",
		zap.String("session_id", sess.ID()),
		zap.String("user_id", userID))

	go rt.writePump(conn, sess)
	rt.readPump(conn, sess)
}

// readPump consumes inbound frames and dispatches them to the hub. On any
// read failure the session leaves its room exactly once.
func (rt *Router) readPump(conn *websocket.Conn, sess *hub.Session) {
	defer func() {
		rt.hub.Disconnect(sess)
		conn.Close()
	}()

	conn.SetReadLimit(maxFrameBytes)
	conn.SetReadDeadline(time.Now().Add(pongWait))
	conn.SetPongHandler(func(string) error {
		conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		_, frame, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				rt.logger.Warn("Websocket read error",
					zap.String("session_id", sess.ID()),
					zap.Error(err))
			}
			return
		}

		var env envelope
		if err := json.Unmarshal(frame, &env); err != nil {
			sess.Send(&hub.Message{Kind: hub.KindError, Payload: hub.ErrorPayload{Message: "malformed message"}})
			continue
		}
		rt.dispatch(sess, &env)
	}
}

// dispatch routes one inbound frame. Mutations run against a background
// context: a client disconnecting mid-write must not cancel the database
// transaction.
func (rt *Router) dispatch(sess *hub.Session, env *envelope) {
	switch env.Kind {
	case hub.KindJoinDocument:
		var payload hub.JoinPayload
		if err := json.Unmarshal(env.Payload, &payload); err != nil {
			sess.Send(&hub.Message{Kind: hub.KindError, Payload: hub.ErrorPayload{Message: "malformed join request"}})
			return
		}
		documentID, err := uuid.Parse(payload.DocumentID)
		if err != nil {
			sess.Send(&hub.Message{Kind: hub.KindError, Payload: hub.ErrorPayload{Message: "invalid document id"}})
			return
		}
		rt.hub.Join(context.Background(), sess, documentID)

	case hub.KindLeaveDocument:
		rt.hub.LeaveRoom(sess)

	case hub.KindCursorUpdate:
		var payload hub.CursorPayload
		if err := json.Unmarshal(env.Payload, &payload); err != nil {
			sess.Send(&hub.Message{Kind: hub.KindError, Payload: hub.ErrorPayload{Message: "malformed cursor update"}})
			return
		}
		rt.hub.UpdateCursor(sess, payload.Position, payload.Selection, payload.Username)

	case hub.KindTypingStart:
		rt.hub.SetTyping(sess, true)

	case hub.KindTypingStop:
		rt.hub.SetTyping(sess, false)

	case hub.KindDocumentChange:
		var payload hub.DocumentChangePayload
		if err := json.Unmarshal(env.Payload, &payload); err != nil {
			sess.Send(&hub.Message{Kind: hub.KindError, Payload: hub.ErrorPayload{Message: "malformed document change"}})
			return
		}
		if err := rt.hub.BroadcastContent(context.Background(), sess, payload.Change.NewContent); err != nil {
			sess.Send(&hub.Message{Kind: hub.KindError, Payload: hub.ErrorPayload{Message: err.Error()}})
		}

	default:
		sess.Send(&hub.Message{Kind: hub.KindError, Payload: hub.ErrorPayload{Message: "unknown message kind: " + env.Kind}})
	}
}

// writePump drains the session queue onto the wire and keeps the connection
// alive with pings. It exits when the hub closes the queue or a write fails.
func (rt *Router) writePump(conn *websocket.Conn, sess *hub.Session) {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		conn.Close()
	}()

	for {
		select {
		case msg, ok := <-sess.Messages():
			conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := conn.WriteJSON(msg); err != nil {
				rt.logger.Warn("Websocket write error",
					zap.String("session_id", sess.ID()),
					zap.Error(err))
				return
			}
		case <-ticker.C:
			conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
