// Package hub is the in-memory collaboration plane: a registry of per-document
// rooms that fans cursor, typing, presence, and content messages out to the
// sessions joined to the same document.
package hub

import (
	"context"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/jdamiba/sandstone-project/internal/apperr"
	"github.com/jdamiba/sandstone-project/internal/domain"
)

// Hub multiplexes realtime sessions over per-document rooms. Rooms are
// reference-counted by session membership; the registry and the database
// pool are the only process-wide shared state.
type Hub struct {
	docs    domain.DocumentRepository
	collabs domain.CollaboratorRepository
	logger  *zap.Logger
	node    *snowflake.Node

	mu    sync.Mutex
	rooms map[uuid.UUID]*Room
}

// New creates a hub over the persistence ports.
func New(docs domain.DocumentRepository, collabs domain.CollaboratorRepository, logger *zap.Logger) (*Hub, error) {
	node, err := snowflake.NewNode(1)
	if err != nil {
		return nil, fmt.Errorf("failed to create snowflake node: %w", err)
	}
	return &Hub{
		docs:    docs,
		collabs: collabs,
		logger:  logger,
		node:    node,
		rooms:   make(map[uuid.UUID]*Room),
	}, nil
}

// NewSession creates a session for an accepted transport owned by userID.
func (h *Hub) NewSession(userID, username string) *Session {
	return newSession(h.node.Generate().String(), userID, username)
}

// RoomCount returns the number of live rooms.
func (h *Hub) RoomCount() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.rooms)
}

// Join runs the join access check and, on success, binds the session to the
// document's room, emits the state snapshot to the joiner, and announces the
// join to peers. On deny the session stays connected and receives
// access-denied.
func (h *Hub) Join(ctx context.Context, sess *Session, documentID uuid.UUID) {
	if room := sess.clearRoom(); room != nil {
		h.leaveRoom(sess, room)
	}

	doc, err := h.docs.Get(ctx, documentID)
	if err != nil {
		if apperr.CodeOf(err) == http.StatusNotFound {
			sess.enqueue(&Message{Kind: KindAccessDenied, Payload: AccessDeniedPayload{Message: "document not found or not accessible"}})
			return
		}
		h.logger.Error("Failed to load document for join",
			zap.String("document_id", documentID.String()),
			zap.Error(err))
		sess.enqueue(&Message{Kind: KindError, Payload: ErrorPayload{Message: "failed to load document"}})
		return
	}
	binding, err := h.collabs.Get(ctx, documentID, sess.userID)
	if err != nil {
		h.logger.Error("Failed to load binding for join",
			zap.String("document_id", documentID.String()),
			zap.String("user_id", sess.userID),
			zap.Error(err))
		sess.enqueue(&Message{Kind: KindError, Payload: ErrorPayload{Message: "failed to load document"}})
		return
	}
	if !domain.CanRead(doc, binding, sess.userID) {
		sess.enqueue(&Message{Kind: KindAccessDenied, Payload: AccessDeniedPayload{Message: "you do not have access to this document"}})
		return
	}

	h.mu.Lock()
	room, exists := h.rooms[documentID]
	if !exists {
		room = newRoom(documentID, doc.Content, doc.Version, doc.LastEditedAt)
		h.rooms[documentID] = room
	}
	color, peers := room.addSession(sess)
	h.mu.Unlock()

	sess.setRoom(room, color)
	if peers == nil {
		peers = []Presence{}
	}

	content, version, lastEdited := room.snapshot()
	sess.enqueue(&Message{Kind: KindDocumentState, Payload: DocumentStatePayload{
		Content:      content,
		Version:      version,
		LastEdited:   lastEdited,
		CurrentUsers: peers,
	}})
	room.broadcast(&Message{Kind: KindUserJoined, Payload: UserJoinedPayload{
		UserID:    sess.userID,
		SocketID:  sess.id,
		Username:  sess.username,
		Color:     color,
		Timestamp: time.Now().UTC(),
	}}, sess.id)

	h.logger.Info("Session joined room",
		zap.String("session_id", sess.id),
		zap.String("user_id", sess.userID),
		zap.String("document_id", documentID.String()),
		zap.Int("room_size", room.size()))
}

// LeaveRoom unbinds the session from its room, keeping the transport open for
// a later join.
func (h *Hub) LeaveRoom(sess *Session) {
	if room := sess.clearRoom(); room != nil {
		h.leaveRoom(sess, room)
	}
}

// Disconnect tears the session down on transport close: leave the room once,
// then shut the outbound queue.
func (h *Hub) Disconnect(sess *Session) {
	h.LeaveRoom(sess)
	sess.close()
}

func (h *Hub) leaveRoom(sess *Session, room *Room) {
	h.mu.Lock()
	empty := room.removeSession(sess.id)
	if empty {
		delete(h.rooms, room.documentID)
	}
	h.mu.Unlock()

	if !empty {
		room.broadcast(&Message{Kind: KindUserLeft, Payload: UserLeftPayload{
			SocketID:  sess.id,
			Timestamp: time.Now().UTC(),
		}}, sess.id)
	}

	h.logger.Info("Session left room",
		zap.String("session_id", sess.id),
		zap.String("document_id", room.documentID.String()),
		zap.Bool("room_destroyed", empty))
}

// UpdateCursor stores the session's cursor state and fans the update out to
// peers. Fire-and-forget: stale cursor frames are harmless to drop
// client-side.
func (h *Hub) UpdateCursor(sess *Session, position int, selection *SelectionRange, username string) {
	room := sess.currentRoom()
	if room == nil {
		return
	}

	sess.setCursor(position, selection, username)
	room.broadcast(&Message{Kind: KindCursorUpdate, Payload: CursorPayload{
		DocumentID: room.documentID.String(),
		UserID:     sess.userID,
		SocketID:   sess.id,
		Position:   position,
		Selection:  selection,
		Username:   username,
	}}, sess.id)
}

// SetTyping stores the typing flag and fans the start/stop out to peers.
func (h *Hub) SetTyping(sess *Session, typing bool) {
	room := sess.currentRoom()
	if room == nil {
		return
	}

	sess.setTyping(typing)
	kind := KindTypingStop
	if typing {
		kind = KindTypingStart
	}
	room.broadcast(&Message{Kind: kind, Payload: TypingPayload{
		DocumentID: room.documentID.String(),
		UserID:     sess.userID,
		SocketID:   sess.id,
	}}, sess.id)
}

// BroadcastContent persists a content push from a session and fans the
// committed revision out to peers. The persistence port's atomic
// content-plus-version update is the serialization point between concurrent
// writers; the room cache discards stale revisions.
func (h *Hub) BroadcastContent(ctx context.Context, sess *Session, newContent string) error {
	room := sess.currentRoom()
	if room == nil {
		return apperr.BadRequest("join a document before sending changes")
	}
	if len(newContent) > domain.MaxContentBytes {
		return apperr.Validation("document exceeds 1000000 bytes")
	}

	doc, err := h.docs.UpdateContent(ctx, room.documentID, newContent)
	if err != nil {
		return err
	}

	room.setContent(doc.Content, doc.Version, doc.LastEditedAt)
	room.broadcast(&Message{Kind: KindDocumentUpdated, Payload: DocumentUpdatedPayload{
		UserID:   sess.userID,
		SocketID: sess.id,
		Change: ContentChange{
			NewContent: doc.Content,
			Version:    doc.Version,
			Timestamp:  doc.LastEditedAt,
		},
	}}, sess.id)

	h.logger.Debug("Broadcast content update",
		zap.String("session_id", sess.id),
		zap.String("document_id", room.documentID.String()),
		zap.Int64("version", doc.Version))
	return nil
}

// NotifyDocumentUpdated fans a revision committed outside the realtime path
// (the HTTP change endpoint) out to the document's room, if one is live.
func (h *Hub) NotifyDocumentUpdated(documentID uuid.UUID, userID, content string, version int64) {
	h.mu.Lock()
	room := h.rooms[documentID]
	h.mu.Unlock()
	if room == nil {
		return
	}

	at := time.Now().UTC()
	room.setContent(content, version, at)
	room.broadcast(&Message{Kind: KindDocumentUpdated, Payload: DocumentUpdatedPayload{
		UserID: userID,
		Change: ContentChange{
			NewContent: content,
			Version:    version,
			Timestamp:  at,
		},
	}}, "")
}
