package hub

import (
	"time"
)

// Inbound message kinds accepted from clients.
const (
	KindJoinDocument   = "join-document"
	KindLeaveDocument  = "leave-document"
	KindCursorUpdate   = "cursor-update"
	KindTypingStart    = "typing-start"
	KindTypingStop     = "typing-stop"
	KindDocumentChange = "document-change"
)

// Outbound message kinds emitted to clients.
const (
	KindDocumentState   = "document-state"
	KindUserJoined      = "user-joined"
	KindUserLeft        = "user-left"
	KindDocumentUpdated = "document-updated"
	KindAccessDenied    = "access-denied"
	KindError           = "error"
)

// Message is one frame on the realtime channel.
type Message struct {
	Kind    string `json:"kind"`
	Payload any    `json:"payload,omitempty"`
}

// SelectionRange is a client text selection; Start <= End, byte offsets.
type SelectionRange struct {
	Start int `json:"start"`
	End   int `json:"end"`
}

// JoinPayload asks to join a document room.
type JoinPayload struct {
	DocumentID string `json:"documentId"`
	UserID     string `json:"userId"`
}

// LeavePayload asks to leave the current document room.
type LeavePayload struct {
	DocumentID string `json:"documentId"`
}

// CursorPayload carries a cursor move, fanned out to peers unchanged.
type CursorPayload struct {
	DocumentID string          `json:"documentId"`
	UserID     string          `json:"userId"`
	SocketID   string          `json:"socketId,omitempty"`
	Position   int             `json:"position"`
	Selection  *SelectionRange `json:"selection,omitempty"`
	Username   string          `json:"username,omitempty"`
}

// TypingPayload carries typing start/stop notifications.
type TypingPayload struct {
	DocumentID string `json:"documentId"`
	UserID     string `json:"userId"`
	SocketID   string `json:"socketId,omitempty"`
}

// ContentChange is the body of a realtime content push.
type ContentChange struct {
	NewContent string    `json:"newContent"`
	Version    int64     `json:"version,omitempty"`
	Timestamp  time.Time `json:"timestamp"`
}

// DocumentChangePayload carries a realtime content push from a client.
type DocumentChangePayload struct {
	DocumentID string        `json:"documentId"`
	UserID     string        `json:"userId"`
	Change     ContentChange `json:"change"`
}

// Presence describes one connected session in a room roster.
type Presence struct {
	UserID    string          `json:"userId"`
	SocketID  string          `json:"socketId"`
	Username  string          `json:"username,omitempty"`
	Color     string          `json:"color"`
	Cursor    *int            `json:"cursor,omitempty"`
	Selection *SelectionRange `json:"selection,omitempty"`
	Typing    bool            `json:"typing"`
}

// DocumentStatePayload is the snapshot sent to a session right after joining.
type DocumentStatePayload struct {
	Content      string     `json:"content"`
	Version      int64      `json:"version"`
	LastEdited   time.Time  `json:"lastEdited"`
	CurrentUsers []Presence `json:"currentUsers"`
}

// UserJoinedPayload announces a new peer in the room.
type UserJoinedPayload struct {
	UserID    string    `json:"userId"`
	SocketID  string    `json:"socketId"`
	Username  string    `json:"username,omitempty"`
	Color     string    `json:"color"`
	Timestamp time.Time `json:"timestamp"`
}

// UserLeftPayload announces a peer leaving the room.
type UserLeftPayload struct {
	SocketID  string    `json:"socketId"`
	Timestamp time.Time `json:"timestamp"`
}

// DocumentUpdatedPayload announces a committed content revision.
type DocumentUpdatedPayload struct {
	UserID   string        `json:"userId"`
	SocketID string        `json:"socketId,omitempty"`
	Change   ContentChange `json:"change"`
}

// AccessDeniedPayload reports a failed join access check.
type AccessDeniedPayload struct {
	Message string `json:"message"`
}

// ErrorPayload reports a recoverable error without ending the session.
type ErrorPayload struct {
	Message string `json:"message"`
}
