package hub

import (
	"sync"
)

// sendBufferSize bounds the per-session outbound queue. A session that stops
// draining for this many messages is dropped rather than blocking the room.
const sendBufferSize = 64

// Session represents one connected client. A session is created on transport
// accept and bound to at most one room after a successful join access check.
type Session struct {
	id       string
	userID   string
	username string

	mu        sync.Mutex
	room      *Room
	color     string
	cursor    *int
	selection *SelectionRange
	typing    bool
	closed    bool
	send      chan *Message
}

func newSession(id, userID, username string) *Session {
	return &Session{
		id:       id,
		userID:   userID,
		username: username,
		send:     make(chan *Message, sendBufferSize),
	}
}

// ID returns the session identity, fresh per connection.
func (s *Session) ID() string { return s.id }

// UserID returns the owning principal.
func (s *Session) UserID() string { return s.userID }

// Messages returns the session's outbound queue. The transport write pump
// drains it until the channel is closed.
func (s *Session) Messages() <-chan *Message { return s.send }

// Send offers a message directly to this session, reporting whether it was
// queued. Used by the transport for request-scoped error frames.
func (s *Session) Send(msg *Message) bool { return s.enqueue(msg) }

// enqueue offers a message to the session without blocking. A full buffer
// means the consumer is not draining; the session is closed so the room does
// not stall behind it.
func (s *Session) enqueue(msg *Message) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return false
	}
	select {
	case s.send <- msg:
		return true
	default:
		s.closed = true
		close(s.send)
		return false
	}
}

// close shuts the outbound queue. Idempotent.
func (s *Session) close() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.closed {
		s.closed = true
		close(s.send)
	}
}

func (s *Session) setRoom(room *Room, color string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.room = room
	s.color = color
	s.cursor = nil
	s.selection = nil
	s.typing = false
}

func (s *Session) currentRoom() *Room {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.room
}

func (s *Session) clearRoom() *Room {
	s.mu.Lock()
	defer s.mu.Unlock()
	room := s.room
	s.room = nil
	return room
}

func (s *Session) setCursor(position int, selection *SelectionRange, username string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.cursor = &position
	s.selection = selection
	if username != "" {
		s.username = username
	}
}

func (s *Session) setTyping(typing bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.typing = typing
}

// presence captures the session's roster entry for state snapshots.
func (s *Session) presence() Presence {
	s.mu.Lock()
	defer s.mu.Unlock()
	return Presence{
		UserID:    s.userID,
		SocketID:  s.id,
		Username:  s.username,
		Color:     s.color,
		Cursor:    s.cursor,
		Selection: s.selection,
		Typing:    s.typing,
	}
}
