package hub

import (
	"sync"
	"time"

	"github.com/google/uuid"
)

// colorPalette is the fixed set of hues assigned to sessions. Assignment
// cycles through the palette and is not stable across reconnects.
var colorPalette = [10]string{
	"#e6194b", "#3cb44b", "#ffe119", "#4363d8", "#f58231",
	"#911eb4", "#46f0f0", "#f032e6", "#bcf60c", "#008080",
}

// Room is the in-memory fan-out structure for one document. It caches the
// latest content to seed joiners; the persistence port stays the source of
// truth. Rooms are created lazily on first join and destroyed when the last
// session leaves.
type Room struct {
	documentID uuid.UUID

	mu         sync.RWMutex
	content    string
	version    int64
	lastEdited time.Time
	sessions   map[string]*Session
	nextColor  int

	// emitMu serializes broadcasts so every peer observes them in the same
	// order. It is never held while blocking: enqueues never block.
	emitMu sync.Mutex
}

func newRoom(documentID uuid.UUID, content string, version int64, lastEdited time.Time) *Room {
	return &Room{
		documentID: documentID,
		content:    content,
		version:    version,
		lastEdited: lastEdited,
		sessions:   make(map[string]*Session),
	}
}

// DocumentID returns the document this room serves.
func (r *Room) DocumentID() uuid.UUID { return r.documentID }

// snapshot returns the cached content, version, and last-edit time.
func (r *Room) snapshot() (string, int64, time.Time) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.content, r.version, r.lastEdited
}

// setContent updates the cached content if version advances it; stale
// versions are discarded per the monotonicity rule.
func (r *Room) setContent(content string, version int64, at time.Time) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	if version <= r.version {
		return false
	}
	r.content = content
	r.version = version
	r.lastEdited = at
	return true
}

// addSession adds a session to the roster, assigns its color, and returns the
// roster of the other sessions for the join snapshot.
func (r *Room) addSession(sess *Session) (color string, peers []Presence) {
	r.mu.Lock()
	defer r.mu.Unlock()

	color = colorPalette[r.nextColor%len(colorPalette)]
	r.nextColor++

	for _, peer := range r.sessions {
		peers = append(peers, peer.presence())
	}
	r.sessions[sess.id] = sess
	return color, peers
}

// removeSession drops a session from the roster and reports whether the room
// is now empty.
func (r *Room) removeSession(sessionID string) (empty bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	delete(r.sessions, sessionID)
	return len(r.sessions) == 0
}

func (r *Room) size() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.sessions)
}

// broadcast fans a message out to every session except the excluded sender.
// The roster lock is dropped before emitting; emitMu keeps the per-room
// ordering that peers rely on.
func (r *Room) broadcast(msg *Message, excludeSessionID string) {
	r.emitMu.Lock()
	defer r.emitMu.Unlock()

	r.mu.RLock()
	peers := make([]*Session, 0, len(r.sessions))
	for id, sess := range r.sessions {
		if id == excludeSessionID {
			continue
		}
		peers = append(peers, sess)
	}
	r.mu.RUnlock()

	for _, peer := range peers {
		peer.enqueue(msg)
	}
}
