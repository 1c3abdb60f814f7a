package hub

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/jdamiba/sandstone-project/internal/domain"
	"github.com/jdamiba/sandstone-project/internal/repository/memory"
)

type hubFixture struct {
	docs    *memory.DocumentRepository
	collabs *memory.CollaboratorRepository
	hub     *Hub
}

func newHubFixture(t *testing.T) *hubFixture {
	t.Helper()
	collabs := memory.NewCollaboratorRepository()
	docs := memory.NewDocumentRepository(collabs)
	h, err := New(docs, collabs, zap.NewNop())
	require.NoError(t, err)
	return &hubFixture{docs: docs, collabs: collabs, hub: h}
}

func (f *hubFixture) createDocument(t *testing.T, ownerID, content string, public bool) *domain.Document {
	t.Helper()
	doc := domain.NewDocument(ownerID, "doc")
	doc.Content = content
	doc.IsPublic = public
	require.NoError(t, f.docs.Create(context.Background(), doc))
	require.NoError(t, f.collabs.Upsert(context.Background(), domain.NewCollaborator(doc.ID, ownerID, domain.PermissionOwner)))
	return doc
}

// drain empties the session's buffered outbound queue.
func drain(sess *Session) []*Message {
	var msgs []*Message
	for {
		select {
		case msg, ok := <-sess.Messages():
			if !ok {
				return msgs
			}
			msgs = append(msgs, msg)
		default:
			return msgs
		}
	}
}

func kinds(msgs []*Message) []string {
	out := make([]string, len(msgs))
	for i, m := range msgs {
		out[i] = m.Kind
	}
	return out
}

func TestJoinEmitsStateSnapshotAndUserJoined(t *testing.T) {
	f := newHubFixture(t)
	doc := f.createDocument(t, "user-a", "hello", true)

	s1 := f.hub.NewSession("user-a", "Alice")
	f.hub.Join(context.Background(), s1, doc.ID)

	msgs := drain(s1)
	require.Len(t, msgs, 1)
	require.Equal(t, KindDocumentState, msgs[0].Kind)
	state := msgs[0].Payload.(DocumentStatePayload)
	assert.Equal(t, "hello", state.Content)
	assert.Equal(t, doc.Version, state.Version)
	assert.Empty(t, state.CurrentUsers)

	s2 := f.hub.NewSession("user-b", "Bob")
	f.hub.Join(context.Background(), s2, doc.ID)

	msgs = drain(s2)
	require.Len(t, msgs, 1)
	state = msgs[0].Payload.(DocumentStatePayload)
	require.Len(t, state.CurrentUsers, 1)
	assert.Equal(t, "user-a", state.CurrentUsers[0].UserID)
	assert.Equal(t, s1.ID(), state.CurrentUsers[0].SocketID)
	assert.NotEmpty(t, state.CurrentUsers[0].Color)

	// The first joiner hears about the second.
	msgs = drain(s1)
	require.Len(t, msgs, 1)
	require.Equal(t, KindUserJoined, msgs[0].Kind)
	joined := msgs[0].Payload.(UserJoinedPayload)
	assert.Equal(t, "user-b", joined.UserID)
	assert.Equal(t, s2.ID(), joined.SocketID)

	assert.Equal(t, 1, f.hub.RoomCount())
}

func TestJoinDeniedOnPrivateDocument(t *testing.T) {
	f := newHubFixture(t)
	doc := f.createDocument(t, "user-a", "secret", false)

	sess := f.hub.NewSession("user-b", "Bob")
	f.hub.Join(context.Background(), sess, doc.ID)

	msgs := drain(sess)
	require.Len(t, msgs, 1)
	assert.Equal(t, KindAccessDenied, msgs[0].Kind)
	assert.Equal(t, 0, f.hub.RoomCount())
	assert.Nil(t, sess.currentRoom())
}

func TestJoinDeniedOnMissingDocument(t *testing.T) {
	f := newHubFixture(t)

	sess := f.hub.NewSession("user-b", "Bob")
	f.hub.Join(context.Background(), sess, uuid.New())

	msgs := drain(sess)
	require.Len(t, msgs, 1)
	assert.Equal(t, KindAccessDenied, msgs[0].Kind)
}

func TestViewerBindingMayJoinPrivateDocument(t *testing.T) {
	f := newHubFixture(t)
	doc := f.createDocument(t, "user-a", "shared draft", false)
	require.NoError(t, f.collabs.Upsert(context.Background(), domain.NewCollaborator(doc.ID, "user-b", domain.PermissionViewer)))

	sess := f.hub.NewSession("user-b", "Bob")
	f.hub.Join(context.Background(), sess, doc.ID)

	msgs := drain(sess)
	require.Len(t, msgs, 1)
	assert.Equal(t, KindDocumentState, msgs[0].Kind)
}

func TestContentBroadcastReachesPeersOnce(t *testing.T) {
	f := newHubFixture(t)
	doc := f.createDocument(t, "user-a", "", true)

	s1 := f.hub.NewSession("user-a", "Alice")
	s2 := f.hub.NewSession("user-b", "Bob")
	f.hub.Join(context.Background(), s1, doc.ID)
	f.hub.Join(context.Background(), s2, doc.ID)
	drain(s1)
	drain(s2)

	require.NoError(t, f.hub.BroadcastContent(context.Background(), s1, "abc"))

	// C2 receives exactly one document-updated; C1 gets no echo.
	msgs := drain(s2)
	require.Len(t, msgs, 1)
	require.Equal(t, KindDocumentUpdated, msgs[0].Kind)
	updated := msgs[0].Payload.(DocumentUpdatedPayload)
	assert.Equal(t, "abc", updated.Change.NewContent)
	assert.Equal(t, doc.Version+1, updated.Change.Version)
	assert.Equal(t, s1.ID(), updated.SocketID)
	assert.Empty(t, drain(s1))

	stored, err := f.docs.Get(context.Background(), doc.ID)
	require.NoError(t, err)
	assert.Equal(t, "abc", stored.Content)
	assert.Equal(t, doc.Version+1, stored.Version)
}

func TestBroadcastVersionsAreMonotonic(t *testing.T) {
	f := newHubFixture(t)
	doc := f.createDocument(t, "user-a", "", true)

	s1 := f.hub.NewSession("user-a", "Alice")
	s2 := f.hub.NewSession("user-b", "Bob")
	f.hub.Join(context.Background(), s1, doc.ID)
	f.hub.Join(context.Background(), s2, doc.ID)
	drain(s1)
	drain(s2)

	require.NoError(t, f.hub.BroadcastContent(context.Background(), s1, "one"))
	require.NoError(t, f.hub.BroadcastContent(context.Background(), s1, "one two"))
	require.NoError(t, f.hub.BroadcastContent(context.Background(), s1, "one two three"))

	var last int64
	for _, msg := range drain(s2) {
		require.Equal(t, KindDocumentUpdated, msg.Kind)
		version := msg.Payload.(DocumentUpdatedPayload).Change.Version
		assert.Greater(t, version, last)
		last = version
	}
}

func TestCursorAndTypingFanOut(t *testing.T) {
	f := newHubFixture(t)
	doc := f.createDocument(t, "user-a", "text", true)

	s1 := f.hub.NewSession("user-a", "Alice")
	s2 := f.hub.NewSession("user-b", "Bob")
	f.hub.Join(context.Background(), s1, doc.ID)
	f.hub.Join(context.Background(), s2, doc.ID)
	drain(s1)
	drain(s2)

	f.hub.UpdateCursor(s1, 3, &SelectionRange{Start: 3, End: 4}, "Alice")
	f.hub.SetTyping(s1, true)
	f.hub.SetTyping(s1, false)

	msgs := drain(s2)
	require.Equal(t, []string{KindCursorUpdate, KindTypingStart, KindTypingStop}, kinds(msgs))
	cursor := msgs[0].Payload.(CursorPayload)
	assert.Equal(t, 3, cursor.Position)
	assert.Equal(t, s1.ID(), cursor.SocketID)
	require.NotNil(t, cursor.Selection)
	assert.Equal(t, 4, cursor.Selection.End)

	// Sender hears nothing back.
	assert.Empty(t, drain(s1))

	// A later joiner sees the stored cursor state in the snapshot.
	s3 := f.hub.NewSession("user-c", "Cara")
	f.hub.Join(context.Background(), s3, doc.ID)
	state := drain(s3)[0].Payload.(DocumentStatePayload)
	for _, presence := range state.CurrentUsers {
		if presence.SocketID == s1.ID() {
			require.NotNil(t, presence.Cursor)
			assert.Equal(t, 3, *presence.Cursor)
			assert.False(t, presence.Typing)
		}
	}
}

func TestLeaveDestroysEmptyRoom(t *testing.T) {
	f := newHubFixture(t)
	doc := f.createDocument(t, "user-a", "text", true)

	s1 := f.hub.NewSession("user-a", "Alice")
	s2 := f.hub.NewSession("user-b", "Bob")
	f.hub.Join(context.Background(), s1, doc.ID)
	f.hub.Join(context.Background(), s2, doc.ID)
	drain(s1)
	drain(s2)

	f.hub.Disconnect(s2)

	msgs := drain(s1)
	require.Len(t, msgs, 1)
	require.Equal(t, KindUserLeft, msgs[0].Kind)
	assert.Equal(t, s2.ID(), msgs[0].Payload.(UserLeftPayload).SocketID)
	assert.Equal(t, 1, f.hub.RoomCount())

	f.hub.Disconnect(s1)
	assert.Equal(t, 0, f.hub.RoomCount())

	// Disconnect is idempotent.
	f.hub.Disconnect(s1)
}

func TestBroadcastContentRequiresRoom(t *testing.T) {
	f := newHubFixture(t)

	sess := f.hub.NewSession("user-a", "Alice")
	err := f.hub.BroadcastContent(context.Background(), sess, "abc")
	require.Error(t, err)
}

func TestNotifyDocumentUpdatedReachesRoom(t *testing.T) {
	f := newHubFixture(t)
	doc := f.createDocument(t, "user-a", "old", true)

	sess := f.hub.NewSession("user-b", "Bob")
	f.hub.Join(context.Background(), sess, doc.ID)
	drain(sess)

	f.hub.NotifyDocumentUpdated(doc.ID, "user-a", "new body", doc.Version+1)

	msgs := drain(sess)
	require.Len(t, msgs, 1)
	require.Equal(t, KindDocumentUpdated, msgs[0].Kind)
	assert.Equal(t, "new body", msgs[0].Payload.(DocumentUpdatedPayload).Change.NewContent)

	// A room that is not live is a no-op.
	f.hub.NotifyDocumentUpdated(uuid.New(), "user-a", "x", 2)
}

func TestSlowConsumerIsDropped(t *testing.T) {
	f := newHubFixture(t)
	doc := f.createDocument(t, "user-a", "text", true)

	s1 := f.hub.NewSession("user-a", "Alice")
	s2 := f.hub.NewSession("user-b", "Bob")
	f.hub.Join(context.Background(), s1, doc.ID)
	f.hub.Join(context.Background(), s2, doc.ID)
	drain(s1)

	// Never drain s2: its buffer fills and the session closes instead of
	// stalling the room.
	for i := 0; i < sendBufferSize+8; i++ {
		f.hub.SetTyping(s1, i%2 == 0)
	}

	_, open := <-s2.Messages()
	assert.True(t, open) // buffered messages still drain
	msgs := drain(s2)
	assert.NotEmpty(t, msgs)
}
