package usecase

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/jdamiba/sandstone-project/internal/apperr"
	"github.com/jdamiba/sandstone-project/internal/domain"
	"github.com/jdamiba/sandstone-project/internal/repository/memory"
)

type changeFixture struct {
	docs    *memory.DocumentRepository
	collabs *memory.CollaboratorRepository
	uc      *ChangeUseCase
}

func newChangeFixture(t *testing.T) *changeFixture {
	t.Helper()
	collabs := memory.NewCollaboratorRepository()
	docs := memory.NewDocumentRepository(collabs)
	return &changeFixture{
		docs:    docs,
		collabs: collabs,
		uc:      NewChangeUseCase(docs, collabs, zap.NewNop()),
	}
}

func (f *changeFixture) createDocument(t *testing.T, ownerID, content string, public bool) *domain.Document {
	t.Helper()
	doc := domain.NewDocument(ownerID, "test document")
	doc.Content = content
	doc.IsPublic = public
	require.NoError(t, f.docs.Create(context.Background(), doc))
	require.NoError(t, f.collabs.Upsert(context.Background(), domain.NewCollaborator(doc.ID, ownerID, domain.PermissionOwner)))
	return doc
}

func singleRequest(textToReplace, newText string) *domain.ChangeRequest {
	return &domain.ChangeRequest{TextToReplace: &textToReplace, NewText: &newText}
}

func TestApplySingleChangeByOwner(t *testing.T) {
	f := newChangeFixture(t)
	doc := f.createDocument(t, "user-a", "I love reading books", false)

	result, err := f.uc.Apply(context.Background(), doc.ID, "user-a", singleRequest("books", "emails"))

	require.NoError(t, err)
	assert.Equal(t, "I love reading emails", result.DocumentText)
	assert.Equal(t, domain.RequestTypeSingle, result.Changes.RequestType)
	assert.Equal(t, 1, result.Changes.AppliedChanges)
	assert.Equal(t, doc.Version+1, result.Changes.DocumentVersion)

	ops := f.docs.Operations(doc.ID)
	require.Len(t, ops, 1)
	assert.Equal(t, int64(1), ops[0].Sequence)
	assert.Equal(t, domain.OperationReplace, ops[0].Kind)
	assert.Equal(t, 15, ops[0].Position)
	assert.Equal(t, 5, ops[0].Length)
	assert.Equal(t, "emails", ops[0].Content)
	assert.Equal(t, "user-a", ops[0].UserID)

	stored, err := f.docs.Get(context.Background(), doc.ID)
	require.NoError(t, err)
	assert.Equal(t, "I love reading emails", stored.Content)
	assert.Equal(t, doc.Version+1, stored.Version)
}

func TestApplyBatchWithOneMiss(t *testing.T) {
	f := newChangeFixture(t)
	doc := f.createDocument(t, "user-a", "Hello world", false)

	result, err := f.uc.Apply(context.Background(), doc.ID, "user-a", &domain.ChangeRequest{
		Changes: []domain.Change{
			{TextToReplace: "Hello", NewText: "Hi"},
			{TextToReplace: "missing", NewText: "x"},
			{TextToReplace: "world", NewText: "universe"},
		},
	})

	require.NoError(t, err)
	assert.Equal(t, "Hi universe", result.DocumentText)
	assert.Equal(t, domain.RequestTypeBatch, result.Changes.RequestType)
	assert.Equal(t, 3, result.Changes.TotalChanges)
	assert.Equal(t, 2, result.Changes.AppliedChanges)

	require.Len(t, result.Changes.PerOp, 3)
	missed := result.Changes.PerOp[1]
	assert.Equal(t, "missing", missed.TextReplaced)
	assert.False(t, missed.Applied)
	assert.Equal(t, -1, missed.Position)

	assert.Len(t, f.docs.Operations(doc.ID), 2)
}

func TestApplyBatchOverlappingTargetsRightToLeft(t *testing.T) {
	f := newChangeFixture(t)
	doc := f.createDocument(t, "user-a", "Hello world", false)

	result, err := f.uc.Apply(context.Background(), doc.ID, "user-a", &domain.ChangeRequest{
		Changes: []domain.Change{
			{TextToReplace: "Hello world", NewText: "Hi universe"},
			{TextToReplace: "Hello", NewText: "Hi"},
			{TextToReplace: "world", NewText: "universe"},
		},
	})

	require.NoError(t, err)
	assert.Equal(t, "Hi universe", result.DocumentText)
	assert.Equal(t, 2, result.Changes.AppliedChanges)

	// "world" applies first at position 6, then "Hello" at 0; the full-string
	// op no longer matches.
	assert.False(t, result.Changes.PerOp[0].Applied)
	assert.True(t, result.Changes.PerOp[1].Applied)
	assert.Equal(t, 0, result.Changes.PerOp[1].Position)
	assert.True(t, result.Changes.PerOp[2].Applied)
	assert.Equal(t, 6, result.Changes.PerOp[2].Position)
}

func TestApplyZeroOpsApplied(t *testing.T) {
	f := newChangeFixture(t)
	doc := f.createDocument(t, "user-a", "Hello", false)

	_, err := f.uc.Apply(context.Background(), doc.ID, "user-a", singleRequest("foo", "bar"))

	require.Error(t, err)
	assert.Equal(t, 400, apperr.CodeOf(err))

	stored, getErr := f.docs.Get(context.Background(), doc.ID)
	require.NoError(t, getErr)
	assert.Equal(t, "Hello", stored.Content)
	assert.Equal(t, doc.Version, stored.Version)
	assert.Empty(t, f.docs.Operations(doc.ID))
	assert.Empty(t, f.docs.Analytics())
}

func TestApplyPublicDocumentByNonOwner(t *testing.T) {
	f := newChangeFixture(t)
	doc := f.createDocument(t, "user-a", "shared text", true)

	result, err := f.uc.Apply(context.Background(), doc.ID, "user-b", singleRequest("shared", "common"))

	require.NoError(t, err)
	assert.Equal(t, "common text", result.DocumentText)

	records := f.docs.Analytics()
	require.Len(t, records, 1)
	assert.Equal(t, "user-b", records[0].UserID)
	assert.Equal(t, "document_change", records[0].Kind)
}

func TestApplyExplicitViewerDeniedOnPublicDocument(t *testing.T) {
	f := newChangeFixture(t)
	doc := f.createDocument(t, "user-a", "shared text", true)
	require.NoError(t, f.collabs.Upsert(context.Background(), domain.NewCollaborator(doc.ID, "user-b", domain.PermissionViewer)))

	_, err := f.uc.Apply(context.Background(), doc.ID, "user-b", singleRequest("shared", "common"))

	require.Error(t, err)
	assert.Equal(t, 403, apperr.CodeOf(err))

	stored, getErr := f.docs.Get(context.Background(), doc.ID)
	require.NoError(t, getErr)
	assert.Equal(t, "shared text", stored.Content)
}

func TestApplyPrivateDocumentDeniedWithoutBinding(t *testing.T) {
	f := newChangeFixture(t)
	doc := f.createDocument(t, "user-a", "private text", false)

	_, err := f.uc.Apply(context.Background(), doc.ID, "user-b", singleRequest("private", "public"))

	require.Error(t, err)
	assert.Equal(t, 403, apperr.CodeOf(err))
}

func TestApplyEditorBindingAllowed(t *testing.T) {
	f := newChangeFixture(t)
	doc := f.createDocument(t, "user-a", "draft text", false)
	require.NoError(t, f.collabs.Upsert(context.Background(), domain.NewCollaborator(doc.ID, "user-b", domain.PermissionEditor)))

	result, err := f.uc.Apply(context.Background(), doc.ID, "user-b", singleRequest("draft", "final"))

	require.NoError(t, err)
	assert.Equal(t, "final text", result.DocumentText)
}

func TestApplyMissingDocument(t *testing.T) {
	f := newChangeFixture(t)

	_, err := f.uc.Apply(context.Background(), uuid.New(), "user-a", singleRequest("a", "b"))

	require.Error(t, err)
	assert.Equal(t, 404, apperr.CodeOf(err))
}

func TestApplyRejectsMixedShapes(t *testing.T) {
	f := newChangeFixture(t)
	doc := f.createDocument(t, "user-a", "Hello", false)

	text, replacement := "Hello", "Hi"
	_, err := f.uc.Apply(context.Background(), doc.ID, "user-a", &domain.ChangeRequest{
		TextToReplace: &text,
		NewText:       &replacement,
		Changes:       []domain.Change{{TextToReplace: "Hello", NewText: "Hi"}},
	})

	require.Error(t, err)
	assert.Equal(t, 400, apperr.CodeOf(err))
}

func TestApplyUnauthenticated(t *testing.T) {
	f := newChangeFixture(t)
	doc := f.createDocument(t, "user-a", "Hello", true)

	_, err := f.uc.Apply(context.Background(), doc.ID, "", singleRequest("Hello", "Hi"))

	require.Error(t, err)
	assert.Equal(t, 401, apperr.CodeOf(err))
}

func TestApplyEmptyTextToReplaceInsertsAtStart(t *testing.T) {
	f := newChangeFixture(t)
	doc := f.createDocument(t, "user-a", "", false)

	result, err := f.uc.Apply(context.Background(), doc.ID, "user-a", singleRequest("", "seeded"))

	require.NoError(t, err)
	assert.Equal(t, "seeded", result.DocumentText)
	require.Len(t, result.Changes.PerOp, 1)
	assert.Equal(t, 0, result.Changes.PerOp[0].Position)

	ops := f.docs.Operations(doc.ID)
	require.Len(t, ops, 1)
	assert.Equal(t, domain.OperationInsert, ops[0].Kind)
}

func TestApplySequencesAreContiguousAcrossRequests(t *testing.T) {
	f := newChangeFixture(t)
	doc := f.createDocument(t, "user-a", "one two three", false)

	_, err := f.uc.Apply(context.Background(), doc.ID, "user-a", singleRequest("one", "1"))
	require.NoError(t, err)
	_, err = f.uc.Apply(context.Background(), doc.ID, "user-a", &domain.ChangeRequest{
		Changes: []domain.Change{
			{TextToReplace: "two", NewText: "2"},
			{TextToReplace: "three", NewText: "3"},
		},
	})
	require.NoError(t, err)

	ops := f.docs.Operations(doc.ID)
	require.Len(t, ops, 3)
	for i, op := range ops {
		assert.Equal(t, int64(i+1), op.Sequence)
	}

	stored, err := f.docs.Get(context.Background(), doc.ID)
	require.NoError(t, err)
	assert.Equal(t, "1 2 3", stored.Content)
	assert.Equal(t, doc.Version+2, stored.Version)
}

func TestApplyDeleteKind(t *testing.T) {
	f := newChangeFixture(t)
	doc := f.createDocument(t, "user-a", "remove this word", false)

	result, err := f.uc.Apply(context.Background(), doc.ID, "user-a", singleRequest(" this", ""))

	require.NoError(t, err)
	assert.Equal(t, "remove word", result.DocumentText)

	ops := f.docs.Operations(doc.ID)
	require.Len(t, ops, 1)
	assert.Equal(t, domain.OperationDelete, ops[0].Kind)
}
