package usecase

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/jdamiba/sandstone-project/internal/apperr"
	"github.com/jdamiba/sandstone-project/internal/domain"
	"github.com/jdamiba/sandstone-project/internal/repository/memory"
)

type documentFixture struct {
	docs      *memory.DocumentRepository
	collabs   *memory.CollaboratorRepository
	analytics *memory.AnalyticsRepository
	uc        *DocumentUseCase
}

func newDocumentFixture(t *testing.T) *documentFixture {
	t.Helper()
	collabs := memory.NewCollaboratorRepository()
	docs := memory.NewDocumentRepository(collabs)
	analytics := memory.NewAnalyticsRepository()
	return &documentFixture{
		docs:      docs,
		collabs:   collabs,
		analytics: analytics,
		uc:        NewDocumentUseCase(docs, collabs, analytics, zap.NewNop()),
	}
}

func TestCreateDocument(t *testing.T) {
	f := newDocumentFixture(t)

	doc, err := f.uc.Create(context.Background(), "user-a", CreateDocumentInput{
		Title:    "meeting notes",
		Content:  "agenda",
		Tags:     []string{"work"},
		IsPublic: true,
	})

	require.NoError(t, err)
	assert.Equal(t, "user-a", doc.OwnerID)
	assert.Equal(t, int64(1), doc.Version)

	binding, err := f.collabs.Get(context.Background(), doc.ID, "user-a")
	require.NoError(t, err)
	require.NotNil(t, binding)
	assert.Equal(t, domain.PermissionOwner, binding.Permission)

	records := f.analytics.Records()
	require.Len(t, records, 1)
	assert.Equal(t, "document_created", records[0].Kind)
}

func TestCreateDocumentValidation(t *testing.T) {
	f := newDocumentFixture(t)

	cases := []struct {
		name  string
		input CreateDocumentInput
	}{
		{"empty title", CreateDocumentInput{Title: "  "}},
		{"long title", CreateDocumentInput{Title: strings.Repeat("a", 256)}},
		{"long description", CreateDocumentInput{Title: "t", Description: strings.Repeat("a", 1001)}},
		{"long tag", CreateDocumentInput{Title: "t", Tags: []string{strings.Repeat("a", 51)}}},
		{"oversize content", CreateDocumentInput{Title: "t", Content: strings.Repeat("a", domain.MaxContentBytes+1)}},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := f.uc.Create(context.Background(), "user-a", tc.input)
			require.Error(t, err)
			assert.Equal(t, 422, apperr.CodeOf(err))
		})
	}
}

func TestGetPrivateDocumentHiddenFromStrangers(t *testing.T) {
	f := newDocumentFixture(t)
	doc, err := f.uc.Create(context.Background(), "user-a", CreateDocumentInput{Title: "secret"})
	require.NoError(t, err)

	_, err = f.uc.Get(context.Background(), doc.ID, "user-b")
	require.Error(t, err)
	assert.Equal(t, 404, apperr.CodeOf(err))

	// A viewer binding opens read access.
	_, err = f.uc.AddCollaborator(context.Background(), doc.ID, "user-a", "user-b", domain.PermissionViewer)
	require.NoError(t, err)
	got, err := f.uc.Get(context.Background(), doc.ID, "user-b")
	require.NoError(t, err)
	assert.Equal(t, doc.ID, got.ID)
}

func TestUpdateContentBumpsVersion(t *testing.T) {
	f := newDocumentFixture(t)
	doc, err := f.uc.Create(context.Background(), "user-a", CreateDocumentInput{Title: "t", Content: "before"})
	require.NoError(t, err)

	content := "after"
	updated, err := f.uc.Update(context.Background(), doc.ID, "user-a", domain.DocumentUpdate{Content: &content})
	require.NoError(t, err)
	assert.Equal(t, doc.Version+1, updated.Version)
	assert.Equal(t, "after", updated.Content)

	// Metadata-only updates leave the version alone.
	title := "renamed"
	updated, err = f.uc.Update(context.Background(), doc.ID, "user-a", domain.DocumentUpdate{Title: &title})
	require.NoError(t, err)
	assert.Equal(t, doc.Version+1, updated.Version)
	assert.Equal(t, "renamed", updated.Title)
}

func TestDeleteDocumentOwnerOnly(t *testing.T) {
	f := newDocumentFixture(t)
	doc, err := f.uc.Create(context.Background(), "user-a", CreateDocumentInput{Title: "t", IsPublic: true})
	require.NoError(t, err)

	err = f.uc.Delete(context.Background(), doc.ID, "user-b")
	require.Error(t, err)
	assert.Equal(t, 404, apperr.CodeOf(err))

	require.NoError(t, f.uc.Delete(context.Background(), doc.ID, "user-a"))

	_, err = f.docs.Get(context.Background(), doc.ID)
	assert.Equal(t, 404, apperr.CodeOf(err))
}

func TestListVisibility(t *testing.T) {
	f := newDocumentFixture(t)
	_, err := f.uc.Create(context.Background(), "user-a", CreateDocumentInput{Title: "public doc", IsPublic: true})
	require.NoError(t, err)
	_, err = f.uc.Create(context.Background(), "user-a", CreateDocumentInput{Title: "private doc"})
	require.NoError(t, err)

	mine, err := f.uc.List(context.Background(), "user-a", domain.DocumentFilter{Limit: 10})
	require.NoError(t, err)
	assert.Len(t, mine, 2)

	theirs, err := f.uc.List(context.Background(), "user-b", domain.DocumentFilter{Limit: 10})
	require.NoError(t, err)
	require.Len(t, theirs, 1)
	assert.Equal(t, "public doc", theirs[0].Title)
}

func TestListSearch(t *testing.T) {
	f := newDocumentFixture(t)
	_, err := f.uc.Create(context.Background(), "user-a", CreateDocumentInput{Title: "quarterly report", IsPublic: true})
	require.NoError(t, err)
	_, err = f.uc.Create(context.Background(), "user-a", CreateDocumentInput{Title: "grocery list", Tags: []string{"report"}, IsPublic: true})
	require.NoError(t, err)
	_, err = f.uc.Create(context.Background(), "user-a", CreateDocumentInput{Title: "unrelated", IsPublic: true})
	require.NoError(t, err)

	found, err := f.uc.List(context.Background(), "user-b", domain.DocumentFilter{Search: "report", Limit: 10})
	require.NoError(t, err)
	assert.Len(t, found, 2)
}

func TestCollaboratorManagementOwnerOnly(t *testing.T) {
	f := newDocumentFixture(t)
	doc, err := f.uc.Create(context.Background(), "user-a", CreateDocumentInput{Title: "t"})
	require.NoError(t, err)

	_, err = f.uc.AddCollaborator(context.Background(), doc.ID, "user-b", "user-c", domain.PermissionEditor)
	require.Error(t, err)
	assert.Equal(t, 403, apperr.CodeOf(err))

	_, err = f.uc.AddCollaborator(context.Background(), doc.ID, "user-a", "user-c", domain.PermissionEditor)
	require.NoError(t, err)

	bindings, err := f.uc.ListCollaborators(context.Background(), doc.ID, "user-c")
	require.NoError(t, err)
	assert.Len(t, bindings, 2)

	require.NoError(t, f.uc.RemoveCollaborator(context.Background(), doc.ID, "user-a", "user-c"))
	binding, err := f.collabs.Get(context.Background(), doc.ID, "user-c")
	require.NoError(t, err)
	require.NotNil(t, binding)
	assert.False(t, binding.Active)
}
