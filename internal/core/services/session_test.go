package services

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/sercha-research/internal/adapters/driven/storage/memory"
	"github.com/custodia-labs/sercha-research/internal/core/domain"
)

func newTestSessions() (*SessionService, *memory.SessionStore) {
	store := memory.NewSessionStore()
	svc := NewSessionService(store)
	svc.now = func() time.Time { return fixedNow }
	return svc, store
}

func TestSessionService_Create(t *testing.T) {
	svc, store := newTestSessions()
	ctx := context.Background()

	session, err := svc.Create(ctx, "  Climate  ")

	require.NoError(t, err)
	assert.NotEmpty(t, session.ID)
	assert.Equal(t, "Climate", session.Title)
	assert.Empty(t, session.Sources)
	assert.Nil(t, session.Results)
	assert.Equal(t, fixedNow, session.CreatedAt)

	stored, err := store.Get(ctx, session.ID)
	require.NoError(t, err)
	assert.Equal(t, "Climate", stored.Title)
}

func TestSessionService_Create_DefaultTitle(t *testing.T) {
	svc, _ := newTestSessions()

	session, err := svc.Create(context.Background(), "")

	require.NoError(t, err)
	assert.Equal(t, "Untitled research", session.Title)
}

func TestSessionService_AddSource(t *testing.T) {
	tests := []struct {
		name          string
		input         domain.SourceInput
		expectedTitle string
	}{
		{
			name:          "pasted text with title",
			input:         domain.SourceInput{Type: domain.SourceTypePasted, Title: "Interview", Data: []byte("notes")},
			expectedTitle: "Interview",
		},
		{
			name:          "pasted text default title",
			input:         domain.SourceInput{Type: domain.SourceTypePasted, Data: []byte("notes")},
			expectedTitle: "Pasted text",
		},
		{
			name:          "file title from path",
			input:         domain.SourceInput{Type: domain.SourceTypePDF, URI: "/papers/Solar Review.pdf"},
			expectedTitle: "Solar Review",
		},
		{
			name:          "explicit file title",
			input:         domain.SourceInput{Type: domain.SourceTypeDOCX, Title: "Brief", URI: "/x/brief.docx"},
			expectedTitle: "Brief",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc, _ := newTestSessions()
			ctx := context.Background()
			session, err := svc.Create(ctx, "s")
			require.NoError(t, err)

			src, err := svc.AddSource(ctx, session.ID, tt.input)

			require.NoError(t, err)
			assert.NotEmpty(t, src.ID)
			assert.Equal(t, tt.expectedTitle, src.Title)
			assert.Equal(t, domain.SourceStatusPending, src.Status)

			got, err := svc.Get(ctx, session.ID)
			require.NoError(t, err)
			require.Len(t, got.Sources, 1)
			assert.Equal(t, src.ID, got.Sources[0].ID)
		})
	}
}

func TestSessionService_AddSource_Rejects(t *testing.T) {
	tests := []struct {
		name  string
		input domain.SourceInput
		err   error
	}{
		{"unknown type", domain.SourceInput{Type: "xlsx", URI: "/a.xlsx"}, domain.ErrUnsupportedType},
		{"empty paste", domain.SourceInput{Type: domain.SourceTypePasted, Data: []byte("  \n")}, domain.ErrInvalidInput},
		{"file without path", domain.SourceInput{Type: domain.SourceTypePDF}, domain.ErrInvalidInput},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc, _ := newTestSessions()
			session, err := svc.Create(context.Background(), "s")
			require.NoError(t, err)

			_, err = svc.AddSource(context.Background(), session.ID, tt.input)

			assert.ErrorIs(t, err, tt.err)
		})
	}
}

func TestSessionService_AddSource_MissingSession(t *testing.T) {
	svc, _ := newTestSessions()

	_, err := svc.AddSource(context.Background(), "nope",
		domain.SourceInput{Type: domain.SourceTypePasted, Data: []byte("x")})

	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestSessionService_RemoveSource(t *testing.T) {
	svc, _ := newTestSessions()
	ctx := context.Background()
	session, err := svc.Create(ctx, "s")
	require.NoError(t, err)

	a, err := svc.AddSource(ctx, session.ID, domain.SourceInput{Type: domain.SourceTypePasted, Title: "A", Data: []byte("a")})
	require.NoError(t, err)
	b, err := svc.AddSource(ctx, session.ID, domain.SourceInput{Type: domain.SourceTypePasted, Title: "B", Data: []byte("b")})
	require.NoError(t, err)

	require.NoError(t, svc.RemoveSource(ctx, session.ID, a.ID))

	got, err := svc.Get(ctx, session.ID)
	require.NoError(t, err)
	require.Len(t, got.Sources, 1)
	assert.Equal(t, b.ID, got.Sources[0].ID)

	assert.ErrorIs(t, svc.RemoveSource(ctx, session.ID, a.ID), domain.ErrNotFound)
}

func TestSessionService_ListAndDelete(t *testing.T) {
	svc, _ := newTestSessions()
	ctx := context.Background()

	first, err := svc.Create(ctx, "one")
	require.NoError(t, err)
	_, err = svc.Create(ctx, "two")
	require.NoError(t, err)

	sessions, err := svc.List(ctx)
	require.NoError(t, err)
	assert.Len(t, sessions, 2)

	require.NoError(t, svc.Delete(ctx, first.ID))

	sessions, err = svc.List(ctx)
	require.NoError(t, err)
	require.Len(t, sessions, 1)
	assert.Equal(t, "two", sessions[0].Title)

	_, err = svc.Get(ctx, first.ID)
	assert.ErrorIs(t, err, domain.ErrNotFound)
}
