package sqlite

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iudanet/vaultkeeper/internal/models"
	"github.com/iudanet/vaultkeeper/internal/storage"
)

func TestEntryStorage_InsertEntry(t *testing.T) {
	ctx := context.Background()
	s, cleanup := setupTestStorage(t)
	defer cleanup()

	tests := []struct {
		entry *models.Entry
		name  string
	}{
		{
			name: "entry with all fields",
			entry: &models.Entry{
				Name:         "GitHub",
				URL:          "https://github.com",
				Category:     "work",
				Username:     "octocat",
				Password:     "cipher",
				Notes:        "2FA enabled",
				HistoryLimit: models.IntPtr(5),
			},
		},
		{
			name:  "entry with name only",
			entry: &models.Entry{Name: "Empty"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			id, err := s.InsertEntry(ctx, tt.entry)
			require.NoError(t, err)
			assert.Positive(t, id)

			retrieved, err := s.GetEntry(ctx, id)
			require.NoError(t, err)
			assert.Equal(t, id, retrieved.ID)
			assert.Equal(t, tt.entry.Name, retrieved.Name)
			assert.Equal(t, tt.entry.URL, retrieved.URL)
			assert.Equal(t, tt.entry.Category, retrieved.Category)
			assert.Equal(t, tt.entry.Username, retrieved.Username)
			assert.Equal(t, tt.entry.Password, retrieved.Password)
			assert.Equal(t, tt.entry.Notes, retrieved.Notes)
			assert.Equal(t, tt.entry.HistoryLimit, retrieved.HistoryLimit)
			// CURRENT_TIMESTAMP: YYYY-MM-DD HH:MM:SS
			assert.Regexp(t, `^\d{4}-\d{2}-\d{2} \d{2}:\d{2}:\d{2}$`, retrieved.LastUpdated)
		})
	}
}

func TestEntryStorage_ListEntries_OrderedByName(t *testing.T) {
	ctx := context.Background()
	s, cleanup := setupTestStorage(t)
	defer cleanup()

	for _, name := range []string{"Mail", "Bank", "Zoo", "Bank"} {
		_, err := s.InsertEntry(ctx, &models.Entry{Name: name})
		require.NoError(t, err)
	}

	entries, err := s.ListEntries(ctx)
	require.NoError(t, err)
	require.Len(t, entries, 4)

	names := make([]string, 0, len(entries))
	for _, e := range entries {
		names = append(names, e.Name)
	}
	assert.Equal(t, []string{"Bank", "Bank", "Mail", "Zoo"}, names)
	// Одинаковые имена упорядочены по id
	assert.Less(t, entries[0].ID, entries[1].ID)
}

func TestEntryStorage_GetEntry_NotFound(t *testing.T) {
	ctx := context.Background()
	s, cleanup := setupTestStorage(t)
	defer cleanup()

	_, err := s.GetEntry(ctx, 42)
	assert.ErrorIs(t, err, storage.ErrNotFound)
}

func TestEntryStorage_UpdateEntry(t *testing.T) {
	ctx := context.Background()
	s, cleanup := setupTestStorage(t)
	defer cleanup()

	id, err := s.InsertEntry(ctx, &models.Entry{Name: "Bank", Password: "p1", HistoryLimit: models.IntPtr(3)})
	require.NoError(t, err)

	err = s.UpdateEntry(ctx, &models.Entry{ID: id, Name: "Bank2", Username: "bob", Password: "p2"})
	require.NoError(t, err)

	updated, err := s.GetEntry(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, "Bank2", updated.Name)
	assert.Equal(t, "bob", updated.Username)
	assert.Equal(t, "p2", updated.Password)
	assert.Nil(t, updated.HistoryLimit, "лимит сбрасывается в NULL")

	err = s.UpdateEntry(ctx, &models.Entry{ID: id + 100, Name: "ghost"})
	assert.ErrorIs(t, err, storage.ErrNotFound)
}

func TestEntryStorage_UpdateEntryPassword(t *testing.T) {
	ctx := context.Background()
	s, cleanup := setupTestStorage(t)
	defer cleanup()

	id, err := s.InsertEntry(ctx, &models.Entry{Name: "Bank", Username: "alice", Password: "old"})
	require.NoError(t, err)

	require.NoError(t, s.UpdateEntryPassword(ctx, id, "new"))

	entry, err := s.GetEntry(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, "new", entry.Password)
	assert.Equal(t, "alice", entry.Username)

	assert.ErrorIs(t, s.UpdateEntryPassword(ctx, id+1, "x"), storage.ErrNotFound)
}

func TestEntryStorage_DeleteEntry_CascadesHistory(t *testing.T) {
	ctx := context.Background()
	s, cleanup := setupTestStorage(t)
	defer cleanup()

	id, err := s.InsertEntry(ctx, &models.Entry{Name: "Bank"})
	require.NoError(t, err)
	other, err := s.InsertEntry(ctx, &models.Entry{Name: "Mail"})
	require.NoError(t, err)

	for _, entryID := range []int64{id, id, other} {
		_, err := s.InsertHistory(ctx, &models.HistoryRecord{EntryID: entryID, Password: "x", ChangedAt: "2024-01-01T00:00:00.000Z"})
		require.NoError(t, err)
	}

	require.NoError(t, s.DeleteEntry(ctx, id))

	_, err = s.GetEntry(ctx, id)
	assert.ErrorIs(t, err, storage.ErrNotFound)

	all, err := s.ListAllHistory(ctx)
	require.NoError(t, err)
	require.Len(t, all, 1, "история удаленной записи удаляется каскадом")
	assert.Equal(t, other, all[0].EntryID)

	assert.ErrorIs(t, s.DeleteEntry(ctx, id), storage.ErrNotFound)
}
