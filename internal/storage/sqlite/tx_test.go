package sqlite

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iudanet/vaultkeeper/internal/models"
	"github.com/iudanet/vaultkeeper/internal/storage"
)

func TestWithTx_Commit(t *testing.T) {
	ctx := context.Background()
	s, cleanup := setupTestStorage(t)
	defer cleanup()

	var id int64
	err := s.WithTx(ctx, func(q storage.Queries) error {
		var err error
		id, err = q.InsertEntry(ctx, &models.Entry{Name: "Bank"})
		if err != nil {
			return err
		}
		_, err = q.InsertHistory(ctx, &models.HistoryRecord{EntryID: id, Password: "x", ChangedAt: "2024-01-01T00:00:00.000Z"})
		return err
	})
	require.NoError(t, err)

	entry, err := s.GetEntry(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, "Bank", entry.Name)
}

func TestWithTx_RollbackOnError(t *testing.T) {
	ctx := context.Background()
	s, cleanup := setupTestStorage(t)
	defer cleanup()

	require.NoError(t, s.InsertMaster(ctx, "before"))
	failure := errors.New("boom")

	err := s.WithTx(ctx, func(q storage.Queries) error {
		if err := q.UpdateMasterHash(ctx, "after"); err != nil {
			return err
		}
		if _, err := q.InsertEntry(ctx, &models.Entry{Name: "Bank"}); err != nil {
			return err
		}
		return failure
	})
	assert.ErrorIs(t, err, failure)

	// Ни одно изменение транзакции не применено
	hash, err := s.MasterHash(ctx)
	require.NoError(t, err)
	assert.Equal(t, "before", hash)

	entries, err := s.ListEntries(ctx)
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestWithTx_RollbackOnPanic(t *testing.T) {
	ctx := context.Background()
	s, cleanup := setupTestStorage(t)
	defer cleanup()

	assert.Panics(t, func() {
		_ = s.WithTx(ctx, func(q storage.Queries) error {
			if _, err := q.InsertEntry(ctx, &models.Entry{Name: "Bank"}); err != nil {
				return err
			}
			panic("unexpected")
		})
	})

	// Соединение свободно и изменения откатились
	entries, err := s.ListEntries(ctx)
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestBegin_CommitAndRollback(t *testing.T) {
	ctx := context.Background()
	s, cleanup := setupTestStorage(t)
	defer cleanup()

	tx, err := s.Begin(ctx)
	require.NoError(t, err)
	require.NoError(t, tx.SetSetting(ctx, models.SettingTheme, models.ThemeDark))
	require.NoError(t, tx.Commit())
	// Rollback после Commit безопасен
	require.NoError(t, tx.Rollback())

	tx, err = s.Begin(ctx)
	require.NoError(t, err)
	require.NoError(t, tx.SetSetting(ctx, models.SettingTheme, models.ThemeLight))
	require.NoError(t, tx.Rollback())

	theme, err := s.GetSetting(ctx, models.SettingTheme)
	require.NoError(t, err)
	assert.Equal(t, models.ThemeDark, theme)
}
