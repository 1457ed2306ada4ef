package vault

import (
	"context"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/iudanet/vaultkeeper/internal/models"
	"github.com/iudanet/vaultkeeper/internal/storage/sqlite"
)

const testMaster = "hunter22"

// testVault - хранилище во временном каталоге и движок поверх него
type testVault struct {
	*Vault
	store *sqlite.Storage
	path  string
}

func setupTestVault(t *testing.T, opts ...Option) *testVault {
	t.Helper()
	ctx := context.Background()

	path := filepath.Join(t.TempDir(), "pm.sqlite")
	store, err := sqlite.Open(ctx, path)
	require.NoError(t, err)

	v := New(store, opts...)
	t.Cleanup(func() {
		_ = v.Close(ctx)
	})

	return &testVault{Vault: v, store: store, path: path}
}

// setupUnlockedVault создает хранилище с master password testMaster
func setupUnlockedVault(t *testing.T, opts ...Option) *testVault {
	t.Helper()

	tv := setupTestVault(t, opts...)
	created, err := tv.CreateMaster(context.Background(), testMaster)
	require.NoError(t, err)
	require.True(t, created)
	return tv
}

// steppingClock возвращает часы, которые сдвигаются на секунду при каждом вызове
func steppingClock(start time.Time) func() time.Time {
	var (
		mu      sync.Mutex
		current = start
	)
	return func() time.Time {
		mu.Lock()
		defer mu.Unlock()
		current = current.Add(time.Second)
		return current
	}
}

func saveNew(t *testing.T, v *Vault, entry models.Entry) models.Entry {
	t.Helper()

	entries, err := v.SaveEntry(context.Background(), entry)
	require.NoError(t, err)

	var found *models.Entry
	for i := range entries {
		if entries[i].Name == entry.Name && (found == nil || entries[i].ID > found.ID) {
			found = &entries[i]
		}
	}
	require.NotNil(t, found, "saved entry not listed")
	return *found
}

func updatePassword(t *testing.T, v *Vault, entry models.Entry, password string) models.Entry {
	t.Helper()

	entry.Password = password
	_, err := v.SaveEntry(context.Background(), entry)
	require.NoError(t, err)
	return entry
}

func historyPasswords(t *testing.T, v *Vault, entryID int64) []string {
	t.Helper()

	records, err := v.GetHistory(context.Background(), entryID)
	require.NoError(t, err)

	out := make([]string, 0, len(records))
	for _, r := range records {
		out = append(out, r.Password)
	}
	return out
}

// reopenVault открывает файл хранилища заново, как при новом запуске
func reopenVault(t *testing.T, path string) *Vault {
	t.Helper()
	ctx := context.Background()

	store, err := sqlite.Open(ctx, path)
	require.NoError(t, err)

	v := New(store)
	t.Cleanup(func() {
		_ = v.Close(ctx)
	})
	return v
}
