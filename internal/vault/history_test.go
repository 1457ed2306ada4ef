package vault

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iudanet/vaultkeeper/internal/crypto"
	"github.com/iudanet/vaultkeeper/internal/models"
)

var testEpoch = time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)

func TestVault_History_Rules(t *testing.T) {
	tests := []struct {
		name     string
		initial  string
		changes  []string
		expected []string
	}{
		{
			name:     "changed password recorded",
			initial:  "a",
			changes:  []string{"b"},
			expected: []string{"a"},
		},
		{
			name:     "same password not recorded",
			initial:  "b",
			changes:  []string{"b"},
			expected: []string{},
		},
		{
			name:     "empty previous password not recorded",
			initial:  "",
			changes:  []string{"c"},
			expected: []string{},
		},
		{
			name:     "cleared password not recorded",
			initial:  "a",
			changes:  []string{""},
			expected: []string{},
		},
		{
			name:     "newest first",
			initial:  "p1",
			changes:  []string{"p2", "p3"},
			expected: []string{"p2", "p1"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tv := setupUnlockedVault(t, WithClock(steppingClock(testEpoch)))

			entry := saveNew(t, tv.Vault, models.Entry{Name: "Bank", Password: tt.initial})
			for _, p := range tt.changes {
				entry = updatePassword(t, tv.Vault, entry, p)
			}

			assert.Equal(t, tt.expected, historyPasswords(t, tv.Vault, entry.ID))
		})
	}
}

func TestVault_History_StoredEncrypted(t *testing.T) {
	ctx := context.Background()
	tv := setupUnlockedVault(t, WithClock(steppingClock(testEpoch)))

	bank := saveNew(t, tv.Vault, models.Entry{Name: "Bank", Password: "p1"})
	updatePassword(t, tv.Vault, bank, "p2")

	records, err := tv.store.ListHistory(ctx, bank.ID)
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.True(t, crypto.IsEncrypted(records[0].Password))
	assert.Equal(t, bank.ID, records[0].EntryID)

	changedAt, err := time.Parse(ChangedAtLayout, records[0].ChangedAt)
	require.NoError(t, err)
	assert.True(t, changedAt.After(testEpoch))
}

func TestVault_History_LimitPrunes(t *testing.T) {
	tv := setupUnlockedVault(t, WithClock(steppingClock(testEpoch)))

	entry := saveNew(t, tv.Vault, models.Entry{
		Name:         "Bank",
		Password:     "p0",
		HistoryLimit: models.IntPtr(2),
	})
	for _, p := range []string{"p1", "p2", "p3", "p4", "p5"} {
		entry = updatePassword(t, tv.Vault, entry, p)
	}

	assert.Equal(t, []string{"p4", "p3"}, historyPasswords(t, tv.Vault, entry.ID))
}

func TestVault_History_ZeroLimitUnlimited(t *testing.T) {
	tests := []struct {
		limit *int
		name  string
	}{
		{name: "nil limit", limit: nil},
		{name: "zero limit", limit: models.IntPtr(0)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tv := setupUnlockedVault(t, WithClock(steppingClock(testEpoch)))

			entry := saveNew(t, tv.Vault, models.Entry{Name: "Bank", Password: "p0", HistoryLimit: tt.limit})
			for _, p := range []string{"p1", "p2", "p3", "p4"} {
				entry = updatePassword(t, tv.Vault, entry, p)
			}

			assert.Equal(t, []string{"p3", "p2", "p1", "p0"}, historyPasswords(t, tv.Vault, entry.ID))
		})
	}
}

func TestVault_History_SameTimestampOrderedByID(t *testing.T) {
	fixed := func() time.Time { return testEpoch }
	tv := setupUnlockedVault(t, WithClock(fixed))

	entry := saveNew(t, tv.Vault, models.Entry{Name: "Bank", Password: "p0"})
	for _, p := range []string{"p1", "p2"} {
		entry = updatePassword(t, tv.Vault, entry, p)
	}

	assert.Equal(t, []string{"p1", "p0"}, historyPasswords(t, tv.Vault, entry.ID))
}

func TestVault_ClearHistory(t *testing.T) {
	ctx := context.Background()
	tv := setupUnlockedVault(t, WithClock(steppingClock(testEpoch)))

	bank := saveNew(t, tv.Vault, models.Entry{Name: "Bank", Password: "p0"})
	for _, p := range []string{"p1", "p2"} {
		bank = updatePassword(t, tv.Vault, bank, p)
	}
	mail := saveNew(t, tv.Vault, models.Entry{Name: "Mail", Password: "m0"})
	updatePassword(t, tv.Vault, mail, "m1")

	require.NoError(t, tv.ClearHistory(ctx, bank.ID))

	assert.Empty(t, historyPasswords(t, tv.Vault, bank.ID))
	assert.Equal(t, []string{"m0"}, historyPasswords(t, tv.Vault, mail.ID))

	// Запись не затронута
	got, err := tv.GetEntry(ctx, bank.ID)
	require.NoError(t, err)
	assert.Equal(t, "p2", got.Password)
}

func TestVault_PruneHistory(t *testing.T) {
	ctx := context.Background()
	tv := setupUnlockedVault(t, WithClock(steppingClock(testEpoch)))

	bank := saveNew(t, tv.Vault, models.Entry{Name: "Bank", Password: "p0"})
	for _, p := range []string{"p1", "p2", "p3"} {
		bank = updatePassword(t, tv.Vault, bank, p)
	}

	require.NoError(t, tv.PruneHistory(ctx, bank.ID, 2))
	assert.Equal(t, []string{"p2", "p1"}, historyPasswords(t, tv.Vault, bank.ID))

	require.NoError(t, tv.PruneHistory(ctx, bank.ID, 0))
	assert.Empty(t, historyPasswords(t, tv.Vault, bank.ID))
}

func TestVault_Scenario_ChangeMasterKeepsHistory(t *testing.T) {
	ctx := context.Background()
	tv := setupUnlockedVault(t, WithClock(steppingClock(testEpoch)))

	bank := saveNew(t, tv.Vault, models.Entry{Name: "Bank", Password: "p1"})
	updatePassword(t, tv.Vault, bank, "p2")
	assert.Equal(t, []string{"p1"}, historyPasswords(t, tv.Vault, bank.ID))

	require.NoError(t, tv.ChangeMaster(ctx, testMaster, "newpass"))
	tv.Lock()

	ok, err := tv.VerifyMaster(ctx, testMaster)
	require.NoError(t, err)
	assert.False(t, ok)

	ok, err = tv.VerifyMaster(ctx, "newpass")
	require.NoError(t, err)
	require.True(t, ok)

	entries, err := tv.ListEntries(ctx)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "p2", entries[0].Password)
	assert.Equal(t, []string{"p1"}, historyPasswords(t, tv.Vault, bank.ID))
}
