package vault

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/iudanet/vaultkeeper/internal/crypto"
	"github.com/iudanet/vaultkeeper/internal/storage"
	"github.com/iudanet/vaultkeeper/internal/validation"
)

// MasterExists reports whether a master password was created
func (v *Vault) MasterExists(ctx context.Context) (bool, error) {
	v.mu.Lock()
	defer v.mu.Unlock()

	_, err := v.store.MasterHash(ctx)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return false, nil
		}
		return false, fmt.Errorf("failed to check master password: %w", err)
	}
	return true, nil
}

// CreateMaster stores the digest of passphrase and unlocks the vault.
// Returns false with ErrMasterExists if a master password already exists.
func (v *Vault) CreateMaster(ctx context.Context, passphrase string) (bool, error) {
	v.mu.Lock()
	defer v.mu.Unlock()

	if err := validation.ValidateMasterPassword(passphrase); err != nil {
		return false, fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}

	err := v.store.WithTx(ctx, func(q storage.Queries) error {
		return q.InsertMaster(ctx, crypto.Digest([]byte(passphrase)))
	})
	if err != nil {
		if errors.Is(err, storage.ErrMasterExists) {
			v.logger.WarnContext(ctx, "master password already exists")
			return false, ErrMasterExists
		}
		v.logger.ErrorContext(ctx, "failed to create master password", slog.Any("error", err))
		return false, fmt.Errorf("failed to create master password: %w", err)
	}

	if err := v.persist(ctx, "create_master"); err != nil {
		return false, err
	}

	v.unlockLocked(ctx, passphrase)
	return true, nil
}

// VerifyMaster unlocks the vault when passphrase matches the stored digest.
// A mismatch returns false and leaves the session state unchanged.
func (v *Vault) VerifyMaster(ctx context.Context, passphrase string) (bool, error) {
	v.mu.Lock()
	defer v.mu.Unlock()

	hash, err := v.store.MasterHash(ctx)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return false, nil
		}
		return false, fmt.Errorf("failed to get master password: %w", err)
	}

	if err := crypto.VerifyDigest([]byte(passphrase), hash); err != nil {
		v.logger.WarnContext(ctx, "master password verification failed")
		return false, nil
	}

	v.unlockLocked(ctx, passphrase)
	return true, nil
}

// ChangeMaster replaces the master password and re-encrypts every stored
// secret under the new key in one transaction. On any failure nothing is
// changed and the old key stays in use.
func (v *Vault) ChangeMaster(ctx context.Context, current, next string) error {
	v.mu.Lock()
	defer v.mu.Unlock()

	oldKey, err := v.keyLocked()
	if err != nil {
		return err
	}

	hash, err := v.store.MasterHash(ctx)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrUpdateFailed, err)
	}
	if err := crypto.VerifyDigest([]byte(current), hash); err != nil {
		v.logger.WarnContext(ctx, "master password change rejected",
			slog.String("session_id", v.session.ID()),
		)
		return ErrIncorrectPassword
	}

	if err := validation.ValidateMasterPassword(next); err != nil {
		return fmt.Errorf("%w: %w: %v", ErrUpdateFailed, ErrInvalidInput, err)
	}

	newKey := []byte(next)
	var entriesCount, historyCount int

	err = v.store.WithTx(ctx, func(q storage.Queries) error {
		entries, err := q.ListEntries(ctx)
		if err != nil {
			return err
		}
		history, err := q.ListAllHistory(ctx)
		if err != nil {
			return err
		}

		if err := q.UpdateMasterHash(ctx, crypto.Digest(newKey)); err != nil {
			return err
		}

		for _, entry := range entries {
			if entry.Password == "" {
				continue
			}
			reencrypted, err := v.reencrypt(entry.Password, oldKey, newKey)
			if err != nil {
				return fmt.Errorf("entry %d: %w", entry.ID, err)
			}
			if err := q.UpdateEntryPassword(ctx, entry.ID, reencrypted); err != nil {
				return err
			}
			entriesCount++
		}

		for _, record := range history {
			if record.Password == "" {
				continue
			}
			reencrypted, err := v.reencrypt(record.Password, oldKey, newKey)
			if err != nil {
				return fmt.Errorf("history record %d: %w", record.ID, err)
			}
			if err := q.UpdateHistoryPassword(ctx, record.ID, reencrypted); err != nil {
				return err
			}
			historyCount++
		}

		return nil
	})
	if err != nil {
		v.logger.ErrorContext(ctx, "master password change rolled back",
			slog.String("session_id", v.session.ID()),
			slog.Any("error", err),
		)
		return fmt.Errorf("%w: %w", ErrUpdateFailed, err)
	}

	// Commit прошел: дальше работаем только с новым ключом
	v.unlockLocked(ctx, next)

	v.logger.InfoContext(ctx, "master password changed",
		slog.String("session_id", v.session.ID()),
		slog.Int("entries", entriesCount),
		slog.Int("history_records", historyCount),
	)

	return v.persist(ctx, "change_master")
}

// reencrypt расшифровывает значение старым ключом и шифрует новым.
// Legacy plaintext шифруется как есть; значение в зашифрованном формате,
// которое не расшифровывается старым ключом, прерывает смену пароля.
func (v *Vault) reencrypt(stored string, oldKey, newKey []byte) (string, error) {
	plaintext, err := crypto.Decrypt(stored, oldKey)
	if err != nil {
		return "", err
	}
	return v.encrypt(plaintext, newKey)
}
