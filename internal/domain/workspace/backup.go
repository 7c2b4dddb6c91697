package workspace

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"solvo/internal/platform/kv"
)

// ExportVersion is written into every export; imports accept it or zero.
const ExportVersion = 1

type Export struct {
	Version    int       `json:"version"`
	ExportedAt time.Time `json:"exportedAt"`
	State      State     `json:"state"`
}

type BackupInfo struct {
	ID        string    `json:"id"`
	CreatedAt time.Time `json:"createdAt"`
	Encrypted bool      `json:"encrypted"`
	Size      int       `json:"size"`
}

type backupRecord struct {
	BackupInfo
	Payload []byte `json:"payload"`
}

// Sealer encrypts backup payloads at rest. When not configured it passes
// data through.
type Sealer interface {
	Configured() bool
	Encrypt(plain []byte) ([]byte, error)
	Decrypt(sealed []byte) ([]byte, error)
}

type backups struct {
	backend kv.Backend
	prefix  string
	sealer  Sealer
}

func (b backups) keyPrefix(userID string) string {
	return fmt.Sprintf("%s-backup-%s-", b.prefix, userID)
}

func (b backups) save(ctx context.Context, userID, id string, export Export) (BackupInfo, error) {
	plain, err := json.Marshal(export)
	if err != nil {
		return BackupInfo{}, fmt.Errorf("encode backup: %w", err)
	}
	payload := plain
	encrypted := false
	if b.sealer != nil && b.sealer.Configured() {
		if payload, err = b.sealer.Encrypt(plain); err != nil {
			return BackupInfo{}, fmt.Errorf("encrypt backup: %w", err)
		}
		encrypted = true
	}
	info := BackupInfo{ID: id, CreatedAt: export.ExportedAt, Encrypted: encrypted, Size: len(plain)}
	record, err := json.Marshal(backupRecord{BackupInfo: info, Payload: payload})
	if err != nil {
		return BackupInfo{}, fmt.Errorf("encode backup record: %w", err)
	}
	if err := b.backend.Put(ctx, b.keyPrefix(userID)+id, record); err != nil {
		return BackupInfo{}, fmt.Errorf("store backup: %w", err)
	}
	return info, nil
}

func (b backups) read(ctx context.Context, key string) (backupRecord, error) {
	data, err := b.backend.Get(ctx, key)
	if errors.Is(err, kv.ErrNotFound) {
		return backupRecord{}, ErrBackupNotFound
	}
	if err != nil {
		return backupRecord{}, err
	}
	var record backupRecord
	if err := json.Unmarshal(data, &record); err != nil {
		return backupRecord{}, fmt.Errorf("decode backup record: %w", err)
	}
	return record, nil
}

// list returns backups newest first.
func (b backups) list(ctx context.Context, userID string) ([]BackupInfo, error) {
	keys, err := b.backend.Keys(ctx, b.keyPrefix(userID))
	if err != nil {
		return nil, err
	}
	out := make([]BackupInfo, 0, len(keys))
	for _, key := range keys {
		record, err := b.read(ctx, key)
		if err != nil {
			return nil, err
		}
		out = append(out, record.BackupInfo)
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

func (b backups) load(ctx context.Context, userID, id string) (Export, error) {
	if strings.TrimSpace(id) == "" {
		return Export{}, ErrBackupNotFound
	}
	record, err := b.read(ctx, b.keyPrefix(userID)+id)
	if err != nil {
		return Export{}, err
	}
	plain := record.Payload
	if record.Encrypted {
		if b.sealer == nil || !b.sealer.Configured() {
			return Export{}, errors.New("backup is encrypted but no encryption key is configured")
		}
		if plain, err = b.sealer.Decrypt(record.Payload); err != nil {
			return Export{}, fmt.Errorf("decrypt backup: %w", err)
		}
	}
	var export Export
	if err := json.Unmarshal(plain, &export); err != nil {
		return Export{}, fmt.Errorf("decode backup: %w", err)
	}
	return export, nil
}
