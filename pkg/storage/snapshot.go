// Package storage keeps snapshots of ingested provider datasets in SQLite so
// the directory can still be served when the source is unreachable.
//
// A snapshot is the dataset serialized with the export codec and compressed
// with zstd. Snapshots are append only; Prune trims old ones.
package storage

import (
	"bytes"
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/klauspost/compress/zstd"
	_ "github.com/ncruces/go-sqlite3/driver"
	_ "github.com/ncruces/go-sqlite3/embed"

	"github.com/rubiojr/carefinder/pkg/db"
	"github.com/rubiojr/carefinder/pkg/export"
	"github.com/rubiojr/carefinder/pkg/log"
	"github.com/rubiojr/carefinder/pkg/provider"
)

// ErrNoSnapshot is returned when the store holds no matching snapshot.
var ErrNoSnapshot = errors.New("no snapshot")

const encodingZstd = "zstd"

// SnapshotInfo describes a stored snapshot without its records.
type SnapshotInfo struct {
	ID        string    `json:"id"`
	CreatedAt time.Time `json:"created_at"`
	Source    string    `json:"source"`
	Count     int       `json:"count"`
	// Size is the compressed payload size in bytes.
	Size int `json:"size"`
}

type Snapshot struct {
	SnapshotInfo
	Records []provider.Provider
}

type SnapshotStore struct {
	db      *sql.DB
	encoder *zstd.Encoder
	decoder *zstd.Decoder
}

// Open opens (creating if needed) the snapshot database at dbPath and
// applies pending migrations.
func Open(ctx context.Context, dbPath string) (*SnapshotStore, error) {
	conn, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	pragmas := []string{
		"PRAGMA journal_mode = WAL",
		"PRAGMA synchronous = NORMAL",
		"PRAGMA busy_timeout = 30000",
		"PRAGMA temp_store = memory",
	}
	for _, pragma := range pragmas {
		if _, err := conn.ExecContext(ctx, pragma); err != nil {
			_ = conn.Close()
			return nil, fmt.Errorf("applying pragma %q: %w", pragma, err)
		}
	}

	if err := db.InitializeDatabase(ctx, conn); err != nil {
		_ = conn.Close()
		return nil, err
	}

	encoder, err := zstd.NewWriter(nil)
	if err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("creating zstd encoder: %w", err)
	}
	decoder, err := zstd.NewReader(nil)
	if err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("creating zstd decoder: %w", err)
	}

	return &SnapshotStore{db: conn, encoder: encoder, decoder: decoder}, nil
}

func (s *SnapshotStore) Close() error {
	s.decoder.Close()
	if err := s.encoder.Close(); err != nil {
		log.ForService("storage").Warnf("failed to close zstd encoder: %v", err)
	}
	return s.db.Close()
}

// Save stores records as a new snapshot.
func (s *SnapshotStore) Save(ctx context.Context, source string, records []provider.Provider) (SnapshotInfo, error) {
	raw, err := export.Marshal(records)
	if err != nil {
		return SnapshotInfo{}, fmt.Errorf("serializing snapshot: %w", err)
	}
	payload := s.encoder.EncodeAll(raw, nil)

	info := SnapshotInfo{
		ID:        uuid.New().String(),
		CreatedAt: time.Now().UTC(),
		Source:    source,
		Count:     len(records),
		Size:      len(payload),
	}
	_, err = s.db.ExecContext(ctx, `
		INSERT INTO snapshots (id, created_at, source, record_count, encoding, data)
		VALUES (?, ?, ?, ?, ?, ?)
	`, info.ID, info.CreatedAt.UnixNano(), info.Source, info.Count, encodingZstd, payload)
	if err != nil {
		return SnapshotInfo{}, fmt.Errorf("inserting snapshot: %w", err)
	}

	log.ForService("storage").Debugf("saved snapshot %s (%d records, %d bytes)", info.ID, info.Count, info.Size)
	return info, nil
}

// Latest returns the most recent snapshot.
func (s *SnapshotStore) Latest(ctx context.Context) (*Snapshot, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, created_at, source, record_count, encoding, data
		FROM snapshots ORDER BY created_at DESC, rowid DESC LIMIT 1
	`)
	return s.scanSnapshot(row)
}

// Get returns the snapshot with the given id.
func (s *SnapshotStore) Get(ctx context.Context, id string) (*Snapshot, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, created_at, source, record_count, encoding, data
		FROM snapshots WHERE id = ?
	`, id)
	return s.scanSnapshot(row)
}

func (s *SnapshotStore) scanSnapshot(row *sql.Row) (*Snapshot, error) {
	var (
		snap     Snapshot
		created  int64
		encoding string
		payload  []byte
	)
	err := row.Scan(&snap.ID, &created, &snap.Source, &snap.Count, &encoding, &payload)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNoSnapshot
	}
	if err != nil {
		return nil, fmt.Errorf("reading snapshot: %w", err)
	}
	snap.CreatedAt = time.Unix(0, created).UTC()
	snap.Size = len(payload)

	if encoding != encodingZstd {
		return nil, fmt.Errorf("snapshot %s: unsupported encoding %q", snap.ID, encoding)
	}
	raw, err := s.decoder.DecodeAll(payload, nil)
	if err != nil {
		return nil, fmt.Errorf("decompressing snapshot %s: %w", snap.ID, err)
	}
	snap.Records, err = export.Parse(bytes.NewReader(raw))
	if err != nil {
		return nil, fmt.Errorf("decoding snapshot %s: %w", snap.ID, err)
	}
	return &snap, nil
}

// List returns up to limit snapshots, newest first. A limit <= 0 lists all.
func (s *SnapshotStore) List(ctx context.Context, limit int) ([]SnapshotInfo, error) {
	if limit <= 0 {
		limit = -1
	}
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, created_at, source, record_count, length(data)
		FROM snapshots ORDER BY created_at DESC, rowid DESC LIMIT ?
	`, limit)
	if err != nil {
		return nil, fmt.Errorf("listing snapshots: %w", err)
	}
	defer func() { _ = rows.Close() }()

	infos := []SnapshotInfo{}
	for rows.Next() {
		var info SnapshotInfo
		var created int64
		if err := rows.Scan(&info.ID, &created, &info.Source, &info.Count, &info.Size); err != nil {
			return nil, fmt.Errorf("scanning snapshot row: %w", err)
		}
		info.CreatedAt = time.Unix(0, created).UTC()
		infos = append(infos, info)
	}
	return infos, rows.Err()
}

// Prune deletes all but the newest keep snapshots and returns how many were
// removed.
func (s *SnapshotStore) Prune(ctx context.Context, keep int) (int64, error) {
	if keep < 1 {
		keep = 1
	}
	res, err := s.db.ExecContext(ctx, `
		DELETE FROM snapshots WHERE id NOT IN (
			SELECT id FROM snapshots ORDER BY created_at DESC, rowid DESC LIMIT ?
		)
	`, keep)
	if err != nil {
		return 0, fmt.Errorf("pruning snapshots: %w", err)
	}
	return res.RowsAffected()
}
