// Package snapshot implements the Snapshot Store: one zstd-compressed
// gob file per symbol, providing save/load/list/delete over a
// configured base directory.
package snapshot

import (
	"bytes"
	"encoding/gob"
	"errors"
	"os"
	"path/filepath"
	"strings"

	"github.com/klauspost/compress/zstd"
	"go.uber.org/zap"

	"github.com/abdoElHodaky/matchcore/internal/domain"
	"github.com/abdoElHodaky/matchcore/internal/orderbook"
)

const fileSuffix = ".snapshot"

// Store persists OrderBook snapshots under BaseDir, one file per
// symbol, named "<symbol>.snapshot".
type Store struct {
	BaseDir string
	logger  *zap.Logger
}

// New constructs a Store rooted at baseDir. A nil logger is replaced
// with a no-op logger.
func New(baseDir string, logger *zap.Logger) *Store {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Store{BaseDir: baseDir, logger: logger}
}

func (s *Store) pathFor(symbol string) string {
	return filepath.Join(s.BaseDir, symbol+fileSuffix)
}

// Save encodes book's current state and atomically replaces its
// snapshot file. Save itself takes book's write lock around Export,
// so the captured state is consistent, and releases it before
// encoding and writing; callers must not hold the lock.
func (s *Store) Save(book *orderbook.OrderBook) error {
	book.Lock()
	snap := book.Export()
	book.Unlock()

	var raw bytes.Buffer
	if err := gob.NewEncoder(&raw).Encode(snap); err != nil {
		return domain.WrapMatchError(domain.ErrCodeInfrastructure, "encode snapshot", err)
	}

	compressed, err := compress(raw.Bytes())
	if err != nil {
		return domain.WrapMatchError(domain.ErrCodeInfrastructure, "compress snapshot", err)
	}

	if err := os.MkdirAll(s.BaseDir, 0o755); err != nil {
		return domain.WrapMatchError(domain.ErrCodeInfrastructure, "create snapshot directory", err)
	}

	target := s.pathFor(snap.Symbol)
	tmp := target + ".tmp"
	if err := os.WriteFile(tmp, compressed, 0o644); err != nil {
		return domain.WrapMatchError(domain.ErrCodeInfrastructure, "write snapshot", err)
	}
	if err := os.Rename(tmp, target); err != nil {
		return domain.WrapMatchError(domain.ErrCodeInfrastructure, "finalize snapshot", err)
	}

	s.logger.Debug("snapshot saved",
		zap.String("symbol", snap.Symbol),
		zap.Uint64("sequence", snap.Sequence),
		zap.Int("raw_bytes", raw.Len()),
		zap.Int("compressed_bytes", len(compressed)),
	)
	return nil
}

// ErrNotFound is returned by Load when no snapshot file exists for a
// symbol; callers rehydrate an empty book on first use instead.
var ErrNotFound = errors.New("snapshot not found")

// Load decodes the snapshot file for symbol into a fresh OrderBook.
func (s *Store) Load(symbol string, logger *zap.Logger) (*orderbook.OrderBook, error) {
	raw, err := os.ReadFile(s.pathFor(symbol))
	if errors.Is(err, os.ErrNotExist) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, domain.WrapMatchError(domain.ErrCodeInfrastructure, "read snapshot", err)
	}

	decompressed, err := decompress(raw)
	if err != nil {
		return nil, domain.WrapMatchError(domain.ErrCodeInfrastructure, "decompress snapshot", err)
	}

	var snap orderbook.Snapshot
	if err := gob.NewDecoder(bytes.NewReader(decompressed)).Decode(&snap); err != nil {
		return nil, domain.WrapMatchError(domain.ErrCodeInfrastructure, "decode snapshot", err)
	}

	return orderbook.Restore(snap, logger), nil
}

// List returns the symbols with an existing snapshot file.
func (s *Store) List() ([]string, error) {
	entries, err := os.ReadDir(s.BaseDir)
	if errors.Is(err, os.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, domain.WrapMatchError(domain.ErrCodeInfrastructure, "list snapshots", err)
	}

	symbols := make([]string, 0, len(entries))
	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), fileSuffix) {
			continue
		}
		symbols = append(symbols, strings.TrimSuffix(e.Name(), fileSuffix))
	}
	return symbols, nil
}

// Delete removes symbol's snapshot file, if any.
func (s *Store) Delete(symbol string) error {
	err := os.Remove(s.pathFor(symbol))
	if err != nil && !errors.Is(err, os.ErrNotExist) {
		return domain.WrapMatchError(domain.ErrCodeInfrastructure, "delete snapshot", err)
	}
	return nil
}

func compress(raw []byte) ([]byte, error) {
	w, err := zstd.NewWriter(nil, zstd.WithEncoderLevel(zstd.SpeedDefault))
	if err != nil {
		return nil, err
	}
	defer w.Close()
	return w.EncodeAll(raw, nil), nil
}

func decompress(compressed []byte) ([]byte, error) {
	r, err := zstd.NewReader(nil)
	if err != nil {
		return nil, err
	}
	defer r.Close()
	return r.DecodeAll(compressed, nil)
}
