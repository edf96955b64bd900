// internal/blobcache/blobcache.go
package blobcache

import (
	"strings"

	"github.com/dgraph-io/badger/v4"
	"github.com/klauspost/compress/zstd"
	"go.uber.org/zap"

	"github.com/qosmio/gitsigns/internal/logging"
)

// Store is a content-addressed cache of reference file content, keyed by
// git object hash. Objects are immutable, so entries never invalidate;
// hitting the cache skips a subprocess round trip.
type Store struct {
	db      *badger.DB
	encoder *zstd.Encoder
	decoder *zstd.Decoder
	logger  *logging.Logger
}

// Open opens (or creates) a cache under dir. An empty dir opens an
// in-memory store, used by tests.
func Open(dir string, logger *logging.Logger) (*Store, error) {
	if logger == nil {
		logger = logging.NewNop()
	}

	opts := badger.DefaultOptions(dir)
	if dir == "" {
		opts = opts.WithInMemory(true)
	}
	opts.Logger = nil

	db, err := badger.Open(opts)
	if err != nil {
		return nil, err
	}

	encoder, err := zstd.NewWriter(nil,
		zstd.WithEncoderLevel(zstd.SpeedDefault),
		zstd.WithEncoderConcurrency(1),
	)
	if err != nil {
		db.Close()
		return nil, err
	}

	decoder, err := zstd.NewReader(nil, zstd.WithDecoderConcurrency(1))
	if err != nil {
		encoder.Close()
		db.Close()
		return nil, err
	}

	return &Store{db: db, encoder: encoder, decoder: decoder, logger: logger}, nil
}

func key(hash string) []byte {
	return []byte("blob:" + hash)
}

// Get returns the cached lines for an object hash.
func (s *Store) Get(hash string) ([]string, bool) {
	var raw []byte
	err := s.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(key(hash))
		if err != nil {
			return err
		}
		return item.Value(func(val []byte) error {
			decoded, derr := s.decoder.DecodeAll(val, nil)
			if derr != nil {
				return derr
			}
			raw = decoded
			return nil
		})
	})
	if err != nil {
		if err != badger.ErrKeyNotFound {
			s.logger.Warn("blob cache read", zap.String("hash", hash), zap.Error(err))
		}
		return nil, false
	}

	return decodeLines(raw), true
}

// Put stores the lines of one object.
func (s *Store) Put(hash string, lines []string) error {
	compressed := s.encoder.EncodeAll(encodeLines(lines), nil)
	return s.db.Update(func(txn *badger.Txn) error {
		return txn.Set(key(hash), compressed)
	})
}

func (s *Store) Close() error {
	s.encoder.Close()
	s.decoder.Close()
	return s.db.Close()
}

// encodeLines/decodeLines round-trip a line array through one byte blob.
// A leading marker distinguishes the empty array from [""].
func encodeLines(lines []string) []byte {
	if len(lines) == 0 {
		return nil
	}
	return append([]byte{'L'}, []byte(strings.Join(lines, "\n"))...)
}

func decodeLines(raw []byte) []string {
	if len(raw) == 0 {
		return nil
	}
	return strings.Split(string(raw[1:]), "\n")
}
