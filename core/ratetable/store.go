package ratetable

import (
	"sync"
	"sync/atomic"

	"go.uber.org/zap"
)

// Source supplies the rate table in effect for a pricing call
type Source interface {
	Current() *Table
}

// Store holds the current table and swaps in a fresh one on reload.
// Readers never block; a failed reload leaves the previous table serving.
type Store struct {
	path    string
	logger  *zap.Logger
	current atomic.Pointer[Table]

	// reloads are serialized so two concurrent reloads cannot interleave
	reloadMu sync.Mutex
}

// NewStore loads the table at path (the embedded table when path is empty)
func NewStore(path string, logger *zap.Logger) (*Store, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	t, err := LoadOrDefault(path)
	if err != nil {
		return nil, err
	}
	s := &Store{path: path, logger: logger}
	s.current.Store(t)
	logger.Info("rate table loaded",
		zap.String("source", t.Source()),
		zap.String("hash", t.Hash().Short()))
	return s, nil
}

// NewStaticStore wraps an already built table
func NewStaticStore(t *Table) *Store {
	s := &Store{path: t.Source(), logger: zap.NewNop()}
	if t.Source() == SourceBuiltin {
		s.path = ""
	}
	s.current.Store(t)
	return s
}

// Current returns the table in effect
func (s *Store) Current() *Table {
	return s.current.Load()
}

// Path returns the configured table path, empty for the embedded table
func (s *Store) Path() string {
	return s.path
}

// Reload re-reads the configured source and swaps it in on success
func (s *Store) Reload() (*Table, error) {
	s.reloadMu.Lock()
	defer s.reloadMu.Unlock()

	previous := s.current.Load()
	t, err := LoadOrDefault(s.path)
	if err != nil {
		s.logger.Warn("rate table reload failed, keeping previous table",
			zap.String("hash", previous.Hash().Short()),
			zap.Error(err))
		return previous, err
	}

	s.current.Store(t)
	s.logger.Info("rate table reloaded",
		zap.String("source", t.Source()),
		zap.String("previous_hash", previous.Hash().Short()),
		zap.String("hash", t.Hash().Short()),
		zap.Bool("changed", previous.Hash() != t.Hash()))
	return t, nil
}
