package markov

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"math/rand/v2"
)

var (
	// ErrInvalidOrder is returned by NewModel when the window length is below 1.
	ErrInvalidOrder = errors.New("markov: order must be at least 1")
	// ErrAlreadyTrained is returned when Train is called on a trained Model.
	ErrAlreadyTrained = errors.New("markov: model is already trained")
	// ErrNotTrained is returned when a trained table is required but Train has
	// not completed successfully.
	ErrNotTrained = errors.New("markov: model is not trained")
	// ErrNoWordBoundary is returned alongside the partial text when generation
	// hits its step limit before ending on a space.
	ErrNoWordBoundary = errors.New("markov: step limit reached before a word boundary")
)

// Model is a character-level Markov model of a fixed order. It owns its random
// source, so separately seeded models are reproducible independently of each
// other.
type Model struct {
	order  int
	rng    *rand.Rand
	table  *Table
	logger *slog.Logger
}

// Option configures a Model.
type Option func(*Model)

// WithSeed makes generation reproducible: two models built with the same seed
// and trained on the same corpus produce the same text for the same arguments.
// Without it the random source is seeded from system entropy.
func WithSeed(seed uint64) Option {
	return func(m *Model) {
		m.rng = rand.New(rand.NewPCG(seed, seed))
	}
}

// WithRand sets the random source directly.
func WithRand(rng *rand.Rand) Option {
	return func(m *Model) {
		if rng != nil {
			m.rng = rng
		}
	}
}

// WithLogger sets the logger used for training and generation events.
func WithLogger(logger *slog.Logger) Option {
	return func(m *Model) {
		m.SetLogger(logger)
	}
}

// NewModel creates an untrained model whose windows are order characters long.
func NewModel(order int, opts ...Option) (*Model, error) {
	if order < 1 {
		return nil, fmt.Errorf("%w: got %d", ErrInvalidOrder, order)
	}
	m := &Model{
		order:  order,
		logger: slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	for _, opt := range opts {
		opt(m)
	}
	if m.rng == nil {
		m.rng = rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64()))
	}
	return m, nil
}

// SetLogger sets the logger for the Model. By default, all logs are discarded.
func (m *Model) SetLogger(logger *slog.Logger) {
	if logger != nil {
		m.logger = logger
	}
}

// Order returns the window length.
func (m *Model) Order() int {
	return m.order
}

// Trained reports whether Train has completed successfully.
func (m *Model) Trained() bool {
	return m.table != nil
}

// Table returns the trained table, or ErrNotTrained.
func (m *Model) Table() (*Table, error) {
	if m.table == nil {
		return nil, ErrNotTrained
	}
	return m.table, nil
}

// String returns the debug dump of the trained table, or an empty string for
// an untrained model.
func (m *Model) String() string {
	if m.table == nil {
		return ""
	}
	return m.table.String()
}
