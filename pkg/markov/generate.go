package markov

import (
	"context"
	"log/slog"
)

// StopReason describes why generation ended.
type StopReason int

const (
	// StopWordBoundary means the text reached the requested length and ended
	// with a space.
	StopWordBoundary StopReason = iota
	// StopContextMiss means the current window was never seen in training.
	StopContextMiss
	// StopShortSeed means the initial text was shorter than the model order,
	// so there was no window to start from.
	StopShortSeed
	// StopMaxSteps means the step limit set by WithMaxSteps was reached.
	StopMaxSteps
	// StopCancelled means the context was cancelled.
	StopCancelled
)

func (r StopReason) String() string {
	switch r {
	case StopWordBoundary:
		return "word_boundary"
	case StopContextMiss:
		return "context_miss"
	case StopShortSeed:
		return "short_seed"
	case StopMaxSteps:
		return "max_steps"
	case StopCancelled:
		return "cancelled"
	default:
		return "unknown"
	}
}

// Result is the outcome of a generation call.
type Result struct {
	Text   string
	Reason StopReason
	// Steps is the number of characters appended to the initial text.
	Steps int
}

// generateOptions holds the settings the GenerateOption functions change.
type generateOptions struct {
	maxSteps int
}

// GenerateOption configures a single generation call.
type GenerateOption func(*generateOptions)

// WithMaxSteps caps how many characters a call may append. When the cap is hit
// before the text is long enough and ends in a space, generation stops with
// ErrNoWordBoundary. A value of 0 or less disables the cap, which lets a model
// whose transitions cycle without ever producing a space run forever.
func WithMaxSteps(n int) GenerateOption {
	return func(o *generateOptions) { o.maxSteps = n }
}

func newGenerateOptions(opts []GenerateOption) *generateOptions {
	options := &generateOptions{maxSteps: 0}
	for _, opt := range opts {
		opt(options)
	}
	return options
}

// Generate extends initial one character at a time and returns the text. See
// GenerateResult for the stopping rules.
func (m *Model) Generate(ctx context.Context, initial string, length int, opts ...GenerateOption) (string, error) {
	res, err := m.GenerateResult(ctx, initial, length, opts...)
	return res.Text, err
}

// GenerateResult extends initial one character at a time. length is a soft
// minimum measured in characters: generation continues while the text is
// shorter than length or does not end in a space, so it usually overshoots to
// finish the current word.
//
// Generation also stops, without error, when the last Order characters were
// never seen during training. If initial is shorter than Order it is returned
// unchanged. On ErrNoWordBoundary or a cancelled context the partial text is
// returned together with the error.
func (m *Model) GenerateResult(ctx context.Context, initial string, length int, opts ...GenerateOption) (Result, error) {
	if m.table == nil {
		return Result{Text: initial}, ErrNotTrained
	}
	options := newGenerateOptions(opts)

	out := []rune(initial)
	if len(out) < m.order {
		m.logger.DebugContext(ctx, "Generation skipped, initial text shorter than order",
			slog.Int("order", m.order),
			slog.Int("initial_length", len(out)),
		)
		return Result{Text: initial, Reason: StopShortSeed}, nil
	}

	out, reason, steps, err := m.extend(ctx, out, length, options, nil)

	m.logger.DebugContext(ctx, "Generation finished",
		slog.String("reason", reason.String()),
		slog.Int("target_length", length),
		slog.Int("generated_length", len(out)),
		slog.Int("steps", steps),
	)

	return Result{Text: string(out), Reason: reason, Steps: steps}, err
}

// extend appends sampled characters to out until the text is at least length
// characters long and ends in a space, or until a context miss, the step
// limit or cancellation. out must hold at least Order characters. If emit is
// non-nil it receives every appended character and returns false once the
// consumer is gone, which ends the loop as cancelled.
func (m *Model) extend(ctx context.Context, out []rune, length int, options *generateOptions, emit func(rune) bool) ([]rune, StopReason, int, error) {
	steps := 0
	for len(out) < length || out[len(out)-1] != ' ' {
		if err := ctx.Err(); err != nil {
			return out, StopCancelled, steps, err
		}
		if options.maxSteps > 0 && steps >= options.maxSteps {
			return out, StopMaxSteps, steps, ErrNoWordBoundary
		}

		list := m.table.lookup(string(out[len(out)-m.order:]))
		if list == nil {
			return out, StopContextMiss, steps, nil
		}
		c := list.sample(m.rng.Float64())
		out = append(out, c)
		steps++

		if emit != nil && !emit(c) {
			return out, StopCancelled, steps, ctx.Err()
		}
	}
	return out, StopWordBoundary, steps, nil
}
