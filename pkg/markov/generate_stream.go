package markov

import (
	"context"
	"log/slog"
)

// Token is one piece of streamed output. The first Token of a stream carries
// the whole initial text with Seed set. Every following Token is a single
// generated character, until a last Token with Done set and an empty Text
// reports why generation stopped.
type Token struct {
	Text string
	Seed bool

	Done   bool
	Reason StopReason
	// Err is ErrNoWordBoundary when the step limit ended the stream.
	Err error
}

// GenerateStream runs the same loop as GenerateResult in a goroutine and
// returns a read-only channel of Tokens. The channel is closed once generation
// stops for any reason. Unless the context was cancelled, the last Token
// before the close has Done set. The Model must not be used for anything else
// until the channel is drained or the context is cancelled.
func (m *Model) GenerateStream(ctx context.Context, initial string, length int, opts ...GenerateOption) (<-chan Token, error) {
	if m.table == nil {
		return nil, ErrNotTrained
	}
	options := newGenerateOptions(opts)

	tokenChan := make(chan Token)

	send := func(token Token) bool {
		select {
		case <-ctx.Done():
			return false
		case tokenChan <- token:
			return true
		}
	}

	go func() {
		defer close(tokenChan)

		if !send(Token{Text: initial, Seed: true}) {
			return
		}

		out := []rune(initial)
		if len(out) < m.order {
			send(Token{Done: true, Reason: StopShortSeed})
			return
		}

		out, reason, steps, err := m.extend(ctx, out, length, options, func(c rune) bool {
			return send(Token{Text: string(c)})
		})
		if reason == StopCancelled {
			m.logger.DebugContext(ctx, "Generation stream cancelled by context")
			return
		}
		if reason == StopMaxSteps {
			m.logger.WarnContext(ctx, "Generation stream hit step limit",
				slog.Int("max_steps", options.maxSteps),
				slog.Int("generated_length", len(out)),
			)
		}

		send(Token{Done: true, Reason: reason, Err: err})
		m.logger.DebugContext(ctx, "Generation stream finished",
			slog.String("reason", reason.String()),
			slog.Int("steps", steps),
		)
	}()

	return tokenChan, nil
}
