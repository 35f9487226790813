package markov

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
)

// ctxCheckInterval is how many runes are read between context checks.
const ctxCheckInterval = 4096

// Train reads the corpus from data and builds the model's table. The first
// Order characters form the initial window; every following character is
// recorded as an observation of the current window, which then slides forward
// by one. Carriage returns are ignored entirely, including while the initial
// window is read, so the first window is the first Order characters other than
// '\r' rather than the first Order characters of the input.
//
// A corpus shorter than Order characters produces an empty table. Train may
// only succeed once per Model; later calls return ErrAlreadyTrained. On error
// the model stays untrained.
func (m *Model) Train(ctx context.Context, data io.Reader) error {
	if m.table != nil {
		return ErrAlreadyTrained
	}

	rr, ok := data.(io.RuneReader)
	if !ok {
		rr = bufio.NewReader(data)
	}

	builder := newTableBuilder()
	window := make([]rune, 0, m.order)
	var runesRead int64

	for {
		if runesRead%ctxCheckInterval == 0 {
			if err := ctx.Err(); err != nil {
				return err
			}
		}

		c, _, err := rr.ReadRune()
		if err != nil {
			if errors.Is(err, io.EOF) {
				break
			}
			return fmt.Errorf("corpus read error: %w", err)
		}
		runesRead++

		if c == '\r' {
			continue
		}

		if len(window) < m.order {
			window = append(window, c)
			continue
		}

		builder.observe(string(window), c)
		copy(window, window[1:])
		window[len(window)-1] = c
	}

	m.table = builder.freeze(m.order)

	m.logger.InfoContext(ctx, "Training completed",
		slog.Int("order", m.order),
		slog.Int("windows", m.table.Len()),
		slog.Int64("runes_processed", runesRead),
	)

	return nil
}

// TrainFile opens the corpus at path and trains the model from it.
func (m *Model) TrainFile(ctx context.Context, path string) error {
	if m.table != nil {
		return ErrAlreadyTrained
	}
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("could not open corpus: %w", err)
	}
	defer func(f *os.File) {
		_ = f.Close()
	}(f)

	return m.Train(ctx, f)
}
