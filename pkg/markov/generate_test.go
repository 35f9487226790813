package markov

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"
)

const wordCorpus = "the cat sat on the mat. the rat ate the hat. a bat saw that cat and the rat ran. "

func TestGenerate(t *testing.T) {
	ctx := context.Background()
	m := newTrainedModel(t, "ab ab ab ", 1)

	testCases := []struct {
		name     string
		seed     string
		length   int
		expected string
		reason   StopReason
		steps    int
	}{
		{
			name:     "Stops on first space past length",
			seed:     "a",
			length:   3,
			expected: "ab ",
			reason:   StopWordBoundary,
			steps:    2,
		},
		{
			name:     "Overshoots to finish the word",
			seed:     "a",
			length:   4,
			expected: "ab ab ",
			reason:   StopWordBoundary,
			steps:    5,
		},
		{
			name:     "Seed already long enough and ends in space",
			seed:     "ab ",
			length:   2,
			expected: "ab ",
			reason:   StopWordBoundary,
		},
		{
			name:     "Zero length still finishes the word",
			seed:     "b",
			length:   0,
			expected: "b ",
			reason:   StopWordBoundary,
			steps:    1,
		},
		{
			name:     "Empty seed is returned unchanged",
			seed:     "",
			length:   10,
			expected: "",
			reason:   StopShortSeed,
		},
		{
			name:     "Unseen window stops immediately",
			seed:     "q",
			length:   10,
			expected: "q",
			reason:   StopContextMiss,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			res, err := m.GenerateResult(ctx, tc.seed, tc.length)
			if err != nil {
				t.Fatalf("got unexpected error: %v", err)
			}
			if res.Text != tc.expected {
				t.Errorf("expected %q, got %q", tc.expected, res.Text)
			}
			if res.Reason != tc.reason {
				t.Errorf("expected reason %v, got %v", tc.reason, res.Reason)
			}
			if res.Steps != tc.steps {
				t.Errorf("expected %d steps, got %d", tc.steps, res.Steps)
			}
		})
	}
}

func TestGenerateShortSeed(t *testing.T) {
	ctx := context.Background()
	m := newTrainedModel(t, wordCorpus, 4)

	for _, seed := range []string{"", "t", "th", "the"} {
		for _, length := range []int{0, 3, 100} {
			out, err := m.Generate(ctx, seed, length)
			if err != nil {
				t.Fatalf("Generate(%q, %d) failed: %v", seed, length, err)
			}
			if out != seed {
				t.Errorf("Generate(%q, %d) = %q, want seed unchanged", seed, length, out)
			}
		}
	}
}

func TestGenerateReproducible(t *testing.T) {
	ctx := context.Background()

	outputs := make([]string, 2)
	for i := range outputs {
		m := newTrainedModel(t, wordCorpus, 2)
		out, err := m.Generate(ctx, "th", 60, WithMaxSteps(10000))
		if err != nil {
			t.Fatalf("Generate failed: %v", err)
		}
		outputs[i] = out
	}

	if outputs[0] != outputs[1] {
		t.Errorf("same seed produced different output:\n%q\n%q", outputs[0], outputs[1])
	}
	if !strings.HasPrefix(outputs[0], "th") {
		t.Errorf("output %q does not start with the seed", outputs[0])
	}
}

func TestGenerateStopsOnContextMiss(t *testing.T) {
	ctx := context.Background()
	// "z" is observed as a continuation but never as a window.
	m := newTrainedModel(t, "xyz", 1)
	const upperBound = 50

	res, err := m.GenerateResult(ctx, "zzx", 100)
	if err != nil {
		t.Fatalf("GenerateResult failed: %v", err)
	}
	if res.Text != "zzxyz" {
		t.Errorf("expected %q, got %q", "zzxyz", res.Text)
	}
	if res.Reason != StopContextMiss {
		t.Errorf("expected StopContextMiss, got %v", res.Reason)
	}
	if n := len([]rune(res.Text)); n < 3 || n >= upperBound {
		t.Errorf("output length %d outside [3, %d)", n, upperBound)
	}
}

func TestGenerateMaxSteps(t *testing.T) {
	ctx := context.Background()
	// Both windows always resolve and neither ever yields a space.
	m := newTrainedModel(t, "abab", 1)

	res, err := m.GenerateResult(ctx, "a", 5, WithMaxSteps(50))
	if !errors.Is(err, ErrNoWordBoundary) {
		t.Fatalf("expected ErrNoWordBoundary, got %v", err)
	}
	if res.Reason != StopMaxSteps {
		t.Errorf("expected StopMaxSteps, got %v", res.Reason)
	}
	want := strings.Repeat("ab", 26)[:51]
	if res.Text != want {
		t.Errorf("expected %q, got %q", want, res.Text)
	}
	if res.Steps != 50 {
		t.Errorf("expected 50 steps, got %d", res.Steps)
	}
}

func TestGenerateCancelled(t *testing.T) {
	m := newTrainedModel(t, "abab", 1)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	res, err := m.GenerateResult(ctx, "a", 5)
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
	if res.Reason != StopCancelled || res.Text != "a" {
		t.Errorf("expected cancelled result with seed text, got %+v", res)
	}
}

func TestGenerateNotTrained(t *testing.T) {
	m, _ := NewModel(2)
	out, err := m.Generate(context.Background(), "hello", 10)
	if !errors.Is(err, ErrNotTrained) {
		t.Errorf("expected ErrNotTrained, got %v", err)
	}
	if out != "hello" {
		t.Errorf("expected initial text back, got %q", out)
	}
}

func TestStopReasonString(t *testing.T) {
	testCases := map[StopReason]string{
		StopWordBoundary: "word_boundary",
		StopContextMiss:  "context_miss",
		StopShortSeed:    "short_seed",
		StopMaxSteps:     "max_steps",
		StopCancelled:    "cancelled",
		StopReason(99):   "unknown",
	}
	for reason, want := range testCases {
		if got := reason.String(); got != want {
			t.Errorf("StopReason(%d).String() = %q, want %q", int(reason), got, want)
		}
	}
}

func TestStats(t *testing.T) {
	m := newTrainedModel(t, "abab", 1)
	stats, err := m.Stats()
	if err != nil {
		t.Fatalf("Stats() failed: %v", err)
	}
	want := ModelStats{Order: 1, Windows: 2, Transitions: 2, Observations: 3, Alphabet: 2}
	if stats != want {
		t.Errorf("Stats() = %+v, want %+v", stats, want)
	}

	untrained, _ := NewModel(1)
	if _, err := untrained.Stats(); !errors.Is(err, ErrNotTrained) {
		t.Errorf("expected ErrNotTrained, got %v", err)
	}
}

func TestTrainedTableIsNormalized(t *testing.T) {
	m := newTrainedModel(t, createBenchmarkCorpus(), 3)
	table, _ := m.Table()
	checkNormalized(t, table)
}

func BenchmarkGenerate(b *testing.B) {
	corpus := createBenchmarkCorpus()
	ctx := context.Background()

	for _, order := range []int{2, 4} {
		m, _ := NewModel(order, WithSeed(1))
		if err := m.Train(ctx, strings.NewReader(corpus)); err != nil {
			b.Fatalf("Train() setup for benchmark failed: %v", err)
		}
		seed := string([]rune(corpus)[:order])

		b.Run(fmt.Sprintf("Order%d", order), func(b *testing.B) {
			b.ReportAllocs()
			b.ResetTimer()
			for i := 0; i < b.N; i++ {
				s, err := m.Generate(ctx, seed, 200, WithMaxSteps(5000))
				b.SetBytes(int64(len(s)))
				if err != nil && !errors.Is(err, ErrNoWordBoundary) {
					b.Fatalf("Generate() failed: %v", err)
				}
			}
		})
	}
}
