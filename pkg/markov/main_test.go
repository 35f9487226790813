package markov

import (
	"context"
	"go/build"
	"math"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
)

// epsilon bounds floating-point drift when checking normalized tables.
const epsilon = 1e-9

// newTrainedModel builds a model of the given order with a fixed seed and
// trains it on corpus.
func newTrainedModel(t *testing.T, corpus string, order int) *Model {
	t.Helper()
	m, err := NewModel(order, WithSeed(20))
	if err != nil {
		t.Fatalf("NewModel(%d) error = %v", order, err)
	}
	if err := m.Train(context.Background(), strings.NewReader(corpus)); err != nil {
		t.Fatalf("setup: Train() failed: %v", err)
	}
	return m
}

// checkNormalized verifies that every list in the table sums to one and has
// non-decreasing cumulative probabilities ending at one.
func checkNormalized(t *testing.T, table *Table) {
	t.Helper()
	for _, window := range table.Windows() {
		entries, _ := table.Entries(window)
		sum, prev := 0.0, 0.0
		for _, cd := range entries {
			sum += cd.P
			if cd.CP < prev {
				t.Errorf("window %q: cp %v decreased from %v", window, cd.CP, prev)
			}
			prev = cd.CP
		}
		if math.Abs(sum-1.0) > epsilon {
			t.Errorf("window %q: probabilities sum to %v, want 1", window, sum)
		}
		if math.Abs(prev-1.0) > epsilon {
			t.Errorf("window %q: final cp is %v, want 1", window, prev)
		}
	}
}

var (
	benchmarkCorpus string
	corpusOnce      sync.Once
)

// createBenchmarkCorpus reads Go source files to create a corpus for benchmarking.
func createBenchmarkCorpus() string {
	corpusOnce.Do(func() {
		var sb strings.Builder
		goRoot := build.Default.GOROOT
		filesToRead := []string{
			filepath.Join(goRoot, "src/net/http/server.go"),
			filepath.Join(goRoot, "src/go/parser/parser.go"),
			filepath.Join(goRoot, "src/encoding/json/encode.go"),
		}

		for _, file := range filesToRead {
			content, err := os.ReadFile(file)
			if err != nil {
				benchmarkCorpus = "this is a fallback corpus for benchmarking. it is not very long but will prevent a crash. "
				return
			}
			sb.Write(content)
			sb.WriteString("\n")
		}
		benchmarkCorpus = sb.String()
	})
	return benchmarkCorpus
}
