package main

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/joho/godotenv"
	"github.com/natefinch/atomic"
	"github.com/spf13/cobra"

	"github.com/CTAG07/charkov/pkg/markov"
)

var (
	Version   = "dev"
	Commit    = "none"
	BuildDate = "unknown"
)

const (
	modeRandom = "random"
	modeFixed  = "fixed"
)

// options holds flag values. Flags that were not set explicitly are filled in
// from the config file before any command runs.
type options struct {
	configPath string
	logLevel   string
	fixedSeed  uint64
	maxSteps   int
	record     bool
	outPath    string
}

// app carries state shared by every command.
type app struct {
	opts   options
	cfg    *Config
	logger *slog.Logger
}

func main() {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		_, _ = fmt.Fprintf(os.Stderr, "warning: failed to load .env: %v\n", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		stop()
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	a := &app{}
	rootCmd := &cobra.Command{
		Use:   "charkov <k> <seed-text> <length> <random|fixed> <corpus>",
		Short: "Generate text from a character-level Markov model",
		Long: `charkov trains an order-k character model on a corpus file and extends the
seed text until it is at least length characters long and ends in a space, or
until it reaches a window the corpus never contained.

Mode "fixed" uses a reproducible seed (--fixed-seed); "random" uses system entropy.`,
		Version:           fmt.Sprintf("%s (commit %s, built %s)", Version, Commit, BuildDate),
		Args:              cobra.ExactArgs(5),
		SilenceUsage:      true,
		PersistentPreRunE: a.setup,
		RunE:              a.runGenerate,
	}

	rootCmd.PersistentFlags().StringVar(&a.opts.configPath, "config", DefaultConfigPath(), "path to the TOML config file")
	rootCmd.PersistentFlags().StringVar(&a.opts.logLevel, "log-level", "info", "log level (debug, info, warn, error)")

	rootCmd.Flags().Uint64Var(&a.opts.fixedSeed, "fixed-seed", defaultFixedSeed, "seed used in fixed mode")
	rootCmd.Flags().IntVar(&a.opts.maxSteps, "max-steps", defaultMaxSteps, "maximum characters to generate before giving up on a word boundary (0 = unlimited)")
	rootCmd.Flags().BoolVar(&a.opts.record, "record", false, "record the run in the history database")
	rootCmd.Flags().StringVar(&a.opts.outPath, "out", "", "write the generated text to this file instead of stdout")

	rootCmd.AddCommand(a.newInspectCmd())
	rootCmd.AddCommand(a.newStatsCmd())
	rootCmd.AddCommand(a.newHistoryCmd())
	rootCmd.AddCommand(a.newConfigCmd())

	return rootCmd
}

// setup loads the config file, merges it under the explicit flags and builds
// the logger.
func (a *app) setup(cmd *cobra.Command, _ []string) error {
	cfg, err := LoadConfig(a.opts.configPath)
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}
	a.cfg = cfg

	applyConfig(cmd, "log-level", &a.opts.logLevel, cfg.LogLevel)
	applyConfig(cmd, "fixed-seed", &a.opts.fixedSeed, cfg.Generate.FixedSeed)
	applyConfig(cmd, "max-steps", &a.opts.maxSteps, cfg.Generate.MaxSteps)
	applyConfig(cmd, "record", &a.opts.record, cfg.History.Enabled)

	level, err := parseLogLevel(a.opts.logLevel)
	if err != nil {
		return err
	}
	a.logger = slog.New(slog.NewTextHandler(cmd.ErrOrStderr(), &slog.HandlerOptions{Level: level}))
	return nil
}

// applyConfig copies a config value into target unless the flag was set.
func applyConfig[T any](cmd *cobra.Command, name string, target *T, value T) {
	if cmd.Flags().Changed(name) {
		return
	}
	*target = value
}

func (a *app) runGenerate(cmd *cobra.Command, args []string) error {
	order, err := parseOrder(args[0])
	if err != nil {
		return err
	}
	seedText := args[1]
	length, err := strconv.Atoi(args[2])
	if err != nil || length < 0 {
		return fmt.Errorf("length must be a non-negative integer, got %q", args[2])
	}
	mode := args[3]
	if mode != modeRandom && mode != modeFixed {
		return fmt.Errorf("mode must be %q or %q, got %q", modeRandom, modeFixed, mode)
	}
	corpusPath := args[4]

	modelOpts := []markov.Option{markov.WithLogger(a.logger)}
	if mode == modeFixed {
		modelOpts = append(modelOpts, markov.WithSeed(a.opts.fixedSeed))
	}

	ctx := cmd.Context()
	start := time.Now()

	m, err := a.trainModel(ctx, order, corpusPath, modelOpts...)
	if err != nil {
		return err
	}

	res, genErr := m.GenerateResult(ctx, seedText, length, markov.WithMaxSteps(a.opts.maxSteps))
	if genErr != nil && !errors.Is(genErr, markov.ErrNoWordBoundary) {
		return fmt.Errorf("generation failed: %w", genErr)
	}

	if err = a.writeOutput(cmd, res.Text); err != nil {
		return err
	}

	if a.opts.record {
		run := Run{
			CorpusPath:   corpusPath,
			Order:        order,
			SeedText:     seedText,
			TargetLength: length,
			Mode:         mode,
			FixedSeed:    a.opts.fixedSeed,
			OutputLength: len([]rune(res.Text)),
			StopReason:   res.Reason.String(),
			Duration:     time.Since(start),
		}
		if err = a.recordRun(ctx, run); err != nil {
			a.logger.Error("Failed to record run", "error", err)
		}
	}

	if genErr != nil {
		return fmt.Errorf("generation stopped after %d characters: %w", res.Steps, genErr)
	}
	return nil
}

func (a *app) trainModel(ctx context.Context, order int, corpusPath string, opts ...markov.Option) (*markov.Model, error) {
	m, err := markov.NewModel(order, opts...)
	if err != nil {
		return nil, err
	}
	if err = m.TrainFile(ctx, corpusPath); err != nil {
		return nil, fmt.Errorf("failed to train model: %w", err)
	}
	return m, nil
}

func (a *app) writeOutput(cmd *cobra.Command, text string) error {
	if a.opts.outPath == "" {
		if _, err := fmt.Fprintln(cmd.OutOrStdout(), text); err != nil {
			return fmt.Errorf("failed to write output: %w", err)
		}
		return nil
	}
	if err := atomic.WriteFile(a.opts.outPath, strings.NewReader(text+"\n")); err != nil {
		return fmt.Errorf("failed to write output file: %w", err)
	}
	a.logger.Info("Output written", "path", a.opts.outPath)
	return nil
}

func (a *app) recordRun(ctx context.Context, run Run) error {
	h, err := OpenHistory(a.cfg.History.DatabasePath, a.logger)
	if err != nil {
		return err
	}
	defer func(h *History) {
		_ = h.Close()
	}(h)

	_, err = h.Record(ctx, run)
	return err
}

func parseOrder(s string) (int, error) {
	order, err := strconv.Atoi(s)
	if err != nil || order < 1 {
		return 0, fmt.Errorf("k must be a positive integer, got %q", s)
	}
	return order, nil
}

func (a *app) newInspectCmd() *cobra.Command {
	var raw bool
	cmd := &cobra.Command{
		Use:   "inspect <k> <corpus>",
		Short: "Print the trained context table",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			order, err := parseOrder(args[0])
			if err != nil {
				return err
			}
			m, err := a.trainModel(cmd.Context(), order, args[1], markov.WithLogger(a.logger))
			if err != nil {
				return err
			}
			table, err := m.Table()
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if raw {
				if _, err = table.WriteTo(out); err != nil {
					return fmt.Errorf("failed to write output: %w", err)
				}
				return nil
			}
			headers := []string{"Window", "Char", "Count", "P", "CP"}
			return writeTable(out, headers, tableRows(table), map[int]bool{2: true, 3: true, 4: true}, isTerminal(out))
		},
	}
	cmd.Flags().BoolVar(&raw, "raw", false, `print "window : list" lines instead of a table`)
	return cmd
}

func (a *app) newStatsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "stats <k> <corpus>",
		Short: "Print statistics for a trained model",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			order, err := parseOrder(args[0])
			if err != nil {
				return err
			}
			m, err := a.trainModel(cmd.Context(), order, args[1], markov.WithLogger(a.logger))
			if err != nil {
				return err
			}
			stats, err := m.Stats()
			if err != nil {
				return err
			}
			return writeTable(cmd.OutOrStdout(), nil, statsRows(stats), map[int]bool{1: true}, false)
		},
	}
}

func (a *app) newHistoryCmd() *cobra.Command {
	var limit int
	cmd := &cobra.Command{
		Use:   "history",
		Short: "List recorded generation runs",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if limit <= 0 {
				return fmt.Errorf("--limit must be greater than 0")
			}
			h, err := OpenHistory(a.cfg.History.DatabasePath, a.logger)
			if err != nil {
				return err
			}
			defer func(h *History) {
				_ = h.Close()
			}(h)

			runs, err := h.List(cmd.Context(), limit)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			if len(runs) == 0 {
				_, err = fmt.Fprintln(out, "No runs recorded. Use --record or set [history] enabled = true.")
				return err
			}
			headers := []string{"Run", "Created", "K", "Mode", "Target", "Output", "Reason", "Duration", "Corpus"}
			return writeTable(out, headers, historyRows(runs), map[int]bool{2: true, 4: true, 5: true}, isTerminal(out))
		},
	}
	cmd.Flags().IntVar(&limit, "limit", 20, "number of runs to show")
	return cmd
}

func (a *app) newConfigCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Manage the config file",
	}

	var force bool
	initCmd := &cobra.Command{
		Use:   "init",
		Short: "Write the default config file",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if err := WriteDefaultConfig(a.opts.configPath, force); err != nil {
				return err
			}
			_, err := fmt.Fprintf(cmd.OutOrStdout(), "Wrote %s\n", a.opts.configPath)
			return err
		},
	}
	initCmd.Flags().BoolVar(&force, "force", false, "overwrite an existing config file")

	showCmd := &cobra.Command{
		Use:   "show",
		Short: "Print the effective configuration",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return toml.NewEncoder(cmd.OutOrStdout()).Encode(a.cfg)
		},
	}

	cmd.AddCommand(initCmd, showCmd)
	return cmd
}
