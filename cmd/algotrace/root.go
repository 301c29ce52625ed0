package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/awmpietro/algotrace/internal/app"
	"github.com/awmpietro/algotrace/internal/app/cache"
	"github.com/awmpietro/algotrace/internal/config"
	"github.com/awmpietro/algotrace/internal/logging"
	"github.com/awmpietro/algotrace/internal/solver"
	"github.com/awmpietro/algotrace/internal/store"
)

var errNeedInput = errors.New("one of --input or --preset is required")

// cli carries the persistent flags and the lazily built service.
type cli struct {
	storePath string
	logLevel  string
	speed     float64

	logger *slog.Logger
	store  *store.Badger
	svc    *app.Service
}

func newRootCmd() *cobra.Command {
	rt := config.Defaults()
	if loaded, err := config.Load(); err == nil {
		rt = loaded
	}
	c := &cli{speed: rt.DefaultSpeed}

	root := &cobra.Command{
		Use:           "algotrace",
		Short:         "step-by-step traces of greedy and dynamic programming algorithms",
		SilenceUsage:  true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			c.logger = logging.New(logging.Options{Level: c.logLevel, Writer: cmd.ErrOrStderr()})
			return nil
		},
		PersistentPostRunE: func(*cobra.Command, []string) error {
			return c.close()
		},
	}
	root.PersistentFlags().StringVar(&c.storePath, "store", rt.StorePath, "badger directory for persisted traces (empty disables persistence)")
	root.PersistentFlags().StringVar(&c.logLevel, "log-level", "warn", "debug, info, warn or error")

	root.AddCommand(
		c.algorithmsCmd(),
		c.presetsCmd(),
		c.solveCmd(),
		c.compareCmd(),
		c.replayCmd(),
		c.plotCmd(),
		c.playCmd(),
		c.tracesCmd(),
	)
	return root
}

func (c *cli) service() (*app.Service, error) {
	if c.svc != nil {
		return c.svc, nil
	}
	opts := []app.Option{app.WithLogger(c.logger)}
	if c.storePath != "" {
		st, err := store.Open(store.Config{Path: c.storePath, Logger: c.logger})
		if err != nil {
			return nil, fmt.Errorf("open store %s: %w", c.storePath, err)
		}
		c.store = st
		opts = append(opts, app.WithStore(st))
	}
	c.svc = app.NewService(solver.NewRegistry(), cache.NewInMemory(16), opts...)
	return c.svc, nil
}

func (c *cli) close() error {
	if c.store == nil {
		return nil
	}
	err := c.store.Close()
	c.store = nil
	return err
}

// inputFlags is shared by every command that solves before printing.
type inputFlags struct {
	input  string
	preset string
}

func (f *inputFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVarP(&f.input, "input", "i", "", "input file (.json, .yaml or - for JSON on stdin)")
	cmd.Flags().StringVarP(&f.preset, "preset", "p", "", "named preset instead of --input")
}

// solve runs algorithm[/variant] from args on the input named by f.
func (c *cli) solve(ctx context.Context, cmd *cobra.Command, args []string, f inputFlags) (app.SolveResult, error) {
	svc, err := c.service()
	if err != nil {
		return app.SolveResult{}, err
	}
	algorithm, variant := args[0], ""
	if len(args) > 1 {
		variant = args[1]
	}

	switch {
	case f.preset != "":
		return svc.SolvePreset(ctx, algorithm, variant, f.preset)
	case f.input == "":
		return app.SolveResult{}, errNeedInput
	}

	data, doc, err := loadInput(cmd.InOrStdin(), f.input)
	if err != nil {
		return app.SolveResult{}, err
	}
	if doc != nil {
		return svc.SolveYAML(ctx, algorithm, variant, doc)
	}
	return svc.Solve(ctx, app.SolveRequest{Algorithm: algorithm, Variant: variant, Input: data})
}

// compare runs the greedy and dp variants of algorithm on the input named by f.
func (c *cli) compare(ctx context.Context, cmd *cobra.Command, algorithm string, f inputFlags) (app.Comparison, error) {
	svc, err := c.service()
	if err != nil {
		return app.Comparison{}, err
	}
	switch {
	case f.preset != "":
		return svc.ComparePreset(ctx, algorithm, f.preset)
	case f.input == "":
		return app.Comparison{}, errNeedInput
	}

	data, doc, err := loadInput(cmd.InOrStdin(), f.input)
	if err != nil {
		return app.Comparison{}, err
	}
	if doc != nil {
		return svc.CompareYAML(ctx, algorithm, doc)
	}
	return svc.Compare(ctx, algorithm, data)
}

// loadInput reads path and parses it as YAML when the extension says so.
// Otherwise the raw bytes are returned for JSON decoding.
func loadInput(stdin io.Reader, path string) ([]byte, *yaml.Node, error) {
	data, err := readInput(stdin, path)
	if err != nil {
		return nil, nil, err
	}
	ext := strings.ToLower(filepath.Ext(path))
	if ext != ".yaml" && ext != ".yml" {
		return data, nil, nil
	}
	var doc yaml.Node
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, nil, fmt.Errorf("%w: %v", solver.ErrInvalidInput, err)
	}
	return data, &doc, nil
}

func readInput(stdin io.Reader, path string) ([]byte, error) {
	if path == "-" {
		return io.ReadAll(stdin)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read input: %w", err)
	}
	return data, nil
}
