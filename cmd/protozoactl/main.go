package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"protozoa/internal/config"
	"protozoa/internal/logging"
	protoapi "protozoa/pkg/protozoa"
)

const exportsDir = "exports"

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	if err := run(ctx, os.Args[1:]); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run(ctx context.Context, args []string) error {
	root := newRootCmd(os.Stdout, os.Stderr)
	root.SetArgs(args)
	return root.ExecuteContext(ctx)
}

// globals are the persistent flags shared by every command. Flags that were
// set on the command line win over the config file.
type globals struct {
	configPath string
	store      string
	dbPath     string
	logLevel   string
	logFormat  string
	seed       int64
	ticks      int
	artifacts  string

	logOut io.Writer
}

type settings struct {
	cfg    config.Config
	logger *slog.Logger
}

func newRootCmd(out, errOut io.Writer) *cobra.Command {
	g := &globals{logOut: errOut}
	root := &cobra.Command{
		Use:           "protozoactl",
		Short:         "Run active-inference protozoa in a simulated petri dish",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.SetOut(out)
	root.SetErr(errOut)

	pf := root.PersistentFlags()
	pf.StringVar(&g.configPath, "config", "", "YAML config file")
	pf.StringVar(&g.store, "store", "", "store backend: memory|sqlite")
	pf.StringVar(&g.dbPath, "db-path", "", "sqlite database path")
	pf.StringVar(&g.logLevel, "log-level", "", "log level: debug|info|warn|error")
	pf.StringVar(&g.logFormat, "log-format", "", "log format: text|json")
	pf.Int64Var(&g.seed, "seed", 0, "organism seed")
	pf.IntVar(&g.ticks, "ticks", 0, "ticks per run")
	pf.StringVar(&g.artifacts, "artifacts-dir", "", "directory for run artifacts")

	root.AddCommand(
		newRunCmd(g),
		newSweepCmd(g),
		newRunsCmd(g),
		newExportCmd(g),
		newInspectCmd(g),
		newProfilesCmd(),
		newConfigCmd(g),
		newWatchCmd(g),
		newServeCmd(g),
	)
	return root
}

// load resolves the config file, the environment and the persistent flags
// into one validated configuration plus a logger built from it.
func (g *globals) load(cmd *cobra.Command) (settings, error) {
	cfg, err := config.Load(g.configPath)
	if err != nil {
		return settings{}, err
	}
	flags := cmd.Flags()
	if flags.Changed("store") {
		cfg.Store.Kind = g.store
	}
	if flags.Changed("db-path") {
		cfg.Store.Path = g.dbPath
	}
	if cfg.Store.Kind == "sqlite" && cfg.Store.Path == "" {
		cfg.Store.Path = "protozoa.db"
	}
	if flags.Changed("log-level") {
		cfg.Log.Level = g.logLevel
	}
	if flags.Changed("log-format") {
		cfg.Log.Format = g.logFormat
	}
	if flags.Changed("seed") {
		cfg.Run.Seed = g.seed
	}
	if flags.Changed("ticks") {
		cfg.Run.Ticks = g.ticks
	}
	if flags.Changed("artifacts-dir") {
		cfg.Artifacts.Dir = g.artifacts
	}
	if err := cfg.Validate(); err != nil {
		return settings{}, fmt.Errorf("invalid config: %w", err)
	}

	logger, err := logging.New(logging.Config{
		Level:   cfg.Log.Level,
		Format:  logging.Format(cfg.Log.Format),
		Service: "protozoactl",
		Writer:  g.logOut,
	})
	if err != nil {
		return settings{}, err
	}
	return settings{cfg: cfg, logger: logger}, nil
}

func (s settings) client() (*protoapi.Client, error) {
	return protoapi.New(protoapi.Options{
		StoreKind:    s.cfg.Store.Kind,
		DBPath:       s.cfg.Store.Path,
		ArtifactsDir: s.cfg.Artifacts.Dir,
		ExportsDir:   exportsDir,
		Logger:       s.logger,
	})
}

func (s settings) runRequest() protoapi.RunRequest {
	r := s.cfg.Run
	return protoapi.RunRequest{
		Seed:        r.Seed,
		DishSeed:    r.DishSeed,
		Ticks:       r.Ticks,
		SampleEvery: r.SampleEvery,
		Profile:     r.Profile,
		StartX:      r.StartX,
		StartY:      r.StartY,
		Width:       r.Width,
		Height:      r.Height,
	}
}
