package main

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"protozoa/internal/config"
	"protozoa/internal/logging"
	"protozoa/internal/morphology"
	"protozoa/internal/platform"
	"protozoa/internal/server"
	"protozoa/internal/storage"
	"protozoa/internal/telemetry"
	"protozoa/internal/ui"
	protoapi "protozoa/pkg/protozoa"
)

func newRunCmd(g *globals) *cobra.Command {
	var (
		profile     string
		sampleEvery int
		dishSeed    int64
	)
	cmd := &cobra.Command{
		Use:   "run",
		Short: "Run one organism to completion and record it",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			s, err := g.load(cmd)
			if err != nil {
				return err
			}
			req := s.runRequest()
			if cmd.Flags().Changed("profile") {
				req.Profile = profile
			}
			if cmd.Flags().Changed("sample-every") {
				req.SampleEvery = sampleEvery
			}
			if cmd.Flags().Changed("dish-seed") {
				req.DishSeed = dishSeed
			}

			client, err := s.client()
			if err != nil {
				return err
			}
			defer client.Close()

			summary, err := client.Run(cmd.Context(), req)
			if err != nil {
				return err
			}
			printRunSummary(cmd.OutOrStdout(), summary)
			return nil
		},
	}
	cmd.Flags().StringVar(&profile, "profile", morphology.DefaultProfile, "starting morphology profile")
	cmd.Flags().IntVar(&sampleEvery, "sample-every", 10, "record a sample every N ticks")
	cmd.Flags().Int64Var(&dishSeed, "dish-seed", 0, "nutrient field seed (0 derives it from --seed)")
	return cmd
}

func newSweepCmd(g *globals) *cobra.Command {
	var seeds, workers int
	cmd := &cobra.Command{
		Use:   "sweep",
		Short: "Run the same configuration under consecutive seeds",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			s, err := g.load(cmd)
			if err != nil {
				return err
			}
			if !cmd.Flags().Changed("seeds") {
				seeds = s.cfg.Sweep.Seeds
			}
			if !cmd.Flags().Changed("workers") {
				workers = s.cfg.Sweep.Workers
			}

			client, err := s.client()
			if err != nil {
				return err
			}
			defer client.Close()

			result, err := client.Sweep(cmd.Context(), protoapi.SweepRequest{
				Base:    s.runRequest(),
				Seeds:   seeds,
				Workers: workers,
			})
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "sweep_id=%s runs=%d\n", result.SweepID, len(result.Runs))
			var energy float64
			survivors := 0
			for _, run := range result.Runs {
				fmt.Fprintf(out, "seed=%d run_id=%s final_energy=%.4f landmarks=%d morphogenesis=%d allostasis=%d\n",
					run.Seed, run.RunID, run.FinalEnergy, run.Landmarks, run.Morphogenesis, run.Allostasis)
				energy += run.FinalEnergy
				if run.FinalEnergy > 0 {
					survivors++
				}
			}
			if len(result.Runs) > 0 {
				fmt.Fprintf(out, "mean_final_energy=%.4f survivors=%d/%d\n", energy/float64(len(result.Runs)), survivors, len(result.Runs))
			}
			return nil
		},
	}
	cmd.Flags().IntVar(&seeds, "seeds", 8, "number of consecutive seeds")
	cmd.Flags().IntVar(&workers, "workers", 4, "runs in flight at once")
	return cmd
}

func newRunsCmd(g *globals) *cobra.Command {
	var limit int
	cmd := &cobra.Command{
		Use:   "runs",
		Short: "List recorded runs, newest first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			s, err := g.load(cmd)
			if err != nil {
				return err
			}
			client, err := s.client()
			if err != nil {
				return err
			}
			defer client.Close()

			items, err := client.Runs(cmd.Context(), protoapi.RunsRequest{Limit: limit})
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			if len(items) == 0 {
				fmt.Fprintln(out, "no runs")
				return nil
			}
			for _, item := range items {
				fmt.Fprintf(out, "run_id=%s status=%s created_at=%s seed=%d profile=%s ticks=%d final_energy=%.4f landmarks=%d\n",
					item.RunID, item.Status, item.CreatedAtUTC, item.Seed, item.Profile, item.Ticks, item.FinalEnergy, item.Landmarks)
			}
			return nil
		},
	}
	cmd.Flags().IntVar(&limit, "limit", 20, "maximum runs to list")
	return cmd
}

func newExportCmd(g *globals) *cobra.Command {
	var (
		runID  string
		latest bool
		outDir string
	)
	cmd := &cobra.Command{
		Use:   "export",
		Short: "Copy the artifacts of one run into an export directory",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			s, err := g.load(cmd)
			if err != nil {
				return err
			}
			client, err := s.client()
			if err != nil {
				return err
			}
			defer client.Close()

			exported, err := client.Export(cmd.Context(), protoapi.ExportRequest{RunID: runID, Latest: latest, OutDir: outDir})
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "exported run_id=%s dir=%s\n", exported.RunID, exported.Directory)
			return nil
		},
	}
	cmd.Flags().StringVar(&runID, "run-id", "", "run to export")
	cmd.Flags().BoolVar(&latest, "latest", false, "export the most recent run")
	cmd.Flags().StringVar(&outDir, "out", exportsDir, "export directory")
	return cmd
}

func newInspectCmd(g *globals) *cobra.Command {
	var (
		runID  string
		latest bool
		tail   int
	)
	cmd := &cobra.Command{
		Use:   "inspect",
		Short: "Show the summary and last samples of one run",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			s, err := g.load(cmd)
			if err != nil {
				return err
			}
			client, err := s.client()
			if err != nil {
				return err
			}
			defer client.Close()

			detail, err := client.Inspect(cmd.Context(), protoapi.InspectRequest{RunID: runID, Latest: latest})
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			printRunSummary(out, detail.RunSummary)
			fmt.Fprintf(out, "source=%s samples=%d regulations=%d\n", detail.Source, len(detail.Samples), len(detail.Regulations))
			samples := detail.Samples
			if tail >= 0 && len(samples) > tail {
				samples = samples[len(samples)-tail:]
			}
			for _, sample := range samples {
				fmt.Fprintf(out, "tick=%d x=%.2f y=%.2f energy=%.4f vfe=%.4f mode=%s\n",
					sample.Tick, sample.X, sample.Y, sample.Energy, sample.FreeEnergy, sample.Mode)
			}
			for _, reg := range detail.Regulations {
				fmt.Fprintf(out, "regulation tick=%d kind=%s signal=%.3f cost=%.4f\n", reg.Tick, reg.Kind, reg.Signal, reg.Cost)
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&runID, "run-id", "", "run to inspect")
	cmd.Flags().BoolVar(&latest, "latest", false, "inspect the most recent run")
	cmd.Flags().IntVar(&tail, "tail", 5, "samples to show from the end (-1 for all)")
	return cmd
}

func newProfilesCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "profiles",
		Short: "List the starting morphology profiles",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			out := cmd.OutOrStdout()
			for _, name := range morphology.ProfileNames() {
				m, err := morphology.Profile(name)
				if err != nil {
					return err
				}
				fmt.Fprintf(out, "%s sensor_dist=%.2f sensor_angle=%.2f learning_rate=%.2f target=%.2f\n",
					name, m.SensorDist, m.SensorAngle, m.BeliefLearningRate, m.TargetConcentration)
			}
			return nil
		},
	}
}

func newConfigCmd(g *globals) *cobra.Command {
	return &cobra.Command{
		Use:   "config",
		Short: "Print the effective configuration as YAML",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			s, err := g.load(cmd)
			if err != nil {
				return err
			}
			data, err := config.Marshal(s.cfg)
			if err != nil {
				return err
			}
			_, err = cmd.OutOrStdout().Write(data)
			return err
		},
	}
}

func newWatchCmd(g *globals) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "watch",
		Short: "Watch one organism live in the terminal",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			s, err := g.load(cmd)
			if err != nil {
				return err
			}
			// the dashboard owns the terminal, so the runner stays quiet
			runner, err := platform.NewRunner(platform.RunConfigFrom(s.cfg.Run), nil, logging.Discard())
			if err != nil {
				return err
			}
			final, err := ui.Run(cmd.Context(), runner, s.cfg.Run.TickInterval)
			if err != nil && !errors.Is(err, context.Canceled) {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "tick=%d energy=%.4f landmarks=%d mode=%s\n",
				final.Tick, final.Energy, len(final.Landmarks), final.Mode)
			return nil
		},
	}
	return cmd
}

func newServeCmd(g *globals) *cobra.Command {
	var addr string
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run organisms back to back and serve them over HTTP",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			s, err := g.load(cmd)
			if err != nil {
				return err
			}
			if cmd.Flags().Changed("addr") {
				s.cfg.Serve.Addr = addr
			}
			return serve(cmd.Context(), cmd.OutOrStdout(), s)
		},
	}
	cmd.Flags().StringVar(&addr, "addr", "", "listen address (overrides serve.addr)")
	return cmd
}

// serve keeps two supervised children alive until ctx is done: the HTTP
// listener and a simulation loop that starts a fresh run, under the next
// seed, whenever the previous one finishes.
func serve(ctx context.Context, out io.Writer, s settings) error {
	store, err := storage.NewStore(s.cfg.Store.Kind, s.cfg.Store.Path)
	if err != nil {
		return err
	}
	defer func() {
		_ = storage.CloseIfSupported(store)
	}()

	polis := platform.NewPolis(platform.Config{
		Store:        store,
		Metrics:      telemetry.New(),
		Logger:       s.logger,
		ArtifactsDir: s.cfg.Artifacts.Dir,
	})
	if err := polis.Init(ctx); err != nil {
		return err
	}
	defer polis.Shutdown()

	sup := platform.NewSupervisor(platform.SupervisorPolicy{}, s.logger)
	srv := server.New(polis, server.WithSupervisor(sup), server.WithLogger(s.logger))

	if err := sup.Start(ctx, platform.ChildSpec{Name: "http", Restart: platform.RestartTransient}, func(ctx context.Context) error {
		return srv.Run(ctx, s.cfg.Serve.Addr)
	}); err != nil {
		return err
	}

	base := platform.RunConfigFrom(s.cfg.Run)
	seed := base.Seed
	if err := sup.Start(ctx, platform.ChildSpec{Name: "sim", Restart: platform.RestartPermanent}, func(ctx context.Context) error {
		for ctx.Err() == nil {
			run := base
			run.RunID = uuid.NewString()
			run.Seed = seed
			srv.SetLiveRun(run.RunID)
			if _, err := polis.RunSimulation(ctx, run); err != nil {
				if ctx.Err() != nil {
					return nil
				}
				return err
			}
			seed++
		}
		return nil
	}); err != nil {
		return err
	}
	fmt.Fprintf(out, "serving addr=%s store=%s\n", s.cfg.Serve.Addr, s.cfg.Store.Kind)

	<-ctx.Done()
	sup.StopAll()
	s.logger.Info("serve stopped")
	return nil
}

func printRunSummary(out io.Writer, s protoapi.RunSummary) {
	fmt.Fprintf(out, "run_id=%s status=%s seed=%d ticks=%d\n", s.RunID, s.Status, s.Seed, s.Ticks)
	fmt.Fprintf(out, "final_energy=%.4f min_energy=%.4f mean_free_energy=%.4f\n", s.FinalEnergy, s.MinEnergy, s.MeanFreeEnergy)
	fmt.Fprintf(out, "position=(%.2f, %.2f) landmarks=%d morphogenesis=%d allostasis=%d\n", s.FinalX, s.FinalY, s.Landmarks, s.Morphogenesis, s.Allostasis)
	fmt.Fprintf(out, "morphology sensor_dist=%.3f sensor_angle=%.3f learning_rate=%.3f target=%.3f\n",
		s.Morphology.SensorDist, s.Morphology.SensorAngle, s.Morphology.BeliefLearningRate, s.Morphology.TargetConcentration)
	if s.ArtifactsDir != "" {
		fmt.Fprintf(out, "artifacts=%s\n", s.ArtifactsDir)
	}
}
