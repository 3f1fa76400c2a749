package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/samuelfneumann/drlplace/agent/deepq"
	"github.com/samuelfneumann/drlplace/config"
	env "github.com/samuelfneumann/drlplace/environment"
	"github.com/samuelfneumann/drlplace/environment/tiered"
	"github.com/samuelfneumann/drlplace/experiment"
	"github.com/samuelfneumann/drlplace/experiment/checkpointer"
	"github.com/samuelfneumann/drlplace/experiment/tracker"
	"github.com/samuelfneumann/drlplace/features"
	"github.com/samuelfneumann/drlplace/placement"
	"github.com/samuelfneumann/drlplace/reward"
	"github.com/samuelfneumann/drlplace/storage"
	ts "github.com/samuelfneumann/drlplace/timestep"
	"github.com/samuelfneumann/drlplace/utils/logger"
	"github.com/samuelfneumann/drlplace/utils/progressbar"
	"github.com/sirupsen/logrus"
	"golang.org/x/exp/rand"
)

func main() {
	configPath := flag.String("config", "", "configuration file (yaml, json or toml)")
	seed := flag.Uint64("seed", 0, "random seed, overrides the configuration if non-zero")
	steps := flag.Int("steps", 0, "training placements, overrides the configuration if positive")
	metricsAddr := flag.String("metrics-addr", "", "address to serve Prometheus metrics on")
	progress := flag.Bool("progress", false, "draw a progress bar while training")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	if *seed != 0 {
		cfg.Seed = *seed
	}
	if *steps > 0 {
		cfg.Experiment.MaxSteps = *steps
	}
	if *metricsAddr != "" {
		cfg.Metrics.Addr = *metricsAddr
	}

	log, closer, err := logger.New(cfg.Logging)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	defer closer.Close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if err := run(ctx, cfg, *progress, log); err != nil {
		log.WithError(err).Error("run failed")
		closer.Close()
		os.Exit(1)
	}
}

// run trains the DRL policy online, then evaluates it against the
// baseline policies on identical workloads
func run(ctx context.Context, cfg config.Config, progress bool,
	log *logrus.Logger) error {
	runID := experiment.NewRunID()
	entry := log.WithField("run", runID)

	store, err := storage.NewStore(cfg.Storage.Backend, cfg.Storage.Path)
	if err != nil {
		return err
	}
	if err := store.Init(ctx); err != nil {
		return fmt.Errorf("could not initialize store: %w", err)
	}
	defer store.Close()

	// Independent streams for the training host, the agent and the
	// evaluation hosts
	rng := rand.New(rand.NewSource(cfg.Seed))
	hostSeed, agentSeed, evalSeed := rng.Uint64(), rng.Uint64(), rng.Uint64()

	host, err := tiered.New(cfg.Host, rand.NewSource(hostSeed))
	if err != nil {
		return err
	}
	encoder, err := features.NewEncoder(host.Nodes(), cfg.Features)
	if err != nil {
		return err
	}
	rewardModel, err := reward.New(cfg.Reward)
	if err != nil {
		return err
	}
	agent, err := deepq.New(encoder.Len(), len(host.Nodes()), cfg.Agent,
		rand.NewSource(agentSeed), entry)
	if err != nil {
		return err
	}
	drl, err := placement.NewDRL(agent, encoder, rewardModel, entry)
	if err != nil {
		return err
	}

	// Metrics
	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector())
	promTracker := tracker.NewPrometheus(reg)
	if cfg.Metrics.Addr != "" {
		srv := serveMetrics(cfg.Metrics.Addr, reg, entry)
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(),
				5*time.Second)
			defer cancel()
			srv.Shutdown(shutdownCtx)
		}()
	}

	var trackers []tracker.Tracker
	trainingFile := ""
	if cfg.Experiment.OutputDir != "" {
		if err := os.MkdirAll(cfg.Experiment.OutputDir, 0o755); err != nil {
			return err
		}
		out := func(name string) string {
			return filepath.Join(cfg.Experiment.OutputDir, runID+"-"+name)
		}
		trainingFile = out("training.json")
		trackers = append(trackers,
			tracker.NewReturn(out("return.bin")),
			tracker.NewEpisodeLength(out("episode-length.bin")),
		)
	}
	training := tracker.NewMetrics(drl.Name()+"-training", trainingFile)
	trackers = append(trackers, training, promTracker)
	if progress {
		bar := progressbar.New(os.Stderr, 50, cfg.Experiment.MaxSteps)
		trackers = append(trackers, tracker.NewProgress(bar, 100))
	}

	var checkpointers []checkpointer.Checkpointer
	if cfg.Experiment.CheckpointInterval > 0 {
		c, err := checkpointer.NewNStep(cfg.Experiment.CheckpointInterval,
			agent, store, runID, checkpointer.KeyEnumerator(0, runID))
		if err != nil {
			return err
		}
		checkpointers = append(checkpointers, c)
	}

	// Training
	exp, err := experiment.NewOnline(host, drl, rewardModel,
		cfg.Experiment.MaxSteps, trackers, checkpointers, entry)
	if err != nil {
		return err
	}
	entry.WithFields(logrus.Fields{
		"nodes": len(host.Nodes()),
		"steps": cfg.Experiment.MaxSteps,
		"seed":  cfg.Seed,
	}).Info("training started")
	if err := exp.Run(ctx); err != nil {
		return err
	}
	if err := exp.Save(); err != nil {
		return err
	}
	entry.WithFields(logrus.Fields{
		"episodes":  exp.Episodes(),
		"updates":   agent.Steps(),
		"epsilon":   agent.Epsilon(),
		"fallbacks": drl.Fallbacks(),
	}).Info("training finished")
	fmt.Print(training.Report())

	if cfg.Experiment.EvalSteps == 0 {
		return nil
	}

	// Evaluation on identical workloads
	policies := []placement.Policy{
		drl,
		placement.NewGreedy(),
		placement.NewTier(ts.Cloud),
		placement.NewTier(ts.Edge),
		placement.NewTier(ts.Mobile),
	}
	newHost := func() (env.Host, error) {
		return tiered.New(cfg.Host, rand.NewSource(evalSeed))
	}
	summaries, err := experiment.Evaluate(ctx, newHost, policies,
		cfg.Experiment.EvalSteps, rewardModel,
		[]tracker.Tracker{promTracker}, entry)
	if err != nil {
		return err
	}

	for _, s := range summaries {
		fmt.Print(s.Report())
		record := storage.RunSummary{
			VersionedRecord: storage.Current(),
			RunID:           runID,
			Summary:         s,
		}
		if err := store.SaveSummary(ctx, record); err != nil {
			return fmt.Errorf("could not save summary: %w", err)
		}
	}
	return nil
}

// serveMetrics serves the metrics of reg on addr until shut down
func serveMetrics(addr string, reg *prometheus.Registry,
	log logrus.FieldLogger) *http.Server {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{}))
	srv := &http.Server{Addr: addr, Handler: mux}

	go func() {
		log.WithField("addr", addr).Info("serving metrics")
		if err := srv.ListenAndServe(); err != nil &&
			!errors.Is(err, http.ErrServerClosed) {
			log.WithError(err).Error("metrics server stopped")
		}
	}()
	return srv
}
