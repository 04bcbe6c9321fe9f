// Package daemonrun wires configuration, the backlog store, the host
// framework, and registered jobs into the long-running gristd process.
package daemonrun

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/gofrs/flock"

	"grist/internal/batch"
	"grist/internal/config"
	"grist/internal/host"
	"grist/internal/logging"
	"grist/internal/processors"
	"grist/internal/queue"
	"grist/internal/quota"
)

// Options configures daemon process runtime behavior.
type Options struct {
	LogLevel string
}

// Run starts the grist daemon and blocks until ctx is canceled.
func Run(ctx context.Context, cfg *config.Config, opts Options) error {
	if cfg == nil {
		return fmt.Errorf("config is required")
	}
	if err := cfg.EnsureDirectories(); err != nil {
		return err
	}

	level := cfg.Logging.Level
	if opts.LogLevel != "" {
		level = opts.LogLevel
	}
	logger, err := logging.New(logging.Options{
		Level:            level,
		Format:           cfg.Logging.Format,
		OutputPaths:      []string{"stdout", filepath.Join(cfg.Paths.LogDir, "grist.log")},
		ErrorOutputPaths: []string{"stderr", filepath.Join(cfg.Paths.LogDir, "grist.log")},
	})
	if err != nil {
		return fmt.Errorf("init logger: %w", err)
	}

	lock := flock.New(filepath.Join(cfg.Paths.DataDir, "gristd.lock"))
	locked, err := lock.TryLock()
	if err != nil {
		return fmt.Errorf("acquire daemon lock: %w", err)
	}
	if !locked {
		return fmt.Errorf("another gristd instance already holds %s", lock.Path())
	}
	defer lock.Unlock() //nolint:errcheck

	pidPath := filepath.Join(cfg.Paths.DataDir, "gristd.pid")
	if err := writePIDFile(pidPath); err != nil {
		return fmt.Errorf("write pid file: %w", err)
	}
	defer os.Remove(pidPath)

	store, err := queue.Open(cfg)
	if err != nil {
		logger.Error("open backlog store", logging.Error(err))
		return err
	}
	defer store.Close()

	if health, err := store.CheckHealth(ctx); err != nil {
		logger.Warn("backlog health check failed",
			logging.Error(err),
			logging.String(logging.FieldErrorHint, "check data directory permissions"),
		)
	} else {
		logger.Info("backlog store ready",
			logging.String("db_path", health.DBPath),
			logging.Int("items", health.TotalItems),
		)
	}

	runner := host.NewRunner(quota.Limits{
		MaxQueries:      cfg.Quota.MaxQueries,
		MaxQueryRows:    cfg.Quota.MaxQueryRows,
		MaxMutationRows: cfg.Quota.MaxMutationRows,
	}, logger)
	scheduler := host.NewScheduler(ctx, runner, logger)
	defer scheduler.Stop()

	registry := batch.NewRegistry()
	started, err := startConfiguredJobs(cfg, store, scheduler, registry, logger)
	if err != nil {
		return err
	}
	if started == 0 {
		logger.Warn("no jobs configured, daemon will idle",
			logging.String(logging.FieldErrorHint, "add [jobs.NAME] blocks to the config"),
		)
	}

	logger.Info("grist daemon started", logging.Int("jobs", started))
	<-ctx.Done()
	logger.Info("grist daemon shutting down")
	return nil
}

func startConfiguredJobs(cfg *config.Config, store *queue.Store, scheduler *host.Scheduler, registry *batch.Registry, logger *slog.Logger) (int, error) {
	started := 0
	for name, jobCfg := range cfg.Jobs {
		factory, ok := processors.Lookup(jobCfg.Processor, logger)
		if !ok {
			return started, fmt.Errorf("job %q: unknown processor %q", name, jobCfg.Processor)
		}
		if err := registry.Register(name, factory); err != nil {
			return started, err
		}

		def, err := buildDefinition(cfg, name, jobCfg)
		if err != nil {
			return started, err
		}

		gen, err := batch.NewGeneration(def, factory(), batch.Deps{
			Store:     store,
			Scheduler: scheduler,
			Registry:  registry,
			Logger:    logger,
			Retention: time.Duration(cfg.Batch.RetentionDays) * 24 * time.Hour,
		})
		if err != nil {
			return started, fmt.Errorf("job %q: %w", name, err)
		}

		initialDelay := time.Second
		if jobCfg.InitialDelaySecs != nil {
			initialDelay = time.Duration(*jobCfg.InitialDelaySecs) * time.Second
		}
		scheduler.Schedule(gen, def.ScheduledName(factory()), initialDelay, gen.ScopeSize())
		started++
	}
	return started, nil
}

func buildDefinition(cfg *config.Config, name string, jobCfg config.Job) (batch.Definition, error) {
	def, err := batch.NewDefinition(name)
	if err != nil {
		return batch.Definition{}, err
	}
	if jobCfg.RunForever != nil {
		if err := def.SetRunForever(jobCfg.RunForever); err != nil {
			return batch.Definition{}, err
		}
	}
	if jobCfg.ScopeSize != nil {
		if err := def.SetScopeSize(jobCfg.ScopeSize); err != nil {
			return batch.Definition{}, err
		}
	}
	if jobCfg.DelaySeconds != nil {
		if err := def.SetDelayBeforeNextRun(jobCfg.DelaySeconds); err != nil {
			return batch.Definition{}, err
		}
	}

	windowSeconds := cfg.Batch.EligibilityWindowSeconds
	if jobCfg.EligibilityWait != nil {
		windowSeconds = *jobCfg.EligibilityWait
	}
	def.SetEligibilityWindow(time.Duration(windowSeconds) * time.Second)

	if jobCfg.ScheduledName != "" {
		def.SetScheduledName(jobCfg.ScheduledName)
	}
	return def, nil
}

func writePIDFile(path string) error {
	if path == "" {
		return nil
	}
	value := strconv.Itoa(os.Getpid()) + "\n"
	return os.WriteFile(path, []byte(value), 0o644)
}
