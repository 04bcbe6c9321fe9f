package daemonrun

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"grist/internal/config"
	"grist/internal/testsupport"
)

func TestBuildDefinitionAppliesJobConfig(t *testing.T) {
	cfg := testsupport.NewConfig(t)

	scope := 40
	delay := 120
	forever := false
	wait := 9
	jobCfg := config.Job{
		Processor:       "touch",
		ScopeSize:       &scope,
		DelaySeconds:    &delay,
		RunForever:      &forever,
		EligibilityWait: &wait,
		ScheduledName:   "refresh-nightly",
	}

	def, err := buildDefinition(cfg, "refresh", jobCfg)
	if err != nil {
		t.Fatalf("buildDefinition: %v", err)
	}
	if def.ScopeSize() != 40 {
		t.Errorf("ScopeSize = %d, want 40", def.ScopeSize())
	}
	if def.DelayBeforeNextRun() != 120 {
		t.Errorf("DelayBeforeNextRun = %d, want 120", def.DelayBeforeNextRun())
	}
	if def.RunForever() {
		t.Error("RunForever should be false")
	}
	if def.EligibilityWindow() != 9*time.Second {
		t.Errorf("EligibilityWindow = %v, want 9s", def.EligibilityWindow())
	}
}

func TestBuildDefinitionDefaults(t *testing.T) {
	cfg := testsupport.NewConfig(t)

	def, err := buildDefinition(cfg, "refresh", config.Job{Processor: "touch"})
	if err != nil {
		t.Fatalf("buildDefinition: %v", err)
	}
	if def.ScopeSize() != 100 || def.DelayBeforeNextRun() != 60 || !def.RunForever() {
		t.Errorf("unset fields must keep defaults: %+v", def)
	}

	// The daemon-wide window applies when the job does not override it.
	want := time.Duration(cfg.Batch.EligibilityWindowSeconds) * time.Second
	if def.EligibilityWindow() != want {
		t.Errorf("EligibilityWindow = %v, want %v", def.EligibilityWindow(), want)
	}
}

func TestRunStartsAndStops(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	cfg.Jobs = map[string]config.Job{
		"refresh": {Processor: "touch"},
	}

	ctx, cancel := context.WithCancel(context.Background())
	errCh := make(chan error, 1)
	go func() {
		errCh <- Run(ctx, cfg, Options{LogLevel: "error"})
	}()

	pidPath := filepath.Join(cfg.Paths.DataDir, "gristd.pid")
	deadline := time.Now().Add(5 * time.Second)
	for {
		if _, err := os.Stat(pidPath); err == nil {
			break
		}
		if time.Now().After(deadline) {
			cancel()
			t.Fatal("pid file never appeared")
		}
		time.Sleep(10 * time.Millisecond)
	}

	cancel()
	select {
	case err := <-errCh:
		if err != nil {
			t.Fatalf("Run: %v", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("daemon did not shut down")
	}

	if _, err := os.Stat(pidPath); !os.IsNotExist(err) {
		t.Error("pid file should be removed on shutdown")
	}
}

func TestRunRejectsUnknownProcessor(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	cfg.Jobs = map[string]config.Job{
		"refresh": {Processor: "teleport"},
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	if err := Run(ctx, cfg, Options{}); err == nil {
		t.Error("Run should fail for an unknown processor kind")
	}
}
