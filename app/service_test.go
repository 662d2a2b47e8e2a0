package app

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kilianp07/feederwatch/config"
	coreadvisor "github.com/kilianp07/feederwatch/core/advisor"
	"github.com/kilianp07/feederwatch/core/factory"
	"github.com/kilianp07/feederwatch/infra/advisor"
	"github.com/kilianp07/feederwatch/infra/logger"
)

func testConfig(t *testing.T) *config.Config {
	t.Helper()
	cfg := config.Default()
	cfg.Population.Seed = 7
	cfg.Population.Customers = 50
	cfg.Detector.Seed = 11
	cfg.Tickets.Dir = t.TempDir()
	cfg.FaultLog.Path = t.TempDir() + "/fault_log.txt"
	cfg.Snapshots = factory.ModuleConfig{Type: "file", Conf: map[string]any{"dir": t.TempDir()}}
	return cfg
}

func TestDryRunCycles(t *testing.T) {
	svc, err := New(testConfig(t), Options{DryRun: true})
	require.NoError(t, err)
	defer svc.Close()

	snaps, err := svc.RunCycles(context.Background(), 3)
	require.NoError(t, err)
	require.Len(t, snaps, 3)
	for i, s := range snaps {
		assert.Equal(t, i+1, s.CycleNumber)
		assert.Equal(t, len(s.Faults), s.TotalFaults)
	}

	latest, err := svc.Dashboard.LatestData(context.Background())
	require.NoError(t, err)
	require.NotNil(t, latest)
	assert.Equal(t, 3, latest.CycleNumber)
	assert.Len(t, svc.Population.Customers(), 50)
}

func TestResumeNumbering(t *testing.T) {
	cfg := testConfig(t)
	first, err := New(cfg, Options{})
	require.NoError(t, err)
	_, err = first.RunCycles(context.Background(), 2)
	require.NoError(t, err)
	require.NoError(t, first.Close())

	cfg.Scheduler.ResumeNumbering = true
	second, err := New(cfg, Options{})
	require.NoError(t, err)
	defer second.Close()
	assert.Equal(t, 3, second.Scheduler.NextCycle())
}

func TestRunStopsAtMaxCycles(t *testing.T) {
	cfg := testConfig(t)
	cfg.Scheduler.MaxCycles = 1
	svc, err := New(cfg, Options{DryRun: true})
	require.NoError(t, err)
	defer svc.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	require.NoError(t, svc.Run(ctx))
	assert.Equal(t, 2, svc.Scheduler.NextCycle())
}

func TestSelectAdvisorWithoutKey(t *testing.T) {
	t.Setenv(advisor.EnvAPIKey, "")
	cfg := config.Default()
	cfg.Advisor.Enabled = true
	adv := selectAdvisor(cfg, logger.NopLogger{})
	_, ok := adv.(coreadvisor.NopAdvisor)
	assert.True(t, ok, "expected heuristic fallback, got %T", adv)
}

func TestListenAddr(t *testing.T) {
	assert.Equal(t, ":9090", listenAddr("9090"))
	assert.Equal(t, "127.0.0.1:9090", listenAddr("127.0.0.1:9090"))
}
