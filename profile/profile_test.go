package profile_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/unitab-io/unitab/profile"
)

func TestRegisterFlags(t *testing.T) {
	t.Parallel()

	cfg := profile.NewConfig()

	fs := pflag.NewFlagSet("test", pflag.ContinueOnError)
	cfg.RegisterFlags(fs)

	require.NoError(t, fs.Parse([]string{
		"--cpu-profile=cpu.out",
		"--heap-profile=heap.out",
		"--mem-profile-rate=1",
	}))

	assert.Equal(t, "cpu.out", cfg.CPUPath)
	assert.Equal(t, "heap.out", cfg.HeapPath)
	assert.Equal(t, 1, cfg.MemRate)
	assert.True(t, cfg.Enabled())
}

func TestEnabledZeroValue(t *testing.T) {
	t.Parallel()

	assert.False(t, profile.NewConfig().Enabled())
}

func TestStartStopWritesProfiles(t *testing.T) {
	dir := t.TempDir()

	cfg := profile.NewConfig()
	cfg.CPUPath = filepath.Join(dir, "cpu.pprof")
	cfg.HeapPath = filepath.Join(dir, "heap.pprof")
	cfg.GoroutinePath = filepath.Join(dir, "goroutine.pprof")
	cfg.MemRate = 512
	cfg.BlockRate = 1
	cfg.MutexFraction = 1

	stop, err := cfg.Start()
	require.NoError(t, err)

	// Some work so the CPU profile is not empty.
	sum := 0
	for i := range 1 << 16 {
		sum += i
	}

	_ = sum

	require.NoError(t, stop())

	for _, path := range []string{cfg.CPUPath, cfg.HeapPath, cfg.GoroutinePath} {
		info, err := os.Stat(path)
		require.NoError(t, err)
		assert.Positive(t, info.Size())
	}
}

func TestStartBadCPUPath(t *testing.T) {
	cfg := profile.NewConfig()
	cfg.CPUPath = filepath.Join(t.TempDir(), "missing", "cpu.pprof")

	_, err := cfg.Start()
	require.Error(t, err)
}
