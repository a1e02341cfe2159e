// Package profile wires pprof profiling into CLI commands: a [Config]
// registers the output-path and sampling-rate flags, and [Config.Start]
// runs one profiling session around the command body.
package profile

import (
	"fmt"
	"os"
	"runtime"
	"runtime/pprof"

	"github.com/spf13/pflag"
)

// Flags holds the CLI flag names for profiling configuration.
type Flags struct {
	CPUPath          string
	HeapPath         string
	AllocsPath       string
	GoroutinePath    string
	BlockPath        string
	MutexPath        string
	MemRate          string
	BlockRate        string
	MutexFraction    string
}

// Config holds profiling output paths and sampling rates. An empty path
// disables that profile; the zero value disables everything.
//
// Create instances with [NewConfig] and register flags with
// [Config.RegisterFlags].
type Config struct {
	Flags Flags

	CPUPath       string
	HeapPath      string
	AllocsPath    string
	GoroutinePath string
	BlockPath     string
	MutexPath     string

	MemRate       int
	BlockRate     int
	MutexFraction int
}

// NewConfig creates a [Config] with the default flag names and every
// profile disabled.
func NewConfig() *Config {
	return &Config{
		Flags: Flags{
			CPUPath:       "cpu-profile",
			HeapPath:      "heap-profile",
			AllocsPath:    "allocs-profile",
			GoroutinePath: "goroutine-profile",
			BlockPath:     "block-profile",
			MutexPath:     "mutex-profile",
			MemRate:       "mem-profile-rate",
			BlockRate:     "block-profile-rate",
			MutexFraction: "mutex-profile-fraction",
		},
	}
}

// RegisterFlags adds profiling flags to the given [*pflag.FlagSet].
func (c *Config) RegisterFlags(flags *pflag.FlagSet) {
	flags.StringVar(&c.CPUPath, c.Flags.CPUPath, "", "write CPU profile to file")
	flags.StringVar(&c.HeapPath, c.Flags.HeapPath, "", "write heap profile to file")
	flags.StringVar(&c.AllocsPath, c.Flags.AllocsPath, "", "write allocs profile to file")
	flags.StringVar(&c.GoroutinePath, c.Flags.GoroutinePath, "", "write goroutine profile to file")
	flags.StringVar(&c.BlockPath, c.Flags.BlockPath, "", "write block profile to file")
	flags.StringVar(&c.MutexPath, c.Flags.MutexPath, "", "write mutex profile to file")

	flags.IntVar(&c.MemRate, c.Flags.MemRate, 524288, "memory profile rate (bytes per sample)")
	flags.IntVar(&c.BlockRate, c.Flags.BlockRate, 1, "block profile rate (nanoseconds)")
	flags.IntVar(&c.MutexFraction, c.Flags.MutexFraction, 1, "mutex profile fraction (1/N sampling)")
}

// Enabled reports whether any profile output is configured.
func (c *Config) Enabled() bool {
	return c.CPUPath != "" || c.HeapPath != "" || c.AllocsPath != "" ||
		c.GoroutinePath != "" || c.BlockPath != "" || c.MutexPath != ""
}

// Start configures the runtime sampling rates and begins CPU profiling when
// a CPU path is set. The returned stop function ends CPU profiling and
// writes every enabled snapshot profile; it must be called exactly once.
func (c *Config) Start() (func() error, error) {
	runtime.MemProfileRate = c.MemRate
	runtime.SetBlockProfileRate(c.BlockRate)
	runtime.SetMutexProfileFraction(c.MutexFraction)

	var cpuFile *os.File

	if c.CPUPath != "" {
		f, err := os.Create(c.CPUPath)
		if err != nil {
			return nil, fmt.Errorf("creating CPU profile: %w", err)
		}

		if err := pprof.StartCPUProfile(f); err != nil {
			_ = f.Close()

			return nil, fmt.Errorf("starting CPU profile: %w", err)
		}

		cpuFile = f
	}

	stop := func() error {
		if cpuFile != nil {
			pprof.StopCPUProfile()

			if err := cpuFile.Close(); err != nil {
				return fmt.Errorf("closing CPU profile: %w", err)
			}
		}

		return c.writeSnapshots()
	}

	return stop, nil
}

func (c *Config) writeSnapshots() error {
	snapshots := []struct {
		name string
		path string
	}{
		{"heap", c.HeapPath},
		{"allocs", c.AllocsPath},
		{"goroutine", c.GoroutinePath},
		{"block", c.BlockPath},
		{"mutex", c.MutexPath},
	}

	for _, s := range snapshots {
		if s.path == "" {
			continue
		}

		if err := writeSnapshot(s.name, s.path); err != nil {
			return err
		}
	}

	return nil
}

func writeSnapshot(name, path string) error {
	prof := pprof.Lookup(name)
	if prof == nil {
		return fmt.Errorf("unknown profile: %s", name)
	}

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s profile: %w", name, err)
	}

	if err := prof.WriteTo(f, 0); err != nil {
		_ = f.Close()

		return fmt.Errorf("write %s profile: %w", name, err)
	}

	if err := f.Close(); err != nil {
		return fmt.Errorf("write %s profile: %w", name, err)
	}

	return nil
}
