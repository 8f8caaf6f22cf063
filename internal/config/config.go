// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

// Package config holds the settings of the asyncmsg server. Values come
// from defaults, then an optional YAML file, then explicitly set flags.
package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/spf13/pflag"
	"gopkg.in/yaml.v3"
)

const (
	DefaultAddr        = ":8080"
	DefaultMetricsAddr = ":9090"
	DefaultCapacity    = 5
	DefaultTimeout     = 30 * time.Second
	DefaultVerbosity   = 2
)

// Config is the server configuration.
type Config struct {
	Addr          string        `yaml:"addr"`
	MetricsAddr   string        `yaml:"metricsAddr"`
	Capacity      int           `yaml:"capacity"`   // message queue capacity
	Workers       int           `yaml:"workers"`    // 0 starts a goroutine per request
	QueueDepth    int           `yaml:"queueDepth"` // per-worker task queue
	Timeout       time.Duration `yaml:"timeout"`    // suspend timeout of a pending request
	PostRate      float64       `yaml:"postRate"`   // POSTs per second, 0 disables limiting
	PostBurst     int           `yaml:"postBurst"`
	ShutdownGrace time.Duration `yaml:"shutdownGrace"`
	LogVerbosity  int           `yaml:"v"`
	Development   bool          `yaml:"development"`

	// Path is the YAML file consulted by Complete. Not read from YAML.
	Path string `yaml:"-"`

	fs *pflag.FlagSet
}

// Default returns a Config initialized with default values.
func Default() *Config {
	return &Config{
		Addr:          DefaultAddr,
		MetricsAddr:   DefaultMetricsAddr,
		Capacity:      DefaultCapacity,
		QueueDepth:    64,
		Timeout:       DefaultTimeout,
		PostBurst:     1,
		ShutdownGrace: 10 * time.Second,
		LogVerbosity:  DefaultVerbosity,
	}
}

// Load reads a YAML file over the defaults. Unknown keys are rejected.
func Load(path string) (*Config, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open config: %w", err)
	}
	defer f.Close()

	cfg := Default()
	dec := yaml.NewDecoder(f)
	dec.KnownFields(true)
	if err := dec.Decode(cfg); err != nil {
		return nil, fmt.Errorf("decode config %s: %w", path, err)
	}
	return cfg, nil
}

// AddFlags binds the Config fields to command-line flags on fs.
func (c *Config) AddFlags(fs *pflag.FlagSet) {
	if fs == nil {
		fs = pflag.CommandLine
	}
	c.fs = fs

	fs.StringVar(&c.Path, "config", c.Path, "Path to a YAML config file.")
	fs.StringVar(&c.Addr, "addr", c.Addr, "Address of the message endpoint.")
	fs.StringVar(&c.MetricsAddr, "metrics-addr", c.MetricsAddr, "Address of the metrics endpoint.")
	fs.IntVar(&c.Capacity, "capacity", c.Capacity, "Capacity of the message queue.")
	fs.IntVar(&c.Workers, "workers", c.Workers, "Worker goroutines; 0 starts one goroutine per request.")
	fs.IntVar(&c.QueueDepth, "queue-depth", c.QueueDepth, "Task queue depth of each worker.")
	fs.DurationVar(&c.Timeout, "timeout", c.Timeout, "Suspend timeout of a pending request.")
	fs.Float64Var(&c.PostRate, "post-rate", c.PostRate, "Accepted POSTs per second; 0 disables limiting.")
	fs.IntVar(&c.PostBurst, "post-burst", c.PostBurst, "Burst size of the POST limiter.")
	fs.DurationVar(&c.ShutdownGrace, "shutdown-grace", c.ShutdownGrace, "Time allowed for graceful shutdown.")
	fs.IntVarP(&c.LogVerbosity, "v", "v", c.LogVerbosity, "Number for the log level verbosity.")
	fs.BoolVar(&c.Development, "development", c.Development, "Use the development log encoder.")
}

// Complete overlays the YAML file named by Path under the flags that were
// set explicitly.
func (c *Config) Complete() error {
	if c.Path == "" {
		return nil
	}
	file, err := Load(c.Path)
	if err != nil {
		return err
	}
	set := map[string]bool{}
	if c.fs != nil {
		c.fs.Visit(func(f *pflag.Flag) { set[f.Name] = true })
	}
	overlay := func(flag string, apply func()) {
		if !set[flag] {
			apply()
		}
	}
	overlay("addr", func() { c.Addr = file.Addr })
	overlay("metrics-addr", func() { c.MetricsAddr = file.MetricsAddr })
	overlay("capacity", func() { c.Capacity = file.Capacity })
	overlay("workers", func() { c.Workers = file.Workers })
	overlay("queue-depth", func() { c.QueueDepth = file.QueueDepth })
	overlay("timeout", func() { c.Timeout = file.Timeout })
	overlay("post-rate", func() { c.PostRate = file.PostRate })
	overlay("post-burst", func() { c.PostBurst = file.PostBurst })
	overlay("shutdown-grace", func() { c.ShutdownGrace = file.ShutdownGrace })
	overlay("v", func() { c.LogVerbosity = file.LogVerbosity })
	overlay("development", func() { c.Development = file.Development })
	return nil
}

// Validate checks the Config for invalid values.
func (c *Config) Validate() error {
	var errs []error
	if c.Addr == "" {
		errs = append(errs, errors.New("addr must not be empty"))
	}
	if c.Capacity <= 0 {
		errs = append(errs, fmt.Errorf("invalid capacity %d: must be positive", c.Capacity))
	}
	if c.Workers < 0 {
		errs = append(errs, fmt.Errorf("invalid workers %d: must be >= 0", c.Workers))
	}
	if c.Workers > 0 && c.QueueDepth <= 0 {
		errs = append(errs, fmt.Errorf("invalid queue-depth %d: must be positive", c.QueueDepth))
	}
	if c.Timeout <= 0 {
		errs = append(errs, fmt.Errorf("invalid timeout %s: must be positive", c.Timeout))
	}
	if c.PostRate < 0 {
		errs = append(errs, fmt.Errorf("invalid post-rate %v: must be >= 0", c.PostRate))
	}
	if c.PostRate > 0 && c.PostBurst <= 0 {
		errs = append(errs, fmt.Errorf("invalid post-burst %d: must be positive", c.PostBurst))
	}
	if c.LogVerbosity < 0 {
		errs = append(errs, fmt.Errorf("invalid value %d for flag %q: must be >= 0", c.LogVerbosity, "v"))
	}
	return errors.Join(errs...)
}
