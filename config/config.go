// Package config loads the runtime's tunables from YAML or TOML, with
// environment-variable overrides, following the teacher's
// EventBusConfig/SchedulerConfig small-struct-with-tags convention
// (modules/eventbus/config.go, modules/scheduler/config.go) minus its
// larger golobby/config feeder-chain apparatus, which belongs to the
// modular DI framework this spec explicitly excludes.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/golobby/cast"
	"gopkg.in/yaml.v3"
)

// QueueConfig mirrors queue.Config's tunables; its QueueConfig method
// (wire.go) converts it into a queue.Config.
type QueueConfig struct {
	MaxDepth int `json:"maxDepth" yaml:"maxDepth" toml:"maxDepth" env:"QUEUE_MAX_DEPTH"`
}

// ProcessConfig mirrors process.Config's tunables.
type ProcessConfig struct {
	MaxQueueDepth int    `json:"maxQueueDepth" yaml:"maxQueueDepth" toml:"maxQueueDepth" env:"PROCESS_MAX_QUEUE_DEPTH"`
	Source        string `json:"source" yaml:"source" toml:"source" env:"PROCESS_SOURCE"`
}

// BusConfig mirrors bus.Config's tunables.
type BusConfig struct {
	MaxQueueDepth    int    `json:"maxQueueDepth" yaml:"maxQueueDepth" toml:"maxQueueDepth" env:"BUS_MAX_QUEUE_DEPTH"`
	Source           string `json:"source" yaml:"source" toml:"source" env:"BUS_SOURCE"`
	AsyncWorkerCount int    `json:"asyncWorkerCount" yaml:"asyncWorkerCount" toml:"asyncWorkerCount" env:"BUS_ASYNC_WORKER_COUNT"`
}

// ProcBusConfig mirrors procbus.Config's tunables.
type ProcBusConfig struct {
	MaxQueueDepth         int           `json:"maxQueueDepth" yaml:"maxQueueDepth" toml:"maxQueueDepth" env:"PROCBUS_MAX_QUEUE_DEPTH"`
	Source                string        `json:"source" yaml:"source" toml:"source" env:"PROCBUS_SOURCE"`
	DefaultRequestTimeout time.Duration `json:"defaultRequestTimeout" yaml:"defaultRequestTimeout" toml:"defaultRequestTimeout" env:"PROCBUS_DEFAULT_REQUEST_TIMEOUT"`
}

// BatchConfig holds a default window for procbus batch/keyed-batch
// subscribers. procbus.Config has no matching field and wire.go has no
// converter for it; callers pass MinBatchInterval to NewBatchSubscriber or
// NewKeyedBatchSubscriber themselves.
type BatchConfig struct {
	MinBatchInterval time.Duration `json:"minBatchInterval" yaml:"minBatchInterval" toml:"minBatchInterval" env:"BATCH_MIN_INTERVAL"`
}

// TimerConfig mirrors timer.Config's tunables.
type TimerConfig struct {
	Source string `json:"source" yaml:"source" toml:"source" env:"TIMER_SOURCE"`
}

// RuntimeConfig aggregates every package's tunables into one loadable,
// hot-reloadable document, the way the teacher's Application aggregates
// each module's *Config under one root.
type RuntimeConfig struct {
	Queue   QueueConfig   `json:"queue" yaml:"queue" toml:"queue"`
	Process ProcessConfig `json:"process" yaml:"process" toml:"process"`
	Bus     BusConfig     `json:"bus" yaml:"bus" toml:"bus"`
	ProcBus ProcBusConfig `json:"procBus" yaml:"procBus" toml:"procBus"`
	Batch   BatchConfig   `json:"batch" yaml:"batch" toml:"batch"`
	Timer   TimerConfig   `json:"timer" yaml:"timer" toml:"timer"`
}

// Default returns a RuntimeConfig with unbounded queues, generic telemetry
// source names, and a 50ms batch window.
func Default() RuntimeConfig {
	return RuntimeConfig{
		Process: ProcessConfig{Source: "process-thread"},
		Bus:     BusConfig{Source: "message-bus", AsyncWorkerCount: 4},
		ProcBus: ProcBusConfig{Source: "process-bus", DefaultRequestTimeout: 5 * time.Second},
		Batch:   BatchConfig{MinBatchInterval: 50 * time.Millisecond},
		Timer:   TimerConfig{Source: "timer-thread"},
	}
}

// Load reads path (YAML or TOML, chosen by extension) into a RuntimeConfig
// seeded with Default(), then applies environment-variable overrides via
// ApplyEnvOverrides.
func Load(path string) (RuntimeConfig, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("config: read %s: %w", path, err)
	}

	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return cfg, fmt.Errorf("config: parse yaml %s: %w", path, err)
		}
	case ".toml":
		if err := toml.Unmarshal(data, &cfg); err != nil {
			return cfg, fmt.Errorf("config: parse toml %s: %w", path, err)
		}
	default:
		return cfg, fmt.Errorf("%w: %s", ErrUnsupportedFormat, ext)
	}

	if err := ApplyEnvOverrides(&cfg); err != nil {
		return cfg, err
	}
	return cfg, nil
}

// ApplyEnvOverrides walks cfg's fields depth-first and, for every field
// tagged env:"NAME" whose environment variable is set, casts the string
// value to the field's type via golobby/cast and assigns it - the same
// reflect-plus-cast.FromType idiom as the teacher's
// feeders.AffixedEnvFeeder.Feed (feeders/affixed_env.go), without the
// prefix/suffix machinery that feeder adds for multi-tenant config.
func ApplyEnvOverrides(cfg *RuntimeConfig) error {
	return applyEnvOverrides(reflect.ValueOf(cfg).Elem())
}

func applyEnvOverrides(rv reflect.Value) error {
	rt := rv.Type()
	for i := 0; i < rv.NumField(); i++ {
		field := rv.Field(i)
		fieldType := rt.Field(i)

		if field.Kind() == reflect.Struct {
			if err := applyEnvOverrides(field); err != nil {
				return fmt.Errorf("%s: %w", fieldType.Name, err)
			}
			continue
		}

		envName, ok := fieldType.Tag.Lookup("env")
		if !ok {
			continue
		}
		raw, present := os.LookupEnv(envName)
		if !present || raw == "" {
			continue
		}
		if field.Type() == reflect.TypeOf(time.Duration(0)) {
			d, err := time.ParseDuration(raw)
			if err != nil {
				return fmt.Errorf("config: env %s: %w", envName, err)
			}
			field.Set(reflect.ValueOf(d))
			continue
		}
		converted, err := cast.FromType(raw, field.Type())
		if err != nil {
			return fmt.Errorf("config: env %s: %w", envName, err)
		}
		if !field.CanSet() {
			continue
		}
		field.Set(reflect.ValueOf(converted))
	}
	return nil
}
