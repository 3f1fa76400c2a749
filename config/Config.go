// Package config loads the configuration of a placement run from
// defaults, an optional file and the environment
package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/mitchellh/mapstructure"
	"github.com/samuelfneumann/drlplace/agent/deepq"
	"github.com/samuelfneumann/drlplace/environment/tiered"
	"github.com/samuelfneumann/drlplace/experiment"
	"github.com/samuelfneumann/drlplace/features"
	"github.com/samuelfneumann/drlplace/initwfn"
	"github.com/samuelfneumann/drlplace/reward"
	"github.com/samuelfneumann/drlplace/solver"
	"github.com/samuelfneumann/drlplace/utils/logger"
	"github.com/spf13/viper"
)

// EnvPrefix prefixes environment variables overriding configuration
// keys, e.g. DRLPLACE_AGENT_LEARNING_RATE for agent.learning_rate
const EnvPrefix = "DRLPLACE"

// Config holds the configuration of a run
type Config struct {
	Seed uint64 `mapstructure:"seed"`

	Logging    logger.Config     `mapstructure:"logging"`
	Experiment experiment.Config `mapstructure:"experiment"`
	Host       tiered.Config     `mapstructure:"host"`
	Features   features.Config   `mapstructure:"features"`
	Reward     reward.Config     `mapstructure:"reward"`
	Agent      deepq.Config      `mapstructure:"agent"`
	Storage    StorageConfig     `mapstructure:"storage"`
	Metrics    MetricsConfig     `mapstructure:"metrics"`
}

// StorageConfig selects the checkpoint and summary store
type StorageConfig struct {
	Backend string `mapstructure:"backend"` // memory or sqlite
	Path    string `mapstructure:"path"`
}

// MetricsConfig configures the Prometheus endpoint
type MetricsConfig struct {
	// Addr to serve /metrics on, empty to disable the endpoint
	Addr string `mapstructure:"addr"`
}

// Default returns the configuration used when nothing is overridden
func Default() Config {
	return Config{
		Seed:       1,
		Logging:    logger.DefaultConfig(),
		Experiment: experiment.DefaultConfig(),
		Host:       tiered.DefaultConfig(),
		Features:   features.DefaultConfig(),
		Reward:     reward.DefaultConfig(),
		Agent:      deepq.DefaultConfig(),
		Storage:    StorageConfig{Backend: "memory"},
	}
}

// Load reads the configuration. Values are taken, in increasing
// precedence, from Default, the YAML, JSON or TOML file at path (if
// path is not empty) and DRLPLACE_ environment variables.
//
// The weight initializer and solver of the agent are given as a type
// and its configuration, e.g.
//
//	agent:
//	  init_wfn:
//	    type: HeU
//	    config:
//	      gain: 1.0
func Load(path string) (Config, error) {
	v := viper.New()
	setDefaults(v, Default())

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			var notFound viper.ConfigFileNotFoundError
			if errors.As(err, &notFound) {
				return Config{}, fmt.Errorf("config: file not found: %v", path)
			}
			return Config{}, fmt.Errorf("config: failed to read %v: %w", path,
				err)
		}
	}

	c := Default()
	hooks := mapstructure.ComposeDecodeHookFunc(
		envelopeHook,
		mapstructure.StringToTimeDurationHookFunc(),
		mapstructure.StringToSliceHookFunc(","),
	)
	if err := v.Unmarshal(&c, viper.DecodeHook(hooks)); err != nil {
		return Config{}, fmt.Errorf("config: failed to unmarshal: %w", err)
	}
	if err := c.Validate(); err != nil {
		return Config{}, err
	}
	return c, nil
}

// Validate checks every component configuration
func (c Config) Validate() error {
	for _, component := range []struct {
		name     string
		validate func() error
	}{
		{"experiment", c.Experiment.Validate},
		{"host", c.Host.Validate},
		{"features", c.Features.Validate},
		{"reward", c.Reward.Validate},
		{"agent", c.Agent.Validate},
	} {
		if err := component.validate(); err != nil {
			return fmt.Errorf("config: %v: %w", component.name, err)
		}
	}

	switch c.Storage.Backend {
	case "", "memory":
	case "sqlite":
		if c.Storage.Path == "" {
			return fmt.Errorf("config: storage: sqlite backend needs a path")
		}
	default:
		return fmt.Errorf("config: storage: unknown backend %q",
			c.Storage.Backend)
	}
	return nil
}

var (
	initWFnType = reflect.TypeOf(initwfn.InitWFn{})
	solverType  = reflect.TypeOf(solver.Solver{})
)

// envelopeHook decodes configuration maps into the types which
// unmarshal themselves from a JSON Type/Config envelope
func envelopeHook(from, to reflect.Type, data interface{}) (interface{},
	error) {
	if from.Kind() != reflect.Map {
		return data, nil
	}

	pointer := to.Kind() == reflect.Ptr
	if pointer {
		to = to.Elem()
	}

	var out json.Unmarshaler
	switch to {
	case initWFnType:
		out = &initwfn.InitWFn{}
	case solverType:
		out = &solver.Solver{}
	default:
		return data, nil
	}

	encoded, err := json.Marshal(data)
	if err != nil {
		return nil, err
	}
	if err := out.UnmarshalJSON(encoded); err != nil {
		return nil, err
	}

	if pointer {
		return out, nil
	}
	return reflect.ValueOf(out).Elem().Interface(), nil
}

// setDefaults registers every key of d with v, so that each key can be
// overridden from the environment even when no file sets it
func setDefaults(v *viper.Viper, d Config) {
	v.SetDefault("seed", d.Seed)

	v.SetDefault("logging.level", d.Logging.Level)
	v.SetDefault("logging.format", d.Logging.Format)
	v.SetDefault("logging.output", d.Logging.Output)

	v.SetDefault("experiment.max_steps", d.Experiment.MaxSteps)
	v.SetDefault("experiment.eval_steps", d.Experiment.EvalSteps)
	v.SetDefault("experiment.checkpoint_interval", d.Experiment.CheckpointInterval)
	v.SetDefault("experiment.output_dir", d.Experiment.OutputDir)

	for name, t := range map[string]tiered.TierConfig{
		"cloud":  d.Host.Cloud,
		"edge":   d.Host.Edge,
		"mobile": d.Host.Mobile,
	} {
		prefix := "host." + name + "."
		v.SetDefault(prefix+"count", t.Count)
		v.SetDefault(prefix+"mips", t.MIPS)
		v.SetDefault(prefix+"ram", t.RAM)
		v.SetDefault(prefix+"uplink_latency_ms", t.UplinkLatencyMs)
		v.SetDefault(prefix+"bandwidth_mbps", t.BandwidthMbps)
		v.SetDefault(prefix+"joules_per_mi", t.JoulesPerMI)
	}
	v.SetDefault("host.episode_length", d.Host.EpisodeLength)
	for name, r := range map[string]tiered.Range{
		"compute_units": d.Host.ComputeUnits,
		"memory_units":  d.Host.MemoryUnits,
		"input_kb":      d.Host.InputKB,
	} {
		v.SetDefault("host."+name+".min", r.Min)
		v.SetDefault("host."+name+".max", r.Max)
	}
	v.SetDefault("host.load_window_sec", d.Host.LoadWindowSec)
	v.SetDefault("host.load_decay", d.Host.LoadDecay)
	v.SetDefault("host.latency_jitter", d.Host.LatencyJitter)
	v.SetDefault("host.background_load_pct", d.Host.BackgroundLoadPct)

	v.SetDefault("features.max_utilization_pct", d.Features.MaxUtilizationPct)
	v.SetDefault("features.max_memory_pct", d.Features.MaxMemoryPct)
	v.SetDefault("features.max_latency_ms", d.Features.MaxLatencyMs)
	v.SetDefault("features.max_task_units", d.Features.MaxTaskUnits)
	v.SetDefault("features.clip_latency", d.Features.ClipLatency)

	v.SetDefault("reward.weights.latency", d.Reward.Weights.Latency)
	v.SetDefault("reward.weights.energy", d.Reward.Weights.Energy)
	v.SetDefault("reward.weights.balance", d.Reward.Weights.Balance)
	v.SetDefault("reward.weights.network", d.Reward.Weights.Network)
	v.SetDefault("reward.maxima.latency_ms", d.Reward.Maxima.LatencyMs)
	v.SetDefault("reward.maxima.energy_joules", d.Reward.Maxima.EnergyJoules)
	v.SetDefault("reward.maxima.imbalance", d.Reward.Maxima.Imbalance)
	v.SetDefault("reward.maxima.network_bytes", d.Reward.Maxima.NetworkBytes)

	v.SetDefault("agent.hidden_size", d.Agent.HiddenSize)
	v.SetDefault("agent.hidden_activation", d.Agent.HiddenActivation)
	v.SetDefault("agent.learning_rate", d.Agent.LearningRate)
	v.SetDefault("agent.gradient_clip", d.Agent.GradientClip)
	v.SetDefault("agent.discount_factor", d.Agent.Gamma)
	v.SetDefault("agent.exploration_rate", d.Agent.Epsilon)
	v.SetDefault("agent.exploration_decay", d.Agent.EpsilonDecay)
	v.SetDefault("agent.min_exploration", d.Agent.EpsilonMin)
	v.SetDefault("agent.batch_size", d.Agent.BatchSize)
	v.SetDefault("agent.target_update_interval", d.Agent.TargetUpdateInterval)
	v.SetDefault("agent.replay.capacity", d.Agent.ExpReplay.Capacity)

	v.SetDefault("storage.backend", d.Storage.Backend)
	v.SetDefault("storage.path", d.Storage.Path)
	v.SetDefault("metrics.addr", d.Metrics.Addr)
}
