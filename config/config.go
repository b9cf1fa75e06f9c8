// Package config loads pseudonymization settings: the rule list, an
// optional target rule list for re-pseudonymization, and the traversal and
// partitioning limits.
//
// Values are layered with koanf. Defaults come first, then the YAML file,
// then environment variables prefixed with PSEUDO_:
//
//	PSEUDO_WORKERS=8
//	PSEUDO_ROWS_PER_PARTITION=5000
//	PSEUDO_MAX_TOTAL_PARTITIONS=100
package config

import (
	"context"
	"errors"
	"fmt"
	"runtime"
	"strings"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/confmap"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
	"github.com/zoobzio/capitan"
	"github.com/zoobzio/pseudo"
)

// EnvPrefix is the prefix of environment overrides.
const EnvPrefix = "PSEUDO_"

// ErrInvalidConfig indicates settings that cannot be used.
var ErrInvalidConfig = errors.New("invalid config")

// Signals for config events.
var (
	SignalConfigLoaded = capitan.NewSignal("pseudo.config.loaded", "Configuration loaded")

	KeySource = capitan.NewStringKey("source")
)

// Config holds everything needed to match and transform a document.
type Config struct {
	Rules              []pseudo.Rule `koanf:"rules"`
	TargetRules        []pseudo.Rule `koanf:"target_rules"`
	Workers            int           `koanf:"workers"`
	RowsPerPartition   int           `koanf:"rows_per_partition"`
	MaxTotalPartitions int           `koanf:"max_total_partitions"`
	Concurrency        int           `koanf:"concurrency"`
	StrictFunctions    bool          `koanf:"strict_functions"`

	// Source is the file the config was read from, if any.
	Source string `koanf:"-"`

	rules  *pseudo.RuleSet
	target *pseudo.RuleSet
}

func defaults() map[string]any {
	return map[string]any{
		"workers":              runtime.GOMAXPROCS(0),
		"rows_per_partition":   pseudo.DefaultPartitionSize,
		"max_total_partitions": pseudo.DefaultMaxPartitions,
		"concurrency":          runtime.GOMAXPROCS(0),
		"strict_functions":     true,
	}
}

// Load reads defaults, the YAML file at path (skipped when path is empty)
// and PSEUDO_ environment overrides, then validates the result and compiles
// its rules.
func Load(path string) (*Config, error) {
	cfg, err := load(path)
	emitConfigLoaded(context.Background(), path, cfg, err)
	return cfg, err
}

func load(path string) (*Config, error) {
	k := koanf.New(".")

	if err := k.Load(confmap.Provider(defaults(), "."), nil); err != nil {
		return nil, fmt.Errorf("load defaults: %w", err)
	}
	if path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("read config file %s: %w", path, err)
		}
	}
	if err := k.Load(env.Provider(EnvPrefix, ".", func(s string) string {
		return strings.ToLower(strings.TrimPrefix(s, EnvPrefix))
	}), nil); err != nil {
		return nil, fmt.Errorf("load env vars: %w", err)
	}

	var cfg Config
	if err := k.Unmarshal("", &cfg); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}
	cfg.Source = path

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks the limits, the function expressions when StrictFunctions
// is set, and compiles both rule lists.
func (c *Config) Validate() error {
	switch {
	case c.Workers < 0:
		return fmt.Errorf("%w: workers must not be negative", ErrInvalidConfig)
	case c.RowsPerPartition <= 0:
		return fmt.Errorf("%w: rows_per_partition must be positive", ErrInvalidConfig)
	case c.MaxTotalPartitions <= 0:
		return fmt.Errorf("%w: max_total_partitions must be positive", ErrInvalidConfig)
	case c.Concurrency < 0:
		return fmt.Errorf("%w: concurrency must not be negative", ErrInvalidConfig)
	}

	if c.StrictFunctions {
		for _, list := range [][]pseudo.Rule{c.Rules, c.TargetRules} {
			for i, r := range list {
				if _, err := pseudo.CheckFunction(r.Func); err != nil {
					return fmt.Errorf("%w: rule %d (%s): %w", ErrInvalidConfig, i, r.Pattern, err)
				}
			}
		}
	}

	rules, err := pseudo.NewRuleSet(c.Rules...)
	if err != nil {
		return err
	}
	target, err := pseudo.NewRuleSet(c.TargetRules...)
	if err != nil {
		return err
	}
	c.rules, c.target = rules, target
	return nil
}

// RuleSet returns the compiled rules. It is nil until Validate succeeds.
func (c *Config) RuleSet() *pseudo.RuleSet {
	return c.rules
}

// TargetRuleSet returns the compiled target rules, nil when none were
// configured or before Validate succeeds.
func (c *Config) TargetRuleSet() *pseudo.RuleSet {
	if c.target.Len() == 0 {
		return nil
	}
	return c.target
}

// TreeOptions returns the traversal options for pseudo.NewTree.
func (c *Config) TreeOptions() []pseudo.TreeOption {
	return []pseudo.TreeOption{pseudo.WithWorkers(c.Workers)}
}

// ApplyOptions returns the partitioning options for pseudo.Apply.
func (c *Config) ApplyOptions() []pseudo.ApplyOption {
	return []pseudo.ApplyOption{
		pseudo.WithPartitionSize(c.RowsPerPartition),
		pseudo.WithMaxPartitions(c.MaxTotalPartitions),
		pseudo.WithConcurrency(c.Concurrency),
	}
}

// Match matches the configured rules against doc, pairing them with the
// target rules when any are configured.
func (c *Config) Match(ctx context.Context, doc *pseudo.Document) (*pseudo.Tree, []pseudo.FieldMatch, error) {
	tree := pseudo.NewTree(doc, c.TreeOptions()...)
	var (
		matches []pseudo.FieldMatch
		err     error
	)
	if target := c.TargetRuleSet(); target != nil {
		matches, err = tree.MatchRulePair(ctx, c.RuleSet(), target)
	} else {
		matches, err = tree.MatchRules(ctx, c.RuleSet())
	}
	if err != nil {
		return nil, nil, err
	}
	return tree, matches, nil
}

func emitConfigLoaded(ctx context.Context, source string, cfg *Config, err error) {
	fields := []capitan.Field{
		KeySource.Field(source),
	}
	if cfg != nil {
		fields = append(fields, pseudo.KeyRuleCount.Field(len(cfg.Rules)))
	}
	if err != nil {
		fields = append(fields, pseudo.KeyError.Field(err))
		capitan.Error(ctx, SignalConfigLoaded, fields...)
	} else {
		capitan.Emit(ctx, SignalConfigLoaded, fields...)
	}
}
