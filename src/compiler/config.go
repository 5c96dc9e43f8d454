package compiler

// Config holds compiler configuration.
type Config struct {
	// GraphName selects the graph the query compiles against. Must match a
	// graph known to the catalog store.
	GraphName string

	// Logging configures the compiler's leveled logger.
	Logging *LoggingConfig

	// Observability configures OpenTelemetry tracing and metrics.
	Observability *ObservabilityConfig

	// Cache configures the compiled-plan cache.
	Cache *CacheConfig
}

// CacheConfig controls the compiled-plan cache.
type CacheConfig struct {
	// Enabled turns plan caching on. Cached plans are shared between
	// callers and must be treated as immutable.
	Enabled bool
	// MaxSize is the maximum number of cached plans before FIFO eviction.
	MaxSize int
}

// DefaultConfig returns a configuration with silent logging, telemetry
// enabled, and the plan cache on.
func DefaultConfig(graphName string) *Config {
	return &Config{
		GraphName:     graphName,
		Logging:       DefaultLoggingConfig(),
		Observability: DefaultObservabilityConfig(),
		Cache:         &CacheConfig{Enabled: true, MaxSize: 1000},
	}
}

// normalize fills nil sections with defaults.
func (c *Config) normalize() {
	if c.Logging == nil {
		c.Logging = DefaultLoggingConfig()
	}
	if c.Observability == nil {
		c.Observability = DefaultObservabilityConfig()
	}
	if c.Cache == nil {
		c.Cache = &CacheConfig{Enabled: false, MaxSize: 1000}
	}
	if c.Cache.MaxSize <= 0 {
		c.Cache.MaxSize = 1000
	}
}
