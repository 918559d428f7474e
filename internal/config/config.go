// Package config loads and validates crawler configuration via Viper.
package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/JakeFAU/rollcall-crawler/internal/house"
	"github.com/JakeFAU/rollcall-crawler/internal/senate"
)

// Senate identity strategies.
const (
	IdentityRoster = "roster"
	IdentityGraph  = "graph"
)

// Archive providers.
const (
	ArchiveNone   = "none"
	ArchiveMemory = "memory"
	ArchiveLocal  = "local"
	ArchiveGCS    = "gcs"
)

// Config captures all configuration knobs loaded via Viper.
type Config struct {
	House    HouseConfig    `mapstructure:"house"`
	Senate   SenateConfig   `mapstructure:"senate"`
	Crawler  CrawlerConfig  `mapstructure:"crawler"`
	HTTP     HTTPConfig     `mapstructure:"http"`
	Bioguide BioguideConfig `mapstructure:"bioguide"`
	Graph    GraphConfig    `mapstructure:"graph"`
	Progress ProgressConfig `mapstructure:"progress"`
	Archive  ArchiveConfig  `mapstructure:"archive"`
	PubSub   PubSubConfig   `mapstructure:"pubsub"`
	Server   ServerConfig   `mapstructure:"server"`
	Logging  LoggingConfig  `mapstructure:"logging"`
	Tracing  TracingConfig  `mapstructure:"tracing"`
}

// HouseConfig locates the Clerk's vote archive.
type HouseConfig struct {
	BaseURL string `mapstructure:"base_url"`
	// ResumeYear is used when the graph holds no House roll call.
	ResumeYear int `mapstructure:"resume_year"`
}

// SenateConfig locates the Senate vote archive and roster.
type SenateConfig struct {
	BaseURL   string `mapstructure:"base_url"`
	RosterURL string `mapstructure:"roster_url"`
	// ResumeCongress is used when the graph holds no Senate roll call.
	ResumeCongress int `mapstructure:"resume_congress"`
	// Identity selects how vote rows find their legislator: "roster" resolves
	// against the current senator list, "graph" against stored legislators.
	Identity       string  `mapstructure:"identity"`
	MatchThreshold float64 `mapstructure:"match_threshold"`
}

// CrawlerConfig governs pacing and retries.
type CrawlerConfig struct {
	UserAgent        string `mapstructure:"user_agent"`
	DelayMs          int    `mapstructure:"delay_ms"`
	MaxRetries       int    `mapstructure:"max_retries"`
	BackoffInitialMs int    `mapstructure:"backoff_initial_ms"`
	BackoffMaxMs     int    `mapstructure:"backoff_max_ms"`
	RespectRobots    bool   `mapstructure:"respect_robots"`
	// MaxRPS caps requests per second per host, retries included; zero
	// disables the limiter.
	MaxRPS float64 `mapstructure:"max_rps"`
	Burst  int     `mapstructure:"burst"`
	// MaxConsecutiveDrops aborts a run after this many unparseable documents
	// in a row.
	MaxConsecutiveDrops int `mapstructure:"max_consecutive_drops"`
}

// HTTPConfig configures the fetch client.
type HTTPConfig struct {
	TimeoutSeconds int `mapstructure:"timeout_seconds"`
}

// BioguideConfig controls biography decoding.
type BioguideConfig struct {
	Strict bool `mapstructure:"strict"`
}

// GraphConfig selects the graph database. An empty URI uses the in-memory
// store, which only lives for one process.
type GraphConfig struct {
	URI      string `mapstructure:"uri"`
	Username string `mapstructure:"username"`
	Password string `mapstructure:"password"`
	Database string `mapstructure:"database"`
}

// ProgressConfig controls crawl-run bookkeeping. An empty DSN keeps runs in
// memory.
type ProgressConfig struct {
	DSN             string `mapstructure:"dsn"`
	Table           string `mapstructure:"table"`
	BufferSize      int    `mapstructure:"buffer_size"`
	BatchSize       int    `mapstructure:"batch_size"`
	FlushIntervalMs int    `mapstructure:"flush_interval_ms"`
}

// ArchiveConfig controls where raw documents are copied.
type ArchiveConfig struct {
	Provider  string `mapstructure:"provider"`
	BaseDir   string `mapstructure:"base_dir"`
	GCSBucket string `mapstructure:"gcs_bucket"`
	Prefix    string `mapstructure:"prefix"`
}

// PubSubConfig holds metadata for ingest notifications. An empty topic
// disables publishing.
type PubSubConfig struct {
	ProjectID string `mapstructure:"project_id"`
	TopicName string `mapstructure:"topic_name"`
}

// ServerConfig controls serve mode.
type ServerConfig struct {
	Port                  int    `mapstructure:"port"`
	APIKey                string `mapstructure:"api_key"`
	QueueCapacity         int    `mapstructure:"queue_capacity"`
	RequestTimeoutSeconds int    `mapstructure:"request_timeout_seconds"`
}

// LoggingConfig toggles zap development features.
type LoggingConfig struct {
	Development bool `mapstructure:"development"`
	// Level overrides the mode's default level when set.
	Level string `mapstructure:"level"`
}

// TracingConfig controls the OpenTelemetry tracer provider.
type TracingConfig struct {
	Enabled     bool   `mapstructure:"enabled"`
	ServiceName string `mapstructure:"service_name"`
}

// Load builds a Config from disk/environment.
func Load(path string) (Config, error) {
	v := viper.New()
	v.SetEnvPrefix("ROLLCALL")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return Config{}, fmt.Errorf("read config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("unmarshal config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}

	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("house.base_url", house.DefaultBaseURL)
	v.SetDefault("house.resume_year", 2025)
	v.SetDefault("senate.base_url", senate.DefaultBaseURL)
	v.SetDefault("senate.roster_url", senate.DefaultRosterURL)
	v.SetDefault("senate.resume_congress", 119)
	v.SetDefault("senate.identity", IdentityRoster)
	v.SetDefault("senate.match_threshold", 0)
	v.SetDefault("crawler.user_agent", "rollcall-crawler/0.1")
	v.SetDefault("crawler.delay_ms", 400)
	v.SetDefault("crawler.max_retries", 3)
	v.SetDefault("crawler.backoff_initial_ms", 500)
	v.SetDefault("crawler.backoff_max_ms", 10000)
	v.SetDefault("crawler.respect_robots", false)
	v.SetDefault("crawler.max_rps", 5)
	v.SetDefault("crawler.burst", 2)
	v.SetDefault("crawler.max_consecutive_drops", 10)
	v.SetDefault("http.timeout_seconds", 30)
	v.SetDefault("bioguide.strict", false)
	v.SetDefault("graph.uri", "neo4j://localhost:7687")
	v.SetDefault("graph.username", "neo4j")
	v.SetDefault("graph.password", "")
	v.SetDefault("graph.database", "neo4j")
	v.SetDefault("progress.dsn", "")
	v.SetDefault("progress.table", "crawl_runs")
	v.SetDefault("progress.buffer_size", 1024)
	v.SetDefault("progress.batch_size", 64)
	v.SetDefault("progress.flush_interval_ms", 500)
	v.SetDefault("archive.provider", ArchiveNone)
	v.SetDefault("archive.base_dir", "archive")
	v.SetDefault("archive.prefix", "raw")
	v.SetDefault("pubsub.project_id", "")
	v.SetDefault("pubsub.topic_name", "")
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.queue_capacity", 16)
	v.SetDefault("server.request_timeout_seconds", 60)
	v.SetDefault("logging.development", true)
	v.SetDefault("logging.level", "")
	v.SetDefault("tracing.enabled", false)
	v.SetDefault("tracing.service_name", "rollcall-crawler")
}

// Validate enforces required values and reasonable limits.
func (c Config) Validate() error {
	var errs []error
	if c.House.ResumeYear < 1990 {
		errs = append(errs, errors.New("house.resume_year must be 1990 or later"))
	}
	if c.Senate.ResumeCongress < 1 {
		errs = append(errs, errors.New("senate.resume_congress must be > 0"))
	}
	switch c.Senate.Identity {
	case IdentityRoster, IdentityGraph:
	default:
		errs = append(errs, fmt.Errorf("senate.identity must be %q or %q", IdentityRoster, IdentityGraph))
	}
	if c.Senate.MatchThreshold < 0 || c.Senate.MatchThreshold > 1 {
		errs = append(errs, errors.New("senate.match_threshold must be within [0, 1]"))
	}
	if c.Crawler.DelayMs < 0 {
		errs = append(errs, errors.New("crawler.delay_ms must be >= 0"))
	}
	if c.Crawler.MaxRetries < 0 {
		errs = append(errs, errors.New("crawler.max_retries must be >= 0"))
	}
	if c.Crawler.MaxRPS < 0 {
		errs = append(errs, errors.New("crawler.max_rps must be >= 0"))
	}
	if c.Crawler.MaxConsecutiveDrops < 0 {
		errs = append(errs, errors.New("crawler.max_consecutive_drops must be >= 0"))
	}
	if c.HTTP.TimeoutSeconds <= 0 {
		errs = append(errs, errors.New("http.timeout_seconds must be > 0"))
	}
	switch c.Archive.Provider {
	case ArchiveNone, ArchiveMemory:
	case ArchiveLocal:
		if c.Archive.BaseDir == "" {
			errs = append(errs, errors.New("archive.base_dir must be set for the local provider"))
		}
	case ArchiveGCS:
		if c.Archive.GCSBucket == "" {
			errs = append(errs, errors.New("archive.gcs_bucket must be set for the gcs provider"))
		}
	default:
		errs = append(errs, fmt.Errorf("archive.provider %q is not supported", c.Archive.Provider))
	}
	if c.PubSub.TopicName != "" && c.PubSub.ProjectID == "" {
		errs = append(errs, errors.New("pubsub.project_id must be set when pubsub.topic_name is"))
	}
	if c.Server.Port <= 0 {
		errs = append(errs, errors.New("server.port must be > 0"))
	}
	if c.Server.QueueCapacity <= 0 {
		errs = append(errs, errors.New("server.queue_capacity must be > 0"))
	}
	return errors.Join(errs...)
}

// Delay is the politeness delay between documents.
func (c CrawlerConfig) Delay() time.Duration {
	return time.Duration(c.DelayMs) * time.Millisecond
}

// BackoffInitial is the first retry wait.
func (c CrawlerConfig) BackoffInitial() time.Duration {
	return time.Duration(c.BackoffInitialMs) * time.Millisecond
}

// BackoffMax caps the retry wait.
func (c CrawlerConfig) BackoffMax() time.Duration {
	return time.Duration(c.BackoffMaxMs) * time.Millisecond
}

// Timeout is the per-request fetch timeout.
func (c HTTPConfig) Timeout() time.Duration {
	return time.Duration(c.TimeoutSeconds) * time.Second
}

// FlushInterval is the progress hub flush period.
func (c ProgressConfig) FlushInterval() time.Duration {
	return time.Duration(c.FlushIntervalMs) * time.Millisecond
}

// RequestTimeout bounds admin API handlers.
func (c ServerConfig) RequestTimeout() time.Duration {
	return time.Duration(c.RequestTimeoutSeconds) * time.Second
}
