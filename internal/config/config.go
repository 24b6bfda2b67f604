package config

import (
	"fmt"
	"net/url"
	"slices"
	"time"

	"github.com/rohmanhakim/record-finder/internal/cluster"
	"github.com/rohmanhakim/record-finder/internal/region"
	"github.com/rohmanhakim/record-finder/internal/similarity"
	"github.com/rohmanhakim/record-finder/pkg/retry"
	"github.com/rohmanhakim/record-finder/pkg/timeutil"
)

// MaxClusterEntities is the default input size above which clustering
// returns unmerged singletons.
const MaxClusterEntities = cluster.DefaultMaxEntities

// Report formats understood by the report renderers.
const (
	ReportFormatJSON     = "json"
	ReportFormatMarkdown = "markdown"
	ReportFormatHTML     = "html"
)

var reportFormats = []string{ReportFormatJSON, ReportFormatMarkdown, ReportFormatHTML}

type Config struct {
	//===============
	// Clustering
	//===============
	// Merge threshold for content node clustering.
	// Default: 0.7
	leafThreshold float64
	// Merge threshold for sibling subtree clustering.
	// Default: 0.5
	treeThreshold float64
	// Leaf-count ratio below which two regions are scored by the ratio alone.
	// Default: 0.5
	sizeRatioThreshold float64
	// Inputs larger than this are returned as singletons.
	// Default: 100
	maxClusterEntities int
	// Attribute weights of the node similarity aggregate.
	weights similarity.Weights

	//===============
	// Logging
	//===============
	// zerolog level name
	logLevel string
	// One JSON object per line instead of console output
	logJSON bool

	//===============
	// Input
	//===============
	// CSS selector of the element whose children are clustered
	containerSelector string
	// Base against which relative hrefs and srcs are resolved. May be nil,
	// in which case remote documents resolve against their own URL.
	baseURL *url.URL

	//===============
	// Fetching
	//===============
	// Documents larger than this are rejected
	// Default: 10 MiB
	maxDocumentBytes int64
	// maximum attempts for a remote document
	maxAttempts int
	// initial delay for backoff
	backoffInitialDuration time.Duration
	// multiplier during exponential backoff
	backoffMultiplier float64
	// capped maximum delay for backoff to stop exponential multiplication
	backoffMaxDuration time.Duration
	// HTTP request timeout
	timeout   time.Duration
	userAgent string
	// minimum wait between two requests to the same host
	hostDelay time.Duration
	// random extra wait added to hostDelay
	hostJitter time.Duration

	//===============
	// Output
	//===============
	// One of json, markdown, html
	reportFormat string
	// Root directory in which to store reports
	outputDir string
	// Whether the program will simulate what it would do without
	// actually writing any report
	dryRun bool
}

// WithDefault creates a new Config with default values for every field.
func WithDefault() *Config {
	defaultConfig := Config{
		leafThreshold:      region.LeafThreshold,
		treeThreshold:      region.TreeThreshold,
		sizeRatioThreshold: region.SizeRatioThreshold,
		maxClusterEntities: MaxClusterEntities,
		weights:            similarity.DefaultWeights(),
		logLevel:           "info",
		logJSON:            false,
		containerSelector:  "body",
		baseURL:            nil,

		maxDocumentBytes:       10 << 20,
		maxAttempts:            3,
		backoffInitialDuration: 100 * time.Millisecond,
		backoffMultiplier:      2.0,
		backoffMaxDuration:     10 * time.Second,
		timeout:                10 * time.Second,
		userAgent:              "record-finder/1.0",
		hostDelay:              0,
		hostJitter:             0,

		reportFormat: ReportFormatMarkdown,
		outputDir:    "output",
		dryRun:       false,
	}
	return &defaultConfig
}

func (c *Config) WithLeafThreshold(threshold float64) *Config {
	c.leafThreshold = threshold
	return c
}

func (c *Config) WithTreeThreshold(threshold float64) *Config {
	c.treeThreshold = threshold
	return c
}

func (c *Config) WithSizeRatioThreshold(threshold float64) *Config {
	c.sizeRatioThreshold = threshold
	return c
}

func (c *Config) WithMaxClusterEntities(entities int) *Config {
	c.maxClusterEntities = entities
	return c
}

func (c *Config) WithWeights(weights similarity.Weights) *Config {
	c.weights = weights
	return c
}

func (c *Config) WithLogLevel(level string) *Config {
	c.logLevel = level
	return c
}

func (c *Config) WithLogJSON(json bool) *Config {
	c.logJSON = json
	return c
}

func (c *Config) WithContainerSelector(selector string) *Config {
	c.containerSelector = selector
	return c
}

func (c *Config) WithBaseURL(base *url.URL) *Config {
	c.baseURL = base
	return c
}

func (c *Config) WithMaxDocumentBytes(size int64) *Config {
	c.maxDocumentBytes = size
	return c
}

func (c *Config) WithMaxAttempts(attempts int) *Config {
	c.maxAttempts = attempts
	return c
}

func (c *Config) WithBackoffInitialDuration(duration time.Duration) *Config {
	c.backoffInitialDuration = duration
	return c
}

func (c *Config) WithBackoffMultiplier(multiplier float64) *Config {
	c.backoffMultiplier = multiplier
	return c
}

func (c *Config) WithBackoffMaxDuration(duration time.Duration) *Config {
	c.backoffMaxDuration = duration
	return c
}

func (c *Config) WithTimeout(timeout time.Duration) *Config {
	c.timeout = timeout
	return c
}

func (c *Config) WithUserAgent(userAgent string) *Config {
	c.userAgent = userAgent
	return c
}

func (c *Config) WithHostDelay(delay time.Duration) *Config {
	c.hostDelay = delay
	return c
}

func (c *Config) WithHostJitter(jitter time.Duration) *Config {
	c.hostJitter = jitter
	return c
}

func (c *Config) WithReportFormat(format string) *Config {
	c.reportFormat = format
	return c
}

func (c *Config) WithOutputDir(outputDir string) *Config {
	c.outputDir = outputDir
	return c
}

func (c *Config) WithDryRun(dryRun bool) *Config {
	c.dryRun = dryRun
	return c
}

func (c *Config) Build() (Config, error) {
	thresholds := []struct {
		name  string
		value float64
	}{
		{"leafThreshold", c.leafThreshold},
		{"treeThreshold", c.treeThreshold},
		{"sizeRatioThreshold", c.sizeRatioThreshold},
	}
	for _, th := range thresholds {
		if th.value < 0 || th.value > 1 {
			return Config{}, fmt.Errorf("%w: %s must be within [0,1], got %v", ErrInvalidConfig, th.name, th.value)
		}
	}

	if c.maxClusterEntities < 2 {
		return Config{}, fmt.Errorf("%w: maxClusterEntities must be at least 2, got %d", ErrInvalidConfig, c.maxClusterEntities)
	}

	w := c.weights
	if w.DataType <= 0 || w.Content <= 0 || w.TagPath <= 0 || w.PresentationStyle <= 0 || w.RectangleSize <= 0 {
		return Config{}, fmt.Errorf("%w: similarity weights must be positive, got %+v", ErrInvalidConfig, w)
	}

	if c.maxDocumentBytes <= 0 {
		return Config{}, fmt.Errorf("%w: maxDocumentBytes must be positive, got %d", ErrInvalidConfig, c.maxDocumentBytes)
	}
	if c.maxAttempts < 1 {
		return Config{}, fmt.Errorf("%w: maxAttempts must be at least 1, got %d", ErrInvalidConfig, c.maxAttempts)
	}
	if c.backoffMultiplier < 1 {
		return Config{}, fmt.Errorf("%w: backoffMultiplier must be at least 1, got %v", ErrInvalidConfig, c.backoffMultiplier)
	}
	if c.backoffInitialDuration < 0 || c.backoffMaxDuration < 0 || c.hostDelay < 0 || c.hostJitter < 0 || c.timeout <= 0 {
		return Config{}, fmt.Errorf("%w: durations must not be negative and timeout must be positive", ErrInvalidConfig)
	}

	if !slices.Contains(reportFormats, c.reportFormat) {
		return Config{}, fmt.Errorf("%w: unknown report format %q", ErrInvalidConfig, c.reportFormat)
	}

	if c.containerSelector == "" {
		return Config{}, fmt.Errorf("%w: containerSelector cannot be empty", ErrInvalidConfig)
	}

	return *c, nil
}

func (c Config) LeafThreshold() float64 {
	return c.leafThreshold
}

func (c Config) TreeThreshold() float64 {
	return c.treeThreshold
}

func (c Config) SizeRatioThreshold() float64 {
	return c.sizeRatioThreshold
}

func (c Config) MaxClusterEntities() int {
	return c.maxClusterEntities
}

func (c Config) Weights() similarity.Weights {
	return c.weights
}

func (c Config) LogLevel() string {
	return c.logLevel
}

func (c Config) LogJSON() bool {
	return c.logJSON
}

func (c Config) ContainerSelector() string {
	return c.containerSelector
}

// BaseURL returns a copy of the configured base, or nil.
func (c Config) BaseURL() *url.URL {
	if c.baseURL == nil {
		return nil
	}
	u := *c.baseURL
	return &u
}

func (c Config) MaxDocumentBytes() int64 {
	return c.maxDocumentBytes
}

func (c Config) MaxAttempts() int {
	return c.maxAttempts
}

func (c Config) BackoffInitialDuration() time.Duration {
	return c.backoffInitialDuration
}

func (c Config) BackoffMultiplier() float64 {
	return c.backoffMultiplier
}

func (c Config) BackoffMaxDuration() time.Duration {
	return c.backoffMaxDuration
}

func (c Config) Timeout() time.Duration {
	return c.timeout
}

func (c Config) UserAgent() string {
	return c.userAgent
}

func (c Config) HostDelay() time.Duration {
	return c.hostDelay
}

func (c Config) HostJitter() time.Duration {
	return c.hostJitter
}

// BackoffParam is shared by request retries and per-host pacing.
func (c Config) BackoffParam() timeutil.BackoffParam {
	return timeutil.NewBackoffParam(c.backoffInitialDuration, c.backoffMultiplier, c.backoffMaxDuration)
}

// RetryParam assembles the retry policy for remote documents.
func (c Config) RetryParam() retry.RetryParam {
	return retry.NewRetryParam(c.maxAttempts, c.BackoffParam())
}

func (c Config) ReportFormat() string {
	return c.reportFormat
}

func (c Config) OutputDir() string {
	return c.outputDir
}

func (c Config) DryRun() bool {
	return c.dryRun
}
