package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"strings"
	"time"

	"github.com/rohmanhakim/record-finder/internal/similarity"
	"github.com/rohmanhakim/record-finder/pkg/fileutil"
	"github.com/spf13/viper"
)

// EnvPrefix prefixes environment overrides, e.g. RECORD_FINDER_LEAF_THRESHOLD.
const EnvPrefix = "RECORD_FINDER"

type weightsDTO struct {
	DataType          float64 `mapstructure:"data_type"`
	Content           float64 `mapstructure:"content"`
	TagPath           float64 `mapstructure:"tag_path"`
	PresentationStyle float64 `mapstructure:"presentation_style"`
	RectangleSize     float64 `mapstructure:"rectangle_size"`
}

type configDTO struct {
	LeafThreshold      float64    `mapstructure:"leaf_threshold"`
	TreeThreshold      float64    `mapstructure:"tree_threshold"`
	SizeRatioThreshold float64    `mapstructure:"size_ratio_threshold"`
	MaxClusterEntities int        `mapstructure:"max_cluster_entities"`
	Weights            weightsDTO `mapstructure:"weights"`
	LogLevel           string     `mapstructure:"log_level"`
	LogJSON            bool       `mapstructure:"log_json"`
	ContainerSelector  string     `mapstructure:"container_selector"`
	BaseURL            string     `mapstructure:"base_url"`

	MaxDocumentBytes       int64         `mapstructure:"max_document_bytes"`
	MaxAttempts            int           `mapstructure:"max_attempts"`
	BackoffInitialDuration time.Duration `mapstructure:"backoff_initial_duration"`
	BackoffMultiplier      float64       `mapstructure:"backoff_multiplier"`
	BackoffMaxDuration     time.Duration `mapstructure:"backoff_max_duration"`
	Timeout                time.Duration `mapstructure:"timeout"`
	UserAgent              string        `mapstructure:"user_agent"`
	HostDelay              time.Duration `mapstructure:"host_delay"`
	HostJitter             time.Duration `mapstructure:"host_jitter"`

	ReportFormat string `mapstructure:"report_format"`
	OutputDir    string `mapstructure:"output_dir"`
	DryRun       bool   `mapstructure:"dry_run"`
}

// keys lists every setting so environment overrides apply even when the
// file leaves a key out.
var keys = []string{
	"leaf_threshold",
	"tree_threshold",
	"size_ratio_threshold",
	"max_cluster_entities",
	"weights.data_type",
	"weights.content",
	"weights.tag_path",
	"weights.presentation_style",
	"weights.rectangle_size",
	"log_level",
	"log_json",
	"container_selector",
	"base_url",
	"max_document_bytes",
	"max_attempts",
	"backoff_initial_duration",
	"backoff_multiplier",
	"backoff_max_duration",
	"timeout",
	"user_agent",
	"host_delay",
	"host_jitter",
	"report_format",
	"output_dir",
	"dry_run",
}

func newConfigFromDTO(dto configDTO) (Config, error) {
	// Start with default config; only override fields with a non-zero value
	builder := WithDefault()

	if dto.LeafThreshold != 0 {
		builder.WithLeafThreshold(dto.LeafThreshold)
	}
	if dto.TreeThreshold != 0 {
		builder.WithTreeThreshold(dto.TreeThreshold)
	}
	if dto.SizeRatioThreshold != 0 {
		builder.WithSizeRatioThreshold(dto.SizeRatioThreshold)
	}
	if dto.MaxClusterEntities != 0 {
		builder.WithMaxClusterEntities(dto.MaxClusterEntities)
	}

	weights := similarity.DefaultWeights()
	if dto.Weights.DataType != 0 {
		weights.DataType = dto.Weights.DataType
	}
	if dto.Weights.Content != 0 {
		weights.Content = dto.Weights.Content
	}
	if dto.Weights.TagPath != 0 {
		weights.TagPath = dto.Weights.TagPath
	}
	if dto.Weights.PresentationStyle != 0 {
		weights.PresentationStyle = dto.Weights.PresentationStyle
	}
	if dto.Weights.RectangleSize != 0 {
		weights.RectangleSize = dto.Weights.RectangleSize
	}
	builder.WithWeights(weights)

	if dto.LogLevel != "" {
		builder.WithLogLevel(dto.LogLevel)
	}
	// bool zero value is false, so the DTO value is used as-is
	builder.WithLogJSON(dto.LogJSON)
	builder.WithDryRun(dto.DryRun)

	if dto.ContainerSelector != "" {
		builder.WithContainerSelector(dto.ContainerSelector)
	}
	if dto.BaseURL != "" {
		base, err := url.Parse(dto.BaseURL)
		if err != nil {
			return Config{}, fmt.Errorf("%w: base_url: %s", ErrInvalidConfig, err.Error())
		}
		builder.WithBaseURL(base)
	}

	if dto.MaxDocumentBytes != 0 {
		builder.WithMaxDocumentBytes(dto.MaxDocumentBytes)
	}
	if dto.MaxAttempts != 0 {
		builder.WithMaxAttempts(dto.MaxAttempts)
	}
	if dto.BackoffInitialDuration != 0 {
		builder.WithBackoffInitialDuration(dto.BackoffInitialDuration)
	}
	if dto.BackoffMultiplier != 0 {
		builder.WithBackoffMultiplier(dto.BackoffMultiplier)
	}
	if dto.BackoffMaxDuration != 0 {
		builder.WithBackoffMaxDuration(dto.BackoffMaxDuration)
	}
	if dto.Timeout != 0 {
		builder.WithTimeout(dto.Timeout)
	}
	if dto.UserAgent != "" {
		builder.WithUserAgent(dto.UserAgent)
	}
	if dto.HostDelay != 0 {
		builder.WithHostDelay(dto.HostDelay)
	}
	if dto.HostJitter != 0 {
		builder.WithHostJitter(dto.HostJitter)
	}

	if dto.ReportFormat != "" {
		builder.WithReportFormat(strings.ToLower(dto.ReportFormat))
	}
	if dto.OutputDir != "" {
		builder.WithOutputDir(dto.OutputDir)
	}

	return builder.Build()
}

func newViper() *viper.Viper {
	v := viper.New()
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	for _, key := range keys {
		// BindEnv only errors on an empty key
		_ = v.BindEnv(key)
	}
	return v
}

// WithConfigFile loads a JSON, YAML or TOML file, chosen by extension,
// and applies RECORD_FINDER_* environment overrides on top.
func WithConfigFile(path string) (Config, error) {
	if _, err := os.Stat(path); err != nil {
		return Config{}, fmt.Errorf("%w: %s", ErrFileDoesNotExist, err.Error())
	}

	switch ext := fileutil.GetFileExtension(path); ext {
	case "json", "yaml", "yml", "toml":
	default:
		return Config{}, fmt.Errorf("%w: unsupported config extension %q", ErrConfigParsingFail, ext)
	}

	v := newViper()
	v.SetConfigFile(path)
	if err := v.ReadInConfig(); err != nil {
		var parse viper.ConfigParseError
		if errors.As(err, &parse) {
			return Config{}, fmt.Errorf("%w: %s", ErrConfigParsingFail, err.Error())
		}
		return Config{}, fmt.Errorf("%w: %s", ErrReadConfigFail, err.Error())
	}

	return fromViper(v)
}

// FromEnvironment builds a Config from defaults and RECORD_FINDER_* variables only.
func FromEnvironment() (Config, error) {
	return fromViper(newViper())
}

func fromViper(v *viper.Viper) (Config, error) {
	dto := configDTO{}
	if err := v.Unmarshal(&dto); err != nil {
		return Config{}, fmt.Errorf("%w: %s", ErrConfigParsingFail, err.Error())
	}
	return newConfigFromDTO(dto)
}
