package cmd

import (
	"context"
	"fmt"
	"io"
	"net/url"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/rohmanhakim/record-finder/internal/build"
	"github.com/rohmanhakim/record-finder/internal/config"
	"github.com/spf13/cobra"
)

var (
	cfgFile            string
	leafThreshold      float64
	treeThreshold      float64
	sizeRatioThreshold float64
	maxClusterEntities int
	logLevel           string
	logJSON            bool
	containerSelector  string
	baseURL            string
	reportFormat       string
	outputDir          string
	dryRun             bool
	maxDocumentBytes   int64
	maxAttempts        int
	timeout            time.Duration
	userAgent          string
	hostDelay          time.Duration
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "record-finder",
	Short: "Find repeated record-like regions in HTML documents.",
	Long: `record-finder scores how alike the fragments of an HTML document are
and groups them with average-link clustering, so that repeated regions
such as product cards, search results or table rows stand out.

Text, links, images and form widgets are compared by content, tag path,
presentation style and size. Sibling subtrees are compared by how well
their leaves cluster together.`,
	Version:       build.FullVersion(),
	SilenceUsage:  true,
	SilenceErrors: true,
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %s\n", err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config-file", "", "config file path (json, yaml or toml)")
	rootCmd.PersistentFlags().Float64Var(&leafThreshold, "leaf-threshold", 0, "merge threshold for content node clustering (default 0.7)")
	rootCmd.PersistentFlags().Float64Var(&treeThreshold, "tree-threshold", 0, "merge threshold for sibling subtree clustering (default 0.5)")
	rootCmd.PersistentFlags().Float64Var(&sizeRatioThreshold, "size-ratio-threshold", 0, "leaf-count ratio below which regions are scored by the ratio alone (default 0.5)")
	rootCmd.PersistentFlags().IntVar(&maxClusterEntities, "max-cluster-entities", 0, "inputs larger than this stay unclustered (default 100)")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "log level: debug, info, warn, error (default info)")
	rootCmd.PersistentFlags().BoolVar(&logJSON, "log-json", false, "write logs as JSON lines")
	rootCmd.PersistentFlags().StringVar(&containerSelector, "container", "", "CSS selector of the element to analyse (default body)")
	rootCmd.PersistentFlags().StringVar(&baseURL, "base-url", "", "base URL for resolving relative links and images")
	rootCmd.PersistentFlags().StringVar(&reportFormat, "format", "", "report format: json, markdown, html (default markdown)")
	rootCmd.PersistentFlags().StringVar(&outputDir, "output-dir", "", "directory for written reports (default output)")
	rootCmd.PersistentFlags().BoolVar(&dryRun, "dry-run", false, "compute reports without writing them")
	rootCmd.PersistentFlags().Int64Var(&maxDocumentBytes, "max-document-bytes", 0, "largest document read (default 10 MiB)")
	rootCmd.PersistentFlags().IntVar(&maxAttempts, "max-attempts", 0, "attempts per remote document (default 3)")
	rootCmd.PersistentFlags().DurationVar(&timeout, "timeout", 0, "timeout of one remote request (default 10s)")
	rootCmd.PersistentFlags().StringVar(&userAgent, "user-agent", "", "User-Agent of remote requests")
	rootCmd.PersistentFlags().DurationVar(&hostDelay, "host-delay", 0, "minimum wait between two requests to the same host")

	rootCmd.AddCommand(clusterCmd)
	rootCmd.AddCommand(compareCmd)
}

// InitConfig reads in config file and ENV variables if set.
func InitConfig() config.Config {
	cfg, err := InitConfigWithError()
	if err != nil {
		fmt.Printf("Error: %s\n", err)
		os.Exit(1)
	}
	return cfg
}

// InitConfigWithError resolves the configuration, returning any errors.
// A config file wins over flags; without one, flags override
// RECORD_FINDER_* environment variables, which override defaults.
func InitConfigWithError() (config.Config, error) {
	if cfgFile != "" {
		cfg, err := config.WithConfigFile(cfgFile)
		if err != nil {
			return cfg, fmt.Errorf("error initializing config from file: %w", err)
		}
		return cfg, nil
	}

	cfg, err := config.FromEnvironment()
	if err != nil {
		return config.Config{}, err
	}
	configBuilder := &cfg

	if leafThreshold > 0 {
		configBuilder = configBuilder.WithLeafThreshold(leafThreshold)
	}

	if treeThreshold > 0 {
		configBuilder = configBuilder.WithTreeThreshold(treeThreshold)
	}

	if sizeRatioThreshold > 0 {
		configBuilder = configBuilder.WithSizeRatioThreshold(sizeRatioThreshold)
	}

	if maxClusterEntities > 0 {
		configBuilder = configBuilder.WithMaxClusterEntities(maxClusterEntities)
	}

	if logLevel != "" {
		configBuilder = configBuilder.WithLogLevel(logLevel)
	}

	if logJSON {
		configBuilder = configBuilder.WithLogJSON(logJSON)
	}

	if containerSelector != "" {
		configBuilder = configBuilder.WithContainerSelector(containerSelector)
	}

	if baseURL != "" {
		parsed, err := url.Parse(baseURL)
		if err != nil {
			return config.Config{}, fmt.Errorf("%w: base-url: %s", config.ErrInvalidConfig, err.Error())
		}
		configBuilder = configBuilder.WithBaseURL(parsed)
	}

	if reportFormat != "" {
		configBuilder = configBuilder.WithReportFormat(strings.ToLower(reportFormat))
	}

	if outputDir != "" {
		configBuilder = configBuilder.WithOutputDir(outputDir)
	}

	if dryRun {
		configBuilder = configBuilder.WithDryRun(dryRun)
	}

	if maxDocumentBytes > 0 {
		configBuilder = configBuilder.WithMaxDocumentBytes(maxDocumentBytes)
	}

	if maxAttempts > 0 {
		configBuilder = configBuilder.WithMaxAttempts(maxAttempts)
	}

	if timeout > 0 {
		configBuilder = configBuilder.WithTimeout(timeout)
	}

	if userAgent != "" {
		configBuilder = configBuilder.WithUserAgent(userAgent)
	}

	if hostDelay > 0 {
		configBuilder = configBuilder.WithHostDelay(hostDelay)
	}

	return configBuilder.Build()
}

// ExecuteForTest runs the root command with args, writing command output
// to out and logs to errOut, and returns its error instead of exiting.
func ExecuteForTest(args []string, in io.Reader, out io.Writer, errOut io.Writer) error {
	rootCmd.SetArgs(args)
	rootCmd.SetIn(in)
	rootCmd.SetOut(out)
	rootCmd.SetErr(errOut)
	defer func() {
		rootCmd.SetArgs(nil)
		rootCmd.SetIn(nil)
		rootCmd.SetOut(nil)
		rootCmd.SetErr(nil)
	}()
	return rootCmd.Execute()
}

func ResetFlags() {
	cfgFile = ""
	leafThreshold = 0
	treeThreshold = 0
	sizeRatioThreshold = 0
	maxClusterEntities = 0
	logLevel = ""
	logJSON = false
	containerSelector = ""
	baseURL = ""
	reportFormat = ""
	outputDir = ""
	dryRun = false
	maxDocumentBytes = 0
	maxAttempts = 0
	timeout = 0
	userAgent = ""
	hostDelay = 0
	resetClusterFlags()
	resetCompareFlags()
	if f := rootCmd.Flags().Lookup("version"); f != nil {
		_ = f.Value.Set("false")
	}
}

// Test helper functions to set flag values from tests
func SetConfigFileForTest(path string) {
	cfgFile = path
}

func SetLeafThresholdForTest(threshold float64) {
	leafThreshold = threshold
}

func SetTreeThresholdForTest(threshold float64) {
	treeThreshold = threshold
}

func SetMaxClusterEntitiesForTest(entities int) {
	maxClusterEntities = entities
}

func SetContainerSelectorForTest(selector string) {
	containerSelector = selector
}

func SetBaseURLForTest(raw string) {
	baseURL = raw
}

func SetReportFormatForTest(format string) {
	reportFormat = format
}

func SetOutputDirForTest(dir string) {
	outputDir = dir
}

func SetDryRunForTest(dry bool) {
	dryRun = dry
}

func SetMaxAttemptsForTest(attempts int) {
	maxAttempts = attempts
}

func SetTimeoutForTest(d time.Duration) {
	timeout = d
}

func SetUserAgentForTest(ua string) {
	userAgent = ua
}

func SetMaxDocumentBytesForTest(size int64) {
	maxDocumentBytes = size
}

func SetHostDelayForTest(d time.Duration) {
	hostDelay = d
}
