package cmd

import (
	"strconv"
	"strings"
	"time"

	"github.com/rohmanhakim/record-finder/internal/config"
	"github.com/rohmanhakim/record-finder/internal/fetcher"
	"github.com/rohmanhakim/record-finder/internal/metadata"
	"github.com/rohmanhakim/record-finder/internal/scheduler"
	"github.com/rohmanhakim/record-finder/pkg/hashutil"
	"github.com/spf13/cobra"
)

// StdinSource names documents read from standard input.
const StdinSource = fetcher.StdinSource

var ErrNoMatch = scheduler.ErrNoMatch

// newRecorder builds the per-run metadata recorder logging to the command's stderr.
func newRecorder(cmd *cobra.Command, cfg config.Config, sources []string) *metadata.Recorder {
	logger := metadata.NewLogger(cmd.ErrOrStderr(), cfg.LogLevel(), cfg.LogJSON())
	sessionID := hashutil.ShortID(strings.Join(sources, "\n"), strconv.FormatInt(time.Now().UnixNano(), 10))
	recorder := metadata.NewRecorder(sessionID, logger)
	return &recorder
}

// newScheduler wires a scheduler reading stdin from cmd.
func newScheduler(cmd *cobra.Command, cfg config.Config, sources []string) scheduler.Scheduler {
	recorder := newRecorder(cmd, cfg, sources)
	return scheduler.NewScheduler(cfg, cmd.InOrStdin(), recorder)
}
