package cmd

import (
	"fmt"

	"github.com/rohmanhakim/record-finder/internal/config"
	"github.com/rohmanhakim/record-finder/internal/report"
	"github.com/rohmanhakim/record-finder/internal/scheduler"
	"github.com/spf13/cobra"
)

var (
	clusterMode    string
	parentSelector string
	toStdout       bool
)

var clusterCmd = &cobra.Command{
	Use:   "cluster [source...]",
	Short: "Group the repeated regions of HTML documents",
	Long: `cluster reads HTML documents (files, http(s) URLs, or stdin when no
source is given or a source is "-") and clusters either the children of
one element (--mode subtrees) or every content leaf (--mode leaves).

Documents are processed one at a time; a source named twice is read once.
Each report is written to <output-dir>/<hash>.<ext> unless --stdout is set.`,
	Args: cobra.ArbitraryArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := InitConfigWithError()
		if err != nil {
			return err
		}
		return runCluster(cmd, cfg, args)
	},
}

func init() {
	clusterCmd.Flags().StringVar(&clusterMode, "mode", string(report.ModeSubtrees), "what to cluster: subtrees or leaves")
	clusterCmd.Flags().StringVar(&parentSelector, "parent", "", "CSS selector of the element whose children are clustered (default: the widest element)")
	clusterCmd.Flags().BoolVar(&toStdout, "stdout", false, "print the reports instead of writing them")
}

func resetClusterFlags() {
	clusterMode = string(report.ModeSubtrees)
	parentSelector = ""
	toStdout = false
}

func runCluster(cmd *cobra.Command, cfg config.Config, args []string) error {
	mode := report.Mode(clusterMode)
	if mode != report.ModeSubtrees && mode != report.ModeLeaves {
		return fmt.Errorf("%w: unknown mode %q", config.ErrInvalidConfig, clusterMode)
	}

	s := newScheduler(cmd, cfg, args)
	execution, err := s.ExecuteBatch(cmd.Context(), args, scheduler.Plan{
		Mode:           mode,
		ParentSelector: parentSelector,
		Persist:        !toStdout,
	})

	// print what was finished even when the batch aborted
	out := cmd.OutOrStdout()
	for _, outcome := range execution.Outcomes {
		r := outcome.Report
		switch {
		case toStdout:
			if _, writeErr := out.Write(outcome.Rendered); writeErr != nil {
				return writeErr
			}
		case outcome.WriteResult.Written():
			fmt.Fprintf(out, "%s: %d clusters (%d repeated) written to %s\n", r.Source, len(r.Clusters), r.Repeated(), outcome.WriteResult.Path())
		default:
			fmt.Fprintf(out, "%s: %d clusters (%d repeated), dry run: would write %s\n", r.Source, len(r.Clusters), r.Repeated(), outcome.WriteResult.Path())
		}
	}
	if err != nil {
		return err
	}
	if execution.Errors > 0 {
		fmt.Fprintf(cmd.ErrOrStderr(), "%d of %d documents skipped\n", execution.Errors, execution.Errors+len(execution.Outcomes))
	}
	return nil
}
