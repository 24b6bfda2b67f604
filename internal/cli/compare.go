package cmd

import (
	"fmt"

	"github.com/rohmanhakim/record-finder/internal/config"
	"github.com/rohmanhakim/record-finder/internal/fetcher"
	"github.com/spf13/cobra"
)

var (
	regionA string
	regionB string
)

var compareCmd = &cobra.Command{
	Use:   "compare [source]",
	Short: "Score how alike two regions of an HTML document are",
	Long: `compare selects two regions with CSS selectors (every match of a
selector forms one region) and prints their tree similarity in [0, 1].`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := InitConfigWithError()
		if err != nil {
			return err
		}
		return runCompare(cmd, cfg, args)
	},
}

func init() {
	compareCmd.Flags().StringVar(&regionA, "region-a", "", "CSS selector of the first region")
	compareCmd.Flags().StringVar(&regionB, "region-b", "", "CSS selector of the second region")
	_ = compareCmd.MarkFlagRequired("region-a")
	_ = compareCmd.MarkFlagRequired("region-b")
}

func resetCompareFlags() {
	regionA = ""
	regionB = ""
}

func runCompare(cmd *cobra.Command, cfg config.Config, args []string) error {
	source := fetcher.StdinArg
	if len(args) == 1 {
		source = args[0]
	}

	s := newScheduler(cmd, cfg, []string{source})
	doc, err := s.Load(cmd.Context(), source)
	if err != nil {
		return err
	}

	score, err := s.Compare(doc, regionA, regionB)
	if err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "%.4f\n", score)
	return nil
}
