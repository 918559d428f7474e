package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/JakeFAU/rollcall-crawler/internal/model"
	"github.com/JakeFAU/rollcall-crawler/internal/pipeline"
)

func newHouseCmd() *cobra.Command {
	var from string
	cmd := &cobra.Command{
		Use:   "house",
		Short: "Crawl House roll calls from the resume point",
		Long: `Fetches House Clerk vote documents starting after the latest House roll
call in the graph (or at --from), rolling over to the next year when a year
runs out, and stops at the first missing document of a year.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			appInstance, err := resolveApp(cmd.Context())
			if err != nil {
				return err
			}
			var start *model.HouseCoordinate
			if from != "" {
				c, err := parseHouseCoordinate(from)
				if err != nil {
					return err
				}
				start = &c
			}
			sum, err := appInstance.Runner().RunHouse(cmd.Context(), start)
			return finishCrawl(cmd.OutOrStdout(), appInstance.Logger(), sum, err)
		},
	}
	cmd.Flags().StringVar(&from, "from", "", "start at YEAR-NUMBER instead of the resume point, e.g. 2025-1")
	return cmd
}

func newSenateCmd() *cobra.Command {
	var from string
	cmd := &cobra.Command{
		Use:   "senate",
		Short: "Crawl Senate roll calls from the resume point",
		Long: `Fetches Senate vote documents starting after the latest Senate roll call
in the graph (or at --from). Session 1 rolls over to session 2, session 2 to
the next congress.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			appInstance, err := resolveApp(cmd.Context())
			if err != nil {
				return err
			}
			var start *model.SenateCoordinate
			if from != "" {
				c, err := parseSenateCoordinate(from)
				if err != nil {
					return err
				}
				start = &c
			}
			sum, err := appInstance.Runner().RunSenate(cmd.Context(), start)
			return finishCrawl(cmd.OutOrStdout(), appInstance.Logger(), sum, err)
		},
	}
	cmd.Flags().StringVar(&from, "from", "", "start at CONGRESS-SESSION-NUMBER instead of the resume point, e.g. 119-1-1")
	return cmd
}

// finishCrawl prints the run summary. An interrupted run is not an error:
// the committed records define where the next run picks up.
func finishCrawl(out io.Writer, logger *zap.Logger, sum pipeline.Summary, err error) error {
	if errors.Is(err, context.Canceled) {
		logger.Warn("crawl interrupted", zap.String("last", sum.Last), zap.Int("ingested", sum.Ingested))
		err = nil
	}
	if sum.Start != "" {
		last := sum.Last
		if last == "" {
			last = "none"
		}
		fmt.Fprintf(out, "%s run %s: started at %s, last ingested %s, %d roll calls, %d votes, %d dropped\n",
			sum.Chamber, sum.RunID, sum.Start, last, sum.Ingested, sum.Votes, sum.Dropped)
	}
	if err != nil {
		return fmt.Errorf("%s crawl: %w", sum.Chamber, err)
	}
	return nil
}

func parseHouseCoordinate(raw string) (model.HouseCoordinate, error) {
	parts, err := splitInts(raw, 2)
	if err != nil {
		return model.HouseCoordinate{}, fmt.Errorf("--from %q: want YEAR-NUMBER: %w", raw, err)
	}
	return model.HouseCoordinate{Year: parts[0], Number: parts[1]}, nil
}

func parseSenateCoordinate(raw string) (model.SenateCoordinate, error) {
	parts, err := splitInts(raw, 3)
	if err != nil {
		return model.SenateCoordinate{}, fmt.Errorf("--from %q: want CONGRESS-SESSION-NUMBER: %w", raw, err)
	}
	if parts[1] != 1 && parts[1] != 2 {
		return model.SenateCoordinate{}, fmt.Errorf("--from %q: session must be 1 or 2", raw)
	}
	return model.SenateCoordinate{Congress: parts[0], Session: parts[1], Number: parts[2]}, nil
}

func splitInts(raw string, n int) ([]int, error) {
	fields := strings.Split(strings.TrimSpace(raw), "-")
	if len(fields) != n {
		return nil, fmt.Errorf("got %d fields", len(fields))
	}
	out := make([]int, n)
	for i, f := range fields {
		v, err := strconv.Atoi(f)
		if err != nil {
			return nil, err
		}
		if v < 1 {
			return nil, fmt.Errorf("%d is not positive", v)
		}
		out[i] = v
	}
	return out, nil
}
