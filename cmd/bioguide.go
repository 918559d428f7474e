package cmd

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/JakeFAU/rollcall-crawler/internal/bioguide"
	"github.com/JakeFAU/rollcall-crawler/internal/pipeline"
)

func newBioguideCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "bioguide FILE...",
		Short: "Ingest Biographical Directory JSON files",
		Long: `Reads one legislator biography per file and writes the legislator, their
congress memberships, family relations and current state and party to the
graph. Deleted entries are skipped. Every file is attempted; the command
fails if any of them could not be ingested.`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			appInstance, err := resolveApp(cmd.Context())
			if err != nil {
				return err
			}
			logger := appInstance.Logger()
			opts := bioguide.Options{Strict: appInstance.Config().Bioguide.Strict}

			var ingested, skipped int
			var failed []error
			for _, path := range args {
				if err := cmd.Context().Err(); err != nil {
					return err
				}
				data, err := os.ReadFile(path)
				if err != nil {
					failed = append(failed, err)
					logger.Error("read biography failed", zap.String("file", path), zap.Error(err))
					continue
				}
				err = appInstance.Runner().IngestBiography(cmd.Context(), path, data, opts)
				switch {
				case errors.Is(err, pipeline.ErrSkipped):
					skipped++
				case err != nil:
					failed = append(failed, err)
					logger.Error("ingest biography failed", zap.String("file", path), zap.Error(err))
				default:
					ingested++
				}
			}

			fmt.Fprintf(cmd.OutOrStdout(), "biographies: %d ingested, %d skipped, %d failed\n",
				ingested, skipped, len(failed))
			if len(failed) > 0 {
				return fmt.Errorf("%d of %d biographies failed: %w", len(failed), len(args), errors.Join(failed...))
			}
			return nil
		},
	}
}
