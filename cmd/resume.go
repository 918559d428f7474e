package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/JakeFAU/rollcall-crawler/internal/model"
)

func newResumeCmd() *cobra.Command {
	return &cobra.Command{
		Use:       "resume CHAMBER",
		Short:     "Print where the next crawl of a chamber would start",
		Args:      cobra.ExactArgs(1),
		ValidArgs: []string{string(model.ChamberHouse), string(model.ChamberSenate)},
		RunE: func(cmd *cobra.Command, args []string) error {
			appInstance, err := resolveApp(cmd.Context())
			if err != nil {
				return err
			}
			chamber, err := model.ParseChamber(args[0])
			if err != nil {
				return err
			}
			locator := appInstance.Locator()
			switch chamber {
			case model.ChamberHouse:
				c, err := locator.House(cmd.Context())
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "%s\t--from %d-%d\n", c, c.Year, c.Number)
			default:
				c, err := locator.Senate(cmd.Context())
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "%s\t--from %d-%d-%d\n", c, c.Congress, c.Session, c.Number)
			}
			return nil
		},
	}
}
