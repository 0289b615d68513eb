package cli

import (
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/law-makers/taxcert/internal/acquire"
	"github.com/law-makers/taxcert/internal/adapter"
	"github.com/law-makers/taxcert/internal/ui"
)

var countyState string

// countiesCmd represents the counties command
var countiesCmd = &cobra.Command{
	Use:   "counties",
	Short: "List the counties taxcert can acquire from",
	Example: `  taxcert counties
  taxcert counties --state OH`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := mustApp(cmd)
		if err != nil {
			return err
		}
		if countyState != "" {
			counties, err := a.Directory.Counties(cmd.Context(), countyState)
			if err != nil {
				return err
			}
			printCounties(cmd.OutOrStdout(), counties)
			return nil
		}
		printJurisdictions(cmd.OutOrStdout(), a.Registry.Jurisdictions())
		return nil
	},
}

func init() {
	rootCmd.AddCommand(countiesCmd)
	countiesCmd.Flags().StringVarP(&countyState, "state", "s", "", "Two-letter state code")
}

func printCounties(w io.Writer, counties []adapter.County) {
	if len(counties) == 0 {
		fmt.Fprintln(w, ui.Info("No counties available"))
		return
	}
	for _, c := range counties {
		fmt.Fprintf(w, "  %s%-14s%s %s\n", ui.ColorCyan, c.Path, ui.ColorReset, c.County)
	}
}

func printJurisdictions(w io.Writer, js []acquire.Jurisdiction) {
	for _, j := range js {
		fmt.Fprintf(w, "  %s%-14s%s %-18s %s\n",
			ui.ColorCyan, j.ID(), ui.ColorReset, j.Name,
			ui.Dim(strings.ToLower(j.Calendar.Cadence)+", due "+j.Calendar.NormalDueDates()))
	}
}
