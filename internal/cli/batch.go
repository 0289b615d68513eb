package cli

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/rs/zerolog/log"
	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"

	"github.com/law-makers/taxcert/internal/output"
	"github.com/law-makers/taxcert/internal/ui"
	"github.com/law-makers/taxcert/pkg/models"
)

var (
	accountsFile string
	batchOutput  string
	noProgress   bool
)

// batchCmd represents the batch command
var batchCmd = &cobra.Command{
	Use:   "batch <STATE/county>",
	Short: "Acquire many parcels of one county, one at a time",
	Long: `Reads parcel accounts from a file (one per line, # starts a comment) and
acquires them strictly in sequence. Parcels that fail still produce a degraded
record so the export lists every account.`,
	Example: `  # Export a list of Mercer County parcels to CSV
  taxcert batch OH/mercer --accounts parcels.txt -o mercer.csv`,
	Args: cobra.ExactArgs(1),
	RunE: runBatch,
}

func init() {
	rootCmd.AddCommand(batchCmd)

	batchCmd.Flags().StringVarP(&accountsFile, "accounts", "a", "", "File with one parcel account per line (- for stdin)")
	batchCmd.Flags().StringVarP(&batchOutput, "output", "o", "", "File to save the records to (.json or .csv, default CSV on stdout)")
	batchCmd.Flags().BoolVar(&noProgress, "no-progress", false, "Hide the progress bar")
	_ = batchCmd.MarkFlagRequired("accounts")
}

func runBatch(cmd *cobra.Command, args []string) error {
	a, err := mustApp(cmd)
	if err != nil {
		return err
	}
	adapter, err := a.Lookup(args[0])
	if err != nil {
		return err
	}

	in := cmd.InOrStdin()
	if accountsFile != "-" {
		f, err := os.Open(accountsFile)
		if err != nil {
			return fmt.Errorf("open accounts: %w", err)
		}
		defer f.Close()
		in = f
	}
	accounts, err := readAccounts(in)
	if err != nil {
		return err
	}
	if len(accounts) == 0 {
		return fmt.Errorf("no accounts in %s", accountsFile)
	}

	bar := progressbar.NewOptions(len(accounts),
		progressbar.OptionSetWriter(os.Stderr),
		progressbar.OptionSetDescription(adapter.Jurisdiction().Name),
		progressbar.OptionShowCount(),
		progressbar.OptionSetVisibility(!noProgress),
		progressbar.OptionClearOnFinish(),
	)

	ctx := cmd.Context()
	recs := make([]models.ParcelTaxRecord, 0, len(accounts))
	failed := 0
	for _, account := range accounts {
		if ctx.Err() != nil {
			log.Warn().Int("done", len(recs)).Int("total", len(accounts)).Msg("Batch interrupted")
			break
		}
		bar.Describe(account)
		rec, err := a.Pipeline.Run(ctx, adapter, account)
		if err != nil {
			failed++
		}
		recs = append(recs, rec)
		_ = bar.Add(1)
	}
	_ = bar.Finish()

	if batchOutput != "" {
		if err := output.Save(batchOutput, recs...); err != nil {
			return err
		}
	} else if err := output.WriteCSV(cmd.OutOrStdout(), recs...); err != nil {
		return err
	}

	fmt.Fprintf(os.Stderr, "%s %d parcels, %s\n", ui.Success("✓"), len(recs), failedCount(failed))
	if ctx.Err() != nil {
		return ctx.Err()
	}
	return nil
}

func failedCount(n int) string {
	if n == 0 {
		return ui.Success("0 failed")
	}
	return ui.Error(fmt.Sprintf("%d failed", n))
}

// readAccounts returns the non-blank, non-comment lines of r, trimmed and
// de-duplicated in order.
func readAccounts(r io.Reader) ([]string, error) {
	var accounts []string
	seen := make(map[string]bool)
	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if i := strings.Index(line, "#"); i >= 0 {
			line = strings.TrimSpace(line[:i])
		}
		if line == "" || seen[line] {
			continue
		}
		seen[line] = true
		accounts = append(accounts, line)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read accounts: %w", err)
	}
	return accounts, nil
}
