package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/law-makers/taxcert/internal/app"
	"github.com/law-makers/taxcert/internal/config"
	"github.com/law-makers/taxcert/internal/ui"
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "taxcert",
	Short: "Property tax certificates from county websites",
	Long: `Taxcert looks up a parcel on its county's tax website and turns the bills and
payments it finds into one normalized tax record: owners, valuation, a
per-installment history, a delinquency flag and a summary note.

Run it once per parcel, over a file of parcels, or as an HTTP service.`,
	Version:       "0.1.0",
	SilenceUsage:  true,
	SilenceErrors: true,
}

// Execute adds all child commands to the root command and runs it until ctx
// is cancelled. This is called by main.main().
func Execute(ctx context.Context) {
	err := rootCmd.ExecuteContext(ctx)
	// Runs on failure too, so Chrome never outlives the process
	closeApp()
	if err != nil {
		fmt.Fprintf(os.Stderr, "%s %v\n", ui.Error("Error:"), err)
		os.Exit(1)
	}
}

// closeApp shuts down the application started for this invocation, if any.
var closeApp = func() {}

func init() {
	// Lazily initialize the application before running commands (avoid starting app for -h/help)
	rootCmd.PersistentPreRunE = func(cmd *cobra.Command, args []string) error {
		if GetApp(cmd) != nil {
			return nil
		}

		cfg, err := config.Load(cmd)
		if err != nil {
			return err
		}

		ctx, cancel := context.WithTimeout(cmd.Context(), 30*time.Second)
		defer cancel()
		a, err := app.New(ctx, cfg)
		if err != nil {
			return err
		}

		SetApp(cmd, a)
		closeApp = func() {
			ctx, cancel := context.WithTimeout(context.Background(), a.Config.ShutdownTimeout)
			defer cancel()
			if err := a.Close(ctx); err != nil {
				log.Warn().Err(err).Msg("Failed to close application")
			}
		}
		return nil
	}

	// Register centralized flags
	config.RegisterFlags(rootCmd)

	rootCmd.CompletionOptions.DisableDefaultCmd = true
	rootCmd.SetHelpFunc(func(cmd *cobra.Command, args []string) {
		printHelp(os.Stdout, cmd, true)
	})
	rootCmd.SetUsageFunc(func(cmd *cobra.Command) error {
		printHelp(os.Stderr, cmd, false)
		return nil
	})
}

// mustApp returns the application set up by PersistentPreRunE.
func mustApp(cmd *cobra.Command) (*app.Application, error) {
	a := GetApp(cmd)
	if a == nil {
		return nil, fmt.Errorf("application not initialized")
	}
	return a, nil
}

// printHelp writes colorized help. The short form used for usage errors
// leaves out descriptions and examples.
func printHelp(w io.Writer, cmd *cobra.Command, full bool) {
	if full {
		fmt.Fprintf(w, "\n%s%s%s\n", ui.ColorBold+ui.ColorCyan, strings.ToUpper(cmd.Name()), ui.ColorReset)
		if cmd.Short != "" {
			fmt.Fprintln(w, cmd.Short)
		}
		if cmd.Long != "" && cmd.Long != cmd.Short {
			fmt.Fprintf(w, "\n%s\n", cmd.Long)
		}
	}

	section(w, "Usage")
	if cmd.Runnable() {
		fmt.Fprintf(w, "  %s%s%s\n", ui.ColorCyan, cmd.UseLine(), ui.ColorReset)
	}
	if cmd.HasAvailableSubCommands() {
		fmt.Fprintf(w, "  %s%s%s %s<command>%s %s[flags]%s\n",
			ui.ColorCyan, cmd.CommandPath(), ui.ColorReset,
			ui.ColorYellow, ui.ColorReset,
			ui.ColorDim, ui.ColorReset)
	}

	if full && cmd.HasExample() {
		section(w, "Examples")
		for _, example := range strings.Split(cmd.Example, "\n") {
			trimmed := strings.TrimSpace(example)
			switch {
			case trimmed == "":
			case strings.HasPrefix(trimmed, "#"):
				fmt.Fprintf(w, "  %s%s%s\n", ui.ColorDim, trimmed, ui.ColorReset)
			default:
				fmt.Fprintf(w, "  %s$ %s%s\n", ui.ColorGreen, trimmed, ui.ColorReset)
			}
		}
	}

	if cmd.HasAvailableSubCommands() {
		section(w, "Commands")
		width := 0
		var available []*cobra.Command
		for _, c := range cmd.Commands() {
			if c.IsAvailableCommand() && c.Name() != "help" {
				available = append(available, c)
				width = max(width, len(c.Name()))
			}
		}
		for _, c := range available {
			fmt.Fprintf(w, "  %s%-*s%s  %s\n", ui.ColorCyan, width, c.Name(), ui.ColorReset, ui.Dim(c.Short))
		}
	}

	if cmd.HasAvailableLocalFlags() {
		section(w, "Flags")
		printFlags(w, cmd.LocalFlags().FlagUsages())
	}
	if full && cmd.HasAvailableInheritedFlags() {
		section(w, "Global Flags")
		printFlags(w, cmd.InheritedFlags().FlagUsages())
	}

	fmt.Fprintf(w, "\n%s\n\n", ui.Dim(fmt.Sprintf("Use \"%s --help\" for more information.", cmd.CommandPath())))
}

func section(w io.Writer, title string) {
	fmt.Fprintf(w, "\n%s%s%s\n", ui.ColorBold+ui.ColorWhite, title, ui.ColorReset)
}

// printFlags re-aligns pflag's usage text with the flag names in green
func printFlags(w io.Writer, flagUsages string) {
	const minWidth = 28
	type flagLine struct{ name, desc string }

	var lines []flagLine
	width := minWidth
	for _, line := range strings.Split(flagUsages, "\n") {
		trimmed := strings.TrimSpace(line)
		if trimmed == "" {
			continue
		}
		name, desc, _ := strings.Cut(trimmed, "  ")
		if !strings.HasPrefix(name, "-") {
			// Continuation of the previous description
			lines = append(lines, flagLine{desc: trimmed})
			continue
		}
		lines = append(lines, flagLine{name: name, desc: strings.TrimSpace(desc)})
		width = max(width, len(name))
	}

	for _, l := range lines {
		fmt.Fprintf(w, "  %s%-*s%s  %s\n", ui.ColorGreen, width, l.name, ui.ColorReset, ui.Dim(l.desc))
	}
}
