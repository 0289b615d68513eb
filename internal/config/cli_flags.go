package config

import "github.com/spf13/cobra"

// RegisterFlags registers common CLI flags on the provided root command
func RegisterFlags(cmd *cobra.Command) {
	if cmd == nil {
		return
	}

	cmd.PersistentFlags().BoolP("verbose", "v", false, "Enable debug logging")
	cmd.PersistentFlags().BoolP("quiet", "q", false, "Suppress all output except errors")
	cmd.PersistentFlags().Bool("json", false, "Write logs as JSON to stderr")
	cmd.PersistentFlags().String("timeout", "90s", "Navigation and element wait timeout")
	cmd.PersistentFlags().String("user-agent", "", "Override the user agent of every jurisdiction")
	cmd.PersistentFlags().String("chrome-path", "", "Path to the Chrome/Chromium binary")
	cmd.PersistentFlags().Int("pool-size", DefaultBrowserPoolSize, "Concurrent isolated browser sessions")
	cmd.PersistentFlags().Int("retries", DefaultRetryMaxAttempts, "Attempts per parcel before giving up")
	cmd.PersistentFlags().Bool("headful", false, "Show the browser window")
	cmd.PersistentFlags().String("config", "", "Path to a .env file (default .env)")
}
