package cli

import (
	"github.com/spf13/cobra"

	"github.com/law-makers/taxcert/internal/server"
)

var listenAddr string

// serveCmd represents the serve command
var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve tax records over HTTP",
	Long: `Starts the HTTP service:

  POST /tax/{state}/{county}   {fetch_type: api|html, account}
  GET  /misc/county?state=OH   counties served in a state
  GET  /health`,
	Example: `  taxcert serve --addr :8080`,
	Args:    cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := mustApp(cmd)
		if err != nil {
			return err
		}
		addr := a.Config.ListenAddr
		if listenAddr != "" {
			addr = listenAddr
		}
		srv := server.New(a.Registry, a.Pipeline, a.Directory)
		return srv.ListenAndServe(cmd.Context(), addr, a.Config.ShutdownTimeout)
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)
	serveCmd.Flags().StringVar(&listenAddr, "addr", "", "Listen address (default from TAXCERT_LISTEN_ADDR or :3000)")
}
