// Package cli provides the command-line interface for the taxcert application.
package cli

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/law-makers/taxcert/internal/app"
)

// ctxKey is used for storing the application in a command's context
type ctxKey struct{}

// SetApp stores the Application in the command's context
func SetApp(cmd *cobra.Command, a *app.Application) {
	if cmd == nil {
		return
	}
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	cmd.SetContext(context.WithValue(ctx, ctxKey{}, a))
}

// GetApp retrieves the Application from the command or its parents
func GetApp(cmd *cobra.Command) *app.Application {
	for c := cmd; c != nil; c = c.Parent() {
		if c.Context() == nil {
			continue
		}
		if a, ok := c.Context().Value(ctxKey{}).(*app.Application); ok && a != nil {
			return a
		}
	}
	return nil
}
