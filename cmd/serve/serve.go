// Package serve runs the HTTP API.
package serve

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/minamikusatsuhifuka-maker/keiridocs-app/cmd/root"
	"github.com/minamikusatsuhifuka-maker/keiridocs-app/internal/server"
)

var addr string

// Cmd represents the serve command
var Cmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP API server",
	Long:  `Start the HTTP API that the web frontend and mail webhook talk to.`,
	Run:   serveFunc,
}

func init() {
	Cmd.Flags().StringVarP(&addr, "addr", "a", "", "Listen address (default from configuration)")
}

func serveFunc(cmd *cobra.Command, args []string) {
	ctx := context.Background()
	c, err := root.Bootstrap(ctx)
	if err != nil {
		root.Log.Fatalf("Failed to initialize application: %v", err)
	}
	defer func() { _ = c.Close() }()

	listen := addr
	if listen == "" {
		listen = c.Config().Server.Address
	}

	root.Log.Infof("Listening on %s", listen)
	if err := server.New(c).Run(listen); err != nil {
		root.Log.Fatalf("Server stopped: %v", err)
	}
}
