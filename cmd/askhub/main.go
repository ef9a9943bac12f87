// Command askhub is a command-line client for the askhub API.
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/askhub/hub/pkg/client"
)

const defaultServerURL = "http://localhost:8080"

type rootOptions struct {
	server  string
	timeout time.Duration
}

func (o *rootOptions) client() *client.Client {
	return client.NewClientWithOptions(client.ClientOptions{
		BaseURL: o.server,
		Timeout: o.timeout,
	})
}

func newRootCmd() *cobra.Command {
	opts := &rootOptions{}

	server := os.Getenv("ASKHUB_URL")
	if server == "" {
		server = defaultServerURL
	}

	cmd := &cobra.Command{
		Use:           "askhub",
		Short:         "Ingest text and ask questions against an askhub server",
		SilenceUsage: true,
	}

	cmd.PersistentFlags().StringVar(&opts.server, "server", server, "askhub server URL (env ASKHUB_URL)")
	cmd.PersistentFlags().DurationVar(&opts.timeout, "timeout", 2*time.Minute, "per-request timeout")

	cmd.AddCommand(newIngestCmd(opts), newAskCmd(opts), newChunksCmd(opts))

	return cmd
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		stop()

		os.Exit(1)
	}
}
