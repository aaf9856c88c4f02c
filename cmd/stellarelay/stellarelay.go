// Package relaycmder provides the stellarelay root command.
package relaycmder

import (
	"github.com/spf13/cobra"

	servecmder "github.com/d-wern/stella-relay/cmd/stellarelay/serve"
	versioncmder "github.com/d-wern/stella-relay/cmd/stellarelay/version"
)

const relayLongDesc string = `stellarelay fronts the Stella agent backend for the portfolio web client.

It relays POST /chat to the backend, streaming SSE events through when the
client asks for them, and always closes a stream with a terminal done event.

Run the server with:
  stellarelay serve`

const relayShortDesc string = "stellarelay - chat relay for the Stella backend"

// NewRelayCmd creates the root command.
func NewRelayCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "stellarelay",
		Short: relayShortDesc,
		Long:  relayLongDesc,
	}

	// Global flags
	cmd.PersistentFlags().BoolP("debug", "d", false, "Enable debug logging")
	cmd.PersistentFlags().String("config-dir", "", "Directory holding config.toml (default: working directory)")

	cmd.AddCommand(servecmder.NewServeCmd())
	cmd.AddCommand(versioncmder.NewVersionCmd())

	return cmd
}
