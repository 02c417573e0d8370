// Package commands implements the CLI commands for the linectl client.
package commands

import (
	"context"
	"fmt"
	"net"
	"os/signal"
	"strconv"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/marmos91/lineserv/pkg/client"
	"github.com/marmos91/lineserv/pkg/protocol"
)

var (
	// Version information injected at build time.
	Version = "dev"
	Commit  = "none"
	Date    = "unknown"
)

// rootCmd represents the base command. linectl takes the server location as
// positional arguments: both optional, but a port needs a hostname first.
var rootCmd = &cobra.Command{
	Use:   "linectl [hostname [port]]",
	Short: "linectl - Interactive lineserv client",
	Long: `linectl connects to a lineserv server and runs an interactive session:
log in with a username and password, then issue commands (parentheses,
lcm, caesar) until quit. Command lines are validated locally before they
are sent, so a typo never costs the connection.

Examples:
  # Connect to localhost on the default port
  linectl

  # Connect to a remote server
  linectl example.com

  # Connect to a remote server on a custom port
  linectl example.com 4242`,
	Args:          cobra.MaximumNArgs(2),
	SilenceUsage:  true,
	SilenceErrors: true,
	RunE:          runSession,
}

// Execute runs the root command. This is called by main.main().
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.AddCommand(versionCmd)

	// Hide the default completion command
	rootCmd.CompletionOptions.DisableDefaultCmd = true
}

func runSession(cmd *cobra.Command, args []string) error {
	hostname := "localhost"
	port := protocol.DefaultPort

	if len(args) >= 1 {
		hostname = args[0]
	}
	if len(args) == 2 {
		p, err := strconv.Atoi(args[1])
		if err != nil || p < 1 || p > 65535 {
			return fmt.Errorf("invalid port %q (expected 1-65535)", args[1])
		}
		port = p
	}

	// Ctrl+C mid-session cancels the dial and ends the prompt loop.
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	addr := net.JoinHostPort(hostname, strconv.Itoa(port))
	return client.Interactive(ctx, addr)
}
