// Command localresolve resolves .local hostnames over multicast DNS and
// serves the result to LAN clients as a DNS override proxy.
package main

import (
	"fmt"
	"net"
	"os"

	"github.com/apex/log"
	"github.com/apex/log/handlers/cli"
	"github.com/spf13/cobra"
)

var logLevel string

var rootCmd = &cobra.Command{
	Use:           "localresolve",
	Short:         "Resolve .local hosts over mDNS and serve them as DNS overrides",
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&logLevel, "log-level", "l", "", "log level: debug, info, warn, error (default info)")
	rootCmd.AddCommand(resolveCmd, serveCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "localresolve:", err)
		os.Exit(1)
	}
}

// newLogger builds the CLI logger. An empty level falls back to fallback.
func newLogger(level, fallback string) (*log.Logger, error) {
	if level == "" {
		level = fallback
	}
	lvl, err := log.ParseLevel(level)
	if err != nil {
		return nil, fmt.Errorf("log level: %w", err)
	}
	return &log.Logger{Handler: cli.New(os.Stderr), Level: lvl}, nil
}

// lookupInterface returns the named interface, or nil for an empty name.
func lookupInterface(name string) (*net.Interface, error) {
	if name == "" {
		return nil, nil
	}
	iface, err := net.InterfaceByName(name)
	if err != nil {
		return nil, fmt.Errorf("interface %q: %w", name, err)
	}
	return iface, nil
}
