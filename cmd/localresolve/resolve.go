package main

import (
	"context"
	"errors"
	"fmt"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/xfalcon/localresolve/resolver"
)

var resolveFlags struct {
	attempts int
	timeout  time.Duration
	iface    string
}

var resolveCmd = &cobra.Command{
	Use:   "resolve <host>",
	Short: "Resolve one .local host and print its IPv4 address",
	Args:  cobra.ExactArgs(1),
	RunE:  runResolve,
}

func init() {
	f := resolveCmd.Flags()
	f.IntVar(&resolveFlags.attempts, "attempts", resolver.DefaultAttempts, "number of receive attempts")
	f.DurationVar(&resolveFlags.timeout, "timeout", resolver.DefaultAttemptTimeout, "timeout of each receive attempt")
	f.StringVar(&resolveFlags.iface, "interface", "", "network interface to query on (default all)")
}

func runResolve(cmd *cobra.Command, args []string) error {
	logger, err := newLogger(logLevel, "warn")
	if err != nil {
		return err
	}

	opts := []resolver.Option{
		resolver.WithAttempts(resolveFlags.attempts),
		resolver.WithAttemptTimeout(resolveFlags.timeout),
		resolver.WithLogger(logger),
	}
	iface, err := lookupInterface(resolveFlags.iface)
	if err != nil {
		return err
	}
	if iface != nil {
		opts = append(opts, resolver.WithInterfaces(*iface))
	}

	r, err := resolver.New(opts...)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	addr, err := r.Resolve(ctx, args[0])
	switch {
	case errors.Is(err, resolver.ErrExhausted):
		return fmt.Errorf("%s: no answer after %d attempts", args[0], resolveFlags.attempts)
	case errors.Is(err, context.Canceled):
		return fmt.Errorf("%s: interrupted", args[0])
	case err != nil:
		return err
	}

	fmt.Fprintln(cmd.OutOrStdout(), addr)
	return nil
}
