// Command wallet manages a local loyalty card wallet and moves it between
// devices as CSV, JSON or YAML.
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/roach88/wallet/internal/cli"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	code := cli.Execute(ctx, os.Args[1:], os.Stdin, os.Stdout, os.Stderr)
	stop()
	os.Exit(code)
}
