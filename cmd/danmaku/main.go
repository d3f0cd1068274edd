// Command danmaku manages the account session of the danmaku web client
// from a terminal.
//
//	danmaku [-env-file path] <command> [flags]
//
// Commands: login, logout, whoami, register, update, check-username,
// reset-password, confirm-reset. Configuration is read from the
// environment and .env files, see webclient.Config.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/danmaku-system/webclient"
	"github.com/danmaku-system/webclient/pkg/logger"
)

var errUsage = errors.New("usage")

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, os.Args[1:], os.Stdout, os.Stderr); err != nil {
		if !errors.Is(err, errUsage) {
			fmt.Fprintln(os.Stderr, "error:", err)
		}
		os.Exit(1)
	}
}

func run(ctx context.Context, args []string, stdout, stderr io.Writer) error {
	fs := flag.NewFlagSet("danmaku", flag.ContinueOnError)
	fs.SetOutput(stderr)
	envFile := fs.String("env-file", "", "load configuration from this .env file")
	fs.Usage = func() {
		fmt.Fprintln(stderr, "usage: danmaku [-env-file path] <command> [flags]")
		fmt.Fprintln(stderr, "commands:")
		for _, c := range commands {
			fmt.Fprintf(stderr, "  %-16s %s\n", c.name, c.summary)
		}
	}
	if err := fs.Parse(args); err != nil {
		return errUsage
	}
	if fs.NArg() == 0 {
		fs.Usage()
		return errUsage
	}

	cmd, ok := lookup(fs.Arg(0))
	if !ok {
		fmt.Fprintf(stderr, "unknown command %q\n", fs.Arg(0))
		fs.Usage()
		return errUsage
	}

	var files []string
	if *envFile != "" {
		files = append(files, *envFile)
	}
	cfg, err := webclient.LoadConfig(files...)
	if err != nil {
		return err
	}

	log, err := logger.NewFromConfig(cfg.Log, webclient.ServiceName, logger.WithOutput(stderr))
	if err != nil {
		return err
	}
	logger.SetAsDefault(log)

	client, err := webclient.New(ctx, cfg, webclient.WithLogger(log))
	if err != nil {
		return err
	}
	defer func() {
		if err := client.Close(context.WithoutCancel(ctx)); err != nil {
			log.WarnContext(ctx, "failed to close client", logger.Error(err))
		}
	}()

	if err := client.Start(ctx); err != nil {
		// commands still run; the server rejects what needs the token
		log.WarnContext(ctx, "csrf handshake failed", logger.Error(err))
	}

	return cmd.run(ctx, client, fs.Args()[1:], stdout, stderr)
}
