// ledgerctl drives the ledger engine from a terminal, against the same
// store and configuration as the server.
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/spf13/pflag"

	"ledger/internal/amqp"
	"ledger/internal/cli"
	"ledger/internal/config"
	"ledger/internal/log"
)

func main() {
	if err := run(os.Args[1:], os.Stdout, os.Stderr); err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			return
		}
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run(argv []string, stdout, stderr io.Writer) error {
	var (
		userID   int64
		envFile  string
		logLevel string
	)

	flagSet := pflag.NewFlagSet("ledgerctl", pflag.ContinueOnError)
	flagSet.SetOutput(stderr)
	// Everything after the subcommand is positional, so "add -200 Food" works
	flagSet.SetInterspersed(false)
	flagSet.Int64VarP(&userID, "user", "u", 0, "ledger owner id")
	flagSet.StringVar(&envFile, "env-file", ".env", "dotenv file to load before reading configuration")
	flagSet.StringVar(&logLevel, "log-level", "warn", "log level (debug, info, warn, error)")
	flagSet.Usage = func() { printHelp(stderr, flagSet) }

	if err := flagSet.Parse(argv); err != nil {
		return err
	}
	args := flagSet.Args()
	if len(args) == 0 {
		printHelp(stderr, flagSet)
		return errors.New("missing command")
	}
	command, rest := args[0], args[1:]

	if err := cli.LoadEnvFile(envFile); err != nil {
		return err
	}
	cfg, err := cli.LoadAndValidateConfig()
	if err != nil {
		return err
	}
	logger := cli.SetupLogger(parseLevel(logLevel), stderr).WithComponent(log.ComponentCLI)

	ctx, stop := cli.ShutdownContext(logger)
	defer stop()

	if command == "events" {
		return runEvents(ctx, cfg, stdout)
	}

	res, err := cli.InitBackend(ctx, logger, cfg)
	if err != nil {
		return fmt.Errorf("initialize backend: %w", err)
	}
	defer res.Cleanup()

	a := &app{svc: res.Service, out: stdout, userID: userID}
	return a.run(ctx, command, rest)
}

// runEvents prints every transaction event from the configured queue as a
// JSON line until interrupted.
func runEvents(ctx context.Context, cfg *config.Config, out io.Writer) error {
	if cfg.AMQPURL == "" {
		return errors.New("AMQP_URL is not configured")
	}
	client, err := amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue)
	if err != nil {
		return err
	}
	defer client.Close()

	err = client.ConsumeTransactionEvents(ctx, func(ev *amqp.TransactionEvent) error {
		data, err := ev.ToJSON()
		if err != nil {
			return err
		}
		_, err = fmt.Fprintln(out, string(data))
		return err
	})
	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}

func parseLevel(s string) slog.Level {
	var level slog.Level
	if err := level.UnmarshalText([]byte(s)); err != nil {
		return slog.LevelWarn
	}
	return level
}

func printHelp(w io.Writer, flagSet *pflag.FlagSet) {
	fmt.Fprintf(w, `ledgerctl manages a personal income and expense ledger.

Usage:
  ledgerctl [flags] <command> [args]

Commands:
  add <+|- amount [category] [| note]>   record a transaction
  delete <id>                            delete one of your transactions
  list                                   list all transactions
  balance                                income, expenses and balance
  stats                                  totals per category
  report [YYYY-MM]                       balance for one month (default: current)
  pie                                    expense share per category
  series                                 daily income and expense bars
  events                                 print transaction events from AMQP

Flags:
%s`, flagSet.FlagUsages())
}
