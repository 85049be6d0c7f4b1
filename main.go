package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"driver-portal/cmd/activity"
	"driver-portal/cmd/bridge"
	sessiontool "driver-portal/cmd/session"
	"driver-portal/cmd/terminal"
	"driver-portal/internal/cli"
)

const defaultConfig = "config/config.yaml"

func main() {
	// quick path for global help
	if len(os.Args) == 2 && (os.Args[1] == "--help" || os.Args[1] == "-h") {
		cli.PrintUsage(os.Stdout)
		os.Exit(0)
	}

	// parse mode and collect the remaining args for that mode
	mode, modeArgs, err := cli.ParseMode(os.Args[1:])
	if err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		cli.PrintUsage(os.Stderr)
		os.Exit(2)
	}

	// context cancelled on SIGINT/SIGTERM for graceful shutdown
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	switch mode {

	case cli.ModeTerminal:
		fs := flag.NewFlagSet(cli.ModeTerminal, flag.ContinueOnError)
		configPath := fs.String("config", defaultConfig, "Path to the YAML config file")
		cli.AttachUsage(fs, cli.ModeTerminal)
		parseOrExit(fs, modeArgs)

		if err := terminal.Run(ctx, *configPath); err != nil {
			fmt.Fprintln(os.Stderr, "Error:", err)
			os.Exit(1)
		}

	case cli.ModeBridge:
		fs := flag.NewFlagSet(cli.ModeBridge, flag.ContinueOnError)
		configPath := fs.String("config", defaultConfig, "Path to the YAML config file")
		maxConc := fs.Int("max-concurrent", 100, "Maximum number of concurrent connections, WebSockets included")
		cli.AttachUsage(fs, cli.ModeBridge)
		parseOrExit(fs, modeArgs)

		if *maxConc < 1 {
			fmt.Fprintln(os.Stderr, "Error: --max-concurrent must be >= 1")
			fs.Usage()
			os.Exit(2)
		}
		if err := bridge.Run(ctx, *configPath, *maxConc); err != nil {
			fmt.Fprintln(os.Stderr, "Error:", err)
			os.Exit(1)
		}

	case cli.ModeSession:
		fs := flag.NewFlagSet(cli.ModeSession, flag.ContinueOnError)
		configPath := fs.String("config", defaultConfig, "Path to the YAML config file")
		device := fs.String("device", cli.LocalDevice, "Device whose session to inspect")
		clearSession := fs.Bool("clear", false, "Remove the stored session instead of printing it")
		cli.AttachUsage(fs, cli.ModeSession)
		parseOrExit(fs, modeArgs)

		if err := sessiontool.Run(ctx, *configPath, *device, *clearSession, os.Stdout); err != nil {
			fmt.Fprintln(os.Stderr, "Error:", err)
			os.Exit(1)
		}

	case cli.ModeActivity:
		fs := flag.NewFlagSet(cli.ModeActivity, flag.ContinueOnError)
		configPath := fs.String("config", defaultConfig, "Path to the YAML config file")
		prefetch := fs.Int("prefetch", 8, "RabbitMQ prefetch count for the consumer channel")
		cli.AttachUsage(fs, cli.ModeActivity)
		parseOrExit(fs, modeArgs)

		if *prefetch <= 0 {
			fmt.Fprintln(os.Stderr, "Error: --prefetch must be > 0")
			fs.Usage()
			os.Exit(2)
		}
		if err := activity.Run(ctx, *configPath, *prefetch, os.Stdout); err != nil {
			fmt.Fprintln(os.Stderr, "Error:", err)
			os.Exit(1)
		}

	default:
		fmt.Fprintln(os.Stderr, "Error: unknown mode", mode)
		cli.PrintUsage(os.Stderr)
		os.Exit(2)
	}

	// tiny delay to let deferred logs flush on very fast exits
	select {
	case <-ctx.Done():
	case <-time.After(10 * time.Millisecond):
	}
}

// parseOrExit parses mode flags, exiting 0 on -h and 2 on bad input.
func parseOrExit(fs *flag.FlagSet, args []string) {
	if err := fs.Parse(args); err != nil {
		if err == flag.ErrHelp {
			os.Exit(0)
		}
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(2)
	}
}
