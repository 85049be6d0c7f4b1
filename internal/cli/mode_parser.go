package cli

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"strings"
)

const (
	ModeTerminal = "terminal"
	ModeBridge   = "bridge"
	ModeSession  = "session"
	ModeActivity = "activity"
)

// isKnownMode checks if the provided mode name is known.
func isKnownMode(s string) (string, bool) {
	switch s {
	case ModeTerminal, "term", "t":
		return ModeTerminal, true
	case ModeBridge, "ws", "b":
		return ModeBridge, true
	case ModeSession, "s":
		return ModeSession, true
	case ModeActivity, "a":
		return ModeActivity, true
	default:
		return "", false
	}
}

// ParseMode supports:
//
//	--mode=<value>
//	<value> (subcommand shorthand), e.g., `bridge --max-concurrent=50`
func ParseMode(args []string) (string, []string, error) {
	var mode string
	var out []string

	for i := range args {
		arg := args[i]
		if after, ok := strings.CutPrefix(arg, "--mode="); ok {
			mode = after
			continue
		}

		if mode == "" {
			if m, ok := isKnownMode(arg); ok {
				mode = m
				continue
			}
		}
		out = append(out, arg)
	}

	if mode == "" {
		return "", out, errors.New("no mode specified: use --mode=<mode>")
	}

	if m, ok := isKnownMode(mode); ok {
		mode = m
	}

	return mode, out, nil
}

// PrintUsage prints the usage information with examples.
func PrintUsage(w io.Writer) {
	fmt.Fprint(w, "\033[36m") // cyan

	fmt.Fprintln(w, `Usage:
  ./driver-portal --mode=<mode> [flags]

Modes:
  terminal      Interactive driver portal on stdin/stdout
  bridge        WebSocket server; every connection drives its own portal
  session       Inspect or clear the stored session
  activity      Tail portal activity events from RabbitMQ

Examples:
  ./driver-portal terminal --config=config/config.yaml
  ./driver-portal --mode=bridge --max-concurrent=200
  ./driver-portal session --clear
  ./driver-portal activity --prefetch=16`)

	fmt.Fprint(w, "\033[0m") // reset
}

// AttachUsage wires a concise per-mode usage to a FlagSet.
func AttachUsage(fs *flag.FlagSet, mode string) {
	fs.Usage = func() {
		fmt.Fprintf(fs.Output(), "Usage: ./driver-portal --mode=%s [flags]\n", mode)
		fs.PrintDefaults()
	}
}
