// Command tracker serves an in-memory project, task and ticket tracker over
// the Model Context Protocol.
package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"
)

const version = "0.1.0"

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	code := run(ctx, os.Args[1:], os.Stdin, os.Stdout, os.Stderr)
	stop()
	os.Exit(code)
}

// run dispatches a subcommand and returns the process exit code. With no
// subcommand, or with only flags, it serves.
func run(ctx context.Context, args []string, stdin io.Reader, stdout, stderr io.Writer) int {
	cmd := "serve"
	if len(args) > 0 && !strings.HasPrefix(args[0], "-") {
		cmd, args = args[0], args[1:]
	} else if len(args) > 0 {
		switch args[0] {
		case "--help", "-h":
			cmd, args = "help", args[1:]
		case "--version", "-v":
			cmd, args = "version", args[1:]
		}
	}

	a := &app{stdin: stdin, stdout: stdout, stderr: stderr}
	switch cmd {
	case "help":
		printUsage(stdout)
		return 0
	case "version":
		fmt.Fprintln(stdout, "tracker", version)
		return 0
	case "serve":
		return a.cmdServe(ctx, args)
	case "call":
		return a.cmdCall(args)
	case "tools":
		return a.cmdTools(args)
	case "seed":
		return a.cmdSeed(args)
	default:
		fmt.Fprintf(stderr, "tracker: unknown command %q\n", cmd)
		fmt.Fprintln(stderr, "Run 'tracker --help' for usage.")
		return 1
	}
}

func printUsage(w io.Writer) {
	fmt.Fprint(w, `tracker — projects, tasks and tickets for MCP clients

All state lives in memory and is reseeded on every start.

Usage:
  tracker [command] [flags]

Commands:
  serve                     Serve MCP over stdio (default) or HTTP
  call <tool> [json]        Run one tool against a fresh store, print JSON
  tools                     List the tool catalog
  seed                      Print the seed data the store starts with
  version                   Print the version

Flags (all commands):
  --config PATH             JSONC config file
  --backend memory|sqlite   Store backend (default: memory)
  --seed PATH               Seed file (.yaml, .yml, .json, .jsonc)
  --log-level LEVEL         debug, info, warn or error (default: info)
  --log-format text|json    Log format on stderr (default: text)

Serve flags:
  --transport stdio|http    Transport (default: stdio)
  --addr HOST:PORT          HTTP listen address (default: 127.0.0.1:8080)
  --path PATH               HTTP endpoint path (default: /mcp)

Environment:
  TRACKER_CONFIG, TRACKER_TRANSPORT, TRACKER_ADDR, TRACKER_PATH,
  TRACKER_BACKEND, TRACKER_SEED, TRACKER_LOG_LEVEL, TRACKER_LOG_FORMAT

Precedence: flags, then environment, then config file, then defaults.

Exit codes:
  0  success
  1  error
`)
}

func envOr(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}
