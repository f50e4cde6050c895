// Command zyra-cli runs developer tooling against the engine: perft,
// position analysis, self-play and style comparisons.
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

	"github.com/rs/zerolog"

	"github.com/zyrachess/zyra/internal/logx"
)

type command struct {
	name  string
	usage string
	run   func(c *cli, args []string) error
}

var commands = []command{
	{"perft", "perft [--fen FEN] [--divide] DEPTH", runPerft},
	{"analyze", "analyze [--playouts N] [--movetime MS] [--style NAME] [--search=false] FEN", runAnalyze},
	{"apply", "apply [--fen FEN] MOVE...", runApply},
	{"play", "play [--fen FEN] [--movetime MS] [--nodes N] [--max-plies N]", runPlay},
	{"profile-style", "profile-style [--profile NAME] FEN", runProfileStyle},
	{"stability", "stability [--games N] [--max-plies N] [--movetime MS] [--nodes N] [--fen FEN] [-v]", runStability},
	{"styles", "styles [--nodes N] [--seed N] FEN", runStyles},
	{"pgn", "pgn [--eco-dir DIR] [--max-games N] FILE", runPGN},
	{"compare", "compare [--engine PATH] [--depth N] [--nodes N] FEN", runCompare},
}

// cli carries the shared state of one invocation.
type cli struct {
	ctx context.Context
	out io.Writer
	log zerolog.Logger
}

func (c *cli) printf(format string, args ...any) {
	fmt.Fprintf(c.out, format, args...)
}

var errUsage = errors.New("usage")

func usage(w io.Writer) {
	fmt.Fprintln(w, "Usage: zyra-cli <command> [options]")
	fmt.Fprintln(w, "Commands:")
	for _, cmd := range commands {
		fmt.Fprintf(w, "  %s\n", cmd.usage)
	}
}

func dispatch(c *cli, args []string) error {
	if len(args) == 0 {
		return errUsage
	}
	for _, cmd := range commands {
		if cmd.name == args[0] {
			return cmd.run(c, args[1:])
		}
	}
	return fmt.Errorf("%w: unknown command %q", errUsage, args[0])
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	c := &cli{
		ctx: ctx,
		out: os.Stdout,
		log: logx.NewLoggerTo(os.Stderr, os.Getenv("ZYRA_LOG_LEVEL")),
	}
	err := dispatch(c, os.Args[1:])
	switch {
	case err == nil:
	case errors.Is(err, flag.ErrHelp):
		usage(os.Stderr)
		os.Exit(2)
	case errors.Is(err, errUsage):
		if err != errUsage {
			fmt.Fprintln(os.Stderr, err)
		}
		usage(os.Stderr)
		os.Exit(2)
	default:
		c.log.Error().Err(err).Str("command", os.Args[1]).Msg("command failed")
		os.Exit(1)
	}
}
