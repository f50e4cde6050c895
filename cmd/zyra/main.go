// Command zyra is the UCI engine. Protocol traffic uses stdin and stdout;
// logs go to stderr.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/zyrachess/zyra/internal/logx"
	"github.com/zyrachess/zyra/internal/protocol"
	"github.com/zyrachess/zyra/internal/search"
	"github.com/zyrachess/zyra/internal/tt"
)

func main() {
	var (
		hashMB   = flag.Int("hash", protocol.DefaultHashMB, "transposition table size in MB")
		logLevel = flag.String("log-level", os.Getenv("ZYRA_LOG_LEVEL"), "log level (debug, info, warn, error)")
		ttFile   = flag.String("tt-file", "", "transposition table snapshot loaded at start and saved at exit")
	)
	flag.Parse()

	logger := logx.NewLoggerTo(os.Stderr, *logLevel)

	table := tt.NewMB(*hashMB)
	if *ttFile != "" {
		n, err := table.LoadFile(*ttFile)
		if err != nil {
			logger.Warn().Err(err).Str("file", *ttFile).Msg("failed to load transposition table")
		} else {
			logger.Info().Int("entries", n).Msg("transposition table loaded")
		}
	}
	engine := search.New(search.Options{TT: table, Logger: logger})

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	h := protocol.New(engine, os.Stdout, logger)
	err := h.Run(ctx, os.Stdin)

	if *ttFile != "" {
		if err := h.Engine().TT().SaveFile(*ttFile); err != nil {
			logger.Error().Err(err).Msg("transposition table save error")
		}
	}
	if err != nil && err != context.Canceled {
		fmt.Fprintln(os.Stderr, "zyra:", err)
		os.Exit(1)
	}
}
