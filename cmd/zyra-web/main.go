package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/zyrachess/zyra/internal/eco"
	"github.com/zyrachess/zyra/internal/httpapi"
	"github.com/zyrachess/zyra/internal/logx"
	"github.com/zyrachess/zyra/internal/search"
	"github.com/zyrachess/zyra/internal/tt"
)

var sizeSuffixes = []struct {
	suffix string
	shift  uint
}{
	{"kb", 10}, {"mb", 20}, {"gb", 30},
	{"k", 10}, {"m", 20}, {"g", 30},
}

// parseSize parses a size string like "512m", "4g" or "1024" into bytes.
func parseSize(s string) (int64, error) {
	in := s
	s = strings.TrimSpace(strings.ToLower(s))
	shift := uint(0)
	for _, sf := range sizeSuffixes {
		if strings.HasSuffix(s, sf.suffix) {
			s, shift = strings.TrimSuffix(s, sf.suffix), sf.shift
			break
		}
	}
	n, err := strconv.ParseInt(s, 10, 64)
	if err != nil || n < 0 {
		return 0, fmt.Errorf("invalid size %q", in)
	}
	return n << shift, nil
}

func envOr(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func main() {
	defaultAddr := ":8000"
	if port := os.Getenv("PORT"); port != "" {
		defaultAddr = ":" + port
	}

	var (
		addr     = flag.String("addr", defaultAddr, "listen address")
		style    = flag.String("style", envOr("ZYRA_STYLE", "default"), "engine style profile")
		moveTime = flag.Duration("movetime", httpapi.DefaultMoveTime, "engine thinking time per reply")
		playouts = flag.Int("playouts", 0, "playout cap per reply (unset = bounded by movetime)")
		seed     = flag.Uint64("seed", 0, "search seed")
		ttSize   = flag.String("tt-size", envOr("ZYRA_TT_SIZE", "64m"), "transposition table size (e.g. 64m, 1g)")
		ttFile   = flag.String("tt-file", "", "transposition table snapshot loaded at start and saved on shutdown")
		ecoDir   = flag.String("eco-dir", "./data/eco", "Directory containing ECO .tsv files")
	)
	flag.Parse()

	logger := logx.NewLogger()

	flag.Visit(func(f *flag.Flag) {
		if f.Name != "playouts" {
			return
		}
		if err := search.CheckPlayouts(*playouts); err != nil {
			logger.Fatal().Err(err).Int("playouts", *playouts).Msg("invalid playout cap")
		}
	})

	size, err := parseSize(*ttSize)
	if err != nil || size < 1<<20 {
		logger.Fatal().Err(err).Str("tt_size", *ttSize).Msg("transposition table size must be at least 1m")
	}
	mb := int(size >> 20)
	table := tt.NewMB(mb)
	if *ttFile != "" {
		n, err := table.LoadFile(*ttFile)
		if err != nil {
			logger.Warn().Err(err).Str("file", *ttFile).Msg("failed to load transposition table")
		} else {
			logger.Info().Int("entries", n).Str("file", *ttFile).Msg("transposition table loaded")
		}
	}
	engine := search.New(search.Options{TT: table, Logger: logger})

	// Load ECO opening database
	var ecoDB *eco.Database
	if *ecoDir != "" {
		ecoDB = eco.NewDatabase()
		if err := ecoDB.LoadDir(*ecoDir); err != nil {
			logger.Warn().Err(err).Str("dir", *ecoDir).Msg("failed to load ECO database")
			ecoDB = nil
		} else {
			logger.Info().Int("openings", ecoDB.Count()).Int("skipped", ecoDB.Skipped()).Msg("ECO database loaded")
		}
	}

	handler, err := httpapi.NewRouter(httpapi.Options{
		Engine:      engine,
		ECO:         ecoDB,
		Style:       *style,
		MoveTime:    *moveTime,
		MaxPlayouts: *playouts,
		Seed:        *seed,
		Logger:      logger,
	})
	if err != nil {
		logger.Fatal().Err(err).Msg("create router")
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	srv := &http.Server{
		Addr:         *addr,
		Handler:      handler,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 90 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		logger.Info().Str("addr", srv.Addr).Str("style", *style).Msg("web listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal().Err(err).Msg("web server")
		}
	}()

	<-ctx.Done()
	logger.Info().Msg("shutting down...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Warn().Err(err).Msg("http server shutdown error")
	}

	if *ttFile != "" {
		if err := table.SaveFile(*ttFile); err != nil {
			logger.Error().Err(err).Msg("transposition table save error")
		} else {
			logger.Info().Int("entries", table.Len()).Str("file", *ttFile).Msg("transposition table saved")
		}
	}

	logger.Info().Msg("shutdown complete")
}
