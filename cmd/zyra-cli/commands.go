package main

import (
	"cmp"
	"errors"
	"flag"
	"fmt"
	"io"
	"slices"
	"strconv"
	"strings"
	"sync/atomic"
	"time"

	"github.com/samber/lo"
	"golang.org/x/sync/errgroup"

	"github.com/zyrachess/zyra/internal/board"
	"github.com/zyrachess/zyra/internal/eco"
	"github.com/zyrachess/zyra/internal/eval"
	"github.com/zyrachess/zyra/internal/game"
	"github.com/zyrachess/zyra/internal/reference"
	"github.com/zyrachess/zyra/internal/search"
	"github.com/zyrachess/zyra/internal/selfplay"
)

// Engines created by the CLI use a small table; every command is short.
const cliTTEntries = 1 << 18

func newFlagSet(name string) *flag.FlagSet {
	fs := flag.NewFlagSet(name, flag.ContinueOnError)
	fs.SetOutput(io.Discard)
	return fs
}

// playoutFlags name the flags that carry an explicit playout cap.
var playoutFlags = []string{"nodes", "playouts"}

func parseFlags(fs *flag.FlagSet, args []string) error {
	err := fs.Parse(args)
	if err != nil && !errors.Is(err, flag.ErrHelp) {
		return fmt.Errorf("%w: %s: %v", errUsage, fs.Name(), err)
	}
	if err != nil {
		return err
	}
	fs.Visit(func(f *flag.Flag) {
		if err != nil || !slices.Contains(playoutFlags, f.Name) {
			return
		}
		n, _ := strconv.Atoi(f.Value.String())
		if cerr := search.CheckPlayouts(n); cerr != nil {
			err = fmt.Errorf("%w: %s: -%s %s: %v", errUsage, fs.Name(), f.Name, f.Value, cerr)
		}
	})
	return err
}

func (c *cli) newEngine() *search.Engine {
	return search.New(search.Options{TTEntries: cliTTEntries, Logger: c.log})
}

// startPosition parses fen, or returns the initial position when it is empty.
func startPosition(fen string) (*board.Position, error) {
	if fen == "" {
		return board.NewPosition(), nil
	}
	return board.ParseFEN(fen)
}

// fenArg joins the positional arguments so an unquoted FEN also works.
func fenArg(fs *flag.FlagSet) (string, error) {
	if fs.NArg() == 0 {
		return "", fmt.Errorf("%w: %s needs a FEN", errUsage, fs.Name())
	}
	return strings.Join(fs.Args(), " "), nil
}

func runPerft(c *cli, args []string) error {
	fs := newFlagSet("perft")
	fen := fs.String("fen", "", "starting position")
	divide := fs.Bool("divide", false, "print the count below each root move")
	if err := parseFlags(fs, args); err != nil {
		return err
	}
	if fs.NArg() != 1 {
		return fmt.Errorf("%w: perft needs a depth", errUsage)
	}
	depth, err := strconv.Atoi(fs.Arg(0))
	if err != nil || depth < 0 {
		return fmt.Errorf("%w: bad depth %q", errUsage, fs.Arg(0))
	}
	pos, err := startPosition(*fen)
	if err != nil {
		return err
	}

	c.printf("Running perft test to depth %d\n", depth)
	start := time.Now()
	var total uint64
	if *divide && depth > 0 {
		for _, e := range board.Divide(pos, depth) {
			c.printf("%s: %d\n", e.Move, e.Nodes)
			total += e.Nodes
		}
	} else {
		total = board.Perft(pos, depth)
	}
	c.printf("Perft(%d) = %d\n", depth, total)
	c.log.Debug().Int("depth", depth).Uint64("nodes", total).Dur("elapsed", time.Since(start)).Msg("perft done")
	return nil
}

func runAnalyze(c *cli, args []string) error {
	fs := newFlagSet("analyze")
	playouts := fs.Int("playouts", 2000, "playouts to search")
	doSearch := fs.Bool("search", true, "search the position after describing it")
	moveTime := fs.Int("movetime", 0, "search time in ms")
	style := fs.String("style", "", "style profile")
	top := fs.Int("top", 5, "root moves to list")
	if err := parseFlags(fs, args); err != nil {
		return err
	}
	fen, err := fenArg(fs)
	if err != nil {
		return err
	}
	pos, err := board.ParseFEN(fen)
	if err != nil {
		return err
	}

	c.printf("Position:\n%s\n", pos)
	c.printf("Legal moves: %d\n", len(pos.LegalMoves()))
	if st := pos.Status(board.NewHistory(pos.Hash())); st.Terminal() {
		c.printf("Status: %s\n", st)
		return nil
	}
	if !*doSearch {
		return nil
	}

	res, err := c.newEngine().Search(c.ctx, pos, search.Config{
		MaxPlayouts: *playouts,
		MoveTime:    time.Duration(*moveTime) * time.Millisecond,
		Style:       *style,
	})
	if err != nil {
		return err
	}
	c.printf("Best move: %s (%+d cp, %d playouts, %s)\n", res.Move, res.ScoreCP, res.Playouts, res.Elapsed.Round(time.Millisecond))
	c.printf("PV: %s\n", joinMoves(res.PV))
	children := slices.Clone(res.Children)
	slices.SortStableFunc(children, func(a, b search.ChildStat) int { return cmp.Compare(b.Visits, a.Visits) })
	for _, ch := range lo.Slice(children, 0, *top) {
		c.printf("  %-6s visits %6d  mean %+.3f\n", ch.UCI, ch.Visits, ch.Mean)
	}
	return nil
}

func joinMoves(ms []board.Move) string {
	return strings.Join(lo.Map(ms, func(m board.Move, _ int) string { return m.String() }), " ")
}

func runApply(c *cli, args []string) error {
	fs := newFlagSet("apply")
	fen := fs.String("fen", "", "starting position")
	if err := parseFlags(fs, args); err != nil {
		return err
	}
	if fs.NArg() == 0 {
		return fmt.Errorf("%w: apply needs at least one move", errUsage)
	}
	g := game.New()
	if *fen != "" {
		var err error
		if g, err = game.FromFEN(*fen); err != nil {
			return err
		}
	}
	for _, u := range fs.Args() {
		err := g.ApplyUCI(u)
		switch {
		case errors.Is(err, board.ErrIllegalMove):
			c.printf("Ignoring illegal move: %s\n", u)
		case err != nil:
			c.printf("Skipping malformed move '%s': %v\n", u, err)
		}
	}
	c.printf("%s\n", g.Position())
	return nil
}

// budgetFlags registers the per-move search bounds shared by the game commands.
func budgetFlags(fs *flag.FlagSet) (moveTime, nodes *int) {
	moveTime = fs.Int("movetime", 0, "move time in ms (per move)")
	nodes = fs.Int("nodes", 0, "max playouts per move")
	return moveTime, nodes
}

// playBudget falls back to a small playout cap when neither bound is given.
func playBudget(moveTime, nodes int) (time.Duration, int) {
	if moveTime <= 0 && nodes <= 0 {
		nodes = 400
	}
	return time.Duration(max(moveTime, 0)) * time.Millisecond, max(nodes, 0)
}

func runPlay(c *cli, args []string) error {
	fs := newFlagSet("play")
	fen := fs.String("fen", "", "starting position")
	moveTime, nodes := budgetFlags(fs)
	maxPlies := fs.Int("max-plies", 10, "maximum plies to play")
	white := fs.String("white", "", "style for White")
	black := fs.String("black", "", "style for Black")
	seed := fs.Uint64("seed", 0, "seed of the first search")
	if err := parseFlags(fs, args); err != nil {
		return err
	}
	mt, n := playBudget(*moveTime, *nodes)
	out, err := selfplay.Play(c.ctx, c.newEngine(), selfplay.Options{
		StartFEN:   *fen,
		MaxPlies:   *maxPlies,
		Playouts:   n,
		MoveTime:   mt,
		WhiteStyle: *white,
		BlackStyle: *black,
		Seed:       *seed,
	})
	if err != nil {
		return err
	}
	c.printf("Played plies: %d\n", len(out.Moves))
	if len(out.Moves) > 0 {
		c.printf("Moves: %s\n", strings.Join(out.Moves, " "))
	}
	c.printf("Result: %s (%s)\n", out.Result, out.Status)
	pos, err := board.ParseFEN(out.FinalFEN)
	if err != nil {
		return err
	}
	c.printf("Final position:\n%s\n", pos)
	return nil
}

func runProfileStyle(c *cli, args []string) error {
	fs := newFlagSet("profile-style")
	profile := fs.String("profile", "", "style profile (default when empty)")
	if err := parseFlags(fs, args); err != nil {
		return err
	}
	fen, err := fenArg(fs)
	if err != nil {
		return err
	}
	pos, err := board.ParseFEN(fen)
	if err != nil {
		return err
	}
	style, err := eval.LookupStyle(*profile)
	if err != nil {
		return err
	}

	res := eval.Evaluate(pos, style.Weights)
	name := *profile
	if name == "" {
		name = "<default>"
	}
	c.printf("Style profile: %s\n", name)
	c.printf("Terms:\n")
	for t := eval.Term(0); t < eval.NumTerms; t++ {
		c.printf("  %s: %.2f x %.2f = %.2f\n", t, res.Terms[t], res.Weights[t], res.Contribution(t))
	}
	c.printf("Total (cp): %.2f\n", res.Total)
	return nil
}

func runStability(c *cli, args []string) error {
	fs := newFlagSet("stability")
	games := fs.Int("games", 10, "number of games to run")
	maxPlies := fs.Int("max-plies", 40, "maximum plies per game")
	moveTime, nodes := budgetFlags(fs)
	fen := fs.String("fen", "", "starting position")
	workers := fs.Int("workers", 4, "games run in parallel")
	verbose := fs.Bool("v", false, "verbose output")
	if err := parseFlags(fs, args); err != nil {
		return err
	}
	if *games < 1 || *workers < 1 {
		return fmt.Errorf("%w: games and workers must be positive", errUsage)
	}
	mt, n := playBudget(*moveTime, *nodes)

	var completed atomic.Int32
	g, ctx := errgroup.WithContext(c.ctx)
	g.SetLimit(*workers)
	for i := 1; i <= *games; i++ {
		g.Go(func() error {
			if *verbose {
				c.log.Info().Int("game", i).Int("games", *games).Msg("starting stability game")
			}
			out, err := selfplay.Play(ctx, c.newEngine(), selfplay.Options{
				StartFEN: *fen,
				MaxPlies: *maxPlies,
				Playouts: n,
				MoveTime: mt,
				Seed:     uint64(i) << 32,
			})
			if err != nil {
				return fmt.Errorf("stability run aborted on game %d: %w", i, err)
			}
			completed.Add(1)
			if *verbose {
				c.log.Info().Int("game", i).Int("plies", len(out.Moves)).Str("result", out.Result).Str("status", out.Status).Msg("stability game done")
			}
			return nil
		})
	}
	err := g.Wait()
	c.printf("Stability: completed %d/%d games\n", completed.Load(), *games)
	return err
}

// styleRun is one profile's choice in a position.
type styleRun struct {
	style string
	res   search.Result
}

// searchStyles searches pos once per built-in style in parallel. Each search
// gets its own engine so the runs do not share a table.
func (c *cli) searchStyles(pos *board.Position, playouts int, seed uint64) ([]styleRun, error) {
	names := eval.StyleNames()
	runs := make([]styleRun, len(names))
	g, ctx := errgroup.WithContext(c.ctx)
	for i, name := range names {
		g.Go(func() error {
			res, err := c.newEngine().Search(ctx, pos, search.Config{MaxPlayouts: playouts, Seed: seed, Style: name})
			if err != nil {
				return fmt.Errorf("style %s: %w", name, err)
			}
			runs[i] = styleRun{style: name, res: res}
			return nil
		})
	}
	return runs, g.Wait()
}

func runStyles(c *cli, args []string) error {
	fs := newFlagSet("styles")
	nodes := fs.Int("nodes", 2000, "playouts per style")
	seed := fs.Uint64("seed", 1, "search seed")
	if err := parseFlags(fs, args); err != nil {
		return err
	}
	fen, err := fenArg(fs)
	if err != nil {
		return err
	}
	pos, err := board.ParseFEN(fen)
	if err != nil {
		return err
	}
	runs, err := c.searchStyles(pos, *nodes, *seed)
	if err != nil {
		return err
	}
	for _, r := range runs {
		c.printf("%-13s %-6s %+5d cp  pv %s\n", r.style, r.res.Move, r.res.ScoreCP, joinMoves(r.res.PV))
	}
	distinct := lo.Uniq(lo.Map(runs, func(r styleRun, _ int) board.Move { return r.res.Move }))
	c.printf("Distinct moves: %d/%d\n", len(distinct), len(runs))
	return nil
}

func runPGN(c *cli, args []string) error {
	fs := newFlagSet("pgn")
	ecoDir := fs.String("eco-dir", "", "directory of ECO .tsv files")
	maxGames := fs.Int("max-games", 0, "stop after N games (0 = all)")
	if err := parseFlags(fs, args); err != nil {
		return err
	}
	if fs.NArg() != 1 {
		return fmt.Errorf("%w: pgn needs a file", errUsage)
	}

	var db *eco.Database
	if *ecoDir != "" {
		db = eco.NewDatabase()
		if err := db.LoadDir(*ecoDir); err != nil {
			return err
		}
		c.log.Debug().Int("openings", db.Count()).Msg("ECO database loaded")
	}

	errStop := errors.New("max games reached")
	seen, failed := 0, 0
	err := game.ReplayPGN(c.ctx, fs.Arg(0), func(rec game.Record) error {
		seen++
		line := fmt.Sprintf("#%d %s - %s %s: %d plies, %s", rec.Index+1,
			lo.ValueOr(rec.Tags, "White", "?"), lo.ValueOr(rec.Tags, "Black", "?"),
			lo.ValueOr(rec.Tags, "Result", "*"), rec.Game.Ply(), rec.Game.Status())
		if o := openingOf(db, rec.Game); o != nil {
			line += fmt.Sprintf(", %s %s", o.ECO, o.Name)
		}
		if rec.Err != nil {
			failed++
			line += fmt.Sprintf(" (stopped: %v)", rec.Err)
		}
		c.printf("%s\n", line)
		if *maxGames > 0 && seen >= *maxGames {
			return errStop
		}
		return nil
	})
	if err != nil && !errors.Is(err, errStop) {
		return err
	}
	c.printf("Games: %d, replay errors: %d\n", seen, failed)
	return nil
}

// openingOf returns the deepest ECO classification reached by the game.
func openingOf(db *eco.Database, g *game.Game) *eco.Opening {
	if db == nil {
		return nil
	}
	pos, err := board.ParseFEN(g.StartFEN())
	if err != nil {
		return nil
	}
	found := db.Lookup(pos)
	for _, m := range g.Moves() {
		pos.Make(m)
		if o := db.Lookup(pos); o != nil {
			found = o
		}
	}
	return found
}

func runCompare(c *cli, args []string) error {
	fs := newFlagSet("compare")
	enginePath := fs.String("engine", "", "reference engine binary (default $STOCKFISH_PATH)")
	depth := fs.Int("depth", 16, "reference search depth")
	nodes := fs.Int("nodes", 2000, "playouts per style")
	seed := fs.Uint64("seed", 1, "search seed")
	if err := parseFlags(fs, args); err != nil {
		return err
	}
	fen, err := fenArg(fs)
	if err != nil {
		return err
	}
	pos, err := board.ParseFEN(fen)
	if err != nil {
		return err
	}
	ref, err := reference.New(reference.Config{Path: *enginePath, Depth: *depth, Logger: c.log})
	if err != nil {
		return err
	}
	defer ref.Close()

	best, err := ref.Evaluate(pos.FEN(), *depth)
	if err != nil {
		return err
	}
	mover := pos.SideToMove().String()
	c.printf("Reference: %s\n", formatScore(best.ForMover(mover)))

	runs, err := c.searchStyles(pos, *nodes, *seed)
	if err != nil {
		return err
	}
	for _, r := range runs {
		next := pos.Clone()
		next.Make(r.res.Move)
		s, err := ref.Evaluate(next.FEN(), *depth)
		if err != nil {
			return err
		}
		c.printf("%-13s %-6s %s\n", r.style, r.res.Move, formatScore(s.ForMover(mover)))
	}
	return nil
}

func formatScore(s reference.Score) string {
	if s.IsMate {
		return fmt.Sprintf("mate %d (depth %d)", s.Mate, s.Depth)
	}
	return fmt.Sprintf("%+d cp (depth %d)", s.CP, s.Depth)
}
