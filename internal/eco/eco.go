// Package eco provides ECO (Encyclopedia of Chess Openings) lookup.
package eco

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/freeeve/pgn/v3"

	"github.com/zyrachess/zyra/internal/board"
	"github.com/zyrachess/zyra/internal/game"
)

// Opening represents an ECO opening classification.
type Opening struct {
	ECO  string `json:"eco"`
	Name string `json:"name"`
}

// Database holds ECO opening data indexed by Zobrist hash.
type Database struct {
	byHash  map[uint64]Opening
	count   int
	skipped int
}

// NewDatabase creates an empty ECO database.
func NewDatabase() *Database {
	return &Database{byHash: make(map[uint64]Opening)}
}

// moveNumberRegex matches move numbers like "1." or "12..."
var moveNumberRegex = regexp.MustCompile(`\d+\.+\s*`)

// LoadDir loads all .tsv files from a directory.
func (db *Database) LoadDir(dir string) error {
	files, err := filepath.Glob(filepath.Join(dir, "*.tsv"))
	if err != nil {
		return err
	}
	if len(files) == 0 {
		return fmt.Errorf("no .tsv files found in %s", dir)
	}

	for _, file := range files {
		if err := db.LoadFile(file); err != nil {
			return fmt.Errorf("load %s: %w", file, err)
		}
	}
	return nil
}

// LoadFile loads a single TSV file.
func (db *Database) LoadFile(path string) error {
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()
	return db.Load(f)
}

// Load reads eco\tname\tpgn lines. Lines whose moves do not replay are
// counted in Skipped and otherwise ignored.
func (db *Database) Load(r io.Reader) error {
	scanner := bufio.NewScanner(r)
	lineNum := 0

	for scanner.Scan() {
		lineNum++
		line := scanner.Text()

		// Skip header
		if lineNum == 1 && strings.HasPrefix(line, "eco\t") {
			continue
		}

		parts := strings.SplitN(line, "\t", 3)
		if len(parts) != 3 {
			continue
		}

		pos, err := replaySAN(parts[2])
		if err != nil {
			db.skipped++
			continue
		}
		db.byHash[pos.Hash()] = Opening{ECO: parts[0], Name: parts[1]}
		db.count++
	}

	return scanner.Err()
}

// replaySAN applies a move list like "1. e4 e5 2. Nf3 Nc6" from the start
// position. SAN is resolved by the pgn parser and replayed on our board.
func replaySAN(moves string) (*board.Position, error) {
	gs := pgn.NewStartingPosition()
	g := game.New()

	cleaned := moveNumberRegex.ReplaceAllString(moves, "")
	for _, san := range strings.Fields(cleaned) {
		if san[0] == '$' || san[0] == '{' {
			continue
		}
		san = strings.TrimRight(san, "+#!?")

		mv, err := pgn.ParseSAN(gs, san)
		if err != nil {
			return nil, fmt.Errorf("parse %q: %w", san, err)
		}
		if err := pgn.ApplyMove(gs, mv); err != nil {
			return nil, fmt.Errorf("apply %q: %w", san, err)
		}
		if err := g.ApplyUCI(game.UCIFromPGN(mv)); err != nil {
			return nil, fmt.Errorf("replay %q: %w", san, err)
		}
	}
	return g.Position(), nil
}

// Lookup returns the ECO opening for a position, or nil if not found.
func (db *Database) Lookup(pos *board.Position) *Opening {
	if o, ok := db.byHash[pos.Hash()]; ok {
		return &o
	}
	return nil
}

// Count returns the number of openings loaded.
func (db *Database) Count() int { return db.count }

// Skipped returns the number of lines that failed to replay.
func (db *Database) Skipped() int { return db.skipped }
