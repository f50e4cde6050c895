package eco_test

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/zyrachess/zyra/internal/eco"
	"github.com/zyrachess/zyra/internal/game"
)

const table = "eco\tname\tpgn\n" +
	"B00\tKing's Pawn Game\t1. e4\n" +
	"C50\tItalian Game\t1. e4 e5 2. Nf3 Nc6 3. Bc4\n" +
	"D06\tQueen's Gambit\t1. d4 d5 2. c4\n" +
	"A00\tBroken Line\t1. e4 Ke7 2. Qxf7\n"

func TestLoadAndLookup(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "a.tsv"), []byte(table), 0o644); err != nil {
		t.Fatal(err)
	}
	db := eco.NewDatabase()
	if err := db.LoadDir(dir); err != nil {
		t.Fatalf("LoadDir: %v", err)
	}
	if db.Count() != 3 || db.Skipped() != 1 {
		t.Fatalf("count %d skipped %d, want 3 and 1", db.Count(), db.Skipped())
	}

	tests := []struct {
		name  string
		moves string
		want  string
	}{
		{"start", "", ""},
		{"king pawn", "e2e4", "B00"},
		{"italian", "e2e4 e7e5 g1f3 b8c6 f1c4", "C50"},
		{"italian transposed", "e2e4 b8c6 g1f3 e7e5 f1c4", "C50"},
		{"queens gambit", "d2d4 d7d5 c2c4", "D06"},
		{"unknown", "a2a3", ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			g := game.New()
			for _, mv := range strings.Fields(tt.moves) {
				if err := g.ApplyUCI(mv); err != nil {
					t.Fatal(err)
				}
			}
			got := ""
			if o := db.Lookup(g.Position()); o != nil {
				got = o.ECO
			}
			if got != tt.want {
				t.Errorf("Lookup = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestLoadDirEmpty(t *testing.T) {
	if err := eco.NewDatabase().LoadDir(t.TempDir()); err == nil {
		t.Error("LoadDir on an empty directory succeeded")
	}
}
