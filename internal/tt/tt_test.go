package tt

import (
	"bytes"
	"errors"
	"path/filepath"
	"testing"

	"github.com/zyrachess/zyra/internal/board"
)

func TestNewRoundsToPowerOfTwo(t *testing.T) {
	tests := []struct {
		entries int
		want    int
	}{
		{0, MinEntries},
		{1000, MinEntries},
		{1025, 2048},
		{4096, 4096},
	}
	for _, tt := range tests {
		if got := New(tt.entries).Capacity(); got != tt.want {
			t.Errorf("New(%d).Capacity() = %d, want %d", tt.entries, got, tt.want)
		}
	}
	if got := NewMB(1).Capacity(); got != 32768 {
		t.Errorf("NewMB(1).Capacity() = %d, want 32768", got)
	}
}

func TestStoreMergesSameKey(t *testing.T) {
	tab := New(MinEntries)
	tab.Store(42, 3, 1.5)
	tab.Store(42, 2, -0.5)
	e, ok := tab.Probe(42)
	if !ok {
		t.Fatal("entry missing")
	}
	if e.Visits != 5 || e.Value != 1.0 {
		t.Errorf("merged entry = %+v, want visits 5 value 1.0", e)
	}
	if tab.Len() != 1 {
		t.Errorf("Len = %d, want 1", tab.Len())
	}
}

func TestStoreOverwritesCollision(t *testing.T) {
	tab := New(MinEntries)
	a := uint64(7)
	b := a + uint64(tab.Capacity()) // same slot, different key
	tab.Store(a, 10, 4)
	tab.SetHint(a, board.NewMove(board.E1, board.G1, board.NoPieceType, board.FlagCastle))
	tab.Store(b, 1, 0.25)

	if _, ok := tab.Probe(a); ok {
		t.Error("evicted key still found")
	}
	e, ok := tab.Probe(b)
	if !ok || e.Visits != 1 || e.Value != 0.25 || e.Hint != board.NoMove {
		t.Errorf("Probe(b) = %+v, %v", e, ok)
	}
	st := tab.Stats()
	if st.Overwrites != 1 || st.Used != 1 || st.Stores != 2 {
		t.Errorf("unexpected stats %+v", st)
	}
}

func TestProbeMiss(t *testing.T) {
	tab := New(MinEntries)
	if _, ok := tab.Probe(99); ok {
		t.Error("probe of empty table hit")
	}
	tab.Store(99, 0, 1)
	if tab.Len() != 0 {
		t.Error("zero-visit store should be ignored")
	}
}

func TestClear(t *testing.T) {
	tab := New(MinEntries)
	for k := uint64(1); k <= 100; k++ {
		tab.Store(k, 1, float64(k))
	}
	tab.Clear()
	if tab.Len() != 0 {
		t.Errorf("Len after Clear = %d", tab.Len())
	}
	if _, ok := tab.Probe(5); ok {
		t.Error("entry survived Clear")
	}
	if st := tab.Stats(); st.Stores != 0 {
		t.Errorf("stores after Clear = %d", st.Stores)
	}
}

// spread scatters small integers over the key space.
func spread(k uint64) uint64 { return k * 0x9E3779B97F4A7C15 }

func TestSaveLoad(t *testing.T) {
	src := New(4096)
	hint := board.NewMove(board.SquareAt(4, 1), board.SquareAt(4, 3), board.NoPieceType, board.FlagDouble)
	for k := uint64(1); k <= 500; k++ {
		src.Store(spread(k), uint32(k), float64(k)/10)
	}
	src.SetHint(spread(3), hint)
	if e, ok := src.Probe(spread(3)); !ok || e.Hint != hint {
		t.Fatalf("hint not stored: %+v", e)
	}

	var buf bytes.Buffer
	if err := src.Save(&buf); err != nil {
		t.Fatalf("Save: %v", err)
	}
	dst := New(4096)
	n, err := dst.Load(bytes.NewReader(buf.Bytes()))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if n != src.Len() || dst.Len() != src.Len() {
		t.Fatalf("loaded %d entries into %d slots, want %d", n, dst.Len(), src.Len())
	}
	src.Range(func(want Entry) {
		got, ok := dst.Probe(want.Key)
		if !ok || got != want {
			t.Errorf("entry %x: got %+v, want %+v", want.Key, got, want)
		}
	})
}

func TestLoadCorrupt(t *testing.T) {
	src := New(MinEntries)
	src.Store(1, 1, 1)
	src.Store(2, 2, 2)
	var buf bytes.Buffer
	if err := src.Save(&buf); err != nil {
		t.Fatal(err)
	}
	good := buf.Bytes()

	tests := []struct {
		name string
		data []byte
	}{
		{"empty", nil},
		{"short header", good[:5]},
		{"bad magic", append([]byte("XXXX"), good[4:]...)},
		{"truncated body", good[:len(good)-4]},
		{"wrong count", func() []byte {
			b := append([]byte(nil), good...)
			b[6]++
			return b
		}()},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := New(MinEntries).Load(bytes.NewReader(tt.data))
			if !errors.Is(err, ErrCorruptSnapshot) {
				t.Errorf("Load error = %v, want ErrCorruptSnapshot", err)
			}
		})
	}
}

func TestSnapshotFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "tt.zst")
	dst := New(MinEntries)
	if n, err := dst.LoadFile(path); err != nil || n != 0 {
		t.Fatalf("missing file: n=%d err=%v", n, err)
	}

	src := New(MinEntries)
	src.Store(42, 3, 1.5)
	if err := src.SaveFile(path); err != nil {
		t.Fatalf("SaveFile: %v", err)
	}
	if n, err := dst.LoadFile(path); err != nil || n != 1 {
		t.Fatalf("LoadFile: n=%d err=%v", n, err)
	}
	if e, ok := dst.Probe(42); !ok || e.Visits != 3 || e.Value != 1.5 {
		t.Errorf("loaded entry %+v ok=%v", e, ok)
	}
}
