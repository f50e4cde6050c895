package tt

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"hash/crc32"
	"io"
	"math"
	"os"
	"path/filepath"

	"github.com/klauspost/compress/zstd"

	"github.com/zyrachess/zyra/internal/board"
)

// Snapshot format: a fixed header followed by a zstd-compressed body of
// fixed-width little-endian records.
//
//	magic    [4]byte "ZTT1"
//	version  uint16
//	count    uint32
//	checksum uint32 (CRC32 of the uncompressed body)
//	body     count * (key u64, visits u32, value f64 bits, hint u32)
const (
	snapshotMagic   = "ZTT1"
	snapshotVersion = 1
	headerSize      = 4 + 2 + 4 + 4
	recordSize      = 8 + 4 + 8 + 4
)

// ErrCorruptSnapshot is returned by Load for truncated or inconsistent data.
var ErrCorruptSnapshot = errors.New("corrupt transposition table snapshot")

// Save writes every occupied entry to w.
func (t *Table) Save(w io.Writer) error {
	body := make([]byte, 0, t.Len()*recordSize)
	count := 0
	var rec [recordSize]byte
	t.Range(func(e Entry) {
		binary.LittleEndian.PutUint64(rec[0:], e.Key)
		binary.LittleEndian.PutUint32(rec[8:], e.Visits)
		binary.LittleEndian.PutUint64(rec[12:], math.Float64bits(e.Value))
		binary.LittleEndian.PutUint32(rec[20:], uint32(e.Hint))
		body = append(body, rec[:]...)
		count++
	})

	var header [headerSize]byte
	copy(header[:4], snapshotMagic)
	binary.LittleEndian.PutUint16(header[4:], snapshotVersion)
	binary.LittleEndian.PutUint32(header[6:], uint32(count))
	binary.LittleEndian.PutUint32(header[10:], crc32.ChecksumIEEE(body))
	if _, err := w.Write(header[:]); err != nil {
		return fmt.Errorf("write snapshot header: %w", err)
	}

	enc, err := zstd.NewWriter(w, zstd.WithEncoderLevel(zstd.SpeedDefault))
	if err != nil {
		return fmt.Errorf("create encoder: %w", err)
	}
	if _, err := enc.Write(body); err != nil {
		enc.Close()
		return fmt.Errorf("write snapshot body: %w", err)
	}
	if err := enc.Close(); err != nil {
		return fmt.Errorf("flush snapshot: %w", err)
	}
	return nil
}

// Load merges a snapshot written by Save into t and returns the number of
// entries read. Entries go through Store, so a smaller table keeps whichever
// colliding entry comes last.
func (t *Table) Load(r io.Reader) (int, error) {
	var header [headerSize]byte
	if _, err := io.ReadFull(r, header[:]); err != nil {
		return 0, fmt.Errorf("%w: header: %v", ErrCorruptSnapshot, err)
	}
	if string(header[:4]) != snapshotMagic {
		return 0, fmt.Errorf("%w: bad magic %q", ErrCorruptSnapshot, header[:4])
	}
	if v := binary.LittleEndian.Uint16(header[4:]); v != snapshotVersion {
		return 0, fmt.Errorf("%w: unsupported version %d", ErrCorruptSnapshot, v)
	}
	count := int(binary.LittleEndian.Uint32(header[6:]))
	checksum := binary.LittleEndian.Uint32(header[10:])

	dec, err := zstd.NewReader(r, zstd.WithDecoderConcurrency(1))
	if err != nil {
		return 0, fmt.Errorf("%w: %v", ErrCorruptSnapshot, err)
	}
	defer dec.Close()
	var buf bytes.Buffer
	if _, err := io.Copy(&buf, dec); err != nil {
		return 0, fmt.Errorf("%w: body: %v", ErrCorruptSnapshot, err)
	}
	body := buf.Bytes()
	if len(body) != count*recordSize {
		return 0, fmt.Errorf("%w: body has %d bytes, want %d", ErrCorruptSnapshot, len(body), count*recordSize)
	}
	if crc32.ChecksumIEEE(body) != checksum {
		return 0, fmt.Errorf("%w: checksum mismatch", ErrCorruptSnapshot)
	}

	for i := 0; i < count; i++ {
		rec := body[i*recordSize : (i+1)*recordSize]
		key := binary.LittleEndian.Uint64(rec[0:])
		visits := binary.LittleEndian.Uint32(rec[8:])
		value := math.Float64frombits(binary.LittleEndian.Uint64(rec[12:]))
		if visits == 0 || math.IsNaN(value) || math.IsInf(value, 0) {
			return i, fmt.Errorf("%w: record %d is invalid", ErrCorruptSnapshot, i)
		}
		t.Store(key, visits, value)
		if hint := board.Move(binary.LittleEndian.Uint32(rec[20:])); hint != board.NoMove {
			t.SetHint(key, hint)
		}
	}
	return count, nil
}

// SaveFile writes a snapshot to path through a temporary file so a crash
// never leaves a partial snapshot behind.
func (t *Table) SaveFile(path string) error {
	tmp, err := os.CreateTemp(filepath.Dir(path), filepath.Base(path)+".tmp*")
	if err != nil {
		return fmt.Errorf("save snapshot: %w", err)
	}
	defer os.Remove(tmp.Name())
	if err := t.Save(tmp); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("save snapshot: %w", err)
	}
	return os.Rename(tmp.Name(), path)
}

// LoadFile merges the snapshot at path. A missing file loads nothing.
func (t *Table) LoadFile(path string) (int, error) {
	f, err := os.Open(path)
	if errors.Is(err, os.ErrNotExist) {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("load snapshot: %w", err)
	}
	defer f.Close()
	return t.Load(f)
}
