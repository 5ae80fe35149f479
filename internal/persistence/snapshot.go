package persistence

import (
	"bufio"
	"encoding/gob"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/klauspost/compress/zstd"

	"github.com/talgya/mini-city/internal/city"
	"github.com/talgya/mini-city/internal/engine"
)

// SnapshotVersion is bumped whenever engine.State changes shape.
const SnapshotVersion = 1

// Header is the uncompressed-size summary written ahead of a snapshot body
// so tools can identify a file without decoding the state.
type Header struct {
	Version int    `json:"version"`
	CityID  string `json:"city_id"`
	Name    string `json:"name"`
	Ticks   uint64 `json:"ticks"`
	Date    string `json:"date"`
}

type Snapshot struct {
	Header Header
	State  engine.State
}

// WriteSnapshot stores snap as a zstd stream: a JSON header line followed
// by the gob-encoded snapshot.
func WriteSnapshot(path string, snap Snapshot) (err error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o644)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := f.Close(); err == nil {
			err = cerr
		}
	}()

	enc, err := zstd.NewWriter(f, zstd.WithEncoderLevel(zstd.SpeedDefault))
	if err != nil {
		return err
	}
	bw := bufio.NewWriterSize(enc, 64*1024)

	snap.Header.Version = SnapshotVersion
	hb, _ := json.Marshal(snap.Header)
	if _, err := bw.Write(hb); err != nil {
		enc.Close()
		return err
	}
	if err := bw.WriteByte('\n'); err != nil {
		enc.Close()
		return err
	}
	if err := gob.NewEncoder(bw).Encode(&snap); err != nil {
		enc.Close()
		return fmt.Errorf("gob encode: %w", err)
	}
	if err := bw.Flush(); err != nil {
		enc.Close()
		return err
	}
	return enc.Close()
}

// ReadSnapshot loads a file written by WriteSnapshot.
func ReadSnapshot(path string) (Snapshot, error) {
	var snap Snapshot
	f, err := os.Open(path)
	if err != nil {
		return snap, err
	}
	defer f.Close()

	dec, err := zstd.NewReader(f)
	if err != nil {
		return snap, err
	}
	defer dec.Close()

	br := bufio.NewReaderSize(dec, 64*1024)
	line, err := br.ReadBytes('\n')
	if err != nil {
		return snap, fmt.Errorf("read header: %w", err)
	}
	var h Header
	if err := json.Unmarshal(line, &h); err != nil {
		return snap, fmt.Errorf("read header: %w", err)
	}
	if h.Version != SnapshotVersion {
		return snap, fmt.Errorf("snapshot version %d, want %d", h.Version, SnapshotVersion)
	}

	if err := gob.NewDecoder(br).Decode(&snap); err != nil {
		return snap, fmt.Errorf("gob decode: %w", err)
	}
	return snap, nil
}

// Grids are stored in the database as five bytes per tile, row-major,
// compressed with zstd.
const tileBytes = 5

var (
	blobEncoder, _ = zstd.NewWriter(nil, zstd.WithEncoderLevel(zstd.SpeedBetterCompression))
	blobDecoder, _ = zstd.NewReader(nil)
)

var errBlobSize = errors.New("persistence: grid blob has the wrong size")

func encodeGrid(g *city.Grid) []byte {
	raw := make([]byte, 0, len(g.Tiles)*tileBytes)
	for _, t := range g.Tiles {
		raw = append(raw, byte(t.Kind), byte(t.Flags), t.Variant, t.DX, t.DY)
	}
	return blobEncoder.EncodeAll(raw, nil)
}

func decodeGrid(blob []byte) (*city.Grid, error) {
	raw, err := blobDecoder.DecodeAll(blob, nil)
	if err != nil {
		return nil, fmt.Errorf("decompress grid: %w", err)
	}
	g := city.NewGrid()
	if len(raw) != len(g.Tiles)*tileBytes {
		return nil, errBlobSize
	}
	for i := range g.Tiles {
		b := raw[i*tileBytes:]
		k := city.Kind(b[0])
		if !k.Valid() {
			return nil, fmt.Errorf("tile %d: unknown kind %d", i, b[0])
		}
		g.Tiles[i] = city.Tile{Kind: k, Flags: city.Flags(b[1]), Variant: b[2], DX: b[3], DY: b[4]}
	}
	return g, nil
}

func compressBytes(b []byte) []byte { return blobEncoder.EncodeAll(b, nil) }

func decompressBytes(b []byte, size int) ([]byte, error) {
	raw, err := blobDecoder.DecodeAll(b, nil)
	if err != nil {
		return nil, err
	}
	if len(raw) != size {
		return nil, errBlobSize
	}
	return raw, nil
}
