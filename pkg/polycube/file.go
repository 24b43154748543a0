package polycube

import (
	"bufio"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/klauspost/compress/zstd"
)

// Save writes c to path as a JSON array of [x,y,z] triples. Paths ending in
// ".zst" are zstd-compressed.
func Save(path string, c Coords) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	if !strings.HasSuffix(path, ".zst") {
		if err := Encode(f, c); err != nil {
			return fmt.Errorf("save coords: %w", err)
		}
		return f.Close()
	}

	enc, err := zstd.NewWriter(f, zstd.WithEncoderLevel(zstd.SpeedDefault))
	if err != nil {
		return err
	}
	w := bufio.NewWriterSize(enc, 64*1024)
	if err := Encode(w, c); err != nil {
		_ = enc.Close()
		return fmt.Errorf("save coords: %w", err)
	}
	if err := w.Flush(); err != nil {
		_ = enc.Close()
		return err
	}
	if err := enc.Close(); err != nil {
		return err
	}
	return f.Close()
}

// Load reads a coordinate file written by Save.
func Load(path string) (Coords, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var r io.Reader = f
	if strings.HasSuffix(path, ".zst") {
		dec, err := zstd.NewReader(f)
		if err != nil {
			return nil, err
		}
		defer dec.Close()
		r = dec
	}
	c, err := Decode(r)
	if err != nil {
		return nil, fmt.Errorf("load coords %s: %w", path, err)
	}
	return c, nil
}

// Encode writes c as JSON.
func Encode(w io.Writer, c Coords) error {
	if c == nil {
		c = Coords{}
	}
	return json.NewEncoder(w).Encode(c)
}

// Decode reads a JSON coordinate array.
func Decode(r io.Reader) (Coords, error) {
	var c Coords
	if err := json.NewDecoder(r).Decode(&c); err != nil {
		return nil, err
	}
	if c == nil {
		c = Coords{}
	}
	return c, nil
}
