package model

import (
	"bytes"
	"compress/gzip"
	"crypto/sha256"
	"encoding/gob"
	"encoding/hex"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"gonum.org/v1/gonum/mat"
)

const formatVersion = 1

// storedMatrix is the gob payload before compression.
type storedMatrix struct {
	IDs  []string
	Data []float64
}

// storedFile is the on-disk envelope.
type storedFile struct {
	Version        int
	BuiltAt        time.Time
	Count          int
	Checksum       string
	CompressedData []byte
}

// Save writes snap to w as a checksummed, gzip-compressed gob.
func Save(w io.Writer, snap *Snapshot) error {
	payload := storedMatrix{IDs: snap.ids}
	if snap.matrix != nil {
		payload.Data = mat.DenseCopyOf(snap.matrix).RawMatrix().Data
	}

	var raw bytes.Buffer
	if err := gob.NewEncoder(&raw).Encode(payload); err != nil {
		return fmt.Errorf("encode matrix: %w", err)
	}
	hash := sha256.Sum256(raw.Bytes())

	var compressed bytes.Buffer
	gzw := gzip.NewWriter(&compressed)
	if _, err := gzw.Write(raw.Bytes()); err != nil {
		return fmt.Errorf("compress matrix: %w", err)
	}
	if err := gzw.Close(); err != nil {
		return fmt.Errorf("finalize compression: %w", err)
	}

	sf := storedFile{
		Version:        formatVersion,
		BuiltAt:        snap.builtAt,
		Count:          snap.Len(),
		Checksum:       hex.EncodeToString(hash[:]),
		CompressedData: compressed.Bytes(),
	}
	if err := gob.NewEncoder(w).Encode(sf); err != nil {
		return fmt.Errorf("write matrix file: %w", err)
	}
	return nil
}

// Load reads a snapshot written by Save, verifying its checksum and shape.
func Load(r io.Reader) (*Snapshot, error) {
	var sf storedFile
	if err := gob.NewDecoder(r).Decode(&sf); err != nil {
		return nil, fmt.Errorf("read matrix file: %w", err)
	}
	if sf.Version != formatVersion {
		return nil, fmt.Errorf("unsupported matrix format version %d", sf.Version)
	}

	gzr, err := gzip.NewReader(bytes.NewReader(sf.CompressedData))
	if err != nil {
		return nil, fmt.Errorf("decompress matrix: %w", err)
	}
	defer func() { _ = gzr.Close() }()

	raw, err := io.ReadAll(gzr)
	if err != nil {
		return nil, fmt.Errorf("read decompressed matrix: %w", err)
	}

	hash := sha256.Sum256(raw)
	if checksum := hex.EncodeToString(hash[:]); checksum != sf.Checksum {
		return nil, fmt.Errorf("checksum mismatch: expected %s, got %s", sf.Checksum, checksum)
	}

	var payload storedMatrix
	if err := gob.NewDecoder(bytes.NewReader(raw)).Decode(&payload); err != nil {
		return nil, fmt.Errorf("decode matrix: %w", err)
	}

	n := len(payload.IDs)
	if n != sf.Count || len(payload.Data) != n*n {
		return nil, fmt.Errorf("matrix file holds %d values for %d projects", len(payload.Data), n)
	}
	if n == 0 {
		return NewSnapshot(nil, nil, sf.BuiltAt)
	}
	return NewSnapshot(payload.IDs, mat.NewDense(n, n, payload.Data), sf.BuiltAt)
}

// SaveFile writes snap to path through a temporary file and a rename, so
// readers never observe a partial matrix.
func SaveFile(path string, snap *Snapshot) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return fmt.Errorf("create matrix directory: %w", err)
	}

	tmp, err := os.CreateTemp(dir, filepath.Base(path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("create matrix file: %w", err)
	}
	defer func() { _ = os.Remove(tmp.Name()) }()

	if err := Save(tmp, snap); err != nil {
		_ = tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close matrix file: %w", err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return fmt.Errorf("install matrix file: %w", err)
	}
	return nil
}

// LoadFile reads the snapshot stored at path.
func LoadFile(path string) (*Snapshot, error) {
	f, err := os.Open(path) //nolint:gosec // path comes from configuration
	if err != nil {
		return nil, fmt.Errorf("open matrix file: %w", err)
	}
	defer func() { _ = f.Close() }()

	return Load(f)
}
