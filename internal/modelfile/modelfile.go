// Package modelfile reads and writes operator parameters as a fixed-order
// little-endian field sequence. Field order is the file-format contract:
// reordering any field breaks compatibility with previously written models,
// so operators write and read their fields in one documented sequence.
package modelfile

import (
	"encoding/binary"
	"errors"
	"fmt"
	"io"
)

// MagicBytes identifies a lattice model parameter stream.
const MagicBytes = "LTCM"

// FormatVersion is the current stream format version.
const FormatVersion uint32 = 1

// Errors callers may branch on.
var (
	ErrBadMagic           = errors.New("modelfile: bad magic bytes")
	ErrUnsupportedVersion = errors.New("modelfile: unsupported format version")
)

// Writer serializes fields in call order.
type Writer struct {
	w io.Writer
}

// NewWriter writes the magic/version header and returns a field writer.
func NewWriter(w io.Writer) (*Writer, error) {
	if _, err := io.WriteString(w, MagicBytes); err != nil {
		return nil, fmt.Errorf("modelfile: write magic: %w", err)
	}
	if err := binary.Write(w, binary.LittleEndian, FormatVersion); err != nil {
		return nil, fmt.Errorf("modelfile: write version: %w", err)
	}
	return &Writer{w: w}, nil
}

// WriteUint64 writes one unsigned field.
func (w *Writer) WriteUint64(v uint64) error {
	if err := binary.Write(w.w, binary.LittleEndian, v); err != nil {
		return fmt.Errorf("modelfile: write uint64: %w", err)
	}
	return nil
}

// WriteBool writes one boolean field as a single byte.
func (w *Writer) WriteBool(v bool) error {
	var b byte
	if v {
		b = 1
	}
	if err := binary.Write(w.w, binary.LittleEndian, b); err != nil {
		return fmt.Errorf("modelfile: write bool: %w", err)
	}
	return nil
}

// Reader deserializes fields in the order they were written.
type Reader struct {
	r io.Reader
}

// NewReader validates the magic/version header and returns a field reader.
func NewReader(r io.Reader) (*Reader, error) {
	magic := make([]byte, len(MagicBytes))
	if _, err := io.ReadFull(r, magic); err != nil {
		return nil, fmt.Errorf("modelfile: read magic: %w", err)
	}
	if string(magic) != MagicBytes {
		return nil, fmt.Errorf("%w: got %q", ErrBadMagic, magic)
	}
	var version uint32
	if err := binary.Read(r, binary.LittleEndian, &version); err != nil {
		return nil, fmt.Errorf("modelfile: read version: %w", err)
	}
	if version != FormatVersion {
		return nil, fmt.Errorf("%w: %d", ErrUnsupportedVersion, version)
	}
	return &Reader{r: r}, nil
}

// ReadUint64 reads one unsigned field.
func (r *Reader) ReadUint64() (uint64, error) {
	var v uint64
	if err := binary.Read(r.r, binary.LittleEndian, &v); err != nil {
		return 0, fmt.Errorf("modelfile: read uint64: %w", err)
	}
	return v, nil
}

// ReadBool reads one boolean field.
func (r *Reader) ReadBool() (bool, error) {
	var b byte
	if err := binary.Read(r.r, binary.LittleEndian, &b); err != nil {
		return false, fmt.Errorf("modelfile: read bool: %w", err)
	}
	return b != 0, nil
}
