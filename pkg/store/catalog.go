package store

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"os"

	"github.com/goopsie/blpconv/pkg/archive"
)

const (
	catalogHeaderSize = 16
	frameSize         = 16
	entrySize         = 24
)

// CatalogHeader holds the table sizes of a catalog.
type CatalogHeader struct {
	PackageCount uint32
	FrameCount   uint32
	EntryCount   uint32
	_            uint32
}

// Frame describes a compressed data frame within a package file.
type Frame struct {
	Package        uint32 // Package file index
	Offset         uint32 // Byte offset within package
	CompressedSize uint32 // Compressed frame size
	Length         uint32 // Decompressed frame size
}

// Entry locates a file within a decompressed frame.
type Entry struct {
	FileID   uint32
	Frame    uint32 // Index into Frames
	Offset   uint32 // Byte offset within decompressed frame
	Size     uint32 // File size in bytes
	PathHash uint64 // HashPath of the file path
}

// Catalog is the index of a texture pack.
type Catalog struct {
	Header  CatalogHeader
	Frames  []Frame
	Entries []Entry
}

// PackageCount returns the number of package files referenced by this catalog.
func (c *Catalog) PackageCount() int {
	return int(c.Header.PackageCount)
}

// FileCount returns the number of files in this catalog.
func (c *Catalog) FileCount() int {
	return len(c.Entries)
}

// Validate checks that every entry and frame points inside its container.
func (c *Catalog) Validate() error {
	for i, f := range c.Frames {
		if f.Package >= c.Header.PackageCount {
			return fmt.Errorf("frame %d: invalid package index %d", i, f.Package)
		}
	}
	for i, e := range c.Entries {
		if int(e.Frame) >= len(c.Frames) {
			return fmt.Errorf("entry %d: invalid frame index %d", i, e.Frame)
		}
		if uint64(e.Offset)+uint64(e.Size) > uint64(c.Frames[e.Frame].Length) {
			return fmt.Errorf("entry %d: range %d+%d exceeds frame length %d",
				i, e.Offset, e.Size, c.Frames[e.Frame].Length)
		}
	}
	return nil
}

// UnmarshalBinary decodes a catalog from binary data.
func (c *Catalog) UnmarshalBinary(data []byte) error {
	reader := bytes.NewReader(data)

	if err := binary.Read(reader, binary.LittleEndian, &c.Header); err != nil {
		return fmt.Errorf("read header: %w", err)
	}

	want := uint64(catalogHeaderSize) +
		uint64(c.Header.FrameCount)*frameSize +
		uint64(c.Header.EntryCount)*entrySize
	if want != uint64(len(data)) {
		return fmt.Errorf("catalog size mismatch: header declares %d bytes, got %d", want, len(data))
	}

	c.Frames = make([]Frame, c.Header.FrameCount)
	if err := binary.Read(reader, binary.LittleEndian, &c.Frames); err != nil {
		return fmt.Errorf("read frames: %w", err)
	}

	c.Entries = make([]Entry, c.Header.EntryCount)
	if err := binary.Read(reader, binary.LittleEndian, &c.Entries); err != nil {
		return fmt.Errorf("read entries: %w", err)
	}

	return c.Validate()
}

// MarshalBinary encodes a catalog to binary data.
func (c *Catalog) MarshalBinary() ([]byte, error) {
	c.Header.FrameCount = uint32(len(c.Frames))
	c.Header.EntryCount = uint32(len(c.Entries))

	buf := bytes.NewBuffer(make([]byte, 0, catalogHeaderSize+len(c.Frames)*frameSize+len(c.Entries)*entrySize))

	sections := []any{
		c.Header,
		c.Frames,
		c.Entries,
	}

	for _, section := range sections {
		if err := binary.Write(buf, binary.LittleEndian, section); err != nil {
			return nil, fmt.Errorf("write section: %w", err)
		}
	}

	return buf.Bytes(), nil
}

// ReadCatalog reads and parses a catalog from a file.
func ReadCatalog(path string) (*Catalog, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open catalog: %w", err)
	}
	defer f.Close()

	data, err := archive.ReadAll(f)
	if err != nil {
		return nil, fmt.Errorf("read archive: %w", err)
	}

	catalog := &Catalog{}
	if err := catalog.UnmarshalBinary(data); err != nil {
		return nil, fmt.Errorf("parse catalog: %w", err)
	}

	return catalog, nil
}

// WriteCatalog writes a catalog to a file.
func WriteCatalog(path string, c *Catalog, opts ...archive.WriterOption) error {
	data, err := c.MarshalBinary()
	if err != nil {
		return fmt.Errorf("marshal catalog: %w", err)
	}

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create file: %w", err)
	}
	defer f.Close()

	if err := archive.Encode(f, data, opts...); err != nil {
		return fmt.Errorf("encode archive: %w", err)
	}

	return f.Close()
}
