package store

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestParseListFile(t *testing.T) {
	t.Run("LineEndings", func(t *testing.T) {
		input := "1;Textures/A.blp\r\n2;textures/b.BLP\r3;sound/c.ogg\n\n  \n4;Interface/D.blp"

		lf, err := ParseListFile(strings.NewReader(input))
		if err != nil {
			t.Fatalf("parse: %v", err)
		}

		if lf.Len() != 4 {
			t.Fatalf("Len: got %d, want 4", lf.Len())
		}

		if p, ok := lf.Path(1); !ok || p != "Textures/A.blp" {
			t.Errorf("Path(1): got %q, %v", p, ok)
		}
		if id, ok := lf.ID("TEXTURES\\A.BLP"); !ok || id != 1 {
			t.Errorf("ID: got %d, %v", id, ok)
		}

		got := lf.BLPFileIDs()
		want := []uint32{1, 2, 4}
		if len(got) != len(want) {
			t.Fatalf("BLPFileIDs: got %v, want %v", got, want)
		}
		for i := range want {
			if got[i] != want[i] {
				t.Errorf("BLPFileIDs[%d]: got %d, want %d", i, got[i], want[i])
			}
		}
	})

	t.Run("TrailingCR", func(t *testing.T) {
		lf, err := ParseListFile(strings.NewReader("7;a.blp\r"))
		if err != nil {
			t.Fatalf("parse: %v", err)
		}
		if p, _ := lf.Path(7); p != "a.blp" {
			t.Errorf("Path(7): got %q", p)
		}
	})

	t.Run("Malformed", func(t *testing.T) {
		for _, input := range []string{"abc;x.blp", "12", "12;"} {
			if _, err := ParseListFile(strings.NewReader(input)); err == nil {
				t.Errorf("%q: expected error", input)
			}
		}
	})

	t.Run("WriteTo", func(t *testing.T) {
		lf := NewListFile()
		lf.Add(5, "x/y.blp")
		lf.Add(3, "z.blp")

		var buf bytes.Buffer
		if _, err := lf.WriteTo(&buf); err != nil {
			t.Fatalf("write: %v", err)
		}
		if buf.String() != "5;x/y.blp\n3;z.blp\n" {
			t.Errorf("output: got %q", buf.String())
		}
	})
}

func TestNormalizePath(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"Textures\\Foo.BLP", "textures/foo.blp"},
		{"already/normal.blp", "already/normal.blp"},
	}
	for _, tt := range tests {
		if got := NormalizePath(tt.in); got != tt.want {
			t.Errorf("NormalizePath(%q): got %q, want %q", tt.in, got, tt.want)
		}
	}

	if HashPath("A\\B.blp") != HashPath("a/b.BLP") {
		t.Error("HashPath should ignore case and separators")
	}
}

// writeTree creates files under root and returns a matching list file.
func writeTree(t *testing.T, root string, files map[uint32]string, contents map[uint32][]byte) *ListFile {
	t.Helper()
	lf := NewListFile()
	for id, rel := range files {
		full := filepath.Join(root, filepath.FromSlash(rel))
		if err := os.MkdirAll(filepath.Dir(full), 0755); err != nil {
			t.Fatal(err)
		}
		if err := os.WriteFile(full, contents[id], 0644); err != nil {
			t.Fatal(err)
		}
		lf.Add(id, rel)
	}
	return lf
}

func TestDirSource(t *testing.T) {
	root := t.TempDir()
	lf := writeTree(t, root,
		map[uint32]string{10: "textures/a.blp", 11: "textures/b.blp"},
		map[uint32][]byte{10: []byte("aaa"), 11: []byte("bbbb")},
	)
	lf.Add(12, "textures/missing.blp")

	src, err := NewDirSource(root, lf)
	if err != nil {
		t.Fatalf("NewDirSource: %v", err)
	}

	data, err := src.ReadFile(10)
	if err != nil || string(data) != "aaa" {
		t.Errorf("ReadFile(10): got %q, %v", data, err)
	}

	data, err = src.ReadPath("Textures\\B.blp")
	if err != nil || string(data) != "bbbb" {
		t.Errorf("ReadPath: got %q, %v", data, err)
	}

	if !src.Contains(11) || src.Contains(12) || src.Contains(99) {
		t.Error("Contains: unexpected result")
	}

	if _, err := src.ReadFile(12); !errors.Is(err, ErrNotFound) {
		t.Errorf("ReadFile(12): expected ErrNotFound, got %v", err)
	}

	if _, err := NewDirSource(filepath.Join(root, "textures", "a.blp"), lf); err == nil {
		t.Error("expected error for non-directory root")
	}
}

func TestCatalog(t *testing.T) {
	t.Run("MarshalUnmarshal", func(t *testing.T) {
		original := &Catalog{
			Header: CatalogHeader{PackageCount: 2},
			Frames: []Frame{
				{Package: 0, Offset: 0, CompressedSize: 512, Length: 1024},
				{Package: 1, Offset: 0, CompressedSize: 1024, Length: 2048},
			},
			Entries: []Entry{
				{FileID: 100, Frame: 0, Offset: 0, Size: 1024, PathHash: HashPath("a.blp")},
				{FileID: 101, Frame: 1, Offset: 48, Size: 2000, PathHash: HashPath("b.blp")},
			},
		}

		data, err := original.MarshalBinary()
		if err != nil {
			t.Fatalf("marshal: %v", err)
		}
		if len(data) != catalogHeaderSize+2*frameSize+2*entrySize {
			t.Errorf("size: got %d", len(data))
		}

		decoded := &Catalog{}
		if err := decoded.UnmarshalBinary(data); err != nil {
			t.Fatalf("unmarshal: %v", err)
		}

		if decoded.PackageCount() != 2 {
			t.Errorf("PackageCount: got %d, want 2", decoded.PackageCount())
		}
		if decoded.FileCount() != 2 {
			t.Errorf("FileCount: got %d, want 2", decoded.FileCount())
		}
		if decoded.Entries[1] != original.Entries[1] {
			t.Errorf("entry: got %+v, want %+v", decoded.Entries[1], original.Entries[1])
		}
		if decoded.Frames[1] != original.Frames[1] {
			t.Errorf("frame: got %+v, want %+v", decoded.Frames[1], original.Frames[1])
		}
	})

	t.Run("SizeMismatch", func(t *testing.T) {
		c := &Catalog{Header: CatalogHeader{PackageCount: 1}, Frames: []Frame{{Length: 10}}}
		data, _ := c.MarshalBinary()
		if err := (&Catalog{}).UnmarshalBinary(data[:len(data)-1]); err == nil {
			t.Error("expected error for truncated catalog")
		}
	})

	t.Run("EntryOutOfFrame", func(t *testing.T) {
		c := &Catalog{
			Header:  CatalogHeader{PackageCount: 1},
			Frames:  []Frame{{Length: 10}},
			Entries: []Entry{{Frame: 0, Offset: 8, Size: 4}},
		}
		if err := c.Validate(); err == nil {
			t.Error("expected error for entry past frame end")
		}
	})

	t.Run("BadPackageIndex", func(t *testing.T) {
		c := &Catalog{Header: CatalogHeader{PackageCount: 1}, Frames: []Frame{{Package: 1}}}
		if err := c.Validate(); err == nil {
			t.Error("expected error for package index")
		}
	})
}

func TestPack(t *testing.T) {
	src := t.TempDir()
	files := map[uint32]string{
		1: "textures/one.blp",
		2: "Textures/Two.blp",
		3: "interface/three.blp",
		4: "misc/four.bin",
	}
	contents := map[uint32][]byte{
		1: bytes.Repeat([]byte{1}, 300),
		2: bytes.Repeat([]byte{2}, 700),
		3: bytes.Repeat([]byte("three"), 50),
		4: {},
	}
	lf := writeTree(t, src, files, contents)
	lf.Add(5, "not/on/disk.blp")

	scanned, err := ScanFiles(src, lf)
	if err != nil {
		t.Fatalf("scan: %v", err)
	}
	if len(scanned) != 4 {
		t.Fatalf("scanned: got %d files, want 4", len(scanned))
	}
	for i := 1; i < len(scanned); i++ {
		if scanned[i-1].FileID >= scanned[i].FileID {
			t.Fatalf("scan not ordered by file id: %+v", scanned)
		}
	}

	out := t.TempDir()
	b := NewBuilder(out, "textures", WithFrameSize(512), WithCompressionLevel(1))
	b.maxPackageSize = 1 // every frame starts a new package

	catalog, err := b.Build(scanned)
	if err != nil {
		t.Fatalf("build: %v", err)
	}

	// 300 | 700 | 250+0
	if len(catalog.Frames) != 3 {
		t.Errorf("frames: got %d, want 3", len(catalog.Frames))
	}
	if catalog.PackageCount() != len(catalog.Frames) {
		t.Errorf("packages: got %d, want %d", catalog.PackageCount(), len(catalog.Frames))
	}
	for i := 0; i < catalog.PackageCount(); i++ {
		if _, err := os.Stat(PackagePath(out, "textures", i)); err != nil {
			t.Errorf("package %d: %v", i, err)
		}
	}

	pack, err := OpenPack(out, "textures")
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	defer pack.Close()

	var _ Source = pack

	for id, want := range contents {
		got, err := pack.ReadFile(id)
		if err != nil {
			t.Errorf("ReadFile(%d): %v", id, err)
			continue
		}
		if !bytes.Equal(got, want) {
			t.Errorf("ReadFile(%d): got %d bytes, want %d", id, len(got), len(want))
		}
	}

	got, err := pack.ReadPath("TEXTURES\\two.blp")
	if err != nil || !bytes.Equal(got, contents[2]) {
		t.Errorf("ReadPath: got %d bytes, %v", len(got), err)
	}

	if pack.Contains(5) {
		t.Error("Contains(5): file was never packed")
	}
	if _, err := pack.ReadFile(5); !errors.Is(err, ErrNotFound) {
		t.Errorf("ReadFile(5): expected ErrNotFound, got %v", err)
	}
	if _, err := pack.ReadPath("nope.blp"); !errors.Is(err, ErrNotFound) {
		t.Errorf("ReadPath: expected ErrNotFound, got %v", err)
	}

	t.Run("CachedFrameCopy", func(t *testing.T) {
		first, err := pack.ReadFile(3)
		if err != nil {
			t.Fatal(err)
		}
		first[0] = 'X'

		second, err := pack.ReadFile(3)
		if err != nil {
			t.Fatal(err)
		}
		if second[0] != 't' {
			t.Error("mutating a result changed the cached frame")
		}
	})
}

func TestPackSinglePackage(t *testing.T) {
	src := t.TempDir()
	lf := writeTree(t, src,
		map[uint32]string{1: "a.blp", 2: "b.blp"},
		map[uint32][]byte{1: []byte("first"), 2: []byte("second")},
	)

	scanned, err := ScanFiles(src, lf)
	if err != nil {
		t.Fatal(err)
	}

	out := t.TempDir()
	catalog, err := NewBuilder(out, "pack").Build(scanned)
	if err != nil {
		t.Fatalf("build: %v", err)
	}

	if catalog.PackageCount() != 1 || len(catalog.Frames) != 1 {
		t.Errorf("got %d packages, %d frames, want 1 and 1", catalog.PackageCount(), len(catalog.Frames))
	}
	if e := catalog.Entries[1]; e.Offset != 5 || e.Size != 6 {
		t.Errorf("entry 1: got offset %d size %d", e.Offset, e.Size)
	}

	pack, err := OpenPack(out, "pack")
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	defer pack.Close()

	data, err := pack.ReadPath("B.BLP")
	if err != nil || string(data) != "second" {
		t.Errorf("ReadPath: got %q, %v", data, err)
	}
}
