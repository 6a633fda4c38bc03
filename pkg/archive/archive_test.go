package archive

import (
	"bytes"
	"errors"
	"io"
	"os"
	"path/filepath"
	"testing"
)

func TestHeader(t *testing.T) {
	t.Run("MarshalUnmarshal", func(t *testing.T) {
		original := NewHeader(1024, 512, 0xDEADBEEFCAFEF00D)

		data, err := original.MarshalBinary()
		if err != nil {
			t.Fatalf("marshal: %v", err)
		}
		if len(data) != HeaderSize {
			t.Fatalf("size: got %d, want %d", len(data), HeaderSize)
		}

		decoded := &Header{}
		if err := decoded.UnmarshalBinary(data); err != nil {
			t.Fatalf("unmarshal: %v", err)
		}

		if *decoded != *original {
			t.Errorf("mismatch: got %+v, want %+v", decoded, original)
		}
	})

	t.Run("InvalidMagic", func(t *testing.T) {
		h := NewHeader(1024, 512, 0)
		h.Magic = [4]byte{'Z', 'S', 'T', 'D'}
		if err := h.Validate(); !errors.Is(err, ErrBadMagic) {
			t.Errorf("expected ErrBadMagic, got %v", err)
		}
	})

	t.Run("InvalidHeaderLength", func(t *testing.T) {
		h := NewHeader(1024, 512, 0)
		h.HeaderLength = 16
		if err := h.Validate(); err == nil {
			t.Error("expected error for invalid header length")
		}
	})

	t.Run("ZeroLength", func(t *testing.T) {
		h := NewHeader(0, 512, 0)
		if err := h.Validate(); !errors.Is(err, ErrEmpty) {
			t.Errorf("expected ErrEmpty, got %v", err)
		}
	})

	t.Run("ShortData", func(t *testing.T) {
		h := &Header{}
		if err := h.UnmarshalBinary(make([]byte, HeaderSize-1)); err == nil {
			t.Error("expected error for short data")
		}
	})
}

func TestReadWrite(t *testing.T) {
	original := bytes.Repeat([]byte("catalog entry data; "), 100)

	t.Run("EncodeDecodeRoundTrip", func(t *testing.T) {
		var buf bytes.Buffer
		ws := &seekableBuffer{Buffer: &buf}

		if err := Encode(ws, original); err != nil {
			t.Fatalf("encode: %v", err)
		}

		decoded, err := ReadAll(bytes.NewReader(buf.Bytes()))
		if err != nil {
			t.Fatalf("decode: %v", err)
		}

		if !bytes.Equal(decoded, original) {
			t.Errorf("data mismatch: got %d bytes, want %d", len(decoded), len(original))
		}
	})

	t.Run("HeaderFields", func(t *testing.T) {
		var buf bytes.Buffer
		if err := Encode(&seekableBuffer{Buffer: &buf}, original); err != nil {
			t.Fatalf("encode: %v", err)
		}

		r, err := NewReader(bytes.NewReader(buf.Bytes()))
		if err != nil {
			t.Fatalf("new reader: %v", err)
		}
		defer r.Close()

		if r.Length() != len(original) {
			t.Errorf("length: got %d, want %d", r.Length(), len(original))
		}
		if r.CompressedLength() != buf.Len()-HeaderSize {
			t.Errorf("compressed length: got %d, want %d", r.CompressedLength(), buf.Len()-HeaderSize)
		}
	})

	t.Run("FileAtOffset", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "blob.catalog")
		f, err := os.Create(path)
		if err != nil {
			t.Fatal(err)
		}
		if _, err := f.Write([]byte("prefix")); err != nil {
			t.Fatal(err)
		}
		if err := Encode(f, original); err != nil {
			t.Fatalf("encode: %v", err)
		}
		if _, err := f.Write([]byte("trailer")); err != nil {
			t.Fatal(err)
		}
		f.Close()

		data, err := os.ReadFile(path)
		if err != nil {
			t.Fatal(err)
		}

		decoded, err := ReadAll(bytes.NewReader(data[len("prefix"):]))
		if err != nil {
			t.Fatalf("decode: %v", err)
		}
		if !bytes.Equal(decoded, original) {
			t.Error("data mismatch")
		}
	})

	t.Run("ChecksumMismatch", func(t *testing.T) {
		var buf bytes.Buffer
		if err := Encode(&seekableBuffer{Buffer: &buf}, original); err != nil {
			t.Fatalf("encode: %v", err)
		}

		data := buf.Bytes()
		data[24] ^= 0xFF

		if _, err := ReadAll(bytes.NewReader(data)); err == nil {
			t.Error("expected checksum error")
		}
	})

	t.Run("Truncated", func(t *testing.T) {
		var buf bytes.Buffer
		if err := Encode(&seekableBuffer{Buffer: &buf}, original); err != nil {
			t.Fatalf("encode: %v", err)
		}

		data := buf.Bytes()[:buf.Len()-4]
		if _, err := ReadAll(bytes.NewReader(data)); err == nil {
			t.Error("expected error for truncated archive")
		}
	})
}

type seekableBuffer struct {
	*bytes.Buffer
	pos int64
}

func (s *seekableBuffer) Seek(offset int64, whence int) (int64, error) {
	switch whence {
	case io.SeekStart:
		s.pos = offset
	case io.SeekCurrent:
		s.pos += offset
	case io.SeekEnd:
		s.pos = int64(s.Buffer.Len()) + offset
	}
	return s.pos, nil
}

func (s *seekableBuffer) Write(p []byte) (n int, err error) {
	for int64(s.Buffer.Len()) < s.pos {
		s.Buffer.WriteByte(0)
	}
	if s.pos < int64(s.Buffer.Len()) {
		data := s.Buffer.Bytes()
		n = copy(data[s.pos:], p)
		if n < len(p) {
			m, err := s.Buffer.Write(p[n:])
			n += m
			if err != nil {
				return n, err
			}
		}
	} else {
		n, err = s.Buffer.Write(p)
	}
	s.pos += int64(n)
	return n, err
}
