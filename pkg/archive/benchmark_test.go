package archive

import (
	"bytes"
	"testing"
)

// BenchmarkHeader benchmarks header operations.
func BenchmarkHeader(b *testing.B) {
	header := NewHeader(1024*1024, 512*1024, 0x0123456789ABCDEF)

	b.Run("EncodeTo", func(b *testing.B) {
		buf := make([]byte, HeaderSize)
		b.ResetTimer()
		for i := 0; i < b.N; i++ {
			header.EncodeTo(buf)
		}
	})

	data, _ := header.MarshalBinary()

	b.Run("Unmarshal", func(b *testing.B) {
		b.ResetTimer()
		for i := 0; i < b.N; i++ {
			h := &Header{}
			if err := h.UnmarshalBinary(data); err != nil {
				b.Fatal(err)
			}
		}
	})
}

// BenchmarkEncodeDecode benchmarks a full encode/decode cycle of a catalog-sized blob.
func BenchmarkEncodeDecode(b *testing.B) {
	data := make([]byte, 1024*1024)
	for i := range data {
		data[i] = byte(i % 251)
	}

	b.Run("Encode", func(b *testing.B) {
		b.SetBytes(int64(len(data)))
		b.ResetTimer()
		for i := 0; i < b.N; i++ {
			var buf bytes.Buffer
			if err := Encode(&seekableBuffer{Buffer: &buf}, data); err != nil {
				b.Fatal(err)
			}
		}
	})

	var buf bytes.Buffer
	if err := Encode(&seekableBuffer{Buffer: &buf}, data); err != nil {
		b.Fatal(err)
	}
	encoded := buf.Bytes()

	b.Run("Decode", func(b *testing.B) {
		b.SetBytes(int64(len(data)))
		b.ResetTimer()
		for i := 0; i < b.N; i++ {
			if _, err := ReadAll(bytes.NewReader(encoded)); err != nil {
				b.Fatal(err)
			}
		}
	})
}
