package zarr

import (
	"bytes"
	"compress/zlib"
	"encoding/binary"
	"errors"
	"testing"

	"github.com/pierrec/lz4/v4"
)

func zlibCompress(t *testing.T, data []byte) []byte {
	t.Helper()
	var buf bytes.Buffer
	w := zlib.NewWriter(&buf)
	if _, err := w.Write(data); err != nil {
		t.Fatal(err)
	}
	if err := w.Close(); err != nil {
		t.Fatal(err)
	}
	return buf.Bytes()
}

// shuffle applies blosc byte-shuffle: all first bytes of each element,
// then all second bytes, and so on.
func shuffle(data []byte, typesize int) []byte {
	nelem := len(data) / typesize
	out := make([]byte, len(data))
	for i := 0; i < nelem; i++ {
		for b := 0; b < typesize; b++ {
			out[b*nelem+i] = data[i*typesize+b]
		}
	}
	copy(out[nelem*typesize:], data[nelem*typesize:])
	return out
}

// bloscHeader builds the 16-byte container header.
func bloscHeader(flags byte, typesize, nbytes, blocksize, cbytes int) []byte {
	h := make([]byte, bloscHeaderSize)
	h[0] = 2
	h[1] = 1
	h[2] = flags
	h[3] = byte(typesize)
	binary.LittleEndian.PutUint32(h[4:], uint32(nbytes))
	binary.LittleEndian.PutUint32(h[8:], uint32(blocksize))
	binary.LittleEndian.PutUint32(h[12:], uint32(cbytes))
	return h
}

func testPayload(n int) []byte {
	out := make([]byte, n)
	for i := range out {
		out[i] = byte(i % 7)
	}
	return out
}

func TestDecompressNilPassthrough(t *testing.T) {
	data := testPayload(32)
	got, err := Decompress(nil, data)
	if err != nil {
		t.Fatal(err)
	}
	if !bytes.Equal(got, data) {
		t.Error("nil compressor must return the input unchanged")
	}
}

func TestDecompressZlib(t *testing.T) {
	data := testPayload(256)
	got, err := Decompress(&CompressorConfig{ID: "zlib"}, zlibCompress(t, data))
	if err != nil {
		t.Fatal(err)
	}
	if !bytes.Equal(got, data) {
		t.Error("zlib roundtrip mismatch")
	}
}

func TestDecompressUnsupported(t *testing.T) {
	_, err := Decompress(&CompressorConfig{ID: "zstd"}, nil)
	if !errors.Is(err, ErrUnsupportedCompressor) {
		t.Errorf("err = %v, want ErrUnsupportedCompressor", err)
	}
}

func TestBloscMemcpy(t *testing.T) {
	data := testPayload(64)
	container := append(bloscHeader(bloscFlagMemcpy, 4, len(data), len(data), bloscHeaderSize+len(data)), data...)
	got, err := Decompress(&CompressorConfig{ID: "blosc"}, container)
	if err != nil {
		t.Fatal(err)
	}
	if !bytes.Equal(got, data) {
		t.Error("memcpy container mismatch")
	}
}

func TestBloscZlibSingleBlock(t *testing.T) {
	data := testPayload(512)
	comp := zlibCompress(t, data)

	flags := byte(bloscCodecZlib << 5)
	container := bloscHeader(flags, 4, len(data), len(data), 0)
	// One block: its start offset follows the 4-byte index.
	start := make([]byte, 4)
	binary.LittleEndian.PutUint32(start, uint32(bloscHeaderSize+4))
	container = append(container, start...)
	csize := make([]byte, 4)
	binary.LittleEndian.PutUint32(csize, uint32(len(comp)))
	container = append(container, csize...)
	container = append(container, comp...)

	got, err := Decompress(&CompressorConfig{ID: "blosc"}, container)
	if err != nil {
		t.Fatal(err)
	}
	if !bytes.Equal(got, data) {
		t.Error("blosc zlib block mismatch")
	}
}

// buildShuffledLZ4 packs data into a single-block shuffled container with
// one lz4 stream per byte lane. Lanes that do not compress are stored raw.
func buildShuffledLZ4(t *testing.T, data []byte, typesize int) []byte {
	t.Helper()
	shuf := shuffle(data, typesize)
	streamLen := len(data) / typesize

	flags := byte(bloscCodecLZ4<<5) | bloscFlagShuffle
	container := bloscHeader(flags, typesize, len(data), len(data), 0)
	start := make([]byte, 4)
	binary.LittleEndian.PutUint32(start, uint32(bloscHeaderSize+4))
	container = append(container, start...)

	for s := 0; s < typesize; s++ {
		lane := shuf[s*streamLen : (s+1)*streamLen]
		dst := make([]byte, lz4.CompressBlockBound(streamLen))
		n, err := lz4.CompressBlock(lane, dst, nil)
		if err != nil {
			t.Fatal(err)
		}
		if n == 0 || n >= streamLen {
			// Incompressible lane: stored form.
			n = streamLen
			copy(dst, lane)
		}
		csize := make([]byte, 4)
		binary.LittleEndian.PutUint32(csize, uint32(n))
		container = append(container, csize...)
		container = append(container, dst[:n]...)
	}
	return container
}

func TestBloscShuffledLZ4(t *testing.T) {
	data := f32bytes(0.5, 0.5, 0.5, 0.5, 1.25, 1.25, 1.25, 1.25, -2, -2, -2, -2, 0, 0, 0, 0)
	container := buildShuffledLZ4(t, data, 4)
	got, err := Decompress(&CompressorConfig{ID: "blosc"}, container)
	if err != nil {
		t.Fatal(err)
	}
	if !bytes.Equal(got, data) {
		t.Error("shuffled lz4 container mismatch")
	}
}

func TestBloscStoredStreams(t *testing.T) {
	// Streams whose compressed size equals the lane length are raw copies.
	data := testPayload(64)
	shuf := shuffle(data, 4)
	streamLen := len(data) / 4

	flags := byte(bloscCodecLZ4<<5) | bloscFlagShuffle
	container := bloscHeader(flags, 4, len(data), len(data), 0)
	start := make([]byte, 4)
	binary.LittleEndian.PutUint32(start, uint32(bloscHeaderSize+4))
	container = append(container, start...)
	for s := 0; s < 4; s++ {
		csize := make([]byte, 4)
		binary.LittleEndian.PutUint32(csize, uint32(streamLen))
		container = append(container, csize...)
		container = append(container, shuf[s*streamLen:(s+1)*streamLen]...)
	}

	got, err := Decompress(&CompressorConfig{ID: "blosc"}, container)
	if err != nil {
		t.Fatal(err)
	}
	if !bytes.Equal(got, data) {
		t.Error("stored stream container mismatch")
	}
}

func TestBloscTruncated(t *testing.T) {
	if _, err := Decompress(&CompressorConfig{ID: "blosc"}, []byte{1, 2, 3}); err == nil {
		t.Error("want error for truncated header")
	}
}

func TestUnshuffle(t *testing.T) {
	orig := []byte{1, 2, 3, 4, 5, 6, 7, 8, 9, 10, 11, 12}
	shuf := shuffle(orig, 4)
	unshuffle(shuf, 4)
	if !bytes.Equal(shuf, orig) {
		t.Errorf("unshuffle = %v, want %v", shuf, orig)
	}
}
