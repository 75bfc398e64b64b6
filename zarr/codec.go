package zarr

import (
	"bytes"
	"compress/zlib"
	"encoding/binary"
	"fmt"
	"io"

	"github.com/pierrec/lz4/v4"
)

// blosc header layout (16 bytes):
//
//	0  version
//	1  codec format version
//	2  flags: bit0 byte-shuffle, bit1 memcpy, bits 5-7 codec id
//	3  typesize
//	4  nbytes   (uncompressed size, LE uint32)
//	8  blocksize
//	12 cbytes   (total compressed size including header)
const (
	bloscHeaderSize  = 16
	bloscFlagShuffle = 0x1
	bloscFlagMemcpy  = 0x2

	bloscCodecBloscLZ = 0
	bloscCodecLZ4     = 1
	bloscCodecZlib    = 3
)

// Decompress reverses the array's declared compressor. A nil config means
// the chunk bytes are stored raw.
func Decompress(c *CompressorConfig, data []byte) ([]byte, error) {
	if c == nil {
		return data, nil
	}
	switch c.ID {
	case "zlib":
		return zlibDecode(data)
	case "blosc":
		return bloscDecode(data)
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedCompressor, c.ID)
	}
}

func zlibDecode(data []byte) ([]byte, error) {
	r, err := zlib.NewReader(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("zlib reader: %w", err)
	}
	defer r.Close()
	out, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("zlib decompress: %w", err)
	}
	return out, nil
}

// bloscDecode unpacks a blosc1 container. Supported inner codecs: lz4 and
// zlib, plus the memcpy (stored) case. Byte-shuffle is reversed per block.
func bloscDecode(data []byte) ([]byte, error) {
	if len(data) < bloscHeaderSize {
		return nil, fmt.Errorf("blosc: truncated header (%d bytes)", len(data))
	}
	flags := data[2]
	typesize := int(data[3])
	nbytes := int(binary.LittleEndian.Uint32(data[4:]))
	blocksize := int(binary.LittleEndian.Uint32(data[8:]))

	if flags&bloscFlagMemcpy != 0 {
		if len(data) < bloscHeaderSize+nbytes {
			return nil, fmt.Errorf("blosc: stored payload short: have %d, want %d", len(data)-bloscHeaderSize, nbytes)
		}
		out := make([]byte, nbytes)
		copy(out, data[bloscHeaderSize:])
		return out, nil
	}

	if blocksize <= 0 || nbytes < 0 {
		return nil, fmt.Errorf("blosc: invalid header (nbytes=%d blocksize=%d)", nbytes, blocksize)
	}
	nblocks := (nbytes + blocksize - 1) / blocksize
	startsEnd := bloscHeaderSize + nblocks*4
	if len(data) < startsEnd {
		return nil, fmt.Errorf("blosc: truncated block index")
	}

	codec := flags >> 5
	shuffled := flags&bloscFlagShuffle != 0 && typesize > 1

	// lz4 and blosclz streams are split per byte lane when shuffled.
	nsplits := 1
	if shuffled && (codec == bloscCodecLZ4 || codec == bloscCodecBloscLZ) {
		nsplits = typesize
	}

	out := make([]byte, 0, nbytes)
	block := make([]byte, blocksize)
	for j := 0; j < nblocks; j++ {
		off := int(binary.LittleEndian.Uint32(data[bloscHeaderSize+j*4:]))
		neblock := blocksize
		if j == nblocks-1 && nbytes%blocksize != 0 {
			neblock = nbytes % blocksize
		}
		block = block[:neblock]

		pos := 0
		streamLen := neblock / nsplits
		for s := 0; s < nsplits; s++ {
			if off+4 > len(data) {
				return nil, fmt.Errorf("blosc: block %d stream %d out of range", j, s)
			}
			csize := int(binary.LittleEndian.Uint32(data[off:]))
			off += 4
			if off+csize > len(data) {
				return nil, fmt.Errorf("blosc: block %d stream %d truncated", j, s)
			}
			src := data[off : off+csize]
			off += csize

			dst := block[pos : pos+streamLen]
			if csize == streamLen {
				// Stored uncompressed: compression did not pay off.
				copy(dst, src)
			} else {
				switch codec {
				case bloscCodecLZ4:
					n, err := lz4.UncompressBlock(src, dst)
					if err != nil {
						return nil, fmt.Errorf("blosc lz4 block %d: %w", j, err)
					}
					if n != streamLen {
						return nil, fmt.Errorf("blosc lz4 block %d: got %d bytes, want %d", j, n, streamLen)
					}
				case bloscCodecZlib:
					dec, err := zlibDecode(src)
					if err != nil {
						return nil, fmt.Errorf("blosc zlib block %d: %w", j, err)
					}
					if len(dec) != streamLen {
						return nil, fmt.Errorf("blosc zlib block %d: got %d bytes, want %d", j, len(dec), streamLen)
					}
					copy(dst, dec)
				default:
					return nil, fmt.Errorf("%w: blosc inner codec %d", ErrUnsupportedCompressor, codec)
				}
			}
			pos += streamLen
		}

		if shuffled {
			unshuffle(block, typesize)
		}
		out = append(out, block...)
	}
	return out, nil
}

// unshuffle reverses blosc byte-shuffle in place: shuffled data stores all
// first bytes of each element, then all second bytes, and so on.
func unshuffle(block []byte, typesize int) {
	n := len(block)
	nelem := n / typesize
	if nelem == 0 {
		return
	}
	tmp := make([]byte, n)
	copy(tmp, block)
	for i := 0; i < nelem; i++ {
		for b := 0; b < typesize; b++ {
			block[i*typesize+b] = tmp[b*nelem+i]
		}
	}
	// Bytes past the last whole element are untouched by the shuffle.
	copy(block[nelem*typesize:], tmp[nelem*typesize:])
}
