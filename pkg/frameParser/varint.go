package frameparser

import (
	"bytes"
	"encoding/binary"
)

// varint encoding is used by RFC 9000
// the two most significant bits of the first byte select the total
// encoded size (00 -> 1 byte, 01 -> 2, 10 -> 4, 11 -> 8), the remaining
// six bits are the high bits of the value

// ====== VARINT ENCODING =====

/*
This implements Varint encoding of variable length integers. It adjusts the number of bytes
used to represent a number based on its value, using a minimum number of bytes for small values
and more bytes for larger values, according to the format described in RFC 9000.

I) if n < 2^6 = 64, it fits in 6 bits and is stored directly in a single byte

II) if n < 2^14, the value is written as 16 bits Big-Endian with the two most
    significant bits set to 01 (the 0x4000 bitwise OR)

The 4 and 8 byte cases follow the same logic with prefixes 10 and 11.
*/

func encodeVarint(n uint64) []byte {
	var buf [8]byte

	switch {
	case n < 1<<6:
		buf[0] = byte(n)
		return buf[:1]

	case n < 1<<14:
		binary.BigEndian.PutUint16(buf[:], uint16(n)|0x4000)
		return buf[:2]

	case n < 1<<30:
		binary.BigEndian.PutUint32(buf[:], uint32(n)|0x80000000)
		return buf[:4]

	default:
		binary.BigEndian.PutUint64(buf[:], n|0xC000000000000000)
		return buf[:8]
	}
}

// varintLen returns the encoded size of n, used to compute frame lengths
// without actually encoding
func varintLen(n uint64) uint64 {
	switch {
	case n < 1<<6:
		return 1
	case n < 1<<14:
		return 2
	case n < 1<<30:
		return 4
	default:
		return 8
	}
}

// ====== VARINT DECODING =====

// varintDecoder decodes one varint incrementally. The bytes of a single
// varint may be spread over any number of parse calls, so the decoder keeps
// the target length and the value accumulated so far between calls.
type varintDecoder struct {
	value  uint64
	length int // total encoded size, 0 while the first byte was not seen
	read   int // bytes consumed so far
}

// feed consumes a single byte and reports whether the varint is complete.
func (d *varintDecoder) feed(b byte) bool {
	if d.length == 0 {
		d.length = 1 << (b >> 6)
		d.value = uint64(b & 0x3F)
		d.read = 1
	} else {
		d.value = d.value<<8 | uint64(b)
		d.read++
	}
	return d.read == d.length
}

// decode consumes bytes from buf until the varint is complete or buf is
// exhausted. It returns the decoded value and true on completion; on false
// all consumed bytes are retained internally and the next call resumes from
// the exact byte where this one stopped.
func (d *varintDecoder) decode(buf *bytes.Buffer) (uint64, bool) {
	for {
		b, err := buf.ReadByte()
		if err != nil {
			return 0, false
		}
		if d.feed(b) {
			return d.value, true
		}
	}
}

// inProgress reports whether a partially decoded varint is pending.
func (d *varintDecoder) inProgress() bool {
	return d.length != 0 && d.read < d.length
}

func (d *varintDecoder) reset() {
	d.value = 0
	d.length = 0
	d.read = 0
}
