package netproto

import (
	"math"
	"strings"
	"unicode/utf8"

	"github.com/ethereum/go-ethereum/common"
)

// Buffer is an ABI payload with bounds-checked accessors. No accessor panics on any input.
type Buffer []byte

// Word returns the 32-byte slot at offset.
func (b Buffer) Word(offset int) (Word, error) {
	if offset < 0 || offset > len(b) || len(b)-offset < WordSize {
		return Word{}, outOfBounds("word", offset, WordSize, b.remaining(offset))
	}
	var w Word
	copy(w[:], b[offset:offset+WordSize])
	return w, nil
}

// Uint64 returns the unsigned integer at offset, rejecting values wider than 64 bits.
func (b Buffer) Uint64(offset int) (uint64, error) {
	w, err := b.Word(offset)
	if err != nil {
		return 0, err
	}
	v, ok := w.Uint64()
	if !ok {
		return 0, malformed("uint", offset, "value exceeds 64 bits")
	}
	return v, nil
}

// Address returns the address in the low 20 bytes of the word at offset.
func (b Buffer) Address(offset int) (common.Address, error) {
	w, err := b.Word(offset)
	if err != nil {
		return common.Address{}, err
	}
	return w.Address(), nil
}

// Offset reads a byte offset at offset and adds it to base. The result must point inside the buffer.
func (b Buffer) Offset(offset, base int) (int, error) {
	rel, err := b.Uint64(offset)
	if err != nil {
		return 0, err
	}
	if base < 0 || base > len(b) || rel > uint64(len(b)-base) {
		return 0, outOfBounds("offset", offset, int(min(rel, uint64(math.MaxInt32))), b.remaining(base))
	}
	abs := base + int(rel)
	return abs, nil
}

// String returns the length-prefixed string at offset. Invalid UTF-8 is replaced with U+FFFD.
func (b Buffer) String(offset int) (string, int, error) {
	data, end, err := b.dynamic(offset, "string")
	if err != nil {
		return "", 0, err
	}
	if utf8.Valid(data) {
		return string(data), end, nil
	}
	return strings.ToValidUTF8(string(data), "\uFFFD"), end, nil
}

// Bytes returns a copy of the length-prefixed byte string at offset.
func (b Buffer) Bytes(offset int) ([]byte, int, error) {
	data, end, err := b.dynamic(offset, "bytes")
	if err != nil {
		return nil, 0, err
	}
	out := make([]byte, len(data))
	copy(out, data)
	return out, end, nil
}

// dynamic returns the content of a length-prefixed value and the end of its padded region.
// The padding must be present: a buffer cut inside it is rejected.
func (b Buffer) dynamic(offset int, field string) ([]byte, int, error) {
	length, err := b.Uint64(offset)
	if err != nil {
		return nil, 0, withField(err, field+" length")
	}
	start := offset + WordSize
	avail := len(b) - start
	if length > uint64(avail) {
		return nil, 0, outOfBounds(field, offset, int(min(length, uint64(math.MaxInt32))), avail)
	}
	n := int(length)
	padded := paddedLen(n)
	if padded > avail {
		return nil, 0, outOfBounds(field, offset, padded, avail)
	}
	return b[start : start+n], start + padded, nil
}

func (b Buffer) remaining(offset int) int {
	if offset < 0 || offset > len(b) {
		return 0
	}
	return len(b) - offset
}
