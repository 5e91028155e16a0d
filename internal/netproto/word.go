// Package netproto encodes Net Protocol read calls and decodes their ABI results by hand.
//
// Only the layouts used by the message feed are supported: 32-byte words, left-padded
// addresses, length-prefixed strings and bytes, and a dynamic array of message tuples.
package netproto

import (
	"encoding/binary"
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
)

// WordSize is the ABI slot width in bytes.
const WordSize = 32

// Word is one big-endian ABI slot.
type Word [WordSize]byte

// Bytes returns a copy of the word as a slice.
func (w Word) Bytes() []byte {
	out := make([]byte, WordSize)
	copy(out, w[:])
	return out
}

// Uint64 returns the word as an unsigned integer. ok is false when the value needs more than 64 bits.
func (w Word) Uint64() (uint64, bool) {
	for _, b := range w[:WordSize-8] {
		if b != 0 {
			return 0, false
		}
	}
	return binary.BigEndian.Uint64(w[WordSize-8:]), true
}

// Address returns the low 20 bytes of the word.
func (w Word) Address() common.Address {
	return common.BytesToAddress(w[WordSize-common.AddressLength:])
}

// EncodeUint64 encodes n as a uint256 word.
func EncodeUint64(n uint64) Word {
	var w Word
	binary.BigEndian.PutUint64(w[WordSize-8:], n)
	return w
}

// EncodeUint encodes n as an unsigned integer of width bytes (uint8 .. uint256).
func EncodeUint(n *big.Int, width int) (Word, error) {
	if width < 1 || width > WordSize {
		return Word{}, &EncodeError{Op: "uint", Reason: fmt.Sprintf("width %d outside 1..%d", width, WordSize)}
	}
	if n == nil {
		return Word{}, &EncodeError{Op: "uint", Reason: "nil value"}
	}
	if n.Sign() < 0 {
		return Word{}, &EncodeError{Op: "uint", Reason: fmt.Sprintf("negative value %s", n)}
	}
	if n.BitLen() > width*8 {
		return Word{}, &EncodeError{Op: "uint", Reason: fmt.Sprintf("%s does not fit in uint%d", n, width*8)}
	}
	var w Word
	n.FillBytes(w[:])
	return w, nil
}

// EncodeAddress places a 20-byte address in the low bytes of a word.
func EncodeAddress(addr []byte) (Word, error) {
	if len(addr) != common.AddressLength {
		return Word{}, &EncodeError{Op: "address", Reason: fmt.Sprintf("expected %d bytes, got %d", common.AddressLength, len(addr))}
	}
	var w Word
	copy(w[WordSize-common.AddressLength:], addr)
	return w, nil
}

// EncodeString returns the length word followed by the UTF-8 bytes of s, zero-padded to a word boundary.
func EncodeString(s string) []byte {
	return encodeDynamic([]byte(s))
}

func encodeDynamic(data []byte) []byte {
	out := make([]byte, WordSize+paddedLen(len(data)))
	length := EncodeUint64(uint64(len(data)))
	copy(out, length[:])
	copy(out[WordSize:], data)
	return out
}

// DecodeUint reads the unsigned integer word at offset. consumed is always one word.
func DecodeUint(buf []byte, offset int) (uint64, int, error) {
	v, err := Buffer(buf).Uint64(offset)
	if err != nil {
		return 0, 0, err
	}
	return v, WordSize, nil
}

// DecodeAddress reads the address word at offset.
func DecodeAddress(buf []byte, offset int) (common.Address, error) {
	return Buffer(buf).Address(offset)
}

// DecodeString reads a length-prefixed string at offset and returns it with the end of its padded region.
func DecodeString(buf []byte, offset int) (string, int, error) {
	return Buffer(buf).String(offset)
}

// DecodeBytes reads a length-prefixed byte string at offset and returns it with the end of its padded region.
func DecodeBytes(buf []byte, offset int) ([]byte, int, error) {
	return Buffer(buf).Bytes(offset)
}

func paddedLen(n int) int {
	return (n + WordSize - 1) / WordSize * WordSize
}
