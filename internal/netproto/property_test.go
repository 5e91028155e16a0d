package netproto

import (
	"math/big"
	"testing"
	"unicode/utf8"

	"github.com/ethereum/go-ethereum/common"
	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"

	"feedScope/internal/model"
)

// TestStringRoundTrip verifies DecodeString(EncodeString(s)) == s for valid UTF-8.
func TestStringRoundTrip(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 200
	parameters.MaxSize = 1000
	properties := gopter.NewProperties(parameters)

	properties.Property("strings survive encode and decode", prop.ForAll(
		func(s string) bool {
			if !utf8.ValidString(s) {
				return true
			}
			enc := EncodeString(s)
			if len(enc)%WordSize != 0 {
				return false
			}
			got, end, err := DecodeString(enc, 0)
			return err == nil && got == s && end == len(enc)
		},
		gen.AnyString(),
	))

	properties.TestingRun(t)
}

// TestAddressRoundTrip verifies the low 20 bytes of an address word are preserved.
func TestAddressRoundTrip(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	properties := gopter.NewProperties(parameters)

	properties.Property("addresses survive encode and decode", prop.ForAll(
		func(raw []uint8) bool {
			w, err := EncodeAddress(raw)
			if err != nil {
				return false
			}
			got, err := DecodeAddress(w[:], 0)
			return err == nil && got == common.BytesToAddress(raw)
		},
		gen.SliceOfN(common.AddressLength, gen.UInt8()),
	))

	properties.TestingRun(t)
}

// TestMessagesTruncation verifies no strict prefix of a valid result decodes.
func TestMessagesTruncation(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 50
	properties := gopter.NewProperties(parameters)

	properties.Property("truncated results never yield messages", prop.ForAll(
		func(texts []string, stamp uint64, cutSeed uint32) bool {
			chain := make([]model.Message, 0, len(texts))
			for i, text := range texts {
				chain = append(chain, model.Message{
					Publisher: common.BigToAddress(big.NewInt(int64(i + 1))),
					Sender:    common.BigToAddress(big.NewInt(int64(i + 100))),
					Timestamp: stamp,
					Text:      text,
					Topic:     "BAI-Official",
				})
			}
			resp := EncodeMessages(chain)
			full, err := DecodeMessages(resp)
			if err != nil || len(full) != len(chain) {
				return false
			}
			cut := int(cutSeed) % len(resp)
			msgs, err := DecodeMessages(resp[:cut])
			return err != nil && msgs == nil
		},
		gen.SliceOf(gen.AlphaString()),
		gen.UInt64(),
		gen.UInt32(),
	))

	properties.TestingRun(t)
}

// TestDecodeMessagesNeverPanics feeds random buffers to the decoder.
func TestDecodeMessagesNeverPanics(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 500
	parameters.MaxSize = 512
	properties := gopter.NewProperties(parameters)

	properties.Property("random input returns messages or an error", prop.ForAll(
		func(raw []uint8, head uint8) bool {
			// seed the first words with small values so offsets are sometimes plausible
			buf := append(EncodeUint64(WordSize).Bytes(), EncodeUint64(uint64(head%4)).Bytes()...)
			buf = append(buf, raw...)
			for _, in := range [][]byte{raw, buf} {
				msgs, err := DecodeMessages(in)
				if err != nil && msgs != nil {
					return false
				}
			}
			return true
		},
		gen.SliceOf(gen.UInt8()),
		gen.UInt8(),
	))

	properties.TestingRun(t)
}
