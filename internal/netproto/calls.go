package netproto

import (
	"fmt"

	"github.com/ethereum/go-ethereum/common"
)

// Function selectors of the Net Protocol read calls used by the feed.
var (
	// SelectorCount returns the number of messages stored for (app, topic).
	SelectorCount = [4]byte{0x66, 0x73, 0x19, 0xca}
	// SelectorRange is getMessagesInRangeForAppTopic(uint256,uint256,address,string).
	SelectorRange = [4]byte{0x16, 0x2f, 0xc4, 0xb3}
)

const (
	countHeadWords = 2
	rangeHeadWords = 4
)

// CountCall builds calldata for the message count of topic, with no app filter.
func CountCall(topic string) ([]byte, error) {
	if topic == "" {
		return nil, &EncodeError{Op: "count call", Reason: "empty topic"}
	}
	app := EncodeAddressOf(common.Address{})
	return assemble(SelectorCount, []Word{
		app,
		EncodeUint64(countHeadWords * WordSize),
	}, EncodeString(topic)), nil
}

// RangeCall builds calldata for the messages of topic with index in [start, end), with no app filter.
func RangeCall(start, end uint64, topic string) ([]byte, error) {
	if topic == "" {
		return nil, &EncodeError{Op: "range call", Reason: "empty topic"}
	}
	if start > end {
		return nil, &EncodeError{Op: "range call", Reason: fmt.Sprintf("start %d after end %d", start, end)}
	}
	return assemble(SelectorRange, []Word{
		EncodeUint64(start),
		EncodeUint64(end),
		EncodeAddressOf(common.Address{}),
		EncodeUint64(rangeHeadWords * WordSize),
	}, EncodeString(topic)), nil
}

// DecodeCount reads the uint256 returned by the count call.
func DecodeCount(resp []byte) (uint64, error) {
	count, _, err := DecodeUint(resp, 0)
	if err != nil {
		return 0, withField(err, "count")
	}
	return count, nil
}

// EncodeAddressOf encodes a typed address. It cannot fail.
func EncodeAddressOf(addr common.Address) Word {
	w, _ := EncodeAddress(addr.Bytes())
	return w
}

func assemble(selector [4]byte, head []Word, tail []byte) []byte {
	out := make([]byte, 0, len(selector)+len(head)*WordSize+len(tail))
	out = append(out, selector[:]...)
	for _, w := range head {
		out = appendWord(out, w)
	}
	return append(out, tail...)
}
