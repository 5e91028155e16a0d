package netproto

import (
	"fmt"
	"math"
	"slices"

	"feedScope/internal/model"
)

// Layout fixes the head word positions of one version of the message tuple.
// Static fields are read in place; dynamic fields hold offsets relative to the tuple start.
type Layout struct {
	HeadWords     int
	PublisherWord int
	SenderWord    int
	TimestampWord int
	DataWord      int // -1 when the tuple carries no data field
	TextWord      int
	TopicWord     int
}

// NetMessageLayout matches the deployed contract's
// tuple(address app, address sender, uint256 timestamp, bytes data, string text, string topic).
var NetMessageLayout = Layout{
	HeadWords:     6,
	PublisherWord: 0,
	SenderWord:    1,
	TimestampWord: 2,
	DataWord:      3,
	TextWord:      4,
	TopicWord:     5,
}

// DecodeMessages decodes a range call result with NetMessageLayout.
func DecodeMessages(resp []byte) ([]model.Message, error) {
	return NetMessageLayout.Decode(resp)
}

// Decode parses an ABI-encoded dynamic array of message tuples.
// Messages are returned newest first, the reverse of their order on chain.
// On any inconsistency it returns no messages and a *DecodeError.
func (l Layout) Decode(resp []byte) ([]model.Message, error) {
	if err := l.validate(); err != nil {
		return nil, err
	}

	buf := Buffer(resp)
	arrayStart, err := buf.Offset(0, 0)
	if err != nil {
		return nil, withField(err, "array offset")
	}
	count, err := buf.Uint64(arrayStart)
	if err != nil {
		return nil, withField(err, "array length")
	}

	// element offsets are relative to the first slot after the length word
	table := arrayStart + WordSize
	avail := len(buf) - table
	if count > uint64(avail/WordSize) {
		need := int(min(count, uint64(math.MaxInt32/WordSize))) * WordSize
		return nil, outOfBounds("array length", arrayStart, need, avail)
	}

	n := int(count)
	messages := make([]model.Message, 0, n)
	// content copied out of the buffer never exceeds its size unless elements overlap
	copied := 0
	for i := 0; i < n; i++ {
		start, err := buf.Offset(table+i*WordSize, table)
		if err != nil {
			return nil, withField(err, fmt.Sprintf("message %d offset", i))
		}
		msg, size, err := l.decodeMessage(buf, start, i)
		if err != nil {
			return nil, err
		}
		copied += size
		if copied > len(buf) {
			return nil, malformed(fmt.Sprintf("message %d", i), start, "decoded content exceeds response size")
		}
		messages = append(messages, msg)
	}

	slices.Reverse(messages)
	return messages, nil
}

// decodeMessage reads one tuple and reports how many bytes its dynamic values span.
func (l Layout) decodeMessage(buf Buffer, start, index int) (model.Message, int, error) {
	field := func(name string) string { return fmt.Sprintf("message %d %s", index, name) }
	slot := func(word int) int { return start + word*WordSize }

	if need := l.HeadWords * WordSize; len(buf)-start < need {
		return model.Message{}, 0, outOfBounds(field("head"), start, need, len(buf)-start)
	}

	var (
		msg  model.Message
		size int
		err  error
	)
	if msg.Publisher, err = buf.Address(slot(l.PublisherWord)); err != nil {
		return model.Message{}, 0, withField(err, field("publisher"))
	}
	if msg.Sender, err = buf.Address(slot(l.SenderWord)); err != nil {
		return model.Message{}, 0, withField(err, field("sender"))
	}
	if msg.Timestamp, err = buf.Uint64(slot(l.TimestampWord)); err != nil {
		return model.Message{}, 0, withField(err, field("timestamp"))
	}

	// data is optional payload: an unreadable value leaves it nil
	if l.DataWord >= 0 {
		if at, err := buf.Offset(slot(l.DataWord), start); err == nil {
			if data, end, err := buf.Bytes(at); err == nil {
				msg.Data = data
				size += end - at
			}
		}
	}

	at, err := buf.Offset(slot(l.TextWord), start)
	if err != nil {
		return model.Message{}, 0, withField(err, field("text offset"))
	}
	var end int
	if msg.Text, end, err = buf.String(at); err != nil {
		return model.Message{}, 0, withField(err, field("text"))
	}
	size += end - at

	at, err = buf.Offset(slot(l.TopicWord), start)
	if err != nil {
		return model.Message{}, 0, withField(err, field("topic offset"))
	}
	if msg.Topic, end, err = buf.String(at); err != nil {
		return model.Message{}, 0, withField(err, field("topic"))
	}
	size += end - at

	return msg, size, nil
}

// Encode lays out msgs, given in chain order, exactly as the contract returns them.
func (l Layout) Encode(msgs []model.Message) ([]byte, error) {
	if err := l.validate(); err != nil {
		return nil, err
	}

	elems := make([][]byte, 0, len(msgs))
	for _, msg := range msgs {
		head := make([]Word, l.HeadWords)
		head[l.PublisherWord] = EncodeAddressOf(msg.Publisher)
		head[l.SenderWord] = EncodeAddressOf(msg.Sender)
		head[l.TimestampWord] = EncodeUint64(msg.Timestamp)

		var tail []byte
		put := func(word int, enc []byte) {
			head[word] = EncodeUint64(uint64(l.HeadWords*WordSize + len(tail)))
			tail = append(tail, enc...)
		}
		if l.DataWord >= 0 {
			put(l.DataWord, encodeDynamic(msg.Data))
		}
		put(l.TextWord, EncodeString(msg.Text))
		put(l.TopicWord, EncodeString(msg.Topic))

		elem := make([]byte, 0, len(head)*WordSize+len(tail))
		for _, w := range head {
			elem = appendWord(elem, w)
		}
		elems = append(elems, append(elem, tail...))
	}

	out := make([]byte, 0, 2*WordSize)
	out = appendWord(out, EncodeUint64(WordSize))
	out = appendWord(out, EncodeUint64(uint64(len(msgs))))
	next := len(msgs) * WordSize
	for _, elem := range elems {
		out = appendWord(out, EncodeUint64(uint64(next)))
		next += len(elem)
	}
	for _, elem := range elems {
		out = append(out, elem...)
	}
	return out, nil
}

// EncodeMessages encodes msgs with NetMessageLayout.
func EncodeMessages(msgs []model.Message) []byte {
	out, _ := NetMessageLayout.Encode(msgs)
	return out
}

func appendWord(out []byte, w Word) []byte {
	return append(out, w[:]...)
}

func (l Layout) validate() error {
	if l.HeadWords <= 0 {
		return malformed("layout", 0, "head must hold at least one word")
	}
	words := []int{l.PublisherWord, l.SenderWord, l.TimestampWord, l.TextWord, l.TopicWord}
	if l.DataWord >= 0 {
		words = append(words, l.DataWord)
	}
	for _, w := range words {
		if w < 0 || w >= l.HeadWords {
			return malformed("layout", 0, fmt.Sprintf("word %d outside head of %d words", w, l.HeadWords))
		}
	}
	return nil
}
