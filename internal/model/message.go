package model

import (
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
)

// Message is one decoded feed message. Values are built by the decoder and not mutated afterwards.
type Message struct {
	Publisher common.Address `json:"publisher"`
	Sender    common.Address `json:"sender"`
	Timestamp uint64         `json:"timestamp"`
	Data      hexutil.Bytes  `json:"data"`
	Text      string         `json:"text"`
	Topic     string         `json:"topic"`
}
