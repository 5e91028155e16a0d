package netproto

import (
	"math/big"
	"strings"
	"sync"
	"testing"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"

	"feedScope/internal/model"
)

// netReadABIJSON describes the read calls with go-ethereum's codec, used as a reference
// encoder in tests. messageCount stands in for the count call: only its inputs are compared.
const netReadABIJSON = `[
  {
    "inputs": [
      {"internalType": "uint256", "name": "startIdx", "type": "uint256"},
      {"internalType": "uint256", "name": "endIdx", "type": "uint256"},
      {"internalType": "address", "name": "app", "type": "address"},
      {"internalType": "string", "name": "topic", "type": "string"}
    ],
    "name": "getMessagesInRangeForAppTopic",
    "outputs": [
      {
        "components": [
          {"internalType": "address", "name": "app", "type": "address"},
          {"internalType": "address", "name": "sender", "type": "address"},
          {"internalType": "uint256", "name": "timestamp", "type": "uint256"},
          {"internalType": "bytes", "name": "data", "type": "bytes"},
          {"internalType": "string", "name": "text", "type": "string"},
          {"internalType": "string", "name": "topic", "type": "string"}
        ],
        "internalType": "struct Net.WebMessage[]",
        "name": "",
        "type": "tuple[]"
      }
    ],
    "stateMutability": "view",
    "type": "function"
  },
  {
    "inputs": [
      {"internalType": "address", "name": "app", "type": "address"},
      {"internalType": "string", "name": "topic", "type": "string"}
    ],
    "name": "messageCount",
    "outputs": [{"internalType": "uint256", "name": "", "type": "uint256"}],
    "stateMutability": "view",
    "type": "function"
  }
]`

var (
	netReadABI     abi.ABI
	netReadABIOnce sync.Once
	netReadABIErr  error
)

func referenceABI(t *testing.T) abi.ABI {
	t.Helper()
	netReadABIOnce.Do(func() {
		netReadABI, netReadABIErr = abi.JSON(strings.NewReader(netReadABIJSON))
	})
	if netReadABIErr != nil {
		t.Fatalf("abi parse: %v", netReadABIErr)
	}
	return netReadABI
}

type abiMessage struct {
	App       common.Address
	Sender    common.Address
	Timestamp *big.Int
	Data      []byte
	Text      string
	Topic     string
}

// packMessages encodes msgs (chain order) with go-ethereum's ABI packer.
func packMessages(t *testing.T, msgs []model.Message) []byte {
	t.Helper()
	values := make([]abiMessage, 0, len(msgs))
	for _, msg := range msgs {
		values = append(values, abiMessage{
			App:       msg.Publisher,
			Sender:    msg.Sender,
			Timestamp: new(big.Int).SetUint64(msg.Timestamp),
			Data:      msg.Data,
			Text:      msg.Text,
			Topic:     msg.Topic,
		})
	}
	out, err := referenceABI(t).Methods["getMessagesInRangeForAppTopic"].Outputs.Pack(values)
	if err != nil {
		t.Fatalf("pack messages: %v", err)
	}
	return out
}

func fixtureMessages(n int) []model.Message {
	texts := []string{
		`{"name":"Sentinel","wallet":"0x2222222222222222222222222222222222222222"}`,
		`{"caseId":"CASE-004","type":"evidence","title":"drainer contract"}`,
		"plain text registration",
		"",
		strings.Repeat("long message body ", 12),
	}
	msgs := make([]model.Message, 0, n)
	for i := 0; i < n; i++ {
		var data []byte
		if i%2 == 1 {
			data = []byte{byte(i), 0xab, 0xcd}
		}
		msgs = append(msgs, model.Message{
			Publisher: common.BigToAddress(big.NewInt(int64(0x1000 + i))),
			Sender:    common.BigToAddress(big.NewInt(int64(0x2000 + i))),
			Timestamp: 1738800000 + uint64(i)*60,
			Data:      data,
			Text:      texts[i%len(texts)],
			Topic:     "BAI-registry",
		})
	}
	return msgs
}
