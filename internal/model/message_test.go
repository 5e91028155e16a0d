package model

import (
	"encoding/json"
	"strings"
	"testing"

	"github.com/ethereum/go-ethereum/common"
)

func TestMessageJSONShape(t *testing.T) {
	msg := Message{
		Publisher: common.HexToAddress("0x00000000B24D62781dB359b07880a105cD0b64e6"),
		Sender:    common.HexToAddress("0x1111111111111111111111111111111111111111"),
		Timestamp: 1738800000,
		Data:      []byte{0xde, 0xad},
		Text:      "hello",
		Topic:     "BAI-registry",
	}

	data, err := json.Marshal(msg)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	got := string(data)
	for _, want := range []string{
		`"publisher":"0x00000000b24d62781db359b07880a105cd0b64e6"`,
		`"data":"0xdead"`,
		`"timestamp":1738800000`,
	} {
		if !strings.Contains(got, want) {
			t.Fatalf("missing %s in %s", want, got)
		}
	}

	var back Message
	if err := json.Unmarshal(data, &back); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if back.Publisher != msg.Publisher || string(back.Data) != string(msg.Data) {
		t.Fatalf("round trip mismatch: %+v", back)
	}
}

func TestEvidenceNullCaseID(t *testing.T) {
	data, err := json.Marshal(EvidenceSubmission{Kind: "evidence"})
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	if !strings.Contains(string(data), `"caseId":null`) {
		t.Fatalf("case id should encode as null: %s", data)
	}
}
