package feed

import (
	"encoding/json"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"

	"feedScope/internal/model"
)

// Alias tables list the JSON keys accepted for each envelope field, in priority order.
var (
	agentNameKeys        = []string{"name", "agentName"}
	agentWalletKeys      = []string{"wallet", "walletAddress"}
	agentDescriptionKeys = []string{"description", "capabilities"}

	evidenceCaseKeys        = []string{"caseId", "case_id"}
	evidenceKindKeys        = []string{"type", "evidenceType"}
	evidenceTitleKeys       = []string{"title"}
	evidenceDescriptionKeys = []string{"description", "evidence"}
	evidenceSourceKeys      = []string{"source"}
)

const (
	defaultAgentName  = "Unknown"
	fallbackAgentName = "Agent"
	defaultKind       = "evidence"

	// JavaScript's Date#toISOString, which feed consumers already parse.
	dateLayout = "2006-01-02T15:04:05.000Z"
	// 9999-12-31T23:59:59Z
	maxDateUnix = 253402300799
)

// InterpretAgent projects a registry message onto an agent registration.
func InterpretAgent(msg model.Message) model.AgentRegistration {
	sender := senderHex(msg.Sender)
	out := model.AgentRegistration{
		Timestamp: msg.Timestamp,
		Date:      FormatDate(msg.Timestamp),
		TxSender:  sender,
	}

	fields, ok := parseObject(msg.Text)
	if !ok {
		out.Name = fallbackAgentName
		out.Wallet = sender
		out.Description = msg.Text
		return out
	}

	out.Name = pick(fields, agentNameKeys, defaultAgentName)
	out.Wallet = pick(fields, agentWalletKeys, sender)
	out.Description = pick(fields, agentDescriptionKeys, "")
	return out
}

// InterpretEvidence projects an evidence message onto an evidence submission.
func InterpretEvidence(msg model.Message) model.EvidenceSubmission {
	out := model.EvidenceSubmission{
		Kind:      defaultKind,
		Timestamp: msg.Timestamp,
		Date:      FormatDate(msg.Timestamp),
		Submitter: senderHex(msg.Sender),
	}

	fields, ok := parseObject(msg.Text)
	if !ok {
		out.Description = msg.Text
		return out
	}

	if caseID, found := lookup(fields, evidenceCaseKeys); found {
		out.CaseID = &caseID
	}
	out.Kind = pick(fields, evidenceKindKeys, defaultKind)
	out.Title = pick(fields, evidenceTitleKeys, "")
	out.Description = pick(fields, evidenceDescriptionKeys, msg.Text)
	out.Source = pick(fields, evidenceSourceKeys, "")
	return out
}

// InterpretAgents maps a page of registry messages, keeping order.
func InterpretAgents(msgs []model.Message) []model.AgentRegistration {
	out := make([]model.AgentRegistration, 0, len(msgs))
	for _, msg := range msgs {
		out = append(out, InterpretAgent(msg))
	}
	return out
}

// InterpretEvidenceList maps a page of evidence messages, keeping order.
func InterpretEvidenceList(msgs []model.Message) []model.EvidenceSubmission {
	out := make([]model.EvidenceSubmission, 0, len(msgs))
	for _, msg := range msgs {
		out = append(out, InterpretEvidence(msg))
	}
	return out
}

// FormatDate renders a unix timestamp in UTC with millisecond precision.
// Timestamps past year 9999 render as "".
func FormatDate(ts uint64) string {
	if ts > maxDateUnix {
		return ""
	}
	return time.Unix(int64(ts), 0).UTC().Format(dateLayout)
}

// senderHex renders an address as lowercase hex, the form feed consumers compare against.
func senderHex(addr common.Address) string {
	return hexutil.Encode(addr[:])
}

// parseObject decodes text as a JSON object. Arrays, scalars and null are not objects.
func parseObject(text string) (map[string]json.RawMessage, bool) {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal([]byte(text), &fields); err != nil || fields == nil {
		return nil, false
	}
	return fields, true
}

// lookup returns the first alias holding a non-empty string.
func lookup(fields map[string]json.RawMessage, keys []string) (string, bool) {
	for _, key := range keys {
		raw, ok := fields[key]
		if !ok {
			continue
		}
		var s string
		if err := json.Unmarshal(raw, &s); err != nil || s == "" {
			continue
		}
		return s, true
	}
	return "", false
}

func pick(fields map[string]json.RawMessage, keys []string, fallback string) string {
	if s, ok := lookup(fields, keys); ok {
		return s
	}
	return fallback
}
