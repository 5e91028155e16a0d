package model

// AgentRegistration is a registry feed message projected onto agent fields.
type AgentRegistration struct {
	Name        string `json:"name"`
	Wallet      string `json:"wallet"`
	Description string `json:"description"`
	Timestamp   uint64 `json:"timestamp"`
	Date        string `json:"date"`
	TxSender    string `json:"txSender"`
}

// EvidenceSubmission is an evidence feed message projected onto case fields.
// CaseID is nil when the message does not name a case.
type EvidenceSubmission struct {
	CaseID      *string `json:"caseId"`
	Kind        string  `json:"type"`
	Title       string  `json:"title"`
	Description string  `json:"description"`
	Source      string  `json:"source"`
	Timestamp   uint64  `json:"timestamp"`
	Date        string  `json:"date"`
	Submitter   string  `json:"submitter"`
}
