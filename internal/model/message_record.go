package model

// MessageRecord is the normalized representation of a feed message for storage.
type MessageRecord struct {
	ChainID    uint64 `json:"chain_id"`
	Contract   string `json:"contract"`
	Topic      string `json:"topic"`
	Index      uint64 `json:"index"`
	Publisher  string `json:"publisher"`
	Sender     string `json:"sender"`
	Timestamp  uint64 `json:"timestamp"`
	Text       string `json:"text"`
	Data       string `json:"data"`
	IngestedAt string `json:"ingested_at"`
}
