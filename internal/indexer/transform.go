package indexer

import (
	"time"

	"github.com/ethereum/go-ethereum/common/hexutil"

	"feedScope/internal/model"
)

func buildMessageRecord(chainID uint64, contract string, index uint64, msg model.Message, ingestedAt time.Time) model.MessageRecord {
	return model.MessageRecord{
		ChainID:    chainID,
		Contract:   contract,
		Topic:      msg.Topic,
		Index:      index,
		Publisher:  msg.Publisher.Hex(),
		Sender:     msg.Sender.Hex(),
		Timestamp:  msg.Timestamp,
		Text:       msg.Text,
		Data:       hexutil.Encode(msg.Data),
		IngestedAt: ingestedAt.UTC().Format(time.RFC3339Nano),
	}
}

// indexRecords assigns absolute indices to a batch returned newest first.
func indexRecords(chainID uint64, contract string, batch IndexRange, msgs []model.Message, ingestedAt time.Time) []model.MessageRecord {
	records := make([]model.MessageRecord, 0, len(msgs))
	for i, msg := range msgs {
		records = append(records, buildMessageRecord(chainID, contract, batch.End-1-uint64(i), msg, ingestedAt))
	}
	return records
}
