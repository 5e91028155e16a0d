// Package feed reads Net Protocol topic feeds and interprets their messages.
package feed

import (
	"context"
	"errors"
	"fmt"
	"math/big"
	"time"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/common"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"feedScope/internal/chain"
	"feedScope/internal/metrics"
	"feedScope/internal/model"
	"feedScope/internal/netproto"
)

// Caller executes a read-only contract call. *chain.Client implements it.
type Caller interface {
	CallContract(ctx context.Context, msg ethereum.CallMsg, blockNumber *big.Int) ([]byte, error)
}

// ReaderConfig holds the contract and retry policy for a Reader.
type ReaderConfig struct {
	Contract     common.Address
	MaxRetries   int
	RetryBackoff time.Duration
}

// Reader issues count and range calls against the Net contract.
type Reader struct {
	caller Caller
	cfg    ReaderConfig
	layout netproto.Layout
	logger *zap.Logger
}

// Page is one window of a topic feed, newest message first.
type Page struct {
	Topic    string
	Total    uint64
	Start    uint64
	End      uint64
	Messages []model.Message
	// DecodeErr is set when the range result could not be decoded; Messages is then empty.
	DecodeErr error
}

// TopicCount is the message count of one topic.
type TopicCount struct {
	Topic string `json:"topic"`
	Count uint64 `json:"count"`
}

// NewReader builds a Reader with its dependencies.
func NewReader(caller Caller, cfg ReaderConfig, logger *zap.Logger) *Reader {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Reader{
		caller: caller,
		cfg:    cfg,
		layout: netproto.NetMessageLayout,
		logger: logger,
	}
}

// Contract returns the address the reader calls.
func (r *Reader) Contract() common.Address {
	return r.cfg.Contract
}

// Count returns the number of messages stored under topic.
func (r *Reader) Count(ctx context.Context, topic string) (uint64, error) {
	data, err := netproto.CountCall(topic)
	if err != nil {
		return 0, err
	}
	resp, err := r.call(ctx, "count", topic, data)
	if err != nil {
		return 0, err
	}
	count, err := netproto.DecodeCount(resp)
	if err != nil {
		return 0, fmt.Errorf("decode count for %s: %w", topic, err)
	}
	return count, nil
}

// Range returns the messages of topic with index in [start, end), newest first.
// A result that fails to decode is returned as a *netproto.DecodeError.
func (r *Reader) Range(ctx context.Context, topic string, start, end uint64) ([]model.Message, error) {
	data, err := netproto.RangeCall(start, end, topic)
	if err != nil {
		return nil, err
	}
	resp, err := r.call(ctx, "range", topic, data)
	if err != nil {
		return nil, err
	}
	msgs, err := r.layout.Decode(resp)
	if err != nil {
		metrics.DecodeFailure(topic)
		r.logger.Warn("range result not decodable",
			zap.String("topic", topic),
			zap.Uint64("start", start),
			zap.Uint64("end", end),
			zap.Int("bytes", len(resp)),
			zap.Error(err),
		)
		return nil, err
	}
	return msgs, nil
}

// Latest returns the newest limit messages of topic.
// Decode failures produce an empty page with DecodeErr set; transport failures are returned.
func (r *Reader) Latest(ctx context.Context, topic string, limit uint64) (Page, error) {
	total, err := r.Count(ctx, topic)
	if err != nil {
		return Page{}, err
	}

	page := Page{Topic: topic, Total: total, End: total}
	if total == 0 || limit == 0 {
		page.Start = total
		page.Messages = []model.Message{}
		return page, nil
	}
	if total > limit {
		page.Start = total - limit
	}

	msgs, err := r.Range(ctx, topic, page.Start, page.End)
	if err != nil {
		var decodeErr *netproto.DecodeError
		if errors.As(err, &decodeErr) {
			page.Messages = []model.Message{}
			page.DecodeErr = err
			return page, nil
		}
		return Page{}, err
	}
	page.Messages = msgs
	return page, nil
}

// Stats counts every topic concurrently. Results keep the order of topics.
func (r *Reader) Stats(ctx context.Context, topics ...string) ([]TopicCount, error) {
	counts := make([]TopicCount, len(topics))
	g, gctx := errgroup.WithContext(ctx)
	for i, topic := range topics {
		i, topic := i, topic
		g.Go(func() error {
			count, err := r.Count(gctx, topic)
			if err != nil {
				return err
			}
			counts[i] = TopicCount{Topic: topic, Count: count}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return counts, nil
}

func (r *Reader) call(ctx context.Context, kind, topic string, data []byte) ([]byte, error) {
	contract := r.cfg.Contract
	msg := ethereum.CallMsg{To: &contract, Data: data}

	var resp []byte
	err := withRetry(ctx, r.cfg.MaxRetries, r.cfg.RetryBackoff, isTransient, func(ctx context.Context) error {
		var err error
		resp, err = r.caller.CallContract(ctx, msg, nil)
		if err != nil {
			r.logger.Warn("contract call failed", zap.String("call", kind), zap.String("topic", topic), zap.Error(err))
		}
		return err
	})
	if err != nil {
		if errors.Is(err, chain.ErrTransport) {
			return nil, err
		}
		return nil, &chain.CallError{Method: "eth_call", To: contract, Err: err}
	}
	return resp, nil
}

func isTransient(err error) bool {
	return !errors.Is(err, context.Canceled) && !errors.Is(err, context.DeadlineExceeded)
}
