package chain

import (
	"context"
	"errors"
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/ethclient"
	"github.com/ethereum/go-ethereum/rpc"

	"feedScope/internal/metrics"
)

// ErrTransport matches every failure to reach the node or get a result back from it.
var ErrTransport = errors.New("rpc transport failure")

// CallError reports a failed eth_call. The payload never reached the decoder.
type CallError struct {
	Method string
	To     common.Address
	Data   string
	Err    error
}

func (e *CallError) Error() string {
	return fmt.Sprintf("%s to %s: %v", e.Method, e.To.Hex(), e.Err)
}

func (e *CallError) Unwrap() error { return e.Err }

func (e *CallError) Is(target error) bool { return target == ErrTransport }

// Client wraps go-ethereum RPC for read-only contract calls.
type Client struct {
	rpcClient *rpc.Client
	ethClient *ethclient.Client
}

// NewClient creates a new chain client from the RPC URL.
func NewClient(ctx context.Context, rpcURL string) (*Client, error) {
	rpcClient, err := rpc.DialContext(ctx, rpcURL)
	if err != nil {
		return nil, &CallError{Method: "dial", Data: rpcURL, Err: err}
	}

	return &Client{
		rpcClient: rpcClient,
		ethClient: ethclient.NewClient(rpcClient),
	}, nil
}

// Close closes the underlying RPC client.
func (c *Client) Close() {
	if c.rpcClient != nil {
		c.rpcClient.Close()
	}
}

// ChainID returns the chain ID reported by the node.
func (c *Client) ChainID(ctx context.Context) (*big.Int, error) {
	id, err := c.ethClient.ChainID(ctx)
	if err != nil {
		metrics.ObserveRPC("eth_chainId", err)
		return nil, &CallError{Method: "eth_chainId", Err: err}
	}
	metrics.ObserveRPC("eth_chainId", nil)
	return id, nil
}

// CallContract performs an eth_call. A nil blockNumber reads at latest.
func (c *Client) CallContract(ctx context.Context, msg ethereum.CallMsg, blockNumber *big.Int) ([]byte, error) {
	out, err := c.ethClient.CallContract(ctx, msg, blockNumber)
	metrics.ObserveRPC("eth_call", err)
	if err != nil {
		callErr := &CallError{Method: "eth_call", Data: hexutil.Encode(msg.Data), Err: err}
		if msg.To != nil {
			callErr.To = *msg.To
		}
		return nil, callErr
	}
	return out, nil
}
