// Package rpc queries the source chain's full node: JSON-RPC for the chain
// head and transaction lookups, GraphQL for the end of each epoch.
package rpc

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/ybbus/jsonrpc"

	"github.com/lightrelay/lightrelay/libs/log"
	"github.com/lightrelay/lightrelay/light/provider"
	"github.com/lightrelay/lightrelay/types"
)

// This is brittle: full nodes report unknown transactions only in the error
// message.
var regexpNotFound = regexp.MustCompile(`(?i)(could not find|not found|does not exist)`)

const (
	methodLatestCheckpoint = "sui_getLatestCheckpointSequenceNumber"
	methodTransactionBlock = "sui_getTransactionBlock"
)

// Client implements provider.EpochIndex and provider.TransactionLocator.
type Client struct {
	rpc     *jsonrpc.RPCClient
	graphql *graphQLClient
	policy  provider.RetryPolicy
	logger  log.Logger
	remote  string
}

var (
	_ provider.EpochIndex         = (*Client)(nil)
	_ provider.TransactionLocator = (*Client)(nil)
)

// Option sets a parameter for the client.
type Option func(*Client)

// Logger option can be used to set a logger for the client.
func Logger(l log.Logger) Option {
	return func(c *Client) {
		c.logger = l
	}
}

// RetryPolicy option overrides the default retry policy.
func RetryPolicy(p provider.RetryPolicy) Option {
	return func(c *Client) {
		c.policy = p
	}
}

// New returns a client of the full node at rpcAddr and its GraphQL service
// at graphQLAddr. If no scheme is provided, http is used.
func New(rpcAddr, graphQLAddr string, timeout time.Duration, options ...Option) *Client {
	rpcAddr = withScheme(rpcAddr)
	httpClient := &http.Client{Timeout: timeout}

	rpcClient := jsonrpc.NewRPCClient(rpcAddr)
	rpcClient.SetHTTPClient(httpClient)

	c := &Client{
		rpc:     rpcClient,
		graphql: &graphQLClient{endpoint: withScheme(graphQLAddr), http: httpClient},
		policy:  provider.DefaultRetryPolicy(),
		logger:  log.NewNopLogger(),
		remote:  rpcAddr,
	}
	for _, o := range options {
		o(c)
	}
	return c
}

func (c *Client) String() string {
	return fmt.Sprintf("rpc{%s}", c.remote)
}

// LatestCheckpoint asks the full node for its newest checkpoint.
func (c *Client) LatestCheckpoint(ctx context.Context) (uint64, error) {
	var seq uint64
	err := c.policy.Do(ctx, func(ctx context.Context) error {
		var res BigUint
		if err := c.call(methodLatestCheckpoint, &res); err != nil {
			return err
		}
		seq = uint64(res)
		return nil
	})
	return seq, err
}

// LastCheckpointOfEpoch asks the GraphQL service for the last checkpoint of
// epoch.
func (c *Client) LastCheckpointOfEpoch(ctx context.Context, epoch uint64) (uint64, error) {
	var seq uint64
	err := c.policy.Do(ctx, func(ctx context.Context) error {
		s, err := c.graphql.lastCheckpointOfEpoch(ctx, epoch)
		if err != nil {
			return err
		}
		seq = s
		return nil
	})
	if err != nil {
		return 0, fmt.Errorf("last checkpoint of epoch %d: %w", epoch, err)
	}
	c.logger.Debug("found end of epoch", "epoch", epoch, "seq", seq)
	return seq, nil
}

type transactionBlock struct {
	Digest     string   `json:"digest"`
	Checkpoint *BigUint `json:"checkpoint"`
}

// CheckpointOfTransaction looks up the checkpoint including tx.
func (c *Client) CheckpointOfTransaction(ctx context.Context, tx types.Digest) (uint64, error) {
	var seq uint64
	err := c.policy.Do(ctx, func(ctx context.Context) error {
		var res transactionBlock
		err := c.call(methodTransactionBlock, &res, tx.String(), map[string]bool{})
		var rpcErr *jsonrpc.RPCError
		if errors.As(err, &rpcErr) && regexpNotFound.MatchString(rpcErr.Message) {
			return provider.ErrTransactionNotFound
		}
		if err != nil {
			return err
		}
		if res.Checkpoint == nil {
			return fmt.Errorf("%w: %v is not checkpointed yet", provider.ErrTransactionNotFound, tx)
		}
		seq = uint64(*res.Checkpoint)
		return nil
	})
	return seq, err
}

func (c *Client) call(method string, result interface{}, params ...interface{}) error {
	res, err := c.rpc.Call(method, params...)
	if err != nil {
		return fmt.Errorf("%s: %w", method, err)
	}
	if res.Error != nil {
		return fmt.Errorf("%s: %w", method, res.Error)
	}
	if err := res.GetObject(result); err != nil {
		return provider.ErrDecode{Reason: fmt.Errorf("%s: %w", method, err)}
	}
	return nil
}

func withScheme(addr string) string {
	if !strings.Contains(addr, "://") {
		return "http://" + addr
	}
	return addr
}

// BigUint is a u64 the source chain may render either as a JSON number or
// as a decimal string.
type BigUint uint64

func (n *BigUint) UnmarshalJSON(bz []byte) error {
	s := strings.Trim(string(bz), `"`)
	v, err := strconv.ParseUint(s, 10, 64)
	if err != nil {
		return fmt.Errorf("invalid u64 %s: %w", bz, err)
	}
	*n = BigUint(v)
	return nil
}

func (n BigUint) MarshalJSON() ([]byte, error) {
	return json.Marshal(strconv.FormatUint(uint64(n), 10))
}
