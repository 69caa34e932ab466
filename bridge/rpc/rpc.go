// Package rpc reads the target chain's committee registry over JSON-RPC.
package rpc

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/btcsuite/btcutil/base58"
	"github.com/ybbus/jsonrpc"

	"github.com/lightrelay/lightrelay/bridge"
	"github.com/lightrelay/lightrelay/libs/log"
	"github.com/lightrelay/lightrelay/light/provider"
	sourcerpc "github.com/lightrelay/lightrelay/light/provider/rpc"
	"github.com/lightrelay/lightrelay/types"
)

const (
	methodQueryEvents = "suix_queryEvents"
	methodGetObject   = "sui_getObject"
)

// ErrObjectNotFound is returned when the full node knows no object with
// the requested id.
var ErrObjectNotFound = errors.New("object not found")

// Client implements bridge.EventSource and bridge.ObjectResolver.
type Client struct {
	rpc    *jsonrpc.RPCClient
	policy provider.RetryPolicy
	logger log.Logger
	remote string
}

var (
	_ bridge.EventSource    = (*Client)(nil)
	_ bridge.ObjectResolver = (*Client)(nil)
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

// New returns a client of the target chain full node at addr. If no scheme
// is provided, http is used.
func New(addr string, timeout time.Duration, options ...Option) *Client {
	if !strings.Contains(addr, "://") {
		addr = "http://" + addr
	}
	rpcClient := jsonrpc.NewRPCClient(addr)
	rpcClient.SetHTTPClient(&http.Client{Timeout: timeout})

	c := &Client{
		rpc:    rpcClient,
		policy: provider.DefaultRetryPolicy(),
		logger: log.NewNopLogger(),
		remote: addr,
	}
	for _, o := range options {
		o(c)
	}
	return c
}

func (c *Client) String() string {
	return fmt.Sprintf("target{%s}", c.remote)
}

type moveModuleFilter struct {
	MoveModule struct {
		Package string `json:"package"`
		Module  string `json:"module"`
	} `json:"MoveModule"`
}

// QueryEvents returns one page of the events emitted by filter's module,
// newest first.
func (c *Client) QueryEvents(
	ctx context.Context,
	filter bridge.EventFilter,
	cursor *bridge.EventID,
	limit int,
) (*bridge.EventPage, error) {
	var f moveModuleFilter
	f.MoveModule.Package = filter.Package.String()
	f.MoveModule.Module = filter.Module

	var page *bridge.EventPage
	err := c.policy.Do(ctx, func(ctx context.Context) error {
		var res bridge.EventPage
		if err := c.call(methodQueryEvents, &res, f, cursor, limit, true); err != nil {
			return err
		}
		page = &res
		return nil
	})
	if err != nil {
		return nil, err
	}
	c.logger.Debug("queried events", "module", filter.Module, "events", len(page.Data), "more", page.HasNextPage)
	return page, nil
}

type objectResponse struct {
	Data *struct {
		ObjectID types.ObjectID    `json:"objectId"`
		Version  sourcerpc.BigUint `json:"version"`
		Digest   string            `json:"digest"`
	} `json:"data"`
	Error *struct {
		Code string `json:"code"`
	} `json:"error"`
}

// ObjectRef returns the current reference of object id.
func (c *Client) ObjectRef(ctx context.Context, id types.ObjectID) (types.ObjectRef, error) {
	var ref types.ObjectRef
	err := c.policy.Do(ctx, func(ctx context.Context) error {
		var res objectResponse
		if err := c.call(methodGetObject, &res, id.String(), map[string]bool{}); err != nil {
			return err
		}
		if res.Data == nil {
			code := "no data"
			if res.Error != nil {
				code = res.Error.Code
			}
			return provider.ErrDecode{Reason: fmt.Errorf("%w: %v (%s)", ErrObjectNotFound, id, code)}
		}
		digest, err := ObjectDigestFromBase58(res.Data.Digest)
		if err != nil {
			return provider.ErrDecode{Reason: err}
		}
		ref = types.ObjectRef{
			ObjectID: res.Data.ObjectID,
			Version:  uint64(res.Data.Version),
			Digest:   digest,
		}
		return nil
	})
	return ref, err
}

// ObjectDigestFromBase58 parses an object digest in the full node's base58
// form.
func ObjectDigestFromBase58(s string) (types.Digest, error) {
	var d types.Digest
	bz := base58.Decode(s)
	if len(bz) != types.DigestSize {
		return d, fmt.Errorf("invalid object digest %q", s)
	}
	copy(d[:], bz)
	return d, nil
}

// ObjectDigestToBase58 renders d the way the full node does.
func ObjectDigestToBase58(d types.Digest) string {
	return base58.Encode(d[:])
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
