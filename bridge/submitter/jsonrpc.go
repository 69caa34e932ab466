// Package submitter hands relay submissions over to the tools that sign
// and send target chain transactions.
package submitter

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/ybbus/jsonrpc"

	"github.com/lightrelay/lightrelay/bridge"
	"github.com/lightrelay/lightrelay/libs/log"
)

// JSONRPC posts submissions to a relay endpoint. The call is made once and
// never retried: the endpoint may have acted on a request whose response
// got lost.
type JSONRPC struct {
	rpc    *jsonrpc.RPCClient
	method string
	logger log.Logger
}

var _ bridge.Submitter = (*JSONRPC)(nil)

// NewJSONRPC returns a submitter calling method on the endpoint at addr,
// authenticated with token if it is not empty.
func NewJSONRPC(addr, method, token string, timeout time.Duration, logger log.Logger) *JSONRPC {
	if !strings.Contains(addr, "://") {
		addr = "http://" + addr
	}
	c := jsonrpc.NewRPCClient(addr)
	c.SetHTTPClient(&http.Client{Timeout: timeout})
	if token != "" {
		c.SetCustomHeader("Authorization", "Bearer "+token)
	}
	return &JSONRPC{rpc: c, method: method, logger: logger}
}

// Submit calls the relay method with the epoch and the submission.
func (s *JSONRPC) Submit(ctx context.Context, sub *bridge.Submission) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	res, err := s.rpc.Call(s.method, sub.Epoch, sub)
	if err != nil {
		return fmt.Errorf("%s: %w", s.method, err)
	}
	if res.Error != nil {
		return fmt.Errorf("%s: %w", s.method, res.Error)
	}

	var receipt json.RawMessage
	if err := res.GetObject(&receipt); err != nil {
		return fmt.Errorf("%s: bad receipt: %w", s.method, err)
	}
	s.logger.Info("relay endpoint accepted committee", "epoch", sub.Epoch, "receipt", string(receipt))
	return nil
}
