package rpc

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/lightrelay/lightrelay/light/provider"
)

const lastCheckpointOfEpochQuery = `query ($epochID: Int) { epoch(id: $epochID) { checkpoints(last: 1) { nodes { sequenceNumber } } } }`

type graphQLClient struct {
	endpoint string
	http     *http.Client
}

type graphQLRequest struct {
	Query     string                 `json:"query"`
	Variables map[string]interface{} `json:"variables,omitempty"`
}

type graphQLError struct {
	Message string `json:"message"`
}

type epochCheckpointsResponse struct {
	Data struct {
		Epoch *struct {
			Checkpoints struct {
				Nodes []struct {
					SequenceNumber BigUint `json:"sequenceNumber"`
				} `json:"nodes"`
			} `json:"checkpoints"`
		} `json:"epoch"`
	} `json:"data"`
	Errors []graphQLError `json:"errors"`
}

func (c *graphQLClient) lastCheckpointOfEpoch(ctx context.Context, epoch uint64) (uint64, error) {
	var res epochCheckpointsResponse
	err := c.do(ctx, graphQLRequest{
		Query:     lastCheckpointOfEpochQuery,
		Variables: map[string]interface{}{"epochID": epoch},
	}, &res)
	if err != nil {
		return 0, err
	}
	if len(res.Errors) > 0 {
		msgs := make([]string, len(res.Errors))
		for i, e := range res.Errors {
			msgs[i] = e.Message
		}
		return 0, fmt.Errorf("graphql: %s", strings.Join(msgs, "; "))
	}
	if res.Data.Epoch == nil || len(res.Data.Epoch.Checkpoints.Nodes) == 0 {
		return 0, provider.ErrCheckpointNotFound
	}
	return uint64(res.Data.Epoch.Checkpoints.Nodes[0].SequenceNumber), nil
}

func (c *graphQLClient) do(ctx context.Context, q graphQLRequest, result interface{}) error {
	body, err := json.Marshal(q)
	if err != nil {
		return err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("post graphql query: %w", err)
	}
	defer resp.Body.Close()

	bz, err := io.ReadAll(resp.Body)
	if err != nil {
		return err
	}
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("graphql: %s: %s", resp.Status, bz)
	}
	if err := json.Unmarshal(bz, result); err != nil {
		return provider.ErrDecode{Reason: fmt.Errorf("graphql response: %w", err)}
	}
	return nil
}
