package executor

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/rs/zerolog"
	"github.com/stemsi/kuisku-participant/internal/model"
)

// Client relays student code to the external execution sandbox.
// The sandbox grades against test cases and returns per-test verdicts;
// compile and runtime errors arrive inside the result, not as call
// failures.
type Client struct {
	http    *http.Client
	baseURL string
	log     zerolog.Logger
}

// NewClient creates a code executor client.
func NewClient(baseURL string, timeout time.Duration, log zerolog.Logger) *Client {
	return &Client{
		http:    &http.Client{Timeout: timeout},
		baseURL: baseURL,
		log:     log.With().Str("component", "executor_client").Logger(),
	}
}

type runRequest struct {
	Code      string           `json:"code"`
	TestCases []model.TestCase `json:"test_cases"`
	Language  string           `json:"language"`
}

// Run executes code against the question's test cases and returns the
// sandbox verdict verbatim.
func (c *Client) Run(ctx context.Context, code, language string, tests []model.TestCase) (*model.CodeExecutionResult, error) {
	payload, err := json.Marshal(runRequest{Code: code, TestCases: tests, Language: language})
	if err != nil {
		return nil, fmt.Errorf("marshal run request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/execute", bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("build run request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("call executor: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		return nil, fmt.Errorf("executor status %d", resp.StatusCode)
	}

	var result model.CodeExecutionResult
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, fmt.Errorf("decode executor result: %w", err)
	}

	c.log.Debug().
		Int("passed", result.PassedCount).
		Int("total", result.TotalCount).
		Bool("all_passed", result.AllPassed).
		Msg("Run finished")

	return &result, nil
}
