package ai

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

// Client calls the AI collaborator service for a peer persona with an
// opening remark, and for advisory code analysis. AI calls are slow;
// the timeout is configured separately from the other collaborators.
type Client struct {
	http    *http.Client
	baseURL string
	apiKey  string
	log     zerolog.Logger
}

// NewClient creates an AI collaborator client.
func NewClient(baseURL, apiKey string, timeout time.Duration, log zerolog.Logger) *Client {
	return &Client{
		http:    &http.Client{Timeout: timeout},
		baseURL: baseURL,
		apiKey:  apiKey,
		log:     log.With().Str("component", "ai_client").Logger(),
	}
}

// PeerSeed carries everything the AI needs to open a discussion thread.
type PeerSeed struct {
	Question         *model.Question `json:"question"`
	StudentAnswer    string          `json:"student_answer"`
	StudentReasoning string          `json:"student_reasoning"`
}

// PeerOpening is the generated persona plus opening remark.
type PeerOpening struct {
	PeerName         string `json:"peer_name"`
	PeerReasoning    string `json:"peer_reasoning"`
	DiscussionPrompt string `json:"discussion_prompt"`
	Insight          string `json:"insight"`
}

// OpenDiscussion requests a peer persona seeded with the question and
// the student's submitted answer.
func (c *Client) OpenDiscussion(ctx context.Context, seed *PeerSeed) (*PeerOpening, error) {
	var opening PeerOpening
	if err := c.postJSON(ctx, "/peer-discussion", seed, &opening); err != nil {
		return nil, err
	}
	return &opening, nil
}

type analyzeRequest struct {
	ProblemDescription string                     `json:"problem_description"`
	StudentCode        string                     `json:"student_code"`
	Language           string                     `json:"language"`
	TestResults        *model.CodeExecutionResult `json:"test_results"`
	ErrorMessage       string                     `json:"error_message,omitempty"`
}

// AnalyzeCode requests an advisory review of a not-all-passed solution.
// Purely advisory; never touches the phase machine.
func (c *Client) AnalyzeCode(ctx context.Context, q *model.Question, code string, result *model.CodeExecutionResult) (*model.CodeAnalysis, error) {
	req := analyzeRequest{
		ProblemDescription: q.Prompt,
		StudentCode:        code,
		Language:           q.Language,
		TestResults:        result,
	}
	for _, tr := range result.Results {
		if tr.ErrorMessage != "" {
			req.ErrorMessage = tr.ErrorMessage
			break
		}
	}

	var analysis model.CodeAnalysis
	if err := c.postJSON(ctx, "/code-analysis", req, &analysis); err != nil {
		return nil, err
	}
	return &analysis, nil
}

func (c *Client) postJSON(ctx context.Context, path string, body, dst interface{}) error {
	payload, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("marshal %s: %w", path, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("build request %s: %w", path, err)
	}
	req.Header.Set("Content-Type", "application/json")
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("call %s: %w", path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		return fmt.Errorf("ai %s: status %d", path, resp.StatusCode)
	}

	if err := json.NewDecoder(resp.Body).Decode(dst); err != nil {
		return fmt.Errorf("decode %s: %w", path, err)
	}
	return nil
}
