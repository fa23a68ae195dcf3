package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/rs/zerolog"
	"github.com/stemsi/kuisku-participant/internal/model"
)

// Sentinel errors the runtime branches on.
var (
	// ErrNoActiveSession is the recognized "gone" condition: a 404 or an
	// explicit no_session body. Terminal for the observing runtime.
	ErrNoActiveSession = errors.New("no active session")
	// ErrSubmissionRejected wraps a validation or server rejection of a
	// submit call. The draft stays editable and may be resubmitted.
	ErrSubmissionRejected = errors.New("submission rejected")
)

// Client consumes the teacher-driven quiz backend API as a black box.
type Client struct {
	http    *http.Client
	baseURL string
	log     zerolog.Logger
}

// NewClient creates a quiz backend client.
func NewClient(baseURL string, timeout time.Duration, log zerolog.Logger) *Client {
	return &Client{
		http:    &http.Client{Timeout: timeout},
		baseURL: baseURL,
		log:     log.With().Str("component", "backend_client").Logger(),
	}
}

// GetSessionStatus polls the live session. A 404 maps to
// ErrNoActiveSession so the caller can distinguish "gone" from
// transient failures.
func (c *Client) GetSessionStatus(ctx context.Context) (*model.SessionStatus, error) {
	var status model.SessionStatus
	if err := c.getJSON(ctx, "/live/session", &status); err != nil {
		return nil, err
	}
	if status.Status == model.SessionStateNone {
		return nil, ErrNoActiveSession
	}
	return &status, nil
}

// GetQuestion fetches the question at a session index.
func (c *Client) GetQuestion(ctx context.Context, index int) (*model.Question, error) {
	var q model.Question
	if err := c.getJSON(ctx, fmt.Sprintf("/live/session/questions/%d", index), &q); err != nil {
		return nil, err
	}
	return &q, nil
}

// submitWire is the flat shape the backend accepts. The confidence and
// reasoning fields double as score percentage and pass-count text for
// code submissions; that translation lives here and nowhere else.
type submitWire struct {
	QuestionID   string `json:"question_id"`
	StudentName  string `json:"student_name"`
	Answer       string `json:"answer"`
	Reasoning    string `json:"reasoning"`
	Confidence   int    `json:"confidence"`
	ResponseType string `json:"response_type"`
}

// SubmitResponse sends one answer. Rejections come back wrapped in
// ErrSubmissionRejected; the at-most-once guarantee is enforced by the
// caller's draft state, not assumed of the server.
func (c *Client) SubmitResponse(ctx context.Context, sub *model.Submission) error {
	if err := sub.Validate(); err != nil {
		return fmt.Errorf("%w: %v", ErrSubmissionRejected, err)
	}

	wire := submitWire{
		QuestionID:  sub.QuestionID,
		StudentName: sub.StudentName,
	}
	switch sub.Type {
	case model.SubmissionTypeMCQ:
		wire.Answer = sub.Mcq.Answer
		wire.Confidence = sub.Mcq.Confidence
		wire.Reasoning = sub.Mcq.Reasoning
		wire.ResponseType = "multiple_choice"
	case model.SubmissionTypeCode:
		if sub.Code.AllPassed {
			wire.Answer = "passed"
		} else {
			wire.Answer = "partial"
		}
		wire.Confidence = sub.Code.ScorePercent()
		wire.Reasoning = fmt.Sprintf("%d dari %d kasus uji lulus", sub.Code.PassedCount, sub.Code.TotalCount)
		wire.ResponseType = "code"
	}

	resp, err := c.do(ctx, http.MethodPost, "/live/session/responses", wire)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusNotFound:
		return ErrNoActiveSession
	case resp.StatusCode >= 400:
		return fmt.Errorf("%w: %s", ErrSubmissionRejected, readErrorBody(resp))
	}
	return nil
}

func (c *Client) getJSON(ctx context.Context, path string, dst interface{}) error {
	resp, err := c.do(ctx, http.MethodGet, path, nil)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusNotFound:
		return ErrNoActiveSession
	case resp.StatusCode >= 400:
		return fmt.Errorf("backend %s: status %d: %s", path, resp.StatusCode, readErrorBody(resp))
	}

	if err := json.NewDecoder(resp.Body).Decode(dst); err != nil {
		return fmt.Errorf("decode %s: %w", path, err)
	}
	return nil
}

func (c *Client) do(ctx context.Context, method, path string, body interface{}) (*http.Response, error) {
	var reader io.Reader
	if body != nil {
		buf, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("marshal %s: %w", path, err)
		}
		reader = bytes.NewReader(buf)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return nil, fmt.Errorf("build request %s: %w", path, err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("call %s: %w", path, err)
	}
	return resp, nil
}

// readErrorBody extracts a short error detail from a failed response.
func readErrorBody(resp *http.Response) string {
	raw, err := io.ReadAll(io.LimitReader(resp.Body, 2048))
	if err != nil || len(raw) == 0 {
		return resp.Status
	}

	var envelope struct {
		Error struct {
			Message string `json:"message"`
		} `json:"error"`
	}
	if err := json.Unmarshal(raw, &envelope); err == nil && envelope.Error.Message != "" {
		return envelope.Error.Message
	}
	return string(raw)
}
