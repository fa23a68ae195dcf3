//go:build e2e
// +build e2e

package e2e

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"testing"
	"time"

	"github.com/joho/godotenv"
)

// Smoke test against a running gateway with live collaborators (quiz
// backend, Redis). Build with -tags e2e and point BASE_URL at the
// gateway.

const defaultBaseURL = "http://localhost:8090/api/v1"

var (
	baseURL          string
	participantToken string
)

func TestMain(m *testing.M) {
	_ = godotenv.Load("../../.env")

	baseURL = os.Getenv("BASE_URL")
	if baseURL == "" {
		baseURL = defaultBaseURL
	}

	os.Exit(m.Run())
}

type envelope struct {
	Data  json.RawMessage `json:"data"`
	Error *struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
	Metadata struct {
		RequestID string `json:"request_id"`
	} `json:"metadata"`
}

func call(t *testing.T, method, path string, body interface{}, token string) (*http.Response, *envelope) {
	t.Helper()

	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("marshal body: %v", err)
		}
		reader = bytes.NewReader(raw)
	}

	req, err := http.NewRequest(method, baseURL+path, reader)
	if err != nil {
		t.Fatalf("build request: %v", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("call %s %s: %v", method, path, err)
	}
	defer resp.Body.Close()

	var env envelope
	if err := json.NewDecoder(resp.Body).Decode(&env); err != nil {
		t.Fatalf("decode %s %s: %v", method, path, err)
	}
	return resp, &env
}

func TestHealth(t *testing.T) {
	resp, err := http.Get(baseURL[:len(baseURL)-len("/api/v1")] + "/health")
	if err != nil {
		t.Fatalf("health: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("health status %d", resp.StatusCode)
	}
}

func TestJoinAndState(t *testing.T) {
	resp, env := call(t, http.MethodPost, "/participant/join", map[string]string{
		"display_name": fmt.Sprintf("E2E Peserta %d", time.Now().Unix()),
	}, "")
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("join status %d: %+v", resp.StatusCode, env.Error)
	}

	var joined struct {
		ParticipantID string `json:"participant_id"`
		Token         string `json:"token"`
	}
	if err := json.Unmarshal(env.Data, &joined); err != nil {
		t.Fatalf("decode join data: %v", err)
	}
	if joined.Token == "" || joined.ParticipantID == "" {
		t.Fatalf("join returned empty identity: %s", env.Data)
	}
	participantToken = joined.Token

	resp, env = call(t, http.MethodGet, "/participant/state", nil, participantToken)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("state status %d: %+v", resp.StatusCode, env.Error)
	}

	var snap struct {
		Phase string `json:"phase"`
	}
	if err := json.Unmarshal(env.Data, &snap); err != nil {
		t.Fatalf("decode state: %v", err)
	}
	if snap.Phase == "" {
		t.Fatalf("state without phase: %s", env.Data)
	}
	if env.Metadata.RequestID == "" {
		t.Error("responses must carry a request id")
	}
}

func TestStateRequiresToken(t *testing.T) {
	resp, _ := call(t, http.MethodGet, "/participant/state", nil, "")
	if resp.StatusCode != http.StatusUnauthorized {
		t.Fatalf("unauthenticated state status %d, want 401", resp.StatusCode)
	}
}

func TestLeave(t *testing.T) {
	if participantToken == "" {
		t.Skip("join test did not run")
	}

	resp, env := call(t, http.MethodPost, "/participant/leave", nil, participantToken)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("leave status %d: %+v", resp.StatusCode, env.Error)
	}

	// The token is dead after leave.
	resp, _ = call(t, http.MethodGet, "/participant/state", nil, participantToken)
	if resp.StatusCode != http.StatusUnauthorized {
		t.Fatalf("state after leave status %d, want 401", resp.StatusCode)
	}
}
