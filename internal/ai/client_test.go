package ai

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stemsi/kuisku-participant/internal/model"
)

func TestOpenDiscussionSendsBearerKey(t *testing.T) {
	var auth string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		auth = r.Header.Get("Authorization")
		w.Write([]byte(`{"peer_name":"Raka","peer_reasoning":"Aku pilih B.","discussion_prompt":"Kenapa?","insight":"Cek rumusnya."}`))
	}))
	defer srv.Close()

	client := NewClient(srv.URL, "secret-key", 5*time.Second, zerolog.Nop())
	opening, err := client.OpenDiscussion(context.Background(), &PeerSeed{
		Question:      &model.Question{ID: "q1", Prompt: "Soal"},
		StudentAnswer: "A. satu",
	})
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	if auth != "Bearer secret-key" {
		t.Errorf("authorization header = %q", auth)
	}
	if opening.PeerName != "Raka" {
		t.Fatalf("unexpected opening %+v", opening)
	}
}

func TestAnalyzeCodeCarriesFirstErrorMessage(t *testing.T) {
	var got map[string]interface{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/code-analysis" {
			http.NotFound(w, r)
			return
		}
		json.NewDecoder(r.Body).Decode(&got)
		w.Write([]byte(`{"summary":"off-by-one","issues":["batas loop"],"suggestions":["gunakan <="],"hints":["cek indeks terakhir"]}`))
	}))
	defer srv.Close()

	client := NewClient(srv.URL, "", 5*time.Second, zerolog.Nop())
	q := &model.Question{ID: "q1", Prompt: "Jumlahkan", Language: "python"}
	result := &model.CodeExecutionResult{
		PassedCount: 1,
		TotalCount:  2,
		Results: []model.TestResult{
			{Status: model.TestStatusPassed},
			{Status: model.TestStatusError, ErrorMessage: "IndexError"},
		},
	}

	analysis, err := client.AnalyzeCode(context.Background(), q, "code", result)
	if err != nil {
		t.Fatalf("analyze: %v", err)
	}
	if analysis.Summary != "off-by-one" || len(analysis.Hints) != 1 {
		t.Fatalf("unexpected analysis %+v", analysis)
	}
	if got["error_message"] != "IndexError" {
		t.Errorf("first error message not forwarded: %+v", got)
	}
	if got["language"] != "python" {
		t.Errorf("language not forwarded: %+v", got)
	}
}

func TestAIFailureSurfacesError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "model overloaded", http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	client := NewClient(srv.URL, "", 5*time.Second, zerolog.Nop())
	if _, err := client.OpenDiscussion(context.Background(), &PeerSeed{}); err == nil {
		t.Fatal("expected error from AI failure")
	}
}
