package api

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestStreamChatSendsRequestAndReturnsBody(t *testing.T) {
	var got ChatStreamRequest
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v1/chat/messages/stream" {
			t.Errorf("path = %s", r.URL.Path)
		}
		if auth := r.Header.Get("Authorization"); auth != "Bearer tok" {
			t.Errorf("auth header = %q", auth)
		}
		if err := json.NewDecoder(r.Body).Decode(&got); err != nil {
			t.Errorf("decode request: %v", err)
		}
		w.Header().Set("Content-Type", "text/event-stream")
		io.WriteString(w, "data: {\"type\":\"done\"}\n\n")
	}))
	defer server.Close()

	client, err := NewClient(server.URL, "tok")
	if err != nil {
		t.Fatalf("new client: %v", err)
	}

	body, err := client.StreamChat(context.Background(), ChatStreamRequest{
		SessionID: "s1",
		Provider:  ProviderAnthropic,
		ModelID:   "claude-sonnet-4.5",
		KeyMode:   KeyModeVault,
		Parts:     []ContentPart{TextPart("hello")},
	})
	if err != nil {
		t.Fatalf("stream: %v", err)
	}
	defer body.Close()

	if got.SessionID != "s1" || got.ModelID != "claude-sonnet-4.5" || got.KeyMode != "vault" {
		t.Errorf("unexpected request: %+v", got)
	}
	if len(got.Parts) != 1 || got.Parts[0].Text != "hello" {
		t.Errorf("unexpected parts: %+v", got.Parts)
	}

	data, _ := io.ReadAll(body)
	if string(data) != "data: {\"type\":\"done\"}\n\n" {
		t.Errorf("unexpected body: %q", data)
	}
}

func TestStreamCrewForwardsLocalKey(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v1/crew/stream" {
			t.Errorf("path = %s", r.URL.Path)
		}
		if key := r.Header.Get("X-OpenRouter-Key"); key != "sk-local" {
			t.Errorf("local key header = %q", key)
		}
		io.WriteString(w, "data: {\"type\":\"crew_done\"}\n\n")
	}))
	defer server.Close()

	client, _ := NewClient(server.URL, "")
	body, err := client.StreamCrew(context.Background(), CrewRunRequest{
		SessionID: "s1", Task: "do things", CrewName: "default", BudgetLimitUSD: 5,
	}, "sk-local")
	if err != nil {
		t.Fatalf("stream: %v", err)
	}
	body.Close()
}

func TestStreamNon2xxIsFatal(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"detail":"Chat session not found"}`, http.StatusNotFound)
	}))
	defer server.Close()

	client, _ := NewClient(server.URL, "tok")
	_, err := client.StreamChat(context.Background(), ChatStreamRequest{})
	if err == nil {
		t.Fatal("expected error for non-2xx response")
	}
}

func TestListModels(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v1/models" {
			t.Errorf("path = %s", r.URL.Path)
		}
		if p := r.URL.Query().Get("provider"); p != "openai" {
			t.Errorf("provider query = %q", p)
		}
		json.NewEncoder(w).Encode(ModelsListResponse{
			Items: []ModelInfo{{ID: "1", Provider: "openai", ModelID: "gpt-5", IsActive: true}},
		})
	}))
	defer server.Close()

	client, _ := NewClient(server.URL, "tok")
	resp, err := client.ListModels(context.Background(), "openai")
	if err != nil {
		t.Fatalf("list models: %v", err)
	}
	if len(resp.Items) != 1 || resp.Items[0].ModelID != "gpt-5" {
		t.Errorf("unexpected catalog: %+v", resp)
	}
}

func TestUsageSummary(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]any{
			"totalRequests": 3, "totalTokensIn": 100, "totalTokensOut": 50, "totalCostUsd": 0.01,
		})
	}))
	defer server.Close()

	client, _ := NewClient(server.URL, "tok")
	summary, err := client.UsageSummary(context.Background())
	if err != nil {
		t.Fatalf("usage summary: %v", err)
	}
	if summary.TotalRequests != 3 || summary.TotalCostUSD != 0.01 {
		t.Errorf("unexpected summary: %+v", summary)
	}
}

func TestNormalizeBaseURL(t *testing.T) {
	cases := []struct {
		in   string
		want string
	}{
		{"http://localhost:8000", "http://localhost:8000"},
		{"localhost:8000", "http://localhost:8000"},
		{"https://swap.example.com/", "https://swap.example.com"},
	}
	for _, tc := range cases {
		got, err := normalizeBaseURL(tc.in)
		if err != nil {
			t.Errorf("normalizeBaseURL(%q): %v", tc.in, err)
			continue
		}
		if got != tc.want {
			t.Errorf("normalizeBaseURL(%q) = %q, want %q", tc.in, got, tc.want)
		}
	}
	if _, err := normalizeBaseURL("  "); err == nil {
		t.Error("expected error for empty URL")
	}
}

func TestModelChoiceQualified(t *testing.T) {
	choice := ModelChoice{Provider: ProviderAnthropic, ModelID: "claude-haiku-4.5"}
	if got := choice.Qualified(); got != "anthropic/claude-haiku-4.5" {
		t.Errorf("Qualified() = %q", got)
	}
}

type countingTransport struct {
	calls int
}

func (ct *countingTransport) RoundTrip(r *http.Request) (*http.Response, error) {
	ct.calls++
	return http.DefaultTransport.RoundTrip(r)
}

func TestSetHTTPClientRoutesRequests(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(ModelsListResponse{})
	}))
	defer server.Close()

	client, err := NewClient(server.URL, "tok")
	if err != nil {
		t.Fatalf("new client: %v", err)
	}
	ct := &countingTransport{}
	client.SetHTTPClient(&http.Client{Transport: ct})

	if _, err := client.ListModels(context.Background(), ""); err != nil {
		t.Fatalf("list models: %v", err)
	}
	if ct.calls != 1 {
		t.Errorf("injected transport saw %d requests, want 1", ct.calls)
	}
}
