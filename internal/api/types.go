// Package api is the HTTP client for the Code Swap service: request
// construction, authentication headers, and the streaming endpoints whose
// bodies feed the session engine.
package api

import "time"

// Providers the service routes to.
const (
	ProviderOpenAI     = "openai"
	ProviderAnthropic  = "anthropic"
	ProviderOpenRouter = "openrouter"
)

// Key modes. Vault resolves the credential server-side; local forwards a key
// supplied by the user for this request only.
const (
	KeyModeVault = "vault"
	KeyModeLocal = "local"
)

// ModelChoice identifies which backend credential/model pair a side or agent
// uses. Immutable per request.
type ModelChoice struct {
	Provider    string `json:"provider"`
	ModelID     string `json:"modelId"`
	KeyMode     string `json:"keyMode"`
	LocalAPIKey string `json:"localApiKey,omitempty"`
}

// Qualified returns the fully-qualified provider/model id used for pricing.
func (m ModelChoice) Qualified() string {
	return m.Provider + "/" + m.ModelID
}

// ContentPart is one piece of a user message.
type ContentPart struct {
	Type     string `json:"type"`
	Text     string `json:"text,omitempty"`
	ImageURL string `json:"imageUrl,omitempty"`
	FileID   string `json:"fileId,omitempty"`
}

// TextPart builds a plain-text content part.
func TextPart(text string) ContentPart {
	return ContentPart{Type: "text", Text: text}
}

// ChatStreamRequest starts a single-model stream.
type ChatStreamRequest struct {
	SessionID   string        `json:"sessionId"`
	Provider    string        `json:"provider"`
	ModelID     string        `json:"modelId"`
	KeyMode     string        `json:"keyMode"`
	LocalAPIKey string        `json:"localApiKey,omitempty"`
	Parts       []ContentPart `json:"parts"`
}

// CompareStreamRequest starts an A/B stream with two model targets.
type CompareStreamRequest struct {
	SessionID string        `json:"sessionId"`
	Left      ModelChoice   `json:"left"`
	Right     ModelChoice   `json:"right"`
	Parts     []ContentPart `json:"parts"`
}

// CrewRunRequest starts a crew run.
type CrewRunRequest struct {
	SessionID      string  `json:"sessionId"`
	Task           string  `json:"task"`
	CrewName       string  `json:"crewName"`
	BudgetLimitUSD float64 `json:"budgetLimitUsd"`
}

// Session is a server-side chat session.
type Session struct {
	ID          string `json:"id"`
	Title       string `json:"title"`
	ChatMode    string `json:"chatMode"`
	WorkspaceID string `json:"workspaceId,omitempty"`
	UserID      string `json:"userId"`
}

// SessionCreateRequest creates a server-side chat session.
type SessionCreateRequest struct {
	Title       string `json:"title"`
	ChatMode    string `json:"chatMode"`
	WorkspaceID string `json:"workspaceId,omitempty"`
}

// ModelInfo is one catalog entry.
type ModelInfo struct {
	ID           string         `json:"id"`
	Provider     string         `json:"provider"`
	ModelID      string         `json:"model_id"`
	Capabilities map[string]any `json:"capabilities"`
	IsActive     bool           `json:"is_active"`
	LastSyncedAt time.Time      `json:"last_synced_at"`
}

// ModelsListResponse is the catalog listing envelope.
type ModelsListResponse struct {
	Items       []ModelInfo `json:"items"`
	Stale       bool        `json:"stale"`
	StaleReason string      `json:"stale_reason,omitempty"`
}

// UsageSummary is the account-level usage rollup.
type UsageSummary struct {
	TotalRequests  int     `json:"totalRequests"`
	TotalTokensIn  int     `json:"totalTokensIn"`
	TotalTokensOut int     `json:"totalTokensOut"`
	TotalCostUSD   float64 `json:"totalCostUsd"`
}
