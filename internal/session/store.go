// Package session persists local transcripts of chat, compare and crew runs
// in a SQLite database so they can be listed, resumed and searched offline.
package session

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"
)

// Mode identifies which kind of run produced a session.
type Mode string

const (
	ModeChat    Mode = "chat"
	ModeCompare Mode = "compare"
	ModeCrew    Mode = "crew"
)

// Role identifies who produced a message.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
	RoleSynthesis Role = "synthesis"
)

// Session is a local transcript record. RemoteID holds the server-side
// session ID when the run was started against a backend session.
type Session struct {
	ID        string
	RemoteID  string
	Title     string
	Mode      Mode
	Provider  string
	Model     string
	CreatedAt time.Time
	UpdatedAt time.Time
	TokensIn  int64
	TokensOut int64
	CostUSD   float64
}

// Message is one turn in a transcript. Agent is set for crew runs and for
// compare runs, where it names the crew agent or the side's model.
type Message struct {
	ID        int64
	SessionID string
	Role      Role
	Agent     string
	Content   string
	CreatedAt time.Time
	Sequence  int
}

// SessionSummary is a lightweight listing row.
type SessionSummary struct {
	ID           string
	Title        string
	Mode         Mode
	Provider     string
	Model        string
	CreatedAt    time.Time
	UpdatedAt    time.Time
	MessageCount int
	CostUSD      float64
}

// SearchResult is a full-text hit inside a transcript.
type SearchResult struct {
	SessionID string
	MessageID int64
	Title     string
	Mode      Mode
	Snippet   string
	CreatedAt time.Time
}

// ListOptions filters List results.
type ListOptions struct {
	Mode     Mode
	Provider string
	Limit    int
	Offset   int
}

// Config controls store housekeeping.
type Config struct {
	// MaxAgeDays deletes sessions not updated within this many days. Zero
	// disables the age cutoff.
	MaxAgeDays int
	// MaxCount keeps only the most recently updated sessions. Zero
	// disables the cap.
	MaxCount int
}

// Store persists transcripts.
type Store interface {
	Create(ctx context.Context, sess *Session) error
	Get(ctx context.Context, id string) (*Session, error)
	Update(ctx context.Context, sess *Session) error
	Delete(ctx context.Context, id string) error
	List(ctx context.Context, opts ListOptions) ([]SessionSummary, error)
	Search(ctx context.Context, query string, limit int) ([]SearchResult, error)
	AddMessage(ctx context.Context, sessionID string, msg *Message) error
	GetMessages(ctx context.Context, sessionID string) ([]Message, error)
	AddUsage(ctx context.Context, sessionID string, tokensIn, tokensOut int64, costUSD float64) error
	SetCurrent(ctx context.Context, sessionID string) error
	GetCurrent(ctx context.Context) (*Session, error)
	ClearCurrent(ctx context.Context) error
	Close() error
}

// GetDBPath returns the path of the transcript database.
func GetDBPath() (string, error) {
	dataDir, err := os.UserCacheDir()
	if err != nil {
		return "", fmt.Errorf("get cache dir: %w", err)
	}
	return filepath.Join(dataDir, "codeswap", "sessions.db"), nil
}
