package usage

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"sync"
	"time"
)

// LogEntry is a single usage record written after a stream settles.
type LogEntry struct {
	Timestamp time.Time `json:"timestamp"`
	SessionID string    `json:"session_id,omitempty"`
	Mode      string    `json:"mode"`
	Provider  string    `json:"provider,omitempty"`
	Model     string    `json:"model"`
	TokensIn  int       `json:"tokens_in"`
	TokensOut int       `json:"tokens_out"`
	CostUSD   float64   `json:"cost_usd"`
	Estimated bool      `json:"estimated,omitempty"`
}

// Logger appends usage entries to daily JSONL files under the user data dir.
type Logger struct {
	baseDir string
	mu      sync.Mutex
}

var (
	defaultLogger     *Logger
	defaultLoggerOnce sync.Once
)

// DefaultLogger returns the singleton logger instance.
func DefaultLogger() *Logger {
	defaultLoggerOnce.Do(func() {
		defaultLogger = NewLogger(logDir())
	})
	return defaultLogger
}

// NewLogger creates a Logger writing beneath baseDir.
func NewLogger(baseDir string) *Logger {
	return &Logger{baseDir: baseDir}
}

// Log appends entry to the current day's file.
func (l *Logger) Log(entry LogEntry) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if err := os.MkdirAll(l.baseDir, 0755); err != nil {
		return err
	}
	if entry.Timestamp.IsZero() {
		entry.Timestamp = time.Now()
	}

	path := filepath.Join(l.baseDir, entry.Timestamp.Format("2006-01-02")+".jsonl")
	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		return err
	}
	defer f.Close()

	line, err := json.Marshal(entry)
	if err != nil {
		return err
	}
	line = append(line, '\n')
	_, err = f.Write(line)
	return err
}

// ReadDay returns the entries logged on the given day, oldest first. A
// missing file yields an empty slice.
func (l *Logger) ReadDay(day time.Time) ([]LogEntry, error) {
	path := filepath.Join(l.baseDir, day.Format("2006-01-02")+".jsonl")
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, err
	}

	var entries []LogEntry
	dec := json.NewDecoder(bytes.NewReader(data))
	for dec.More() {
		var entry LogEntry
		if err := dec.Decode(&entry); err != nil {
			// Skip a torn trailing line from a crashed writer.
			break
		}
		entries = append(entries, entry)
	}
	return entries, nil
}

func logDir() string {
	base, err := os.UserCacheDir()
	if err != nil {
		base = os.TempDir()
	}
	return filepath.Join(base, "codeswap", "usage")
}
