package config

import "testing"

func TestApplyChatOverrides(t *testing.T) {
	cfg := &Config{
		Chat: TargetConfig{Provider: "anthropic", Model: "claude-sonnet-4.5"},
	}

	cfg.ApplyChatOverrides("openai", "gpt-5")
	if cfg.Chat.Provider != "openai" {
		t.Fatalf("provider=%q, want %q", cfg.Chat.Provider, "openai")
	}
	if cfg.Chat.Model != "gpt-5" {
		t.Fatalf("model=%q, want %q", cfg.Chat.Model, "gpt-5")
	}

	cfg.ApplyChatOverrides("", "gpt-4.1-mini")
	if cfg.Chat.Provider != "openai" {
		t.Fatalf("provider changed unexpectedly: %q", cfg.Chat.Provider)
	}
	if cfg.Chat.Model != "gpt-4.1-mini" {
		t.Fatalf("model=%q, want %q", cfg.Chat.Model, "gpt-4.1-mini")
	}
}

func TestExpandEnv(t *testing.T) {
	t.Setenv("CODESWAP_TEST_SECRET", "sk-123")

	cases := []struct {
		in   string
		want string
	}{
		{"${CODESWAP_TEST_SECRET}", "sk-123"},
		{"$CODESWAP_TEST_SECRET", "sk-123"},
		{"plain-value", "plain-value"},
		{"", ""},
	}
	for _, tc := range cases {
		if got := expandEnv(tc.in); got != tc.want {
			t.Errorf("expandEnv(%q) = %q, want %q", tc.in, got, tc.want)
		}
	}
}

func TestResolveValue(t *testing.T) {
	t.Setenv("CODESWAP_TEST_SECRET", "sk-123")

	cases := []struct {
		in   string
		want string
	}{
		{"literal", "literal"},
		{"  padded  ", "padded"},
		{"${CODESWAP_TEST_SECRET}", "sk-123"},
		{"$(echo from-command)", "from-command"},
		{"", ""},
	}
	for _, tc := range cases {
		got, err := ResolveValue(tc.in)
		if err != nil {
			t.Errorf("ResolveValue(%q) error: %v", tc.in, err)
			continue
		}
		if got != tc.want {
			t.Errorf("ResolveValue(%q) = %q, want %q", tc.in, got, tc.want)
		}
	}
}

func TestResolveValueBadCommand(t *testing.T) {
	if _, err := ResolveValue("$(exit 3)"); err == nil {
		t.Error("expected error from failing command")
	}
}

func TestResolveValueSRVMissingRecord(t *testing.T) {
	if _, err := ResolveValue("srv:///v1"); err == nil {
		t.Error("expected error for srv reference without a record name")
	}
}
