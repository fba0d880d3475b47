package crew

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestSaveAndLoad(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())

	cfg := DefaultCrew()
	path, err := Save(cfg)
	if err != nil {
		t.Fatalf("Save: %v", err)
	}
	if !strings.HasSuffix(path, "default.yaml") {
		t.Errorf("unexpected path %q", path)
	}

	loaded, err := Load("default")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if loaded.Name != "default" {
		t.Errorf("Name = %q, want default", loaded.Name)
	}
	if loaded.Orchestrator != "lead" {
		t.Errorf("Orchestrator = %q, want lead", loaded.Orchestrator)
	}
	if len(loaded.Agents) != 3 {
		t.Errorf("got %d agents, want 3", len(loaded.Agents))
	}
	if got := loaded.Specialists(); len(got) != 2 || got[0] != "coder" || got[1] != "researcher" {
		t.Errorf("Specialists() = %v", got)
	}
}

func TestLoadMissing(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())

	_, err := Load("nope")
	if err == nil {
		t.Fatal("expected error for missing crew")
	}
	if !strings.Contains(err.Error(), "not found") {
		t.Errorf("unexpected error: %v", err)
	}
}

func TestValidate(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())
	dir, err := Dir()
	if err != nil {
		t.Fatal(err)
	}
	if err := os.MkdirAll(dir, 0755); err != nil {
		t.Fatal(err)
	}

	cases := []struct {
		name string
		yaml string
		want string
	}{
		{
			name: "missing name",
			yaml: "orchestrator: lead\nagents:\n  lead: {model: m, role: orchestrator}\n",
			want: "missing required key 'name'",
		},
		{
			name: "no agents",
			yaml: "name: x\norchestrator: lead\n",
			want: "non-empty mapping",
		},
		{
			name: "bad role",
			yaml: "name: x\norchestrator: lead\nagents:\n  lead: {model: m, role: boss}\n",
			want: "invalid role",
		},
		{
			name: "orchestrator not an agent",
			yaml: "name: x\norchestrator: lead\nagents:\n  other: {model: m, role: specialist}\n",
			want: "not listed in agents",
		},
		{
			name: "agent missing model",
			yaml: "name: x\norchestrator: lead\nagents:\n  lead: {role: orchestrator}\n",
			want: "missing required field 'model'",
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			path := filepath.Join(dir, "bad.yaml")
			if err := os.WriteFile(path, []byte(tc.yaml), 0644); err != nil {
				t.Fatal(err)
			}
			_, err := Load("bad")
			if err == nil {
				t.Fatal("expected validation error")
			}
			if !strings.Contains(err.Error(), tc.want) {
				t.Errorf("error %q does not contain %q", err, tc.want)
			}
		})
	}
}

func TestValidateDefaults(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())
	dir, err := Dir()
	if err != nil {
		t.Fatal(err)
	}
	if err := os.MkdirAll(dir, 0755); err != nil {
		t.Fatal(err)
	}

	raw := "name: lean\norchestrator: lead\nagents:\n  lead: {model: m, role: orchestrator}\n"
	if err := os.WriteFile(filepath.Join(dir, "lean.yaml"), []byte(raw), 0644); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load("lean")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.BudgetLimitUSD != 5.0 {
		t.Errorf("BudgetLimitUSD = %v, want 5.0 default", cfg.BudgetLimitUSD)
	}
	if cfg.Agents["lead"].MaxTokens != 4096 {
		t.Errorf("MaxTokens = %d, want 4096 default", cfg.Agents["lead"].MaxTokens)
	}
}

func TestEnsureDefaults(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())

	if err := EnsureDefaults(); err != nil {
		t.Fatalf("EnsureDefaults: %v", err)
	}
	names, err := List()
	if err != nil {
		t.Fatal(err)
	}
	if len(names) != 1 || names[0] != "default" {
		t.Errorf("List() = %v, want [default]", names)
	}

	// A second call must not clobber or duplicate anything.
	if err := EnsureDefaults(); err != nil {
		t.Fatal(err)
	}
	names, _ = List()
	if len(names) != 1 {
		t.Errorf("got %d crews after second EnsureDefaults, want 1", len(names))
	}
}
