package plugins

import (
	"errors"
	"testing"

	coreadvisor "github.com/kilianp07/feederwatch/core/advisor"
	"github.com/kilianp07/feederwatch/infra/advisor"
	"github.com/kilianp07/feederwatch/infra/logger"
)

func TestBuiltinAdvisors(t *testing.T) {
	names := AdvisorNames()
	if len(names) != 2 || names[0] != Anthropic || names[1] != Heuristic {
		t.Fatalf("unexpected advisors: %v", names)
	}
	a, err := NewAdvisor(Heuristic, advisor.Config{}, logger.NopLogger{})
	if err != nil {
		t.Fatalf("heuristic: %v", err)
	}
	if _, ok := a.(coreadvisor.NopAdvisor); !ok {
		t.Fatalf("expected NopAdvisor, got %T", a)
	}
}

func TestAnthropicRequiresKey(t *testing.T) {
	t.Setenv(advisor.EnvAPIKey, "")
	_, err := NewAdvisor(Anthropic, advisor.Config{Enabled: true}, logger.NopLogger{})
	if !errors.Is(err, coreadvisor.ErrNoAPIKey) {
		t.Fatalf("expected ErrNoAPIKey, got %v", err)
	}
	a, err := NewAdvisor(Anthropic, advisor.Config{Enabled: true, APIKey: "k"}, logger.NopLogger{})
	if err != nil {
		t.Fatalf("anthropic: %v", err)
	}
	if _, ok := a.(*advisor.Client); !ok {
		t.Fatalf("expected *advisor.Client, got %T", a)
	}
}

func TestUnknownAdvisor(t *testing.T) {
	if _, err := NewAdvisor("oracle", advisor.Config{}, logger.NopLogger{}); err == nil {
		t.Fatal("expected error for unknown advisor")
	}
}
