package config_test

import (
	"testing"

	"github.com/LBKdotdev/the-scoop/internal/config"
)

func TestDiffNoChanges(t *testing.T) {
	t.Parallel()
	a := &config.Config{}
	a.Server.LogLevel = config.LogInfo
	b := &config.Config{}
	b.Server.LogLevel = config.LogInfo

	d := config.Diff(a, b)
	if d.Any() {
		t.Fatalf("expected empty diff, got %+v", d)
	}
}

func TestDiffLogLevel(t *testing.T) {
	t.Parallel()
	a := &config.Config{}
	a.Server.LogLevel = config.LogInfo
	b := &config.Config{}
	b.Server.LogLevel = config.LogDebug

	d := config.Diff(a, b)
	if !d.LogLevelChanged || d.NewLogLevel != config.LogDebug {
		t.Fatalf("diff = %+v", d)
	}
	if d.BoostChanged {
		t.Error("boost should be unchanged")
	}
}

func TestDiffBoost(t *testing.T) {
	t.Parallel()
	a := &config.Config{}
	a.Boost = config.BoostConfig{Enabled: true, Provider: "groq", Model: "llama-3.3-70b-versatile"}
	b := &config.Config{}
	b.Boost = config.BoostConfig{Enabled: true, Provider: "groq", Model: "llama-3.1-8b-instant"}

	d := config.Diff(a, b)
	if !d.BoostChanged || d.NewBoost.Model != "llama-3.1-8b-instant" {
		t.Fatalf("diff = %+v", d)
	}
}
