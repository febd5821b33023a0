package factory

import (
	"path/filepath"
	"testing"

	"go.uber.org/zap"

	"github.com/mikey/phish-triage/internal/adapters/httpapi"
	"github.com/mikey/phish-triage/internal/adapters/ledger"
	"github.com/mikey/phish-triage/internal/adapters/llm/openai"
	"github.com/mikey/phish-triage/internal/config"
	"github.com/mikey/phish-triage/internal/utils"
)

func newConfig(settings map[string]any) *config.Config {
	cfg := config.NewFromViper(config.NewEmptyViper())
	for k, v := range settings {
		cfg.Set(k, v)
	}
	return cfg
}

func newAnalyzerFactory(t *testing.T, cfg *config.Config) *AnalyzerFactory {
	t.Helper()
	logger := zap.NewNop()
	api, err := NewAPIClientFactory(cfg, logger).CreateClient()
	if err != nil {
		t.Fatalf("CreateClient: %v", err)
	}
	return NewAnalyzerFactory(cfg, logger, utils.NewTextProcessor(logger), api)
}

func TestCreateClientRequiresBaseURL(t *testing.T) {
	t.Parallel()

	cfg := newConfig(map[string]any{"api.base_url": ""})
	if _, err := NewAPIClientFactory(cfg, zap.NewNop()).CreateClient(); err == nil {
		t.Fatal("expected error without a base url")
	}
}

func TestCreateAnalyzer(t *testing.T) {
	t.Parallel()

	t.Run("http", func(t *testing.T) {
		t.Parallel()
		analyzer, err := newAnalyzerFactory(t, newConfig(nil)).CreateAnalyzer()
		if err != nil {
			t.Fatalf("CreateAnalyzer: %v", err)
		}
		if _, ok := analyzer.(*httpapi.Client); !ok {
			t.Errorf("analyzer = %T, want *httpapi.Client", analyzer)
		}
	})

	t.Run("openai", func(t *testing.T) {
		t.Parallel()
		cfg := newConfig(map[string]any{"analyzer.backend": "openai", "openai.api_key": "sk-test"})
		analyzer, err := newAnalyzerFactory(t, cfg).CreateAnalyzer()
		if err != nil {
			t.Fatalf("CreateAnalyzer: %v", err)
		}
		if _, ok := analyzer.(*openai.Analyzer); !ok {
			t.Errorf("analyzer = %T, want *openai.Analyzer", analyzer)
		}
	})

	for _, backend := range []string{"openai", "gemini"} {
		backend := backend
		t.Run(backend+" without key", func(t *testing.T) {
			t.Parallel()
			cfg := newConfig(map[string]any{"analyzer.backend": backend})
			if _, err := newAnalyzerFactory(t, cfg).CreateAnalyzer(); err == nil {
				t.Fatal("expected error without an API key")
			}
		})
	}

	t.Run("unsupported", func(t *testing.T) {
		t.Parallel()
		cfg := newConfig(map[string]any{"analyzer.backend": "abacus"})
		if _, err := newAnalyzerFactory(t, cfg).CreateAnalyzer(); err == nil {
			t.Fatal("expected error for an unsupported backend")
		}
	})
}

func TestCreateLedger(t *testing.T) {
	t.Parallel()

	t.Run("disabled", func(t *testing.T) {
		t.Parallel()
		l, err := NewLedgerFactory(newConfig(map[string]any{"ledger.enabled": false}), zap.NewNop()).CreateLedger()
		if err != nil {
			t.Fatalf("CreateLedger: %v", err)
		}
		if l != nil {
			t.Errorf("ledger = %T, want nil", l)
		}
	})

	t.Run("memory", func(t *testing.T) {
		t.Parallel()
		cfg := newConfig(map[string]any{"ledger.type": "memory", "ledger.cleanup_frequency": "0s"})
		l, err := NewLedgerFactory(cfg, zap.NewNop()).CreateLedger()
		if err != nil {
			t.Fatalf("CreateLedger: %v", err)
		}
		defer l.Stop()
		if _, ok := l.(*ledger.MemoryLedger); !ok {
			t.Errorf("ledger = %T, want *ledger.MemoryLedger", l)
		}
	})

	t.Run("sqlite creates the directory", func(t *testing.T) {
		t.Parallel()
		path := filepath.Join(t.TempDir(), "nested", "ledger.db")
		cfg := newConfig(map[string]any{
			"ledger.type":              "sqlite",
			"ledger.sqlite_path":       path,
			"ledger.cleanup_frequency": "0s",
		})
		l, err := NewLedgerFactory(cfg, zap.NewNop()).CreateLedger()
		if err != nil {
			t.Fatalf("CreateLedger: %v", err)
		}
		defer l.Stop()
		if _, ok := l.(*ledger.SQLLedger); !ok {
			t.Errorf("ledger = %T, want *ledger.SQLLedger", l)
		}
	})

	t.Run("unsupported", func(t *testing.T) {
		t.Parallel()
		cfg := newConfig(map[string]any{"ledger.type": "punchcards"})
		if _, err := NewLedgerFactory(cfg, zap.NewNop()).CreateLedger(); err == nil {
			t.Fatal("expected error for an unsupported ledger type")
		}
	})
}

func TestCreateIntake(t *testing.T) {
	t.Parallel()

	logger := zap.NewNop()
	cfg := newConfig(map[string]any{
		"intake.listen_address":  "127.0.0.1:0",
		"intake.trusted_domains": "corp.example, partner.example",
	})
	api, err := NewAPIClientFactory(cfg, logger).CreateClient()
	if err != nil {
		t.Fatalf("CreateClient: %v", err)
	}

	in, err := NewIntakeFactory(cfg, logger, api, api, nil, utils.NewTextProcessor(logger)).CreateIntake()
	if err != nil {
		t.Fatalf("CreateIntake: %v", err)
	}
	if err := in.Start(); err != nil {
		t.Fatalf("Start: %v", err)
	}
	defer in.Stop()
	if in.Addr() == nil {
		t.Fatal("expected a bound address")
	}
}
