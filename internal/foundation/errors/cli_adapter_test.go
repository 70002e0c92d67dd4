package errors

import (
	"bytes"
	"errors"
	"log/slog"
	"strings"
	"testing"
)

func TestCLIErrorAdapter_ExitCodeFor(t *testing.T) {
	adapter := NewCLIErrorAdapter(false, slog.Default())

	tests := []struct {
		name     string
		err      error
		expected int
	}{
		{"nil error", nil, ExitOK},
		{"validation", ValidationError("bad flag").Build(), ExitUsage},
		{"config", ConfigError("bad file").Build(), ExitConfig},
		{"not found", NewError(CategoryNotFound, "no journal").Build(), ExitNotFound},
		{"network", NetworkError("nats down").Build(), ExitExternal},
		{"storage", StorageError("disk full").Build(), ExitPersisting},
		{"journal", JournalError("locked").Build(), ExitPersisting},
		{"daemon", DaemonError("listen").Build(), ExitRuntime},
		{"internal", InternalError("bug").Build(), ExitInternal},
		{"unclassified", errors.New("boom"), ExitGeneral},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := adapter.ExitCodeFor(tt.err); got != tt.expected {
				t.Errorf("ExitCodeFor() = %d, want %d", got, tt.expected)
			}
		})
	}
}

func TestCLIErrorAdapter_FormatError(t *testing.T) {
	quiet := NewCLIErrorAdapter(false, nil)
	verbose := NewCLIErrorAdapter(true, nil)

	cfgErr := WrapError(errors.New("line 3"), CategoryConfig, "invalid yaml").Build()
	if got := quiet.FormatError(cfgErr); got != "Error: invalid yaml: line 3" {
		t.Errorf("unexpected config message %q", got)
	}

	storeErr := StorageError("write angle").Build()
	if got := quiet.FormatError(storeErr); !strings.Contains(got, "use -v") {
		t.Errorf("expected hint in %q", got)
	}
	if got := verbose.FormatError(storeErr); !strings.Contains(got, "[storage:error]") {
		t.Errorf("expected full error in verbose mode, got %q", got)
	}
	if quiet.FormatError(nil) != "" {
		t.Error("nil error formats empty")
	}
}

func TestCLIErrorAdapter_HandleError(t *testing.T) {
	var out, logs bytes.Buffer
	adapter := NewCLIErrorAdapter(false, slog.New(slog.NewTextHandler(&logs, nil)))
	adapter.out = &out
	code := -1
	adapter.exit = func(c int) { code = c }

	adapter.HandleError(ConfigError("missing version").Build())

	if code != ExitConfig {
		t.Errorf("expected exit %d, got %d", ExitConfig, code)
	}
	if !strings.Contains(out.String(), "missing version") {
		t.Errorf("expected message on stderr, got %q", out.String())
	}
	if !strings.Contains(logs.String(), "category=config") {
		t.Errorf("fatal errors are logged, got %q", logs.String())
	}

	code = -1
	adapter.HandleError(nil)
	if code != -1 {
		t.Error("nil error must not exit")
	}
}
