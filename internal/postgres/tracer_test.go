package postgres

import (
	"context"
	"testing"
	"time"
)

func TestShortenFuncName(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		in   string
		want string
	}{
		{"full path", "github.com/Popoo2020/Sentinel-AI-AutoTriage/internal/triage/pgstore.(*Store).GetRun", "(*Store).GetRun"},
		{"already short", "(*Store).GetRun", "GetRun"},
		{"empty string", "", ""},
		{"no dots", "main", "main"},
		{"no slashes", "pgstore.(*Store).GetRun", "(*Store).GetRun"},
		{"single segment", "foo.Bar", "Bar"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			got := shortenFuncName(tt.in)
			if got != tt.want {
				t.Errorf("shortenFuncName(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}

func TestWithHTTPMethod_RoundTrip(t *testing.T) {
	t.Parallel()

	ctx := WithHTTPMethod(context.Background(), "POST")
	got := httpMethodFromContext(ctx)
	if got != "POST" {
		t.Errorf("httpMethodFromContext = %q, want %q", got, "POST")
	}
}

func TestWithHTTPMethod_Empty(t *testing.T) {
	t.Parallel()

	ctx := WithHTTPMethod(context.Background(), "")
	got := httpMethodFromContext(ctx)
	if got != "" {
		t.Errorf("httpMethodFromContext = %q, want empty", got)
	}
}

func TestSetQueryObserver(t *testing.T) {
	t.Parallel()

	// Save and restore the global to avoid test pollution.
	defer SetQueryObserver(nil)

	called := false
	obs := QueryObserverFunc(func(_ context.Context, _, _, _ string, _ time.Duration) {
		called = true
	})

	SetQueryObserver(obs)
	got := getQueryObserver()
	if got == nil {
		t.Fatal("expected non-nil observer after Set")
	}
	got.ObserveQuery(context.Background(), "GET", "/test", "ok", time.Millisecond)
	if !called {
		t.Error("observer was not called")
	}

	SetQueryObserver(nil)
	got = getQueryObserver()
	if got != nil {
		t.Errorf("expected nil observer after Set(nil), got %v", got)
	}
}

func TestWrapQueryTracer_NilInner(t *testing.T) {
	t.Parallel()

	tr := wrapQueryTracer(nil)
	if tr == nil {
		t.Fatal("expected a tracer even with nil inner")
	}
}
