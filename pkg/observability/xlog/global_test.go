package xlog_test

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"sync"
	"testing"

	"github.com/omeyang/xwrench/pkg/observability/xlog"
)

// =============================================================================
// Default / SetDefault
// =============================================================================

func TestDefault_LazyInit(t *testing.T) {
	xlog.ResetDefault()
	defer xlog.ResetDefault()

	logger := xlog.Default()
	if logger == nil {
		t.Fatal("Default() should not return nil")
	}
	if logger != xlog.Default() {
		t.Error("Default() should return the same instance")
	}
}

func TestSetDefault(t *testing.T) {
	xlog.ResetDefault()
	defer xlog.ResetDefault()

	var buf bytes.Buffer
	custom := build(t, xlog.New().SetOutput(&buf).SetLevel(xlog.LevelDebug))
	xlog.SetDefault(custom)
	xlog.SetDefault(nil)

	ctx := context.Background()
	xlog.Debug(ctx, "global debug")
	xlog.Info(ctx, "global info")
	xlog.Warn(ctx, "global warn")
	xlog.Error(ctx, "global error", xlog.Err(errors.New("cause")))

	for _, want := range []string{"global debug", "global info", "global warn", "global error", "error=cause"} {
		if !strings.Contains(buf.String(), want) {
			t.Errorf("output missing %q\noutput: %s", want, buf.String())
		}
	}
}

func TestGlobal_AddSourcePointsAtCaller(t *testing.T) {
	xlog.ResetDefault()
	defer xlog.ResetDefault()

	var buf bytes.Buffer
	xlog.SetDefault(build(t, xlog.New().SetOutput(&buf).SetAddSource(true)))

	xlog.Info(context.Background(), "where")
	if !strings.Contains(buf.String(), "global_test.go") {
		t.Errorf("source should be the test file: %s", buf.String())
	}

	buf.Reset()
	xlog.Stack(context.Background(), "stack")
	if !strings.Contains(buf.String(), "global_test.go") || !strings.Contains(buf.String(), "stack=") {
		t.Errorf("stack source should be the test file: %s", buf.String())
	}
}

func TestDefault_FallbackOnBuildError(t *testing.T) {
	xlog.ResetDefault()
	restore := xlog.SetNewBuilderForTest(func() *xlog.Builder {
		return xlog.New().SetFormat("broken")
	})
	defer func() {
		restore()
		xlog.ResetDefault()
	}()

	if xlog.Default() == nil {
		t.Fatal("fallback logger expected")
	}
}

func TestDefault_ConcurrentAccess(t *testing.T) {
	xlog.ResetDefault()
	defer xlog.ResetDefault()

	var wg sync.WaitGroup
	for range 16 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_ = xlog.Default()
		}()
	}
	wg.Wait()
}

// =============================================================================
// Silence
// =============================================================================

func TestSilence(t *testing.T) {
	xlog.ResetDefault()
	defer xlog.ResetDefault()

	var buf bytes.Buffer
	logger := build(t, xlog.New().SetOutput(&buf))
	xlog.SetDefault(logger)
	ctx := context.Background()

	xlog.Silence(func() {
		if !xlog.Silenced() {
			t.Error("Silenced() should be true inside Silence")
		}
		xlog.Info(ctx, "global hidden")
		logger.Error(ctx, "instance hidden")
		logger.Stack(ctx, "stack hidden")
		if logger.Enabled(ctx, xlog.LevelError) {
			t.Error("Enabled should report false while silenced")
		}
		xlog.Silence(func() {})
		xlog.Info(ctx, "still hidden after nested silence")
	})

	if buf.Len() != 0 {
		t.Fatalf("silenced output leaked: %s", buf.String())
	}

	xlog.Info(ctx, "visible again")
	if !strings.Contains(buf.String(), "visible again") {
		t.Error("output should resume after Silence")
	}
}

func TestSilence_RestoresOnPanic(t *testing.T) {
	func() {
		defer func() { _ = recover() }()
		xlog.Silence(func() { panic("inside") })
	}()
	if xlog.Silenced() {
		t.Error("Silence should restore output after panic")
	}
}
