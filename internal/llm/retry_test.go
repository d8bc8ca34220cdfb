package llm

import (
	"context"
	"errors"
	"testing"
	"time"
)

// timeoutErr implements net.Error for transient classification tests.
type timeoutErr struct{ timeout bool }

func (e *timeoutErr) Error() string   { return "dial tcp: i/o timeout" }
func (e *timeoutErr) Timeout() bool   { return e.timeout }
func (e *timeoutErr) Temporary() bool { return e.timeout }

func TestIsTransient(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{"nil", nil, false},
		{"deadline exceeded", context.DeadlineExceeded, true},
		{"network timeout", &timeoutErr{timeout: true}, true},
		{"network non-timeout", &timeoutErr{timeout: false}, false},
		{"plain error", errors.New("content policy rejection"), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := IsTransient(tt.err); got != tt.want {
				t.Errorf("IsTransient(%v) = %v, want %v", tt.err, got, tt.want)
			}
		})
	}
}

func TestDoSucceedsFirstTry(t *testing.T) {
	calls := 0
	out, err := Do(context.Background(), DefaultRetryConfig(), func(ctx context.Context) (string, error) {
		calls++
		return "summary", nil
	})
	if err != nil {
		t.Fatalf("Do returned error: %v", err)
	}
	if out != "summary" || calls != 1 {
		t.Errorf("out=%q calls=%d", out, calls)
	}
}

func TestDoRetriesTransient(t *testing.T) {
	cfg := RetryConfig{MaxAttempts: 3, BaseBackoff: time.Millisecond}

	calls := 0
	out, err := Do(context.Background(), cfg, func(ctx context.Context) (string, error) {
		calls++
		if calls < 3 {
			return "", &timeoutErr{timeout: true}
		}
		return "eventually", nil
	})
	if err != nil {
		t.Fatalf("Do returned error: %v", err)
	}
	if out != "eventually" || calls != 3 {
		t.Errorf("out=%q calls=%d", out, calls)
	}
}

func TestDoStopsOnNonTransient(t *testing.T) {
	cfg := RetryConfig{MaxAttempts: 5, BaseBackoff: time.Millisecond}

	calls := 0
	_, err := Do(context.Background(), cfg, func(ctx context.Context) (string, error) {
		calls++
		return "", errors.New("invalid request")
	})
	if err == nil {
		t.Fatal("expected error")
	}
	if calls != 1 {
		t.Errorf("non-transient error should not be retried, got %d calls", calls)
	}
}

func TestDoExhaustsAttempts(t *testing.T) {
	cfg := RetryConfig{MaxAttempts: 3, BaseBackoff: time.Millisecond}

	calls := 0
	_, err := Do(context.Background(), cfg, func(ctx context.Context) (string, error) {
		calls++
		return "", &timeoutErr{timeout: true}
	})
	if err == nil {
		t.Fatal("expected error after exhausting attempts")
	}
	if calls != 3 {
		t.Errorf("expected 3 attempts, got %d", calls)
	}
}

func TestDoRespectsContextCancel(t *testing.T) {
	cfg := RetryConfig{MaxAttempts: 3, BaseBackoff: time.Minute}

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		time.Sleep(10 * time.Millisecond)
		cancel()
	}()

	start := time.Now()
	_, err := Do(ctx, cfg, func(ctx context.Context) (string, error) {
		return "", &timeoutErr{timeout: true}
	})
	if err == nil {
		t.Fatal("expected error")
	}
	if time.Since(start) > 5*time.Second {
		t.Error("cancel should interrupt the backoff sleep")
	}
}

func TestTokenTracker(t *testing.T) {
	tr := NewTokenTracker()
	tr.Add(100, 20)
	tr.Add(50, 10)

	in, out := tr.Total()
	if in != 150 || out != 30 {
		t.Errorf("Total() = %d, %d", in, out)
	}
	if tr.Calls() != 2 {
		t.Errorf("Calls() = %d", tr.Calls())
	}
}
