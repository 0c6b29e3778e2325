package ratelimit_test

import (
	"net/http/httptest"
	"testing"
	"time"

	"github.com/dalemusser/clinsync/internal/app/system/ratelimit"
)

func TestLimiter_AllowsUpToLimit(t *testing.T) {
	l := ratelimit.New(3, time.Hour)
	for i := 0; i < 3; i++ {
		if !l.Allow("k") {
			t.Fatalf("attempt %d should be allowed", i+1)
		}
	}
	if l.Allow("k") {
		t.Error("fourth attempt should be limited")
	}
	if !l.Allow("other") {
		t.Error("keys are independent")
	}
}

func TestLimiter_ResetRestoresBucket(t *testing.T) {
	l := ratelimit.New(1, time.Hour)
	l.Allow("k")
	if l.Remaining("k") != 0 {
		t.Fatalf("Remaining = %d, want 0", l.Remaining("k"))
	}
	l.Reset("k")
	if l.Remaining("k") != 1 {
		t.Errorf("Remaining after reset = %d, want 1", l.Remaining("k"))
	}
}

func TestClientIP(t *testing.T) {
	tests := []struct {
		name   string
		xff    string
		xri    string
		remote string
		want   string
	}{
		{"forwarded first hop", "10.0.0.1, 10.0.0.2", "", "192.0.2.1:1234", "10.0.0.1"},
		{"real ip", "", "10.0.0.3", "192.0.2.1:1234", "10.0.0.3"},
		{"remote addr", "", "", "192.0.2.1:1234", "192.0.2.1"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := httptest.NewRequest("GET", "/", nil)
			r.RemoteAddr = tt.remote
			if tt.xff != "" {
				r.Header.Set("X-Forwarded-For", tt.xff)
			}
			if tt.xri != "" {
				r.Header.Set("X-Real-IP", tt.xri)
			}
			if got := ratelimit.ClientIP(r); got != tt.want {
				t.Errorf("ClientIP = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestLoginLimiter_PerEmail(t *testing.T) {
	ll := ratelimit.NewLoginLimiterWithConfig(100, time.Minute, 2, time.Hour)
	r := httptest.NewRequest("POST", "/login", nil)

	for i := 0; i < 2; i++ {
		if ok, _ := ll.Check(r, "A@B.com"); !ok {
			t.Fatalf("attempt %d should be allowed", i+1)
		}
	}
	ok, reason := ll.Check(r, "a@b.com ")
	if ok || reason == "" {
		t.Errorf("third attempt for the same email should be blocked, got ok=%v", ok)
	}

	ll.ResetEmail("a@b.com")
	if ok, _ := ll.Check(r, "a@b.com"); !ok {
		t.Error("reset should allow the email again")
	}
}
