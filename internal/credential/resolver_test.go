package credential

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/kailas-cloud/usdsearch/internal/domain"
)

type mockIssuer struct {
	calls int32
	token string
	err   error
	delay time.Duration
}

func (m *mockIssuer) IssueToken(_ context.Context, _ string) (string, time.Time, error) {
	atomic.AddInt32(&m.calls, 1)
	if m.delay > 0 {
		time.Sleep(m.delay)
	}
	if m.err != nil {
		return "", time.Time{}, m.err
	}
	return m.token, time.Now().Add(time.Hour), nil
}

const trustedURL = "https://usdsearch.internal.example.com/v1/search"

func TestResolve_StaticKeyWins(t *testing.T) {
	r := NewResolver(Config{
		APIKey:               "nvapi-abc",
		RequireAuthorization: true,
		NucleusServer:        "nucleus.example.com",
	}, &mockIssuer{token: "tok"}, nil)

	cred, err := r.Resolve(context.Background(), trustedURL)
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if cred.Kind() != domain.CredentialAPIKey || cred.Value() != "nvapi-abc" {
		t.Errorf("cred = %v %q", cred.Kind(), cred.Value())
	}
	if !cred.ExpiresAt().IsZero() {
		t.Error("static key must not expire")
	}
}

func TestResolve_PublicHostRequiresKey(t *testing.T) {
	r := NewResolver(Config{}, nil, nil)

	_, err := r.Resolve(context.Background(), "https://ai.api.nvidia.com/v1/omniverse/nvidia/usdsearch")
	if !errors.Is(err, domain.ErrMissingCredential) {
		t.Fatalf("err = %v, want ErrMissingCredential", err)
	}
}

func TestResolve_AnonymousWhenAuthNotRequired(t *testing.T) {
	issuer := &mockIssuer{token: "tok"}
	r := NewResolver(Config{RequireAuthorization: false}, issuer, nil)

	cred, err := r.Resolve(context.Background(), trustedURL)
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if !cred.IsZero() {
		t.Errorf("expected zero credential, got %v", cred.Kind())
	}
	if atomic.LoadInt32(&issuer.calls) != 0 {
		t.Error("issuer must not be called when authorization is not required")
	}
}

func TestResolve_TokenCached(t *testing.T) {
	issuer := &mockIssuer{token: "tok-1"}
	r := NewResolver(Config{
		RequireAuthorization: true,
		NucleusServer:        "nucleus.example.com",
	}, issuer, nil)

	first, err := r.Resolve(context.Background(), trustedURL)
	if err != nil {
		t.Fatalf("first Resolve: %v", err)
	}
	second, err := r.Resolve(context.Background(), trustedURL)
	if err != nil {
		t.Fatalf("second Resolve: %v", err)
	}

	if first.Value() != "tok-1" || second.Value() != "tok-1" {
		t.Errorf("tokens = %q, %q", first.Value(), second.Value())
	}
	if got := atomic.LoadInt32(&issuer.calls); got != 1 {
		t.Errorf("issuer calls = %d, want 1", got)
	}
	if first.Kind() != domain.CredentialBearer {
		t.Errorf("kind = %v, want bearer", first.Kind())
	}
}

func TestResolve_SingleFlight(t *testing.T) {
	issuer := &mockIssuer{token: "tok", delay: 50 * time.Millisecond}
	r := NewResolver(Config{
		RequireAuthorization: true,
		NucleusServer:        "nucleus.example.com",
	}, issuer, nil)

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			cred, err := r.Resolve(context.Background(), trustedURL)
			if err != nil {
				t.Errorf("Resolve: %v", err)
				return
			}
			if cred.Value() != "tok" {
				t.Errorf("token = %q", cred.Value())
			}
		}()
	}
	wg.Wait()

	if got := atomic.LoadInt32(&issuer.calls); got != 1 {
		t.Errorf("issuer calls = %d, want 1 (single-flight)", got)
	}
}

func TestResolve_IssuerFailure(t *testing.T) {
	issuer := &mockIssuer{err: errors.New("connection refused")}
	r := NewResolver(Config{
		RequireAuthorization: true,
		NucleusServer:        "nucleus.example.com",
	}, issuer, nil)

	_, err := r.Resolve(context.Background(), trustedURL)
	if !errors.Is(err, domain.ErrAuthenticationFailed) {
		t.Fatalf("err = %v, want ErrAuthenticationFailed", err)
	}

	// Failures are not cached; the next call retries.
	_, _ = r.Resolve(context.Background(), trustedURL)
	if got := atomic.LoadInt32(&issuer.calls); got != 2 {
		t.Errorf("issuer calls = %d, want 2", got)
	}
}
