package mfa_test

import (
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/dropDatabas3/garminbridge/internal/auth/mfa"
)

// fakeClock avanza a mano para testear expiración sin esperas reales.
type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

func newStore(t *testing.T) (*mfa.Store, *fakeClock) {
	t.Helper()
	clk := &fakeClock{now: time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)}
	return mfa.NewWithClock(5*time.Minute, clk.Now), clk
}

func TestConsume_UnknownToken(t *testing.T) {
	s, _ := newStore(t)
	if _, err := s.Consume("never-issued"); !errors.Is(err, mfa.ErrInvalidOrExpired) {
		t.Fatalf("err = %v, want ErrInvalidOrExpired", err)
	}
}

func TestConsume_ExactlyOnce(t *testing.T) {
	s, _ := newStore(t)
	token := s.Put([]byte("vendor-state"))

	state, err := s.Consume(token)
	if err != nil {
		t.Fatalf("primer consume falló: %v", err)
	}
	if string(state) != "vendor-state" {
		t.Fatalf("state = %q", state)
	}

	// segundo consumo con el mismo token: falla idéntico a token desconocido
	if _, err := s.Consume(token); !errors.Is(err, mfa.ErrInvalidOrExpired) {
		t.Fatalf("segundo consume = %v, want ErrInvalidOrExpired", err)
	}
}

func TestConsume_TTLExpiry(t *testing.T) {
	s, clk := newStore(t)
	token := s.Put([]byte("x"))

	// a los 301s de un TTL de 300s, expirado
	clk.Advance(301 * time.Second)
	if _, err := s.Consume(token); !errors.Is(err, mfa.ErrInvalidOrExpired) {
		t.Fatalf("err = %v, want ErrInvalidOrExpired", err)
	}
}

func TestConsume_AtTTLBoundaryStillValid(t *testing.T) {
	s, clk := newStore(t)
	token := s.Put([]byte("x"))

	clk.Advance(300 * time.Second)
	if _, err := s.Consume(token); err != nil {
		t.Fatalf("a exactamente TTL debería seguir vivo: %v", err)
	}
}

func TestPut_SweepsExpired(t *testing.T) {
	s, clk := newStore(t)
	s.Put([]byte("old"))
	clk.Advance(10 * time.Minute)

	s.Put([]byte("new"))
	if got := s.Len(); got != 1 {
		t.Fatalf("Len = %d, want 1 (el viejo debió barrerse)", got)
	}
}

func TestTokens_UniquePerChallenge(t *testing.T) {
	s, _ := newStore(t)
	seen := make(map[string]bool)
	for i := 0; i < 100; i++ {
		tok := s.Put([]byte("s"))
		if seen[tok] {
			t.Fatalf("token repetido: %s", tok)
		}
		seen[tok] = true
	}
}

// Challenges de tokens distintos no interfieren entre sí bajo concurrencia.
func TestConcurrent_IndependentTokens(t *testing.T) {
	s, _ := newStore(t)

	const n = 50
	tokens := make([]string, n)
	for i := range tokens {
		tokens[i] = s.Put([]byte(fmt.Sprintf("state-%d", i)))
	}

	var wg sync.WaitGroup
	errs := make([]error, n)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			state, err := s.Consume(tokens[i])
			if err == nil && string(state) != fmt.Sprintf("state-%d", i) {
				err = fmt.Errorf("state cruzado: %s", state)
			}
			errs[i] = err
		}(i)
	}
	wg.Wait()

	for i, err := range errs {
		if err != nil {
			t.Fatalf("token %d: %v", i, err)
		}
	}
}
