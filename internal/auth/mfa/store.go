// Package mfa guarda el estado pendiente de un login que exige segundo
// factor, entre la llamada de login y el resume con el código.
//
// El store vive solo en memoria de proceso: un restart invalida todos los
// challenges pendientes, lo cual es aceptable porque la ventana humana de
// ingreso de código es corta (TTL 5 minutos).
package mfa

import (
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"
)

// DefaultTTL es la vida máxima de un challenge pendiente.
const DefaultTTL = 5 * time.Minute

// ErrInvalidOrExpired cubre token desconocido, ya consumido o vencido; el
// caller no puede (ni debe) distinguir los tres casos.
var ErrInvalidOrExpired = errors.New("mfa: challenge inválido o expirado")

type challenge struct {
	state     []byte
	createdAt time.Time
}

// Store es el mapa proceso-global de challenges pendientes, con TTL barrido
// en cada acceso. El reloj es inyectable para testear expiración sin esperas
// reales.
type Store struct {
	mu    sync.Mutex
	items map[string]challenge
	ttl   time.Duration
	now   func() time.Time
}

// New crea un store con el TTL dado (0 => DefaultTTL).
func New(ttl time.Duration) *Store {
	return NewWithClock(ttl, time.Now)
}

// NewWithClock permite inyectar el reloj (tests).
func NewWithClock(ttl time.Duration, now func() time.Time) *Store {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &Store{
		items: make(map[string]challenge),
		ttl:   ttl,
		now:   now,
	}
}

// Put registra el estado resumible del vendor y acuña un token opaco único.
// Los tokens nunca se reusan.
func (s *Store) Put(vendorState []byte) string {
	token := uuid.New().String()

	s.mu.Lock()
	defer s.mu.Unlock()
	s.sweepLocked()
	s.items[token] = challenge{state: vendorState, createdAt: s.now()}
	return token
}

// Consume busca y remueve el challenge: consumo único, exactamente una vez.
// Un token ausente, ya consumido o vencido falla igual (ErrInvalidOrExpired).
func (s *Store) Consume(token string) ([]byte, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sweepLocked()

	c, ok := s.items[token]
	if !ok {
		return nil, ErrInvalidOrExpired
	}
	delete(s.items, token)
	return c.state, nil
}

// Len reporta los challenges vivos (post-barrido). Solo para observabilidad.
func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sweepLocked()
	return len(s.items)
}

// sweepLocked evicta entradas más viejas que el TTL. Requiere s.mu tomado.
func (s *Store) sweepLocked() {
	cutoff := s.now().Add(-s.ttl)
	for token, c := range s.items {
		if c.createdAt.Before(cutoff) {
			delete(s.items, token)
		}
	}
}
