// Package lock serializa operaciones por clave (producto) con espera acotada.
package lock

import (
	"context"
	"sync"
	"time"

	"github.com/jhoicas/kardex-api/internal/domain"
)

type entry struct {
	ch   chan struct{}
	refs int
}

// KeyedLocker exclusión mutua por clave. Claves distintas no se bloquean entre sí.
type KeyedLocker struct {
	mu      sync.Mutex
	entries map[string]*entry
	timeout time.Duration
}

// NewKeyedLocker construye el locker; timeout <= 0 espera solo lo que permita el contexto.
func NewKeyedLocker(timeout time.Duration) *KeyedLocker {
	return &KeyedLocker{entries: make(map[string]*entry), timeout: timeout}
}

// Acquire bloquea la clave. Si no se obtiene dentro del timeout devuelve domain.ErrConflict;
// si el contexto se cancela antes devuelve ctx.Err().
func (l *KeyedLocker) Acquire(ctx context.Context, key string) (func(), error) {
	l.mu.Lock()
	e, ok := l.entries[key]
	if !ok {
		e = &entry{ch: make(chan struct{}, 1)}
		l.entries[key] = e
	}
	e.refs++
	l.mu.Unlock()

	var timer <-chan time.Time
	if l.timeout > 0 {
		t := time.NewTimer(l.timeout)
		defer t.Stop()
		timer = t.C
	}

	select {
	case e.ch <- struct{}{}:
		var once sync.Once
		return func() {
			once.Do(func() {
				<-e.ch
				l.release(key, e)
			})
		}, nil
	case <-timer:
		l.release(key, e)
		return nil, domain.ErrConflict
	case <-ctx.Done():
		l.release(key, e)
		return nil, ctx.Err()
	}
}

func (l *KeyedLocker) release(key string, e *entry) {
	l.mu.Lock()
	defer l.mu.Unlock()
	e.refs--
	if e.refs == 0 {
		delete(l.entries, key)
	}
}
