package sessionlock

import "sync"

// Locks serializa as operações read-modify-write sobre o carrinho de cada
// sessão. O mesmo Locks é compartilhado entre o carrinho e o checkout. As
// entradas são removidas quando ninguém mais as referencia.
type Locks struct {
	mu      sync.Mutex
	entries map[string]*entry
}

type entry struct {
	mu   sync.Mutex
	refs int
}

// New cria o conjunto de travas.
func New() *Locks {
	return &Locks{entries: make(map[string]*entry)}
}

// Lock trava a sessão e devolve a função de destravar.
func (l *Locks) Lock(sessionID string) func() {
	l.mu.Lock()
	e, ok := l.entries[sessionID]
	if !ok {
		e = &entry{}
		l.entries[sessionID] = e
	}
	e.refs++
	l.mu.Unlock()

	e.mu.Lock()
	return func() {
		e.mu.Unlock()
		l.mu.Lock()
		e.refs--
		if e.refs == 0 {
			delete(l.entries, sessionID)
		}
		l.mu.Unlock()
	}
}

// Len informa quantas sessões têm trava viva.
func (l *Locks) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.entries)
}
