package sessionlock_test

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"stockcart/internal/pkg/sessionlock"
)

func TestLock_SerializesSameSession(t *testing.T) {
	locks := sessionlock.New()
	unlock := locks.Lock("s1")

	acquired := make(chan struct{})
	go func() {
		release := locks.Lock("s1")
		close(acquired)
		release()
	}()

	select {
	case <-acquired:
		t.Fatal("a segunda trava não deveria entrar antes da primeira sair")
	case <-time.After(20 * time.Millisecond):
	}
	unlock()
	<-acquired
}

func TestLock_OtherSessionsDoNotWait(t *testing.T) {
	locks := sessionlock.New()
	unlock := locks.Lock("s1")
	defer unlock()

	done := make(chan struct{})
	go func() {
		locks.Lock("s2")()
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("sessões diferentes não compartilham trava")
	}
}

func TestLock_EntriesAreReleased(t *testing.T) {
	locks := sessionlock.New()
	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			locks.Lock("s1")()
		}()
	}
	wg.Wait()
	assert.Equal(t, 0, locks.Len())
}
