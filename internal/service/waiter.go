// FILE: internal/service/waiter.go
package service

import (
	"context"
	"fmt"
	"sync"
	"time"

	"tictactoe/internal/metrics"
)

const (
	// WaitTimeout is the maximum time a client can wait for notifications
	WaitTimeout = 25 * time.Second

	// WaitChannelBuffer size for notification channels
	WaitChannelBuffer = 1
)

// WaitRegistry manages long-polling clients waiting for game changes
type WaitRegistry struct {
	mu       sync.RWMutex
	waiters  map[string][]*WaitRequest // gameID → waiting clients
	shutdown chan struct{}
	closed   bool
	timeout  time.Duration
	wg       sync.WaitGroup
}

// WaitRequest represents a single client waiting for game updates
type WaitRequest struct {
	Revision int64           // Last revision the client has seen
	Notify   chan struct{}   // Buffered channel for notifications
	Timer    *time.Timer     // Timeout timer
	Context  context.Context // Client connection context
	GameID   string          // Game being watched
	done     chan struct{}   // closed once the request leaves the registry
}

// NewWaitRegistry creates a new wait registry
func NewWaitRegistry() *WaitRegistry {
	return &WaitRegistry{
		waiters:  make(map[string][]*WaitRequest),
		shutdown: make(chan struct{}),
		timeout:  WaitTimeout,
	}
}

// RegisterWait registers a client to wait for a revision other than the
// one given. The returned channel fires on change, timeout or shutdown.
func (w *WaitRegistry) RegisterWait(gameID string, revision int64, ctx context.Context) <-chan struct{} {
	w.mu.Lock()
	defer w.mu.Unlock()

	req := &WaitRequest{
		Revision: revision,
		Notify:   make(chan struct{}, WaitChannelBuffer),
		Context:  ctx,
		GameID:   gameID,
		done:     make(chan struct{}),
	}

	if w.closed {
		close(req.Notify)
		return req.Notify
	}

	req.Timer = time.AfterFunc(w.timeout, func() {
		w.handleTimeout(req)
	})

	w.waiters[gameID] = append(w.waiters[gameID], req)
	metrics.WaiterAdded()

	w.wg.Add(1)
	go func() {
		defer w.wg.Done()
		select {
		case <-req.done:
			// Notified or timed out
		case <-ctx.Done():
			// Client disconnected
			w.removeWaiter(gameID, req)
		case <-w.shutdown:
			if w.removeWaiter(gameID, req) {
				close(req.Notify)
			}
		}
	}()

	return req.Notify
}

// NotifyGame wakes all clients whose known revision differs from revision
func (w *WaitRegistry) NotifyGame(gameID string, revision int64) {
	w.mu.RLock()
	waitList := append([]*WaitRequest(nil), w.waiters[gameID]...)
	w.mu.RUnlock()

	for _, req := range waitList {
		if req.Revision != revision {
			w.signal(req)
		}
	}
}

// RemoveGame wakes and drops all waiters for a game
func (w *WaitRegistry) RemoveGame(gameID string) {
	w.mu.Lock()
	waitList := w.waiters[gameID]
	w.mu.Unlock()

	for _, req := range waitList {
		w.signal(req)
	}
}

// Count returns the number of registered waiters for a game
func (w *WaitRegistry) Count(gameID string) int {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return len(w.waiters[gameID])
}

// Shutdown releases all waiters and waits for their goroutines
func (w *WaitRegistry) Shutdown(timeout time.Duration) error {
	w.mu.Lock()
	if w.closed {
		w.mu.Unlock()
		return nil
	}
	w.closed = true
	close(w.shutdown)
	w.mu.Unlock()

	done := make(chan struct{})
	go func() {
		w.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-time.After(timeout):
		return fmt.Errorf("wait registry shutdown timed out")
	}
}

func (w *WaitRegistry) handleTimeout(req *WaitRequest) {
	w.signal(req)
}

// signal delivers a non-blocking wakeup and removes the waiter
func (w *WaitRegistry) signal(req *WaitRequest) {
	if !w.removeWaiter(req.GameID, req) {
		return
	}
	select {
	case req.Notify <- struct{}{}:
	default:
	}
}

// removeWaiter removes a waiter, reporting whether it was still registered
func (w *WaitRegistry) removeWaiter(gameID string, req *WaitRequest) bool {
	w.mu.Lock()
	defer w.mu.Unlock()

	waitList := w.waiters[gameID]
	found := false
	for i, waiter := range waitList {
		if waiter == req {
			w.waiters[gameID] = append(waitList[:i], waitList[i+1:]...)
			found = true
			break
		}
	}

	if len(w.waiters[gameID]) == 0 {
		delete(w.waiters, gameID)
	}

	if found {
		req.Timer.Stop()
		close(req.done)
		metrics.WaiterRemoved()
	}
	return found
}
