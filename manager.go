package bagstream

import (
	"context"
	"fmt"
	"sync"
	"time"
)

// Manager tracks the goroutine behind every active runner so shutdown can
// drain them instead of leaking detached goroutines.
type Manager struct {
	cfg    *Config
	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

func newManager(ctx context.Context, cfg *Config) *Manager {
	mgrCtx, cancel := context.WithCancel(ctx)
	return &Manager{
		cfg:    cfg,
		ctx:    mgrCtx,
		cancel: cancel,
	}
}

// launch starts the runner on a tracked goroutine.
func (m *Manager) launch(r *runner) {
	m.wg.Add(1)
	go func() {
		defer m.wg.Done()
		r.Run(m.ctx)
	}()
}

// Shutdown attempts a graceful shutdown: cancel context, wait for runners up to 'timeout'.
func (m *Manager) Shutdown(timeout time.Duration) {
	m.cfg.logInfo(LogEvent{Message: "Shutdown requested. Stopping runners..."})
	m.cancel()

	doneCh := make(chan struct{})
	go func() {
		m.wg.Wait()
		close(doneCh)
	}()

	select {
	case <-doneCh:
		m.cfg.logInfo(LogEvent{Message: "All runners exited cleanly."})
	case <-time.After(timeout):
		m.cfg.logError(LogEvent{
			Message: fmt.Sprintf("Shutdown timed out after %v. Some runners may still be running.", timeout),
		})
	}
}
