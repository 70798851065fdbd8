package media

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"
)

const (
	cleanerQueueSize = 256
	cleanerTimeout   = 15 * time.Second
)

// Cleaner deletes released references in the background. Failures are
// logged and dropped; nothing waits on the outcome except Close.
type Cleaner struct {
	store  Store
	logger *zap.SugaredLogger
	queue  chan string

	mu     sync.RWMutex
	closed bool
	wg     sync.WaitGroup
}

func NewCleaner(store Store, logger *zap.SugaredLogger, workers int) *Cleaner {
	if workers <= 0 {
		workers = 1
	}
	c := &Cleaner{
		store:  store,
		logger: logger,
		queue:  make(chan string, cleanerQueueSize),
	}
	c.wg.Add(workers)
	for i := 0; i < workers; i++ {
		go c.work()
	}
	return c
}

func (c *Cleaner) Release(refs ...string) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	for _, ref := range refs {
		if ref == "" {
			continue
		}
		if c.closed {
			c.logger.Warnw("media cleaner closed, reference not released", "ref", ref)
			continue
		}
		select {
		case c.queue <- ref:
		default:
			// queue is full; don't block the caller
			c.wg.Add(1)
			go func(ref string) {
				defer c.wg.Done()
				c.delete(ref)
			}(ref)
		}
	}
}

// Close stops accepting references and waits for queued deletes to finish.
func (c *Cleaner) Close() {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return
	}
	c.closed = true
	close(c.queue)
	c.mu.Unlock()

	c.wg.Wait()
}

func (c *Cleaner) work() {
	defer c.wg.Done()
	for ref := range c.queue {
		c.delete(ref)
	}
}

func (c *Cleaner) delete(ref string) {
	ctx, cancel := context.WithTimeout(context.Background(), cleanerTimeout)
	defer cancel()

	if err := c.store.Delete(ctx, ref); err != nil {
		c.logger.Errorw("failed to delete media", "ref", ref, "err", err)
		return
	}
	c.logger.Infow("deleted media", "ref", ref)
}
