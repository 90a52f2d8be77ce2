package crawler

import (
	"time"

	"github.com/sirupsen/logrus"
)

const (
	feederTick     = 200 * time.Millisecond
	feederDrainInt = 2 * time.Minute
	maxEmptyChecks = 5
)

// shouldStop decides whether the feeder may exit: the queue has stayed empty
// for enough consecutive ticks and either the page cap is reached, the
// context is cancelled, or no work is in flight.
func shouldStop(emptyChecks int, pagesProcessed, maxPages int64, ctxErr error, inflight int64) bool {
	if emptyChecks < maxEmptyChecks {
		return false
	}
	return pagesProcessed >= maxPages || ctxErr != nil || inflight == 0
}

// runFeeder repeatedly pops the next item from the frontier and dispatches
// it into the collector. It exits on cancellation, on the page cap, or once
// the queue stays empty with no work in flight.
func (c *Crawler) runFeeder() {
	defer c.wg.Done()
	defer close(c.feederDone)
	c.log.Info("Starting queue feeder")

	ticker := time.NewTicker(feederTick)
	defer ticker.Stop()

	// A long secondary timer forces a synchronous drain so the collector's
	// internal queue cannot grow without bound under slow starts.
	drainTicker := time.NewTicker(feederDrainInt)
	defer drainTicker.Stop()

	emptyChecks := 0

	for {
		select {
		case <-c.ctx.Done():
			c.log.Info("Stopping queue feeder due to context cancellation")
			c.collector.Wait()
			return

		case <-drainTicker.C:
			c.collector.Wait()

		case <-ticker.C:
			if c.stats.GetPagesProcessed() >= c.cfg.MaxPages {
				c.log.Info("Max pages limit reached, stopping feeder")
				c.collector.Wait()
				return
			}

			item, err := c.queue.RemoveFromPending(c.ctx)
			if err != nil {
				c.log.WithFields(logrus.Fields{"error": err}).Error("Failed to pop URL from pending queue, retrying...")
				continue
			}

			if item == nil {
				emptyChecks++
				c.log.WithFields(logrus.Fields{"empty_checks": emptyChecks}).Trace("Pending queue empty")

				if shouldStop(emptyChecks, c.stats.GetPagesProcessed(), c.cfg.MaxPages, c.ctx.Err(), c.stats.GetInflightPages()) {
					c.log.Info("Pending queue consistently empty and termination condition met, stopping feeder")
					c.collector.Wait()
					if err := c.queue.CleanupEmptyQueues(c.ctx); err != nil {
						c.log.WithFields(logrus.Fields{"error": err}).Warn("Failed to clean up empty queue buckets")
					}
					return
				}
				if emptyChecks >= maxEmptyChecks {
					c.log.Debug("Pending queue empty but work still in flight, continuing to check...")
				}
				continue
			}

			emptyChecks = 0
			c.log.WithFields(logrus.Fields{"url": item.URL, "depth": item.Depth}).Debug("Pulled URL from pending queue for visit")

			if err := c.Visit(*item); err != nil {
				// The collector refused the URL synchronously, so no hook
				// will ever fire for it. Retire it here or it could loop
				// through discovery forever.
				c.log.WithFields(logrus.Fields{"url": item.URL, "error": err}).Warn("Failed to initiate visit, marking as failed visited")
				c.markVisited(item.URL)
				c.stats.IncrementPagesFailed()
			}
		}
	}
}
