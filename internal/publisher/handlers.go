package publisher

import (
	"context"
	"sync"

	"github.com/IBM/sarama"
	"github.com/sirupsen/logrus"

	"github.com/sneakyhydra/sneakdex/crawler/internal/crawlerrors"
	"github.com/sneakyhydra/sneakdex/crawler/internal/queue"
)

// StartHandlers launches the two long-lived goroutines consuming the
// producer's success and error streams. They exit when their stream closes
// (after Close flushes) or, as a fallback, when the shutdown channel fires
// and the stream drains.
func (p *Publisher) StartHandlers(ctx context.Context, wg *sync.WaitGroup, shutdown <-chan struct{}, qm *queue.Manager) {
	wg.Add(2)

	go func() {
		defer wg.Done()
		for {
			select {
			case msg, ok := <-p.producer.Successes():
				if !ok {
					return
				}
				p.handleSuccess(msg)
			case <-shutdown:
				// Close is on its way; account for the final flush.
				for msg := range p.producer.Successes() {
					p.handleSuccess(msg)
				}
				return
			}
		}
	}()

	go func() {
		defer wg.Done()
		for {
			select {
			case perr, ok := <-p.producer.Errors():
				if !ok {
					return
				}
				p.handleError(ctx, perr, qm)
			case <-shutdown:
				for perr := range p.producer.Errors() {
					p.handleError(ctx, perr, qm)
				}
				return
			}
		}
	}()
}

func (p *Publisher) handleSuccess(msg *sarama.ProducerMessage) {
	p.stats.IncrementKafkaSuccessful()
	if item, ok := msg.Metadata.(queue.Item); ok {
		p.log.WithFields(logrus.Fields{"url": item.URL, "depth": item.Depth}).Debug("Page delivered to Kafka")
	}
}

// handleError classifies a delivery failure and applies the requeue policy:
// a transport-class error earns the URL one re-enqueue; the second strike,
// and every permanent error, marks it visited.
func (p *Publisher) handleError(ctx context.Context, perr *sarama.ProducerError, qm *queue.Manager) {
	item, ok := perr.Msg.Metadata.(queue.Item)
	if !ok {
		p.stats.IncrementKafkaFailed()
		p.log.WithError(perr.Err).Error("Producer error without queue item metadata")
		return
	}

	if crawlerrors.IsRetriable(perr.Err) {
		p.stats.IncrementKafkaErrored()
		p.retryOrRetire(ctx, item, perr.Err, qm)
		return
	}

	p.stats.IncrementKafkaFailed()
	p.log.WithFields(logrus.Fields{"url": item.URL, "error": perr.Err}).Error("Permanent Kafka delivery failure")
	p.markVisited(ctx, item.URL, qm)
}

func (p *Publisher) retryOrRetire(ctx context.Context, item queue.Item, cause error, qm *queue.Manager) {
	requeued, err := qm.IsRequeued(ctx, item.URL)
	if err != nil {
		p.log.WithFields(logrus.Fields{"url": item.URL, "error": err}).Error("Failed to check requeued state; retiring URL")
		p.markVisited(ctx, item.URL, qm)
		return
	}

	if requeued {
		p.log.WithFields(logrus.Fields{"url": item.URL}).Trace("URL already requeued once; marking visited")
		if err := qm.RemoveFromRequeued(ctx, item.URL); err != nil {
			p.log.WithFields(logrus.Fields{"url": item.URL, "error": err}).Error("Failed to remove URL from requeued set")
		}
		p.markVisited(ctx, item.URL, qm)
		return
	}

	p.log.WithFields(logrus.Fields{"url": item.URL, "error": cause}).Warn("Retriable Kafka error, requeuing URL")
	if err := qm.AddToPending(ctx, item); err != nil {
		p.log.WithFields(logrus.Fields{"url": item.URL, "error": err}).Error("Failed to requeue URL after Kafka error")
		p.markVisited(ctx, item.URL, qm)
		return
	}
	if err := qm.AddToRequeued(ctx, item.URL); err != nil {
		p.log.WithFields(logrus.Fields{"url": item.URL, "error": err}).Error("Failed to record requeue marker")
	}
}

func (p *Publisher) markVisited(ctx context.Context, url string, qm *queue.Manager) {
	if err := qm.MarkVisited(ctx, url); err != nil {
		p.log.WithFields(logrus.Fields{"url": url, "error": err}).Error("Failed to mark URL visited after Kafka failure")
	}
}
