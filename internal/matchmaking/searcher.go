package matchmaking

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/charmbracelet/log"
	"github.com/saeedinster/chotto.world/internal/metrics"
	"github.com/saeedinster/chotto.world/internal/pubsub"
	"github.com/vmihailenco/msgpack/v5"
)

// DefaultSearchInterval is how often a searcher re-scans the queue between
// push notifications.
const DefaultSearchInterval = 3 * time.Second

// Searcher runs the hybrid matchmaking loop for one player: a periodic queue
// scan plus a change-feed subscription, whichever fires first.
type Searcher struct {
	queue    QueueService
	pubsub   pubsub.PubSubClient
	metrics  metrics.Metrics
	interval time.Duration
}

func NewSearcher(queue QueueService, ps pubsub.PubSubClient, m metrics.Metrics, interval time.Duration) *Searcher {
	if interval <= 0 {
		interval = DefaultSearchInterval
	}
	return &Searcher{
		queue:    queue,
		pubsub:   ps,
		metrics:  m,
		interval: interval,
	}
}

// Run blocks until the player is paired or ctx is cancelled. The player must
// already be enqueued. On cancellation the queue entry is left in place so
// the caller decides whether to keep waiting or Cancel.
func (s *Searcher) Run(ctx context.Context, playerID string) (*PairResult, error) {
	subCtx, stopSub := context.WithCancel(ctx)
	defer stopSub()

	results := make(chan *PairResult, 1)
	started := time.Now()

	go func() {
		subscriptionID := fmt.Sprintf("match-found-%s", playerID)
		err := s.pubsub.Subscribe(subCtx, subscriptionID, func(data []byte) {
			var event MatchFoundEvent
			if err := msgpack.Unmarshal(data, &event); err != nil {
				log.Error("Failed to decode match-found event", "error", err)
				return
			}
			result, ok := s.resultFor(playerID, event)
			if !ok {
				return
			}
			select {
			case results <- result:
			default:
			}
			// The pairing searcher left a matched entry behind for us.
			if err := s.queue.Cancel(playerID); err != nil {
				log.Error("Failed to clear queue entry after push pairing", "error", err, "playerID", playerID)
			}
		})
		if err != nil && subCtx.Err() == nil {
			log.Error("Match-found subscription failed, falling back to polling", "error", err, "playerID", playerID)
		}
	}()

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	// Scan once immediately so two players enqueued back to back pair on the
	// first pass instead of waiting out a full interval.
	if result, err := s.searchOnce(playerID, results); err != nil {
		return nil, err
	} else if result != nil {
		s.metrics.ObserveQueueWaitDuration(time.Since(started).Seconds())
		return result, nil
	}

	for {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case result := <-results:
			s.metrics.ObserveQueueWaitDuration(time.Since(started).Seconds())
			return result, nil
		case <-ticker.C:
			result, err := s.searchOnce(playerID, results)
			if err != nil {
				return nil, err
			}
			if result != nil {
				s.metrics.ObserveQueueWaitDuration(time.Since(started).Seconds())
				return result, nil
			}
		}
	}
}

func (s *Searcher) searchOnce(playerID string, results <-chan *PairResult) (*PairResult, error) {
	result, err := s.queue.Search(playerID)
	if err != nil {
		// A missing entry right after a push pairing means the handler
		// already consumed it; the result is sitting in the channel.
		if errors.Is(err, ErrNotQueued) {
			select {
			case result := <-results:
				return result, nil
			default:
			}
		}
		return nil, fmt.Errorf("queue search failed: %w", err)
	}
	return result, nil
}

// resultFor maps a broadcast pairing event onto this searcher's perspective.
func (s *Searcher) resultFor(playerID string, event MatchFoundEvent) (*PairResult, bool) {
	switch playerID {
	case event.Player1ID:
		return &PairResult{MatchID: event.MatchID, OpponentID: event.Player2ID}, true
	case event.Player2ID:
		return &PairResult{MatchID: event.MatchID, OpponentID: event.Player1ID}, true
	default:
		return nil, false
	}
}
