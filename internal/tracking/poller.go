package tracking

import (
	"context"
	"time"

	"go.uber.org/zap"
)

// Poller fetches a feed no faster than minRefresh and backs off to half
// the last fetch time when the feed is slow.
type Poller struct {
	log        *zap.SugaredLogger
	feed       Feed
	tracker    *Tracker
	source     string
	minRefresh time.Duration
	timeout    time.Duration
}

func NewPoller(log *zap.SugaredLogger, feed Feed, tracker *Tracker, source string, minRefresh time.Duration) *Poller {
	if minRefresh <= 0 {
		minRefresh = 10 * time.Second
	}
	return &Poller{
		log:        log.Named("poller").With("source", source),
		feed:       feed,
		tracker:    tracker,
		source:     source,
		minRefresh: minRefresh,
		timeout:    10 * time.Second,
	}
}

func (p *Poller) Run(ctx context.Context) {
	t := time.NewTimer(0)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
			start := time.Now()
			p.tick(ctx)
			t.Reset(maxDuration(time.Since(start)/2, p.minRefresh))
		}
	}
}

func (p *Poller) tick(ctx context.Context) {
	cctx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()

	vehicles, err := p.feed.Fetch(cctx)
	if err != nil {
		p.log.Warnw("poll failed", "error", err)
		return
	}
	if moved := p.tracker.Ingest(ctx, p.source, vehicles); moved > 0 {
		p.log.Infow("vehicles updated", "fetched", len(vehicles), "moved", moved)
	}
}

func maxDuration(a, b time.Duration) time.Duration {
	if a > b {
		return a
	}
	return b
}
