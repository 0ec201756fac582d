package outbox

import (
	"context"
	"fmt"
	"log/slog"
	"time"
)

type Store interface {
	LockBatch(ctx context.Context, relayID string, batchSize int, lease time.Duration) ([]Event, error)
	MarkSent(ctx context.Context, ids []int64) error
	MarkFailed(ctx context.Context, id int64, errMsg string) error
	ExtendLease(ctx context.Context, relayID string, ids []int64, lease time.Duration) error
}

type Relay struct {
	log       *slog.Logger
	store     Store
	dispatch  *Dispatcher
	relayID   string
	batchSize int
	interval  time.Duration
	lease     time.Duration
}

type Option func(*Relay)

func WithInterval(d time.Duration) Option { return func(r *Relay) { r.interval = d } }
func WithBatchSize(n int) Option          { return func(r *Relay) { r.batchSize = n } }
func WithLease(d time.Duration) Option    { return func(r *Relay) { r.lease = d } }

func NewRelay(log *slog.Logger, store Store, dispatch *Dispatcher, relayID string, opts ...Option) *Relay {
	r := &Relay{
		log:       log,
		store:     store,
		dispatch:  dispatch,
		relayID:   relayID,
		batchSize: 100,
		interval:  500 * time.Millisecond,
		lease:     5 * time.Second,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

func (r *Relay) Run(ctx context.Context) error {
	t := time.NewTicker(r.interval)
	defer t.Stop()

	for {
		select {
		case <-ctx.Done():
			r.log.Info("relay stopping", "relay_id", r.relayID)
			return nil
		case <-t.C:
			if _, err := r.Tick(ctx); err != nil {
				r.log.Error("relay tick error", "err", err)
			}
		}
	}
}

// Tick moves one batch and reports how many events were sent.
func (r *Relay) Tick(ctx context.Context) (int, error) {
	leaseEnd := time.Now().Add(r.lease)
	events, err := r.store.LockBatch(ctx, r.relayID, r.batchSize, r.lease)
	if err != nil {
		return 0, err
	}
	if len(events) == 0 {
		return 0, nil
	}

	ids := make([]int64, 0, len(events))
	for i, e := range events {
		if time.Until(leaseEnd) <= r.lease/2 {
			if err := r.extendLease(ctx, events[i:]); err != nil {
				r.log.Error("relay extend lease error", "err", err)
			} else {
				leaseEnd = time.Now().Add(r.lease)
			}
		}
		if err := r.dispatch.Dispatch(ctx, e); err != nil {
			if markErr := r.store.MarkFailed(ctx, e.ID, err.Error()); markErr != nil {
				r.log.Error("relay mark failed error", "event_id", e.ID, "err", markErr)
			}
			continue
		}
		ids = append(ids, e.ID)
	}
	if len(ids) > 0 {
		if err := r.store.MarkSent(ctx, ids); err != nil {
			return 0, fmt.Errorf("mark %d events sent: %w", len(ids), err)
		}
	}
	return len(ids), nil
}

// extendLease keeps the not-yet-dispatched part of a slow batch from being
// reclaimed by another relay.
func (r *Relay) extendLease(ctx context.Context, pending []Event) error {
	ids := make([]int64, 0, len(pending))
	for _, e := range pending {
		ids = append(ids, e.ID)
	}
	return r.store.ExtendLease(ctx, r.relayID, ids, r.lease)
}
