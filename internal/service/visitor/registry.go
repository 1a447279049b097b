package visitor

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"time"

	"apparel-storefront/internal/repository/kv"
	"apparel-storefront/internal/service/auth"
	"apparel-storefront/internal/service/cart"
	"apparel-storefront/internal/service/checkout"
	"apparel-storefront/internal/service/payment"
	"github.com/sirupsen/logrus"
	"golang.org/x/sync/singleflight"
)

// ErrInvalidID is returned for an empty visitor id.
var ErrInvalidID = errors.New("invalid visitor id")

// Collaborators is everything a visitor's stores call out to.
type Collaborators interface {
	auth.Client
	checkout.Collaborator
	payment.StatusSource
}

// Visitor is one shopper's set of stores. All of them persist into the
// visitor's own key-value namespace.
type Visitor struct {
	ID       string
	Cart     *cart.Store
	Auth     *auth.Session
	Checkout *checkout.Orchestrator
	Payment  *payment.Poller

	lastSeen atomic.Int64
}

func (v *Visitor) touch(t time.Time) {
	v.lastSeen.Store(t.UnixNano())
}

// LastSeen is when the visitor was last handed out by the registry.
func (v *Visitor) LastSeen() time.Time {
	return time.Unix(0, v.lastSeen.Load())
}

// Registry keeps live visitors in memory. A visitor is only handed out after
// its cart is rehydrated and its session restored. Cached stores write whole
// values back, so with a shared key-value backend each visitor must be served
// by one process (sticky sessions on the visitor cookie).
type Registry struct {
	mu       sync.RWMutex
	visitors map[string]*Visitor
	group    singleflight.Group

	store  kv.Store
	collab Collaborators
	logger logrus.FieldLogger
	now    func() time.Time
}

func NewRegistry(store kv.Store, collab Collaborators, logger logrus.FieldLogger) *Registry {
	return &Registry{
		visitors: make(map[string]*Visitor),
		store:    store,
		collab:   collab,
		logger:   logger,
		now:      time.Now,
	}
}

// Get returns the visitor's stores, loading them on first use. Concurrent
// first requests for the same visitor share one load.
func (r *Registry) Get(ctx context.Context, id string) (*Visitor, error) {
	if id == "" {
		return nil, ErrInvalidID
	}
	r.mu.RLock()
	v, ok := r.visitors[id]
	r.mu.RUnlock()
	if ok {
		v.touch(r.now())
		return v, nil
	}

	shared := context.WithoutCancel(ctx)
	ch := r.group.DoChan(id, func() (interface{}, error) {
		return r.load(shared, id), nil
	})
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case res := <-ch:
		v := res.Val.(*Visitor)
		v.touch(r.now())
		return v, nil
	}
}

func (r *Registry) load(ctx context.Context, id string) *Visitor {
	r.mu.RLock()
	existing, ok := r.visitors[id]
	r.mu.RUnlock()
	if ok {
		return existing
	}

	log := r.logger.WithField("visitor", id)
	store := kv.Scoped(r.store, "visitor:"+id)

	c := cart.Load(ctx, store, log)
	session := auth.New(store, r.collab, log)
	session.Restore(ctx)
	orch := checkout.New(c, session, r.collab, store, log)

	v := &Visitor{
		ID:       id,
		Cart:     c,
		Auth:     session,
		Checkout: orch,
		Payment:  payment.New(r.collab, orch, log),
	}
	v.touch(r.now())

	r.mu.Lock()
	r.visitors[id] = v
	r.mu.Unlock()
	log.Debug("visitor loaded")
	return v
}

// Sweep drops visitors idle for longer than maxIdle and reports how many
// went. Their state stays in the key-value store and is reloaded on return.
func (r *Registry) Sweep(maxIdle time.Duration) int {
	cutoff := r.now().Add(-maxIdle)
	r.mu.Lock()
	defer r.mu.Unlock()
	n := 0
	for id, v := range r.visitors {
		if v.LastSeen().Before(cutoff) {
			delete(r.visitors, id)
			n++
		}
	}
	return n
}

// Len is the number of visitors in memory.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.visitors)
}

// Run sweeps every interval until ctx ends. A non-positive interval
// disables sweeping.
func (r *Registry) Run(ctx context.Context, interval, maxIdle time.Duration) {
	if interval <= 0 {
		return
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if n := r.Sweep(maxIdle); n > 0 {
				r.logger.WithField("evicted", n).Debug("idle visitors swept")
			}
		}
	}
}
