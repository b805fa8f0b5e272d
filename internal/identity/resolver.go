// Package identity resolves a person's email to their canonical calendar id.
package identity

import (
	"context"
	"errors"
	"net/http"
	"sync"
	"time"

	"slotkeeper/internal/calendar"
	apperrors "slotkeeper/pkg/errors"
	"slotkeeper/pkg/logger"
	"slotkeeper/pkg/metrics"
	"slotkeeper/pkg/retry"
	"slotkeeper/pkg/sanitizer"
)

const (
	tierProcess  = "process"
	tierShared   = "shared"
	tierProvider = "provider"
	tierMissing  = "missing"
)

// Lookup is the calendar provider capability the resolver needs.
type Lookup interface {
	PrimaryCalendar(ctx context.Context, email string) (string, error)
}

type Options struct {
	TTL     time.Duration
	Timeout time.Duration
	Retry   retry.Policy
}

// Resolver caches email -> calendar id for the process lifetime, backed by
// an optional shared cache. Safe for concurrent use.
type Resolver struct {
	lookup Lookup
	shared SharedCache
	opts   Options
	log    *logger.Logger

	mu    sync.RWMutex
	local map[string]string
}

// New builds a resolver. shared may be nil.
func New(lookup Lookup, shared SharedCache, opts Options, log *logger.Logger) *Resolver {
	if opts.Timeout <= 0 {
		opts.Timeout = 10 * time.Second
	}
	if opts.Retry == (retry.Policy{}) {
		opts.Retry = retry.DefaultPolicy()
	}
	return &Resolver{
		lookup: lookup,
		shared: shared,
		opts:   opts,
		log:    log.Component("identity"),
		local:  map[string]string{},
	}
}

// Resolve returns the calendar id for email, or an IdentityNotFound AppError
// when the person never authorized calendar access.
func (r *Resolver) Resolve(ctx context.Context, email string) (string, error) {
	key := sanitizer.NormalizeEmail(email)
	if key == "" {
		return "", apperrors.IdentityNotFound(email)
	}

	r.mu.RLock()
	id, ok := r.local[key]
	r.mu.RUnlock()
	if ok {
		metrics.IdentityLookups.WithLabelValues(tierProcess).Inc()
		return id, nil
	}

	if r.shared != nil {
		id, ok, err := r.shared.Get(ctx, key)
		if err != nil {
			r.log.Warn("Shared identity cache read failed, falling back to provider", "email", key, "error", err)
		} else if ok {
			metrics.IdentityLookups.WithLabelValues(tierShared).Inc()
			r.remember(key, id)
			return id, nil
		}
	}

	id, err := retry.Value(ctx, r.opts.Retry, func(ctx context.Context) (string, error) {
		callCtx, cancel := context.WithTimeout(ctx, r.opts.Timeout)
		defer cancel()

		id, err := r.lookup.PrimaryCalendar(callCtx, key)
		if errors.Is(err, calendar.ErrNoCredential) || errors.Is(err, calendar.ErrNotFound) {
			return "", retry.Permanent(err)
		}
		return id, err
	})
	if err != nil {
		if errors.Is(err, calendar.ErrNoCredential) || errors.Is(err, calendar.ErrNotFound) {
			metrics.IdentityLookups.WithLabelValues(tierMissing).Inc()
			return "", apperrors.IdentityNotFound(key)
		}
		if errors.Is(err, context.DeadlineExceeded) {
			return "", apperrors.Timeout("calendar identity lookup timed out")
		}
		return "", apperrors.Wrap(err, apperrors.CodeUnavailable, "calendar identity lookup failed", http.StatusServiceUnavailable)
	}

	metrics.IdentityLookups.WithLabelValues(tierProvider).Inc()
	r.remember(key, id)
	if r.shared != nil {
		if err := r.shared.Set(ctx, key, id, r.opts.TTL); err != nil {
			r.log.Warn("Shared identity cache write failed", "email", key, "error", err)
		}
	}
	return id, nil
}

func (r *Resolver) remember(email, id string) {
	r.mu.Lock()
	r.local[email] = id
	r.mu.Unlock()
}

// Warm resolves every email and reports how many resolved and how many lack
// authorization. Other failures stop the warm-up.
func (r *Resolver) Warm(ctx context.Context, emails []string) (resolved, missing int, err error) {
	for _, email := range emails {
		if _, err := r.Resolve(ctx, email); err != nil {
			if apperrors.HasCode(err, apperrors.CodeIdentityNotFound) {
				missing++
				continue
			}
			return resolved, missing, err
		}
		resolved++
	}
	r.log.Info("Identity cache warmed", "resolved", resolved, "missing", missing)
	return resolved, missing, nil
}
