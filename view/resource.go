// Package view carries the one reusable fetch protocol of the application:
// every data-backed view holds a Resource in exactly one of three states,
// loading, error, or data. The contract is identical across all views so
// behaviour stays predictable.
package view

import (
	"context"
	"errors"
	"sync"

	"github.com/skylineops/costview/apiclient"
	"github.com/skylineops/costview/session"
)

// Fetcher loads the resource value.
type Fetcher[T any] func(ctx context.Context) (T, error)

// State is the rendered state of a resource. Exactly one of Loading, Err
// and HasData is meaningful at a time: loading suppresses both error and
// data, a failure clears any stale data, and a success clears the error
// and replaces data wholesale.
type State[T any] struct {
	Loading bool
	Err     string
	Data    T
	HasData bool
}

// Resource runs the fetch protocol for one value. Each Load supersedes any
// outstanding one: a response belonging to an older load is discarded
// instead of overwriting fresher state.
type Resource[T any] struct {
	mu    sync.Mutex
	gen   uint64
	state State[T]
	fetch Fetcher[T]
}

func NewResource[T any](fetch Fetcher[T]) *Resource[T] {
	return &Resource[T]{fetch: fetch}
}

// State returns the current rendered state.
func (r *Resource[T]) State() State[T] {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.state
}

// Load runs one fetch. It blocks until the fetch returns; concurrent loads
// are safe and only the newest one's result is kept.
func (r *Resource[T]) Load(ctx context.Context) {
	r.mu.Lock()
	r.gen++
	gen := r.gen
	r.state = State[T]{Loading: true}
	fetch := r.fetch
	r.mu.Unlock()

	data, err := fetch(ctx)

	r.mu.Lock()
	defer r.mu.Unlock()
	if gen != r.gen {
		// A newer load started while this one was in flight.
		return
	}
	if err != nil {
		r.state = State[T]{Err: errorMessage(err)}
		return
	}
	r.state = State[T]{Data: data, HasData: true}
}

// Reset returns the resource to its initial empty state.
func (r *Resource[T]) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.gen++
	r.state = State[T]{}
}

// errorMessage converts a fetch failure into the user-visible message.
func errorMessage(err error) string {
	var httpErr *apiclient.HTTPError
	if errors.As(err, &httpErr) {
		return httpErr.Message()
	}
	var authErr *session.AuthError
	if errors.As(err, &authErr) {
		return "You are not signed in."
	}
	return err.Error()
}

// BindSession re-loads the resource whenever the session's authenticated
// flag or identity changes. It returns the unsubscribe function.
func BindSession[T any](store *session.Store, res *Resource[T]) func() {
	var (
		mu        sync.Mutex
		lastAuth  = store.Snapshot().Authenticated()
		lastSubj  = store.Snapshot().Subject
		unsubOnce sync.Once
	)
	unsub := store.Subscribe(func(snap session.Snapshot) {
		mu.Lock()
		changed := snap.Authenticated() != lastAuth || snap.Subject != lastSubj
		lastAuth = snap.Authenticated()
		lastSubj = snap.Subject
		mu.Unlock()
		if changed {
			res.Load(context.Background())
		}
	})
	return func() { unsubOnce.Do(unsub) }
}
