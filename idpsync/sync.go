// Package idpsync reconciles the local user store with an identity
// provider.
package idpsync

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/go-playground/validator/v10"
	"github.com/gravitl/usersync/idp"
	"github.com/gravitl/usersync/logger"
	"github.com/gravitl/usersync/models"
	"github.com/gravitl/usersync/schema"
	"github.com/gravitl/usersync/servercfg"
)

// Mode selects which passes a run performs.
type Mode string

const (
	ModeFull           Mode = "full"
	ModeUpdateExisting Mode = "update-existing"
	ModeDeleteOrphans  Mode = "delete-orphans"
)

// ParseMode maps a mode name to a Mode; empty means full.
func ParseMode(s string) (Mode, error) {
	switch Mode(s) {
	case "", ModeFull:
		return ModeFull, nil
	case ModeUpdateExisting, ModeDeleteOrphans:
		return Mode(s), nil
	}
	return "", fmt.Errorf("unknown sync mode %q", s)
}

// Result counts what a run did. Errors holds the per-record failures,
// each a *RecordError.
type Result struct {
	Synced  int
	Created int
	Updated int
	Deleted int
	Errors  []error
}

// Model converts r for the api.
func (r Result) Model(mode Mode) models.SyncResult {
	out := models.SyncResult{
		Mode:    string(mode),
		Synced:  r.Synced,
		Created: r.Created,
		Updated: r.Updated,
		Deleted: r.Deleted,
		Failed:  len(r.Errors),
	}
	for _, err := range r.Errors {
		out.Errors = append(out.Errors, err.Error())
	}
	return out
}

type outcome int

const (
	unchanged outcome = iota
	created
	updated
	skipped
)

// Coordinator runs reconciliation passes. Only one pass runs at a time.
type Coordinator struct {
	client   idp.Client
	store    Store
	matcher  *Matcher
	merger   *Merger
	validate *validator.Validate

	fetchTimeout time.Duration
	fetchRetries int
	newBackOff   func() backoff.BackOff

	runMtx    sync.Mutex
	statusMtx sync.Mutex
	ran       bool
	lastErr   error
	last      models.SyncResult
}

type Option func(*Coordinator)

// WithClock replaces the clock used for missing creation times.
func WithClock(now func() time.Time) Option {
	return func(c *Coordinator) {
		c.merger = NewMerger(NewUsernameResolver(c.store), now)
	}
}

func WithFetchTimeout(d time.Duration) Option {
	return func(c *Coordinator) {
		c.fetchTimeout = d
	}
}

func WithFetchRetries(n int) Option {
	return func(c *Coordinator) {
		c.fetchRetries = n
	}
}

// WithBackOff sets the delay policy between fetch attempts.
func WithBackOff(newBackOff func() backoff.BackOff) Option {
	return func(c *Coordinator) {
		c.newBackOff = newBackOff
	}
}

// NewCoordinator wires a run over client and store. A nil client makes
// every run fail with idp.ErrNotConfigured.
func NewCoordinator(client idp.Client, store Store, opts ...Option) *Coordinator {
	c := &Coordinator{
		client:       client,
		store:        store,
		matcher:      NewMatcher(store),
		merger:       NewMerger(NewUsernameResolver(store), time.Now),
		validate:     validator.New(),
		fetchTimeout: servercfg.GetIDPFetchTimeout(),
		fetchRetries: servercfg.GetIDPFetchRetries(),
		newBackOff: func() backoff.BackOff {
			return backoff.NewExponentialBackOff()
		},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// RunFullSync creates and updates local users from the full remote set,
// then deletes the linked users the provider no longer has.
func (c *Coordinator) RunFullSync(ctx context.Context) (Result, error) {
	return c.Run(ctx, ModeFull)
}

// UpdateExistingOnly refreshes users whose email already exists locally.
// Nothing is created or deleted.
func (c *Coordinator) UpdateExistingOnly(ctx context.Context) (Result, error) {
	return c.Run(ctx, ModeUpdateExisting)
}

// DeleteOrphansOnly deletes linked users missing from the provider.
func (c *Coordinator) DeleteOrphansOnly(ctx context.Context) (Result, error) {
	return c.Run(ctx, ModeDeleteOrphans)
}

// Run performs one pass in the given mode. On error the returned Result
// is zero and no local change is kept.
func (c *Coordinator) Run(ctx context.Context, mode Mode) (Result, error) {
	if !c.runMtx.TryLock() {
		return Result{}, ErrSyncInProgress
	}
	defer c.runMtx.Unlock()

	ctx, resume := c.store.Suspend(ctx)
	defer resume()

	result, err := c.run(ctx, mode)

	c.statusMtx.Lock()
	c.ran = true
	c.lastErr = err
	c.last = result.Model(mode)
	c.statusMtx.Unlock()

	if err != nil {
		logger.Log(0, "idp sync", string(mode), "failed:", err.Error())
		return Result{}, err
	}
	logger.Log(0, fmt.Sprintf("idp sync %s complete: synced=%d created=%d updated=%d deleted=%d failed=%d",
		mode, result.Synced, result.Created, result.Updated, result.Deleted, len(result.Errors)))
	return result, nil
}

func (c *Coordinator) run(ctx context.Context, mode Mode) (Result, error) {
	if c.client == nil {
		return Result{}, idp.ErrNotConfigured
	}

	var result Result
	// rows linked after this point may be missing from the listing
	fetchStarted := time.Now()
	if mode == ModeDeleteOrphans {
		ids, err := c.fetchIDs(ctx)
		if err != nil {
			return Result{}, err
		}
		err = c.store.Transaction(ctx, func(ctx context.Context) error {
			return c.deleteOrphans(ctx, ids, fetchStarted, &result)
		})
		if err != nil {
			return Result{}, fmt.Errorf("sync transaction: %w", err)
		}
		return result, nil
	}

	records, err := c.fetchAll(ctx)
	if err != nil {
		return Result{}, err
	}
	logger.Log(1, fmt.Sprintf("fetched %d identities from provider", len(records)))
	// every fetched id counts, even ones that fail processing below
	ids := idp.ExternalIDs(records)

	err = c.store.Transaction(ctx, func(ctx context.Context) error {
		for _, rec := range records {
			if err := ctx.Err(); err != nil {
				return err
			}
			out, recErr := c.processRecord(ctx, rec, mode)
			if recErr != nil {
				logger.Log(0, "failed to sync user:", recErr.Error())
				result.Errors = append(result.Errors, recErr)
				continue
			}
			switch out {
			case skipped:
				continue
			case created:
				result.Created++
				logger.Log(1, "created user", rec.Email)
			case updated:
				result.Updated++
				logger.Log(1, "updated user", rec.Email)
			}
			result.Synced++
		}
		if mode != ModeFull {
			return nil
		}
		return c.deleteOrphans(ctx, ids, fetchStarted, &result)
	})
	if err != nil {
		return Result{}, fmt.Errorf("sync transaction: %w", err)
	}
	return result, nil
}

// processRecord applies one remote identity inside its own savepoint.
func (c *Coordinator) processRecord(ctx context.Context, rec idp.User, mode Mode) (outcome, *RecordError) {
	if err := c.validate.Struct(rec); err != nil {
		return unchanged, &RecordError{ExternalID: rec.ID, Email: rec.Email, Op: "validate", Err: err}
	}

	out := unchanged
	op := "match"
	err := c.store.Transaction(ctx, func(ctx context.Context) error {
		var user *schema.User
		var err error
		if mode == ModeUpdateExisting {
			user, err = c.store.GetByEmail(ctx, rec.Email)
			if errors.Is(err, schema.ErrUserNotFound) {
				out = skipped
				return nil
			}
		} else {
			user, err = c.matcher.Match(ctx, rec)
		}
		if err != nil {
			return err
		}

		isNew := user == nil
		if isNew {
			user = &schema.User{}
		}
		op = "merge"
		diff, err := c.merger.Merge(ctx, user, rec, isNew)
		if err != nil {
			return err
		}

		switch {
		case isNew:
			op = "create"
			if err := c.store.Create(ctx, user); err != nil {
				return err
			}
			out = created
		case diff.NeedsWrite():
			op = "update"
			if err := c.store.Update(ctx, user); err != nil {
				return err
			}
			logger.Log(2, "changed", fmt.Sprint(diff.Fields), "for", rec.Email)
			out = updated
		}
		return nil
	})
	if err != nil {
		return unchanged, &RecordError{ExternalID: rec.ID, Email: rec.Email, Op: op, Err: err}
	}
	return out, nil
}

// deleteOrphans removes linked users missing from remoteIDs. A user
// written after since was linked while the listing ran and is kept.
func (c *Coordinator) deleteOrphans(ctx context.Context, remoteIDs map[string]struct{}, since time.Time, result *Result) error {
	orphans, err := FindOrphans(ctx, c.store, remoteIDs, true)
	if err != nil {
		return err
	}
	for i := range orphans {
		orphan := orphans[i]
		if orphan.UpdatedAt.After(since) {
			logger.Log(1, "keeping", orphan.Email, "linked during the listing")
			continue
		}
		err := c.store.Transaction(ctx, func(ctx context.Context) error {
			return c.store.Delete(ctx, &orphan)
		})
		if err != nil {
			recErr := &RecordError{ExternalID: orphan.GetExternalID(), Email: orphan.Email, Op: "delete", Err: err}
			logger.Log(0, "failed to delete orphan:", recErr.Error())
			result.Errors = append(result.Errors, recErr)
			continue
		}
		result.Deleted++
		logger.Log(1, "deleted user", orphan.Email, "missing from provider")
	}
	return nil
}

func (c *Coordinator) fetchAll(ctx context.Context) ([]idp.User, error) {
	var records []idp.User
	err := c.fetch(ctx, func(ctx context.Context) error {
		var err error
		records, err = c.client.ListAllIdentities(ctx)
		return err
	})
	return records, err
}

func (c *Coordinator) fetchIDs(ctx context.Context) (map[string]struct{}, error) {
	var ids map[string]struct{}
	err := c.fetch(ctx, func(ctx context.Context) error {
		var err error
		ids, err = c.client.ListAllExternalIDs(ctx)
		return err
	})
	return ids, err
}

// fetch retries op within the fetch timeout. Any failure is reported as
// ErrIncompleteFetch, except a provider that is not configured.
func (c *Coordinator) fetch(ctx context.Context, op func(ctx context.Context) error) error {
	if c.fetchTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.fetchTimeout)
		defer cancel()
	}

	retries := c.fetchRetries
	if retries < 0 {
		retries = 0
	}
	policy := backoff.WithContext(backoff.WithMaxRetries(c.newBackOff(), uint64(retries)), ctx)

	err := backoff.RetryNotify(func() error {
		err := op(ctx)
		if errors.Is(err, idp.ErrNotConfigured) {
			return backoff.Permanent(err)
		}
		return err
	}, policy, func(err error, wait time.Duration) {
		logger.Log(1, "identity fetch failed, retrying in", wait.String(), ":", err.Error())
	})
	if err == nil {
		return nil
	}
	if errors.Is(err, idp.ErrNotConfigured) {
		return err
	}
	return fmt.Errorf("%w: %w", ErrIncompleteFetch, err)
}

// Status reports the state of the current or most recent run.
func (c *Coordinator) Status() models.IDPSyncStatus {
	if c.runMtx.TryLock() {
		defer c.runMtx.Unlock()
		c.statusMtx.Lock()
		defer c.statusMtx.Unlock()
		if !c.ran {
			return models.IDPSyncStatus{
				Status: "idle",
			}
		}
		if c.lastErr == nil {
			return models.IDPSyncStatus{
				Status: "completed",
			}
		}
		return models.IDPSyncStatus{
			Status:      "failed",
			Description: c.lastErr.Error(),
		}
	}
	return models.IDPSyncStatus{
		Status: "in_progress",
	}
}

// LastResult returns the counters of the most recent run.
func (c *Coordinator) LastResult() models.SyncResult {
	c.statusMtx.Lock()
	defer c.statusMtx.Unlock()
	return c.last
}

// StartHook runs a full sync every interval until ctx is done or stop is
// called. stop waits for a running pass to finish.
func (c *Coordinator) StartHook(ctx context.Context, interval time.Duration) (stop func()) {
	if interval <= 0 {
		return func() {}
	}
	ctx, cancel := context.WithCancel(ctx)
	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		ticker := time.NewTicker(interval)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				logger.Log(0, "idp sync hook stopped")
				return
			case <-ticker.C:
				if _, err := c.RunFullSync(ctx); err != nil {
					logger.Log(0, "failed to sync from idp: ", err.Error())
				} else {
					logger.Log(0, "sync from idp complete")
				}
			}
		}
	}()
	return func() {
		cancel()
		wg.Wait()
	}
}
