package engine

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/lu-zhengda/mailmirror/internal/api"
	"github.com/lu-zhengda/mailmirror/internal/store"
)

// SyncClient is the slice of the remote API the engine needs.
type SyncClient interface {
	FetchChanges(ctx context.Context, cursor string, minimal bool) (*api.ChangeSet, error)
	PushMutations(ctx context.Context, muts []api.EmailMutation) error
}

// Authenticator guarantees a usable access token before a sync.
type Authenticator interface {
	EnsureFresh(ctx context.Context) error
}

// Options configures a single sync run.
type Options struct {
	// Minimal requests only the entities needed to render a basic
	// list; full-only entities (tokens, custom domains, users) are
	// left untouched locally.
	Minimal bool
	// Silent suppresses progress logging. Errors still propagate to
	// the caller: silent means "don't interrupt the user", not
	// "ignore failures".
	Silent bool
}

// SyncResult reports what a completed sync applied.
type SyncResult struct {
	Counts Counts
	// Cursor is the watermark after this sync.
	Cursor string
	// CursorAdvanced is false when the server response omitted its
	// watermark: the entity changes committed but progress was not
	// recorded, and the next sync re-fetches the same range.
	CursorAdvanced bool
	// FullReplace reports that the mirror was wiped and re-seeded
	// (first-ever sync, no prior cursor).
	FullReplace bool
	// Coalesced reports that this call reused the result of a sync
	// that had just completed instead of fetching again.
	Coalesced bool
}

// Counts holds applied row counts per entity type.
type Counts struct {
	Users         int
	Mailboxes     int
	MailboxUsers  int
	Categories    int
	Emails        int
	Aliases       int
	TempAliases   int
	Drafts        int
	Tokens        int
	CustomDomains int
}

// Total returns the number of rows applied across all entity types.
func (c Counts) Total() int {
	return c.Users + c.Mailboxes + c.MailboxUsers + c.Categories + c.Emails +
		c.Aliases + c.TempAliases + c.Drafts + c.Tokens + c.CustomDomains
}

// Engine coordinates the session, the remote sync client, and the
// change applier behind a single Sync entry point. Apply phases of
// concurrent Sync calls never interleave: the engine mutex covers
// cursor read, fetch, and apply.
type Engine struct {
	store    store.Store
	client   SyncClient
	auth     Authenticator
	logger   *log.Logger
	coalesce time.Duration

	mu         sync.Mutex
	lastDone   time.Time
	lastResult *SyncResult

	pushWG sync.WaitGroup
}

// New creates an Engine. If logger is nil, a default logger is used.
// coalesce is how long after a completed sync a new request is served
// from the previous result; zero disables coalescing of sequential
// calls (concurrent callers still coalesce).
func New(s store.Store, client SyncClient, auth Authenticator, coalesce time.Duration, logger *log.Logger) *Engine {
	if logger == nil {
		logger = log.Default()
	}
	return &Engine{
		store:    s,
		client:   client,
		auth:     auth,
		logger:   logger,
		coalesce: coalesce,
	}
}

// Sync brings the local mirror up to date with the server. On the
// first-ever sync (no prior cursor) the mirror is wiped and re-seeded
// from the complete server state. On any error the mirror keeps its
// last-good data and the cursor stays put; the caller decides whether
// and when to retry.
func (e *Engine) Sync(ctx context.Context, opts Options) (*SyncResult, error) {
	if err := e.auth.EnsureFresh(ctx); err != nil {
		return nil, err
	}

	requested := time.Now()

	e.mu.Lock()
	defer e.mu.Unlock()

	// A sync that finished after this caller started waiting (or
	// within the coalescing window) already carries its answer.
	if e.lastResult != nil {
		justFinished := e.lastDone.After(requested)
		withinWindow := e.coalesce > 0 && time.Since(e.lastDone) < e.coalesce
		if justFinished || withinWindow {
			res := *e.lastResult
			res.Coalesced = true
			return &res, nil
		}
	}

	cursor, err := e.store.Cursor(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to read sync cursor: %w", err)
	}

	if !opts.Silent {
		if cursor == "" {
			e.logger.Printf("[sync] no cursor, performing full resync (minimal=%v)", opts.Minimal)
		} else {
			e.logger.Printf("[sync] fetching changes since %s (minimal=%v)", cursor, opts.Minimal)
		}
	}

	cs, err := e.client.FetchChanges(ctx, cursor, opts.Minimal)
	if err != nil {
		return nil, err
	}

	replace := cursor == ""
	counts, advanced, err := e.apply(ctx, cs, replace)
	if err != nil {
		return nil, err
	}

	res := &SyncResult{
		Counts:         counts,
		Cursor:         cs.Cursor,
		CursorAdvanced: advanced,
		FullReplace:    replace,
	}
	if !advanced {
		res.Cursor = cursor
		e.logger.Printf("[sync] server response carried no watermark; applied %d rows without advancing cursor", counts.Total())
	} else if !opts.Silent {
		e.logger.Printf("[sync] applied %d rows, cursor now %s", counts.Total(), cs.Cursor)
	}

	e.lastDone = time.Now()
	e.lastResult = res
	return res, nil
}

// RunBackground triggers a silent sync at every interval tick until the
// context is cancelled. Failures are logged and the loop keeps going;
// the next tick is the retry.
func (e *Engine) RunBackground(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if _, err := e.Sync(ctx, Options{Minimal: true, Silent: true}); err != nil {
				e.logger.Printf("[sync] background sync failed: %v", err)
				if Classify(err) == FailureAuth {
					// A dead refresh token will not heal on its own.
					return
				}
			}
		}
	}
}

// Wait blocks until in-flight mutation pushes have finished. Call
// before closing the store on shutdown.
func (e *Engine) Wait() {
	e.pushWG.Wait()
}

// FailureKind classifies a sync failure for caller policy.
type FailureKind int

const (
	FailureUnknown FailureKind = iota
	// FailureAuth requires a fresh login; never retried silently.
	FailureAuth
	// FailureTransport is a network failure, retryable with backoff.
	FailureTransport
	// FailureServer is a non-2xx response; retryable only for 5xx.
	FailureServer
	// FailureParse is a malformed server payload.
	FailureParse
	// FailureApply is a local store failure; the batch rolled back
	// and the next sync retries the same range.
	FailureApply
)

// Classify maps an error from Sync to its failure kind.
func Classify(err error) FailureKind {
	var (
		authErr      *api.AuthError
		transportErr *api.TransportError
		serverErr    *api.ServerError
		parseErr     *api.ParseError
		applyErr     *ApplyError
	)
	switch {
	case errors.As(err, &authErr):
		return FailureAuth
	case errors.As(err, &applyErr):
		return FailureApply
	case errors.As(err, &parseErr):
		return FailureParse
	case errors.As(err, &transportErr):
		return FailureTransport
	case errors.As(err, &serverErr):
		return FailureServer
	default:
		return FailureUnknown
	}
}
