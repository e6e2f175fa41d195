// Package engine reconciles a Google Calendar's managed event set with the
// authoritative job record: a tag-scoped, one-way diff-and-sync.
//
// The pass is convergent: repeated execution against an unchanged job set
// always lands in the same mapped state, so a pass that fails partway leaves
// only delayed consistency, never corruption; the next successful pass
// repairs it.
package engine

import (
	"context"
	"sync"
	"time"

	"github.com/cockroachdb/errors"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
	"google.golang.org/api/calendar/v3"

	"github.com/rgoodwin/fieldsync/pkg/gcal"
	"github.com/rgoodwin/fieldsync/pkg/model"
)

// Calendar is the slice of the calendar API the engine needs. Satisfied by
// *gcal.Client.
type Calendar interface {
	CalendarID() string
	ListManagedEvents(ctx context.Context, timeMin, timeMax time.Time) ([]*calendar.Event, error)
	Insert(ctx context.Context, ev *calendar.Event) (*calendar.Event, error)
	Update(ctx context.Context, eventID string, ev *calendar.Event) (*calendar.Event, error)
	Delete(ctx context.Context, eventID string) error
}

// Result tallies one sync pass.
type Result struct {
	Created    int    `json:"created"`
	Updated    int    `json:"updated"`
	Deleted    int    `json:"deleted"`
	Skipped    int    `json:"skipped"`
	SyncedJobs int    `json:"syncedJobs"`
	CalendarID string `json:"calendarId"`
}

// Engine drives sync passes against one calendar.
type Engine struct {
	cal Calendar
	log *zap.SugaredLogger

	loc           *time.Location
	concurrency   int
	callTimeout   time.Duration
	maxAttempts   int
	skipUnchanged bool
}

// Option configures an Engine.
type Option func(*Engine)

// WithLocation sets the time zone used to render job wall-clock windows.
// The zone is always the dispatcher's, never derived from the job address.
func WithLocation(loc *time.Location) Option {
	return func(e *Engine) { e.loc = loc }
}

// WithConcurrency bounds the calendar-call fan-out.
func WithConcurrency(n int) Option {
	return func(e *Engine) {
		if n > 0 {
			e.concurrency = n
		}
	}
}

// WithCallTimeout bounds each individual calendar call.
func WithCallTimeout(d time.Duration) Option {
	return func(e *Engine) {
		if d > 0 {
			e.callTimeout = d
		}
	}
}

// WithMaxAttempts caps attempts per calendar call (1 = no retry).
func WithMaxAttempts(n int) Option {
	return func(e *Engine) {
		if n > 0 {
			e.maxAttempts = n
		}
	}
}

// WithSkipUnchanged skips updates whose payload hash matches the hash
// stamped on the existing event. Off by default: with it on, a repeat pass
// over an unchanged job set reports skips instead of updates.
func WithSkipUnchanged(skip bool) Option {
	return func(e *Engine) { e.skipUnchanged = skip }
}

// WithLogger sets the engine logger.
func WithLogger(log *zap.SugaredLogger) Option {
	return func(e *Engine) { e.log = log }
}

// New returns an engine bound to cal.
func New(cal Calendar, opts ...Option) *Engine {
	e := &Engine{
		cal:         cal,
		log:         zap.NewNop().Sugar(),
		loc:         time.Local,
		concurrency: 4,
		callTimeout: 15 * time.Second,
		maxAttempts: 3,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// SyncWeek reconciles the calendar window [weekStart 00:00, weekEnd+1d
// 00:00) with jobs. Cancelled jobs are excluded from the sync set; managed
// events whose job id has left the set are deleted, as are duplicate events
// shadowed in the job-id mapping. Upserts fully drain
// before any delete is issued, so a job id can never observe its delete
// ordered ahead of its create.
//
// On error the returned Result still carries the tallies of the writes that
// completed.
func (e *Engine) SyncWeek(ctx context.Context, jobs []*model.DispatchJob, weekStart, weekEnd string) (*Result, error) {
	res := &Result{CalendarID: e.cal.CalendarID()}

	windowMin, err := model.ParseLocal(weekStart, "00:00", e.loc)
	if err != nil {
		return res, err
	}
	windowEnd, err := model.ParseLocal(weekEnd, "00:00", e.loc)
	if err != nil {
		return res, err
	}
	windowMax := windowEnd.AddDate(0, 0, 1)

	events, err := e.cal.ListManagedEvents(ctx, windowMin, windowMax)
	if err != nil {
		return res, err
	}

	// Job id -> calendar-native event id, for every tagged event found,
	// regardless of the job's current status. Only one event can win the
	// mapping per job id; shadowed duplicates are queued for deletion so
	// they don't linger on the calendar.
	mapped := make(map[string]*calendar.Event, len(events))
	var shadowed []*calendar.Event
	for _, ev := range events {
		jobID, ok := gcal.JobIDOf(ev)
		if !ok {
			continue
		}
		if prev, dup := mapped[jobID]; dup {
			shadowed = append(shadowed, prev)
		}
		mapped[jobID] = ev
	}

	syncSet := make([]*model.DispatchJob, 0, len(jobs))
	syncIDs := make(map[string]struct{}, len(jobs))
	for _, job := range jobs {
		if job.Status == model.StatusCancelled {
			continue
		}
		syncSet = append(syncSet, job)
		syncIDs[job.ID] = struct{}{}
	}
	res.SyncedJobs = len(syncSet)

	var mu sync.Mutex

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(e.concurrency)
	for _, job := range syncSet {
		job := job
		g.Go(func() error {
			ev, err := gcal.BuildEvent(job, e.loc)
			if err != nil {
				return errors.Wrapf(err, "building event for job %s", job.ID)
			}

			existing, ok := mapped[job.ID]
			if !ok {
				if err := e.withRetry(gctx, func(cctx context.Context) error {
					_, err := e.cal.Insert(cctx, ev)
					return err
				}); err != nil {
					return errors.Wrapf(err, "creating event for job %s", job.ID)
				}
				mu.Lock()
				res.Created++
				mu.Unlock()
				return nil
			}

			if e.skipUnchanged && gcal.StoredHash(existing) == gcal.PayloadHash(ev) {
				mu.Lock()
				res.Skipped++
				mu.Unlock()
				return nil
			}

			if err := e.withRetry(gctx, func(cctx context.Context) error {
				_, err := e.cal.Update(cctx, existing.Id, ev)
				return err
			}); err != nil {
				return errors.Wrapf(err, "updating event for job %s", job.ID)
			}
			mu.Lock()
			res.Updated++
			mu.Unlock()
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		e.log.Errorw("sync pass aborted during upserts",
			"created", res.Created, "updated", res.Updated, "err", err)
		return res, err
	}

	type doomedEvent struct {
		eventID string
		jobID   string
	}
	doomed := make([]doomedEvent, 0, len(shadowed))
	for _, ev := range shadowed {
		jobID, _ := gcal.JobIDOf(ev)
		doomed = append(doomed, doomedEvent{eventID: ev.Id, jobID: jobID})
	}
	for jobID, ev := range mapped {
		if _, keep := syncIDs[jobID]; keep {
			continue
		}
		doomed = append(doomed, doomedEvent{eventID: ev.Id, jobID: jobID})
	}

	g, gctx = errgroup.WithContext(ctx)
	g.SetLimit(e.concurrency)
	for _, d := range doomed {
		d := d
		g.Go(func() error {
			if err := e.withRetry(gctx, func(cctx context.Context) error {
				return e.cal.Delete(cctx, d.eventID)
			}); err != nil {
				return errors.Wrapf(err, "deleting stale event for job %s", d.jobID)
			}
			mu.Lock()
			res.Deleted++
			mu.Unlock()
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		e.log.Errorw("sync pass aborted during deletes", "deleted", res.Deleted, "err", err)
		return res, err
	}

	e.log.Infow("sync pass complete",
		"calendar", res.CalendarID, "jobs", res.SyncedJobs,
		"created", res.Created, "updated", res.Updated,
		"deleted", res.Deleted, "skipped", res.Skipped)
	return res, nil
}
