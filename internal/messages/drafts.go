package messages

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/2beens/progressboard/internal/debounce"
	"github.com/2beens/progressboard/internal/telemetry/metrics"

	log "github.com/sirupsen/logrus"
	"go.uber.org/multierr"
)

// how long a saved draft keeps reporting "saved" before it is dropped
const savedDraftRetention = time.Minute

type noteSaver interface {
	Save(ctx context.Context, note Note) error
}

type noteKey struct {
	patientID int
	week      int
}

type draft struct {
	committer *debounce.Committer[string]
	// unix nanos of the last save, 0 while the status is anything but saved
	savedAt atomic.Int64
}

// Drafts autosaves coaching notes while the coach is typing. Each patient
// week gets its own debounced committer, dropped again once its draft has
// been saved for a while.
//
// Locking order is d.mu, then the committer's own lock.
type Drafts struct {
	ctx            context.Context
	repo           noteSaver
	delay          time.Duration
	retention      time.Duration
	now            func() time.Time
	metricsManager *metrics.Manager

	mu     sync.Mutex
	drafts map[noteKey]*draft
}

func NewDrafts(ctx context.Context, repo noteSaver, delay time.Duration, metricsManager *metrics.Manager) *Drafts {
	return &Drafts{
		ctx:            ctx,
		repo:           repo,
		delay:          delay,
		retention:      savedDraftRetention,
		now:            time.Now,
		metricsManager: metricsManager,
		drafts:         map[noteKey]*draft{},
	}
}

// Touch stores the newest draft body and returns the resulting status.
func (d *Drafts) Touch(patientID, week int, body string) debounce.Status {
	d.mu.Lock()
	defer d.mu.Unlock()

	c := d.committer(patientID, week)
	c.Touch(body)
	status, _ := c.Status()
	return status
}

// Status of an unknown or already dropped draft is idle.
func (d *Drafts) Status(patientID, week int) (debounce.Status, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	d.evictSaved()
	dr, ok := d.drafts[noteKey{patientID, week}]
	if !ok {
		return debounce.StatusIdle, nil
	}
	return dr.committer.Status()
}

func (d *Drafts) Flush(ctx context.Context, patientID, week int) error {
	d.mu.Lock()
	c := d.committer(patientID, week)
	d.mu.Unlock()

	return c.Flush(ctx)
}

// Close stops all timers and writes every pending draft.
func (d *Drafts) Close(ctx context.Context) error {
	d.mu.Lock()
	drafts := d.drafts
	d.drafts = map[noteKey]*draft{}
	d.mu.Unlock()

	var errs error
	for key, dr := range drafts {
		dr.committer.Stop()
		if err := dr.committer.Flush(ctx); err != nil {
			log.Errorf("flush note draft [patient %d, week %d]: %s", key.patientID, key.week, err)
			errs = multierr.Append(errs, err)
		}
	}
	return errs
}

// Len returns the number of tracked drafts.
func (d *Drafts) Len() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return len(d.drafts)
}

// committer must be called with d.mu held.
func (d *Drafts) committer(patientID, week int) *debounce.Committer[string] {
	d.evictSaved()

	key := noteKey{patientID, week}
	if dr, ok := d.drafts[key]; ok {
		return dr.committer
	}

	dr := &draft{}
	save := func(ctx context.Context, body string) error {
		return d.repo.Save(ctx, Note{PatientID: patientID, Week: week, Body: body})
	}
	// the hook runs under the committer lock, so it must not take d.mu
	onStatus := func(s debounce.Status) {
		d.countStatus(s)
		if s == debounce.StatusSaved {
			dr.savedAt.Store(d.now().UnixNano())
		} else {
			dr.savedAt.Store(0)
		}
	}
	dr.committer = debounce.New(d.ctx, d.delay, save, debounce.WithStatusHook[string](onStatus))
	d.drafts[key] = dr
	return dr.committer
}

// evictSaved drops drafts saved longer than the retention ago. A saved draft
// has nothing pending and no running timer, and Touch cannot race the check
// since it holds d.mu as well. Must be called with d.mu held.
func (d *Drafts) evictSaved() {
	now := d.now().UnixNano()
	for key, dr := range d.drafts {
		savedAt := dr.savedAt.Load()
		if savedAt == 0 || time.Duration(now-savedAt) < d.retention {
			continue
		}
		dr.committer.Stop()
		delete(d.drafts, key)
	}
}

func (d *Drafts) countStatus(s debounce.Status) {
	if d.metricsManager == nil {
		return
	}
	if s == debounce.StatusSaved || s == debounce.StatusError {
		d.metricsManager.CounterNotesAutosaved.WithLabelValues(string(s)).Inc()
	}
}
