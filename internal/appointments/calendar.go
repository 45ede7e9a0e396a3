package appointments

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/wolfman30/clinic-calendar/internal/availability"
	"github.com/wolfman30/clinic-calendar/pkg/logging"
)

var (
	ErrNotFound        = errors.New("appointments: appointment not found")
	ErrConflict        = errors.New("appointments: time overlaps an existing appointment")
	ErrInvalidInterval = errors.New("appointments: start must precede end")
	ErrMissingPatient  = errors.New("appointments: patient id is required")
	ErrNotConfirmable  = errors.New("appointments: cancelled appointments cannot be confirmed")
)

// Persister loads and saves the full appointment list.
type Persister interface {
	Load(ctx context.Context) ([]Appointment, error)
	Save(ctx context.Context, appts []Appointment) error
}

// Calendar is the application's appointment state. It is loaded once from a
// Persister and written back after every change.
type Calendar struct {
	mu        sync.RWMutex
	items     []Appointment
	persister Persister
	logger    *logging.Logger
	now       func() time.Time

	subsMu sync.Mutex
	subs   map[chan struct{}]struct{}
}

// Open loads the calendar from p.
func Open(ctx context.Context, p Persister, logger *logging.Logger) (*Calendar, error) {
	if p == nil {
		return nil, errors.New("appointments: persister required")
	}
	if logger == nil {
		logger = logging.Default()
	}
	items, err := p.Load(ctx)
	if err != nil {
		return nil, fmt.Errorf("appointments: load calendar: %w", err)
	}
	sortByStart(items)
	logger.Info("calendar loaded", "appointments", len(items))
	return &Calendar{
		items:     items,
		persister: p,
		logger:    logger,
		now:       time.Now,
		subs:      make(map[chan struct{}]struct{}),
	}, nil
}

// SetClock overrides the timestamp source used for CreatedAt/UpdatedAt.
func (c *Calendar) SetClock(now func() time.Time) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if now != nil {
		c.now = now
	}
}

// Book validates req against the active appointments and stores it.
func (c *Calendar) Book(ctx context.Context, req BookRequest) (*Appointment, error) {
	if strings.TrimSpace(req.PatientID) == "" {
		return nil, ErrMissingPatient
	}
	span := availability.Interval{Start: req.Start, End: req.End}
	if !span.Valid() {
		return nil, ErrInvalidInterval
	}

	c.mu.Lock()
	for _, existing := range c.items {
		if existing.Active() && existing.Interval().Overlaps(span) {
			c.mu.Unlock()
			return nil, fmt.Errorf("%w: %s", ErrConflict, existing.ID)
		}
	}

	now := c.now().UTC()
	appt := Appointment{
		ID:             uuid.New(),
		PatientID:      req.PatientID,
		PatientName:    req.PatientName,
		PractitionerID: req.PractitionerID,
		Title:          req.Title,
		Notes:          req.Notes,
		Start:          req.Start,
		End:            req.End,
		Status:         StatusBooked,
		CreatedAt:      now,
		UpdatedAt:      now,
	}

	next := append(c.snapshotLocked(), appt)
	sortByStart(next)
	if err := c.persister.Save(ctx, next); err != nil {
		c.mu.Unlock()
		return nil, fmt.Errorf("appointments: save after book: %w", err)
	}
	c.items = next
	c.mu.Unlock()

	c.logger.Info("appointment booked",
		"appointment_id", appt.ID,
		"patient_id", appt.PatientID,
		"start", appt.Start.Format(time.RFC3339),
		"minutes", appt.Minutes(),
	)
	c.notify()
	return &appt, nil
}

// Cancel marks an appointment cancelled, freeing its time.
func (c *Calendar) Cancel(ctx context.Context, id uuid.UUID) (*Appointment, error) {
	c.mu.Lock()
	idx := c.indexLocked(id)
	if idx < 0 {
		c.mu.Unlock()
		return nil, ErrNotFound
	}
	if !c.items[idx].Active() {
		cpy := c.items[idx]
		c.mu.Unlock()
		return &cpy, nil
	}

	next := c.snapshotLocked()
	next[idx].Status = StatusCancelled
	next[idx].UpdatedAt = c.now().UTC()
	if err := c.persister.Save(ctx, next); err != nil {
		c.mu.Unlock()
		return nil, fmt.Errorf("appointments: save after cancel: %w", err)
	}
	c.items = next
	cpy := next[idx]
	c.mu.Unlock()

	c.logger.Info("appointment cancelled", "appointment_id", id)
	c.notify()
	return &cpy, nil
}

// Confirm marks a pending appointment confirmed. Confirming twice is a no-op.
func (c *Calendar) Confirm(ctx context.Context, id uuid.UUID) (*Appointment, error) {
	c.mu.Lock()
	idx := c.indexLocked(id)
	if idx < 0 {
		c.mu.Unlock()
		return nil, ErrNotFound
	}
	switch c.items[idx].Status {
	case StatusCancelled:
		c.mu.Unlock()
		return nil, ErrNotConfirmable
	case StatusConfirmed:
		cpy := c.items[idx]
		c.mu.Unlock()
		return &cpy, nil
	}

	next := c.snapshotLocked()
	next[idx].Status = StatusConfirmed
	next[idx].UpdatedAt = c.now().UTC()
	if err := c.persister.Save(ctx, next); err != nil {
		c.mu.Unlock()
		return nil, fmt.Errorf("appointments: save after confirm: %w", err)
	}
	c.items = next
	cpy := next[idx]
	c.mu.Unlock()

	c.logger.Info("appointment confirmed", "appointment_id", id)
	c.notify()
	return &cpy, nil
}

// Get returns a copy of one appointment.
func (c *Calendar) Get(id uuid.UUID) (*Appointment, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	idx := c.indexLocked(id)
	if idx < 0 {
		return nil, ErrNotFound
	}
	cpy := c.items[idx]
	return &cpy, nil
}

// List returns every appointment, cancelled ones included, ordered by start.
func (c *Calendar) List() []Appointment {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.snapshotLocked()
}

// Active returns the appointments that still block time.
func (c *Calendar) Active() []Appointment {
	return c.filter(func(a Appointment) bool { return true })
}

// ForPatient returns a patient's active appointments.
func (c *Calendar) ForPatient(patientID string) []Appointment {
	return c.filter(func(a Appointment) bool { return a.PatientID == patientID })
}

// ForPractitioner returns a practitioner's active appointments.
func (c *Calendar) ForPractitioner(practitionerID string) []Appointment {
	return c.filter(func(a Appointment) bool { return a.PractitionerID == practitionerID })
}

// Busy returns the intervals occupied by active appointments, the input the
// suggestion engine expects.
func (c *Calendar) Busy() []availability.Interval {
	active := c.Active()
	out := make([]availability.Interval, 0, len(active))
	for _, a := range active {
		out = append(out, a.Interval())
	}
	return out
}

// Subscribe returns a channel that receives a signal after every change.
// Signals coalesce; call the returned func to stop receiving.
func (c *Calendar) Subscribe() (<-chan struct{}, func()) {
	ch := make(chan struct{}, 1)
	c.subsMu.Lock()
	c.subs[ch] = struct{}{}
	c.subsMu.Unlock()

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			c.subsMu.Lock()
			delete(c.subs, ch)
			c.subsMu.Unlock()
		})
	}
}

func (c *Calendar) notify() {
	c.subsMu.Lock()
	defer c.subsMu.Unlock()
	for ch := range c.subs {
		select {
		case ch <- struct{}{}:
		default:
		}
	}
}

func (c *Calendar) filter(keep func(Appointment) bool) []Appointment {
	c.mu.RLock()
	defer c.mu.RUnlock()
	var out []Appointment
	for _, a := range c.items {
		if a.Active() && keep(a) {
			out = append(out, a)
		}
	}
	return out
}

func (c *Calendar) snapshotLocked() []Appointment {
	out := make([]Appointment, len(c.items))
	copy(out, c.items)
	return out
}

func (c *Calendar) indexLocked(id uuid.UUID) int {
	for i, a := range c.items {
		if a.ID == id {
			return i
		}
	}
	return -1
}

func sortByStart(items []Appointment) {
	sort.SliceStable(items, func(i, j int) bool {
		return items[i].Start.Before(items[j].Start)
	})
}
