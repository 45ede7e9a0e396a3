package availability

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wolfman30/clinic-calendar/pkg/logging"
)

type recordedSuggestion struct {
	outcome  string
	returned int
}

type stubRecorder struct {
	calls []recordedSuggestion
}

func (r *stubRecorder) ObserveSuggestion(outcome string, returned int) {
	r.calls = append(r.calls, recordedSuggestion{outcome: outcome, returned: returned})
}

func TestServiceSuggestUsesInjectedClock(t *testing.T) {
	rec := &stubRecorder{}
	svc := NewService(utcPolicy(), logging.New("error"),
		WithClock(func() time.Time { return at(8, 9, 0) }),
		WithRecorder(rec),
	)

	slots, err := svc.Suggest(context.Background(), nil, 60)
	require.NoError(t, err)
	require.Len(t, slots, 3)
	assert.Equal(t, at(8, 9, 0), slots[0].Start)
	assert.Equal(t, []recordedSuggestion{{outcome: "ok", returned: 3}}, rec.calls)
}

func TestServiceSuggestRecordsRejections(t *testing.T) {
	rec := &stubRecorder{}
	svc := NewService(utcPolicy(), nil,
		WithClock(func() time.Time { return at(8, 9, 0) }),
		WithRecorder(rec),
	)

	_, err := svc.Suggest(context.Background(), nil, 0)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrInvalidDuration))

	_, err = svc.Suggest(context.Background(), []Interval{{Start: at(8, 11, 0), End: at(8, 10, 0)}}, 30)
	assert.True(t, errors.Is(err, ErrInvalidAppointment))

	assert.Equal(t, []recordedSuggestion{
		{outcome: "invalid_duration"},
		{outcome: "invalid_appointment"},
	}, rec.calls)
}

func TestServiceSuggestEmptyOutcome(t *testing.T) {
	rec := &stubRecorder{}
	svc := NewService(utcPolicy(), nil,
		WithClock(func() time.Time { return at(8, 9, 0) }),
		WithRecorder(rec),
	)

	booked := []Interval{{Start: at(1, 0, 0), End: at(31, 0, 0)}}
	slots, err := svc.Suggest(context.Background(), booked, 30)
	require.NoError(t, err)
	assert.Empty(t, slots)
	assert.Equal(t, "empty", rec.calls[0].outcome)
}

func TestServiceWithoutRecorder(t *testing.T) {
	svc := NewService(utcPolicy(), nil, WithClock(nil))
	_, err := svc.Suggest(context.Background(), nil, 30)
	require.NoError(t, err)
	assert.Equal(t, time.UTC, svc.Policy().Location)
}

func TestServiceNowUsesPolicyLocation(t *testing.T) {
	ny, err := time.LoadLocation("America/New_York")
	require.NoError(t, err)
	policy := DefaultPolicy()
	policy.Location = ny

	svc := NewService(policy, nil, WithClock(func() time.Time { return at(8, 15, 0) }))
	now := svc.Now()
	assert.Equal(t, ny, now.Location())
	assert.True(t, now.Equal(at(8, 15, 0)))
	assert.Equal(t, 10, now.Hour())
}
