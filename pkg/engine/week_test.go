package engine

import (
	"context"
	"testing"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/stretchr/testify/assert"
	"google.golang.org/api/googleapi"
)

func TestWeekOf(t *testing.T) {
	wednesday := time.Date(2026, 2, 18, 15, 30, 0, 0, time.UTC)
	start, end := WeekOf(wednesday)
	assert.Equal(t, "2026-02-16", start)
	assert.Equal(t, "2026-02-22", end)

	// Monday and Sunday both belong to the same week.
	monday := time.Date(2026, 2, 16, 0, 0, 0, 0, time.UTC)
	start, end = WeekOf(monday)
	assert.Equal(t, "2026-02-16", start)
	assert.Equal(t, "2026-02-22", end)

	sunday := time.Date(2026, 2, 22, 23, 59, 0, 0, time.UTC)
	start, end = WeekOf(sunday)
	assert.Equal(t, "2026-02-16", start)
	assert.Equal(t, "2026-02-22", end)
}

func TestTransientClassification(t *testing.T) {
	assert.True(t, transient(&googleapi.Error{Code: 429}))
	assert.True(t, transient(&googleapi.Error{Code: 503}))
	assert.True(t, transient(context.DeadlineExceeded))
	assert.False(t, transient(&googleapi.Error{Code: 400}))
	assert.False(t, transient(&googleapi.Error{Code: 404}))
	assert.False(t, transient(errors.New("config missing")))
}

func TestJitteredDelayBounded(t *testing.T) {
	for attempt := 1; attempt <= 10; attempt++ {
		d := jitteredDelay(attempt)
		assert.GreaterOrEqual(t, d, time.Duration(0))
		assert.LessOrEqual(t, d, retryMaxDelay)
	}
}
