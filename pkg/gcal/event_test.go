package gcal

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/api/calendar/v3"

	"github.com/rgoodwin/fieldsync/pkg/model"
)

func fullJob() *model.DispatchJob {
	return &model.DispatchJob{
		ID:                 "job-1",
		Title:              "Install furnace",
		ServiceType:        model.ServiceHVAC,
		Status:             model.StatusAssigned,
		ScheduledDate:      "2026-02-21",
		ScheduledStartTime: "10:00",
		ScheduledEndTime:   "12:30",
		CustomerName:       "Dana Reyes",
		CustomerPhone:      "555-0134",
		CustomerAddress:    "12 Elm St, Springfield",
		Notes:              "Gate code 4411",
	}
}

func TestBuildEvent(t *testing.T) {
	loc := time.FixedZone("UTC+2", 2*3600)
	ev, err := BuildEvent(fullJob(), loc)
	require.NoError(t, err)

	assert.Equal(t, "Install furnace - Dana Reyes", ev.Summary)
	assert.Equal(t, "2026-02-21T10:00:00+02:00", ev.Start.DateTime)
	assert.Equal(t, "2026-02-21T12:30:00+02:00", ev.End.DateTime)
	assert.Equal(t, "12 Elm St, Springfield", ev.Location)

	expectedDescription := "Job ID: job-1\n" +
		"Status: assigned\n" +
		"Service: hvac\n" +
		"Customer: Dana Reyes\n" +
		"Phone: 555-0134\n" +
		"Address: 12 Elm St, Springfield\n" +
		"Notes: Gate code 4411"
	assert.Equal(t, expectedDescription, ev.Description)

	require.NotNil(t, ev.ExtendedProperties)
	assert.Equal(t, SourceTagValue, ev.ExtendedProperties.Private[SourceTagKey])
	assert.Equal(t, "job-1", ev.ExtendedProperties.Private[JobIDTagKey])
	assert.NotEmpty(t, ev.ExtendedProperties.Private[hashTagKey])
}

func TestBuildEventOmitsAbsentFields(t *testing.T) {
	job := &model.DispatchJob{
		ID:                 "job-2",
		Title:              "Inspect boiler",
		Status:             model.StatusPending,
		ScheduledDate:      "2026-02-21",
		ScheduledStartTime: "09:00",
		ScheduledEndTime:   "10:00",
	}
	ev, err := BuildEvent(job, time.UTC)
	require.NoError(t, err)

	assert.Equal(t, "Inspect boiler", ev.Summary)
	assert.Equal(t, "Job ID: job-2\nStatus: pending", ev.Description)
	assert.Empty(t, ev.Location)
}

func TestBuildEventRejectsBadSchedule(t *testing.T) {
	job := fullJob()
	job.ScheduledStartTime = "25:99"
	_, err := BuildEvent(job, time.UTC)
	require.Error(t, err)
}

func TestJobIDOf(t *testing.T) {
	ev, err := BuildEvent(fullJob(), time.UTC)
	require.NoError(t, err)

	id, ok := JobIDOf(ev)
	assert.True(t, ok)
	assert.Equal(t, "job-1", id)

	_, ok = JobIDOf(&calendar.Event{Summary: "foreign event"})
	assert.False(t, ok)
}

func TestPayloadHashTracksContent(t *testing.T) {
	loc := time.UTC
	a, err := BuildEvent(fullJob(), loc)
	require.NoError(t, err)
	b, err := BuildEvent(fullJob(), loc)
	require.NoError(t, err)
	assert.Equal(t, PayloadHash(a), PayloadHash(b))
	assert.Equal(t, PayloadHash(a), StoredHash(a))

	changed := fullJob()
	changed.Title = "Replace furnace"
	c, err := BuildEvent(changed, loc)
	require.NoError(t, err)
	assert.NotEqual(t, PayloadHash(a), PayloadHash(c))
}
