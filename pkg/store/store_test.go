package store

import (
	"path/filepath"
	"testing"

	"github.com/cockroachdb/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rgoodwin/fieldsync/pkg/model"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open()
	require.NoError(t, err)
	return s
}

func createJob(t *testing.T, s *Store, date string) *model.DispatchJob {
	t.Helper()
	job, err := s.CreateJob(CreateJobInput{
		Title:              "Water heater replacement",
		ServiceType:        model.ServicePlumbing,
		ScheduledDate:      date,
		ScheduledStartTime: "09:00",
		ScheduledEndTime:   "11:00",
	})
	require.NoError(t, err)
	return job
}

func TestCreateJobDefaults(t *testing.T) {
	s := newTestStore(t)
	job := createJob(t, s, "2026-02-21")

	assert.NotEmpty(t, job.ID)
	assert.Equal(t, model.StatusPending, job.Status)
	assert.Empty(t, job.AssignedEmployeeIDs)
}

func TestCreateJobValidation(t *testing.T) {
	s := newTestStore(t)

	_, err := s.CreateJob(CreateJobInput{
		ScheduledDate:      "2026-02-21",
		ScheduledStartTime: "11:00",
		ScheduledEndTime:   "09:00",
	})
	require.Error(t, err)

	_, err = s.CreateJob(CreateJobInput{
		ScheduledDate:      "Feb 21",
		ScheduledStartTime: "09:00",
		ScheduledEndTime:   "11:00",
	})
	require.Error(t, err)

	// Zero-length window is invalid too.
	_, err = s.CreateJob(CreateJobInput{
		ScheduledDate:      "2026-02-21",
		ScheduledStartTime: "09:00",
		ScheduledEndTime:   "09:00",
	})
	require.Error(t, err)
}

func TestJobsWeekFilter(t *testing.T) {
	s := newTestStore(t)
	inside := createJob(t, s, "2026-02-21")
	outside := createJob(t, s, "2026-03-01")
	onBound := createJob(t, s, "2026-02-16")

	jobs, err := s.Jobs(&WeekFilter{WeekStart: "2026-02-16", WeekEnd: "2026-02-22"})
	require.NoError(t, err)

	ids := make([]string, 0, len(jobs))
	for _, j := range jobs {
		ids = append(ids, j.ID)
	}
	assert.Contains(t, ids, inside.ID)
	assert.Contains(t, ids, onBound.ID)
	assert.NotContains(t, ids, outside.ID)
}

func TestJobsInsertionOrder(t *testing.T) {
	s := newTestStore(t)
	first := createJob(t, s, "2026-02-16")
	second := createJob(t, s, "2026-02-17")
	third := createJob(t, s, "2026-02-18")

	jobs, err := s.Jobs(nil)
	require.NoError(t, err)
	require.Len(t, jobs, 3)
	assert.Equal(t, first.ID, jobs[0].ID)
	assert.Equal(t, second.ID, jobs[1].ID)
	assert.Equal(t, third.ID, jobs[2].ID)
}

func TestAssignJob(t *testing.T) {
	s := newTestStore(t)
	job := createJob(t, s, "2026-02-21")

	got, err := s.AssignJob(job.ID, "e1")
	require.NoError(t, err)
	assert.Equal(t, model.StatusAssigned, got.Status)
	assert.Contains(t, got.AssignedEmployeeIDs, "e1")

	// Re-assigning the same employee is a membership no-op.
	got, err = s.AssignJob(job.ID, "e1")
	require.NoError(t, err)
	assert.Equal(t, []string{"e1"}, got.AssignedEmployeeIDs)

	_, err = s.AssignJob("no-such-job", "e1")
	assert.True(t, errors.Is(err, ErrNotFound))
}

func TestUpdateJobStatus(t *testing.T) {
	s := newTestStore(t)
	job := createJob(t, s, "2026-02-21")

	_, err := s.UpdateJobStatus(job.ID, model.StatusCompleted)
	require.NoError(t, err)

	jobs, err := s.Jobs(nil)
	require.NoError(t, err)
	require.Len(t, jobs, 1)
	assert.Equal(t, model.StatusCompleted, jobs[0].Status)

	_, err = s.UpdateJobStatus(job.ID, "archived")
	assert.Error(t, err)

	_, err = s.UpdateJobStatus("no-such-job", model.StatusCancelled)
	assert.True(t, errors.Is(err, ErrNotFound))
}

func TestDeleteJob(t *testing.T) {
	s := newTestStore(t)
	job := createJob(t, s, "2026-02-21")

	require.NoError(t, s.DeleteJob(job.ID))
	jobs, err := s.Jobs(nil)
	require.NoError(t, err)
	assert.Empty(t, jobs)

	// Deleting again is a no-op.
	require.NoError(t, s.DeleteJob(job.ID))
}

func TestUpsertCustomerProfileNeverDuplicates(t *testing.T) {
	s := newTestStore(t)

	p1, err := s.UpsertCustomerProfile(model.CustomerProfile{Name: "Dana Reyes", Address: "12 Elm St"})
	require.NoError(t, err)
	require.NotEmpty(t, p1.ID)

	_, err = s.UpsertCustomerProfile(model.CustomerProfile{ID: p1.ID, Name: "Dana Reyes", Address: "99 Oak Ave"})
	require.NoError(t, err)

	customers := s.Customers()
	require.Len(t, customers, 1)
	assert.Equal(t, "99 Oak Ave", customers[0].Address)
}

func TestBackupRoundTrip(t *testing.T) {
	s := newTestStore(t)
	job := createJob(t, s, "2026-02-21")
	_, err := s.AssignJob(job.ID, "e1")
	require.NoError(t, err)
	_, err = s.UpsertEmployee(model.Employee{ID: "e1", Name: "Sam Okafor"})
	require.NoError(t, err)
	_, err = s.UpsertCustomerProfile(model.CustomerProfile{ID: "c1", Name: "Dana Reyes"})
	require.NoError(t, err)

	data, err := s.ExportBackup()
	require.NoError(t, err)

	require.NoError(t, s.Reset())
	jobs, err := s.Jobs(nil)
	require.NoError(t, err)
	require.Empty(t, jobs)

	require.NoError(t, s.ImportBackup(data))

	jobs, err = s.Jobs(nil)
	require.NoError(t, err)
	require.Len(t, jobs, 1)
	assert.Equal(t, job.ID, jobs[0].ID)
	assert.Equal(t, model.StatusAssigned, jobs[0].Status)
	assert.Equal(t, []string{"e1"}, jobs[0].AssignedEmployeeIDs)
	require.Len(t, s.Employees(), 1)
	require.Len(t, s.Customers(), 1)
}

func TestImportBackupReplacesState(t *testing.T) {
	s := newTestStore(t)
	createJob(t, s, "2026-02-21")
	snapshot, err := s.ExportBackup()
	require.NoError(t, err)

	// A job created after the export must not survive the import.
	late := createJob(t, s, "2026-03-01")
	require.NoError(t, s.ImportBackup(snapshot))

	jobs, err := s.Jobs(nil)
	require.NoError(t, err)
	require.Len(t, jobs, 1)
	assert.NotEqual(t, late.ID, jobs[0].ID)
}

func TestSnapshotPersistence(t *testing.T) {
	path := filepath.Join(t.TempDir(), "store.json")

	s, err := Open(WithSnapshotFile(path))
	require.NoError(t, err)
	job := createJob(t, s, "2026-02-21")

	reopened, err := Open(WithSnapshotFile(path))
	require.NoError(t, err)
	jobs, err := reopened.Jobs(nil)
	require.NoError(t, err)
	require.Len(t, jobs, 1)
	assert.Equal(t, job.ID, jobs[0].ID)
}
