package handlers

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/tracklane/tracklane-be/internal/core/jobs"
)

type mockJobStore struct {
	jobs map[uuid.UUID]*jobs.Job
}

func newMockJobStore() *mockJobStore {
	return &mockJobStore{jobs: map[uuid.UUID]*jobs.Job{}}
}

func (m *mockJobStore) GetJob(ctx context.Context, jobID uuid.UUID) (*jobs.Job, error) {
	job, ok := m.jobs[jobID]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return job, nil
}

func (m *mockJobStore) ListJobs(ctx context.Context, filter jobs.JobFilter) ([]jobs.Job, error) {
	var list []jobs.Job
	for _, job := range m.jobs {
		if filter.ProjectID != nil && job.ProjectID != *filter.ProjectID {
			continue
		}
		if filter.Status != "" && job.Status != filter.Status {
			continue
		}
		list = append(list, *job)
	}
	return list, nil
}

func (m *mockJobStore) Cancel(ctx context.Context, jobID uuid.UUID) error {
	job, ok := m.jobs[jobID]
	if !ok {
		return fmt.Errorf("job not found or not in cancellable state")
	}
	if job.Status != jobs.StatusPending && job.Status != jobs.StatusRetrying {
		return fmt.Errorf("job not found or not in cancellable state")
	}
	job.Status = jobs.StatusCancelled
	return nil
}

func newJobTestApp(store JobStore) *fiber.App {
	app := fiber.New()
	NewJobHandler(store).RegisterRoutes(app)
	return app
}

func storedJob(projectID uuid.UUID, status jobs.JobStatus) *jobs.Job {
	return &jobs.Job{
		ID:        uuid.New(),
		ProjectID: projectID,
		Queue:     "default",
		Type:      "ai_research",
		Status:    status,
	}
}

func TestListJobs_ScopedToProject(t *testing.T) {
	store := newMockJobStore()
	projectID := uuid.New()
	mine := storedJob(projectID, jobs.StatusPending)
	store.jobs[mine.ID] = mine
	other := storedJob(uuid.New(), jobs.StatusPending)
	store.jobs[other.ID] = other

	app := newJobTestApp(store)
	req := httptest.NewRequest(http.MethodGet, fmt.Sprintf("/projects/%s/jobs/", projectID), nil)
	resp, err := app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	var body struct {
		Data []jobs.Job `json:"data"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	require.Len(t, body.Data, 1)
	assert.Equal(t, mine.ID, body.Data[0].ID)
}

func TestGetJob_OtherProjectLooksMissing(t *testing.T) {
	store := newMockJobStore()
	job := storedJob(uuid.New(), jobs.StatusCompleted)
	store.jobs[job.ID] = job

	app := newJobTestApp(store)

	// right project finds it
	req := httptest.NewRequest(http.MethodGet, fmt.Sprintf("/projects/%s/jobs/%s", job.ProjectID, job.ID), nil)
	resp, err := app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	// another project's scope hides it
	req = httptest.NewRequest(http.MethodGet, fmt.Sprintf("/projects/%s/jobs/%s", uuid.New(), job.ID), nil)
	resp, err = app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)

	// bad ids are rejected outright
	req = httptest.NewRequest(http.MethodGet, fmt.Sprintf("/projects/%s/jobs/not-a-uuid", job.ProjectID), nil)
	resp, err = app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestCancelJob(t *testing.T) {
	store := newMockJobStore()
	pending := storedJob(uuid.New(), jobs.StatusPending)
	store.jobs[pending.ID] = pending
	done := storedJob(pending.ProjectID, jobs.StatusCompleted)
	store.jobs[done.ID] = done

	app := newJobTestApp(store)

	req := httptest.NewRequest(http.MethodPost, fmt.Sprintf("/projects/%s/jobs/%s/cancel", pending.ProjectID, pending.ID), nil)
	resp, err := app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, jobs.StatusCancelled, store.jobs[pending.ID].Status)

	// a finished job cannot be cancelled
	req = httptest.NewRequest(http.MethodPost, fmt.Sprintf("/projects/%s/jobs/%s/cancel", done.ProjectID, done.ID), nil)
	resp, err = app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, http.StatusConflict, resp.StatusCode)
	assert.Equal(t, jobs.StatusCompleted, store.jobs[done.ID].Status)
}
