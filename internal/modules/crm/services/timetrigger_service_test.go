package services

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tracklane/tracklane-be/internal/core/automation"
)

func newTestPoller(repo *mockAutomationRepo, queries *mockTimeQueryRepo, runner *mockActionRunner) *TimeTriggerService {
	guard := automation.NewLoopGuard(60*time.Second, 3)
	engine := NewAutomationService(repo, newMockEntityRepo(), runner, guard)
	return NewTimeTriggerService(repo, queries, engine)
}

func TestProcessTimeTriggers_EmitsEventsForNewMatches(t *testing.T) {
	projectID := uuid.New()
	repo := newMockAutomationRepo()
	runner := newMockActionRunner()

	def := storedAutomation(t, projectID, automation.TriggerEntityInactive,
		map[string]interface{}{"entity_type": "organization", "days": 30}, nil,
		[]automation.Action{{Type: automation.ActionCreateTask, Config: map[string]interface{}{"title": "re-engage"}}})
	require.NoError(t, repo.Create(def))

	stale1, stale2 := uuid.New(), uuid.New()
	queries := &mockTimeQueryRepo{
		inactive: map[string][]map[string]interface{}{
			"organizations": {
				entityRow(stale1, map[string]interface{}{"name": "Dormant Co"}),
				entityRow(stale2, map[string]interface{}{"name": "Sleepy Inc"}),
			},
		},
	}
	poller := newTestPoller(repo, queries, runner)

	result, err := poller.ProcessTimeTriggers(context.Background(), 0)
	require.NoError(t, err)
	assert.Equal(t, 1, result.Processed)
	assert.Equal(t, 2, result.Matched)
	assert.Equal(t, 0, result.Errors)

	// both synthetic events rode the normal dispatch path to completion
	assert.Equal(t, 2, repo.executionCount())
	assert.Equal(t, 2, runner.executedCount())
}

func TestProcessTimeTriggers_DoesNotReemitStillMatching(t *testing.T) {
	projectID := uuid.New()
	repo := newMockAutomationRepo()
	runner := newMockActionRunner()

	def := storedAutomation(t, projectID, automation.TriggerTaskOverdue, nil, nil,
		[]automation.Action{{Type: automation.ActionSendNotification, Config: map[string]interface{}{"user_id": uuid.New().String()}}})
	require.NoError(t, repo.Create(def))

	overdueID := uuid.New()
	queries := &mockTimeQueryRepo{
		overdue: []map[string]interface{}{entityRow(overdueID, map[string]interface{}{"title": "follow up"})},
	}
	poller := newTestPoller(repo, queries, runner)

	first, err := poller.ProcessTimeTriggers(context.Background(), 0)
	require.NoError(t, err)
	assert.Equal(t, 1, first.Matched)

	// the task is still overdue on the next poll but must not fire again
	second, err := poller.ProcessTimeTriggers(context.Background(), 0)
	require.NoError(t, err)
	assert.Equal(t, 0, second.Matched)
	assert.Equal(t, 1, repo.executionCount())
	assert.Equal(t, 1, runner.executedCount())
}

func TestProcessTimeTriggers_SnapshotGrowsWithNewRows(t *testing.T) {
	projectID := uuid.New()
	repo := newMockAutomationRepo()
	runner := newMockActionRunner()

	def := storedAutomation(t, projectID, automation.TriggerCloseDateApproaching,
		map[string]interface{}{"days_before": 7}, nil,
		[]automation.Action{{Type: automation.ActionCreateTask, Config: map[string]interface{}{"title": "prep close"}}})
	require.NoError(t, repo.Create(def))

	firstOpp := uuid.New()
	queries := &mockTimeQueryRepo{
		closing: []map[string]interface{}{entityRow(firstOpp, nil)},
	}
	poller := newTestPoller(repo, queries, runner)

	_, err := poller.ProcessTimeTriggers(context.Background(), 0)
	require.NoError(t, err)

	// a new opportunity enters the window; the earlier one is still there
	secondOpp := uuid.New()
	queries.closing = append(queries.closing, entityRow(secondOpp, nil))

	result, err := poller.ProcessTimeTriggers(context.Background(), 0)
	require.NoError(t, err)
	assert.Equal(t, 1, result.Matched)
	assert.Equal(t, 2, runner.executedCount())

	// a matched entity that later leaves the result set stays in the snapshot
	queries.closing = nil
	_, err = poller.ProcessTimeTriggers(context.Background(), 0)
	require.NoError(t, err)

	queries.closing = []map[string]interface{}{entityRow(firstOpp, nil)}
	result, err = poller.ProcessTimeTriggers(context.Background(), 0)
	require.NoError(t, err)
	assert.Equal(t, 0, result.Matched)
	assert.Equal(t, 2, runner.executedCount())
}

func TestProcessTimeTriggers_MalformedConfigCountsAsError(t *testing.T) {
	projectID := uuid.New()
	repo := newMockAutomationRepo()
	runner := newMockActionRunner()

	def := storedAutomation(t, projectID, automation.TriggerEntityInactive,
		map[string]interface{}{"entity_type": "starship", "days": 30}, nil,
		[]automation.Action{{Type: automation.ActionCreateTask, Config: map[string]interface{}{"title": "t"}}})
	require.NoError(t, repo.Create(def))

	poller := newTestPoller(repo, &mockTimeQueryRepo{}, runner)

	result, err := poller.ProcessTimeTriggers(context.Background(), 0)
	require.NoError(t, err)
	assert.Equal(t, 1, result.Processed)
	assert.Equal(t, 1, result.Errors)
	assert.Equal(t, 0, result.Matched)
	require.Len(t, result.Details, 1)
	assert.Contains(t, result.Details[0], "invalid entity_type")
}

func TestProcessTimeTriggers_SkipsRowsWithoutUsableID(t *testing.T) {
	projectID := uuid.New()
	repo := newMockAutomationRepo()
	runner := newMockActionRunner()

	def := storedAutomation(t, projectID, automation.TriggerTaskOverdue, nil, nil,
		[]automation.Action{{Type: automation.ActionCreateTask, Config: map[string]interface{}{"title": "t"}}})
	require.NoError(t, repo.Create(def))

	queries := &mockTimeQueryRepo{
		overdue: []map[string]interface{}{
			{"title": "no id at all"},
			{"id": "not-a-uuid"},
			entityRow(uuid.New(), nil),
		},
	}
	poller := newTestPoller(repo, queries, runner)

	result, err := poller.ProcessTimeTriggers(context.Background(), 0)
	require.NoError(t, err)
	assert.Equal(t, 1, result.Matched)
	assert.Equal(t, 1, runner.executedCount())
}

func TestClampDays(t *testing.T) {
	assert.Equal(t, 30, clampDays(float64(30)))
	assert.Equal(t, 30, clampDays(30))
	assert.Equal(t, 30, clampDays("30"))
	assert.Equal(t, 1, clampDays(0))
	assert.Equal(t, 1, clampDays(-5))
	assert.Equal(t, 365, clampDays(float64(9000)))
	assert.Equal(t, 1, clampDays(nil))
	assert.Equal(t, 1, clampDays("garbage"))
}
