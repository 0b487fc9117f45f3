package reminder

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nurtureapp/nurture-api/internal/domain"
)

var t0 = time.Date(2025, 6, 1, 9, 0, 0, 0, time.UTC)

func TestNew(t *testing.T) {
	rem, err := New(t0, domain.ReminderWater, 3)
	require.NoError(t, err)

	assert.NotEmpty(t, rem.ID)
	assert.Equal(t, domain.ReminderWater, rem.Type)
	assert.Equal(t, 3, rem.FrequencyDays)
	assert.Nil(t, rem.LastCompleted)
	assert.Empty(t, rem.History)
	assert.Equal(t, t0.Add(3*24*time.Hour), rem.NextDue)
}

func TestNewRejectsBadInput(t *testing.T) {
	_, err := New(t0, domain.ReminderWater, 0)
	assert.True(t, domain.IsValidationError(err))

	_, err = New(t0, domain.ReminderWater, -2)
	assert.True(t, domain.IsValidationError(err))

	_, err = New(t0, domain.ReminderType("mist"), 3)
	assert.True(t, domain.IsValidationError(err))
}

func TestUpdateResetsCountdown(t *testing.T) {
	rem, err := New(t0, domain.ReminderWater, 3)
	require.NoError(t, err)
	list := []domain.Reminder{rem}

	completedAt := t0.Add(24 * time.Hour)
	done, err := Complete(list, rem.ID, completedAt)
	require.NoError(t, err)
	list = []domain.Reminder{done}

	now := t0.Add(48 * time.Hour)
	upd, err := Update(list, rem.ID, domain.ReminderFertilize, 5, now)
	require.NoError(t, err)

	// nextDue is relative to now, not to the last completion
	assert.Equal(t, now.Add(5*24*time.Hour), upd.NextDue)
	assert.Equal(t, domain.ReminderFertilize, upd.Type)
	assert.Equal(t, 5, upd.FrequencyDays)
	// history and lastCompleted untouched
	require.NotNil(t, upd.LastCompleted)
	assert.Equal(t, completedAt, *upd.LastCompleted)
	assert.Equal(t, []time.Time{completedAt}, upd.History)
}

func TestUpdateMissing(t *testing.T) {
	_, err := Update(nil, "nope", domain.ReminderWater, 3, t0)
	assert.True(t, domain.IsNotFoundError(err))
}

func TestCompleteAppendsHistory(t *testing.T) {
	rem, err := New(t0, domain.ReminderWater, 3)
	require.NoError(t, err)
	list := []domain.Reminder{rem}

	first := t0.Add(2 * 24 * time.Hour)
	got, err := Complete(list, rem.ID, first)
	require.NoError(t, err)

	require.NotNil(t, got.LastCompleted)
	assert.Equal(t, first, *got.LastCompleted)
	assert.Equal(t, []time.Time{first}, got.History)
	assert.Equal(t, first.Add(3*24*time.Hour), got.NextDue)

	second := first.Add(3 * 24 * time.Hour)
	got2, err := Complete([]domain.Reminder{got}, rem.ID, second)
	require.NoError(t, err)

	assert.Len(t, got2.History, 2)
	assert.Equal(t, second, got2.History[1])
	assert.Equal(t, second, *got2.LastCompleted)
}

func TestCompleteDoesNotMutateInput(t *testing.T) {
	rem, err := New(t0, domain.ReminderWater, 3)
	require.NoError(t, err)
	list := []domain.Reminder{rem}

	_, err = Complete(list, rem.ID, t0.Add(time.Hour))
	require.NoError(t, err)

	assert.Nil(t, list[0].LastCompleted)
	assert.Empty(t, list[0].History)
}

func TestRemove(t *testing.T) {
	a, _ := New(t0, domain.ReminderWater, 3)
	b, _ := New(t0, domain.ReminderPrune, 14)
	list := []domain.Reminder{a, b}

	out, found := Remove(list, a.ID)
	assert.True(t, found)
	require.Len(t, out, 1)
	assert.Equal(t, b.ID, out[0].ID)

	out, found = Remove(out, a.ID)
	assert.False(t, found)
	assert.Len(t, out, 1)
}

func TestMergeOrderAndScope(t *testing.T) {
	a, _ := New(t0, domain.ReminderWater, 3)
	b, _ := New(t0, domain.ReminderPrune, 14)
	list := []domain.Reminder{a, b}

	now := t0.Add(time.Hour)
	plan, err := Merge(list, domain.ReminderBatch{
		Remove: []string{a.ID, "ghost"},
		Add: []domain.ReminderInput{
			{Type: domain.ReminderRepot, FrequencyDays: 180},
		},
		Update: []domain.ReminderUpdate{
			{ID: b.ID, Type: domain.ReminderPrune, FrequencyDays: 7},
			{ID: a.ID, Type: domain.ReminderWater, FrequencyDays: 1}, // removed in same batch
			{ID: "unknown", Type: domain.ReminderWater, FrequencyDays: 1},
		},
	}, now)
	require.NoError(t, err)

	assert.Equal(t, []string{a.ID}, plan.RemoveIDs)

	require.Len(t, plan.Added, 1)
	assert.Equal(t, domain.ReminderRepot, plan.Added[0].Type)
	assert.Nil(t, plan.Added[0].LastCompleted)
	assert.NotEqual(t, a.ID, plan.Added[0].ID)
	assert.NotEqual(t, b.ID, plan.Added[0].ID)

	// only the pre-existing, not-removed id survives the update pass
	require.Len(t, plan.Updated, 1)
	assert.Equal(t, b.ID, plan.Updated[0].ID)
	assert.Equal(t, 7, plan.Updated[0].FrequencyDays)
	assert.Equal(t, now.Add(7*24*time.Hour), plan.Updated[0].NextDue)
}

func TestMergeCannotTargetJustAddedID(t *testing.T) {
	plan, err := Merge(nil, domain.ReminderBatch{
		Add:    []domain.ReminderInput{{Type: domain.ReminderWater, FrequencyDays: 2}},
		Update: []domain.ReminderUpdate{{ID: "anything", Type: domain.ReminderWater, FrequencyDays: 9}},
	}, t0)
	require.NoError(t, err)

	assert.Len(t, plan.Added, 1)
	assert.Empty(t, plan.Updated)
}

func TestMergeRejectsInvalidAdd(t *testing.T) {
	_, err := Merge(nil, domain.ReminderBatch{
		Add: []domain.ReminderInput{{Type: domain.ReminderWater, FrequencyDays: 0}},
	}, t0)
	assert.True(t, domain.IsValidationError(err))
}
