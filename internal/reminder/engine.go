// Package reminder implements the pure state-transition logic for a plant's
// reminder list: creation, updates, completions, and batched merges. Nothing
// here touches persistence or the wall clock; callers pass the current time
// and persist whatever comes back.
package reminder

import (
	"time"

	"github.com/google/uuid"

	"github.com/nurtureapp/nurture-api/internal/domain"
)

// New builds a fresh reminder due frequencyDays from now, with no completion
// history.
func New(now time.Time, typ domain.ReminderType, frequencyDays int) (domain.Reminder, error) {
	if frequencyDays <= 0 {
		return domain.Reminder{}, domain.NewValidationError("frequencyDays must be positive, got %d", frequencyDays)
	}
	if !typ.Valid() {
		return domain.Reminder{}, domain.NewValidationError("unknown reminder type %q", typ)
	}
	return domain.Reminder{
		ID:            uuid.New().String(),
		Type:          typ,
		FrequencyDays: frequencyDays,
		LastCompleted: nil,
		NextDue:       nextDue(now, frequencyDays),
		History:       []time.Time{},
	}, nil
}

// Update replaces the type and frequency of the reminder with the given id
// and resets its due countdown relative to now. History and the last
// completion are left untouched.
func Update(list []domain.Reminder, id string, typ domain.ReminderType, frequencyDays int, now time.Time) (domain.Reminder, error) {
	if frequencyDays <= 0 {
		return domain.Reminder{}, domain.NewValidationError("frequencyDays must be positive, got %d", frequencyDays)
	}
	if !typ.Valid() {
		return domain.Reminder{}, domain.NewValidationError("unknown reminder type %q", typ)
	}
	rem, ok := find(list, id)
	if !ok {
		return domain.Reminder{}, domain.NewNotFoundError("reminder")
	}
	rem.Type = typ
	rem.FrequencyDays = frequencyDays
	rem.NextDue = nextDue(now, frequencyDays)
	return rem, nil
}

// Complete records a completion at now: sets the last completion, appends it
// to the history, and pushes the due date out by the reminder's current
// frequency.
func Complete(list []domain.Reminder, id string, now time.Time) (domain.Reminder, error) {
	rem, ok := find(list, id)
	if !ok {
		return domain.Reminder{}, domain.NewNotFoundError("reminder")
	}
	completed := now
	rem.LastCompleted = &completed
	rem.History = append(append([]time.Time{}, rem.History...), completed)
	rem.NextDue = nextDue(now, rem.FrequencyDays)
	return rem, nil
}

// Remove filters the reminder with the given id out of the list. The second
// return value reports whether it was present, so the caller can tell
// "reminder not found" apart from "plant not found".
func Remove(list []domain.Reminder, id string) ([]domain.Reminder, bool) {
	out := make([]domain.Reminder, 0, len(list))
	found := false
	for _, rem := range list {
		if rem.ID == id {
			found = true
			continue
		}
		out = append(out, rem)
	}
	return out, found
}

// MergePlan is the outcome of merging a reminder batch against an existing
// list. The caller persists the three parts; removals and additions belong
// to one write, updates to a separate one.
type MergePlan struct {
	RemoveIDs []string
	Added     []domain.Reminder
	Updated   []domain.Reminder
}

// Empty reports whether the plan carries no work.
func (p MergePlan) Empty() bool {
	return len(p.RemoveIDs) == 0 && len(p.Added) == 0 && len(p.Updated) == 0
}

// Merge applies a batch to list in remove, add, update order. Additions get
// fresh ids and a nil last completion, matching the single-add path. Update
// entries are resolved against the list as it existed before the batch
// began: ids being removed in the same batch, ids minted by the batch's own
// additions, and ids the list never held are all skipped.
func Merge(list []domain.Reminder, batch domain.ReminderBatch, now time.Time) (MergePlan, error) {
	var plan MergePlan

	for _, id := range batch.Remove {
		if _, ok := find(list, id); ok {
			plan.RemoveIDs = append(plan.RemoveIDs, id)
		}
	}

	for _, in := range batch.Add {
		rem, err := New(now, in.Type, in.FrequencyDays)
		if err != nil {
			return MergePlan{}, err
		}
		plan.Added = append(plan.Added, rem)
	}

	removed := make(map[string]bool, len(plan.RemoveIDs))
	for _, id := range plan.RemoveIDs {
		removed[id] = true
	}
	for _, upd := range batch.Update {
		if removed[upd.ID] {
			continue
		}
		rem, err := Update(list, upd.ID, upd.Type, upd.FrequencyDays, now)
		if err != nil {
			if domain.IsNotFoundError(err) {
				continue
			}
			return MergePlan{}, err
		}
		plan.Updated = append(plan.Updated, rem)
	}

	return plan, nil
}

func find(list []domain.Reminder, id string) (domain.Reminder, bool) {
	for _, rem := range list {
		if rem.ID == id {
			return rem, true
		}
	}
	return domain.Reminder{}, false
}

func nextDue(now time.Time, frequencyDays int) time.Time {
	return now.Add(time.Duration(frequencyDays) * 24 * time.Hour)
}
