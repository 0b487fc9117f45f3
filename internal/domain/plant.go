package domain

import (
	"context"
	"encoding/json"
	"time"
)

// ReminderType is the closed set of care tasks a reminder can describe.
type ReminderType string

const (
	ReminderWater     ReminderType = "water"
	ReminderFertilize ReminderType = "fertilize"
	ReminderPrune     ReminderType = "prune"
	ReminderRepot     ReminderType = "repot"
)

// Valid reports whether t is one of the known reminder types.
func (t ReminderType) Valid() bool {
	switch t {
	case ReminderWater, ReminderFertilize, ReminderPrune, ReminderRepot:
		return true
	}
	return false
}

// Reminder is a recurring care task attached to a Plant. NextDue is always
// derived from the last completion (or creation) time plus FrequencyDays;
// it is never set independently. History is append-only.
type Reminder struct {
	ID            string       `json:"id"`
	Type          ReminderType `json:"type"`
	FrequencyDays int          `json:"frequencyDays"`
	LastCompleted *time.Time   `json:"lastCompleted"`
	NextDue       time.Time    `json:"nextDue"`
	History       []time.Time  `json:"history"`
}

// Plant is a user-owned plant record. Info is a snapshot of catalog data
// captured when the plant was added and is never re-fetched. Reminders keep
// insertion order.
type Plant struct {
	ID        string          `json:"id"`
	Owner     string          `json:"-"`
	Name      string          `json:"name"`
	Info      json.RawMessage `json:"info,omitempty"`
	AddedAt   time.Time       `json:"addedAt"`
	Reminders []Reminder      `json:"reminders"`
}

// ReminderInput describes a reminder to create.
type ReminderInput struct {
	Type          ReminderType `json:"type"`
	FrequencyDays int          `json:"frequencyDays"`
}

// ReminderUpdate targets an existing reminder by id and replaces its type
// and frequency.
type ReminderUpdate struct {
	ID            string       `json:"id"`
	Type          ReminderType `json:"type"`
	FrequencyDays int          `json:"frequencyDays"`
}

// ReminderBatch is the add/remove/update payload accepted by the plant
// update endpoint. Remove holds reminder ids.
type ReminderBatch struct {
	Add    []ReminderInput  `json:"add"`
	Remove []string         `json:"remove"`
	Update []ReminderUpdate `json:"update"`
}

// Empty reports whether the batch carries no work.
func (b ReminderBatch) Empty() bool {
	return len(b.Add) == 0 && len(b.Remove) == 0 && len(b.Update) == 0
}

// PlantMutation is a structured partial update of a single plant. Each field
// is optional; the repository translates the set fields into writes. Update
// entries carry full reminder values so the same mutation shape serves both
// frequency changes and completions.
type PlantMutation struct {
	SetName           *string
	AddReminders      []Reminder
	RemoveReminderIDs []string
	UpdateReminders   []Reminder
}

// IsZero reports whether the mutation would write nothing.
func (m PlantMutation) IsZero() bool {
	return m.SetName == nil &&
		len(m.AddReminders) == 0 &&
		len(m.RemoveReminderIDs) == 0 &&
		len(m.UpdateReminders) == 0
}

// DueReminder is a reminder that has reached its due time, joined with
// enough plant context to build a notification.
type DueReminder struct {
	Owner      string
	PlantID    string
	PlantName  string
	ReminderID string
	Type       ReminderType
	NextDue    time.Time
}

// PlantRepository defines persistence for plants and their nested reminders.
// All lookups are scoped by (id, owner); a plant owned by someone else is
// indistinguishable from a missing one.
type PlantRepository interface {
	FindByOwner(ctx context.Context, owner string) ([]Plant, error)
	FindOne(ctx context.Context, id, owner string) (*Plant, error)
	Insert(ctx context.Context, plant *Plant) error
	UpdatePartial(ctx context.Context, id, owner string, m PlantMutation) (matched, modified int64, err error)
	Delete(ctx context.Context, id, owner string) (int64, error)
	FindDue(ctx context.Context, now time.Time) ([]DueReminder, error)
}

// Device is a registered push-notification target for a user.
type Device struct {
	Token     string    `json:"token"`
	Owner     string    `json:"-"`
	Platform  string    `json:"platform,omitempty"`
	CreatedAt time.Time `json:"createdAt"`
}

// DeviceRepository defines persistence for push tokens.
type DeviceRepository interface {
	Register(ctx context.Context, d *Device) error
	ListByOwner(ctx context.Context, owner string) ([]Device, error)
	Remove(ctx context.Context, owner, token string) (int64, error)
}
