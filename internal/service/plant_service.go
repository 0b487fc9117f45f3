package service

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"github.com/nurtureapp/nurture-api/internal/catalog"
	"github.com/nurtureapp/nurture-api/internal/domain"
	"github.com/nurtureapp/nurture-api/internal/observability/metrics"
	"github.com/nurtureapp/nurture-api/internal/reminder"
)

// SpeciesCatalog is the slice of the Perenual adapter the plant service
// needs.
type SpeciesCatalog interface {
	Search(ctx context.Context, query string) ([]catalog.Summary, error)
	Details(ctx context.Context, id int) (*catalog.Detail, error)
}

// UpdatePlantInput is the partial update accepted for a plant. Nil fields
// are left alone.
type UpdatePlantInput struct {
	Name      *string
	Reminders *domain.ReminderBatch
}

// PlantService orchestrates plant CRUD and the reminder lifecycle on top of
// the repository and the pure reminder engine.
type PlantService struct {
	plants  domain.PlantRepository
	species SpeciesCatalog
	logger  *slog.Logger
	now     func() time.Time
}

// NewPlantService creates a plant service.
func NewPlantService(plants domain.PlantRepository, species SpeciesCatalog, logger *slog.Logger) *PlantService {
	if logger == nil {
		logger = slog.Default()
	}
	return &PlantService{
		plants:  plants,
		species: species,
		logger:  logger,
		now:     time.Now,
	}
}

// List returns every plant owned by the user.
func (s *PlantService) List(ctx context.Context, owner string) ([]domain.Plant, error) {
	return s.plants.FindByOwner(ctx, owner)
}

// Create adds a plant from a catalog id, snapshotting the species detail as
// the plant's immutable info.
func (s *PlantService) Create(ctx context.Context, owner string, catalogID int) (*domain.Plant, error) {
	detail, err := s.species.Details(ctx, catalogID)
	if err != nil {
		return nil, err
	}

	info, err := json.Marshal(detail)
	if err != nil {
		return nil, domain.NewPersistenceError("encode info snapshot", err)
	}

	plant := &domain.Plant{
		Owner:     owner,
		Name:      detail.CommonName,
		Info:      info,
		AddedAt:   s.now(),
		Reminders: []domain.Reminder{},
	}
	if err := s.plants.Insert(ctx, plant); err != nil {
		return nil, err
	}

	s.logger.Info("plant created",
		slog.String("plant_id", plant.ID),
		slog.Int("catalog_id", catalogID),
	)
	return plant, nil
}

// Get fetches one plant scoped to its owner.
func (s *PlantService) Get(ctx context.Context, owner, id string) (*domain.Plant, error) {
	return s.plants.FindOne(ctx, id, owner)
}

// Update applies a name change and/or a reminder batch. Persistence is
// two-phase: the name change, removals, and additions go in one store call,
// batch updates in a second. A phase-two failure leaves phase one committed;
// the error surfaces so the client can refetch.
func (s *PlantService) Update(ctx context.Context, owner, id string, in UpdatePlantInput) (*domain.Plant, error) {
	plant, err := s.plants.FindOne(ctx, id, owner)
	if err != nil {
		return nil, err
	}

	var plan reminder.MergePlan
	if in.Reminders != nil {
		plan, err = reminder.Merge(plant.Reminders, *in.Reminders, s.now())
		if err != nil {
			return nil, err
		}
	}

	phase1 := domain.PlantMutation{
		SetName:           in.Name,
		RemoveReminderIDs: plan.RemoveIDs,
		AddReminders:      plan.Added,
	}
	if !phase1.IsZero() {
		matched, _, err := s.plants.UpdatePartial(ctx, id, owner, phase1)
		if err != nil {
			return nil, err
		}
		if matched == 0 {
			return nil, domain.NewNotFoundError("plant")
		}
	}

	if len(plan.Updated) > 0 {
		phase2 := domain.PlantMutation{UpdateReminders: plan.Updated}
		matched, _, err := s.plants.UpdatePartial(ctx, id, owner, phase2)
		if err != nil {
			s.logger.Error("reminder batch partially applied",
				slog.String("plant_id", id),
				slog.String("error", err.Error()),
			)
			return nil, err
		}
		if matched == 0 {
			return nil, domain.NewNotFoundError("plant")
		}
	}

	return s.plants.FindOne(ctx, id, owner)
}

// Delete removes a plant and its reminders.
func (s *PlantService) Delete(ctx context.Context, owner, id string) error {
	deleted, err := s.plants.Delete(ctx, id, owner)
	if err != nil {
		return err
	}
	if deleted == 0 {
		return domain.NewNotFoundError("plant")
	}
	return nil
}

// AddReminder appends a new reminder to a plant.
func (s *PlantService) AddReminder(ctx context.Context, owner, plantID string, in domain.ReminderInput) (*domain.Reminder, error) {
	if _, err := s.plants.FindOne(ctx, plantID, owner); err != nil {
		return nil, err
	}

	rem, err := reminder.New(s.now(), in.Type, in.FrequencyDays)
	if err != nil {
		return nil, err
	}

	matched, _, err := s.plants.UpdatePartial(ctx, plantID, owner, domain.PlantMutation{
		AddReminders: []domain.Reminder{rem},
	})
	if err != nil {
		return nil, err
	}
	if matched == 0 {
		return nil, domain.NewNotFoundError("plant")
	}
	return &rem, nil
}

// UpdateReminder replaces a reminder's type and frequency and resets its due
// countdown.
func (s *PlantService) UpdateReminder(ctx context.Context, owner, plantID, reminderID string, in domain.ReminderInput) (*domain.Reminder, error) {
	plant, err := s.plants.FindOne(ctx, plantID, owner)
	if err != nil {
		return nil, err
	}

	rem, err := reminder.Update(plant.Reminders, reminderID, in.Type, in.FrequencyDays, s.now())
	if err != nil {
		return nil, err
	}

	matched, modified, err := s.plants.UpdatePartial(ctx, plantID, owner, domain.PlantMutation{
		UpdateReminders: []domain.Reminder{rem},
	})
	if err != nil {
		return nil, err
	}
	if matched == 0 || modified == 0 {
		return nil, domain.NewNotFoundError("reminder")
	}
	return &rem, nil
}

// DeleteReminder removes one reminder. The store's matched/modified counts
// tell a missing plant apart from a missing reminder.
func (s *PlantService) DeleteReminder(ctx context.Context, owner, plantID, reminderID string) error {
	matched, modified, err := s.plants.UpdatePartial(ctx, plantID, owner, domain.PlantMutation{
		RemoveReminderIDs: []string{reminderID},
	})
	if err != nil {
		return err
	}
	if matched == 0 {
		return domain.NewNotFoundError("plant")
	}
	if modified == 0 {
		return domain.NewNotFoundError("reminder")
	}
	return nil
}

// CompleteReminder records a completion now and pushes the due date out by
// the reminder's frequency.
func (s *PlantService) CompleteReminder(ctx context.Context, owner, plantID, reminderID string) (*domain.Reminder, error) {
	plant, err := s.plants.FindOne(ctx, plantID, owner)
	if err != nil {
		return nil, err
	}

	rem, err := reminder.Complete(plant.Reminders, reminderID, s.now())
	if err != nil {
		return nil, err
	}

	matched, modified, err := s.plants.UpdatePartial(ctx, plantID, owner, domain.PlantMutation{
		UpdateReminders: []domain.Reminder{rem},
	})
	if err != nil {
		return nil, err
	}
	if matched == 0 || modified == 0 {
		return nil, domain.NewNotFoundError("reminder")
	}

	metrics.ObserveReminderCompleted()
	return &rem, nil
}
