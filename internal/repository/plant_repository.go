package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"

	"github.com/nurtureapp/nurture-api/internal/domain"
)

// PostgresPlantRepository implements domain.PlantRepository using PostgreSQL.
// Plants and their reminders live in two tables; reminder insertion order is
// preserved by a serial column. Each exported method issues its own writes,
// so a multi-statement mutation is atomic per statement, not per call.
type PostgresPlantRepository struct {
	db     *sql.DB
	logger *slog.Logger
}

// NewPostgresPlantRepository creates a new plant repository
func NewPostgresPlantRepository(db *sql.DB, logger *slog.Logger) *PostgresPlantRepository {
	if logger == nil {
		logger = slog.Default()
	}

	return &PostgresPlantRepository{
		db:     db,
		logger: logger,
	}
}

// FindByOwner lists all plants for a user, reminders included.
func (r *PostgresPlantRepository) FindByOwner(ctx context.Context, owner string) ([]domain.Plant, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, owner, name, info, added_at
		FROM plants
		WHERE owner = $1
		ORDER BY added_at
	`, owner)
	if err != nil {
		return nil, domain.NewPersistenceError("list plants", err)
	}
	defer rows.Close()

	var plants []domain.Plant
	ids := make([]string, 0)
	for rows.Next() {
		p, err := scanPlant(rows)
		if err != nil {
			return nil, domain.NewPersistenceError("scan plant", err)
		}
		plants = append(plants, *p)
		ids = append(ids, p.ID)
	}
	if err := rows.Err(); err != nil {
		return nil, domain.NewPersistenceError("list plants", err)
	}
	if len(plants) == 0 {
		return []domain.Plant{}, nil
	}

	byPlant, err := r.loadReminders(ctx, ids)
	if err != nil {
		return nil, err
	}
	for i := range plants {
		plants[i].Reminders = byPlant[plants[i].ID]
		if plants[i].Reminders == nil {
			plants[i].Reminders = []domain.Reminder{}
		}
	}
	return plants, nil
}

// FindOne fetches a single plant scoped by (id, owner). A plant owned by a
// different user looks exactly like a missing one.
func (r *PostgresPlantRepository) FindOne(ctx context.Context, id, owner string) (*domain.Plant, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT id, owner, name, info, added_at
		FROM plants
		WHERE id = $1 AND owner = $2
	`, id, owner)

	p, err := scanPlant(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.NewNotFoundError("plant")
		}
		return nil, domain.NewPersistenceError("get plant", err)
	}

	byPlant, err := r.loadReminders(ctx, []string{p.ID})
	if err != nil {
		return nil, err
	}
	p.Reminders = byPlant[p.ID]
	if p.Reminders == nil {
		p.Reminders = []domain.Reminder{}
	}
	return p, nil
}

// Insert stores a new plant, assigning an id when absent.
func (r *PostgresPlantRepository) Insert(ctx context.Context, plant *domain.Plant) error {
	if plant.ID == "" {
		plant.ID = uuid.New().String()
	}

	var info any
	if len(plant.Info) > 0 {
		info = []byte(plant.Info)
	}
	err := r.db.QueryRowContext(ctx, `
		INSERT INTO plants (id, owner, name, info, added_at)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING added_at
	`, plant.ID, plant.Owner, plant.Name, info, plant.AddedAt).Scan(&plant.AddedAt)
	if err != nil {
		r.logger.Error("failed to insert plant",
			slog.String("owner", plant.Owner),
			slog.String("error", err.Error()),
		)
		return domain.NewPersistenceError("insert plant", err)
	}

	for _, rem := range plant.Reminders {
		if err := r.insertReminder(ctx, plant.ID, rem); err != nil {
			return err
		}
	}
	return nil
}

// UpdatePartial applies a structured mutation to one plant. matched is 0
// when the plant does not exist for (id, owner); modified counts reminder
// rows actually written.
func (r *PostgresPlantRepository) UpdatePartial(ctx context.Context, id, owner string, m domain.PlantMutation) (matched, modified int64, err error) {
	var exists bool
	err = r.db.QueryRowContext(ctx,
		`SELECT EXISTS(SELECT 1 FROM plants WHERE id = $1 AND owner = $2)`,
		id, owner,
	).Scan(&exists)
	if err != nil {
		return 0, 0, domain.NewPersistenceError("check plant", err)
	}
	if !exists {
		return 0, 0, nil
	}
	matched = 1

	if m.SetName != nil {
		if _, err := r.db.ExecContext(ctx,
			`UPDATE plants SET name = $1 WHERE id = $2`,
			*m.SetName, id,
		); err != nil {
			return matched, modified, domain.NewPersistenceError("set plant name", err)
		}
	}

	if len(m.RemoveReminderIDs) > 0 {
		res, err := r.db.ExecContext(ctx,
			`DELETE FROM reminders WHERE plant_id = $1 AND id = ANY($2)`,
			id, pq.Array(m.RemoveReminderIDs),
		)
		if err != nil {
			return matched, modified, domain.NewPersistenceError("remove reminders", err)
		}
		n, _ := res.RowsAffected()
		modified += n
	}

	for _, rem := range m.AddReminders {
		if err := r.insertReminder(ctx, id, rem); err != nil {
			return matched, modified, err
		}
		modified++
	}

	for _, rem := range m.UpdateReminders {
		history, err := json.Marshal(rem.History)
		if err != nil {
			return matched, modified, domain.NewPersistenceError("encode history", err)
		}
		res, err := r.db.ExecContext(ctx, `
			UPDATE reminders
			SET type = $1, frequency_days = $2, last_completed = $3, next_due = $4, history = $5
			WHERE id = $6 AND plant_id = $7
		`, string(rem.Type), rem.FrequencyDays, rem.LastCompleted, rem.NextDue, history, rem.ID, id)
		if err != nil {
			return matched, modified, domain.NewPersistenceError("update reminder", err)
		}
		n, _ := res.RowsAffected()
		modified += n
	}

	return matched, modified, nil
}

// Delete removes a plant and, via cascade, its reminders.
func (r *PostgresPlantRepository) Delete(ctx context.Context, id, owner string) (int64, error) {
	res, err := r.db.ExecContext(ctx,
		`DELETE FROM plants WHERE id = $1 AND owner = $2`,
		id, owner,
	)
	if err != nil {
		return 0, domain.NewPersistenceError("delete plant", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, domain.NewPersistenceError("delete plant", err)
	}
	return n, nil
}

// FindDue returns every reminder whose due time has passed, joined with its
// plant for notification context.
func (r *PostgresPlantRepository) FindDue(ctx context.Context, now time.Time) ([]domain.DueReminder, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT p.owner, p.id, p.name, rem.id, rem.type, rem.next_due
		FROM reminders rem
		JOIN plants p ON p.id = rem.plant_id
		WHERE rem.next_due <= $1
		ORDER BY rem.next_due
	`, now)
	if err != nil {
		return nil, domain.NewPersistenceError("find due reminders", err)
	}
	defer rows.Close()

	var due []domain.DueReminder
	for rows.Next() {
		var d domain.DueReminder
		var typ string
		if err := rows.Scan(&d.Owner, &d.PlantID, &d.PlantName, &d.ReminderID, &typ, &d.NextDue); err != nil {
			return nil, domain.NewPersistenceError("scan due reminder", err)
		}
		d.Type = domain.ReminderType(typ)
		due = append(due, d)
	}
	return due, rows.Err()
}

func (r *PostgresPlantRepository) insertReminder(ctx context.Context, plantID string, rem domain.Reminder) error {
	history, err := json.Marshal(rem.History)
	if err != nil {
		return domain.NewPersistenceError("encode history", err)
	}
	_, err = r.db.ExecContext(ctx, `
		INSERT INTO reminders (id, plant_id, type, frequency_days, last_completed, next_due, history)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`, rem.ID, plantID, string(rem.Type), rem.FrequencyDays, rem.LastCompleted, rem.NextDue, history)
	if err != nil {
		return domain.NewPersistenceError("insert reminder", err)
	}
	return nil
}

// loadReminders fetches reminders for a set of plants in insertion order.
func (r *PostgresPlantRepository) loadReminders(ctx context.Context, plantIDs []string) (map[string][]domain.Reminder, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT plant_id, id, type, frequency_days, last_completed, next_due, history
		FROM reminders
		WHERE plant_id = ANY($1)
		ORDER BY plant_id, seq
	`, pq.Array(plantIDs))
	if err != nil {
		return nil, domain.NewPersistenceError("list reminders", err)
	}
	defer rows.Close()

	out := make(map[string][]domain.Reminder, len(plantIDs))
	for rows.Next() {
		var (
			plantID string
			rem     domain.Reminder
			typ     string
			last    sql.NullTime
			history []byte
		)
		if err := rows.Scan(&plantID, &rem.ID, &typ, &rem.FrequencyDays, &last, &rem.NextDue, &history); err != nil {
			return nil, domain.NewPersistenceError("scan reminder", err)
		}
		rem.Type = domain.ReminderType(typ)
		if last.Valid {
			t := last.Time
			rem.LastCompleted = &t
		}
		if err := json.Unmarshal(history, &rem.History); err != nil {
			return nil, domain.NewPersistenceError("decode history", err)
		}
		if rem.History == nil {
			rem.History = []time.Time{}
		}
		out[plantID] = append(out[plantID], rem)
	}
	return out, rows.Err()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanPlant(row rowScanner) (*domain.Plant, error) {
	var (
		p    domain.Plant
		info []byte
	)
	if err := row.Scan(&p.ID, &p.Owner, &p.Name, &info, &p.AddedAt); err != nil {
		return nil, err
	}
	if len(info) > 0 {
		p.Info = json.RawMessage(info)
	}
	return &p, nil
}

var _ domain.PlantRepository = (*PostgresPlantRepository)(nil)
