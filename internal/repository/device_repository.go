package repository

import (
	"context"
	"database/sql"
	"log/slog"

	"github.com/nurtureapp/nurture-api/internal/domain"
)

// PostgresDeviceRepository implements domain.DeviceRepository using
// PostgreSQL. A device token belongs to exactly one user; re-registering a
// token moves it.
type PostgresDeviceRepository struct {
	db     *sql.DB
	logger *slog.Logger
}

// NewPostgresDeviceRepository creates a new device repository
func NewPostgresDeviceRepository(db *sql.DB, logger *slog.Logger) *PostgresDeviceRepository {
	if logger == nil {
		logger = slog.Default()
	}

	return &PostgresDeviceRepository{
		db:     db,
		logger: logger,
	}
}

// Register upserts a push token for a user.
func (r *PostgresDeviceRepository) Register(ctx context.Context, d *domain.Device) error {
	err := r.db.QueryRowContext(ctx, `
		INSERT INTO devices (token, owner, platform)
		VALUES ($1, $2, $3)
		ON CONFLICT (token) DO UPDATE SET owner = EXCLUDED.owner, platform = EXCLUDED.platform
		RETURNING created_at
	`, d.Token, d.Owner, d.Platform).Scan(&d.CreatedAt)
	if err != nil {
		r.logger.Error("failed to register device",
			slog.String("owner", d.Owner),
			slog.String("error", err.Error()),
		)
		return domain.NewPersistenceError("register device", err)
	}
	return nil
}

// ListByOwner returns all push targets for a user.
func (r *PostgresDeviceRepository) ListByOwner(ctx context.Context, owner string) ([]domain.Device, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT token, owner, platform, created_at
		FROM devices
		WHERE owner = $1
		ORDER BY created_at
	`, owner)
	if err != nil {
		return nil, domain.NewPersistenceError("list devices", err)
	}
	defer rows.Close()

	var devices []domain.Device
	for rows.Next() {
		var d domain.Device
		if err := rows.Scan(&d.Token, &d.Owner, &d.Platform, &d.CreatedAt); err != nil {
			return nil, domain.NewPersistenceError("scan device", err)
		}
		devices = append(devices, d)
	}
	return devices, rows.Err()
}

// Remove deletes a token owned by the user, returning the delete count.
func (r *PostgresDeviceRepository) Remove(ctx context.Context, owner, token string) (int64, error) {
	res, err := r.db.ExecContext(ctx,
		`DELETE FROM devices WHERE token = $1 AND owner = $2`,
		token, owner,
	)
	if err != nil {
		return 0, domain.NewPersistenceError("remove device", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, domain.NewPersistenceError("remove device", err)
	}
	return n, nil
}

var _ domain.DeviceRepository = (*PostgresDeviceRepository)(nil)
