package repository

import (
	"context"
	"database/sql"
	"time"

	"smart-planner/core/database"
	"smart-planner/core/errors"
	"smart-planner/core/logger"
	"smart-planner/modules/calendar/entity"

	"github.com/google/uuid"
)

const connectionColumns = `id, user_id, provider, provider_email, access_token, refresh_token, token_expires_at, is_active, created_at, updated_at`

type CalendarRepository interface {
	SaveConnection(ctx context.Context, conn *entity.CalendarConnection) error
	GetActiveConnection(ctx context.Context, userID uuid.UUID, provider string) (*entity.CalendarConnection, error)
	GetConnectionsByUserID(ctx context.Context, userID uuid.UUID) ([]entity.CalendarConnection, error)
	UpdateToken(ctx context.Context, id uuid.UUID, accessToken, refreshToken string, expiresAt *time.Time) error
	DeactivateConnection(ctx context.Context, userID uuid.UUID, provider string) (bool, error)
}

type calendarRepository struct {
	db database.Database
}

func NewCalendarRepository(db database.Database) CalendarRepository {
	return &calendarRepository{db: db}
}

// SaveConnection inserts the connection or, when the user already has one for
// the provider, reactivates it with the new tokens.
func (r *calendarRepository) SaveConnection(ctx context.Context, conn *entity.CalendarConnection) error {
	now := time.Now().UTC()
	conn.UpdatedAt = now
	conn.IsActive = true

	var existing entity.CalendarConnection
	err := r.db.GetContext(ctx, &existing,
		`SELECT `+connectionColumns+` FROM calendar_connections WHERE user_id = ? AND provider = ?`,
		conn.UserID, conn.Provider)
	switch {
	case err == nil:
		conn.ID, conn.CreatedAt = existing.ID, existing.CreatedAt
		query := `
			UPDATE calendar_connections
			SET provider_email = ?, access_token = ?, refresh_token = ?, token_expires_at = ?, is_active = ?, updated_at = ?
			WHERE id = ?
		`
		if err := r.db.ExecContext(ctx, query,
			conn.ProviderEmail, conn.AccessToken, conn.RefreshToken, conn.TokenExpiresAt, true, now, conn.ID); err != nil {
			logger.Error("CalendarRepository:SaveConnection:Update", err)
			return err
		}
		return nil
	case errors.Is(err, sql.ErrNoRows):
		conn.ID, conn.CreatedAt = uuid.New(), now
		query := `
			INSERT INTO calendar_connections (` + connectionColumns + `)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		`
		if err := r.db.ExecContext(ctx, query,
			conn.ID, conn.UserID, conn.Provider, conn.ProviderEmail, conn.AccessToken, conn.RefreshToken,
			conn.TokenExpiresAt, true, conn.CreatedAt, conn.UpdatedAt); err != nil {
			logger.Error("CalendarRepository:SaveConnection:Insert", err)
			return err
		}
		return nil
	default:
		logger.Error("CalendarRepository:SaveConnection:Get", err)
		return err
	}
}

// GetActiveConnection returns nil, nil when the user has no active connection
func (r *calendarRepository) GetActiveConnection(ctx context.Context, userID uuid.UUID, provider string) (*entity.CalendarConnection, error) {
	query := `
		SELECT ` + connectionColumns + `
		FROM calendar_connections
		WHERE user_id = ? AND provider = ? AND is_active = ?
	`
	var conn entity.CalendarConnection
	if err := r.db.GetContext(ctx, &conn, query, userID, provider, true); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		logger.Error("CalendarRepository:GetActiveConnection", err)
		return nil, err
	}
	return &conn, nil
}

func (r *calendarRepository) GetConnectionsByUserID(ctx context.Context, userID uuid.UUID) ([]entity.CalendarConnection, error) {
	query := `
		SELECT ` + connectionColumns + `
		FROM calendar_connections
		WHERE user_id = ? AND is_active = ?
		ORDER BY created_at DESC
	`
	connections := []entity.CalendarConnection{}
	if err := r.db.SelectContext(ctx, &connections, query, userID, true); err != nil {
		logger.Error("CalendarRepository:GetConnectionsByUserID", err)
		return nil, err
	}
	return connections, nil
}

func (r *calendarRepository) UpdateToken(ctx context.Context, id uuid.UUID, accessToken, refreshToken string, expiresAt *time.Time) error {
	query := `
		UPDATE calendar_connections
		SET access_token = ?, refresh_token = ?, token_expires_at = ?, updated_at = ?
		WHERE id = ?
	`
	return r.db.ExecContext(ctx, query, accessToken, refreshToken, expiresAt, time.Now().UTC(), id)
}

// DeactivateConnection soft deletes a calendar connection
func (r *calendarRepository) DeactivateConnection(ctx context.Context, userID uuid.UUID, provider string) (bool, error) {
	query := `
		UPDATE calendar_connections
		SET is_active = ?, updated_at = ?
		WHERE user_id = ? AND provider = ? AND is_active = ?
	`
	res, err := r.db.ExecResultContext(ctx, query, false, time.Now().UTC(), userID, provider, true)
	if err != nil {
		logger.Error("CalendarRepository:DeactivateConnection", err)
		return false, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}
