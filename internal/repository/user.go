package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/splitr/splitr/internal/model"
)

// CreateProfile writes a user profile document keyed by uid.
// Re-creating an existing profile refreshes name and email but keeps the
// accumulated group codes.
func (r *Repository) CreateProfile(ctx context.Context, profile *model.UserProfile) error {
	if profile.CreatedAt.IsZero() {
		profile.CreatedAt = time.Now().UTC()
	}

	_, err := r.pool.Exec(ctx, `
		INSERT INTO user_profiles (uid, name, email, group_codes, created_at)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (uid) DO UPDATE SET
			name = EXCLUDED.name,
			email = EXCLUDED.email`,
		profile.UID, profile.Name, profile.Email, profile.GroupCodes, profile.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("upsert profile: %w", err)
	}
	return nil
}

// GetProfileByUID fetches a user profile document.
// Returns ErrProfileNotFound if no document exists for uid.
func (r *Repository) GetProfileByUID(ctx context.Context, uid string) (*model.UserProfile, error) {
	var profile model.UserProfile

	err := r.pool.QueryRow(ctx, `
		SELECT uid, name, email, group_codes, created_at
		FROM user_profiles
		WHERE uid = $1`,
		uid,
	).Scan(&profile.UID, &profile.Name, &profile.Email, &profile.GroupCodes, &profile.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrProfileNotFound
		}
		return nil, fmt.Errorf("query profile: %w", err)
	}

	return &profile, nil
}
