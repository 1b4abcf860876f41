package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/splitr/splitr/internal/model"
)

// CreateGroup writes a group document keyed by its code and appends the code
// to the creator's profile in the same transaction.
//
// The write is an upsert: a second create with the same code replaces the
// existing document. This mirrors the document store's set semantics; callers
// that need collision detection must check for the code first.
func (r *Repository) CreateGroup(ctx context.Context, group *model.Group) error {
	tx, err := r.pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	memberNames, err := json.Marshal(group.MemberNames)
	if err != nil {
		return fmt.Errorf("marshal member names: %w", err)
	}
	purchases, err := json.Marshal(group.Purchases)
	if err != nil {
		return fmt.Errorf("marshal purchases: %w", err)
	}

	_, err = tx.Exec(ctx, `
		INSERT INTO groups (code, name, created_by, member_uids, member_names, purchases, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, now(), now())
		ON CONFLICT (code) DO UPDATE SET
			name = EXCLUDED.name,
			created_by = EXCLUDED.created_by,
			member_uids = EXCLUDED.member_uids,
			member_names = EXCLUDED.member_names,
			purchases = EXCLUDED.purchases,
			updated_at = now()`,
		group.Code, group.Name, group.CreatedBy, group.MemberUIDs, memberNames, purchases,
	)
	if err != nil {
		return fmt.Errorf("upsert group: %w", err)
	}

	if err := appendGroupCode(ctx, tx, group.CreatedBy, group.Code); err != nil {
		return err
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}
	return nil
}

// GetGroupByCode fetches a group document.
// Returns ErrGroupNotFound if no document exists for code.
func (r *Repository) GetGroupByCode(ctx context.Context, code string) (*model.Group, error) {
	var (
		group       model.Group
		memberNames []byte
		purchases   []byte
	)

	err := r.pool.QueryRow(ctx, `
		SELECT code, name, created_by, member_uids, member_names, purchases, created_at, updated_at
		FROM groups
		WHERE code = $1`,
		code,
	).Scan(
		&group.Code, &group.Name, &group.CreatedBy, &group.MemberUIDs,
		&memberNames, &purchases, &group.CreatedAt, &group.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrGroupNotFound
		}
		return nil, fmt.Errorf("query group: %w", err)
	}

	if err := json.Unmarshal(memberNames, &group.MemberNames); err != nil {
		return nil, fmt.Errorf("unmarshal member names: %w", err)
	}
	if err := json.Unmarshal(purchases, &group.Purchases); err != nil {
		return nil, fmt.Errorf("unmarshal purchases: %w", err)
	}

	return &group, nil
}

// AddMember adds uid to a group's membership and records its display name,
// and appends the group code to the member's profile. Idempotent: adding an
// existing member changes nothing.
func (r *Repository) AddMember(ctx context.Context, code, uid, name string) error {
	tx, err := r.pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	tag, err := tx.Exec(ctx, `
		UPDATE groups
		SET member_uids = CASE WHEN $2 = ANY(member_uids) THEN member_uids ELSE array_append(member_uids, $2) END,
		    member_names = CASE WHEN $2 = ANY(member_uids) THEN member_names ELSE member_names || jsonb_build_object($2::text, $3::text) END,
		    updated_at = CASE WHEN $2 = ANY(member_uids) THEN updated_at ELSE now() END
		WHERE code = $1`,
		code, uid, name,
	)
	if err != nil {
		return fmt.Errorf("update group membership: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrGroupNotFound
	}

	if err := appendGroupCode(ctx, tx, uid, code); err != nil {
		return err
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}
	return nil
}

// AddPurchase appends a purchase to a group document.
func (r *Repository) AddPurchase(ctx context.Context, code string, purchase model.Purchase) error {
	if purchase.CreatedAt.IsZero() {
		purchase.CreatedAt = time.Now().UTC()
	}
	payload, err := json.Marshal(purchase)
	if err != nil {
		return fmt.Errorf("marshal purchase: %w", err)
	}

	tag, err := r.pool.Exec(ctx, `
		UPDATE groups
		SET purchases = purchases || $2::jsonb,
		    updated_at = now()
		WHERE code = $1`,
		code, payload,
	)
	if err != nil {
		return fmt.Errorf("append purchase: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrGroupNotFound
	}
	return nil
}

// appendGroupCode adds code to a profile's group_codes unless already present.
// A missing profile is not an error: accounts can predate their profile
// document, and group membership must not depend on it.
func appendGroupCode(ctx context.Context, tx pgx.Tx, uid, code string) error {
	_, err := tx.Exec(ctx, `
		UPDATE user_profiles
		SET group_codes = array_append(group_codes, $2)
		WHERE uid = $1 AND NOT ($2 = ANY(group_codes))`,
		uid, code,
	)
	if err != nil {
		return fmt.Errorf("update profile group codes: %w", err)
	}
	return nil
}
