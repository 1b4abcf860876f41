package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/oklog/ulid/v2"

	"github.com/splitr/splitr/internal/metrics"
	"github.com/splitr/splitr/internal/model"
	"github.com/splitr/splitr/internal/repository"
)

// Group service errors.
var (
	ErrGroupNameRequired = errors.New("group name is required")
	ErrGroupCodeRequired = errors.New("group code is required")
	ErrCodeTooShort      = errors.New("group code must be at least 6 characters")
	ErrGroupNotFound     = errors.New("group not found")
	ErrProfileNotFound   = errors.New("user profile not found")
	ErrNotMember         = errors.New("not a member of this group")
	ErrInvalidPurchase   = errors.New("purchase must have a positive cost")
	ErrStoreUnavailable  = errors.New("group registry write failed")
)

// GroupStore persists group documents keyed by group code.
type GroupStore interface {
	CreateGroup(ctx context.Context, group *model.Group) error
	GetGroupByCode(ctx context.Context, code string) (*model.Group, error)
	AddMember(ctx context.Context, code, uid, name string) error
	AddPurchase(ctx context.Context, code string, purchase model.Purchase) error
}

// GroupService handles group registry business logic.
type GroupService struct {
	groups   GroupStore
	profiles ProfileStore
	logger   *slog.Logger
	metrics  metrics.Recorder
}

// NewGroupService creates a new GroupService.
func NewGroupService(groups GroupStore, profiles ProfileStore, logger *slog.Logger, recorder metrics.Recorder) *GroupService {
	if recorder == nil {
		recorder = metrics.NewNoop()
	}
	return &GroupService{
		groups:   groups,
		profiles: profiles,
		logger:   logger,
		metrics:  recorder,
	}
}

// CreateGroupInput defines input for creating a group.
type CreateGroupInput struct {
	Name       string
	Code       string
	CreatorUID string
}

// CreateGroup validates the input and writes the group document.
//
// A create with an already-used code overwrites the existing document; the
// store has no uniqueness check beyond the key itself. Known behavior
// inherited from the document store's set semantics.
func (s *GroupService) CreateGroup(ctx context.Context, input CreateGroupInput) (*model.Group, error) {
	if input.Name == "" {
		return nil, ErrGroupNameRequired
	}
	if input.Code == "" {
		return nil, ErrGroupCodeRequired
	}
	if len(input.Code) < model.MinGroupCodeLength {
		return nil, ErrCodeTooShort
	}

	now := time.Now().UTC()
	group := &model.Group{
		Code:        input.Code,
		Name:        input.Name,
		CreatedBy:   input.CreatorUID,
		MemberUIDs:  []string{input.CreatorUID},
		MemberNames: map[string]string{input.CreatorUID: s.displayName(ctx, input.CreatorUID)},
		Purchases:   []model.Purchase{},
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	if err := s.groups.CreateGroup(ctx, group); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}

	s.metrics.IncGroupCreated()
	s.logger.Info("group created",
		"group_code", group.Code,
		"created_by", group.CreatedBy,
	)

	return group, nil
}

// JoinGroup adds uid to an existing group and returns the updated document.
// Joining a group the user already belongs to is a no-op.
func (s *GroupService) JoinGroup(ctx context.Context, code, uid string) (*model.Group, error) {
	if code == "" {
		return nil, ErrGroupCodeRequired
	}

	err := s.groups.AddMember(ctx, code, uid, s.displayName(ctx, uid))
	if err != nil {
		if errors.Is(err, repository.ErrGroupNotFound) {
			return nil, ErrGroupNotFound
		}
		return nil, fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}

	group, err := s.groups.GetGroupByCode(ctx, code)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}

	s.metrics.IncGroupJoined()
	s.logger.Info("group joined", "group_code", code, "uid", uid)

	return group, nil
}

// GetGroup fetches a group document for a member.
// Non-members get ErrNotMember rather than the document.
func (s *GroupService) GetGroup(ctx context.Context, code, uid string) (*model.Group, error) {
	group, err := s.groups.GetGroupByCode(ctx, code)
	if err != nil {
		if errors.Is(err, repository.ErrGroupNotFound) {
			return nil, ErrGroupNotFound
		}
		return nil, fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}

	if !group.HasMember(uid) {
		return nil, ErrNotMember
	}

	return group, nil
}

// PurchaseInput defines input for recording a shared expense.
type PurchaseInput struct {
	Cost        float64
	Description string
	Percentages map[string]float64
}

// AddPurchase appends a purchase to a group the purchaser belongs to and
// returns the updated document.
func (s *GroupService) AddPurchase(ctx context.Context, code, uid string, input PurchaseInput) (*model.Group, error) {
	if input.Cost <= 0 {
		return nil, ErrInvalidPurchase
	}

	group, err := s.GetGroup(ctx, code, uid)
	if err != nil {
		return nil, err
	}

	purchase := model.Purchase{
		ID:          ulid.Make().String(),
		Purchaser:   uid,
		Cost:        input.Cost,
		Description: input.Description,
		Percentages: input.Percentages,
		CreatedAt:   time.Now().UTC(),
	}

	if err := s.groups.AddPurchase(ctx, code, purchase); err != nil {
		if errors.Is(err, repository.ErrGroupNotFound) {
			return nil, ErrGroupNotFound
		}
		return nil, fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}

	s.metrics.IncPurchaseAdded()

	group.Purchases = append(group.Purchases, purchase)
	group.UpdatedAt = purchase.CreatedAt
	return group, nil
}

// GetProfile fetches the profile document for uid.
func (s *GroupService) GetProfile(ctx context.Context, uid string) (*model.UserProfile, error) {
	profile, err := s.profiles.GetProfileByUID(ctx, uid)
	if err != nil {
		if errors.Is(err, repository.ErrProfileNotFound) {
			return nil, ErrProfileNotFound
		}
		return nil, fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}
	return profile, nil
}

// displayName resolves a member's display name from their profile.
// Accounts without a profile document still get full group functionality;
// their name renders as an empty string.
func (s *GroupService) displayName(ctx context.Context, uid string) string {
	profile, err := s.profiles.GetProfileByUID(ctx, uid)
	if err != nil {
		if !errors.Is(err, repository.ErrProfileNotFound) {
			s.logger.Warn("profile lookup failed", "uid", uid, "error", err.Error())
		}
		return ""
	}
	return profile.Name
}
