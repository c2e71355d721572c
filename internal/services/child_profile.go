package services

import (
	"context"

	"github.com/google/uuid"

	"github.com/yungbote/storybook-backend/internal/data/repos"
	"github.com/yungbote/storybook-backend/internal/domain"
	"github.com/yungbote/storybook-backend/internal/domain/child"
	"github.com/yungbote/storybook-backend/internal/platform/logger"
)

const MsgChildProfileNotFound = "Child profile not found."

type ChildProfileService interface {
	CreateProfile(ctx context.Context, userID uuid.UUID, details *child.Profile, description string) (*child.Profile, error)
	ListProfiles(ctx context.Context, userID uuid.UUID) ([]*child.Profile, error)
	ListProfileIDs(ctx context.Context, userID uuid.UUID) ([]uuid.UUID, error)
	UpdateProfile(ctx context.Context, userID, profileID uuid.UUID, patch child.Patch) (*child.Profile, error)
	// GetOwnedProfile returns the profile only when userID owns it.
	GetOwnedProfile(ctx context.Context, userID, profileID uuid.UUID) (*child.Profile, error)
}

type childProfileService struct {
	log      *logger.Logger
	profiles repos.ChildProfileRepo
}

func NewChildProfileService(log *logger.Logger, profiles repos.ChildProfileRepo) ChildProfileService {
	return &childProfileService{
		log:      log.With("service", "ChildProfileService"),
		profiles: profiles,
	}
}

func (s *childProfileService) CreateProfile(ctx context.Context, userID uuid.UUID, details *child.Profile, description string) (*child.Profile, error) {
	if details == nil {
		return nil, domain.NewError(domain.CodeValidation, "ChildProfileService.CreateProfile", child.MsgNameRequired, nil)
	}
	p := &child.Profile{UserID: userID}
	p.Apply(child.Patch{
		Name:               &details.Name,
		Age:                &details.Age,
		Gender:             &details.Gender,
		Appearance:         &details.Appearance,
		Hobbies:            details.Hobbies,
		Location:           &details.Location,
		Outfit:             &details.Outfit,
		FavoriteFood:       &details.FavoriteFood,
		FavoriteColor:      &details.FavoriteColor,
		FavoriteThingToDo:  &details.FavoriteThingToDo,
		MostLovedCharacter: &details.MostLovedCharacter,
		AdditionalInfo:     &description,
	})
	if err := p.Validate(); err != nil {
		return nil, err
	}
	created, err := s.profiles.Create(ctx, nil, p)
	if err != nil {
		return nil, err
	}
	s.log.Info("child profile created", "child_profile_id", created.ID.String(), "user_id", userID.String())
	return created, nil
}

func (s *childProfileService) ListProfiles(ctx context.Context, userID uuid.UUID) ([]*child.Profile, error) {
	out, err := s.profiles.ListByUserID(ctx, nil, userID)
	if err != nil {
		return nil, err
	}
	if out == nil {
		out = []*child.Profile{}
	}
	return out, nil
}

func (s *childProfileService) ListProfileIDs(ctx context.Context, userID uuid.UUID) ([]uuid.UUID, error) {
	return s.profiles.ListIDsByUserID(ctx, nil, userID)
}

func (s *childProfileService) GetOwnedProfile(ctx context.Context, userID, profileID uuid.UUID) (*child.Profile, error) {
	p, err := s.profiles.FindByID(ctx, nil, profileID)
	if err != nil {
		return nil, err
	}
	if p.UserID != userID {
		return nil, domain.NewError(domain.CodeNotFound, "ChildProfileService.GetOwnedProfile", MsgChildProfileNotFound, nil)
	}
	return p, nil
}

func (s *childProfileService) UpdateProfile(ctx context.Context, userID, profileID uuid.UUID, patch child.Patch) (*child.Profile, error) {
	p, err := s.GetOwnedProfile(ctx, userID, profileID)
	if err != nil {
		return nil, err
	}
	p.Apply(patch)
	if err := p.Validate(); err != nil {
		return nil, err
	}
	if err := s.profiles.Update(ctx, nil, p); err != nil {
		return nil, err
	}
	return p, nil
}
