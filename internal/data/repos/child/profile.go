package child

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/yungbote/storybook-backend/internal/data/repos/repoerr"
	"github.com/yungbote/storybook-backend/internal/domain"
	types "github.com/yungbote/storybook-backend/internal/domain/child"
	"github.com/yungbote/storybook-backend/internal/platform/logger"
)

type ChildProfileRepo interface {
	Create(ctx context.Context, tx *gorm.DB, profile *types.Profile) (*types.Profile, error)
	FindByID(ctx context.Context, tx *gorm.DB, id uuid.UUID) (*types.Profile, error)
	ListByUserID(ctx context.Context, tx *gorm.DB, userID uuid.UUID) ([]*types.Profile, error)
	ListIDsByUserID(ctx context.Context, tx *gorm.DB, userID uuid.UUID) ([]uuid.UUID, error)
	Update(ctx context.Context, tx *gorm.DB, profile *types.Profile) error
}

type childProfileRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewChildProfileRepo(db *gorm.DB, baseLog *logger.Logger) ChildProfileRepo {
	return &childProfileRepo{db: db, log: baseLog.With("repo", "ChildProfileRepo")}
}

func (r *childProfileRepo) conn(tx *gorm.DB) *gorm.DB {
	if tx != nil {
		return tx
	}
	return r.db
}

func (r *childProfileRepo) Create(ctx context.Context, tx *gorm.DB, profile *types.Profile) (*types.Profile, error) {
	if err := r.conn(tx).WithContext(ctx).Create(profile).Error; err != nil {
		return nil, repoerr.Map("ChildProfileRepo.Create", err)
	}
	return profile, nil
}

// FindByID returns a not_found domain error when no profile has id.
func (r *childProfileRepo) FindByID(ctx context.Context, tx *gorm.DB, id uuid.UUID) (*types.Profile, error) {
	var out types.Profile
	if err := r.conn(tx).WithContext(ctx).
		Where("id = ?", id).
		First(&out).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.NewError(domain.CodeNotFound, "ChildProfileRepo.FindByID", "Child profile not found.", err)
		}
		return nil, repoerr.Map("ChildProfileRepo.FindByID", err)
	}
	return &out, nil
}

func (r *childProfileRepo) ListByUserID(ctx context.Context, tx *gorm.DB, userID uuid.UUID) ([]*types.Profile, error) {
	var results []*types.Profile
	if err := r.conn(tx).WithContext(ctx).
		Where("user_id = ?", userID).
		Order("created_at ASC").
		Find(&results).Error; err != nil {
		return nil, repoerr.Map("ChildProfileRepo.ListByUserID", err)
	}
	return results, nil
}

func (r *childProfileRepo) ListIDsByUserID(ctx context.Context, tx *gorm.DB, userID uuid.UUID) ([]uuid.UUID, error) {
	var ids []uuid.UUID
	if err := r.conn(tx).WithContext(ctx).
		Model(&types.Profile{}).
		Where("user_id = ?", userID).
		Pluck("id", &ids).Error; err != nil {
		return nil, repoerr.Map("ChildProfileRepo.ListIDsByUserID", err)
	}
	return ids, nil
}

// Update writes every column of profile, which must already exist.
func (r *childProfileRepo) Update(ctx context.Context, tx *gorm.DB, profile *types.Profile) error {
	res := r.conn(tx).WithContext(ctx).
		Model(profile).
		Select("*").
		Omit("id", "user_id", "created_at").
		Updates(profile)
	if res.Error != nil {
		return repoerr.Map("ChildProfileRepo.Update", res.Error)
	}
	if res.RowsAffected == 0 {
		return domain.NewError(domain.CodeNotFound, "ChildProfileRepo.Update", "Child profile not found.", nil)
	}
	return nil
}
