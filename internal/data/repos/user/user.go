package user

import (
	"context"
	"errors"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/yungbote/storybook-backend/internal/data/repos/repoerr"
	"github.com/yungbote/storybook-backend/internal/domain"
	types "github.com/yungbote/storybook-backend/internal/domain/user"
	"github.com/yungbote/storybook-backend/internal/platform/logger"
)

type UserRepo interface {
	Create(ctx context.Context, tx *gorm.DB, u *types.User) (*types.User, error)
	FindByID(ctx context.Context, tx *gorm.DB, id uuid.UUID) (*types.User, error)
	FindByEmail(ctx context.Context, tx *gorm.DB, email string) (*types.User, error)
	EmailExists(ctx context.Context, tx *gorm.DB, email string) (bool, error)
}

type userRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewUserRepo(db *gorm.DB, baseLog *logger.Logger) UserRepo {
	return &userRepo{db: db, log: baseLog.With("repo", "UserRepo")}
}

func (r *userRepo) conn(tx *gorm.DB) *gorm.DB {
	if tx != nil {
		return tx
	}
	return r.db
}

// Create inserts u. A taken email comes back as a conflict.
func (r *userRepo) Create(ctx context.Context, tx *gorm.DB, u *types.User) (*types.User, error) {
	if err := r.conn(tx).WithContext(ctx).Create(u).Error; err != nil {
		return nil, repoerr.Map("UserRepo.Create", err)
	}
	return u, nil
}

func (r *userRepo) FindByID(ctx context.Context, tx *gorm.DB, id uuid.UUID) (*types.User, error) {
	return r.findOne(ctx, tx, "UserRepo.FindByID", "id = ?", id)
}

// FindByEmail matches the stored (already lower-cased) address exactly.
func (r *userRepo) FindByEmail(ctx context.Context, tx *gorm.DB, email string) (*types.User, error) {
	return r.findOne(ctx, tx, "UserRepo.FindByEmail", "email = ?", strings.TrimSpace(email))
}

func (r *userRepo) findOne(ctx context.Context, tx *gorm.DB, op, query string, arg any) (*types.User, error) {
	var out types.User
	if err := r.conn(tx).WithContext(ctx).Where(query, arg).First(&out).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.NewError(domain.CodeNotFound, op, "User not found.", err)
		}
		return nil, repoerr.Map(op, err)
	}
	return &out, nil
}

func (r *userRepo) EmailExists(ctx context.Context, tx *gorm.DB, email string) (bool, error) {
	var count int64
	if err := r.conn(tx).WithContext(ctx).
		Model(&types.User{}).
		Where("email = ?", strings.TrimSpace(email)).
		Count(&count).Error; err != nil {
		return false, repoerr.Map("UserRepo.EmailExists", err)
	}
	return count > 0, nil
}
