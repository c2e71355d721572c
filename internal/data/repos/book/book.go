package book

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/yungbote/storybook-backend/internal/data/repos/repoerr"
	"github.com/yungbote/storybook-backend/internal/domain"
	types "github.com/yungbote/storybook-backend/internal/domain/book"
	"github.com/yungbote/storybook-backend/internal/platform/logger"
)

type BookRepo interface {
	Insert(ctx context.Context, tx *gorm.DB, b *types.Book) (*types.Book, error)
	FindByID(ctx context.Context, tx *gorm.DB, id uuid.UUID) (*types.Book, error)
	FindByProfileIDs(ctx context.Context, tx *gorm.DB, profileIDs []uuid.UUID) ([]*types.Book, error)
	Save(ctx context.Context, tx *gorm.DB, b *types.Book) error
}

type bookRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewBookRepo(db *gorm.DB, baseLog *logger.Logger) BookRepo {
	return &bookRepo{db: db, log: baseLog.With("repo", "BookRepo")}
}

func (r *bookRepo) conn(tx *gorm.DB) *gorm.DB {
	if tx != nil {
		return tx
	}
	return r.db
}

// Insert writes the whole book in one statement. Any failure is reported
// as a storage error and nothing is written.
func (r *bookRepo) Insert(ctx context.Context, tx *gorm.DB, b *types.Book) (*types.Book, error) {
	if err := r.conn(tx).WithContext(ctx).Create(b).Error; err != nil {
		return nil, domain.Wrap(domain.CodeStorage, "BookRepo.Insert", err)
	}
	return b, nil
}

func (r *bookRepo) FindByID(ctx context.Context, tx *gorm.DB, id uuid.UUID) (*types.Book, error) {
	var out types.Book
	if err := r.conn(tx).WithContext(ctx).
		Where("id = ?", id).
		First(&out).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.NewError(domain.CodeNotFound, "BookRepo.FindByID", "Book not found.", err)
		}
		return nil, repoerr.Map("BookRepo.FindByID", err)
	}
	return &out, nil
}

func (r *bookRepo) FindByProfileIDs(ctx context.Context, tx *gorm.DB, profileIDs []uuid.UUID) ([]*types.Book, error) {
	results := []*types.Book{}
	if len(profileIDs) == 0 {
		return results, nil
	}
	if err := r.conn(tx).WithContext(ctx).
		Where("child_profile_id IN ?", profileIDs).
		Order("created_at DESC").
		Find(&results).Error; err != nil {
		return nil, repoerr.Map("BookRepo.FindByProfileIDs", err)
	}
	return results, nil
}

// Save rewrites the pages (and title) of an existing book.
func (r *bookRepo) Save(ctx context.Context, tx *gorm.DB, b *types.Book) error {
	res := r.conn(tx).WithContext(ctx).
		Model(b).
		Select("title", "book_data", "updated_at").
		Updates(b)
	if res.Error != nil {
		return domain.Wrap(domain.CodeStorage, "BookRepo.Save", res.Error)
	}
	if res.RowsAffected == 0 {
		return domain.NewError(domain.CodeNotFound, "BookRepo.Save", "Book not found.", nil)
	}
	return nil
}
