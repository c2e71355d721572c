package repos

import (
	"gorm.io/gorm"

	"github.com/yungbote/storybook-backend/internal/data/repos/book"
	"github.com/yungbote/storybook-backend/internal/data/repos/child"
	"github.com/yungbote/storybook-backend/internal/data/repos/user"
	"github.com/yungbote/storybook-backend/internal/platform/logger"
)

type UserRepo = user.UserRepo
type ChildProfileRepo = child.ChildProfileRepo
type BookRepo = book.BookRepo

func NewUserRepo(db *gorm.DB, log *logger.Logger) UserRepo {
	return user.NewUserRepo(db, log)
}

func NewChildProfileRepo(db *gorm.DB, log *logger.Logger) ChildProfileRepo {
	return child.NewChildProfileRepo(db, log)
}

func NewBookRepo(db *gorm.DB, log *logger.Logger) BookRepo {
	return book.NewBookRepo(db, log)
}
