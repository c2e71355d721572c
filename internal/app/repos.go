package app

import (
	"gorm.io/gorm"

	"github.com/yungbote/storybook-backend/internal/data/repos"
	"github.com/yungbote/storybook-backend/internal/platform/logger"
)

type Repos struct {
	User         repos.UserRepo
	ChildProfile repos.ChildProfileRepo
	Book         repos.BookRepo
}

func wireRepos(db *gorm.DB, log *logger.Logger) Repos {
	log.Info("Wiring repos...")
	return Repos{
		User:         repos.NewUserRepo(db, log),
		ChildProfile: repos.NewChildProfileRepo(db, log),
		Book:         repos.NewBookRepo(db, log),
	}
}
