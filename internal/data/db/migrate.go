package db

import (
	"gorm.io/gorm"

	"github.com/yungbote/storybook-backend/internal/domain/book"
	"github.com/yungbote/storybook-backend/internal/domain/child"
	"github.com/yungbote/storybook-backend/internal/domain/user"
)

// Models lists every persisted type in dependency order.
func Models() []any {
	return []any{
		&user.User{},
		&child.Profile{},
		&book.Book{},
	}
}

func AutoMigrateAll(db *gorm.DB) error {
	return db.AutoMigrate(Models()...)
}
