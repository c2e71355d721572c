package testutil

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/yungbote/storybook-backend/internal/domain/book"
	"github.com/yungbote/storybook-backend/internal/domain/child"
	"github.com/yungbote/storybook-backend/internal/domain/user"
)

func SeedUser(tb testing.TB, ctx context.Context, tx *gorm.DB, email string) *user.User {
	tb.Helper()
	u := &user.User{
		ID:       uuid.New(),
		Email:    email,
		Password: "pw",
	}
	if err := tx.WithContext(ctx).Create(u).Error; err != nil {
		tb.Fatalf("seed user: %v", err)
	}
	return u
}

func SeedProfile(tb testing.TB, ctx context.Context, tx *gorm.DB, userID uuid.UUID, name string) *child.Profile {
	tb.Helper()
	p := &child.Profile{
		ID:       uuid.New(),
		UserID:   userID,
		Name:     name,
		Age:      6,
		Gender:   "boy",
		Hobbies:  []string{"soccer"},
		Location: "Lisbon",
	}
	if err := tx.WithContext(ctx).Create(p).Error; err != nil {
		tb.Fatalf("seed child profile: %v", err)
	}
	return p
}

func SeedBook(tb testing.TB, ctx context.Context, tx *gorm.DB, profileID uuid.UUID, title string) *book.Book {
	tb.Helper()
	b := &book.Book{
		ID:             uuid.New(),
		ChildProfileID: profileID,
		Title:          title,
		BookData: []book.PageUnit{
			{PartID: 1, Text: title, ImageURL: "https://cdn.example/1.png"},
			{PartID: 2, Text: "The End!", ImageURL: ""},
		},
	}
	if err := tx.WithContext(ctx).Create(b).Error; err != nil {
		tb.Fatalf("seed book: %v", err)
	}
	return b
}
