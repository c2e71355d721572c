package book

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/yungbote/storybook-backend/internal/domain"
)

// PageUnit is one page: its text and, for every page but the last, a
// durable illustration URL.
type PageUnit struct {
	PartID   int    `json:"part_id"`
	Text     string `json:"text"`
	ImageURL string `json:"image_url"`
}

// Book is persisted once, whole, after every page has been illustrated.
type Book struct {
	ID             uuid.UUID                     `gorm:"type:uuid;primaryKey" json:"_id"`
	ChildProfileID uuid.UUID                     `gorm:"type:uuid;not null;index;column:child_profile_id" json:"childProfileId"`
	Title          string                        `gorm:"not null;column:title" json:"title"`
	BookData       datatypes.JSONSlice[PageUnit] `gorm:"not null;column:book_data" json:"bookData"`
	CreatedAt      time.Time                     `gorm:"not null;autoCreateTime" json:"createdAt"`
	UpdatedAt      time.Time                     `gorm:"not null;autoUpdateTime" json:"updatedAt"`
}

func (Book) TableName() string { return "book" }

func (b *Book) BeforeCreate(tx *gorm.DB) error {
	if b.ID == uuid.Nil {
		b.ID = uuid.New()
	}
	return nil
}

// Validate enforces the shape of a finished book: a title, dense 1-based
// part ids, non-empty text, and an image on every page but the last.
func (b *Book) Validate() error {
	const op = "book.Book.Validate"
	if b.ChildProfileID == uuid.Nil {
		return domain.NewError(domain.CodeValidation, op, "child profile id is required", nil)
	}
	if strings.TrimSpace(b.Title) == "" {
		return domain.NewError(domain.CodeValidation, op, "title is required", nil)
	}
	if len(b.BookData) == 0 {
		return domain.NewError(domain.CodeValidation, op, "book has no pages", nil)
	}
	last := len(b.BookData) - 1
	for i, u := range b.BookData {
		if u.PartID != i+1 {
			return domain.NewError(domain.CodeValidation, op, fmt.Sprintf("page %d has part_id %d", i+1, u.PartID), nil)
		}
		if strings.TrimSpace(u.Text) == "" {
			return domain.NewError(domain.CodeValidation, op, fmt.Sprintf("page %d has no text", u.PartID), nil)
		}
		if i == last && u.ImageURL != "" {
			return domain.NewError(domain.CodeValidation, op, "final page must not carry an image", nil)
		}
		if i != last && u.ImageURL == "" {
			return domain.NewError(domain.CodeValidation, op, fmt.Sprintf("page %d has no image", u.PartID), nil)
		}
	}
	return nil
}
