package services

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/yungbote/storybook-backend/internal/bookgen"
	"github.com/yungbote/storybook-backend/internal/data/repos"
	"github.com/yungbote/storybook-backend/internal/domain"
	"github.com/yungbote/storybook-backend/internal/domain/book"
	"github.com/yungbote/storybook-backend/internal/domain/child"
	"github.com/yungbote/storybook-backend/internal/platform/logger"
)

const (
	MsgBookNotFound       = "Book not found."
	MsgGenerationNotFound = "Generation not found."
	MsgEmptyBookUpdates   = "bookData must be a non-empty array of page updates."
)

// BookCreator runs the generation pipeline for one profile.
type BookCreator interface {
	CreateBook(ctx context.Context, profileID uuid.UUID, pages int) (*book.Book, error)
}

type EPUBRenderer interface {
	Build(ctx context.Context, b *book.Book, childName string) ([]byte, error)
}

type BookService interface {
	CreateBook(ctx context.Context, userID, profileID uuid.UUID, pages int) (*book.Book, error)
	GetBook(ctx context.Context, userID, bookID uuid.UUID) (*book.Book, error)
	ListBooks(ctx context.Context, userID uuid.UUID) ([]*book.Book, error)
	EditBook(ctx context.Context, userID, bookID uuid.UUID, updates []book.PartUpdate) (*book.Book, error)
	ExportEPUB(ctx context.Context, userID, bookID uuid.UUID) ([]byte, string, error)
	GetProgress(ctx context.Context, userID uuid.UUID, requestID string) (*bookgen.Progress, error)
}

type bookService struct {
	log      *logger.Logger
	profiles ChildProfileService
	books    repos.BookRepo
	creator  BookCreator
	epub     EPUBRenderer
	progress bookgen.ProgressTracker
	maxPages int
}

func NewBookService(
	log *logger.Logger,
	profiles ChildProfileService,
	books repos.BookRepo,
	creator BookCreator,
	epub EPUBRenderer,
	progress bookgen.ProgressTracker,
	maxPages int,
) BookService {
	if maxPages <= 0 {
		maxPages = 20
	}
	return &bookService{
		log:      log.With("service", "BookService"),
		profiles: profiles,
		books:    books,
		creator:  creator,
		epub:     epub,
		progress: progress,
		maxPages: maxPages,
	}
}

// CreateBook generates and stores a book for one of the caller's profiles.
// The pipeline is detached from ctx cancellation: a client that hangs up
// does not abort a half-illustrated book.
func (bs *bookService) CreateBook(ctx context.Context, userID, profileID uuid.UUID, pages int) (*book.Book, error) {
	const op = "BookService.CreateBook"
	if pages < 1 || pages > bs.maxPages {
		return nil, domain.NewError(domain.CodeInvalidInput, op, fmt.Sprintf("pages must be between 1 and %d.", bs.maxPages), nil)
	}
	if _, err := bs.profiles.GetOwnedProfile(ctx, userID, profileID); err != nil {
		return nil, err
	}
	b, err := bs.creator.CreateBook(context.WithoutCancel(ctx), profileID, pages)
	if err != nil {
		bs.log.Error("book generation failed", "child_profile_id", profileID.String(), "pages", pages, "error", err)
		return nil, err
	}
	return b, nil
}

// ownedBook loads a book and the profile it belongs to, which must be owned
// by userID. Foreign books look exactly like missing ones.
func (bs *bookService) ownedBook(ctx context.Context, userID, bookID uuid.UUID) (*book.Book, *child.Profile, error) {
	const op = "BookService.ownedBook"
	b, err := bs.books.FindByID(ctx, nil, bookID)
	if err != nil {
		return nil, nil, err
	}
	p, err := bs.profiles.GetOwnedProfile(ctx, userID, b.ChildProfileID)
	if err != nil {
		if domain.IsCode(err, domain.CodeNotFound) {
			return nil, nil, domain.NewError(domain.CodeNotFound, op, MsgBookNotFound, nil)
		}
		return nil, nil, err
	}
	return b, p, nil
}

func (bs *bookService) GetBook(ctx context.Context, userID, bookID uuid.UUID) (*book.Book, error) {
	b, _, err := bs.ownedBook(ctx, userID, bookID)
	return b, err
}

func (bs *bookService) ListBooks(ctx context.Context, userID uuid.UUID) ([]*book.Book, error) {
	ids, err := bs.profiles.ListProfileIDs(ctx, userID)
	if err != nil {
		return nil, err
	}
	return bs.books.FindByProfileIDs(ctx, nil, ids)
}

// EditBook overwrites the text and/or image of addressed pages. Unknown
// part ids and empty values are ignored, so repeating an edit is a no-op.
func (bs *bookService) EditBook(ctx context.Context, userID, bookID uuid.UUID, updates []book.PartUpdate) (*book.Book, error) {
	if len(updates) == 0 {
		return nil, domain.NewError(domain.CodeInvalidInput, "BookService.EditBook", MsgEmptyBookUpdates, nil)
	}
	b, _, err := bs.ownedBook(ctx, userID, bookID)
	if err != nil {
		return nil, err
	}
	b.BookData = book.ApplyPartUpdates(b.BookData, updates)
	if err := bs.books.Save(ctx, nil, b); err != nil {
		return nil, err
	}
	return b, nil
}

// ExportEPUB renders an owned book and returns the file plus a download name.
func (bs *bookService) ExportEPUB(ctx context.Context, userID, bookID uuid.UUID) ([]byte, string, error) {
	b, p, err := bs.ownedBook(ctx, userID, bookID)
	if err != nil {
		return nil, "", err
	}
	data, err := bs.epub.Build(ctx, b, p.Name)
	if err != nil {
		return nil, "", domain.Wrap(domain.CodeStorage, "BookService.ExportEPUB", err)
	}
	return data, epubFilename(b), nil
}

func epubFilename(b *book.Book) string {
	var sb strings.Builder
	for _, r := range strings.ToLower(strings.TrimSpace(b.Title)) {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			sb.WriteRune(r)
		case r == ' ' || r == '-' || r == '_':
			if s := sb.String(); s != "" && !strings.HasSuffix(s, "-") {
				sb.WriteRune('-')
			}
		}
	}
	name := strings.Trim(sb.String(), "-")
	if name == "" {
		name = b.ID.String()
	}
	return name + ".epub"
}

func (bs *bookService) GetProgress(ctx context.Context, userID uuid.UUID, requestID string) (*bookgen.Progress, error) {
	const op = "BookService.GetProgress"
	if bs.progress == nil || strings.TrimSpace(requestID) == "" {
		return nil, domain.NewError(domain.CodeNotFound, op, MsgGenerationNotFound, nil)
	}
	p, err := bs.progress.Get(ctx, userID, requestID)
	if err != nil {
		return nil, err
	}
	if p.UserID != userID {
		return nil, domain.NewError(domain.CodeNotFound, op, MsgGenerationNotFound, nil)
	}
	return p, nil
}
