package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/yungbote/storybook-backend/internal/bookgen"
	"github.com/yungbote/storybook-backend/internal/data/repos/testutil"
	"github.com/yungbote/storybook-backend/internal/domain"
	"github.com/yungbote/storybook-backend/internal/domain/book"
	"github.com/yungbote/storybook-backend/internal/domain/child"
	"github.com/yungbote/storybook-backend/internal/domain/user"
	"github.com/yungbote/storybook-backend/internal/platform/logger"
)

type fakeCreator struct {
	calls  int
	ctxErr error
	pages  int
	book   *book.Book
	err    error
}

func (f *fakeCreator) CreateBook(ctx context.Context, profileID uuid.UUID, pages int) (*book.Book, error) {
	f.calls++
	f.ctxErr = ctx.Err()
	f.pages = pages
	if f.err != nil {
		return nil, f.err
	}
	if f.book != nil {
		return f.book, nil
	}
	return &book.Book{ID: uuid.New(), ChildProfileID: profileID, Title: "T"}, nil
}

type fakeEPUB struct {
	childName string
}

func (f *fakeEPUB) Build(ctx context.Context, b *book.Book, childName string) ([]byte, error) {
	f.childName = childName
	return []byte("epub:" + b.Title), nil
}

type bookFixture struct {
	svc      BookService
	repos    testRepos
	creator  *fakeCreator
	epub     *fakeEPUB
	progress *bookgen.MemoryProgress
	owner    *user.User
	stranger *user.User
}

func newBookFixture(t *testing.T) *bookFixture {
	t.Helper()
	r := newTestRepos(t)
	ctx := context.Background()
	f := &bookFixture{
		repos:    r,
		creator:  &fakeCreator{},
		epub:     &fakeEPUB{},
		progress: bookgen.NewMemoryProgress(time.Minute),
		owner:    testutil.SeedUser(t, ctx, r.tx, "owner@example.com"),
		stranger: testutil.SeedUser(t, ctx, r.tx, "stranger@example.com"),
	}
	profiles := NewChildProfileService(logger.Nop(), r.profiles)
	f.svc = NewBookService(logger.Nop(), profiles, r.books, f.creator, f.epub, f.progress, 10)
	return f
}

func TestCreateBookValidatesAndDetaches(t *testing.T) {
	f := newBookFixture(t)
	profile := testutil.SeedProfile(t, context.Background(), f.repos.tx, f.owner.ID, "Tom")

	for _, pages := range []int{0, -1, 11} {
		if _, err := f.svc.CreateBook(context.Background(), f.owner.ID, profile.ID, pages); !errors.Is(err, domain.ErrInvalidInput) {
			t.Fatalf("CreateBook(pages=%d): want invalid input got=%v", pages, err)
		}
	}
	if _, err := f.svc.CreateBook(context.Background(), f.stranger.ID, profile.ID, 3); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("CreateBook(stranger): want not found got=%v", err)
	}
	if _, err := f.svc.CreateBook(context.Background(), f.owner.ID, uuid.New(), 3); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("CreateBook(unknown profile): want not found got=%v", err)
	}
	if f.creator.calls != 0 {
		t.Fatalf("generation must not start for rejected requests, calls=%d", f.creator.calls)
	}

	b, err := f.svc.CreateBook(context.Background(), f.owner.ID, profile.ID, 10)
	if err != nil {
		t.Fatalf("CreateBook: %v", err)
	}
	if b == nil || f.creator.pages != 10 || f.creator.ctxErr != nil {
		t.Fatalf("CreateBook: unexpected book=%v pages=%d ctxErr=%v", b, f.creator.pages, f.creator.ctxErr)
	}

	f.creator.err = domain.NewError(domain.CodeGeneration, "test", "upstream down", nil)
	if _, err := f.svc.CreateBook(context.Background(), f.owner.ID, profile.ID, 3); !errors.Is(err, domain.ErrGeneration) {
		t.Fatalf("CreateBook: want generation error got=%v", err)
	}
}

// ownedProfiles accepts any profile without touching storage, so a
// cancelled request context can reach the creator.
type ownedProfiles struct {
	ChildProfileService
}

func (ownedProfiles) GetOwnedProfile(ctx context.Context, userID, profileID uuid.UUID) (*child.Profile, error) {
	return &child.Profile{ID: profileID, UserID: userID, Name: "Tom"}, nil
}

func TestCreateBookIgnoresCallerCancellation(t *testing.T) {
	creator := &fakeCreator{}
	svc := NewBookService(logger.Nop(), ownedProfiles{}, nil, creator, &fakeEPUB{}, nil, 0)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := svc.CreateBook(ctx, uuid.New(), uuid.New(), 20); err != nil {
		t.Fatalf("CreateBook: %v", err)
	}
	if creator.calls != 1 || creator.ctxErr != nil {
		t.Fatalf("pipeline context must outlive the request: calls=%d ctxErr=%v", creator.calls, creator.ctxErr)
	}
	if _, err := svc.CreateBook(context.Background(), uuid.New(), uuid.New(), 21); !errors.Is(err, domain.ErrInvalidInput) {
		t.Fatalf("default page limit: want invalid input got=%v", err)
	}
}

func TestGetAndListBooksAreOwnerScoped(t *testing.T) {
	f := newBookFixture(t)
	ctx := context.Background()
	mine := testutil.SeedProfile(t, ctx, f.repos.tx, f.owner.ID, "Tom")
	theirs := testutil.SeedProfile(t, ctx, f.repos.tx, f.stranger.ID, "Ana")
	myBook := testutil.SeedBook(t, ctx, f.repos.tx, mine.ID, "Tom's Day")
	testutil.SeedBook(t, ctx, f.repos.tx, theirs.ID, "Ana's Day")

	got, err := f.svc.GetBook(ctx, f.owner.ID, myBook.ID)
	if err != nil || got.ID != myBook.ID {
		t.Fatalf("GetBook: want %s got=%v err=%v", myBook.ID, got, err)
	}
	_, err = f.svc.GetBook(ctx, f.stranger.ID, myBook.ID)
	if !errors.Is(err, domain.ErrNotFound) || domain.MessageOf(err) != MsgBookNotFound {
		t.Fatalf("GetBook(stranger): want %q got=%v", MsgBookNotFound, err)
	}
	if _, err := f.svc.GetBook(ctx, f.owner.ID, uuid.New()); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("GetBook(unknown): want not found got=%v", err)
	}

	list, err := f.svc.ListBooks(ctx, f.owner.ID)
	if err != nil {
		t.Fatalf("ListBooks: %v", err)
	}
	if len(list) != 1 || list[0].ID != myBook.ID {
		t.Fatalf("ListBooks: unexpected %+v", list)
	}
	loner := testutil.SeedUser(t, ctx, f.repos.tx, "loner@example.com")
	empty, err := f.svc.ListBooks(ctx, loner.ID)
	if err != nil || len(empty) != 0 {
		t.Fatalf("ListBooks(no profiles): want empty got=%v err=%v", empty, err)
	}
}

func TestEditBookIsIdempotent(t *testing.T) {
	f := newBookFixture(t)
	ctx := context.Background()
	profile := testutil.SeedProfile(t, ctx, f.repos.tx, f.owner.ID, "Tom")
	seeded := testutil.SeedBook(t, ctx, f.repos.tx, profile.ID, "Tom's Day")

	updates := []book.PartUpdate{
		{PartID: 1, Text: "Tom's Big Day"},
		{PartID: 2, ImageURL: "https://cdn.example/new.png"},
		{PartID: 99, Text: "ignored"},
	}
	first, err := f.svc.EditBook(ctx, f.owner.ID, seeded.ID, updates)
	if err != nil {
		t.Fatalf("EditBook: %v", err)
	}
	second, err := f.svc.EditBook(ctx, f.owner.ID, seeded.ID, updates)
	if err != nil {
		t.Fatalf("EditBook(again): %v", err)
	}
	if len(first.BookData) != 2 || len(second.BookData) != 2 {
		t.Fatalf("EditBook: page count changed")
	}
	for i := range first.BookData {
		if first.BookData[i] != second.BookData[i] {
			t.Fatalf("EditBook: not idempotent at %d: %+v vs %+v", i, first.BookData[i], second.BookData[i])
		}
	}
	stored, err := f.svc.GetBook(ctx, f.owner.ID, seeded.ID)
	if err != nil {
		t.Fatalf("GetBook: %v", err)
	}
	if stored.BookData[0].Text != "Tom's Big Day" || stored.BookData[0].ImageURL != seeded.BookData[0].ImageURL {
		t.Fatalf("page 1: unexpected %+v", stored.BookData[0])
	}
	if stored.BookData[1].Text != "The End!" || stored.BookData[1].ImageURL != "https://cdn.example/new.png" {
		t.Fatalf("page 2: unexpected %+v", stored.BookData[1])
	}
	if stored.Title != "Tom's Day" {
		t.Fatalf("title must not change: got=%q", stored.Title)
	}

	if _, err := f.svc.EditBook(ctx, f.owner.ID, seeded.ID, nil); !errors.Is(err, domain.ErrInvalidInput) {
		t.Fatalf("EditBook(no updates): want invalid input got=%v", err)
	}
	if _, err := f.svc.EditBook(ctx, f.stranger.ID, seeded.ID, updates); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("EditBook(stranger): want not found got=%v", err)
	}
	if _, err := f.svc.EditBook(ctx, f.owner.ID, uuid.New(), updates); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("EditBook(unknown): want not found got=%v", err)
	}
}

func TestExportEPUB(t *testing.T) {
	f := newBookFixture(t)
	ctx := context.Background()
	profile := testutil.SeedProfile(t, ctx, f.repos.tx, f.owner.ID, "Tom")
	seeded := testutil.SeedBook(t, ctx, f.repos.tx, profile.ID, "Tom's Big Day!")

	data, name, err := f.svc.ExportEPUB(ctx, f.owner.ID, seeded.ID)
	if err != nil {
		t.Fatalf("ExportEPUB: %v", err)
	}
	if string(data) != "epub:Tom's Big Day!" || name != "toms-big-day.epub" || f.epub.childName != "Tom" {
		t.Fatalf("ExportEPUB: unexpected data=%q name=%q child=%q", data, name, f.epub.childName)
	}
	if _, _, err := f.svc.ExportEPUB(ctx, f.stranger.ID, seeded.ID); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("ExportEPUB(stranger): want not found got=%v", err)
	}
}

func TestGetProgressIsOwnerScoped(t *testing.T) {
	f := newBookFixture(t)
	ctx := context.Background()
	if err := f.progress.Record(ctx, bookgen.Progress{RequestID: "req-1", UserID: f.owner.ID, State: bookgen.StateIllustrating, Page: 2, Pages: 4}); err != nil {
		t.Fatalf("Record: %v", err)
	}

	p, err := f.svc.GetProgress(ctx, f.owner.ID, "req-1")
	if err != nil || p.State != bookgen.StateIllustrating {
		t.Fatalf("GetProgress: unexpected %+v err=%v", p, err)
	}
	if _, err := f.svc.GetProgress(ctx, f.stranger.ID, "req-1"); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("GetProgress(stranger): want not found got=%v", err)
	}
	if _, err := f.svc.GetProgress(ctx, f.owner.ID, "missing"); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("GetProgress(missing): want not found got=%v", err)
	}
}

func TestGetProgressSameRequestIDAcrossUsers(t *testing.T) {
	f := newBookFixture(t)
	ctx := context.Background()
	if err := f.progress.Record(ctx, bookgen.Progress{RequestID: "req-1", UserID: f.owner.ID, State: bookgen.StateIllustrating, Page: 3, Pages: 8}); err != nil {
		t.Fatalf("Record(owner): %v", err)
	}
	if err := f.progress.Record(ctx, bookgen.Progress{RequestID: "req-1", UserID: f.stranger.ID, State: bookgen.StatePlanning}); err != nil {
		t.Fatalf("Record(stranger): %v", err)
	}

	p, err := f.svc.GetProgress(ctx, f.owner.ID, "req-1")
	if err != nil {
		t.Fatalf("GetProgress(owner): %v", err)
	}
	if p.State != bookgen.StateIllustrating || p.Page != 3 {
		t.Fatalf("GetProgress(owner): unexpected %+v", p)
	}
	p, err = f.svc.GetProgress(ctx, f.stranger.ID, "req-1")
	if err != nil || p.State != bookgen.StatePlanning {
		t.Fatalf("GetProgress(stranger): unexpected %+v err=%v", p, err)
	}
}
