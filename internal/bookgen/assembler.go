package bookgen

import (
	"context"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"gorm.io/gorm"

	"github.com/yungbote/storybook-backend/internal/domain"
	"github.com/yungbote/storybook-backend/internal/domain/book"
	"github.com/yungbote/storybook-backend/internal/domain/child"
	"github.com/yungbote/storybook-backend/internal/platform/ctxutil"
	"github.com/yungbote/storybook-backend/internal/platform/logger"
)

type ProfileStore interface {
	FindByID(ctx context.Context, tx *gorm.DB, id uuid.UUID) (*child.Profile, error)
}

type BookStore interface {
	Insert(ctx context.Context, tx *gorm.DB, b *book.Book) (*book.Book, error)
}

// Assembler runs one book generation end to end. The book is written once,
// after every page has its text and illustration.
type Assembler struct {
	log         *logger.Logger
	profiles    ProfileStore
	books       BookStore
	text        TextGenerator
	illustrator *Illustrator
	progress    ProgressTracker
	tracer      trace.Tracer
	obs         Observer
	now         func() time.Time
}

func NewAssembler(log *logger.Logger, profiles ProfileStore, books BookStore, text TextGenerator, illustrator *Illustrator, progress ProgressTracker) *Assembler {
	return &Assembler{
		log:         log.With("service", "BookAssembler"),
		profiles:    profiles,
		books:       books,
		text:        text,
		illustrator: illustrator,
		progress:    progress,
		tracer:      otel.Tracer("storybook/bookgen"),
		obs:         nopObserver{},
		now:         time.Now,
	}
}

// SetObserver reports generation outcomes to o.
func (a *Assembler) SetObserver(o Observer) { a.obs = orNop(o) }

func (a *Assembler) CreateBook(ctx context.Context, profileID uuid.UUID, pages int) (out *book.Book, err error) {
	ctx, span := a.tracer.Start(ctx, "bookgen.CreateBook", trace.WithAttributes(
		attribute.String("child_profile_id", profileID.String()),
		attribute.Int("pages", pages),
	))
	start := a.now()
	defer func() {
		status := "ok"
		if err != nil {
			status = "failed"
			span.RecordError(err)
			span.SetStatus(codes.Error, string(domain.CodeOf(err)))
		}
		a.obs.ObserveGeneration(status, a.now().Sub(start))
		span.End()
	}()

	rec := a.recorder(ctx)
	defer func() {
		if err != nil {
			rec.failed(err)
		}
	}()

	profile, err := a.profiles.FindByID(ctx, nil, profileID)
	if err != nil {
		return nil, err
	}
	subject := SubjectFromProfile(profile)

	rec.set(StatePlanning, 0, 0)
	raw, err := a.generateText(ctx, subject, pages)
	if err != nil {
		return nil, err
	}
	title, units, err := Plan(raw)
	if err != nil {
		return nil, err
	}
	span.SetAttributes(attribute.Int("page_units", len(units)))

	illustrated, err := a.illustrate(ctx, subject, units, rec)
	if err != nil {
		return nil, err
	}

	rec.set(StatePersisting, len(illustrated), len(illustrated))
	b := &book.Book{
		ChildProfileID: profileID,
		Title:          title,
		BookData:       illustrated,
	}
	if err := b.Validate(); err != nil {
		return nil, err
	}
	saved, err := a.books.Insert(ctx, nil, b)
	if err != nil {
		if !domain.IsCode(err, domain.CodeStorage) {
			err = domain.Wrap(domain.CodeStorage, "bookgen.CreateBook", err)
		}
		return nil, err
	}
	rec.done(saved.ID)
	a.log.Info("book created", "book_id", saved.ID.String(), "child_profile_id", profileID.String(), "page_units", len(illustrated))
	return saved, nil
}

func (a *Assembler) generateText(ctx context.Context, subject Subject, pages int) (string, error) {
	ctx, span := a.tracer.Start(ctx, "bookgen.GenerateText")
	defer span.End()
	raw, err := a.text.GenerateText(ctx, subject, pages)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "text generation failed")
	}
	return raw, err
}

func (a *Assembler) illustrate(ctx context.Context, subject Subject, units []book.PageUnit, rec *progressRecorder) ([]book.PageUnit, error) {
	ctx, span := a.tracer.Start(ctx, "bookgen.Illustrate", trace.WithAttributes(attribute.Int("page_units", len(units))))
	defer span.End()
	out, err := a.illustrator.Illustrate(ctx, subject, units, func(i int) {
		rec.set(StateIllustrating, i+1, len(units))
	})
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "illustration failed")
	}
	return out, err
}

// progressRecorder writes state transitions for one request. A failing
// tracker is logged and otherwise ignored.
type progressRecorder struct {
	a       *Assembler
	ctx     context.Context
	current Progress
	enabled bool
}

func (a *Assembler) recorder(ctx context.Context) *progressRecorder {
	id := ctxutil.RequestID(ctx)
	return &progressRecorder{
		a:       a,
		ctx:     ctx,
		enabled: a.progress != nil && id != "",
		current: Progress{RequestID: id, UserID: ctxutil.UserID(ctx)},
	}
}

func (r *progressRecorder) set(state State, page, pages int) {
	r.current.State = state
	r.current.Page = page
	if pages > 0 {
		r.current.Pages = pages
	}
	r.flush()
}

func (r *progressRecorder) done(bookID uuid.UUID) {
	r.current.State = StateDone
	r.current.BookID = bookID.String()
	r.flush()
}

func (r *progressRecorder) failed(err error) {
	r.current.State = StateFailed
	r.current.Error = string(domain.CodeOf(err))
	if r.current.Error == "" {
		r.current.Error = "generation_failed"
	}
	r.flush()
}

func (r *progressRecorder) flush() {
	if !r.enabled {
		return
	}
	r.current.UpdatedAt = r.a.now().UTC()
	if err := r.a.progress.Record(r.ctx, r.current); err != nil {
		r.a.log.Warn("record generation progress failed", "request_id", r.current.RequestID, "state", string(r.current.State), "error", err)
	}
}
