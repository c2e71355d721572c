package bookgen

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/yungbote/storybook-backend/internal/domain"
	"github.com/yungbote/storybook-backend/internal/domain/book"
	"github.com/yungbote/storybook-backend/internal/domain/child"
	"github.com/yungbote/storybook-backend/internal/platform/openai"
)

func safetyErr() error {
	return &IllustrationError{
		Kind: KindSafetyRejection,
		Op:   "test",
		Err: &openai.HTTPError{
			StatusCode: 400,
			Message:    "Your request was rejected as a result of our safety system.",
		},
	}
}

// scriptedImages answers GenerateIllustration from a per-call script and
// falls back to a numbered URL when the script runs out.
type scriptedImages struct {
	mu     sync.Mutex
	calls  []IllustrationRequest
	script []error
}

func (s *scriptedImages) GenerateIllustration(ctx context.Context, req IllustrationRequest) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := len(s.calls)
	s.calls = append(s.calls, req)
	if n < len(s.script) && s.script[n] != nil {
		return "", s.script[n]
	}
	if req.Fallback {
		return fmt.Sprintf("https://upstream.example/fallback-%d.png", n+1), nil
	}
	return fmt.Sprintf("https://upstream.example/img-%d.png", n+1), nil
}

type fakeRehoster struct {
	mu   sync.Mutex
	seen []string
	err  error
}

func (f *fakeRehoster) Rehost(ctx context.Context, transientURL string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.seen = append(f.seen, transientURL)
	if f.err != nil {
		return "", f.err
	}
	return "https://cdn.example/durable/" + fmt.Sprint(len(f.seen)), nil
}

type recordingSleeper struct {
	mu     sync.Mutex
	delays []time.Duration
}

func (r *recordingSleeper) Sleep(ctx context.Context, d time.Duration) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.delays = append(r.delays, d)
	return nil
}

type fakeText struct {
	raw   string
	err   error
	calls int
	pages int
}

func (f *fakeText) GenerateText(ctx context.Context, subject Subject, pages int) (string, error) {
	f.calls++
	f.pages = pages
	return f.raw, f.err
}

type fakeProfiles struct {
	profiles map[uuid.UUID]*child.Profile
}

func (f *fakeProfiles) FindByID(ctx context.Context, tx *gorm.DB, id uuid.UUID) (*child.Profile, error) {
	p, ok := f.profiles[id]
	if !ok {
		return nil, domain.NewError(domain.CodeNotFound, "fakeProfiles.FindByID", "Child profile not found.", nil)
	}
	return p, nil
}

type fakeBooks struct {
	inserted []*book.Book
	err      error
}

func (f *fakeBooks) Insert(ctx context.Context, tx *gorm.DB, b *book.Book) (*book.Book, error) {
	if f.err != nil {
		return nil, f.err
	}
	if b.ID == uuid.Nil {
		b.ID = uuid.New()
	}
	f.inserted = append(f.inserted, b)
	return b, nil
}

type failingProgress struct{}

func (failingProgress) Record(ctx context.Context, p Progress) error {
	return fmt.Errorf("progress store down")
}

func (failingProgress) Get(ctx context.Context, userID uuid.UUID, requestID string) (*Progress, error) {
	return nil, fmt.Errorf("progress store down")
}

// historyProgress keeps every recorded transition.
type historyProgress struct {
	mu      sync.Mutex
	history []Progress
}

func (h *historyProgress) Record(ctx context.Context, p Progress) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.history = append(h.history, p)
	return nil
}

func (h *historyProgress) Get(ctx context.Context, userID uuid.UUID, requestID string) (*Progress, error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	for i := len(h.history) - 1; i >= 0; i-- {
		if h.history[i].RequestID == requestID && h.history[i].UserID == userID {
			p := h.history[i]
			return &p, nil
		}
	}
	return nil, domain.ErrNotFound
}

func (h *historyProgress) states() []State {
	h.mu.Lock()
	defer h.mu.Unlock()
	out := make([]State, 0, len(h.history))
	for _, p := range h.history {
		out = append(out, p.State)
	}
	return out
}

type fakeOpenAI struct {
	text     string
	textErr  error
	image    openai.ImageGeneration
	imageErr error

	system  string
	user    string
	prompts []string
}

func (f *fakeOpenAI) GenerateText(ctx context.Context, system string, user string) (string, error) {
	f.system = system
	f.user = user
	return f.text, f.textErr
}

func (f *fakeOpenAI) GenerateImage(ctx context.Context, prompt string) (openai.ImageGeneration, error) {
	f.prompts = append(f.prompts, prompt)
	return f.image, f.imageErr
}

func pageUnits(texts ...string) []book.PageUnit {
	out := make([]book.PageUnit, 0, len(texts))
	for i, t := range texts {
		out = append(out, book.PageUnit{PartID: i + 1, Text: t})
	}
	return out
}

type countingObserver struct {
	mu            sync.Mutex
	illustrations map[string]int
	generations   map[string]int
}

func newCountingObserver() *countingObserver {
	return &countingObserver{illustrations: map[string]int{}, generations: map[string]int{}}
}

func (o *countingObserver) ObserveIllustration(outcome string) {
	o.mu.Lock()
	o.illustrations[outcome]++
	o.mu.Unlock()
}

func (o *countingObserver) ObserveGeneration(status string, dur time.Duration) {
	o.mu.Lock()
	o.generations[status]++
	o.mu.Unlock()
}
