package bookgen

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/patrickmn/go-cache"

	"github.com/yungbote/storybook-backend/internal/domain"
)

type State string

const (
	StatePlanning     State = "planning"
	StateIllustrating State = "illustrating"
	StatePersisting   State = "persisting"
	StateDone         State = "done"
	StateFailed       State = "failed"
)

// Progress is the last recorded state of one generation, keyed by the
// requesting user and the request id that started it.
type Progress struct {
	RequestID string    `json:"requestId"`
	UserID    uuid.UUID `json:"userId"`
	State     State     `json:"state"`
	Page      int       `json:"page"`
	Pages     int       `json:"pages"`
	Error     string    `json:"error,omitempty"`
	BookID    string    `json:"bookId,omitempty"`
	UpdatedAt time.Time `json:"updatedAt"`
}

type ProgressTracker interface {
	Record(ctx context.Context, p Progress) error
	Get(ctx context.Context, userID uuid.UUID, requestID string) (*Progress, error)
}

// ProgressKey scopes a request id to its user. Request ids come from
// clients, so two users may pick the same one.
func ProgressKey(userID uuid.UUID, requestID string) string {
	return userID.String() + ":" + strings.TrimSpace(requestID)
}

const DefaultProgressTTL = time.Hour

// MemoryProgress keeps progress in process. Entries expire after ttl.
type MemoryProgress struct {
	cache *cache.Cache
	ttl   time.Duration
}

func NewMemoryProgress(ttl time.Duration) *MemoryProgress {
	if ttl <= 0 {
		ttl = DefaultProgressTTL
	}
	return &MemoryProgress{cache: cache.New(ttl, 2*ttl), ttl: ttl}
}

func (m *MemoryProgress) Record(ctx context.Context, p Progress) error {
	id := strings.TrimSpace(p.RequestID)
	if id == "" {
		return domain.NewError(domain.CodeInvalidInput, "bookgen.MemoryProgress.Record", "request id is required", nil)
	}
	if p.UpdatedAt.IsZero() {
		p.UpdatedAt = time.Now().UTC()
	}
	m.cache.Set(ProgressKey(p.UserID, id), p, m.ttl)
	return nil
}

func (m *MemoryProgress) Get(ctx context.Context, userID uuid.UUID, requestID string) (*Progress, error) {
	v, ok := m.cache.Get(ProgressKey(userID, requestID))
	if !ok {
		return nil, domain.NewError(domain.CodeNotFound, "bookgen.MemoryProgress.Get", "Generation not found.", nil)
	}
	p := v.(Progress)
	return &p, nil
}
