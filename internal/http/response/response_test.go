package response

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"

	"github.com/yungbote/storybook-backend/internal/domain"
	"github.com/yungbote/storybook-backend/internal/platform/apierr"
	"github.com/yungbote/storybook-backend/internal/platform/logger"
)

func TestToAPIError(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name       string
		err        error
		wantStatus int
		wantMsg    string
	}{
		{name: "validation", err: domain.NewError(domain.CodeValidation, "op", "Name is required.", nil), wantStatus: http.StatusBadRequest, wantMsg: "Name is required."},
		{name: "invalid input", err: domain.NewError(domain.CodeInvalidInput, "op", "", nil), wantStatus: http.StatusBadRequest, wantMsg: "Invalid request."},
		{name: "conflict", err: domain.NewError(domain.CodeConflict, "op", "User already exists.", nil), wantStatus: http.StatusBadRequest, wantMsg: MsgConflict},
		{name: "conflict hides database text", err: domain.Wrap(domain.CodeConflict, "ChildProfileRepo.Create", errors.New(`ERROR: duplicate key value violates unique constraint "idx_users_email" (SQLSTATE 23505)`)), wantStatus: http.StatusBadRequest, wantMsg: MsgConflict},
		{name: "re-wrapped conflict keeps its message", err: domain.NewError(domain.CodeValidation, "op", "User already exists.", domain.ErrConflict), wantStatus: http.StatusBadRequest, wantMsg: "User already exists."},
		{name: "not found", err: fmt.Errorf("load: %w", domain.NewError(domain.CodeNotFound, "op", "Book not found.", nil)), wantStatus: http.StatusNotFound, wantMsg: "Book not found."},
		{name: "auth", err: domain.NewError(domain.CodeAuth, "op", "token expired", nil), wantStatus: http.StatusUnauthorized, wantMsg: "Unauthorized access."},
		{name: "storage hides detail", err: domain.Wrap(domain.CodeStorage, "op", errors.New("pq: connection refused")), wantStatus: http.StatusInternalServerError, wantMsg: MsgInternal},
		{name: "plain error", err: errors.New("boom"), wantStatus: http.StatusInternalServerError, wantMsg: MsgInternal},
		{name: "api error passthrough", err: apierr.WithMessage(http.StatusTooManyRequests, "rate_limited", "Too many requests.", nil), wantStatus: http.StatusTooManyRequests, wantMsg: "Too many requests."},
		{name: "api error 5xx without message", err: apierr.New(http.StatusBadGateway, "upstream", errors.New("secret detail")), wantStatus: http.StatusBadGateway, wantMsg: MsgInternal},
	}
	for _, tc := range cases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			got := ToAPIError(tc.err)
			if got.Status != tc.wantStatus || got.Error() != tc.wantMsg {
				t.Fatalf("ToAPIError: want=(%d,%q) got=(%d,%q)", tc.wantStatus, tc.wantMsg, got.Status, got.Error())
			}
		})
	}
}

func TestFailWritesEnvelope(t *testing.T) {
	gin.SetMode(gin.TestMode)
	rec := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(rec)
	c.Request = httptest.NewRequest(http.MethodGet, "/books/x", nil)

	Fail(c, logger.Nop(), domain.NewError(domain.CodeNotFound, "op", "Book not found.", nil))

	if rec.Code != http.StatusNotFound {
		t.Fatalf("status: want=%d got=%d", http.StatusNotFound, rec.Code)
	}
	var env ErrorEnvelope
	if err := json.Unmarshal(rec.Body.Bytes(), &env); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if env.Error.Message != "Book not found." || env.Error.Code != "not_found" {
		t.Fatalf("envelope: unexpected %+v", env)
	}
	if !c.IsAborted() {
		t.Fatalf("expected the context to be aborted")
	}
}
