package handlers

import (
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/yungbote/storybook-backend/internal/domain"
	"github.com/yungbote/storybook-backend/internal/domain/book"
	"github.com/yungbote/storybook-backend/internal/export"
	"github.com/yungbote/storybook-backend/internal/http/response"
	"github.com/yungbote/storybook-backend/internal/platform/apierr"
	"github.com/yungbote/storybook-backend/internal/platform/ctxutil"
	"github.com/yungbote/storybook-backend/internal/platform/logger"
	"github.com/yungbote/storybook-backend/internal/services"
)

const MsgBookGenerationFailed = "Book generation failed."

type BookHandler struct {
	log   *logger.Logger
	books services.BookService
}

func NewBookHandler(log *logger.Logger, books services.BookService) *BookHandler {
	return &BookHandler{log: log.With("handler", "BookHandler"), books: books}
}

func bookIDParam(c *gin.Context, op string) (uuid.UUID, error) {
	id, err := uuid.Parse(c.Param("bookId"))
	if err != nil {
		return uuid.Nil, domain.NewError(domain.CodeNotFound, op, services.MsgBookNotFound, err)
	}
	return id, nil
}

// POST /books
//
// Generation runs inside the request and can take minutes. Send an
// X-Request-Id header to poll GET /books/generations/:requestId meanwhile.
func (h *BookHandler) CreateBook(c *gin.Context) {
	const op = "BookHandler.CreateBook"
	var req struct {
		ChildProfileID string  `json:"childProfileId"`
		Pages          flexInt `json:"pages"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Fail(c, h.log, invalidInput(op, services.MsgMissingInput))
		return
	}
	profileID, err := uuid.Parse(req.ChildProfileID)
	if err != nil {
		response.Fail(c, h.log, domain.NewError(domain.CodeNotFound, op, services.MsgChildProfileNotFound, err))
		return
	}
	if !req.Pages.valid {
		response.Fail(c, h.log, invalidInput(op, "pages must be a positive integer."))
		return
	}

	ctx := c.Request.Context()
	created, err := h.books.CreateBook(ctx, ctxutil.UserID(ctx), profileID, req.Pages.value)
	if err != nil {
		switch domain.CodeOf(err) {
		case domain.CodeInvalidInput, domain.CodeValidation, domain.CodeNotFound:
			response.Fail(c, h.log, err)
		default:
			response.Fail(c, h.log, apierr.WithMessage(http.StatusInternalServerError, "book_generation_failed", MsgBookGenerationFailed, err))
		}
		return
	}
	response.RespondCreated(c, gin.H{"message": MsgSuccess, "book": created})
}

// GET /books
func (h *BookHandler) ListBooks(c *gin.Context) {
	ctx := c.Request.Context()
	list, err := h.books.ListBooks(ctx, ctxutil.UserID(ctx))
	if err != nil {
		response.Fail(c, h.log, err)
		return
	}
	response.RespondOK(c, gin.H{"books": list})
}

// GET /books/:bookId
func (h *BookHandler) GetBook(c *gin.Context) {
	id, err := bookIDParam(c, "BookHandler.GetBook")
	if err != nil {
		response.Fail(c, h.log, err)
		return
	}
	ctx := c.Request.Context()
	b, err := h.books.GetBook(ctx, ctxutil.UserID(ctx), id)
	if err != nil {
		response.Fail(c, h.log, err)
		return
	}
	response.RespondOK(c, gin.H{"book": b})
}

// PUT /books/:bookId
func (h *BookHandler) EditBook(c *gin.Context) {
	const op = "BookHandler.EditBook"
	id, err := bookIDParam(c, op)
	if err != nil {
		response.Fail(c, h.log, err)
		return
	}
	var req struct {
		BookData json.RawMessage `json:"bookData"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Fail(c, h.log, invalidInput(op, services.MsgEmptyBookUpdates))
		return
	}
	var updates []book.PartUpdate
	if err := json.Unmarshal(req.BookData, &updates); err != nil || len(updates) == 0 {
		response.Fail(c, h.log, invalidInput(op, services.MsgEmptyBookUpdates))
		return
	}
	ctx := c.Request.Context()
	b, err := h.books.EditBook(ctx, ctxutil.UserID(ctx), id, updates)
	if err != nil {
		response.Fail(c, h.log, err)
		return
	}
	response.RespondOK(c, gin.H{"book": b})
}

// GET /books/:bookId/epub
func (h *BookHandler) ExportEPUB(c *gin.Context) {
	id, err := bookIDParam(c, "BookHandler.ExportEPUB")
	if err != nil {
		response.Fail(c, h.log, err)
		return
	}
	ctx := c.Request.Context()
	data, filename, err := h.books.ExportEPUB(ctx, ctxutil.UserID(ctx), id)
	if err != nil {
		response.Fail(c, h.log, err)
		return
	}
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	c.Data(http.StatusOK, export.ContentTypeEPUB, data)
}

// GET /books/generations/:requestId
func (h *BookHandler) GetProgress(c *gin.Context) {
	ctx := c.Request.Context()
	p, err := h.books.GetProgress(ctx, ctxutil.UserID(ctx), c.Param("requestId"))
	if err != nil {
		response.Fail(c, h.log, err)
		return
	}
	response.RespondOK(c, gin.H{"progress": p})
}
