package handlers

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/yungbote/storybook-backend/internal/domain"
	"github.com/yungbote/storybook-backend/internal/domain/child"
	"github.com/yungbote/storybook-backend/internal/http/response"
	"github.com/yungbote/storybook-backend/internal/platform/ctxutil"
	"github.com/yungbote/storybook-backend/internal/platform/logger"
	"github.com/yungbote/storybook-backend/internal/services"
)

type ChildProfileHandler struct {
	log      *logger.Logger
	profiles services.ChildProfileService
}

func NewChildProfileHandler(log *logger.Logger, profiles services.ChildProfileService) *ChildProfileHandler {
	return &ChildProfileHandler{log: log.With("handler", "ChildProfileHandler"), profiles: profiles}
}

// profileFields is the JSON shape shared by create and update. Absent
// fields stay nil so an update only touches what was sent.
type profileFields struct {
	Name               *string    `json:"name"`
	Age                flexInt    `json:"age"`
	Gender             *string    `json:"gender"`
	Appearance         *string    `json:"appearance"`
	Hobbies            stringList `json:"hobbies"`
	Location           *string    `json:"location"`
	Outfit             *string    `json:"outfit"`
	FavoriteFood       *string    `json:"favoriteFood"`
	FavoriteColor      *string    `json:"favoriteColor"`
	FavoriteThingToDo  *string    `json:"favoriteThingToDo"`
	MostLovedCharacter *string    `json:"mostLovedCharacter"`
	AdditionalInfo     *string    `json:"additionalInfo"`
}

func (f profileFields) patch(op string) (child.Patch, error) {
	p := child.Patch{
		Name:               f.Name,
		Gender:             f.Gender,
		Appearance:         f.Appearance,
		Location:           f.Location,
		Outfit:             f.Outfit,
		FavoriteFood:       f.FavoriteFood,
		FavoriteColor:      f.FavoriteColor,
		FavoriteThingToDo:  f.FavoriteThingToDo,
		MostLovedCharacter: f.MostLovedCharacter,
		AdditionalInfo:     f.AdditionalInfo,
	}
	if f.Age.set {
		if !f.Age.valid {
			return child.Patch{}, domain.NewError(domain.CodeValidation, op, child.MsgAgeRequired, nil)
		}
		age := f.Age.value
		p.Age = &age
	}
	if f.Hobbies.set {
		p.Hobbies = f.Hobbies.values
		if p.Hobbies == nil {
			p.Hobbies = []string{}
		}
	}
	return p, nil
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

// POST /child_profiles
func (h *ChildProfileHandler) CreateProfile(c *gin.Context) {
	const op = "ChildProfileHandler.CreateProfile"
	var req struct {
		Description       string         `json:"description"`
		StructuredDetails *profileFields `json:"structuredDetails"`
	}
	if err := c.ShouldBindJSON(&req); err != nil || req.StructuredDetails == nil {
		response.Fail(c, h.log, invalidInput(op, services.MsgMissingInput))
		return
	}
	f := req.StructuredDetails
	if f.Age.set && !f.Age.valid {
		response.Fail(c, h.log, domain.NewError(domain.CodeValidation, op, child.MsgAgeRequired, nil))
		return
	}
	details := &child.Profile{
		Name:               deref(f.Name),
		Age:                f.Age.value,
		Gender:             deref(f.Gender),
		Appearance:         deref(f.Appearance),
		Hobbies:            f.Hobbies.values,
		Location:           deref(f.Location),
		Outfit:             deref(f.Outfit),
		FavoriteFood:       deref(f.FavoriteFood),
		FavoriteColor:      deref(f.FavoriteColor),
		FavoriteThingToDo:  deref(f.FavoriteThingToDo),
		MostLovedCharacter: deref(f.MostLovedCharacter),
	}
	created, err := h.profiles.CreateProfile(c.Request.Context(), ctxutil.UserID(c.Request.Context()), details, req.Description)
	if err != nil {
		response.Fail(c, h.log, err)
		return
	}
	response.RespondCreated(c, gin.H{"message": MsgSuccess, "child": created})
}

// GET /child_profiles
func (h *ChildProfileHandler) ListProfiles(c *gin.Context) {
	children, err := h.profiles.ListProfiles(c.Request.Context(), ctxutil.UserID(c.Request.Context()))
	if err != nil {
		response.Fail(c, h.log, err)
		return
	}
	response.RespondOK(c, gin.H{"children": children})
}

// PUT /child_profiles/:id
func (h *ChildProfileHandler) UpdateProfile(c *gin.Context) {
	const op = "ChildProfileHandler.UpdateProfile"
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.Fail(c, h.log, domain.NewError(domain.CodeNotFound, op, services.MsgChildProfileNotFound, err))
		return
	}
	var f profileFields
	if err := c.ShouldBindJSON(&f); err != nil {
		response.Fail(c, h.log, invalidInput(op, services.MsgMissingInput))
		return
	}
	patch, err := f.patch(op)
	if err != nil {
		response.Fail(c, h.log, err)
		return
	}
	updated, err := h.profiles.UpdateProfile(c.Request.Context(), ctxutil.UserID(c.Request.Context()), id, patch)
	if err != nil {
		response.Fail(c, h.log, err)
		return
	}
	response.RespondOK(c, gin.H{"message": MsgSuccess, "child": updated})
}
