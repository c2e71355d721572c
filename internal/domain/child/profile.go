package child

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/yungbote/storybook-backend/internal/domain"
)

// Profile is the child a book is written about. Fields besides name, age and
// gender are free text that feeds the prompts.
type Profile struct {
	ID                 uuid.UUID                    `gorm:"type:uuid;primaryKey" json:"_id"`
	UserID             uuid.UUID                    `gorm:"type:uuid;not null;index;column:user_id" json:"userId"`
	Name               string                       `gorm:"not null;column:name" json:"name"`
	Age                int                          `gorm:"not null;column:age" json:"age"`
	Gender             string                       `gorm:"not null;column:gender" json:"gender"`
	Appearance         string                       `gorm:"column:appearance" json:"appearance"`
	Hobbies            datatypes.JSONSlice[string]  `gorm:"column:hobbies" json:"hobbies"`
	Location           string                       `gorm:"column:location" json:"location"`
	Outfit             string                       `gorm:"column:outfit" json:"outfit"`
	FavoriteFood       string                       `gorm:"column:favorite_food" json:"favoriteFood"`
	FavoriteColor      string                       `gorm:"column:favorite_color" json:"favoriteColor"`
	FavoriteThingToDo  string                       `gorm:"column:favorite_thing_to_do" json:"favoriteThingToDo"`
	MostLovedCharacter string                       `gorm:"column:most_loved_character" json:"mostLovedCharacter"`
	AdditionalInfo     string                       `gorm:"column:additional_info" json:"additionalInfo"`
	CreatedAt          time.Time                    `gorm:"not null;autoCreateTime" json:"createdAt"`
	UpdatedAt          time.Time                    `gorm:"not null;autoUpdateTime" json:"updatedAt"`
}

func (Profile) TableName() string { return "child_profile" }

func (p *Profile) BeforeCreate(tx *gorm.DB) error {
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	if p.Hobbies == nil {
		p.Hobbies = datatypes.JSONSlice[string]{}
	}
	return nil
}

const (
	MsgNameRequired   = "Name is required."
	MsgAgeRequired    = "Valid age is required."
	MsgGenderRequired = "Gender is required."
)

// Validate checks the fields every profile must carry.
func (p *Profile) Validate() error {
	const op = "child.Profile.Validate"
	if strings.TrimSpace(p.Name) == "" {
		return domain.NewError(domain.CodeValidation, op, MsgNameRequired, nil)
	}
	if p.Age <= 0 {
		return domain.NewError(domain.CodeValidation, op, MsgAgeRequired, nil)
	}
	if strings.TrimSpace(p.Gender) == "" {
		return domain.NewError(domain.CodeValidation, op, MsgGenderRequired, nil)
	}
	return nil
}

// Patch holds a partial update. Nil fields are left untouched.
type Patch struct {
	Name               *string
	Age                *int
	Gender             *string
	Appearance         *string
	Hobbies            []string
	Location           *string
	Outfit             *string
	FavoriteFood       *string
	FavoriteColor      *string
	FavoriteThingToDo  *string
	MostLovedCharacter *string
	AdditionalInfo     *string
}

// Apply copies every present field of patch onto p.
func (p *Profile) Apply(patch Patch) {
	setString(&p.Name, patch.Name)
	if patch.Age != nil {
		p.Age = *patch.Age
	}
	setString(&p.Gender, patch.Gender)
	setString(&p.Appearance, patch.Appearance)
	if patch.Hobbies != nil {
		p.Hobbies = cleanHobbies(patch.Hobbies)
	}
	setString(&p.Location, patch.Location)
	setString(&p.Outfit, patch.Outfit)
	setString(&p.FavoriteFood, patch.FavoriteFood)
	setString(&p.FavoriteColor, patch.FavoriteColor)
	setString(&p.FavoriteThingToDo, patch.FavoriteThingToDo)
	setString(&p.MostLovedCharacter, patch.MostLovedCharacter)
	setString(&p.AdditionalInfo, patch.AdditionalInfo)
}

func setString(dst *string, v *string) {
	if v != nil {
		*dst = strings.TrimSpace(*v)
	}
}

func cleanHobbies(in []string) datatypes.JSONSlice[string] {
	out := make(datatypes.JSONSlice[string], 0, len(in))
	for _, h := range in {
		if h = strings.TrimSpace(h); h != "" {
			out = append(out, h)
		}
	}
	return out
}
