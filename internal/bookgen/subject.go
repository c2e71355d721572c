package bookgen

import (
	"strings"

	"github.com/yungbote/storybook-backend/internal/domain/child"
)

// Subject is the child data the prompts are rendered from.
type Subject struct {
	Name               string
	Age                int
	Gender             string
	Appearance         string
	Hobbies            []string
	Location           string
	Outfit             string
	FavoriteFood       string
	FavoriteColor      string
	FavoriteThingToDo  string
	MostLovedCharacter string
	AdditionalInfo     string
}

func SubjectFromProfile(p *child.Profile) Subject {
	if p == nil {
		return Subject{}
	}
	hobbies := make([]string, 0, len(p.Hobbies))
	for _, h := range p.Hobbies {
		if h = strings.TrimSpace(h); h != "" {
			hobbies = append(hobbies, h)
		}
	}
	return Subject{
		Name:               strings.TrimSpace(p.Name),
		Age:                p.Age,
		Gender:             strings.TrimSpace(p.Gender),
		Appearance:         strings.TrimSpace(p.Appearance),
		Hobbies:            hobbies,
		Location:           strings.TrimSpace(p.Location),
		Outfit:             strings.TrimSpace(p.Outfit),
		FavoriteFood:       strings.TrimSpace(p.FavoriteFood),
		FavoriteColor:      strings.TrimSpace(p.FavoriteColor),
		FavoriteThingToDo:  strings.TrimSpace(p.FavoriteThingToDo),
		MostLovedCharacter: strings.TrimSpace(p.MostLovedCharacter),
		AdditionalInfo:     strings.TrimSpace(p.AdditionalInfo),
	}
}
