package bookgen

import (
	"errors"
	"testing"

	"github.com/yungbote/storybook-backend/internal/domain"
)

func TestPlanTomExample(t *testing.T) {
	t.Parallel()

	title, units, err := Plan("Tom's Adventure\n\nPart A text.\n\nPart B text.\n\nThe End!")
	if err != nil {
		t.Fatalf("Plan: %v", err)
	}
	if title != "Tom's Adventure" {
		t.Fatalf("title: want=%q got=%q", "Tom's Adventure", title)
	}
	want := []string{"Tom's Adventure", "Part A text.", "Part B text.", "The End!"}
	if len(units) != len(want) {
		t.Fatalf("units: want=%d got=%d", len(want), len(units))
	}
	for i, u := range units {
		if u.PartID != i+1 {
			t.Fatalf("unit %d part_id: want=%d got=%d", i, i+1, u.PartID)
		}
		if u.Text != want[i] {
			t.Fatalf("unit %d text: want=%q got=%q", i, want[i], u.Text)
		}
		if u.ImageURL != "" {
			t.Fatalf("unit %d: planner must not set image_url", i)
		}
	}
}

func TestPlanOrdering(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name  string
		raw   string
		texts []string
	}{
		{name: "single segment", raw: "Only a title", texts: []string{"Only a title"}},
		{name: "crlf", raw: "Title\r\n\r\nOne.\r\n\r\nThe End!", texts: []string{"Title", "One.", "The End!"}},
		{name: "blank runs dropped", raw: "\n\nTitle\n\n\n\n  \n\nOne.\n\n", texts: []string{"Title", "One."}},
		{name: "segments trimmed", raw: "  Title  \n\n\tOne.\t", texts: []string{"Title", "One."}},
		{name: "single newline kept inside segment", raw: "Title\nsubtitle\n\nOne.", texts: []string{"Title\nsubtitle", "One."}},
	}
	for _, tc := range cases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			title, units, err := Plan(tc.raw)
			if err != nil {
				t.Fatalf("Plan: %v", err)
			}
			if title != units[0].Text {
				t.Fatalf("title: want=%q got=%q", units[0].Text, title)
			}
			if len(units) != len(tc.texts) {
				t.Fatalf("units: want=%d got=%d", len(tc.texts), len(units))
			}
			for i, u := range units {
				if u.PartID != i+1 || u.Text != tc.texts[i] {
					t.Fatalf("unit %d: want=(%d,%q) got=(%d,%q)", i, i+1, tc.texts[i], u.PartID, u.Text)
				}
			}
		})
	}
}

func TestPlanEmpty(t *testing.T) {
	t.Parallel()

	for _, raw := range []string{"", "   ", "\n\n\n\n", "\r\n\r\n \t "} {
		_, units, err := Plan(raw)
		if !errors.Is(err, domain.ErrEmptyGeneration) {
			t.Fatalf("Plan(%q): want empty generation got=%v", raw, err)
		}
		if !errors.Is(err, domain.ErrGeneration) {
			t.Fatalf("Plan(%q): empty generation should match generation errors", raw)
		}
		if units != nil {
			t.Fatalf("Plan(%q): want no units got=%v", raw, units)
		}
	}
}

func TestSceneDescription(t *testing.T) {
	t.Parallel()

	cases := []struct {
		in   string
		want string
	}{
		{in: "Tom ran to the park.", want: `This page describes: "Tom ran to the park."`},
		{in: "  Tom's kite \u2014 soared!  ", want: `This page describes: "Tom's kite  soared!"`},
		{in: "He said: \"Wow\"; then (quietly) left...", want: `This page describes: "He said "Wow" then quietly left..."`},
		{in: "Café ñandú 123", want: `This page describes: "Caf and 123"`},
		{in: "@@@", want: `This page describes: ""`},
	}
	for _, tc := range cases {
		if got := SceneDescription(tc.in); got != tc.want {
			t.Fatalf("SceneDescription(%q): want=%q got=%q", tc.in, tc.want, got)
		}
	}
}
