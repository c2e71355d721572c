package bookgen

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/yungbote/storybook-backend/internal/domain"
	"github.com/yungbote/storybook-backend/internal/platform/logger"
	"github.com/yungbote/storybook-backend/internal/platform/openai"
)

func mustPrompts(t *testing.T) *Prompts {
	t.Helper()
	p, err := DefaultPrompts()
	if err != nil {
		t.Fatalf("DefaultPrompts: %v", err)
	}
	return p
}

func TestGenerateText(t *testing.T) {
	t.Parallel()

	client := &fakeOpenAI{text: tomStory}
	gen := NewTextGenerator(logger.Nop(), client, mustPrompts(t))

	out, err := gen.GenerateText(context.Background(), tom, 3)
	if err != nil {
		t.Fatalf("GenerateText: %v", err)
	}
	if out != tomStory {
		t.Fatalf("GenerateText: want=%q got=%q", tomStory, out)
	}
	if client.system == "" || !strings.Contains(client.user, "exactly 3 parts") {
		t.Fatalf("GenerateText: unexpected prompts system=%q user=%q", client.system, client.user)
	}
}

func TestGenerateTextFailures(t *testing.T) {
	t.Parallel()

	cases := map[string]*fakeOpenAI{
		"upstream error": {textErr: &openai.HTTPError{StatusCode: 500, Message: "overloaded"}},
		"empty content":  {text: "  \n "},
	}
	for name, client := range cases {
		gen := NewTextGenerator(logger.Nop(), client, mustPrompts(t))
		_, err := gen.GenerateText(context.Background(), tom, 3)
		if !errors.Is(err, domain.ErrGeneration) {
			t.Fatalf("%s: want generation error got=%v", name, err)
		}
	}
}
