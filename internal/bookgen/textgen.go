package bookgen

import (
	"context"
	"strings"

	"github.com/yungbote/storybook-backend/internal/domain"
	"github.com/yungbote/storybook-backend/internal/platform/logger"
	"github.com/yungbote/storybook-backend/internal/platform/openai"
)

// TextGenerator writes the raw story: the title, one blank-line separated
// section per page and the closing line.
type TextGenerator interface {
	GenerateText(ctx context.Context, subject Subject, pages int) (string, error)
}

type textGenerator struct {
	log     *logger.Logger
	client  openai.Client
	prompts *Prompts
}

func NewTextGenerator(log *logger.Logger, client openai.Client, prompts *Prompts) TextGenerator {
	return &textGenerator{
		log:     log.With("service", "TextGenerator"),
		client:  client,
		prompts: prompts,
	}
}

func (g *textGenerator) GenerateText(ctx context.Context, subject Subject, pages int) (string, error) {
	const op = "bookgen.GenerateText"
	user, err := g.prompts.Book(subject, pages)
	if err != nil {
		return "", domain.Wrap(domain.CodeGeneration, op, err)
	}
	out, err := g.client.GenerateText(ctx, g.prompts.System(), user)
	if err != nil {
		g.log.Warn("story generation failed", "pages", pages, "error", err)
		return "", domain.Wrap(domain.CodeGeneration, op, err)
	}
	if strings.TrimSpace(out) == "" {
		return "", domain.NewError(domain.CodeGeneration, op, "text generation returned no content", nil)
	}
	return out, nil
}
