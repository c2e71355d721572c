package bookgen

import (
	"context"
	"errors"
	"strings"

	"github.com/vincent-petithory/dataurl"

	"github.com/yungbote/storybook-backend/internal/platform/logger"
	"github.com/yungbote/storybook-backend/internal/platform/openai"
)

type IllustrationRequest struct {
	Subject Subject
	Scene   string
	// Fallback drops the scene and renders the subject-only prompt.
	Fallback bool
}

// ImageGenerator returns a transient image location: an upstream URL or a
// data: URL when the model answers with inline bytes. Failures are
// *IllustrationError.
type ImageGenerator interface {
	GenerateIllustration(ctx context.Context, req IllustrationRequest) (string, error)
}

type imageGenerator struct {
	log     *logger.Logger
	client  openai.Client
	prompts *Prompts
}

func NewImageGenerator(log *logger.Logger, client openai.Client, prompts *Prompts) ImageGenerator {
	return &imageGenerator{
		log:     log.With("service", "ImageGenerator"),
		client:  client,
		prompts: prompts,
	}
}

func (g *imageGenerator) GenerateIllustration(ctx context.Context, req IllustrationRequest) (string, error) {
	const op = "bookgen.GenerateIllustration"
	var (
		prompt string
		err    error
	)
	if req.Fallback {
		prompt, err = g.prompts.Fallback(req.Subject)
	} else {
		prompt, err = g.prompts.Illustration(req.Subject, req.Scene)
	}
	if err != nil {
		return "", &IllustrationError{Kind: KindFatal, Op: op, Err: err}
	}

	img, err := g.client.GenerateImage(ctx, prompt)
	if err != nil {
		kind := ClassifyIllustrationError(err)
		g.log.Warn("illustration request failed", "kind", kind.String(), "fallback", req.Fallback, "error", err)
		return "", &IllustrationError{Kind: kind, Op: op, Err: err}
	}
	if u := strings.TrimSpace(img.URL); u != "" {
		return u, nil
	}
	if len(img.Bytes) > 0 {
		mimeType := img.MimeType
		if mimeType == "" {
			mimeType = "image/png"
		}
		return dataurl.New(img.Bytes, mimeType).String(), nil
	}
	return "", &IllustrationError{Kind: KindFatal, Op: op, Err: errors.New("image generation returned no image")}
}
