package bookgen

import (
	"context"
	"fmt"
	"strings"

	"github.com/yungbote/storybook-backend/internal/domain/book"
	"github.com/yungbote/storybook-backend/internal/platform/logger"
)

// FallbackPolicy decides what a successful fallback illustration means.
type FallbackPolicy string

const (
	// FallbackContinue keeps the fallback image and moves on.
	FallbackContinue FallbackPolicy = "continue"
	// FallbackStrict still fails the book with the original safety error.
	FallbackStrict FallbackPolicy = "strict"
)

func ParseFallbackPolicy(raw string) (FallbackPolicy, error) {
	switch FallbackPolicy(strings.ToLower(strings.TrimSpace(raw))) {
	case "", FallbackContinue:
		return FallbackContinue, nil
	case FallbackStrict:
		return FallbackStrict, nil
	default:
		return "", fmt.Errorf("unknown illustration fallback policy %q", raw)
	}
}

// Illustrator gives every page but the last a durable illustration, one
// page at a time.
type Illustrator struct {
	log    *logger.Logger
	images ImageGenerator
	rehost Rehoster
	pacer  Pacer
	policy FallbackPolicy
	obs    Observer
}

func NewIllustrator(log *logger.Logger, images ImageGenerator, rehost Rehoster, pacer Pacer, policy FallbackPolicy) *Illustrator {
	if policy == "" {
		policy = FallbackContinue
	}
	return &Illustrator{
		log:    log.With("service", "Illustrator"),
		images: images,
		rehost: rehost,
		pacer:  pacer,
		policy: policy,
		obs:    nopObserver{},
	}
}

func (il *Illustrator) SetObserver(o Observer) { il.obs = orNop(o) }

// Illustrate returns a copy of units with image_url filled in. onPage, when
// set, is called with the zero-based index before each illustrated page.
// The first unrecovered error aborts the whole call.
func (il *Illustrator) Illustrate(ctx context.Context, subject Subject, units []book.PageUnit, onPage func(i int)) ([]book.PageUnit, error) {
	out := make([]book.PageUnit, len(units))
	copy(out, units)

	last := len(out) - 1
	for i := range out {
		if i == last {
			out[i].ImageURL = ""
			continue
		}
		if onPage != nil {
			onPage(i)
		}
		url, err := il.illustratePage(ctx, subject, SceneDescription(out[i].Text))
		if err != nil {
			il.obs.ObserveIllustration(OutcomeFailed)
			il.log.Warn("illustration aborted", "part_id", out[i].PartID, "error", err)
			return nil, err
		}
		out[i].ImageURL = url

		if err := il.pacer.Wait(ctx, i); err != nil {
			return nil, err
		}
	}
	return out, nil
}

func (il *Illustrator) illustratePage(ctx context.Context, subject Subject, scene string) (string, error) {
	url, err := il.generateAndRehost(ctx, IllustrationRequest{Subject: subject, Scene: scene})
	if err == nil {
		il.obs.ObserveIllustration(OutcomeIllustrated)
		return url, nil
	}
	if !IsSafetyRejection(err) {
		return "", err
	}

	il.log.Warn("illustration rejected by safety system, retrying with fallback prompt")
	url, fbErr := il.generateAndRehost(ctx, IllustrationRequest{Subject: subject, Fallback: true})
	if fbErr != nil {
		return "", fbErr
	}
	if il.policy == FallbackStrict {
		return "", err
	}
	il.obs.ObserveIllustration(OutcomeFallback)
	return url, nil
}

func (il *Illustrator) generateAndRehost(ctx context.Context, req IllustrationRequest) (string, error) {
	transient, err := il.images.GenerateIllustration(ctx, req)
	if err != nil {
		return "", err
	}
	return il.rehost.Rehost(ctx, transient)
}
