package app

import (
	"fmt"
	"strings"

	"github.com/yungbote/storybook-backend/internal/bookgen"
	"github.com/yungbote/storybook-backend/internal/export"
	"github.com/yungbote/storybook-backend/internal/observability"
	"github.com/yungbote/storybook-backend/internal/platform/gcp"
	"github.com/yungbote/storybook-backend/internal/platform/logger"
	"github.com/yungbote/storybook-backend/internal/services"
)

type Services struct {
	Auth         services.AuthService
	ChildProfile services.ChildProfileService
	Book         services.BookService
}

func wireServices(log *logger.Logger, cfg Config, repoSet Repos, clients Clients, metrics *observability.Metrics) (Services, error) {
	log.Info("Wiring services...")

	prompts, err := bookgen.DefaultPrompts()
	if err != nil {
		return Services{}, fmt.Errorf("load prompts: %w", err)
	}
	policy, err := bookgen.ParseFallbackPolicy(cfg.IllustrationFallbackPolicy)
	if err != nil {
		return Services{}, err
	}

	text := bookgen.NewTextGenerator(log, clients.OpenAI, prompts)
	images := bookgen.NewImageGenerator(log, clients.OpenAI, prompts)
	rehoster := bookgen.NewRehoster(log, clients.Bucket, clients.AssetHTTP)
	illustrator := bookgen.NewIllustrator(log, images, rehoster, bookgen.NewPacer(cfg.IllustrationPaceUnit), policy)
	assembler := bookgen.NewAssembler(log, repoSet.ChildProfile, repoSet.Book, text, illustrator, clients.Progress)
	if metrics != nil {
		illustrator.SetObserver(metrics)
		assembler.SetObserver(metrics)
	}

	epub, err := export.NewEPUBBuilder(log, clients.AssetHTTP, illustrationURLPrefixes(cfg, clients.Bucket))
	if err != nil {
		return Services{}, fmt.Errorf("init epub builder: %w", err)
	}

	auth := services.NewAuthService(log, repoSet.User, cfg.JWTSecretKey, cfg.AccessTokenTTL)
	profiles := services.NewChildProfileService(log, repoSet.ChildProfile)
	books := services.NewBookService(log, profiles, repoSet.Book, assembler, epub, clients.Progress, cfg.MaxBookPages)

	return Services{
		Auth:         auth,
		ChildProfile: profiles,
		Book:         books,
	}, nil
}

const illustrationURLMarker = "storybook-url-marker"

// illustrationURLPrefixes lists the URL prefixes that rehosted illustrations
// can have. Book pages are editable, so EPUB export fetches nothing else.
func illustrationURLPrefixes(cfg Config, bucket gcp.BucketService) []string {
	var out []string
	if bucket != nil {
		u := bucket.GetPublicURL(gcp.BucketCategoryIllustration, illustrationURLMarker)
		if i := strings.Index(u, illustrationURLMarker); i > 0 {
			out = append(out, u[:i])
		}
	}
	if cdn := strings.Trim(strings.TrimSpace(cfg.IllustrationCDNDomain), "/"); cdn != "" {
		out = append(out, "https://"+cdn+"/")
	}
	return out
}
