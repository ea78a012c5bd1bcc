package bootstrap

import (
	"context"
	"database/sql"
	"fmt"

	fbauth "firebase.google.com/go/v4/auth"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"

	"github.com/b2bnest/b2bnest-api/config"
	assistantllm "github.com/b2bnest/b2bnest-api/internal/assistant/llm"
	assistantprompts "github.com/b2bnest/b2bnest-api/internal/assistant/prompts"
	assistantrepo "github.com/b2bnest/b2bnest-api/internal/assistant/repository"
	assistantsvc "github.com/b2bnest/b2bnest-api/internal/assistant/service"
	"github.com/b2bnest/b2bnest-api/internal/auth"
	businessrepo "github.com/b2bnest/b2bnest-api/internal/business/repository"
	businesssvc "github.com/b2bnest/b2bnest-api/internal/business/service"
	"github.com/b2bnest/b2bnest-api/internal/email"
	hmrcclient "github.com/b2bnest/b2bnest-api/internal/hmrc/client"
	hmrcrepo "github.com/b2bnest/b2bnest-api/internal/hmrc/repository"
	hmrcsvc "github.com/b2bnest/b2bnest-api/internal/hmrc/service"
	notifyrepo "github.com/b2bnest/b2bnest-api/internal/notifications/repository"
	notifysvc "github.com/b2bnest/b2bnest-api/internal/notifications/service"
	profilerepo "github.com/b2bnest/b2bnest-api/internal/profiles/repository"
	profilesvc "github.com/b2bnest/b2bnest-api/internal/profiles/service"
	"github.com/b2bnest/b2bnest-api/internal/scraping/firecrawl"
	scraperepo "github.com/b2bnest/b2bnest-api/internal/scraping/repository"
	scrapesvc "github.com/b2bnest/b2bnest-api/internal/scraping/service"
	socialrepo "github.com/b2bnest/b2bnest-api/internal/social/repository"
	socialsvc "github.com/b2bnest/b2bnest-api/internal/social/service"
)

// Infra holds the opened connections. Redis and Firebase may be nil.
type Infra struct {
	SQL      *sql.DB
	Pool     *pgxpool.Pool
	Redis    *redis.Client
	Firebase *fbauth.Client
}

type Services struct {
	Profiles      *profilesvc.ProfileService
	Notifications *notifysvc.Dispatcher
	Assistant     *assistantsvc.AssistantService
	Scraping      *scrapesvc.ScrapeService
	Business      *businesssvc.BusinessService
	HMRC          *hmrcsvc.HMRCService
	Social        *socialsvc.PostService
}

func NewServices(ctx context.Context, cfg *config.Config, infra Infra) (*Services, error) {
	profileRepo := profilerepo.NewProfileRepository(infra.SQL)

	renderer, err := notifysvc.NewRenderer(cfg.Email.AppURL)
	if err != nil {
		return nil, fmt.Errorf("email templates: %w", err)
	}
	emails := notifysvc.Resolver{profileRepo}
	if infra.Firebase != nil {
		emails = append(emails, auth.NewDirectory(infra.Firebase))
	}
	// Interface values stay nil without Redis.
	var publisher notifysvc.Publisher
	var cache scrapesvc.Cache
	if infra.Redis != nil {
		publisher = notifyrepo.NewPublisher(infra.Redis)
		cache = scraperepo.NewCacheRepository(infra.Redis, cfg.Firecrawl.CacheTTL)
	}
	dispatcher := notifysvc.NewDispatcher(
		notifyrepo.NewPreferenceRepository(infra.SQL),
		notifyrepo.NewNotificationRepository(infra.SQL),
		emails,
		email.NewClient(cfg.Email.BaseURL, cfg.Email.APIKey),
		publisher,
		renderer,
		cfg.Email.From,
	)

	completer, err := assistantllm.New(ctx, cfg.LLM)
	if err != nil {
		return nil, fmt.Errorf("llm: %w", err)
	}
	promptSet, err := assistantprompts.Load(cfg.Assistant.PromptsFile)
	if err != nil {
		return nil, fmt.Errorf("assistant prompts: %w", err)
	}

	var gateway hmrcsvc.Gateway
	if cfg.HMRC.Enabled() {
		gateway = hmrcclient.New(ctx, cfg.HMRC)
	}

	return &Services{
		Profiles:      profilesvc.NewProfileService(profileRepo),
		Notifications: dispatcher,
		Assistant:     assistantsvc.NewAssistantService(assistantrepo.NewRepo(infra.Pool), completer, promptSet),
		Scraping:      scrapesvc.NewScrapeService(firecrawl.NewClient(cfg.Firecrawl), cache, cfg.Firecrawl.RequestLimit),
		Business:      businesssvc.NewBusinessService(businessrepo.NewBusinessRepository(infra.SQL)),
		HMRC:          hmrcsvc.NewHMRCService(hmrcrepo.NewHMRCRepository(infra.SQL), gateway),
		Social:        socialsvc.NewPostService(socialrepo.NewPostRepository(infra.SQL)),
	}, nil
}
