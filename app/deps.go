package app

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"soulfamily/sounds-api/config"
	"soulfamily/sounds-api/db"
	"soulfamily/sounds-api/internal"
	"soulfamily/sounds-api/internal/service"
	"soulfamily/sounds-api/pkg/middleware"
	"soulfamily/sounds-api/pkg/security"
	"soulfamily/sounds-api/storage"

	"github.com/chenyahui/gin-cache/persist"
	"github.com/go-redis/redis/v8"
	v "github.com/spf13/viper"
	"go.uber.org/zap"
)

// NewDeps opens the database and the bucket and builds every service from
// the loaded configuration
func NewDeps(ctx context.Context) (*internal.Deps, error) {
	conn, err := db.New(v.GetString("db.driver"), v.GetString("db.dsn"))
	if err != nil {
		return nil, fmt.Errorf("failed to initialize database, %w", err)
	}

	s3, err := storage.NewS3(ctx, storage.Config{
		Endpoint:        v.GetString("storage.endpoint"),
		Region:          v.GetString("storage.region"),
		Bucket:          v.GetString("storage.bucket"),
		AccessKeyID:     v.GetString("storage.access_key_id"),
		SecretAccessKey: v.GetString("storage.secret_access_key"),
		PresignTTL:      time.Duration(v.GetInt("storage.presign_minutes")) * time.Minute,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to initialize S3 client, %w", err)
	}

	var notifier service.Notifier = service.NopNotifier{}
	if v.GetBool("mail.enabled") {
		notifier = service.NewMailer(service.MailConfig{
			Host:     v.GetString("mail.host"),
			Port:     v.GetInt("mail.port"),
			Sender:   v.GetString("mail.sender"),
			Password: v.GetString("mail.password"),
		})
	} else {
		zap.L().Warn("Mail is disabled, messages will only be logged")
	}

	scheme := "http"
	if v.GetBool("host.ssl_enabled") {
		scheme = "https"
	}
	baseURL := scheme + "://" + v.GetString("host.domain")

	argon := security.NewArgon()
	issuer := security.NewTokenIssuer(v.GetString("jwt.secret"), time.Duration(v.GetInt("jwt.ttl_hours"))*time.Hour)
	uploader := service.NewUploader(s3, config.MaxUploadBytes())

	return &internal.Deps{
		DB:     conn,
		Argon:  argon,
		Issuer: issuer,
		S3:     s3,

		Uploader:    uploader,
		Accounts:    service.NewAccountService(conn, argon, issuer, notifier, baseURL),
		Onboarding:  service.NewOnboardingService(conn, argon, uploader, notifier),
		Submissions: service.NewSubmissionService(conn, uploader, v.GetInt("review.max_open_assignments")),
		Review:      service.NewReviewService(conn, notifier),
		Library:     service.NewLibraryService(conn, uploader),
		Taxonomy:    service.NewTaxonomyService(conn),
		Plans:       service.NewPlanService(conn),

		SecureCookies: v.GetBool("host.ssl_enabled"),
	}, nil
}

// NewRouterConfig reads the HTTP settings. With cache.type = redis the
// response cache is shared between instances.
func NewRouterConfig(ctx context.Context) (RouterConfig, error) {
	cfg := RouterConfig{
		CORSOrigins:  v.GetStringSlice("host.cors_origins"),
		RateLimit:    v.GetInt("security.rate_limit"),
		MaxBodyBytes: config.MaxRequestBytes(),
		CacheTTL:     time.Duration(v.GetInt("cache.ttl_seconds")) * time.Second,
		Captcha: middleware.CaptchaConfig{
			Enabled: v.GetBool("security.turnstile_enabled"),
			Secret:  v.GetString("security.turnstile_secret"),
			Client:  &http.Client{Timeout: 5 * time.Second},
		},
	}

	switch v.GetString("cache.type") {
	case "redis":
		client := redis.NewClient(&redis.Options{Addr: v.GetString("cache.redis_addr")})

		if err := client.Ping(ctx).Err(); err != nil {
			return cfg, fmt.Errorf("failed to connect to redis, %w", err)
		}

		cfg.Cache = persist.NewRedisStore(client)
	default:
		cfg.Cache = persist.NewMemoryStore(time.Minute)
	}

	return cfg, nil
}
