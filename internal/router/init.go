package router

import (
	"github.com/sikshyalaya/backend/internal/application"
	"github.com/sikshyalaya/backend/internal/container"
	"github.com/sikshyalaya/backend/internal/gateway/esewa"
	gcsinfra "github.com/sikshyalaya/backend/internal/infrastructure/gcs"
	pginfra "github.com/sikshyalaya/backend/internal/infrastructure/postgres"
	"github.com/sikshyalaya/backend/internal/infrastructure/search"
	handlers "github.com/sikshyalaya/backend/internal/interface/http"
	"github.com/sikshyalaya/backend/internal/router/modules"
	"github.com/sikshyalaya/backend/pkg/helpers"
)

// InitModules wires repositories, services and handlers from the container
// singletons and registers every feature module. Called once at startup.
func InitModules(r *Registry) {
	cfg := container.GetConfig()
	logger := container.GetLogger()
	pool := container.GetPGPool()

	users := pginfra.NewUserRepository(pool)
	tokens := pginfra.NewRefreshTokenRepository(pool)
	courses := pginfra.NewCourseRepository(pool)
	progress := pginfra.NewProgressRepository(pool)
	payments := pginfra.NewPaymentRepository(pool)

	cookies := helpers.NewCookie(cfg.CookieDomain, cfg.CookieSecure)

	authSvc := application.NewAuthService(
		users, tokens, container.GetJWT(), container.GetEmailPub(), logger,
		cfg.AppName, cfg.VerificationCodeTTL, cfg.MaxLoginAttempts, cfg.LockoutDuration,
	)

	// The mock fallback only exists outside production builds; production
	// always talks to the real gateway.
	var gwOpts []esewa.Option
	if !cfg.IsProduction() {
		gwOpts = append(gwOpts, esewa.WithMockFallback())
	}
	gateway := esewa.NewClient(cfg.EsewaMerchantCode, cfg.EsewaVerifyURL, cfg.EsewaVerifyTimeout, logger, gwOpts...)

	paySvc := application.NewPaymentService(
		users, courses, progress, payments,
		gateway, &helpers.RedisLatch{RDB: container.GetRedis()},
		container.GetEmailPub(), container.GetReconcilePub(), logger,
		cfg.AppName, cfg.EsewaSecretKey, cfg.PaymentSignatureEnforce,
	)

	progSvc := application.NewProgressService(users, courses, progress, logger)

	index := search.NewESCourseIndex(container.GetES(), cfg.ESCoursesIndex)
	store := gcsinfra.NewStore(container.GetGCS(), cfg.GCSBucket)
	courseSvc := application.NewCourseService(courses, index, store, logger)

	r.Add(modules.NewAuthModule(handlers.NewAuthHandler(authSvc, cookies, logger)))
	r.Add(modules.NewPaymentModule(handlers.NewPaymentHandler(paySvc, logger)))
	r.Add(modules.NewProgressModule(handlers.NewProgressHandler(progSvc, logger)))
	r.Add(modules.NewCourseModule(handlers.NewCourseHandler(courseSvc, logger)))
}
