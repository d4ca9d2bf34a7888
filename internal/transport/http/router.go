package http

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"golang.org/x/time/rate"

	"github.com/mediagate/internal/application/access"
	"github.com/mediagate/internal/application/batchgroup"
	"github.com/mediagate/internal/application/gate"
	"github.com/mediagate/internal/application/ingest"
	"github.com/mediagate/internal/application/ledger"
	"github.com/mediagate/internal/application/notify"
	"github.com/mediagate/internal/application/payment"
	"github.com/mediagate/internal/application/settings"
	"github.com/mediagate/internal/config"
	"github.com/mediagate/internal/infrastructure/dynamo"
	jwtinfra "github.com/mediagate/internal/infrastructure/jwt"
	s3infra "github.com/mediagate/internal/infrastructure/s3"
	"github.com/mediagate/internal/infrastructure/shortener"
	"github.com/mediagate/internal/linkcodec"
	"github.com/mediagate/internal/transport/http/handler"
	appmiddleware "github.com/mediagate/internal/transport/http/middleware"
)

// Deps holds all infrastructure dependencies for the router.
type Deps struct {
	TokenRepo    *dynamo.TokenRepo
	BypassRepo   *dynamo.BypassRepo
	CreditRepo   *dynamo.CreditRepo
	PendingRepo  *dynamo.PendingRepo
	BatchRepo    *dynamo.BatchRepo
	SettingsRepo *dynamo.SettingsRepo
	OwnerRepo    *dynamo.OwnerRepo
	ItemRepo     *dynamo.ItemRepo
	DeliveryRepo *dynamo.DeliveryRepo
	PaymentRepo  *dynamo.PaymentRepo
	S3Store      *s3infra.Store
	Shortener    shortener.Shortener
	Codec        *linkcodec.Codec
	Notifier     *notify.Notifier
	JWTProvider  *jwtinfra.Provider
	Providers    []payment.Provider
}

// NewRouter builds and returns the application router.
func NewRouter(cfg *config.Config, deps *Deps) http.Handler {
	r := chi.NewRouter()
	r.Use(chimiddleware.Logger)
	r.Use(chimiddleware.Recoverer)
	r.Use(chimiddleware.RequestID)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   cfg.AllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: false,
		MaxAge:           300,
	}))

	var authMw func(http.Handler) http.Handler
	if deps.JWTProvider != nil {
		authMw = appmiddleware.Auth(deps.JWTProvider)
	} else {
		authMw = func(next http.Handler) http.Handler { return next }
	}

	// 5 requests/second, burst of 10, applied to sensitive public endpoints.
	sensitiveRL := appmiddleware.NewRateLimiter(rate.Limit(5), 10)

	settingsSvc := settings.NewService(settings.ServiceDeps{
		Repo:            deps.SettingsRepo,
		DefaultLocation: cfg.DefaultLocationID,
	})
	gateSvc := gate.NewService(gate.ServiceDeps{
		TokenRepo:     deps.TokenRepo,
		BypassRepo:    deps.BypassRepo,
		OwnerRepo:     deps.OwnerRepo,
		Settings:      settingsSvc,
		Shortener:     deps.Shortener,
		Notifier:      deps.Notifier,
		PublicBaseURL: cfg.PublicBaseURL,
	})
	ledgerSvc := ledger.NewService(ledger.ServiceDeps{
		CreditRepo: deps.CreditRepo,
		Settings:   settingsSvc,
	})
	groupSvc := batchgroup.NewService(batchgroup.ServiceDeps{
		PendingRepo: deps.PendingRepo,
		BatchRepo:   deps.BatchRepo,
		Settings:    settingsSvc,
	})
	ingestSvc := ingest.NewService(ingest.ServiceDeps{
		ItemRepo:    deps.ItemRepo,
		ObjectStore: deps.S3Store,
		Locations:   settingsSvc,
		Grouper:     groupSvc,
		Codec:       deps.Codec,
	})
	accessSvc := access.NewService(access.ServiceDeps{
		Codec:        deps.Codec,
		Gate:         gateSvc,
		Ledger:       ledgerSvc,
		Settings:     settingsSvc,
		OwnerRepo:    deps.OwnerRepo,
		ItemRepo:     deps.ItemRepo,
		BatchRepo:    deps.BatchRepo,
		ObjectStore:  deps.S3Store,
		DeliveryRepo: deps.DeliveryRepo,
	})
	paymentSvc := payment.NewService(payment.ServiceDeps{
		PaymentRepo: deps.PaymentRepo,
		Ledger:      ledgerSvc,
		Providers:   deps.Providers,
	})

	healthH := handler.NewHealthHandler()
	sessionH := handler.NewSessionHandler(cfg, deps.JWTProvider)
	openH := handler.NewOpenHandler(accessSvc, gateSvc)
	deliveryH := handler.NewDeliveryHandler(accessSvc)
	settingsH := handler.NewSettingsHandler(settingsSvc)
	creditH := handler.NewCreditHandler(ledgerSvc)
	securityH := handler.NewSecurityHandler(gateSvc)
	ownerH := handler.NewOwnerHandler(deps.OwnerRepo)
	paymentH := handler.NewPaymentHandler(paymentSvc)
	itemH := handler.NewItemHandler(ingestSvc)
	linkH := handler.NewLinkHandler(deps.Codec, deps.BatchRepo)

	r.Route("/v1", func(r chi.Router) {
		// ── Public routes (no auth) ──────────────────────────────────────────
		r.Get("/health-check", healthH.Ping)
		r.With(sensitiveRL.Limit).Post("/open", openH.Open)
		r.Post("/clicks/{token}", openH.Click)
		r.Post("/deliveries", deliveryH.Register)
		r.Get("/payments/packages", paymentH.Packages)
		r.With(sensitiveRL.Limit).Post("/payments", paymentH.Create)
		r.With(sensitiveRL.Limit).Post("/sessions/login", sessionH.Login)

		// ── Operator routes ──────────────────────────────────────────────────
		r.Group(func(r chi.Router) {
			r.Use(authMw)

			r.Get("/admin/settings", settingsH.List)
			r.Get("/admin/settings/effective", settingsH.Snapshot)
			r.Put("/admin/settings", settingsH.Set)

			r.Get("/admin/credits/stats", creditH.Stats)
			r.Get("/admin/credits/{ownerID}", creditH.Get)
			r.Post("/admin/credits/{ownerID}", creditH.Grant)
			r.Put("/admin/credits/{ownerID}", creditH.SetBalance)
			r.Delete("/admin/credits/{ownerID}", creditH.Reset)
			r.Get("/admin/credits/{ownerID}/transactions", creditH.Transactions)
			r.Post("/admin/credits/{ownerID}/referral-code", creditH.ReferralCode)

			r.Get("/admin/security/tokens/stats", securityH.TokenStats)
			r.Get("/admin/security/bypass/stats", securityH.BypassStats)
			r.Delete("/admin/security/bypass/{ownerID}", securityH.ClearBypassRecord)
			r.Delete("/admin/security/tokens/{ownerID}", securityH.RevokeTokens)

			r.Get("/admin/owners/banned", ownerH.ListBanned)
			r.Get("/admin/owners/premium", ownerH.ListPremium)
			r.Get("/admin/owners/{ownerID}", ownerH.Get)
			r.Post("/admin/owners/{ownerID}/ban", ownerH.Ban)
			r.Post("/admin/owners/{ownerID}/unban", ownerH.Unban)
			r.Post("/admin/owners/{ownerID}/premium", ownerH.GrantPremium)
			r.Delete("/admin/owners/{ownerID}/premium", ownerH.RevokePremium)

			r.Get("/admin/payments/pending", paymentH.ListPending)
			r.Post("/admin/payments/{paymentID}/approve", paymentH.Approve)
			r.Post("/admin/payments/{paymentID}/reject", paymentH.Reject)
			r.Get("/admin/payments/owners/{ownerID}", paymentH.History)

			r.Post("/items", itemH.Upload)

			r.Get("/admin/batches", linkH.ListBatches)
			r.Post("/admin/links/single", linkH.CreateSingle)
			r.Post("/admin/links/range", linkH.CreateRange)
		})
	})

	return r
}
