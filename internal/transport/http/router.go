package http

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/ecell-portal/internal/application/event"
	"github.com/ecell-portal/internal/application/member"
	"github.com/ecell-portal/internal/application/registration"
	"github.com/ecell-portal/internal/application/ticketing"
	"github.com/ecell-portal/internal/config"
	"github.com/ecell-portal/internal/domain"
	"github.com/ecell-portal/internal/transport/http/handler"
	appmiddleware "github.com/ecell-portal/internal/transport/http/middleware"
	"golang.org/x/time/rate"
)

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

	// 5 requests/second, burst of 10 — applied to the code-issuance and
	// confirmation endpoints so a single client can't hammer them.
	sensitiveRL := appmiddleware.NewRateLimiter(rate.Limit(5), 10)

	registrationSvc := registration.NewService(registration.ServiceDeps{
		MemberRepo:    deps.MemberRepo,
		CodeStore:     deps.CodeStore,
		Mailer:        deps.Mailer,
		JWTProvider:   deps.JWTProvider,
		AllowedDomain: cfg.AllowedEmailDomain,
	})
	ticketingSvc := ticketing.NewService(ticketing.ServiceDeps{
		Ledger: deps.TicketRepo,
		Codec:  deps.Codec,
	})
	memberSvc := member.NewService(deps.MemberRepo)
	eventSvc := event.NewService(deps.EventRepo)

	healthH := handler.NewHealthHandler()
	otpH := handler.NewOTPHandler(registrationSvc)
	ticketH := handler.NewTicketHandler(ticketingSvc)
	memberH := handler.NewMemberHandler(memberSvc)
	eventH := handler.NewEventHandler(eventSvc)

	authMw := appmiddleware.Auth(deps.JWTProvider)

	r.Route("/v1", func(r chi.Router) {
		// ── Public routes (no auth) ──────────────────────────────────────────
		r.Get("/health-check/{action}", healthH.Ping)
		r.Get("/events/upcoming", eventH.ListUpcoming)
		r.With(sensitiveRL.Limit).Post("/otp/send", otpH.Send)
		r.With(sensitiveRL.Limit).Post("/otp/resend", otpH.Resend)
		r.With(sensitiveRL.Limit).Post("/otp/verify", otpH.Verify)

		// ── Authenticated routes ─────────────────────────────────────────────
		r.Group(func(r chi.Router) {
			r.Use(authMw)

			r.Get("/members/me", memberH.Me)
			r.Post("/tickets", ticketH.Create)
			r.Get("/tickets", ticketH.List)

			// Organizer-only: scanning and redemption at the door.
			r.Group(func(r chi.Router) {
				r.Use(appmiddleware.RequireRole(domain.RoleOrganizer))

				r.Post("/tickets/verify", ticketH.Verify)
				r.Post("/tickets/redeem", ticketH.Redeem)
			})
		})
	})

	return r
}
