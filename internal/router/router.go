// Package router sets up all HTTP routes and middleware chains for the
// pagesmith API. It organizes routes into public and authenticated groups
// with appropriate middleware stacks.
package router

import (
	"github.com/go-chi/chi/v5"

	"pagesmith/internal/handlers"
	"pagesmith/internal/middleware"
)

// Options tune the middleware stack.
type Options struct {
	// SecureCookies marks the session and CSRF cookies Secure.
	SecureCookies bool
	// LoginLimiter throttles sign-in attempts per client IP. May be nil.
	LoginLimiter *middleware.RateLimiter
}

// New creates and returns the configured Chi router with all middleware
// and route groups wired up.
func New(sessions middleware.SessionSource, api *handlers.API, opts Options) chi.Router {
	r := chi.NewRouter()

	// Global middleware, applied to every request.
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.SecureHeaders)
	r.Use(middleware.LoadSession(sessions))

	r.Get("/health", api.Health)

	r.Route("/api", func(r chi.Router) {
		r.Use(middleware.NewCSRF(opts.SecureCookies))

		// Public: the generated stylesheet and sign-in.
		r.Get("/stylesheet.css", api.Stylesheet)
		r.Group(func(r chi.Router) {
			if opts.LoginLimiter != nil {
				r.Use(opts.LoginLimiter.Middleware)
			}
			r.Post("/auth/login", api.Login)
		})
		r.Post("/auth/logout", api.Logout)

		// 2FA: requires auth but NOT completed 2FA.
		r.Group(func(r chi.Router) {
			r.Use(middleware.RequireAuth)
			r.Get("/auth/me", api.Me)
			r.Post("/auth/2fa/enroll", api.TwoFAEnroll)
			r.Post("/auth/2fa/confirm", api.TwoFAConfirm)
		})

		// Authenticated + 2FA-verified.
		r.Group(func(r chi.Router) {
			r.Use(middleware.RequireAuth)
			r.Use(middleware.Require2FA)

			r.Route("/themes", func(r chi.Router) {
				r.Get("/", api.ThemesList)
				r.Post("/", api.ThemeCreate)
				r.Get("/active", api.ThemeActive)
				r.Post("/resolve", api.ResolveWidget)
				r.Get("/{id}", api.ThemeGet)
				r.Put("/{id}", api.ThemeUpdate)
				r.Delete("/{id}", api.ThemeDelete)
				r.Post("/{id}/activate", api.ThemeActivate)
				r.Post("/{id}/duplicate", api.ThemeDuplicate)
			})

			r.With(middleware.RequireAdmin).Put("/custom-css", api.CustomCSSUpdate)

			r.Route("/templates", func(r chi.Router) {
				r.Get("/", api.TemplatesList)
				r.Get("/{id}/sections", api.TemplateSections)
			})

			// Page ids that are paths travel URL-encoded: /api/pages/%2Fabout/...
			r.Route("/pages/{pageID}", func(r chi.Router) {
				r.Get("/content", api.ContentGet)
				r.Put("/content", api.ContentPut)
				r.Get("/sections", api.SectionsGet)
				r.Put("/sections", api.SectionsPut)
				r.Get("/variables", api.VariablesExport)
				r.Post("/variables", api.VariablesImport)
				r.Get("/validate", api.PageValidate)
			})

			r.Route("/metadata", func(r chi.Router) {
				r.Get("/", api.MetadataGet)
				r.Put("/", api.MetadataPut)
				r.Post("/validate", api.MetadataValidate)
			})

			r.Route("/media", func(r chi.Router) {
				r.Get("/", api.MediaList)
				r.Post("/", api.MediaUpload)
				r.Delete("/{id}", api.MediaDelete)
			})
		})
	})

	return r
}
