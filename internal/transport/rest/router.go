package rest

import (
	"database/sql"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi"
	"github.com/jmoiron/sqlx"

	"github.com/frahmantamala/healthrecord-management/internal/audit"
	"github.com/frahmantamala/healthrecord-management/internal/auth"
	"github.com/frahmantamala/healthrecord-management/internal/authz"
	"github.com/frahmantamala/healthrecord-management/internal/records"
	"github.com/frahmantamala/healthrecord-management/internal/transport/middleware"
	"github.com/frahmantamala/healthrecord-management/internal/transport/swagger"
)

func RegisterAllRoutes(router *chi.Mux, db *sql.DB, sqlxDB *sqlx.DB, authHandler *auth.Handler, gate *authz.Gate, auditPipeline *audit.Pipeline, recordsHandler *records.Handler, logger *slog.Logger) {
	healthHandler := NewHealthHandler(db)

	// Apply global middleware
	router.Use(middleware.CORS)
	router.Use(middleware.RequestID)
	router.Use(middleware.RecoveryMiddleware(logger))
	router.Use(middleware.LoggingMiddleware(logger))

	// Serve OpenAPI spec at root (outside API prefix)
	router.Get("/openapi.yml", func(w http.ResponseWriter, r *http.Request) {
		http.ServeFile(w, r, "./api/openapi.yml")
	})
	// Swagger UI route at root
	router.Handle("/swagger/*", swagger.Handler())

	router.Route("/api/v1", func(r chi.Router) {
		// Health check routes
		r.Get("/health", healthHandler.healthCheckHandler)
		r.Get("/ping", healthHandler.pingHandler)

		// Auth routes
		if authHandler != nil {
			r.Route("/auth", func(sr chi.Router) {
				sr.Post("/login", authHandler.Login)
				sr.Post("/refresh", authHandler.RefreshToken)
				sr.Post("/logout", authHandler.Logout)
			})
		}

		if authHandler == nil {
			return
		}

		// Protected routes. The audit middleware sits inside the auth
		// middleware so the coarse tier records resolved principals, and it
		// wraps the guards so denied requests never produce entries.
		r.Group(func(pr chi.Router) {
			pr.Use(authHandler.AuthMiddleware)
			pr.Use(auditPipeline.Middleware)

			pr.Get("/users/me", authHandler.Me)

			if recordsHandler != nil {
				pr.Route("/patients", func(rr chi.Router) {
					rr.Group(func(gr chi.Router) {
						gr.Use(gate.RequirePermission(authz.PermCreatePatient))
						gr.Post("/", recordsHandler.CreateRecord)
					})

					rr.Group(func(gr chi.Router) {
						gr.Use(gate.RequirePatientRecordAccess(sqlxDB, authz.ChiIDExtractor("id")))
						gr.Get("/{id}", recordsHandler.GetRecord)
					})

					rr.Group(func(gr chi.Router) {
						gr.Use(gate.RequireAllAbilities([]authz.Action{authz.ActionView, authz.ActionUpdate}, authz.SubjectPatient))
						gr.Patch("/{id}", recordsHandler.UpdateRecord)
					})

					rr.Group(func(gr chi.Router) {
						gr.Use(gate.RequireRole(authz.RoleAdmin))
						gr.Use(gate.RequirePermission(authz.PermDeletePatient))
						gr.Delete("/{id}", recordsHandler.DeleteRecord)
					})
				})
			}
		})
	})
}
