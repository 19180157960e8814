package router

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"github.com/parisxmas/formcraft/internal/auth"
	"github.com/parisxmas/formcraft/internal/handler"
	mw "github.com/parisxmas/formcraft/internal/middleware"
)

type Handlers struct {
	Forms     *handler.FormHandler
	Dashboard *handler.DashboardHandler
	Responses *handler.ResponseHandler
	Uploads   *handler.UploadHandler
	Public    *handler.PublicHandler
	Pages     *handler.PageHandler
}

func New(jwtSecret string, log *zap.Logger, h Handlers) *chi.Mux {
	r := chi.NewRouter()

	// Global middleware
	r.Use(chimw.RequestID)
	r.Use(chimw.RealIP)
	r.Use(mw.Recovery(log))
	r.Use(mw.Logger(log))
	r.Use(mw.CORS)

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("ok"))
	})

	// Server-rendered fill page
	r.Group(func(r chi.Router) {
		r.Use(auth.Optional(jwtSecret))
		r.Get("/f/{formId}", h.Pages.Show)
		r.Post("/f/{formId}", h.Pages.Submit)
	})

	r.Route("/api/v1", func(r chi.Router) {
		r.Post("/auth/signout", handler.SignOut)
		r.Get("/field-types", handler.ListFieldTypes)
		r.Get("/field-types/{typeId}", handler.GetFieldType)
		r.Get("/field-types/{typeId}/new", handler.NewField)

		// Respondent routes
		r.Route("/public/forms/{formId}", func(r chi.Router) {
			r.Use(auth.Optional(jwtSecret))
			r.Get("/", h.Public.Schema)
			r.Post("/responses", h.Public.Submit)
			r.Post("/uploads", h.Uploads.Upload)
			r.Get("/draft", h.Public.LoadDraft)
			r.Put("/draft", h.Public.SaveDraft)
			r.Delete("/draft", h.Public.DeleteDraft)
		})

		// Owner routes
		r.Group(func(r chi.Router) {
			r.Use(auth.Middleware(jwtSecret))

			r.Get("/auth/me", handler.Me)
			r.Get("/dashboard", h.Dashboard.Dashboard)

			r.Get("/forms", h.Forms.List)
			r.Post("/forms", h.Forms.Create)
			r.Route("/forms/{formId}", func(r chi.Router) {
				r.Get("/", h.Forms.Get)
				r.Put("/", h.Forms.Update)
				r.Delete("/", h.Forms.Delete)
				r.Post("/duplicate", h.Forms.Duplicate)
				r.Post("/publish", h.Forms.Publish())
				r.Post("/unpublish", h.Forms.Unpublish())
				r.Post("/archive", h.Forms.Archive())
				r.Post("/unarchive", h.Forms.Unarchive())

				r.Get("/responses", h.Responses.List)
				r.Get("/responses/export", h.Responses.Export)
				r.Get("/responses/{responseId}", h.Responses.Get)
				r.Delete("/responses/{responseId}", h.Responses.Delete)

				r.Get("/uploads/{uploadId}", h.Uploads.Download)
			})
		})
	})

	return r
}
