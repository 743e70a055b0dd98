package server

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"duoduo-bargain/pkg/httpx/reply"
)

func (s Server) RegisterRoutes(r chi.Router) { //nolint:funlen
	r.Route("/v1", func(r chi.Router) {
		r.Route("/auth", func(r chi.Router) {
			r.Get("/secondme/callback", handler(s.getV1AuthCallback))
			r.Post("/mock-login", handler(s.postV1MockLogin))
			r.Post("/logout", handler(s.postV1Logout))

			r.Group(func(r chi.Router) {
				r.Use(s.requireLogin)
				r.Get("/me", handler(s.getV1Me))
			})
		})

		r.Route("/products", func(r chi.Router) {
			r.Get("/", handler(s.getV1Products))
			r.Post("/cleanup", handler(s.postV1ProductsCleanup))

			r.Group(func(r chi.Router) {
				r.Use(s.requireLogin)
				r.Post("/", handler(s.postV1Product))
				r.Get("/mine", handler(s.getV1MyProducts))
				r.Put("/{id}", handler(s.putV1Product))
				r.Delete("/{id}", handler(s.deleteV1Product))
			})

			r.Get("/{id}", handler(s.getV1Product))
		})

		r.Route("/bargains", func(r chi.Router) {
			r.Group(func(r chi.Router) {
				r.Use(s.requireLogin)
				r.Post("/", handler(s.postV1Bargain))
				r.Get("/my-purchases", handler(s.getV1MyPurchases))
			})

			r.Get("/{id}", handler(s.getV1Bargain))
			r.Get("/{id}/stream", handler(s.getV1BargainStream))
		})
	})
}

func handler(f func(http.ResponseWriter, *http.Request) error) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := f(w, r); err != nil {
			reply.Error(r.Context(), w, err)
		}
	}
}
