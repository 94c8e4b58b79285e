package routes

import (
	"github.com/go-chi/chi/v5"

	"github.com/gyanpath/lms-backend/internal/handlers"
	"github.com/gyanpath/lms-backend/internal/middleware"
	"github.com/gyanpath/lms-backend/internal/models"
	"github.com/gyanpath/lms-backend/internal/services"
	"github.com/gyanpath/lms-backend/internal/store"
)

// Setup wires the HTTP surface. Auth gates: session (valid token), role
// (ADMIN) and subscriber (active subscription or ADMIN).
func Setup(r *chi.Mux, auth *handlers.AuthHandler, courses *handlers.CourseHandler, payments *handlers.PaymentHandler, sessions *services.SessionService, users store.UserStore) {
	requireAuth := middleware.Auth(sessions)
	requireAdmin := middleware.RequireRole(models.RoleAdmin)
	requireSubscriber := middleware.RequireSubscriber(users)

	r.Route("/users", func(r chi.Router) {
		r.Post("/register", auth.Register)
		r.Post("/login", auth.Login)
		r.Post("/forgot-password", auth.ForgotPassword)
		r.Post("/reset-password/{resetToken}", auth.ResetPassword)

		r.Group(func(r chi.Router) {
			r.Use(requireAuth)
			r.Post("/logout", auth.Logout)
			r.Get("/me", auth.GetProfile)
			r.Put("/update", auth.UpdateProfile)
			r.Post("/change-password", auth.ChangePassword)
		})
	})

	r.Route("/courses", func(r chi.Router) {
		r.Group(func(r chi.Router) {
			r.Use(requireAuth, requireSubscriber)
			r.Get("/", courses.List)
		})

		r.Group(func(r chi.Router) {
			r.Use(requireAuth)
			r.Get("/{id}", courses.GetLectures)
		})

		r.Group(func(r chi.Router) {
			r.Use(requireAuth, requireAdmin)
			r.Post("/", courses.Create)
			r.Put("/{id}", courses.Update)
			r.Delete("/{id}", courses.Remove)
			r.Post("/{id}", courses.AddLecture)
		})
	})

	r.Route("/payments", func(r chi.Router) {
		r.Get("/razorpay-key", payments.Key)

		r.Group(func(r chi.Router) {
			r.Use(requireAuth)
			r.Post("/subscribe", payments.Subscribe)
			r.Post("/verify", payments.Verify)
			r.Post("/unsubscribe", payments.Unsubscribe)
		})

		r.Group(func(r chi.Router) {
			r.Use(requireAuth, requireAdmin)
			r.Get("/", payments.ListAll)
		})
	})
}
