package routes

import (
	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	httpSwagger "github.com/swaggo/http-swagger"

	"github.com/courtly/club-system/handlers"
	"github.com/courtly/club-system/middleware"
	"github.com/courtly/club-system/services"
)

// SetupRoutes wires every handler into the router. Public reads stay
// open; mutations require a token, administrative mutations require
// the organizer or admin role.
func SetupRoutes(
	router *chi.Mux,
	jwtSecret string,
	authHandler *handlers.AuthHandler,
	userHandler *handlers.UserHandler,
	clubHandler *handlers.ClubHandler,
	sportHandler *handlers.SportHandler,
	eventHandler *handlers.EventHandler,
	teamHandler *handlers.TeamHandler,
	groupHandler *handlers.GroupHandler,
	matchHandler *handlers.MatchHandler,
	ratingHandler *handlers.RatingHandler,
	waitListHandler *handlers.WaitListHandler,
	liveHandler *handlers.LiveHandler,
) {
	router.Use(chiMiddleware.RequestID)
	router.Use(chiMiddleware.RealIP)
	router.Use(chiMiddleware.Logger)
	router.Use(chiMiddleware.Recoverer)
	router.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"https://*", "http://*"},
		AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	authenticate := middleware.Authenticator(jwtSecret)
	organizerOnly := middleware.RequireRole(services.RoleOrganizer, services.RoleAdmin)
	adminOnly := middleware.RequireRole(services.RoleAdmin)

	router.Get("/swagger/*", httpSwagger.WrapHandler)

	router.Post("/auth/register", authHandler.Register)
	router.Post("/auth/login", authHandler.Login)

	router.Route("/users", func(r chi.Router) {
		r.Get("/{userID}", userHandler.GetByID)
		r.Get("/{userID}/ratings", ratingHandler.ListUserRatings)
		r.Get("/{userID}/ratings/current", ratingHandler.GetRating)
		r.Get("/{userID}/ratings/history", ratingHandler.History)

		r.Group(func(r chi.Router) {
			r.Use(authenticate)
			r.Get("/me", userHandler.GetProfile)
			r.Put("/me", userHandler.UpdateProfile)
			r.Post("/me/avatar", userHandler.UploadAvatar)
		})
	})

	router.Route("/ratings", func(r chi.Router) {
		r.Get("/convert", ratingHandler.ConvertScale)
		r.Group(func(r chi.Router) {
			r.Use(authenticate)
			r.Post("/assessment", ratingHandler.SubmitAssessment)
		})
	})

	router.Route("/clubs", func(r chi.Router) {
		r.Get("/", clubHandler.List)
		r.Get("/{clubID}", clubHandler.GetByID)
		r.Get("/{clubID}/courts", clubHandler.ListCourts)

		r.Group(func(r chi.Router) {
			r.Use(authenticate)
			r.Use(organizerOnly)
			r.Post("/", clubHandler.Create)
			r.Put("/{clubID}", clubHandler.Update)
			r.Post("/{clubID}/logo", clubHandler.UploadLogo)
			r.Delete("/{clubID}", clubHandler.Delete)
			r.Post("/{clubID}/courts", clubHandler.CreateCourt)
			r.Delete("/courts/{courtID}", clubHandler.DeleteCourt)
		})
	})

	router.Route("/sports", func(r chi.Router) {
		r.Get("/", sportHandler.List)
		r.Get("/{sportID}", sportHandler.GetByID)

		r.Group(func(r chi.Router) {
			r.Use(authenticate)
			r.Use(adminOnly)
			r.Post("/", sportHandler.Create)
			r.Put("/{sportID}", sportHandler.Update)
			r.Delete("/{sportID}", sportHandler.Delete)
		})
	})

	router.Route("/events", func(r chi.Router) {
		r.Get("/", eventHandler.List)
		r.Get("/{eventID}", eventHandler.GetByID)
		r.Get("/{eventID}/overview", eventHandler.GetOverview)
		r.Get("/{eventID}/teams", teamHandler.ListByEvent)
		r.Get("/{eventID}/waitlist", waitListHandler.List)
		r.Get("/{eventID}/live", liveHandler.Subscribe)

		r.Group(func(r chi.Router) {
			r.Use(authenticate)
			r.Post("/{eventID}/teams", teamHandler.Register)
			r.Post("/{eventID}/waitlist", waitListHandler.Join)
		})

		r.Group(func(r chi.Router) {
			r.Use(authenticate)
			r.Use(organizerOnly)
			r.Post("/", eventHandler.Create)
			r.Put("/{eventID}", eventHandler.Update)
			r.Patch("/{eventID}/status", eventHandler.ChangeStatus)
			r.Post("/{eventID}/logo", eventHandler.UploadLogo)
			r.Post("/{eventID}/groups", eventHandler.FormGroups)
			r.Post("/{eventID}/schedule", eventHandler.Schedule)
			r.Post("/{eventID}/scores/submit", eventHandler.SubmitAllScores)
			r.Post("/{eventID}/waitlist/promote", waitListHandler.PromoteNext)
			r.Delete("/{eventID}", eventHandler.Delete)
		})
	})

	router.Route("/teams", func(r chi.Router) {
		r.Get("/{teamID}", teamHandler.GetByID)

		r.Group(func(r chi.Router) {
			r.Use(authenticate)
			r.Post("/{teamID}/join", teamHandler.JoinTeam)
			r.Post("/{teamID}/leave", teamHandler.LeaveTeam)
			r.Post("/{teamID}/check-in", teamHandler.CheckIn)
			r.Post("/{teamID}/withdraw", teamHandler.Withdraw)
		})
	})

	router.Route("/groups", func(r chi.Router) {
		r.Use(authenticate)
		r.Use(organizerOnly)
		r.Post("/{groupID}/teams", groupHandler.MoveTeam)
		r.Put("/{groupID}/courts", groupHandler.UpdateCourtNumbers)
		r.Post("/{groupID}/finalize", groupHandler.Finalize)
		r.Post("/{groupID}/schedule", groupHandler.Schedule)
	})

	router.Route("/matches", func(r chi.Router) {
		r.Use(authenticate)
		r.Put("/{matchID}/score", matchHandler.UpdateScore)
		r.Group(func(r chi.Router) {
			r.Use(organizerOnly)
			r.Post("/{matchID}/verify", matchHandler.VerifyScore)
			r.Post("/{matchID}/withdraw", matchHandler.Withdraw)
		})
	})

	router.Route("/waitlist", func(r chi.Router) {
		r.Use(authenticate)
		r.Delete("/{entryID}", waitListHandler.Cancel)
	})
}
