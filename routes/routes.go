package routes

import (
	"github.com/Dosada05/matchday/handlers"
	"github.com/Dosada05/matchday/middleware"
	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
)

func SetupRoutes(
	router *chi.Mux,
	teamHandler *handlers.TeamHandler,
	matchRequestHandler *handlers.MatchRequestHandler,
	matchHandler *handlers.MatchHandler,
	requestHandler *handlers.RequestHandler,
	notificationHandler *handlers.NotificationHandler,
	webSocketHandler *handlers.WebSocketHandler,
	jwtSecret string,
) {
	router.Use(chiMiddleware.RequestID)
	router.Use(chiMiddleware.RealIP)
	router.Use(chiMiddleware.Logger)
	router.Use(chiMiddleware.Recoverer)

	router.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"*"},
		AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: false,
		MaxAge:           300,
	}))

	authenticate := middleware.Authenticate(jwtSecret)

	router.Route("/teams", func(r chi.Router) {
		r.Get("/{teamID}", teamHandler.GetTeamHandler)
		r.Get("/{teamID}/matches", matchHandler.ListTeamMatchesHandler)
		r.Get("/{teamID}/match-requests", matchRequestHandler.ListTeamMatchRequestsHandler)

		r.Group(func(r chi.Router) {
			r.Use(authenticate)

			r.Post("/", teamHandler.CreateTeamHandler)
			r.Patch("/{teamID}/name", teamHandler.UpdateTeamNameHandler)
			r.Post("/{teamID}/logo", teamHandler.UploadTeamLogoHandler)
			r.Post("/{teamID}/cover", teamHandler.UploadTeamCoverHandler)
			r.Post("/leave", teamHandler.LeaveTeamHandler)
		})
	})

	router.Route("/match-requests", func(r chi.Router) {
		r.Use(authenticate)

		r.Post("/", matchRequestHandler.ProposeMatchHandler)
		r.Post("/{requestID}/accept", matchRequestHandler.AcceptMatchRequestHandler)
		r.Post("/{requestID}/decline", matchRequestHandler.DeclineMatchRequestHandler)
	})

	router.Route("/matches", func(r chi.Router) {
		r.Use(authenticate)

		r.Post("/{matchID}/result", matchHandler.SubmitResultHandler)
		r.Post("/{matchID}/confirm", matchHandler.ConfirmResultHandler)
		r.Post("/{matchID}/dispute", matchHandler.DisputeResultHandler)
	})

	router.Route("/requests", func(r chi.Router) {
		r.Use(authenticate)

		r.Post("/", requestHandler.SendRequestHandler)
		r.Get("/pending", requestHandler.ListPendingRequestsHandler)
		r.Post("/{requestID}/accept", requestHandler.AcceptRequestHandler)
		r.Post("/{requestID}/decline", requestHandler.DeclineRequestHandler)
	})

	router.Route("/notifications", func(r chi.Router) {
		r.Use(authenticate)

		r.Get("/", notificationHandler.ListNotificationsHandler)
		r.Get("/unread-count", notificationHandler.UnreadCountHandler)
		r.Post("/{notificationID}/read", notificationHandler.MarkNotificationReadHandler)
		r.Post("/read-all", notificationHandler.MarkAllNotificationsReadHandler)
		r.Post("/chat", notificationHandler.ChatAlertHandler)
	})

	router.Route("/ws", func(r chi.Router) {
		r.Use(authenticate)

		r.Get("/notifications", webSocketHandler.ServeNotifications)
		r.Get("/teams/{teamID}/matches", webSocketHandler.ServeTeamMatches)
	})
}
