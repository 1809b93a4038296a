package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/match-service/internal/api/http/handlers"
	"github.com/spec-kit/match-service/internal/auth"
)

// RouteConfig bundles dependencies for route registration.
type RouteConfig struct {
	Health         *handlers.HealthHandler
	Matches        *handlers.MatchesHandler
	ChatRooms      *handlers.ChatRoomsHandler
	Deals          *handlers.DealsHandler
	Users          *handlers.UsersHandler
	Stats          *handlers.StatsHandler
	AuthMiddleware *auth.AuthMiddleware
}

// RegisterRoutes wires HTTP routes.
func RegisterRoutes(app *fiber.App, cfg RouteConfig) {
	app.Get("/health/live", cfg.Health.Live)
	app.Get("/health/ready", cfg.Health.Ready)

	// aggregate stats are public; everything else identifies the caller
	app.Get("/api/v1/stats", cfg.Stats.GetStats)

	api := app.Group("/api/v1", cfg.AuthMiddleware.Handle)

	matches := api.Group("/matches")
	matches.Get("", cfg.Matches.ListMatches)
	matches.Post("/:user_id", cfg.Matches.RequestInterest)
	matches.Delete("/:user_id", cfg.Matches.WithdrawInterest)
	matches.Post("/:user_id/accept", cfg.Matches.AcceptPending)
	matches.Post("/:user_id/reject", cfg.Matches.RejectPending)
	matches.Get("/:user_id/status", cfg.Matches.RelationshipStatus)
	matches.Get("/:user_id/compatibility", cfg.Matches.CheckCompatibility)

	rooms := api.Group("/chat-rooms")
	rooms.Get("", cfg.ChatRooms.ListRooms)
	rooms.Get("/:id/messages", cfg.ChatRooms.ListMessages)
	rooms.Post("/:id/messages", cfg.ChatRooms.SendMessage)

	deals := api.Group("/deals")
	deals.Post("", cfg.Deals.CreateDeal)
	deals.Get("", cfg.Deals.ListDeals)
	deals.Get("/:id", cfg.Deals.GetDeal)
	deals.Patch("/:id", cfg.Deals.UpdateDeal)
	deals.Post("/:id/accept", cfg.Deals.Accept)
	deals.Post("/:id/start", cfg.Deals.Start)
	deals.Post("/:id/complete", cfg.Deals.Complete)
	deals.Post("/:id/cancel", cfg.Deals.Cancel)

	users := api.Group("/users")
	users.Get("", cfg.Users.ListUsers)
	users.Get("/:id", cfg.Users.GetUser)

	api.Post("/stats/refresh", cfg.Stats.Refresh)
}
