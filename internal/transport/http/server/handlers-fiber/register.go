package handlers_fiber

import (
	"github.com/gofiber/fiber/v2"

	"github.com/Khangurai/zap-admin/internal/transport/http/middleware"
)

// Register mounts the API under /api. Everything except login needs a
// bearer token.
func Register(app *fiber.App, h *Handler) {
	api := app.Group("/api")
	api.Post("/auth/login", h.Login)

	auth := api.Group("", middleware.BearerAuth(h.log, h.uc))
	auth.Post("/auth/logout", h.Logout)
	auth.Get("/auth/me", h.Me)

	auth.Get("/users", h.ListUsers)
	auth.Post("/users", h.CreateUser)
	auth.Get("/users/markers", h.UserMarkers)
	auth.Patch("/users/:id", h.UpdateUser)
	auth.Delete("/users/:id", h.DeleteUser)
	auth.Put("/users/:id/status", h.SetUserStatus)

	auth.Get("/cars", h.ListCars)
	auth.Post("/cars", h.CreateCar)
	auth.Get("/cars/:id", h.GetCar)
	auth.Patch("/cars/:id", h.UpdateCar)
	auth.Delete("/cars/:id", h.DeleteCar)

	auth.Get("/routes", h.ListRoutes)
	auth.Post("/routes", h.CreateRoute)
	auth.Get("/routes/:id", h.GetRoute)
	auth.Delete("/routes/:id", h.DeleteRoute)
	auth.Put("/routes/:id/assign", h.AssignRoute)
	auth.Get("/routes/:id/static-map", h.RouteStaticMap)

	auth.Get("/profile", h.GetProfile)
	auth.Patch("/profile", h.UpdateProfile)
	auth.Put("/profile/avatar", h.UploadAvatar)
	auth.Delete("/profile/avatar", h.RemoveAvatar)

	auth.Post("/plans", h.CreatePlan)
	auth.Get("/plans/:id", h.GetPlan)
	auth.Delete("/plans/:id", h.DeletePlan)
	auth.Post("/plans/:id/clear", h.ClearPlan)
	auth.Put("/plans/:id/origin", h.SetOrigin)
	auth.Put("/plans/:id/destination", h.SetDestination)
	auth.Put("/plans/:id/origin/position", h.MoveOrigin)
	auth.Put("/plans/:id/destination/position", h.MoveDestination)
	auth.Post("/plans/:id/waypoints", h.AddWaypoint)
	auth.Post("/plans/:id/waypoints/users", h.AddWaypointsFromUsers)
	auth.Post("/plans/:id/waypoints/reorder", h.ReorderWaypoints)
	auth.Delete("/plans/:id/waypoints/:wid", h.RemoveWaypoint)
	auth.Put("/plans/:id/waypoints/:wid/position", h.MoveWaypoint)
	auth.Put("/plans/:id/settings", h.UpdateSettings)
	auth.Post("/plans/:id/directions", h.FetchDirections)
	auth.Post("/plans/:id/apply-order", h.ApplyOptimizedOrder)
	auth.Post("/plans/:id/geojson", h.SaveRouteGeoJSON)
	auth.Get("/plans/:id/maps-url", h.PlanMapsURL)
	auth.Post("/plans/:id/save", h.SavePlan)

	auth.Post("/optimizations", h.SubmitOptimization)
	auth.Get("/optimizations/:id", h.GetOptimization)

	auth.Get("/vehicles", h.ListVehicles)
}
