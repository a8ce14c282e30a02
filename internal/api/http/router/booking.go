package router

import (
	"github.com/gofiber/fiber/v3"

	"github.com/Alijeyrad/teleclinic_backend/internal/api/http/handler"
	"github.com/Alijeyrad/teleclinic_backend/pkg/authorize"
)

func (r *Router) registerBookingRoutes(
	api fiber.Router,
	bh *handler.BookingHandler,
	authRequired fiber.Handler,
	optionalAuth fiber.Handler,
	requirePerm func(authorize.Resource, authorize.Action) fiber.Handler,
) {
	bookings := api.Group("/bookings")

	// Guests can book without an account
	bookings.Post("/", optionalAuth, bh.Create)

	bookings.Get("/mine", authRequired, requirePerm(authorize.ResourceBooking, authorize.ActionList), bh.ListMine)
	bookings.Get("/:id", authRequired, requirePerm(authorize.ResourceBooking, authorize.ActionRead), bh.Get)
	bookings.Patch("/:id/status", authRequired, requirePerm(authorize.ResourceBooking, authorize.ActionUpdate), bh.UpdateStatus)
}
