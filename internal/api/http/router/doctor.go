package router

import (
	"github.com/gofiber/fiber/v3"

	"github.com/Alijeyrad/teleclinic_backend/internal/api/http/handler"
	"github.com/Alijeyrad/teleclinic_backend/pkg/authorize"
)

func (r *Router) registerDoctorRoutes(
	api fiber.Router,
	dh *handler.DoctorHandler,
	bh *handler.BookingHandler,
	authRequired fiber.Handler,
	requirePerm func(authorize.Resource, authorize.Action) fiber.Handler,
) {
	// Public: directory and availability
	doctors := api.Group("/doctors")
	doctors.Get("/", dh.List)
	doctors.Get("/:id", dh.Get)
	doctors.Get("/:id/schedule", dh.GetSchedule)
	doctors.Get("/:id/slots", dh.Slots)
	doctors.Get("/:id/calendar", dh.Calendar)

	doctors.Put("/:id/schedule", authRequired, requirePerm(authorize.ResourceSchedule, authorize.ActionUpdate), dh.SaveSchedule)
	doctors.Get("/:id/bookings", authRequired, requirePerm(authorize.ResourceBooking, authorize.ActionList), bh.ListForDoctor)
}
