package handler

import (
	"errors"

	"github.com/gofiber/fiber/v3"

	"github.com/Alijeyrad/teleclinic_backend/internal/api/http/middleware"
	"github.com/Alijeyrad/teleclinic_backend/internal/repo"
	"github.com/Alijeyrad/teleclinic_backend/internal/service/booking"
	"github.com/Alijeyrad/teleclinic_backend/pkg/reqctx"
)

type BookingHandler struct {
	svc booking.Service
}

func NewBookingHandler(svc booking.Service) *BookingHandler {
	return &BookingHandler{svc: svc}
}

func mapBookingError(c fiber.Ctx, err error) error {
	switch {
	case errors.Is(err, booking.ErrNotFound),
		errors.Is(err, booking.ErrDoctorNotFound):
		return notFound(c, err.Error())
	case errors.Is(err, booking.ErrValidation):
		return badRequest(c, err.Error())
	case errors.Is(err, booking.ErrSlotUnavailable):
		return unprocessable(c, err.Error())
	case errors.Is(err, booking.ErrSlotTaken),
		errors.Is(err, booking.ErrInvalidTransition):
		return conflict(c, err.Error())
	case errors.Is(err, booking.ErrForbidden):
		return forbidden(c, err.Error())
	default:
		return internalError(c, err)
	}
}

// POST /bookings
//
// Guests may book; a signed-in patient's booking is linked to their account.
func (h *BookingHandler) Create(c fiber.Ctx) error {
	var body booking.CreateRequest
	if err := c.Bind().JSON(&body); err != nil {
		return badRequest(c, "invalid request body")
	}
	if body.Locale == "" {
		body.Locale = middleware.LocaleFromFiber(c)
	}

	var sess *reqctx.Session
	if s, found := sessionFromLocals(c); found {
		sess = &s
	}

	b, err := h.svc.Create(c.Context(), sess, body)
	if err != nil {
		return mapBookingError(c, err)
	}
	return created(c, b)
}

// GET /bookings/mine
func (h *BookingHandler) ListMine(c fiber.Ctx) error {
	sess, valid := sessionFromLocals(c)
	if !valid {
		return unauthorized(c)
	}

	bookings, err := h.svc.ListMine(c.Context(), sess)
	if err != nil {
		return mapBookingError(c, err)
	}
	return ok(c, bookings)
}

// GET /bookings/:id
func (h *BookingHandler) Get(c fiber.Ctx) error {
	sess, valid := sessionFromLocals(c)
	if !valid {
		return unauthorized(c)
	}
	id, valid := idParam(c, "id")
	if !valid {
		return badRequest(c, "invalid booking id")
	}

	b, err := h.svc.Get(c.Context(), sess, id)
	if err != nil {
		return mapBookingError(c, err)
	}
	return ok(c, b)
}

// GET /doctors/:id/bookings?date=YYYY-MM-DD
func (h *BookingHandler) ListForDoctor(c fiber.Ctx) error {
	sess, valid := sessionFromLocals(c)
	if !valid {
		return unauthorized(c)
	}
	doctorID, valid := idParam(c, "id")
	if !valid {
		return badRequest(c, "invalid doctor id")
	}

	bookings, err := h.svc.ListForDoctor(c.Context(), sess, doctorID, c.Query("date"))
	if err != nil {
		return mapBookingError(c, err)
	}
	return ok(c, bookings)
}

// PATCH /bookings/:id/status
func (h *BookingHandler) UpdateStatus(c fiber.Ctx) error {
	sess, valid := sessionFromLocals(c)
	if !valid {
		return unauthorized(c)
	}
	id, valid := idParam(c, "id")
	if !valid {
		return badRequest(c, "invalid booking id")
	}

	var body struct {
		Status repo.BookingStatus `json:"status"`
	}
	if err := c.Bind().JSON(&body); err != nil {
		return badRequest(c, "invalid request body")
	}

	b, err := h.svc.UpdateStatus(c.Context(), sess, id, body.Status)
	if err != nil {
		return mapBookingError(c, err)
	}
	return ok(c, b)
}
