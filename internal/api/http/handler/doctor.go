package handler

import (
	"errors"
	"strconv"

	"github.com/gofiber/fiber/v3"

	"github.com/Alijeyrad/teleclinic_backend/internal/service/doctor"
	"github.com/Alijeyrad/teleclinic_backend/internal/service/scheduling"
)

type DoctorHandler struct {
	doctors  doctor.Service
	schedule scheduling.Service
}

func NewDoctorHandler(doctors doctor.Service, schedule scheduling.Service) *DoctorHandler {
	return &DoctorHandler{doctors: doctors, schedule: schedule}
}

func mapScheduleError(c fiber.Ctx, err error) error {
	switch {
	case errors.Is(err, scheduling.ErrDoctorNotFound):
		return notFound(c, err.Error())
	case errors.Is(err, scheduling.ErrForbidden):
		return forbidden(c, err.Error())
	case errors.Is(err, scheduling.ErrInvalidTemplate),
		errors.Is(err, scheduling.ErrInvalidDate),
		errors.Is(err, scheduling.ErrInvalidHorizon):
		return badRequest(c, err.Error())
	default:
		return internalError(c, err)
	}
}

// GET /doctors
func (h *DoctorHandler) List(c fiber.Ctx) error {
	var q struct {
		Specialty string `query:"specialty"`
		Page      int    `query:"page"`
		PerPage   int    `query:"per_page"`
	}
	if err := c.Bind().Query(&q); err != nil {
		return badRequest(c, "invalid query")
	}

	doctors, err := h.doctors.List(c.Context(), doctor.ListRequest{
		Specialty: q.Specialty,
		Page:      q.Page,
		PerPage:   q.PerPage,
	})
	if err != nil {
		return internalError(c, err)
	}
	return ok(c, doctors)
}

// GET /doctors/:id
func (h *DoctorHandler) Get(c fiber.Ctx) error {
	id, valid := idParam(c, "id")
	if !valid {
		return badRequest(c, "invalid doctor id")
	}

	d, err := h.doctors.Get(c.Context(), id)
	if err != nil {
		if errors.Is(err, doctor.ErrNotFound) {
			return notFound(c, err.Error())
		}
		return internalError(c, err)
	}
	return ok(c, d)
}

// GET /doctors/:id/schedule
func (h *DoctorHandler) GetSchedule(c fiber.Ctx) error {
	id, valid := idParam(c, "id")
	if !valid {
		return badRequest(c, "invalid doctor id")
	}

	tmpl, err := h.schedule.GetTemplate(c.Context(), id)
	if err != nil {
		return mapScheduleError(c, err)
	}
	return ok(c, tmpl)
}

// PUT /doctors/:id/schedule
func (h *DoctorHandler) SaveSchedule(c fiber.Ctx) error {
	sess, valid := sessionFromLocals(c)
	if !valid {
		return unauthorized(c)
	}
	id, valid := idParam(c, "id")
	if !valid {
		return badRequest(c, "invalid doctor id")
	}

	var body scheduling.SaveTemplateRequest
	if err := c.Bind().JSON(&body); err != nil {
		return badRequest(c, "invalid request body")
	}

	tmpl, err := h.schedule.SaveTemplate(c.Context(), sess, id, body)
	if err != nil {
		return mapScheduleError(c, err)
	}
	return ok(c, tmpl)
}

// GET /doctors/:id/slots?date=YYYY-MM-DD
func (h *DoctorHandler) Slots(c fiber.Ctx) error {
	id, valid := idParam(c, "id")
	if !valid {
		return badRequest(c, "invalid doctor id")
	}
	date := c.Query("date")
	if date == "" {
		return badRequest(c, "date is required")
	}

	day, err := h.schedule.DayAvailability(c.Context(), id, date)
	if err != nil {
		return mapScheduleError(c, err)
	}
	return ok(c, day)
}

// GET /doctors/:id/calendar?days=N
func (h *DoctorHandler) Calendar(c fiber.Ctx) error {
	id, valid := idParam(c, "id")
	if !valid {
		return badRequest(c, "invalid doctor id")
	}

	days := 0
	if raw := c.Query("days"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil {
			return badRequest(c, "days must be a number")
		}
		days = n
	}

	calendar, err := h.schedule.UpcomingDays(c.Context(), id, days)
	if err != nil {
		return mapScheduleError(c, err)
	}
	return ok(c, calendar)
}
