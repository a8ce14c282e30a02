package handler

import (
	"context"
	"errors"
	"time"

	"github.com/gofiber/fiber/v3"
	"github.com/google/uuid"

	"github.com/Alijeyrad/teleclinic_backend/internal/repo"
	"github.com/Alijeyrad/teleclinic_backend/internal/service/chat"
	"github.com/Alijeyrad/teleclinic_backend/pkg/reqctx"
	"github.com/Alijeyrad/teleclinic_backend/pkg/watch"
)

type ChatHandler struct {
	svc       chat.Service
	keepAlive time.Duration
}

func NewChatHandler(svc chat.Service, keepAlive time.Duration) *ChatHandler {
	return &ChatHandler{svc: svc, keepAlive: keepAlive}
}

func mapChatError(c fiber.Ctx, err error) error {
	var exists *chat.ThreadExistsError
	if errors.As(err, &exists) {
		return c.Status(fiber.StatusConflict).JSON(fiber.Map{"error": err.Error(), "data": exists.Thread})
	}

	switch {
	case errors.Is(err, chat.ErrNotFound),
		errors.Is(err, chat.ErrDoctorNotFound):
		return notFound(c, err.Error())
	case errors.Is(err, chat.ErrValidation),
		errors.Is(err, chat.ErrMissingDisplayName):
		return badRequest(c, err.Error())
	case errors.Is(err, chat.ErrPatientOnly),
		errors.Is(err, chat.ErrNotThreadDoctor),
		errors.Is(err, chat.ErrNotParticipant):
		return forbidden(c, err.Error())
	case errors.Is(err, chat.ErrDuplicateThread),
		errors.Is(err, chat.ErrRequestRejected),
		errors.Is(err, chat.ErrNotPending),
		errors.Is(err, chat.ErrNotAccepted),
		errors.Is(err, chat.ErrPendingRequest):
		return conflict(c, err.Error())
	default:
		return internalError(c, err)
	}
}

// GET /chats
func (h *ChatHandler) List(c fiber.Ctx) error {
	sess, valid := sessionFromLocals(c)
	if !valid {
		return unauthorized(c)
	}

	threads, err := h.svc.ListChats(c.Context(), sess)
	if err != nil {
		return mapChatError(c, err)
	}
	return ok(c, threads)
}

// GET /chats/stream
func (h *ChatHandler) Stream(c fiber.Ctx) error {
	sess, valid := sessionFromLocals(c)
	if !valid {
		return unauthorized(c)
	}

	err := serveStream(c, h.keepAlive, func(ctx context.Context, fn func([]*repo.ChatThread, error)) (*watch.Subscription, error) {
		return h.svc.WatchChats(ctx, sess, fn)
	})
	if err != nil {
		return mapChatError(c, err)
	}
	return nil
}

// POST /chats
func (h *ChatHandler) Create(c fiber.Ctx) error {
	sess, valid := sessionFromLocals(c)
	if !valid {
		return unauthorized(c)
	}

	var body chat.CreateRequest
	if err := c.Bind().JSON(&body); err != nil {
		return badRequest(c, "invalid request body")
	}

	t, err := h.svc.CreateRequest(c.Context(), sess, body)
	if err != nil {
		return mapChatError(c, err)
	}
	return created(c, t)
}

// GET /chats/:id
func (h *ChatHandler) Get(c fiber.Ctx) error {
	sess, valid := sessionFromLocals(c)
	if !valid {
		return unauthorized(c)
	}
	id, valid := idParam(c, "id")
	if !valid {
		return badRequest(c, "invalid chat id")
	}

	t, err := h.svc.Get(c.Context(), sess, id)
	if err != nil {
		return mapChatError(c, err)
	}
	return ok(c, t)
}

// POST /chats/:id/accept
func (h *ChatHandler) Accept(c fiber.Ctx) error {
	return h.answer(c, h.svc.Accept)
}

// POST /chats/:id/reject
func (h *ChatHandler) Reject(c fiber.Ctx) error {
	return h.answer(c, h.svc.Reject)
}

func (h *ChatHandler) answer(c fiber.Ctx, fn func(context.Context, reqctx.Session, uuid.UUID) (*repo.ChatThread, error)) error {
	sess, valid := sessionFromLocals(c)
	if !valid {
		return unauthorized(c)
	}
	id, valid := idParam(c, "id")
	if !valid {
		return badRequest(c, "invalid chat id")
	}

	t, err := fn(c.Context(), sess, id)
	if err != nil {
		return mapChatError(c, err)
	}
	return ok(c, t)
}

// GET /chats/:id/messages
func (h *ChatHandler) Messages(c fiber.Ctx) error {
	sess, valid := sessionFromLocals(c)
	if !valid {
		return unauthorized(c)
	}
	id, valid := idParam(c, "id")
	if !valid {
		return badRequest(c, "invalid chat id")
	}

	msgs, err := h.svc.ListMessages(c.Context(), sess, id)
	if err != nil {
		return mapChatError(c, err)
	}
	return ok(c, msgs)
}

// GET /chats/:id/messages/stream
func (h *ChatHandler) MessagesStream(c fiber.Ctx) error {
	sess, valid := sessionFromLocals(c)
	if !valid {
		return unauthorized(c)
	}
	id, valid := idParam(c, "id")
	if !valid {
		return badRequest(c, "invalid chat id")
	}

	err := serveStream(c, h.keepAlive, func(ctx context.Context, fn func([]*repo.ChatMessage, error)) (*watch.Subscription, error) {
		return h.svc.WatchMessages(ctx, sess, id, fn)
	})
	if err != nil {
		return mapChatError(c, err)
	}
	return nil
}

// POST /chats/:id/messages
func (h *ChatHandler) Send(c fiber.Ctx) error {
	sess, valid := sessionFromLocals(c)
	if !valid {
		return unauthorized(c)
	}
	id, valid := idParam(c, "id")
	if !valid {
		return badRequest(c, "invalid chat id")
	}

	var body struct {
		Text string `json:"text"`
	}
	if err := c.Bind().JSON(&body); err != nil {
		return badRequest(c, "invalid request body")
	}

	msg, err := h.svc.SendMessage(c.Context(), sess, id, body.Text)
	if err != nil {
		return mapChatError(c, err)
	}
	return created(c, msg)
}

// POST /chats/:id/read
func (h *ChatHandler) MarkRead(c fiber.Ctx) error {
	sess, valid := sessionFromLocals(c)
	if !valid {
		return unauthorized(c)
	}
	id, valid := idParam(c, "id")
	if !valid {
		return badRequest(c, "invalid chat id")
	}

	if err := h.svc.MarkRead(c.Context(), sess, id); err != nil {
		return mapChatError(c, err)
	}
	return noContent(c)
}

// DELETE /chats/:id
func (h *ChatHandler) Delete(c fiber.Ctx) error {
	sess, valid := sessionFromLocals(c)
	if !valid {
		return unauthorized(c)
	}
	id, valid := idParam(c, "id")
	if !valid {
		return badRequest(c, "invalid chat id")
	}

	if err := h.svc.Delete(c.Context(), sess, id); err != nil {
		return mapChatError(c, err)
	}
	return noContent(c)
}
