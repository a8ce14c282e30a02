package router

import (
	"github.com/gofiber/fiber/v3"

	"github.com/Alijeyrad/teleclinic_backend/internal/api/http/handler"
	"github.com/Alijeyrad/teleclinic_backend/pkg/authorize"
)

func (r *Router) registerChatRoutes(
	api fiber.Router,
	ch *handler.ChatHandler,
	authRequired fiber.Handler,
	requirePerm func(authorize.Resource, authorize.Action) fiber.Handler,
) {
	chats := api.Group("/chats", authRequired)

	chats.Get("/", requirePerm(authorize.ResourceChat, authorize.ActionList), ch.List)
	chats.Get("/stream", requirePerm(authorize.ResourceChat, authorize.ActionStream), ch.Stream)
	chats.Post("/", requirePerm(authorize.ResourceChat, authorize.ActionCreate), ch.Create)

	chats.Get("/:id", requirePerm(authorize.ResourceChat, authorize.ActionRead), ch.Get)
	chats.Delete("/:id", requirePerm(authorize.ResourceChat, authorize.ActionDelete), ch.Delete)
	chats.Post("/:id/accept", requirePerm(authorize.ResourceChat, authorize.ActionAnswer), ch.Accept)
	chats.Post("/:id/reject", requirePerm(authorize.ResourceChat, authorize.ActionAnswer), ch.Reject)

	chats.Get("/:id/messages", requirePerm(authorize.ResourceChatMessage, authorize.ActionRead), ch.Messages)
	chats.Get("/:id/messages/stream", requirePerm(authorize.ResourceChat, authorize.ActionStream), ch.MessagesStream)
	chats.Post("/:id/messages", requirePerm(authorize.ResourceChatMessage, authorize.ActionCreate), ch.Send)
	chats.Post("/:id/read", requirePerm(authorize.ResourceChatMessage, authorize.ActionUpdate), ch.MarkRead)
}
