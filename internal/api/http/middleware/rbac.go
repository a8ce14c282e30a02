package middleware

import (
	"github.com/gofiber/fiber/v3"

	"github.com/Alijeyrad/teleclinic_backend/pkg/authorize"
)

// RequirePermission lets the request through when any caller subject, the
// session role first, holds action on resource in the sys domain. Ownership
// checks stay in the services.
func RequirePermission(auth authorize.IAuthorization, resource authorize.Resource, action authorize.Action) fiber.Handler {
	return func(c fiber.Ctx) error {
		subjects, err := authorize.CallerSubjects(c.Context())
		if err != nil {
			return fiber.ErrUnauthorized
		}
		for _, s := range subjects {
			ok, err := auth.Enforce(c.Context(), s, authorize.DomainSys, resource, action)
			if err != nil {
				return err
			}
			if ok {
				return c.Next()
			}
		}
		return fiber.ErrForbidden
	}
}
