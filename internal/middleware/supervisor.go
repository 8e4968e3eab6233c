package middleware

import "github.com/gofiber/fiber/v2"

const supervisorKey = "supervisor_id"

// anonymousSupervisor attributes moderation actions when no identifying
// header is sent.
const anonymousSupervisor = "anonymous-supervisor"

// SupervisorIdentity records who is acting as supervisor. Real supervisor
// authorization is not implemented: any caller is accepted and the raw
// Authorization header value is used as the attribution label.
func SupervisorIdentity() fiber.Handler {
	return func(c *fiber.Ctx) error {
		id := c.Get(fiber.HeaderAuthorization)
		if id == "" {
			id = anonymousSupervisor
		}
		c.Locals(supervisorKey, id)
		return c.Next()
	}
}

// SupervisorID returns the supervisor attribution for the request.
func SupervisorID(c *fiber.Ctx) string {
	if id, ok := c.Locals(supervisorKey).(string); ok {
		return id
	}
	return anonymousSupervisor
}
