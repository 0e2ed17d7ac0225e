package middleware

import (
	"strings"

	"property-dapp-backend/internal/pkg/response"

	"github.com/gofiber/fiber/v2"
)

const devPasswordHeader = "dev-password"

// CORSConfig decides which browser origins may call the API.
type CORSConfig struct {
	// AllowedSuffix admits the dapp frontend's host, e.g. ".vercel.app".
	AllowedSuffix string
	// DevPassword admits any origin that sends it in the dev-password header.
	DevPassword string
	// AllowLocalhost admits local frontends without the password.
	AllowLocalhost bool
}

// CORS passes requests that carry no Origin and answers preflights itself. Local origins may
// always preflight, since a browser cannot attach the dev password to an OPTIONS request.
func CORS(cfg CORSConfig) fiber.Handler {
	suffix := strings.ToLower(cfg.AllowedSuffix)
	return func(c *fiber.Ctx) error {
		origin := c.Get(fiber.HeaderOrigin)
		if origin == "" {
			return c.Next()
		}
		preflight := c.Method() == fiber.MethodOptions
		local := isLocalOrigin(origin)

		allowed := suffix != "" && strings.HasSuffix(strings.ToLower(origin), suffix)
		allowed = allowed || (cfg.DevPassword != "" && c.Get(devPasswordHeader) == cfg.DevPassword)
		allowed = allowed || (local && (preflight || cfg.AllowLocalhost))
		if !allowed {
			return response.Error(c, "Origin is not allowed", fiber.StatusForbidden, nil)
		}

		setCORSHeaders(c, origin)
		if preflight {
			return c.SendStatus(fiber.StatusNoContent)
		}
		return c.Next()
	}
}

func isLocalOrigin(origin string) bool {
	return strings.HasPrefix(origin, "http://localhost:") || strings.HasPrefix(origin, "http://127.0.0.1:")
}

func setCORSHeaders(c *fiber.Ctx, origin string) {
	c.Set(fiber.HeaderAccessControlAllowOrigin, origin)
	c.Set(fiber.HeaderAccessControlAllowCredentials, "true")
	c.Set(fiber.HeaderAccessControlAllowHeaders, "Content-Type, "+devPasswordHeader+", "+traceIDHeader)
	c.Set(fiber.HeaderAccessControlAllowMethods, "GET, POST, DELETE, OPTIONS")
	c.Set(fiber.HeaderAccessControlExposeHeaders, traceIDHeader)
}
