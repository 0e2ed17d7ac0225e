package middleware

import (
	"property-dapp-backend/internal/pkg/response"

	"github.com/gofiber/fiber/v2"
)

const senderLocal = "sender"

// WalletState reports the signing account the server acts for.
type WalletState interface {
	Connected() bool
	Address() string
}

// RequireWallet ensures the wallet is connected before an action route runs.
// The wallet address is stored as the sender for handlers.
func RequireWallet(w WalletState) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if w == nil || !w.Connected() {
			return response.Unauthorized(c, "Wallet is not connected")
		}
		c.Locals(senderLocal, w.Address())
		return c.Next()
	}
}

// GetSender returns the connected wallet address ("" when no wallet guard ran).
func GetSender(c *fiber.Ctx) string {
	s, _ := c.Locals(senderLocal).(string)
	return s
}
