package wallet

import (
	"errors"

	walletsvc "property-dapp-backend/internal/application/wallet"
	"property-dapp-backend/internal/domain"
	"property-dapp-backend/internal/pkg/response"

	"github.com/gofiber/fiber/v2"
)

type Handlers struct {
	Service *walletsvc.Service
}

// POST /api/v1/wallet/connect
func (h *Handlers) Connect(c *fiber.Ctx) error {
	acct, err := h.Service.Connect(c.UserContext())
	if err != nil {
		return response.Error(c, err.Error(), fiber.StatusInternalServerError, nil)
	}
	return response.Success(c, "Wallet connected", acct, nil)
}

// POST /api/v1/wallet/disconnect
func (h *Handlers) Disconnect(c *fiber.Ctx) error {
	if err := h.Service.Disconnect(c.UserContext()); err != nil {
		return response.Error(c, err.Error(), fiber.StatusInternalServerError, nil)
	}
	return response.Success(c, "Wallet disconnected", fiber.Map{"connected": false}, nil)
}

// GET /api/v1/wallet
func (h *Handlers) Account(c *fiber.Ctx) error {
	acct, err := h.Service.Account(c.UserContext())
	if err != nil {
		return walletError(c, err)
	}
	return response.Success(c, "Wallet fetched successfully", acct, nil)
}

// GET /api/v1/wallet/qr?size=256
func (h *Handlers) QRCode(c *fiber.Ctx) error {
	png, err := h.Service.QRCode(c.QueryInt("size", walletsvc.DefaultQRSize))
	if err != nil {
		return walletError(c, err)
	}
	c.Set(fiber.HeaderContentType, "image/png")
	return c.Send(png)
}

func walletError(c *fiber.Ctx, err error) error {
	if errors.Is(err, domain.ErrWalletNotConnected) {
		return response.Unauthorized(c, err.Error())
	}
	return response.Error(c, err.Error(), fiber.StatusInternalServerError, nil)
}
