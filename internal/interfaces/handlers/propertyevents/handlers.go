package propertyevents

import (
	"strconv"

	pesvc "property-dapp-backend/internal/application/propertyevents"
	"property-dapp-backend/internal/pkg/response"

	"github.com/gofiber/fiber/v2"
)

type Handlers struct {
	Service *pesvc.Service
}

// GET /api/v1/property-events/:app_id
func (h *Handlers) ListByApp(c *fiber.Ctx) error {
	appID, err := strconv.ParseUint(c.Params("app_id"), 10, 64)
	if err != nil || appID == 0 {
		return response.Error(c, "Invalid application ID", fiber.StatusBadRequest, nil)
	}

	events, err := h.Service.ListByApp(c.UserContext(), appID)
	if err != nil {
		return response.Error(c, err.Error(), fiber.StatusInternalServerError, nil)
	}
	return response.Success(c, "Property events fetched successfully", fiber.Map{"events": events}, nil)
}
