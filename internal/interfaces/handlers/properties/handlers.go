package properties

import (
	"context"
	"encoding/json"
	"errors"
	"strconv"
	"strings"
	"time"

	propsvc "property-dapp-backend/internal/application/properties"
	"property-dapp-backend/internal/domain"
	"property-dapp-backend/internal/middleware"
	"property-dapp-backend/internal/pkg/codec"
	"property-dapp-backend/internal/pkg/response"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog/log"
)

const (
	refreshTimeout = 60 * time.Second
	maxLookupIDs   = 50
)

type Handlers struct {
	Reconciler *propsvc.Reconciler
	Actions    *propsvc.Actions
	Reader     propsvc.Fetcher
	Collection *propsvc.Collection
	// RefreshAfterAction re-runs discovery in the background after every confirmed action.
	RefreshAfterAction bool
}

// GET /api/v1/properties
func (h *Handlers) List(c *fiber.Ctx) error {
	if c.Query("refresh") == "false" {
		list := h.Collection.List()
		return response.Success(c, "Properties fetched successfully", fiber.Map{"properties": list}, fiber.Map{"count": len(list), "source": "memory"})
	}
	list, err := h.Reconciler.DiscoverAll(c.UserContext())
	if err != nil {
		return response.Error(c, "Property discovery was interrupted", fiber.StatusServiceUnavailable, nil)
	}
	return response.Success(c, "Properties fetched successfully", fiber.Map{"properties": list}, fiber.Map{"count": len(list), "source": "chain"})
}

// GET /api/v1/properties/lookup?ids=1,2,3
func (h *Handlers) Lookup(c *fiber.Ctx) error {
	ids, err := parseIDs(c.Query("ids"))
	if err != nil {
		return response.Error(c, err.Error(), fiber.StatusBadRequest, nil)
	}
	list := h.Reconciler.Lookup(c.UserContext(), ids)
	return response.Success(c, "Properties fetched successfully", fiber.Map{"properties": list}, fiber.Map{"count": len(list)})
}

// GET /api/v1/properties/:app_id
func (h *Handlers) Get(c *fiber.Ctx) error {
	appID, err := appIDParam(c)
	if err != nil {
		return response.Error(c, err.Error(), fiber.StatusBadRequest, nil)
	}
	p, ok := h.Reader.Fetch(c.UserContext(), appID)
	if !ok {
		return response.NotFound(c, propsvc.ErrPropertyNotFound.Error())
	}
	return response.Success(c, "Property fetched successfully", fiber.Map{"property": p}, nil)
}

type createBody struct {
	Title    string      `json:"title"`
	Image    string      `json:"image"`
	Location string      `json:"location"`
	Price    json.Number `json:"price"`
}

// POST /api/v1/properties
// Price is in microAlgos.
func (h *Handlers) Create(c *fiber.Ctx) error {
	var body createBody
	if err := c.BodyParser(&body); err != nil {
		return response.Error(c, "Invalid request body", fiber.StatusBadRequest, nil)
	}
	price, err := codec.ParseUint64(body.Price)
	if err != nil {
		return response.Error(c, "Price must be a whole number of microAlgos", fiber.StatusBadRequest, nil)
	}
	res, err := h.Actions.Create(c.UserContext(), middleware.GetSender(c), propsvc.CreateInput{
		Title:    body.Title,
		Image:    body.Image,
		Location: body.Location,
		Price:    price,
	})
	if err != nil {
		return actionError(c, err)
	}
	h.refresh()
	return response.SuccessCreated(c, "Property created successfully", res, nil)
}

// POST /api/v1/properties/:app_id/buy
func (h *Handlers) Buy(c *fiber.Ctx) error {
	appID, err := appIDParam(c)
	if err != nil {
		return response.Error(c, err.Error(), fiber.StatusBadRequest, nil)
	}
	res, err := h.Actions.Buy(c.UserContext(), middleware.GetSender(c), appID)
	if err != nil {
		return actionError(c, err)
	}
	h.refresh()
	return response.Success(c, "Property bought successfully", res, nil)
}

// POST /api/v1/properties/:app_id/rate
func (h *Handlers) Rate(c *fiber.Ctx) error {
	appID, err := appIDParam(c)
	if err != nil {
		return response.Error(c, err.Error(), fiber.StatusBadRequest, nil)
	}
	var body struct {
		Rate json.Number `json:"rate"`
	}
	if err := c.BodyParser(&body); err != nil {
		return response.Error(c, "Invalid request body", fiber.StatusBadRequest, nil)
	}
	rating, err := codec.ParseUint64(body.Rate)
	if err != nil {
		return response.Error(c, "Rating must be a whole number", fiber.StatusBadRequest, nil)
	}
	res, err := h.Actions.Rate(c.UserContext(), middleware.GetSender(c), appID, rating)
	if err != nil {
		return actionError(c, err)
	}
	h.refresh()
	return response.Success(c, "Property rated successfully", res, nil)
}

// DELETE /api/v1/properties/:app_id
func (h *Handlers) Delete(c *fiber.Ctx) error {
	appID, err := appIDParam(c)
	if err != nil {
		return response.Error(c, err.Error(), fiber.StatusBadRequest, nil)
	}
	res, err := h.Actions.Delete(c.UserContext(), middleware.GetSender(c), appID)
	if err != nil {
		return actionError(c, err)
	}
	h.refresh()
	return response.Success(c, "Property deleted successfully", res, nil)
}

func (h *Handlers) refresh() {
	if !h.RefreshAfterAction || h.Reconciler == nil {
		return
	}
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), refreshTimeout)
		defer cancel()
		if _, err := h.Reconciler.DiscoverAll(ctx); err != nil {
			log.Warn().Err(err).Msg("Background property refresh failed")
		}
	}()
}

func actionError(c *fiber.Ctx, err error) error {
	code := fiber.StatusInternalServerError
	switch {
	case errors.Is(err, propsvc.ErrValidation),
		errors.Is(err, propsvc.ErrAlreadyPurchased),
		errors.Is(err, propsvc.ErrOwnPurchase):
		code = fiber.StatusBadRequest
	case errors.Is(err, propsvc.ErrPropertyNotFound):
		code = fiber.StatusNotFound
	case errors.Is(err, domain.ErrWalletNotConnected):
		code = fiber.StatusUnauthorized
	case errors.Is(err, domain.ErrSignerMismatch), errors.Is(err, propsvc.ErrNotOwner):
		code = fiber.StatusForbidden
	case errors.Is(err, propsvc.ErrSigning):
		code = fiber.StatusUnprocessableEntity
	case errors.Is(err, propsvc.ErrSubmission), errors.Is(err, domain.ErrTransactionRejected):
		code = fiber.StatusBadGateway
	case errors.Is(err, domain.ErrConfirmationTimeout):
		code = fiber.StatusGatewayTimeout
	}
	return response.Error(c, err.Error(), code, nil)
}

func appIDParam(c *fiber.Ctx) (uint64, error) {
	id, err := strconv.ParseUint(c.Params("app_id"), 10, 64)
	if err != nil || id == 0 {
		return 0, errors.New("Invalid application ID")
	}
	return id, nil
}

func parseIDs(raw string) ([]uint64, error) {
	if strings.TrimSpace(raw) == "" {
		return nil, errors.New("ids is required")
	}
	parts := strings.Split(raw, ",")
	if len(parts) > maxLookupIDs {
		return nil, errors.New("Too many ids")
	}
	ids := make([]uint64, 0, len(parts))
	for _, p := range parts {
		id, err := codec.ParseUint64(p)
		if err != nil || id == 0 {
			return nil, errors.New("Invalid application ID")
		}
		ids = append(ids, id)
	}
	return ids, nil
}
