package propertyevents

import (
	"context"
	"encoding/json"
	"net/http/httptest"
	"testing"

	pesvc "property-dapp-backend/internal/application/propertyevents"
	"property-dapp-backend/internal/domain"

	"github.com/glebarez/sqlite"
	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func setupPETest(t *testing.T) (*fiber.App, *pesvc.Service) {
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&domain.PropertyEvent{}))
	svc := &pesvc.Service{DB: db}
	h := &Handlers{Service: svc}
	app := fiber.New()
	app.Get("/property-events/:app_id", h.ListByApp)
	return app, svc
}

func TestListByApp_InvalidID(t *testing.T) {
	app, _ := setupPETest(t)
	resp, err := app.Test(httptest.NewRequest("GET", "/property-events/abc", nil))
	require.NoError(t, err)
	assert.Equal(t, 400, resp.StatusCode)
}

func TestListByApp_Success(t *testing.T) {
	app, svc := setupPETest(t)
	require.NoError(t, svc.Record(context.Background(), &domain.PropertyEvent{
		AppID: 12, EventType: domain.EventCreated, TxID: "TX1", Sender: "OWNER", ConfirmedRound: 3,
	}))

	resp, err := app.Test(httptest.NewRequest("GET", "/property-events/12", nil))
	require.NoError(t, err)
	assert.Equal(t, 200, resp.StatusCode)
	var out struct {
		Data struct {
			Events []domain.PropertyEvent `json:"events"`
		} `json:"data"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
	require.Len(t, out.Data.Events, 1)
	assert.Equal(t, "TX1", out.Data.Events[0].TxID)
}
