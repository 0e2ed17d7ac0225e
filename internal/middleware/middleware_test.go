package middleware

import (
	"context"
	"encoding/json"
	"errors"
	"net/http/httptest"
	"testing"

	"property-dapp-backend/internal/pkg/response"

	"github.com/alicebob/miniredis/v2"
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubWallet struct {
	connected bool
}

func (s stubWallet) Connected() bool { return s.connected }
func (s stubWallet) Address() string { return "ADDR" }

func setupRedis(t *testing.T) *redis.Client {
	mr, err := miniredis.Run()
	require.NoError(t, err)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() {
		rdb.Close()
		mr.Close()
	})
	return rdb
}

func TestTracing_SetsHeader(t *testing.T) {
	app := fiber.New()
	app.Use(Tracing())
	app.Get("/x", func(c *fiber.Ctx) error { return c.SendString(GetTraceID(c)) })

	resp, err := app.Test(httptest.NewRequest("GET", "/x", nil))
	require.NoError(t, err)
	_, err = uuid.Parse(resp.Header.Get(traceIDHeader))
	assert.NoError(t, err)

	id := uuid.New().String()
	req := httptest.NewRequest("GET", "/x", nil)
	req.Header.Set(traceIDHeader, id)
	resp, err = app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, id, resp.Header.Get(traceIDHeader))
}

func TestHealthMarker_CountsAndLogsErrors(t *testing.T) {
	rdb := setupRedis(t)
	app := fiber.New(fiber.Config{ErrorHandler: ErrorHandler})
	app.Use(Tracing())
	app.Use(HealthMarker(rdb))
	app.Get("/ok", func(c *fiber.Ctx) error { return c.SendString("ok") })
	app.Get("/boom", func(c *fiber.Ctx) error {
		return response.Error(c, "Failed to submit transaction", fiber.StatusBadGateway, nil)
	})
	app.Get("/panic", func(c *fiber.Ctx) error { return errors.New("db down") })
	app.Get("/health/json", func(c *fiber.Ctx) error { return c.SendString("{}") })

	for _, p := range []string{"/ok", "/boom", "/panic", "/health/json"} {
		_, err := app.Test(httptest.NewRequest("GET", p, nil))
		require.NoError(t, err)
	}

	ctx := context.Background()
	total, _ := rdb.Get(ctx, KeyReqTotal).Int()
	errs, _ := rdb.Get(ctx, KeyReqErrors).Int()
	assert.Equal(t, 3, total)
	assert.Equal(t, 2, errs)

	entries, err := rdb.LRange(ctx, KeyErrorLog, 0, -1).Result()
	require.NoError(t, err)
	require.Len(t, entries, 2)
	var latest map[string]interface{}
	require.NoError(t, json.Unmarshal([]byte(entries[0]), &latest))
	assert.Equal(t, "db down", latest["message"])
	assert.Equal(t, "/panic", latest["path"])
}

func TestErrorHandler_StandardShape(t *testing.T) {
	app := fiber.New(fiber.Config{ErrorHandler: ErrorHandler})
	app.Get("/missing", func(c *fiber.Ctx) error { return fiber.NewError(fiber.StatusNotFound, "Nope") })

	resp, err := app.Test(httptest.NewRequest("GET", "/missing", nil))
	require.NoError(t, err)
	assert.Equal(t, 404, resp.StatusCode)
	var out map[string]interface{}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
	assert.Equal(t, "error", out["status"])
	assert.Equal(t, "Nope", out["error"].(map[string]interface{})["message"])
}

func TestCORS(t *testing.T) {
	app := fiber.New()
	app.Use(CORS(CORSConfig{AllowedSuffix: ".example.app", DevPassword: "pw"}))
	app.Get("/x", func(c *fiber.Ctx) error { return c.SendString("ok") })

	req := httptest.NewRequest("GET", "/x", nil)
	req.Header.Set("Origin", "https://props.example.app")
	resp, err := app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, 200, resp.StatusCode)
	assert.Equal(t, "https://props.example.app", resp.Header.Get("Access-Control-Allow-Origin"))

	req = httptest.NewRequest("GET", "/x", nil)
	req.Header.Set("Origin", "https://evil.test")
	resp, err = app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, 403, resp.StatusCode)

	req.Header.Set("dev-password", "pw")
	resp, err = app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, 200, resp.StatusCode)
}

func TestCORS_Preflight(t *testing.T) {
	app := fiber.New()
	app.Use(CORS(CORSConfig{AllowedSuffix: ".example.app"}))
	app.Get("/x", func(c *fiber.Ctx) error { return c.SendString("ok") })

	for _, origin := range []string{"https://props.example.app", "http://localhost:3000"} {
		req := httptest.NewRequest("OPTIONS", "/x", nil)
		req.Header.Set("Origin", origin)
		resp, err := app.Test(req)
		require.NoError(t, err)
		assert.Equal(t, 204, resp.StatusCode, origin)
		assert.Equal(t, origin, resp.Header.Get("Access-Control-Allow-Origin"))
		assert.Contains(t, resp.Header.Get("Access-Control-Allow-Headers"), "X-Trace-Id")
	}
}

func TestCORS_Localhost(t *testing.T) {
	for _, tc := range []struct {
		allow bool
		code  int
	}{
		{false, 403},
		{true, 200},
	} {
		app := fiber.New()
		app.Use(CORS(CORSConfig{AllowLocalhost: tc.allow}))
		app.Get("/x", func(c *fiber.Ctx) error { return c.SendString("ok") })

		req := httptest.NewRequest("GET", "/x", nil)
		req.Header.Set("Origin", "http://127.0.0.1:5173")
		resp, err := app.Test(req)
		require.NoError(t, err)
		assert.Equal(t, tc.code, resp.StatusCode, "allow=%v", tc.allow)
	}
}

func TestRequireWallet(t *testing.T) {
	for _, tc := range []struct {
		wallet WalletState
		code   int
	}{
		{nil, 401},
		{stubWallet{connected: false}, 401},
		{stubWallet{connected: true}, 200},
	} {
		app := fiber.New()
		app.Get("/x", RequireWallet(tc.wallet), func(c *fiber.Ctx) error { return c.SendString(GetSender(c)) })
		resp, err := app.Test(httptest.NewRequest("GET", "/x", nil))
		require.NoError(t, err)
		assert.Equal(t, tc.code, resp.StatusCode)
	}
}
