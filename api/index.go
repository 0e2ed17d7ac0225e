package handler

import (
	"context"
	"net/http"

	"property-dapp-backend/bootstrap"
	"property-dapp-backend/internal/config"
	"property-dapp-backend/internal/interfaces/router"
	"property-dapp-backend/internal/pkg/logging"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
)

var fiberApp *fiber.App

func init() {
	cfg, err := config.Load()
	if err != nil {
		panic("config load: " + err.Error())
	}
	logging.Setup(cfg.LogLevel, cfg.Env)
	c, err := bootstrap.New(context.Background(), cfg)
	if err != nil {
		panic("app create: " + err.Error())
	}
	fiberApp = router.CreateApp(c)
}

// Handler is the serverless entry point. All requests are rewritten here.
func Handler(w http.ResponseWriter, r *http.Request) {
	r.RequestURI = r.URL.String()
	adaptor.FiberApp(fiberApp)(w, r)
}
