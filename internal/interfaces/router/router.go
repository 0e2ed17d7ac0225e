package router

import (
	"context"
	"net/http"

	"property-dapp-backend/bootstrap"
	healthsvc "property-dapp-backend/internal/application/health"
	pesvc "property-dapp-backend/internal/application/propertyevents"
	walletsvc "property-dapp-backend/internal/application/wallet"
	healthhandler "property-dapp-backend/internal/interfaces/handlers/health"
	pehandler "property-dapp-backend/internal/interfaces/handlers/propertyevents"
	prophandler "property-dapp-backend/internal/interfaces/handlers/properties"
	wallethandler "property-dapp-backend/internal/interfaces/handlers/wallet"
	"property-dapp-backend/internal/middleware"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"gorm.io/gorm"
)

type gormDBPinger struct {
	db *gorm.DB
}

func (g *gormDBPinger) Ping(ctx context.Context) error {
	sqlDB, err := g.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.PingContext(ctx)
}

// CreateApp builds the Fiber app over a wired container.
func CreateApp(c *bootstrap.Container) *fiber.App {
	cfg := c.Config
	app := fiber.New(fiber.Config{
		DisableStartupMessage:   true,
		ErrorHandler:            middleware.ErrorHandler,
		EnableTrustedProxyCheck: true,
	})

	app.Use(middleware.CORS(middleware.CORSConfig{
		AllowedSuffix:  cfg.FrontendURLEndsWith,
		DevPassword:    cfg.DevPassword,
		AllowLocalhost: cfg.AllowCrossSiteDev,
	}))
	app.Use(middleware.Tracing())
	app.Use(middleware.HealthMarker(c.Rdb))
	app.Use(middleware.RouteLogger())

	deps := healthsvc.Dependencies{Algod: c.Node, Indexer: c.Indexer}
	if c.DB != nil {
		deps.Database = &gormDBPinger{db: c.DB}
	}
	hh := &healthhandler.Handlers{
		Rdb:          c.Rdb,
		Deps:         deps,
		AdminKeyHash: cfg.HealthAdminKeyHash,
	}
	app.Get("/", hh.JSON)
	app.Get("/reset", hh.Reset)
	app.Get("/health/json", hh.JSON)
	app.Get("/health/errors", hh.Errors)
	app.Get("/metrics", adaptor.HTTPHandler(promhttp.Handler()))

	// A nil wallet must reach the middleware as a nil interface.
	var ws middleware.WalletState
	if c.Wallet != nil {
		ws = c.Wallet
	}
	requireWallet := middleware.RequireWallet(ws)

	ph := &prophandler.Handlers{
		Reconciler:         c.Reconciler,
		Actions:            c.Actions,
		Reader:             c.Reader,
		Collection:         c.Collection,
		RefreshAfterAction: cfg.RefreshAfterAction,
	}
	pg := app.Group("/api/v1/properties")
	pg.Get("/", ph.List)
	pg.Get("/lookup", ph.Lookup)
	pg.Get("/:app_id", ph.Get)
	pg.Post("/", requireWallet, ph.Create)
	pg.Post("/:app_id/buy", requireWallet, ph.Buy)
	pg.Post("/:app_id/rate", requireWallet, ph.Rate)
	pg.Delete("/:app_id", requireWallet, ph.Delete)

	if c.Wallet != nil {
		wh := &wallethandler.Handlers{Service: &walletsvc.Service{Wallet: c.Wallet, Balances: c.Indexer}}
		wg := app.Group("/api/v1/wallet")
		wg.Get("/", wh.Account)
		wg.Get("/qr", wh.QRCode)
		wg.Post("/connect", wh.Connect)
		wg.Post("/disconnect", wh.Disconnect)
	}

	if c.DB != nil {
		peh := &pehandler.Handlers{Service: &pesvc.Service{DB: c.DB}}
		app.Get("/api/v1/property-events/:app_id", peh.ListByApp)
	}

	return app
}

func Handler(app *fiber.App) http.Handler {
	return adaptor.FiberApp(app)
}
