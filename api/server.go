// Package api is the HTTP surface of the back office: a JSON API under /api,
// a websocket event stream under /ws and the embedded UI at the root.
package api

import (
	"io/fs"
	"net/http"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/filesystem"
	"github.com/gofiber/fiber/v2/middleware/limiter"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	"github.com/gofiber/websocket/v2"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"kairos/auth"
	"kairos/notify"
	"kairos/store"
	"kairos/ui"
)

type Config struct {
	CookieName   string
	SecureCookie bool
	// LowStock is the threshold for dashboard counters and stock.low events.
	LowStock int64
	// Location renders receipts and exports.
	Location *time.Location
	Shop     string
	// LoginAttempts is the number of logins allowed per client and minute.
	LoginAttempts int
	// AccessLog enables per-request access lines.
	AccessLog bool
	Logger    logrus.FieldLogger
}

type Server struct {
	app    *fiber.App
	store  *store.Store
	tokens *auth.Tokens
	hasher *auth.PasswordHasher
	hub    *notify.Hub
	cfg    Config
	log    logrus.FieldLogger
}

func New(st *store.Store, tokens *auth.Tokens, hasher *auth.PasswordHasher, hub *notify.Hub, cfg Config) *Server {
	if cfg.CookieName == "" {
		cfg.CookieName = "kairos_session"
	}
	if cfg.Location == nil {
		cfg.Location = time.Local
	}
	if cfg.LoginAttempts <= 0 {
		cfg.LoginAttempts = 10
	}
	if cfg.Logger == nil {
		cfg.Logger = logrus.StandardLogger()
	}

	s := &Server{
		store:  st,
		tokens: tokens,
		hasher: hasher,
		hub:    hub,
		cfg:    cfg,
		log:    cfg.Logger,
	}

	s.app = fiber.New(fiber.Config{
		ErrorHandler:          s.handleError,
		DisableStartupMessage: true,
	})

	s.app.Use(recover.New(), requestid.New(requestid.Config{
		Generator:  uuid.NewString,
		ContextKey: localRequestID,
	}))
	if cfg.AccessLog {
		s.app.Use(logger.New(logger.Config{
			Format: "${time} ${locals:" + localRequestID + "} ${status} ${latency} ${method} ${path}\n",
		}))
	}
	s.app.Use(cors.New())

	s.routes()

	return s
}

func (s *Server) App() *fiber.App {
	return s.app
}

func (s *Server) routes() {
	api := s.app.Group("/api")

	api.Post("/login", limiter.New(limiter.Config{
		Max:        s.cfg.LoginAttempts,
		Expiration: time.Minute,
		LimitReached: func(c *fiber.Ctx) error {
			return fiber.NewError(fiber.StatusTooManyRequests, "too many login attempts, try again later")
		},
	}), s.login)
	api.Post("/signup", s.signup)
	api.Post("/logout", s.logout)

	priv := api.Group("", s.requireSession)

	priv.Get("/me", s.me)
	priv.Get("/dashboard", s.dashboard)

	priv.Get("/products", s.listProducts)
	priv.Post("/products", s.createProduct)
	priv.Post("/products/lookup", s.lookupProduct)
	priv.Get("/products/:id", s.getProduct)
	priv.Put("/products/:id", s.updateProduct)
	priv.Delete("/products/:id", s.deleteProduct)

	priv.Get("/weighables", s.listWeighables)
	priv.Get("/weighables/candidates", s.listWeighableCandidates)
	priv.Post("/weighables", s.createWeighable)
	priv.Delete("/weighables/:id", s.deleteWeighable)

	priv.Get("/customers", s.listCustomers)
	priv.Post("/customers", s.createCustomer)
	priv.Get("/customers/:id", s.getCustomer)
	priv.Put("/customers/:id", s.updateCustomer)
	priv.Delete("/customers/:id", s.deleteCustomer)

	priv.Get("/checkout", s.checkoutPage)
	priv.Post("/checkout/search", s.checkoutSearch)
	priv.Post("/checkout/scan", s.checkoutScan)
	priv.Post("/checkout", s.checkout)

	priv.Get("/sales", s.listSales)
	priv.Post("/sales/filter", s.filterSales)
	priv.Get("/sales/:id", s.getSale)
	priv.Delete("/sales/:id", s.revertSale)
	priv.Get("/sales/:id/receipt", s.saleReceipt)

	priv.Get("/reports", s.reports)
	priv.Post("/reports/filter", s.filterReports)

	priv.Get("/exports/xlsx", s.exportXLSX)
	priv.Get("/exports/pdf", s.exportPDF)

	s.app.Use("/ws", func(c *fiber.Ctx) error {
		if websocket.IsWebSocketUpgrade(c) {
			return c.Next()
		}
		return fiber.ErrUpgradeRequired
	})
	s.app.Get("/ws/events", s.requireSession, websocket.New(s.events))

	dist, err := fs.Sub(ui.FS, "dist")
	if err != nil {
		s.log.WithError(err).Fatal("failed to open embedded UI")
	}

	s.app.Use(filesystem.New(filesystem.Config{
		Next: func(c *fiber.Ctx) bool {
			path := c.Path()
			return strings.HasPrefix(path, "/api/") ||
				strings.HasPrefix(path, "/ws/")
		},
		Root:         http.FS(dist),
		Index:        "index.html",
		NotFoundFile: "index.html",
	}))
}

// Listen serves until Shutdown; TLS is used when both files are given.
func (s *Server) Listen(addr, certFile, keyFile string) error {
	if certFile != "" && keyFile != "" {
		return s.app.ListenTLS(addr, certFile, keyFile)
	}
	return s.app.Listen(addr)
}

// Shutdown disconnects event subscribers and stops the HTTP server.
func (s *Server) Shutdown() error {
	s.hub.Close()
	return s.app.Shutdown()
}
