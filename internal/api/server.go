// Package api serves the read side of the catalog: products, brand
// coverage, and the quarantine review queue. Writes happen through the
// pipeline; the only mutation here is approving a quarantined product.
package api

import (
	"context"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"

	"github.com/hairdata/haira/internal/api/handlers"
	"github.com/hairdata/haira/internal/config"
)

type Server struct {
	echo   *echo.Echo
	config *config.Config
}

func NewServer(cfg *config.Config, store handlers.Store) *Server {
	e := echo.New()
	e.HideBanner = true

	e.Use(middleware.Logger())
	e.Use(middleware.Recover())
	e.Use(middleware.CORS())

	s := &Server{
		echo:   e,
		config: cfg,
	}

	s.setupRoutes(store)
	return s
}

func (s *Server) setupRoutes(store handlers.Store) {
	s.echo.GET("/health", func(c echo.Context) error {
		return c.JSON(http.StatusOK, map[string]string{"status": "ok"})
	})

	api := s.echo.Group("/api")
	h := handlers.NewHandlers(store)

	api.GET("/products", h.ListProducts)
	api.GET("/products/:id", h.GetProduct)

	api.GET("/brands", h.ListBrands)
	api.GET("/brands/:slug/coverage", h.GetBrandCoverage)

	api.GET("/quarantine", h.ListQuarantine)
	api.POST("/quarantine/:id/approve", h.ApproveQuarantine)
}

func (s *Server) Start(ctx context.Context) error {
	addr := ":" + s.config.Server.Port
	return s.echo.Start(addr)
}

func (s *Server) Shutdown(ctx context.Context) error {
	return s.echo.Shutdown(ctx)
}
