// Package server exposes extremum lookups over HTTP.
package server

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/recover"

	"github.com/KaramelBytes/wavepeak-cli/internal/dataset"
	"github.com/KaramelBytes/wavepeak-cli/internal/logging"
	"github.com/KaramelBytes/wavepeak-cli/internal/render"
	"github.com/KaramelBytes/wavepeak-cli/internal/service"
	"github.com/KaramelBytes/wavepeak-cli/internal/wave"
)

// Version is reported by /health.
var Version = "dev"

// ErrorResponse is the error envelope for every non-2xx response.
type ErrorResponse struct {
	Error ErrorDetail `json:"error"`
}

// ErrorDetail represents error details
type ErrorDetail struct {
	Code    string                 `json:"code"`
	Message string                 `json:"message"`
	Path    string                 `json:"path,omitempty"`
	Details map[string]interface{} `json:"details,omitempty"`
}

// HealthResponse is returned by /health.
type HealthResponse struct {
	Status    string `json:"status"`
	Timestamp string `json:"timestamp"`
	Version   string `json:"version"`
}

// UnitsResponse is returned by /v1/units.
type UnitsResponse struct {
	Kind  dataset.Kind `json:"kind"`
	Units []string     `json:"units"`
	Count int          `json:"count"`
}

// Handler serves the API routes.
type Handler struct {
	svc        *service.Service
	logger     *logging.Logger
	defaultURL string
	render     render.Options
}

// New creates a handler. defaultURL is used when a request names no dataset.
func New(svc *service.Service, logger *logging.Logger, defaultURL string, opt render.Options) *Handler {
	return &Handler{svc: svc, logger: logger, defaultURL: defaultURL, render: opt}
}

// NewApp builds the fiber app with middlewares and routes.
func NewApp(h *Handler) *fiber.App {
	app := fiber.New(fiber.Config{
		DisableStartupMessage: true,
		ReadTimeout:           30 * time.Second,
		WriteTimeout:          2 * time.Minute,
	})
	app.Use(recover.New())
	app.Use(logging.FiberMiddleware(h.logger, "/health"))

	app.Get("/health", h.Health)
	v1 := app.Group("/v1")
	v1.Get("/extremum", h.Extremum)
	v1.Get("/units", h.Units)
	app.Use(h.NotFound)
	return app
}

// Health reports liveness.
func (h *Handler) Health(c *fiber.Ctx) error {
	return c.JSON(HealthResponse{
		Status:    "healthy",
		Timestamp: time.Now().Format(time.RFC3339),
		Version:   Version,
	})
}

// NotFound handles unknown routes.
func (h *Handler) NotFound(c *fiber.Ctx) error {
	return c.Status(fiber.StatusNotFound).JSON(ErrorResponse{
		Error: ErrorDetail{Code: "NOT_FOUND", Message: "Route not found", Path: c.Path()},
	})
}

func (h *Handler) location(c *fiber.Ctx) string {
	if u := strings.TrimSpace(c.Query("url")); u != "" {
		return u
	}
	return h.defaultURL
}

// Extremum handles GET /v1/extremum?country=|province=&mode=&url=&format=.
func (h *Handler) Extremum(c *fiber.Ctx) error {
	country, province := strings.TrimSpace(c.Query("country")), strings.TrimSpace(c.Query("province"))
	if (country == "") == (province == "") {
		return h.fail(c, service.NewServiceError(service.CodeInvalidRequest, "exactly one of country or province is required"))
	}
	req := service.Request{Location: h.location(c), Kind: dataset.Country, Unit: country}
	if province != "" {
		req.Kind, req.Unit = dataset.Province, province
	}
	mode, err := wave.ParseMode(c.Query("mode", "highest"))
	if err != nil {
		return h.fail(c, service.NewServiceError(service.CodeInvalidRequest, err.Error()))
	}
	req.Mode = mode

	res, err := h.svc.Locate(c.UserContext(), req)
	if err != nil {
		return h.fail(c, err)
	}
	switch format := c.Query("format"); format {
	case "", render.FormatJSON:
		b, err := render.JSON(res, h.render)
		if err != nil {
			return h.fail(c, err)
		}
		c.Set(fiber.HeaderContentType, fiber.MIMEApplicationJSONCharsetUTF8)
		return c.Send(b)
	case "raw":
		return c.JSON(res)
	default:
		b, err := render.Render(format, res, h.render)
		if err != nil {
			return h.fail(c, service.NewServiceError(service.CodeInvalidRequest, err.Error()))
		}
		c.Set(fiber.HeaderContentType, fiber.MIMETextPlainCharsetUTF8)
		return c.Send(b)
	}
}

// Units handles GET /v1/units?kind=&url=.
func (h *Handler) Units(c *fiber.Ctx) error {
	kind, err := dataset.ParseKind(c.Query("kind"))
	if err != nil {
		return h.fail(c, service.NewServiceError(service.CodeInvalidRequest, err.Error()))
	}
	units, err := h.svc.Units(c.UserContext(), h.location(c), kind)
	if err != nil {
		return h.fail(c, err)
	}
	if units == nil {
		units = []string{}
	}
	return c.JSON(UnitsResponse{Kind: kind, Units: units, Count: len(units)})
}

func (h *Handler) fail(c *fiber.Ctx, err error) error {
	var se *service.ServiceError
	if !errors.As(err, &se) {
		se = &service.ServiceError{Code: "INTERNAL_ERROR", Message: err.Error()}
	}
	status := se.HTTPStatus()
	if status >= 500 {
		logging.FromContext(c.UserContext()).Error("request failed", "code", se.Code, "error", err)
	}
	return c.Status(status).JSON(ErrorResponse{
		Error: ErrorDetail{Code: se.Code, Message: se.Message, Path: c.Path(), Details: se.Details},
	})
}

// Run serves app on addr until ctx is cancelled.
func Run(ctx context.Context, app *fiber.App, addr string) error {
	errCh := make(chan error, 1)
	go func() { errCh <- app.Listen(addr) }()
	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return app.ShutdownWithContext(shutdownCtx)
	}
}
