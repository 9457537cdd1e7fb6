// Package httpapi provides the HTTP/JSON transport for FieldKeeper's
// visibility API.
package httpapi

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/recover"

	"github.com/solatis/fieldkeeper/internal/core/api"
	"github.com/solatis/fieldkeeper/internal/core/auth"
	"github.com/solatis/fieldkeeper/internal/core/logging"
	"github.com/solatis/fieldkeeper/internal/core/service"
	"github.com/solatis/fieldkeeper/internal/types"
)

// Handler serves the /v1 routes over a Service.
type Handler struct {
	svc    *service.Service
	logger *slog.Logger
}

// New builds the fiber app: health check, then API-key protected /v1
// routes.
func New(svc *service.Service, authenticator *auth.Authenticator, logger *slog.Logger, timeout time.Duration) *fiber.App {
	if logger == nil {
		logger = logging.Discard()
	}
	h := &Handler{svc: svc, logger: logger.With("component", "http")}

	// Immutable: route params outlive the request in spans and logs.
	app := fiber.New(fiber.Config{
		AppName:               "fieldkeeper",
		DisableStartupMessage: true,
		Immutable:             true,
		ErrorHandler:          h.errorHandler,
	})
	app.Use(recover.New())
	app.Use(h.logRequests)

	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"status": "ok"})
	})

	v1 := app.Group("/v1", timeoutMiddleware(timeout), APIKeyMiddleware(authenticator))
	v1.Get("/entities/:entity/fields", h.listFields)
	v1.Post("/entities/:entity/visibility", h.evaluate)
	v1.Get("/entities/:entity/dependencies", h.dependencies)
	v1.Post("/entities/:entity/records", h.createRecord)
	v1.Get("/entities/:entity/records/:id/visible", h.visibleRecord)
	v1.Put("/entities/:entity/records/:id", h.saveRecord)

	return app
}

// valuesBody is the request body of evaluate and save.
type valuesBody struct {
	Values map[string]any `json:"values"`
}

func parseValues(c *fiber.Ctx) (map[string]any, error) {
	var body valuesBody
	if len(c.Body()) == 0 {
		return nil, nil
	}
	if err := json.Unmarshal(c.Body(), &body); err != nil {
		return nil, fmt.Errorf("%w: %w", api.ErrMalformedRequest, err)
	}
	return body.Values, nil
}

func (h *Handler) listFields(c *fiber.Ctx) error {
	entity, err := api.ParseEntity(c.Params("entity"))
	if err != nil {
		return err
	}
	fields, err := h.svc.Fields(c.UserContext(), entity)
	if err != nil {
		return err
	}
	return c.JSON(api.NewFieldsResponse(entity, fields))
}

func (h *Handler) evaluate(c *fiber.Ctx) error {
	entity, err := api.ParseEntity(c.Params("entity"))
	if err != nil {
		return err
	}
	values, err := parseValues(c)
	if err != nil {
		return err
	}
	ev, err := h.svc.Evaluate(c.UserContext(), entity, values)
	if err != nil {
		return err
	}
	return c.JSON(api.NewEvaluateResponse(entity, ev))
}

func (h *Handler) dependencies(c *fiber.Ctx) error {
	entity, err := api.ParseEntity(c.Params("entity"))
	if err != nil {
		return err
	}
	deps, err := h.svc.ReactiveFields(c.UserContext(), entity)
	if err != nil {
		return err
	}
	return c.JSON(api.NewDependenciesResponse(entity, deps))
}

func (h *Handler) visibleRecord(c *fiber.Ctx) error {
	entity, err := api.ParseEntity(c.Params("entity"))
	if err != nil {
		return err
	}
	id, err := types.ParseRecordID(c.Params("id"))
	if err != nil {
		return err
	}
	view, err := h.svc.VisibleRecordFields(c.UserContext(), entity, id)
	if err != nil {
		return err
	}
	return c.JSON(api.NewVisibleRecordResponse(entity, view))
}

func (h *Handler) createRecord(c *fiber.Ctx) error {
	return h.save(c, "")
}

func (h *Handler) saveRecord(c *fiber.Ctx) error {
	return h.save(c, c.Params("id"))
}

func (h *Handler) save(c *fiber.Ctx, rawID string) error {
	entity, err := api.ParseEntity(c.Params("entity"))
	if err != nil {
		return err
	}
	id, err := api.ParseSaveRecordID(rawID)
	if err != nil {
		return err
	}
	values, err := parseValues(c)
	if err != nil {
		return err
	}
	res, err := h.svc.SaveRecord(c.UserContext(), entity, id, values)
	if err != nil {
		return err
	}
	code := fiber.StatusOK
	if res.Created {
		code = fiber.StatusCreated
	}
	return c.Status(code).JSON(api.NewSaveRecordResponse(entity, res))
}
