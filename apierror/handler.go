package apierror

import (
	"fmt"
	"log/slog"
	"strconv"

	"github.com/gofiber/fiber/v2"
	"github.com/goliatone/go-fitauth/observability"
	"github.com/goliatone/go-print"
)

// Logger is the structured logger used by the handler
type Logger interface {
	Error(msg string, args ...any)
}

// Config holds the normalizer options
type Config struct {
	// Production hides internal error messages from clients
	Production bool
	Logger     Logger
}

// NewHandler returns the terminal fiber error handler. It logs every
// error, writes exactly one JSON envelope and never returns an error.
func NewHandler(cfg Config) fiber.ErrorHandler {
	if cfg.Logger == nil {
		cfg.Logger = slog.Default().With("component", "apierror")
	}

	return func(c *fiber.Ctx, err error) (out error) {
		defer func() {
			if r := recover(); r != nil {
				cfg.Logger.Error("error handler panicked", "panic", fmt.Sprint(r))
				out = writeFallback(c)
			}
		}()

		p := Classify(err, cfg.Production)

		cfg.Logger.Error(
			"request failed",
			"kind", p.Kind.String(),
			"status", p.Status,
			"category", p.Category.String(),
			"text_code", p.TextCode,
			"method", c.Method(),
			"path", c.Path(),
			"error", errorText(err),
			"details", print.MaybePrettyJSON(p.Details),
		)

		observability.ErrorsTotal.WithLabelValues(p.Kind.String(), strconv.Itoa(p.Status)).Inc()

		if werr := Write(c, p.Status, p.Envelope()); werr != nil {
			cfg.Logger.Error("error handler failed to write response", "error", werr)
			return writeFallback(c)
		}
		return nil
	}
}

// Write sends env as JSON with the given status
func Write(c *fiber.Ctx, status int, env Envelope) error {
	return c.Status(status).JSON(env)
}

func writeFallback(c *fiber.Ctx) error {
	c.Set(fiber.HeaderContentType, fiber.MIMEApplicationJSON)
	_ = c.Status(fiber.StatusInternalServerError).
		SendString(`{"error":"Internal Server Error","message":"Something went wrong"}`)
	return nil
}

func errorText(err error) string {
	if err == nil {
		return "<nil>"
	}
	return err.Error()
}
