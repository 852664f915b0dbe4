package http

import (
	"errors"

	"github.com/gofiber/fiber/v2"

	"github.com/samirrijal/arcglobe/internal/core/usecases"
)

const (
	defaultRouteLimit = 100
	maxRouteLimit     = 500
)

// ListRoutesHandler returns the route table, paginated by offset/limit.
func ListRoutesHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		routes, err := deps.Routes.List(c.UserContext())
		if err != nil {
			return errInternal(c, err)
		}

		offset, limit := parsePagination(c, defaultRouteLimit, maxRouteLimit)
		total := len(routes)
		start, end := pageBounds(offset, limit, total)

		pg := Pagination{Offset: offset, Limit: limit, Total: total}
		SetLinkHeaders(c, pg)
		return c.JSON(PaginatedResponse{Data: routes[start:end], Pagination: pg})
	}
}

// GetRouteHandler returns one route by its zero-based position.
func GetRouteHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		index, err := c.ParamsInt("index")
		if err != nil {
			return errBadRequest(c, "route index must be an integer")
		}

		route, err := deps.Routes.Get(c.UserContext(), index)
		if errors.Is(err, usecases.ErrRouteNotFound) {
			return errNotFound(c, "route not found")
		}
		if err != nil {
			return errInternal(c, err)
		}
		return c.JSON(route)
	}
}

// AuditHandler returns the data-quality report for the table.
func AuditHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		report, err := deps.Routes.Audit(c.UserContext())
		if err != nil {
			return errInternal(c, err)
		}
		return c.JSON(fiber.Map{
			"valid":     report.Valid(),
			"routes":    report.Routes,
			"points":    report.Points,
			"bounds":    report.Bounds,
			"errors":    report.Errors,
			"anomalies": report.Anomalies,
		})
	}
}

// StatsHandler returns route and point counts.
func StatsHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		stats, err := deps.Routes.Stats(c.UserContext())
		if err != nil {
			return errInternal(c, err)
		}
		return c.JSON(stats)
	}
}
