package http

import (
	"errors"
	"strconv"

	"github.com/gofiber/fiber/v2"

	"github.com/transtime/routeplanner/internal/core/domain"
	"github.com/transtime/routeplanner/internal/pkg/metrics"
)

// BuildRouteHandler runs one route build from the request body. A build
// already in flight yields 409; the client retries after it finishes.
func BuildRouteHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var req domain.RouteRequest
		if err := c.BodyParser(&req); err != nil {
			return errBadRequest(c, "invalid request body")
		}

		deps.Session.ApplyRequest(req)
		if err := deps.Orchestrator.SetVehicleMode(c.UserContext(), deps.Session.Vehicle()); err != nil {
			return errDomain(c, err)
		}

		outcome, err := deps.Orchestrator.BuildCurrent(c.UserContext())
		if err != nil {
			switch {
			case errors.Is(err, domain.ErrBuildInProgress):
				metrics.BuildRejections.Inc()
			case errors.Is(err, domain.ErrGeocodeNotFound):
				metrics.GeocodeErrors.Inc()
			}
			metrics.RouteBuilds.WithLabelValues("error").Inc()
			return errDomain(c, err)
		}

		metrics.RouteBuilds.WithLabelValues("ok").Inc()
		return c.JSON(outcome)
	}
}

// ActiveRouteHandler returns the current build outcome.
func ActiveRouteHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		outcome := deps.Orchestrator.Outcome()
		if outcome == nil {
			return errNotFound(c, "no route built yet")
		}
		return c.JSON(outcome)
	}
}

// SetActiveAlternativeHandler switches the displayed alternative.
func SetActiveAlternativeHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		index, err := strconv.Atoi(c.Params("index"))
		if err != nil {
			return errBadRequest(c, "index must be an integer")
		}
		if err := deps.Orchestrator.SetActiveAlternative(c.UserContext(), index); err != nil {
			return errDomain(c, err)
		}
		return c.JSON(deps.Orchestrator.Outcome())
	}
}

// AddViaHandler appends an intermediate waypoint and rebuilds.
func AddViaHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var point domain.Coordinate
		if err := c.BodyParser(&point); err != nil {
			return errBadRequest(c, "invalid request body")
		}
		if !point.Valid() {
			return errBadRequest(c, "coordinate out of range")
		}
		if err := deps.Session.AddVia(point); err != nil {
			return errDomain(c, err)
		}
		outcome, err := deps.Orchestrator.BuildCurrent(c.UserContext())
		if err != nil {
			return errDomain(c, err)
		}
		return c.JSON(outcome)
	}
}

// ClearViaHandler drops all intermediate waypoints and rebuilds.
func ClearViaHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		deps.Session.ClearVia()
		outcome, err := deps.Orchestrator.BuildCurrent(c.UserContext())
		if err != nil {
			return errDomain(c, err)
		}
		return c.JSON(outcome)
	}
}

// NavigatorHandler returns the external navigator hand-off link.
func NavigatorHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		u, err := deps.Orchestrator.NavigatorURL()
		if err != nil {
			return errDomain(c, err)
		}
		return c.JSON(fiber.Map{"url": u})
	}
}

// SetVehicleModeHandler switches the vehicle profile.
func SetVehicleModeHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var body struct {
			Mode       domain.VehicleMode        `json:"mode"`
			Dimensions *domain.VehicleDimensions `json:"dimensions"`
		}
		if err := c.BodyParser(&body); err != nil {
			return errBadRequest(c, "invalid request body")
		}
		if body.Dimensions != nil {
			deps.Session.SetDimensions(*body.Dimensions)
		}
		if err := deps.Orchestrator.SetVehicleMode(c.UserContext(), body.Mode); err != nil {
			return errDomain(c, err)
		}
		return c.JSON(fiber.Map{"mode": body.Mode})
	}
}

// ListLayersHandler returns the state of every regulatory layer.
func ListLayersHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		return c.JSON(deps.Layers.States())
	}
}

// ToggleLayerHandler switches a layer on or off, loading it on demand.
func ToggleLayerHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		name := domain.LayerName(c.Params("name"))
		var body struct {
			On bool `json:"on"`
		}
		if err := c.BodyParser(&body); err != nil {
			return errBadRequest(c, "invalid request body")
		}

		err := deps.Layers.Toggle(c.UserContext(), name, body.On)
		if err != nil {
			status := "error"
			if errors.Is(err, domain.ErrLayerNoData) {
				status = "no_data"
			}
			metrics.LayerLoads.WithLabelValues(string(name), status).Inc()
			return errDomain(c, err)
		}
		if body.On {
			metrics.LayerLoads.WithLabelValues(string(name), "ok").Inc()
		}

		state, serr := deps.Layers.State(name)
		if serr != nil {
			return errDomain(c, serr)
		}
		metrics.LayerVisibleFeatures.WithLabelValues(string(name)).Set(float64(state.VisibleFeatures))
		return c.JSON(state)
	}
}

// LayerFeaturesHandler returns the features of a visible layer that pass
// its spatial filter.
func LayerFeaturesHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		name := domain.LayerName(c.Params("name"))
		if _, err := deps.Layers.State(name); err != nil {
			return errDomain(c, err)
		}
		features := deps.Layers.VisibleFeatures(name)
		c.Set("Cache-Control", "no-cache")
		return c.JSON(fiber.Map{"layer": name, "features": features})
	}
}

// ShareHandler returns the share token and URL for the current request.
func ShareHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		token := deps.Share.EncodeToken()
		if token == "" {
			return errNotFound(c, "nothing to share")
		}
		return c.JSON(fiber.Map{
			"token": token,
			"url":   deps.Share.ShareURL(deps.PublicURL),
		})
	}
}

// ApplyShareHandler applies a share token and builds the decoded route.
func ApplyShareHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var body struct {
			Token string `json:"token"`
		}
		if err := c.BodyParser(&body); err != nil {
			return errBadRequest(c, "invalid request body")
		}
		if body.Token == "" {
			return errBadRequest(c, "token is required")
		}
		outcome, err := deps.Share.Apply(c.UserContext(), body.Token)
		if err != nil {
			return errDomain(c, err)
		}
		return c.JSON(outcome)
	}
}

// ListSavedRoutesHandler returns the saved route list with pagination.
func ListSavedRoutesHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		routes := deps.Saved.List()

		pg := ParsePagination(c)
		pg.Total = len(routes)
		start, end := pg.Window()

		SetLinkHeaders(c, pg)
		return c.JSON(PaginatedResponse{Data: routes[start:end], Pagination: pg})
	}
}

// SaveRouteHandler snapshots the current request into the saved list.
func SaveRouteHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var body struct {
			Label string `json:"label"`
		}
		_ = c.BodyParser(&body)
		route, err := deps.Saved.Save(c.UserContext(), body.Label)
		if err != nil {
			return errDomain(c, err)
		}
		return c.Status(201).JSON(route)
	}
}

// DeleteSavedRouteHandler removes one saved route.
func DeleteSavedRouteHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, err := strconv.Atoi(c.Params("id"))
		if err != nil {
			return errBadRequest(c, "id must be an integer")
		}
		if err := deps.Saved.Delete(c.UserContext(), id); err != nil {
			return errDomain(c, err)
		}
		return c.SendStatus(204)
	}
}

// LoadSavedRouteHandler applies a saved route and builds it.
func LoadSavedRouteHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, err := strconv.Atoi(c.Params("id"))
		if err != nil {
			return errBadRequest(c, "id must be an integer")
		}
		outcome, err := deps.Saved.Load(c.UserContext(), id)
		if err != nil {
			return errDomain(c, err)
		}
		return c.JSON(outcome)
	}
}

// GetViewportHandler returns the persisted map camera position.
func GetViewportHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		vp, ok := deps.Prefs.Viewport(c.UserContext())
		if !ok {
			return errNotFound(c, "no viewport stored")
		}
		return c.JSON(vp)
	}
}

// SetViewportHandler persists the map camera position.
func SetViewportHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var vp domain.Viewport
		if err := c.BodyParser(&vp); err != nil {
			return errBadRequest(c, "invalid request body")
		}
		if !vp.Center.Valid() {
			return errBadRequest(c, "center coordinate out of range")
		}
		deps.Prefs.SetViewport(c.UserContext(), vp)
		return c.JSON(vp)
	}
}
