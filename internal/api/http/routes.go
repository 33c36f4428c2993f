package httpapi

import (
	"context"
	"errors"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/i474232898/weather-dashboard/internal/advice"
	"github.com/i474232898/weather-dashboard/internal/aqi"
	"github.com/i474232898/weather-dashboard/internal/store"
	"github.com/i474232898/weather-dashboard/internal/weather"
)

var validate = validator.New()

const (
	defaultSearchLimit = 5
	maxSearchLimit     = 20
)

// Advisor produces a short recommendation for the given conditions.
type Advisor interface {
	Enabled() bool
	Advise(ctx context.Context, c advice.Conditions) (string, error)
}

// Deps are the components the HTTP handlers need.
type Deps struct {
	Service        *weather.Service
	Search         weather.ForwardGeocoder
	Locations      store.LocationStore
	Advice         Advisor
	SnapshotMaxAge time.Duration
	Logger         zerolog.Logger
}

// RegisterRoutes wires the HTTP handlers into the Fiber app.
func RegisterRoutes(app *fiber.App, d Deps) {
	v1 := app.Group("/api/v1")

	v1.Get("/weather", func(c *fiber.Ctx) error {
		coords, err := parseCoordinates(c)
		if err != nil {
			return fiber.NewError(fiber.StatusBadRequest, err.Error())
		}

		maxAge := d.SnapshotMaxAge
		if c.QueryBool("fresh") {
			maxAge = 0
		}

		snapshot, err := d.Service.Get(c.UserContext(), coords, maxAge)
		if err != nil {
			return httpError(err)
		}
		return c.JSON(snapshot)
	})

	v1.Get("/weather/latest", func(c *fiber.Ctx) error {
		coords, err := parseCoordinates(c)
		if err != nil {
			return fiber.NewError(fiber.StatusBadRequest, err.Error())
		}

		snapshot, err := d.Service.Latest(coords)
		if err != nil {
			if errors.Is(err, store.ErrNotFound) {
				return fiber.NewError(fiber.StatusNotFound, "no weather data for requested location")
			}
			return httpError(err)
		}
		return c.JSON(snapshot)
	})

	v1.Get("/aqi", func(c *fiber.Ctx) error {
		raw := c.Query("pm25")
		if raw == "" {
			return fiber.NewError(fiber.StatusBadRequest, "pm25 query parameter is required")
		}
		pm25, err := strconv.ParseFloat(raw, 64)
		if err != nil || pm25 < 0 {
			return fiber.NewError(fiber.StatusBadRequest, "pm25 must be a non-negative number")
		}

		idx := aqi.FromPM25(pm25)
		return c.JSON(fiber.Map{
			"pm25":     pm25,
			"aqi":      idx.Value,
			"category": idx.Category,
		})
	})

	v1.Get("/locations/search", func(c *fiber.Ctx) error {
		var q searchQuery
		if err := q.bind(c); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, err.Error())
		}

		places, err := d.Search.Search(c.UserContext(), q.Query, q.Limit)
		if err != nil {
			return httpError(err)
		}
		if places == nil {
			places = []weather.Place{}
		}
		return c.JSON(fiber.Map{
			"query":   q.Query,
			"results": places,
		})
	})

	v1.Get("/locations/saved", func(c *fiber.Ctx) error {
		list, err := d.Locations.List(c.UserContext())
		if err != nil {
			return httpError(err)
		}
		return c.JSON(savedResponse(list))
	})

	v1.Post("/locations/saved", func(c *fiber.Ctx) error {
		var loc store.SavedLocation
		if err := c.BodyParser(&loc); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
		}
		loc.Name = strings.TrimSpace(loc.Name)
		if err := validate.Struct(loc); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, err.Error())
		}

		list, err := d.Locations.Add(c.UserContext(), loc)
		if err != nil {
			return httpError(err)
		}
		return c.Status(fiber.StatusCreated).JSON(savedResponse(list))
	})

	v1.Delete("/locations/saved/:index", func(c *fiber.Ctx) error {
		index, err := c.ParamsInt("index")
		if err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "index must be an integer")
		}

		list, err := d.Locations.Remove(c.UserContext(), index)
		if err != nil {
			return httpError(err)
		}
		return c.JSON(savedResponse(list))
	})

	v1.Post("/advice", func(c *fiber.Ctx) error {
		if d.Advice == nil || !d.Advice.Enabled() {
			return httpError(advice.ErrDisabled)
		}

		var req adviceRequest
		if err := c.BodyParser(&req); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
		}

		cond, err := req.conditions(c.UserContext(), d)
		if err != nil {
			return httpError(err)
		}

		text, err := d.Advice.Advise(c.UserContext(), cond)
		if err != nil {
			return httpError(err)
		}
		return c.JSON(fiber.Map{"advice": text})
	})
}

// httpError maps domain errors to HTTP status codes.
func httpError(err error) error {
	var fe *fiber.Error
	if errors.As(err, &fe) {
		return fe
	}

	switch {
	case errors.Is(err, weather.ErrInvalidCoordinates):
		return fiber.NewError(fiber.StatusBadRequest, err.Error())
	case errors.Is(err, store.ErrNotFound):
		return fiber.NewError(fiber.StatusNotFound, err.Error())
	case errors.Is(err, store.ErrLocationExists), errors.Is(err, store.ErrConcurrentUpdate):
		return fiber.NewError(fiber.StatusConflict, err.Error())
	case errors.Is(err, advice.ErrDisabled):
		return fiber.NewError(fiber.StatusServiceUnavailable, err.Error())
	case errors.Is(err, weather.ErrUpstreamUnavailable),
		errors.Is(err, weather.ErrGeocodingUnavailable),
		errors.Is(err, advice.ErrUpstream):
		return fiber.NewError(fiber.StatusBadGateway, err.Error())
	case errors.Is(err, context.DeadlineExceeded):
		return fiber.NewError(fiber.StatusGatewayTimeout, "upstream request timed out")
	default:
		return fiber.NewError(fiber.StatusInternalServerError, "internal error")
	}
}

func savedResponse(list []store.SavedLocation) fiber.Map {
	if list == nil {
		list = []store.SavedLocation{}
	}
	return fiber.Map{"locations": list}
}

// coordinateQuery holds the lat/lon query parameters.
type coordinateQuery struct {
	Lat float64 `validate:"latitude"`
	Lon float64 `validate:"longitude"`
}

func parseCoordinates(c *fiber.Ctx) (weather.Coordinates, error) {
	latStr, lonStr := c.Query("lat"), c.Query("lon")
	if latStr == "" || lonStr == "" {
		return weather.Coordinates{}, errors.New("lat and lon query parameters are required")
	}

	var q coordinateQuery
	var err error
	if q.Lat, err = strconv.ParseFloat(latStr, 64); err != nil {
		return weather.Coordinates{}, errors.New("lat must be a number")
	}
	if q.Lon, err = strconv.ParseFloat(lonStr, 64); err != nil {
		return weather.Coordinates{}, errors.New("lon must be a number")
	}
	if err := validate.Struct(q); err != nil {
		return weather.Coordinates{}, err
	}

	return weather.Coordinates{Lat: q.Lat, Lon: q.Lon}, nil
}

// searchQuery holds query parameters for the location search endpoint.
type searchQuery struct {
	Query string `validate:"required,min=2,max=100"`
	Limit int    `validate:"min=1,max=20"`
}

func (s *searchQuery) bind(c *fiber.Ctx) error {
	s.Query = strings.TrimSpace(c.Query("q"))
	s.Limit = defaultSearchLimit

	if raw := c.Query("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil {
			return errors.New("limit must be an integer")
		}
		s.Limit = n
	}
	if s.Limit > maxSearchLimit {
		s.Limit = maxSearchLimit
	}

	return validate.Struct(s)
}

// adviceRequest accepts either coordinates, resolved through the snapshot
// cache, or explicit conditions.
type adviceRequest struct {
	Lat        *float64           `json:"lat"`
	Lon        *float64           `json:"lon"`
	Conditions *advice.Conditions `json:"conditions"`
}

func (r adviceRequest) conditions(ctx context.Context, d Deps) (advice.Conditions, error) {
	if r.Conditions != nil {
		return *r.Conditions, nil
	}
	if r.Lat == nil || r.Lon == nil {
		return advice.Conditions{}, fiber.NewError(fiber.StatusBadRequest, "lat and lon or conditions are required")
	}

	snapshot, err := d.Service.Get(ctx, weather.Coordinates{Lat: *r.Lat, Lon: *r.Lon}, d.SnapshotMaxAge)
	if err != nil {
		return advice.Conditions{}, err
	}
	return advice.ConditionsFromSnapshot(snapshot), nil
}
