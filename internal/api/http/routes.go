// Package httpapi wires the HTTP surface: the two upstream proxy endpoints,
// the preference-store endpoints, and the shell pages.
package httpapi

import (
	"context"
	"errors"
	"log"
	"strconv"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	gocache "github.com/patrickmn/go-cache"

	"meteoaura/internal/offline"
	"meteoaura/internal/prefs"
	"meteoaura/internal/weather"
)

var validate = validator.New()

// Gateway is the upstream weather dependency of the API layer.
type Gateway interface {
	SearchCities(ctx context.Context, query string, count int) []weather.GeoLocation
	FetchWeather(ctx context.Context, lat, lon float64, name, country string) (*weather.WeatherData, error)
}

// ReverseGeocoder names coordinates for the geolocation flow.
type ReverseGeocoder interface {
	Lookup(lat, lon float64) (weather.Place, bool)
}

// Deps carries everything the handlers need. No package-level state: the
// store and caches are injected so tests can build isolated apps.
type Deps struct {
	Gateway Gateway
	Reverse ReverseGeocoder
	Store   *prefs.Store

	// WeatherCache holds normalized forecasts for the proxy revalidation
	// window; callers tolerate data up to its TTL in age.
	WeatherCache *gocache.Cache

	// Worker is reported by the health endpoint; optional.
	Worker *offline.Worker

	// Unreachable classifies gateway errors that mean "no connectivity".
	// Those propagate raw so the offline layer can answer; everything else
	// becomes a page-level 500. Optional.
	Unreachable func(error) bool
}

// ErrorHandler shapes every handler error as the {"error": message} body
// the UI expects.
func ErrorHandler(c *fiber.Ctx, err error) error {
	code := fiber.StatusInternalServerError
	message := "erreur interne"

	var e *fiber.Error
	if errors.As(err, &e) {
		code = e.Code
		message = e.Message
	} else {
		log.Printf("httpapi: %s %s: %v", c.Method(), c.Path(), err)
	}

	return c.Status(code).JSON(fiber.Map{"error": message})
}

// RegisterRoutes wires the HTTP handlers into the Fiber app.
func RegisterRoutes(app *fiber.App, deps Deps) {
	app.Get("/health", func(c *fiber.Ctx) error {
		body := fiber.Map{
			"status":  "ok",
			"service": "meteo-aura",
		}
		if deps.Worker != nil {
			body["offlineWorker"] = deps.Worker.State().String()
			body["cacheGeneration"] = deps.Worker.Generation()
		}
		return c.JSON(body)
	})

	v1 := app.Group("/api/v1")

	v1.Get("/geocoding", func(c *fiber.Ctx) error {
		query := c.Query("q")
		count := c.QueryInt("count")

		// Short queries short-circuit inside the gateway too; answering
		// here keeps the empty case synchronous.
		results := []weather.GeoLocation{}
		if len(query) >= 2 {
			if found := deps.Gateway.SearchCities(c.Context(), query, count); found != nil {
				results = found
			}
		}
		return c.JSON(fiber.Map{"results": results})
	})

	v1.Get("/weather", func(c *fiber.Ctx) error {
		lat, lon, err := parseCoordinates(c)
		if err != nil {
			return err
		}
		name := c.Query("name", "Lieu inconnu")
		country := c.Query("country")

		key := weather.CoordinateKey(lat, lon)
		if cached, ok := deps.WeatherCache.Get(key); ok {
			return c.JSON(cached.(*weather.WeatherData))
		}

		data, err := deps.Gateway.FetchWeather(c.Context(), lat, lon, name, country)
		if err != nil {
			if deps.Unreachable != nil && deps.Unreachable(err) {
				// Hand connectivity failures to the offline layer.
				return err
			}
			log.Printf("httpapi: weather fetch failed for %s: %v", key, err)
			return fiber.NewError(fiber.StatusInternalServerError, "erreur lors de la récupération des données météo")
		}

		deps.WeatherCache.Set(key, data, gocache.DefaultExpiration)
		return c.JSON(data)
	})

	v1.Get("/reverse-geocoding", func(c *fiber.Ctx) error {
		lat, lon, err := parseCoordinates(c)
		if err != nil {
			return err
		}
		if deps.Reverse == nil {
			return c.JSON(fiber.Map{"result": nil})
		}
		place, ok := deps.Reverse.Lookup(lat, lon)
		if !ok {
			return c.JSON(fiber.Map{"result": nil})
		}
		return c.JSON(fiber.Map{"result": place})
	})

	registerFavorites(v1, deps.Store)
	registerPreferences(v1, deps.Store)
	registerSearchHistory(v1, deps.Store)
}

// coordinateQuery validates the raw lat/lon query parameters.
type coordinateQuery struct {
	Lat string `validate:"required,latitude"`
	Lon string `validate:"required,longitude"`
}

// parseCoordinates reads lat/lon from the query. Missing or malformed
// coordinates are a user-visible validation message, not a crash.
func parseCoordinates(c *fiber.Ctx) (float64, float64, error) {
	q := coordinateQuery{Lat: c.Query("lat"), Lon: c.Query("lon")}
	if q.Lat == "" || q.Lon == "" {
		return 0, 0, fiber.NewError(fiber.StatusBadRequest, "latitude et longitude requises")
	}
	if err := validate.Struct(q); err != nil {
		return 0, 0, fiber.NewError(fiber.StatusBadRequest, "coordonnées invalides")
	}

	lat, err := strconv.ParseFloat(q.Lat, 64)
	if err != nil {
		return 0, 0, fiber.NewError(fiber.StatusBadRequest, "coordonnées invalides")
	}
	lon, err := strconv.ParseFloat(q.Lon, 64)
	if err != nil {
		return 0, 0, fiber.NewError(fiber.StatusBadRequest, "coordonnées invalides")
	}
	return lat, lon, nil
}

// cityRequest is the body for favorite and history additions.
type cityRequest struct {
	Name      string  `json:"name" validate:"required"`
	Country   string  `json:"country"`
	Latitude  float64 `json:"latitude" validate:"gte=-90,lte=90"`
	Longitude float64 `json:"longitude" validate:"gte=-180,lte=180"`
}

func parseCityRequest(c *fiber.Ctx) (cityRequest, error) {
	var req cityRequest
	if err := c.BodyParser(&req); err != nil {
		return req, fiber.NewError(fiber.StatusBadRequest, "corps de requête invalide")
	}
	if err := validate.Struct(req); err != nil {
		return req, fiber.NewError(fiber.StatusBadRequest, err.Error())
	}
	return req, nil
}

func registerFavorites(v1 fiber.Router, store *prefs.Store) {
	v1.Get("/favorites", func(c *fiber.Ctx) error {
		favorites := store.Favorites()
		if favorites == nil {
			favorites = []prefs.FavoriteCity{}
		}
		return c.JSON(fiber.Map{"favorites": favorites})
	})

	v1.Post("/favorites", func(c *fiber.Ctx) error {
		req, err := parseCityRequest(c)
		if err != nil {
			return err
		}
		favorite := store.AddFavorite(req.Name, req.Country, req.Latitude, req.Longitude)
		return c.Status(fiber.StatusCreated).JSON(favorite)
	})

	v1.Delete("/favorites/:id", func(c *fiber.Ctx) error {
		store.RemoveFavorite(c.Params("id"))
		return c.SendStatus(fiber.StatusNoContent)
	})

	v1.Get("/favorites/contains", func(c *fiber.Ctx) error {
		lat, lon, err := parseCoordinates(c)
		if err != nil {
			return err
		}
		return c.JSON(fiber.Map{"favorite": store.IsFavorite(lat, lon)})
	})
}

// preferencesRequest validates a partial preferences update.
type preferencesRequest struct {
	TemperatureUnit *string `json:"temperatureUnit" validate:"omitempty,oneof=celsius fahrenheit"`
	WindSpeedUnit   *string `json:"windSpeedUnit" validate:"omitempty,oneof=kmh mph"`
	TimeFormat      *string `json:"timeFormat" validate:"omitempty,oneof=24h 12h"`
	Theme           *string `json:"theme" validate:"omitempty,oneof=system light dark"`
}

func (r preferencesRequest) toPatch() prefs.PreferencesPatch {
	var patch prefs.PreferencesPatch
	if r.TemperatureUnit != nil {
		u := prefs.TemperatureUnit(*r.TemperatureUnit)
		patch.TemperatureUnit = &u
	}
	if r.WindSpeedUnit != nil {
		u := prefs.WindSpeedUnit(*r.WindSpeedUnit)
		patch.WindSpeedUnit = &u
	}
	if r.TimeFormat != nil {
		f := prefs.TimeFormat(*r.TimeFormat)
		patch.TimeFormat = &f
	}
	if r.Theme != nil {
		th := prefs.Theme(*r.Theme)
		patch.Theme = &th
	}
	return patch
}

func registerPreferences(v1 fiber.Router, store *prefs.Store) {
	v1.Get("/preferences", func(c *fiber.Ctx) error {
		return c.JSON(store.Preferences())
	})

	v1.Patch("/preferences", func(c *fiber.Ctx) error {
		var req preferencesRequest
		if err := c.BodyParser(&req); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "corps de requête invalide")
		}
		if err := validate.Struct(req); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, err.Error())
		}
		return c.JSON(store.SetPreferences(req.toPatch()))
	})
}

func registerSearchHistory(v1 fiber.Router, store *prefs.Store) {
	v1.Get("/search-history", func(c *fiber.Ctx) error {
		history := store.SearchHistory()
		if history == nil {
			history = []prefs.SearchHistoryItem{}
		}
		return c.JSON(fiber.Map{"history": history})
	})

	v1.Post("/search-history", func(c *fiber.Ctx) error {
		req, err := parseCityRequest(c)
		if err != nil {
			return err
		}
		store.AddToSearchHistory(req.Name, req.Country, req.Latitude, req.Longitude)
		return c.SendStatus(fiber.StatusNoContent)
	})

	v1.Delete("/search-history", func(c *fiber.Ctx) error {
		store.ClearSearchHistory()
		return c.SendStatus(fiber.StatusNoContent)
	})
}
