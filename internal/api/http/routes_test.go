package httpapi

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	gocache "github.com/patrickmn/go-cache"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"meteoaura/internal/prefs"
	"meteoaura/internal/weather"
)

type fakeGateway struct {
	searchCalls int
	fetchCalls  int
	locations   []weather.GeoLocation
	data        *weather.WeatherData
	err         error
}

func (g *fakeGateway) SearchCities(_ context.Context, query string, count int) []weather.GeoLocation {
	g.searchCalls++
	return g.locations
}

func (g *fakeGateway) FetchWeather(_ context.Context, lat, lon float64, name, country string) (*weather.WeatherData, error) {
	g.fetchCalls++
	if g.err != nil {
		return nil, g.err
	}
	return g.data, nil
}

type fakeReverse struct {
	place weather.Place
	found bool
}

func (r fakeReverse) Lookup(lat, lon float64) (weather.Place, bool) {
	return r.place, r.found
}

func newTestApp(t *testing.T, gw *fakeGateway, deps ...func(*Deps)) (*fiber.App, Deps) {
	t.Helper()
	d := Deps{
		Gateway:      gw,
		Store:        prefs.NewStore(prefs.NewMemoryBackend()),
		WeatherCache: gocache.New(10*time.Minute, time.Minute),
	}
	for _, apply := range deps {
		apply(&d)
	}
	app := fiber.New(fiber.Config{ErrorHandler: ErrorHandler})
	RegisterRoutes(app, d)
	return app, d
}

func doJSON(t *testing.T, app *fiber.App, method, target string, body any) (*http.Response, map[string]json.RawMessage) {
	t.Helper()
	var reader io.Reader
	if body != nil {
		encoded, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(encoded)
	}
	req := httptest.NewRequest(method, target, reader)
	if body != nil {
		req.Header.Set(fiber.HeaderContentType, fiber.MIMEApplicationJSON)
	}
	resp, err := app.Test(req)
	require.NoError(t, err)

	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	var decoded map[string]json.RawMessage
	if len(raw) > 0 {
		require.NoError(t, json.Unmarshal(raw, &decoded), "body: %s", raw)
	}
	return resp, decoded
}

func TestHealth(t *testing.T) {
	app, _ := newTestApp(t, &fakeGateway{})

	resp, body := doJSON(t, app, http.MethodGet, "/health", nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.JSONEq(t, `"ok"`, string(body["status"]))
	assert.JSONEq(t, `"meteo-aura"`, string(body["service"]))
}

func TestGeocodingReturnsResults(t *testing.T) {
	gw := &fakeGateway{locations: []weather.GeoLocation{
		{Name: "Paris", Country: "France", Latitude: 48.85, Longitude: 2.35},
	}}
	app, _ := newTestApp(t, gw)

	resp, body := doJSON(t, app, http.MethodGet, "/api/v1/geocoding?q=Paris", nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	var results []weather.GeoLocation
	require.NoError(t, json.Unmarshal(body["results"], &results))
	require.Len(t, results, 1)
	assert.Equal(t, "Paris", results[0].Name)
	assert.Equal(t, 1, gw.searchCalls)
}

func TestGeocodingShortQuerySkipsGateway(t *testing.T) {
	gw := &fakeGateway{}
	app, _ := newTestApp(t, gw)

	for _, target := range []string{"/api/v1/geocoding?q=P", "/api/v1/geocoding"} {
		resp, body := doJSON(t, app, http.MethodGet, target, nil)
		assert.Equal(t, http.StatusOK, resp.StatusCode)
		assert.JSONEq(t, `[]`, string(body["results"]))
	}
	assert.Equal(t, 0, gw.searchCalls)
}

func TestWeatherRequiresCoordinates(t *testing.T) {
	app, _ := newTestApp(t, &fakeGateway{})

	resp, body := doJSON(t, app, http.MethodGet, "/api/v1/weather", nil)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.JSONEq(t, `"latitude et longitude requises"`, string(body["error"]))

	resp, body = doJSON(t, app, http.MethodGet, "/api/v1/weather?lat=abc&lon=2.35", nil)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.JSONEq(t, `"coordonnées invalides"`, string(body["error"]))

	resp, _ = doJSON(t, app, http.MethodGet, "/api/v1/weather?lat=91&lon=2.35", nil)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestWeatherFetchesAndCaches(t *testing.T) {
	gw := &fakeGateway{data: &weather.WeatherData{
		Location: weather.GeoLocation{Name: "Paris", Latitude: 48.85, Longitude: 2.35},
		Current:  weather.CurrentWeather{Temperature: 21.5, WeatherCode: 3},
	}}
	app, _ := newTestApp(t, gw)

	resp, body := doJSON(t, app, http.MethodGet, "/api/v1/weather?lat=48.85&lon=2.35&name=Paris", nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	var current weather.CurrentWeather
	require.NoError(t, json.Unmarshal(body["current"], &current))
	assert.Equal(t, 21.5, current.Temperature)

	// Second hit is served from the cache without touching the gateway.
	resp, _ = doJSON(t, app, http.MethodGet, "/api/v1/weather?lat=48.85&lon=2.35", nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, 1, gw.fetchCalls)
}

func TestWeatherUpstreamFailure(t *testing.T) {
	gw := &fakeGateway{err: errors.New("open-meteo returned 500")}
	app, _ := newTestApp(t, gw)

	resp, body := doJSON(t, app, http.MethodGet, "/api/v1/weather?lat=48.85&lon=2.35", nil)
	assert.Equal(t, http.StatusInternalServerError, resp.StatusCode)
	assert.JSONEq(t, `"erreur lors de la récupération des données météo"`, string(body["error"]))
}

func TestWeatherUnreachablePropagates(t *testing.T) {
	down := errors.New("connection refused")
	gw := &fakeGateway{err: down}
	app, _ := newTestApp(t, gw, func(d *Deps) {
		d.Unreachable = func(err error) bool { return errors.Is(err, down) }
	})

	// Without an offline layer the raw error lands in the error handler as
	// a generic 500, not the upstream message.
	resp, body := doJSON(t, app, http.MethodGet, "/api/v1/weather?lat=48.85&lon=2.35", nil)
	assert.Equal(t, http.StatusInternalServerError, resp.StatusCode)
	assert.JSONEq(t, `"erreur interne"`, string(body["error"]))
}

func TestReverseGeocoding(t *testing.T) {
	app, _ := newTestApp(t, &fakeGateway{}, func(d *Deps) {
		d.Reverse = fakeReverse{place: weather.Place{Name: "Lyon", Country: "France"}, found: true}
	})

	resp, body := doJSON(t, app, http.MethodGet, "/api/v1/reverse-geocoding?lat=45.76&lon=4.84", nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	var place weather.Place
	require.NoError(t, json.Unmarshal(body["result"], &place))
	assert.Equal(t, "Lyon", place.Name)
}

func TestReverseGeocodingUnavailable(t *testing.T) {
	app, _ := newTestApp(t, &fakeGateway{})

	resp, body := doJSON(t, app, http.MethodGet, "/api/v1/reverse-geocoding?lat=45.76&lon=4.84", nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.JSONEq(t, `null`, string(body["result"]))
}

func TestFavoritesLifecycle(t *testing.T) {
	app, _ := newTestApp(t, &fakeGateway{})

	resp, body := doJSON(t, app, http.MethodGet, "/api/v1/favorites", nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.JSONEq(t, `[]`, string(body["favorites"]))

	city := map[string]any{"name": "Paris", "country": "France", "latitude": 48.85, "longitude": 2.35}
	resp, _ = doJSON(t, app, http.MethodPost, "/api/v1/favorites", city)
	assert.Equal(t, http.StatusCreated, resp.StatusCode)

	resp, body = doJSON(t, app, http.MethodGet, "/api/v1/favorites/contains?lat=48.85&lon=2.35", nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.JSONEq(t, `true`, string(body["favorite"]))

	_, body = doJSON(t, app, http.MethodGet, "/api/v1/favorites", nil)
	var favorites []prefs.FavoriteCity
	require.NoError(t, json.Unmarshal(body["favorites"], &favorites))
	require.Len(t, favorites, 1)

	resp, _ = doJSON(t, app, http.MethodDelete, "/api/v1/favorites/"+favorites[0].ID, nil)
	assert.Equal(t, http.StatusNoContent, resp.StatusCode)

	_, body = doJSON(t, app, http.MethodGet, "/api/v1/favorites/contains?lat=48.85&lon=2.35", nil)
	assert.JSONEq(t, `false`, string(body["favorite"]))
}

func TestAddFavoriteRejectsInvalidBody(t *testing.T) {
	app, _ := newTestApp(t, &fakeGateway{})

	resp, _ := doJSON(t, app, http.MethodPost, "/api/v1/favorites", map[string]any{
		"country": "France", "latitude": 48.85, "longitude": 2.35,
	})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp, _ = doJSON(t, app, http.MethodPost, "/api/v1/favorites", map[string]any{
		"name": "Nulle part", "latitude": 123.0, "longitude": 2.35,
	})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestPreferencesDefaultsAndPatch(t *testing.T) {
	app, _ := newTestApp(t, &fakeGateway{})

	resp, body := doJSON(t, app, http.MethodGet, "/api/v1/preferences", nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.JSONEq(t, `"celsius"`, string(body["temperatureUnit"]))
	assert.JSONEq(t, `"system"`, string(body["theme"]))

	resp, body = doJSON(t, app, http.MethodPatch, "/api/v1/preferences", map[string]any{"theme": "dark"})
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.JSONEq(t, `"dark"`, string(body["theme"]))
	assert.JSONEq(t, `"celsius"`, string(body["temperatureUnit"]))

	// The patch persists across reads.
	_, body = doJSON(t, app, http.MethodGet, "/api/v1/preferences", nil)
	assert.JSONEq(t, `"dark"`, string(body["theme"]))
}

func TestPreferencesRejectsUnknownValues(t *testing.T) {
	app, _ := newTestApp(t, &fakeGateway{})

	resp, _ := doJSON(t, app, http.MethodPatch, "/api/v1/preferences", map[string]any{"temperatureUnit": "kelvin"})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	// A rejected patch leaves the stored preferences untouched.
	_, body := doJSON(t, app, http.MethodGet, "/api/v1/preferences", nil)
	assert.JSONEq(t, `"celsius"`, string(body["temperatureUnit"]))
}

func TestSearchHistoryLifecycle(t *testing.T) {
	app, _ := newTestApp(t, &fakeGateway{})

	resp, _ := doJSON(t, app, http.MethodPost, "/api/v1/search-history", map[string]any{
		"name": "Paris", "country": "France", "latitude": 48.85, "longitude": 2.35,
	})
	assert.Equal(t, http.StatusNoContent, resp.StatusCode)

	resp, body := doJSON(t, app, http.MethodGet, "/api/v1/search-history", nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	var history []prefs.SearchHistoryItem
	require.NoError(t, json.Unmarshal(body["history"], &history))
	require.Len(t, history, 1)
	assert.Equal(t, "Paris", history[0].Name)

	resp, _ = doJSON(t, app, http.MethodDelete, "/api/v1/search-history", nil)
	assert.Equal(t, http.StatusNoContent, resp.StatusCode)

	_, body = doJSON(t, app, http.MethodGet, "/api/v1/search-history", nil)
	assert.JSONEq(t, `[]`, string(body["history"]))
}

func TestShellPagesServed(t *testing.T) {
	app := fiber.New()
	RegisterPages(app)

	for _, path := range []string{"/", "/favorites", "/about", "/offline.html"} {
		req := httptest.NewRequest(http.MethodGet, path, nil)
		resp, err := app.Test(req)
		require.NoError(t, err)
		assert.Equal(t, http.StatusOK, resp.StatusCode, path)
		assert.Contains(t, resp.Header.Get(fiber.HeaderContentType), "text/html", path)
	}
}
