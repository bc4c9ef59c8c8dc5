// Package openmeteo translates between the app's normalized schema and the
// Open-Meteo forecast/geocoding APIs.
package openmeteo

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/sony/gobreaker"

	"meteoaura/internal/weather"
)

const (
	defaultGeocodingURL = "https://geocoding-api.open-meteo.com/v1/search"
	defaultForecastURL  = "https://api.open-meteo.com/v1/forecast"

	// DefaultSearchCount is the geocoding result limit when the caller
	// does not specify one.
	DefaultSearchCount = 8

	forecastDays  = 7
	forecastHours = 48
)

// Client is the upstream weather gateway.
type Client struct {
	geocodingURL string
	forecastURL  string
	httpCfg      HTTPClientConfig
	circuit      *gobreaker.CircuitBreaker
}

// NewClient creates a gateway client. Empty URLs select the public
// Open-Meteo endpoints; tests point them at local fakes.
func NewClient(httpClient *http.Client, geocodingURL, forecastURL string) *Client {
	if geocodingURL == "" {
		geocodingURL = defaultGeocodingURL
	}
	if forecastURL == "" {
		forecastURL = defaultForecastURL
	}

	cb := gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        "openmeteo",
		MaxRequests: 5,
		Interval:    1 * time.Minute,
		Timeout:     2 * time.Minute,
	})

	return &Client{
		geocodingURL: geocodingURL,
		forecastURL:  forecastURL,
		httpCfg: HTTPClientConfig{
			Client: httpClient,
			Backoff: BackoffConfig{
				MaxRetries:      3,
				InitialInterval: 500 * time.Millisecond,
				MaxInterval:     5 * time.Second,
			},
		},
		circuit: cb,
	}
}

// geocodingResponse mirrors the provider's geocoding payload (snake_case).
type geocodingResponse struct {
	Results []struct {
		ID          int64   `json:"id"`
		Name        string  `json:"name"`
		Latitude    float64 `json:"latitude"`
		Longitude   float64 `json:"longitude"`
		Country     string  `json:"country"`
		CountryCode string  `json:"country_code"`
		Admin1      string  `json:"admin1,omitempty"`
		Timezone    string  `json:"timezone"`
	} `json:"results"`
}

// SearchCities looks up city candidates for a free-text query. Queries
// shorter than two characters return immediately without a network call:
// the UI fires this on every keystroke and one-letter lookups are pure
// upstream noise. Every failure is absorbed into an empty result; a broken
// geocoder must only ever look like "no suggestions".
func (c *Client) SearchCities(ctx context.Context, query string, count int) []weather.GeoLocation {
	if len(query) < 2 {
		return nil
	}
	if count <= 0 {
		count = DefaultSearchCount
	}

	values := url.Values{}
	values.Set("name", query)
	values.Set("count", strconv.Itoa(count))
	values.Set("language", "fr")
	values.Set("format", "json")

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.geocodingURL+"?"+values.Encode(), nil)
	if err != nil {
		return nil
	}

	resp, err := c.httpCfg.Client.Do(req)
	if err != nil {
		log.Printf("openmeteo: geocoding request failed: %v", err)
		return nil
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		log.Printf("openmeteo: geocoding returned status %d", resp.StatusCode)
		return nil
	}

	var payload geocodingResponse
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		log.Printf("openmeteo: geocoding decode failed: %v", err)
		return nil
	}

	locations := make([]weather.GeoLocation, 0, len(payload.Results))
	for _, r := range payload.Results {
		locations = append(locations, weather.GeoLocation{
			ID:          r.ID,
			Name:        r.Name,
			Latitude:    r.Latitude,
			Longitude:   r.Longitude,
			Country:     r.Country,
			CountryCode: r.CountryCode,
			Admin1:      r.Admin1,
			Timezone:    r.Timezone,
		})
	}
	return locations
}

// forecastResponse mirrors the provider's forecast payload: flat parallel
// arrays indexed by time slot.
type forecastResponse struct {
	Timezone             string `json:"timezone"`
	TimezoneAbbreviation string `json:"timezone_abbreviation"`
	Current              struct {
		Time                string  `json:"time"`
		Temperature2m       float64 `json:"temperature_2m"`
		ApparentTemperature float64 `json:"apparent_temperature"`
		RelativeHumidity2m  float64 `json:"relative_humidity_2m"`
		WindSpeed10m        float64 `json:"wind_speed_10m"`
		WindDirection10m    float64 `json:"wind_direction_10m"`
		WindGusts10m        float64 `json:"wind_gusts_10m"`
		SurfacePressure     float64 `json:"surface_pressure"`
		CloudCover          float64 `json:"cloud_cover"`
		Precipitation       float64 `json:"precipitation"`
		WeatherCode         int     `json:"weather_code"`
		IsDay               int     `json:"is_day"`
	} `json:"current"`
	Hourly struct {
		Time                     []string  `json:"time"`
		Temperature2m            []float64 `json:"temperature_2m"`
		PrecipitationProbability []float64 `json:"precipitation_probability"`
		WeatherCode              []int     `json:"weather_code"`
		IsDay                    []int     `json:"is_day"`
	} `json:"hourly"`
	Daily struct {
		Time                        []string  `json:"time"`
		Temperature2mMin            []float64 `json:"temperature_2m_min"`
		Temperature2mMax            []float64 `json:"temperature_2m_max"`
		PrecipitationProbabilityMax []float64 `json:"precipitation_probability_max"`
		WeatherCode                 []int     `json:"weather_code"`
		Sunrise                     []string  `json:"sunrise"`
		Sunset                      []string  `json:"sunset"`
		UVIndexMax                  []float64 `json:"uv_index_max"`
	} `json:"daily"`
}

// FetchWeather requests current conditions plus the 48-hour hourly and
// 7-day daily blocks in a single upstream call and reshapes the parallel
// arrays into per-slot records. Unlike geocoding, failures propagate: the
// forecast is the primary content of the page and the caller must render
// the error.
func (c *Client) FetchWeather(ctx context.Context, lat, lon float64, name, country string) (*weather.WeatherData, error) {
	values := url.Values{}
	values.Set("latitude", strconv.FormatFloat(lat, 'f', -1, 64))
	values.Set("longitude", strconv.FormatFloat(lon, 'f', -1, 64))
	values.Set("current", "temperature_2m,apparent_temperature,relative_humidity_2m,wind_speed_10m,wind_direction_10m,wind_gusts_10m,surface_pressure,cloud_cover,precipitation,weather_code,is_day")
	values.Set("hourly", "temperature_2m,precipitation_probability,weather_code,is_day")
	values.Set("daily", "temperature_2m_min,temperature_2m_max,precipitation_probability_max,weather_code,sunrise,sunset,uv_index_max")
	values.Set("timezone", "auto")
	values.Set("forecast_days", strconv.Itoa(forecastDays))
	values.Set("forecast_hours", strconv.Itoa(forecastHours))

	buildRequest := func() (*http.Request, error) {
		return http.NewRequest(http.MethodGet, c.forecastURL+"?"+values.Encode(), nil)
	}

	resp, err := doRequestWithResilience(ctx, c.httpCfg, c.circuit, buildRequest)
	if err != nil {
		return nil, fmt.Errorf("open-meteo forecast: %w", err)
	}
	defer resp.Body.Close()

	var payload forecastResponse
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, fmt.Errorf("open-meteo forecast: decoding response: %w", err)
	}

	data := normalize(&payload, lat, lon, name, country)
	return data, nil
}

// normalize zips the provider's parallel arrays into per-hour and per-day
// records. The arrays are index-aligned by contract; a length mismatch is
// capped to the shortest array rather than trusted.
func normalize(payload *forecastResponse, lat, lon float64, name, country string) *weather.WeatherData {
	current := weather.CurrentWeather{
		Temperature:   payload.Current.Temperature2m,
		FeelsLike:     payload.Current.ApparentTemperature,
		Humidity:      payload.Current.RelativeHumidity2m,
		WindSpeed:     payload.Current.WindSpeed10m,
		WindDirection: payload.Current.WindDirection10m,
		WindGusts:     payload.Current.WindGusts10m,
		Pressure:      payload.Current.SurfacePressure,
		CloudCover:    payload.Current.CloudCover,
		Precipitation: payload.Current.Precipitation,
		WeatherCode:   payload.Current.WeatherCode,
		IsDay:         payload.Current.IsDay == 1,
	}
	if len(payload.Daily.UVIndexMax) > 0 {
		current.UVIndex = payload.Daily.UVIndexMax[0]
	}

	h := &payload.Hourly
	hn := min(len(h.Time), len(h.Temperature2m), len(h.PrecipitationProbability), len(h.WeatherCode), len(h.IsDay))
	hourly := make([]weather.HourlyForecast, 0, hn)
	for i := 0; i < hn; i++ {
		hourly = append(hourly, weather.HourlyForecast{
			Time:                     h.Time[i],
			Temperature:              h.Temperature2m[i],
			PrecipitationProbability: h.PrecipitationProbability[i],
			WeatherCode:              h.WeatherCode[i],
			IsDay:                    h.IsDay[i] == 1,
		})
	}

	d := &payload.Daily
	dn := min(len(d.Time), len(d.Temperature2mMin), len(d.Temperature2mMax),
		len(d.PrecipitationProbabilityMax), len(d.WeatherCode),
		len(d.Sunrise), len(d.Sunset), len(d.UVIndexMax))
	daily := make([]weather.DailyForecast, 0, dn)
	for i := 0; i < dn; i++ {
		daily = append(daily, weather.DailyForecast{
			Date:                     d.Time[i],
			TempMin:                  d.Temperature2mMin[i],
			TempMax:                  d.Temperature2mMax[i],
			PrecipitationProbability: d.PrecipitationProbabilityMax[i],
			WeatherCode:              d.WeatherCode[i],
			Sunrise:                  d.Sunrise[i],
			Sunset:                   d.Sunset[i],
			UVIndexMax:               d.UVIndexMax[i],
		})
	}

	return &weather.WeatherData{
		Location: weather.GeoLocation{
			Name:      name,
			Latitude:  lat,
			Longitude: lon,
			Country:   country,
			Timezone:  payload.Timezone,
		},
		Current:              current,
		Hourly:               hourly,
		Daily:                daily,
		Timezone:             payload.Timezone,
		TimezoneAbbreviation: payload.TimezoneAbbreviation,
	}
}
