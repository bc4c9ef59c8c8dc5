package weather

import "strconv"

// Condition represents a normalized high-level weather condition.
type Condition string

const (
	ConditionClear        Condition = "clear"
	ConditionPartlyCloudy Condition = "partly-cloudy"
	ConditionCloudy       Condition = "cloudy"
	ConditionFog          Condition = "fog"
	ConditionDrizzle      Condition = "drizzle"
	ConditionRain         Condition = "rain"
	ConditionSnow         Condition = "snow"
	ConditionThunderstorm Condition = "thunderstorm"
)

// GeoLocation is a normalized geocoding result.
type GeoLocation struct {
	ID          int64   `json:"id"`
	Name        string  `json:"name"`
	Latitude    float64 `json:"latitude"`
	Longitude   float64 `json:"longitude"`
	Country     string  `json:"country"`
	CountryCode string  `json:"countryCode"`
	Admin1      string  `json:"admin1,omitempty"`
	Timezone    string  `json:"timezone"`
}

// CurrentWeather is the normalized current snapshot. UVIndex comes from the
// first daily entry; Open-Meteo does not report a current UV index.
type CurrentWeather struct {
	Temperature   float64 `json:"temperature"`
	FeelsLike     float64 `json:"feelsLike"`
	Humidity      float64 `json:"humidity"`
	WindSpeed     float64 `json:"windSpeed"`
	WindDirection float64 `json:"windDirection"`
	WindGusts     float64 `json:"windGusts"`
	Pressure      float64 `json:"pressure"`
	CloudCover    float64 `json:"cloudCover"`
	Precipitation float64 `json:"precipitation"`
	WeatherCode   int     `json:"weatherCode"`
	IsDay         bool    `json:"isDay"`
	UVIndex       float64 `json:"uvIndex"`
}

// HourlyForecast is one entry of the 48-hour window, ordered by time ascending.
type HourlyForecast struct {
	Time                     string  `json:"time"`
	Temperature              float64 `json:"temperature"`
	PrecipitationProbability float64 `json:"precipitationProbability"`
	WeatherCode              int     `json:"weatherCode"`
	IsDay                    bool    `json:"isDay"`
}

// DailyForecast is one entry of the 7-day window.
type DailyForecast struct {
	Date                     string  `json:"date"`
	TempMin                  float64 `json:"tempMin"`
	TempMax                  float64 `json:"tempMax"`
	PrecipitationProbability float64 `json:"precipitationProbability"`
	WeatherCode              int     `json:"weatherCode"`
	Sunrise                  string  `json:"sunrise"`
	Sunset                   string  `json:"sunset"`
	UVIndexMax               float64 `json:"uvIndexMax"`
}

// WeatherData is the full normalized forecast response. It is transient:
// built per request, never merged with prior state.
type WeatherData struct {
	Location             GeoLocation      `json:"location"`
	Current              CurrentWeather   `json:"current"`
	Hourly               []HourlyForecast `json:"hourly"`
	Daily                []DailyForecast  `json:"daily"`
	Timezone             string           `json:"timezone"`
	TimezoneAbbreviation string           `json:"timezoneAbbreviation"`
}

// CoordinateKey returns the canonical "{lat}-{lon}" identity for a coordinate
// pair. Favorites, search-history dedup and the forecast response cache all
// key on it.
func CoordinateKey(lat, lon float64) string {
	return strconv.FormatFloat(lat, 'f', -1, 64) + "-" + strconv.FormatFloat(lon, 'f', -1, 64)
}
