// Package prefs is the durable, single-writer store for favorites, user
// preferences and search history. Reads degrade to defaults on absent or
// corrupted data; writes are best-effort and never surface an error.
package prefs

import (
	"encoding/json"
	"log"
	"sync"
	"time"

	"meteoaura/internal/weather"
)

const (
	keyFavorites     = "meteo-aura-favorites"
	keyPreferences   = "meteo-aura-preferences"
	keySearchHistory = "meteo-aura-search-history"

	maxSearchHistory = 10
)

// FavoriteCity is a user-pinned location. ID is derived from the
// coordinates and stable per pair.
type FavoriteCity struct {
	ID        string  `json:"id"`
	Name      string  `json:"name"`
	Country   string  `json:"country"`
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
	AddedAt   int64   `json:"addedAt"` // epoch millis
}

type TemperatureUnit string

const (
	TemperatureCelsius    TemperatureUnit = "celsius"
	TemperatureFahrenheit TemperatureUnit = "fahrenheit"
)

type WindSpeedUnit string

const (
	WindSpeedKmh WindSpeedUnit = "kmh"
	WindSpeedMph WindSpeedUnit = "mph"
)

type TimeFormat string

const (
	TimeFormat24h TimeFormat = "24h"
	TimeFormat12h TimeFormat = "12h"
)

type Theme string

const (
	ThemeSystem Theme = "system"
	ThemeLight  Theme = "light"
	ThemeDark   Theme = "dark"
)

// Preferences is the singleton preference record. A value read from the
// store is always fully populated.
type Preferences struct {
	TemperatureUnit TemperatureUnit `json:"temperatureUnit"`
	WindSpeedUnit   WindSpeedUnit   `json:"windSpeedUnit"`
	TimeFormat      TimeFormat      `json:"timeFormat"`
	Theme           Theme           `json:"theme"`
}

// PreferencesPatch carries a partial update; nil fields are left unchanged.
type PreferencesPatch struct {
	TemperatureUnit *TemperatureUnit `json:"temperatureUnit,omitempty"`
	WindSpeedUnit   *WindSpeedUnit   `json:"windSpeedUnit,omitempty"`
	TimeFormat      *TimeFormat      `json:"timeFormat,omitempty"`
	Theme           *Theme           `json:"theme,omitempty"`
}

// DefaultPreferences returns the documented defaults.
func DefaultPreferences() Preferences {
	return Preferences{
		TemperatureUnit: TemperatureCelsius,
		WindSpeedUnit:   WindSpeedKmh,
		TimeFormat:      TimeFormat24h,
		Theme:           ThemeSystem,
	}
}

// SearchHistoryItem is one past city selection, most-recent-first in the
// stored sequence.
type SearchHistoryItem struct {
	Name      string  `json:"name"`
	Country   string  `json:"country"`
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
	Timestamp int64   `json:"timestamp"` // epoch millis
}

// Store is the single writer over the backend. Each operation holds the
// mutex for its whole read-modify-write, so operations never interleave
// mid-write within the process. Separate processes sharing a data dir race
// last-write-wins, same as two browser tabs on one origin.
type Store struct {
	mu      sync.Mutex
	backend Backend
	now     func() time.Time
}

func NewStore(backend Backend) *Store {
	return &Store{backend: backend, now: time.Now}
}

// FavoriteID derives the stable identity for a coordinate pair.
func FavoriteID(lat, lon float64) string {
	return weather.CoordinateKey(lat, lon)
}

// readJSON decodes the document at key into out. Absent or corrupt data
// leaves out untouched: corruption is "no data", never an error.
func (s *Store) readJSON(key string, out any) {
	data, ok := s.backend.Get(key)
	if !ok {
		return
	}
	if err := json.Unmarshal(data, out); err != nil {
		log.Printf("prefs: discarding corrupt entry %q: %v", key, err)
	}
}

// writeJSON persists value at key, best-effort.
func (s *Store) writeJSON(key string, value any) {
	data, err := json.Marshal(value)
	if err != nil {
		log.Printf("prefs: cannot encode entry %q: %v", key, err)
		return
	}
	if err := s.backend.Set(key, data); err != nil {
		log.Printf("prefs: write of %q lost: %v", key, err)
	}
}

func (s *Store) favorites() []FavoriteCity {
	var favorites []FavoriteCity
	s.readJSON(keyFavorites, &favorites)
	return favorites
}

// Favorites returns all favorite cities, empty on absent or corrupt storage.
func (s *Store) Favorites() []FavoriteCity {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.favorites()
}

// AddFavorite pins a city. Adding an already-favorited coordinate pair is
// idempotent: the existing entry is returned unchanged.
func (s *Store) AddFavorite(name, country string, lat, lon float64) FavoriteCity {
	s.mu.Lock()
	defer s.mu.Unlock()

	favorites := s.favorites()
	id := FavoriteID(lat, lon)
	for _, f := range favorites {
		if f.ID == id {
			return f
		}
	}

	favorite := FavoriteCity{
		ID:        id,
		Name:      name,
		Country:   country,
		Latitude:  lat,
		Longitude: lon,
		AddedAt:   s.now().UnixMilli(),
	}
	favorites = append(favorites, favorite)
	s.writeJSON(keyFavorites, favorites)
	return favorite
}

// RemoveFavorite unpins by identity. Unknown ids are a no-op.
func (s *Store) RemoveFavorite(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	favorites := s.favorites()
	kept := favorites[:0]
	for _, f := range favorites {
		if f.ID != id {
			kept = append(kept, f)
		}
	}
	s.writeJSON(keyFavorites, kept)
}

// IsFavorite reports membership for a coordinate pair.
func (s *Store) IsFavorite(lat, lon float64) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	id := FavoriteID(lat, lon)
	for _, f := range s.favorites() {
		if f.ID == id {
			return true
		}
	}
	return false
}

func (s *Store) preferences() Preferences {
	prefs := DefaultPreferences()

	data, ok := s.backend.Get(keyPreferences)
	if !ok {
		return prefs
	}

	// The stored record may be partial (written by an older version);
	// decode it as a patch over the defaults.
	var patch PreferencesPatch
	if err := json.Unmarshal(data, &patch); err != nil {
		log.Printf("prefs: discarding corrupt entry %q: %v", keyPreferences, err)
		return prefs
	}
	applyPatch(&prefs, patch)
	return prefs
}

func applyPatch(prefs *Preferences, patch PreferencesPatch) {
	if patch.TemperatureUnit != nil {
		prefs.TemperatureUnit = *patch.TemperatureUnit
	}
	if patch.WindSpeedUnit != nil {
		prefs.WindSpeedUnit = *patch.WindSpeedUnit
	}
	if patch.TimeFormat != nil {
		prefs.TimeFormat = *patch.TimeFormat
	}
	if patch.Theme != nil {
		prefs.Theme = *patch.Theme
	}
}

// Preferences returns the full record, defaults overlaid with whatever is
// persisted.
func (s *Store) Preferences() Preferences {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.preferences()
}

// SetPreferences merges the patch into the current record (patch wins),
// persists the full record, and returns the merged result so callers can
// update in-memory state immediately.
func (s *Store) SetPreferences(patch PreferencesPatch) Preferences {
	s.mu.Lock()
	defer s.mu.Unlock()

	prefs := s.preferences()
	applyPatch(&prefs, patch)
	s.writeJSON(keyPreferences, prefs)
	return prefs
}

func (s *Store) searchHistory() []SearchHistoryItem {
	var history []SearchHistoryItem
	s.readJSON(keySearchHistory, &history)
	return history
}

// SearchHistory returns past selections, most recent first.
func (s *Store) SearchHistory() []SearchHistoryItem {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.searchHistory()
}

// AddToSearchHistory records a city selection: an existing entry for the
// same coordinates moves to the front with a fresh timestamp, and the list
// is truncated to the 10 most recent.
func (s *Store) AddToSearchHistory(name, country string, lat, lon float64) {
	s.mu.Lock()
	defer s.mu.Unlock()

	history := s.searchHistory()
	filtered := make([]SearchHistoryItem, 0, len(history)+1)
	filtered = append(filtered, SearchHistoryItem{
		Name:      name,
		Country:   country,
		Latitude:  lat,
		Longitude: lon,
		Timestamp: s.now().UnixMilli(),
	})
	for _, h := range history {
		if h.Latitude == lat && h.Longitude == lon {
			continue
		}
		filtered = append(filtered, h)
	}
	if len(filtered) > maxSearchHistory {
		filtered = filtered[:maxSearchHistory]
	}
	s.writeJSON(keySearchHistory, filtered)
}

// ClearSearchHistory drops the whole list.
func (s *Store) ClearSearchHistory() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.backend.Remove(keySearchHistory)
}
