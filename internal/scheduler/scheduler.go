// Package scheduler keeps forecasts for favorite cities warm so they are
// served from cache while fresh and stay available when connectivity drops.
package scheduler

import (
	"context"
	"log"
	"sync"
	"time"

	"github.com/go-co-op/gocron"
	gocache "github.com/patrickmn/go-cache"

	"meteoaura/internal/prefs"
	"meteoaura/internal/weather"
)

// Fetcher is the upstream forecast dependency; the gateway satisfies it.
type Fetcher interface {
	FetchWeather(ctx context.Context, lat, lon float64, name, country string) (*weather.WeatherData, error)
}

// Scheduler periodically refreshes the forecast cache for every favorite.
type Scheduler struct {
	scheduler *gocron.Scheduler
	fetcher   Fetcher
	store     *prefs.Store
	cache     *gocache.Cache
	interval  time.Duration
}

// New creates a Scheduler refreshing favorites every interval.
func New(fetcher Fetcher, store *prefs.Store, cache *gocache.Cache, interval time.Duration) *Scheduler {
	return &Scheduler{
		scheduler: gocron.NewScheduler(time.UTC),
		fetcher:   fetcher,
		store:     store,
		cache:     cache,
		interval:  interval,
	}
}

// RefreshOnce fetches a fresh forecast for every current favorite and
// primes the cache. Failures are logged per city and never abort the rest
// of the batch.
func (s *Scheduler) RefreshOnce(ctx context.Context) {
	favorites := s.store.Favorites()
	if len(favorites) == 0 {
		return
	}
	log.Printf("scheduler: refreshing %d favorite(s)", len(favorites))

	var wg sync.WaitGroup
	for _, city := range favorites {
		city := city
		wg.Add(1)
		go func() {
			defer wg.Done()

			fetchCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
			defer cancel()

			data, err := s.fetcher.FetchWeather(fetchCtx, city.Latitude, city.Longitude, city.Name, city.Country)
			if err != nil {
				log.Printf("scheduler: refresh failed for %s: %v", city.ID, err)
				return
			}
			s.cache.Set(city.ID, data, gocache.DefaultExpiration)
		}()
	}
	wg.Wait()
}

// Start schedules the periodic refresh and starts the underlying scheduler.
func (s *Scheduler) Start() error {
	minutes := int(s.interval.Minutes())
	if minutes <= 0 {
		minutes = 15
	}

	_, err := s.scheduler.Every(minutes).Minutes().Do(func() {
		s.RefreshOnce(context.Background())
	})
	if err != nil {
		return err
	}

	s.scheduler.StartAsync()
	return nil
}

// Stop stops the scheduler and cancels any future jobs.
func (s *Scheduler) Stop() {
	if s.scheduler != nil {
		s.scheduler.Stop()
	}
}
