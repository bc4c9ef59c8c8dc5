package offline

import "sync"

// Response is a stored (or synthesized) HTTP response. Bodies are held as
// copies; a cached response never aliases live handler buffers.
type Response struct {
	StatusCode  int
	ContentType string
	Body        []byte
}

// Cache holds named generations of responses keyed by request identity.
// One generation is active at a time; superseded generations are deleted
// wholesale on activation, which keeps growth bounded across deployments.
type Cache struct {
	mu          sync.RWMutex
	generations map[string]map[string]Response
}

func NewCache() *Cache {
	return &Cache{generations: make(map[string]map[string]Response)}
}

// Put stores a response in the named generation, overwriting any previous
// entry for the same request identity.
func (c *Cache) Put(generation, key string, resp Response) {
	body := make([]byte, len(resp.Body))
	copy(body, resp.Body)
	resp.Body = body

	c.mu.Lock()
	defer c.mu.Unlock()

	bucket, ok := c.generations[generation]
	if !ok {
		bucket = make(map[string]Response)
		c.generations[generation] = bucket
	}
	bucket[key] = resp
}

// Get looks up a response by request identity within a generation.
func (c *Cache) Get(generation, key string) (Response, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	bucket, ok := c.generations[generation]
	if !ok {
		return Response{}, false
	}
	resp, ok := bucket[key]
	return resp, ok
}

// Generations lists every generation currently holding entries.
func (c *Cache) Generations() []string {
	c.mu.RLock()
	defer c.mu.RUnlock()

	names := make([]string, 0, len(c.generations))
	for name := range c.generations {
		names = append(names, name)
	}
	return names
}

// DeleteGeneration drops a whole generation.
func (c *Cache) DeleteGeneration(generation string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.generations, generation)
}

// Len returns the number of entries in a generation.
func (c *Cache) Len(generation string) int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.generations[generation])
}
