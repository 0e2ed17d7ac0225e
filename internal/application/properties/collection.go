package properties

import (
	"sync"

	"property-dapp-backend/internal/domain"
	"property-dapp-backend/internal/pkg/metrics"
)

// Collection is the in-memory listing set for the process lifetime, ordered by insertion.
type Collection struct {
	mu    sync.RWMutex
	order []uint64
	byID  map[uint64]domain.Property
}

func NewCollection() *Collection {
	return &Collection{byID: make(map[uint64]domain.Property)}
}

func (c *Collection) List() []domain.Property {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make([]domain.Property, 0, len(c.order))
	for _, id := range c.order {
		out = append(out, c.byID[id])
	}
	return out
}

func (c *Collection) Get(appID uint64) (domain.Property, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	p, ok := c.byID[appID]
	return p, ok
}

// Upsert inserts p at the end or replaces the listing with the same id in place.
func (c *Collection) Upsert(p domain.Property) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if _, ok := c.byID[p.AppID]; !ok {
		c.order = append(c.order, p.AppID)
	}
	c.byID[p.AppID] = p
	metrics.Listings.Set(float64(len(c.order)))
}

func (c *Collection) Remove(appID uint64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if _, ok := c.byID[appID]; !ok {
		return
	}
	delete(c.byID, appID)
	for i, id := range c.order {
		if id == appID {
			c.order = append(c.order[:i], c.order[i+1:]...)
			break
		}
	}
	metrics.Listings.Set(float64(len(c.order)))
}

// Replace swaps the whole set, keeping the first occurrence of each id.
func (c *Collection) Replace(list []domain.Property) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.order = make([]uint64, 0, len(list))
	c.byID = make(map[uint64]domain.Property, len(list))
	for _, p := range list {
		if _, ok := c.byID[p.AppID]; ok {
			continue
		}
		c.order = append(c.order, p.AppID)
		c.byID[p.AppID] = p
	}
	metrics.Listings.Set(float64(len(c.order)))
}
