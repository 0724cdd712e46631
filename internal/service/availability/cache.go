package availability

import (
	"sort"
	"strings"

	"github.com/google/uuid"
	"github.com/patrickmn/go-cache"

	"github.com/jwalitptl/garage-api/internal/model"
)

// Cache memoizes computed availability per date and operation set. Entries
// never expire on their own; they are evicted when a booking commits for the
// date. Owned by the availability service, created at service start.
type Cache struct {
	store *cache.Cache
}

func NewCache() *Cache {
	return &Cache{
		store: cache.New(cache.NoExpiration, 0),
	}
}

// cacheKey joins the ISO date with a canonical sorted serialization of the
// operation ids, so the same operation set in any order hits the same entry.
func cacheKey(date string, operationIDs []uuid.UUID) string {
	ids := make([]string, len(operationIDs))
	for i, id := range operationIDs {
		ids[i] = id.String()
	}
	sort.Strings(ids)
	return date + "|" + strings.Join(ids, ",")
}

func (c *Cache) Get(date string, operationIDs []uuid.UUID) ([]model.TimeSlot, bool) {
	v, ok := c.store.Get(cacheKey(date, operationIDs))
	if !ok {
		return nil, false
	}
	slots, ok := v.([]model.TimeSlot)
	return slots, ok
}

func (c *Cache) Set(date string, operationIDs []uuid.UUID, slots []model.TimeSlot) {
	c.store.Set(cacheKey(date, operationIDs), slots, cache.NoExpiration)
}

// InvalidateDate evicts every entry for the date, whatever operation set it
// was computed for. Broader than the booked operation set, which keeps all
// read paths for the day consistent after a commit.
func (c *Cache) InvalidateDate(date string) {
	prefix := date + "|"
	for key := range c.store.Items() {
		if strings.HasPrefix(key, prefix) {
			c.store.Delete(key)
		}
	}
}

func (c *Cache) Len() int {
	return c.store.ItemCount()
}
