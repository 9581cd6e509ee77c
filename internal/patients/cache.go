package patients

import (
	"context"
	"encoding/json"
	"strconv"

	"github.com/coocood/freecache"
	log "github.com/sirupsen/logrus"
)

const patientCacheExpireSec = 10 * 60

// CachedRepo keeps patient profiles in memory. Only profiles are cached,
// weekly records and metrics are always read fresh.
type CachedRepo struct {
	store patientsRepo
	cache *freecache.Cache
}

func NewCachedRepo(store patientsRepo, cacheSizeMB int) *CachedRepo {
	if cacheSizeMB <= 0 {
		cacheSizeMB = 1
	}
	return &CachedRepo{
		store: store,
		cache: freecache.NewCache(cacheSizeMB * 1024 * 1024),
	}
}

func (c *CachedRepo) Add(ctx context.Context, patient *Patient) (*Patient, error) {
	return c.store.Add(ctx, patient)
}

func (c *CachedRepo) Get(ctx context.Context, id int) (*Patient, error) {
	key := cacheKey(id)
	if patientBytes, err := c.cache.Get(key); err == nil {
		var p Patient
		unmarshalErr := json.Unmarshal(patientBytes, &p)
		if unmarshalErr == nil {
			return &p, nil
		}
		log.Errorf("unmarshal cached patient %d: %s", id, unmarshalErr)
	}

	p, err := c.store.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	patientBytes, err := json.Marshal(p)
	if err != nil {
		log.Errorf("marshal patient %d for cache: %s", id, err)
		return p, nil
	}
	if err := c.cache.Set(key, patientBytes, patientCacheExpireSec); err != nil {
		log.Errorf("cache patient %d: %s", id, err)
	}

	return p, nil
}

func (c *CachedRepo) List(ctx context.Context) ([]Patient, error) {
	return c.store.List(ctx)
}

func (c *CachedRepo) Update(ctx context.Context, patient *Patient) error {
	c.cache.Del(cacheKey(patient.ID))
	return c.store.Update(ctx, patient)
}

func (c *CachedRepo) Delete(ctx context.Context, id int) error {
	c.cache.Del(cacheKey(id))
	return c.store.Delete(ctx, id)
}

func cacheKey(id int) []byte {
	return []byte("patient||" + strconv.Itoa(id))
}
