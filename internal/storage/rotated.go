package storage

import (
	"time"

	"github.com/dgraph-io/ristretto/v2"
	"github.com/rs/zerolog/log"
)

const (
	rotatedTokenTTL  = 10 * time.Minute
	maxRotatedTokens = 10000
)

// RotatedTokenCache remembers token values that were just invalidated by
// rotation or revocation. A lookup miss that hits this cache is a replayed
// cookie, worth a distinct log line; the request is rejected either way,
// so losing an entry only loses the better log message.
type RotatedTokenCache struct {
	cache *ristretto.Cache[string, time.Time]
}

func NewRotatedTokenCache() *RotatedTokenCache {
	c, err := ristretto.NewCache(&ristretto.Config[string, time.Time]{
		NumCounters: maxRotatedTokens,
		MaxCost:     maxRotatedTokens,
		BufferItems: 64,
	})

	if err != nil {
		log.Fatal().Err(err).Msg("Failed to create rotated token cache")
	}

	return &RotatedTokenCache{
		cache: c,
	}
}

func (s *RotatedTokenCache) Add(value string) {
	s.cache.SetWithTTL(value, time.Now(), 1, rotatedTokenTTL)
	s.cache.Wait()
}

func (s *RotatedTokenCache) Seen(value string) bool {
	_, ok := s.cache.Get(value)
	return ok
}
