package cache

import (
	"context"
	"encoding/json"
	"errors"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/fayad123/bcards-server/internal/card/domain"
	"github.com/fayad123/bcards-server/internal/common/constants"
	"github.com/fayad123/bcards-server/internal/common/logger"
	"github.com/fayad123/bcards-server/internal/observability/metrics"
)

const keyPrefix = "bcards:card:"

// entry is the stored value. Card is nil for a tombstone.
type entry struct {
	Version int64        `json:"v"`
	Card    *domain.Card `json:"card,omitempty"`
}

// writeScript compares versions and writes in one server-side step.
// KEYS[1] key; ARGV[1] payload, ARGV[2] version, ARGV[3] mode, ARGV[4] ttl ms.
var writeScript = redis.NewScript(`
local cur = redis.call('GET', KEYS[1])
if cur then
  local ok, doc = pcall(cjson.decode, cur)
  if ok and doc.v then
    local current = tonumber(doc.v)
    local v = tonumber(ARGV[2])
    if ARGV[3] == 'fill' and v <= current then return 0 end
    if ARGV[3] == 'put' and v < current then return 0 end
  end
end
redis.call('SET', KEYS[1], ARGV[1], 'PX', ARGV[4])
return 1
`)

type RedisConfig struct {
	Addr     string
	Password string
	DB       int
	TTL      time.Duration
}

type Redis struct {
	client *redis.Client
	ttl    time.Duration
	log    *logger.Logger
}

func NewRedis(cfg RedisConfig, log *logger.Logger) *Redis {
	return &Redis{
		client: redis.NewClient(&redis.Options{
			Addr:     cfg.Addr,
			Password: cfg.Password,
			DB:       cfg.DB,
		}),
		ttl: ttlOrDefault(cfg.TTL, constants.DefaultCardCacheTTL),
		log: log,
	}
}

func (c *Redis) Ping(ctx context.Context) error {
	return c.client.Ping(ctx).Err()
}

func (c *Redis) Close() error {
	return c.client.Close()
}

func (c *Redis) Get(ctx context.Context, id string) (domain.Card, bool) {
	raw, err := c.client.Get(ctx, keyPrefix+id).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			metrics.CardCacheLookups.WithLabelValues("miss").Inc()
			return domain.Card{}, false
		}
		c.log.WithFields(ctx, logger.Fields{
			"card_id": id,
			"action":  "card_cache_get_failed",
		}).Warnf("card cache read failed: %v", err)
		metrics.CardCacheLookups.WithLabelValues("error").Inc()
		return domain.Card{}, false
	}

	var e entry
	if err := json.Unmarshal(raw, &e); err != nil {
		metrics.CardCacheLookups.WithLabelValues("error").Inc()
		c.Evict(ctx, id)
		return domain.Card{}, false
	}
	if e.Card == nil {
		metrics.CardCacheLookups.WithLabelValues("miss").Inc()
		return domain.Card{}, false
	}
	metrics.CardCacheLookups.WithLabelValues("hit").Inc()
	return *e.Card, true
}

func (c *Redis) Fill(ctx context.Context, card domain.Card) {
	c.write(ctx, card.ID, entry{Version: version(card), Card: &card}, modeFill)
}

func (c *Redis) Put(ctx context.Context, card domain.Card) {
	c.write(ctx, card.ID, entry{Version: version(card), Card: &card}, modePut)
}

func (c *Redis) Evict(ctx context.Context, id string) {
	c.write(ctx, id, entry{Version: tombstoneVersion}, modePut)
}

func (c *Redis) write(ctx context.Context, id string, e entry, mode writeMode) {
	raw, err := json.Marshal(e)
	if err != nil {
		return
	}
	err = writeScript.Run(ctx, c.client, []string{keyPrefix + id},
		raw, strconv.FormatInt(e.Version, 10), string(mode), c.ttl.Milliseconds(),
	).Err()
	if err != nil && !errors.Is(err, redis.Nil) {
		c.log.WithFields(ctx, logger.Fields{
			"card_id": id,
			"mode":    string(mode),
			"action":  "card_cache_write_failed",
		}).Warnf("card cache write failed: %v", err)
	}
}
