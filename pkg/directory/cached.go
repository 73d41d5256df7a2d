package directory

import (
	"errors"
	"time"

	"github.com/patrickmn/go-cache"

	"github.com/shunichi-ikebuchi/bi-import/pkg/ledger"
)

// DefaultTTL is used when NewCached gets a non-positive TTL.
const DefaultTTL = 5 * time.Minute

// Cached wraps a ledger.Directory and remembers lookups, hits and misses
// alike, for a TTL. Errors other than ledger.ErrNotFound are not cached.
type Cached struct {
	next  ledger.Directory
	cache *cache.Cache
}

var _ ledger.Directory = (*Cached)(nil)

type entry struct {
	value any
	err   error
}

// NewCached creates a Cached directory in front of next.
func NewCached(next ledger.Directory, ttl time.Duration) *Cached {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &Cached{next: next, cache: cache.New(ttl, 2*ttl)}
}

// Owner implements ledger.Directory.
func (c *Cached) Owner(id string, kind ledger.OwnerKind) (*ledger.Owner, error) {
	v, err := c.lookup("owner/"+string(kind)+"/"+id, func() (any, error) {
		return c.next.Owner(id, kind)
	})
	if err != nil {
		return nil, err
	}
	return v.(*ledger.Owner), nil
}

// Account implements ledger.Directory.
func (c *Cached) Account(name string) (*ledger.Account, error) {
	v, err := c.lookup("account/"+name, func() (any, error) {
		return c.next.Account(name)
	})
	if err != nil {
		return nil, err
	}
	return v.(*ledger.Account), nil
}

// TaxTable implements ledger.Directory.
func (c *Cached) TaxTable(name string) (*ledger.TaxTable, error) {
	v, err := c.lookup("taxtable/"+name, func() (any, error) {
		return c.next.TaxTable(name)
	})
	if err != nil {
		return nil, err
	}
	return v.(*ledger.TaxTable), nil
}

// Flush drops every cached lookup.
func (c *Cached) Flush() {
	c.cache.Flush()
}

func (c *Cached) lookup(key string, fetch func() (any, error)) (any, error) {
	if v, ok := c.cache.Get(key); ok {
		e := v.(entry)
		return e.value, e.err
	}

	v, err := fetch()
	if err != nil && !errors.Is(err, ledger.ErrNotFound) {
		return nil, err
	}
	c.cache.SetDefault(key, entry{value: v, err: err})
	return v, err
}
