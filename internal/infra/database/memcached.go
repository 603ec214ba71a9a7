package database

import (
	"fmt"
	"strings"
	"time"

	"github.com/bradfitz/gomemcache/memcache"
)

// NewMemcached returns a client for a comma separated server list.
func NewMemcached(servers string) (*memcache.Client, error) {
	list := []string{}
	for _, s := range strings.Split(servers, ",") {
		if s = strings.TrimSpace(s); s != "" {
			list = append(list, s)
		}
	}
	if len(list) == 0 {
		return nil, fmt.Errorf("no memcached servers")
	}

	mc := memcache.New(list...)
	mc.Timeout = 500 * time.Millisecond
	if err := mc.Ping(); err != nil {
		return nil, fmt.Errorf("memcached %s: %w", servers, err)
	}
	return mc, nil
}
