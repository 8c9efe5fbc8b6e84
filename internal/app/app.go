// Package app arma el contenedor de dependencias del servicio a partir de
// la configuración.
package app

import (
	"net"
	"strconv"

	"github.com/dropDatabas3/garminbridge/internal/auth/mfa"
	"github.com/dropDatabas3/garminbridge/internal/cache"
	"github.com/dropDatabas3/garminbridge/internal/config"
	"github.com/dropDatabas3/garminbridge/internal/http/handlers"
	"github.com/dropDatabas3/garminbridge/internal/wellness"
)

type Container struct {
	Cfg      *config.Config
	Cache    cache.Client
	MFA      *mfa.Store
	Agg      *wellness.Aggregator
	Handlers *handlers.Handlers
}

// New construye el contenedor completo. El caller es dueño del Close del
// cache.
func New(cfg *config.Config) (*Container, error) {
	c, err := cache.New(cacheConfig(cfg))
	if err != nil {
		return nil, err
	}

	store := mfa.New(cfg.MFA.TTL)
	agg := wellness.New(cfg.Fetch.Parallelism)
	h := handlers.New(handlers.Options{
		DataSource: cfg.Garmin.DataSource,
		IsCN:       cfg.Garmin.IsCN,
	}, agg, store, c)

	return &Container{
		Cfg:      cfg,
		Cache:    c,
		MFA:      store,
		Agg:      agg,
		Handlers: h,
	}, nil
}

func (c *Container) Close() error {
	if c.Cache != nil {
		return c.Cache.Close()
	}
	return nil
}

func cacheConfig(cfg *config.Config) cache.Config {
	out := cache.Config{
		Driver:  cfg.Cache.Kind,
		Prefix:  cfg.Cache.Redis.Prefix,
		DataDir: cfg.Cache.File.DataDir,
	}
	host, port, err := net.SplitHostPort(cfg.Cache.Redis.Addr)
	if err != nil {
		host = cfg.Cache.Redis.Addr
	}
	out.Host = host
	if p, err := strconv.Atoi(port); err == nil {
		out.Port = p
	}
	out.Password = cfg.Cache.Redis.Password
	out.DB = cfg.Cache.Redis.DB
	return out
}
