// Package handlers contiene los handlers HTTP del servicio: datos de salud,
// actividades y el handshake de autenticación contra Garmin.
package handlers

import (
	"context"
	"time"

	"github.com/dropDatabas3/garminbridge/internal/activities"
	"github.com/dropDatabas3/garminbridge/internal/auth/mfa"
	"github.com/dropDatabas3/garminbridge/internal/cache"
	"github.com/dropDatabas3/garminbridge/internal/garmin"
	"github.com/dropDatabas3/garminbridge/internal/wellness"
)

// vendorClient es la unión de las superficies que consumen los pipelines.
// *garmin.APIClient la implementa completa.
type vendorClient interface {
	wellness.Client
	activities.Client
}

// Options fija el comportamiento de los handlers de datos.
type Options struct {
	// garmin | local_json
	DataSource string
	IsCN       bool
	// TTL de los snapshots guardados. 0 = sin expiración.
	SnapshotTTL time.Duration
}

// Handlers agrupa las dependencias de todos los endpoints. Las funciones del
// vendor son inyectables para poder testear los handlers sin red.
type Handlers struct {
	opts  Options
	agg   *wellness.Aggregator
	mfa   *mfa.Store
	cache cache.Client

	newClient func(tokens string, isCN bool) (vendorClient, error)
	login     func(ctx context.Context, email, password string, isCN bool) (garmin.LoginResult, error)
	resume    func(ctx context.Context, state []byte, code string) (string, error)
}

// New arma los handlers con las implementaciones reales del vendor.
func New(opts Options, agg *wellness.Aggregator, store *mfa.Store, c cache.Client) *Handlers {
	return &Handlers{
		opts:  opts,
		agg:   agg,
		mfa:   store,
		cache: c,
		newClient: func(tokens string, isCN bool) (vendorClient, error) {
			return garmin.NewAPIClient(tokens, isCN)
		},
		login:  garmin.Login,
		resume: garmin.ResumeLogin,
	}
}
