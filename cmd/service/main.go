package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/dropDatabas3/garminbridge/internal/app"
	"github.com/dropDatabas3/garminbridge/internal/config"
	httpserver "github.com/dropDatabas3/garminbridge/internal/http"
	"github.com/dropDatabas3/garminbridge/internal/http/router"
	"github.com/dropDatabas3/garminbridge/internal/observability/logger"
)

func main() {
	// .env opcional, las env reales pisan
	_ = godotenv.Load()

	cfgPath := flag.String("config", os.Getenv("CONFIG_PATH"), "ruta al YAML de configuración")
	flag.Parse()

	var (
		cfg *config.Config
		err error
	)
	if *cfgPath != "" {
		cfg, err = config.Load(*cfgPath)
	} else {
		cfg, err = config.LoadDefault()
	}
	if err != nil {
		// logger todavía no inicializado
		panic(err)
	}

	logger.Init(logger.Config{
		Env:         cfg.App.Env,
		Level:       cfg.Log.Level,
		ServiceName: "garminbridge",
		Version:     os.Getenv("SERVICE_VERSION"),
	})
	defer func() { _ = logger.Sync() }()
	log := logger.L()

	container, err := app.New(cfg)
	if err != nil {
		log.Fatal("no se pudo armar el contenedor", logger.Err(err))
	}
	defer func() { _ = container.Close() }()

	r, err := router.New(router.Deps{
		Handlers:           container.Handlers,
		ServiceTokenSecret: cfg.Auth.ServiceTokenSecret,
		CORSAllowedOrigins: cfg.Server.CORSAllowedOrigins,
	})
	if err != nil {
		log.Fatal("no se pudo armar el router", logger.Err(err))
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	opts := httpserver.ServerOptions{
		Addr:         cfg.Server.Addr,
		ReadTimeout:  config.Duration(cfg.Server.ReadTimeout, 30*time.Second),
		WriteTimeout: config.Duration(cfg.Server.WriteTimeout, 5*time.Minute),
	}
	if err := httpserver.Start(ctx, opts, r); err != nil {
		log.Fatal("servidor HTTP terminó con error", logger.Err(err))
	}
	log.Info("servicio apagado")
}
