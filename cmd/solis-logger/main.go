// cmd/solis-logger/main.go
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/tamzrod/solis-logger/internal/config"
	"github.com/tamzrod/solis-logger/internal/dashboard"
	"github.com/tamzrod/solis-logger/internal/gpio"
	"github.com/tamzrod/solis-logger/internal/logging"
	"github.com/tamzrod/solis-logger/internal/poller"
	"github.com/tamzrod/solis-logger/internal/sensor"
	"github.com/tamzrod/solis-logger/internal/status"
	"github.com/tamzrod/solis-logger/internal/writer"
)

func main() {
	if len(os.Args) < 2 {
		log.Fatal().Msg("usage: solis-logger <config.yaml>")
	}

	cfgPath := os.Args[1]

	// --------------------
	// Load + validate config
	// --------------------

	cfg, err := config.Load(cfgPath)
	if err != nil {
		log.Fatal().Err(err).Msg("config load failed")
	}

	config.Normalize(cfg)

	if err := config.Validate(cfg); err != nil {
		log.Fatal().Err(err).Msg("config validation failed")
	}

	logger := logging.New(cfg.Logger)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// --------------------
	// LEDs
	// --------------------

	busyLED, err := gpio.Open(cfg.LEDs.BusyGPIO)
	if err != nil {
		logger.Fatal().Err(err).Msg("busy led")
	}
	defer busyLED.Close()

	errLED, err := gpio.Open(cfg.LEDs.ErrorGPIO)
	if err != nil {
		logger.Fatal().Err(err).Msg("error led")
	}
	defer errLED.Close()

	// --------------------
	// Poller
	// --------------------

	p, closePoller, err := poller.Build(
		cfg.Inverter,
		logging.Component(logger, "poller"),
		poller.WithBusyIndicator(busyLED),
	)
	if err != nil {
		logger.Fatal().Err(err).Str("inverter", cfg.Inverter.Name).Msg("poller build failed")
	}
	defer closePoller()

	// --------------------
	// Dashboard
	// --------------------

	board := dashboard.NewBoard()
	metrics := dashboard.NewMetrics()

	var (
		ds        *sensor.DS18B20
		sensorSrc dashboard.SensorSource
	)
	if cfg.Sensor.Enabled {
		ds = sensor.New(sensor.Config{
			Enabled: true,
			BusPath: cfg.Sensor.BusPath,
			Device:  cfg.Sensor.Device,
			Logger:  logging.Component(logger, "ds18b20"),
		})
		sensorSrc = ds
	}

	srv := dashboard.NewServer(cfg.Dashboard.Listen, p, board, metrics, sensorSrc, logger)
	if err := srv.Start(ctx); err != nil {
		logger.Fatal().Err(err).Msg("dashboard start failed")
	}

	// --------------------
	// Writers
	// --------------------

	plan := writer.BuildPlan(*cfg)

	clients, closeClients, err := writer.BuildClients(*cfg, logger)
	if err != nil {
		logger.Fatal().Err(err).Msg("writer clients failed")
	}
	defer closeClients()

	pub := writer.New(plan, clients.Volkszaehler,
		writer.WithErrorIndicator(errLED),
		writer.WithPostObserver(metrics.ObservePost),
		writer.WithLogger(logging.Component(logger, "volkszaehler")),
	)

	writers := []writer.Writer{pub, writer.NewCardWriter(plan, board)}
	if clients.MQTT != nil {
		writers = append(writers, writer.NewMQTTWriter(clients.MQTT))
	}

	c := &consumer{
		data:      writer.Multi(writers...),
		status:    writer.NewStatusWriter(board),
		tracker:   status.NewTracker(),
		reach:     p.Reachability(),
		publisher: pub,
		board:     board,
		metrics:   metrics,
		log:       logging.Component(logger, "consumer"),
	}
	if ds != nil {
		c.sensor = ds
	}

	if err := pub.Started(ctx, time.Now()); err != nil {
		logger.Warn().Err(err).Msg("start marker post failed")
	}

	logger.Info().
		Str("inverter", cfg.Inverter.Name).
		Str("device", cfg.Inverter.Serial.Device).
		Bool("emulate", cfg.Inverter.Emulate).
		Msg("solis logger started")

	// --------------------
	// Run
	// --------------------

	out := make(chan poller.Event)

	// poller producer
	done := make(chan struct{})
	go func() {
		defer close(done)
		p.Run(ctx, out)
	}()

	c.run(ctx, out, intervals{
		heartbeat: time.Duration(cfg.Volkszaehler.HeartbeatS) * time.Second,
		sensor:    time.Duration(cfg.Sensor.IntervalS) * time.Second,
	})

	// --------------------
	// Shutdown
	// --------------------

	logger.Info().Msg("shutting down")

	// A started cycle always completes before the port is closed.
	<-done

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := pub.Stopping(shutdownCtx, time.Now()); err != nil {
		logger.Warn().Err(err).Msg("reset marker post failed")
	}
	if err := srv.Stop(shutdownCtx); err != nil {
		logger.Warn().Err(err).Msg("dashboard stop failed")
	}
}
