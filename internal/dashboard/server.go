// internal/dashboard/server.go
package dashboard

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"github.com/rs/zerolog"

	"github.com/tamzrod/solis-logger/internal/snapshot"
)

// Source is the live inverter state the API reports.
type Source interface {
	Snapshot() snapshot.Readings
	IsReachable() bool
}

// SensorSource reports the last external temperature, if a sensor is enabled.
type SensorSource interface {
	Last() (float64, bool)
}

// Server is the dashboard HTTP API.
type Server struct {
	addr    string
	router  *mux.Router
	server  *http.Server
	source  Source
	sensor  SensorSource
	board   *Board
	metrics *Metrics
	log     zerolog.Logger
}

type powerResponse struct {
	Power       float64 `json:"power"`
	EnergyToday float64 `json:"energyToday"`
	IsOnline    bool    `json:"isOnline"`
}

type allResponse struct {
	powerResponse
	DCVoltage          float64  `json:"dc_u"`
	DCCurrent          float64  `json:"dc_i"`
	ACVoltage          float64  `json:"ac_u"`
	ACCurrent          float64  `json:"ac_i"`
	ACFrequency        float64  `json:"ac_f"`
	DS18B20Temperature *float64 `json:"ds18b20Temperature,omitempty"`
}

// NewServer builds the router. sensor and metrics may be nil.
func NewServer(addr string, src Source, board *Board, metrics *Metrics, sensor SensorSource, log zerolog.Logger) *Server {
	s := &Server{
		addr:    addr,
		router:  mux.NewRouter(),
		source:  src,
		sensor:  sensor,
		board:   board,
		metrics: metrics,
		log:     log.With().Str("component", "dashboard").Logger(),
	}
	s.setupRoutes()
	return s
}

func (s *Server) setupRoutes() {
	api := s.router.PathPrefix("/api").Subrouter()

	api.HandleFunc("/power.json", s.handlePower).Methods(http.MethodGet)
	api.HandleFunc("/all.json", s.handleAll).Methods(http.MethodGet)
	api.HandleFunc("/cards", s.handleCards).Methods(http.MethodGet)
	api.HandleFunc("/cards/{name}", s.handleCard).Methods(http.MethodGet)

	if s.metrics != nil {
		s.router.Handle("/metrics", s.metrics.Handler()).Methods(http.MethodGet)
	}
}

// Handler returns the router (tests, embedding).
func (s *Server) Handler() http.Handler { return s.router }

// Start binds the listen address and serves in the background.
// Bind errors are returned; serve errors are logged.
func (s *Server) Start(_ context.Context) error {
	ln, err := net.Listen("tcp", s.addr)
	if err != nil {
		return fmt.Errorf("dashboard: listen %s: %w", s.addr, err)
	}

	s.server = &http.Server{
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		s.log.Info().Str("addr", ln.Addr().String()).Msg("dashboard listening")
		if err := s.server.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.log.Error().Err(err).Msg("dashboard server error")
		}
	}()
	return nil
}

// Stop gracefully shuts the server down.
func (s *Server) Stop(ctx context.Context) error {
	if s.server == nil {
		return nil
	}

	shutdownCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	if err := s.server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("dashboard: shutdown: %w", err)
	}
	return nil
}

// ------------------ handlers ------------------

func (s *Server) power(r snapshot.Readings) powerResponse {
	return powerResponse{
		Power:       r.Get(snapshot.Power),
		EnergyToday: r.Get(snapshot.EnergyToday),
		IsOnline:    s.source.IsReachable(),
	}
}

func (s *Server) handlePower(w http.ResponseWriter, _ *http.Request) {
	s.writeJSON(w, s.power(s.source.Snapshot()), http.StatusOK)
}

func (s *Server) handleAll(w http.ResponseWriter, _ *http.Request) {
	r := s.source.Snapshot()

	resp := allResponse{
		powerResponse: s.power(r),
		DCVoltage:     r.Get(snapshot.DCVoltage),
		DCCurrent:     r.Get(snapshot.DCCurrent),
		ACVoltage:     r.Get(snapshot.ACVoltage),
		ACCurrent:     r.Get(snapshot.ACCurrent),
		ACFrequency:   r.Get(snapshot.ACFrequency),
	}
	if s.sensor != nil {
		if t, ok := s.sensor.Last(); ok {
			resp.DS18B20Temperature = &t
		}
	}

	s.writeJSON(w, resp, http.StatusOK)
}

func (s *Server) handleCards(w http.ResponseWriter, _ *http.Request) {
	s.writeJSON(w, map[string]interface{}{
		"cards": s.board.Cards(),
	}, http.StatusOK)
}

func (s *Server) handleCard(w http.ResponseWriter, r *http.Request) {
	name := mux.Vars(r)["name"]

	c, ok := s.board.Card(name)
	if !ok {
		s.writeError(w, "card not found", http.StatusNotFound)
		return
	}
	s.writeJSON(w, c, http.StatusOK)
}

func (s *Server) writeJSON(w http.ResponseWriter, data interface{}, statusCode int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)

	if err := json.NewEncoder(w).Encode(data); err != nil {
		s.log.Error().Err(err).Msg("failed to encode JSON response")
	}
}

func (s *Server) writeError(w http.ResponseWriter, message string, statusCode int) {
	s.writeJSON(w, map[string]string{"error": message}, statusCode)
}
