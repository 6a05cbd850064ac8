// Package api exposes the assistant and the live telemetry to the cockpit UI.
package api

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"github.com/gorilla/websocket"
	"github.com/jd3nn1s/bordo"
	"github.com/jd3nn1s/bordo/assistant"
	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
)

const (
	serverTimeout  = 10 * time.Second
	streamInterval = 500 * time.Millisecond
)

// Telemetry is the view of the pipeline served by the API.
type Telemetry interface {
	Latest() (bordo.SensorReading, bool)
	LastPrediction() (bordo.Prediction, bool)
}

type Server struct {
	telemetry  Telemetry
	vehicle    *assistant.VehicleControl
	dispatcher *assistant.Dispatcher
	router     *mux.Router
	upgrader   websocket.Upgrader

	streamInterval time.Duration
	// closed when Run returns so open streams end
	done chan struct{}
}

type status struct {
	LightsOn     bool              `json:"lights_on"`
	MusicPlaying bool              `json:"spotify_playing"`
	MotorData    interface{}       `json:"motor_data"`
	GPSLocation  string            `json:"gps_location"`
	Prediction   *bordo.Prediction `json:"prediction,omitempty"`
}

type commandRequest struct {
	Command string `json:"command"`
}

type commandResponse struct {
	Response string `json:"response"`
}

func NewServer(telemetry Telemetry, vehicle *assistant.VehicleControl, dispatcher *assistant.Dispatcher) *Server {
	s := &Server{
		telemetry:      telemetry,
		vehicle:        vehicle,
		dispatcher:     dispatcher,
		streamInterval: streamInterval,
		done:           make(chan struct{}),
		upgrader: websocket.Upgrader{
			// the UI is served from the head unit on another port
			CheckOrigin: func(r *http.Request) bool { return true },
		},
	}

	r := mux.NewRouter()
	r.Handle("/api/status", s.status()).Methods(http.MethodGet)
	r.Handle("/api/motor", s.motor()).Methods(http.MethodGet)
	r.Handle("/api/command", s.command()).Methods(http.MethodPost)
	r.Handle("/api/lights", s.lights()).Methods(http.MethodPost)
	r.Handle("/api/music", s.music()).Methods(http.MethodPost)
	r.Handle("/api/gps", s.gps()).Methods(http.MethodGet)
	r.Handle("/api/stream", s.stream()).Methods(http.MethodGet)
	r.Use(recoverMiddleware)
	s.router = r
	return s
}

func (s *Server) Handler() http.Handler {
	return s.router
}

// Run serves on addr until ctx is done.
func (s *Server) Run(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:         addr,
		Handler:      s.router,
		ReadTimeout:  serverTimeout,
		WriteTimeout: serverTimeout,
		IdleTimeout:  3 * serverTimeout,
	}

	errChan := make(chan error, 1)
	go func() {
		log.WithField("addr", addr).Info("api server started")
		errChan <- srv.ListenAndServe()
	}()

	select {
	case err := <-errChan:
		close(s.done)
		return errors.Wrap(err, "api server failed")
	case <-ctx.Done():
	}
	close(s.done)

	shutdownCtx, cancel := context.WithTimeout(context.Background(), serverTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return errors.Wrap(err, "unable to shut down api server")
	}
	return nil
}

func recoverMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			if e := recover(); e != nil {
				log.WithField("path", r.URL.Path).
					WithField("panic", e).
					Error("route terminated and recovered unexpectedly")
				w.WriteHeader(http.StatusInternalServerError)
			}
		}()
		next.ServeHTTP(w, r)
	})
}

func writeJSON(w http.ResponseWriter, code int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.WithField("err", err).Warn("unable to write response")
	}
}

// motorData renders an empty log as an empty object.
func (s *Server) motorData() interface{} {
	reading, ok := s.telemetry.Latest()
	if !ok {
		return struct{}{}
	}
	return reading
}

func (s *Server) status() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		st := status{
			LightsOn:     s.vehicle.LightsOn(),
			MusicPlaying: s.vehicle.MusicPlaying(),
			MotorData:    s.motorData(),
			GPSLocation:  s.vehicle.GPSLocation(),
		}
		if p, ok := s.telemetry.LastPrediction(); ok {
			st.Prediction = &p
		}
		writeJSON(w, http.StatusOK, st)
	})
}

func (s *Server) motor() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, s.motorData())
	})
}

func (s *Server) command() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		req := commandRequest{}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid command request"})
			return
		}
		writeJSON(w, http.StatusOK, commandResponse{
			Response: s.dispatcher.Dispatch(req.Command),
		})
	})
}

func (s *Server) lights() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		resp := s.vehicle.ToggleLights()
		writeJSON(w, http.StatusOK, map[string]interface{}{
			"response":  resp,
			"lights_on": s.vehicle.LightsOn(),
		})
	})
}

func (s *Server) music() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		resp := s.vehicle.ToggleMusic()
		writeJSON(w, http.StatusOK, map[string]interface{}{
			"response":        resp,
			"spotify_playing": s.vehicle.MusicPlaying(),
		})
	})
}

func (s *Server) gps() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{
			"location": s.vehicle.GPSLocation(),
		})
	})
}

// stream pushes the newest reading to a websocket client until it goes away.
func (s *Server) stream() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := s.upgrader.Upgrade(w, r, nil)
		if err != nil {
			log.WithField("err", err).Warn("unable to upgrade stream connection")
			return
		}
		defer conn.Close()
		// the server deadlines outlive the upgrade
		_ = conn.SetReadDeadline(time.Time{})

		// reads only detect the client closing
		closed := make(chan struct{})
		go func() {
			defer close(closed)
			for {
				if _, _, err := conn.ReadMessage(); err != nil {
					return
				}
			}
		}()

		ticker := time.NewTicker(s.streamInterval)
		defer ticker.Stop()
		for {
			_ = conn.SetWriteDeadline(time.Now().Add(serverTimeout))
			if err := conn.WriteJSON(s.motorData()); err != nil {
				log.WithField("err", err).Debug("stream client gone")
				return
			}
			select {
			case <-ticker.C:
			case <-closed:
				return
			case <-s.done:
				_ = conn.WriteMessage(websocket.CloseMessage,
					websocket.FormatCloseMessage(websocket.CloseGoingAway, "server shutting down"))
				return
			case <-r.Context().Done():
				return
			}
		}
	})
}
