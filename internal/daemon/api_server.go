package daemon

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"timetable/internal/api"
	"timetable/internal/config"
	"timetable/internal/logging"
	"timetable/internal/result"
	"timetable/internal/schedule"
)

type apiServer struct {
	bind   string
	logger *slog.Logger
	daemon *Daemon

	listener net.Listener
	server   *http.Server
}

func newAPIServer(cfg *config.Config, d *Daemon, logger *slog.Logger) *apiServer {
	srv := &apiServer{
		bind:   strings.TrimSpace(cfg.Paths.APIBind),
		logger: logging.NewComponentLogger(logger, "api-server"),
		daemon: d,
	}
	srv.server = &http.Server{
		Handler:           srv.routes(cfg.Paths.APIToken),
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		// Data endpoints wait for the sync they trigger.
		WriteTimeout: cfg.PassTimeout() + 30*time.Second,
		IdleTimeout:  60 * time.Second,
	}
	return srv
}

func (s *apiServer) routes(token string) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(s.requestLogger)

	r.Handle(api.PathMetrics, s.daemon.engine.Metrics.Handler())

	r.Group(func(r chi.Router) {
		r.Use(authMiddleware(token))
		r.Get(api.PathStatus, s.handleStatus)
		r.Post(api.PathSync, s.handleSync)
		r.Get(api.PathFaculties, s.handleFaculties)
		r.Get(api.PathFaculties+"/{code}/groups", s.handleGroups)
		r.Route("/api/groups/{code}", func(r chi.Router) {
			r.Get("/lessons", s.handleLessons)
			r.Get("/exams", s.handleExams)
			r.Get("/tests", s.handleTests)
		})
		r.Get(api.PathBells, s.handleBells)
		r.Get(api.PathDepartments, s.handleDepartments)
	})
	return r
}

func (s *apiServer) start(ctx context.Context) error {
	if s == nil || s.bind == "" {
		return nil
	}
	listener, err := net.Listen("tcp", s.bind)
	if err != nil {
		return fmt.Errorf("api listen: %w", err)
	}
	s.listener = listener

	go func() {
		if err := s.server.Serve(listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.logger.Error("api server error", logging.Error(err))
		}
	}()

	s.logger.Info("api server listening", logging.String("address", listener.Addr().String()))
	return nil
}

func (s *apiServer) stop() {
	if s == nil || s.listener == nil {
		return
	}
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	_ = s.server.Shutdown(shutdownCtx)
	s.listener = nil
}

func (s *apiServer) address() string {
	if s == nil || s.listener == nil {
		return ""
	}
	return s.listener.Addr().String()
}

func (s *apiServer) requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ctx := logging.WithRequestID(r.Context(), middleware.GetReqID(r.Context()))
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)

		next.ServeHTTP(ww, r.WithContext(ctx))

		logging.WithContext(ctx, s.logger).Debug("api request",
			logging.String("method", r.Method),
			logging.String("path", r.URL.Path),
			logging.Int("status", ww.Status()),
			logging.Duration("elapsed", time.Since(start)),
		)
	})
}

func (s *apiServer) handleStatus(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, api.StatusResponse{
		Daemon: s.daemon.Status(),
		Sync:   s.daemon.engine.Facade.Status(r.Context()),
	})
}

func (s *apiServer) handleSync(w http.ResponseWriter, r *http.Request) {
	writeEnvelope(s, w, s.daemon.engine.Facade.ForceRefresh(r.Context()))
}

func (s *apiServer) handleFaculties(w http.ResponseWriter, r *http.Request) {
	writeEnvelope(s, w, last(s.daemon.engine.Facade.Faculties(r.Context())))
}

func (s *apiServer) handleGroups(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()
	var form schedule.EducationForm
	if value := strings.TrimSpace(query.Get("form")); value != "" {
		form = schedule.ParseEducationForm(value)
	}
	course, err := optionalInt(query.Get("course"))
	if err != nil || course < 0 || course > schedule.MaxCourse {
		s.writeError(w, http.StatusBadRequest, "invalid course")
		return
	}
	env := last(s.daemon.engine.Facade.Groups(r.Context(), chi.URLParam(r, "code"), form, course))
	writeEnvelope(s, w, env)
}

func (s *apiServer) handleLessons(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()
	day := 0
	if value := strings.TrimSpace(query.Get("day")); value != "" {
		if day = schedule.ParseDay(value); day == 0 {
			s.writeError(w, http.StatusBadRequest, "invalid day")
			return
		}
	}
	refresh := false
	if value := strings.TrimSpace(query.Get("refresh")); value != "" {
		parsed, err := strconv.ParseBool(value)
		if err != nil {
			s.writeError(w, http.StatusBadRequest, "invalid refresh flag")
			return
		}
		refresh = parsed
	}
	parity := schedule.ParseParityFilter(query.Get("parity"))
	env := last(s.daemon.engine.Facade.DaySchedule(r.Context(), chi.URLParam(r, "code"), day, parity, refresh))
	writeEnvelope(s, w, env)
}

func (s *apiServer) handleExams(w http.ResponseWriter, r *http.Request) {
	writeEnvelope(s, w, s.daemon.engine.Facade.Exams(r.Context(), chi.URLParam(r, "code")))
}

func (s *apiServer) handleTests(w http.ResponseWriter, r *http.Request) {
	writeEnvelope(s, w, s.daemon.engine.Facade.Tests(r.Context(), chi.URLParam(r, "code")))
}

func (s *apiServer) handleBells(w http.ResponseWriter, r *http.Request) {
	writeEnvelope(s, w, s.daemon.engine.Facade.BellSchedule(r.Context()))
}

func (s *apiServer) handleDepartments(w http.ResponseWriter, r *http.Request) {
	writeEnvelope(s, w, s.daemon.engine.Facade.Departments(r.Context()))
}

// last drains a facade stream and returns its final envelope.
func last[T any](ch <-chan result.Envelope[T]) result.Envelope[T] {
	var final result.Envelope[T]
	for env := range ch {
		final = env
	}
	return final
}

func optionalInt(value string) (int, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return 0, nil
	}
	return strconv.Atoi(value)
}

func writeEnvelope[T any](s *apiServer, w http.ResponseWriter, env result.Envelope[T]) {
	s.writeJSON(w, api.HTTPStatus(env), env)
}

func (s *apiServer) writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if payload == nil {
		return
	}
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		s.logger.Error("failed to encode response", logging.Error(err))
	}
}

func (s *apiServer) writeError(w http.ResponseWriter, status int, message string) {
	s.writeJSON(w, status, api.ErrorResponse{Error: message})
}
