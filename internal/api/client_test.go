package api_test

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"timetable/internal/api"
	"timetable/internal/facade"
	"timetable/internal/result"
	"timetable/internal/schedule"
	"timetable/internal/sources"
)

func writeEnvelope[T any](w http.ResponseWriter, env result.Envelope[T]) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(api.HTTPStatus(env))
	_ = json.NewEncoder(w).Encode(env)
}

func TestClientDecodesEnvelopes(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got := r.Header.Get("Authorization"); got != "Bearer secret" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		switch r.URL.Path {
		case api.PathFaculties:
			writeEnvelope(w, result.Success([]schedule.Faculty{{Code: "FIT", Name: "Information Technology"}}))
		case "/api/groups/%D0%98%D0%A2-1/lessons", "/api/groups/ИТ-1/lessons":
			q := r.URL.Query()
			if q.Get("day") != "2" || q.Get("parity") != "odd" || q.Get("refresh") != "true" {
				t.Errorf("unexpected query %v", q)
			}
			writeEnvelope(w, result.Error[[]schedule.Lesson]("no data yet", facade.CodeNoData))
		default:
			http.NotFound(w, r)
		}
	}))
	defer srv.Close()

	client := api.NewClient(srv.URL, api.WithToken("secret"))

	faculties, err := client.Faculties(context.Background())
	if err != nil {
		t.Fatalf("Faculties: %v", err)
	}
	if list, ok := faculties.Get(); !ok || len(list) != 1 || list[0].Code != "FIT" {
		t.Fatalf("unexpected faculties %+v", faculties)
	}

	lessons, err := client.DaySchedule(context.Background(), "ИТ-1", 2, schedule.Odd, true)
	if err != nil {
		t.Fatalf("DaySchedule: %v", err)
	}
	if !lessons.IsError() || lessons.Code != facade.CodeNoData {
		t.Fatalf("expected no_data envelope, got %+v", lessons)
	}
}

func TestClientUnauthorized(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	}))
	defer srv.Close()

	_, err := api.NewClient(srv.URL).Status(context.Background())
	if !errors.Is(err, api.ErrUnauthorized) {
		t.Fatalf("expected ErrUnauthorized, got %v", err)
	}
}

func TestClientReportsRejectedParameters(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		_ = json.NewEncoder(w).Encode(api.ErrorResponse{Error: "invalid course"})
	}))
	defer srv.Close()

	_, err := api.NewClient(srv.URL).Groups(context.Background(), "FIT", schedule.FullTime, 9)
	if err == nil || err.Error() != "api: invalid course" {
		t.Fatalf("unexpected error %v", err)
	}
}

func TestNewClientAcceptsBindAddress(t *testing.T) {
	if got := api.NewClient("127.0.0.1:7491").BaseURL(); got != "http://127.0.0.1:7491" {
		t.Fatalf("BaseURL = %q", got)
	}
	if got := api.NewClient("https://host/").BaseURL(); got != "https://host" {
		t.Fatalf("BaseURL = %q", got)
	}
}

func TestHTTPStatus(t *testing.T) {
	tests := []struct {
		env  result.Envelope[int]
		want int
	}{
		{result.Success(1), http.StatusOK},
		{result.Loading[int](), http.StatusAccepted},
		{result.Error[int]("x", facade.CodeNoData), http.StatusServiceUnavailable},
		{result.Error[int]("x", sources.CodeSourceUnavailable), http.StatusBadGateway},
		{result.Error[int]("x", sources.CodeValidation), http.StatusUnprocessableEntity},
		{result.Error[int]("x", facade.CodeCacheFailure), http.StatusInternalServerError},
	}
	for _, tt := range tests {
		if got := api.HTTPStatus(tt.env); got != tt.want {
			t.Errorf("HTTPStatus(%+v) = %d, want %d", tt.env, got, tt.want)
		}
	}
}
