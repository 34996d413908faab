package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"timetable/internal/result"
	"timetable/internal/schedule"
)

// ErrUnauthorized is returned when the daemon rejects the API token.
var ErrUnauthorized = errors.New("api: unauthorized (check paths.api_token)")

const defaultClientTimeout = 10 * time.Minute

// Client talks to a running timetabled.
type Client struct {
	baseURL    string
	token      string
	httpClient *http.Client
}

// ClientOption customizes a Client.
type ClientOption func(*Client)

// WithToken sends token as a bearer credential.
func WithToken(token string) ClientOption {
	return func(c *Client) {
		c.token = strings.TrimSpace(token)
	}
}

// WithHTTPClient replaces the underlying HTTP client.
func WithHTTPClient(client *http.Client) ClientOption {
	return func(c *Client) {
		if client != nil {
			c.httpClient = client
		}
	}
}

// NewClient returns a client for the daemon listening on bind, which may be
// a host:port pair or a full http URL.
func NewClient(bind string, opts ...ClientOption) *Client {
	base := strings.TrimRight(strings.TrimSpace(bind), "/")
	if base != "" && !strings.Contains(base, "://") {
		base = "http://" + base
	}
	c := &Client{
		baseURL:    base,
		httpClient: &http.Client{Timeout: defaultClientTimeout},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// BaseURL returns the daemon root URL.
func (c *Client) BaseURL() string { return c.baseURL }

// Faculties fetches the faculty catalog.
func (c *Client) Faculties(ctx context.Context) (result.Envelope[[]schedule.Faculty], error) {
	var env result.Envelope[[]schedule.Faculty]
	err := c.do(ctx, http.MethodGet, PathFaculties, nil, &env)
	return env, err
}

// Groups fetches the groups of a faculty filtered by form and course.
func (c *Client) Groups(ctx context.Context, facultyCode string, form schedule.EducationForm, course int) (result.Envelope[[]schedule.Group], error) {
	query := url.Values{}
	if form != "" {
		query.Set("form", string(form))
	}
	if course > 0 {
		query.Set("course", strconv.Itoa(course))
	}
	var env result.Envelope[[]schedule.Group]
	err := c.do(ctx, http.MethodGet, FacultyGroupsPath(facultyCode), query, &env)
	return env, err
}

// DaySchedule fetches a group's lessons for day (0 = whole week) and parity.
func (c *Client) DaySchedule(ctx context.Context, groupCode string, day int, parity schedule.Parity, refresh bool) (result.Envelope[[]schedule.Lesson], error) {
	query := url.Values{}
	if day > 0 {
		query.Set("day", strconv.Itoa(day))
	}
	if parity != schedule.AnyParity {
		query.Set("parity", string(parity))
	}
	if refresh {
		query.Set("refresh", "true")
	}
	var env result.Envelope[[]schedule.Lesson]
	err := c.do(ctx, http.MethodGet, GroupLessonsPath(groupCode), query, &env)
	return env, err
}

// Exams fetches a group's exams.
func (c *Client) Exams(ctx context.Context, groupCode string) (result.Envelope[[]schedule.Exam], error) {
	var env result.Envelope[[]schedule.Exam]
	err := c.do(ctx, http.MethodGet, GroupExamsPath(groupCode), nil, &env)
	return env, err
}

// Tests fetches a group's pass/fail tests.
func (c *Client) Tests(ctx context.Context, groupCode string) (result.Envelope[[]schedule.Exam], error) {
	var env result.Envelope[[]schedule.Exam]
	err := c.do(ctx, http.MethodGet, GroupTestsPath(groupCode), nil, &env)
	return env, err
}

// BellSchedule fetches the bell schedule.
func (c *Client) BellSchedule(ctx context.Context) (result.Envelope[[]schedule.BellSlot], error) {
	var env result.Envelope[[]schedule.BellSlot]
	err := c.do(ctx, http.MethodGet, PathBells, nil, &env)
	return env, err
}

// Departments fetches the department list.
func (c *Client) Departments(ctx context.Context) (result.Envelope[[]schedule.Department], error) {
	var env result.Envelope[[]schedule.Department]
	err := c.do(ctx, http.MethodGet, PathDepartments, nil, &env)
	return env, err
}

// Sync runs a full sync pass on the daemon and waits for it.
func (c *Client) Sync(ctx context.Context) (SyncResponse, error) {
	var env SyncResponse
	err := c.do(ctx, http.MethodPost, PathSync, nil, &env)
	return env, err
}

// Status reports daemon and sync state.
func (c *Client) Status(ctx context.Context) (StatusResponse, error) {
	var status StatusResponse
	err := c.do(ctx, http.MethodGet, PathStatus, nil, &status)
	return status, err
}

func (c *Client) do(ctx context.Context, method, path string, query url.Values, out any) error {
	if c.baseURL == "" {
		return errors.New("api: daemon address is not configured")
	}
	target := c.baseURL + path
	if len(query) > 0 {
		target += "?" + query.Encode()
	}
	req, err := http.NewRequestWithContext(ctx, method, target, nil)
	if err != nil {
		return fmt.Errorf("api: build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("api: %s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusUnauthorized {
		return ErrUnauthorized
	}
	body, err := io.ReadAll(io.LimitReader(resp.Body, 16<<20))
	if err != nil {
		return fmt.Errorf("api: read response: %w", err)
	}
	if resp.StatusCode == http.StatusBadRequest || resp.StatusCode == http.StatusNotFound {
		var apiErr ErrorResponse
		if json.Unmarshal(body, &apiErr) == nil && apiErr.Error != "" {
			return fmt.Errorf("api: %s", apiErr.Error)
		}
	}
	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("api: decode %s response (status %d): %w", path, resp.StatusCode, err)
	}
	return nil
}

func escape(segment string) string {
	return url.PathEscape(strings.TrimSpace(segment))
}
