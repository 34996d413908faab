// Package primary implements the DataSource backed by the university's JSON
// API.
package primary

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/tidwall/gjson"

	"timetable/internal/config"
	"timetable/internal/logging"
	"timetable/internal/result"
	"timetable/internal/schedule"
	"timetable/internal/sources"
	"timetable/internal/sources/httpx"
)

// Client talks to the primary schedule API.
type Client struct {
	baseURL    string
	apiKey     string
	userAgent  string
	httpClient *http.Client
	logger     *slog.Logger
}

var _ sources.DataSource = (*Client)(nil)

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient overrides the default HTTP client.
func WithHTTPClient(client *http.Client) Option {
	return func(c *Client) {
		if client != nil {
			c.httpClient = client
		}
	}
}

// WithAPIKey sends key as a bearer token on every request.
func WithAPIKey(key string) Option {
	return func(c *Client) {
		c.apiKey = strings.TrimSpace(key)
	}
}

// WithUserAgent overrides the User-Agent header.
func WithUserAgent(agent string) Option {
	return func(c *Client) {
		c.userAgent = agent
	}
}

// WithLogger attaches a logger for skipped-record diagnostics.
func WithLogger(logger *slog.Logger) Option {
	return func(c *Client) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// New constructs a client for the API rooted at baseURL.
func New(baseURL string, opts ...Option) (*Client, error) {
	baseURL = strings.TrimRight(strings.TrimSpace(baseURL), "/")
	if baseURL == "" {
		return nil, errors.New("primary: base url is required")
	}
	if _, err := url.Parse(baseURL); err != nil {
		return nil, fmt.Errorf("primary: parse base url: %w", err)
	}
	client := &Client{
		baseURL:    baseURL,
		httpClient: httpx.NewClient(httpx.Options{}),
		logger:     logging.NewNop(),
	}
	for _, opt := range opts {
		opt(client)
	}
	return client, nil
}

// NewFromConfig builds a client from the [primary] and [http] sections.
func NewFromConfig(cfg *config.Config, logger *slog.Logger) (*Client, error) {
	opts := httpx.OptionsFromConfig(cfg)
	return New(cfg.Primary.BaseURL,
		WithHTTPClient(httpx.NewClient(opts)),
		WithAPIKey(cfg.Primary.APIKey),
		WithUserAgent(opts.UserAgent),
		WithLogger(logging.NewComponentLogger(logger, "source.primary")),
	)
}

// Name identifies the source.
func (c *Client) Name() string { return sources.NamePrimary }

// FetchFaculties lists every faculty.
func (c *Client) FetchFaculties(ctx context.Context) result.Envelope[[]schedule.Faculty] {
	const op = "faculties"
	return sources.Capture(c.Name(), op, func() ([]schedule.Faculty, error) {
		items, err := c.getList(ctx, op, "/faculties", nil, "faculties")
		if err != nil {
			return nil, err
		}
		out := make([]schedule.Faculty, 0, len(items))
		for _, item := range items {
			if f, ok := decodeFaculty(item); ok {
				out = append(out, f)
				continue
			}
			c.skipped(ctx, op, item)
		}
		return out, nil
	}, sources.NonEmpty[schedule.Faculty])
}

// FetchGroupsForFaculty lists the groups of one faculty. Records naming a
// different faculty are dropped.
func (c *Client) FetchGroupsForFaculty(ctx context.Context, facultyCode string) result.Envelope[[]schedule.Group] {
	const op = "groups"
	return sources.Capture(c.Name(), op, func() ([]schedule.Group, error) {
		if strings.TrimSpace(facultyCode) == "" {
			return nil, sources.Wrap(sources.ErrValidation, c.Name(), op, "faculty code is required", nil)
		}
		path := "/faculties/" + url.PathEscape(facultyCode) + "/groups"
		items, err := c.getList(ctx, op, path, nil, "groups")
		if err != nil {
			return nil, err
		}
		out := make([]schedule.Group, 0, len(items))
		for _, item := range items {
			if g, ok := decodeGroup(item, facultyCode); ok {
				out = append(out, g)
				continue
			}
			c.skipped(ctx, op, item)
		}
		return out, nil
	}, sources.NonEmpty[schedule.Group])
}

// FetchScheduleForGroup returns the lessons for day and parity plus the exam
// session of groupCode.
func (c *Client) FetchScheduleForGroup(ctx context.Context, groupCode string, day int, parity schedule.Parity) result.Envelope[schedule.GroupSchedule] {
	const op = "schedule"
	return sources.Capture(c.Name(), op, func() (schedule.GroupSchedule, error) {
		if strings.TrimSpace(groupCode) == "" {
			return schedule.GroupSchedule{}, sources.Wrap(sources.ErrValidation, c.Name(), op, "group code is required", nil)
		}
		query := url.Values{}
		if day > 0 {
			query.Set("day", strconv.Itoa(day))
		}
		if parity != schedule.AnyParity {
			query.Set("parity", string(parity))
		}
		doc, err := c.getDocument(ctx, op, "/groups/"+url.PathEscape(groupCode)+"/schedule", query)
		if err != nil {
			return schedule.GroupSchedule{}, err
		}
		if doc.Get("data").IsObject() {
			doc = doc.Get("data")
		}
		if !doc.IsObject() {
			return schedule.GroupSchedule{}, sources.Wrap(sources.ErrParseFailure, c.Name(), op, "expected object payload", nil)
		}

		var out schedule.GroupSchedule
		for _, item := range doc.Get("lessons").Array() {
			if l, ok := decodeLesson(item, groupCode); ok {
				out.Lessons = append(out.Lessons, l)
				continue
			}
			c.skipped(ctx, op, item)
		}
		for _, item := range doc.Get("exams").Array() {
			if e, ok := decodeExam(item, groupCode); ok {
				out.Exams = append(out.Exams, e)
				continue
			}
			c.skipped(ctx, op, item)
		}
		return out, nil
	}, func(s schedule.GroupSchedule) bool { return !s.Empty() })
}

// FetchBellSchedule returns the start and end time of every pair.
func (c *Client) FetchBellSchedule(ctx context.Context) result.Envelope[[]schedule.BellSlot] {
	const op = "bells"
	return sources.Capture(c.Name(), op, func() ([]schedule.BellSlot, error) {
		items, err := c.getList(ctx, op, "/bells", nil, "bells")
		if err != nil {
			return nil, err
		}
		out := make([]schedule.BellSlot, 0, len(items))
		for _, item := range items {
			if slot, ok := decodeBell(item); ok {
				out = append(out, slot)
				continue
			}
			c.skipped(ctx, op, item)
		}
		return out, nil
	}, sources.NonEmpty[schedule.BellSlot])
}

// FetchDepartments lists the university's departments.
func (c *Client) FetchDepartments(ctx context.Context) result.Envelope[[]schedule.Department] {
	const op = "departments"
	return sources.Capture(c.Name(), op, func() ([]schedule.Department, error) {
		items, err := c.getList(ctx, op, "/departments", nil, "departments")
		if err != nil {
			return nil, err
		}
		out := make([]schedule.Department, 0, len(items))
		for _, item := range items {
			if d, ok := decodeDepartment(item); ok {
				out = append(out, d)
				continue
			}
			c.skipped(ctx, op, item)
		}
		return out, nil
	}, sources.NonEmpty[schedule.Department])
}

func (c *Client) getDocument(ctx context.Context, op, path string, query url.Values) (gjson.Result, error) {
	endpoint := c.baseURL + path
	if len(query) > 0 {
		endpoint += "?" + query.Encode()
	}
	req := httpx.Request{
		Source:    c.Name(),
		Operation: op,
		URL:       endpoint,
		Accept:    "application/json",
		UserAgent: c.userAgent,
	}
	if c.apiKey != "" {
		req.Headers = map[string]string{"Authorization": "Bearer " + c.apiKey}
	}
	body, err := httpx.Get(ctx, c.httpClient, req)
	if err != nil {
		return gjson.Result{}, err
	}
	if !gjson.ValidBytes(body) {
		return gjson.Result{}, sources.Wrap(sources.ErrParseFailure, c.Name(), op, "invalid json", nil)
	}
	return gjson.ParseBytes(body), nil
}

func (c *Client) getList(ctx context.Context, op, path string, query url.Values, key string) ([]gjson.Result, error) {
	doc, err := c.getDocument(ctx, op, path, query)
	if err != nil {
		return nil, err
	}
	list, ok := listRoot(doc, key)
	if !ok {
		return nil, sources.Wrap(sources.ErrParseFailure, c.Name(), op, "expected a list payload", nil)
	}
	return list.Array(), nil
}

func (c *Client) skipped(ctx context.Context, op string, item gjson.Result) {
	c.logger.DebugContext(ctx, "skipping malformed record",
		logging.String("operation", op),
		logging.String("record", truncate(item.Raw, 200)),
	)
}

func truncate(value string, limit int) string {
	if len(value) <= limit {
		return value
	}
	return value[:limit] + "..."
}
