// Package fallback implements the DataSource that scrapes the university's
// public schedule website. It is slower and less precise than the primary
// API and is only consulted when the primary fails or returns nothing.
package fallback

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"timetable/internal/config"
	"timetable/internal/logging"
	"timetable/internal/result"
	"timetable/internal/schedule"
	"timetable/internal/sources"
	"timetable/internal/sources/httpx"
)

// Client scrapes the schedule website rooted at baseURL.
type Client struct {
	baseURL    string
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

// WithUserAgent overrides the User-Agent header.
func WithUserAgent(agent string) Option {
	return func(c *Client) {
		c.userAgent = agent
	}
}

// WithLogger attaches a logger.
func WithLogger(logger *slog.Logger) Option {
	return func(c *Client) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// New constructs a scraper for the site rooted at baseURL.
func New(baseURL string, opts ...Option) (*Client, error) {
	baseURL = strings.TrimRight(strings.TrimSpace(baseURL), "/")
	if baseURL == "" {
		return nil, errors.New("fallback: base url is required")
	}
	if _, err := url.Parse(baseURL); err != nil {
		return nil, fmt.Errorf("fallback: parse base url: %w", err)
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

// NewFromConfig builds a scraper from the [fallback] and [http] sections.
func NewFromConfig(cfg *config.Config, logger *slog.Logger) (*Client, error) {
	opts := httpx.OptionsFromConfig(cfg)
	return New(cfg.Fallback.BaseURL,
		WithHTTPClient(httpx.NewClient(opts)),
		WithUserAgent(opts.UserAgent),
		WithLogger(logging.NewComponentLogger(logger, "source.fallback")),
	)
}

// Name identifies the source.
func (c *Client) Name() string { return sources.NameFallback }

// FetchFaculties scrapes the faculty index page.
func (c *Client) FetchFaculties(ctx context.Context) result.Envelope[[]schedule.Faculty] {
	const op = "faculties"
	return sources.Capture(c.Name(), op, func() ([]schedule.Faculty, error) {
		doc, err := c.page(ctx, op, "/", nil)
		if err != nil {
			return nil, err
		}
		return scrapeFaculties(doc), nil
	}, sources.NonEmpty[schedule.Faculty])
}

// FetchGroupsForFaculty scrapes the group list of one faculty. A page that
// yields no group is reported as an empty source, never as zero groups.
func (c *Client) FetchGroupsForFaculty(ctx context.Context, facultyCode string) result.Envelope[[]schedule.Group] {
	const op = "groups"
	return sources.Capture(c.Name(), op, func() ([]schedule.Group, error) {
		if strings.TrimSpace(facultyCode) == "" {
			return nil, sources.Wrap(sources.ErrValidation, c.Name(), op, "faculty code is required", nil)
		}
		doc, err := c.page(ctx, op, "/", url.Values{"faculty": {facultyCode}})
		if err != nil {
			return nil, err
		}
		return scrapeGroups(doc, facultyCode), nil
	}, sources.NonEmpty[schedule.Group])
}

// FetchScheduleForGroup scrapes the weekly timetable and the exam session of
// groupCode. The site always publishes the whole week, so day and parity are
// applied after extraction.
func (c *Client) FetchScheduleForGroup(ctx context.Context, groupCode string, day int, parity schedule.Parity) result.Envelope[schedule.GroupSchedule] {
	const op = "schedule"
	return sources.Capture(c.Name(), op, func() (schedule.GroupSchedule, error) {
		if strings.TrimSpace(groupCode) == "" {
			return schedule.GroupSchedule{}, sources.Wrap(sources.ErrValidation, c.Name(), op, "group code is required", nil)
		}
		doc, err := c.page(ctx, op, "/", url.Values{"group": {groupCode}})
		if err != nil {
			return schedule.GroupSchedule{}, err
		}
		lessons := filterLessons(scrapeLessons(doc, groupCode), day, parity)
		return schedule.GroupSchedule{Lessons: lessons, Exams: scrapeExams(doc, groupCode)}, nil
	}, func(s schedule.GroupSchedule) bool { return !s.Empty() })
}

// FetchBellSchedule scrapes the bell table.
func (c *Client) FetchBellSchedule(ctx context.Context) result.Envelope[[]schedule.BellSlot] {
	const op = "bells"
	return sources.Capture(c.Name(), op, func() ([]schedule.BellSlot, error) {
		doc, err := c.page(ctx, op, "/bells", nil)
		if err != nil {
			return nil, err
		}
		return scrapeBells(doc), nil
	}, sources.NonEmpty[schedule.BellSlot])
}

// FetchDepartments scrapes the department directory.
func (c *Client) FetchDepartments(ctx context.Context) result.Envelope[[]schedule.Department] {
	const op = "departments"
	return sources.Capture(c.Name(), op, func() ([]schedule.Department, error) {
		doc, err := c.page(ctx, op, "/departments", nil)
		if err != nil {
			return nil, err
		}
		return scrapeDepartments(doc), nil
	}, sources.NonEmpty[schedule.Department])
}

func (c *Client) page(ctx context.Context, op, path string, query url.Values) (*goquery.Document, error) {
	endpoint := c.baseURL + path
	if len(query) > 0 {
		endpoint += "?" + query.Encode()
	}
	body, err := httpx.Get(ctx, c.httpClient, httpx.Request{
		Source:    c.Name(),
		Operation: op,
		URL:       endpoint,
		Accept:    "text/html",
		UserAgent: c.userAgent,
	})
	if err != nil {
		return nil, err
	}
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(body))
	if err != nil {
		return nil, sources.Wrap(sources.ErrParseFailure, c.Name(), op, "parse html", err)
	}
	c.logger.DebugContext(ctx, "fetched page", logging.String("operation", op), logging.Int("bytes", len(body)))
	return doc, nil
}
