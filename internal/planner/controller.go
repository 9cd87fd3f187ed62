// Package planner owns the per-session page state: the active view, the
// active day and the committed day panel whose cards can be opened.
package planner

import (
	"context"
	"errors"
	"fmt"
	"html/template"
	"strings"
	"sync"

	"go.uber.org/zap"

	"finitefield.org/trip-planner/internal/content"
	"finitefield.org/trip-planner/internal/days"
	"finitefield.org/trip-planner/internal/itinerary"
	"finitefield.org/trip-planner/internal/observability"
	"finitefield.org/trip-planner/internal/render"
)

// View names in tab order.
const (
	ViewCatalog = "catalog"
	ViewDays    = "days"
	ViewTraffic = "traffic"
	ViewFlights = "flights"
	ViewStays   = "stays"
	ViewCloud   = "cloud"
)

// Views lists every navigable view in tab order.
var Views = []string{ViewCatalog, ViewDays, ViewTraffic, ViewFlights, ViewStays, ViewCloud}

var (
	// ErrStale is returned when a newer day request superseded this one.
	ErrStale = errors.New("planner: stale day response")
	// ErrUnknownCard is returned when a card id is not in the committed panel.
	ErrUnknownCard = errors.New("planner: unknown card")
)

// IsView reports whether name is a known view.
func IsView(name string) bool {
	for _, v := range Views {
		if v == name {
			return true
		}
	}
	return false
}

// Options configures a Controller.
type Options struct {
	// Days is the number of day segments shown in the selector.
	Days       int
	DefaultDay int
	Loader     *days.Loader
	Content    *content.Catalog
	DriveURL   string
}

// Controller is the single owner of one session's view and day state.
type Controller struct {
	opts Options

	mu      sync.Mutex
	view    string
	day     int
	token   uint64
	current days.Result
	loaded  bool
}

// NewController constructs a controller in the default state.
func NewController(opts Options) *Controller {
	if opts.Days < 1 {
		opts.Days = 1
	}
	if opts.DefaultDay < 1 || opts.DefaultDay > opts.Days {
		opts.DefaultDay = 1
	}
	return &Controller{
		opts: opts,
		view: ViewDays,
		day:  opts.DefaultDay,
	}
}

// Tab is one entry of the view tab bar.
type Tab struct {
	View   string
	Active bool
}

// Segment is one entry of the day selector.
type Segment struct {
	Day    int
	Active bool
}

// Snapshot is a consistent copy of the controller state.
type Snapshot struct {
	View     string
	Day      int
	Tabs     []Tab
	Segments []Segment
	// Result is the committed day panel; Loaded is false until one exists.
	Result days.Result
	Loaded bool
}

// View returns the active view.
func (c *Controller) View() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.view
}

// Day returns the active day.
func (c *Controller) Day() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.day
}

// SetView activates name. Unknown names leave the state unchanged and report
// false.
func (c *Controller) SetView(name string) (string, bool) {
	name = strings.ToLower(strings.TrimSpace(name))
	c.mu.Lock()
	defer c.mu.Unlock()
	if !IsView(name) {
		return c.view, false
	}
	c.view = name
	return c.view, true
}

// Panel renders the static body of view. The days view is backed by the
// committed day result and renders nothing here.
func (c *Controller) Panel(r *render.Renderer, view string) template.HTML {
	switch view {
	case ViewTraffic, ViewFlights, ViewStays:
		items, err := c.opts.Content.Section(view)
		if err != nil {
			return ""
		}
		var b strings.Builder
		for _, item := range items {
			b.WriteString(string(r.Placeholder(item.Title, item.Meta, item.Links)))
		}
		return template.HTML(b.String())
	case ViewCloud:
		if strings.TrimSpace(c.opts.DriveURL) == "" {
			return r.Placeholder(r.T("cloud.title"), r.T("cloud.missing"), nil)
		}
		return r.Placeholder(r.T("cloud.title"), r.T("cloud.meta"), []itinerary.LinkRef{
			{Title: "Google Drive", URL: c.opts.DriveURL},
		})
	case ViewCatalog:
		return r.Placeholder(r.T("catalog.title"), r.T("catalog.meta"), nil)
	}
	return ""
}

// SetDay activates day, loads it and commits the result unless a newer
// request was issued meanwhile, in which case the result is discarded and
// ErrStale returned alongside it.
func (c *Controller) SetDay(ctx context.Context, r *render.Renderer, day int) (days.Result, error) {
	if day < 1 {
		return days.Result{}, fmt.Errorf("%w: %d", itinerary.ErrInvalidDay, day)
	}

	c.mu.Lock()
	c.day = day
	c.token++
	token := c.token
	c.mu.Unlock()

	res := c.opts.Loader.Load(ctx, r, day)

	c.mu.Lock()
	defer c.mu.Unlock()
	if token != c.token {
		observability.FromContext(ctx).Debug("discarding stale day response",
			zap.Int("day", day), zap.Uint64("token", token), zap.Uint64("latest", c.token))
		return res, ErrStale
	}
	c.current = res
	c.loaded = true
	return res, nil
}

// Loading renders the placeholder panel for the active day, shown until the
// first load commits.
func (c *Controller) Loading(r *render.Renderer) days.Result {
	return c.opts.Loader.Loading(r, c.Day())
}

// Reload reloads the active day.
func (c *Controller) Reload(ctx context.Context, r *render.Renderer) (days.Result, error) {
	return c.SetDay(ctx, r, c.Day())
}

// Card returns the card registered under id in the committed day panel.
func (c *Controller) Card(id string) (itinerary.Card, error) {
	c.mu.Lock()
	pass := c.current.Pass
	c.mu.Unlock()
	card, ok := pass.Lookup(id)
	if !ok {
		return itinerary.Card{}, fmt.Errorf("%w: %s", ErrUnknownCard, id)
	}
	return card, nil
}

// Snapshot returns the current state for full-page rendering.
func (c *Controller) Snapshot() Snapshot {
	c.mu.Lock()
	defer c.mu.Unlock()
	s := Snapshot{
		View:   c.view,
		Day:    c.day,
		Result: c.current,
		Loaded: c.loaded,
	}
	for _, v := range Views {
		s.Tabs = append(s.Tabs, Tab{View: v, Active: v == c.view})
	}
	for d := 1; d <= c.opts.Days; d++ {
		s.Segments = append(s.Segments, Segment{Day: d, Active: d == c.day})
	}
	return s
}
