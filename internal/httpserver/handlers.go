package httpserver

import (
	"errors"
	"html/template"
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"finitefield.org/trip-planner/internal/days"
	custommw "finitefield.org/trip-planner/internal/httpserver/middleware"
	"finitefield.org/trip-planner/internal/i18n"
	"finitefield.org/trip-planner/internal/itinerary"
	"finitefield.org/trip-planner/internal/observability"
	"finitefield.org/trip-planner/internal/planner"
	"finitefield.org/trip-planner/internal/render"
)

// jumpViews are the shortcut buttons on the catalog view.
var jumpViews = []string{planner.ViewDays, planner.ViewTraffic, planner.ViewFlights, planner.ViewStays, planner.ViewCloud}

type app struct {
	cfg   Config
	views *templateSet
}

// pageView feeds the layout and every fragment template.
type pageView struct {
	Lang        string
	Langs       []string
	L           i18n.Localizer
	Snapshot    planner.Snapshot
	Day         dayView
	Panels      map[string]template.HTML
	Jumps       []string
	Modal       template.HTML
	TabsOOB     bool
	SegmentsOOB bool
}

type dayView struct {
	Day     int
	State   days.State
	Summary template.HTML
	Cards   template.HTML
	// Lazy panels fetch themselves once swapped in.
	Lazy bool
}

func newDayView(res days.Result) dayView {
	return dayView{
		Day:     res.Day,
		State:   res.State,
		Summary: res.Summary,
		Cards:   res.Cards,
		Lazy:    res.State == days.StateLoading,
	}
}

type requestScope struct {
	ctrl *planner.Controller
	loc  i18n.Localizer
	rend *render.Renderer
}

func (a *app) scope(r *http.Request) requestScope {
	sd := custommw.SessionFromContext(r.Context())
	lang := custommw.LocaleFromContext(r.Context())
	if lang == "" {
		lang = a.cfg.Bundle.Fallback()
	}
	loc := a.cfg.Bundle.For(lang)
	return requestScope{
		ctrl: a.cfg.Registry.Get(sd.ID),
		loc:  loc,
		rend: render.New(loc),
	}
}

func (a *app) buildPage(s requestScope, snap planner.Snapshot, day dayView) pageView {
	panels := make(map[string]template.HTML, len(planner.Views))
	for _, v := range planner.Views {
		panels[v] = s.ctrl.Panel(s.rend, v)
	}
	return pageView{
		Lang:     s.loc.Lang(),
		Langs:    a.cfg.Bundle.Supported(),
		L:        s.loc,
		Snapshot: snap,
		Day:      day,
		Panels:   panels,
		Jumps:    jumpViews,
		Modal:    render.ClosedModal(),
	}
}

// committedDay returns the committed panel, or a self-loading placeholder
// before the first load.
func committedDay(s requestScope, snap planner.Snapshot) dayView {
	if !snap.Loaded {
		return newDayView(s.ctrl.Loading(s.rend))
	}
	return newDayView(snap.Result)
}

// page renders the full document. The view and day query parameters select
// the initial state; the active day is always reloaded.
func (a *app) page(w http.ResponseWriter, r *http.Request) {
	s := a.scope(r)
	q := r.URL.Query()

	if v := q.Get("view"); v != "" {
		s.ctrl.SetView(v)
	}
	day := s.ctrl.Day()
	if raw := q.Get("day"); raw != "" {
		parsed, err := itinerary.ParseDay(raw)
		if err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		day = parsed
	}

	if _, err := s.ctrl.SetDay(r.Context(), s.rend, day); err != nil && !errors.Is(err, planner.ErrStale) {
		a.fail(w, r, err)
		return
	}
	snap := s.ctrl.Snapshot()
	a.write(w, r, http.StatusOK, "base", a.buildPage(s, snap, committedDay(s, snap)))
}

// viewFragment switches the active view and returns the view container plus
// an out-of-band tab bar.
func (a *app) viewFragment(w http.ResponseWriter, r *http.Request) {
	s := a.scope(r)
	if _, ok := s.ctrl.SetView(chi.URLParam(r, "view")); !ok {
		noSwap(w)
		return
	}
	snap := s.ctrl.Snapshot()
	data := a.buildPage(s, snap, committedDay(s, snap))
	data.TabsOOB = true
	a.write(w, r, http.StatusOK, "view_fragment", data)
}

// dayFragment loads a day and returns its panel plus an out-of-band day
// selector. Superseded loads swap nothing.
func (a *app) dayFragment(w http.ResponseWriter, r *http.Request) {
	s := a.scope(r)
	day, err := itinerary.ParseDay(chi.URLParam(r, "day"))
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	res, err := s.ctrl.SetDay(r.Context(), s.rend, day)
	switch {
	case errors.Is(err, planner.ErrStale):
		noSwap(w)
		return
	case err != nil:
		a.fail(w, r, err)
		return
	}
	data := a.buildPage(s, s.ctrl.Snapshot(), newDayView(res))
	data.SegmentsOOB = true
	a.write(w, r, http.StatusOK, "day_fragment", data)
}

// cardFragment renders the detail modal of a card from the committed panel.
func (a *app) cardFragment(w http.ResponseWriter, r *http.Request) {
	s := a.scope(r)
	card, err := s.ctrl.Card(chi.URLParam(r, "id"))
	if errors.Is(err, planner.ErrUnknownCard) {
		body := template.HTML(`<div class="small">` + render.Escape(s.loc.T("card.gone")) + `</div>`)
		a.writeHTML(w, http.StatusNotFound, s.rend.Modal("", body))
		return
	}
	if err != nil {
		a.fail(w, r, err)
		return
	}
	a.writeHTML(w, http.StatusOK, s.rend.Modal(card.Title, s.rend.Detail(card)))
}

func noSwap(w http.ResponseWriter) {
	w.Header().Set("HX-Reswap", "none")
	w.WriteHeader(http.StatusNoContent)
}

func (a *app) write(w http.ResponseWriter, r *http.Request, status int, name string, data any) {
	if err := a.views.render(w, status, name, data); err != nil {
		a.fail(w, r, err)
	}
}

func (a *app) writeHTML(w http.ResponseWriter, status int, fragment template.HTML) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	_, _ = w.Write([]byte(fragment))
}

func (a *app) fail(w http.ResponseWriter, r *http.Request, err error) {
	status := http.StatusInternalServerError
	if errors.Is(err, itinerary.ErrInvalidDay) {
		status = http.StatusBadRequest
	}
	observability.FromContext(r.Context()).Error("request failed", zap.Error(err), zap.Int("status", status))
	http.Error(w, http.StatusText(status), status)
}
