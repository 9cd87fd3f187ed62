package render

import (
	"bytes"
	"html/template"
	"strconv"
	"strings"

	"github.com/microcosm-cc/bluemonday"
	"github.com/yuin/goldmark"

	"finitefield.org/trip-planner/internal/itinerary"
)

// Translator resolves UI strings for one language.
type Translator interface {
	T(key string) string
	Tf(key string, args ...any) string
}

// Renderer builds HTML fragments in the language of its translator.
type Renderer struct {
	tr Translator
	// CardURL returns the detail endpoint for a rendered card id.
	CardURL func(id string) string
}

// New constructs a Renderer.
func New(tr Translator) *Renderer {
	return &Renderer{
		tr:      tr,
		CardURL: func(id string) string { return "/cards/" + id },
	}
}

// T translates key in the renderer's language.
func (r *Renderer) T(key string) string { return r.tr.T(key) }

// Tf translates key and formats args into it.
func (r *Renderer) Tf(key string, args ...any) string { return r.tr.Tf(key, args...) }

var (
	markdown   = goldmark.New()
	notePolicy = newNotePolicy()
)

func newNotePolicy() *bluemonday.Policy {
	policy := bluemonday.UGCPolicy()
	policy.RequireNoFollowOnLinks(true)
	policy.AddTargetBlankToFullyQualifiedLinks(true)
	return policy
}

// Links renders a clickable link list, or a placeholder line when empty.
func (r *Renderer) Links(links []itinerary.LinkRef) template.HTML {
	if len(links) == 0 {
		return template.HTML(`<div class="small">` + Escape(r.tr.T("links.empty")) + `</div>`)
	}
	var b strings.Builder
	b.WriteString(`<div class="links">`)
	for _, l := range links {
		title := l.Title
		if title == "" {
			title = r.tr.T("links.default_title")
		}
		url := Escape(l.URL)
		b.WriteString(`<a class="linkItem" href="` + url + `" target="_blank" rel="noopener">`)
		b.WriteString(`<div class="linkItem__left">`)
		b.WriteString(`<div class="linkItem__title">` + Escape(title) + `</div>`)
		b.WriteString(`<div class="linkItem__url">` + url + `</div>`)
		b.WriteString(`</div>`)
		b.WriteString(`<div class="small">` + Escape(r.tr.T("links.open")) + `</div>`)
		b.WriteString(`</a>`)
	}
	b.WriteString(`</div>`)
	return template.HTML(b.String())
}

// Detail renders the labeled content blocks behind a card. The reference
// links block is always present and always last.
func (r *Renderer) Detail(card itinerary.Card) template.HTML {
	d := card.Details
	if d == nil {
		d = &itinerary.Detail{}
	}
	var b strings.Builder

	if strings.TrimSpace(card.Description) != "" {
		writeBlock(&b, "description", r.tr.T("detail.description"),
			`<div class="small">`+Escape(card.Description)+`</div>`)
	}

	sections := []struct {
		name  string
		key   string
		items []string
	}{
		{"menu", "detail.menu", d.Menu},
		{"buy", "detail.buy", d.Buy},
		{"reviews", "detail.reviews", d.Reviews},
		{"tips", "detail.tips", d.Tips},
	}
	for _, s := range sections {
		if len(s.items) == 0 {
			continue
		}
		var list strings.Builder
		list.WriteString(`<ul class="list">`)
		for _, item := range s.items {
			list.WriteString(`<li>` + Escape(item) + `</li>`)
		}
		list.WriteString(`</ul>`)
		writeBlock(&b, s.name, r.tr.T(s.key), list.String())
	}

	if notes := renderNotes(d.Text); notes != "" {
		writeBlock(&b, "notes", r.tr.T("detail.notes"), `<div class="prose small">`+notes+`</div>`)
	}

	writeBlock(&b, "links", r.tr.T("detail.links"), string(r.Links(card.ReferenceLinks())))
	return template.HTML(b.String())
}

func writeBlock(b *strings.Builder, name, title, body string) {
	b.WriteString(`<div class="detailBlock" data-block="` + name + `">`)
	b.WriteString(`<div class="detailBlock__title">` + Escape(title) + `</div>`)
	b.WriteString(body)
	b.WriteString(`</div>`)
}

// renderNotes converts markdown to sanitized HTML.
func renderNotes(text string) string {
	if strings.TrimSpace(text) == "" {
		return ""
	}
	var buf bytes.Buffer
	if err := markdown.Convert([]byte(text), &buf); err != nil {
		return Escape(text)
	}
	return strings.TrimSpace(notePolicy.Sanitize(buf.String()))
}

// MetaLine joins time, category and status, skipping absent parts, and falls
// back to the subtitle when nothing remains.
func (r *Renderer) MetaLine(card itinerary.Card) string {
	parts := make([]string, 0, 3)
	for _, p := range []string{card.Time, card.Category, card.Status} {
		if p != "" {
			parts = append(parts, p)
		}
	}
	if len(parts) == 0 {
		return card.Subtitle
	}
	return strings.Join(parts, r.tr.T("card.separator"))
}

// Card renders a tappable card summary. id is the element id registered in
// the rendering pass; clicking the card requests its detail view.
func (r *Renderer) Card(id string, card itinerary.Card) template.HTML {
	title := card.Title
	if title == "" {
		title = r.tr.T("card.untitled")
	}

	var badges strings.Builder
	if card.Status != "" {
		badges.WriteString(`<span class="badge badge--ok">` + Escape(card.Status) + `</span>`)
	}
	if card.Category != "" {
		badges.WriteString(`<span class="badge">` + Escape(card.Category) + `</span>`)
	}
	if card.Time != "" {
		badges.WriteString(`<span class="badge">` + Escape(card.Time) + `</span>`)
	}

	var b strings.Builder
	b.WriteString(`<button type="button" class="card card--action" data-card-id="` + Escape(id) + `"`)
	b.WriteString(` hx-get="` + Escape(r.CardURL(id)) + `" hx-target="#modal" hx-swap="outerHTML">`)
	b.WriteString(`<div class="row"><div class="row__left">`)
	b.WriteString(`<div class="card__title">` + Escape(title) + `</div>`)
	b.WriteString(`<div class="card__meta">` + Escape(r.MetaLine(card)) + `</div>`)
	b.WriteString(`<div class="badgeRow">` + badges.String() + `</div>`)
	b.WriteString(`</div><div class="row__right">`)
	if itinerary.HasDetail(card) {
		b.WriteString(`<span class="pill">` + Escape(r.tr.T("detail.pill")) + `</span>`)
	}
	b.WriteString(`</div></div></button>`)
	return template.HTML(b.String())
}

// Cards renders every card in document order, registering each in pass.
func (r *Renderer) Cards(pass *Pass, cards []itinerary.Card) template.HTML {
	var b strings.Builder
	for _, c := range cards {
		b.WriteString(string(r.Card(pass.Add(c), c)))
	}
	return template.HTML(b.String())
}

// Placeholder renders a static information card with optional links.
func (r *Renderer) Placeholder(title, meta string, links []itinerary.LinkRef) template.HTML {
	var b strings.Builder
	b.WriteString(`<div class="card">`)
	b.WriteString(`<div class="card__title">` + Escape(title) + `</div>`)
	b.WriteString(`<div class="card__meta">` + Escape(meta) + `</div>`)
	if len(links) > 0 {
		b.WriteString(`<div class="card__links">` + string(r.Links(links)) + `</div>`)
	}
	b.WriteString(`</div>`)
	return template.HTML(b.String())
}

// LoadingSummary is shown while a day document is being fetched.
func (r *Renderer) LoadingSummary() template.HTML {
	return template.HTML(`<div class="small" data-state="loading">` + Escape(r.tr.T("day.loading")) + `</div>`)
}

// FailedSummary replaces the summary when a day document cannot be loaded.
func (r *Renderer) FailedSummary() template.HTML {
	return template.HTML(`<div class="small" data-state="error">` + Escape(r.tr.T("day.load_failed")) + `</div>`)
}

// Summary renders the header of a loaded day document.
func (r *Renderer) Summary(day int, doc itinerary.DayDocument) template.HTML {
	title := doc.Title
	if title == "" {
		title = r.tr.Tf("day.default_title", day)
	}
	date := ""
	if doc.Date != "" {
		date = r.tr.Tf("day.date", doc.Date)
	}
	status := ""
	if doc.Status != "" {
		status = r.tr.Tf("day.status", doc.Status)
	}
	head := strings.TrimSpace(title + " " + date)
	return template.HTML(`<div class="kv" data-state="loaded"><div class="k">` + Escape(status) +
		`</div><div class="v">` + Escape(head) + `</div></div>`)
}

// ErrorCard names the resource that failed to load and the underlying error.
func (r *Renderer) ErrorCard(day int, err error) template.HTML {
	return template.HTML(`<div class="card card--error" data-state="error" data-day="` + strconv.Itoa(day) + `">` +
		`<div class="card__title">` + Escape(r.tr.Tf("day.error_title", itinerary.DayFile(day))) + `</div>` +
		`<div class="card__meta">` + EscapeValue(err) + `</div></div>`)
}

// EmptyDayCard explains how to supply content for a day without cards.
func (r *Renderer) EmptyDayCard(day int) template.HTML {
	// day.empty_hint is trusted locale markup; only the path is interpolated.
	return template.HTML(`<div class="card card--empty" data-state="empty" data-day="` + strconv.Itoa(day) + `">` +
		`<div class="card__title">` + Escape(r.tr.T("day.empty_title")) + `</div>` +
		`<div class="card__meta">` + r.tr.Tf("day.empty_hint", Escape(itinerary.DayPath(day))) + `</div></div>`)
}

// Modal renders the overlay with title and body. Elements marked data-close
// dismiss it on click.
func (r *Renderer) Modal(title string, body template.HTML) template.HTML {
	if strings.TrimSpace(title) == "" {
		title = r.tr.T("modal.default_title")
	}
	return template.HTML(`<div id="modal" class="modal" role="dialog" aria-modal="true" aria-labelledby="modalTitle" data-open="true">` +
		`<div class="modal__backdrop" data-close="1"></div>` +
		`<div class="modal__sheet">` +
		`<div class="modal__head"><div id="modalTitle" class="modal__title">` + Escape(title) + `</div>` +
		`<button type="button" class="btn btn--ghost" data-close="1">` + Escape(r.tr.T("modal.close")) + `</button></div>` +
		`<div id="modalBody" class="modal__body">` + string(body) + `</div>` +
		`</div></div>`)
}

// ClosedModal renders the hidden overlay placeholder.
func ClosedModal() template.HTML {
	return template.HTML(`<div id="modal" class="modal" hidden></div>`)
}
