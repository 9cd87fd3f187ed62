package days

import (
	"context"
	"html/template"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.uber.org/zap"

	"finitefield.org/trip-planner/internal/itinerary"
	"finitefield.org/trip-planner/internal/observability"
	"finitefield.org/trip-planner/internal/render"
)

// State is the lifecycle position of a day panel.
type State string

const (
	StateLoading State = "loading"
	StateSuccess State = "success"
	StateEmpty   State = "empty"
	StateError   State = "error"
)

// Result is a rendered day panel.
type Result struct {
	Day     int
	State   State
	Summary template.HTML
	Cards   template.HTML
	// Pass holds the cards rendered into Cards, keyed by element id.
	Pass *render.Pass
	Doc  itinerary.DayDocument
	Err  error
}

// Loader fetches day documents and renders them into panels.
type Loader struct {
	source Source
}

// NewLoader constructs a loader over source.
func NewLoader(source Source) *Loader {
	return &Loader{source: source}
}

// Source returns the underlying document source.
func (l *Loader) Source() Source { return l.source }

// Loading renders the panel shown before a fetch completes.
func (l *Loader) Loading(r *render.Renderer, day int) Result {
	return Result{
		Day:     day,
		State:   StateLoading,
		Summary: r.LoadingSummary(),
		Pass:    render.NewPass(),
	}
}

// Load fetches the document for day and renders it with r. Failures never
// escape as errors; they become the error state with a single error card.
func (l *Loader) Load(ctx context.Context, r *render.Renderer, day int) Result {
	logger := observability.FromContext(ctx).With(zap.Int("day", day), zap.String("source", l.source.Name()))

	ctx, span := observability.Tracer().Start(ctx, "days.fetch")
	span.SetAttributes(
		attribute.Int("day", day),
		attribute.String("source", l.source.Name()),
	)
	defer span.End()

	start := time.Now()
	doc, err := l.source.Fetch(ctx, day)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		logger.Warn("day load failed", zap.Error(err), zap.Duration("latency", time.Since(start)))
		return Result{
			Day:     day,
			State:   StateError,
			Summary: r.FailedSummary(),
			Cards:   r.ErrorCard(day, err),
			Pass:    render.NewPass(),
			Err:     err,
		}
	}

	span.SetAttributes(attribute.Int("cards", len(doc.Cards)))
	logger.Debug("day loaded", zap.Int("cards", len(doc.Cards)), zap.Duration("latency", time.Since(start)))

	res := Result{
		Day:     day,
		State:   StateSuccess,
		Summary: r.Summary(day, doc),
		Pass:    render.NewPass(),
		Doc:     doc,
	}
	if len(doc.Cards) == 0 {
		res.State = StateEmpty
		res.Cards = r.EmptyDayCard(day)
		return res
	}
	res.Cards = r.Cards(res.Pass, doc.Cards)
	return res
}
