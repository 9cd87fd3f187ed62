package days_test

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/require"

	"finitefield.org/trip-planner/internal/days"
	"finitefield.org/trip-planner/internal/render"
	"finitefield.org/trip-planner/internal/testutil"
)

func newRenderer(t *testing.T) *render.Renderer {
	t.Helper()
	return render.New(testutil.Bundle(t).For("zh-TW"))
}

func TestHTTPSourceSendsRevalidationHeaders(t *testing.T) {
	t.Parallel()

	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		require.Equal(t, "/data/days/day4.json", r.URL.Path)
		require.Equal(t, "no-cache", r.Header.Get("Cache-Control"))
		require.Equal(t, "no-cache", r.Header.Get("Pragma"))
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"title":"Kyoto","date":"2024-04-05","cards":[{"title":"Temple"}]}`))
	}))
	t.Cleanup(srv.Close)

	doc, err := days.NewHTTPSource(srv.URL+"/", 0).Fetch(context.Background(), 4)
	require.NoError(t, err)
	require.Equal(t, "Kyoto", doc.Title)
	require.Len(t, doc.Cards, 1)

	// No client-side caching: a second fetch reaches the server again.
	_, err = days.NewHTTPSource(srv.URL, 0).Fetch(context.Background(), 4)
	require.NoError(t, err)
	require.EqualValues(t, 2, hits.Load())
}

func TestHTTPSourceStatusErrors(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/data/days/day9.json" {
			http.NotFound(w, r)
			return
		}
		http.Error(w, "boom", http.StatusBadGateway)
	}))
	t.Cleanup(srv.Close)
	src := days.NewHTTPSource(srv.URL, 0)

	_, err := src.Fetch(context.Background(), 9)
	var statusErr *days.StatusError
	require.ErrorAs(t, err, &statusErr)
	require.Equal(t, http.StatusNotFound, statusErr.Code)
	require.Equal(t, "data/days/day9.json", statusErr.Path)
	require.ErrorIs(t, err, days.ErrNotFound)

	_, err = src.Fetch(context.Background(), 2)
	require.ErrorAs(t, err, &statusErr)
	require.Equal(t, http.StatusBadGateway, statusErr.Code)
	require.NotErrorIs(t, err, days.ErrNotFound)
}

func TestHTTPSourceRejectsMalformedDocument(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`[1,2,3]`))
	}))
	t.Cleanup(srv.Close)

	_, err := days.NewHTTPSource(srv.URL, 0).Fetch(context.Background(), 1)
	require.Error(t, err)
	require.Contains(t, err.Error(), "decode data/days/day1.json")
}

func TestDirSourceReadsOnEveryCall(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	path := filepath.Join(dir, "day2.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"title":"before"}`), 0o600))

	src := days.NewDirSource(dir)
	doc, err := src.Fetch(context.Background(), 2)
	require.NoError(t, err)
	require.Equal(t, "before", doc.Title)

	require.NoError(t, os.WriteFile(path, []byte(`{"title":"after"}`), 0o600))
	doc, err = src.Fetch(context.Background(), 2)
	require.NoError(t, err)
	require.Equal(t, "after", doc.Title)

	_, err = src.Fetch(context.Background(), 3)
	require.ErrorIs(t, err, days.ErrNotFound)
}

func TestLoaderMissingDayRendersSingleErrorCard(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.NotFoundHandler())
	t.Cleanup(srv.Close)

	res := days.NewLoader(days.NewHTTPSource(srv.URL, 0)).Load(context.Background(), newRenderer(t), 9)
	require.Equal(t, days.StateError, res.State)
	require.Error(t, res.Err)
	require.Equal(t, 0, res.Pass.Len())

	cards := testutil.ParseFragment(t, res.Cards).Find(".card")
	require.Equal(t, 1, cards.Length())
	require.Contains(t, cards.Find(".card__title").Text(), "day9.json")
	require.Contains(t, cards.Find(".card__meta").Text(), "404")
	require.Contains(t, string(res.Summary), "載入失敗")
}

func TestLoaderEmptyDayRendersGuidanceCard(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "day6.json"), []byte(`{"title":"Rest","cards":[]}`), 0o600))

	res := days.NewLoader(days.NewDirSource(dir)).Load(context.Background(), newRenderer(t), 6)
	require.Equal(t, days.StateEmpty, res.State)
	require.NoError(t, res.Err)

	doc := testutil.ParseFragment(t, res.Cards)
	require.Equal(t, 1, doc.Find(".card").Length())
	require.Contains(t, doc.Text(), "data/days/day6.json")
	require.Contains(t, testutil.ParseFragment(t, res.Summary).Find(".v").Text(), "Rest")
}

func TestLoaderRendersCardsInOrder(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	body := `{"title":"Kyoto","date":"2024-04-05","status":"confirmed","cards":[
		{"title":"Temple visit","time":"09:00","category":"sightseeing","status":"booked"},
		{"title":"Lunch","details":{"menu":["udon"]}}
	]}`
	require.NoError(t, os.WriteFile(filepath.Join(dir, "day5.json"), []byte(body), 0o600))

	res := days.NewLoader(days.NewDirSource(dir)).Load(context.Background(), newRenderer(t), 5)
	require.Equal(t, days.StateSuccess, res.State)
	require.Equal(t, 2, res.Pass.Len())

	doc := testutil.ParseFragment(t, res.Cards)
	titles := doc.Find(".card__title")
	require.Equal(t, 2, titles.Length())
	require.Equal(t, "Temple visit", titles.Eq(0).Text())
	require.Equal(t, "Lunch", titles.Eq(1).Text())

	summary := testutil.ParseFragment(t, res.Summary).Text()
	require.Contains(t, summary, "Kyoto")
	require.Contains(t, summary, "（2024-04-05）")
	require.Contains(t, summary, "confirmed")
}

func TestLoaderCancelledContextIsErrorState(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	res := days.NewLoader(days.NewDirSource(t.TempDir())).Load(ctx, newRenderer(t), 1)
	require.Equal(t, days.StateError, res.State)
	require.True(t, errors.Is(res.Err, context.Canceled))
}

func TestLoadingState(t *testing.T) {
	t.Parallel()

	res := days.NewLoader(days.NewDirSource(t.TempDir())).Loading(newRenderer(t), 3)
	require.Equal(t, days.StateLoading, res.State)
	require.Contains(t, string(res.Summary), "載入中…")
	require.Empty(t, res.Cards)
}
