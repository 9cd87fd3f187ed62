package httpserver_test

import (
	"context"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/PuerkitoBio/goquery"
	"github.com/stretchr/testify/require"

	"finitefield.org/trip-planner/internal/itinerary"
	"finitefield.org/trip-planner/internal/testutil"
)

const kyoto = `{
  "title": "Kyoto",
  "date": "2024-04-05",
  "status": "confirmed",
  "cards": [
    {"title": "Temple visit", "time": "09:00", "category": "sightseeing", "status": "booked"},
    {"title": "Udon <lunch>", "description": "Near the station",
     "details": {"menu": ["kitsune udon"], "links": [{"title": "Shop", "url": "https://udon.example"}]}}
  ]
}`

func dataDir(t *testing.T, files map[string]string) string {
	t.Helper()
	dir := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "days"), 0o755))
	for name, body := range files {
		require.NoError(t, os.WriteFile(filepath.Join(dir, "days", name), []byte(body), 0o600))
	}
	return dir
}

func TestHealthz(t *testing.T) {
	t.Parallel()

	ts := testutil.NewServer(t)
	resp, body := testutil.Get(t, ts.Client(), ts.URL+"/healthz", false)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.Equal(t, "ok", string(body))
}

func TestPageRendersDefaultState(t *testing.T) {
	t.Parallel()

	ts := testutil.NewServer(t, testutil.WithDataDir(dataDir(t, map[string]string{"day5.json": kyoto})))
	resp, body := testutil.Get(t, testutil.Client(t), ts.URL+"/", false)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.Contains(t, resp.Header.Get("Cache-Control"), "no-store")

	doc := testutil.ParseHTML(t, body)
	require.Equal(t, "zh-TW", doc.Find("html").AttrOr("lang", ""))

	active := doc.Find("#tabs .tab--active")
	require.Equal(t, 1, active.Length())
	require.Equal(t, "days", active.AttrOr("data-view", ""))
	require.Equal(t, 6, doc.Find("#tabs .tab").Length())

	segs := doc.Find("#daySegments .seg--active")
	require.Equal(t, 1, segs.Length())
	require.Equal(t, "5", segs.AttrOr("data-day", ""))
	require.Equal(t, 8, doc.Find("#daySegments .seg").Length())

	_, hidden := doc.Find("#view-days").Attr("hidden")
	require.False(t, hidden)
	_, hidden = doc.Find("#view-traffic").Attr("hidden")
	require.True(t, hidden)

	panel := doc.Find("#dayPanel")
	require.Equal(t, "success", panel.AttrOr("data-state", ""))
	require.Contains(t, panel.Find("#daySummary").Text(), "Kyoto")
	require.Equal(t, 2, panel.Find("button.card").Length())
	require.Equal(t, "Udon <lunch>", panel.Find(".card__title").Eq(1).Text())

	_, hidden = doc.Find("#modal").Attr("hidden")
	require.True(t, hidden)
}

func TestPageQuerySelectsViewDayAndLanguage(t *testing.T) {
	t.Parallel()

	ts := testutil.NewServer(t, testutil.WithDataDir(dataDir(t, map[string]string{"day2.json": `{"title":"Nagoya","cards":[]}`})))
	_, body := testutil.Get(t, testutil.Client(t), ts.URL+"/?view=stays&day=2&hl=en", false)
	doc := testutil.ParseHTML(t, body)

	require.Equal(t, "en", doc.Find("html").AttrOr("lang", ""))
	require.Equal(t, "stays", doc.Find("#tabs .tab--active").AttrOr("data-view", ""))
	require.Equal(t, "Stays", doc.Find("#tabs .tab--active").Text())
	require.Equal(t, "2", doc.Find("#daySegments .seg--active").AttrOr("data-day", ""))
	require.Equal(t, 2, doc.Find("#view-stays .card").Length())
	require.Equal(t, "empty", doc.Find("#dayPanel").AttrOr("data-state", ""))

	resp, _ := testutil.Get(t, testutil.Client(t), ts.URL+"/?day=abc", false)
	require.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestFragmentsRequireHTMX(t *testing.T) {
	t.Parallel()

	ts := testutil.NewServer(t)
	for _, path := range []string{"/views/traffic", "/days/1", "/cards/x"} {
		resp, _ := testutil.Get(t, testutil.Client(t), ts.URL+path, false)
		require.Equalf(t, http.StatusNotFound, resp.StatusCode, path)
	}
}

func TestViewFragment(t *testing.T) {
	t.Parallel()

	ts := testutil.NewServer(t, testutil.WithDriveURL("https://drive.example/folder"))
	client := testutil.Client(t)

	resp, body := testutil.Get(t, client, ts.URL+"/views/traffic", true)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	doc := testutil.ParseHTML(t, body)

	require.Equal(t, "true", doc.Find("#tabs").AttrOr("hx-swap-oob", ""))
	require.Equal(t, "traffic", doc.Find("#tabs .tab--active").AttrOr("data-view", ""))
	_, oob := doc.Find("#daySegments").Attr("hx-swap-oob")
	require.False(t, oob)

	traffic := doc.Find("#view-traffic")
	_, hidden := traffic.Attr("hidden")
	require.False(t, hidden)
	require.Equal(t, 5, traffic.Find(".card").Length())
	require.Equal(t, "https://drive.example/folder", traffic.Find(".card").Last().Find("a").AttrOr("href", ""))

	// Before any day load the days panel fetches itself.
	panel := doc.Find("#dayPanel")
	require.Equal(t, "loading", panel.AttrOr("data-state", ""))
	require.Equal(t, "load", panel.AttrOr("hx-trigger", ""))

	resp, _ = testutil.Get(t, client, ts.URL+"/views/nope", true)
	require.Equal(t, http.StatusNoContent, resp.StatusCode)
	require.Equal(t, "none", resp.Header.Get("HX-Reswap"))

	// Unknown view left the state unchanged.
	_, body = testutil.Get(t, client, ts.URL+"/views/catalog", true)
	doc = testutil.ParseHTML(t, body)
	require.Equal(t, "catalog", doc.Find("#tabs .tab--active").AttrOr("data-view", ""))
	require.Equal(t, 5, doc.Find("#view-catalog [data-jump]").Length())
}

func TestDayFragmentStates(t *testing.T) {
	t.Parallel()

	ts := testutil.NewServer(t, testutil.WithDataDir(dataDir(t, map[string]string{
		"day5.json": kyoto,
		"day6.json": `{"title":"Rest day","cards":[]}`,
	})))
	client := testutil.Client(t)

	_, body := testutil.Get(t, client, ts.URL+"/days/6", true)
	doc := testutil.ParseHTML(t, body)
	require.Equal(t, "empty", doc.Find("#dayPanel").AttrOr("data-state", ""))
	require.Equal(t, 1, doc.Find("#dayCards .card").Length())
	require.Contains(t, doc.Find("#dayCards").Text(), itinerary.DayPath(6))
	require.Equal(t, "true", doc.Find("#daySegments").AttrOr("hx-swap-oob", ""))
	require.Equal(t, "6", doc.Find("#daySegments .seg--active").AttrOr("data-day", ""))

	_, body = testutil.Get(t, client, ts.URL+"/days/9", true)
	doc = testutil.ParseHTML(t, body)
	require.Equal(t, "error", doc.Find("#dayPanel").AttrOr("data-state", ""))
	cards := doc.Find("#dayCards .card")
	require.Equal(t, 1, cards.Length())
	require.Contains(t, cards.Find(".card__title").Text(), "day9.json")
	require.Equal(t, 0, doc.Find("#daySegments .seg--active").Length())

	resp, _ := testutil.Get(t, client, ts.URL+"/days/0", true)
	require.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestCardModal(t *testing.T) {
	t.Parallel()

	ts := testutil.NewServer(t, testutil.WithDataDir(dataDir(t, map[string]string{"day5.json": kyoto})))
	client := testutil.Client(t)

	_, body := testutil.Get(t, client, ts.URL+"/days/5", true)
	doc := testutil.ParseHTML(t, body)
	var ids []string
	doc.Find("#dayCards button.card").Each(func(_ int, s *goquery.Selection) {
		ids = append(ids, s.AttrOr("data-card-id", ""))
		require.Equal(t, "#modal", s.AttrOr("hx-target", ""))
	})
	require.Len(t, ids, 2)

	resp, body := testutil.Get(t, client, ts.URL+"/cards/"+ids[1], true)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	modal := testutil.ParseHTML(t, body)
	require.Equal(t, "Udon <lunch>", modal.Find("#modalTitle").Text())
	require.Equal(t, "kitsune udon", modal.Find(`[data-block="menu"] li`).Text())
	require.Equal(t, "https://udon.example", modal.Find(`[data-block="links"] a`).AttrOr("href", ""))
	require.Equal(t, 2, modal.Find("[data-close]").Length())

	// Loading another day replaces the committed panel and its cards.
	testutil.Get(t, client, ts.URL+"/days/1", true)
	resp, body = testutil.Get(t, client, ts.URL+"/cards/"+ids[1], true)
	require.Equal(t, http.StatusNotFound, resp.StatusCode)
	require.Contains(t, testutil.ParseHTML(t, body).Find("#modalBody").Text(), "此卡片已失效")

	// Sessions do not share cards.
	resp, _ = testutil.Get(t, testutil.Client(t), ts.URL+"/cards/"+ids[0], true)
	require.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestDataRouteServesDocumentsWithoutCaching(t *testing.T) {
	t.Parallel()

	ts := testutil.NewServer(t, testutil.WithDataDir(dataDir(t, map[string]string{"day5.json": kyoto})))
	resp, body := testutil.Get(t, ts.Client(), ts.URL+"/data/days/day5.json", false)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.Contains(t, resp.Header.Get("Cache-Control"), "no-store")
	require.True(t, strings.Contains(string(body), `"Kyoto"`))

	resp, _ = testutil.Get(t, ts.Client(), ts.URL+"/data/days/day9.json", false)
	require.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestAssets(t *testing.T) {
	t.Parallel()

	ts := testutil.NewServer(t)
	resp, body := testutil.Get(t, ts.Client(), ts.URL+"/assets/app.js", false)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.NotEmpty(t, resp.Header.Get("ETag"))
	require.Contains(t, string(body), "data-close")
}

// gateSource blocks day 1 until released so a later request overtakes it.
type gateSource struct {
	started chan struct{}
	release chan struct{}
}

func (g *gateSource) Name() string { return "gate" }

func (g *gateSource) Fetch(ctx context.Context, day int) (itinerary.DayDocument, error) {
	if day == 1 {
		close(g.started)
		select {
		case <-g.release:
		case <-ctx.Done():
			return itinerary.DayDocument{}, ctx.Err()
		}
	}
	return itinerary.DayDocument{Title: "day", Cards: []itinerary.Card{{Title: "c"}}}, nil
}

func TestStaleDayResponseSwapsNothing(t *testing.T) {
	t.Parallel()

	src := &gateSource{started: make(chan struct{}), release: make(chan struct{})}
	ts := testutil.NewServer(t, testutil.WithSource(src))
	client := testutil.Client(t)

	// Establish the session cookie first so both requests share a controller.
	testutil.Get(t, client, ts.URL+"/views/days", true)

	type result struct {
		resp *http.Response
	}
	slow := make(chan result, 1)
	go func() {
		req, _ := http.NewRequest(http.MethodGet, ts.URL+"/days/1", nil)
		req.Header.Set("HX-Request", "true")
		resp, err := client.Do(req)
		if err == nil {
			resp.Body.Close()
		}
		slow <- result{resp}
	}()
	<-src.started

	resp, _ := testutil.Get(t, client, ts.URL+"/days/2", true)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	close(src.release)
	got := <-slow
	require.NotNil(t, got.resp)
	require.Equal(t, http.StatusNoContent, got.resp.StatusCode)
	require.Equal(t, "none", got.resp.Header.Get("HX-Reswap"))
}
