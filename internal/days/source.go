package days

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"finitefield.org/trip-planner/internal/itinerary"
)

const defaultTimeout = 10 * time.Second

// maxDocumentSize caps the body read for a single day document.
const maxDocumentSize = 4 << 20

// ErrNotFound indicates that no document exists for the requested day.
var ErrNotFound = errors.New("days: document not found")

// StatusError reports a non-2xx answer from an HTTP source.
type StatusError struct {
	Path string
	Code int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("GET %s: HTTP %d", e.Path, e.Code)
}

// Is lets errors.Is(err, ErrNotFound) match a 404 answer.
func (e *StatusError) Is(target error) bool {
	return target == ErrNotFound && e.Code == http.StatusNotFound
}

// Source fetches and decodes the document for one day.
type Source interface {
	Fetch(ctx context.Context, day int) (itinerary.DayDocument, error)
	Name() string
}

// HTTPSource fetches day documents from <base>/data/days/day<N>.json,
// bypassing every cache along the way.
type HTTPSource struct {
	baseURL string
	http    *http.Client
}

// NewHTTPSource constructs a source rooted at baseURL. A zero timeout uses the
// package default.
func NewHTTPSource(baseURL string, timeout time.Duration) *HTTPSource {
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	return &HTTPSource{
		baseURL: strings.TrimRight(strings.TrimSpace(baseURL), "/"),
		http:    &http.Client{Timeout: timeout},
	}
}

// Name identifies the source in logs and spans.
func (s *HTTPSource) Name() string { return "http" }

// Fetch performs the revalidating GET and decodes the body.
func (s *HTTPSource) Fetch(ctx context.Context, day int) (itinerary.DayDocument, error) {
	endpoint, err := url.JoinPath(s.baseURL, itinerary.DayPath(day))
	if err != nil {
		return itinerary.DayDocument{}, err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return itinerary.DayDocument{}, err
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("Cache-Control", "no-cache")
	req.Header.Set("Pragma", "no-cache")

	resp, err := s.http.Do(req)
	if err != nil {
		return itinerary.DayDocument{}, err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, maxDocumentSize))
		return itinerary.DayDocument{}, &StatusError{Path: itinerary.DayPath(day), Code: resp.StatusCode}
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxDocumentSize))
	if err != nil {
		return itinerary.DayDocument{}, fmt.Errorf("read %s: %w", itinerary.DayPath(day), err)
	}
	doc, err := itinerary.DecodeDay(body)
	if err != nil {
		return itinerary.DayDocument{}, fmt.Errorf("decode %s: %w", itinerary.DayPath(day), err)
	}
	return doc, nil
}

// DirSource reads day<N>.json from a directory on every call, so edits are
// visible without a restart.
type DirSource struct {
	dir string
}

// NewDirSource constructs a source reading from dir, which holds the
// day<N>.json files directly.
func NewDirSource(dir string) *DirSource {
	return &DirSource{dir: dir}
}

// Name identifies the source in logs and spans.
func (s *DirSource) Name() string { return "dir" }

// Dir returns the directory the source reads from.
func (s *DirSource) Dir() string { return s.dir }

// Fetch reads and decodes the document for day.
func (s *DirSource) Fetch(ctx context.Context, day int) (itinerary.DayDocument, error) {
	if err := ctx.Err(); err != nil {
		return itinerary.DayDocument{}, err
	}
	path := filepath.Join(s.dir, itinerary.DayFile(day))
	body, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return itinerary.DayDocument{}, fmt.Errorf("%w: %s", ErrNotFound, itinerary.DayFile(day))
		}
		return itinerary.DayDocument{}, err
	}
	doc, err := itinerary.DecodeDay(body)
	if err != nil {
		return itinerary.DayDocument{}, fmt.Errorf("decode %s: %w", itinerary.DayFile(day), err)
	}
	return doc, nil
}
