package httpserver

import (
	"bytes"
	"fmt"
	"html/template"
	"io/fs"
	"net/http"
	"strings"
)

type templateSet struct {
	fsys   fs.FS
	dev    bool
	cached *template.Template
}

func newTemplateSet(fsys fs.FS, dev bool) (*templateSet, error) {
	ts := &templateSet{fsys: fsys, dev: dev}
	t, err := ts.parse()
	if err != nil {
		return nil, err
	}
	ts.cached = t
	return ts, nil
}

// parse discovers and parses every .tmpl file in the tree.
func (ts *templateSet) parse() (*template.Template, error) {
	var files []string
	if err := fs.WalkDir(ts.fsys, ".", func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() && strings.HasSuffix(d.Name(), ".tmpl") {
			files = append(files, path)
		}
		return nil
	}); err != nil {
		return nil, fmt.Errorf("httpserver: walk templates: %w", err)
	}
	if len(files) == 0 {
		return nil, fmt.Errorf("httpserver: no templates found")
	}
	t, err := template.New("_root").ParseFS(ts.fsys, files...)
	if err != nil {
		return nil, fmt.Errorf("httpserver: parse templates: %w", err)
	}
	return t, nil
}

// render executes name into a buffer first so a failing template never sends
// a partial body. In dev mode templates are reparsed on each call.
func (ts *templateSet) render(w http.ResponseWriter, status int, name string, data any) error {
	t := ts.cached
	if ts.dev {
		parsed, err := ts.parse()
		if err != nil {
			return err
		}
		t = parsed
	}
	var buf bytes.Buffer
	if err := t.ExecuteTemplate(&buf, name, data); err != nil {
		return fmt.Errorf("httpserver: execute %s: %w", name, err)
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	_, err := buf.WriteTo(w)
	return err
}
