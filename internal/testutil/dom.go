package testutil

import (
	"bytes"
	"html/template"
	"testing"

	"github.com/PuerkitoBio/goquery"

	"finitefield.org/trip-planner/internal/i18n"
	"finitefield.org/trip-planner/locales"
)

// ParseHTML parses the provided HTML payload into a goquery document for assertions.
func ParseHTML(t testing.TB, body []byte) *goquery.Document {
	t.Helper()

	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(body))
	if err != nil {
		t.Fatalf("parse html: %v", err)
	}
	return doc
}

// ParseFragment parses a rendered fragment.
func ParseFragment(t testing.TB, fragment template.HTML) *goquery.Document {
	t.Helper()
	return ParseHTML(t, []byte(fragment))
}

// Bundle loads the embedded locale files with zh-TW as fallback.
func Bundle(t testing.TB) *i18n.Bundle {
	t.Helper()

	b, err := i18n.LoadFS(locales.FS(), "zh-TW", []string{"zh-TW", "en", "ja"})
	if err != nil {
		t.Fatalf("load locales: %v", err)
	}
	return b
}
