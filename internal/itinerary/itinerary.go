package itinerary

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// ErrInvalidDay is returned when a day number is not a positive integer.
var ErrInvalidDay = errors.New("itinerary: invalid day")

// DaysDir is the resource directory day documents are addressed under.
const DaysDir = "data/days"

// DayDocument is the per-day payload containing a header and its cards.
type DayDocument struct {
	Title  string
	Date   string
	Status string
	Cards  []Card
}

// Card is one itinerary item shown in a day's list.
type Card struct {
	Title       string
	Time        string
	Category    string
	Status      string
	Subtitle    string
	Description string
	Details     *Detail
	Links       []LinkRef
}

// Detail is the structured content behind a card.
type Detail struct {
	Menu    []string
	Buy     []string
	Reviews []string
	Tips    []string
	// Links is nil when the document has no details.links; an explicit empty
	// array is kept as a non-nil empty slice.
	Links []LinkRef
	Text  string

	keys int
}

// LinkRef is a titled reference link.
type LinkRef struct {
	Title string
	URL   string
}

// Empty reports whether the details object carried no fields at all.
func (d *Detail) Empty() bool {
	return d == nil || d.keys == 0
}

// HasDetail reports whether a card has anything worth opening a detail view for.
func HasDetail(c Card) bool {
	if !c.Details.Empty() {
		return true
	}
	if strings.TrimSpace(c.Description) != "" {
		return true
	}
	return len(c.Links) > 0
}

// ReferenceLinks returns details.links, falling back to the card's top-level
// links when the former is absent.
func (c Card) ReferenceLinks() []LinkRef {
	if c.Details != nil && c.Details.Links != nil {
		return c.Details.Links
	}
	return c.Links
}

// DayFile returns the file name of a day document, e.g. "day5.json".
func DayFile(day int) string {
	return "day" + strconv.Itoa(day) + ".json"
}

// DayPath returns the resource path of a day document, e.g. "data/days/day5.json".
func DayPath(day int) string {
	return DaysDir + "/" + DayFile(day)
}

// ParseDay parses a day number from user input.
func ParseDay(raw string) (int, error) {
	n, err := strconv.Atoi(strings.TrimSpace(raw))
	if err != nil || n < 1 {
		return 0, fmt.Errorf("%w: %q", ErrInvalidDay, raw)
	}
	return n, nil
}

// DecodeDay parses a day document. Only a payload that is not a JSON object
// is an error; every field inside it degrades to absent when malformed.
func DecodeDay(data []byte) (DayDocument, error) {
	var doc DayDocument
	if err := json.Unmarshal(data, &doc); err != nil {
		return DayDocument{}, err
	}
	return doc, nil
}

// UnmarshalJSON decodes a day document leniently. `cards` wins over the legacy `items`.
func (d *DayDocument) UnmarshalJSON(data []byte) error {
	fields, err := objectFields(data)
	if err != nil {
		return err
	}
	if fields == nil {
		return errors.New("itinerary: day document must be a JSON object")
	}
	*d = DayDocument{
		Title:  stringField(fields["title"]),
		Date:   stringField(fields["date"]),
		Status: stringField(fields["status"]),
	}
	cards := decodeCards(fields["cards"])
	if cards == nil {
		cards = decodeCards(fields["items"])
	}
	d.Cards = cards
	return nil
}

// UnmarshalJSON decodes a card leniently. `category` wins over the legacy `type`.
func (c *Card) UnmarshalJSON(data []byte) error {
	fields, _ := objectFields(data)
	*c = Card{
		Title:       stringField(fields["title"]),
		Time:        stringField(fields["time"]),
		Category:    firstNonEmpty(stringField(fields["category"]), stringField(fields["type"])),
		Status:      stringField(fields["status"]),
		Subtitle:    stringField(fields["subtitle"]),
		Description: stringField(fields["description"]),
		Links:       decodeLinks(fields["links"]),
	}
	if raw := fields["details"]; isObject(raw) {
		var det Detail
		if err := json.Unmarshal(raw, &det); err == nil {
			c.Details = &det
		}
	}
	return nil
}

// UnmarshalJSON decodes a details object leniently.
func (d *Detail) UnmarshalJSON(data []byte) error {
	fields, _ := objectFields(data)
	*d = Detail{
		Menu:    stringList(fields["menu"]),
		Buy:     stringList(fields["buy"]),
		Reviews: stringList(fields["reviews"]),
		Tips:    stringList(fields["tips"]),
		Links:   decodeLinks(fields["links"]),
		Text:    stringField(fields["text"]),
		keys:    len(fields),
	}
	return nil
}

// UnmarshalJSON decodes a link leniently. `title` wins over the legacy `label`.
func (l *LinkRef) UnmarshalJSON(data []byte) error {
	fields, _ := objectFields(data)
	*l = LinkRef{
		Title: firstNonEmpty(stringField(fields["title"]), stringField(fields["label"])),
		URL:   stringField(fields["url"]),
	}
	return nil
}

// objectFields returns the members of a JSON object, or nil for any other JSON value.
func objectFields(data []byte) (map[string]json.RawMessage, error) {
	if !isObject(data) {
		if !json.Valid(data) {
			return nil, errors.New("itinerary: malformed JSON")
		}
		return nil, nil
	}
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(data, &fields); err != nil {
		return nil, err
	}
	return fields, nil
}

func isObject(data []byte) bool {
	trimmed := bytes.TrimSpace(data)
	return len(trimmed) > 0 && trimmed[0] == '{'
}

func isArray(data []byte) bool {
	trimmed := bytes.TrimSpace(data)
	return len(trimmed) > 0 && trimmed[0] == '['
}

// stringField accepts JSON strings, numbers and booleans; anything else is absent.
func stringField(raw json.RawMessage) string {
	if len(raw) == 0 {
		return ""
	}
	var v any
	if err := json.Unmarshal(raw, &v); err != nil {
		return ""
	}
	switch t := v.(type) {
	case string:
		return t
	case float64:
		if t == 0 {
			return ""
		}
		return strconv.FormatFloat(t, 'f', -1, 64)
	case bool:
		if t {
			return "true"
		}
		return ""
	default:
		return ""
	}
}

func stringList(raw json.RawMessage) []string {
	if !isArray(raw) {
		return nil
	}
	var items []json.RawMessage
	if err := json.Unmarshal(raw, &items); err != nil {
		return nil
	}
	out := make([]string, 0, len(items))
	for _, item := range items {
		if s := stringField(item); s != "" {
			out = append(out, s)
		}
	}
	return out
}

func decodeLinks(raw json.RawMessage) []LinkRef {
	if !isArray(raw) {
		return nil
	}
	var items []json.RawMessage
	if err := json.Unmarshal(raw, &items); err != nil {
		return nil
	}
	out := make([]LinkRef, 0, len(items))
	for _, item := range items {
		if !isObject(item) {
			continue
		}
		var l LinkRef
		if err := json.Unmarshal(item, &l); err == nil {
			out = append(out, l)
		}
	}
	return out
}

func decodeCards(raw json.RawMessage) []Card {
	if !isArray(raw) {
		return nil
	}
	var items []json.RawMessage
	if err := json.Unmarshal(raw, &items); err != nil {
		return nil
	}
	out := make([]Card, 0, len(items))
	for _, item := range items {
		if !isObject(item) {
			continue
		}
		var c Card
		if err := json.Unmarshal(item, &c); err == nil {
			out = append(out, c)
		}
	}
	return out
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
