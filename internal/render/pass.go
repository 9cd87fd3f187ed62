package render

import (
	"sync"

	"github.com/oklog/ulid/v2"

	"finitefield.org/trip-planner/internal/itinerary"
)

// Pass owns the cards produced by one rendering pass so a later click can
// recover the original record by its element id.
type Pass struct {
	mu    sync.RWMutex
	cards map[string]itinerary.Card
	order []string
}

// NewPass starts an empty rendering pass.
func NewPass() *Pass {
	return &Pass{cards: map[string]itinerary.Card{}}
}

// Add registers a card and returns its element id.
func (p *Pass) Add(card itinerary.Card) string {
	id := ulid.Make().String()
	p.mu.Lock()
	defer p.mu.Unlock()
	p.cards[id] = card
	p.order = append(p.order, id)
	return id
}

// Lookup returns the card registered under id.
func (p *Pass) Lookup(id string) (itinerary.Card, bool) {
	if p == nil {
		return itinerary.Card{}, false
	}
	p.mu.RLock()
	defer p.mu.RUnlock()
	c, ok := p.cards[id]
	return c, ok
}

// IDs returns the registered ids in render order.
func (p *Pass) IDs() []string {
	if p == nil {
		return nil
	}
	p.mu.RLock()
	defer p.mu.RUnlock()
	return append([]string(nil), p.order...)
}

// Len returns the number of registered cards.
func (p *Pass) Len() int {
	if p == nil {
		return 0
	}
	p.mu.RLock()
	defer p.mu.RUnlock()
	return len(p.order)
}
