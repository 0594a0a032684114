package domain

import "time"

// EventsSubject is the subject every catalog event is published on
const EventsSubject = "catalog.events"

// Product event types
const (
	EventProductCreated = "product.created"
	EventProductUpdated = "product.updated"
	EventProductDeleted = "product.deleted"
	EventProductViewed  = "product.viewed"
	EventProductSold    = "product.sold"
)

// ProductEvent is published whenever a product or one of its counters changes
type ProductEvent struct {
	EventType string    `json:"event_type"`
	Timestamp time.Time `json:"timestamp"`
	ProductID string    `json:"product_id"`
}

// CacheScope groups cached catalog reads that go stale together
type CacheScope string

const (
	ScopeFacets      CacheScope = "facets"
	ScopeTrending    CacheScope = "trending"
	ScopeBestSellers CacheScope = "bestsellers"
	ScopeNewArrivals CacheScope = "newArrivals"
)

// AllScopes lists every cache scope
var AllScopes = []CacheScope{ScopeFacets, ScopeTrending, ScopeBestSellers, ScopeNewArrivals}

// ScopesFor returns the cache scopes made stale by an event type
func ScopesFor(eventType string) []CacheScope {
	switch eventType {
	case EventProductViewed:
		return []CacheScope{ScopeTrending}
	case EventProductSold:
		return []CacheScope{ScopeBestSellers}
	case EventProductCreated, EventProductUpdated, EventProductDeleted:
		return AllScopes
	default:
		return nil
	}
}
