package geocode

import (
	"strings"

	"github.com/rapid-dispatch/backend/internal/models"
)

// Resolver turns location text mentioned on a call into a dispatchable
// location.
type Resolver interface {
	Resolve(text string) models.Location
}

type gazetteerEntry struct {
	Name      string
	Address   string
	Landmarks string
	Lat       float64
	Lon       float64
}

// GazetteerResolver matches caller-mentioned place names against a small
// fixed table. Anything unmatched falls back to a low-confidence city
// default so the dispatcher map always has something to render.
type GazetteerResolver struct {
	City      string
	State     string
	CityLat   float64
	CityLon   float64
	Gazetteer []gazetteerEntry
}

const (
	resolvedConfidence    = 0.8
	unresolvedConfidence  = 0.3
	placeholderConfidence = 0.1
)

// NewGazetteerResolver returns a resolver for the default coverage area.
func NewGazetteerResolver() *GazetteerResolver {
	return &GazetteerResolver{
		City:    "San Francisco",
		State:   "CA",
		CityLat: 37.7749,
		CityLon: -122.4194,
		Gazetteer: []gazetteerEntry{
			{Name: "golden gate park", Address: "Golden Gate Park", Landmarks: "Golden Gate Park", Lat: 37.7694, Lon: -122.4862},
			{Name: "market street", Address: "Market Street", Lat: 37.7793, Lon: -122.4192},
			{Name: "mission district", Address: "Mission District", Lat: 37.7599, Lon: -122.4148},
			{Name: "union square", Address: "Union Square", Landmarks: "Union Square", Lat: 37.7880, Lon: -122.4075},
			{Name: "fisherman's wharf", Address: "Fisherman's Wharf", Landmarks: "Fisherman's Wharf", Lat: 37.8080, Lon: -122.4177},
			{Name: "chinatown", Address: "Chinatown", Lat: 37.7941, Lon: -122.4078},
			{Name: "city hall", Address: "1 Dr Carlton B Goodlett Pl", Landmarks: "City Hall", Lat: 37.7793, Lon: -122.4193},
			{Name: "embarcadero", Address: "The Embarcadero", Lat: 37.7993, Lon: -122.3977},
			{Name: "castro", Address: "Castro District", Lat: 37.7609, Lon: -122.4350},
			{Name: "ocean beach", Address: "Ocean Beach", Landmarks: "Ocean Beach", Lat: 37.7594, Lon: -122.5107},
		},
	}
}

// Resolve keyword-matches the text against the gazetteer; the longest
// matching place name wins.
func (g *GazetteerResolver) Resolve(text string) models.Location {
	trimmed := strings.TrimSpace(text)
	if trimmed == "" {
		return models.Location{
			Address:    "Location unknown",
			City:       g.City,
			State:      g.State,
			Lat:        g.CityLat,
			Lon:        g.CityLon,
			Confidence: placeholderConfidence,
		}
	}

	lowered := strings.ToLower(trimmed)
	best := -1
	for i, entry := range g.Gazetteer {
		if !strings.Contains(lowered, entry.Name) {
			continue
		}
		if best < 0 || len(entry.Name) > len(g.Gazetteer[best].Name) {
			best = i
		}
	}
	if best < 0 {
		return models.Location{
			Address:    trimmed,
			City:       g.City,
			State:      g.State,
			Lat:        g.CityLat,
			Lon:        g.CityLon,
			Confidence: unresolvedConfidence,
		}
	}

	entry := g.Gazetteer[best]
	return models.Location{
		Address:    entry.Address,
		Landmarks:  entry.Landmarks,
		City:       g.City,
		State:      g.State,
		Lat:        entry.Lat,
		Lon:        entry.Lon,
		Confidence: resolvedConfidence,
	}
}
