package models

import "time"

// CulturalProperty represents a single catalogued cultural property (a museum,
// monument or site), with its Japanese name variants, classification, address
// and precise geographic coordinates.
type CulturalProperty struct {
	ID        int64    `json:"id"`
	Name      string   `json:"name"`
	NameKana  string   `json:"name_kana"`
	NameEn    string   `json:"name_en"`
	Category  string   `json:"category"`
	Type      string   `json:"type"`
	PlaceName string   `json:"place_name"`
	Address   string   `json:"address"`
	Latitude  float64  `json:"latitude"`
	Longitude float64  `json:"longitude"`
	URL       string   `json:"url"`
	Note      string   `json:"note"`
	Tags      []Tag    `json:"tags,omitempty"`
	Movies    []Movie  `json:"movies,omitempty"`
	CreatedBy *int64   `json:"created_by,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Movie is a linked video asset (3D capture) attached to a cultural property.
type Movie struct {
	ID                 int64  `json:"id"`
	URL                string `json:"url"`
	Title              string `json:"title"`
	Note               string `json:"note"`
	Thumbnail          string `json:"thumbnail"`
	CulturalPropertyID *int64 `json:"cultural_property,omitempty"`
	CreatedBy          *int64 `json:"created_by,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Tag labels cultural properties for discovery. Names are unique.
type Tag struct {
	ID          int64  `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
}

// PropertyFilter carries the optional query parameters accepted by the
// cultural property list endpoint. Zero values mean "not filtered".
type PropertyFilter struct {
	Name              string
	NameEn            string
	HasMovies         bool
	TagID             int64
	TagName           string
	CreatedBy         int64
	CreatedByUsername string

	// Radius search: all three must be set to take effect.
	Lat      float64
	Lon      float64
	Distance float64 // meters
}

// MovieFilter carries the optional query parameters for the movie list endpoint.
type MovieFilter struct {
	Title              string
	CulturalPropertyID int64
	CreatedBy          int64
}
