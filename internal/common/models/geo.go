package models

import "math"

// GeoPoint is a GeoJSON point. Coordinates are [longitude, latitude].
type GeoPoint struct {
	Type        string    `bson:"type" json:"type"`
	Coordinates []float64 `bson:"coordinates" json:"coordinates"`
}

func NewGeoPoint(lat, lng float64) *GeoPoint {
	return &GeoPoint{Type: "Point", Coordinates: []float64{lng, lat}}
}

func (p *GeoPoint) Valid() bool {
	if p == nil || len(p.Coordinates) != 2 {
		return false
	}
	lng, lat := p.Coordinates[0], p.Coordinates[1]
	return lng >= -180 && lng <= 180 && lat >= -90 && lat <= 90
}

func (p *GeoPoint) Lat() float64 { return p.Coordinates[1] }
func (p *GeoPoint) Lng() float64 { return p.Coordinates[0] }

// Marker is an anonymized position shown on the public map.
type Marker struct {
	Role Role    `json:"role"`
	Lat  float64 `json:"lat"`
	Lng  float64 `json:"lng"`
}

// markerPrecision rounds to two decimals, roughly one kilometre.
const markerPrecision = 100

func (p *GeoPoint) Marker(role Role) Marker {
	return Marker{
		Role: role,
		Lat:  math.Round(p.Lat()*markerPrecision) / markerPrecision,
		Lng:  math.Round(p.Lng()*markerPrecision) / markerPrecision,
	}
}
