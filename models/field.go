package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Field — field card with geometry and farmer-provided metadata. Analysis
// results are NOT stored here; they live in the "reports" collection
// (see models/report.go).
type Field struct {
	ID        primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	OwnerID   primitive.ObjectID `bson:"ownerId"      json:"ownerId"`
	Name      string             `bson:"name"         json:"name"`
	Geometry  map[string]any     `bson:"geometry"     json:"geometry"` // GeoJSON Polygon/MultiPolygon
	CreatedAt time.Time          `bson:"createdAt"    json:"createdAt"`

	// Visual
	Photo string `bson:"photo,omitempty" json:"photo,omitempty"` // URL to field avatar/photo

	// Farmer-facing metadata
	Meta *FieldMeta `bson:"meta,omitempty" json:"meta,omitempty"`

	// Injected from the latest report (NOT stored in Mongo):
	Status ReportStatus `bson:"-" json:"status,omitempty"`
}

type FieldMeta struct {
	AreaHa *float64 `bson:"areaHa,omitempty" json:"areaHa,omitempty"` // area in hectares
	Notes  string   `bson:"notes,omitempty"  json:"notes,omitempty"`
	Crop   string   `bson:"crop,omitempty"   json:"crop,omitempty"` // crop type - rice | wheat | corn | etc.
}
