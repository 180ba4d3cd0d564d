package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"cropsight/pipeline"
)

// ReportStatus mirrors analysis run states.
type ReportStatus string

const (
	ReportStatusProcessing ReportStatus = "processing"
	ReportStatusReady      ReportStatus = "ready"
	ReportStatusError      ReportStatus = "error"
)

// AnalysisReport is one persisted field-health run in the "reports"
// collection: the ordered scores, the trend report, and the generated
// recommendations, exactly as returned to the caller.
type AnalysisReport struct {
	ID          primitive.ObjectID      `bson:"_id,omitempty"          json:"id"`
	OperationID string                  `bson:"operation_id"           json:"operation_id"`
	FieldID     primitive.ObjectID      `bson:"fieldId"                json:"fieldId"`
	OwnerID     primitive.ObjectID      `bson:"ownerId"                json:"ownerId"`
	Status      ReportStatus            `bson:"status"                 json:"status"` // processing | ready | error
	CreatedAt   time.Time               `bson:"created_at"             json:"created_at"`
	UpdatedAt   time.Time               `bson:"updated_at"             json:"updated_at"`
	Result      *pipeline.FieldAnalysis `bson:"result,omitempty"       json:"result,omitempty"`
	ErrorMsg    string                  `bson:"errorMessage,omitempty" json:"errorMessage,omitempty"`
}
