package entities

import "time"

type AuditEventType string

const (
	AuditEventCreate AuditEventType = "created"
	AuditEventUpdate AuditEventType = "updated"
	AuditEventDelete AuditEventType = "deleted"
	AuditEventImport AuditEventType = "imported"
	AuditEventRepair AuditEventType = "repaired"
)

type AuditStatus string

const (
	AuditStatusSuccess AuditStatus = "success"
	AuditStatusFailed  AuditStatus = "failed"
)

type AuditEvent struct {
	ID          uint           `gorm:"primaryKey" json:"id" bson:"-"`
	EventType   AuditEventType `gorm:"index;size:50" json:"eventType" bson:"eventType"`
	EntityType  string         `gorm:"index;size:50" json:"entityType" bson:"entityType"` // "book", "chapter", "progress", ...
	EntityID    string         `gorm:"index;size:128" json:"entityId,omitempty" bson:"entityId,omitempty"`
	BookID      string         `gorm:"index;size:128" json:"bookId,omitempty" bson:"bookId,omitempty"`
	Description string         `gorm:"size:500" json:"description" bson:"description"`
	Metadata    string         `gorm:"type:text" json:"metadata,omitempty" bson:"metadata,omitempty"` // JSON for extra data
	Status      AuditStatus    `gorm:"size:20" json:"status" bson:"status"`
	ErrorMsg    string         `gorm:"size:500" json:"errorMsg,omitempty" bson:"errorMsg,omitempty"`
	CreatedAt   time.Time      `gorm:"index" json:"createdAt" bson:"createdAt"`
}

// AuditFilter narrows an audit listing. Empty fields match everything.
type AuditFilter struct {
	EntityType string
	EntityID   string
	BookID     string
}

func (AuditEvent) TableName() string {
	return "audit_events"
}
