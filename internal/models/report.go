package models

import (
	"time"
)

// ViolationType is a closed enumeration of reportable offenses.
type ViolationType string

const (
	// ViolationGameSabotage covers intentional feeding, griefing, AFK play
	ViolationGameSabotage ViolationType = "game_sabotage"
	// ViolationRuleViolation covers breaking the room's agreed rule list
	ViolationRuleViolation ViolationType = "rule_violation"
	// ViolationHarassment covers abusive chat or behavior
	ViolationHarassment ViolationType = "harassment"
	// ViolationDiscrimination covers hate speech and discrimination
	ViolationDiscrimination ViolationType = "discrimination"
)

// ValidViolationType reports whether v is one of the known violation tags.
func ValidViolationType(v ViolationType) bool {
	switch v {
	case ViolationGameSabotage, ViolationRuleViolation, ViolationHarassment, ViolationDiscrimination:
		return true
	}
	return false
}

// ReportStatus defines the review state of a report
type ReportStatus string

const (
	// ReportPending indicates the report awaits admin review
	ReportPending ReportStatus = "pending"
	// ReportApproved indicates the report was upheld and a ban issued
	ReportApproved ReportStatus = "approved"
	// ReportRejected indicates the report was dismissed
	ReportRejected ReportStatus = "rejected"
)

// MaxReportImages caps evidence attachments per report.
const MaxReportImages = 3

// Report is an accusation filed by one room participant against another.
type Report struct {
	ID          uint         `gorm:"primaryKey" json:"id"`
	ReporterID  uint         `gorm:"not null;index" json:"reporter_id"`
	AccusedID   uint         `gorm:"not null;index" json:"accused_id"`
	RoomID      uint         `gorm:"not null;index" json:"room_id"`
	Violations  StringList   `gorm:"type:jsonb;not null;default:'[]'" json:"violations"`
	Description string       `json:"description"`
	Images      StringList   `gorm:"type:jsonb;not null;default:'[]'" json:"images"`
	Status      ReportStatus `gorm:"default:'pending';index" json:"status"`
	ReviewedBy  *uint        `json:"reviewed_by,omitempty"`
	ReviewedAt  *time.Time   `json:"reviewed_at,omitempty"`
	CreatedAt   time.Time    `json:"created_at"`
	UpdatedAt   time.Time    `json:"updated_at"`

	Reporter Profile `gorm:"foreignKey:ReporterID" json:"reporter,omitempty"`
	Accused  Profile `gorm:"foreignKey:AccusedID" json:"accused,omitempty"`
	Room     Room    `gorm:"foreignKey:RoomID" json:"room,omitempty"`
}
