package store

import (
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// SessionRecord is one persisted compile: a single row per
// top-level compile, keyed by source content hash so a CLI run can
// report "up to date" without re-lexing unchanged input.
type SessionRecord struct {
	gorm.Model
	FilePath       string `gorm:"type:varchar(1024);index"`
	SourceSHA1     string `gorm:"type:varchar(40);index"`
	Success        bool
	DiagnosticJSON datatypes.JSON
	SymbolSummary  datatypes.JSON
	DurationMillis int64
}

// TableName pins an explicit table name independent of struct renames.
func (SessionRecord) TableName() string { return "session_records" }
