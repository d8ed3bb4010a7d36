package model

import "time"

// AuditMessage mirrors one row of audit_messages. The audit store writes it
// through database/sql; the model exists so sqlite databases can be migrated
// with AutoMigrate.
type AuditMessage struct {
	ID        int64     `gorm:"column:id;primaryKey;autoIncrement"`
	Facility  int       `gorm:"column:facility"`
	Severity  int       `gorm:"column:severity"`
	Timestamp time.Time `gorm:"column:timestamp"`
	Hostname  string    `gorm:"column:hostname"`
	Appname   string    `gorm:"column:appname"`
	Procid    string    `gorm:"column:procid"`
	Msgid     string    `gorm:"column:msgid"`
	Sdata     string    `gorm:"column:sdata"`
	Message   string    `gorm:"column:message"`
}

func (AuditMessage) TableName() string {
	return "audit_messages"
}

// All returns every model, in dependency order, for AutoMigrate.
func All() []interface{} {
	return []interface{}{&Tree{}, &Branch{}, &AuditMessage{}}
}
