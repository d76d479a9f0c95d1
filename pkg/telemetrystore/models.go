// Package telemetrystore implements a telemetry.Sink that persists
// decoded sensor records to SQLite via GORM, giving the driver's
// external telemetry sink a concrete, inspectable reference.
package telemetrystore

import "time"

// TelemetryRecord is one decoded sensor record persisted to the
// database, tagged with the module slot it arrived on.
type TelemetryRecord struct {
	ID         uint      `gorm:"primarykey" json:"id"`
	Slot       int       `gorm:"index;not null" json:"slot"`
	SensorType byte      `gorm:"not null" json:"sensor_type"`
	SensorID   byte      `gorm:"index;not null" json:"sensor_id"`
	Data       []byte    `json:"data"`
	RecordedAt time.Time `gorm:"index" json:"recorded_at"`
}

// TableName specifies the table name for TelemetryRecord.
func (TelemetryRecord) TableName() string {
	return "telemetry_records"
}
