// Package datastore persists alert records in a local SQLite database
// through GORM.
package datastore

// TimestampLayout is the format of Alert.Timestamp, in local time.
const TimestampLayout = "2006-01-02 15:04:05"

// Alert is one detection event. ImagePath is unique; storing the same path
// again replaces the row.
type Alert struct {
	ID           uint     `gorm:"column:id;primaryKey;autoIncrement"`
	Label        string   `gorm:"column:label;type:TEXT"`
	Timestamp    string   `gorm:"column:timestamp;type:TEXT"`
	ImagePath    string   `gorm:"column:image_path;type:TEXT;unique"`
	CloudURL     *string  `gorm:"column:cloud_url;type:TEXT"`
	Synced       bool     `gorm:"column:synced;type:INTEGER;default:0"`
	TelegramSent bool     `gorm:"column:telegram_sent;type:INTEGER;default:0"`
	Latitude     *float64 `gorm:"column:latitude;type:REAL"`
	Longitude    *float64 `gorm:"column:longitude;type:REAL"`
	Location     string   `gorm:"column:location;type:TEXT"`
}

// TableName keeps the table name stable regardless of GORM's pluralizer.
func (Alert) TableName() string {
	return "alerts"
}

// AlertSummary is the read-back view returned by GetLatestAlerts.
type AlertSummary struct {
	Label     string   `gorm:"column:label" json:"label"`
	Timestamp string   `gorm:"column:timestamp" json:"timestamp"`
	CloudURL  *string  `gorm:"column:cloud_url" json:"cloud_url"`
	Latitude  *float64 `gorm:"column:latitude" json:"latitude"`
	Longitude *float64 `gorm:"column:longitude" json:"longitude"`
	Location  string   `gorm:"column:location" json:"location"`
}

// StatusUpdate selects which flags to change. Nil fields are left alone.
type StatusUpdate struct {
	TelegramSent *bool `json:"telegram_sent,omitempty"`
	Synced       *bool `json:"synced,omitempty"`
}

// IsEmpty reports whether the update changes nothing.
func (u StatusUpdate) IsEmpty() bool {
	return u.TelegramSent == nil && u.Synced == nil
}

// upgradeColumns are the fields added after the first schema version, in
// the order they are added to an existing table.
var upgradeColumns = []string{"Synced", "TelegramSent", "Latitude", "Longitude", "Location"}
