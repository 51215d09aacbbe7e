package domain

import "time"

// ConversionRecord is one completed download, metadata only. Media bytes are
// never persisted; the temp file is gone within one sweep interval.
type ConversionRecord struct {
	ID        string      `json:"id" gorm:"primaryKey"`
	VideoID   string      `json:"video_id" gorm:"index"`
	Title     string      `json:"title"`
	URL       string      `json:"url"`
	Format    AudioFormat `json:"format"`
	Bitrate   string      `json:"bitrate"`
	SizeBytes int64       `json:"size_bytes"`
	Elapsed   float64     `json:"elapsed_seconds"`
	CreatedAt time.Time   `json:"created_at" gorm:"autoCreateTime;index"`
}

// HistoryRepository stores conversion records.
type HistoryRepository interface {
	Record(record *ConversionRecord) error
	Recent(limit int) ([]*ConversionRecord, error)
	Count() (int64, error)
	Close() error
}
