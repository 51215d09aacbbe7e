package client

import "github.com/google/uuid"

// ItemStatus represents the conversion state of one queued media item.
// It only moves forward: idle -> processing -> done | error.
type ItemStatus string

const (
	ItemIdle       ItemStatus = "idle"
	ItemProcessing ItemStatus = "processing"
	ItemDone       ItemStatus = "done"
	ItemError      ItemStatus = "error"
)

// File is an in-memory media file queued for conversion.
type File struct {
	Name string
	Data []byte
}

// Size returns the input size in bytes.
func (f File) Size() int {
	return len(f.Data)
}

// Blob is transcoded output wrapped with its audio MIME type.
type Blob struct {
	Data []byte
	MIME string
}

// Size returns the output size in bytes.
func (b *Blob) Size() int {
	return len(b.Data)
}

// FileItem is one queued conversion job. File is immutable once created;
// OutputBlob and OutputSize are populated exactly once, on success.
type FileItem struct {
	File       File
	ID         string
	Status     ItemStatus
	OutputBlob *Blob
	OutputSize int
}

// NewFileItem queues a media file under a fresh unique id.
func NewFileItem(name string, data []byte) *FileItem {
	return &FileItem{
		File:   File{Name: name, Data: data},
		ID:     uuid.New().String(),
		Status: ItemIdle,
	}
}
