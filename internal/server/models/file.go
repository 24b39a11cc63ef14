package models

// FileRef points at a binary attachment kept in object storage.
type FileRef struct {
	// Key is the object-storage key of the blob.
	Key string `json:"key"`
	// Name is the original file name supplied by the uploader.
	Name        string `json:"name"`
	ContentType string `json:"content_type"`
	Size        int64  `json:"size"`
}
