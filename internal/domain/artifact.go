package domain

// Artifact represents one audio file attached to a circle.
// The file itself lives in the vault; this record carries its metadata.
type Artifact struct {
	Syncable
	CircleID    string  `json:"circle_id"`
	ArtistID    string  `json:"artist_id"`
	Title       string  `json:"title"`
	Filename    string  `json:"filename"`     // Original upload filename
	StoragePath string  `json:"storage_path"` // Path relative to the vault root
	MimeType    string  `json:"mime_type"`
	SizeBytes   int64   `json:"size_bytes"`
	Duration    float64 `json:"duration,omitempty"` // Seconds, when probing succeeded
	Position    int     `json:"position"`           // Order within the circle, zero-based
}

// DisplayTitle returns the probed title, falling back to the upload filename.
func (a *Artifact) DisplayTitle() string {
	if a.Title != "" {
		return a.Title
	}
	return a.Filename
}
