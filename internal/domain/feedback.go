package domain

// Thumbs is a fan's quick reaction to an artifact.
type Thumbs string

const (
	ThumbsUp   Thumbs = "up"
	ThumbsDown Thumbs = "down"
	ThumbsNone Thumbs = ""
)

// Valid reports whether the value is one of the three reaction states.
func (t Thumbs) Valid() bool {
	return t == ThumbsUp || t == ThumbsDown || t == ThumbsNone
}

// Feedback is a reaction left by a roster member on a circle's drop.
// Any of thumbs, star rating, and comment may be absent.
type Feedback struct {
	Syncable
	CircleID      string `json:"circle_id"`
	ArtifactID    string `json:"artifact_id,omitempty"`
	ArtifactTitle string `json:"artifact_title,omitempty"`
	Thumbs        Thumbs `json:"thumbs,omitempty"`
	StarRating    int    `json:"star_rating,omitempty"` // 1-5, zero when the fan left none
	Comment       string `json:"comment,omitempty"`
	FanEmail      string `json:"fan_email"`
	FanName       string `json:"fan_name,omitempty"`
}

// HasRating returns true if the fan attached a star rating.
func (f *Feedback) HasRating() bool {
	return f.StarRating > 0
}
