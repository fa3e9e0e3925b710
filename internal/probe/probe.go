// Package probe reads embedded metadata from uploaded audio files.
// Probing is best-effort: upload handling must not depend on it succeeding.
package probe

import (
	"context"
	"strings"

	"github.com/simonhull/audiometa"
)

// Result holds the subset of embedded metadata the server cares about.
type Result struct {
	Title    string
	Artist   string
	Duration float64 // Seconds
	Format   string
}

// File probes an audio file on disk. Missing tags come back as zero
// values; only unreadable or unsupported files return an error.
func File(ctx context.Context, path string) (*Result, error) {
	file, err := audiometa.OpenContext(ctx, path)
	if err != nil {
		return nil, err
	}
	defer file.Close() //nolint:errcheck // Read-only open, nothing to do on close failure

	return &Result{
		Title:    strings.TrimSpace(file.Tags.Title),
		Artist:   strings.TrimSpace(file.Tags.Artist),
		Duration: file.Audio.Duration.Seconds(),
		Format:   file.Format.String(),
	}, nil
}
