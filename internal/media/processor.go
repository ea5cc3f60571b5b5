package media

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/disintegration/imaging"
	"github.com/rs/zerolog"
)

const (
	DefaultMaxBound = 300
	DefaultQuality  = 85
)

// Processor produces an optimized thumbnail next to an uploaded poster. It
// knows nothing about the event that triggered the upload.
type Processor struct {
	maxBound int
	quality  int
	log      *zerolog.Logger
}

func NewProcessor(maxBound, quality int, log *zerolog.Logger) *Processor {
	if maxBound <= 0 {
		maxBound = DefaultMaxBound
	}
	if quality <= 0 || quality > 100 {
		quality = DefaultQuality
	}
	return &Processor{
		maxBound: maxBound,
		quality:  quality,
		log:      log,
	}
}

// ThumbPath derives the sibling artifact path for a source image.
func ThumbPath(sourcePath string) string {
	base := strings.TrimSuffix(sourcePath, filepath.Ext(sourcePath))
	return base + "_thumb.jpg"
}

// Process resizes the image at sourcePath so neither dimension exceeds the
// configured bound, preserving aspect ratio and never upscaling, and writes
// the result as a JPEG sibling. Reprocessing the same source path yields the
// same artifact, so jobs are idempotent.
func (p *Processor) Process(sourcePath string) (string, error) {
	src, err := imaging.Open(sourcePath)
	if err != nil {
		return "", fmt.Errorf("open image %s: %w", sourcePath, err)
	}

	thumb := imaging.Fit(src, p.maxBound, p.maxBound, imaging.Lanczos)

	thumbPath := ThumbPath(sourcePath)
	if err := imaging.Save(thumb, thumbPath, imaging.JPEGQuality(p.quality)); err != nil {
		return "", fmt.Errorf("save thumbnail %s: %w", thumbPath, err)
	}

	p.log.Info().
		Str("source", sourcePath).
		Str("thumbnail", thumbPath).
		Msg("thumbnail written")
	return thumbPath, nil
}
