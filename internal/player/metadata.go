package player

import (
	"path/filepath"
	"strings"

	"github.com/bogem/id3v2/v2"

	"github.com/olivier-w/spectra/internal/media"
)

// Metadata describes a track for the status line.
type Metadata struct {
	Title  string
	Artist string
	Album  string
	Format media.Format
}

// ReadMetadata reads ID3v2 tags where the format carries them and falls
// back to the file name for the title.
func ReadMetadata(path string) Metadata {
	format, _ := media.Detect(path)
	m := Metadata{Format: format}

	if format == media.MP3 || format == media.AIFF {
		if tag, err := id3v2.Open(path, id3v2.Options{Parse: true}); err == nil {
			m.Title = strings.TrimSpace(tag.Title())
			m.Artist = strings.TrimSpace(tag.Artist())
			m.Album = strings.TrimSpace(tag.Album())
			tag.Close()
		}
	}
	if m.Title == "" {
		base := filepath.Base(path)
		m.Title = strings.TrimSuffix(base, filepath.Ext(base))
	}
	return m
}

// String is "Artist - Title", or just the title.
func (m Metadata) String() string {
	if m.Artist == "" {
		return m.Title
	}
	return m.Artist + " - " + m.Title
}
