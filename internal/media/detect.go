// Package media identifies audio formats by file extension.
package media

import (
	"errors"
	"fmt"
	"path/filepath"
	"slices"
	"strings"
)

// Format is a decodable container.
type Format uint8

const (
	Unknown Format = iota
	MP3
	WAV
	FLAC
	OGG
	AIFF
)

var ErrUnsupportedFormat = errors.New("unsupported audio format")

var extFormats = map[string]Format{
	".mp3":  MP3,
	".wav":  WAV,
	".flac": FLAC,
	".ogg":  OGG,
	".oga":  OGG,
	".aiff": AIFF,
	".aif":  AIFF,
}

func (f Format) String() string {
	switch f {
	case MP3:
		return "mp3"
	case WAV:
		return "wav"
	case FLAC:
		return "flac"
	case OGG:
		return "ogg"
	case AIFF:
		return "aiff"
	default:
		return "unknown"
	}
}

// Detect returns the format for path's extension.
func Detect(path string) (Format, error) {
	ext := strings.ToLower(filepath.Ext(path))
	if f, ok := extFormats[ext]; ok {
		return f, nil
	}
	if ext == "" {
		ext = "(none)"
	}
	return Unknown, fmt.Errorf("%w: %s (supported: %s)", ErrUnsupportedFormat, ext, SupportedExtsList())
}

// SupportedExtsList returns a human-readable list of playable extensions.
func SupportedExtsList() string {
	exts := make([]string, 0, len(extFormats))
	for ext := range extFormats {
		exts = append(exts, ext)
	}
	slices.Sort(exts)
	return strings.Join(exts, ", ")
}
