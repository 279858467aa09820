// Package media describes the image or video attached to a vision request,
// either by URL or as inline base64 data.
package media

import (
	"encoding/base64"
	"errors"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"strings"
)

var (
	// ErrUnknownFormat is returned when a media format cannot be determined.
	ErrUnknownFormat = errors.New("unknown media format")
	// ErrUnsupportedMedia is returned by backends that cannot send a media type.
	ErrUnsupportedMedia = errors.New("unsupported media")
	// ErrInvalidMedia wraps every Validate failure.
	ErrInvalidMedia = errors.New("invalid media")
)

// Type is the broad kind of media.
type Type string

const (
	Image Type = "image"
	Video Type = "video"
)

// Format is the encoding of inline media.
type Format string

const (
	PNG  Format = "png"
	JPEG Format = "jpeg"
	WebP Format = "webp"
	MP4  Format = "mp4"
	WebM Format = "webm"
)

// ParseFormat converts a format name or file extension to a Format.
func ParseFormat(s string) (Format, error) {
	switch strings.ToLower(strings.TrimPrefix(strings.TrimSpace(s), ".")) {
	case "png":
		return PNG, nil
	case "jpeg", "jpg":
		return JPEG, nil
	case "webp":
		return WebP, nil
	case "mp4":
		return MP4, nil
	case "webm":
		return WebM, nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownFormat, s)
}

// Canonical returns the format as ParseFormat names it, so "JPG" and
// ".jpeg" both become JPEG. Unknown formats are returned unchanged.
func (f Format) Canonical() Format {
	if c, err := ParseFormat(string(f)); err == nil {
		return c
	}
	return f
}

// MediaType returns Image or Video for the format.
func (f Format) MediaType() Type {
	switch f.Canonical() {
	case MP4, WebM:
		return Video
	default:
		return Image
	}
}

// MIME returns the MIME type, e.g. "image/png" or "video/mp4".
func (f Format) MIME() string {
	return string(f.MediaType()) + "/" + string(f.Canonical())
}

// Media is either a URL (URL set, Type optional) or inline base64 data
// (Format and Data set).
type Media struct {
	URL    string `json:"url,omitempty" yaml:"url,omitempty"`
	Type   Type   `json:"type,omitempty" yaml:"type,omitempty"`
	Format Format `json:"format,omitempty" yaml:"format,omitempty"`
	Data   string `json:"data,omitempty" yaml:"data,omitempty"`
}

// ImageURL references an image by URL.
func ImageURL(url string) Media {
	return Media{URL: url, Type: Image}
}

// VideoURL references a video by URL.
func VideoURL(url string) Media {
	return Media{URL: url, Type: Video}
}

// Base64 wraps already-encoded data.
func Base64(format Format, data string) Media {
	return Media{Format: format.Canonical(), Data: data}
}

// FromBytes base64-encodes raw media bytes.
func FromBytes(format Format, raw []byte) Media {
	return Base64(format, base64.StdEncoding.EncodeToString(raw))
}

// FromFile reads a local file. The format comes from the file extension,
// falling back to content sniffing.
func FromFile(path string) (Media, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return Media{}, fmt.Errorf("failed to read media file: %w", err)
	}

	format, err := ParseFormat(filepath.Ext(path))
	if err != nil {
		format, err = sniff(raw)
		if err != nil {
			return Media{}, fmt.Errorf("%s: %w", path, err)
		}
	}
	return FromBytes(format, raw), nil
}

func sniff(raw []byte) (Format, error) {
	ct := http.DetectContentType(raw)
	switch ct {
	case "image/png":
		return PNG, nil
	case "image/jpeg":
		return JPEG, nil
	case "image/webp":
		return WebP, nil
	case "video/mp4":
		return MP4, nil
	case "video/webm":
		return WebM, nil
	}
	return "", fmt.Errorf("%w: detected %s", ErrUnknownFormat, ct)
}

// IsZero reports whether no media has been set.
func (m Media) IsZero() bool {
	return m.URL == "" && m.Data == ""
}

// Validate checks that exactly one of URL or Data is set and that inline
// data has a known format.
func (m Media) Validate() error {
	switch {
	case m.URL != "" && m.Data != "":
		return fmt.Errorf("%w: url and data are mutually exclusive", ErrInvalidMedia)
	case m.URL != "":
		if m.Type != "" && m.Type != Image && m.Type != Video {
			return fmt.Errorf("%w: unknown type %q", ErrInvalidMedia, m.Type)
		}
		return nil
	case m.Data != "":
		if _, err := ParseFormat(string(m.Format)); err != nil {
			return fmt.Errorf("%w: %w", ErrInvalidMedia, err)
		}
		return nil
	}
	return fmt.Errorf("%w: url or data is required", ErrInvalidMedia)
}

// MediaType returns the kind of media. URL media defaults to Image.
func (m Media) MediaType() Type {
	if m.Data != "" {
		return m.Format.MediaType()
	}
	if m.Type == "" {
		return Image
	}
	return m.Type
}

// RequestURL returns the URL to send to the model: the URL itself, or a
// data:<mime>;base64,<data> URL for inline media.
func (m Media) RequestURL() string {
	if m.Data != "" {
		return "data:" + m.Format.MIME() + ";base64," + m.Data
	}
	return m.URL
}
