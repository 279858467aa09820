package media

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
)

func TestFormat(t *testing.T) {
	tests := []struct {
		format Format
		typ    Type
		mime   string
	}{
		{PNG, Image, "image/png"},
		{JPEG, Image, "image/jpeg"},
		{WebP, Image, "image/webp"},
		{MP4, Video, "video/mp4"},
		{WebM, Video, "video/webm"},
	}
	for _, tt := range tests {
		if got := tt.format.MediaType(); got != tt.typ {
			t.Errorf("%s.MediaType() = %s, want %s", tt.format, got, tt.typ)
		}
		if got := tt.format.MIME(); got != tt.mime {
			t.Errorf("%s.MIME() = %s, want %s", tt.format, got, tt.mime)
		}
	}
}

func TestParseFormat(t *testing.T) {
	for in, want := range map[string]Format{
		"png": PNG, ".PNG": PNG, "jpg": JPEG, "jpeg": JPEG, "webp": WebP, "mp4": MP4, ".webm": WebM,
	} {
		got, err := ParseFormat(in)
		if err != nil || got != want {
			t.Errorf("ParseFormat(%q) = (%q, %v), want %q", in, got, err, want)
		}
	}
	if _, err := ParseFormat("gif"); !errors.Is(err, ErrUnknownFormat) {
		t.Errorf("ParseFormat(gif) error = %v, want ErrUnknownFormat", err)
	}
}

func TestMedia_RequestURL(t *testing.T) {
	t.Run("image url", func(t *testing.T) {
		m := ImageURL("https://example.com/img.png")
		if m.MediaType() != Image {
			t.Errorf("MediaType() = %s", m.MediaType())
		}
		if m.RequestURL() != "https://example.com/img.png" {
			t.Errorf("RequestURL() = %s", m.RequestURL())
		}
	})

	t.Run("video url", func(t *testing.T) {
		m := VideoURL("https://example.com/vid.mp4")
		if m.MediaType() != Video {
			t.Errorf("MediaType() = %s", m.MediaType())
		}
	})

	t.Run("url without type defaults to image", func(t *testing.T) {
		if got := (Media{URL: "https://x"}).MediaType(); got != Image {
			t.Errorf("MediaType() = %s", got)
		}
	})

	t.Run("base64 image", func(t *testing.T) {
		m := Base64(PNG, "abc123")
		if m.MediaType() != Image {
			t.Errorf("MediaType() = %s", m.MediaType())
		}
		if m.RequestURL() != "data:image/png;base64,abc123" {
			t.Errorf("RequestURL() = %s", m.RequestURL())
		}
	})

	t.Run("base64 video", func(t *testing.T) {
		m := Base64(MP4, "xyz789")
		if m.MediaType() != Video {
			t.Errorf("MediaType() = %s", m.MediaType())
		}
		if m.RequestURL() != "data:video/mp4;base64,xyz789" {
			t.Errorf("RequestURL() = %s", m.RequestURL())
		}
	})

	t.Run("inline format aliases", func(t *testing.T) {
		tests := []struct {
			format Format
			typ    Type
			url    string
		}{
			{"MP4", Video, "data:video/mp4;base64,AAAA"},
			{".webm", Video, "data:video/webm;base64,AAAA"},
			{"jpg", Image, "data:image/jpeg;base64,AAAA"},
			{"PNG", Image, "data:image/png;base64,AAAA"},
		}
		for _, tt := range tests {
			for _, m := range []Media{Base64(tt.format, "AAAA"), {Format: tt.format, Data: "AAAA"}} {
				if err := m.Validate(); err != nil {
					t.Errorf("%q: Validate() error = %v", tt.format, err)
				}
				if m.MediaType() != tt.typ {
					t.Errorf("%q: MediaType() = %s, want %s", tt.format, m.MediaType(), tt.typ)
				}
				if m.RequestURL() != tt.url {
					t.Errorf("%q: RequestURL() = %s, want %s", tt.format, m.RequestURL(), tt.url)
				}
			}
		}
	})

	t.Run("from bytes", func(t *testing.T) {
		m := FromBytes(JPEG, []byte("hi"))
		if m.RequestURL() != "data:image/jpeg;base64,aGk=" {
			t.Errorf("RequestURL() = %s", m.RequestURL())
		}
	})
}

func TestMedia_Validate(t *testing.T) {
	tests := []struct {
		name    string
		m       Media
		wantErr bool
	}{
		{"url", ImageURL("https://x"), false},
		{"data", Base64(PNG, "abc"), false},
		{"empty", Media{}, true},
		{"both", Media{URL: "https://x", Format: PNG, Data: "abc"}, true},
		{"data without format", Media{Data: "abc"}, true},
		{"bad type", Media{URL: "https://x", Type: "audio"}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.m.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
			if err != nil && !errors.Is(err, ErrInvalidMedia) {
				t.Errorf("Validate() error %v does not wrap ErrInvalidMedia", err)
			}
		})
	}
}

func TestFromFile(t *testing.T) {
	dir := t.TempDir()

	t.Run("extension", func(t *testing.T) {
		path := filepath.Join(dir, "frame.webp")
		if err := os.WriteFile(path, []byte("data"), 0o644); err != nil {
			t.Fatal(err)
		}
		m, err := FromFile(path)
		if err != nil {
			t.Fatalf("FromFile() error = %v", err)
		}
		if m.Format != WebP {
			t.Errorf("Format = %s, want webp", m.Format)
		}
	})

	t.Run("sniffed png", func(t *testing.T) {
		path := filepath.Join(dir, "upload.bin")
		png := []byte("\x89PNG\r\n\x1a\n\x00\x00\x00\rIHDR")
		if err := os.WriteFile(path, png, 0o644); err != nil {
			t.Fatal(err)
		}
		m, err := FromFile(path)
		if err != nil {
			t.Fatalf("FromFile() error = %v", err)
		}
		if m.Format != PNG {
			t.Errorf("Format = %s, want png", m.Format)
		}
	})

	t.Run("unknown content", func(t *testing.T) {
		path := filepath.Join(dir, "notes.txt")
		if err := os.WriteFile(path, []byte("plain text"), 0o644); err != nil {
			t.Fatal(err)
		}
		if _, err := FromFile(path); !errors.Is(err, ErrUnknownFormat) {
			t.Errorf("FromFile() error = %v, want ErrUnknownFormat", err)
		}
	})

	t.Run("missing file", func(t *testing.T) {
		if _, err := FromFile(filepath.Join(dir, "missing.png")); err == nil {
			t.Error("expected error")
		}
	})
}
