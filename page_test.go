package teletext

import (
	"errors"
	"testing"
)

// ---------------------------------------------------------------------------
// TestPage_Validate
// ---------------------------------------------------------------------------

func TestPage_Validate(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		page    Page
		wantErr error
	}{
		{"text", Page{Kind: KindText, Text: "BBC NEWS: headline 1"}, nil},
		{"image", Page{Kind: KindImage, Image: []byte{1}}, nil},
		{"blank text", Page{Kind: KindText, Text: "  \n "}, ErrEmptyContent},
		{"empty image", Page{Kind: KindImage}, ErrEmptyContent},
		{"invalid utf-8", Page{Kind: KindText, Text: "ok\xff"}, ErrInvalidEncoding},
		{"no kind", Page{Text: "orphan"}, ErrEmptyContent},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			err := tt.page.Validate()
			if tt.wantErr == nil && err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if tt.wantErr != nil && !errors.Is(err, tt.wantErr) {
				t.Errorf("Validate() error = %v, want %v", err, tt.wantErr)
			}
		})
	}
}

func TestPage_Label(t *testing.T) {
	t.Parallel()

	if got := (Page{Number: 101}).Label(); got != "Page 101" {
		t.Errorf("Label() = %q, want %q", got, "Page 101")
	}
	if got := (Page{}).Label(); got != "Teletext" {
		t.Errorf("Label() = %q, want %q", got, "Teletext")
	}
}

// ---------------------------------------------------------------------------
// TestIsUniformImage
// ---------------------------------------------------------------------------

func TestIsUniformImage(t *testing.T) {
	t.Parallel()

	uniform, err := isUniformImage(pngImage(t, 16, 9, false))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !uniform {
		t.Error("single colour image should be uniform")
	}

	uniform, err = isUniformImage(pngImage(t, 16, 9, true))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if uniform {
		t.Error("mixed image should not be uniform")
	}

	if _, err := isUniformImage([]byte("GIF89a broken")); err == nil {
		t.Error("expected decode error")
	}
}
