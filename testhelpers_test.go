package teletext

import (
	"bytes"
	"context"
	"image"
	"image/color"
	"image/png"
	"sync"
	"testing"

	"github.com/wneessen/go-mail"
)

// pngImage encodes a w×h PNG. When mixed is false every pixel is black.
func pngImage(t *testing.T, w, h int, mixed bool) []byte {
	t.Helper()

	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			c := color.RGBA{A: 255}
			if mixed && (x+y)%3 == 0 {
				c = color.RGBA{R: 255, G: 255, A: 255}
			}
			img.Set(x, y, c)
		}
	}

	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatalf("encoding png: %v", err)
	}
	return buf.Bytes()
}

// mockConverter implements pdfConverter without a browser.
type mockConverter struct {
	mu      sync.Mutex
	Result  []byte
	Err     error
	HTML    []string
	Calls   int
	Closed  int
	Setting *PageSettings
}

func (m *mockConverter) ToPDF(_ context.Context, htmlContent string, settings *PageSettings) ([]byte, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Calls++
	m.HTML = append(m.HTML, htmlContent)
	m.Setting = settings
	return m.Result, m.Err
}

func (m *mockConverter) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Closed++
	return nil
}

// fakeSender records messages instead of dialling a server.
type fakeSender struct {
	mu       sync.Mutex
	Err      error
	Messages []*mail.Msg
}

func (f *fakeSender) DialAndSendWithContext(_ context.Context, messages ...*mail.Msg) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.Err != nil {
		return f.Err
	}
	f.Messages = append(f.Messages, messages...)
	return nil
}

func (f *fakeSender) factory() senderFactory {
	return func(SMTPSettings) (mailSender, error) { return f, nil }
}

// testSMTPSettings returns settings with credentials filled in.
func testSMTPSettings() SMTPSettings {
	s := DefaultSMTPSettings()
	s.Username = "sender@seznam.cz"
	s.Password = "secret"
	return s
}
