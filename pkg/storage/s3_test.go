package storage

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestPhotoExtension(t *testing.T) {
	tests := []struct {
		contentType string
		wantExt     string
		wantOK      bool
	}{
		{"image/png", ".png", true},
		{"IMAGE/JPEG", ".jpg", true},
		{"image/webp; charset=binary", ".webp", true},
		{"application/pdf", "", false},
		{"", "", false},
	}
	for _, tt := range tests {
		t.Run(tt.contentType, func(t *testing.T) {
			ext, ok := PhotoExtension(tt.contentType)
			assert.Equal(t, tt.wantOK, ok)
			assert.Equal(t, tt.wantExt, ext)
		})
	}
}

func TestPhotoKey(t *testing.T) {
	at := time.Unix(1700000000, 0)
	assert.Equal(t, "photos/u-1/1700000000.png", PhotoKey("u-1", at, ".png"))
}
