package services

import (
	"bytes"
	"image/png"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestQRService_Generate(t *testing.T) {
	service := NewQRService()

	t.Run("Valid PNG", func(t *testing.T) {
		data, err := service.Generate("https://dub.sh/try?qr=1", 256, "", "")
		assert.NoError(t, err)

		img, err := png.Decode(bytes.NewReader(data))
		assert.NoError(t, err)
		assert.Equal(t, 256, img.Bounds().Dx())
	})

	t.Run("Custom Colors", func(t *testing.T) {
		data, err := service.Generate("https://dub.sh/try?qr=1", 128, "#112233", "#ffffff")
		assert.NoError(t, err)
		assert.NotEmpty(t, data)
	})

	t.Run("Empty Content Fails", func(t *testing.T) {
		_, err := service.Generate("", 128, "", "")
		assert.Error(t, err)
	})
}

func TestParseHexColor(t *testing.T) {
	c := parseHexColor("#ff0000", nil)
	r, g, b, a := c.RGBA()
	assert.Equal(t, uint32(0xffff), r)
	assert.Equal(t, uint32(0), g)
	assert.Equal(t, uint32(0), b)
	assert.Equal(t, uint32(0xffff), a)

	assert.Nil(t, parseHexColor("bogus", nil))
}
