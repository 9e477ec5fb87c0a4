package image

import (
	"bytes"
	"image"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestInjectJPEGTags(t *testing.T) {
	original := makeJPEG(t, 20, 20)

	tagged, err := WriteDescriptiveTags(original, FormatJPEG, TagUpdate{
		Title:       "Harbor",
		Description: "Boats at dawn",
	})
	require.NoError(t, err)
	require.Greater(t, len(tagged), len(original))
	require.True(t, bytes.Contains(tagged, []byte("Harbor")))
	require.True(t, bytes.Contains(tagged, []byte("Boats at dawn")))
	require.True(t, bytes.Contains(tagged, []byte("Exif\x00\x00")))

	// decoders skip APP1 and COM segments
	_, format, err := image.Decode(bytes.NewReader(tagged))
	require.NoError(t, err)
	require.Equal(t, "jpeg", format)
}

func TestInjectJPEGTagsShortTitle(t *testing.T) {
	// titles up to three bytes land inline in the IFD entry
	tagged, err := WriteDescriptiveTags(makeJPEG(t, 8, 8), FormatJPEG, TagUpdate{Title: "Hi"})
	require.NoError(t, err)

	_, _, err = image.Decode(bytes.NewReader(tagged))
	require.NoError(t, err)
}

func TestInjectPNGTags(t *testing.T) {
	original := makePNG(t, 20, 20)

	tagged, err := WriteDescriptiveTags(original, FormatPNG, TagUpdate{
		Title:       "Forest",
		Description: "Morning fog",
	})
	require.NoError(t, err)
	require.True(t, bytes.Contains(tagged, []byte("tEXt")))
	require.True(t, bytes.Contains(tagged, []byte("Title\x00Forest")))
	require.True(t, bytes.Contains(tagged, []byte("Description\x00Morning fog")))

	_, format, err := image.Decode(bytes.NewReader(tagged))
	require.NoError(t, err)
	require.Equal(t, "png", format)
}

func TestInjectTitleOnly(t *testing.T) {
	tagged, err := WriteDescriptiveTags(makePNG(t, 8, 8), FormatPNG, TagUpdate{Title: "Solo"})
	require.NoError(t, err)
	require.True(t, bytes.Contains(tagged, []byte("Title\x00Solo")))
	require.False(t, bytes.Contains(tagged, []byte("Description\x00")))
}

func TestWriteDescriptiveTagsRejectsBadStreams(t *testing.T) {
	_, err := WriteDescriptiveTags([]byte("junk"), FormatJPEG, TagUpdate{Title: "x"})
	require.Error(t, err)

	_, err = WriteDescriptiveTags([]byte("junk"), FormatPNG, TagUpdate{Title: "x"})
	require.Error(t, err)

	_, err = WriteDescriptiveTags(makePNG(t, 8, 8), "webp", TagUpdate{Title: "x"})
	require.Error(t, err)
}
