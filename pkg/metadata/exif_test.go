package metadata

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/denysvitali/aperture-graph/internal/testutil"
)

func TestFNumber(t *testing.T) {
	t.Run("jpeg with aperture", func(t *testing.T) {
		got, err := FNumber(testutil.JPEGWithFNumber(28, 10))
		require.NoError(t, err)
		require.NotNil(t, got)
		assert.InDelta(t, 2.8, *got, 1e-9)
	})

	t.Run("jpeg with xmp before exif", func(t *testing.T) {
		got, err := FNumber(testutil.JPEGWithXMP(testutil.TIFFWithFNumber(28, 10)))
		require.NoError(t, err)
		require.NotNil(t, got)
		assert.InDelta(t, 2.8, *got, 1e-9)
	})

	t.Run("tiff with aperture", func(t *testing.T) {
		got, err := FNumber(testutil.TIFFWithFNumber(16, 1))
		require.NoError(t, err)
		require.NotNil(t, got)
		assert.InDelta(t, 16.0, *got, 1e-9)
	})

	t.Run("exif without aperture tag", func(t *testing.T) {
		got, err := FNumber(testutil.JPEG(testutil.TIFFWithoutFNumber()))
		assert.NoError(t, err)
		assert.Nil(t, got)
	})

	t.Run("jpeg without exif segment", func(t *testing.T) {
		got, err := FNumber(testutil.PlainJPEG())
		assert.NoError(t, err)
		assert.Nil(t, got)
	})

	t.Run("not an image", func(t *testing.T) {
		got, err := FNumber([]byte("just some notes"))
		assert.NoError(t, err)
		assert.Nil(t, got)
	})

	t.Run("empty file", func(t *testing.T) {
		got, err := FNumber(nil)
		assert.NoError(t, err)
		assert.Nil(t, got)
	})

	t.Run("undecodable exif payload", func(t *testing.T) {
		got, err := FNumber(testutil.MalformedJPEG())
		assert.ErrorIs(t, err, ErrMalformed)
		assert.Nil(t, got)
	})

	t.Run("zero denominator", func(t *testing.T) {
		got, err := FNumber(testutil.JPEGWithFNumber(4, 0))
		assert.ErrorIs(t, err, ErrMalformed)
		assert.Nil(t, got)
	})
}

func TestFNumberFile(t *testing.T) {
	dir := t.TempDir()
	path := testutil.WriteFile(t, dir, "a.jpg", testutil.JPEGWithFNumber(56, 10))

	got, err := FNumberFile(path)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.InDelta(t, 5.6, *got, 1e-9)

	_, err = FNumberFile(filepath.Join(dir, "missing.jpg"))
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestHasExif(t *testing.T) {
	assert.True(t, HasExif(testutil.JPEGWithFNumber(2, 1)))
	assert.True(t, HasExif(testutil.TIFFWithoutFNumber()))
	assert.True(t, HasExif(testutil.JPEGWithXMP(testutil.TIFFWithFNumber(28, 10))))
	assert.False(t, HasExif(testutil.PlainJPEG()))
	assert.False(t, HasExif([]byte("Exif\x00\x00 but no jpeg marker")))
}
