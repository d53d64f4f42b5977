package inventory

import (
	"context"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/denysvitali/aperture-graph/internal/models"
	"github.com/denysvitali/aperture-graph/internal/testutil"
	"github.com/denysvitali/aperture-graph/pkg/config"
	"github.com/denysvitali/aperture-graph/pkg/metadata"
)

func newTestScanner(t *testing.T, cfg config.ScanConfig) *Scanner {
	logger := logrus.New()
	logger.SetOutput(io.Discard) // Discard logs during tests
	return New(cfg, logger)
}

func fnum(v float64) *float64 { return &v }

func TestScan(t *testing.T) {
	root := t.TempDir()

	f28 := testutil.JPEGWithFNumber(28, 10)
	f8 := testutil.JPEGWithFNumber(8, 1)
	plain := testutil.PlainJPEG()

	testutil.WriteFile(t, root, "portrait/b.jpg", f8)
	testutil.WriteFile(t, root, "portrait/a.jpg", f28)
	testutil.WriteFile(t, root, "portrait/.DS_Store", []byte("junk"))
	testutil.WriteFile(t, root, "portrait/raw/ignored.jpg", f8)
	testutil.WriteFile(t, root, "landscape/plain.jpg", plain)
	testutil.WriteFile(t, root, "notes.txt", []byte("not a source directory"))
	testutil.WriteFile(t, root, ".cache/c.jpg", f8)
	require.NoError(t, os.Mkdir(filepath.Join(root, "empty"), 0o755))

	scanner := newTestScanner(t, config.ScanConfig{Root: root, Strict: true})
	records, err := scanner.Scan(context.Background())
	require.NoError(t, err)

	want := []models.ImageRecord{
		{Directory: "landscape", Filename: "plain.jpg", FNumber: nil, FileSize: int64(len(plain))},
		{Directory: "portrait", Filename: "a.jpg", FNumber: fnum(2.8), FileSize: int64(len(f28))},
		{Directory: "portrait", Filename: "b.jpg", FNumber: fnum(8), FileSize: int64(len(f8))},
	}
	if diff := cmp.Diff(want, records); diff != "" {
		t.Errorf("Scan() mismatch (-want +got):\n%s", diff)
	}
}

func TestScan_Symlinks(t *testing.T) {
	elsewhere := t.TempDir()
	f2 := testutil.JPEGWithFNumber(2, 1)
	testutil.WriteFile(t, elsewhere, "shots/a.jpg", f2)
	testutil.WriteFile(t, elsewhere, "archive/old.jpg", f2)

	root := t.TempDir()
	testutil.WriteFile(t, root, "street/b.jpg", f2)
	require.NoError(t, os.Symlink(filepath.Join(elsewhere, "shots"), filepath.Join(root, "shots")))
	require.NoError(t, os.Symlink(filepath.Join(elsewhere, "archive"), filepath.Join(root, "street", "archive")))
	require.NoError(t, os.Symlink(filepath.Join(elsewhere, "missing"), filepath.Join(root, "dangling")))

	scanner := newTestScanner(t, config.ScanConfig{Root: root, Strict: true})
	records, err := scanner.Scan(context.Background())
	require.NoError(t, err)

	want := []models.ImageRecord{
		{Directory: "shots", Filename: "a.jpg", FNumber: fnum(2), FileSize: int64(len(f2))},
		{Directory: "street", Filename: "b.jpg", FNumber: fnum(2), FileSize: int64(len(f2))},
	}
	if diff := cmp.Diff(want, records); diff != "" {
		t.Errorf("Scan() mismatch (-want +got):\n%s", diff)
	}
}

func TestScan_IncludeHidden(t *testing.T) {
	root := t.TempDir()
	testutil.WriteFile(t, root, ".cache/c.jpg", testutil.PlainJPEG())
	testutil.WriteFile(t, root, "set/.hidden.jpg", testutil.PlainJPEG())

	scanner := newTestScanner(t, config.ScanConfig{Root: root, IncludeHidden: true})
	records, err := scanner.Scan(context.Background())
	require.NoError(t, err)
	require.Len(t, records, 2)
	assert.Equal(t, ".cache", records[0].Directory)
	assert.Equal(t, ".hidden.jpg", records[1].Filename)
}

func TestScan_Extensions(t *testing.T) {
	root := t.TempDir()
	testutil.WriteFile(t, root, "set/a.JPG", testutil.PlainJPEG())
	testutil.WriteFile(t, root, "set/b.png", []byte("png"))
	testutil.WriteFile(t, root, "set/c.txt", []byte("txt"))

	scanner := newTestScanner(t, config.ScanConfig{Root: root, Extensions: []string{".jpg", ".png"}})
	records, err := scanner.Scan(context.Background())
	require.NoError(t, err)

	var names []string
	for _, r := range records {
		names = append(names, r.Filename)
	}
	assert.Equal(t, []string{"a.JPG", "b.png"}, names)
}

func TestScan_MalformedMetadata(t *testing.T) {
	root := t.TempDir()
	testutil.WriteFile(t, root, "set/bad.jpg", testutil.MalformedJPEG())
	testutil.WriteFile(t, root, "set/good.jpg", testutil.JPEGWithFNumber(4, 1))

	t.Run("strict halts", func(t *testing.T) {
		scanner := newTestScanner(t, config.ScanConfig{Root: root, Strict: true})
		records, err := scanner.Scan(context.Background())
		assert.ErrorIs(t, err, metadata.ErrMalformed)
		assert.Contains(t, err.Error(), "bad.jpg")
		assert.Nil(t, records)
	})

	t.Run("lenient records absent", func(t *testing.T) {
		scanner := newTestScanner(t, config.ScanConfig{Root: root, Strict: false})
		records, err := scanner.Scan(context.Background())
		require.NoError(t, err)
		require.Len(t, records, 2)
		assert.False(t, records[0].HasFNumber())
		assert.Equal(t, 4.0, records[1].FNumberOr(0))
	})
}

func TestScan_MissingRoot(t *testing.T) {
	scanner := newTestScanner(t, config.ScanConfig{Root: filepath.Join(t.TempDir(), "nope")})
	_, err := scanner.Scan(context.Background())
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestScan_Cancelled(t *testing.T) {
	root := t.TempDir()
	testutil.WriteFile(t, root, "set/a.jpg", testutil.PlainJPEG())

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	scanner := newTestScanner(t, config.ScanConfig{Root: root})
	_, err := scanner.Scan(ctx)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestVolumeUsage(t *testing.T) {
	stats, err := VolumeUsage(t.TempDir())
	require.NoError(t, err)
	assert.Greater(t, stats.Total, uint64(0))
	assert.GreaterOrEqual(t, stats.Percent, 0.0)
}
