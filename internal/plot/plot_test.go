package plot

import (
	"bytes"
	"image/color"
	"image/png"
	"io"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/TrevorS/dbscan"
	"github.com/TrevorS/dbscan/internal/csvio"
)

func TestKDistanceImageSize(t *testing.T) {
	var buf bytes.Buffer
	err := KDistance(&buf, []float64{0.1, 0.5, 0.2, 2, 0.3}, Options{Width: 320, Height: 200, Title: "k"})
	require.NoError(t, err)

	img, err := png.Decode(&buf)
	require.NoError(t, err)
	assert.Equal(t, 320, img.Bounds().Dx())
	assert.Equal(t, 200, img.Bounds().Dy())
}

func TestKDistanceFlatValues(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, KDistance(&buf, []float64{1, 1, 1}, Options{Width: 100, Height: 100}))
	assert.NotZero(t, buf.Len())
}

func TestKDistanceRejectsEmpty(t *testing.T) {
	var buf bytes.Buffer
	err := KDistance(&buf, nil, Options{Width: 100, Height: 100})
	assert.ErrorIs(t, err, dbscan.ErrInvalidInput)

	err = KDistance(&buf, []float64{1}, Options{Width: 0, Height: 100})
	assert.ErrorIs(t, err, dbscan.ErrInvalidInput)
}

func TestScatterImageSize(t *testing.T) {
	samples := []Sample{
		{Cid: 0, X: 0, Y: 0}, {Cid: 0, X: 0, Y: 1},
		{Cid: 1, X: 10, Y: 10}, {Cid: -1, X: 100, Y: 100},
	}
	var buf bytes.Buffer
	require.NoError(t, Scatter(&buf, samples, ScatterOptions{Width: 400, Height: 300, PointSize: 3, Title: "t"}))

	img, err := png.Decode(&buf)
	require.NoError(t, err)
	assert.Equal(t, 400, img.Bounds().Dx())
	assert.Equal(t, 300, img.Bounds().Dy())
}

func TestColorFor(t *testing.T) {
	assert.Equal(t, color.Color(NoiseColor), ColorFor(-1))
	assert.Equal(t, ColorFor(-1), ColorFor(-7))
	assert.Equal(t, ColorFor(3), ColorFor(3), "palette must be deterministic")
	assert.NotEqual(t, ColorFor(0), ColorFor(1))
}

func TestSamples(t *testing.T) {
	rows := []csvio.LabeledRow{
		{Cid: 2, Coords: []float64{1, 2, 3}},
		{Cid: -1, Coords: []float64{4, 5, 6}},
	}
	got, err := Samples(rows, 2, 0)
	require.NoError(t, err)
	assert.Equal(t, []Sample{{Cid: 2, X: 3, Y: 1}, {Cid: -1, X: 6, Y: 4}}, got)

	_, err = Samples(rows, 0, 3)
	assert.ErrorIs(t, err, dbscan.ErrInvalidInput)
}

func TestSavePNG(t *testing.T) {
	path := filepath.Join(t.TempDir(), "k.png")
	err := SavePNG(path, func(w io.Writer) error {
		return KDistance(w, []float64{3, 2, 1}, Options{Width: 50, Height: 50})
	})
	require.NoError(t, err)

	err = SavePNG(filepath.Join(t.TempDir(), "no", "k.png"), func(io.Writer) error { return nil })
	assert.ErrorIs(t, err, dbscan.ErrIO)
}
