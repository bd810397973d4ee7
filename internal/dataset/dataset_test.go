package dataset

import (
	"bytes"
	"math"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/klauspost/compress/gzip"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestResolve(t *testing.T) {
	t.Run("priority follows candidate order", func(t *testing.T) {
		got, ok := Resolve([]string{"sea_surface_temperature", "lat", "lon"}, SSTCandidates...)
		require.True(t, ok)
		assert.Equal(t, "sea_surface_temperature", got)
	})

	t.Run("canonical name beats alias", func(t *testing.T) {
		got, ok := Resolve([]string{"analysed_sst", "sst", "lat"}, SSTCandidates...)
		require.True(t, ok)
		assert.Equal(t, "sst", got)
	})

	t.Run("absent", func(t *testing.T) {
		got, ok := Resolve([]string{"lat", "lon", "mask"}, SSTCandidates...)
		assert.False(t, ok)
		assert.Empty(t, got)
	})

	t.Run("no candidates", func(t *testing.T) {
		_, ok := Resolve([]string{"sst"})
		assert.False(t, ok)
	})
}

func TestNewFrame(t *testing.T) {
	f, err := NewFrame([]string{"lat", "lon", "lat"}, [][]float64{{1, 2}, {3, 4}, {9, 9}})
	require.NoError(t, err)
	assert.Equal(t, []string{"lat", "lon"}, f.Columns())
	assert.Equal(t, 2, f.Len())
	assert.Equal(t, []float64{1, 2}, f.Column("lat"))
	assert.Nil(t, f.Column("sst"))

	_, err = NewFrame([]string{"lat", "lon"}, [][]float64{{1, 2}, {3}})
	require.Error(t, err)
	_, err = NewFrame([]string{"lat"}, nil)
	require.Error(t, err)
}

const erddapCSV = `time,latitude,longitude,analysed_sst
UTC,degrees_north,degrees_east,degree_C
2025-08-14T12:00:00Z,6.525,92.525,28.21
2025-08-14T12:00:00Z,6.575,92.525,NaN
2025-08-14T12:00:00Z,6.625,92.525,
`

func TestCSVDecoder_ERDDAP(t *testing.T) {
	f, err := CSVDecoder{}.Decode(strings.NewReader(erddapCSV))
	require.NoError(t, err)

	assert.Equal(t, []string{"time", "latitude", "longitude", "analysed_sst"}, f.Columns())
	require.Equal(t, 3, f.Len(), "units row is skipped")
	assert.Equal(t, []float64{6.525, 6.575, 6.625}, f.Column("latitude"))
	sst := f.Column("analysed_sst")
	assert.Equal(t, 28.21, sst[0])
	assert.True(t, math.IsNaN(sst[1]))
	assert.True(t, math.IsNaN(sst[2]))
	assert.True(t, math.IsNaN(f.Column("time")[0]))
}

func TestCSVDecoder_Plain(t *testing.T) {
	f, err := CSVDecoder{}.Decode(strings.NewReader("\ufefflat, lon, sst\n6.5, 92.5, 28.2\n"))
	require.NoError(t, err)
	assert.Equal(t, []string{"lat", "lon", "sst"}, f.Columns())
	assert.Equal(t, []float64{28.2}, f.Column("sst"))
}

func TestCSVDecoder_HeaderOnly(t *testing.T) {
	f, err := CSVDecoder{}.Decode(strings.NewReader("lat,lon,sst\n"))
	require.NoError(t, err)
	assert.Equal(t, 0, f.Len())
	assert.Equal(t, []string{"lat", "lon", "sst"}, f.Columns())
}

func TestCSVDecoder_Errors(t *testing.T) {
	_, err := CSVDecoder{}.Decode(strings.NewReader(""))
	require.Error(t, err)

	_, err = CSVDecoder{}.Decode(strings.NewReader("lat,lon\n1,2,3\n"))
	require.Error(t, err)
}

func TestGzipDecoder(t *testing.T) {
	var buf bytes.Buffer
	zw := gzip.NewWriter(&buf)
	_, err := zw.Write([]byte("lat,lon,dhw\n6.5,92.5,0.4\n"))
	require.NoError(t, err)
	require.NoError(t, zw.Close())

	path := filepath.Join(t.TempDir(), "DHW_20250814.csv.gz")
	require.NoError(t, os.WriteFile(path, buf.Bytes(), 0o644))

	dec, err := ForFormat("csv.gz")
	require.NoError(t, err)
	f, err := DecodeFile(dec, path)
	require.NoError(t, err)
	assert.Equal(t, []float64{0.4}, f.Column("dhw"))

	_, err = dec.Decode(strings.NewReader("not gzip"))
	require.Error(t, err)
}

func TestForFormat(t *testing.T) {
	dec, err := ForFormat(".CSV")
	require.NoError(t, err)
	assert.IsType(t, CSVDecoder{}, dec)

	_, err = ForFormat("nc")
	require.Error(t, err)
}

func TestDecodeFile_Missing(t *testing.T) {
	_, err := DecodeFile(CSVDecoder{}, filepath.Join(t.TempDir(), "nope.csv"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "open dataset")
}
