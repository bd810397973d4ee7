// Command genmock writes synthetic SST, DHW, and pH grids into the cache
// directory under the names the ETL looks for, so a run can be exercised
// offline. Files that already exist are cache hits and are never fetched.
//
// Usage:
//
//	go run ./cmd/genmock \
//	  -cache-dir data/cache \
//	  -date 2025-08-14 \
//	  -bbox -24,-10,142,154 \
//	  -step 0.25
package main

import (
	"encoding/csv"
	"flag"
	"fmt"
	"io"
	"log"
	"math"
	"math/rand/v2"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/couchcryptid/ocean-health-etl/internal/acquire"
	"github.com/couchcryptid/ocean-health-etl/internal/domain"
	"github.com/klauspost/compress/gzip"
)

type options struct {
	cacheDir string
	date     time.Time
	days     int
	bbox     domain.BBox
	step     float64
	format   string
	seed     uint64
	erddap   bool
	withPH   bool
}

func main() {
	if err := run(); err != nil {
		log.Fatal(err)
	}
}

func run() error {
	cacheDir := flag.String("cache-dir", "data/cache", "cache directory the ETL reads from")
	date := flag.String("date", "", "newest observation date (YYYY-MM-DD, default today UTC)")
	days := flag.Int("days", 1, "number of consecutive days to write, newest first")
	bbox := flag.String("bbox", "-24,-10,142,154", "minLat,maxLat,minLon,maxLon")
	step := flag.Float64("step", 0.25, "grid spacing in degrees")
	format := flag.String("format", "csv", "csv or csv.gz")
	seed := flag.Uint64("seed", 42, "random seed")
	erddap := flag.Bool("erddap", false, "write an ERDDAP units row after the header")
	withPH := flag.Bool("ph", true, "also write PH_latest")
	flag.Parse()

	opts := options{
		cacheDir: *cacheDir,
		date:     domain.Today(),
		days:     *days,
		step:     *step,
		format:   strings.ToLower(*format),
		seed:     *seed,
		erddap:   *erddap,
		withPH:   *withPH,
	}
	if *date != "" {
		d, err := time.Parse(time.DateOnly, *date)
		if err != nil {
			return fmt.Errorf("invalid -date: %w", err)
		}
		opts.date = d
	}
	b, err := parseBBox(*bbox)
	if err != nil {
		return err
	}
	opts.bbox = b

	written, err := generate(opts)
	if err != nil {
		return err
	}
	for _, p := range written {
		log.Printf("wrote %s", p)
	}
	log.Printf("total: %d files", len(written))
	return nil
}

// generate writes the fixtures and returns their paths.
func generate(opts options) ([]string, error) {
	if opts.step <= 0 {
		return nil, fmt.Errorf("step must be positive")
	}
	if opts.days < 1 {
		return nil, fmt.Errorf("days must be at least 1")
	}
	if opts.format != "csv" && opts.format != "csv.gz" {
		return nil, fmt.Errorf("unsupported format %q", opts.format)
	}

	cache := acquire.NewCache(opts.cacheDir)
	if err := cache.Ensure(); err != nil {
		return nil, err
	}
	ext := "." + opts.format
	points := grid(opts.bbox, opts.step)
	rng := rand.New(rand.NewPCG(opts.seed, opts.seed))

	var written []string
	for _, day := range acquire.CandidateDates(opts.date, opts.days) {
		sst := make([]float64, len(points))
		dhw := make([]float64, len(points))
		for i, p := range points {
			sst[i] = seaSurfaceTemp(p[0], day) + rng.NormFloat64()*0.3
			dhw[i] = math.Max(0, (sst[i]-28.5)*1.5+rng.NormFloat64()*0.5)
		}

		path := cache.Path("sst", day, ext)
		if err := writeGrid(path, "analysed_sst", "degree_C", points, sst, opts.erddap); err != nil {
			return written, err
		}
		written = append(written, path)

		path = cache.Path("dhw", day, ext)
		if err := writeGrid(path, "degree_heating_week", "degree_C_weeks", points, dhw, opts.erddap); err != nil {
			return written, err
		}
		written = append(written, path)
	}

	if opts.withPH {
		ph := make([]float64, len(points))
		for i := range points {
			ph[i] = 8.05 + rng.NormFloat64()*0.04
		}
		path := cache.FixedPath("PH_latest", ext)
		if err := writeGrid(path, "ph_total", "1", points, ph, opts.erddap); err != nil {
			return written, err
		}
		written = append(written, path)
	}
	return written, nil
}

// seaSurfaceTemp is a smooth latitude gradient with a seasonal swing.
func seaSurfaceTemp(lat float64, day time.Time) float64 {
	season := math.Cos(2 * math.Pi * float64(day.YearDay()-45) / 365)
	if lat < 0 {
		season = -season
	}
	return 29.5 - 0.12*math.Abs(lat) - 1.5*season
}

func grid(b domain.BBox, step float64) [][2]float64 {
	var out [][2]float64
	for lat := b.MinLat; lat <= b.MaxLat+1e-9; lat += step {
		for lon := b.MinLon; lon <= b.MaxLon+1e-9; lon += step {
			out = append(out, [2]float64{round(lat), round(lon)})
		}
	}
	return out
}

func round(v float64) float64 {
	return math.Round(v*1e4) / 1e4
}

func writeGrid(path, variable, units string, points [][2]float64, values []float64, erddap bool) (err error) {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	defer func() {
		if cerr := f.Close(); err == nil {
			err = cerr
		}
	}()

	var w io.Writer = f
	if strings.HasSuffix(path, ".gz") {
		gz := gzip.NewWriter(f)
		defer func() {
			if cerr := gz.Close(); err == nil {
				err = cerr
			}
		}()
		w = gz
	}

	cw := csv.NewWriter(w)
	rows := [][]string{{"latitude", "longitude", variable}}
	if erddap {
		rows = append(rows, []string{"degrees_north", "degrees_east", units})
	}
	for i, p := range points {
		rows = append(rows, []string{
			strconv.FormatFloat(p[0], 'f', -1, 64),
			strconv.FormatFloat(p[1], 'f', -1, 64),
			strconv.FormatFloat(values[i], 'f', 3, 64),
		})
	}
	if err := cw.WriteAll(rows); err != nil {
		return fmt.Errorf("write %s: %w", filepath.Base(path), err)
	}
	return nil
}

func parseBBox(s string) (domain.BBox, error) {
	parts := strings.Split(s, ",")
	if len(parts) != 4 {
		return domain.BBox{}, fmt.Errorf("invalid -bbox %q: want minLat,maxLat,minLon,maxLon", s)
	}
	var v [4]float64
	for i, p := range parts {
		f, err := strconv.ParseFloat(strings.TrimSpace(p), 64)
		if err != nil {
			return domain.BBox{}, fmt.Errorf("invalid -bbox %q: %w", s, err)
		}
		v[i] = f
	}
	b := domain.BBox{MinLat: v[0], MaxLat: v[1], MinLon: v[2], MaxLon: v[3]}
	if b.MinLat > b.MaxLat || b.MinLon > b.MaxLon || b.MinLat < -90 || b.MaxLat > 90 || b.MinLon < -180 || b.MaxLon > 180 {
		return domain.BBox{}, fmt.Errorf("invalid -bbox %q: out of range", s)
	}
	return b, nil
}
