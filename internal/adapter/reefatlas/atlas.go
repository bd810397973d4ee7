// Package reefatlas reads reef polygons from an ESRI shapefile and reduces
// each one to a centroid, bounds, and identifying attributes.
package reefatlas

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/couchcryptid/ocean-health-etl/internal/domain"
	"github.com/jonas-p/go-shp"
)

// Attribute field names looked up case-insensitively in the DBF table.
var (
	idFields    = []string{"id", "reef_id", "fid"}
	nameFields  = []string{"name", "reef_name"}
	classFields = []string{"class", "geomorphic", "benthic", "rclass"}
)

// Atlas implements pipeline.ReefAtlas on a shapefile.
type Atlas struct {
	path   string
	logger *slog.Logger
}

// New returns an atlas over the shapefile at path. An empty path yields an
// atlas with no reefs.
func New(path string, logger *slog.Logger) *Atlas {
	return &Atlas{path: path, logger: logger}
}

// Reefs returns every reef whose polygon bounds intersect hint.
func (a *Atlas) Reefs(ctx context.Context, hint domain.BBox) ([]domain.Reef, error) {
	if a.path == "" {
		return nil, nil
	}

	if !strings.EqualFold(filepath.Ext(a.path), ".shp") {
		return nil, fmt.Errorf("reef atlas %s: not a .shp file", a.path)
	}
	shape, err := shp.Open(a.path)
	if err != nil {
		return nil, fmt.Errorf("open shapefile %s: %w", a.path, err)
	}
	defer shape.Close()

	cols := fieldIndex(shape.Fields())
	idCol := cols.lookup(idFields)
	nameCol := cols.lookup(nameFields)
	classCol := cols.lookup(classFields)

	var (
		reefs   []domain.Reef
		skipped int
	)
	for shape.Next() {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		n, s := shape.Shape()
		reef, ok := toReef(s)
		if !ok {
			skipped++
			continue
		}
		if !reef.Bounds.Intersects(hint) {
			continue
		}
		reef.ID = attribute(shape, n, idCol)
		if reef.ID == "" {
			reef.ID = strconv.Itoa(n)
		}
		reef.Name = attribute(shape, n, nameCol)
		reef.Class = attribute(shape, n, classCol)
		reefs = append(reefs, reef)
	}
	if err := shape.Err(); err != nil {
		return nil, fmt.Errorf("read shapefile %s: %w", a.path, err)
	}

	if skipped > 0 {
		a.logger.Debug("skipped unsupported shapes", "path", a.path, "count", skipped)
	}
	a.logger.Info("reef atlas loaded", "path", a.path, "reefs", len(reefs))
	return reefs, nil
}

type fields map[string]int

func fieldIndex(fs []shp.Field) fields {
	out := make(fields, len(fs))
	for i, f := range fs {
		name := strings.ToLower(strings.TrimSpace(f.String()))
		if _, ok := out[name]; !ok {
			out[name] = i
		}
	}
	return out
}

func (f fields) lookup(candidates []string) int {
	for _, c := range candidates {
		if i, ok := f[c]; ok {
			return i
		}
	}
	return -1
}

func attribute(r *shp.Reader, row, col int) string {
	if col < 0 {
		return ""
	}
	return strings.Trim(r.ReadAttribute(row, col), " \x00")
}

// toReef reduces a polygon or point to its centroid and bounds.
func toReef(s shp.Shape) (domain.Reef, bool) {
	switch g := s.(type) {
	case *shp.Polygon:
		if len(g.Points) == 0 {
			return domain.Reef{}, false
		}
		box := g.BBox()
		lat, lon := centroid(g)
		return domain.Reef{
			Latitude:  lat,
			Longitude: lon,
			Bounds:    domain.BBox{MinLat: box.MinY, MaxLat: box.MaxY, MinLon: box.MinX, MaxLon: box.MaxX},
		}, true
	case *shp.Point:
		return domain.Reef{
			Latitude:  g.Y,
			Longitude: g.X,
			Bounds:    domain.BBox{MinLat: g.Y, MaxLat: g.Y, MinLon: g.X, MaxLon: g.X},
		}, true
	default:
		return domain.Reef{}, false
	}
}

// centroid returns the area-weighted centroid of the largest ring, falling
// back to the bounding-box centre for degenerate rings.
func centroid(p *shp.Polygon) (lat, lon float64) {
	start, end := largestPart(p)
	ring := p.Points[start:end]

	var a, cx, cy float64
	for i := range ring {
		j := (i + 1) % len(ring)
		cross := ring[i].X*ring[j].Y - ring[j].X*ring[i].Y
		a += cross
		cx += (ring[i].X + ring[j].X) * cross
		cy += (ring[i].Y + ring[j].Y) * cross
	}
	if math.Abs(a) < 1e-12 {
		box := p.BBox()
		return (box.MinY + box.MaxY) / 2, (box.MinX + box.MaxX) / 2
	}
	a /= 2
	return cy / (6 * a), cx / (6 * a)
}

func largestPart(p *shp.Polygon) (int, int) {
	if len(p.Parts) == 0 {
		return 0, len(p.Points)
	}
	bestStart, bestEnd := 0, 0
	for i := range p.Parts {
		start := int(p.Parts[i])
		end := len(p.Points)
		if i+1 < len(p.Parts) {
			end = int(p.Parts[i+1])
		}
		if end-start > bestEnd-bestStart {
			bestStart, bestEnd = start, end
		}
	}
	return bestStart, bestEnd
}
