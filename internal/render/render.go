package render

import (
	"errors"
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"image/jpeg"
	"image/png"
	"io"
	"math"
	"time"

	"github.com/paulmach/go.geo"
	"golang.org/x/image/vector"

	"github.com/roman-kulish/flightlog/internal/flightlog"
)

const (
	FormatPNG  ImageFormat = "png"
	FormatJPEG ImageFormat = "jpeg"
)

const (
	defaultWidth     = 1024
	defaultHeight    = 768
	defaultFontSize  = 12.0
	defaultLineWidth = 3.0

	// Default border sizes in pixels
	defaultTopBorder    = 40
	defaultLeftBorder   = 20
	defaultBottomBorder = 40
	defaultRightBorder  = 20

	defaultDatetimeFormat = time.DateTime

	markerSize = 5
)

// ErrNoPath is returned when the requested flight has no path points.
var ErrNoPath = errors.New("no path to render")

// ImageFormat is the encoding of a rendered image.
type ImageFormat string

// BorderConfig defines the sizes of white space around the path area.
type BorderConfig struct {
	Top    int // Space for the title
	Left   int
	Bottom int // Space for the information bar
	Right  int
}

// RenderConfig holds all configuration options for path rendering.
type RenderConfig struct {
	Width  int // Image width in pixels, borders included
	Height int // Image height in pixels, borders included

	DatetimeFormat string
	Location       *time.Location

	FontSize  float64 // Font size in points
	LineWidth float64 // Stroke width in pixels

	Borders BorderConfig
}

// PathRenderer draws flight paths of a decoded log.
type PathRenderer struct {
	config    RenderConfig
	annotator *annotator
}

// NewPathRenderer creates a renderer. Zero values in config are replaced
// with defaults.
func NewPathRenderer(config RenderConfig) (*PathRenderer, error) {
	if config.Width <= 0 {
		config.Width = defaultWidth
	}
	if config.Height <= 0 {
		config.Height = defaultHeight
	}
	if config.DatetimeFormat == "" {
		config.DatetimeFormat = defaultDatetimeFormat
	}
	if config.Location == nil {
		config.Location = time.UTC
	}
	if config.FontSize <= 0 {
		config.FontSize = defaultFontSize
	}
	if config.LineWidth <= 0 {
		config.LineWidth = defaultLineWidth
	}
	if config.Borders == (BorderConfig{}) {
		config.Borders = BorderConfig{
			Top:    defaultTopBorder,
			Left:   defaultLeftBorder,
			Bottom: defaultBottomBorder,
			Right:  defaultRightBorder,
		}
	}

	areaW := config.Width - config.Borders.Left - config.Borders.Right
	areaH := config.Height - config.Borders.Top - config.Borders.Bottom
	if areaW <= 0 || areaH <= 0 {
		return nil, fmt.Errorf("image %dx%d leaves no room for the path", config.Width, config.Height)
	}

	a, err := newAnnotator(config)
	if err != nil {
		return nil, fmt.Errorf("creating annotator: %w", err)
	}

	return &PathRenderer{
		config:    config,
		annotator: a,
	}, nil
}

func (r *PathRenderer) Close() error {
	return r.annotator.Close()
}

// Render draws the path of the given flight, or of all flights when flight
// is 0.
func (r *PathRenderer) Render(result *flightlog.Result, flight int) (*image.RGBA, error) {
	if flight < 0 || flight > result.Flights() {
		return nil, fmt.Errorf("flight %d out of range [0, %d]", flight, result.Flights())
	}

	var segments []*geo.Path
	if flight == 0 {
		for _, p := range result.Paths {
			segments = append(segments, p...)
		}
	} else if flight <= len(result.Paths) {
		segments = result.Paths[flight-1]
	}

	bound, points := pathBound(segments)
	if bound == nil {
		return nil, ErrNoPath
	}

	img := image.NewRGBA(image.Rect(0, 0, r.config.Width, r.config.Height))
	draw.Draw(img, img.Bounds(), image.White, image.Point{}, draw.Src)

	area := image.Rect(
		r.config.Borders.Left,
		r.config.Borders.Top,
		r.config.Width-r.config.Borders.Right,
		r.config.Height-r.config.Borders.Bottom,
	)
	proj := newProjection(bound, area)

	r.renderPath(img, proj, segments, points)

	if err := r.annotator.annotate(img, r.caption(result, flight)); err != nil {
		return nil, fmt.Errorf("annotating: %w", err)
	}

	return img, nil
}

func (r *PathRenderer) caption(result *flightlog.Result, flight int) *caption {
	c := &caption{Title: result.DroneLabel}
	if flight == 0 {
		c.Title += ", all flights"
	} else {
		c.Title = fmt.Sprintf("%s, flight %d", c.Title, flight)
	}

	if flight < len(result.Stats) {
		c.Summary = result.Stats[flight]
	}

	var rows []flightlog.Reading
	if flight == 0 {
		if n := result.Flights(); n > 0 {
			first, last := result.Flight(1), result.Flight(n)
			if len(first) > 0 && len(last) > 0 {
				c.Start, c.End = first[0].Timestamp, last[len(last)-1].Timestamp
			}
		}
	} else {
		rows = result.Flight(flight)
	}
	if len(rows) > 0 {
		c.Start, c.End = rows[0].Timestamp, rows[len(rows)-1].Timestamp
	}

	return c
}

// renderPath strokes every segment, colouring each stroke by its position
// along the whole rendered path.
func (r *PathRenderer) renderPath(img *image.RGBA, proj *projection, segments []*geo.Path, points int) {
	z := vector.NewRasterizer(img.Bounds().Dx(), img.Bounds().Dy())
	half := float32(r.config.LineWidth / 2)

	strokes := max(points-1, 1)
	var drawn int
	var first, last image.Point
	var hasFirst bool

	for _, seg := range segments {
		for i := 0; i < seg.Length(); i++ {
			x, y := proj.project(seg.GetAt(i))
			if !hasFirst {
				first, hasFirst = image.Pt(int(x), int(y)), true
			}
			last = image.Pt(int(x), int(y))

			if i == 0 {
				continue
			}

			px, py := proj.project(seg.GetAt(i - 1))
			z.Reset(img.Bounds().Dx(), img.Bounds().Dy())
			strokeLine(z, px, py, x, y, half)
			z.Draw(img, img.Bounds(), image.NewUniform(pathColor(float64(drawn)/float64(strokes))), image.Point{})
			drawn++
		}
	}

	drawMarker(img, first, pathColor(0))
	drawMarker(img, last, pathColor(1))
}

// strokeLine adds the rectangle of a line of half-width w from (x0, y0) to
// (x1, y1) to z. Zero length lines become a square dot.
func strokeLine(z *vector.Rasterizer, x0, y0, x1, y1, w float32) {
	dx, dy := x1-x0, y1-y0
	l := float32(math.Hypot(float64(dx), float64(dy)))
	if l == 0 {
		z.MoveTo(x0-w, y0-w)
		z.LineTo(x0+w, y0-w)
		z.LineTo(x0+w, y0+w)
		z.LineTo(x0-w, y0+w)
		z.ClosePath()
		return
	}

	nx, ny := -dy/l*w, dx/l*w
	z.MoveTo(x0+nx, y0+ny)
	z.LineTo(x1+nx, y1+ny)
	z.LineTo(x1-nx, y1-ny)
	z.LineTo(x0-nx, y0-ny)
	z.ClosePath()
}

func drawMarker(img *image.RGBA, p image.Point, c color.Color) {
	rect := image.Rect(p.X-markerSize, p.Y-markerSize, p.X+markerSize+1, p.Y+markerSize+1)
	draw.Draw(img, rect.Intersect(img.Bounds()), image.NewUniform(c), image.Point{}, draw.Src)
}

// pathBound returns the bound of all points in segments and the number of
// points, or nil when there are none.
func pathBound(segments []*geo.Path) (*geo.Bound, int) {
	var bound *geo.Bound
	var points int
	for _, seg := range segments {
		for i := 0; i < seg.Length(); i++ {
			p := seg.GetAt(i)
			if bound == nil {
				bound = geo.NewBoundFromPoints(p, p)
			} else {
				bound.Extend(p)
			}
			points++
		}
	}
	return bound, points
}

// projection maps lon/lat onto the path area with an equirectangular
// projection centered on the bound, preserving the aspect ratio.
type projection struct {
	west, north float64
	cosLat      float64
	scale       float64
	offX, offY  float64
}

func newProjection(b *geo.Bound, area image.Rectangle) *projection {
	midLat := (b.South() + b.North()) / 2
	p := &projection{
		west:   b.West(),
		north:  b.North(),
		cosLat: math.Cos(midLat * math.Pi / 180),
	}

	w := (b.East() - b.West()) * p.cosLat
	h := b.North() - b.South()

	areaW, areaH := float64(area.Dx()), float64(area.Dy())
	switch {
	case w == 0 && h == 0:
		p.scale = 1
	case w == 0:
		p.scale = areaH / h
	case h == 0:
		p.scale = areaW / w
	default:
		p.scale = min(areaW/w, areaH/h)
	}

	p.offX = float64(area.Min.X) + (areaW-w*p.scale)/2
	p.offY = float64(area.Min.Y) + (areaH-h*p.scale)/2
	return p
}

func (p *projection) project(pt *geo.Point) (float32, float32) {
	x := p.offX + (pt.Lng()-p.west)*p.cosLat*p.scale
	y := p.offY + (p.north-pt.Lat())*p.scale
	return float32(x), float32(y)
}

// Encode writes img to w in the given format.
func Encode(w io.Writer, img image.Image, format ImageFormat) error {
	switch format {
	case FormatPNG:
		return png.Encode(w, img)
	case FormatJPEG:
		return jpeg.Encode(w, img, &jpeg.Options{
			Quality: 98,
		})
	default:
		return fmt.Errorf("unsupported image format: %s", format)
	}
}
