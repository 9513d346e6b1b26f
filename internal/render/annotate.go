package render

import (
	"fmt"
	"image"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/golang/freetype"
	"github.com/golang/freetype/truetype"
	"golang.org/x/image/font"
	"golang.org/x/image/font/gofont/goregular"

	"github.com/roman-kulish/flightlog/internal/flightlog"
)

const dpi = 96.0

type annotator struct {
	context  *freetype.Context
	fontFace font.Face
	config   RenderConfig
}

func newAnnotator(config RenderConfig) (*annotator, error) {
	parsedFont, err := freetype.ParseFont(goregular.TTF)
	if err != nil {
		return nil, fmt.Errorf("parsing font: %w", err)
	}

	ctx := freetype.NewContext()
	ctx.SetDPI(dpi)
	ctx.SetFont(parsedFont)
	ctx.SetFontSize(config.FontSize)
	ctx.SetHinting(font.HintingFull)
	ctx.SetSrc(image.Black)

	return &annotator{
		context: ctx,
		config:  config,
		fontFace: truetype.NewFace(parsedFont, &truetype.Options{
			Size:    config.FontSize,
			DPI:     dpi,
			Hinting: font.HintingFull,
		}),
	}, nil
}

func (a *annotator) Close() error {
	if a.fontFace != nil {
		return a.fontFace.Close()
	}
	return nil
}

// caption is the text drawn around the path.
type caption struct {
	Title   string
	Summary flightlog.FlightSummary
	Start   time.Time
	End     time.Time
}

func (a *annotator) annotate(img *image.RGBA, c *caption) error {
	a.context.SetClip(img.Bounds())
	a.context.SetDst(img)

	ops := []struct {
		msg string
		fn  func(*image.RGBA, *caption) error
	}{
		{"drawing title", a.drawTitle},
		{"drawing info bar", a.drawInfoBar},
	}
	for _, op := range ops {
		if err := op.fn(img, c); err != nil {
			return fmt.Errorf("%s: %w", op.msg, err)
		}
	}

	return nil
}

func (a *annotator) drawTitle(_ *image.RGBA, c *caption) error {
	metrics := a.fontFace.Metrics()
	fontHeight := (metrics.Ascent + metrics.Descent).Round()

	textY := (a.config.Borders.Top+fontHeight)/2 - metrics.Descent.Round()

	title := c.Title
	if !c.Start.IsZero() {
		title = fmt.Sprintf("%s, %s - %s", title,
			c.Start.In(a.config.Location).Format(a.config.DatetimeFormat),
			c.End.In(a.config.Location).Format(a.config.DatetimeFormat))
	}

	if _, err := a.context.DrawString(title, freetype.Pt(a.config.Borders.Left, textY)); err != nil {
		return fmt.Errorf("drawing title text: %w", err)
	}
	return nil
}

func (a *annotator) drawInfoBar(img *image.RGBA, c *caption) error {
	s := c.Summary

	info := strings.Join([]string{
		"Duration: " + s.Duration.Truncate(time.Second).String(),
		"Max distance: " + formatMeters(s.MaxDistance),
		"Max altitude: " + formatMeters(s.MaxAltitude),
		"Traveled: " + formatMeters(s.Traveled),
	}, "; ")

	metrics := a.fontFace.Metrics()
	fontHeight := (metrics.Ascent + metrics.Descent).Round()

	// centered in the bottom border
	textY := img.Bounds().Max.Y - (a.config.Borders.Bottom-fontHeight)/2 - metrics.Descent.Round()

	if _, err := a.context.DrawString(info, freetype.Pt(a.config.Borders.Left, textY)); err != nil {
		return fmt.Errorf("drawing info text: %w", err)
	}
	return nil
}

func formatMeters(m float64) string {
	value, prefix := humanize.ComputeSI(m)
	return humanize.FtoaWithDigits(value, 2) + " " + prefix + "m"
}
