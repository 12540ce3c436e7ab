// Package summary renders the summary PNG served by GET /countries/image.
package summary

import (
	"context"
	"errors"
	"fmt"
	"image"
	"image/color"
	"image/png"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"sync"
	"time"

	"golang.org/x/image/draw"
	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"

	"github.com/Sheedy-T/sheedy-Country-Currency-Exchange-API/internal/country/models"
	"github.com/Sheedy-T/sheedy-Country-Currency-Exchange-API/pkg/platform/sentinel"
)

const (
	FileName = "summary.png"

	width   = 600
	height  = 400
	padding = 20
)

var (
	background = color.RGBA{R: 0x2c, G: 0x3e, B: 0x50, A: 0xff}
	titleColor = color.RGBA{R: 0xec, G: 0xf0, B: 0xf1, A: 0xff}
	statColor  = color.RGBA{R: 0x95, G: 0xa5, B: 0xa6, A: 0xff}
	topColor   = color.RGBA{R: 0xf1, G: 0xc4, B: 0x0f, A: 0xff}
	itemColor  = titleColor
)

// Summary is the data drawn into the image.
type Summary struct {
	TotalCountries  int
	LastRefreshedAt *time.Time
	Top             []models.TopCountry
}

// ArtifactError reports a failed render. Callers treat it as non-fatal.
type ArtifactError struct {
	Op  string
	Err error
}

func (e *ArtifactError) Error() string {
	return fmt.Sprintf("summary artifact %s: %v", e.Op, e.Err)
}

func (e *ArtifactError) Unwrap() error {
	return e.Err
}

// Generator writes the summary image into a cache directory. Renders are
// serialized; readers always see either the previous or the new file.
type Generator struct {
	dir    string
	logger *slog.Logger
	mu     sync.Mutex
}

// New creates a Generator writing into dir.
func New(dir string, logger *slog.Logger) *Generator {
	if logger == nil {
		logger = slog.Default()
	}
	return &Generator{dir: dir, logger: logger}
}

// Path returns the location of the summary image.
func (g *Generator) Path() string {
	return filepath.Join(g.dir, FileName)
}

// Render draws s and replaces the summary image.
func (g *Generator) Render(ctx context.Context, s Summary) error {
	g.mu.Lock()
	defer g.mu.Unlock()

	if err := os.MkdirAll(g.dir, 0o755); err != nil {
		return &ArtifactError{Op: "create cache dir", Err: err}
	}

	img := draw.Image(image.NewRGBA(image.Rect(0, 0, width, height)))
	draw.Draw(img, img.Bounds(), image.NewUniform(background), image.Point{}, draw.Src)

	y := padding + 30
	drawTitle(img, "Country API Summary", padding, y)
	y += 50
	drawText(img, statColor, padding, y, "Total Countries: "+strconv.Itoa(s.TotalCountries))
	y += 30
	drawText(img, statColor, padding, y, "Last Refreshed At: "+FormatTimestamp(s.LastRefreshedAt))
	y += 50
	drawText(img, topColor, padding, y, "Top 5 Estimated GDP:")
	y += 30
	for i, c := range s.Top {
		drawText(img, itemColor, padding*2, y, topLine(i+1, c))
		y += 25
	}

	tmp, err := os.CreateTemp(g.dir, "summary-*.png")
	if err != nil {
		return &ArtifactError{Op: "create temp file", Err: err}
	}
	tmpName := tmp.Name()
	defer func() {
		_ = os.Remove(tmpName)
	}()

	if err := png.Encode(tmp, img); err != nil {
		_ = tmp.Close()
		return &ArtifactError{Op: "encode png", Err: err}
	}
	if err := tmp.Close(); err != nil {
		return &ArtifactError{Op: "close temp file", Err: err}
	}
	if err := os.Rename(tmpName, g.Path()); err != nil {
		return &ArtifactError{Op: "replace image", Err: err}
	}

	g.logger.InfoContext(ctx, "summary image generated",
		"path", g.Path(),
		"total_countries", s.TotalCountries,
	)
	return nil
}

// Exists reports whether a summary image is present.
func (g *Generator) Exists() bool {
	info, err := os.Stat(g.Path())
	return err == nil && info.Mode().IsRegular()
}

// Read returns the image bytes. A missing or unreadable file is reported as
// sentinel.ErrNotFound.
func (g *Generator) Read() ([]byte, error) {
	data, err := os.ReadFile(g.Path())
	if err != nil {
		if !errors.Is(err, fs.ErrNotExist) {
			g.logger.Warn("summary image unreadable", "path", g.Path(), "error", err)
		}
		return nil, fmt.Errorf("read summary image: %w", sentinel.ErrNotFound)
	}
	return data, nil
}

func topLine(rank int, c models.TopCountry) string {
	amount := FormatAmount(c.EstimatedGDP)
	if c.EstimatedGDP.Valid {
		amount = "$" + amount
	}
	return fmt.Sprintf("%d. %s: %s", rank, c.Name, amount)
}

func drawText(dst draw.Image, c color.Color, x, y int, text string) {
	d := &font.Drawer{
		Dst:  dst,
		Src:  image.NewUniform(c),
		Face: basicfont.Face7x13,
		Dot:  fixed.P(x, y),
	}
	d.DrawString(text)
}

// drawTitle renders text at twice the base font size by drawing it onto a
// scratch image and scaling that up.
func drawTitle(dst draw.Image, text string, x, baseline int) {
	face := basicfont.Face7x13
	w := font.MeasureString(face, text).Ceil()
	h := face.Height

	scratch := image.NewRGBA(image.Rect(0, 0, w, h))
	drawText(scratch, titleColor, 0, face.Ascent, text)

	top := baseline - 2*face.Ascent
	target := image.Rect(x, top, x+2*w, top+2*h)
	draw.NearestNeighbor.Scale(dst, target, scratch, scratch.Bounds(), draw.Over, nil)
}
