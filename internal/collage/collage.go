// Package collage composes album-art grids out of a user's top chart.
package collage

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"image/color"
	"image/draw"
	_ "image/gif"
	"image/jpeg"
	_ "image/png"
	"time"

	"github.com/nfnt/resize"
	"github.com/rs/zerolog"
	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"
	"golang.org/x/sync/errgroup"
)

const (
	// TilePx is the edge length of one grid cell.
	TilePx = 300
	// MaxGrid bounds the collage edge in cells.
	MaxGrid = 7

	defaultConcurrency = 8
	defaultTimeout     = 45 * time.Second
	jpegQuality        = 85
)

// ArtFetcher supplies raw image bytes for an art URL.
type ArtFetcher interface {
	FetchArt(ctx context.Context, url string) ([]byte, error)
}

// Entry is one collage cell: its artwork source and caption lines.
type Entry struct {
	Title    string
	Subtitle string
	Plays    int64
	ArtURL   string
}

// Renderer turns ranked entries into a single JPEG grid.
type Renderer struct {
	fetcher     ArtFetcher
	concurrency int
	timeout     time.Duration
	logger      zerolog.Logger
}

// Option tunes a Renderer.
type Option func(*Renderer)

// WithConcurrency caps concurrent art downloads.
func WithConcurrency(n int) Option {
	return func(r *Renderer) {
		if n > 0 {
			r.concurrency = n
		}
	}
}

// WithTimeout bounds the total render, fetches included.
func WithTimeout(d time.Duration) Option {
	return func(r *Renderer) {
		if d > 0 {
			r.timeout = d
		}
	}
}

// NewRenderer creates a Renderer over the given art source.
func NewRenderer(fetcher ArtFetcher, logger zerolog.Logger, opts ...Option) *Renderer {
	r := &Renderer{
		fetcher:     fetcher,
		concurrency: defaultConcurrency,
		timeout:     defaultTimeout,
		logger:      logger.With().Str("component", "collage").Logger(),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Render draws a grid×grid collage of the entries in order, one cell
// per entry, and returns it JPEG-encoded. Cells whose art cannot be
// fetched get a placeholder tile; cells past the last entry stay
// blank, so a short or even empty entry list never fails.
func (r *Renderer) Render(ctx context.Context, entries []Entry, grid int, captions bool) ([]byte, error) {
	if grid < 1 || grid > MaxGrid {
		return nil, fmt.Errorf("grid size %d out of range 1..%d", grid, MaxGrid)
	}
	if max := grid * grid; len(entries) > max {
		entries = entries[:max]
	}

	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	tiles := make([]image.Image, len(entries))
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(r.concurrency)

	for i, entry := range entries {
		g.Go(func() error {
			tiles[i] = r.tile(ctx, entry)
			return nil
		})
	}
	// Tile failures degrade to placeholders, so the group only ever
	// reports context errors, and those are already baked into the
	// placeholder tiles.
	_ = g.Wait()

	edge := grid * TilePx
	canvas := image.NewRGBA(image.Rect(0, 0, edge, edge))
	draw.Draw(canvas, canvas.Bounds(), image.NewUniform(color.Black), image.Point{}, draw.Src)

	for i, tile := range tiles {
		x := (i % grid) * TilePx
		y := (i / grid) * TilePx
		rect := image.Rect(x, y, x+TilePx, y+TilePx)
		draw.Draw(canvas, rect, tile, tile.Bounds().Min, draw.Src)

		if captions {
			drawCaption(canvas, rect, entries[i])
		}
	}

	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, canvas, &jpeg.Options{Quality: jpegQuality}); err != nil {
		return nil, fmt.Errorf("failed to encode collage: %w", err)
	}
	return buf.Bytes(), nil
}

// tile fetches and scales one cell's artwork, falling back to a
// placeholder on any failure.
func (r *Renderer) tile(ctx context.Context, entry Entry) image.Image {
	if entry.ArtURL == "" {
		return placeholderTile()
	}

	data, err := r.fetcher.FetchArt(ctx, entry.ArtURL)
	if err != nil {
		r.logger.Debug().Err(err).Str("url", entry.ArtURL).Msg("failed to fetch artwork")
		return placeholderTile()
	}

	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		r.logger.Debug().Err(err).Str("url", entry.ArtURL).Msg("failed to decode artwork")
		return placeholderTile()
	}

	return resize.Thumbnail(TilePx, TilePx, img, resize.Lanczos3)
}

// placeholderTile is a flat dark-gray cell standing in for missing art.
func placeholderTile() image.Image {
	tile := image.NewRGBA(image.Rect(0, 0, TilePx, TilePx))
	draw.Draw(tile, tile.Bounds(), image.NewUniform(color.RGBA{R: 0x30, G: 0x30, B: 0x30, A: 0xff}), image.Point{}, draw.Src)
	return tile
}

// drawCaption writes the entry's title, subtitle, and play count in
// the cell's bottom-left corner, each line backed by a dark halo so
// it stays readable over bright art.
func drawCaption(canvas *image.RGBA, cell image.Rectangle, entry Entry) {
	lines := make([]string, 0, 3)
	if entry.Title != "" {
		lines = append(lines, entry.Title)
	}
	if entry.Subtitle != "" {
		lines = append(lines, entry.Subtitle)
	}
	if entry.Plays > 0 {
		lines = append(lines, fmt.Sprintf("%d plays", entry.Plays))
	}

	face := basicfont.Face7x13
	lineHeight := face.Height + 3
	baseY := cell.Max.Y - 6 - (len(lines)-1)*lineHeight - face.Descent
	for i, line := range lines {
		x := cell.Min.X + 6
		y := baseY + i*lineHeight
		drawText(canvas, face, x+1, y+1, line, color.Black)
		drawText(canvas, face, x, y, line, color.White)
	}
}

func drawText(dst *image.RGBA, face font.Face, x, y int, text string, c color.Color) {
	d := font.Drawer{
		Dst:  dst,
		Src:  image.NewUniform(c),
		Face: face,
		Dot:  fixed.P(x, y),
	}
	d.DrawString(text)
}
