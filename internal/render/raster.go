package render

import (
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"math"
	"strconv"
	"strings"

	xdraw "golang.org/x/image/draw"
	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"
	"golang.org/x/image/vector"

	"github.com/atharv3903/routemap/internal/model"
)

const (
	tileSize     = 256.0
	circlePoints = 32
)

// projection maps WGS84 to canvas pixels in web mercator around a center.
type projection struct {
	world  float64
	cx, cy float64
	w, h   float64
}

func newProjection(center model.Coordinate, zoom float64, w, h int) projection {
	world := tileSize * math.Pow(2, zoom)
	return projection{
		world: world,
		cx:    (center.Lon + 180) / 360 * world,
		cy:    mercatorY(center.Lat) * world,
		w:     float64(w),
		h:     float64(h),
	}
}

func (p projection) point(lat, lon float64) (float64, float64) {
	x := (lon+180)/360*p.world - p.cx + p.w/2
	y := mercatorY(lat)*p.world - p.cy + p.h/2
	return x, y
}

// mercatorY is the normalised web mercator y of lat, 0 at the top edge.
func mercatorY(lat float64) float64 {
	phi := lat * math.Pi / 180
	return (1 - math.Log(math.Tan(math.Pi/4+phi/2))/math.Pi) / 2
}

// Rasterize draws fig onto a canvas of its layout size times scale.
func Rasterize(fig *Figure, scale float64) (*image.RGBA, error) {
	if scale <= 0 {
		scale = 1
	}
	l := fig.Layout
	w := int(math.Round(float64(l.Width) * scale))
	h := int(math.Round(float64(l.Height) * scale))
	if w <= 0 || h <= 0 {
		return nil, fmt.Errorf("render: bad canvas %dx%d", w, h)
	}

	img := image.NewRGBA(image.Rect(0, 0, w, h))
	bg, err := parseHex(l.Background)
	if err != nil {
		return nil, err
	}
	draw.Draw(img, img.Bounds(), image.NewUniform(bg), image.Point{}, draw.Src)

	// zoom grows by log2(scale) so the map keeps its extent at higher scale
	proj := newProjection(l.Center, l.Zoom+math.Log2(scale), w, h)
	z := vector.NewRasterizer(w, h)

	for _, t := range fig.Traces {
		c, err := parseHex(t.Color)
		if err != nil {
			return nil, fmt.Errorf("trace %q: %w", t.Name, err)
		}
		z.Reset(w, h)

		switch t.Mode {
		case Lines:
			strokeLine(z, proj, t, t.LineWidth*scale)
		case Markers:
			for i := range t.Lat {
				x, y := proj.point(t.Lat[i], t.Lon[i])
				fillPolygon(z, circle(x, y, t.MarkerSize*scale/2))
			}
		default:
			return nil, fmt.Errorf("trace %q: unknown mode %q", t.Name, t.Mode)
		}
		z.Draw(img, img.Bounds(), image.NewUniform(c), image.Point{})
	}

	if err := drawTitle(img, l, scale); err != nil {
		return nil, err
	}
	return img, nil
}

func strokeLine(z *vector.Rasterizer, proj projection, t Trace, width float64) {
	if len(t.Lat) == 0 {
		return
	}
	half := width / 2
	px, py := proj.point(t.Lat[0], t.Lon[0])
	fillPolygon(z, circle(px, py, half))
	for i := 1; i < len(t.Lat); i++ {
		x, y := proj.point(t.Lat[i], t.Lon[i])
		dx, dy := x-px, y-py
		if d := math.Hypot(dx, dy); d > 0 {
			nx, ny := -dy/d*half, dx/d*half
			fillPolygon(z, [][2]float64{
				{px + nx, py + ny},
				{x + nx, y + ny},
				{x - nx, y - ny},
				{px - nx, py - ny},
			})
		}
		// round join
		fillPolygon(z, circle(x, y, half))
		px, py = x, y
	}
}

func circle(cx, cy, r float64) [][2]float64 {
	pts := make([][2]float64, circlePoints)
	for i := range pts {
		a := 2 * math.Pi * float64(i) / circlePoints
		pts[i] = [2]float64{cx + r*math.Cos(a), cy + r*math.Sin(a)}
	}
	return pts
}

// fillPolygon adds pts to z with a fixed winding, so overlapping shapes
// accumulate instead of cancelling.
func fillPolygon(z *vector.Rasterizer, pts [][2]float64) {
	if len(pts) < 3 {
		return
	}
	var area float64
	for i := range pts {
		j := (i + 1) % len(pts)
		area += pts[i][0]*pts[j][1] - pts[j][0]*pts[i][1]
	}
	if area < 0 {
		for i, j := 0, len(pts)-1; i < j; i, j = i+1, j-1 {
			pts[i], pts[j] = pts[j], pts[i]
		}
	}
	z.MoveTo(float32(pts[0][0]), float32(pts[0][1]))
	for _, p := range pts[1:] {
		z.LineTo(float32(p[0]), float32(p[1]))
	}
	z.ClosePath()
}

// drawTitle renders the title with the built-in bitmap face, magnified to
// the requested font size.
func drawTitle(img *image.RGBA, l Layout, scale float64) error {
	if l.Title == "" {
		return nil
	}
	c, err := parseHex(l.FontColor)
	if err != nil {
		return err
	}

	face := basicfont.Face7x13
	d := &font.Drawer{Src: image.NewUniform(c), Face: face}
	tw := d.MeasureString(l.Title).Ceil()
	th := face.Height

	small := image.NewRGBA(image.Rect(0, 0, tw, th))
	d.Dst = small
	d.Dot = fixed.P(0, face.Ascent)
	d.DrawString(l.Title)

	mag := l.TitleFontSize / float64(th) * scale
	if mag <= 0 {
		mag = scale
	}
	x := int(0.03 * float64(img.Bounds().Dx()))
	y := int(0.03 * float64(img.Bounds().Dy()))
	dst := image.Rect(x, y, x+int(float64(tw)*mag), y+int(float64(th)*mag))
	xdraw.NearestNeighbor.Scale(img, dst, small, small.Bounds(), draw.Over, nil)
	return nil
}

func parseHex(s string) (color.RGBA, error) {
	h := strings.TrimPrefix(s, "#")
	if len(h) == 3 {
		h = string([]byte{h[0], h[0], h[1], h[1], h[2], h[2]})
	}
	if len(h) != 6 {
		return color.RGBA{}, fmt.Errorf("render: bad color %q", s)
	}
	v, err := strconv.ParseUint(h, 16, 32)
	if err != nil {
		return color.RGBA{}, fmt.Errorf("render: bad color %q: %w", s, err)
	}
	return color.RGBA{R: uint8(v >> 16), G: uint8(v >> 8), B: uint8(v), A: 0xff}, nil
}
