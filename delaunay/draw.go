package delaunay

import (
	"math"
	"os"

	"github.com/fogleman/gg"
	imgcat "github.com/martinlindhe/imgcat/lib"
)

// This is for debugging purposes only

const dbgDrawPadding = 8

type dbgCanvas struct {
	c     *gg.Context
	scale float64
}

func newDbgCanvas(bounds Rect, scale float64) *dbgCanvas {
	width := int(scale*bounds.Width()) + dbgDrawPadding*2
	height := int(scale*bounds.Height()) + dbgDrawPadding*2
	c := gg.NewContext(width, height)
	c.SetRGB(0, 0, 0)
	c.DrawRectangle(0, 0, float64(width), float64(height))
	c.Fill()

	// flip so the origin is at the bottom left
	c.Translate(0, float64(height))
	c.Scale(1, -1)

	c.Translate(dbgDrawPadding, dbgDrawPadding)
	c.Scale(scale, scale)
	c.Translate(-bounds.XMin, -bounds.YMin)
	return &dbgCanvas{c: c, scale: scale}
}

func (d *dbgCanvas) drawEdges(edges []*Edge, r, g, b float64) {
	d.c.SetLineWidth(1)
	d.c.SetRGB(r, g, b)
	for _, e := range edges {
		a := e.A()
		bb := e.B()
		if a == nil || bb == nil {
			continue
		}
		d.c.DrawLine(a.X, a.Y, bb.X, bb.Y)
		d.c.Stroke()
	}
}

func (d *dbgCanvas) drawVertices(vertices []*Vertex, r, g, b float64) {
	d.c.SetRGB(r, g, b)
	for _, v := range vertices {
		d.c.DrawCircle(v.X, v.Y, 2/d.scale)
		d.c.Fill()
	}
}

func (d *dbgCanvas) save(path string) {
	d.c.SavePNG(path)
	imgcat.CatFile(path, os.Stdout)
}

// dbgDraw renders the triangulation to a PNG, highlighting constrained
// edges, and previews it on the terminal when it supports imgcat.
func (m *Mesh) dbgDraw(scale float64) {
	bounds, ok := m.Bounds()
	if !ok {
		return
	}
	d := newDbgCanvas(bounds, scale)
	var plain, constrained []*Edge
	for _, e := range m.Edges() {
		if e.IsConstrained() {
			constrained = append(constrained, e)
		} else {
			plain = append(plain, e)
		}
	}
	d.drawEdges(plain, 0, 1, 1)
	d.drawEdges(constrained, 1, 0.5, 0)
	d.drawVertices(m.Vertices(), 0, 0.5, 0)
	d.save("/tmp/tin_mesh.png")
}

// dbgDraw renders the bounded Voronoi diagram to a PNG.
func (v *Voronoi) dbgDraw(scale float64) {
	d := newDbgCanvas(v.bounds, scale)
	d.drawEdges(v.Edges(), 0, 1, 1)
	d.drawVertices(v.Vertices(), 0, 0.5, 0)
	d.save("/tmp/tin_voronoi.png")
}

// DrawPNG renders the mesh to a PNG file at the given scale. Exposed for
// the demo binary; the library itself never renders.
func (m *Mesh) DrawPNG(path string, scale float64) error {
	bounds, ok := m.Bounds()
	if !ok {
		return ErrNotBootstrapped
	}
	if math.IsInf(bounds.XMin, 1) {
		return ErrNotBootstrapped
	}
	d := newDbgCanvas(bounds, scale)
	var plain, constrained []*Edge
	for _, e := range m.Edges() {
		if e.IsConstrained() {
			constrained = append(constrained, e)
		} else {
			plain = append(plain, e)
		}
	}
	d.drawEdges(plain, 0, 1, 1)
	d.drawEdges(constrained, 1, 0.5, 0)
	d.drawVertices(m.Vertices(), 0, 0.5, 0)
	return d.c.SavePNG(path)
}

// DrawPNG renders the diagram to a PNG file at the given scale.
func (v *Voronoi) DrawPNG(path string, scale float64) error {
	d := newDbgCanvas(v.bounds, scale)
	d.drawEdges(v.Edges(), 0, 1, 1)
	d.drawVertices(v.Vertices(), 0, 0.5, 0)
	return d.c.SavePNG(path)
}
