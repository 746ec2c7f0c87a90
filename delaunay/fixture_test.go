package delaunay

import (
	"embed"
	"log"
	"strconv"
	"strings"

	"github.com/JoshVarga/svgparser"
)

// This file parses the svg fixtures and outputs constraint polygons. This
// is not a full (or even correct) svg parser. It parses the SVG and then
// finds whatever the first polygon is, then converts that into a vertex
// ring. If anything goes wrong, it panics.
//
// Fixtures are available by name in the fixtures/ directory, sans
// extension.

//go:embed fixtures
var fixtures embed.FS

// loadFixtureRing returns the polygon's vertices with ids starting at
// baseID.
func loadFixtureRing(name string, baseID int) []*Vertex {
	fixture, err := fixtures.Open("fixtures/" + name + ".svg")
	if err != nil {
		log.Fatalf("Could not load fixture %q: %v", name, err)
	}
	defer fixture.Close()

	rootEl, err := svgparser.Parse(fixture, true)
	if err != nil {
		log.Fatalf("Failed to parse fixture %q: %v", name, err)
	}

	polygons := rootEl.FindAll("polygon")
	if len(polygons) == 0 {
		log.Fatalf("No polygons found in fixture %q", name)
	}
	if len(polygons) > 1 {
		log.Fatalf("More than one polygon found in fixture %q", name)
	}
	polygonEl := polygons[0]

	pointString := polygonEl.Attributes["points"]
	var vertices []*Vertex
	for _, field := range strings.Fields(pointString) {
		coords := strings.Split(field, ",")
		if len(coords) != 2 {
			log.Fatalf("Invalid point string %q", field)
		}
		x, err := strconv.ParseFloat(coords[0], 64)
		if err != nil {
			log.Fatalf("Invalid x value %q: %v", coords[0], err)
		}
		y, err := strconv.ParseFloat(coords[1], 64)
		if err != nil {
			log.Fatalf("Invalid y value %q: %v", coords[1], err)
		}
		vertices = append(vertices, NewVertex(x, y, 0, baseID+len(vertices)))
	}
	return vertices
}
