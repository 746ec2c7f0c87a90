package main

import (
	"bufio"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/opts"
	"github.com/logrusorgru/aurora"
	"go.uber.org/zap"
	kingpin "gopkg.in/alecthomas/kingpin.v2"

	"github.com/osuushi/tin"
)

// Demo of the triangulation and Voronoi engines. Input on stdin should be
// newline separated points in the form "x y" or "x y z". The demo builds
// the Delaunay mesh, prints its statistics, and optionally renders the
// mesh to a PNG or the bounded Voronoi diagram to an interactive HTML
// chart.
var (
	pngPath   = kingpin.Flag("png", "Render the triangulation to a PNG file").String()
	htmlPath  = kingpin.Flag("html", "Render the Voronoi diagram to an HTML chart").String()
	scale     = kingpin.Flag("scale", "Pixels per coordinate unit for PNG output").Default("32").Float64()
	voronoi   = kingpin.Flag("voronoi", "Print Voronoi diagnostics").Bool()
	verbose   = kingpin.Flag("verbose", "Enable structured diagnostics logging (applies with --spacing)").Short('v').Bool()
	spacing   = kingpin.Flag("spacing", "Override the nominal point spacing").Float64()
	showStats = kingpin.Flag("stats", "Print mesh construction statistics").Default("true").Bool()
)

func main() {
	kingpin.Parse()

	vertices := readVertices(os.Stdin)
	if len(vertices) < 3 {
		fmt.Fprintln(os.Stderr, aurora.Red("need at least 3 input points"))
		os.Exit(1)
	}
	fmt.Printf("Read %s points\n", aurora.Cyan(strconv.Itoa(len(vertices))))

	var mesh *tin.Mesh
	var err error
	if *spacing > 0 {
		mesh = tin.NewMesh(*spacing)
		if *verbose {
			logger, _ := zap.NewDevelopment()
			mesh.SetDiagnosticLogger(logger)
		}
		if _, err = mesh.AddVertices(vertices, nil); err == nil && !mesh.IsBootstrapped() {
			err = fmt.Errorf("input points are collinear")
		}
	} else {
		mesh, err = tin.BuildMesh(vertices)
	}
	if err != nil {
		fmt.Fprintln(os.Stderr, aurora.Red(err))
		os.Exit(1)
	}

	tc := mesh.CountTriangles()
	fmt.Printf("Triangles: %s   hull edges: %s\n",
		aurora.Green(strconv.Itoa(tc.Count)),
		aurora.Green(strconv.Itoa(len(mesh.Perimeter()))))

	if *showStats {
		mesh.PrintDiagnostics(os.Stdout)
	}

	if *pngPath != "" {
		if err := mesh.DrawPNG(*pngPath, *scale); err != nil {
			fmt.Fprintln(os.Stderr, aurora.Red(err))
			os.Exit(1)
		}
		fmt.Printf("wrote %s\n", aurora.Cyan(*pngPath))
	}

	if *voronoi || *htmlPath != "" {
		v, err := tin.NewVoronoi(mesh)
		if err != nil {
			fmt.Fprintln(os.Stderr, aurora.Red(err))
			os.Exit(1)
		}
		if *voronoi {
			v.PrintDiagnostics(os.Stdout)
		}
		if *htmlPath != "" {
			if err := renderHTML(v, vertices, *htmlPath); err != nil {
				fmt.Fprintln(os.Stderr, aurora.Red(err))
				os.Exit(1)
			}
			fmt.Printf("wrote %s\n", aurora.Cyan(*htmlPath))
		}
	}
}

func readVertices(in *os.File) []*tin.Vertex {
	var vertices []*tin.Vertex
	scanner := bufio.NewScanner(in)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		parts := strings.Fields(line)
		if len(parts) < 2 {
			continue
		}
		x, errX := strconv.ParseFloat(parts[0], 64)
		y, errY := strconv.ParseFloat(parts[1], 64)
		if errX != nil || errY != nil {
			continue
		}
		z := 0.0
		if len(parts) > 2 {
			z, _ = strconv.ParseFloat(parts[2], 64)
		}
		vertices = append(vertices, tin.NewVertex(x, y, z, len(vertices)))
	}
	return vertices
}

// renderHTML writes the Voronoi diagram as a scatter of sites overlaid
// with the cell edges.
func renderHTML(v *tin.Voronoi, vertices []*tin.Vertex, path string) error {
	scatter := charts.NewScatter()
	scatter.SetGlobalOptions(
		charts.WithInitializationOpts(opts.Initialization{
			Height: "720px",
			Width:  "1080px",
		}),
		charts.WithTitleOpts(opts.Title{
			Title: "Bounded Voronoi Diagram",
		}),
		charts.WithXAxisOpts(opts.XAxis{Type: "value"}),
		charts.WithYAxisOpts(opts.YAxis{Type: "value"}),
	)

	points := make([]opts.ScatterData, 0, len(vertices))
	for _, vtx := range vertices {
		points = append(points, opts.ScatterData{Value: []float64{vtx.X, vtx.Y}})
	}
	scatter.AddSeries("sites", points)

	for _, edge := range v.Edges() {
		a := edge.A()
		b := edge.B()
		if a == nil || b == nil {
			continue
		}
		line := charts.NewLine()
		line.AddSeries("cells", []opts.LineData{
			{Value: []float64{a.X, a.Y}},
			{Value: []float64{b.X, b.Y}},
		})
		scatter.Overlap(line)
	}

	out, err := os.Create(path)
	if err != nil {
		return err
	}
	defer out.Close()
	return scatter.Render(out)
}
