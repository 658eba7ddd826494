// Package render draws query plan trees as Graphviz diagrams.
package render

import (
	"bytes"
	"context"
	"fmt"
	"strings"

	"github.com/goccy/go-graphviz"

	"github.com/planprobe/planprobe/internal/plan"
)

// ToDOT converts a plan tree to Graphviz DOT. Each node shows its type,
// relation (for scans) and estimated vs actual rows; nodes whose estimate is
// off by more than 10x are filled red to make the problem spots jump out.
func ToDOT(root plan.Node) string {
	var buf bytes.Buffer
	buf.WriteString("digraph plan {\n")
	buf.WriteString("  rankdir=TB;\n")
	buf.WriteString("  node [shape=box, style=\"rounded,filled\", fillcolor=white, fontname=\"Helvetica\"];\n")
	buf.WriteString("\n")

	counter := 0
	writeNode(&buf, root, &counter)

	buf.WriteString("}\n")
	return buf.String()
}

func writeNode(buf *bytes.Buffer, n plan.Node, counter *int) string {
	id := fmt.Sprintf("n%d", *counter)
	*counter++

	attrs := []string{fmt.Sprintf("label=%q", nodeLabel(n))}
	if qe := absQError(n.PlanRows, n.ActualRows); qe > 10 {
		attrs = append(attrs, "fillcolor=lightcoral")
	}
	fmt.Fprintf(buf, "  %s [%s];\n", id, strings.Join(attrs, ", "))

	for _, child := range n.Plans {
		childID := writeNode(buf, child, counter)
		fmt.Fprintf(buf, "  %s -> %s;\n", id, childID)
	}
	return id
}

func nodeLabel(n plan.Node) string {
	label := n.NodeType
	if n.RelationName != "" {
		label += "\n" + n.RelationName
	}
	label += fmt.Sprintf("\nest %.0f / act %.0f", n.PlanRows, n.ActualRows)
	return label
}

func absQError(estimated, actual float64) float64 {
	if estimated < 1 {
		estimated = 1
	}
	if actual < 1 {
		actual = 1
	}
	if estimated > actual {
		return estimated / actual
	}
	return actual / estimated
}

// RenderSVG renders a DOT graph to SVG bytes.
func RenderSVG(ctx context.Context, dot string) ([]byte, error) {
	return renderFormat(ctx, dot, graphviz.SVG)
}

// RenderPNG renders a DOT graph to PNG bytes.
func RenderPNG(ctx context.Context, dot string) ([]byte, error) {
	return renderFormat(ctx, dot, graphviz.PNG)
}

func renderFormat(ctx context.Context, dot string, format graphviz.Format) ([]byte, error) {
	gv, err := graphviz.New(ctx)
	if err != nil {
		return nil, fmt.Errorf("init graphviz: %w", err)
	}
	defer gv.Close()

	g, err := graphviz.ParseBytes([]byte(dot))
	if err != nil {
		return nil, fmt.Errorf("parse DOT: %w", err)
	}
	defer g.Close()

	var buf bytes.Buffer
	if err := gv.Render(ctx, g, format, &buf); err != nil {
		return nil, fmt.Errorf("render: %w", err)
	}
	return buf.Bytes(), nil
}
