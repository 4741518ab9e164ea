package barcode

import (
	"fmt"
	"html"
	"strings"
)

type SVGOptions struct {
	// Module is the pixel width of one narrow unit.
	Module int
	Height int
	// DisplayWidth is the width attribute of the svg element; zero keeps the
	// natural width.
	DisplayWidth int
}

func DefaultSVGOptions() SVGOptions {
	return SVGOptions{Module: 2, Height: 120, DisplayWidth: 280}
}

// SVG draws the barcode with its original text as a label underneath.
func SVG(b Barcode, opts SVGOptions) string {
	if opts.Module <= 0 {
		opts.Module = 2
	}
	if opts.Height <= 20 {
		opts.Height = 120
	}
	viewWidth := b.ViewWidth * opts.Module
	displayWidth := opts.DisplayWidth
	if displayWidth <= 0 {
		displayWidth = viewWidth
	}
	barHeight := opts.Height - 20

	var sb strings.Builder
	fmt.Fprintf(&sb, `<svg xmlns="http://www.w3.org/2000/svg" width="%d" height="%d" viewBox="0 0 %d %d">`,
		displayWidth, opts.Height, viewWidth, opts.Height)
	fmt.Fprintf(&sb, `<rect x="0" y="0" width="%d" height="%d" fill="#fff"/>`, viewWidth, opts.Height)
	for _, bar := range b.Bars {
		fmt.Fprintf(&sb, `<rect x="%d" y="0" width="%d" height="%d" fill="#000"/>`,
			bar.Offset*opts.Module, bar.Width*opts.Module, barHeight)
	}
	fmt.Fprintf(&sb, `<text x="%d" y="%d" fill="#000" font-size="16" text-anchor="middle" font-family="monospace">%s</text>`,
		viewWidth/2, opts.Height-5, html.EscapeString(b.Text))
	sb.WriteString(`</svg>`)
	return sb.String()
}
