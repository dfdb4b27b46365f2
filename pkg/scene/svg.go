package scene

import (
	"html"
	"io"
	"strings"
)

// WriteSVG writes the current scene as a standalone SVG document.
func (r *Renderer) WriteSVG(w io.Writer) error {
	if r.root == nil {
		return nil
	}
	sw := &svgWriter{w: w}
	sw.write(`<?xml version="1.0" encoding="UTF-8"?>` + "\n")
	sw.element(r.root, true)
	sw.write("\n")
	return sw.err
}

// Markup returns e and its subtree as SVG markup.
func Markup(e *Element) (string, error) {
	var b strings.Builder
	sw := &svgWriter{w: &b}
	sw.element(e, false)
	return b.String(), sw.err
}

type svgWriter struct {
	w   io.Writer
	err error
}

func (sw *svgWriter) write(s string) {
	if sw.err != nil {
		return
	}
	_, sw.err = io.WriteString(sw.w, s)
}

func (sw *svgWriter) element(e *Element, root bool) {
	sw.write("<")
	sw.write(e.Tag)
	if root {
		sw.write(` xmlns="http://www.w3.org/2000/svg"`)
	}
	for _, a := range e.Attrs {
		sw.write(" ")
		sw.write(a.Name)
		sw.write(`="`)
		sw.write(html.EscapeString(a.Value))
		sw.write(`"`)
	}
	if len(e.Kids) == 0 && e.Text == "" {
		sw.write("/>")
		return
	}
	sw.write(">")
	sw.write(html.EscapeString(e.Text))
	for _, k := range e.Kids {
		sw.element(k, false)
	}
	sw.write("</")
	sw.write(e.Tag)
	sw.write(">")
}
