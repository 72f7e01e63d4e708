// Package gen emits the decision structures of a decoder as Go source, so
// that a program can dispatch instruction words without building trees at
// startup.
package gen

import (
	"bytes"
	"fmt"
	"strings"
	"unicode"

	"golang.org/x/tools/imports"

	"github.com/apparentlymart/arm-meta/decode"
	"github.com/apparentlymart/arm-meta/dispatch"
	"github.com/apparentlymart/arm-meta/isa"
)

type Options struct {
	// Package is the name of the generated package. The default is the
	// table name.
	Package string
}

// FileName is the conventional name of the file generated for a table.
func FileName(table *isa.Table) string {
	return fileStem(table.Name()) + "_dispatch.go"
}

// Generate returns formatted Go source declaring, for each encoding width
// of the decoder's table, a function that maps a word to the
// discriminants of its candidate encodings in priority order, along with
// a constant for every discriminant.
func Generate(dec *decode.Decoder, opts Options) ([]byte, error) {
	table := dec.Table()
	if opts.Package == "" {
		opts.Package = fileStem(table.Name())
	}
	g := &generator{
		prefix: exportedName(table.Name()),
		leaves: make(map[*dispatch.Node]int),
	}

	fmt.Fprintf(&g.buf, "// Code generated by armdis gen from the %s table. DO NOT EDIT.\n\n", table.Name())
	fmt.Fprintf(&g.buf, "package %s\n\n", opts.Package)
	g.constants(table)
	for _, width := range table.Widths() {
		tree := dec.Tree(width)
		if tree == nil {
			continue
		}
		g.function(width, tree)
	}
	g.leafTable()

	src, err := imports.Process(FileName(table), g.buf.Bytes(), nil)
	if err != nil {
		return nil, fmt.Errorf("formatting generated source: %w", err)
	}
	return src, nil
}

type generator struct {
	buf    bytes.Buffer
	prefix string

	leaves    map[*dispatch.Node]int
	leafOrder []*dispatch.Node
}

func (g *generator) constants(table *isa.Table) {
	g.buf.WriteString("// Encoding discriminants.\nconst (\n")
	for _, op := range table.Opcodes() {
		for i, enc := range op.Encodings {
			name := g.prefix + exportedName(op.Name)
			if len(op.Encodings) > 1 {
				name += fmt.Sprint(i)
			}
			fmt.Fprintf(&g.buf, "\t%s = %d // %s\n", name, enc.Discriminant(), enc)
		}
	}
	g.buf.WriteString(")\n\n")
}

func (g *generator) function(width isa.Width, tree *dispatch.Tree) {
	fmt.Fprintf(&g.buf, "// %s%s returns the candidate encodings of a %s word. Each candidate\n", g.prefix, exportedName(width.String()), width)
	g.buf.WriteString("// must still be tested against the word's bits.\n")
	fmt.Fprintf(&g.buf, "func %s%s(w uint32) []int {\n", g.prefix, exportedName(width.String()))
	g.node(tree.Root, 1)
	g.buf.WriteString("}\n\n")
}

func (g *generator) node(n *dispatch.Node, depth int) {
	indent := strings.Repeat("\t", depth)
	if n.IsLeaf() {
		fmt.Fprintf(&g.buf, "%sreturn %sLeaves[%d]\n", indent, lowerFirst(g.prefix), g.leaf(n))
		return
	}
	terms := make([]string, len(n.Bits))
	for i, b := range n.Bits {
		terms[i] = fmt.Sprintf("int(w>>%d&1)<<%d", b, i)
	}
	fmt.Fprintf(&g.buf, "%sswitch %s {\n", indent, strings.Join(terms, " | "))
	for key, child := range n.Children {
		if key == len(n.Children)-1 {
			fmt.Fprintf(&g.buf, "%sdefault:\n", indent)
		} else {
			fmt.Fprintf(&g.buf, "%scase %d:\n", indent, key)
		}
		g.node(child, depth+1)
	}
	fmt.Fprintf(&g.buf, "%s}\n", indent)
}

// leaf numbers each distinct leaf once, so shared leaves stay shared in
// the generated code.
func (g *generator) leaf(n *dispatch.Node) int {
	if id, ok := g.leaves[n]; ok {
		return id
	}
	id := len(g.leafOrder)
	g.leaves[n] = id
	g.leafOrder = append(g.leafOrder, n)
	return id
}

func (g *generator) leafTable() {
	fmt.Fprintf(&g.buf, "var %sLeaves = [...][]int{\n", lowerFirst(g.prefix))
	for _, n := range g.leafOrder {
		refs := make([]string, len(n.Candidates))
		for i, c := range n.Candidates {
			refs[i] = fmt.Sprint(c.Ref)
		}
		fmt.Fprintf(&g.buf, "\t{%s},\n", strings.Join(refs, ", "))
	}
	g.buf.WriteString("}\n")
}

func lowerFirst(s string) string {
	if s == "" {
		return s
	}
	return strings.ToLower(s[:1]) + s[1:]
}

func isIdentRune(r rune) bool {
	return unicode.IsLetter(r) || unicode.IsDigit(r)
}

// fileStem lower-cases a table name for use in file and package names.
func fileStem(name string) string {
	return noLeadingDigit(strings.Map(func(r rune) rune {
		if isIdentRune(r) {
			return unicode.ToLower(r)
		}
		return '_'
	}, name))
}

// exportedName turns a name such as "lsl_imm" into "LslImm". Every word
// and every letter that follows a digit starts upper case.
func exportedName(name string) string {
	var b strings.Builder
	for _, word := range strings.FieldsFunc(name, func(r rune) bool { return !isIdentRune(r) }) {
		upper := true
		for _, r := range strings.ToLower(word) {
			if upper {
				r = unicode.ToUpper(r)
			}
			b.WriteRune(r)
			upper = unicode.IsDigit(r)
		}
	}
	return noLeadingDigit(b.String())
}

func noLeadingDigit(s string) string {
	if s != "" && s[0] >= '0' && s[0] <= '9' {
		return "_" + s
	}
	return s
}
