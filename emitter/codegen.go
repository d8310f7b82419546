// Copyright (c) 2019 Open2b Software Snc. All rights reserved.
// https://www.open2b.com

// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package emitter

import (
	"fmt"
	"strconv"
	"strings"

	"golang.org/x/tools/imports"

	"github.com/open2b/mustatic/ast"
)

// Input is everything codegen needs to assemble one generated source file
// for one registered model.
type Input struct {
	PackageName string
	AdapterName string
	// ModelGoType is the literal Go type expression the generated methods
	// take by value, e.g. "blog.Post" or "Order".
	ModelGoType string
	Charset     string
	Format      ast.Format
	Tree        *ast.Tree
	// ExtraSupportedTypes are additional literal Go type expressions
	// (from model.Template.Interfaces) that SupportsType must also accept.
	ExtraSupportedTypes []string
	// ModelImportPath is the import path ModelGoType is declared in, empty
	// if ModelGoType is unqualified (same package as the generated file,
	// or a predeclared type). imports.Process only prunes and regroups
	// imports already present in source text; it cannot discover an
	// external package path on its own, so Generate adds this one
	// explicitly rather than relying on it.
	ModelImportPath string
}

// Generate assembles a complete Go source file implementing the generated
// Renderer contract (Execute, Write, TemplateCharset, SupportsType) for
// in.Tree, then runs it through golang.org/x/tools/imports.Process so
// formatting and import management are never hand-rolled, matching
// cmd/scriggo's own generators.
func Generate(in Input) ([]byte, error) {
	g := &generator{format: in.Format}
	g.names = []string{"m"}
	g.loop = []loopVars{{}}
	var body strings.Builder
	g.b = &body
	g.emitNodes(in.Tree.Nodes)

	var out strings.Builder
	fmt.Fprintf(&out, "// Code generated by mustaticgen from %s. DO NOT EDIT.\n\n", in.Tree.Path)
	fmt.Fprintf(&out, "package %s\n\n", in.PackageName)
	out.WriteString("import (\n\t\"io\"\n\t\"reflect\"\n\t\"strings\"\n\n")
	if in.ModelImportPath != "" {
		fmt.Fprintf(&out, "\t%s\n\n", strconv.Quote(in.ModelImportPath))
	}
	out.WriteString("\t\"github.com/open2b/mustatic/ast\"\n\t\"github.com/open2b/mustatic/emitter\"\n)\n\n")
	fmt.Fprintf(&out, "// %s renders %s.\ntype %s struct{}\n\n", in.AdapterName, in.Tree.Path, in.AdapterName)

	fmt.Fprintf(&out, "func (r *%s) Execute(m %s, w io.Writer) error {\n", in.AdapterName, in.ModelGoType)
	out.WriteString(body.String())
	out.WriteString("\treturn nil\n}\n\n")

	fmt.Fprintf(&out, "func (r *%s) Write(m %s, w emitter.ByteSink) error {\n\treturn r.Execute(m, w)\n}\n\n", in.AdapterName, in.ModelGoType)

	fmt.Fprintf(&out, "func (r *%s) TemplateCharset() string {\n\treturn %s\n}\n\n", in.AdapterName, strconv.Quote(in.Charset))

	out.WriteString(g.supportsType(in))

	return imports.Process("", []byte(out.String()), nil)
}

func (g *generator) supportsType(in Input) string {
	var b strings.Builder
	fmt.Fprintf(&b, "func (r *%s) SupportsType(t reflect.Type) bool {\n", in.AdapterName)
	fmt.Fprintf(&b, "\tswitch t {\n\tcase reflect.TypeOf(%s{}):\n\t\treturn true\n", in.ModelGoType)
	fmt.Fprintf(&b, "\tcase reflect.TypeOf(&%s{}):\n\t\treturn true\n", in.ModelGoType)
	for _, extra := range in.ExtraSupportedTypes {
		fmt.Fprintf(&b, "\tcase reflect.TypeOf((*%s)(nil)).Elem():\n\t\treturn true\n", extra)
	}
	b.WriteString("\t}\n\treturn false\n}\n")
	return b.String()
}

// loopVars names the index/first/last variables bound by the nearest
// enclosing loop frame; zero value means "no loop frame at this depth".
type loopVars struct {
	index, first, last string
}

// generator holds the in-progress code generation walk of one tree; its
// frame stack mirrors resolver.resolver's, one Go variable name per frame.
type generator struct {
	b      *strings.Builder
	format ast.Format
	names  []string
	loop   []loopVars
	tmp    int
}

func (g *generator) newTemp(prefix string) string {
	g.tmp++
	return fmt.Sprintf("__%s%d", prefix, g.tmp)
}

func (g *generator) pushFrame(name string, lv loopVars) {
	g.names = append(g.names, name)
	g.loop = append(g.loop, lv)
}

func (g *generator) popFrame() {
	g.names = g.names[:len(g.names)-1]
	g.loop = g.loop[:len(g.loop)-1]
}

func (g *generator) emitNodes(nodes []ast.Node) {
	for _, n := range nodes {
		g.emitNode(n)
	}
}

func (g *generator) emitNode(n ast.Node) {
	switch t := n.(type) {
	case *ast.Text:
		g.emitText(t)
	case *ast.Comment:
		// comments never emit anything
	case *ast.Var:
		g.emitVar(t)
	case *ast.Section:
		g.emitSection(t)
	case *ast.Inverted:
		g.emitInverted(t)
	case *ast.Block:
		g.emitNodes(t.Default)
	case *ast.Partial:
		g.emitNodes(t.Resolved)
	case *ast.Parent:
		g.emitNodes(t.Resolved)
	}
}

func (g *generator) emitText(t *ast.Text) {
	s := t.String()
	if s == "" {
		return
	}
	fmt.Fprintf(g.b, "\tif _, err := io.WriteString(w, %s); err != nil {\n\t\treturn err\n\t}\n", strconv.Quote(s))
}

// buildAccess writes any statements needed to evaluate resolved's accessor
// chain (materializing a temp variable for each error-returning method
// call along the way) and returns the final Go expression.
func (g *generator) buildAccess(resolved *ast.Resolved) string {
	if resolved.End == ast.EndContext {
		// "@context" is ambient: it always resolves against the root
		// model (frame 0), never the current section/loop frame, per
		// resolver.resolvePath.
		return g.names[0] + ".Context()"
	}
	expr := g.names[resolved.FrameIndex]
	for _, m := range resolved.Accessors {
		switch {
		case m.GoName == "":
			expr = fmt.Sprintf("%s[%s]", expr, strconv.Quote(m.Name))
		case m.IsMethod && m.ReturnsError:
			tmp := g.newTemp("v")
			fmt.Fprintf(g.b, "\t%s, err := %s.%s()\n\tif err != nil {\n\t\treturn err\n\t}\n", tmp, expr, m.GoName)
			expr = tmp
		case m.IsMethod:
			expr = fmt.Sprintf("%s.%s()", expr, m.GoName)
		default:
			expr = fmt.Sprintf("%s.%s", expr, m.GoName)
		}
	}
	return expr
}

func (g *generator) emitVar(v *ast.Var) {
	r := v.Resolved
	if r.End == ast.EndLoopMeta {
		lv := g.loop[r.FrameIndex]
		var varName string
		switch v.Path.Idents[0] {
		case "-index":
			varName = lv.index
		case "-first":
			varName = lv.first
		case "-last":
			varName = lv.last
		}
		g.writeInterpolation(varName, v.Escaped)
		return
	}

	access := g.buildAccess(r)

	if r.End == ast.EndNullable {
		// the nil check has to happen here, against access's own concrete
		// pointer/interface type: a nil *T boxed into interface{} and
		// compared there is never == nil, so this cannot be pushed down
		// into Formatter.Format.
		pVar := g.newTemp("p")
		fmt.Fprintf(g.b, "\t%s := %s\n", pVar, access)
		fmt.Fprintf(g.b, "\tif %s == nil {\n", pVar)
		fmt.Fprintf(g.b, "\t\tif _, err := io.WriteString(w, \"\"); err != nil {\n\t\t\treturn err\n\t\t}\n")
		fmt.Fprintf(g.b, "\t} else {\n")
		if stringer, ok := g.preEscapedCall(r, "(*"+pVar+")"); ok {
			fmt.Fprintf(g.b, "\t\tif _, err := io.WriteString(w, string(%s)); err != nil {\n\t\t\treturn err\n\t\t}\n", stringer)
			g.b.WriteString("\t}\n")
			return
		}
		g.writeInterpolation("*"+pVar, v.Escaped)
		g.b.WriteString("\t}\n")
		return
	}

	// a value whose static type implements the content type's pre-escaped
	// Stringer convention is always written raw, regardless of whether the
	// tag itself used "{{x}}" or "{{{x}}}": the static type is the source
	// of truth for whether a value is already safe.
	if stringer, ok := g.preEscapedCall(r, access); ok {
		fmt.Fprintf(g.b, "\tif _, err := io.WriteString(w, string(%s)); err != nil {\n\t\treturn err\n\t}\n", stringer)
		return
	}

	valueExpr := access
	if r.End == ast.EndLambda {
		if r.LambdaTakesBody {
			valueExpr = fmt.Sprintf("%s(\"\")", access)
		} else {
			valueExpr = fmt.Sprintf("%s()", access)
		}
	}
	g.writeInterpolation(valueExpr, v.Escaped)
}

// preEscapedCall reports, at generation time, whether resolved's static Go
// type has a zero-argument method matching the current content type's
// pre-escaped Stringer convention (model.HTMLStringer and friends); if so
// it returns the Go expression calling that method directly, bypassing the
// Formatter/Escape pass entirely since the value is already safe for this
// content type.
func (g *generator) preEscapedCall(r *ast.Resolved, access string) (string, bool) {
	if r.Elem == nil || r.Elem.GoType == nil {
		return "", false
	}
	var method string
	switch g.format {
	case ast.FormatHTML, ast.FormatMarkdown:
		method = "HTML"
	case ast.FormatCSS:
		method = "CSS"
	case ast.FormatJS:
		method = "JS"
	case ast.FormatJSON:
		method = "JSON"
	default:
		return "", false
	}
	if _, ok := r.Elem.GoType.MethodByName(method); !ok {
		return "", false
	}
	return fmt.Sprintf("%s.%s()", access, method), true
}

// writeInterpolation emits the formatter+escaper (or raw write, for an
// unescaped interpolation) call for valueExpr.
func (g *generator) writeInterpolation(valueExpr string, escaped bool) {
	sVar := g.newTemp("s")
	fmt.Fprintf(g.b, "\t%s, err := emitter.DefaultFormatter.Format(%s)\n\tif err != nil {\n\t\treturn err\n\t}\n", sVar, valueExpr)
	if escaped {
		fmt.Fprintf(g.b, "\tif err := emitter.Escape(%s, w, %s); err != nil {\n\t\treturn err\n\t}\n", formatConst(g.format), sVar)
	} else {
		fmt.Fprintf(g.b, "\tif err := emitter.EscapeNone(w, %s); err != nil {\n\t\treturn err\n\t}\n", sVar)
	}
}

func formatConst(f ast.Format) string {
	switch f {
	case ast.FormatHTML:
		return "ast.FormatHTML"
	case ast.FormatText:
		return "ast.FormatText"
	case ast.FormatCSS:
		return "ast.FormatCSS"
	case ast.FormatJS:
		return "ast.FormatJS"
	case ast.FormatJSON:
		return "ast.FormatJSON"
	case ast.FormatMarkdown:
		return "ast.FormatMarkdown"
	}
	return "ast.FormatHTML"
}

func (g *generator) emitSection(s *ast.Section) {
	r := s.Resolved
	switch r.End {
	case ast.EndIterable:
		access := g.buildAccess(r)
		listVar := g.newTemp("list")
		fmt.Fprintf(g.b, "\t%s := %s\n", listVar, access)
		idxVar := g.newTemp("i")
		nVar := g.newTemp("n")
		elemVar := g.newTemp("v")
		fmt.Fprintf(g.b, "\t%s := len(%s)\n", nVar, listVar)
		fmt.Fprintf(g.b, "\tfor %s, %s := range %s {\n", idxVar, elemVar, listVar)
		firstVar := g.newTemp("first")
		lastVar := g.newTemp("last")
		fmt.Fprintf(g.b, "\t%s := %s == 0\n", firstVar, idxVar)
		fmt.Fprintf(g.b, "\t%s := %s == %s-1\n", lastVar, idxVar, nVar)
		// the loop body may never read the element, or "-first"/"-last",
		// directly (e.g. it only uses literal text or "-index").
		fmt.Fprintf(g.b, "\t_, _, _ = %s, %s, %s\n", elemVar, firstVar, lastVar)
		g.pushFrame(elemVar, loopVars{index: idxVar, first: firstVar, last: lastVar})
		g.emitNodes(s.Children)
		g.popFrame()
		g.b.WriteString("\t}\n")
	case ast.EndRecord, ast.EndNullable:
		access := g.buildAccess(r)
		recVar := g.newTemp("rec")
		fmt.Fprintf(g.b, "\t%s := %s\n", recVar, access)
		open := "\t{\n"
		if r.End == ast.EndNullable {
			open = fmt.Sprintf("\tif %s != nil {\n", recVar)
		} else {
			// the section body may never read recVar directly (e.g. it
			// only contains literal text), so guard against an
			// unused-variable error.
			fmt.Fprintf(g.b, "\t_ = %s\n", recVar)
		}
		g.b.WriteString(open)
		g.pushFrame(recVar, loopVars{})
		g.emitNodes(s.Children)
		g.popFrame()
		g.b.WriteString("\t}\n")
	case ast.EndBool:
		access := g.buildAccess(r)
		fmt.Fprintf(g.b, "\tif %s {\n", access)
		g.emitNodes(s.Children)
		g.b.WriteString("\t}\n")
	case ast.EndContext:
		g.emitNodes(s.Children)
	case ast.EndLambda:
		g.emitLambdaSection(s, r)
	}
}

// emitLambdaSection renders the section's body into a buffer, then passes
// the rendered text to the lambda as its body argument: the lambda sees the
// already rendered body, not the raw, unparsed template source, and its
// result is formatted and escaped, not parsed as a template.
func (g *generator) emitLambdaSection(s *ast.Section, r *ast.Resolved) {
	access := g.buildAccess(r)
	bufVar := g.newTemp("buf")
	fmt.Fprintf(g.b, "\tvar %s strings.Builder\n", bufVar)
	savedW := g.swapWriter(bufVar)
	g.emitNodes(s.Children)
	g.restoreWriter(savedW)
	var call string
	if r.LambdaTakesBody {
		call = fmt.Sprintf("%s(%s.String())", access, bufVar)
	} else {
		call = fmt.Sprintf("%s()", access)
	}
	g.writeInterpolation(call, true)
}

func (g *generator) swapWriter(newW string) string {
	// nested writer redirection is implemented lexically: children emitted
	// between swapWriter/restoreWriter reference "w" as usual, so the
	// simplest correct approach is to shadow w via a new block scope.
	fmt.Fprintf(g.b, "\tif err := func() error {\n\t\tw := %s\n", "&"+newW)
	return newW
}

func (g *generator) restoreWriter(string) {
	g.b.WriteString("\t\treturn nil\n\t}(); err != nil {\n\t\treturn err\n\t}\n")
}

func (g *generator) emitInverted(inv *ast.Inverted) {
	r := inv.Resolved
	switch r.End {
	case ast.EndBool, ast.EndNullable, ast.EndIterable:
		access := g.buildAccess(r)
		var cond string
		switch r.End {
		case ast.EndBool:
			cond = fmt.Sprintf("!(%s)", access)
		case ast.EndNullable:
			cond = fmt.Sprintf("%s == nil", access)
		case ast.EndIterable:
			cond = fmt.Sprintf("len(%s) == 0", access)
		}
		fmt.Fprintf(g.b, "\tif %s {\n", cond)
		g.emitNodes(inv.Children)
		g.b.WriteString("\t}\n")
	case ast.EndLoopMeta:
		lv := g.loop[r.FrameIndex]
		var cond string
		switch inv.Path.Idents[0] {
		case "-first":
			cond = "!" + lv.first
		case "-last":
			cond = "!" + lv.last
		default:
			// "-index" is a number, never falsy.
			return
		}
		fmt.Fprintf(g.b, "\tif %s {\n", cond)
		g.emitNodes(inv.Children)
		g.b.WriteString("\t}\n")
	default:
		// a record/map, lambda, ambient context or plain value is never
		// falsy: an inverted section over one never renders.
	}
}
