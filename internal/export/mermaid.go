package export

import (
	"fmt"
	"path"
	"path/filepath"
	"strings"

	"github.com/dusk-indust/codegenius/internal/graph"
)

// DiagramKind names one of the Mermaid renderers.
type DiagramKind string

const (
	DiagramClass        DiagramKind = "class"
	DiagramCalls        DiagramKind = "calls"
	DiagramArchitecture DiagramKind = "architecture"
)

// DiagramKinds lists the renderers in a stable order.
var DiagramKinds = []DiagramKind{DiagramClass, DiagramCalls, DiagramArchitecture}

// FileCounter is the slice of the file-tree summary the architecture diagram
// needs.
type FileCounter interface {
	FileCount() int
}

// ClassDiagram renders a Mermaid classDiagram. Classes are emitted in graph
// insertion order; a class whose block id was already rendered from an earlier
// class is skipped entirely, parents included. The id is the sanitized bare
// name, so names differing only in characters Mermaid cannot take collapse.
func ClassDiagram(g *graph.CodeGraph) string {
	var sb strings.Builder
	sb.WriteString("classDiagram\n")

	rendered := newOrderedSet()
	for _, fa := range g.Files() {
		for _, cls := range fa.Classes {
			name := sanitizeID(cls.Name)
			if !rendered.add(name) {
				continue
			}

			sb.WriteString(fmt.Sprintf("    class %s {\n", name))
			for _, m := range cls.Methods {
				sb.WriteString(fmt.Sprintf("        %s\n", sanitizeMember(m.Signature)))
			}
			sb.WriteString("    }\n")

			for _, parent := range cls.ParentClasses {
				sb.WriteString(fmt.Sprintf("    %s <|-- %s\n", sanitizeID(parent), name))
			}
		}
	}
	return sb.String()
}

// CallGraph renders a Mermaid "graph TD" with one subgraph per file base
// name. Files sharing a base name in different directories share a subgraph.
// One edge is emitted per FunctionInfo.Calls entry.
func CallGraph(g *graph.CodeGraph) string {
	type group struct {
		base string
		fns  *orderedSet
	}

	var groups []*group
	byBase := make(map[string]*group)
	for _, fa := range g.Files() {
		base := baseName(fa.FilePath)
		grp, ok := byBase[base]
		if !ok {
			grp = &group{base: base, fns: newOrderedSet()}
			byBase[base] = grp
			groups = append(groups, grp)
		}
		for _, fn := range fa.Functions {
			grp.fns.add(fn.Name)
		}
	}

	var sb strings.Builder
	sb.WriteString("graph TD\n")

	for _, grp := range groups {
		sb.WriteString(fmt.Sprintf("    subgraph %s[\"%s\"]\n", sanitizeID(grp.base), sanitizeLabel(grp.base)))
		for _, fn := range grp.fns.order {
			sb.WriteString(fmt.Sprintf("        %s[\"%s\"]\n", functionID(grp.base, fn), sanitizeLabel(fn)))
		}
		sb.WriteString("    end\n")
	}

	for _, fa := range g.Files() {
		base := baseName(fa.FilePath)
		grp := byBase[base]
		for _, fn := range fa.Functions {
			for _, call := range fn.Calls {
				target := sanitizeID(call)
				if grp.fns.has(call) {
					target = functionID(base, call)
				}
				sb.WriteString(fmt.Sprintf("    %s --> %s\n", functionID(base, fn.Name), target))
			}
		}
	}
	return sb.String()
}

// ArchitectureDiagram renders the fixed pipeline overview plus the total file
// count reported by files.
func ArchitectureDiagram(files FileCounter) string {
	total := 0
	if files != nil {
		total = files.FileCount()
	}

	var sb strings.Builder
	sb.WriteString("graph TB\n")
	sb.WriteString("    A[CodeGenius] --> B[Repository Analysis]\n")
	sb.WriteString("    B --> C[File Structure]\n")
	sb.WriteString("    B --> D[Code Analysis]\n")
	sb.WriteString("    C --> E[Documentation]\n")
	sb.WriteString("    D --> E\n")
	sb.WriteString(fmt.Sprintf("    F[Total Files: %d] --> E\n", total))
	return sb.String()
}

// Render dispatches to the renderer for kind.
func Render(kind DiagramKind, g *graph.CodeGraph, files FileCounter) (string, error) {
	switch kind {
	case DiagramClass:
		return ClassDiagram(g), nil
	case DiagramCalls:
		return CallGraph(g), nil
	case DiagramArchitecture:
		return ArchitectureDiagram(files), nil
	default:
		return "", fmt.Errorf("unknown diagram kind %q", kind)
	}
}

// orderedSet remembers insertion order for deterministic output.
type orderedSet struct {
	order []string
	index map[string]struct{}
}

func newOrderedSet() *orderedSet {
	return &orderedSet{index: make(map[string]struct{})}
}

// add inserts s and reports whether it was new.
func (o *orderedSet) add(s string) bool {
	if _, ok := o.index[s]; ok {
		return false
	}
	o.index[s] = struct{}{}
	o.order = append(o.order, s)
	return true
}

func (o *orderedSet) has(s string) bool {
	_, ok := o.index[s]
	return ok
}

func functionID(base, fn string) string {
	return sanitizeID(base + "_" + fn)
}

// baseName returns the last path segment regardless of separator style.
func baseName(p string) string {
	return path.Base(filepath.ToSlash(p))
}

// sanitizeID maps every rune outside [A-Za-z0-9_] to '_'.
func sanitizeID(s string) string {
	if s == "" {
		return "_"
	}
	return strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '_':
			return r
		default:
			return '_'
		}
	}, s)
}

var labelReplacer = strings.NewReplacer(`"`, "#quot;", "\n", " ", "\r", " ")

// sanitizeLabel makes s safe inside ["..."].
func sanitizeLabel(s string) string {
	return labelReplacer.Replace(s)
}

var memberReplacer = strings.NewReplacer("{", "", "}", "", "\n", " ", "\r", " ")

// sanitizeMember makes a method signature safe inside a class block.
func sanitizeMember(s string) string {
	return strings.TrimSpace(memberReplacer.Replace(s))
}
