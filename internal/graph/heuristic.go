package graph

import (
	"strings"
)

// docScanLimit is how many lines after a declaration are searched for a
// comment block.
const docScanLimit = 9

// HeuristicRules describes a grammar-less language by its leading keywords.
type HeuristicRules struct {
	Language         Language
	FunctionKeywords []string // e.g. "walker"
	ClassKeywords    []string // e.g. "node"
	ImportKeywords   []string // e.g. "import"
	CommentPrefixes  []string
}

// JacRules treats walkers as functions and nodes as classes.
var JacRules = HeuristicRules{
	Language:         LangJac,
	FunctionKeywords: []string{"walker"},
	ClassKeywords:    []string{"node"},
	ImportKeywords:   []string{"import"},
	CommentPrefixes:  []string{"#", "//", "/*", "*"},
}

// HeuristicParser is the line-scanning LanguageParser variant for languages
// without a grammar. It does not track blocks: classes never get methods or
// parents, and parameter lists are split on commas without regard for
// nesting or quoting.
type HeuristicParser struct {
	rules HeuristicRules
}

var _ LanguageParser = (*HeuristicParser)(nil)

// NewHeuristicParser returns a line-heuristic parser for rules.
func NewHeuristicParser(rules HeuristicRules) *HeuristicParser {
	return &HeuristicParser{rules: rules}
}

// Parse scans the decoded content line by line.
func (p *HeuristicParser) Parse(path string, source []byte) (*FileAnalysis, error) {
	text, _, err := Decode(source)
	if err != nil {
		return nil, err
	}

	fa := newAnalysis(path, p.rules.Language)
	lines := strings.Split(text, "\n")

	for i, raw := range lines {
		line := strings.TrimSpace(raw)

		if name, ok := declaredName(line, p.rules.FunctionKeywords); ok {
			fa.Functions = append(fa.Functions, FunctionInfo{
				Name:       name,
				Signature:  line,
				Docstring:  p.scanDoc(lines, i),
				Parameters: heuristicParams(line),
				LineNumber: i + 1,
			})
			continue
		}

		if name, ok := declaredName(line, p.rules.ClassKeywords); ok {
			fa.Classes = append(fa.Classes, ClassInfo{
				Name:          name,
				Docstring:     p.scanDoc(lines, i),
				Methods:       []MethodInfo{},
				ParentClasses: []string{},
				LineNumber:    i + 1,
			})
			continue
		}

		if imp, ok := p.importLine(line, i+1); ok {
			fa.Imports = append(fa.Imports, imp)
		}
	}
	return fa, nil
}

// declaredName returns the token after a leading keyword, cut at the first
// "(", "{", ":" or ";".
func declaredName(line string, keywords []string) (string, bool) {
	for _, kw := range keywords {
		if !strings.HasPrefix(line, kw+" ") {
			continue
		}
		fields := strings.Fields(line)
		if len(fields) < 2 {
			return "", false
		}
		name := fields[1]
		if cut := strings.IndexAny(name, "({:;"); cut >= 0 {
			name = name[:cut]
		}
		if name == "" {
			return "", false
		}
		return name, true
	}
	return "", false
}

// heuristicParams splits the text between the first "(" and the following
// ")" on commas.
func heuristicParams(line string) []Param {
	params := []Param{}
	open := strings.Index(line, "(")
	if open < 0 {
		return params
	}
	rest := line[open+1:]
	closeIdx := strings.Index(rest, ")")
	if closeIdx < 0 {
		return params
	}
	for _, part := range strings.Split(rest[:closeIdx], ",") {
		if part = strings.TrimSpace(part); part != "" {
			params = append(params, newParam(part))
		}
	}
	return params
}

// scanDoc collects the contiguous comment lines following line start.
func (p *HeuristicParser) scanDoc(lines []string, start int) *string {
	var doc []string
	end := min(start+1+docScanLimit, len(lines))
	for i := start + 1; i < end; i++ {
		line := strings.TrimSpace(lines[i])
		if !p.isComment(line) {
			break
		}
		doc = append(doc, line)
	}
	joined := strings.TrimSpace(strings.Join(doc, "\n"))
	if joined == "" {
		return nil
	}
	return &joined
}

func (p *HeuristicParser) isComment(line string) bool {
	for _, prefix := range p.rules.CommentPrefixes {
		if strings.HasPrefix(line, prefix) {
			return true
		}
	}
	return false
}

// importLine recognizes "import:py os;", "import foo.bar;" and
// "import from foo { a, b };".
func (p *HeuristicParser) importLine(line string, lineNumber int) (ImportInfo, bool) {
	for _, kw := range p.rules.ImportKeywords {
		if !strings.HasPrefix(line, kw) {
			continue
		}
		rest := strings.TrimPrefix(line, kw)
		if rest == "" || (rest[0] != ' ' && rest[0] != ':') {
			continue
		}
		if rest[0] == ':' {
			// language tag, e.g. "import:py"
			if sp := strings.IndexByte(rest, ' '); sp >= 0 {
				rest = rest[sp:]
			} else {
				continue
			}
		}
		rest = strings.TrimSuffix(strings.TrimSpace(rest), ";")
		rest = strings.TrimPrefix(rest, "from ")

		imp := ImportInfo{Names: []string{}, LineNumber: lineNumber}
		module := rest
		if brace := strings.IndexByte(rest, '{'); brace >= 0 {
			module = strings.TrimSpace(rest[:brace])
			inner := strings.TrimSuffix(strings.TrimSpace(rest[brace+1:]), "}")
			for _, n := range strings.Split(inner, ",") {
				if n = strings.TrimSpace(n); n != "" {
					imp.Names = append(imp.Names, n)
				}
			}
		}
		module = strings.TrimSpace(strings.TrimSuffix(module, ","))
		if module == "" {
			continue
		}
		imp.Module = strPtr(module)
		if len(imp.Names) == 0 {
			imp.Names = append(imp.Names, module)
		}
		return imp, true
	}
	return ImportInfo{}, false
}
