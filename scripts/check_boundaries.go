package main

import (
	"fmt"
	"go/parser"
	"go/token"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

const modulePath = "ballot"

type violation struct {
	File   string
	Line   int
	Import string
	Rule   string
}

// layerRule lists what a context layer may import besides the standard
// library. Entries ending in "/" are relative to the owning context.
type layerRule struct {
	allowed   []string
	forbidden []string
}

var layerRules = map[string]layerRule{
	"domain": {
		allowed: []string{
			"/domain",
			"github.com/ethereum/go-ethereum",
		},
	},
	"ports": {
		allowed: []string{
			"/domain",
			modulePath + "/contracts",
		},
	},
	"application": {
		allowed: []string{
			"/application",
			"/domain",
			"/ports",
			modulePath + "/contracts",
			"github.com/ethereum/go-ethereum",
			"github.com/near/borsh-go",
		},
	},
	"transport": {
		allowed: []string{"/transport"},
	},
	"adapters": {
		forbidden: []string{"/application/workers", modulePath + "/internal/platform"},
	},
}

func main() {
	violations := collectViolations("contexts")
	violations = append(violations, collectContractViolations("contracts")...)
	if len(violations) == 0 {
		fmt.Println("boundary checks passed")
		return
	}

	sort.Slice(violations, func(i, j int) bool {
		if violations[i].File == violations[j].File {
			if violations[i].Line == violations[j].Line {
				return violations[i].Import < violations[j].Import
			}
			return violations[i].Line < violations[j].Line
		}
		return violations[i].File < violations[j].File
	})

	fmt.Println("boundary violations found:")
	for _, v := range violations {
		fmt.Printf("- %s:%d imports %q (%s)\n", v.File, v.Line, v.Import, v.Rule)
	}
	os.Exit(1)
}

func collectViolations(root string) []violation {
	var violations []violation
	walkSources(root, func(path string, normalized string) {
		parts := strings.Split(normalized, "/")
		if len(parts) < 4 || parts[0] != "contexts" {
			return
		}
		contextPrefix := fmt.Sprintf("%s/contexts/%s/%s", modulePath, parts[1], parts[2])
		violations = append(violations, validateFile(path, normalized, parts[3], contextPrefix)...)
	})
	return violations
}

// collectContractViolations keeps generated contracts free of module imports
// so any runtime can vendor them.
func collectContractViolations(root string) []violation {
	var violations []violation
	walkSources(root, func(path string, normalized string) {
		imports, err := parseImports(path)
		if err != nil {
			violations = append(violations, violation{File: normalized, Line: 1, Rule: "file must parse"})
			return
		}
		for _, imp := range imports {
			if !isStdlib(imp.path) {
				violations = append(violations, violation{
					File:   normalized,
					Line:   imp.line,
					Import: imp.path,
					Rule:   "contracts may only import the standard library",
				})
			}
		}
	})
	return violations
}

func walkSources(root string, visit func(path string, normalized string)) {
	_ = filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil || d.IsDir() || !strings.HasSuffix(path, ".go") || strings.HasSuffix(path, "_test.go") {
			return nil
		}
		visit(path, filepath.ToSlash(path))
		return nil
	})
}

type importRef struct {
	path string
	line int
}

func parseImports(path string) ([]importRef, error) {
	fset := token.NewFileSet()
	file, err := parser.ParseFile(fset, path, nil, parser.ImportsOnly)
	if err != nil {
		return nil, err
	}
	refs := make([]importRef, 0, len(file.Imports))
	for _, imp := range file.Imports {
		refs = append(refs, importRef{
			path: strings.Trim(imp.Path.Value, "\""),
			line: fset.Position(imp.Pos()).Line,
		})
	}
	return refs, nil
}

func validateFile(path string, normalizedPath string, layer string, contextPrefix string) []violation {
	imports, err := parseImports(path)
	if err != nil {
		return []violation{{File: normalizedPath, Line: 1, Rule: "file must parse"}}
	}

	var violations []violation
	add := func(imp importRef, rule string) {
		violations = append(violations, violation{
			File:   normalizedPath,
			Line:   imp.line,
			Import: imp.path,
			Rule:   rule,
		})
	}

	rule, scoped := layerRules[layer]
	for _, imp := range imports {
		if strings.HasPrefix(imp.path, modulePath+"/contexts/") && !hasPrefix(imp.path, contextPrefix) {
			add(imp, "cross-context imports are forbidden")
			continue
		}
		if !scoped {
			continue
		}
		if layer != "adapters" && strings.Contains(imp.path, "/adapters/") {
			add(imp, layer+" must not import adapters")
			continue
		}
		if layer != "adapters" && strings.HasPrefix(imp.path, modulePath+"/internal/") {
			add(imp, layer+" must not import runtime infrastructure")
			continue
		}
		for _, forbidden := range resolve(rule.forbidden, contextPrefix) {
			if hasPrefix(imp.path, forbidden) {
				add(imp, layer+" must not import "+strings.TrimPrefix(strings.TrimPrefix(forbidden, contextPrefix+"/"), modulePath+"/"))
			}
		}
		if rule.allowed != nil && !isStdlib(imp.path) && !isAllowed(imp.path, resolve(rule.allowed, contextPrefix)) {
			add(imp, layer+" import is outside explicit allowlist")
		}
	}
	return violations
}

func resolve(entries []string, contextPrefix string) []string {
	out := make([]string, 0, len(entries))
	for _, entry := range entries {
		if strings.HasPrefix(entry, "/") {
			entry = contextPrefix + entry
		}
		out = append(out, entry)
	}
	return out
}

func hasPrefix(path string, prefix string) bool {
	return path == prefix || strings.HasPrefix(path, prefix+"/")
}

func isAllowed(importPath string, allowedPrefixes []string) bool {
	for _, p := range allowedPrefixes {
		if hasPrefix(importPath, p) {
			return true
		}
	}
	return false
}

func isStdlib(importPath string) bool {
	if strings.HasPrefix(importPath, modulePath+"/") {
		return false
	}
	first := importPath
	if idx := strings.Index(first, "/"); idx != -1 {
		first = first[:idx]
	}
	return !strings.Contains(first, ".")
}
