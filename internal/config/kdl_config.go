package config

import (
	"fmt"
	"log"
	"os"
	"path/filepath"
	"runtime"
	"strings"

	kdl "github.com/sblinch/kdl-go"
	"github.com/sblinch/kdl-go/document"
)

// LoadKDL loads .purity.kdl from dir. A missing file yields nil, nil.
func LoadKDL(dir string) (*Config, error) {
	path := filepath.Join(dir, FileName)
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return nil, nil
	}
	return LoadKDLFile(path, dir)
}

// LoadKDLFile loads an explicit configuration file. A relative project root
// is resolved against the directory containing the file; without one the
// root defaults to dir.
func LoadKDLFile(path, dir string) (*Config, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", path, err)
	}

	cfg, err := parseKDL(string(content))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}

	if cfg.Project.Root != "" {
		root := cfg.Project.Root
		if !filepath.IsAbs(root) {
			root = filepath.Join(filepath.Dir(path), root)
		}
		cfg.Project.Root = filepath.Clean(root)
	} else {
		cfg.Project.Root = absOr(dir)
	}
	if cfg.Project.Name == "" {
		cfg.Project.Name = filepath.Base(cfg.Project.Root)
	}

	return cfg, nil
}

func parseKDL(content string) (*Config, error) {
	cfg := &Config{
		Version:     1,
		Include:     []string{},
		Exclude:     defaultExclusions(),
		Known:       KnownSymbols{Defaults: true},
		Performance: Performance{Workers: runtime.NumCPU()},
		Output:      Output{Format: DefaultFormat, Color: true},
		Cache:       Cache{Enabled: true},
		Watch:       Watch{DebounceMs: DefaultDebounceMs, RespectGitignore: true},
	}

	doc, err := kdl.Parse(strings.NewReader(content))
	if err != nil {
		return nil, fmt.Errorf("failed to parse KDL config: %w", err)
	}

	for _, n := range doc.Nodes {
		switch nodeName(n) {
		case "version":
			if v, ok := firstIntArg(n); ok {
				cfg.Version = v
			}
		case "project":
			for _, cn := range n.Children { // project { root "." ; name "demo" }
				assignSimpleString(cn, "root", func(v string) { cfg.Project.Root = v })
				assignSimpleString(cn, "name", func(v string) { cfg.Project.Name = v })
			}
		case "include":
			cfg.Include = append(cfg.Include, collectStringArgs(n)...)
		case "exclude":
			// an exclude node replaces the built-in exclusions
			cfg.Exclude = collectStringArgs(n)
		case "references":
			cfg.References = append(cfg.References, collectStringArgs(n)...)
		case "known-symbols":
			parseKnownSymbols(n, &cfg.Known)
		case "pure-lambda":
			if l, ok := parsePureLambda(n); ok {
				cfg.PureLambdas = append(cfg.PureLambdas, l)
			}
		case "performance":
			for _, cn := range n.Children {
				if nodeName(cn) == "workers" {
					if v, ok := firstIntArg(cn); ok {
						cfg.Performance.Workers = v
					}
				}
			}
		case "output":
			for _, cn := range n.Children {
				switch nodeName(cn) {
				case "format":
					if s, ok := firstStringArg(cn); ok {
						cfg.Output.Format = s
					}
				case "color":
					if b, ok := firstBoolArg(cn); ok {
						cfg.Output.Color = b
					}
				}
			}
		case "cache":
			for _, cn := range n.Children {
				switch nodeName(cn) {
				case "enabled":
					if b, ok := firstBoolArg(cn); ok {
						cfg.Cache.Enabled = b
					}
				case "dir":
					if s, ok := firstStringArg(cn); ok {
						cfg.Cache.Dir = s
					}
				}
			}
		case "watch":
			for _, cn := range n.Children {
				switch nodeName(cn) {
				case "debounce-ms":
					if v, ok := firstIntArg(cn); ok {
						cfg.Watch.DebounceMs = v
					}
				case "respect-gitignore":
					if b, ok := firstBoolArg(cn); ok {
						cfg.Watch.RespectGitignore = b
					}
				}
			}
		default:
			log.Printf("WARNING: unknown node '%s' in %s", nodeName(n), FileName)
		}
	}

	return cfg, nil
}

func parseKnownSymbols(n *document.Node, k *KnownSymbols) {
	for _, cn := range n.Children {
		paths := collectStringArgs(cn)
		switch nodeName(cn) {
		case "defaults":
			if b, ok := firstBoolArg(cn); ok {
				k.Defaults = b
			}
		case "pure-methods":
			k.PureMethods = append(k.PureMethods, paths...)
		case "pure-except-locally-methods":
			k.PureExceptLocallyMethods = append(k.PureExceptLocallyMethods, paths...)
		case "pure-except-read-locally-methods":
			k.PureExceptReadLocallyMethods = append(k.PureExceptReadLocallyMethods, paths...)
		case "returns-new-object-methods":
			k.ReturnsNewObjectMethods = append(k.ReturnsNewObjectMethods, paths...)
		case "pure-types":
			k.PureTypes = append(k.PureTypes, paths...)
		case "not-used-as-object":
			k.NotUsedAsObject = append(k.NotUsedAsObject, paths...)
		case "bundle":
			k.Bundles = append(k.Bundles, paths...)
		}
	}
}

// parsePureLambda reads pure-lambda type="Demo.Pipeline" method="Map" arg=0
func parsePureLambda(n *document.Node) (PureLambda, bool) {
	var l PureLambda
	var ok bool
	if l.Type, ok = propString(n, "type"); !ok {
		return l, false
	}
	if l.Method, ok = propString(n, "method"); !ok {
		return l, false
	}
	if v, ok := propInt(n, "arg"); ok {
		l.Arg = v
	}
	return l, true
}

func nodeName(n *document.Node) string {
	if n == nil || n.Name == nil {
		return ""
	}
	return n.Name.NodeNameString()
}

func firstIntArg(n *document.Node) (int, bool) {
	if len(n.Arguments) == 0 {
		return 0, false
	}
	switch v := n.Arguments[0].Value.(type) {
	case int64:
		return int(v), true
	case float64:
		return int(v), true
	default:
		return 0, false
	}
}

func firstStringArg(n *document.Node) (string, bool) {
	if len(n.Arguments) == 0 {
		return "", false
	}
	if s, ok := n.Arguments[0].Value.(string); ok {
		return s, true
	}
	return "", false
}

func firstBoolArg(n *document.Node) (bool, bool) {
	if len(n.Arguments) == 0 {
		return false, false
	}
	if b, ok := n.Arguments[0].Value.(bool); ok {
		return b, true
	}
	return false, false
}

func propString(n *document.Node, key string) (string, bool) {
	if n.Properties == nil {
		return "", false
	}
	if v, ok := n.Properties[key]; ok {
		if s, ok2 := v.Value.(string); ok2 {
			return s, true
		}
	}
	return "", false
}

func propInt(n *document.Node, key string) (int, bool) {
	if n.Properties == nil {
		return 0, false
	}
	if v, ok := n.Properties[key]; ok {
		switch val := v.Value.(type) {
		case int64:
			return int(val), true
		case float64:
			return int(val), true
		}
	}
	return 0, false
}

// collectStringArgs reads inline arguments (exclude "a" "b") or, when there
// are none, a block of string children (exclude { "a"; "b" }).
func collectStringArgs(n *document.Node) []string {
	if n == nil {
		return nil
	}
	out := make([]string, 0, len(n.Arguments))
	for _, a := range n.Arguments {
		if s, ok := a.Value.(string); ok {
			out = append(out, s)
		}
	}

	if len(out) == 0 && len(n.Children) > 0 {
		for _, child := range n.Children {
			if s, ok := firstStringArg(child); ok {
				out = append(out, s)
			} else if child.Name != nil {
				if s, ok := child.Name.Value.(string); ok {
					out = append(out, s)
				}
			}
		}
	}

	return out
}

func assignSimpleString(n *document.Node, target string, set func(string)) {
	if nodeName(n) == target {
		if s, ok := firstStringArg(n); ok {
			set(s)
		}
	}
}
