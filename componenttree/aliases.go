package componenttree

import (
	"context"
	"encoding/json"
	"fmt"
	"path/filepath"
	"sort"
	"strings"

	sitter "github.com/smacker/go-tree-sitter"
	"github.com/smacker/go-tree-sitter/javascript"
	"github.com/tidwall/jsonc"
)

// aliasEntry maps an import-specifier prefix to a target directory.
type aliasEntry struct {
	prefix string
	target string
}

// AliasTable holds the merged alias configuration for one parse run.
// Entries are ordered longest-prefix-first so the first match wins.
type AliasTable struct {
	entries []aliasEntry
}

// BuildAliasTable builds the alias table from the configured tsconfig path
// mappings and webpack resolve aliases. Both sources are merged; tsconfig
// entries win on a conflicting prefix.
func BuildAliasTable(settings Settings, ws Workspace) (*AliasTable, error) {
	table := &AliasTable{}
	if !settings.UseAlias {
		return table, nil
	}

	byPrefix := make(map[string]aliasEntry)

	if settings.WebpackConfig != "" {
		content, err := ws.ReadFile(settings.WebpackConfig)
		if err != nil {
			return nil, fmt.Errorf("failed to read webpack config: %w", err)
		}
		entries, err := parseWebpackAliases(content, settings.WebpackConfig)
		if err != nil {
			return nil, err
		}
		for _, e := range entries {
			byPrefix[e.prefix] = e
		}
	}

	// tsconfig entries are applied last so they take precedence on conflict.
	if settings.TSConfig != "" {
		content, err := ws.ReadFile(settings.TSConfig)
		if err != nil {
			return nil, fmt.Errorf("failed to read tsconfig: %w", err)
		}
		entries, err := parseTSConfigAliases(content, settings.TSConfig)
		if err != nil {
			return nil, err
		}
		for _, e := range entries {
			byPrefix[e.prefix] = e
		}
	}

	for _, e := range byPrefix {
		table.entries = append(table.entries, e)
	}
	sort.Slice(table.entries, func(i, j int) bool {
		a, b := table.entries[i], table.entries[j]
		if len(a.prefix) != len(b.prefix) {
			return len(a.prefix) > len(b.prefix)
		}
		return a.prefix < b.prefix
	})

	return table, nil
}

// Match finds the longest alias prefix matching the specifier and returns the
// target directory together with the unmatched remainder of the specifier.
func (t *AliasTable) Match(specifier string) (target, rest string, ok bool) {
	for _, e := range t.entries {
		if specifier == e.prefix {
			return e.target, "", true
		}
		if strings.HasPrefix(specifier, e.prefix+"/") {
			return e.target, specifier[len(e.prefix)+1:], true
		}
	}
	return "", "", false
}

// Empty reports whether the table has no alias entries.
func (t *AliasTable) Empty() bool {
	return len(t.entries) == 0
}

type tsconfigFile struct {
	CompilerOptions struct {
		BaseURL string              `json:"baseUrl"`
		Paths   map[string][]string `json:"paths"`
	} `json:"compilerOptions"`
}

// parseTSConfigAliases extracts compilerOptions.paths entries. tsconfig.json
// is JSONC, so comments and trailing commas are stripped before decoding.
// Wildcard patterns ("@/*": ["src/*"]) are reduced to prefix substitutions.
func parseTSConfigAliases(content []byte, configPath string) ([]aliasEntry, error) {
	var cfg tsconfigFile
	if err := json.Unmarshal(jsonc.ToJSON(content), &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", configPath, err)
	}

	baseDir := filepath.Join(filepath.Dir(configPath), cfg.CompilerOptions.BaseURL)

	// Keys are sorted so entry order is deterministic across runs.
	patterns := make([]string, 0, len(cfg.CompilerOptions.Paths))
	for pattern := range cfg.CompilerOptions.Paths {
		patterns = append(patterns, pattern)
	}
	sort.Strings(patterns)

	var entries []aliasEntry
	for _, pattern := range patterns {
		targets := cfg.CompilerOptions.Paths[pattern]
		if len(targets) == 0 {
			continue
		}
		prefix := strings.TrimSuffix(strings.TrimSuffix(pattern, "*"), "/")
		target := strings.TrimSuffix(strings.TrimSuffix(targets[0], "*"), "/")
		if prefix == "" {
			continue
		}
		entries = append(entries, aliasEntry{
			prefix: prefix,
			target: filepath.Clean(filepath.Join(baseDir, target)),
		})
	}
	return entries, nil
}

// parseWebpackAliases statically extracts the resolve.alias object from a
// webpack config. The config is JavaScript, so the alias pairs are pulled out
// of the AST. String values are taken verbatim; path.resolve/path.join call
// values are folded by joining their string arguments. Relative targets are
// anchored at the config file's directory.
func parseWebpackAliases(content []byte, configPath string) ([]aliasEntry, error) {
	parser := sitter.NewParser()
	parser.SetLanguage(javascript.GetLanguage())

	tree, err := parser.ParseCtx(context.Background(), nil, content)
	if err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", configPath, err)
	}
	defer tree.Close()

	configDir := filepath.Dir(configPath)
	var entries []aliasEntry

	var walk func(n *sitter.Node)
	walk = func(n *sitter.Node) {
		if n == nil {
			return
		}
		if n.Type() == "pair" && pairKeyName(n, content) == "alias" {
			value := n.ChildByFieldName("value")
			if value != nil && value.Type() == "object" {
				entries = append(entries, webpackAliasPairs(value, content, configDir)...)
			}
			return
		}
		for i := 0; i < int(n.ChildCount()); i++ {
			walk(n.Child(i))
		}
	}
	walk(tree.RootNode())

	return entries, nil
}

func webpackAliasPairs(object *sitter.Node, content []byte, configDir string) []aliasEntry {
	var entries []aliasEntry
	for i := 0; i < int(object.ChildCount()); i++ {
		pair := object.Child(i)
		if pair == nil || pair.Type() != "pair" {
			continue
		}
		prefix := pairKeyName(pair, content)
		if prefix == "" {
			continue
		}
		// webpack treats a trailing $ as an exact-match marker.
		prefix = strings.TrimSuffix(prefix, "$")

		target := foldAliasValue(pair.ChildByFieldName("value"), content)
		if target == "" {
			continue
		}
		if !filepath.IsAbs(target) {
			target = filepath.Join(configDir, target)
		}
		entries = append(entries, aliasEntry{prefix: prefix, target: filepath.Clean(target)})
	}
	return entries
}

func pairKeyName(pair *sitter.Node, content []byte) string {
	key := pair.ChildByFieldName("key")
	if key == nil {
		return ""
	}
	return strings.Trim(key.Content(content), "'\"")
}

// foldAliasValue reduces an alias value expression to a path string. Supports
// string literals and path.resolve/path.join style calls with string or
// __dirname arguments; anything dynamic yields "".
func foldAliasValue(value *sitter.Node, content []byte) string {
	if value == nil {
		return ""
	}
	switch value.Type() {
	case "string":
		return strings.Trim(value.Content(content), "'\"")
	case "call_expression":
		fn := value.ChildByFieldName("function")
		if fn == nil {
			return ""
		}
		name := fn.Content(content)
		if !strings.HasSuffix(name, "resolve") && !strings.HasSuffix(name, "join") {
			return ""
		}
		args := value.ChildByFieldName("arguments")
		if args == nil {
			return ""
		}
		var parts []string
		for i := 0; i < int(args.ChildCount()); i++ {
			arg := args.Child(i)
			if arg == nil {
				continue
			}
			switch arg.Type() {
			case "string":
				parts = append(parts, strings.Trim(arg.Content(content), "'\""))
			case "identifier":
				// __dirname is the config dir, which the caller anchors
				// relative targets at anyway.
				if arg.Content(content) != "__dirname" {
					return ""
				}
			}
		}
		return filepath.Join(parts...)
	}
	return ""
}
