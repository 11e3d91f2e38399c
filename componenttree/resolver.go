package componenttree

import (
	"path/filepath"
	"strings"
)

// moduleSuffixes is the conventional resolution order for extensionless
// specifiers, tried before index-file resolution.
var moduleSuffixes = []string{".ts", ".tsx", ".js", ".jsx"}

// sourceExtensions are the file types the analyzer understands. Imports that
// resolve to anything else (stylesheets, assets) are not followed.
var sourceExtensions = map[string]bool{
	".ts":  true,
	".tsx": true,
	".js":  true,
	".jsx": true,
}

// Resolver resolves import specifiers to absolute file paths using one alias
// table built for the duration of a parse run.
type Resolver struct {
	ws       Workspace
	settings Settings
	aliases  *AliasTable
}

func NewResolver(settings Settings, aliases *AliasTable, ws Workspace) *Resolver {
	if aliases == nil {
		aliases = &AliasTable{}
	}
	return &Resolver{ws: ws, settings: settings, aliases: aliases}
}

// Resolve maps an import specifier found in fromFile to an absolute file path.
// It returns ErrExternalModule for specifiers that terminate at a package
// boundary and *ResolutionError when no candidate path exists.
func (r *Resolver) Resolve(specifier, fromFile string) (string, error) {
	if isRelativeSpecifier(specifier) {
		base := filepath.Join(filepath.Dir(fromFile), specifier)
		return r.resolveBase(base, specifier, fromFile, NodeErrorFileNotFound)
	}

	if r.settings.UseAlias {
		if target, rest, ok := r.aliases.Match(specifier); ok {
			base := filepath.Join(target, rest)
			return r.resolveBase(base, specifier, fromFile, NodeErrorUnresolvedAlias)
		}
	}

	// Bare specifier with no alias match: an external package, not followed.
	return "", ErrExternalModule
}

func (r *Resolver) resolveBase(base, specifier, fromFile string, failureKind NodeError) (string, error) {
	for _, candidate := range candidatePaths(base) {
		if !r.ws.Exists(candidate) {
			continue
		}
		if r.settings.AppRoot != "" && !isWithinRoot(r.settings.AppRoot, candidate) {
			return "", ErrExternalModule
		}
		return candidate, nil
	}
	return "", &ResolutionError{Specifier: specifier, FromFile: fromFile, Kind: failureKind}
}

// candidatePaths returns resolution candidates in fixed priority order:
// the path verbatim, conventional suffixes, then index files.
func candidatePaths(base string) []string {
	candidates := make([]string, 0, 1+2*len(moduleSuffixes))
	candidates = append(candidates, base)
	for _, suffix := range moduleSuffixes {
		candidates = append(candidates, base+suffix)
	}
	for _, suffix := range moduleSuffixes {
		candidates = append(candidates, filepath.Join(base, "index"+suffix))
	}
	return candidates
}

func isRelativeSpecifier(specifier string) bool {
	return strings.HasPrefix(specifier, "./") || strings.HasPrefix(specifier, "../") ||
		specifier == "." || specifier == ".."
}

// isSupportedSourceFile reports whether the analyzer can parse the file.
func isSupportedSourceFile(path string) bool {
	return sourceExtensions[filepath.Ext(path)]
}

func isWithinRoot(root, targetPath string) bool {
	rel, err := filepath.Rel(filepath.Clean(root), filepath.Clean(targetPath))
	if err != nil {
		return false
	}
	if rel == "." {
		return true
	}
	if rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return false
	}
	return !filepath.IsAbs(rel)
}
