package componenttree

import (
	"errors"
	"fmt"
)

// NodeError classifies why resolution or analysis failed for a single node.
// The node is retained as an error leaf so the rest of the tree stays navigable.
type NodeError string

const (
	NodeErrorFileNotFound      NodeError = "file-not-found"
	NodeErrorUnresolvedAlias   NodeError = "unresolved-alias"
	NodeErrorUnparseableSource NodeError = "unparseable-source"
)

// Whole-operation failures. These abort a Parse and leave any previously
// stored tree untouched.
var (
	ErrInvalidSettings = errors.New("settings are incomplete or invalid")
	ErrNoEntryFile     = errors.New("no entry file selected")
)

// ErrExternalModule signals a specifier that resolves outside the analyzed
// project root. It terminates resolution as a package boundary, not an error.
var ErrExternalModule = errors.New("specifier resolves outside the project root")

// ResolutionError reports that no candidate path exists for an import specifier.
type ResolutionError struct {
	Specifier string
	FromFile  string
	Kind      NodeError
}

func (e *ResolutionError) Error() string {
	return fmt.Sprintf("cannot resolve %q imported from %s", e.Specifier, e.FromFile)
}
