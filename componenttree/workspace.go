package componenttree

import "os"

// Workspace gives the engine access to project files. The caller controls how
// files are read, which keeps the builder and resolver testable without disk.
type Workspace interface {
	ReadFile(filePath string) ([]byte, error)
	Exists(filePath string) bool
}

type osWorkspace struct{}

// OSWorkspace returns a Workspace backed by the local filesystem.
func OSWorkspace() Workspace {
	return osWorkspace{}
}

func (osWorkspace) ReadFile(filePath string) ([]byte, error) {
	return os.ReadFile(filePath)
}

func (osWorkspace) Exists(filePath string) bool {
	info, err := os.Stat(filePath)
	return err == nil && !info.IsDir()
}
