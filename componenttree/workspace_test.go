package componenttree

import "io/fs"

// fakeWorkspace serves file contents from memory, keyed by absolute path.
type fakeWorkspace map[string]string

func (f fakeWorkspace) ReadFile(filePath string) ([]byte, error) {
	content, ok := f[filePath]
	if !ok {
		return nil, fs.ErrNotExist
	}
	return []byte(content), nil
}

func (f fakeWorkspace) Exists(filePath string) bool {
	_, ok := f[filePath]
	return ok
}
