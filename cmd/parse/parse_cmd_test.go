package parse

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/LegacyCodeHQ/sapling/componenttree"
)

func writeSampleApp(t *testing.T) (string, string) {
	t.Helper()
	root := t.TempDir()
	entry := filepath.Join(root, "index.tsx")
	require.NoError(t, os.WriteFile(entry, []byte(`
import Header from './Header';
import { truncate } from './utils';

export default function App() {
  return <Header title={truncate('hello')} />;
}
`), 0644))
	require.NoError(t, os.WriteFile(filepath.Join(root, "Header.tsx"), []byte(`
export default function Header({ title }) {
  return <h1>{title}</h1>;
}
`), 0644))
	require.NoError(t, os.WriteFile(filepath.Join(root, "utils.ts"), []byte(`
export function truncate(s) {
  return s.slice(0, 10);
}
`), 0644))
	return root, entry
}

func runCommand(t *testing.T, args ...string) (string, error) {
	t.Helper()
	cmd := NewCommand()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func TestParseCommand_JSONOutput(t *testing.T) {
	_, entry := writeSampleApp(t)

	output, err := runCommand(t, "-e", entry)
	require.NoError(t, err)

	var tree componenttree.Tree
	require.NoError(t, json.Unmarshal([]byte(output), &tree))
	assert.Equal(t, entry, tree.EntryFilePath)
	assert.Equal(t, "App", tree.Root.Name)
	require.Len(t, tree.Root.Children, 2)
	assert.Equal(t, "Header", tree.Root.Children[0].Name)
	assert.False(t, tree.Root.Children[1].ExportsComponent)
}

func TestParseCommand_ExcludeUtilities(t *testing.T) {
	_, entry := writeSampleApp(t)

	output, err := runCommand(t, "-e", entry, "--include-utils=false")
	require.NoError(t, err)

	var tree componenttree.Tree
	require.NoError(t, json.Unmarshal([]byte(output), &tree))
	require.Len(t, tree.Root.Children, 1)
	assert.Equal(t, "Header", tree.Root.Children[0].Name)
}

func TestParseCommand_DOTOutput(t *testing.T) {
	_, entry := writeSampleApp(t)

	output, err := runCommand(t, "-e", entry, "-f", "dot")
	require.NoError(t, err)

	assert.Contains(t, output, "digraph")
	assert.Contains(t, output, `"App"`)
	assert.Contains(t, output, `"Header"`)
}

func TestParseCommand_UnknownFormat(t *testing.T) {
	_, entry := writeSampleApp(t)

	_, err := runCommand(t, "-e", entry, "-f", "yaml")
	assert.Error(t, err)
}

func TestParseCommand_MissingEntryFlag(t *testing.T) {
	_, err := runCommand(t)
	assert.Error(t, err)
}

func TestParseCommand_AliasResolution(t *testing.T) {
	root := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(root, "src", "components"), 0755))

	entry := filepath.Join(root, "src", "index.tsx")
	require.NoError(t, os.WriteFile(entry, []byte(`
import Button from '@/components/Button';

export default function App() {
  return <Button />;
}
`), 0644))
	require.NoError(t, os.WriteFile(filepath.Join(root, "src", "components", "Button.tsx"), []byte(`
export default function Button() {
  return <button>go</button>;
}
`), 0644))
	tsconfig := filepath.Join(root, "tsconfig.json")
	require.NoError(t, os.WriteFile(tsconfig, []byte(`{
  "compilerOptions": {
    "baseUrl": ".",
    "paths": {
      "@/*": ["src/*"]
    }
  }
}`), 0644))

	output, err := runCommand(t, "-e", entry, "-r", root, "--alias", "--tsconfig", tsconfig)
	require.NoError(t, err)

	var tree componenttree.Tree
	require.NoError(t, json.Unmarshal([]byte(output), &tree))
	require.Len(t, tree.Root.Children, 1)
	assert.Equal(t, filepath.Join(root, "src", "components", "Button.tsx"), tree.Root.Children[0].FilePath)
}
