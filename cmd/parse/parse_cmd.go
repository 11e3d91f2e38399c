package parse

import (
	"encoding/json"
	"fmt"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/LegacyCodeHQ/sapling/componenttree"
)

type parseOptions struct {
	entryFile     string
	appRoot       string
	tsConfig      string
	webpackConfig string
	useAlias      bool
	includeUtils  bool
	format        string
}

// Cmd represents the parse command.
var Cmd = NewCommand()

// NewCommand returns a new parse command instance.
func NewCommand() *cobra.Command {
	opts := &parseOptions{
		format:       "json",
		includeUtils: true,
	}

	cmd := &cobra.Command{
		Use:   "parse",
		Short: "Build a component dependency tree from an entry file",
		Long: `Build a component dependency tree by following static imports from the
entry file outward, and print it to stdout.

Examples:
  sapling parse -e src/index.tsx
  sapling parse -e src/index.tsx -f dot
  sapling parse -e src/App.jsx --alias --tsconfig tsconfig.json
  sapling parse -e src/App.jsx --alias --webpack webpack.config.js`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runParse(cmd, opts)
		},
	}

	cmd.Flags().StringVarP(&opts.entryFile, "entry", "e", "", "Entry file the tree is rooted at (required)")
	cmd.Flags().StringVarP(&opts.appRoot, "app-root", "r", "", "Application root (default: entry file's directory)")
	cmd.Flags().StringVar(&opts.tsConfig, "tsconfig", "", "Path to tsconfig.json for path-mapping aliases")
	cmd.Flags().StringVar(&opts.webpackConfig, "webpack", "", "Path to webpack config for resolve aliases")
	cmd.Flags().BoolVar(&opts.useAlias, "alias", false, "Resolve bare specifiers through the alias configuration")
	cmd.Flags().BoolVar(&opts.includeUtils, "include-utils", opts.includeUtils, "Keep files without a component export as plain nodes")
	cmd.Flags().StringVarP(&opts.format, "format", "f", opts.format, "Output format: json or dot")
	_ = cmd.MarkFlagRequired("entry")

	return cmd
}

func runParse(cmd *cobra.Command, opts *parseOptions) error {
	entryFile, err := filepath.Abs(opts.entryFile)
	if err != nil {
		return fmt.Errorf("failed to resolve entry file path: %w", err)
	}

	appRoot := opts.appRoot
	if appRoot == "" {
		appRoot = filepath.Dir(entryFile)
	}
	appRoot, err = filepath.Abs(appRoot)
	if err != nil {
		return fmt.Errorf("failed to resolve app root: %w", err)
	}

	store := componenttree.NewStore(componenttree.OSWorkspace(), nil)
	store.SetEntryFile(entryFile)
	if err := applySettings(store, opts, appRoot); err != nil {
		return err
	}

	tree, err := store.Parse()
	if err != nil {
		return err
	}

	switch strings.ToLower(opts.format) {
	case "json":
		data, err := json.MarshalIndent(tree, "", "  ")
		if err != nil {
			return fmt.Errorf("failed to serialize tree: %w", err)
		}
		fmt.Fprintln(cmd.OutOrStdout(), string(data))
	case "dot":
		if err := componenttree.WriteDOT(tree, cmd.OutOrStdout()); err != nil {
			return err
		}
	default:
		return fmt.Errorf("unknown output format: %q (expected json or dot)", opts.format)
	}

	return nil
}

func applySettings(store *componenttree.Store, opts *parseOptions, appRoot string) error {
	updates := map[string]string{
		"appRoot":              appRoot,
		"useAlias":             strconv.FormatBool(opts.useAlias),
		"includeNonComponents": strconv.FormatBool(opts.includeUtils),
	}
	if opts.tsConfig != "" {
		updates["tsConfig"] = opts.tsConfig
	}
	if opts.webpackConfig != "" {
		updates["webpackConfig"] = opts.webpackConfig
	}
	for key, value := range updates {
		if err := store.UpdateSettings(key, value); err != nil {
			return err
		}
	}
	return nil
}
