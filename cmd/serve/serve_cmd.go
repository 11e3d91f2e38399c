package serve

import (
	"context"
	"errors"
	"fmt"
	"net"
	"os"
	"os/signal"
	"path/filepath"
	"strconv"
	"syscall"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/LegacyCodeHQ/sapling/componenttree"
)

type serveOptions struct {
	entryFile     string
	appRoot       string
	tsConfig      string
	webpackConfig string
	useAlias      bool
	includeUtils  bool
	port          int
	statePath     string
	verbose       bool
}

// Cmd represents the serve command.
var Cmd = NewCommand()

// NewCommand returns a new serve command instance.
func NewCommand() *cobra.Command {
	opts := &serveOptions{
		port:         4920,
		includeUtils: true,
	}

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Watch for file changes and serve a live component tree",
		Long: `Watch the application for file changes, incrementally rebuild the
component tree, and serve it over HTTP. Hosts subscribe to /events for
parsed-data and settings-data updates and post toggle, settings, and
entry-file commands back.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(cmd, opts)
		},
	}

	cmd.Flags().StringVarP(&opts.entryFile, "entry", "e", "", "Entry file the tree is rooted at")
	cmd.Flags().StringVarP(&opts.appRoot, "app-root", "r", "", "Application root (default: current directory)")
	cmd.Flags().StringVar(&opts.tsConfig, "tsconfig", "", "Path to tsconfig.json for path-mapping aliases")
	cmd.Flags().StringVar(&opts.webpackConfig, "webpack", "", "Path to webpack config for resolve aliases")
	cmd.Flags().BoolVar(&opts.useAlias, "alias", false, "Resolve bare specifiers through the alias configuration")
	cmd.Flags().BoolVar(&opts.includeUtils, "include-utils", opts.includeUtils, "Keep files without a component export as plain nodes")
	cmd.Flags().IntVarP(&opts.port, "port", "P", opts.port, "HTTP server port")
	cmd.Flags().StringVar(&opts.statePath, "state", "", "Persist tree and settings to this file")
	cmd.Flags().BoolVarP(&opts.verbose, "verbose", "v", false, "Enable debug logging")

	return cmd
}

func runServe(cmd *cobra.Command, opts *serveOptions) error {
	logger := log.NewWithOptions(os.Stderr, log.Options{
		ReportTimestamp: true,
		Prefix:          "sapling",
	})
	if opts.verbose {
		logger.SetLevel(log.DebugLevel)
	}

	appRoot := opts.appRoot
	if appRoot == "" {
		appRoot = "."
	}
	absAppRoot, err := filepath.Abs(appRoot)
	if err != nil {
		return fmt.Errorf("failed to resolve app root: %w", err)
	}
	appRoot = absAppRoot

	var storage componenttree.Storage
	if opts.statePath != "" {
		storage = componenttree.FileStorage{Path: opts.statePath}
	}

	store := componenttree.NewStore(componenttree.OSWorkspace(), storage)
	if err := applySettings(store, opts, appRoot); err != nil {
		return err
	}

	b := newBroker()
	store.OnSnapshot(b.publishSnapshot)

	if opts.entryFile != "" {
		entryFile, err := filepath.Abs(opts.entryFile)
		if err != nil {
			return fmt.Errorf("failed to resolve entry file path: %w", err)
		}
		store.SetEntryFile(entryFile)
	}

	if _, err := store.Parse(); err != nil {
		if errors.Is(err, componenttree.ErrNoEntryFile) {
			logger.Info("no entry file yet, waiting for POST /entry")
		} else {
			return fmt.Errorf("initial parse failed: %w", err)
		}
	}

	srv := newServer(store, b, opts.port)

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	ln, err := net.Listen("tcp", fmt.Sprintf(":%d", opts.port))
	if err != nil {
		return fmt.Errorf("failed to listen on port %d: %w", opts.port, err)
	}

	go srv.Serve(ln)

	logger.Info("watching", "root", appRoot)
	logger.Info("serving", "addr", fmt.Sprintf("http://localhost:%d", opts.port))

	err = watchAndUpdate(ctx, appRoot, store, logger)

	srv.Close()
	return err
}

func applySettings(store *componenttree.Store, opts *serveOptions, appRoot string) error {
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
