// Package scanner discovers a workspace's fixture source files and its
// virtual environment's pytest plugins, dispatches each through an
// analyzer.Analyzer into a shared index.Index via a bounded worker pool,
// and (optionally) watches the workspace for external changes.
//
// Grounded on internal/starlark/query/index/discovery.go (recursive
// discovery) and original_source/src/fixtures.rs's scan_venv_fixtures /
// scan_pytest_plugins / scan_plugin_directory (venv/plugin discovery),
// reimplemented in the teacher's Go idiom: error-returning functions
// instead of log-and-continue, and a hand-rolled bounded worker pool
// (see DESIGN.md for why golang.org/x/sync/errgroup was not added)
// instead of the teacher's sequential AddPattern loop.
package scanner

import (
	"context"
	"fmt"
	"os"
	"sync"

	"github.com/pytestls/pytestls/internal/pyfixture/analyzer"
	"github.com/pytestls/pytestls/internal/pyfixture/index"
)

// Config carries the spec.md §6 scan-affecting settings.
type Config struct {
	Root            string
	VenvPath        string   // explicit override; "" means auto-discover
	AdditionalPaths []string // extra directories scanned for plugins
	ExcludePatterns []string
	MaxScanDepth    int // plugin recursion bound; 0 means default (3)
}

// Scanner ties discovery, venv/plugin classification, and analysis
// together against a shared index.
type Scanner struct {
	idx      *index.Index
	analyzer *analyzer.Analyzer
	workers  int
}

// New returns a Scanner with a fixed worker-pool size. workers <= 0
// defaults to 4, mirroring a conservative fixed pool rather than
// scaling with GOMAXPROCS, since I/O (file reads) dominates over CPU
// here.
func New(idx *index.Index, workers int) *Scanner {
	if workers <= 0 {
		workers = 4
	}
	return &Scanner{idx: idx, workers: workers, analyzer: analyzer.New()}
}

// ScanResult summarizes one workspace scan.
type ScanResult struct {
	FilesScanned int
	PluginsFound int
	SitePackages string
	Errors       []error
}

// Scan discovers the workspace's conftest/test files and the venv's
// pytest plugins, analyzes each through a bounded worker pool, and
// populates idx. Per-file errors are collected and returned rather than
// aborting the scan (spec.md §7: a single bad file must not fail the
// whole workspace scan).
func (s *Scanner) Scan(ctx context.Context, cfg Config) (ScanResult, error) {
	maxDepth := cfg.MaxScanDepth
	if maxDepth <= 0 {
		maxDepth = 3
	}

	workspaceFiles, err := DiscoverWorkspaceFiles(cfg.Root, cfg.ExcludePatterns)
	if err != nil {
		return ScanResult{}, fmt.Errorf("discovering workspace files: %w", err)
	}

	var sitePackages string
	var pluginDirs []string
	var pluginFiles []string

	venvPath := FindVirtualEnv(cfg.Root, cfg.VenvPath)
	if venvPath != "" {
		sitePackages = FindSitePackages(venvPath)
		if sitePackages != "" {
			files, dirs, err := DiscoverPlugins(sitePackages, maxDepth)
			if err == nil {
				pluginFiles = files
				pluginDirs = dirs
			}
		}
	}
	for _, extra := range cfg.AdditionalPaths {
		files, dirs, err := DiscoverPlugins(extra, maxDepth)
		if err == nil {
			pluginFiles = append(pluginFiles, files...)
			pluginDirs = append(pluginDirs, dirs...)
		}
	}

	cls := newClassifier(sitePackages, pluginDirs)
	s.analyzer = analyzer.New(analyzer.WithClassifier(cls.Classify))

	allFiles := append(append([]string{}, workspaceFiles...), pluginFiles...)
	result := s.dispatch(ctx, allFiles)
	result.PluginsFound = len(pluginDirs)
	result.SitePackages = sitePackages
	return result, nil
}

// dispatch reads and analyzes each path through a fixed-size worker pool,
// replacing that file's contribution to the index on success. Grounded
// on the teacher's sequential AddPattern loop, generalized to a bounded
// worker pool per spec.md §5's concurrency model.
func (s *Scanner) dispatch(ctx context.Context, paths []string) ScanResult {
	sem := make(chan struct{}, s.workers)
	var wg sync.WaitGroup
	var mu sync.Mutex
	var result ScanResult

	for _, path := range paths {
		if ctx.Err() != nil {
			break
		}
		sem <- struct{}{}
		wg.Add(1)
		go func(path string) {
			defer wg.Done()
			defer func() { <-sem }()

			if err := s.ScanFile(ctx, path); err != nil {
				mu.Lock()
				result.Errors = append(result.Errors, fmt.Errorf("%s: %w", path, err))
				mu.Unlock()
				return
			}
			mu.Lock()
			result.FilesScanned++
			mu.Unlock()
		}(path)
	}
	wg.Wait()
	return result
}

// ScanFile re-reads path from disk and replaces its contribution to the
// index, for use by the file watcher's create/write events.
func (s *Scanner) ScanFile(ctx context.Context, path string) error {
	content, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	return s.analyzeOne(ctx, path, content)
}

// ScanFileContent re-analyzes path using the supplied in-memory content
// instead of reading from disk, for the LSP server's didOpen/didChange/
// didSave handlers, where the editor's buffer may be ahead of the file on
// disk.
func (s *Scanner) ScanFileContent(ctx context.Context, path string, content []byte) error {
	return s.analyzeOne(ctx, path, content)
}

func (s *Scanner) analyzeOne(ctx context.Context, path string, content []byte) error {
	result, _, err := s.analyzer.Analyze(ctx, path, content)
	if err != nil {
		return err
	}
	s.idx.ReplaceFile(index.AnalyzedFile{
		Path:        path,
		Content:     string(content),
		Definitions: result.Definitions,
		Usages:      result.Usages,
		Undeclared:  result.Undeclared,
		Imports:     result.Imports,
		ModuleNames: result.ModuleNames,
	})
	return nil
}

// RemoveFile drops path's contribution to the index, for file-deletion
// events.
func (s *Scanner) RemoveFile(path string) {
	s.idx.RemoveFile(path)
}
