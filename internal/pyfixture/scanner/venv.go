package scanner

import (
	"os"
	"path/filepath"
	"strings"
)

// pytestPluginPackages are known pytest-plugin package-directory names,
// matched alongside the generic "pytest*"/"*_pytest" naming convention.
// Grounded verbatim on original_source/src/fixtures.rs's scan_pytest_plugins
// pytest_packages list.
var pytestPluginPackages = []string{
	"pytest_mock", "pytest-mock",
	"pytest_asyncio", "pytest-asyncio",
	"pytest_django", "pytest-django",
	"pytest_cov", "pytest-cov",
	"pytest_xdist", "pytest-xdist",
	"pytest_fixtures",
}

// isPytestPluginPackage reports whether dirName names a pytest plugin
// package directory under site-packages.
func isPytestPluginPackage(dirName string) bool {
	for _, pkg := range pytestPluginPackages {
		if strings.Contains(dirName, pkg) {
			return true
		}
	}
	return strings.HasPrefix(dirName, "pytest") || strings.Contains(dirName, "_pytest")
}

// FindVirtualEnv locates the workspace's virtual environment, in priority
// order: an explicit configured path, then .venv/venv/env under root,
// then the VIRTUAL_ENV environment variable. Returns "" if none exist.
// Grounded on fixtures.rs's scan_venv_fixtures.
func FindVirtualEnv(root, configuredPath string) string {
	if configuredPath != "" {
		if st, err := os.Stat(configuredPath); err == nil && st.IsDir() {
			return configuredPath
		}
	}
	for _, name := range []string{".venv", "venv", "env"} {
		candidate := filepath.Join(root, name)
		if st, err := os.Stat(candidate); err == nil && st.IsDir() {
			return candidate
		}
	}
	if venv := os.Getenv("VIRTUAL_ENV"); venv != "" {
		if st, err := os.Stat(venv); err == nil && st.IsDir() {
			return venv
		}
	}
	return ""
}

// FindSitePackages locates venvPath's site-packages directory, trying the
// POSIX layout (lib/python*/site-packages) and the Windows layout
// (Lib/site-packages) in that order. Grounded on fixtures.rs's
// scan_venv_site_packages.
func FindSitePackages(venvPath string) string {
	libPath := filepath.Join(venvPath, "lib")
	if entries, err := os.ReadDir(libPath); err == nil {
		for _, e := range entries {
			if !e.IsDir() || !strings.HasPrefix(e.Name(), "python") {
				continue
			}
			sitePackages := filepath.Join(libPath, e.Name(), "site-packages")
			if st, err := os.Stat(sitePackages); err == nil && st.IsDir() {
				return sitePackages
			}
		}
	}

	windows := filepath.Join(venvPath, "Lib", "site-packages")
	if st, err := os.Stat(windows); err == nil && st.IsDir() {
		return windows
	}
	return ""
}

// DiscoverPlugins finds every pytest-plugin Python file under
// sitePackages: each top-level package directory whose name matches
// isPytestPluginPackage (excluding .dist-info/.egg-info metadata
// directories) is walked up to maxDepth levels deep, collecting every
// non-test .py file outside __pycache__. Grounded on fixtures.rs's
// scan_pytest_plugins / scan_plugin_directory, with the log-and-continue
// style replaced by a returned file list plus the plugin package each
// file belongs to (used by the analyzer's IsPlugin classification).
func DiscoverPlugins(sitePackages string, maxDepth int) (files []string, pluginDirs []string, err error) {
	entries, err := os.ReadDir(sitePackages)
	if err != nil {
		return nil, nil, err
	}

	for _, e := range entries {
		if !e.IsDir() {
			continue
		}
		name := e.Name()
		if strings.HasSuffix(name, ".dist-info") || strings.HasSuffix(name, ".egg-info") {
			continue
		}
		if !isPytestPluginPackage(name) {
			continue
		}
		dir := filepath.Join(sitePackages, name)
		pluginDirs = append(pluginDirs, dir)

		found, walkErr := walkPluginDirectory(dir, maxDepth)
		if walkErr != nil {
			continue
		}
		files = append(files, found...)
	}
	return files, pluginDirs, nil
}

func walkPluginDirectory(dir string, maxDepth int) ([]string, error) {
	var out []string
	rootDepth := strings.Count(filepath.Clean(dir), string(filepath.Separator))

	err := filepath.WalkDir(dir, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			return nil
		}
		if d.IsDir() {
			depth := strings.Count(filepath.Clean(path), string(filepath.Separator)) - rootDepth
			if depth > maxDepth {
				return filepath.SkipDir
			}
			if d.Name() == "__pycache__" {
				return filepath.SkipDir
			}
			return nil
		}
		name := d.Name()
		if !strings.HasSuffix(name, ".py") {
			return nil
		}
		if strings.HasPrefix(name, "test_") {
			return nil
		}
		out = append(out, path)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}
