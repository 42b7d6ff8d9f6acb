package scanner

import (
	"path/filepath"
	"strings"
)

// classifier answers the analyzer.WithClassifier question for one scan:
// is filePath inside the discovered site-packages directory (third
// party), and does it belong to a recognized pytest plugin package?
type classifier struct {
	sitePackages string
	pluginDirs   []string
}

func newClassifier(sitePackages string, pluginDirs []string) *classifier {
	return &classifier{sitePackages: sitePackages, pluginDirs: pluginDirs}
}

// Classify implements the function shape analyzer.WithClassifier expects.
func (c *classifier) Classify(filePath string) (isThirdParty, isPlugin bool) {
	if c == nil {
		return false, false
	}
	if c.sitePackages != "" && withinDir(c.sitePackages, filePath) {
		isThirdParty = true
	}
	for _, dir := range c.pluginDirs {
		if withinDir(dir, filePath) {
			isPlugin = true
			break
		}
	}
	return isThirdParty, isPlugin
}

func withinDir(dir, path string) bool {
	rel, err := filepath.Rel(dir, path)
	if err != nil {
		return false
	}
	return rel != ".." && !strings.HasPrefix(rel, ".."+string(filepath.Separator))
}
