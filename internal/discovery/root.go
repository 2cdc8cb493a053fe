// SPDX-License-Identifier: MPL-2.0

package discovery

import (
	"path/filepath"
	"strings"
)

// buildRoot is a build directory resolved for re-rooting walked paths.
type buildRoot struct {
	// abs is the absolute build directory path.
	abs string
	// display is the first part of every PagePath: the caller's relative form of
	// the build directory, or its base name for absolute forms.
	display string
}

func resolveBuildRoot(buildDir string) (buildRoot, error) {
	abs, err := filepath.Abs(buildDir)
	if err != nil {
		return buildRoot{}, err
	}
	return buildRoot{abs: abs, display: displayRoot(buildDir, abs)}, nil
}

// displayRoot derives the PagePath prefix from the caller-supplied build dir.
// Absolute forms and forms that do not name the directory itself (".", "..",
// "../x") fall back to the base name of the resolved path.
func displayRoot(buildDir, abs string) string {
	if filepath.IsAbs(buildDir) || filepath.VolumeName(buildDir) != "" {
		return filepath.Base(abs)
	}
	clean := strings.TrimLeft(filepath.Clean(buildDir), `/\`)

	if clean == "" || clean == "." || clean == ".." || strings.HasPrefix(clean, ".."+string(filepath.Separator)) {
		return filepath.Base(abs)
	}
	return clean
}

// relative returns path relative to the build directory, or "" when path is the
// build directory itself or lies outside it.
func (r buildRoot) relative(path string) (string, error) {
	if !filepath.IsAbs(path) {
		abs, err := filepath.Abs(path)
		if err != nil {
			return "", err
		}
		path = abs
	}

	rel, err := filepath.Rel(r.abs, path)
	if err != nil {
		return "", nil //nolint:nilerr // different volume means outside the build dir
	}
	if rel == "." || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return "", nil
	}
	return rel, nil
}
