package distpoint

import (
	"path/filepath"
	"strings"
)

// Category classifies a payload as a package or a script and drives which
// flat directory (or key prefix) it lands in on each backend.
type Category int

const (
	// CategoryPackage is an installable package (.pkg, .dmg, .zip).
	CategoryPackage Category = iota

	// CategoryScript is everything else.
	CategoryScript
)

// Directory names are fixed by the backend layout: every share exposes flat
// Packages/ and Scripts/ directories at its root, with no nesting.
const (
	PackagesDir = "Packages"
	ScriptsDir  = "Scripts"
)

// packageExtensions are the filename extensions treated as packages,
// compared case-insensitively.
var packageExtensions = map[string]bool{
	".pkg": true,
	".dmg": true,
	".zip": true,
}

// Classify determines the category of a payload from its filename extension.
// The match is case-insensitive, so "App.DMG" classifies the same as
// "app.dmg".
func Classify(filename string) Category {
	ext := strings.ToLower(filepath.Ext(filename))
	if packageExtensions[ext] {
		return CategoryPackage
	}
	return CategoryScript
}

// Dir returns the flat directory name payloads of this category are stored
// under.
func (c Category) Dir() string {
	if c == CategoryPackage {
		return PackagesDir
	}
	return ScriptsDir
}

func (c Category) String() string {
	if c == CategoryPackage {
		return "package"
	}
	return "script"
}
