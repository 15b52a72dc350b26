package distpoint

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestClassify(t *testing.T) {
	tests := []struct {
		filename string
		want     Category
	}{
		{"app.pkg", CategoryPackage},
		{"App.DMG", CategoryPackage},
		{"archive.zip", CategoryPackage},
		{"Installer.PKG", CategoryPackage},
		{"postinstall.sh", CategoryScript},
		{"fixup.py", CategoryScript},
		{"noextension", CategoryScript},
		{"weird.pkg.txt", CategoryScript},
	}

	for _, tt := range tests {
		t.Run(tt.filename, func(t *testing.T) {
			assert.Equal(t, tt.want, Classify(tt.filename))
		})
	}
}

func TestCategoryDir(t *testing.T) {
	assert.Equal(t, "Packages", CategoryPackage.Dir())
	assert.Equal(t, "Scripts", CategoryScript.Dir())
}
