package config

import (
	"errors"
	"io/fs"

	"github.com/spf13/viper"
)

// Default ports for the mountable share protocols.
const (
	DefaultAFPPort = "548"
	DefaultSMBPort = "139"
)

func applyDefaults(v *viper.Viper) {
	v.SetDefault("logging.level", "INFO")
}

func isNotExist(err error) bool {
	var pathErr *fs.PathError
	return errors.As(err, &pathErr) || errors.Is(err, fs.ErrNotExist)
}
