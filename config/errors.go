package config

import "errors"

// ErrUnsupportedFormat is returned by Load when path's extension is neither
// .yaml/.yml nor .toml.
var ErrUnsupportedFormat = errors.New("config: unsupported file format")
