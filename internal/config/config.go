// Package config holds the explicit runtime configuration of netfold.
//
// Everything environment-dependent is resolved by the caller and passed in
// here: the fragment directory and the path of the external apply binary.
// There are no package-level defaults and no search-path discovery.
package config

import "fmt"

// Config carries the injected locations netfold operates on.
type Config struct {
	// FragmentDir is the directory holding the YAML fragment files.
	FragmentDir string

	// ApplyBin is the resolved path of the external apply binary.
	ApplyBin string
}

// Default returns the conventional netplan locations. Callers override the
// fields as needed before constructing the engine.
func Default() Config {
	return Config{
		FragmentDir: "/etc/netplan",
		ApplyBin:    "/usr/sbin/netplan",
	}
}

// Validate checks that the required locations are set.
func (c Config) Validate() error {
	if c.FragmentDir == "" {
		return fmt.Errorf("fragment directory must be set")
	}
	if c.ApplyBin == "" {
		return fmt.Errorf("apply binary path must be set")
	}
	return nil
}
