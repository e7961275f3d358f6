package config

import "testing"

func TestValidate(t *testing.T) {
	t.Run("default config is valid", func(t *testing.T) {
		if err := Default().Validate(); err != nil {
			t.Errorf("default config should validate, got %v", err)
		}
	})

	t.Run("missing fragment directory", func(t *testing.T) {
		cfg := Default()
		cfg.FragmentDir = ""
		if err := cfg.Validate(); err == nil {
			t.Error("expected error for empty fragment directory")
		}
	})

	t.Run("missing apply binary", func(t *testing.T) {
		cfg := Default()
		cfg.ApplyBin = ""
		if err := cfg.Validate(); err == nil {
			t.Error("expected error for empty apply binary path")
		}
	})
}
