package main

import (
	"os"

	"gopkg.in/yaml.v2"
)

// fileConfig is the shape of an optional teckyl.yaml config file
// carrying default flag values. CLI flags always override a value loaded
// from here — the root command applies the loaded values after argument
// parsing, and only to flags not set on the command line.
type fileConfig struct {
	BodyOp     string `yaml:"body-op"`
	Specialize bool   `yaml:"specialize-structured-ops"`
}

// loadConfig reads path if it exists, returning a zero fileConfig (not
// an error) when the file is simply absent — the config file is always
// optional.
func loadConfig(path string) (fileConfig, error) {
	var cfg fileConfig
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return cfg, err
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, err
	}
	return cfg, nil
}
