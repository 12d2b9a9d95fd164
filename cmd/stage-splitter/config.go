package main

import "errors"

type Config struct {
	OutDir     string
	LabelField string
	Overwrite  bool
	Verbose    bool
}

func (c Config) Validate() error {
	if c.OutDir == "" {
		return errors.New("missing -out")
	}
	if c.LabelField == "" {
		return errors.New("label field must not be empty")
	}
	return nil
}

func defaultConfig() Config {
	return Config{
		LabelField: "Stage",
	}
}
