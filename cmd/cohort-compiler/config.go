package main

import "errors"

type Config struct {
	OutDir       string
	WorkbookPath string
	Overwrite    bool
	Verbose      bool
}

func (c Config) Validate() error {
	if c.OutDir == "" {
		return errors.New("missing -out")
	}
	return nil
}

func defaultConfig() Config {
	return Config{}
}
