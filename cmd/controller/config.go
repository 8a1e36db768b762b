package main

import (
	"os"

	"github.com/rogpeppe/rjson"
)

type config struct {
	Address string `json:"address"`
	Debug   bool   `json:"debug"`

	Backend struct {
		Type string `json:"type"`

		// Properties for "disk" type.
		Dir string `json:"dir"`

		// Properties for "bolt" type.
		Path string `json:"path"`

		// Properties for "s3" and "dynamodb" types.
		Profile string `json:"profile"`
		Region  string `json:"region"`
		Bucket  string `json:"bucket"`
		Table   string `json:"table"`
	} `json:"backend"`
}

// loadConfig returns a config with defaults only if pathname does not exist.
func loadConfig(pathname string) (*config, error) {
	c := new(config)
	f, err := os.Open(pathname)
	if os.IsNotExist(err) {
		return c, nil
	}
	if err != nil {
		return nil, err
	}
	defer f.Close()
	err = rjson.NewDecoder(f).Decode(c)
	return c, err
}

func (c *config) applyDefaultsForMissingProperties() {
	if c.Address == "" {
		c.Address = "localhost:8080"
	}
	if c.Backend.Type == "" {
		c.Backend.Type = "memory"
	}
	if c.Backend.Dir == "" {
		c.Backend.Dir = "$HOME/lib/kvverify/data"
	}
	if c.Backend.Path == "" {
		c.Backend.Path = "$HOME/lib/kvverify/controller.db"
	}
}
