package config

import (
	"fmt"

	"github.com/hashicorp/hcl/v2"
	"github.com/hashicorp/hcl/v2/gohcl"
	"github.com/hashicorp/hcl/v2/hclparse"
)

// Load reads and decodes the configuration file at path.
func Load(path string) (*File, error) {
	file, diags := hclparse.NewParser().ParseHCLFile(path)
	if diags.HasErrors() {
		return nil, fmt.Errorf("failed to parse config file %s: %w", path, diags)
	}
	return decode(file, path)
}

// Parse decodes configuration source.
func Parse(src []byte, filename string) (*File, error) {
	file, diags := hclparse.NewParser().ParseHCL(src, filename)
	if diags.HasErrors() {
		return nil, fmt.Errorf("failed to parse config file %s: %w", filename, diags)
	}
	return decode(file, filename)
}

func decode(file *hcl.File, filename string) (*File, error) {
	var cfg File
	if diags := gohcl.DecodeBody(file.Body, nil, &cfg); diags.HasErrors() {
		return nil, fmt.Errorf("failed to decode config file %s: %w", filename, diags)
	}
	return &cfg, nil
}
