package manifest

import (
	"encoding/json"
	"fmt"

	"github.com/go-git/go-billy/v5"
	"github.com/go-git/go-billy/v5/util"
	"github.com/ubolite/publish-extension/schemas"
)

// FileName is the manifest file at the root of an unpacked extension
const FileName = "manifest.json"

// Manifest is the subset of the extension manifest the publisher uses
type Manifest struct {
	Name            string `json:"name"`
	Version         string `json:"version"`
	ManifestVersion int    `json:"manifest_version"`
}

// Read loads and validates the manifest at path
func Read(fs billy.Filesystem, path string) (*Manifest, error) {
	data, err := util.ReadFile(fs, path)
	if err != nil {
		return nil, err
	}
	m, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return m, nil
}

// Parse decodes a manifest document. The version must have the MAJOR.MONTHDAY.DAYMINUTES shape.
func Parse(data []byte) (*Manifest, error) {
	if err := schemas.Validate(schemas.Manifest, data); err != nil {
		return nil, fmt.Errorf("invalid manifest: %w", err)
	}

	var m Manifest
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("invalid manifest: %w", err)
	}
	return &m, nil
}
