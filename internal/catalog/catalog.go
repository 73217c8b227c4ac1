// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 LedgerNotes Contributors

// Package catalog defines the set of study subjects the app serves.
// The default catalog ships embedded; deployments can point at their own
// YAML file to serve a different note set.
package catalog

import (
	_ "embed"
	"os"

	"github.com/samber/oops"
	"gopkg.in/yaml.v3"
)

//go:embed default.yaml
var defaultCatalogYAML []byte

// Subject is one study note entry: a stable ID used in progress records, a
// display name, and the link to the note page.
type Subject struct {
	ID   string `yaml:"id"`
	Name string `yaml:"name"`
	Link string `yaml:"link"`
}

// Catalog is an ordered list of subjects. Order is presentation order.
type Catalog struct {
	Subjects []Subject `yaml:"subjects"`

	ids map[string]struct{}
}

// Default returns the embedded catalog.
func Default() *Catalog {
	c, err := parse(defaultCatalogYAML)
	if err != nil {
		// The embedded catalog is validated at build time by
		// cmd/validate-catalog; a parse failure here is a packaging bug.
		panic(err)
	}
	return c
}

// Load reads a catalog from a YAML file. An empty path returns the embedded
// default.
func Load(path string) (*Catalog, error) {
	if path == "" {
		return Default(), nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, oops.Code("CATALOG_READ_FAILED").
			With("path", path).
			Wrap(err)
	}

	c, err := parse(data)
	if err != nil {
		return nil, oops.Code("CATALOG_PARSE_FAILED").
			With("path", path).
			Wrap(err)
	}
	return c, nil
}

func parse(data []byte) (*Catalog, error) {
	var c Catalog
	if err := yaml.Unmarshal(data, &c); err != nil {
		return nil, err
	}

	c.ids = make(map[string]struct{}, len(c.Subjects))
	for _, s := range c.Subjects {
		if s.ID == "" {
			return nil, oops.Errorf("subject %q has no id", s.Name)
		}
		if _, dup := c.ids[s.ID]; dup {
			return nil, oops.Errorf("duplicate subject id %q", s.ID)
		}
		c.ids[s.ID] = struct{}{}
	}
	return &c, nil
}

// Has reports whether id names a subject in the catalog.
func (c *Catalog) Has(id string) bool {
	_, ok := c.ids[id]
	return ok
}

// Len returns the number of subjects.
func (c *Catalog) Len() int {
	return len(c.Subjects)
}
