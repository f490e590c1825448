// Package seed embeds the default catalog and decision tree shipped with SmartMeal.
package seed

import (
	_ "embed"
)

// TreeYAML is the default decision tree definition.
//
//go:embed tree.yaml
var TreeYAML []byte

// CatalogYAML is the default ingredient and recipe catalog.
//
//go:embed catalog.yaml
var CatalogYAML []byte
