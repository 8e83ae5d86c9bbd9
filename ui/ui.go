// Package ui embeds the static front-end served at the site root.
package ui

import "embed"

//go:embed dist
var FS embed.FS
