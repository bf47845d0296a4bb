// Package configs embeds the configuration template written by
// `rustpress-search init`. The file lives beside this one so it can be read
// and edited in the repo, and ships inside every binary.
package configs

import _ "embed"

// ProjectConfigTemplate is written to .rustpress-search.yaml in the site root.
//
//go:embed project-config.example.yaml
var ProjectConfigTemplate string
