// Package config loads docshare configuration.
//
// Configuration comes from three layers, later ones winning:
//
//  1. built-in defaults (Default)
//  2. a TOML or YAML file, chosen by extension
//  3. DOCSHARE_* environment variables
//
// A file only needs to name the settings it changes. For example:
//
//	[log]
//	level = "debug"
//
//	[notify]
//	keyspace_events = "Ed"
//
//	[handles]
//	max_keys = 1024
package config
