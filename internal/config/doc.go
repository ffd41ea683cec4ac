// Package config loads poolsort settings from YAML or JSON files.
//
// The file has three sections:
//
//	bench:
//	  preset: quick
//	  elements: 1000000
//	  threads: 8
//	  runs: 5
//	  seed: 42
//	  sort_threshold: 2048
//	  baseline: true
//	log:
//	  level: info
//	server:
//	  addr: ":8080"
//
// Zero values in the bench section keep the preset (or default) value.
package config
