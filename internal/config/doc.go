// Package config loads, normalizes, and validates datapipe configuration data.
//
// It supplies repository defaults, expands user paths (including tilde
// shortcuts), reads TOML files, loads an optional .env file, and honours
// environment overrides for the external tool binaries. The Config type is an
// explicit schema: every section is a typed struct, required fields are
// checked eagerly, and the dataset split fractions must sum to 1.0 before any
// stage touches the filesystem.
//
// Always obtain settings through this package so downstream code receives
// sanitized paths, canonical log formats, and clear validation errors.
package config
