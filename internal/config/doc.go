// Package config loads and validates grist configuration from TOML.
//
// Defaults come first, an optional config file overrides them, and the
// result is normalized (path expansion) and validated before use. Job
// blocks use pointer fields so an absent setting is distinguishable from an
// explicit zero.
package config
