// Package config loads ontaudit settings from ONTAUDIT_* environment
// variables and reads the prefix and graph IRI files that feed query
// template expansion.
package config
