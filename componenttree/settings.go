package componenttree

import (
	"fmt"
	"strconv"
)

// Settings is the validated configuration consumed by resolution.
type Settings struct {
	UseAlias             bool   `json:"useAlias"`
	AppRoot              string `json:"appRoot"`
	WebpackConfig        string `json:"webpackConfig"`
	TSConfig             string `json:"tsConfig"`
	IncludeNonComponents bool   `json:"includeNonComponents"`
}

// DefaultSettings returns the settings a fresh engine starts with. Files
// without a detected component export are retained as plain nodes by default.
func DefaultSettings() Settings {
	return Settings{IncludeNonComponents: true}
}

// Valid reports whether settings are complete enough to run a parse:
// AppRoot must be set, and when UseAlias is enabled at least one of
// WebpackConfig/TSConfig must point to a parseable file.
func (s Settings) Valid(ws Workspace) bool {
	if s.AppRoot == "" {
		return false
	}
	if !s.UseAlias {
		return true
	}
	if s.TSConfig == "" && s.WebpackConfig == "" {
		return false
	}
	if s.TSConfig != "" {
		content, err := ws.ReadFile(s.TSConfig)
		if err != nil {
			return false
		}
		if _, err := parseTSConfigAliases(content, s.TSConfig); err != nil {
			return false
		}
	}
	if s.WebpackConfig != "" {
		content, err := ws.ReadFile(s.WebpackConfig)
		if err != nil {
			return false
		}
		if _, err := parseWebpackAliases(content, s.WebpackConfig); err != nil {
			return false
		}
	}
	return true
}

// Update mutates a single settings field identified by key. Keys mirror the
// JSON field names. It never triggers a re-parse; the caller decides when to
// invoke Parse again.
func (s *Settings) Update(key, value string) error {
	switch key {
	case "useAlias":
		parsed, err := strconv.ParseBool(value)
		if err != nil {
			return fmt.Errorf("invalid value for useAlias: %q", value)
		}
		s.UseAlias = parsed
	case "appRoot":
		s.AppRoot = value
	case "webpackConfig":
		s.WebpackConfig = value
	case "tsConfig":
		s.TSConfig = value
	case "includeNonComponents":
		parsed, err := strconv.ParseBool(value)
		if err != nil {
			return fmt.Errorf("invalid value for includeNonComponents: %q", value)
		}
		s.IncludeNonComponents = parsed
	default:
		return fmt.Errorf("unknown settings key: %q", key)
	}
	return nil
}
