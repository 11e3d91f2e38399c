package serve

import "github.com/LegacyCodeHQ/sapling/componenttree"

const (
	routeIndex    = "/"
	routeEvents   = "/events"
	routeTree     = "/tree"
	routeParse    = "/parse"
	routeEntry    = "/entry"
	routeToggle   = "/toggle"
	routeSettings = "/settings"
)

const (
	messageParsedData   = "parsed-data"
	messageSettingsData = "settings-data"
)

// updateMessage is the wire payload broadcast to connected hosts after any
// mutating operation.
type updateMessage struct {
	Type     string                  `json:"type"`
	Tree     *componenttree.Tree     `json:"tree,omitempty"`
	Settings *componenttree.Settings `json:"settings,omitempty"`
}

// toggleRequest is the body of POST /toggle.
type toggleRequest struct {
	ID       string `json:"id"`
	Expanded bool   `json:"expanded"`
}

// settingsRequest is the body of POST /settings.
type settingsRequest struct {
	Key   string `json:"key"`
	Value string `json:"value"`
}

// entryRequest is the body of POST /entry.
type entryRequest struct {
	Path string `json:"path"`
}
