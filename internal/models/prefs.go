package models

// Preferences holds the persisted UI settings. Stored server-side under a
// fixed key; document content is never persisted across sessions.
type Preferences struct {
	Theme        string `json:"theme"`
	FontSize     int    `json:"fontSize"`
	ShowSidebar  bool   `json:"showSidebar"`
	ShowSchema   bool   `json:"showSchema"`
	ViewMode     string `json:"viewMode"` // "code", "grid" or "compare"
	WordWrap     bool   `json:"wordWrap"`
	LenientJSON  bool   `json:"lenientJson"`
	RecentsLimit int    `json:"recentsLimit"`
}

// DefaultPreferences returns the settings used before the user changes anything.
func DefaultPreferences() Preferences {
	return Preferences{
		Theme:        "dark",
		FontSize:     13,
		ShowSidebar:  true,
		ShowSchema:   false,
		ViewMode:     "code",
		WordWrap:     false,
		LenientJSON:  true,
		RecentsLimit: 20,
	}
}
