package results

// SetEditorQueryMsg tells the app to put a query in the editor pane. Binds
// pre-fills the inspector, keyed by upper-cased bind name.
type SetEditorQueryMsg struct {
	Query string
	Binds map[string]string
}

// StatusNotifyMsg tells the app to show a message in the status bar.
type StatusNotifyMsg struct {
	Message string
}

// NextPageMsg asks the app to fetch the next page of the current result.
type NextPageMsg struct{}
