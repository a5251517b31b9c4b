package cmd

// SessionsCmd manages sessions
type SessionsCmd struct {
	List      SessionsListCmd      `cmd:"list" help:"List all sessions" default:"1"`
	View      SessionsViewCmd      `cmd:"view" help:"View a specific session"`
	New       SessionsNewCmd       `cmd:"new" help:"Create a new session and select it"`
	Select    SessionsSelectCmd    `cmd:"select" help:"Select the current session"`
	Del       SessionsDelCmd       `cmd:"del" help:"Delete a session"`
	Export    SessionsExportCmd    `cmd:"export" help:"Export a session to a JSON file"`
	ExportAll SessionsExportAllCmd `cmd:"export-all" help:"Export all sessions and favorites"`
	Import    SessionsImportCmd    `cmd:"import" help:"Import a previously exported session"`
	Prune     SessionsPruneCmd     `cmd:"prune" help:"Report the load-time integrity pass results"`
}
