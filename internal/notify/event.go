// Package notify carries "snapshot updated" events to downstream consumers such as a site rebuild.
package notify

// SnapshotEvent describes a snapshot that was just written.
type SnapshotEvent struct {
	RunID   string `json:"run_id"`
	Source  string `json:"source"`
	Path    string `json:"path"`
	Count   int    `json:"count"`
	Updated string `json:"updated"`
}

// Attributes returns the message attributes used for subscription filtering.
func (e SnapshotEvent) Attributes() map[string]string {
	attrs := map[string]string{"source": e.Source}
	if e.RunID != "" {
		attrs["run_id"] = e.RunID
	}
	return attrs
}
