package tools

import (
	"github.com/driftlock/browsermux/pkg/browser"
	"github.com/driftlock/browsermux/pkg/security/artifacts"
)

// RegisterDefaults registers the standard tool set on a dispatcher.
// guard confines video recording destinations to the artifact directory.
func RegisterDefaults(d *Dispatcher, registry *browser.Registry, guard *artifacts.Guard) {
	d.Register(
		NewTabsTool(),
		NewSnapshotTool(),
		NewConsoleTool(),
		NewNetworkTool(),
		NewWebRTCTool(),
		NewVideoTool(guard),
		NewConfigureTool(),
		NewListSessionsTool(registry),
		NewCloseSessionTool(registry),
	)
}
