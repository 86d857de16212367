// Package event defines the small set of asynchronous notifications a
// device wrapper can fire while an upgrade is in progress, mirroring the
// device/event convention used across the wider device wrapper layer.
package event

// Event identifies one kind of asynchronous device notification.
type Event string

const (
	// EventStatusChanged fires whenever UpgradeFirmware's progress sink
	// receives an update; meta is a *Status.
	EventStatusChanged Event = "statusChanged"

	// EventUpgradeSucceeded fires once, after re-enumeration and version
	// confirmation both succeed.
	EventUpgradeSucceeded Event = "upgradeSucceeded"

	// EventUpgradeFailed fires once, with meta set to the error that
	// ended the attempt.
	EventUpgradeFailed Event = "upgradeFailed"

	// EventGone fires when Device.Close releases the wrapped connection.
	// The close performed during an upgrade's reboot does not fire it.
	EventGone Event = "gone"
)

// Status is the meta payload accompanying EventStatusChanged.
type Status struct {
	Percent float64
	Text    string
	Done    bool
}
