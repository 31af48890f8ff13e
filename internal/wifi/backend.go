package wifi

import "context"

// Profile is a saved NetworkManager connection profile.
type Profile struct {
	UUID string
	Name string
}

// Backend is the set of OS capabilities the manager needs. Implementations
// hide the command-line tools and their output formats.
type Backend interface {
	// ActiveSSID returns the SSID of the active network, or "" if none.
	ActiveSSID(ctx context.Context) (string, error)
	IPv4Address(ctx context.Context, iface string) (string, error)
	HardwareAddr(ctx context.Context, iface string) (string, error)
	// Join asks the network manager to connect iface to ssid. An empty
	// password joins an open network.
	Join(ctx context.Context, iface, ssid, password string) error
	DeviceConnected(ctx context.Context, iface string) (bool, error)
	SetRadio(ctx context.Context, on bool) error
	ListProfiles(ctx context.Context) ([]Profile, error)
	DeleteProfile(ctx context.Context, uuid string) error
	Reboot(ctx context.Context) error
}

// ServiceChecker is implemented by backends that can report the state of a
// systemd unit.
type ServiceChecker interface {
	ServiceState(ctx context.Context, unit string) (string, error)
}
