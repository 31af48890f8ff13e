package wifi

import (
	"context"
	"fmt"

	sddbus "github.com/coreos/go-systemd/v22/dbus"
	"github.com/godbus/dbus/v5"
)

const (
	logindBus     = "org.freedesktop.login1"
	logindPath    = dbus.ObjectPath("/org/freedesktop/login1")
	logindManager = "org.freedesktop.login1.Manager"

	networkManagerUnit = "NetworkManager.service"
)

// logindReboot calls Manager.Reboot on the system bus. The shared
// connection from dbus.SystemBus() is not closed.
func logindReboot() error {
	conn, err := dbus.SystemBus()
	if err != nil {
		return fmt.Errorf("system bus: %w", err)
	}
	obj := conn.Object(logindBus, logindPath)
	if call := obj.Call(logindManager+".Reboot", 0, false); call.Err != nil {
		return fmt.Errorf("logind reboot: %w", call.Err)
	}
	return nil
}

// ServiceState returns the ActiveState of a systemd unit.
func (n *NMCLI) ServiceState(ctx context.Context, unit string) (string, error) {
	conn, err := sddbus.NewWithContext(ctx)
	if err != nil {
		return "", fmt.Errorf("connect to system manager: %w", err)
	}
	defer conn.Close()

	props, err := conn.GetUnitPropertiesContext(ctx, unit)
	if err != nil {
		return "", fmt.Errorf("get unit properties for %s: %w", unit, err)
	}
	state, ok := props["ActiveState"].(string)
	if !ok {
		return "", fmt.Errorf("unit %s has no ActiveState", unit)
	}
	return state, nil
}
