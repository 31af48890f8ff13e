package wifi

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
)

const defaultSysClassNet = "/sys/class/net"

// NMCLI is the Backend for Linux hosts running NetworkManager. Commands are
// passed as argv so SSIDs and passwords never go through a shell.
type NMCLI struct {
	sysClassNet string
	timeout     time.Duration
	run         commandRunner
}

// NMCLIOption configures an NMCLI backend.
type NMCLIOption func(*NMCLI)

// WithExecTimeout sets the deadline applied to every external command.
func WithExecTimeout(d time.Duration) NMCLIOption {
	return func(n *NMCLI) {
		if d > 0 {
			n.timeout = d
		}
	}
}

// WithSysClassNet overrides the sysfs directory holding interface entries.
func WithSysClassNet(dir string) NMCLIOption {
	return func(n *NMCLI) {
		n.sysClassNet = dir
	}
}

// NewNMCLI creates an nmcli-backed Backend.
func NewNMCLI(opts ...NMCLIOption) *NMCLI {
	n := &NMCLI{
		sysClassNet: defaultSysClassNet,
		timeout:     defaultExecTimeout,
		run:         execWithTimeout,
	}
	for _, opt := range opts {
		opt(n)
	}
	return n
}

func (n *NMCLI) exec(ctx context.Context, name string, args ...string) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, n.timeout)
	defer cancel()
	return n.run(ctx, name, args...)
}

// ActiveSSID returns the SSID nmcli flags as active.
func (n *NMCLI) ActiveSSID(ctx context.Context) (string, error) {
	out, err := n.exec(ctx, "nmcli", "-t", "-f", "active,ssid", "dev", "wifi")
	if err != nil {
		return "", err
	}
	return parseActiveSSID(out), nil
}

// IPv4Address returns the first IPv4 address assigned to iface.
func (n *NMCLI) IPv4Address(ctx context.Context, iface string) (string, error) {
	out, err := n.exec(ctx, "ip", "-4", "-o", "addr", "show", iface)
	if err != nil {
		return "", err
	}
	addr := parseIPv4Addr(out)
	if addr == "" {
		return "", fmt.Errorf("no IPv4 address on %s", iface)
	}
	return addr, nil
}

// HardwareAddr reads the interface MAC address from sysfs.
func (n *NMCLI) HardwareAddr(ctx context.Context, iface string) (string, error) {
	data, err := os.ReadFile(filepath.Join(n.sysClassNet, iface, "address"))
	if err != nil {
		return "", err
	}
	mac := strings.TrimSpace(string(data))
	if mac == "" {
		return "", fmt.Errorf("empty hardware address for %s", iface)
	}
	return mac, nil
}

// Join connects iface to ssid.
func (n *NMCLI) Join(ctx context.Context, iface, ssid, password string) error {
	args := []string{"device", "wifi", "connect", ssid}
	if password != "" {
		args = append(args, "password", password)
	}
	args = append(args, "ifname", iface)

	if _, err := n.exec(ctx, "nmcli", args...); err != nil {
		return fmt.Errorf("join %q: %w", ssid, err)
	}
	return nil
}

// DeviceConnected reports whether NetworkManager considers iface connected.
func (n *NMCLI) DeviceConnected(ctx context.Context, iface string) (bool, error) {
	out, err := n.exec(ctx, "nmcli", "-t", "-f", "GENERAL.STATE", "device", "show", iface)
	if err != nil {
		return false, err
	}
	return strings.Contains(out, "(connected)"), nil
}

// SetRadio switches the WiFi radio on or off.
func (n *NMCLI) SetRadio(ctx context.Context, on bool) error {
	state := "off"
	if on {
		state = "on"
	}
	_, err := n.exec(ctx, "nmcli", "radio", "wifi", state)
	return err
}

// ListProfiles returns every saved connection profile.
func (n *NMCLI) ListProfiles(ctx context.Context) ([]Profile, error) {
	out, err := n.exec(ctx, "nmcli", "-t", "-f", "UUID,NAME", "connection", "show")
	if err != nil {
		return nil, err
	}
	return parseProfiles(out), nil
}

// DeleteProfile removes the profile with the given UUID.
func (n *NMCLI) DeleteProfile(ctx context.Context, uuid string) error {
	_, err := n.exec(ctx, "nmcli", "connection", "delete", "uuid", uuid)
	return err
}

// Reboot asks logind to restart the machine, falling back to systemctl.
func (n *NMCLI) Reboot(ctx context.Context) error {
	if err := logindReboot(); err != nil {
		log.Warn().Err(err).Str("component", "wifi").Msg("logind reboot failed, falling back to systemctl")
		_, err = n.exec(ctx, "systemctl", "reboot")
		return err
	}
	return nil
}

// ============================================================================
// nmcli output parsing
// ============================================================================

// parseActiveSSID picks the SSID from `nmcli -t -f active,ssid dev wifi`
// output, e.g. "yes:HomeNet".
func parseActiveSSID(output string) string {
	scanner := bufio.NewScanner(strings.NewReader(output))
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if rest, ok := strings.CutPrefix(line, "yes:"); ok {
			return unescapeTerse(rest)
		}
	}
	return ""
}

// parseIPv4Addr extracts the address from `ip -4 -o addr show` output:
// "3: wlan0    inet 192.168.1.20/24 brd 192.168.1.255 scope global wlan0".
func parseIPv4Addr(output string) string {
	fields := strings.Fields(output)
	for i, f := range fields {
		if f == "inet" && i+1 < len(fields) {
			addr, _, _ := strings.Cut(fields[i+1], "/")
			return addr
		}
	}
	return ""
}

// parseProfiles parses `nmcli -t -f UUID,NAME connection show` output.
func parseProfiles(output string) []Profile {
	var profiles []Profile
	scanner := bufio.NewScanner(strings.NewReader(output))
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		uuid, name, _ := strings.Cut(line, ":")
		if uuid == "" {
			continue
		}
		profiles = append(profiles, Profile{UUID: uuid, Name: unescapeTerse(name)})
	}
	return profiles
}

// unescapeTerse undoes nmcli's terse-mode escaping of ':' and '\'.
func unescapeTerse(s string) string {
	if !strings.Contains(s, `\`) {
		return s
	}
	var b strings.Builder
	for i := 0; i < len(s); i++ {
		if s[i] == '\\' && i+1 < len(s) {
			i++
		}
		b.WriteByte(s[i])
	}
	return b.String()
}
