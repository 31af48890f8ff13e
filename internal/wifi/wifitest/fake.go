// Package wifitest provides a scriptable wifi.Backend for tests.
package wifitest

import (
	"context"
	"errors"
	"sync"

	"linuxbox-finder/internal/wifi"
)

// ErrFake is a generic failure for scripting backend errors.
var ErrFake = errors.New("fake backend failure")

// JoinCall records one Join invocation.
type JoinCall struct {
	Iface    string
	SSID     string
	Password string
}

// Backend is an in-memory wifi.Backend. Set the exported fields before use;
// read recorded calls through the accessor methods.
type Backend struct {
	SSID    string
	SSIDErr error
	IP      string
	IPErr   error
	MAC     string
	MACErr  error
	JoinErr error
	// ConnectedAfter makes DeviceConnected return true from the n-th probe
	// on. Zero means never.
	ConnectedAfter int
	ProbeErr       error
	RadioErr       error
	Profiles       []wifi.Profile
	ListErr        error
	// OnList, when set, runs at the start of every ListProfiles call.
	OnList func()
	// DeleteErr maps profile UUIDs to the error their deletion returns.
	DeleteErr map[string]error
	RebootErr error

	mu      sync.Mutex
	joins   []JoinCall
	probes  int
	radio   []bool
	deleted []string
	reboots int
}

var _ wifi.Backend = (*Backend)(nil)

func (b *Backend) ActiveSSID(ctx context.Context) (string, error) {
	return b.SSID, b.SSIDErr
}

func (b *Backend) IPv4Address(ctx context.Context, iface string) (string, error) {
	return b.IP, b.IPErr
}

func (b *Backend) HardwareAddr(ctx context.Context, iface string) (string, error) {
	return b.MAC, b.MACErr
}

func (b *Backend) Join(ctx context.Context, iface, ssid, password string) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.joins = append(b.joins, JoinCall{Iface: iface, SSID: ssid, Password: password})
	return b.JoinErr
}

func (b *Backend) DeviceConnected(ctx context.Context, iface string) (bool, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.probes++
	if b.ProbeErr != nil {
		return false, b.ProbeErr
	}
	return b.ConnectedAfter > 0 && b.probes >= b.ConnectedAfter, nil
}

func (b *Backend) SetRadio(ctx context.Context, on bool) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.radio = append(b.radio, on)
	return b.RadioErr
}

func (b *Backend) ListProfiles(ctx context.Context) ([]wifi.Profile, error) {
	if b.OnList != nil {
		b.OnList()
	}
	if b.ListErr != nil {
		return nil, b.ListErr
	}
	return b.Profiles, nil
}

func (b *Backend) DeleteProfile(ctx context.Context, uuid string) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if err := b.DeleteErr[uuid]; err != nil {
		return err
	}
	b.deleted = append(b.deleted, uuid)
	return nil
}

func (b *Backend) Reboot(ctx context.Context) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.reboots++
	return b.RebootErr
}

// Joins returns the recorded Join calls.
func (b *Backend) Joins() []JoinCall {
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([]JoinCall(nil), b.joins...)
}

// Probes returns how many times DeviceConnected was called.
func (b *Backend) Probes() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.probes
}

// RadioCalls returns the recorded SetRadio arguments in order.
func (b *Backend) RadioCalls() []bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([]bool(nil), b.radio...)
}

// Deleted returns the UUIDs successfully deleted.
func (b *Backend) Deleted() []string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([]string(nil), b.deleted...)
}

// Reboots returns how many times Reboot was called.
func (b *Backend) Reboots() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.reboots
}
