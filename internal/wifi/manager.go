// Package wifi manages the single WiFi interface of the device: status,
// network join, saved profiles and the device command allow-list.
package wifi

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

const (
	DefaultInterface    = "wlan0"
	DefaultPollAttempts = 20
	DefaultPollInterval = time.Second

	// RadioToggleDelay is the pause between switching the radio off and on.
	RadioToggleDelay = time.Second
	// PowerActionDelay lets the response reach the client before a reboot.
	PowerActionDelay = time.Second

	unknownValue        = "Unknown"
	notConnectedMessage = "Not connected to any WiFi network"
)

// Device commands accepted by ExecuteCommand.
const (
	CommandRestartWiFi   = "restart_wifi"
	CommandRestartDevice = "restart_device"
	CommandFactoryReset  = "factory_reset"
)

// ConnectionStatus is the current state of the managed interface.
type ConnectionStatus struct {
	Connected    bool   `json:"connected"`
	SSID         string `json:"ssid"`
	IPAddress    string `json:"ip_address"`
	MACAddress   string `json:"mac_address"`
	ErrorMessage string `json:"error_message"`
}

// Manager is the process-wide adapter over one WiFi interface.
type Manager struct {
	backend      Backend
	iface        string
	pollAttempts int
	pollInterval time.Duration
	radioDelay   time.Duration
	powerDelay   time.Duration

	sleep    func(time.Duration)
	schedule func(time.Duration, func())

	// joinMu keeps two joins from racing on the same interface.
	joinMu       sync.Mutex
	powerPending atomic.Bool
	logger       zerolog.Logger
}

// Option configures a Manager.
type Option func(*Manager)

// WithInterface sets the managed interface name.
func WithInterface(name string) Option {
	return func(m *Manager) {
		if name != "" {
			m.iface = name
		}
	}
}

// WithPollAttempts sets how many times Configure probes the connection.
func WithPollAttempts(n int) Option {
	return func(m *Manager) {
		if n > 0 {
			m.pollAttempts = n
		}
	}
}

// WithPollInterval sets the pause between connection probes.
func WithPollInterval(d time.Duration) Option {
	return func(m *Manager) {
		if d >= 0 {
			m.pollInterval = d
		}
	}
}

// WithRadioToggleDelay sets the pause between radio off and on.
func WithRadioToggleDelay(d time.Duration) Option {
	return func(m *Manager) {
		if d >= 0 {
			m.radioDelay = d
		}
	}
}

// WithPowerActionDelay sets how long a scheduled reboot waits.
func WithPowerActionDelay(d time.Duration) Option {
	return func(m *Manager) {
		if d >= 0 {
			m.powerDelay = d
		}
	}
}

// WithSleep replaces the blocking sleep used between probes.
func WithSleep(fn func(time.Duration)) Option {
	return func(m *Manager) {
		if fn != nil {
			m.sleep = fn
		}
	}
}

// WithScheduler replaces the timer used for deferred power actions.
func WithScheduler(fn func(time.Duration, func())) Option {
	return func(m *Manager) {
		if fn != nil {
			m.schedule = fn
		}
	}
}

// NewManager creates a Manager on top of backend.
func NewManager(backend Backend, opts ...Option) *Manager {
	m := &Manager{
		backend:      backend,
		iface:        DefaultInterface,
		pollAttempts: DefaultPollAttempts,
		pollInterval: DefaultPollInterval,
		radioDelay:   RadioToggleDelay,
		powerDelay:   PowerActionDelay,
		sleep:        time.Sleep,
		schedule: func(d time.Duration, fn func()) {
			time.AfterFunc(d, fn)
		},
	}
	for _, opt := range opts {
		opt(m)
	}
	m.logger = log.With().Str("component", "wifi").Str("interface", m.iface).Logger()
	return m
}

// Interface returns the managed interface name.
func (m *Manager) Interface() string {
	return m.iface
}

// Initialize verifies the managed interface exists by reading its hardware
// address.
func (m *Manager) Initialize(ctx context.Context) error {
	m.logger.Info().Msg("initializing WiFi manager")

	mac, err := m.backend.HardwareAddr(ctx, m.iface)
	if err != nil {
		m.logger.Error().Err(err).Msg("WiFi interface not found")
		return fmt.Errorf("%w: %s: %w", ErrInterfaceNotFound, m.iface, err)
	}
	m.logger.Info().Str("mac", mac).Msg("WiFi interface initialized")

	if checker, ok := m.backend.(ServiceChecker); ok {
		state, err := checker.ServiceState(ctx, networkManagerUnit)
		switch {
		case err != nil:
			m.logger.Warn().Err(err).Msg("could not query NetworkManager state")
		case state != "active":
			m.logger.Warn().Str("state", state).Msg("NetworkManager is not active")
		}
	}
	return nil
}

// Close logs manager shutdown. The manager holds no connections of its own;
// each D-Bus call opens and closes its own. It is safe to call more than once.
func (m *Manager) Close() {
	m.logger.Info().Msg("cleaning up WiFi manager")
}

// Status reports the current connection state. Sub-query failures are
// reported as "Unknown" fields rather than errors.
func (m *Manager) Status(ctx context.Context) ConnectionStatus {
	var status ConnectionStatus

	ssid, err := m.backend.ActiveSSID(ctx)
	if err != nil {
		m.logger.Debug().Err(err).Msg("active network query failed")
	}
	if err == nil && ssid != "" {
		status.Connected = true
		status.SSID = ssid
	}

	status.IPAddress = m.orUnknown("ip address", func() (string, error) {
		return m.backend.IPv4Address(ctx, m.iface)
	})
	status.MACAddress = m.orUnknown("mac address", func() (string, error) {
		return m.backend.HardwareAddr(ctx, m.iface)
	})

	if !status.Connected {
		status.ErrorMessage = notConnectedMessage
	}
	return status
}

func (m *Manager) orUnknown(what string, query func() (string, error)) string {
	v, err := query()
	if err != nil {
		m.logger.Debug().Err(err).Msgf("%s query failed", what)
		return unknownValue
	}
	if v == "" {
		return unknownValue
	}
	return v
}

// Configure joins ssid and waits for the interface to report connected.
// The join is not cancelled when ctx is; concurrent calls are serialized.
func (m *Manager) Configure(ctx context.Context, ssid, password string) ConfigOutcome {
	m.joinMu.Lock()
	defer m.joinMu.Unlock()

	ctx = context.WithoutCancel(ctx)
	logger := m.logger.With().Str("ssid", ssid).Logger()
	logger.Info().Msg("configuring WiFi")

	if active, err := m.backend.ActiveSSID(ctx); err == nil && active == ssid {
		logger.Info().Msg("already connected to the requested SSID")
		return Success
	}

	if err := m.removeStaleProfiles(ctx, ssid); err != nil {
		logger.Error().Err(err).Msg("failed to delete existing connection")
		return ConnectionFailed
	}

	if err := m.backend.Join(ctx, m.iface, ssid, password); err != nil {
		logger.Error().Err(err).Msg("failed to connect to WiFi network")
		return ConnectionFailed
	}

	for attempt := 1; attempt <= m.pollAttempts; attempt++ {
		connected, err := m.backend.DeviceConnected(ctx, m.iface)
		if err == nil && connected {
			logger.Info().Int("attempts", attempt).Msg("connected to WiFi network")
			return Success
		}
		if attempt < m.pollAttempts {
			m.sleep(m.pollInterval)
		}
	}

	logger.Warn().
		Int("attempts", m.pollAttempts).
		Dur("interval", m.pollInterval).
		Msg("timed out waiting for WiFi connection")
	return Timeout
}

// removeStaleProfiles deletes saved profiles named ssid so the join creates
// a fresh one with the new credentials. An unreadable profile list is not
// an error.
func (m *Manager) removeStaleProfiles(ctx context.Context, ssid string) error {
	profiles, err := m.backend.ListProfiles(ctx)
	if err != nil {
		m.logger.Debug().Err(err).Msg("could not list existing connections")
		return nil
	}
	for _, p := range profiles {
		if p.Name != ssid {
			continue
		}
		m.logger.Info().Str("uuid", p.UUID).Str("ssid", ssid).Msg("connection already exists, deleting it first")
		if err := m.backend.DeleteProfile(ctx, p.UUID); err != nil {
			return fmt.Errorf("delete connection %s: %w", p.UUID, err)
		}
	}
	return nil
}

// DeleteAllNetworks deletes every saved profile. Individual failures are
// logged and do not stop the remaining deletions.
func (m *Manager) DeleteAllNetworks(ctx context.Context) error {
	m.logger.Info().Msg("deleting all saved WiFi networks")

	profiles, err := m.backend.ListProfiles(ctx)
	if err != nil {
		m.logger.Error().Err(err).Msg("failed to list connections")
		return fmt.Errorf("%w: %w", ErrProfileList, err)
	}

	var errs []error
	for _, p := range profiles {
		if err := m.backend.DeleteProfile(ctx, p.UUID); err != nil {
			m.logger.Warn().Err(err).Str("uuid", p.UUID).Msg("failed to delete connection")
			errs = append(errs, err)
			continue
		}
		m.logger.Info().Str("uuid", p.UUID).Msg("deleted connection")
	}
	if len(errs) > 0 {
		m.logger.Warn().
			Err(errors.Join(errs...)).
			Int("failed", len(errs)).
			Int("total", len(profiles)).
			Msg("some connections could not be deleted")
	}
	return nil
}

// ============================================================================
// Device commands
// ============================================================================

type commandFunc func(m *Manager, ctx context.Context) (string, error)

var commands = map[string]commandFunc{
	CommandRestartWiFi:   (*Manager).restartWiFi,
	CommandRestartDevice: (*Manager).restartDevice,
	CommandFactoryReset:  (*Manager).factoryReset,
}

// ExecuteCommand runs one of the allow-listed device commands. Every name
// yields a message; ok is false for unknown names and failed actions.
// Commands run to completion even if ctx is cancelled.
func (m *Manager) ExecuteCommand(ctx context.Context, name string) (message string, ok bool) {
	ctx = context.WithoutCancel(ctx)
	fn, found := commands[name]
	if !found {
		m.logger.Warn().Str("command", name).Msg("unknown command")
		return fmt.Sprintf("Unknown command: %s", name), false
	}

	m.logger.Info().Str("command", name).Msg("executing command")
	msg, err := fn(m, ctx)
	if err != nil {
		m.logger.Error().Err(err).Str("command", name).Msg("command failed")
		return msg, false
	}
	return msg, true
}

func (m *Manager) restartWiFi(ctx context.Context) (string, error) {
	if err := m.backend.SetRadio(ctx, false); err != nil {
		return sanitizeExecError("WiFi radio off", err), err
	}
	m.sleep(m.radioDelay)
	if err := m.backend.SetRadio(ctx, true); err != nil {
		return sanitizeExecError("WiFi radio on", err), err
	}
	return "WiFi restart completed", nil
}

func (m *Manager) restartDevice(ctx context.Context) (string, error) {
	if !m.powerPending.CompareAndSwap(false, true) {
		return ErrPowerActionPending.Error(), ErrPowerActionPending
	}
	m.scheduleReboot()
	return "Restart device completed", nil
}

// factoryReset holds the power flag from the profile wipe through the reboot.
func (m *Manager) factoryReset(ctx context.Context) (string, error) {
	if !m.powerPending.CompareAndSwap(false, true) {
		return ErrPowerActionPending.Error(), ErrPowerActionPending
	}
	if err := m.DeleteAllNetworks(ctx); err != nil {
		m.powerPending.Store(false)
		return sanitizeExecError("Factory reset", err), err
	}
	m.scheduleReboot()
	return "Factory reset completed", nil
}

// scheduleReboot reboots the device after powerDelay. The caller must hold
// the power flag; a failed reboot clears it so it can be retried.
func (m *Manager) scheduleReboot() {
	m.schedule(m.powerDelay, func() {
		m.logger.Info().Msg("rebooting device")
		if err := m.backend.Reboot(context.Background()); err != nil {
			m.logger.Error().Err(err).Msg("reboot command failed")
			m.powerPending.Store(false)
		}
	})
}
