package wifi_test

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"linuxbox-finder/internal/wifi"
	"linuxbox-finder/internal/wifi/wifitest"
)

type recorder struct {
	mu      sync.Mutex
	sleeps  []time.Duration
	pending []func()
	delays  []time.Duration
}

func (r *recorder) sleep(d time.Duration) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.sleeps = append(r.sleeps, d)
}

func (r *recorder) schedule(d time.Duration, fn func()) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.delays = append(r.delays, d)
	r.pending = append(r.pending, fn)
}

func (r *recorder) runPending() {
	r.mu.Lock()
	fns := r.pending
	r.pending = nil
	r.mu.Unlock()
	for _, fn := range fns {
		fn()
	}
}

func newManager(b *wifitest.Backend, opts ...wifi.Option) (*wifi.Manager, *recorder) {
	rec := &recorder{}
	base := []wifi.Option{
		wifi.WithSleep(rec.sleep),
		wifi.WithScheduler(rec.schedule),
	}
	return wifi.NewManager(b, append(base, opts...)...), rec
}

func TestConfigurePollsUntilConnected(t *testing.T) {
	for _, k := range []int{1, 3, 20} {
		t.Run(fmt.Sprintf("connected on attempt %d", k), func(t *testing.T) {
			b := &wifitest.Backend{ConnectedAfter: k}
			m, rec := newManager(b)

			outcome := m.Configure(context.Background(), "Home", "secret")

			assert.Equal(t, wifi.Success, outcome)
			assert.Equal(t, k, b.Probes())
			require.Len(t, rec.sleeps, k-1)
			for _, d := range rec.sleeps {
				assert.Equal(t, wifi.DefaultPollInterval, d)
			}
		})
	}
}

func TestConfigureTimesOut(t *testing.T) {
	b := &wifitest.Backend{}
	m, rec := newManager(b)

	outcome := m.Configure(context.Background(), "Home", "secret")

	assert.Equal(t, wifi.Timeout, outcome)
	assert.Equal(t, -2, outcome.Code())
	assert.Equal(t, wifi.DefaultPollAttempts, b.Probes())
	assert.Len(t, rec.sleeps, wifi.DefaultPollAttempts-1)
}

func TestConfigureProbeErrorsCountAsNotConnected(t *testing.T) {
	b := &wifitest.Backend{ProbeErr: wifitest.ErrFake, ConnectedAfter: 1}
	m, _ := newManager(b, wifi.WithPollAttempts(5))

	assert.Equal(t, wifi.Timeout, m.Configure(context.Background(), "Home", ""))
	assert.Equal(t, 5, b.Probes())
}

func TestConfigureJoinFailure(t *testing.T) {
	b := &wifitest.Backend{JoinErr: wifitest.ErrFake, ConnectedAfter: 1}
	m, _ := newManager(b)

	outcome := m.Configure(context.Background(), "Home", "secret")

	assert.Equal(t, wifi.ConnectionFailed, outcome)
	assert.Equal(t, -1, outcome.Code())
	assert.Zero(t, b.Probes())
}

func TestConfigurePassesCredentials(t *testing.T) {
	b := &wifitest.Backend{ConnectedAfter: 1}
	m, _ := newManager(b, wifi.WithInterface("wlan1"))

	require.Equal(t, wifi.Success, m.Configure(context.Background(), "Cafe", ""))
	require.Equal(t, wifi.Success, m.Configure(context.Background(), "Home", "secret"))

	assert.Equal(t, []wifitest.JoinCall{
		{Iface: "wlan1", SSID: "Cafe", Password: ""},
		{Iface: "wlan1", SSID: "Home", Password: "secret"},
	}, b.Joins())
}

func TestConfigureAlreadyConnected(t *testing.T) {
	b := &wifitest.Backend{SSID: "Home"}
	m, _ := newManager(b)

	assert.Equal(t, wifi.Success, m.Configure(context.Background(), "Home", "secret"))
	assert.Empty(t, b.Joins())
	assert.Zero(t, b.Probes())
}

func TestConfigureReplacesStaleProfile(t *testing.T) {
	b := &wifitest.Backend{
		ConnectedAfter: 1,
		Profiles: []wifi.Profile{
			{UUID: "u1", Name: "Home"},
			{UUID: "u2", Name: "Office"},
		},
	}
	m, _ := newManager(b)

	assert.Equal(t, wifi.Success, m.Configure(context.Background(), "Home", "secret"))
	assert.Equal(t, []string{"u1"}, b.Deleted())
	assert.Len(t, b.Joins(), 1)
}

func TestConfigureStaleProfileDeleteFails(t *testing.T) {
	b := &wifitest.Backend{
		ConnectedAfter: 1,
		Profiles:       []wifi.Profile{{UUID: "u1", Name: "Home"}},
		DeleteErr:      map[string]error{"u1": wifitest.ErrFake},
	}
	m, _ := newManager(b)

	assert.Equal(t, wifi.ConnectionFailed, m.Configure(context.Background(), "Home", "secret"))
	assert.Empty(t, b.Joins())
}

func TestConfigureIgnoresUnreadableProfileList(t *testing.T) {
	b := &wifitest.Backend{ConnectedAfter: 2, ListErr: wifitest.ErrFake}
	m, _ := newManager(b)

	assert.Equal(t, wifi.Success, m.Configure(context.Background(), "Home", "secret"))
}

func TestConfigureIgnoresCancellation(t *testing.T) {
	b := &wifitest.Backend{ConnectedAfter: 2}
	m, _ := newManager(b)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	assert.Equal(t, wifi.Success, m.Configure(ctx, "Home", "secret"))
}

func TestStatusAllQueriesFail(t *testing.T) {
	b := &wifitest.Backend{
		SSIDErr: wifitest.ErrFake,
		IPErr:   wifitest.ErrFake,
		MACErr:  wifitest.ErrFake,
	}
	m, _ := newManager(b)

	assert.Equal(t, wifi.ConnectionStatus{
		Connected:    false,
		SSID:         "",
		IPAddress:    "Unknown",
		MACAddress:   "Unknown",
		ErrorMessage: "Not connected to any WiFi network",
	}, m.Status(context.Background()))
}

func TestStatusConnected(t *testing.T) {
	b := &wifitest.Backend{SSID: "Home", IP: "192.168.1.20", MAC: "dc:a6:32:01:02:03"}
	m, _ := newManager(b)

	status := m.Status(context.Background())

	assert.Equal(t, wifi.ConnectionStatus{
		Connected:  true,
		SSID:       "Home",
		IPAddress:  "192.168.1.20",
		MACAddress: "dc:a6:32:01:02:03",
	}, status)
	assert.Equal(t, status, m.Status(context.Background()))
}

func TestStatusEmptyValuesAreUnknown(t *testing.T) {
	b := &wifitest.Backend{MAC: "dc:a6:32:01:02:03"}
	m, _ := newManager(b)

	status := m.Status(context.Background())

	assert.False(t, status.Connected)
	assert.Equal(t, "Unknown", status.IPAddress)
	assert.Equal(t, "dc:a6:32:01:02:03", status.MACAddress)
	assert.Equal(t, "Not connected to any WiFi network", status.ErrorMessage)
}

func TestExecuteCommandUnknown(t *testing.T) {
	names := []string{"", "reboot", "RESTART_WIFI", "factory_reset ", "restart-wifi", "rm -rf /", "日本"}
	for _, name := range names {
		b := &wifitest.Backend{}
		m, rec := newManager(b)

		msg, ok := m.ExecuteCommand(context.Background(), name)

		assert.False(t, ok, name)
		assert.Contains(t, msg, name)
		assert.Equal(t, "Unknown command: "+name, msg)
		assert.Empty(t, b.RadioCalls())
		assert.Empty(t, rec.pending)
	}
}

func TestExecuteCommandRestartWiFi(t *testing.T) {
	b := &wifitest.Backend{}
	m, rec := newManager(b)

	msg, ok := m.ExecuteCommand(context.Background(), wifi.CommandRestartWiFi)

	assert.True(t, ok)
	assert.Equal(t, "WiFi restart completed", msg)
	assert.Equal(t, []bool{false, true}, b.RadioCalls())
	assert.Equal(t, []time.Duration{wifi.RadioToggleDelay}, rec.sleeps)
}

func TestExecuteCommandRestartWiFiFailure(t *testing.T) {
	b := &wifitest.Backend{RadioErr: wifitest.ErrFake}
	m, _ := newManager(b)

	msg, ok := m.ExecuteCommand(context.Background(), wifi.CommandRestartWiFi)

	assert.False(t, ok)
	assert.Equal(t, "WiFi radio off failed", msg)
	assert.Equal(t, []bool{false}, b.RadioCalls())
}

func TestExecuteCommandRestartDevice(t *testing.T) {
	b := &wifitest.Backend{}
	m, rec := newManager(b)

	msg, ok := m.ExecuteCommand(context.Background(), wifi.CommandRestartDevice)
	require.True(t, ok)
	assert.Equal(t, "Restart device completed", msg)
	assert.Equal(t, []time.Duration{wifi.PowerActionDelay}, rec.delays)
	assert.Zero(t, b.Reboots())

	msg, ok = m.ExecuteCommand(context.Background(), wifi.CommandRestartDevice)
	assert.False(t, ok)
	assert.Equal(t, "power action already in progress", msg)

	rec.runPending()
	assert.Equal(t, 1, b.Reboots())
}

func TestRebootFailureAllowsRetry(t *testing.T) {
	b := &wifitest.Backend{RebootErr: wifitest.ErrFake}
	m, rec := newManager(b)

	_, ok := m.ExecuteCommand(context.Background(), wifi.CommandRestartDevice)
	require.True(t, ok)
	rec.runPending()

	_, ok = m.ExecuteCommand(context.Background(), wifi.CommandRestartDevice)
	assert.True(t, ok)
}

func TestExecuteCommandFactoryReset(t *testing.T) {
	b := &wifitest.Backend{Profiles: []wifi.Profile{{UUID: "u1", Name: "Home"}, {UUID: "u2", Name: "Office"}}}
	m, rec := newManager(b)

	msg, ok := m.ExecuteCommand(context.Background(), wifi.CommandFactoryReset)

	assert.True(t, ok)
	assert.Equal(t, "Factory reset completed", msg)
	assert.Equal(t, []string{"u1", "u2"}, b.Deleted())
	rec.runPending()
	assert.Equal(t, 1, b.Reboots())
}

func TestExecuteCommandFactoryResetListFailure(t *testing.T) {
	b := &wifitest.Backend{ListErr: wifitest.ErrFake}
	m, rec := newManager(b)

	msg, ok := m.ExecuteCommand(context.Background(), wifi.CommandFactoryReset)

	assert.False(t, ok)
	assert.Equal(t, "Factory reset failed", msg)
	assert.Empty(t, rec.pending)
}

func TestFactoryResetBlocksConcurrentRestart(t *testing.T) {
	b := &wifitest.Backend{Profiles: []wifi.Profile{{UUID: "u1", Name: "Home"}}}
	m, rec := newManager(b)

	var restartMsg string
	var restartOK bool
	b.OnList = func() {
		restartMsg, restartOK = m.ExecuteCommand(context.Background(), wifi.CommandRestartDevice)
	}

	msg, ok := m.ExecuteCommand(context.Background(), wifi.CommandFactoryReset)

	require.True(t, ok)
	assert.Equal(t, "Factory reset completed", msg)
	assert.False(t, restartOK)
	assert.Equal(t, "power action already in progress", restartMsg)
	assert.Equal(t, []string{"u1"}, b.Deleted())
	assert.Len(t, rec.delays, 1)

	rec.runPending()
	assert.Equal(t, 1, b.Reboots())
}

func TestFactoryResetRejectedWhileRebootPending(t *testing.T) {
	b := &wifitest.Backend{Profiles: []wifi.Profile{{UUID: "u1", Name: "Home"}}}
	m, _ := newManager(b)

	_, ok := m.ExecuteCommand(context.Background(), wifi.CommandRestartDevice)
	require.True(t, ok)

	msg, ok := m.ExecuteCommand(context.Background(), wifi.CommandFactoryReset)
	assert.False(t, ok)
	assert.Equal(t, "power action already in progress", msg)
	assert.Empty(t, b.Deleted())
}

func TestFactoryResetListFailureReleasesPowerFlag(t *testing.T) {
	b := &wifitest.Backend{ListErr: wifitest.ErrFake}
	m, _ := newManager(b)

	_, ok := m.ExecuteCommand(context.Background(), wifi.CommandFactoryReset)
	require.False(t, ok)

	msg, ok := m.ExecuteCommand(context.Background(), wifi.CommandRestartDevice)
	assert.True(t, ok)
	assert.Equal(t, "Restart device completed", msg)
}

func TestDeleteAllNetworksIsBestEffort(t *testing.T) {
	b := &wifitest.Backend{
		Profiles: []wifi.Profile{
			{UUID: "u1", Name: "a"},
			{UUID: "u2", Name: "b"},
			{UUID: "u3", Name: "c"},
		},
		DeleteErr: map[string]error{"u2": wifitest.ErrFake},
	}
	m, _ := newManager(b)

	require.NoError(t, m.DeleteAllNetworks(context.Background()))
	assert.Equal(t, []string{"u1", "u3"}, b.Deleted())
}

func TestDeleteAllNetworksListFailure(t *testing.T) {
	b := &wifitest.Backend{ListErr: wifitest.ErrFake}
	m, _ := newManager(b)

	err := m.DeleteAllNetworks(context.Background())
	assert.ErrorIs(t, err, wifi.ErrProfileList)
	assert.ErrorIs(t, err, wifitest.ErrFake)
}

func TestInitialize(t *testing.T) {
	m, _ := newManager(&wifitest.Backend{MAC: "dc:a6:32:01:02:03"})
	assert.NoError(t, m.Initialize(context.Background()))

	m, _ = newManager(&wifitest.Backend{MACErr: wifitest.ErrFake}, wifi.WithInterface("wlan9"))
	err := m.Initialize(context.Background())
	assert.ErrorIs(t, err, wifi.ErrInterfaceNotFound)
	assert.Contains(t, err.Error(), "wlan9")
}

func TestCloseIsIdempotent(t *testing.T) {
	m, _ := newManager(&wifitest.Backend{SSID: "Home"})

	assert.NotPanics(t, func() {
		m.Close()
		m.Close()
	})
	assert.True(t, m.Status(context.Background()).Connected)
}

func TestConfigOutcomeNames(t *testing.T) {
	assert.Equal(t, "success", wifi.Success.String())
	assert.Equal(t, "connection_failed", wifi.ConnectionFailed.String())
	assert.Equal(t, "timeout", wifi.Timeout.String())
	assert.True(t, wifi.Success.OK())
	assert.False(t, wifi.Timeout.OK())
}
