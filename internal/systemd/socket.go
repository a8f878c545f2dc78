package systemd

import (
	"fmt"
	"net"

	"github.com/coreos/go-systemd/v22/activation"
	"github.com/coreos/go-systemd/v22/daemon"
)

// MetricsSocketName is the FileDescriptorName= of the exporter socket in
// habitd.socket.
const MetricsSocketName = "metrics"

// Listeners holds the systemd-activated listeners
type Listeners struct {
	Metrics   net.Listener
	Activated bool
}

// GetListeners retrieves systemd socket-activated file descriptors.
// Returns empty listeners if not running under socket activation.
func GetListeners() (*Listeners, error) {
	listeners := &Listeners{}

	// Named descriptors require systemd 227+
	named, err := activation.ListenersWithNames()
	if err != nil {
		return nil, fmt.Errorf("failed to get systemd listeners: %w", err)
	}
	if len(named) == 0 {
		return listeners, nil
	}
	listeners.Activated = true

	if lns, ok := named[MetricsSocketName]; ok && len(lns) > 0 {
		listeners.Metrics = lns[0]
	} else {
		// A single unnamed socket is taken as the metrics socket
		for _, lns := range named {
			if len(named) == 1 && len(lns) == 1 {
				listeners.Metrics = lns[0]
			}
		}
	}

	return listeners, nil
}

// NotifyReady sends READY=1 notification to systemd.
// Outside systemd this is a no-op.
func NotifyReady() error {
	if _, err := daemon.SdNotify(false, daemon.SdNotifyReady); err != nil {
		return fmt.Errorf("failed to send sd_notify: %w", err)
	}
	return nil
}

// NotifyStopping sends STOPPING=1 notification to systemd
func NotifyStopping() error {
	if _, err := daemon.SdNotify(false, daemon.SdNotifyStopping); err != nil {
		return fmt.Errorf("failed to send sd_notify stopping: %w", err)
	}
	return nil
}

// NotifyStatus publishes a free-form status line shown by systemctl status
func NotifyStatus(status string) error {
	if _, err := daemon.SdNotify(false, "STATUS="+status); err != nil {
		return fmt.Errorf("failed to send sd_notify status: %w", err)
	}
	return nil
}
