package systemd

import "testing"

func TestGetListenersWithoutActivation(t *testing.T) {
	t.Setenv("LISTEN_PID", "")
	t.Setenv("LISTEN_FDS", "")
	t.Setenv("LISTEN_FDNAMES", "")

	listeners, err := GetListeners()
	if err != nil {
		t.Fatalf("GetListeners() error = %v", err)
	}
	if listeners.Activated || listeners.Metrics != nil {
		t.Fatalf("expected no activated listeners, got %+v", listeners)
	}
}

func TestNotifyOutsideSystemd(t *testing.T) {
	t.Setenv("NOTIFY_SOCKET", "")

	if err := NotifyReady(); err != nil {
		t.Fatalf("NotifyReady() error = %v", err)
	}
	if err := NotifyStatus("refreshing"); err != nil {
		t.Fatalf("NotifyStatus() error = %v", err)
	}
	if err := NotifyStopping(); err != nil {
		t.Fatalf("NotifyStopping() error = %v", err)
	}
}
