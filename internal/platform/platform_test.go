package platform

import (
	"context"
	"errors"
	"testing"

	"github.com/guestlink/guestlink/internal/hooks"
)

func TestHookPointFor(t *testing.T) {
	tests := []struct {
		version string
		want    hooks.DashboardPoint
	}{
		{"2.5.5", hooks.BeforeMyAccount},
		{"2.5", hooks.BeforeMyAccount},
		{"2.6", hooks.AccountDashboard},
		{"2.6.0", hooks.AccountDashboard},
		{"3.0.0", hooks.AccountDashboard},
		{"v8.1.2", hooks.AccountDashboard},
		{"", hooks.AccountDashboard},
		{"trunk", hooks.AccountDashboard},
	}

	for _, tt := range tests {
		if got := HookPointFor(tt.version); got != tt.want {
			t.Errorf("HookPointFor(%q) = %s, want %s", tt.version, got, tt.want)
		}
	}
}

func TestCanonical(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"2.6", "v2.6.0"},
		{" 3.1.4 ", "v3.1.4"},
		{"v1", "v1.0.0"},
		{"abc", ""},
		{"", ""},
	}

	for _, tt := range tests {
		if got := Canonical(tt.in); got != tt.want {
			t.Errorf("Canonical(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

type fakeOptions struct {
	values  map[string]string
	adds    int
	readErr error
}

func (f *fakeOptions) GetOption(ctx context.Context, name string) (string, bool, error) {
	if f.readErr != nil {
		return "", false, f.readErr
	}
	v, ok := f.values[name]
	return v, ok, nil
}

func (f *fakeOptions) AddOption(ctx context.Context, name, value string) (bool, error) {
	if _, ok := f.values[name]; ok {
		return false, nil
	}
	f.adds++
	f.values[name] = value
	return true, nil
}

func TestInstaller_SetsMarkerOnce(t *testing.T) {
	opts := &fakeOptions{values: map[string]string{}}
	inst := NewInstaller(opts, "1.0.0", nil)

	for i := 0; i < 3; i++ {
		if err := inst.Check(context.Background()); err != nil {
			t.Fatalf("Check: %v", err)
		}
	}

	if opts.adds != 1 {
		t.Errorf("AddOption called %d times, want 1", opts.adds)
	}
	if opts.values[VersionOption] != "1.0.0" {
		t.Errorf("version marker = %q", opts.values[VersionOption])
	}
}

func TestInstaller_KeepsExistingMarker(t *testing.T) {
	opts := &fakeOptions{values: map[string]string{VersionOption: "0.9.0"}}
	inst := NewInstaller(opts, "1.0.0", nil)

	if err := inst.Check(context.Background()); err != nil {
		t.Fatalf("Check: %v", err)
	}

	v, err := inst.InstalledVersion(context.Background())
	if err != nil {
		t.Fatalf("InstalledVersion: %v", err)
	}
	if v != "0.9.0" {
		t.Errorf("existing marker overwritten: %q", v)
	}
}

func TestInstaller_ReadError(t *testing.T) {
	boom := errors.New("db down")
	inst := NewInstaller(&fakeOptions{readErr: boom}, "1.0.0", nil)

	if err := inst.Check(context.Background()); !errors.Is(err, boom) {
		t.Fatalf("expected wrapped read error, got %v", err)
	}
}
