package platform

import (
	"context"
	"fmt"
	"log/slog"
)

// VersionOption is the settings key holding the installed service version.
const VersionOption = "guestlink_version"

// OptionStore is the global settings store.
type OptionStore interface {
	GetOption(ctx context.Context, name string) (string, bool, error)
	// AddOption stores value only if name is absent. It reports whether a
	// row was written.
	AddOption(ctx context.Context, name, value string) (bool, error)
}

// Installer records the installed version on first admin visit.
type Installer struct {
	options OptionStore
	version string
	logger  *slog.Logger
}

// NewInstaller creates an Installer for the running version.
func NewInstaller(options OptionStore, version string, logger *slog.Logger) *Installer {
	if logger == nil {
		logger = slog.Default()
	}
	return &Installer{
		options: options,
		version: version,
		logger:  logger.With("component", "installer"),
	}
}

// Check sets the version marker if it is not present yet. It performs no
// upgrade steps.
func (i *Installer) Check(ctx context.Context) error {
	_, ok, err := i.options.GetOption(ctx, VersionOption)
	if err != nil {
		return fmt.Errorf("read version marker: %w", err)
	}
	if ok {
		return nil
	}

	added, err := i.options.AddOption(ctx, VersionOption, i.version)
	if err != nil {
		return fmt.Errorf("write version marker: %w", err)
	}
	if added {
		i.logger.Info("version marker installed", slog.String("version", i.version))
	}
	return nil
}

// InstalledVersion returns the stored version marker, or "" if unset.
func (i *Installer) InstalledVersion(ctx context.Context) (string, error) {
	v, _, err := i.options.GetOption(ctx, VersionOption)
	if err != nil {
		return "", fmt.Errorf("read version marker: %w", err)
	}
	return v, nil
}
