package configuration

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/viper"

	"walletcore/internal/wallet/models"
)

// Updater accepts new configurations. *Repository implements it.
type Updater interface {
	Update(ctx context.Context, c models.Configuration) error
}

// FileSource reads the wallet configuration from a yaml, json or toml file
// and pushes every change of the file to an Updater.
type FileSource struct {
	path    string
	updater Updater
	logger  *slog.Logger
	v       *viper.Viper
}

func NewFileSource(path string, updater Updater, logger *slog.Logger) *FileSource {
	if logger == nil {
		logger = slog.Default()
	}
	v := viper.New()
	v.SetConfigFile(path)
	defaults := models.DefaultConfiguration()
	v.SetDefault("inactive_warning_timeout", defaults.InactiveWarningTimeout)
	v.SetDefault("inactive_lock_timeout", defaults.InactiveLockTimeout)
	v.SetDefault("background_lock_timeout", defaults.BackgroundLockTimeout)
	v.SetDefault("universal_link_base", defaults.UniversalLinkBase)
	v.SetDefault("version_state.kind", string(models.VersionOk))
	return &FileSource{path: path, updater: updater, logger: logger, v: v}
}

// Load reads the file once and applies it.
func (s *FileSource) Load(ctx context.Context) error {
	if err := s.v.ReadInConfig(); err != nil {
		return fmt.Errorf("read wallet configuration %s: %w", s.path, err)
	}
	return s.apply(ctx)
}

func (s *FileSource) apply(ctx context.Context) error {
	var c models.Configuration
	if err := s.v.Unmarshal(&c); err != nil {
		return fmt.Errorf("decode wallet configuration %s: %w", s.path, err)
	}
	return s.updater.Update(ctx, c)
}

// Watch applies every change of the file until ctx is cancelled. Load must
// have succeeded first. Invalid files are logged and the active
// configuration stays in place.
func (s *FileSource) Watch(ctx context.Context) error {
	s.v.OnConfigChange(func(fsnotify.Event) {
		if err := s.apply(ctx); err != nil {
			s.logger.WarnContext(ctx, "ignoring wallet configuration change", "path", s.path, "error", err)
		}
	})
	s.v.WatchConfig()

	<-ctx.Done()
	return ctx.Err()
}
