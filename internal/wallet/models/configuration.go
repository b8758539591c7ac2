package models

import (
	"encoding/json"
	"time"
)

const (
	DefaultInactiveWarningTimeout = 4 * time.Minute
	DefaultInactiveLockTimeout    = 5 * time.Minute
	DefaultBackgroundLockTimeout  = 5 * time.Minute
	DefaultUniversalLinkBase      = "walletdebuginteraction://wallet.edi.rijksoverheid.nl/"
)

// Configuration is the remotely delivered wallet configuration.
type Configuration struct {
	InactiveWarningTimeout time.Duration `mapstructure:"inactive_warning_timeout" validate:"gt=0,ltfield=InactiveLockTimeout"`
	InactiveLockTimeout    time.Duration `mapstructure:"inactive_lock_timeout" validate:"gt=0"`
	BackgroundLockTimeout  time.Duration `mapstructure:"background_lock_timeout" validate:"gt=0"`
	UniversalLinkBase      string        `mapstructure:"universal_link_base" validate:"required,uri"`
	Version                uint64        `mapstructure:"version"`
	VersionState           VersionState  `mapstructure:"version_state"`
}

// DefaultConfiguration is active until a configuration source delivers one.
func DefaultConfiguration() Configuration {
	return Configuration{
		InactiveWarningTimeout: DefaultInactiveWarningTimeout,
		InactiveLockTimeout:    DefaultInactiveLockTimeout,
		BackgroundLockTimeout:  DefaultBackgroundLockTimeout,
		UniversalLinkBase:      DefaultUniversalLinkBase,
		VersionState:           VersionState{Kind: VersionOk},
	}
}

type configurationJSON struct {
	InactiveWarningTimeout int64  `json:"inactive_warning_timeout"`
	InactiveLockTimeout    int64  `json:"inactive_lock_timeout"`
	BackgroundLockTimeout  int64  `json:"background_lock_timeout"`
	UniversalLinkBase      string `json:"universal_link_base"`
	Version                uint64 `json:"version"`
}

// MarshalJSON renders timeouts in seconds.
func (c Configuration) MarshalJSON() ([]byte, error) {
	return json.Marshal(configurationJSON{
		InactiveWarningTimeout: int64(c.InactiveWarningTimeout / time.Second),
		InactiveLockTimeout:    int64(c.InactiveLockTimeout / time.Second),
		BackgroundLockTimeout:  int64(c.BackgroundLockTimeout / time.Second),
		UniversalLinkBase:      c.UniversalLinkBase,
		Version:                c.Version,
	})
}

type VersionKind string

const (
	VersionOk        VersionKind = "ok"
	VersionNotify    VersionKind = "notify"
	VersionRecommend VersionKind = "recommend"
	VersionWarn      VersionKind = "warn"
	VersionBlock     VersionKind = "block"
)

// VersionState tells the UI how urgently the app must be updated.
type VersionState struct {
	Kind VersionKind `mapstructure:"kind" json:"kind" validate:"omitempty,oneof=ok notify recommend warn block"`
	// ExpiresIn is only meaningful for VersionWarn.
	ExpiresIn time.Duration `mapstructure:"expires_in" json:"-"`
}

func (v VersionState) MarshalJSON() ([]byte, error) {
	out := struct {
		Kind             VersionKind `json:"kind"`
		ExpiresInSeconds int64       `json:"expires_in_seconds,omitempty"`
	}{Kind: v.Kind}
	if v.Kind == VersionWarn {
		out.ExpiresInSeconds = int64(v.ExpiresIn / time.Second)
	}
	return json.Marshal(out)
}

// IsBlocked reports whether this app version may no longer be used.
func (v VersionState) IsBlocked() bool {
	return v.Kind == VersionBlock
}
