package gcp

import (
	"fmt"
	"net/url"
	"strings"
)

// ObjectStorageMode selects where illustrations are written: real Cloud
// Storage or a local fake-gcs emulator.
type ObjectStorageMode string

const (
	ObjectStorageModeGCS         ObjectStorageMode = "gcs"
	ObjectStorageModeGCSEmulator ObjectStorageMode = "gcs_emulator"
)

type ObjectStorageConfig struct {
	Mode         ObjectStorageMode
	EmulatorHost string
	// CompatibilityFallback is set when no mode was given and the emulator
	// was picked only because STORAGE_EMULATOR_HOST is present.
	CompatibilityFallback bool
}

func (cfg ObjectStorageConfig) IsEmulatorMode() bool {
	return cfg.Mode == ObjectStorageModeGCSEmulator
}

func (cfg ObjectStorageConfig) ModeSource() string {
	if cfg.CompatibilityFallback {
		return "compatibility_fallback"
	}
	return "explicit_or_default"
}

type ObjectStorageConfigErrorCode string

const (
	ObjectStorageConfigErrorInvalidMode         ObjectStorageConfigErrorCode = "invalid_mode"
	ObjectStorageConfigErrorMissingEmulatorHost ObjectStorageConfigErrorCode = "missing_emulator_host"
	ObjectStorageConfigErrorInvalidEmulatorHost ObjectStorageConfigErrorCode = "invalid_emulator_host"
)

type ObjectStorageConfigError struct {
	Code         ObjectStorageConfigErrorCode
	Mode         string
	EmulatorHost string
	Cause        error
}

func (e *ObjectStorageConfigError) Error() string {
	if e == nil {
		return "invalid object storage config"
	}
	switch e.Code {
	case ObjectStorageConfigErrorInvalidMode:
		return fmt.Sprintf("OBJECT_STORAGE_MODE=%q is not one of %q or %q",
			e.Mode, ObjectStorageModeGCS, ObjectStorageModeGCSEmulator)
	case ObjectStorageConfigErrorMissingEmulatorHost:
		return fmt.Sprintf("STORAGE_EMULATOR_HOST is required when OBJECT_STORAGE_MODE=%q", ObjectStorageModeGCSEmulator)
	case ObjectStorageConfigErrorInvalidEmulatorHost:
		return fmt.Sprintf("STORAGE_EMULATOR_HOST=%q must be an absolute URL such as http://fake-gcs:4443", e.EmulatorHost)
	}
	return "invalid object storage config"
}

func (e *ObjectStorageConfigError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Cause
}

// ResolveObjectStorageConfig validates the raw OBJECT_STORAGE_MODE and
// STORAGE_EMULATOR_HOST values. With no mode, a present emulator host
// selects the emulator; otherwise real GCS is used.
func ResolveObjectStorageConfig(rawMode, emulatorHost string) (ObjectStorageConfig, error) {
	cfg := ObjectStorageConfig{EmulatorHost: strings.TrimSpace(emulatorHost)}
	rawMode = strings.TrimSpace(rawMode)

	mode := ObjectStorageMode(strings.ToLower(rawMode))
	switch {
	case mode == "" && cfg.EmulatorHost != "":
		cfg.Mode, cfg.CompatibilityFallback = ObjectStorageModeGCSEmulator, true
	case mode == "":
		cfg.Mode = ObjectStorageModeGCS
	default:
		cfg.Mode = mode
	}

	if err := ValidateObjectStorageConfig(cfg); err != nil {
		if cfgErr, ok := err.(*ObjectStorageConfigError); ok && cfgErr.Code == ObjectStorageConfigErrorInvalidMode {
			cfgErr.Mode = rawMode
		}
		return cfg, err
	}
	return cfg, nil
}

func ValidateObjectStorageConfig(cfg ObjectStorageConfig) error {
	fail := func(code ObjectStorageConfigErrorCode, cause error) error {
		return &ObjectStorageConfigError{Code: code, Mode: string(cfg.Mode), EmulatorHost: cfg.EmulatorHost, Cause: cause}
	}
	switch cfg.Mode {
	case ObjectStorageModeGCS:
		return nil
	case ObjectStorageModeGCSEmulator:
		if cfg.EmulatorHost == "" {
			return fail(ObjectStorageConfigErrorMissingEmulatorHost, nil)
		}
		u, err := url.Parse(cfg.EmulatorHost)
		if err != nil || u.Scheme == "" || u.Host == "" {
			return fail(ObjectStorageConfigErrorInvalidEmulatorHost, err)
		}
		return nil
	default:
		return fail(ObjectStorageConfigErrorInvalidMode, nil)
	}
}
