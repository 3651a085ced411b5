// Package config loads device connection settings from three sources,
// applied low to high precedence: environment variables, CLI arguments,
// then the input document's "metadata" object.
package config

import (
	"errors"
	"fmt"
	"os"
	"strings"

	json "github.com/goccy/go-json"

	"github.com/edirooss/mtsync/pkg/hostutil"
)

// Settings holds everything needed to dial the device.
type Settings struct {
	Hostname                string
	Username                string
	Password                string
	IgnoreCertificateErrors bool
}

// ErrInvalidSettings is returned when required fields are empty after all
// sources have been applied.
var ErrInvalidSettings = errors.New("config: invalid settings")

// fieldNames are tried in both lowercase and UPPERCASE form against the
// environment, mirroring the Python settings module this tool replaces.
// The metadata object is read with the lowercase names only.
var fieldNames = []string{"hostname", "username", "password", "ignore_certificate_errors"}

// ApplyEnvironment overlays os.Environ values for each settings field,
// checking the lowercase name first and the uppercase name second (either
// form present wins over the zero value; uppercase wins if both are set).
func (s *Settings) ApplyEnvironment() {
	for _, name := range fieldNames {
		if v, ok := os.LookupEnv(name); ok {
			s.set(name, v)
		}
		if v, ok := os.LookupEnv(strings.ToUpper(name)); ok {
			s.set(name, v)
		}
	}
}

// Args carries the CLI-flag overrides; a nil pointer leaves the existing
// value untouched (absence means keep current). A non-nil string pointer
// overwrites, even with "". IgnoreCertificateErrors can only switch
// verification skipping on, never off.
type Args struct {
	Hostname                *string
	Username                *string
	Password                *string
	IgnoreCertificateErrors *bool
}

// ApplyArgs overlays command-line flag values, highest precedence so far.
func (s *Settings) ApplyArgs(a Args) {
	if a.Hostname != nil {
		s.Hostname = *a.Hostname
	}
	if a.Username != nil {
		s.Username = *a.Username
	}
	if a.Password != nil {
		s.Password = *a.Password
	}
	if a.IgnoreCertificateErrors != nil && *a.IgnoreCertificateErrors {
		s.IgnoreCertificateErrors = true
	}
}

// ApplyMetadata overlays the input document's top-level "metadata" object,
// the highest-precedence source. raw may be nil (no metadata present).
func (s *Settings) ApplyMetadata(raw json.RawMessage) error {
	if len(raw) == 0 {
		return nil
	}
	var meta map[string]json.RawMessage
	if err := json.Unmarshal(raw, &meta); err != nil {
		return fmt.Errorf("config: metadata: %w", err)
	}

	if v, ok := meta["hostname"]; ok {
		var s2 string
		if err := json.Unmarshal(v, &s2); err == nil {
			s.Hostname = s2
		}
	}
	if v, ok := meta["username"]; ok {
		var s2 string
		if err := json.Unmarshal(v, &s2); err == nil {
			s.Username = s2
		}
	}
	if v, ok := meta["password"]; ok {
		var s2 string
		if err := json.Unmarshal(v, &s2); err == nil {
			s.Password = s2
		}
	}
	if v, ok := meta["ignore_certificate_errors"]; ok {
		var b bool
		if err := json.Unmarshal(v, &b); err == nil && b {
			s.IgnoreCertificateErrors = true
		}
	}
	return nil
}

// Valid reports whether Hostname and Username are both non-empty.
func (s *Settings) Valid() bool {
	return s.Hostname != "" && s.Username != ""
}

// Validate returns ErrInvalidSettings (wrapped with context) unless Valid
// reports true, and additionally rejects a syntactically malformed
// hostname.
func (s *Settings) Validate() error {
	if !s.Valid() {
		return fmt.Errorf("%w: hostname and username are required", ErrInvalidSettings)
	}
	if err := hostutil.ValidateHost(s.Hostname); err != nil {
		return fmt.Errorf("%w: hostname: %v", ErrInvalidSettings, err)
	}
	return nil
}

func (s *Settings) set(name, v string) {
	switch name {
	case "hostname":
		s.Hostname = v
	case "username":
		s.Username = v
	case "password":
		s.Password = v
	case "ignore_certificate_errors":
		s.IgnoreCertificateErrors = strings.EqualFold(v, "true") || v == "1"
	}
}
