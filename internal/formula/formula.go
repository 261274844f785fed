// Package formula describes one installable binary release and implements
// the install and self-test steps run against it.
package formula

import (
	"fmt"
	"net/url"
	"path/filepath"
	"regexp"
	"strings"
)

var (
	namePattern    = regexp.MustCompile(`^[a-z0-9][a-z0-9._+-]*$`)
	versionPattern = regexp.MustCompile(`^[0-9]+\.[0-9]+\.[0-9]+([-+][0-9A-Za-z.+-]+)?$`)
)

// Formula is the package descriptor for a single release.
type Formula struct {
	Name        string     `yaml:"name" json:"name"`
	Description string     `yaml:"description" json:"description"`
	Homepage    string     `yaml:"homepage" json:"homepage"`
	URL         string     `yaml:"url" json:"url"`
	SHA256      string     `yaml:"sha256" json:"sha256"`
	Version     string     `yaml:"version" json:"version"`
	License     string     `yaml:"license" json:"license"`
	BinaryName  string     `yaml:"binary,omitempty" json:"binary,omitempty"`
	Signature   *Signature `yaml:"signature,omitempty" json:"signature,omitempty"`
	CaveatsText string     `yaml:"caveats,omitempty" json:"caveats,omitempty"`

	// baseDir is the directory of the formula file; relative key paths resolve against it.
	baseDir string
}

// Signature points at a detached armored OpenPGP signature of the artifact.
type Signature struct {
	URL       string `yaml:"url" json:"url"`
	PublicKey string `yaml:"publicKey" json:"publicKey"`
}

// Binary returns the executable name expected inside the archive.
func (f *Formula) Binary() string {
	if f.BinaryName != "" {
		return f.BinaryName
	}
	return f.Name
}

// Caveats returns the post-install guidance shown to the user.
func (f *Formula) Caveats() string {
	return f.CaveatsText
}

// ExpectedVersionString is what `<binary> --version` must print.
func (f *Formula) ExpectedVersionString() string {
	return f.Binary() + " " + f.Version
}

// PublicKeyPath returns the signing key path resolved against the formula file.
func (f *Formula) PublicKeyPath() string {
	if f.Signature == nil || f.Signature.PublicKey == "" {
		return ""
	}
	if filepath.IsAbs(f.Signature.PublicKey) || f.baseDir == "" {
		return f.Signature.PublicKey
	}
	return filepath.Join(f.baseDir, f.Signature.PublicKey)
}

// ArchiveFileName is the file name the artifact is cached under.
func (f *Formula) ArchiveFileName() string {
	if u, err := url.Parse(f.URL); err == nil {
		if base := filepath.Base(u.Path); base != "." && base != "/" {
			return base
		}
	}
	return f.Name + "-" + f.Version + ".tar.gz"
}

// Validate checks the fields the installer relies on.
func (f *Formula) Validate() error {
	if !namePattern.MatchString(f.Name) {
		return fmt.Errorf("%w: name %q must match %s", ErrInvalidFormula, f.Name, namePattern)
	}
	if !versionPattern.MatchString(f.Version) {
		return fmt.Errorf("%w: version %q is not a semantic version", ErrInvalidFormula, f.Version)
	}
	if err := checkHTTPURL("url", f.URL); err != nil {
		return err
	}
	if f.Homepage != "" {
		if err := checkHTTPURL("homepage", f.Homepage); err != nil {
			return err
		}
	}
	if strings.TrimSpace(f.SHA256) == "" {
		return fmt.Errorf("%w: sha256 must be set", ErrInvalidFormula)
	}
	if f.BinaryName != "" && strings.ContainsAny(f.BinaryName, `/\`) {
		return fmt.Errorf("%w: binary %q must be a plain file name", ErrInvalidFormula, f.BinaryName)
	}
	if f.Signature != nil {
		if err := checkHTTPURL("signature.url", f.Signature.URL); err != nil {
			return err
		}
		if f.Signature.PublicKey == "" {
			return fmt.Errorf("%w: signature.publicKey must be set", ErrInvalidFormula)
		}
	}
	return nil
}

func checkHTTPURL(field, raw string) error {
	u, err := url.Parse(raw)
	if err != nil {
		return fmt.Errorf("%w: %s: %v", ErrInvalidFormula, field, err)
	}
	if (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return fmt.Errorf("%w: %s %q must be an http(s) URL", ErrInvalidFormula, field, raw)
	}
	return nil
}
