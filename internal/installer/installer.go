// Package installer drives a formula through fetch, verification,
// extraction, installation and self-test.
package installer

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"github.com/open-edge-platform/formula-installer/internal/archive"
	"github.com/open-edge-platform/formula-installer/internal/config"
	"github.com/open-edge-platform/formula-installer/internal/formula"
	"github.com/open-edge-platform/formula-installer/internal/integrity"
	"github.com/open-edge-platform/formula-installer/internal/pkgfetcher"
	"github.com/open-edge-platform/formula-installer/internal/utils/logger"
	"github.com/open-edge-platform/formula-installer/internal/utils/network"
	"github.com/open-edge-platform/formula-installer/internal/utils/shell"
)

// Options injects collaborators into a Manager. Zero values select defaults.
type Options struct {
	Client   *http.Client
	Executor shell.Executor
	Progress io.Writer
}

// Manager runs installations using the directories of one configuration.
type Manager struct {
	helpers  *config.ConfigHelpers
	client   *http.Client
	executor shell.Executor
	progress io.Writer
}

// InstallOptions controls a single installation.
type InstallOptions struct {
	// ArchivePath installs from a local archive instead of downloading the formula URL.
	ArchivePath string
	// SignaturePath is a local detached signature used together with ArchivePath.
	SignaturePath string
	// BinDir overrides the configured bin directory.
	BinDir string
	// RunSelfTest runs the formula self-test after installing.
	RunSelfTest bool
}

// NewManager creates a Manager for the given configuration.
func NewManager(helpers *config.ConfigHelpers, opts Options) *Manager {
	m := &Manager{
		helpers:  helpers,
		client:   opts.Client,
		executor: opts.Executor,
		progress: opts.Progress,
	}
	if m.client == nil {
		m.client = network.NewSecureHTTPClient(helpers.HTTPTimeout())
	}
	if m.executor == nil {
		m.executor = shell.Default
	}
	if m.progress == nil {
		m.progress = io.Discard
	}
	return m
}

// BinDir returns override when set, otherwise the configured bin directory.
func (m *Manager) BinDir(override string) (string, error) {
	if override != "" {
		return filepath.Abs(override)
	}
	return m.helpers.BinDir()
}

// Install fetches, verifies, extracts and installs f. When the self-test is
// requested and fails, the binary stays installed, the receipt records the
// failure and the self-test error is returned alongside the receipt.
func (m *Manager) Install(ctx context.Context, f *formula.Formula, opts InstallOptions) (*Receipt, error) {
	log := logger.Logger()

	// A formula whose digest cannot verify anything is rejected before any I/O.
	if _, err := f.Digest(); err != nil {
		return nil, err
	}

	binDir, err := m.BinDir(opts.BinDir)
	if err != nil {
		return nil, fmt.Errorf("resolving bin directory: %w", err)
	}

	if err := m.helpers.CreateWorkDir(); err != nil {
		return nil, err
	}

	archivePath, signaturePath, err := m.obtain(ctx, f, opts)
	if err != nil {
		return nil, err
	}

	computed, err := m.verify(f, archivePath, signaturePath)
	if err != nil {
		return nil, err
	}

	id := uuid.NewString()
	staging, err := m.helpers.CreateTempDir(id)
	if err != nil {
		return nil, fmt.Errorf("creating staging directory: %w", err)
	}
	defer func() {
		if err := os.RemoveAll(staging); err != nil {
			log.Warnf("removing staging directory %s: %v", staging, err)
		}
	}()

	if err := archive.Extract(archivePath, staging); err != nil {
		return nil, fmt.Errorf("%w: %v", formula.ErrMalformedArtifact, err)
	}

	installed, err := f.Install(staging, binDir)
	if err != nil {
		return nil, err
	}

	receipt := &Receipt{
		ID:          id,
		Name:        f.Name,
		Version:     f.Version,
		URL:         f.URL,
		SHA256:      computed,
		BinaryPath:  installed,
		InstalledAt: time.Now().UTC(),
		SelfTest:    SelfTestSkipped,
	}

	var testErr error
	if opts.RunSelfTest {
		testErr = m.selfTest(ctx, f, installed)
		if testErr != nil {
			receipt.SelfTest = SelfTestFailed
		} else {
			receipt.SelfTest = SelfTestPassed
		}
	}

	receiptsDir, err := m.helpers.ReceiptsDir()
	if err != nil {
		return receipt, fmt.Errorf("resolving receipts directory: %w", err)
	}
	if _, err := WriteReceipt(receiptsDir, receipt); err != nil {
		return receipt, err
	}

	if testErr != nil {
		return receipt, fmt.Errorf("%s %s installed but not verified: %w", f.Name, f.Version, testErr)
	}
	return receipt, nil
}

// Test runs the self-test against the installed binary of f and records
// the outcome in its receipt when one exists.
func (m *Manager) Test(ctx context.Context, f *formula.Formula, binDirOverride string) error {
	log := logger.Logger()

	binDir, err := m.BinDir(binDirOverride)
	if err != nil {
		return fmt.Errorf("resolving bin directory: %w", err)
	}
	binaryPath := filepath.Join(binDir, f.Binary())
	if _, err := os.Stat(binaryPath); err != nil {
		return fmt.Errorf("%s is not installed in %s: %w", f.Name, binDir, err)
	}

	testErr := m.selfTest(ctx, f, binaryPath)

	receiptsDir, err := m.helpers.ReceiptsDir()
	if err != nil {
		return errors.Join(testErr, err)
	}
	if receipt, err := ReadReceipt(receiptsDir, f.Name); err == nil {
		receipt.SelfTest = SelfTestPassed
		if testErr != nil {
			receipt.SelfTest = SelfTestFailed
		}
		if _, err := WriteReceipt(receiptsDir, receipt); err != nil {
			log.Warnf("updating receipt of %s: %v", f.Name, err)
		}
	}
	return testErr
}

func (m *Manager) selfTest(ctx context.Context, f *formula.Formula, binaryPath string) error {
	return f.SelfTest(ctx, binaryPath, formula.SelfTestOptions{
		Executor: m.executor,
		Timeout:  m.helpers.SelfTestTimeout(),
	})
}

// obtain returns local paths of the archive and, when the formula is signed,
// its detached signature, downloading whatever was not supplied.
func (m *Manager) obtain(ctx context.Context, f *formula.Formula, opts InstallOptions) (string, string, error) {
	log := logger.Logger()

	var urls []string
	archivePath := opts.ArchivePath
	signaturePath := opts.SignaturePath

	if archivePath == "" {
		urls = append(urls, f.URL)
	} else {
		log.Infof("using local archive %s for %s", archivePath, f.Name)
	}
	if f.Signature != nil && signaturePath == "" {
		urls = append(urls, f.Signature.URL)
	}
	if len(urls) == 0 {
		return archivePath, signaturePath, nil
	}

	if err := m.helpers.CreateCacheDir(); err != nil {
		return "", "", err
	}
	cacheDir, err := m.helpers.CacheDir()
	if err != nil {
		return "", "", fmt.Errorf("resolving cache directory: %w", err)
	}

	log.Infof("downloading %d file(s) for %s %s to %s", len(urls), f.Name, f.Version, cacheDir)
	paths, err := pkgfetcher.FetchFiles(ctx, m.client, urls, cacheDir, m.helpers.Workers(), m.progress)
	if err != nil {
		return "", "", fmt.Errorf("fetch failed: %w", err)
	}

	i := 0
	if archivePath == "" {
		archivePath = paths[i]
		i++
	}
	if f.Signature != nil && signaturePath == "" {
		signaturePath = paths[i]
	}
	return archivePath, signaturePath, nil
}

// verify checks the digest and, for signed formulas, the signature.
func (m *Manager) verify(f *formula.Formula, archivePath, signaturePath string) (string, error) {
	log := logger.Logger()

	digest, err := VerifyArchive(f, archivePath, signaturePath)
	if err != nil {
		return "", err
	}
	log.Infof("✓ %s verified", filepath.Base(archivePath))
	return digest, nil
}

// VerifyArchive runs the digest check, then the signature check when f is
// signed. It returns the hex SHA-256 of the archive.
func VerifyArchive(f *formula.Formula, archivePath, signaturePath string) (string, error) {
	digest, err := integrity.VerifyFormulaArtifact(f, archivePath)
	if err != nil {
		return "", err
	}
	if f.Signature == nil {
		return digest, nil
	}
	if signaturePath == "" {
		return "", fmt.Errorf("%w: %s is signed but no signature file is available", formula.ErrIntegrity, f.Name)
	}
	if err := integrity.VerifySignature(archivePath, signaturePath, f.PublicKeyPath()); err != nil {
		return "", err
	}
	return digest, nil
}
