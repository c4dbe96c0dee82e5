package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"

	"github.com/ProtonMail/go-crypto/openpgp"
	"github.com/spf13/afero"

	"github.com/ZebulonRouseFrantzich/esptools/internal/binary"
	"github.com/ZebulonRouseFrantzich/esptools/internal/config"
	"github.com/ZebulonRouseFrantzich/esptools/internal/logging"
	"github.com/ZebulonRouseFrantzich/esptools/internal/mount"
	"github.com/ZebulonRouseFrantzich/esptools/internal/payload"
	"github.com/ZebulonRouseFrantzich/esptools/internal/platform"
	"github.com/ZebulonRouseFrantzich/esptools/internal/tool"
)

// app holds the process-wide state shared by all commands. Everything past
// the streams is built lazily by open, so help and version never touch the
// config or the cache.
type app struct {
	stdin    io.Reader
	stdout   io.Writer
	stderr   io.Writer
	getenv   func(string) string
	detector platform.Detector
	payload  fs.FS
	fs       afero.Fs

	// global flags
	configPath string
	logLevel   string
	verbose    bool

	cfg     *config.Config
	logger  *slog.Logger
	catalog *payload.Catalog
	session *mount.Session
	mounter *mount.Mounter
}

func newApp(stdin io.Reader, stdout, stderr io.Writer) *app {
	return &app{
		stdin:    stdin,
		stdout:   stdout,
		stderr:   stderr,
		getenv:   os.Getenv,
		detector: platform.NewDetector(),
		payload:  payload.Embedded(),
		fs:       afero.NewOsFs(),
	}
}

// loadConfig reads the config file and sets up logging.
func (a *app) loadConfig(ctx context.Context) error {
	if a.cfg != nil {
		return nil
	}

	cfg, err := config.Load(ctx, config.LoadOptions{
		Path:     a.configPath,
		Detector: a.detector,
		Getenv:   a.getenv,
	})
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	levelName := cfg.LogLevel
	if a.logLevel != "" {
		levelName = a.logLevel
	}
	level, err := logging.ParseLevel(levelName)
	if err != nil {
		return err
	}

	a.cfg = cfg
	a.logger = logging.New(a.stderr, level, "esptools")
	return nil
}

// open loads the config, the embedded payload and the mount session.
func (a *app) open(ctx context.Context) error {
	if a.mounter != nil {
		return nil
	}
	if err := a.loadConfig(ctx); err != nil {
		return err
	}

	var keyring openpgp.KeyRing
	if a.cfg.Keyring != "" {
		entities, err := binary.LoadKeyringFile(a.fs, a.cfg.Keyring)
		if err != nil {
			return fmt.Errorf("load keyring: %w", err)
		}
		keyring = entities
	}

	catalog, err := payload.Load(a.payload, payload.LoadOptions{Keyring: keyring})
	if err != nil {
		return fmt.Errorf("load bundled tools: %w", err)
	}
	a.logger.Debug("payload loaded",
		"target", catalog.Target(),
		"tools", len(catalog.Tools()),
		"signed", catalog.Signed(),
		"build_id", catalog.Manifest().BuildID)
	a.warnOnTargetMismatch(ctx, catalog)

	cacheDir := a.cfg.CacheDir
	if cacheDir == "" {
		if cacheDir, err = mount.DefaultCacheDir(); err != nil {
			return err
		}
	}

	session, err := mount.NewSession(catalog, mount.Options{
		CacheDir:    cacheDir,
		Fs:          a.fs,
		Windows:     catalog.Windows(),
		VerifyCache: a.cfg.VerifyCache,
		Logger:      a.logger,
	})
	if err != nil {
		return err
	}

	a.catalog = catalog
	a.session = session
	a.mounter = mount.NewMounter(session)
	return nil
}

// warnOnTargetMismatch logs when the payload was built for another platform,
// which usually means the wrong release binary was installed.
func (a *app) warnOnTargetMismatch(ctx context.Context, catalog *payload.Catalog) {
	if catalog.Target() == "" || a.detector == nil {
		return
	}
	info, err := a.detector.Detect(ctx)
	if err != nil {
		a.logger.Debug("platform detection failed", "error", err)
		return
	}
	target, err := platform.TargetFor(info)
	if errors.Is(err, platform.ErrUnsupportedTarget) {
		a.logger.Warn("no release exists for this platform", "os", info.OS, "arch", info.ArchRaw, "abi", info.ABI)
		return
	}
	if err == nil && target.String() != catalog.Target() {
		a.logger.Warn("bundled tools were built for another platform", "bundled", catalog.Target(), "host", target)
	}
}

// enabled returns the tools that are both bundled and enabled by config.
func (a *app) enabled() (tool.Set, error) {
	wanted, err := a.cfg.ToolSet()
	if err != nil {
		return tool.Set{}, err
	}
	return a.catalog.Set().Intersect(wanted), nil
}
