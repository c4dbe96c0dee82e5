// Command esptools-bundle downloads the vendor releases for one target and
// writes the payload directory that esptools embeds.
//
//	go run ./cmd/esptools-bundle --target linux-amd64 --out internal/payload/data
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"strconv"
	"time"

	"github.com/ProtonMail/go-crypto/openpgp"
	"github.com/spf13/afero"
	"github.com/spf13/cobra"

	"github.com/ZebulonRouseFrantzich/esptools/internal/binary"
	"github.com/ZebulonRouseFrantzich/esptools/internal/logging"
	"github.com/ZebulonRouseFrantzich/esptools/internal/platform"
	"github.com/ZebulonRouseFrantzich/esptools/internal/release"
	"github.com/ZebulonRouseFrantzich/esptools/internal/tool"
)

// EnvSourceDateEpoch pins generated_at for reproducible payloads.
const EnvSourceDateEpoch = "SOURCE_DATE_EPOCH"

type options struct {
	target      string
	tools       string
	outDir      string
	signKey     string
	cacheDir    string
	mirror      string
	logLevel    string
	concurrency int
	retries     int
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	err := newRootCmd(os.Stdout, os.Stderr, os.Getenv, platform.NewDetector()).ExecuteContext(ctx)
	stop()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func newRootCmd(stdout, stderr io.Writer, getenv func(string) string, detector platform.Detector) *cobra.Command {
	var opts options

	cmd := &cobra.Command{
		Use:           "esptools-bundle",
		Short:         "Build the esptools payload from upstream releases",
		Args:          cobra.NoArgs,
		SilenceErrors: true,
		SilenceUsage:  true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(cmd.Context(), stdout, stderr, getenv, detector, opts)
		},
	}
	cmd.SetOut(stdout)
	cmd.SetErr(stderr)

	flags := cmd.Flags()
	flags.StringVar(&opts.target, "target", "", "release target (default: this host)")
	flags.StringVar(&opts.tools, "tools", "", "comma separated tools to bundle (default: all)")
	flags.StringVar(&opts.outDir, "out", filepath.Join("internal", "payload", "data"), "payload directory to write")
	flags.StringVar(&opts.signKey, "sign-key", "", "armored OpenPGP private key used to sign the manifest")
	flags.StringVar(&opts.cacheDir, "cache-dir", "", "download cache (default: <user cache dir>/esptools-bundle)")
	flags.StringVar(&opts.mirror, "mirror", "", "base URL serving the same paths as github.com")
	flags.StringVar(&opts.logLevel, "log-level", "info", "log level: debug, info, warn or error")
	flags.IntVar(&opts.concurrency, "concurrency", release.DefaultConcurrency, "parallel downloads")
	flags.IntVar(&opts.retries, "retries", release.DefaultRetries, "retries per download")

	return cmd
}

func run(ctx context.Context, stdout, stderr io.Writer, getenv func(string) string, detector platform.Detector, opts options) error {
	if opts.concurrency < 1 {
		return fmt.Errorf("--concurrency must be at least 1, got %d", opts.concurrency)
	}
	if opts.retries < 0 {
		return fmt.Errorf("--retries must not be negative, got %d", opts.retries)
	}

	level, err := logging.ParseLevel(opts.logLevel)
	if err != nil {
		return err
	}
	logger := logging.New(stderr, level, "bundle")

	target, err := resolveTarget(ctx, opts.target, detector)
	if err != nil {
		return err
	}

	var tools tool.Set
	if opts.tools != "" {
		if tools, err = tool.ParseList(opts.tools); err != nil {
			return err
		}
	}

	var signer *openpgp.Entity
	if opts.signKey != "" {
		data, err := afero.ReadFile(afero.NewOsFs(), opts.signKey)
		if err != nil {
			return fmt.Errorf("read signing key: %w", err)
		}
		if signer, err = binary.LoadSigner(data); err != nil {
			return fmt.Errorf("load signing key: %w", err)
		}
	}

	cacheDir := opts.cacheDir
	if cacheDir == "" {
		userCache, err := os.UserCacheDir()
		if err != nil {
			return fmt.Errorf("resolve download cache: %w", err)
		}
		cacheDir = filepath.Join(userCache, "esptools-bundle")
	}

	clock, err := clockFromEnv(getenv)
	if err != nil {
		return err
	}

	downloader := release.NewDownloader(cacheDir,
		release.WithRetries(opts.retries),
		release.WithDownloadLogger(logger))
	bundlerOpts := []release.BundlerOption{
		release.WithClock(clock),
		release.WithConcurrency(opts.concurrency),
		release.WithLogger(logger),
	}
	if opts.mirror != "" {
		bundlerOpts = append(bundlerOpts, release.WithResolver(release.MirrorResolver(opts.mirror)))
	}
	bundler := release.NewBundler(downloader, bundlerOpts...)

	manifest, err := bundler.Bundle(ctx, release.Options{
		Target: target,
		Tools:  tools,
		OutDir: opts.outDir,
		Signer: signer,
	})
	if err != nil {
		return err
	}

	for _, e := range manifest.Tools {
		fmt.Fprintf(stdout, "%s %s %s\n", e.Tool, e.SHA1, filepath.Join(opts.outDir, e.File))
	}
	return nil
}

func resolveTarget(ctx context.Context, name string, detector platform.Detector) (platform.Target, error) {
	if name != "" {
		return platform.ParseTarget(name)
	}
	if detector == nil {
		return "", errors.New("--target is required")
	}
	info, err := detector.Detect(ctx)
	if err != nil {
		return "", fmt.Errorf("detect platform: %w", err)
	}
	return platform.TargetFor(info)
}

func clockFromEnv(getenv func(string) string) (release.Clock, error) {
	v := getenv(EnvSourceDateEpoch)
	if v == "" {
		return release.RealClock{}, nil
	}
	secs, err := strconv.ParseInt(v, 10, 64)
	if err != nil {
		return nil, fmt.Errorf("invalid %s %q: %w", EnvSourceDateEpoch, v, err)
	}
	return release.FixedClock{Time: time.Unix(secs, 0).UTC()}, nil
}
