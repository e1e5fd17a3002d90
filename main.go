package main

import (
	"context"
	"fmt"
	"io"
	"runtime"
	"slices"
	"strings"

	"github.com/cockroachdb/errors"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/3leaps/jbi/internal/cli"
	"github.com/3leaps/jbi/internal/download"
	"github.com/3leaps/jbi/internal/host/jetbrains"
	"github.com/3leaps/jbi/internal/hostenv"
	"github.com/3leaps/jbi/internal/install"
	"github.com/3leaps/jbi/internal/logging"
	"github.com/3leaps/jbi/internal/model"
	"github.com/3leaps/jbi/internal/products"
	"github.com/3leaps/jbi/internal/ui"
)

var version = "dev"

// Overridden in tests.
var (
	hostOS      = runtime.GOOS
	openCommand func(ctx context.Context, bin string, args ...string) error
)

type app struct {
	registry *products.Registry
	flags    flagValues
	stdout   io.Writer
	stderr   io.Writer
	out      *ui.Printer
	errOut   *ui.Printer
}

func run(args []string, stdout, stderr io.Writer) int {
	a := &app{
		registry: products.Default(),
		stdout:   stdout,
		stderr:   stderr,
		out:      ui.NewPrinter(stdout),
		errOut:   ui.NewPrinter(stderr),
	}
	cmd := a.command()
	cmd.SetArgs(args)

	err := cmd.ExecuteContext(context.Background())
	if err != nil {
		a.reportError(cmd, err)
	}
	return cli.ExitCode(err)
}

func (a *app) command() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "jbi [options] <product> [<platform>]",
		Short: "Download and install JetBrains IDEs",
		Long: `jbi fetches the latest release of a JetBrains IDE for the given platform,
and optionally installs it. Omit the platform to list what the release offers.`,
		Version:       version,
		Args:          cobra.ArbitraryArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.execute(cmd, args)
		},
	}
	cmd.SetOut(a.stdout)
	cmd.SetErr(a.stderr)
	cmd.SetVersionTemplate("jbi {{.Version}}\n")
	cmd.SetUsageTemplate(cmd.UsageTemplate() + "\n" + a.registry.Epilog() + "\n")
	cmd.SetFlagErrorFunc(func(_ *cobra.Command, err error) error {
		return model.Mark(err, model.ErrUsage, "invalid arguments")
	})

	f := cmd.Flags()
	f.SortFlags = false
	f.BoolVarP(&a.flags.force, "force", "f", false, "force redownload and reinstall")
	f.BoolVarP(&a.flags.install, "install", "i", false, "install after download")
	f.BoolVarP(&a.flags.link, "link", "l", false, "create a version-agnostic symlink to the installation")
	f.StringVarP(&a.flags.prefix, "prefix", "p", defaultPrefix, "installation prefix")
	f.StringVarP(&a.flags.tmpDir, "tmpdir", "t", defaultTmpDir, "download directory")
	f.BoolVarP(&a.flags.app, "app", "a", false, "create a desktop entry")
	f.BoolVarP(&a.flags.verbose, "verbose", "v", false, "print diagnostic logging")
	f.StringVar(&a.flags.configPath, "config", "", "config file (default $XDG_CONFIG_HOME/jbi/config.yaml)")
	return cmd
}

func (a *app) execute(cmd *cobra.Command, args []string) error {
	if len(args) == 0 {
		return model.Markf(model.ErrUsage, "expected a product name")
	}
	if len(args) > 2 {
		return model.Markf(model.ErrUsage, "too many arguments: %s", strings.Join(args[2:], " "))
	}

	cfg, err := resolveSettings(cmd.Flags(), &a.flags)
	if err != nil {
		return err
	}
	log := logging.New(a.stderr, cfg.Verbose)
	defer func() { _ = log.Sync() }()

	product, err := a.registry.Resolve(args[0])
	if err != nil {
		return err
	}
	a.out.Info("Downloading " + product.DisplayName)

	ctx := cmd.Context()
	releases := &jetbrains.Releases{
		BaseURL:   cfg.APIBase,
		UserAgent: jetbrains.UserAgent(version),
		HTTP:      jetbrains.MetadataClient(cfg.Timeout),
		Log:       log,
	}
	rel, err := releases.FetchLatest(ctx, product.Code)
	if err != nil {
		return err
	}

	if len(args) < 2 {
		a.out.Println("No platform provided.")
		a.listPlatforms(rel)
		return model.Markf(model.ErrUnknownPlatform, "no platform given for %s", product.DisplayName)
	}
	platform := args[1]
	desc, ok := rel.Downloads[platform]
	if !ok {
		a.out.Println("Unknown platform: " + platform)
		a.listPlatforms(rel)
		return model.Markf(model.ErrUnknownPlatform, "unknown platform: %s", platform)
	}

	fname, err := download.FileName(desc.URL)
	if err != nil {
		return err
	}
	a.out.Info(foundLine(product, rel, fname, desc.Size))

	dl := &download.Downloader{
		HTTP:      jetbrains.TransferClient(),
		UserAgent: jetbrains.UserAgent(version),
		Log:       log,
		Reporter:  &downloadReporter{out: a.out, interactive: ui.IsTerminal(a.stdout)},
	}
	archive, err := dl.Download(ctx, desc, cfg.Options.TempDir, cfg.Options.ForceReinstall)
	if err != nil {
		return err
	}

	if !cfg.Options.InstallAfterDownload {
		return nil
	}
	return a.install(ctx, log, archive, cfg.Options, product)
}

func (a *app) install(ctx context.Context, log *zap.Logger, archive string, opts model.InstallOptions, product products.Product) error {
	host := install.DetectHost(hostOS)
	log.Debug("install", zap.Stringer("host", host), zap.String("archive", archive))

	switch host {
	case install.HostLinux:
		ex := &install.Extractor{Log: log, Notify: a.out, NoExec: hostenv.IsNoExecMount}
		res, err := ex.Install(archive, opts, product)
		if err != nil {
			return err
		}
		a.out.Success(fmt.Sprintf("%s installed in %s", product.DisplayName, res.ActiveDir))
		return nil
	case install.HostDarwin:
		op := &install.Opener{Log: log, Notify: a.out, Run: openCommand}
		return op.Open(ctx, archive)
	default:
		return install.UnsupportedHost(hostOS)
	}
}

func (a *app) listPlatforms(rel *model.ReleaseInfo) {
	platforms := rel.Platforms()
	slices.Sort(platforms)
	a.out.Println("Available platforms:")
	for _, p := range platforms {
		a.out.Println("  " + p)
	}
}

func foundLine(product products.Product, rel *model.ReleaseInfo, fname string, size int64) string {
	var details []string
	if rel.Build != "" {
		details = append(details, "build "+rel.Build)
	}
	if rel.Date != "" {
		details = append(details, rel.Date)
	}
	line := fmt.Sprintf("Found %s version %s", product.DisplayName, rel.Version)
	if len(details) > 0 {
		line += " (" + strings.Join(details, ", ") + ")"
	}
	return fmt.Sprintf("%s, file: %s (%d bytes, %s)", line, fname, size, download.FormatSize(size))
}

func (a *app) reportError(cmd *cobra.Command, err error) {
	a.errOut.Error(err.Error())
	for _, hint := range errors.GetAllHints(err) {
		a.errOut.Println("hint: " + hint)
	}
	if cli.IsUsage(err) {
		a.errOut.Println("")
		a.errOut.Printf("%s", cmd.UsageString())
	}
}

// downloadReporter turns download events into status lines and a progress
// display on stdout.
type downloadReporter struct {
	out         *ui.Printer
	interactive bool
	progress    download.Progress
}

func (r *downloadReporter) Skipped(path string, size int64) {
	r.out.Info(fmt.Sprintf("%s already downloaded (%s), skipping", path, download.FormatSize(size)))
}

func (r *downloadReporter) SizeMismatch(path string, have, want int64) {
	r.out.Warn(fmt.Sprintf("%s has %d bytes, expected %d; downloading again", path, have, want))
}

func (r *downloadReporter) Started(url, path string) {
	r.out.Info(fmt.Sprintf("Fetching %s to %s", url, path))
	r.progress = download.NewProgress(r.out.Writer(), r.interactive)
}

func (r *downloadReporter) Progress(done, total int64) {
	if r.progress != nil {
		r.progress.Update(done, total)
	}
}

func (r *downloadReporter) Finished(path string, written int64) {
	if r.progress != nil {
		r.progress.Finish()
		r.progress = nil
	}
	r.out.Success(fmt.Sprintf("Saved %s (%s)", path, download.FormatSize(written)))
}
