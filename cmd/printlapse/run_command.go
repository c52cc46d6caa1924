package main

import (
	"fmt"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"printlapse/internal/daemon"
	"printlapse/internal/encoding"
	"printlapse/internal/history"
	"printlapse/internal/logging"
	"printlapse/internal/notifications"
	"printlapse/internal/preflight"
	"printlapse/internal/printer"
	"printlapse/internal/workflow"
)

func newRunCommand(ctx *commandContext) *cobra.Command {
	var (
		hostFlag        string
		videoDirFlag    string
		durationFlag    float64
		singlePrintFlag bool
		foregroundFlag  bool
		retainFlag      bool
	)

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Watch the printer and record time-lapses",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return fmt.Errorf("load config: %w", err)
			}

			flags := cmd.Flags()
			if flags.Changed("host") {
				cfg.Printer.Host = hostFlag
			}
			if flags.Changed("video-dir") {
				cfg.Paths.VideoDir = videoDirFlag
			}
			if flags.Changed("duration") {
				cfg.Capture.TargetDuration = durationFlag
			}
			if singlePrintFlag {
				cfg.Workflow.SinglePrint = true
			}
			if foregroundFlag || cfg.Workflow.SinglePrint {
				// A one-shot run finishes its encode before exiting.
				cfg.Encode.Foreground = true
			}
			if retainFlag {
				cfg.Capture.RetainFrames = true
			}
			if err := cfg.Validate(); err != nil {
				return fmt.Errorf("config: %w", err)
			}
			if err := cfg.EnsureDirectories(); err != nil {
				return fmt.Errorf("prepare directories: %w", err)
			}

			verbosity := ctx.verbosityValue()
			if cmd.Root().PersistentFlags().Changed("verbose") {
				cfg.Logging.Level = logging.VerbosityLevel(verbosity)
			}
			logger, err := logging.NewFromConfig(cfg)
			if err != nil {
				return fmt.Errorf("init logger: %w", err)
			}

			if failed := preflight.Failed(preflight.RunAll(cfg)); len(failed) > 0 {
				for _, result := range failed {
					logger.Error("preflight check failed",
						logging.String("check", result.Name),
						logging.String("detail", result.Detail))
				}
				return fmt.Errorf("%d preflight check(s) failed", len(failed))
			}

			signalCtx, cancel := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer cancel()

			store, err := history.Open(cfg)
			if err != nil {
				return fmt.Errorf("open history store: %w", err)
			}

			runner, err := encoding.NewFFmpegRunner(cfg, verbosity >= 3, logger)
			if err != nil {
				store.Close()
				return fmt.Errorf("init encoder: %w", err)
			}

			notifier := notifications.NewService(cfg)
			monitor := printer.NewClient(cfg, logger)
			dispatcher := encoding.NewDispatcher(cfg, runner, store, notifier, logger)
			manager := workflow.NewManager(cfg, monitor, dispatcher, store, notifier, logger)

			d, err := daemon.New(cfg, store, logger, manager, dispatcher)
			if err != nil {
				dispatcher.Close()
				store.Close()
				return fmt.Errorf("create daemon: %w", err)
			}
			defer d.Close()

			logger.Info("printlapse starting",
				logging.String("version", version),
				logging.String("printer", cfg.Printer.Host),
				logging.String("video_dir", cfg.Paths.VideoDir),
				logging.Bool("single_print", cfg.Workflow.SinglePrint),
			)
			if err := d.Start(signalCtx); err != nil {
				return err
			}

			select {
			case <-signalCtx.Done():
				logger.Info("shutting down, draining pending encodes")
			case <-d.Done():
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&hostFlag, "host", "", "Printer hostname or IP address")
	cmd.Flags().StringVar(&videoDirFlag, "video-dir", "", "Directory for finished videos")
	cmd.Flags().Float64Var(&durationFlag, "duration", 0, "Target video duration in seconds")
	cmd.Flags().BoolVar(&singlePrintFlag, "single-print", false, "Capture one print, encode it, and exit")
	cmd.Flags().BoolVar(&foregroundFlag, "foreground", false, "Encode in the capture loop instead of background workers")
	cmd.Flags().BoolVar(&retainFlag, "retain-frames", false, "Keep frame directories after a successful encode")

	return cmd
}
