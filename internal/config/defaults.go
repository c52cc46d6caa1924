package config

const (
	defaultPrinterHost        = "192.168.1.158"
	defaultStatusPort         = 80
	defaultCameraPort         = 8080
	defaultOnlineTimeout      = 1
	defaultStatusTimeout      = 5
	defaultSnapshotTimeout    = 10
	defaultTargetDuration     = 20.0
	defaultFPS                = 30.0
	defaultMinDelay           = 0.5
	defaultFastWindow         = 45.0
	defaultFFmpegBinary       = "ffmpeg"
	defaultEncodeWorkers      = 2
	defaultVideoDir           = "~/timelapses"
	defaultStagingDir         = "~/.local/share/printlapse/staging"
	defaultLogDir             = "~/.local/share/printlapse/logs"
	defaultOnlinePollInterval = 1
	defaultJobPollInterval    = 2
	defaultMinFreeDiskMiB     = 512
	defaultNotifyTimeout      = 10
	defaultLogFormat          = "console"
	defaultLogLevel           = "info"
)

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Printer: Printer{
			Host:            defaultPrinterHost,
			StatusPort:      defaultStatusPort,
			CameraPort:      defaultCameraPort,
			OnlineTimeout:   defaultOnlineTimeout,
			StatusTimeout:   defaultStatusTimeout,
			SnapshotTimeout: defaultSnapshotTimeout,
		},
		Capture: Capture{
			TargetDuration: defaultTargetDuration,
			FPS:            defaultFPS,
			MinDelay:       defaultMinDelay,
			FastWindow:     defaultFastWindow,
		},
		Encode: Encode{
			FFmpegBinary: defaultFFmpegBinary,
			Workers:      defaultEncodeWorkers,
		},
		Paths: Paths{
			VideoDir:   defaultVideoDir,
			StagingDir: defaultStagingDir,
			LogDir:     defaultLogDir,
		},
		Workflow: Workflow{
			OnlinePollInterval: defaultOnlinePollInterval,
			JobPollInterval:    defaultJobPollInterval,
			MinFreeDiskMiB:     defaultMinFreeDiskMiB,
		},
		Notifications: Notifications{
			RequestTimeout: defaultNotifyTimeout,
			Capture:        true,
			Encoding:       true,
			Errors:         true,
		},
		Logging: Logging{
			Format: defaultLogFormat,
			Level:  defaultLogLevel,
		},
	}
}
