package config

const (
	defaultDataDir        = "~/.local/share/mytvlog"
	defaultLogDir         = "~/.local/share/mytvlog/logs"
	defaultAPIBind        = "127.0.0.1:7645"
	defaultDatabaseDriver = "sqlite"
	defaultSMBPort        = 445
	defaultSMBDialTimeout = 30
	defaultEDCBTimeout    = 60
	defaultLogFormat      = "console"
	defaultLogLevel       = "info"
	defaultJobQueueSize   = 64
)

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Paths: Paths{
			DataDir: defaultDataDir,
			LogDir:  defaultLogDir,
			APIBind: defaultAPIBind,
		},
		Database: Database{
			Driver: defaultDatabaseDriver,
		},
		SMB: SMB{
			Port:               defaultSMBPort,
			DialTimeoutSeconds: defaultSMBDialTimeout,
		},
		EDCB: EDCB{
			TimeoutSeconds: defaultEDCBTimeout,
		},
		Logging: Logging{
			Format: defaultLogFormat,
			Level:  defaultLogLevel,
		},
		Workflow: Workflow{
			JobQueueSize: defaultJobQueueSize,
		},
	}
}
