package logging

const (
	BaseDataDir   = "data"
	LogsDir       = "logs"
	LogFileFormat = "2006-01-02.log"
	TimeFormat    = "2006-01-02 15:04:05"
)

type ProcessName string

const (
	RegistryProcess    ProcessName = "registry"
	RegistryCtlProcess ProcessName = "registryctl"
	TestProcess        ProcessName = "test"
)

type LoggerConfig struct {
	// LogDir defaults to BaseDataDir. An empty ProcessName disables file output.
	LogDir        string
	ProcessName   ProcessName
	IsDevelopment bool
}

func NewDefaultConfig(processName ProcessName) LoggerConfig {
	return LoggerConfig{
		LogDir:        BaseDataDir,
		ProcessName:   processName,
		IsDevelopment: true,
	}
}
