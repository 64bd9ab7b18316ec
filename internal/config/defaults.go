package config

const (
	defaultStagingDir         = "~/.local/share/federate/staging"
	defaultOutputDir          = "~/models"
	defaultLogDir             = "~/.local/share/federate/logs"
	defaultConverterBinary    = "FileToolsTaskRunner.exe"
	defaultFileVersion        = "2021"
	defaultConvertTimeout     = 1800
	defaultAssembleTimeout    = 3600
	defaultConvertedExt       = ".nwc"
	defaultMasterExt          = ".nwd"
	defaultLogFormat          = "console"
	defaultLogLevel           = "info"
	defaultTransferRetries    = 3
	defaultTransferRetryDelay = 5
	defaultMinFreeGiB         = 2
)

func defaultExtensions() []string {
	return []string{".rvt", ".dwg", ".ifc", ".nwc", ".dgn", ".skp"}
}

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Paths: Paths{
			StagingDir: defaultStagingDir,
			OutputDir:  defaultOutputDir,
			LogDir:     defaultLogDir,
		},
		Converter: Converter{
			Binary:            defaultConverterBinary,
			FileVersion:       defaultFileVersion,
			ConvertTimeout:    defaultConvertTimeout,
			AssembleTimeout:   defaultAssembleTimeout,
			ConvertedExt:      defaultConvertedExt,
			MasterExt:         defaultMasterExt,
			OverwriteExisting: true,
		},
		Selection: Selection{
			Extensions: defaultExtensions(),
			Recursive:  true,
		},
		Workflow: Workflow{
			TransferRetries:    defaultTransferRetries,
			TransferRetryDelay: defaultTransferRetryDelay,
			MinFreeGiB:         defaultMinFreeGiB,
		},
		Logging: Logging{
			Format: defaultLogFormat,
			Level:  defaultLogLevel,
		},
	}
}
