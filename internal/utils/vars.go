package utils

const (
	JobTypeCore = "core"
	JobTypeURL  = "url"
)

const ToolUserAgent = "mcscs-cli"

// Layout of the working directory shared with the daemon.
const (
	WorkDirName     = "MCSCS"
	DownloadsDir    = "downloads"
	LogsDir         = "logs"
	Aria2Dir        = "aria2c"
	Aria2ConfigFile = "aria2c.conf"
	LogTimeLayout   = "200601021504"
)
