package fastmirror

import "time"

// UpdateTimeLayout is the timestamp format of Build.UpdateTime.
const UpdateTimeLayout = "2006-01-02T15:04:05"

type Core struct {
	Name       string   `json:"name"`
	Tag        string   `json:"tag"`
	Homepage   string   `json:"homepage"`
	Recommend  bool     `json:"recommend"`
	MCVersions []string `json:"mc_versions"`
}

type Build struct {
	Name        string `json:"name"`
	MCVersion   string `json:"mc_version"`
	CoreVersion string `json:"core_version"`
	UpdateTime  string `json:"update_time"`
	SHA1        string `json:"sha1"`
}

func (b Build) UpdatedAt() (time.Time, error) {
	return time.Parse(UpdateTimeLayout, b.UpdateTime)
}

type buildPage struct {
	Builds []Build `json:"builds"`
	Offset int     `json:"offset"`
	Limit  int     `json:"limit"`
	Count  int     `json:"count"`
}

// Artifact is a build resolved to a concrete download.
type Artifact struct {
	Core  string
	Build Build
	URL   string
}
