package config

// Merge layers overlays on top of base, in order. Non-zero fields of a later
// overlay win. Base is not modified; nil overlays are skipped.
func Merge(base *Config, overlays ...*Config) *Config {
	merged := *base

	for _, o := range overlays {
		if o == nil {
			continue
		}
		if o.Host != "" {
			merged.Host = o.Host
		}
		if o.Port != 0 {
			merged.Port = o.Port
		}
		if o.AssetsDir != "" {
			merged.AssetsDir = o.AssetsDir
		}
		if o.AppVersion != "" {
			merged.AppVersion = o.AppVersion
		}
		if o.AllowOrigin != "" {
			merged.AllowOrigin = o.AllowOrigin
		}

		if o.Latency.Mode != "" {
			merged.Latency.Mode = o.Latency.Mode
		}
		if o.Latency.URL != "" {
			merged.Latency.URL = o.Latency.URL
		}
		if o.Latency.Pages != 0 {
			merged.Latency.Pages = o.Latency.Pages
		}
		if o.Latency.Limit != 0 {
			merged.Latency.Limit = o.Latency.Limit
		}
		if o.Latency.Delay != 0 {
			merged.Latency.Delay = o.Latency.Delay
		}
		if o.Latency.Timeout != 0 {
			merged.Latency.Timeout = o.Latency.Timeout
		}

		if o.Sessions.Max != 0 {
			merged.Sessions.Max = o.Sessions.Max
		}
		if o.Sessions.RateLimit != 0 {
			merged.Sessions.RateLimit = o.Sessions.RateLimit
		}
		if o.Sessions.Burst != 0 {
			merged.Sessions.Burst = o.Sessions.Burst
		}

		if *o != (Config{Source: o.Source}) {
			merged.Source = o.Source
		}
	}

	return &merged
}

// Load loads and merges the defaults, the user config and the project config
// found in projectDir. Project settings take precedence over user settings.
func Load(projectDir string) (*Config, error) {
	user, err := LoadUserConfig()
	if err != nil {
		return nil, err
	}

	project, err := LoadProjectConfig(projectDir)
	if err != nil {
		return nil, err
	}

	return Merge(Default(), user, project), nil
}
