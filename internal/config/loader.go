package config

func LoadFromEnv() (Config, error) {
	return LoadFromEnvWith(nil)
}

// LoadFromEnvWith loads the process environment with overrides taking
// precedence. Empty override values are ignored, so unset command line
// flags fall through to the environment.
func LoadFromEnvWith(overrides EnvMap) (Config, error) {
	if err := loadDotEnv(); err != nil {
		return Config{}, err
	}
	return Load(Overlay(overrides, FromEnviron()))
}

// Overlay returns a source that consults top before base.
func Overlay(top EnvMap, base EnvSource) EnvSource {
	return overlay{top: top, base: base}
}

type overlay struct {
	top  EnvMap
	base EnvSource
}

func (o overlay) Lookup(key string) (string, bool) {
	if value, ok := o.top[key]; ok && value != "" {
		return value, true
	}
	if o.base == nil {
		return "", false
	}
	return o.base.Lookup(key)
}
