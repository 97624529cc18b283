package config

type Config interface {
	EnvConfig
	CorsConfig
	ProviderConfig
	AuthConfig
	SecurityConfig
}

type EnvConfig interface {
	GetPort() string
	GetAppName() string
	GetBaseURL() string
	GetDefaultReturnPath() string
	GetEnv() string
}

type CorsConfig interface {
	GetAllowedOrigins() AllowedOrigins
	GetAllowedMethods() string
	GetAllowedHeaders() string
}

type mainConfig struct {
	EnvVars
	Cors
	Provider
	Auth
	Security
}

// New returns a Config read from environment variables only.
func New() Config {
	return newMainConfig(nil)
}

// Load returns a Config read from environment variables with the YAML file at
// path as a fallback layer. Environment variables always win.
func Load(path string) (Config, error) {
	values, err := loadFileValues(path)
	if err != nil {
		return nil, err
	}
	return newMainConfig(values), nil
}

func newMainConfig(values fileValues) mainConfig {
	return mainConfig{
		EnvVars:  EnvVars{values: values},
		Cors:     Cors{values: values},
		Provider: Provider{values: values},
		Auth:     Auth{values: values},
		Security: Security{values: values},
	}
}
