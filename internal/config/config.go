package config

type Config interface {
	EnvConfig
	CorsConfig
	OidcConfig
	DatabaseConfig
	AwsConfig
	SecurityConfig
}

type EnvConfig interface {
	GetPort() string
	GetAppName() string
	GetBaseURL() string
	GetEnv() string
}

type CorsConfig interface {
	GetAllowedOrigins() AllowedOrigins
	GetAllowedMethods() string
	GetAllowedHeaders() string
}

type DatabaseConfig interface {
	GetDatabaseURL() string
}

type mainConfig struct {
	EnvVars
	Cors
	Oidc
	Database
	Aws
	Security
}

func New() Config {
	return mainConfig{}
}
