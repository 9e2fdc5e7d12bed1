package models

// MConfig Structure
type MConfig struct {
	Name     string         `yaml:"name"`
	Host     string         `yaml:"host"`
	Port     int            `yaml:"port"`
	LogLevel string         `yaml:"log_level"`
	Theme    string         `yaml:"theme"`
	Storage  MStorageConfig `yaml:"storage"`
	Network  MNetworkConfig `yaml:"network"`
	Bybit    MBybitConfig   `yaml:"bybit"`
	Auth     MAuthConfig    `yaml:"auth"`
}

type MStorageConfig struct {
	DBType             string `yaml:"db_type"`
	DBPath             string `yaml:"db_path"`
	DBConnectionString string `yaml:"db_connection_string" envconfig:"COIN_CONTROL_DB_DSN"`
	CredentialsPath    string `yaml:"credentials_path"`
	IconCacheDir       string `yaml:"icon_cache_dir"`
}

type MNetworkConfig struct {
	RequestTimeout int    `yaml:"timeout"`
	MaxRetries     int    `yaml:"retries"`
	UserAgent      string `yaml:"user_agent"`
}

type MBybitConfig struct {
	RestURL   string `yaml:"rest_url"`
	StreamURL string `yaml:"stream_url"`
	Quote     string `yaml:"quote"`
	APIKey    string `yaml:"api_key" envconfig:"BYBIT_API_KEY"`
	APISecret string `yaml:"api_secret" envconfig:"BYBIT_API_SECRET"`
}

type MAuthConfig struct {
	JWTSecret   string `yaml:"jwt_secret" envconfig:"COIN_CONTROL_JWT_SECRET"`
	TokenTTLHrs int    `yaml:"token_ttl_hours"`
}
