package core

import (
	"fmt"
	"os"
	"strings"

	"github.com/fernet/fernet-go"
	"github.com/spf13/viper"
)

// Config contains all of the configuration options available to the server.
type Config struct {
	// Hostname or IP address on which the server will listen for connections.
	Hostname string `mapstructure:"hostname"`
	// Port on which the chat server will listen.
	Port int `mapstructure:"port"`
	// Maximum number of concurrent connections the server will allow.
	MaxConnections int `mapstructure:"max_connections"`
	// Message sent to every client immediately after its connection is
	// accepted. May contain &-style markup codes, which are passed through
	// to the client verbatim.
	WelcomeText string `mapstructure:"welcome_text"`

	Logging struct {
		// Minimum level of a log required to be written. Options: debug, info, warn, error
		LogLevel string `mapstructure:"log_level"`
		// Full path to file to which logs will be written. Blank will write to stdout.
		LogFilePath string `mapstructure:"log_file_path"`
	} `mapstructure:"logging"`

	Encryption struct {
		// Whether or not frame payloads are encrypted with the pre-shared key.
		Enabled bool `mapstructure:"enabled"`
		// Path to the file containing the pre-shared fernet key.
		KeyPath string `mapstructure:"key_path"`
	} `mapstructure:"encryption"`

	Database struct {
		// Path to the sqlite database file holding the channel list and
		// moderation records. Created if it does not exist.
		Filename string `mapstructure:"filename"`
	} `mapstructure:"database"`

	Moderation struct {
		// Number of warnings at which a client is escalated to a ban.
		WarnLimit int `mapstructure:"warn_limit"`
	} `mapstructure:"moderation"`
}

const envVarPrefix = "PRIVNET"

// LoadConfig initializes Viper with the contents of the config file under configPath.
func LoadConfig(configPath string) *Config {
	viper.AddConfigPath(configPath)
	viper.SetConfigName("config")
	viper.SetConfigType("yaml")

	viper.SetEnvPrefix(envVarPrefix)
	viper.AutomaticEnv()

	viper.SetDefault("max_connections", 10)
	viper.SetDefault("logging.log_level", "info")
	viper.SetDefault("database.filename", "privnet.db")
	viper.SetDefault("moderation.warn_limit", 3)

	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); ok {
			fmt.Printf("error reading config file: no config file in path %s", configPath)
		} else {
			fmt.Printf("error reading config file: %v", err)
		}
		os.Exit(1)
	}

	// This allows us to set nested yaml config options through environment
	// variables. For example, database.filename can be set using: <envVarPrefix>_DATABASE_FILENAME
	for _, k := range viper.AllKeys() {
		envVar := strings.ReplaceAll(strings.ToUpper(k), ".", "_")
		if err := viper.BindEnv(k, envVarPrefix+"_"+envVar); err != nil {
			fmt.Printf("error binding %s to %s", k, envVarPrefix+"_"+envVar)
			os.Exit(1)
		}
	}

	config := &Config{}
	if err := viper.Unmarshal(config); err != nil {
		fmt.Printf("error unmarshaling config object: %v", err)
		os.Exit(1)
	}
	return config
}

// BindAddress returns the host:port pair on which the server should listen.
func (c *Config) BindAddress() string {
	return fmt.Sprintf("%s:%v", c.Hostname, c.Port)
}

// EncryptionKey reads and decodes the pre-shared key named by the config.
// Returns nil with no error if encryption is disabled. Any failure to load
// the key while encryption is enabled is an error; the server must refuse
// to start rather than silently accept plaintext connections.
func (c *Config) EncryptionKey() (*fernet.Key, error) {
	if !c.Encryption.Enabled {
		return nil, nil
	}

	keyBytes, err := os.ReadFile(c.Encryption.KeyPath)
	if err != nil {
		return nil, fmt.Errorf("error reading key file %s: %w", c.Encryption.KeyPath, err)
	}

	key, err := fernet.DecodeKey(strings.TrimSpace(string(keyBytes)))
	if err != nil {
		return nil, fmt.Errorf("error decoding key file %s: %w", c.Encryption.KeyPath, err)
	}
	return key, nil
}
