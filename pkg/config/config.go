package config

import (
	"fmt"
	"io"
	"os"
	"os/user"
	"path"
	"time"

	"gopkg.in/yaml.v2"
)

const (
	configDir  string = ".procctl"
	configFile string = "config.yml"
)

// Config defines all configuration options available to be set through the config file.
type Config struct {
	// Listen is the address the headless server listens on.
	Listen string `yaml:"listen,omitempty"`
	// AcceptMulticlient keeps the server running after the first client
	// disconnects.
	AcceptMulticlient bool `yaml:"accept-multiclient"`
	// OnlySameUser restricts local connections to the user running the
	// server. Defaults to true when unset.
	OnlySameUser *bool `yaml:"only-same-user,omitempty"`
	// UnknownName is reported for processes whose name cannot be resolved.
	UnknownName string `yaml:"unknown-name,omitempty"`
	// WaitPollInterval is the first polling interval of a wait with a timeout.
	WaitPollInterval time.Duration `yaml:"wait-poll-interval,omitempty"`
	// LogOutput is the default value of --log-output.
	LogOutput string `yaml:"log-output,omitempty"`
}

// SameUserOnly reports whether connections from other users must be refused.
func (c *Config) SameUserOnly() bool {
	return c.OnlySameUser == nil || *c.OnlySameUser
}

// LoadConfig attempts to populate a Config object from the config.yml file.
func LoadConfig() *Config {
	dir, err := GetConfigFilePath("")
	if err != nil {
		fmt.Printf("Unable to get config file path: %v.", err)
		return &Config{}
	}
	c, err := LoadConfigFrom(dir)
	if err != nil {
		fmt.Printf("%v.", err)
		return &Config{}
	}
	return c
}

// LoadConfigFrom reads config.yml from dir, creating dir and a commented
// default file if they do not exist.
func LoadConfigFrom(dir string) (*Config, error) {
	if err := os.MkdirAll(dir, 0700); err != nil {
		return nil, fmt.Errorf("could not create config directory: %w", err)
	}
	fullConfigFile := path.Join(dir, configFile)

	f, err := os.Open(fullConfigFile)
	if err != nil {
		f, err = createDefaultConfig(fullConfigFile)
		if err != nil {
			return nil, fmt.Errorf("error creating default config file: %w", err)
		}
	}
	defer func() {
		err := f.Close()
		if err != nil {
			fmt.Printf("Closing config file failed: %v.", err)
		}
	}()

	data, err := io.ReadAll(f)
	if err != nil {
		return nil, fmt.Errorf("unable to read config data: %w", err)
	}

	var c Config
	if err := yaml.Unmarshal(data, &c); err != nil {
		return nil, fmt.Errorf("unable to decode config file: %w", err)
	}
	return &c, nil
}

// SaveConfig will marshal and save the config struct
// to disk.
func SaveConfig(conf *Config) error {
	dir, err := GetConfigFilePath("")
	if err != nil {
		return err
	}
	return SaveConfigTo(dir, conf)
}

// SaveConfigTo writes conf to config.yml in dir.
func SaveConfigTo(dir string, conf *Config) error {
	out, err := yaml.Marshal(*conf)
	if err != nil {
		return err
	}

	f, err := os.Create(path.Join(dir, configFile))
	if err != nil {
		return err
	}
	defer f.Close()

	_, err = f.Write(out)
	return err
}

func createDefaultConfig(path string) (*os.File, error) {
	f, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("unable to create config file: %w", err)
	}
	err = writeDefaultConfig(f)
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("unable to write default configuration: %w", err)
	}
	if _, err := f.Seek(0, io.SeekStart); err != nil {
		f.Close()
		return nil, err
	}
	return f, nil
}

func writeDefaultConfig(f *os.File) error {
	_, err := f.WriteString(
		`# Configuration file for procctl.

# This is the default configuration file. Available options are provided, but disabled.
# Delete the leading hash mark to enable an item.

# Address the headless server listens on.
# listen: "127.0.0.1:0"

# Keep serving after the first client disconnects.
# accept-multiclient: false

# Refuse local connections from other users (Linux only).
# only-same-user: true

# Name reported for processes whose name cannot be resolved.
# unknown-name: "(Unknown name)"

# First polling interval used by waits that have a timeout.
# wait-poll-interval: 10ms

# Comma separated list of components that should produce debug output
# when --log is passed (ptrace, rpc, enum).
# log-output: ptrace
`)
	return err
}

// GetConfigFilePath gets the full path to the given config file name.
func GetConfigFilePath(file string) (string, error) {
	userHomeDir, err := os.UserHomeDir()
	if err != nil {
		userHomeDir = "."
		if usr, err := user.Current(); err == nil {
			userHomeDir = usr.HomeDir
		}
	}
	return path.Join(userHomeDir, configDir, file), nil
}
