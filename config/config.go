package config

import (
	"sync"
	"time"
)

const (
	DefaultSystemID        = "System.Embedded.1"
	DefaultScheme          = "https"
	DefaultTimeout         = 30 * time.Second
	DefaultRequestInterval = 100 * time.Millisecond
)

// Config holds the BMC connection settings shared by the transport and the collectors
type Config struct {
	BMCScheme  string
	BMCTimeout time.Duration
	VerifyTLS  bool
	// Proxy overrides HTTP(S)_PROXY/NO_PROXY for BMC requests
	Proxy           string
	User            string
	Pass            string
	SystemID        string
	RequestInterval time.Duration
	Concurrency     int
}

var (
	config *Config
	once   sync.Once
)

func NewConfig(c *Config) {
	once.Do(func() {
		if c != nil {
			config = c
		} else {
			config = &Config{}
		}
		config.setDefaults()
	})
}

func GetConfig() *Config {
	if config != nil {
		return config
	}

	NewConfig(nil)
	return config
}

func (c *Config) setDefaults() {
	if c.BMCScheme == "" {
		c.BMCScheme = DefaultScheme
	}
	if c.BMCTimeout <= 0 {
		c.BMCTimeout = DefaultTimeout
	}
	if c.SystemID == "" {
		c.SystemID = DefaultSystemID
	}
	if c.Concurrency < 1 {
		c.Concurrency = 1
	}
}
