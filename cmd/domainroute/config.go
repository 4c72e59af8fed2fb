package main

import (
	"os"

	"github.com/BurntSushi/toml"
)

type config struct {
	Title   string
	Default string
	Groups  map[string]group
	Routers map[string]router
}

// Settings shared by groups and the routes of routers.
type upstream struct {
	Timeout          string // Parsed with time.ParseDuration
	TCP              bool
	IgnoreTruncation bool   `toml:"ignore-truncation"`
	DoHMethod        string `toml:"doh-method"`

	// TLS settings for DoT and DoH servers
	CA         string
	ClientCrt  string `toml:"client-crt"`
	ClientKey  string `toml:"client-key"`
	ServerName string `toml:"server-name"`

	// TSIG key used to sign queries
	TSIGKeyName   string `toml:"tsig-key-name"`
	TSIGAlgorithm string `toml:"tsig-algorithm"`
	TSIGSecret    string `toml:"tsig-secret"`

	// Add EDNS0 to queries if set
	EDNSUDPSize uint16 `toml:"edns-udp-size"`
	EDNSDo      bool   `toml:"edns-do"`
}

type group struct {
	upstream
	Servers []string
}

type router struct {
	upstream

	// Group or router used for queries without a route, or "noop". Defaults to "noop".
	Fallback string

	// Servers by domain. "." is the default route.
	Routes map[string][]string

	Syslog *syslogConfig
}

type syslogConfig struct {
	Network     string
	Address     string
	Priority    int
	Tag         string
	LogResponse bool `toml:"log-response"`
}

// LoadConfig reads a config file and returns the decoded structure.
func loadConfig(name string) (config, error) {
	var c config
	f, err := os.Open(name)
	if err != nil {
		return c, err
	}
	defer f.Close()
	_, err = toml.NewDecoder(f).Decode(&c)
	return c, err
}
