package gremlin

import (
	"fmt"
	"os"
	"time"

	"github.com/BurntSushi/toml"
)

// Options configures a client or pool. The zero value is not usable directly;
// build one with DefaultOptions, an OptionsBuilder, or LoadOptions.
type Options struct {
	Host string
	Port int

	// Format selects the wire serialization. Defaults to graphbinary.
	Format Format

	// Credentials enable the SASL handshake when the server challenges.
	Username string
	Password string

	// TLS dials wss:// instead of ws://.
	TLS bool

	// PoolSize caps the number of live connections held by a pool.
	PoolSize int

	// AcquireTimeout bounds how long a caller waits for a pooled connection.
	AcquireTimeout time.Duration

	// WriteTimeout and ReadTimeout bound single websocket operations.
	WriteTimeout time.Duration
	ReadTimeout  time.Duration
}

// DefaultOptions returns options for an unauthenticated local server.
func DefaultOptions() Options {
	return Options{
		Host:           "localhost",
		Port:           8182,
		Format:         FormatGraphBinary,
		PoolSize:       10,
		AcquireTimeout: 30 * time.Second,
		WriteTimeout:   30 * time.Second,
		ReadTimeout:    30 * time.Second,
	}
}

// optionsFile is the TOML shape of an options file. Durations are written as
// strings such as "30s" or "1m".
type optionsFile struct {
	Host           string `toml:"host"`
	Port           int    `toml:"port"`
	Format         string `toml:"format"`
	Username       string `toml:"username"`
	Password       string `toml:"password"`
	TLS            bool   `toml:"tls"`
	PoolSize       int    `toml:"pool-size"`
	AcquireTimeout string `toml:"acquire-timeout"`
	WriteTimeout   string `toml:"write-timeout"`
	ReadTimeout    string `toml:"read-timeout"`
}

// LoadOptions parses a TOML options file, filling unset fields with defaults.
func LoadOptions(path string) (Options, error) {
	opts := DefaultOptions()
	data, err := os.ReadFile(path)
	if err != nil {
		return opts, fmt.Errorf("gremlin: cannot read %s: %w", path, err)
	}
	var file optionsFile
	if err := toml.Unmarshal(data, &file); err != nil {
		return opts, fmt.Errorf("gremlin: parse error in %s: %w", path, err)
	}
	loaded := Options{
		Host:     file.Host,
		Port:     file.Port,
		Format:   Format(file.Format),
		Username: file.Username,
		Password: file.Password,
		TLS:      file.TLS,
		PoolSize: file.PoolSize,
	}
	if loaded.AcquireTimeout, err = parseTimeout(path, "acquire-timeout", file.AcquireTimeout); err != nil {
		return opts, err
	}
	if loaded.WriteTimeout, err = parseTimeout(path, "write-timeout", file.WriteTimeout); err != nil {
		return opts, err
	}
	if loaded.ReadTimeout, err = parseTimeout(path, "read-timeout", file.ReadTimeout); err != nil {
		return opts, err
	}
	opts.merge(loaded)
	return opts, nil
}

func parseTimeout(path, key, raw string) (time.Duration, error) {
	if raw == "" {
		return 0, nil
	}
	d, err := time.ParseDuration(raw)
	if err != nil {
		return 0, fmt.Errorf("gremlin: bad %s in %s: %w", key, path, err)
	}
	return d, nil
}

func (o *Options) merge(from Options) {
	if from.Host != "" {
		o.Host = from.Host
	}
	if from.Port != 0 {
		o.Port = from.Port
	}
	if from.Format != "" {
		o.Format = from.Format
	}
	if from.Username != "" {
		o.Username = from.Username
	}
	if from.Password != "" {
		o.Password = from.Password
	}
	if from.TLS {
		o.TLS = true
	}
	if from.PoolSize != 0 {
		o.PoolSize = from.PoolSize
	}
	if from.AcquireTimeout != 0 {
		o.AcquireTimeout = from.AcquireTimeout
	}
	if from.WriteTimeout != 0 {
		o.WriteTimeout = from.WriteTimeout
	}
	if from.ReadTimeout != 0 {
		o.ReadTimeout = from.ReadTimeout
	}
}

// url returns the websocket endpoint for these options.
func (o Options) url() string {
	scheme := "ws"
	if o.TLS {
		scheme = "wss"
	}
	return fmt.Sprintf("%s://%s:%d/gremlin", scheme, o.Host, o.Port)
}

// credentials reports the configured username/password pair, if any.
func (o Options) credentials() (user, pass string, ok bool) {
	return o.Username, o.Password, o.Username != ""
}

// OptionsBuilder assembles Options fluently starting from the defaults.
type OptionsBuilder struct {
	opts Options
}

// NewOptionsBuilder starts from DefaultOptions.
func NewOptionsBuilder() *OptionsBuilder {
	return &OptionsBuilder{opts: DefaultOptions()}
}

// Host sets the server host.
func (b *OptionsBuilder) Host(host string) *OptionsBuilder {
	b.opts.Host = host
	return b
}

// Port sets the server port.
func (b *OptionsBuilder) Port(port int) *OptionsBuilder {
	b.opts.Port = port
	return b
}

// Format sets the wire serialization format.
func (b *OptionsBuilder) Format(f Format) *OptionsBuilder {
	b.opts.Format = f
	return b
}

// Credentials sets the SASL username and password.
func (b *OptionsBuilder) Credentials(username, password string) *OptionsBuilder {
	b.opts.Username = username
	b.opts.Password = password
	return b
}

// TLS toggles wss:// dialing.
func (b *OptionsBuilder) TLS(enabled bool) *OptionsBuilder {
	b.opts.TLS = enabled
	return b
}

// PoolSize sets the connection pool capacity.
func (b *OptionsBuilder) PoolSize(n int) *OptionsBuilder {
	b.opts.PoolSize = n
	return b
}

// AcquireTimeout bounds how long Execute and Submit wait for a free
// connection.
func (b *OptionsBuilder) AcquireTimeout(d time.Duration) *OptionsBuilder {
	b.opts.AcquireTimeout = d
	return b
}

// Build returns the assembled options.
func (b *OptionsBuilder) Build() Options {
	return b.opts
}
