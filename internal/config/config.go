package config

import (
	"encoding/json"
	stderrors "errors"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/vango-dev/wstask/internal/errors"
	"github.com/vango-dev/wstask/internal/logging"
	"github.com/vango-dev/wstask/pkg/codec"
	"github.com/vango-dev/wstask/pkg/websocket"
)

const (
	// ConfigFileName is the name of the configuration file.
	ConfigFileName = "wstask.json"

	// DefaultURL is the socket URL used when none is given.
	DefaultURL = "ws://localhost:8080/ws"

	// DefaultServerAddr is the echo server listen address.
	DefaultServerAddr = ":8080"

	// DefaultServerPath is the echo server WebSocket route.
	DefaultServerPath = "/ws"

	// DefaultNamespace is the Prometheus namespace.
	DefaultNamespace = "wstask"
)

// Config represents the complete wstask.json configuration.
type Config struct {
	// URL is the default socket URL for connect and echo.
	URL string `json:"url,omitempty"`

	// Mode is the connection mode: both, binary or text.
	Mode string `json:"mode,omitempty"`

	// Format is the payload format: json or compact.
	Format string `json:"format,omitempty"`

	// Log contains logging configuration.
	Log LogConfig `json:"log,omitempty"`

	// Socket contains transport configuration.
	Socket SocketConfig `json:"socket,omitempty"`

	// Echo contains one-shot echo configuration.
	Echo EchoConfig `json:"echo,omitempty"`

	// Server contains echo server configuration.
	Server ServerConfig `json:"server,omitempty"`

	// Transcript contains transcript recording configuration.
	Transcript TranscriptConfig `json:"transcript,omitempty"`

	// Metrics contains Prometheus configuration.
	Metrics MetricsConfig `json:"metrics,omitempty"`

	// configPath stores the path where the config was loaded from.
	configPath string
}

// LogConfig contains logging settings.
type LogConfig struct {
	// Level is debug, info, warn or error.
	Level string `json:"level,omitempty"`

	// Format is text or json.
	Format string `json:"format,omitempty"`
}

// SocketConfig contains transport settings.
type SocketConfig struct {
	HandshakeTimeout  string            `json:"handshakeTimeout,omitempty"`
	WriteTimeout      string            `json:"writeTimeout,omitempty"`
	CloseGracePeriod  string            `json:"closeGracePeriod,omitempty"`
	MaxMessageSize    int64             `json:"maxMessageSize,omitempty"`
	EnableCompression bool              `json:"enableCompression,omitempty"`
	Subprotocols      []string          `json:"subprotocols,omitempty"`
	Headers           map[string]string `json:"headers,omitempty"`
}

// EchoConfig contains settings for the one-shot echo command.
type EchoConfig struct {
	// Timeout bounds the whole exchange (e.g., "5s").
	Timeout string `json:"timeout,omitempty"`
}

// ServerConfig contains echo server settings.
type ServerConfig struct {
	// Addr is the listen address.
	Addr string `json:"addr,omitempty"`

	// Path is the WebSocket route.
	Path string `json:"path,omitempty"`

	// Rate is the number of upgrades allowed per second.
	Rate float64 `json:"rate,omitempty"`

	// Burst is the upgrade burst size.
	Burst int `json:"burst,omitempty"`

	// ReadLimit is the largest message the server accepts.
	ReadLimit int64 `json:"readLimit,omitempty"`
}

// TranscriptConfig contains transcript settings.
type TranscriptConfig struct {
	// Target is a directory or an s3://bucket/prefix URL. Empty disables
	// recording unless --record is given.
	Target string `json:"target,omitempty"`

	// S3 contains settings for s3:// targets.
	S3 S3Config `json:"s3,omitempty"`
}

// S3Config contains S3 client settings.
type S3Config struct {
	Region       string `json:"region,omitempty"`
	Endpoint     string `json:"endpoint,omitempty"`
	UsePathStyle bool   `json:"usePathStyle,omitempty"`
}

// MetricsConfig contains Prometheus settings.
type MetricsConfig struct {
	// Addr serves /metrics for the connect command when set.
	Addr string `json:"addr,omitempty"`

	// Namespace prefixes every metric name.
	Namespace string `json:"namespace,omitempty"`
}

// New creates a new Config with default values.
func New() *Config {
	cfg := &Config{}
	cfg.applyDefaults()
	return cfg
}

// Load reads configuration from wstask.json in dir.
func Load(dir string) (*Config, error) {
	return LoadFile(filepath.Join(dir, ConfigFileName))
}

// LoadFile reads configuration from the specified file path.
func LoadFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, errors.New("W101").
				WithDetail("No config file at " + path).
				WithSuggestion("Run 'wstask init' to write a default " + ConfigFileName)
		}
		return nil, errors.New("W101").Wrap(err)
	}

	cfg := &Config{}
	if err := json.Unmarshal(data, cfg); err != nil {
		werr := errors.New("W102").Wrap(err)
		var syntaxErr *json.SyntaxError
		var typeErr *json.UnmarshalTypeError
		switch {
		case stderrors.As(err, &syntaxErr):
			werr.WithOffset(path, data, syntaxErr.Offset)
		case stderrors.As(err, &typeErr):
			werr.WithOffset(path, data, typeErr.Offset).
				WithSuggestion("Field " + typeErr.Field + " must be a " + typeErr.Type.String())
		}
		return nil, werr
	}

	cfg.configPath = path
	cfg.applyDefaults()

	return cfg, nil
}

// Find returns the path of the nearest wstask.json in start or one of its
// parents, or "" when there is none.
func Find(start string) string {
	dir, err := filepath.Abs(start)
	if err != nil {
		return ""
	}
	for {
		path := filepath.Join(dir, ConfigFileName)
		if info, err := os.Stat(path); err == nil && !info.IsDir() {
			return path
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return ""
		}
		dir = parent
	}
}

// Discover loads the nearest wstask.json above start, or returns the
// defaults when there is none.
func Discover(start string) (*Config, error) {
	path := Find(start)
	if path == "" {
		return New(), nil
	}
	return LoadFile(path)
}

// Save writes the configuration to the file it was loaded from.
func (c *Config) Save() error {
	if c.configPath == "" {
		return errors.Newf(errors.CategoryConfig, "no config path set")
	}
	return c.SaveTo(c.configPath)
}

// SaveTo writes the configuration to the specified path.
func (c *Config) SaveTo(path string) error {
	data, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return errors.New("W102").Wrap(err)
	}
	data = append(data, '\n')

	if err := os.WriteFile(path, data, 0o644); err != nil {
		return errors.New("W101").Wrap(err)
	}

	c.configPath = path
	return nil
}

// Path returns the path where the config was loaded from.
func (c *Config) Path() string {
	return c.configPath
}

// applyDefaults fills in default values for empty fields.
func (c *Config) applyDefaults() {
	if c.URL == "" {
		c.URL = DefaultURL
	}
	if c.Mode == "" {
		c.Mode = websocket.ModeBoth.String()
	}
	if c.Format == "" {
		c.Format = codec.JSON.Name()
	}

	if c.Log.Level == "" {
		c.Log.Level = "info"
	}
	if c.Log.Format == "" {
		c.Log.Format = "text"
	}

	defaults := websocket.DefaultSocketConfig()
	if c.Socket.HandshakeTimeout == "" {
		c.Socket.HandshakeTimeout = defaults.HandshakeTimeout.String()
	}
	if c.Socket.WriteTimeout == "" {
		c.Socket.WriteTimeout = defaults.WriteTimeout.String()
	}
	if c.Socket.CloseGracePeriod == "" {
		c.Socket.CloseGracePeriod = defaults.CloseGracePeriod.String()
	}
	if c.Socket.MaxMessageSize == 0 {
		c.Socket.MaxMessageSize = defaults.MaxMessageSize
	}

	if c.Echo.Timeout == "" {
		c.Echo.Timeout = "5s"
	}

	if c.Server.Addr == "" {
		c.Server.Addr = DefaultServerAddr
	}
	if c.Server.Path == "" {
		c.Server.Path = DefaultServerPath
	}
	if c.Server.Rate == 0 {
		c.Server.Rate = 20
	}
	if c.Server.Burst == 0 {
		c.Server.Burst = 40
	}
	if c.Server.ReadLimit == 0 {
		c.Server.ReadLimit = 1 << 20
	}

	if c.Metrics.Namespace == "" {
		c.Metrics.Namespace = DefaultNamespace
	}
}

// Validate checks if the configuration is valid.
func (c *Config) Validate() error {
	if _, err := websocket.ParseURL(c.URL); err != nil {
		return errors.New("W201").Wrap(err).
			WithSuggestion("Use a ws:// or wss:// URL such as " + DefaultURL)
	}
	if _, err := c.ConnectionMode(); err != nil {
		return err
	}
	if _, err := c.PayloadFormat(); err != nil {
		return err
	}
	if _, err := logging.ParseLevel(c.Log.Level); err != nil {
		return errors.New("W106").Wrap(err)
	}
	if _, err := c.SocketOptions(); err != nil {
		return err
	}
	if _, err := c.EchoTimeout(); err != nil {
		return err
	}
	if c.Server.Addr == "" || c.Server.Rate <= 0 || c.Server.Burst <= 0 || !strings.HasPrefix(c.Server.Path, "/") {
		return errors.New("W108").
			WithSuggestion("Set server.addr, a server.path starting with '/', and positive server.rate and server.burst")
	}
	if err := ValidateTarget(c.Transcript.Target); err != nil {
		return err
	}
	return nil
}

// ConnectionMode parses Mode.
func (c *Config) ConnectionMode() (websocket.Mode, error) {
	mode, err := websocket.ParseMode(c.Mode)
	if err != nil {
		return mode, errors.New("W103").Wrap(err)
	}
	return mode, nil
}

// PayloadFormat resolves Format.
func (c *Config) PayloadFormat() (codec.Format, error) {
	f, err := codec.FormatByName(c.Format)
	if err != nil {
		return nil, errors.New("W104").Wrap(err)
	}
	return f, nil
}

// SocketOptions converts the socket settings into a transport config.
func (c *Config) SocketOptions() (*websocket.SocketConfig, error) {
	sc := websocket.DefaultSocketConfig()

	var err error
	if sc.HandshakeTimeout, err = parseDuration("socket.handshakeTimeout", c.Socket.HandshakeTimeout); err != nil {
		return nil, err
	}
	if sc.WriteTimeout, err = parseDuration("socket.writeTimeout", c.Socket.WriteTimeout); err != nil {
		return nil, err
	}
	if sc.CloseGracePeriod, err = parseDuration("socket.closeGracePeriod", c.Socket.CloseGracePeriod); err != nil {
		return nil, err
	}
	sc.MaxMessageSize = c.Socket.MaxMessageSize
	sc.EnableCompression = c.Socket.EnableCompression
	sc.Subprotocols = append([]string(nil), c.Socket.Subprotocols...)
	if len(c.Socket.Headers) > 0 {
		sc.Header = make(http.Header, len(c.Socket.Headers))
		for k, v := range c.Socket.Headers {
			sc.Header.Set(k, v)
		}
	}
	return sc, nil
}

// EchoTimeout parses Echo.Timeout.
func (c *Config) EchoTimeout() (time.Duration, error) {
	return parseDuration("echo.timeout", c.Echo.Timeout)
}

func parseDuration(field, value string) (time.Duration, error) {
	d, err := time.ParseDuration(value)
	if err != nil {
		return 0, errors.New("W105").Wrap(err).
			WithSuggestion("Set " + field + " to a value like \"10s\"")
	}
	if d < 0 {
		return 0, errors.New("W105").
			WithSuggestion(field + " must not be negative")
	}
	return d, nil
}

// ValidateTarget checks a transcript target. Empty targets are valid.
func ValidateTarget(target string) error {
	if target == "" || !strings.Contains(target, "://") {
		return nil
	}
	u, err := url.Parse(target)
	if err != nil {
		return errors.New("W107").Wrap(err)
	}
	if u.Scheme != "s3" {
		return errors.New("W107").
			WithSuggestion("Only s3:// URLs and local directories are supported")
	}
	if u.Host == "" {
		return errors.New("W107").
			WithSuggestion("Name a bucket, as in s3://my-bucket/transcripts")
	}
	return nil
}
