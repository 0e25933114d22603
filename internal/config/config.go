package config

import (
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/pelletier/go-toml/v2"
	"golang.org/x/time/rate"

	"indecstat/internal/calculator"
	"indecstat/internal/fetcher"
	"indecstat/internal/importer"
	"indecstat/internal/notify"
	"indecstat/internal/store"
)

// AppConfig 应用配置
type AppConfig struct {
	Server   ServerConfig            `toml:"server"`
	Data     DataConfig              `toml:"data"`
	Store    StoreConfig             `toml:"store"`
	Fetch    FetchConfig             `toml:"fetch"`
	Seasonal calculator.Options      `toml:"seasonal"`
	Notify   notify.Config           `toml:"notify"`
	Sources  map[string]SourceConfig `toml:"sources"`
}

// ServerConfig 服务器配置
type ServerConfig struct {
	Port    int  `toml:"port"`
	DevMode bool `toml:"dev_mode"`
}

// DataConfig 数据配置
type DataConfig struct {
	DataDir string `toml:"data_dir"`
}

// StoreConfig 数据库配置
type StoreConfig struct {
	Driver string `toml:"driver"` // sqlite3 / postgres
	DSN    string `toml:"dsn"`    // sqlite3 时为空则使用 <data_dir>/indecstat.db
}

// FetchConfig 下载配置
type FetchConfig struct {
	TimeoutSeconds    int     `toml:"timeout_seconds"`
	RequestsPerSecond float64 `toml:"requests_per_second"`
	Burst             int     `toml:"burst"`
	UserAgent         string  `toml:"user_agent"`
	MaxBytes          int64   `toml:"max_bytes"`
}

// SourceConfig 覆盖某个数据源的下载地址
type SourceConfig struct {
	URLTemplates []string `toml:"url_templates"`
	PageURL      string   `toml:"page_url"`
	LinkPattern  string   `toml:"link_pattern"`
	Lookback     int      `toml:"lookback"`
}

// LoadConfigInfo 配置加载元信息
type LoadConfigInfo struct {
	Path          string
	Loaded        bool
	PortSpecified bool
}

// DefaultConfig 默认配置
func DefaultConfig() *AppConfig {
	return &AppConfig{
		Server: ServerConfig{
			Port:    20261,
			DevMode: false,
		},
		Data: DataConfig{
			DataDir: "data",
		},
		Store: StoreConfig{
			Driver: store.DriverSQLite,
		},
		Fetch: FetchConfig{
			TimeoutSeconds:    30,
			RequestsPerSecond: 2,
			Burst:             1,
			UserAgent:         "indecstat/1.0",
		},
		Seasonal: calculator.DefaultOptions(),
		Notify: notify.Config{
			Exchange:   "indec.events",
			RoutingKey: "indec",
		},
	}
}

func isPortSpecifiedInToml(data []byte) bool {
	var raw map[string]any
	if err := toml.Unmarshal(data, &raw); err != nil {
		return false
	}

	serverAny, ok := raw["server"]
	if !ok {
		return false
	}

	serverMap, ok := serverAny.(map[string]any)
	if !ok {
		return false
	}

	_, ok = serverMap["port"]
	return ok
}

// GetExeDir 获取可执行文件所在目录
func GetExeDir() (string, error) {
	exe, err := os.Executable()
	if err != nil {
		return "", err
	}
	return filepath.Dir(exe), nil
}

// DefaultPath 可执行文件同目录下的 config.toml
func DefaultPath() string {
	exeDir, err := GetExeDir()
	if err != nil {
		// 无法获取可执行文件目录，使用当前目录
		exeDir = "."
	}
	return filepath.Join(exeDir, "config.toml")
}

// LoadConfigWithInfo 从 config.toml 加载配置并返回元信息
// path 为空时使用可执行文件同目录下的 config.toml
func LoadConfigWithInfo(path string) (*AppConfig, LoadConfigInfo, error) {
	if path == "" {
		path = DefaultPath()
	}
	info := LoadConfigInfo{Path: path}
	config := DefaultConfig()

	data, err := os.ReadFile(path)
	switch {
	case os.IsNotExist(err):
		// 配置文件不存在，使用默认配置
	case err != nil:
		return nil, info, err
	default:
		info.Loaded = true
		info.PortSpecified = isPortSpecifiedInToml(data)
		if err := toml.Unmarshal(data, config); err != nil {
			return nil, info, err
		}
	}

	applyEnv(config)
	return config, info, nil
}

// LoadConfig 从 config.toml 加载配置
func LoadConfig(path string) (*AppConfig, error) {
	config, _, err := LoadConfigWithInfo(path)
	return config, err
}

// applyEnv 环境变量覆盖（容器部署 / 本地运行）
func applyEnv(config *AppConfig) {
	if v := os.Getenv("INDECSTAT_DB_DRIVER"); v != "" {
		config.Store.Driver = v
	}
	if v := os.Getenv("INDECSTAT_DB_DSN"); v != "" {
		config.Store.DSN = v
	}
	if v := os.Getenv("INDECSTAT_AMQP_URL"); v != "" {
		config.Notify.URL = v
	}
}

// SaveConfig 保存配置到 path
func SaveConfig(config *AppConfig, path string) error {
	if path == "" {
		path = DefaultPath()
	}
	data, err := toml.Marshal(config)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}

// EnsureDataDir 确保数据目录存在
// 相对路径以可执行文件所在目录为基准
func EnsureDataDir(config *AppConfig) (string, error) {
	dataDir := resolveDataDir(config)
	if err := os.MkdirAll(dataDir, 0755); err != nil {
		return "", err
	}
	return dataDir, nil
}

func resolveDataDir(config *AppConfig) string {
	if filepath.IsAbs(config.Data.DataDir) {
		return config.Data.DataDir
	}
	exeDir, _ := GetExeDir()
	if exeDir == "" {
		exeDir = "."
	}
	return filepath.Join(exeDir, config.Data.DataDir)
}

// GetDataPath 获取数据文件路径
func GetDataPath(config *AppConfig, filename string) string {
	return filepath.Join(resolveDataDir(config), filename)
}

// DatabaseDSN 数据库连接串；SQLite 未配置时落在数据目录
func (c *AppConfig) DatabaseDSN() string {
	if c.Store.DSN != "" {
		return c.Store.DSN
	}
	if c.Store.Driver == "" || strings.EqualFold(c.Store.Driver, store.DriverSQLite) {
		return GetDataPath(c, "indecstat.db")
	}
	return ""
}

// FetcherConfig 下载器参数
func (c *AppConfig) FetcherConfig() fetcher.Config {
	cfg := fetcher.Config{
		Timeout:   time.Duration(c.Fetch.TimeoutSeconds) * time.Second,
		Burst:     c.Fetch.Burst,
		UserAgent: c.Fetch.UserAgent,
		MaxBytes:  c.Fetch.MaxBytes,
	}
	if c.Fetch.RequestsPerSecond > 0 {
		cfg.RateLimit = rate.Limit(c.Fetch.RequestsPerSecond)
	}
	return cfg
}

// SourceOverrides 数据源覆盖配置
func (c *AppConfig) SourceOverrides() map[string]importer.Source {
	out := make(map[string]importer.Source, len(c.Sources))
	for name, s := range c.Sources {
		out[name] = importer.Source{
			Name:         name,
			URLTemplates: s.URLTemplates,
			PageURL:      s.PageURL,
			LinkPattern:  s.LinkPattern,
			Lookback:     s.Lookback,
		}
	}
	return out
}

// Indicators 按配置构建全部指标
func (c *AppConfig) Indicators() []importer.Indicator {
	overrides := c.SourceOverrides()
	return []importer.Indicator{
		importer.NewEMAE(importer.DefaultEMAEDictionary(),
			importer.WithSources(importer.DefaultEMAESources(), overrides), c.Seasonal),
		importer.NewIPC(importer.DefaultIPCDictionary(),
			importer.WithSources(importer.DefaultIPCSources(), overrides)),
		importer.NewLabor(importer.DefaultLaborDictionary(),
			importer.WithSources(importer.DefaultLaborSources(), overrides)),
	}
}

// Indicator 按名称查找指标
func (c *AppConfig) Indicator(name string) (importer.Indicator, bool) {
	for _, ind := range c.Indicators() {
		if ind.Name() == name {
			return ind, true
		}
	}
	return nil, false
}
