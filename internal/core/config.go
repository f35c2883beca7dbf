package core

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/RecoveryAshes/ModelHarvest/internal/browser"
	"github.com/RecoveryAshes/ModelHarvest/internal/harvest"
	"github.com/RecoveryAshes/ModelHarvest/internal/models"
	"github.com/RecoveryAshes/ModelHarvest/internal/utils"
	"github.com/spf13/viper"
)

// 浏览模式
const (
	ModeRod    = "rod"    // 无头Chrome,支持点击标签下拉框
	ModeStatic = "static" // 纯HTTP,参数版本只能来自文本扫描
)

// Config 应用程序配置
type Config struct {
	Source  SourceConfig  `mapstructure:"source"`
	Browser BrowserConfig `mapstructure:"browser"`
	Harvest HarvestConfig `mapstructure:"harvest"`
	Logging LoggingConfig `mapstructure:"logging"`
}

// SourceConfig 目标站点配置
type SourceConfig struct {
	BaseURL            string `mapstructure:"base_url"`
	ListPath           string `mapstructure:"list_path"`
	DetailLinkSelector string `mapstructure:"detail_link_selector"`
	TagButtonSelector  string `mapstructure:"tag_button_selector"`
	TagOptionSelector  string `mapstructure:"tag_option_selector"`
	RunCommandTemplate string `mapstructure:"run_command_template"`
}

// BrowserConfig 浏览会话配置
type BrowserConfig struct {
	Mode              string            `mapstructure:"mode"`
	Headless          bool              `mapstructure:"headless"`
	BinPath           string            `mapstructure:"bin_path"`
	UserDataRoot      string            `mapstructure:"user_data_root"`
	Stealth           bool              `mapstructure:"stealth"`
	SettleDelay       time.Duration     `mapstructure:"settle_delay"`
	DropdownDelay     time.Duration     `mapstructure:"dropdown_delay"`
	NavigationTimeout time.Duration     `mapstructure:"navigation_timeout"`
	UserAgent         string            `mapstructure:"user_agent"`
	Headers           map[string]string `mapstructure:"headers"`
	MinFreeMemoryMB   int               `mapstructure:"min_free_memory_mb"`
}

// HarvestConfig 采集配置
type HarvestConfig struct {
	DataDir    string        `mapstructure:"data_dir"`
	ItemDelay  time.Duration `mapstructure:"item_delay"`
	PhasePause time.Duration `mapstructure:"phase_pause"`
}

// LoggingConfig 日志配置
type LoggingConfig struct {
	Level    string         `mapstructure:"level"`
	LogDir   string         `mapstructure:"log_dir"`
	NoColor  bool           `mapstructure:"no_color"`
	Rotation RotationConfig `mapstructure:"rotation"`
}

// RotationConfig 日志轮转配置
type RotationConfig struct {
	MaxSize    int  `mapstructure:"max_size"`
	MaxBackups int  `mapstructure:"max_backups"`
	MaxAge     int  `mapstructure:"max_age"`
	Compress   bool `mapstructure:"compress"`
}

// LoadConfig 加载配置文件
func LoadConfig(configPath string) (*Config, error) {
	v := viper.New()

	// 设置配置文件
	if configPath != "" {
		// 使用指定的配置文件
		v.SetConfigFile(configPath)
	} else {
		// 搜索默认位置
		v.SetConfigName("config")
		v.SetConfigType("yaml")

		// 添加配置搜索路径
		v.AddConfigPath("./configs")
		v.AddConfigPath(".")

		// 用户主目录
		if home, err := os.UserHomeDir(); err == nil {
			v.AddConfigPath(filepath.Join(home, ".modelharvest"))
		}
	}

	// 环境变量: MODELHARVEST_BROWSER_MODE 等
	v.SetEnvPrefix("modelharvest")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// 设置默认值
	setDefaults(v)

	// 读取配置文件
	if err := v.ReadInConfig(); err != nil {
		// 如果配置文件不存在,使用默认值
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("读取配置文件失败: %w", err)
		}
	} else {
		utils.Debugf("使用配置文件: %s", v.ConfigFileUsed())
	}

	// 解析配置
	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("解析配置文件失败: %w", err)
	}

	return &config, nil
}

// setDefaults 设置默认配置值
func setDefaults(v *viper.Viper) {
	// 站点
	v.SetDefault("source.base_url", "https://ollama.com")
	v.SetDefault("source.list_path", harvest.DefaultListPath)
	v.SetDefault("source.detail_link_selector", harvest.DefaultDetailLinkSelector)
	v.SetDefault("source.tag_button_selector", harvest.DefaultTagButtonSelector)
	v.SetDefault("source.tag_option_selector", harvest.DefaultTagOptionSelector)
	v.SetDefault("source.run_command_template", models.DefaultRunCommandTemplate)

	// 浏览器
	v.SetDefault("browser.mode", ModeRod)
	v.SetDefault("browser.headless", true)
	v.SetDefault("browser.bin_path", "")
	v.SetDefault("browser.user_data_root", "")
	v.SetDefault("browser.stealth", true)
	v.SetDefault("browser.settle_delay", harvest.DefaultSettleDelay)
	v.SetDefault("browser.dropdown_delay", harvest.DefaultDropdownDelay)
	v.SetDefault("browser.navigation_timeout", 30*time.Second)
	v.SetDefault("browser.user_agent", DefaultUserAgent)
	v.SetDefault("browser.min_free_memory_mb", 512)

	// 采集
	v.SetDefault("harvest.data_dir", "public/data")
	v.SetDefault("harvest.item_delay", harvest.DefaultItemDelay)
	v.SetDefault("harvest.phase_pause", harvest.DefaultPhasePause)

	// 日志配置默认值
	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.log_dir", "logs")
	v.SetDefault("logging.no_color", false)
	v.SetDefault("logging.rotation.max_size", 10)
	v.SetDefault("logging.rotation.max_backups", 3)
	v.SetDefault("logging.rotation.max_age", 28)
	v.SetDefault("logging.rotation.compress", true)
}

// CLIOverrides 命令行参数
// 零值表示未指定,不覆盖配置文件
type CLIOverrides struct {
	DataDir  string
	Mode     string
	LogLevel string
	Headless *bool
	Headers  []string
}

// MergeCLIFlags 合并命令行参数到配置
func (c *Config) MergeCLIFlags(o CLIOverrides) error {
	// 命令行参数优先于配置文件
	if o.DataDir != "" {
		c.Harvest.DataDir = o.DataDir
	}
	if o.Mode != "" {
		c.Browser.Mode = o.Mode
	}
	if o.LogLevel != "" {
		c.Logging.Level = o.LogLevel
	}
	if o.Headless != nil {
		c.Browser.Headless = *o.Headless
	}
	if len(o.Headers) > 0 {
		parsed, err := ParseHeaderFlags(o.Headers)
		if err != nil {
			return err
		}
		if c.Browser.Headers == nil {
			c.Browser.Headers = make(map[string]string, len(parsed))
		}
		for name, value := range parsed {
			c.Browser.Headers[name] = value
		}
	}
	return nil
}

// Validate 验证配置
func (c *Config) Validate() error {
	if err := models.ValidateURL(c.Source.BaseURL); err != nil {
		return fmt.Errorf("无效的站点地址 source.base_url: %w", err)
	}
	if c.Source.ListPath == "" {
		return fmt.Errorf("source.list_path 不能为空")
	}
	if c.Source.DetailLinkSelector == "" {
		return fmt.Errorf("source.detail_link_selector 不能为空")
	}
	if verbs := formatVerbs(c.Source.RunCommandTemplate); len(verbs) != 1 || verbs[0] != "%s" {
		return fmt.Errorf("source.run_command_template 必须且只能包含一个 %%s: %q", c.Source.RunCommandTemplate)
	}

	switch c.Browser.Mode {
	case ModeRod, ModeStatic:
	default:
		return fmt.Errorf("无效的浏览模式: %s (有效值: rod, static)", c.Browser.Mode)
	}

	// 验证等待时间
	delays := map[string]time.Duration{
		"browser.settle_delay":   c.Browser.SettleDelay,
		"browser.dropdown_delay": c.Browser.DropdownDelay,
		"harvest.item_delay":     c.Harvest.ItemDelay,
		"harvest.phase_pause":    c.Harvest.PhasePause,
	}
	for name, d := range delays {
		if d < 0 || d > 5*time.Minute {
			return fmt.Errorf("%s 必须在0-5分钟之间,当前值: %s", name, d)
		}
	}
	if c.Browser.NavigationTimeout <= 0 {
		return fmt.Errorf("browser.navigation_timeout 必须大于0,当前值: %s", c.Browser.NavigationTimeout)
	}
	if c.Browser.MinFreeMemoryMB < 0 {
		return fmt.Errorf("browser.min_free_memory_mb 不能为负数: %d", c.Browser.MinFreeMemoryMB)
	}

	if c.Harvest.DataDir == "" {
		return fmt.Errorf("harvest.data_dir 不能为空")
	}

	return ValidateHeaders(c.Browser.Headers)
}

// LogConfig 转换为日志系统配置
func (c *Config) LogConfig() utils.LogConfig {
	return utils.LogConfig{
		Level:      c.Logging.Level,
		LogDir:     c.Logging.LogDir,
		MaxSize:    c.Logging.Rotation.MaxSize,
		MaxBackups: c.Logging.Rotation.MaxBackups,
		MaxAge:     c.Logging.Rotation.MaxAge,
		Compress:   c.Logging.Rotation.Compress,
		NoColor:    c.Logging.NoColor,
	}
}

// HarvestOptions 转换为采集流程配置
func (c *Config) HarvestOptions() harvest.Options {
	return harvest.Options{
		BaseURL:            c.Source.BaseURL,
		ListPath:           c.Source.ListPath,
		LinkSelector:       c.Source.DetailLinkSelector,
		TagButtonSelector:  c.Source.TagButtonSelector,
		TagOptionSelector:  c.Source.TagOptionSelector,
		RunCommandTemplate: c.Source.RunCommandTemplate,
		SettleDelay:        c.Browser.SettleDelay,
		DropdownDelay:      c.Browser.DropdownDelay,
		ItemDelay:          c.Harvest.ItemDelay,
		PhasePause:         c.Harvest.PhasePause,
	}
}

// NewLauncher 按浏览模式创建会话启动器
func (c *Config) NewLauncher() (browser.Launcher, error) {
	headers := MergeHeaders(c.Browser.UserAgent, c.Browser.Headers)

	switch c.Browser.Mode {
	case ModeRod:
		userAgent := headers["User-Agent"]
		delete(headers, "User-Agent")
		return browser.NewRodLauncher(browser.RodOptions{
			Headless:          c.Browser.Headless,
			BinPath:           c.Browser.BinPath,
			UserDataRoot:      c.Browser.UserDataRoot,
			Stealth:           c.Browser.Stealth,
			UserAgent:         userAgent,
			Headers:           headers,
			NavigationTimeout: c.Browser.NavigationTimeout,
			MinFreeMemoryMB:   c.Browser.MinFreeMemoryMB,
		}), nil

	case ModeStatic:
		userAgent := headers["User-Agent"]
		delete(headers, "User-Agent")
		return browser.NewStaticLauncher(browser.StaticOptions{
			UserAgent:      userAgent,
			Headers:        headers,
			RequestTimeout: c.Browser.NavigationTimeout,
		}), nil

	default:
		return nil, fmt.Errorf("无效的浏览模式: %s", c.Browser.Mode)
	}
}

// formatVerbs 按出现顺序返回模板中的格式化动词(含标志与宽度),%%不计入
func formatVerbs(template string) []string {
	var verbs []string
	for i := 0; i < len(template); i++ {
		if template[i] != '%' {
			continue
		}
		j := i + 1
		if j < len(template) && template[j] == '%' {
			i = j
			continue
		}
		for j < len(template) && strings.IndexByte("+-# 0123456789.*[]", template[j]) >= 0 {
			j++
		}
		if j < len(template) {
			j++
		}
		verbs = append(verbs, template[i:j])
		i = j - 1
	}
	return verbs
}
