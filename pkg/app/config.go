package app

import (
	"os"
	"path/filepath"

	"github.com/cockroachdb/errors"
	"github.com/lk2023060901/xdooria-artifact/pkg/config"
	"github.com/spf13/pflag"
)

var (
	configPath string
	logPath    string
)

// LoadConfig 使用进程命令行参数加载配置
// 严格遵守优先级：1. 命令行显式参数 > 2. 环境变量 > 3. 配置文件 > 4. 默认值
func LoadConfig(target any, opts ...config.Option) error {
	return LoadConfigFrom(pflag.CommandLine, os.Args[1:], target, opts...)
}

// LoadConfigFrom 在指定的 FlagSet 上解析参数并加载配置
func LoadConfigFrom(fs *pflag.FlagSet, args []string, target any, opts ...config.Option) error {
	// 1. 获取执行目录，用于计算默认值
	execDir, err := GetExecDir()
	if err != nil {
		return errors.Wrap(err, "failed to get executable directory")
	}

	// 2. 预计算默认物理路径
	defaultConfig := filepath.Join(execDir, "config.yaml")
	defaultLog := filepath.Join(execDir, "logs", "artifact.log")

	// 3. 注册命令行参数
	if fs.Lookup("config") == nil {
		fs.StringVarP(&configPath, "config", "c", defaultConfig, "path to config file")
	}
	if fs.Lookup("log.path") == nil {
		fs.StringVar(&logPath, "log.path", defaultLog, "output path for logs")
	}

	// 4. 解析命令行参数
	if !fs.Parsed() {
		if err := fs.Parse(args); err != nil {
			return errors.Wrap(err, "failed to parse flags")
		}
	}

	// 5. 确定配置文件路径
	// 优先级：Flag 显式指定 > 环境变量 XDOORIA_CONFIG > 默认物理路径
	finalConfigPath, _ := fs.GetString("config")
	if !fs.Changed("config") {
		if envConfig := os.Getenv(config.EnvPrefix + "_CONFIG"); envConfig != "" {
			finalConfigPath = envConfig
		}
	}
	if _, err := os.Stat(finalConfigPath); os.IsNotExist(err) {
		return errors.Newf("config file not found at %s", finalConfigPath)
	}
	configPath = finalConfigPath

	// 6. 设置配置项优先级
	// 默认值最低，--log.path 显式指定时覆盖所有来源
	mgrOpts := []config.Option{
		config.WithEnvPrefix(config.EnvPrefix),
		config.WithDefaults(map[string]any{"log.output_path": defaultLog}),
	}
	if fs.Changed("log.path") {
		p, _ := fs.GetString("log.path")
		mgrOpts = append(mgrOpts, config.WithOverrides(map[string]any{"log.output_path": p}))
	}
	mgr := config.NewManager(append(mgrOpts, opts...)...)

	// 7. 加载配置文件并解析到目标结构体
	if err := mgr.LoadFile(configPath); err != nil {
		return err
	}
	if err := mgr.Unmarshal(target); err != nil {
		return err
	}

	// 8. 文件日志启用时创建日志目录
	logPath = mgr.GetString("log.output_path")
	if mgr.GetString("log.enable_file") == "true" {
		if err := os.MkdirAll(filepath.Dir(logPath), 0o755); err != nil {
			return errors.Wrap(err, "failed to create log directory")
		}
	}

	return nil
}

// GetExecDir 获取可执行文件所在目录（处理符号链接）
func GetExecDir() (string, error) {
	execPath, err := os.Executable()
	if err != nil {
		return "", err
	}
	realPath, err := filepath.EvalSymlinks(execPath)
	if err != nil {
		return filepath.Dir(execPath), nil
	}
	return filepath.Dir(realPath), nil
}

// GetConfigPath 返回最终使用的配置文件路径
func GetConfigPath() string {
	return configPath
}

// GetLogPath 返回最终生效的日志路径
func GetLogPath() string {
	return logPath
}
