package main

import (
	"context"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/kasuganosora/gridsource/pkg/config"
	"github.com/kasuganosora/gridsource/pkg/logger"
	"github.com/kasuganosora/gridsource/pkg/resource/application"
)

// globalOptions 所有子命令共享的参数
type globalOptions struct {
	configPath string
	logLevel   string
}

func newRootCmd() *cobra.Command {
	opts := &globalOptions{}

	root := &cobra.Command{
		Use:           "gridsource",
		Short:         "Server-side row model backend for data grids",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVarP(&opts.configPath, "config", "c", "", "config file (JSON or YAML); defaults to $"+config.EnvConfigPath+" or ./gridsource.yaml")
	root.PersistentFlags().StringVar(&opts.logLevel, "log-level", "", "override log.level")

	root.AddCommand(
		newServeCmd(opts),
		newSeedCmd(opts),
		newExportCmd(opts),
	)
	return root
}

// loadConfig 读取配置文件、环境变量和命令行覆盖
func (o *globalOptions) loadConfig() (*config.Config, error) {
	var (
		cfg *config.Config
		err error
	)
	if o.configPath != "" {
		cfg, err = config.LoadConfig(o.configPath)
	} else {
		cfg, err = config.LoadConfigOrDefault()
	}
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	if o.logLevel != "" {
		cfg.Log.Level = o.logLevel
	}
	return cfg, nil
}

// newLogger 按配置创建日志，output 为空时输出到标准输出
func newLogger(cfg *config.Config, output io.Writer) (*logger.DefaultLogger, error) {
	lc := cfg.LoggerConfig()
	lc.Output = output
	l, err := logger.New(lc)
	if err != nil {
		return nil, fmt.Errorf("create logger: %w", err)
	}
	return l, nil
}

// datasetSpec 转换配置中的数据集
func datasetSpec(dc config.DatasetConfig) application.DatasetSpec {
	return application.DatasetSpec{
		Name:        dc.Name,
		Title:       dc.Title,
		Description: dc.Description,
		Fixture:     dc.Fixture,
		SeedRows:    dc.SeedRows,
		FakerSeed:   dc.FakerSeed,
		Source:      dc.Source,
		Columns:     dc.Columns,
	}
}

// openDatasets 打开配置中的所有数据集，出错时关闭已打开的
func openDatasets(ctx context.Context, cfg *config.Config, l logger.Logger) (*application.Registry, error) {
	registry := application.NewRegistry(nil, l)
	for _, dc := range cfg.Datasets {
		if _, err := registry.Open(ctx, datasetSpec(dc)); err != nil {
			registry.Close(ctx)
			return nil, fmt.Errorf("open dataset %s: %w", dc.Name, err)
		}
	}
	return registry, nil
}
