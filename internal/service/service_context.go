package service

import (
	"context"
	"fmt"
	"path/filepath"

	"gorm.io/gorm"

	"seed-eval/internal/config"
	"seed-eval/internal/oracle"
)

// Capability 一个被测能力的两个实现
type Capability struct {
	Name   string
	Oracle Handler
	Rule   Handler
}

// Handler 按 side 取实现：oracle 或 rule（默认 rule）
func (c Capability) Handler(side string) Handler {
	if side == "oracle" {
		return c.Oracle
	}
	return c.Rule
}

type ServiceContext struct {
	Config       *config.Config
	Oracle       oracle.Oracle
	Registry     *Registry
	Comparator   *Comparator
	Miner        *PatternMiner
	Tester       *PersonaTester
	Runs         *RunStore
	Capabilities map[string]Capability
}

// NewServiceContext 装配各组件；conn 为 nil 时不登记运行记录
func NewServiceContext(ctx context.Context, cfg *config.Config, conn *gorm.DB) (*ServiceContext, error) {
	o, err := oracle.New(ctx, cfg.Oracle)
	if err != nil {
		return nil, fmt.Errorf("初始化 oracle 失败: %w", err)
	}
	return NewServiceContextWithOracle(cfg, o, conn)
}

// NewServiceContextWithOracle 使用给定的 oracle（测试与离线命令使用）
func NewServiceContextWithOracle(cfg *config.Config, o oracle.Oracle, conn *gorm.DB) (*ServiceContext, error) {
	base := cfg.Harness.BaseDir
	registry := RegistryFromConfig(cfg.Harness)

	comparator, err := NewComparator(filepath.Join(base, ComparisonLogDir))
	if err != nil {
		return nil, err
	}
	patternsDir := cfg.Harness.PatternsDir
	if !filepath.IsAbs(patternsDir) {
		patternsDir = filepath.Join(base, patternsDir)
	}
	miner, err := NewPatternMiner(o, patternsDir, registry)
	if err != nil {
		return nil, err
	}
	tester, err := NewPersonaTester(o, filepath.Join(base, TestLogDir), registry)
	if err != nil {
		return nil, err
	}

	caps := make(map[string]Capability, len(cfg.Capabilities))
	for name, c := range cfg.Capabilities {
		caps[name] = Capability{
			Name:   name,
			Oracle: NewRemoteHandler(c.OracleURL),
			Rule:   NewRemoteHandler(c.RuleURL),
		}
	}

	return &ServiceContext{
		Config:       cfg,
		Oracle:       o,
		Registry:     registry,
		Comparator:   comparator,
		Miner:        miner,
		Tester:       tester,
		Runs:         NewRunStore(conn),
		Capabilities: caps,
	}, nil
}

func (s *ServiceContext) Capability(name string) (Capability, bool) {
	c, ok := s.Capabilities[name]
	return c, ok
}
