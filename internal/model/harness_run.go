package model

import (
	"time"

	"gorm.io/gorm"
)

// 运行类型
const (
	RunKindCompare   = "compare"
	RunKindSamples   = "samples"
	RunKindPatterns  = "patterns"
	RunKindTemplates = "templates"
	RunKindPersona   = "persona"
)

// HarnessRun 每次评估操作的元数据（运行登记表；明细以 JSONL 日志为准）
type HarnessRun struct {
	ID        uint           `gorm:"primarykey" json:"id"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`

	RunUID     string `gorm:"type:varchar(36);uniqueIndex" json:"run_uid"`
	Kind       string `gorm:"type:varchar(20);not null;index" json:"kind"`
	Feature    string `gorm:"type:varchar(100);index" json:"feature"`
	Capability string `gorm:"type:varchar(100);index" json:"capability"`
	// 本次产出的条数（记录/样本/模式/测试结果）
	ItemCount int `json:"item_count"`
	// 一致度或评分的均值（无意义时为 0）
	AvgScore   float64 `json:"avg_score"`
	OutputPath string  `gorm:"type:varchar(500)" json:"output_path"`
	Note       string  `gorm:"type:text" json:"note"`
}
