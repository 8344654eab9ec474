package config

import (
	"encoding/json"
)

// Config: 运行期只读配置（一次解析，运行期不变）。
// JSON 使用 snake_case；未知字段在解析期失败。
type Config struct {
	Inputs []string `json:"inputs"`
	// MaxConvergents: 扫描的收敛子上限；0 表示不设上限。
	MaxConvergents int `json:"max_convergents"`
	// Precheck: D 与整数部分的前置校验；nil 视为开启。
	Precheck *bool   `json:"precheck"`
	Logging  Logging `json:"logging"`

	// 组件名选择（空则使用默认名）。
	Components Components `json:"components"`

	// 各组件 Options 子树，原样 JSON 传入工厂。
	Options Options `json:"options"`
}

// Logging: 仅保留日志等级可配置；输出固定为 stderr。
type Logging struct {
	Level string `json:"level"`
}

// Components: 组件名选择（注册表中的实现名）。
type Components struct {
	Reader  string `json:"reader"`
	Decoder string `json:"decoder"`
	Writer  string `json:"writer"`
}

// Options: 各组件的原样 JSON Options。
type Options struct {
	Reader  json.RawMessage `json:"reader"`
	Decoder json.RawMessage `json:"decoder"`
	Writer  json.RawMessage `json:"writer"`
}

// PrecheckEnabled 返回前置校验的有效值。
func (c Config) PrecheckEnabled() bool {
	return c.Precheck == nil || *c.Precheck
}
