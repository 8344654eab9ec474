package config

import "encoding/json"

// DefaultTemplateConfig 返回一个“可运行”的默认配置模板：
// - 默认输入为 STDIN（"-"），输出为文本表；
// - 组件名采用仓库内置实现；
// - 选项给出全部键与中性默认值，便于复制后修改。
func DefaultTemplateConfig() Config {
	d := Defaults()
	on := true
	cfg := Config{
		Inputs:         []string{"-"},
		MaxConvergents: 0,
		Precheck:       &on,
		Logging:        Logging{Level: "error"},
		Components:     d.Components,
	}
	cfg.Options.Reader = json.RawMessage(`{
  "buf_size": 65536,
  "compression": "auto"
}`)
	cfg.Options.Decoder = json.RawMessage(`{
  "separator": "\t",
  "max_line_bytes": 1048576
}`)
	cfg.Options.Writer = json.RawMessage(`{
  "buf_size": 65536
}`)
	return cfg
}
