package config

import (
	"fmt"
	"time"

	"gopkg.in/yaml.v3"
)

// Duration 支持"2s"/"500ms"写法的时长配置（对外导出）
type Duration time.Duration

// UnmarshalYAML 实现yaml.Unmarshaler
func (d *Duration) UnmarshalYAML(value *yaml.Node) error {
	parsed, err := time.ParseDuration(value.Value)
	if err != nil {
		return fmt.Errorf("时长格式无效 %q: %w", value.Value, err)
	}
	*d = Duration(parsed)
	return nil
}

// MarshalYAML 实现yaml.Marshaler
func (d Duration) MarshalYAML() (interface{}, error) {
	return time.Duration(d).String(), nil
}

// Std 转换为time.Duration
func (d Duration) Std() time.Duration {
	return time.Duration(d)
}
