// Package config 负责加载与合并服务配置：内置默认值 + 可选的 config.yaml 覆盖。
// 不读取环境变量，保持配置来源单一，便于部署审计。
package config
