package schema

import (
	"regexp"
	"strings"

	"schema-assistant-api/pkg/metrics"
)

var (
	jsonFence    = regexp.MustCompile("(?s)```json\\s*(.*?)```")
	genericFence = regexp.MustCompile("(?s)```\\s*(.*?)```")
)

// ExtractProposal 从助手回复中提取候选文档
// 优先取第一个 ```json 代码块，否则取第一个任意代码块；内容去除首尾空白
// 未找到或代码块为空时 ok=false
func ExtractProposal(reply string) (string, bool) {
	m := jsonFence.FindStringSubmatch(reply)
	kind := "json"
	if m == nil {
		m = genericFence.FindStringSubmatch(reply)
		kind = "generic"
	}
	if m == nil || m[1] == "" {
		metrics.ArtifactExtractionTotal.WithLabelValues("none").Inc()
		return "", false
	}
	metrics.ArtifactExtractionTotal.WithLabelValues(kind).Inc()
	return strings.TrimSpace(m[1]), true
}
