// Package catalog 提供模型目录查询与模型选择
package catalog

import "schema-assistant-api/internal/domain/entity"

// recommendedModels 推荐模型列表，顺序即优先级
var recommendedModels = []entity.RecommendedModel{
	{ID: "anthropic/claude-sonnet-4.5-20250929", FallbackID: "anthropic/claude-3.5-sonnet", Note: "Best overall"},
	{ID: "anthropic/claude-3.5-sonnet", Note: "Best overall"},
	{ID: "openai/gpt-4o", Note: "Fast, reliable"},
	{ID: "anthropic/claude-3.5-haiku", Note: "Budget friendly"},
	{ID: "openai/gpt-4o-mini", Note: "Most economical"},
	{ID: "qwen/qwen-2.5-coder-32b-instruct", Note: "Free, coding"},
	{ID: "deepseek/deepseek-coder", Note: "Free, structured"},
	{ID: "google/gemini-pro-1.5", Note: "Large context"},
	{ID: "meta-llama/llama-3.1-70b-instruct", Note: "Open source"},
	{ID: "mistralai/mistral-large", Note: "European, capable"},
}

// DefaultModelID 新会话的默认模型
var DefaultModelID = recommendedModels[0].ID

// Recommended 返回推荐模型列表副本
func Recommended() []entity.RecommendedModel {
	out := make([]entity.RecommendedModel, len(recommendedModels))
	copy(out, recommendedModels)
	return out
}
