package catalog

import (
	"schema-assistant-api/internal/domain/entity"
)

const (
	// SeparatorValue 分隔项的取值，不可选择
	SeparatorValue = "---"
	// SeparatorLabel 分隔项的展示文本
	SeparatorLabel = "────────────────"
)

// Reconcile 在目录变化后校正当前选择
// 当前选择仍在目录中时返回 ("", false)；否则按推荐顺序返回第一个在目录中的模型。
// 推荐模型都不在目录中时同样返回 ("", false)，调用方保留原选择（即使已不可用）。
func Reconcile(models []entity.ModelDescriptor, current string) (string, bool) {
	return reconcileWith(recommendedModels, models, current)
}

func reconcileWith(recommended []entity.RecommendedModel, models []entity.ModelDescriptor, current string) (string, bool) {
	byID := indexModels(models)
	if _, ok := byID[current]; ok {
		return "", false
	}
	for _, rec := range recommended {
		if _, ok := byID[rec.ID]; ok {
			return rec.ID, true
		}
	}
	return "", false
}

// BuildOptions 生成选择器选项：可用的推荐模型在前（附说明），
// 存在其他模型时插入分隔项，其余模型按目录顺序排列
func BuildOptions(models []entity.ModelDescriptor) []entity.ModelOption {
	return buildOptionsWith(recommendedModels, models)
}

func buildOptionsWith(recommended []entity.RecommendedModel, models []entity.ModelDescriptor) []entity.ModelOption {
	byID := indexModels(models)
	options := make([]entity.ModelOption, 0, len(models)+1)

	used := make(map[string]struct{}, len(recommended))
	for _, rec := range recommended {
		m, ok := byID[rec.ID]
		if !ok {
			continue
		}
		if _, dup := used[rec.ID]; dup {
			continue
		}
		used[rec.ID] = struct{}{}
		options = append(options, entity.ModelOption{
			Value:       m.ID,
			Label:       m.DisplayName() + " — " + rec.Note,
			Recommended: true,
		})
	}

	var rest []entity.ModelOption
	for _, m := range models {
		if _, ok := used[m.ID]; ok {
			continue
		}
		rest = append(rest, entity.ModelOption{Value: m.ID, Label: m.DisplayName()})
	}

	if len(rest) > 0 {
		options = append(options, entity.ModelOption{
			Value:    SeparatorValue,
			Label:    SeparatorLabel,
			Disabled: true,
		})
		options = append(options, rest...)
	}
	return options
}

func indexModels(models []entity.ModelDescriptor) map[string]entity.ModelDescriptor {
	byID := make(map[string]entity.ModelDescriptor, len(models))
	for _, m := range models {
		byID[m.ID] = m
	}
	return byID
}
