package entity

// ModelPricing 模型计费信息，原样保留网关返回的字符串
type ModelPricing struct {
	Prompt     string `json:"prompt"`
	Completion string `json:"completion"`
}

// ModelDescriptor 模型目录中的一项
type ModelDescriptor struct {
	ID            string        `json:"id"`
	Name          string        `json:"name"`
	Description   string        `json:"description,omitempty"`
	ContextLength int           `json:"context_length,omitempty"`
	Pricing       *ModelPricing `json:"pricing,omitempty"`
}

// DisplayName 返回展示名称，缺省时使用 ID
func (m ModelDescriptor) DisplayName() string {
	if m.Name != "" {
		return m.Name
	}
	return m.ID
}

// RecommendedModel 推荐模型条目
type RecommendedModel struct {
	ID         string `json:"id"`
	FallbackID string `json:"fallback_id,omitempty"`
	Note       string `json:"note"`
}

// ModelOption 选择器中的一个选项
type ModelOption struct {
	Value       string `json:"value"`
	Label       string `json:"label"`
	Recommended bool   `json:"recommended,omitempty"`
	Disabled    bool   `json:"disabled,omitempty"`
}
