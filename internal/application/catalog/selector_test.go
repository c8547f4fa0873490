package catalog

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"schema-assistant-api/internal/domain/entity"
)

func models(ids ...string) []entity.ModelDescriptor {
	out := make([]entity.ModelDescriptor, 0, len(ids))
	for _, id := range ids {
		out = append(out, entity.ModelDescriptor{ID: id, Name: "Name " + id})
	}
	return out
}

func TestReconcile_CurrentPresentIsUnchanged(t *testing.T) {
	id, changed := Reconcile(models("openai/gpt-4o", "x/other"), "x/other")
	assert.False(t, changed)
	assert.Empty(t, id)
}

func TestReconcile_PicksFirstRecommendedPresent(t *testing.T) {
	catalog := models("x/other", "openai/gpt-4o-mini", "openai/gpt-4o")
	id, changed := Reconcile(catalog, "anthropic/claude-sonnet-4.5-20250929")
	require.True(t, changed)
	// gpt-4o 在推荐顺序中先于 gpt-4o-mini，与目录顺序无关
	assert.Equal(t, "openai/gpt-4o", id)
}

func TestReconcile_NoRecommendedPresentLeavesSelection(t *testing.T) {
	// 当前选择不可用且目录中没有推荐模型时保持原样，不回退到目录第一项
	id, changed := Reconcile(models("x/a", "x/b"), "missing/model")
	assert.False(t, changed)
	assert.Empty(t, id)
}

func TestReconcile_EmptyCatalog(t *testing.T) {
	id, changed := Reconcile(nil, DefaultModelID)
	assert.False(t, changed)
	assert.Empty(t, id)
}

func TestReconcile_NeverReturnsAbsentID(t *testing.T) {
	catalogs := [][]entity.ModelDescriptor{
		models("mistralai/mistral-large"),
		models("x/a", "meta-llama/llama-3.1-70b-instruct", "deepseek/deepseek-coder"),
		models("anthropic/claude-3.5-sonnet", "anthropic/claude-sonnet-4.5-20250929"),
	}
	for _, catalog := range catalogs {
		id, changed := Reconcile(catalog, "gone/model")
		if !changed {
			continue
		}
		found := false
		for _, m := range catalog {
			if m.ID == id {
				found = true
			}
		}
		assert.True(t, found, "reconciled id %q must exist in catalog", id)
	}
}

func TestReconcileWith_CustomPreferenceList(t *testing.T) {
	prefs := []entity.RecommendedModel{{ID: "b"}, {ID: "a"}}
	id, changed := reconcileWith(prefs, models("a", "b"), "")
	assert.True(t, changed)
	assert.Equal(t, "b", id)
}

func TestBuildOptions_RecommendedFirstThenSeparator(t *testing.T) {
	catalog := []entity.ModelDescriptor{
		{ID: "z/zeta", Name: "Zeta"},
		{ID: "openai/gpt-4o-mini", Name: "GPT-4o mini"},
		{ID: "a/alpha"},
		{ID: "anthropic/claude-3.5-sonnet", Name: "Claude 3.5 Sonnet"},
	}

	opts := BuildOptions(catalog)
	require.Len(t, opts, 5)

	assert.Equal(t, entity.ModelOption{Value: "anthropic/claude-3.5-sonnet", Label: "Claude 3.5 Sonnet — Best overall", Recommended: true}, opts[0])
	assert.Equal(t, entity.ModelOption{Value: "openai/gpt-4o-mini", Label: "GPT-4o mini — Most economical", Recommended: true}, opts[1])
	assert.Equal(t, entity.ModelOption{Value: SeparatorValue, Label: SeparatorLabel, Disabled: true}, opts[2])
	assert.Equal(t, entity.ModelOption{Value: "z/zeta", Label: "Zeta"}, opts[3])
	// 名称缺省时使用 ID
	assert.Equal(t, entity.ModelOption{Value: "a/alpha", Label: "a/alpha"}, opts[4])
}

func TestBuildOptions_NoSeparatorWhenOnlyRecommended(t *testing.T) {
	opts := BuildOptions([]entity.ModelDescriptor{{ID: "openai/gpt-4o"}})
	require.Len(t, opts, 1)
	assert.Equal(t, "openai/gpt-4o — Fast, reliable", opts[0].Label)
}

func TestBuildOptions_OnlyOthers(t *testing.T) {
	opts := BuildOptions(models("x/a", "x/b"))
	require.Len(t, opts, 3)
	assert.True(t, opts[0].Disabled)
	assert.Equal(t, "x/a", opts[1].Value)
	assert.Equal(t, "x/b", opts[2].Value)
}

func TestBuildOptions_Empty(t *testing.T) {
	assert.Empty(t, BuildOptions(nil))
}

func TestRecommended_ReturnsCopy(t *testing.T) {
	list := Recommended()
	require.Len(t, list, 10)
	assert.Equal(t, DefaultModelID, list[0].ID)
	assert.Equal(t, "anthropic/claude-3.5-sonnet", list[0].FallbackID)

	list[0].ID = "mutated"
	assert.Equal(t, "anthropic/claude-sonnet-4.5-20250929", Recommended()[0].ID)
}
