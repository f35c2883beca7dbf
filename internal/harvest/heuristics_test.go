package harvest

import (
	"testing"

	"github.com/RecoveryAshes/ModelHarvest/internal/models"
	"github.com/stretchr/testify/assert"
)

func TestFlattenLines(t *testing.T) {
	text := "  llama2  \n\n\t\nLlama 2 is a collection\r\n   \n3.2M\n"
	assert.Equal(t, []string{"llama2", "Llama 2 is a collection", "3.2M"}, FlattenLines(text))
	assert.Empty(t, FlattenLines(" \n \n"))
}

func TestLineHeuristic(t *testing.T) {
	h := LineHeuristic{}

	tests := []struct {
		name        string
		lines       []string
		identifier  string
		description string
		downloads   string
		updated     string
	}{
		{
			name:        "完整页面",
			lines:       []string{"Models", "llama2", "Llama 2 is a collection", "3.2M", "Pulls", "Updated 3 months ago"},
			identifier:  "llama2",
			description: "Llama 2 is a collection",
			downloads:   "3.2M",
			updated:     "Updated 3 months ago",
		},
		{
			name:        "缺少全部信息",
			lines:       []string{"Models", "Sign in"},
			identifier:  "llama2",
			description: "",
			downloads:   models.DefaultDownloads,
			updated:     models.UnknownUpdated,
		},
		{
			name:        "名称是最后一行",
			lines:       []string{"foo", "llama2"},
			identifier:  "llama2",
			description: "",
			downloads:   models.DefaultDownloads,
			updated:     models.UnknownUpdated,
		},
		{
			name:        "第一行包含Pulls时继续查找",
			lines:       []string{"Pulls", "12K", "12K Pulls"},
			identifier:  "x",
			description: "",
			downloads:   "12K",
			updated:     models.UnknownUpdated,
		},
		{
			name:        "名称提前出现时取第一次匹配",
			lines:       []string{"mistral", "Blog", "mistral", "The 7B model"},
			identifier:  "mistral",
			description: "Blog",
			downloads:   models.DefaultDownloads,
			updated:     models.UnknownUpdated,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.description, h.Description(tt.lines, tt.identifier))
			assert.Equal(t, tt.downloads, h.Downloads(tt.lines))
			assert.Equal(t, tt.updated, h.LastUpdated(tt.lines))
		})
	}
}
