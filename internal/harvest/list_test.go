package harvest

import (
	"context"
	"testing"

	"github.com/RecoveryAshes/ModelHarvest/internal/browser"
	"github.com/RecoveryAshes/ModelHarvest/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testBaseURL = "https://ollama.test"

func listPage(links []browser.Element) *fakePage {
	page := newFakePage()
	page.contents[testBaseURL+DefaultListPath] = &fakeContent{
		elements: map[string][]browser.Element{DefaultDetailLinkSelector: links},
	}
	return page
}

func TestListHarvester_Harvest(t *testing.T) {
	page := listPage([]browser.Element{
		&fakeElement{text: "llama3.1\nMeta's Llama 3.1\n8b 70b 405b"},
		&fakeElement{text: "  mistral  \nThe 7B model"},
		&fakeElement{textErr: errFake},
		&fakeElement{text: "\n\n"},
		&fakeElement{text: "llama3.1\nduplicate card"},
		&fakeElement{text: "gemma2"},
	})
	launcher := &fakeLauncher{page: page}

	got, err := NewListHarvester(launcher, ListOptions{BaseURL: testBaseURL}).Harvest(context.Background())
	require.NoError(t, err)

	assert.Equal(t, summaries("llama3.1", "mistral", "gemma2"), got)
	assert.Equal(t, []string{"list"}, launcher.opened)
	assert.Equal(t, []string{"https://ollama.test/library?sort=popular"}, page.navigated)
	assert.True(t, page.closed)
}

func TestListHarvester_NavigationFailure(t *testing.T) {
	page := listPage(textElements("llama2"))
	page.navErr[testBaseURL+DefaultListPath] = errFake

	got, err := NewListHarvester(&fakeLauncher{page: page}, ListOptions{BaseURL: testBaseURL}).Harvest(context.Background())
	assert.Empty(t, got)
	assert.ErrorIs(t, err, models.ErrBrowsingSession)
	assert.True(t, page.closed)
}

func TestListHarvester_LaunchFailure(t *testing.T) {
	launcher := &fakeLauncher{openErr: errFake}

	got, err := NewListHarvester(launcher, ListOptions{BaseURL: testBaseURL}).Harvest(context.Background())
	assert.Empty(t, got)
	assert.ErrorIs(t, err, models.ErrBrowsingSession)
}

func TestListHarvester_SkipsNonDetailLinks(t *testing.T) {
	page := listPage([]browser.Element{
		&fakeElement{text: "llama3.1", attrs: map[string]string{"href": "/library/llama3.1"}},
		&fakeElement{text: "8b", attrs: map[string]string{"href": "/library/llama3.1/tags"}},
		&fakeElement{text: "qwen2", attrs: map[string]string{"href": "https://ollama.test/library/qwen2?tab=readme"}},
		&fakeElement{text: "Models", attrs: map[string]string{"href": "/library/"}},
		&fakeElement{text: "gemma2"},
	})

	got, err := NewListHarvester(&fakeLauncher{page: page}, ListOptions{BaseURL: testBaseURL}).Harvest(context.Background())
	require.NoError(t, err)
	assert.Equal(t, summaries("llama3.1", "qwen2", "gemma2"), got)
}

func TestIsDetailHref(t *testing.T) {
	tests := []struct {
		href string
		want bool
	}{
		{"/library/llama2", true},
		{"/library/llama2/", true},
		{"https://ollama.com/library/mistral", true},
		{"/library/llama2/tags", false},
		{"/library/", false},
		{"/search?q=llama", false},
		{"%zz", false},
	}

	for _, tt := range tests {
		t.Run(tt.href, func(t *testing.T) {
			assert.Equal(t, tt.want, isDetailHref(tt.href))
		})
	}
}

func TestFirstLine(t *testing.T) {
	assert.Equal(t, "llama2", firstLine("\n  llama2 \nsecond"))
	assert.Equal(t, "", firstLine("   "))
}
