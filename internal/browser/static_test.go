package browser

import (
	"bytes"
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/RecoveryAshes/ModelHarvest/internal/models"
	"github.com/andybalholm/brotli"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const libraryHTML = `<html><head><title>Library</title><script>var hidden = 1;</script></head>
<body>
<nav><a href="/">Home</a></nav>
<ul>
  <li><a href="/library/llama2"><div>llama2</div><p>Llama 2 is a collection of models</p></a></li>
  <li><a href="/library/mistral"><div>mistral</div><p>The 7B model</p></a></li>
</ul>
<div>3.2M Pulls<br>Updated 2 months ago</div>
</body></html>`

func TestStaticPageNavigate(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "harvest-test", r.Header.Get("User-Agent"))
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		_, _ = w.Write([]byte(libraryHTML))
	}))
	defer srv.Close()

	launcher := NewStaticLauncher(StaticOptions{UserAgent: "harvest-test"})
	page, err := launcher.Open(context.Background(), "list")
	require.NoError(t, err)
	defer page.Close()

	require.NoError(t, page.Navigate(context.Background(), srv.URL+"/library"))

	elements, err := page.FindElements(context.Background(), `a[href^="/library/"]`)
	require.NoError(t, err)
	require.Len(t, elements, 2)

	text, err := elements[0].Text(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "llama2\nLlama 2 is a collection of models", text)

	href, ok, err := elements[1].Attribute(context.Background(), "href")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "/library/mistral", href)

	_, ok, err = elements[1].Attribute(context.Background(), "data-missing")
	require.NoError(t, err)
	assert.False(t, ok)

	visible, err := page.VisibleText(context.Background())
	require.NoError(t, err)
	assert.NotContains(t, visible, "hidden")
	assert.Contains(t, visible, "3.2M Pulls\nUpdated 2 months ago")
}

func TestStaticPageBrotliResponse(t *testing.T) {
	var compressed bytes.Buffer
	bw := brotli.NewWriter(&compressed)
	_, err := bw.Write([]byte(libraryHTML))
	require.NoError(t, err)
	require.NoError(t, bw.Close())

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html")
		w.Header().Set("Content-Encoding", "br")
		_, _ = w.Write(compressed.Bytes())
	}))
	defer srv.Close()

	page, err := NewStaticLauncher(StaticOptions{}).Open(context.Background(), "detail")
	require.NoError(t, err)
	require.NoError(t, page.Navigate(context.Background(), srv.URL))

	elements, err := page.FindElements(context.Background(), `a[href^="/library/"]`)
	require.NoError(t, err)
	assert.Len(t, elements, 2)
}

func TestStaticPageHTTPError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "boom", http.StatusInternalServerError)
	}))
	defer srv.Close()

	page, err := NewStaticLauncher(StaticOptions{}).Open(context.Background(), "detail")
	require.NoError(t, err)

	err = page.Navigate(context.Background(), srv.URL)
	require.Error(t, err)
	assert.True(t, errors.Is(err, models.ErrBrowsingSession))
}

func TestStaticElementClickUnsupported(t *testing.T) {
	page, err := NewStaticPageFromHTML("http://localhost/library/llama2",
		[]byte(`<html><body><button name="tag">7b</button></body></html>`))
	require.NoError(t, err)

	buttons, err := page.FindElements(context.Background(), `button[name="tag"]`)
	require.NoError(t, err)
	require.Len(t, buttons, 1)

	err = buttons[0].Click(context.Background())
	assert.ErrorIs(t, err, ErrInteractionUnsupported)
}

func TestRenderText(t *testing.T) {
	tests := []struct {
		name     string
		html     string
		expected string
	}{
		{"内联元素保持同一行", `<p>Hello <b>big</b> world</p>`, "Hello big world"},
		{"块级元素换行", `<div>a</div><div>b</div>`, "a\nb"},
		{"br换行", `<span>7b<br>4.1GB</span>`, "7b\n4.1GB"},
		{"跳过样式和模板", `<style>.x{}</style><template>t</template><p>ok</p>`, "ok"},
		{"空白行被删除", "<div>\n\n  </div><p> x </p>", "x"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			page, err := NewStaticPageFromHTML("http://localhost", []byte(tt.html))
			require.NoError(t, err)
			text, err := page.VisibleText(context.Background())
			require.NoError(t, err)
			assert.Equal(t, tt.expected, text)
		})
	}
}

func TestDecodeBodyPassthrough(t *testing.T) {
	plain := []byte("<html></html>")

	got, err := decodeBody("gzip", plain)
	require.NoError(t, err)
	assert.Equal(t, plain, got)

	got, err = decodeBody("identity", plain)
	require.NoError(t, err)
	assert.Equal(t, plain, got)

	_, err = decodeBody("br", []byte("not brotli"))
	assert.Error(t, err)
}
