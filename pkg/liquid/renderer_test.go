package liquid

import (
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRenderer_Render(t *testing.T) {
	r := NewRenderer()

	t.Run("renders simple template", func(t *testing.T) {
		out, err := r.Render("simple", "## {{ title }}", map[string]interface{}{"title": "Orders"})
		assert.NoError(t, err)
		assert.Equal(t, "## Orders", out)
	})

	t.Run("renders template with loops and trims the result", func(t *testing.T) {
		template := `{% for item in items %}- {{ item }}
{% endfor %}`
		out, err := r.Render("loop", template, map[string]interface{}{
			"items": []string{"one", "two", "three"},
		})
		assert.NoError(t, err)
		assert.Equal(t, "- one\n- two\n- three", out)
	})

	t.Run("renders template with conditionals", func(t *testing.T) {
		template := `{% if available %}Partners: {{ count }}{% else %}Partner data not yet available{% endif %}`
		out, err := r.Render("conditional", template, map[string]interface{}{"available": false, "count": 3})
		assert.NoError(t, err)
		assert.Equal(t, "Partner data not yet available", out)
	})

	t.Run("renders nested maps", func(t *testing.T) {
		out, err := r.Render("nested", `{{ stats.total }} / {{ stats.count }}`, map[string]interface{}{
			"stats": map[string]interface{}{"total": "$10.00", "count": 2},
		})
		assert.NoError(t, err)
		assert.Equal(t, "$10.00 / 2", out)
	})

	t.Run("applies registered filters", func(t *testing.T) {
		out, err := r.Render("filters", `{{ amount | money }} ({{ change | percent }})`, map[string]interface{}{
			"amount": 123456, "change": 12.5,
		})
		assert.NoError(t, err)
		assert.Equal(t, "$1,234.56 (+12.5%)", out)
	})

	t.Run("returns error for invalid syntax and does not cache it", func(t *testing.T) {
		_, err := r.Render("broken", "{% if %}", nil)
		assert.Error(t, err)
		out, err := r.Render("broken", "fixed", nil)
		assert.NoError(t, err)
		assert.Equal(t, "fixed", out)
	})
}

func TestRenderer_CachesByName(t *testing.T) {
	r := NewRenderer()

	out, err := r.Render("greeting", "Hello {{ name }}", map[string]interface{}{"name": "Ironclad"})
	require.NoError(t, err)
	assert.Equal(t, "Hello Ironclad", out)

	// A second call under the same name reuses the parsed template.
	out, err = r.Render("greeting", "ignored {{ name }}", map[string]interface{}{"name": "again"})
	require.NoError(t, err)
	assert.Equal(t, "Hello again", out)
}

func TestRenderer_Limits(t *testing.T) {
	r := NewRenderer()
	_, err := r.Render("empty", "", nil)
	assert.Error(t, err)

	_, err = r.Render("big", strings.Repeat("x", MaxTemplateSize+1), nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "exceeds maximum")
}

func TestRenderer_Concurrent(t *testing.T) {
	r := NewRenderer()
	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			out, err := r.Render("n", "{{ n }}", map[string]interface{}{"n": 7})
			assert.NoError(t, err)
			assert.Equal(t, "7", out)
		}()
	}
	wg.Wait()
}

func TestMoney(t *testing.T) {
	assert.Equal(t, "$0.00", Money(0))
	assert.Equal(t, "$1,234.56", Money(int64(123456)))
	assert.Equal(t, "-$12.00", Money(-1200))
	assert.Equal(t, "$1,000,000.00", Money(100000000.0))
	assert.Equal(t, "$5.00", Money("500"))
	assert.Equal(t, "n/a", Money("n/a"))
}

func TestPercent(t *testing.T) {
	assert.Equal(t, "+12.5%", Percent(12.5))
	assert.Equal(t, "-8.3%", Percent(-8.3))
	assert.Equal(t, "+0.0%", Percent(0))
}
