// Package liquid renders the Liquid templates agents use to lay out the
// context block handed to the LLM.
package liquid

import (
	"fmt"
	"math"
	"reflect"
	"strconv"
	"strings"
	"sync"

	"github.com/osteele/liquid"
)

// MaxTemplateSize bounds a single template source.
const MaxTemplateSize = 100 * 1024

// Renderer parses each named template once and renders it many times.
type Renderer struct {
	engine    *liquid.Engine
	mu        sync.RWMutex
	templates map[string]*liquid.Template
}

func NewRenderer() *Renderer {
	engine := liquid.NewEngine()
	engine.RegisterFilter("money", Money)
	engine.RegisterFilter("percent", Percent)
	return &Renderer{
		engine:    engine,
		templates: make(map[string]*liquid.Template),
	}
}

func (r *Renderer) parse(name, source string) (*liquid.Template, error) {
	r.mu.RLock()
	tmpl, ok := r.templates[name]
	r.mu.RUnlock()
	if ok {
		return tmpl, nil
	}

	if source == "" {
		return nil, fmt.Errorf("template %s is empty", name)
	}
	if len(source) > MaxTemplateSize {
		return nil, fmt.Errorf("template %s size (%d bytes) exceeds maximum allowed size (%d bytes)", name, len(source), MaxTemplateSize)
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if tmpl, ok := r.templates[name]; ok {
		return tmpl, nil
	}
	parsed, err := r.engine.ParseString(source)
	if err != nil {
		return nil, fmt.Errorf("failed to parse template %s: %w", name, err)
	}
	r.templates[name] = parsed
	return parsed, nil
}

// Render renders the template registered under name, parsing source the
// first time name is seen. Later calls ignore source.
func (r *Renderer) Render(name, source string, data map[string]interface{}) (string, error) {
	tmpl, err := r.parse(name, source)
	if err != nil {
		return "", err
	}
	out, err := tmpl.RenderString(data)
	if err != nil {
		return "", fmt.Errorf("liquid rendering failed: %w", err)
	}
	return strings.TrimSpace(out), nil
}

// Money formats an integer amount of cents as "$1,234.56".
func Money(v interface{}) string {
	var cents int64
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		cents = rv.Int()
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		cents = int64(rv.Uint())
	case reflect.Float32, reflect.Float64:
		cents = int64(math.Round(rv.Float()))
	case reflect.String:
		f, err := strconv.ParseFloat(rv.String(), 64)
		if err != nil {
			return rv.String()
		}
		cents = int64(math.Round(f))
	default:
		return fmt.Sprint(v)
	}

	sign := ""
	if cents < 0 {
		sign = "-"
		cents = -cents
	}
	whole := strconv.FormatInt(cents/100, 10)
	var b strings.Builder
	for i, c := range whole {
		if i > 0 && (len(whole)-i)%3 == 0 {
			b.WriteByte(',')
		}
		b.WriteRune(c)
	}
	return fmt.Sprintf("%s$%s.%02d", sign, b.String(), cents%100)
}

// Percent formats a float with one decimal and a sign, e.g. "+12.5%".
func Percent(v interface{}) string {
	rv := reflect.ValueOf(v)
	var f float64
	switch rv.Kind() {
	case reflect.Float32, reflect.Float64:
		f = rv.Float()
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		f = float64(rv.Int())
	default:
		return fmt.Sprint(v)
	}
	return fmt.Sprintf("%+.1f%%", f)
}
