package content

import (
	"bytes"
	"context"
	"io"
	"sync"

	"github.com/a-h/templ"
)

// Target is a container that feed output is rendered into
type Target interface {
	Clear()
	Append(ctx context.Context, c templ.Component) error
}

// Document resolves container selectors to render targets.
// A feed is only rendered when its selector matches exactly one target.
type Document interface {
	Lookup(selector string) []Target
}

// Region is an in-memory Target. It is safe for concurrent use and is itself a templ.Component,
// so the current contents can be written straight to a response.
type Region struct {
	mu  sync.RWMutex
	buf bytes.Buffer
}

func NewRegion() *Region {
	return &Region{}
}

func (r *Region) Clear() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.buf.Reset()
}

// Append renders c and adds the markup to the end of the region
func (r *Region) Append(ctx context.Context, c templ.Component) error {
	var fragment bytes.Buffer
	if err := c.Render(ctx, &fragment); err != nil {
		return err
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	_, err := r.buf.Write(fragment.Bytes())
	return err
}

// HTML returns a snapshot of the region contents
func (r *Region) HTML() string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.buf.String()
}

func (r *Region) Render(ctx context.Context, w io.Writer) error {
	_, err := io.WriteString(w, r.HTML())
	return err
}

// Page is a Document made of named regions
type Page struct {
	mu      sync.RWMutex
	targets map[string][]Target
}

func NewPage() *Page {
	return &Page{targets: make(map[string][]Target)}
}

// Mount creates a region and registers it under selector
func (p *Page) Mount(selector string) *Region {
	region := NewRegion()
	p.Add(selector, region)
	return region
}

// Add registers a target under selector. Adding a second target for the same selector makes the selector ambiguous.
func (p *Page) Add(selector string, t Target) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.targets[selector] = append(p.targets[selector], t)
}

func (p *Page) Lookup(selector string) []Target {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.targets[selector]
}
