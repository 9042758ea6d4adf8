package server

import (
	"html/template"
	"os"
	"path"
	"path/filepath"
	"strings"
	"sync"

	"github.com/angi-lang/angi/errz"
)

// AssetSource provides template sources by slash-separated path.
// *archive.Extractor implements it for bundled templates.
type AssetSource interface {
	Asset(name string) ([]byte, error)
}

// DirAssets reads templates from a directory on disk.
type DirAssets string

func (d DirAssets) Asset(name string) ([]byte, error) {
	clean := path.Clean("/" + name)
	return os.ReadFile(filepath.Join(string(d), filepath.FromSlash(strings.TrimPrefix(clean, "/"))))
}

// templateCache parses each template once.
type templateCache struct {
	mu        sync.Mutex
	assets    AssetSource
	templates map[string]*template.Template
}

func newTemplateCache(assets AssetSource) *templateCache {
	return &templateCache{assets: assets, templates: map[string]*template.Template{}}
}

func (c *templateCache) get(name string) (*template.Template, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if t, ok := c.templates[name]; ok {
		return t, nil
	}
	if c.assets == nil {
		return nil, errz.New(errz.UnexpectedError, "template %q requested but no templates are available", name)
	}
	src, err := c.assets.Asset(name)
	if err != nil {
		return nil, err
	}
	t, err := template.New(name).Parse(string(src))
	if err != nil {
		return nil, err
	}
	c.templates[name] = t
	return t, nil
}
