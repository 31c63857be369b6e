package geofuzz

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync"
)

// DefaultOutputExt is the extension of every output image.
const DefaultOutputExt = ".png"

// Router computes deterministic output paths and writes output images.
//
// Output paths mirror the input layout: an asset at <InputRoot>/<rel>/a.jpg
// routes to <OutputRoot>/<rel>/a_result....png. Assets outside InputRoot
// route directly into OutputRoot.
//
// Router is safe for concurrent use.
type Router struct {
	InputRoot  string
	OutputRoot string
	Ext        string

	mu       sync.Mutex
	stems    map[string]string // asset path -> stem, set by Prepare
	reserved map[string]int    // output path -> run index
}

// NewRouter creates a router from the input namespace to the output namespace.
func NewRouter(inputRoot, outputRoot string) *Router {
	return &Router{
		InputRoot:  filepath.Clean(inputRoot),
		OutputRoot: filepath.Clean(outputRoot),
		Ext:        DefaultOutputExt,
		reserved:   make(map[string]int),
	}
}

// Prepare registers the assets of a batch and drops every earlier
// reservation. Assets that share a stem in the same directory (a.png and
// a.jpg) get their source extension folded into the stem (a_png, a_jpg).
// A folded stem already used by another asset gets a numeric suffix
// (a_png_2) until it is unique in its directory.
func (r *Router) Prepare(assets []string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	count := make(map[string]int, len(assets))
	for _, a := range assets {
		dir, stem, _ := splitPath(a)
		count[filepath.Join(dir, stem)]++
	}

	// Natural stems that need no folding are claimed first.
	taken := make(map[string]bool, len(assets))
	for key, n := range count {
		if n == 1 {
			taken[key] = true
		}
	}

	r.stems = make(map[string]string, len(assets))
	r.reserved = make(map[string]int)
	for _, a := range assets {
		if _, ok := r.stems[a]; ok {
			continue
		}
		dir, stem, ext := splitPath(a)
		if count[filepath.Join(dir, stem)] == 1 {
			r.stems[a] = stem
			continue
		}
		if ext != "" {
			stem += "_" + strings.TrimPrefix(ext, ".")
		}
		unique := stem
		for i := 2; taken[filepath.Join(dir, unique)]; i++ {
			unique = stem + "_" + strconv.Itoa(i)
		}
		taken[filepath.Join(dir, unique)] = true
		r.stems[a] = unique
	}
}

// SweepPath returns the output path of a sweep run over asset:
// <stem>_result[_<tag>...]<ext>. The sentinel shape set adds no tag.
func (r *Router) SweepPath(asset string, shapes ShapeSet) string {
	return r.destination(asset, "_result"+shapes.Tag())
}

// CompositePath returns the output path of composite run id whose first
// asset is asset: <stem>_merged_result_<id><ext>.
func (r *Router) CompositePath(asset string, id int) string {
	return r.destination(asset, "_merged_result_"+strconv.Itoa(id))
}

func (r *Router) destination(asset, suffix string) string {
	dir, stem, _ := splitPath(asset)

	r.mu.Lock()
	if s, ok := r.stems[asset]; ok {
		stem = s
	}
	r.mu.Unlock()

	rel, err := filepath.Rel(r.InputRoot, dir)
	if err != nil || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		rel = "."
	}

	ext := r.Ext
	if ext == "" {
		ext = DefaultOutputExt
	}
	return filepath.Join(r.OutputRoot, rel, stem+suffix+ext)
}

// Reserve claims path for run. Claiming a path already held by another run
// fails with KindConfig; within one batch every run must own a distinct path.
func (r *Router) Reserve(path string, run int) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.reserved == nil {
		r.reserved = make(map[string]int)
	}
	if owner, ok := r.reserved[path]; ok && owner != run {
		return newError(KindConfig, "reserve output", path,
			fmt.Errorf("already reserved by run %d", owner))
	}
	r.reserved[path] = run
	return nil
}

// Write encodes b as PNG at path, creating the parent directory if needed.
// It returns the number of bytes written. Failures carry KindWrite.
func (r *Router) Write(path string, b *Bitmap) (int64, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return 0, newError(KindWrite, "create directory", filepath.Dir(path), err)
	}
	if err := SavePNG(path, b); err != nil {
		_ = os.Remove(path)
		return 0, newError(KindWrite, "save", path, err)
	}
	info, err := os.Stat(path)
	if err != nil {
		return 0, newError(KindWrite, "stat", path, err)
	}
	return info.Size(), nil
}

// splitPath splits a file path into directory, stem and extension.
func splitPath(p string) (dir, stem, ext string) {
	dir, base := filepath.Split(filepath.Clean(p))
	ext = filepath.Ext(base)
	stem = strings.TrimSuffix(base, ext)
	if stem == "" { // dotfile such as ".hidden"
		stem, ext = base, ""
	}
	return filepath.Clean(dir), stem, ext
}
