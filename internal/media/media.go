// Package media resolves browser-facing slug paths to real files confined
// to the configured media root and classifies entries by extension.
// Nothing here is cached: existence and size are checked per request so a
// reorganized library never serves stale byte ranges.
package media

import (
	"errors"
	"fmt"
	"mime"
	"os"
	"path"
	"path/filepath"
	"regexp"
	"sort"
	"strings"
)

// ErrNotFound covers missing files, entries outside the media root and
// escape attempts alike; callers must not distinguish them to clients.
var ErrNotFound = errors.New("media: not found")

type (
	Kind int

	// Entry is one row of a directory listing.
	Entry struct {
		Name string
		Slug string
		Dir  bool
		Kind Kind
		Size int64
	}

	Library struct {
		root  string
		video map[string]struct{}
		audio map[string]struct{}
	}
)

const (
	KindOther Kind = iota
	KindVideo
	KindAudio
)

var (
	spacesRe = regexp.MustCompile(`\s+`)
	unsafeRe = regexp.MustCompile(`[^a-zA-Z0-9_\-.]`)
)

// Slugify turns a file or directory name into a URL-safe slug while
// keeping it readable.
func Slugify(name string) string {
	name = strings.TrimSpace(name)
	name = spacesRe.ReplaceAllString(name, "_")
	return unsafeRe.ReplaceAllString(name, "")
}

func NewLibrary(root string, videoExt, audioExt []string) (*Library, error) {
	abs, err := filepath.Abs(root)
	if err != nil {
		return nil, fmt.Errorf("unable to resolve media root %v, cause %w", root, err)
	}
	// canonicalize once so confinement checks compare like with like even
	// when the configured root itself sits behind a symlink
	abs, err = filepath.EvalSymlinks(abs)
	if err != nil {
		return nil, fmt.Errorf("unable to resolve media root %v, cause %w", root, err)
	}
	info, err := os.Stat(abs)
	if err != nil {
		return nil, fmt.Errorf("unable to access media root %v, cause %w", abs, err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("media root %v is not a directory", abs)
	}
	return &Library{
		root:  abs,
		video: extSet(videoExt),
		audio: extSet(audioExt),
	}, nil
}

func extSet(exts []string) map[string]struct{} {
	set := make(map[string]struct{}, len(exts))
	for _, e := range exts {
		set[strings.ToLower(strings.TrimPrefix(e, "."))] = struct{}{}
	}
	return set
}

func (l *Library) Root() string { return l.root }

// Kind classifies a name by its extension against the configured lists.
func (l *Library) Kind(name string) Kind {
	ext := strings.ToLower(strings.TrimPrefix(filepath.Ext(name), "."))
	if _, ok := l.audio[ext]; ok {
		return KindAudio
	}
	if _, ok := l.video[ext]; ok {
		return KindVideo
	}
	return KindOther
}

// MimeType derives the content type from the extension; content is never
// inspected. Extensions the platform MIME table does not know still get a
// usable type from their configured class.
func (l *Library) MimeType(name string) string {
	ext := strings.ToLower(strings.TrimPrefix(filepath.Ext(name), "."))
	if mt := mime.TypeByExtension("." + ext); mt != "" {
		return mt
	}
	switch l.Kind(name) {
	case KindAudio:
		return "audio/" + ext
	case KindVideo:
		return "video/" + ext
	}
	return "application/octet-stream"
}

// Resolve maps a slash-separated slug path to the real absolute path it
// names, walking one directory level per segment. The result is
// guaranteed to live under the media root (or its symlink-resolved
// twin); anything else is ErrNotFound.
func (l *Library) Resolve(slugPath string) (string, error) {
	cur := l.root
	for _, segment := range strings.Split(path.Clean("/"+slugPath), "/") {
		if segment == "" || segment == "." {
			continue
		}
		name, err := deslugify(cur, segment)
		if err != nil {
			return "", err
		}
		cur = filepath.Join(cur, name)
	}
	return l.confine(cur)
}

// deslugify finds the real entry in dir whose slug matches.
func deslugify(dir, slug string) (string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return "", ErrNotFound
	}
	for _, entry := range entries {
		if Slugify(entry.Name()) == slug {
			return entry.Name(), nil
		}
	}
	return "", ErrNotFound
}

// confine resolves symlinks and verifies the target still lives under the
// media root, blocking traversal and symlink escapes.
func (l *Library) confine(p string) (string, error) {
	resolved, err := filepath.EvalSymlinks(p)
	if err != nil {
		return "", ErrNotFound
	}
	if resolved == l.root || strings.HasPrefix(resolved, l.root+string(os.PathSeparator)) {
		return resolved, nil
	}
	return "", ErrNotFound
}

// List returns the streamable content of an already-resolved directory:
// subdirectories plus files whose extension is in one of the configured
// lists, directories first, each sorted by name.
func (l *Library) List(absDir string) ([]Entry, error) {
	dirents, err := os.ReadDir(absDir)
	if err != nil {
		return nil, fmt.Errorf("unable to list %v, cause %w", absDir, err)
	}
	var out []Entry
	for _, d := range dirents {
		name := d.Name()
		if strings.HasPrefix(name, ".") {
			continue
		}
		if d.IsDir() {
			out = append(out, Entry{Name: name, Slug: Slugify(name), Dir: true})
			continue
		}
		kind := l.Kind(name)
		if kind == KindOther {
			continue
		}
		info, err := d.Info()
		if err != nil {
			continue
		}
		out = append(out, Entry{Name: name, Slug: Slugify(name), Kind: kind, Size: info.Size()})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Dir != out[j].Dir {
			return out[i].Dir
		}
		return strings.ToLower(out[i].Name) < strings.ToLower(out[j].Name)
	})
	return out, nil
}
