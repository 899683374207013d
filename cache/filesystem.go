package cache

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/bytedance/sonic"

	"github.com/use-agent/fetchmcp/fingerprint"
	"github.com/use-agent/fetchmcp/models"
)

// sidecar is the on-disk metadata record stored alongside a tier's body,
// encoded with bytedance/sonic for fast read-path unmarshalling.
type sidecar struct {
	URI            string    `json:"uri"`
	OriginURL      string    `json:"originUrl"`
	Fingerprint    string    `json:"fingerprint"`
	Tier           string    `json:"tier"`
	MimeType       string    `json:"mimeType"`
	SourceStrategy string    `json:"sourceStrategy"`
	ExtractPrompt  string    `json:"extractPrompt,omitempty"`
	StoredAt       time.Time `json:"storedAt"`
}

// FilesystemBackend persists artifacts under <root>/<dir>/<tier>.dat plus a
// <tier>.meta.json sidecar, writing via temp-file-then-rename for atomicity.
// An in-memory index (reusing MemoryBackend's LRU bookkeeping) backs the
// fast lookup paths; it is rebuilt from disk at startup.
type FilesystemBackend struct {
	root  string
	index *MemoryBackend
	wmu   sync.Mutex // serializes directory creation / rename per backend
}

// NewFilesystemBackend creates (if absent) root and rebuilds its index by
// walking existing sidecars. Unreadable or malformed sidecars, and sidecars
// whose body file is missing, are skipped silently rather than failing
// startup.
func NewFilesystemBackend(root string) (*FilesystemBackend, error) {
	if err := os.MkdirAll(root, 0o755); err != nil {
		return nil, fmt.Errorf("cache: create filesystem root: %w", err)
	}
	fb := &FilesystemBackend{root: root, index: NewMemoryBackend()}
	if err := fb.reload(); err != nil {
		return nil, err
	}
	return fb, nil
}

func (fb *FilesystemBackend) reload() error {
	entries, err := os.ReadDir(fb.root)
	if err != nil {
		return err
	}
	for _, e := range entries {
		if !e.IsDir() {
			continue
		}
		dir := filepath.Join(fb.root, e.Name())
		tierFiles, err := os.ReadDir(dir)
		if err != nil {
			continue
		}
		for _, tf := range tierFiles {
			if !strings.HasSuffix(tf.Name(), ".meta.json") {
				continue
			}
			metaPath := filepath.Join(dir, tf.Name())
			raw, err := os.ReadFile(metaPath)
			if err != nil {
				continue
			}
			var sc sidecar
			if err := sonic.Unmarshal(raw, &sc); err != nil {
				continue // malformed sidecar: skip, don't crash startup
			}
			bodyPath := strings.TrimSuffix(metaPath, ".meta.json") + ".dat"
			body, err := os.ReadFile(bodyPath)
			if err != nil {
				continue
			}
			fb.index.Put(&stored{
				URI:         sc.URI,
				OriginURL:   sc.OriginURL,
				Fingerprint: fingerprint.Key(sc.Fingerprint),
				Tier:        models.Tier(sc.Tier),
				MimeType:    sc.MimeType,
				Body:        body,
				StoredAt:    sc.StoredAt,
			})
		}
	}
	return nil
}

func (fb *FilesystemBackend) dirFor(originURL string) string {
	h := sha256.Sum256([]byte(originURL))
	slug := slugify(originURL)
	return filepath.Join(fb.root, slug+"_"+hex.EncodeToString(h[:8]))
}

func slugify(rawURL string) string {
	u, err := url.Parse(rawURL)
	if err != nil || u.Hostname() == "" {
		return "url"
	}
	s := u.Hostname() + strings.ReplaceAll(u.Path, "/", "-")
	s = strings.Trim(s, "-")
	if len(s) > 80 {
		s = s[:80]
	}
	if s == "" {
		return "url"
	}
	return s
}

func (fb *FilesystemBackend) Put(s *stored) (string, error) {
	if s.URI == "" {
		return "", fmt.Errorf("cache: Put requires a non-empty URI")
	}

	fb.wmu.Lock()
	defer fb.wmu.Unlock()

	dir := fb.dirFor(s.OriginURL)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("cache: mkdir tier dir: %w", err)
	}

	bodyPath := filepath.Join(dir, string(s.Tier)+".dat")
	metaPath := filepath.Join(dir, string(s.Tier)+".meta.json")

	if err := writeAtomic(bodyPath, s.Body); err != nil {
		return "", fmt.Errorf("cache: write body: %w", err)
	}

	sc := sidecar{
		URI:            s.URI,
		OriginURL:      s.OriginURL,
		Fingerprint:    string(s.Fingerprint),
		Tier:           string(s.Tier),
		MimeType:       s.MimeType,
		SourceStrategy: s.Metadata.SourceStrategy,
		ExtractPrompt:  s.Metadata.ExtractPrompt,
		StoredAt:       s.StoredAt,
	}
	raw, err := sonic.Marshal(&sc)
	if err != nil {
		return "", fmt.Errorf("cache: marshal sidecar: %w", err)
	}
	if err := writeAtomic(metaPath, raw); err != nil {
		return "", fmt.Errorf("cache: write sidecar: %w", err)
	}

	return fb.index.Put(s)
}

// writeAtomic writes data to a temp file in the target's directory then
// renames it into place, so a reader never observes a partial write.
func writeAtomic(path string, data []byte) error {
	dir := filepath.Dir(path)
	tmp, err := os.CreateTemp(dir, ".tmp-*")
	if err != nil {
		return err
	}
	tmpPath := tmp.Name()
	defer os.Remove(tmpPath) // no-op once renamed

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	return os.Rename(tmpPath, path)
}

func (fb *FilesystemBackend) Get(fp fingerprint.Key) (*stored, bool) { return fb.index.Get(fp) }

func (fb *FilesystemBackend) GetByURI(uri string) (*stored, bool) { return fb.index.GetByURI(uri) }

func (fb *FilesystemBackend) FindByURL(originURL string) []*stored { return fb.index.FindByURL(originURL) }

func (fb *FilesystemBackend) List() []*stored { return fb.index.List() }

func (fb *FilesystemBackend) Delete(uri string) error {
	s, ok := fb.index.GetByURI(uri)
	if !ok {
		return nil
	}
	fb.wmu.Lock()
	dir := fb.dirFor(s.OriginURL)
	_ = os.Remove(filepath.Join(dir, string(s.Tier)+".dat"))
	_ = os.Remove(filepath.Join(dir, string(s.Tier)+".meta.json"))
	fb.wmu.Unlock()
	return fb.index.Delete(uri)
}

func (fb *FilesystemBackend) Size() int64 { return fb.index.Size() }

func (fb *FilesystemBackend) Count() int { return fb.index.Count() }

func (fb *FilesystemBackend) EvictOldest() (string, bool) {
	all := fb.index.List() // most-recently-used first
	if len(all) == 0 {
		return "", false
	}
	uri := all[len(all)-1].URI
	_ = fb.Delete(uri) // removes the files, then the index entry
	return uri, true
}
