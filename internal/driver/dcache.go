package driver

import (
	"crypto/sha256"
	"encoding/binary"
	"encoding/hex"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/vmihailenco/msgpack/v5"

	"dotgate/internal/diag"
	"dotgate/internal/interop"
	"dotgate/internal/source"
	"dotgate/internal/verify"
)

// Current schema version - increment when DiskPayload format changes
const diskCacheSchemaVersion uint16 = 2

// Digest is a SHA-256 cache key.
type Digest [32]byte

func (d Digest) String() string { return hex.EncodeToString(d[:]) }

// UnitKey identifies a verification result: the unit document, the catalog
// that checked it and the publishable flag.
func UnitKey(data []byte, fingerprint string, publishable bool) Digest {
	h := sha256.New()
	var hdr [3]byte
	binary.BigEndian.PutUint16(hdr[:2], diskCacheSchemaVersion)
	if publishable {
		hdr[2] = 1
	}
	_, _ = h.Write(hdr[:])
	_, _ = h.Write([]byte(fingerprint))
	_, _ = h.Write([]byte{0})
	_, _ = h.Write(data)
	var out Digest
	copy(out[:], h.Sum(nil))
	return out
}

// DiskCache хранит результаты проверки юнитов на диске по UnitKey.
// Thread-safe for concurrent access.
type DiskCache struct {
	mu  sync.RWMutex
	dir string
}

// DiskPayload is the cached verification result of one unit. Spans are
// stored without their FileID and rebound on restore.
type DiskPayload struct {
	// Schema version for safe invalidation when format changes
	Schema      uint16              `msgpack:"schema"`
	Proceed     bool                `msgpack:"proceed"`
	Diagnostics []CachedDiagnostic  `msgpack:"diagnostics"`
	Metadata    []interop.Signature `msgpack:"metadata"`
}

// CachedDiagnostic is a diagnostic reduced to its code, position and
// arguments; message and severity come back from the registry.
type CachedDiagnostic struct {
	Code  uint16       `msgpack:"code"`
	Span  CachedSpan   `msgpack:"span"`
	Args  []CachedArg  `msgpack:"args,omitempty"`
	Notes []CachedNote `msgpack:"notes,omitempty"`
	Fixes []CachedFix  `msgpack:"fixes,omitempty"`
}

type CachedSpan struct {
	Start uint32 `msgpack:"s"`
	End   uint32 `msgpack:"e"`
	// Zero marks a span without a file (zero source.Span).
	Zero bool `msgpack:"z,omitempty"`
}

type CachedArg struct {
	Kind uint8  `msgpack:"k"`
	Text string `msgpack:"t"`
}

type CachedNote struct {
	Span CachedSpan `msgpack:"span"`
	Msg  string     `msgpack:"msg"`
}

type CachedFix struct {
	Title string       `msgpack:"title"`
	Edits []CachedEdit `msgpack:"edits"`
}

type CachedEdit struct {
	Span    CachedSpan `msgpack:"span"`
	NewText string     `msgpack:"text"`
}

// OpenDiskCache opens dir, or <user cache dir>/<app> when dir is empty.
func OpenDiskCache(app, dir string) (*DiskCache, error) {
	if dir == "" {
		base := os.Getenv("XDG_CACHE_HOME")
		if base == "" {
			home, err := os.UserHomeDir()
			if err != nil {
				return nil, err
			}
			base = filepath.Join(home, ".cache")
		}
		dir = filepath.Join(base, app)
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("open cache: %w", err)
	}
	return &DiskCache{dir: dir}, nil
}

// Dir returns the cache directory.
func (c *DiskCache) Dir() string { return c.dir }

func (c *DiskCache) pathFor(key Digest) string {
	// Для удобства чистки: подкаталог "units".
	return filepath.Join(c.dir, "units", key.String()+".mp")
}

// Put serializes and writes a payload to the disk cache.
func (c *DiskCache) Put(key Digest, payload *DiskPayload) error {
	if c == nil {
		return nil
	}
	c.mu.Lock()
	defer c.mu.Unlock()

	p := c.pathFor(key)
	if err := os.MkdirAll(filepath.Dir(p), 0o755); err != nil {
		return err
	}
	f, err := os.CreateTemp(filepath.Dir(p), "tmp-*")
	if err != nil {
		return err
	}
	tmp := f.Name()
	defer os.Remove(tmp) //nolint:errcheck // already renamed on success

	if err := msgpack.NewEncoder(f).Encode(payload); err != nil {
		_ = f.Close()
		return fmt.Errorf("encode cache entry: %w", err)
	}
	if err := f.Close(); err != nil {
		return err
	}
	// Атомарная замена
	return os.Rename(tmp, p)
}

// Get reads a payload. A missing entry or an entry of another schema is a
// miss, not an error.
func (c *DiskCache) Get(key Digest, out *DiskPayload) (bool, error) {
	if c == nil {
		return false, nil
	}
	c.mu.RLock()
	defer c.mu.RUnlock()

	f, err := os.Open(c.pathFor(key))
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return false, nil
		}
		return false, err
	}
	defer f.Close()

	if err := msgpack.NewDecoder(f).Decode(out); err != nil {
		return false, fmt.Errorf("decode cache entry %s: %w", key, err)
	}
	return out.Schema == diskCacheSchemaVersion, nil
}

// DropAll removes every cached entry.
func (c *DiskCache) DropAll() error {
	if c == nil {
		return nil
	}
	c.mu.Lock()
	defer c.mu.Unlock()

	// переименуем каталог, чтобы параллельные читатели видели промах, затем удалим
	units := filepath.Join(c.dir, "units")
	old := units + ".old-" + time.Now().Format("20060102150405")
	if err := os.Rename(units, old); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil
		}
		return err
	}
	return os.RemoveAll(old)
}

// NewPayload captures r for the cache. r must come from a pass without a
// diagnostic cap.
func NewPayload(r *verify.Result) *DiskPayload {
	p := &DiskPayload{
		Schema:      diskCacheSchemaVersion,
		Proceed:     r.Proceed,
		Diagnostics: make([]CachedDiagnostic, 0, r.Bag.Len()),
		Metadata:    r.Metadata,
	}
	for _, d := range r.Bag.Items() {
		cd := CachedDiagnostic{
			Code: uint16(d.Code),
			Span: cacheSpan(d.Primary),
		}
		for _, a := range d.Args {
			kind, _ := diag.ArgKindOf(a)
			cd.Args = append(cd.Args, CachedArg{Kind: uint8(kind), Text: diag.FormatArg(a)})
		}
		for _, n := range d.Notes {
			cd.Notes = append(cd.Notes, CachedNote{Span: cacheSpan(n.Span), Msg: n.Msg})
		}
		for _, fx := range d.Fixes {
			cf := CachedFix{Title: fx.Title}
			for _, e := range fx.Edits {
				cf.Edits = append(cf.Edits, CachedEdit{Span: cacheSpan(e.Span), NewText: e.NewText})
			}
			cd.Fixes = append(cd.Fixes, cf)
		}
		p.Diagnostics = append(p.Diagnostics, cd)
	}
	return p
}

// Restore rebuilds a unit result with spans bound to file. Entries whose
// codes or argument signatures no longer match the registry are rejected.
func (p *DiskPayload) Restore(file source.FileID, maxDiagnostics int) (res UnitResult, err error) {
	defer func() {
		if r := recover(); r != nil {
			var sigErr *diag.SignatureError
			if e, ok := r.(error); ok && errors.As(e, &sigErr) {
				err = fmt.Errorf("stale cache entry: %w", sigErr)
				return
			}
			panic(r)
		}
	}()

	bag := diag.NewBag(maxDiagnostics)
	for _, cd := range p.Diagnostics {
		id, ok := diag.Lookup(diag.Code(cd.Code))
		if !ok {
			return UnitResult{}, fmt.Errorf("stale cache entry: unknown code %d", cd.Code)
		}
		args := make([]any, len(cd.Args))
		for i, a := range cd.Args {
			if args[i], err = diag.ParseArg(diag.ArgKind(a.Kind), a.Text); err != nil {
				return UnitResult{}, fmt.Errorf("stale cache entry: %w", err)
			}
		}
		d := diag.Instantiate(id, diag.At(cd.Span.bind(file)), args...)
		for _, n := range cd.Notes {
			d = d.WithNote(n.Span.bind(file), n.Msg)
		}
		for _, fx := range cd.Fixes {
			edits := make([]diag.FixEdit, len(fx.Edits))
			for i, e := range fx.Edits {
				edits[i] = diag.FixEdit{Span: e.Span.bind(file), NewText: e.NewText}
			}
			d = d.WithFix(fx.Title, edits...)
		}
		bag.Add(d)
	}
	if bag.HasErrors() == p.Proceed {
		return UnitResult{}, errors.New("stale cache entry: gate disagrees with diagnostics")
	}
	return UnitResult{
		Bag:      bag,
		Proceed:  p.Proceed,
		Cached:   true,
		Metadata: p.Metadata,
	}, nil
}

func cacheSpan(sp source.Span) CachedSpan {
	if sp.IsZero() {
		return CachedSpan{Zero: true}
	}
	return CachedSpan{Start: sp.Start, End: sp.End}
}

func (s CachedSpan) bind(file source.FileID) source.Span {
	if s.Zero {
		return source.Span{}
	}
	return source.Span{File: file, Start: s.Start, End: s.End}
}
