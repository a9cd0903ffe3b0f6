// Package entry resolves the reference price each symbol's gains and losses
// are measured against.
package entry

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/newthinker/coinalert/internal/core"
	"github.com/newthinker/coinalert/internal/storage/archive"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"
)

// DefaultKey is the storage path of the recorded entries document.
const DefaultKey = "entries.yaml"

// Record is a first-sight price recorded for a symbol without a configured
// entry.
type Record struct {
	Price      float64   `yaml:"price"`
	RecordedAt time.Time `yaml:"recorded_at"`
}

type document struct {
	Version int               `yaml:"version"`
	Entries map[string]Record `yaml:"entries"`
}

// Book resolves entry prices. Configured prices always win; otherwise the
// first valid last price seen for a symbol is recorded and reused.
type Book struct {
	mu       sync.Mutex
	static   map[string]float64
	recorded map[string]Record
	dirty    bool

	store  archive.Storage
	key    string
	logger *zap.Logger
	now    func() time.Time
}

// NewBook creates a book from the configured entry prices. store may be nil,
// in which case recorded entries live only as long as the process.
func NewBook(static map[string]float64, store archive.Storage, key string, logger *zap.Logger) *Book {
	if logger == nil {
		logger = zap.NewNop()
	}
	if key == "" {
		key = DefaultKey
	}
	b := &Book{
		static:   make(map[string]float64, len(static)),
		recorded: make(map[string]Record),
		store:    store,
		key:      key,
		logger:   logger,
		now:      time.Now,
	}
	for sym, p := range static {
		b.static[normalize(sym)] = p
	}
	return b
}

func normalize(symbol string) string {
	return strings.ToUpper(strings.TrimSpace(symbol))
}

// Resolve returns the entry price for symbol. seeded is true when last was
// recorded as the entry by this call. An invalid last price is never
// recorded and resolves to 0 when nothing else is known, which the evaluator
// treats as no entry.
func (b *Book) Resolve(symbol string, last float64) (price float64, seeded bool) {
	sym := normalize(symbol)

	b.mu.Lock()
	defer b.mu.Unlock()

	if p, found := b.static[sym]; found {
		return p, false
	}
	if r, found := b.recorded[sym]; found {
		return r.Price, false
	}
	if !core.ValidPrice(last) {
		return 0, false
	}

	b.recorded[sym] = Record{Price: last, RecordedAt: b.now().UTC()}
	b.dirty = true
	b.logger.Info("entry price recorded",
		zap.String("symbol", sym),
		zap.Float64("price", last),
	)
	return last, true
}

// Recorded returns a copy of the first-sight entries.
func (b *Book) Recorded() map[string]Record {
	b.mu.Lock()
	defer b.mu.Unlock()

	out := make(map[string]Record, len(b.recorded))
	for k, v := range b.recorded {
		out[k] = v
	}
	return out
}

// Load reads recorded entries from the store. A missing document is not an
// error. Entries for symbols that now have a configured price are dropped.
func (b *Book) Load(ctx context.Context) error {
	if b.store == nil {
		return nil
	}

	data, err := b.store.Read(ctx, b.key)
	if errors.Is(err, core.ErrNoData) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("loading entries: %w", err)
	}

	var doc document
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return core.WrapError(core.ErrStorageFailed, fmt.Errorf("parsing %s: %w", b.key, err))
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	for sym, r := range doc.Entries {
		sym = normalize(sym)
		if _, configured := b.static[sym]; configured {
			continue
		}
		if !core.ValidPrice(r.Price) {
			b.logger.Warn("ignoring invalid recorded entry",
				zap.String("symbol", sym),
				zap.Float64("price", r.Price),
			)
			continue
		}
		b.recorded[sym] = r
	}
	return nil
}

// Save writes recorded entries when any were added since the last save.
func (b *Book) Save(ctx context.Context) error {
	if b.store == nil {
		return nil
	}

	b.mu.Lock()
	if !b.dirty {
		b.mu.Unlock()
		return nil
	}
	doc := document{Version: 1, Entries: make(map[string]Record, len(b.recorded))}
	for k, v := range b.recorded {
		doc.Entries[k] = v
	}
	b.mu.Unlock()

	data, err := yaml.Marshal(doc)
	if err != nil {
		return fmt.Errorf("encoding entries: %w", err)
	}
	if err := b.store.Write(ctx, b.key, data); err != nil {
		return fmt.Errorf("saving entries: %w", err)
	}

	b.mu.Lock()
	b.dirty = false
	b.mu.Unlock()

	b.logger.Debug("entries saved", zap.Int("count", len(doc.Entries)), zap.String("key", b.key))
	return nil
}

// Symbols returns every symbol with a configured or recorded entry, sorted.
func (b *Book) Symbols() []string {
	b.mu.Lock()
	defer b.mu.Unlock()

	seen := make(map[string]struct{}, len(b.static)+len(b.recorded))
	for s := range b.static {
		seen[s] = struct{}{}
	}
	for s := range b.recorded {
		seen[s] = struct{}{}
	}
	out := make([]string, 0, len(seen))
	for s := range seen {
		out = append(out, s)
	}
	sort.Strings(out)
	return out
}
