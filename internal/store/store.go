// Package store persists solved traces in an embedded BadgerDB so they can
// be replayed after the process restarts.
package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"sort"
	"sync"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/google/uuid"

	"github.com/awmpietro/algotrace/internal/trace"
)

var ErrNotFound = errors.New("trace not found")

const (
	tracePrefix   = "trace/"
	summaryPrefix = "summary/"
)

type Config struct {
	// Path is ignored when InMemory is true.
	Path       string
	InMemory   bool
	SyncWrites bool
	// Retention expires records after the given age. Zero keeps them.
	Retention time.Duration
	// MaxRecords caps the number of live records; Save prunes the oldest
	// once it is exceeded. Zero means no cap.
	MaxRecords int
	// Logger receives badger's internal logs. Nil silences them.
	Logger *slog.Logger
}

// Record is a persisted trace together with the request that produced it.
type Record struct {
	ID        string          `json:"id"`
	Algorithm string          `json:"algorithm"`
	Variant   string          `json:"variant"`
	Hash      string          `json:"hash"`
	CreatedAt time.Time       `json:"created_at"`
	Input     json.RawMessage `json:"input,omitempty"`
	Trace     *trace.Trace    `json:"trace"`
}

// Summary is the list view of a Record, stored separately so List does not
// decode whole traces.
type Summary struct {
	ID          string    `json:"id"`
	Algorithm   string    `json:"algorithm"`
	Variant     string    `json:"variant"`
	Hash        string    `json:"hash"`
	CreatedAt   time.Time `json:"created_at"`
	ResultValue int       `json:"result_value"`
	StepCount   int       `json:"step_count"`
}

func (r Record) Summary() Summary {
	s := Summary{
		ID:        r.ID,
		Algorithm: r.Algorithm,
		Variant:   r.Variant,
		Hash:      r.Hash,
		CreatedAt: r.CreatedAt,
	}
	if r.Trace != nil {
		s.ResultValue = r.Trace.ResultValue
		s.StepCount = len(r.Trace.Steps)
	}
	return s
}

type Badger struct {
	db         *badger.DB
	now        func() time.Time
	retention  time.Duration
	maxRecords int

	// mu guards count, an upper bound on live records. Expired records are
	// only subtracted when prune recounts.
	mu    sync.Mutex
	count int
}

type badgerLogger struct {
	logger *slog.Logger
}

func (l *badgerLogger) Errorf(format string, args ...interface{}) {
	l.logger.Error(fmt.Sprintf(format, args...))
}

func (l *badgerLogger) Warningf(format string, args ...interface{}) {
	l.logger.Warn(fmt.Sprintf(format, args...))
}

func (l *badgerLogger) Infof(format string, args ...interface{}) {
	l.logger.Info(fmt.Sprintf(format, args...))
}

func (l *badgerLogger) Debugf(format string, args ...interface{}) {
	l.logger.Debug(fmt.Sprintf(format, args...))
}

func Open(cfg Config) (*Badger, error) {
	if !cfg.InMemory && cfg.Path == "" {
		return nil, errors.New("path is required for persistent store")
	}

	var opts badger.Options
	if cfg.InMemory {
		opts = badger.DefaultOptions("").WithInMemory(true)
	} else {
		if err := os.MkdirAll(cfg.Path, 0o750); err != nil {
			return nil, fmt.Errorf("create store directory %s: %w", cfg.Path, err)
		}
		opts = badger.DefaultOptions(cfg.Path)
	}
	opts = opts.WithSyncWrites(cfg.SyncWrites).WithNumVersionsToKeep(1)

	if cfg.Logger != nil {
		opts = opts.WithLogger(&badgerLogger{logger: cfg.Logger})
	} else {
		opts = opts.WithLogger(nil)
	}

	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("open badger store: %w", err)
	}
	b := &Badger{db: db, now: time.Now, retention: cfg.Retention, maxRecords: cfg.MaxRecords}
	if b.maxRecords > 0 {
		n, err := b.countRecords()
		if err != nil {
			_ = db.Close()
			return nil, err
		}
		b.count = n
	}
	return b, nil
}

// Save assigns an ID and timestamp when missing and returns the stored record.
func (b *Badger) Save(ctx context.Context, rec Record) (Record, error) {
	if err := ctx.Err(); err != nil {
		return Record{}, err
	}
	if rec.Trace == nil {
		return Record{}, errors.New("record has no trace")
	}
	if rec.ID == "" {
		rec.ID = uuid.NewString()
	}
	if rec.CreatedAt.IsZero() {
		rec.CreatedAt = b.now().UTC()
	}

	full, err := json.Marshal(rec)
	if err != nil {
		return Record{}, fmt.Errorf("encode record %s: %w", rec.ID, err)
	}
	summary, err := json.Marshal(rec.Summary())
	if err != nil {
		return Record{}, fmt.Errorf("encode summary %s: %w", rec.ID, err)
	}

	err = b.db.Update(func(txn *badger.Txn) error {
		if err := txn.SetEntry(b.entry(tracePrefix+rec.ID, full)); err != nil {
			return err
		}
		return txn.SetEntry(b.entry(summaryPrefix+rec.ID, summary))
	})
	if err != nil {
		return Record{}, fmt.Errorf("save record %s: %w", rec.ID, err)
	}
	if err := b.admit(ctx); err != nil {
		return Record{}, err
	}
	return rec, nil
}

func (b *Badger) entry(key string, val []byte) *badger.Entry {
	e := badger.NewEntry([]byte(key), val)
	if b.retention > 0 {
		e = e.WithTTL(b.retention)
	}
	return e
}

// admit counts a new record and prunes down to 90% of MaxRecords once the
// cap is passed.
func (b *Badger) admit(ctx context.Context) error {
	if b.maxRecords <= 0 {
		return nil
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	b.count++
	if b.count <= b.maxRecords {
		return nil
	}
	keep := b.maxRecords - b.maxRecords/10
	if keep < 1 {
		keep = 1
	}
	n, err := b.prune(ctx, keep)
	if err != nil {
		return fmt.Errorf("prune records: %w", err)
	}
	b.count = n
	return nil
}

// prune deletes the oldest records until at most keep remain and returns
// the number left.
func (b *Badger) prune(ctx context.Context, keep int) (int, error) {
	all, err := b.List(ctx, 0)
	if err != nil {
		return 0, err
	}
	if len(all) <= keep {
		return len(all), nil
	}
	wb := b.db.NewWriteBatch()
	defer wb.Cancel()
	for _, s := range all[keep:] {
		if err := wb.Delete([]byte(tracePrefix + s.ID)); err != nil {
			return 0, err
		}
		if err := wb.Delete([]byte(summaryPrefix + s.ID)); err != nil {
			return 0, err
		}
	}
	if err := wb.Flush(); err != nil {
		return 0, err
	}
	return keep, nil
}

func (b *Badger) countRecords() (int, error) {
	n := 0
	prefix := []byte(summaryPrefix)
	err := b.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = prefix
		opts.PrefetchValues = false
		it := txn.NewIterator(opts)
		defer it.Close()
		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			n++
		}
		return nil
	})
	if err != nil {
		return 0, fmt.Errorf("count records: %w", err)
	}
	return n, nil
}

func (b *Badger) Load(ctx context.Context, id string) (Record, error) {
	if err := ctx.Err(); err != nil {
		return Record{}, err
	}

	var rec Record
	err := b.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get([]byte(tracePrefix + id))
		if errors.Is(err, badger.ErrKeyNotFound) {
			return ErrNotFound
		}
		if err != nil {
			return err
		}
		return item.Value(func(val []byte) error {
			return json.Unmarshal(val, &rec)
		})
	})
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return Record{}, fmt.Errorf("%w: %s", ErrNotFound, id)
		}
		return Record{}, fmt.Errorf("load record %s: %w", id, err)
	}
	return rec, nil
}

// List returns up to limit summaries, newest first. A limit <= 0 returns all.
func (b *Badger) List(ctx context.Context, limit int) ([]Summary, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	out := []Summary{}
	prefix := []byte(summaryPrefix)
	err := b.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = prefix
		it := txn.NewIterator(opts)
		defer it.Close()

		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			var s Summary
			if err := it.Item().Value(func(val []byte) error {
				return json.Unmarshal(val, &s)
			}); err != nil {
				return fmt.Errorf("decode %s: %w", it.Item().Key(), err)
			}
			out = append(out, s)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("list records: %w", err)
	}

	sort.SliceStable(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.After(out[j].CreatedAt)
		}
		return out[i].ID < out[j].ID
	})
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (b *Badger) Delete(ctx context.Context, id string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	err := b.db.Update(func(txn *badger.Txn) error {
		if _, err := txn.Get([]byte(tracePrefix + id)); err != nil {
			if errors.Is(err, badger.ErrKeyNotFound) {
				return ErrNotFound
			}
			return err
		}
		if err := txn.Delete([]byte(tracePrefix + id)); err != nil {
			return err
		}
		return txn.Delete([]byte(summaryPrefix + id))
	})
	if err == nil && b.maxRecords > 0 {
		b.mu.Lock()
		b.count--
		b.mu.Unlock()
	}
	if errors.Is(err, ErrNotFound) {
		return fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	if err != nil {
		return fmt.Errorf("delete record %s: %w", id, err)
	}
	return nil
}

func (b *Badger) Close() error {
	return b.db.Close()
}
