package docstore

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/Azure/azure-sdk-for-go/sdk/data/aztables"
)

// Store is the process-wide registry of named collections. It is safe for
// concurrent use.
type Store struct {
	svc *aztables.ServiceClient

	mu     sync.RWMutex
	tables map[string]Table
}

// New creates a Store whose collections live in the Azure Storage account
// named by connStr.
func New(connStr string) (*Store, error) {
	svc, err := aztables.NewServiceClientFromConnectionString(connStr, tableClientOptions())
	if err != nil {
		return nil, err
	}
	return &Store{svc: svc, tables: map[string]Table{}}, nil
}

// NewMemory creates a Store whose collections are in-memory tables.
func NewMemory() *Store {
	return &Store{tables: map[string]Table{}}
}

// Register adds collections backed by the store's default table kind.
// Already registered names are left alone.
func (s *Store) Register(names ...string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, name := range names {
		if _, ok := s.tables[name]; ok {
			continue
		}
		if s.svc == nil {
			s.tables[name] = NewMemoryTable()
			continue
		}
		s.tables[name] = &azureTable{client: s.svc.NewClient(name)}
	}
}

// Attach registers t under name, replacing any previous table.
func (s *Store) Attach(name string, t Table) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.tables[name] = t
}

// Decorate wraps every registered table, e.g. with a cache.
func (s *Store) Decorate(wrap func(name string, t Table) Table) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for name, t := range s.tables {
		s.tables[name] = wrap(name, t)
	}
}

func (s *Store) Table(name string) (Table, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	t, ok := s.tables[name]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownCollection, name)
	}
	return t, nil
}

// Names lists the registered collections in sorted order.
func (s *Store) Names() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	names := make([]string, 0, len(s.tables))
	for name := range s.tables {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

type creator interface {
	Create(ctx context.Context) error
}

type unwrapper interface {
	Unwrap() Table
}

// EnsureTables creates the backing tables that need creating. Tables that
// already exist are left untouched.
func (s *Store) EnsureTables(ctx context.Context) error {
	for _, name := range s.Names() {
		t, err := s.Table(name)
		if err != nil {
			return err
		}
		for {
			if u, ok := t.(unwrapper); ok {
				t = u.Unwrap()
				continue
			}
			break
		}
		c, ok := t.(creator)
		if !ok {
			continue
		}
		if err := c.Create(ctx); err != nil {
			return fmt.Errorf("create table %s: %w", name, err)
		}
	}
	return nil
}
