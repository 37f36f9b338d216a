package format

import (
	"fmt"
	"io"
	"sort"
	"strings"
	"sync"

	"github.com/roach88/wallet/internal/wallet"
)

// ID names an interchange format.
type ID string

// Built-in formats.
const (
	CSV  ID = "csv"
	JSON ID = "json"
	YAML ID = "yaml"
)

// Adapter reads and writes one interchange format.
//
// Read returns either a complete, validated Dataset or an error. Write
// emits every record of d in order; the caller owns w and closes it.
type Adapter interface {
	Write(w io.Writer, d *Dataset) error
	Read(r io.Reader) (*Dataset, error)
}

// Dataset is the logical content of one interchange stream.
type Dataset struct {
	Groups      []wallet.Group
	Cards       []wallet.Card
	Memberships []wallet.Membership
}

// Validate checks cross-record rules that no single record can: group names
// must be non-empty and every membership must reference a card in the set.
func (d *Dataset) Validate() error {
	for i, g := range d.Groups {
		if strings.TrimSpace(g.Name) == "" {
			return &FieldError{Record: i + 1, Column: ColumnGroupName, Value: g.Name, Err: fmt.Errorf("group name is empty")}
		}
	}

	ids := make(map[int64]struct{}, len(d.Cards))
	for _, c := range d.Cards {
		if c.ID > 0 {
			ids[c.ID] = struct{}{}
		}
	}
	for i, m := range d.Memberships {
		if strings.TrimSpace(m.Group) == "" {
			return &FieldError{Record: i + 1, Column: ColumnMemberGroup, Value: m.Group, Err: fmt.Errorf("group name is empty")}
		}
		if _, ok := ids[m.CardID]; !ok {
			return &FieldError{Record: i + 1, Column: ColumnMemberCard, Value: fmt.Sprint(m.CardID), Err: fmt.Errorf("no card with this id in the source")}
		}
	}
	return nil
}

// Registry maps format IDs to adapters. It is safe for concurrent use.
type Registry struct {
	mu       sync.RWMutex
	adapters map[ID]Adapter
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{adapters: make(map[ID]Adapter)}
}

// Register adds an adapter. Registering an ID twice is an error.
func (r *Registry) Register(id ID, a Adapter) error {
	if id == "" {
		return fmt.Errorf("register format: empty id")
	}
	if a == nil {
		return fmt.Errorf("register format %q: nil adapter", id)
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.adapters[id]; exists {
		return fmt.Errorf("register format %q: already registered", id)
	}
	r.adapters[id] = a
	return nil
}

// Lookup returns the adapter for id. Unknown IDs wrap ErrUnknownFormat.
func (r *Registry) Lookup(id ID) (Adapter, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	a, ok := r.adapters[id]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownFormat, id)
	}
	return a, nil
}

// IDs returns the registered format IDs, canonical csv first and the rest
// sorted.
func (r *Registry) IDs() []ID {
	r.mu.RLock()
	defer r.mu.RUnlock()
	ids := make([]ID, 0, len(r.adapters))
	for id := range r.adapters {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool {
		if (ids[i] == CSV) != (ids[j] == CSV) {
			return ids[i] == CSV
		}
		return ids[i] < ids[j]
	})
	return ids
}

var defaultRegistry = newDefaultRegistry()

func newDefaultRegistry() *Registry {
	r := NewRegistry()
	for id, a := range map[ID]Adapter{
		CSV:  CSVAdapter{},
		JSON: JSONAdapter{},
		YAML: YAMLAdapter{},
	} {
		if err := r.Register(id, a); err != nil {
			panic(err)
		}
	}
	return r
}

// Default returns the registry holding the built-in formats.
func Default() *Registry { return defaultRegistry }

// Lookup returns a built-in adapter.
func Lookup(id ID) (Adapter, error) { return defaultRegistry.Lookup(id) }

// ParseID normalises a user-supplied format name.
func ParseID(s string) (ID, error) {
	id := ID(strings.ToLower(strings.TrimSpace(s)))
	if id == "" {
		return "", fmt.Errorf("%w: empty name", ErrUnknownFormat)
	}
	return id, nil
}
