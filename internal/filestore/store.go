package filestore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sync"

	"github.com/ariefcatur/go-quickcart/internal/orders"
)

const (
	UsersFile    = "users.json"
	ProductsFile = "products.json"
	OrdersFile   = "orders.json"
)

// Store keeps the ledger as three JSON documents in one directory. A missing
// file reads as an empty collection.
type Store struct {
	mu  sync.Mutex
	dir string
}

func Open(dir string) (*Store, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create data dir: %w", err)
	}
	return &Store{dir: dir}, nil
}

func (s *Store) Dir() string { return s.dir }

func (s *Store) Load(ctx context.Context) (orders.Snapshot, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := ctx.Err(); err != nil {
		return orders.Snapshot{}, err
	}

	snap := orders.NewSnapshot()
	if err := s.readJSON(UsersFile, &snap.Users); err != nil {
		return orders.Snapshot{}, err
	}
	if err := s.readJSON(ProductsFile, &snap.Products); err != nil {
		return orders.Snapshot{}, err
	}
	if err := s.readJSON(OrdersFile, &snap.Orders); err != nil {
		return orders.Snapshot{}, err
	}
	return snap, nil
}

func (s *Store) Save(ctx context.Context, snap orders.Snapshot) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := s.writeJSON(UsersFile, snap.Users); err != nil {
		return err
	}
	if err := s.writeJSON(ProductsFile, snap.Products); err != nil {
		return err
	}
	return s.writeJSON(OrdersFile, snap.Orders)
}

func (s *Store) readJSON(name string, out any) error {
	b, err := os.ReadFile(filepath.Join(s.dir, name))
	if errors.Is(err, fs.ErrNotExist) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("read %s: %w", name, err)
	}
	if len(b) == 0 {
		return nil
	}
	if err := json.Unmarshal(b, out); err != nil {
		return fmt.Errorf("decode %s: %w", name, err)
	}
	return nil
}

// writeJSON replaces name through a temp file and rename so a crash never
// leaves a half-written document behind.
func (s *Store) writeJSON(name string, v any) error {
	b, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("encode %s: %w", name, err)
	}
	tmp, err := os.CreateTemp(s.dir, name+".*.tmp")
	if err != nil {
		return fmt.Errorf("write %s: %w", name, err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(append(b, '\n')); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("write %s: %w", name, err)
	}
	if err := tmp.Sync(); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("sync %s: %w", name, err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close %s: %w", name, err)
	}
	if err := os.Rename(tmp.Name(), filepath.Join(s.dir, name)); err != nil {
		return fmt.Errorf("replace %s: %w", name, err)
	}
	return nil
}
