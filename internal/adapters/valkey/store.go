package valkey

import (
	"context"
	"fmt"

	"github.com/valkey-io/valkey-go"

	"github.com/transtime/routeplanner/internal/core/domain"
)

// Store implements ports.StateStore using Valkey (Redis-compatible).
// Entries have no TTL: saved routes and preferences live until the user
// removes them.
type Store struct {
	client valkey.Client
	prefix string
}

// New creates a new Valkey state store. prefix namespaces every key so
// several deployments can share one instance.
func New(addr, prefix string) (*Store, error) {
	client, err := valkey.NewClient(valkey.ClientOption{
		InitAddress: []string{addr},
	})
	if err != nil {
		return nil, fmt.Errorf("valkey connect: %w", err)
	}
	return &Store{client: client, prefix: prefix}, nil
}

// Get retrieves a value by key. Absent keys map to domain.ErrNotFound.
func (s *Store) Get(ctx context.Context, key string) ([]byte, error) {
	cmd := s.client.Do(ctx, s.client.B().Get().Key(s.prefix+key).Build())
	if err := cmd.Error(); err != nil {
		if valkey.IsValkeyNil(err) {
			return nil, fmt.Errorf("%w: %s", domain.ErrNotFound, key)
		}
		return nil, err
	}
	return cmd.AsBytes()
}

// Set stores a value without expiry.
func (s *Store) Set(ctx context.Context, key string, value []byte) error {
	cmd := s.client.Do(ctx, s.client.B().Set().Key(s.prefix+key).Value(string(value)).Build())
	return cmd.Error()
}

// Delete removes a key.
func (s *Store) Delete(ctx context.Context, key string) error {
	cmd := s.client.Do(ctx, s.client.B().Del().Key(s.prefix+key).Build())
	return cmd.Error()
}

// Close releases the client.
func (s *Store) Close() {
	s.client.Close()
}
