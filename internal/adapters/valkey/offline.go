package valkey

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/valkey-io/valkey-go"

	"github.com/transtime/routeplanner/internal/offline"
)

const offlinePrefix = "offline:"

// OfflineStore implements offline.Store on Valkey. Keys are namespaced by
// cache version; opening a version deletes every other version's keys.
type OfflineStore struct {
	client  valkey.Client
	version string
}

// NewOfflineStore opens the store for a cache version and purges entries
// of any other version.
func NewOfflineStore(ctx context.Context, addr, version string) (*OfflineStore, error) {
	client, err := valkey.NewClient(valkey.ClientOption{
		InitAddress: []string{addr},
	})
	if err != nil {
		return nil, fmt.Errorf("valkey connect: %w", err)
	}
	s := &OfflineStore{client: client, version: version}
	if err := s.purgeOtherVersions(ctx); err != nil {
		client.Close()
		return nil, err
	}
	return s, nil
}

func (s *OfflineStore) purgeOtherVersions(ctx context.Context) error {
	keep := offlinePrefix + s.version + ":"
	var cursor uint64
	for {
		cmd := s.client.Do(ctx, s.client.B().Scan().Cursor(cursor).Match(offlinePrefix+"*").Count(200).Build())
		entry, err := cmd.AsScanEntry()
		if err != nil {
			return fmt.Errorf("scan offline keys: %w", err)
		}
		for _, key := range entry.Elements {
			if strings.HasPrefix(key, keep) {
				continue
			}
			if err := s.client.Do(ctx, s.client.B().Del().Key(key).Build()).Error(); err != nil {
				return fmt.Errorf("purge %s: %w", key, err)
			}
		}
		cursor = entry.Cursor
		if cursor == 0 {
			return nil
		}
	}
}

func (s *OfflineStore) key(k string) string {
	return offlinePrefix + s.version + ":" + k
}

func (s *OfflineStore) Get(ctx context.Context, key string) (*offline.Entry, bool, error) {
	cmd := s.client.Do(ctx, s.client.B().Get().Key(s.key(key)).Build())
	if err := cmd.Error(); err != nil {
		if valkey.IsValkeyNil(err) {
			return nil, false, nil
		}
		return nil, false, err
	}
	raw, err := cmd.AsBytes()
	if err != nil {
		return nil, false, err
	}
	var e offline.Entry
	if err := json.Unmarshal(raw, &e); err != nil {
		return nil, false, fmt.Errorf("decode cached entry: %w", err)
	}
	return &e, true, nil
}

func (s *OfflineStore) Put(ctx context.Context, key string, e *offline.Entry) error {
	raw, err := json.Marshal(e)
	if err != nil {
		return err
	}
	return s.client.Do(ctx, s.client.B().Set().Key(s.key(key)).Value(string(raw)).Build()).Error()
}

func (s *OfflineStore) Delete(ctx context.Context, key string) error {
	return s.client.Do(ctx, s.client.B().Del().Key(s.key(key)).Build()).Error()
}

// Close releases the client.
func (s *OfflineStore) Close() {
	s.client.Close()
}
