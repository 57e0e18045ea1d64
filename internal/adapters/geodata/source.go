package geodata

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/transtime/routeplanner/internal/core/domain"
)

// Source fetches regulatory layer documents over HTTP. It implements
// ports.GeodataSource.
type Source struct {
	baseURL string
	http    *http.Client
}

// New creates a geodata source rooted at baseURL.
func New(baseURL string, timeout time.Duration) *Source {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &Source{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Timeout: timeout},
	}
}

// FetchLayer retrieves one layer document by its source filename. A 404
// means the dataset is not published yet and maps to domain.ErrLayerNoData;
// any other failure maps to domain.ErrLayerLoad.
func (s *Source) FetchLayer(ctx context.Context, sourceFile string) (*domain.FeatureCollection, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.baseURL+"/"+sourceFile, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrLayerLoad, err)
	}
	req.Header.Set("Accept", "application/geo+json, application/json")

	resp, err := s.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrLayerLoad, err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusNotFound:
		io.Copy(io.Discard, io.LimitReader(resp.Body, 4096))
		return nil, fmt.Errorf("%w: %s", domain.ErrLayerNoData, sourceFile)
	case resp.StatusCode != http.StatusOK:
		io.Copy(io.Discard, io.LimitReader(resp.Body, 4096))
		return nil, fmt.Errorf("%w: %s status %d", domain.ErrLayerLoad, sourceFile, resp.StatusCode)
	}

	var fc domain.FeatureCollection
	if err := json.NewDecoder(resp.Body).Decode(&fc); err != nil {
		return nil, fmt.Errorf("%w: %s: %v", domain.ErrLayerLoad, sourceFile, err)
	}
	return &fc, nil
}
