package fs

import (
	"bytes"
	"context"
	"fmt"
	"sort"
	"strconv"
	"strings"
	"sync"

	"github.com/goccy/go-json"
	"github.com/viant/afs"
	"github.com/viant/afs/file"
	"github.com/viant/afs/url"
	"github.com/viant/safealloc/model/process"
	"github.com/viant/safealloc/service/dao"
	"github.com/viant/safealloc/service/dao/criteria"
)

// Service implements an afs-backed process record storage. Every record is
// kept as <baseURL>/<id>.json.
type Service struct {
	baseURL string
	fs      afs.Service
	mu      sync.RWMutex
}

// Ensure Service implements dao.Service
var _ dao.Service[int, process.Record] = (*Service)(nil)

// Save persists a record snapshot.
func (s *Service) Save(ctx context.Context, record *process.Record) error {
	if record == nil {
		return dao.ErrNilEntity
	}
	if record.ID <= 0 {
		return dao.ErrInvalidID
	}
	data, err := json.Marshal(record.Clone())
	if err != nil {
		return fmt.Errorf("failed to marshal record %d: %w", record.ID, err)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	URL := s.recordURL(record.ID)
	if err = s.fs.Upload(ctx, URL, file.DefaultFileOsMode, bytes.NewReader(data)); err != nil {
		return fmt.Errorf("failed to save record to %s: %w", URL, err)
	}
	return nil
}

// Load retrieves a record by id.
func (s *Service) Load(ctx context.Context, id int) (*process.Record, error) {
	if id <= 0 {
		return nil, dao.ErrInvalidID
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	URL := s.recordURL(id)
	exists, err := s.fs.Exists(ctx, URL)
	if err != nil {
		return nil, fmt.Errorf("failed to check if record exists: %w", err)
	}
	if !exists {
		return nil, fmt.Errorf("%w: record %d", dao.ErrNotFound, id)
	}
	data, err := s.fs.DownloadWithURL(ctx, URL)
	if err != nil {
		return nil, fmt.Errorf("failed to read record file: %w", err)
	}
	return decode(data, URL)
}

// Delete removes a record.
func (s *Service) Delete(ctx context.Context, id int) error {
	if id <= 0 {
		return dao.ErrInvalidID
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	URL := s.recordURL(id)
	exists, err := s.fs.Exists(ctx, URL)
	if err != nil {
		return fmt.Errorf("failed to check if record exists: %w", err)
	}
	if !exists {
		return fmt.Errorf("%w: record %d", dao.ErrNotFound, id)
	}
	if err = s.fs.Delete(ctx, URL); err != nil {
		return fmt.Errorf("failed to delete record file: %w", err)
	}
	return nil
}

// List returns stored records matching parameters, ordered by id.
func (s *Service) List(ctx context.Context, parameters ...*dao.Parameter) ([]*process.Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	objects, err := s.fs.List(ctx, s.baseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to list record files: %w", err)
	}
	var records []*process.Record
	for _, object := range objects {
		if object.IsDir() || !strings.HasSuffix(object.Name(), ".json") {
			continue
		}
		data, err := s.fs.Download(ctx, object)
		if err != nil {
			return nil, fmt.Errorf("failed to read record file %s: %w", object.URL(), err)
		}
		record, err := decode(data, object.URL())
		if err != nil {
			return nil, err
		}
		if !criteria.FilterByState(record.State, parameters) {
			continue
		}
		records = append(records, record)
	}
	sort.Slice(records, func(i, j int) bool { return records[i].ID < records[j].ID })
	return records, nil
}

func decode(data []byte, URL string) (*process.Record, error) {
	record := &process.Record{}
	if err := json.Unmarshal(data, record); err != nil {
		return nil, fmt.Errorf("failed to unmarshal record from %s: %w", URL, err)
	}
	return record, nil
}

func (s *Service) recordURL(id int) string {
	return url.Join(s.baseURL, strconv.Itoa(id)+".json")
}

// New creates an afs record storage rooted at baseURL, creating it when missing.
func New(ctx context.Context, fs afs.Service, baseURL string) (*Service, error) {
	if baseURL == "" {
		return nil, fmt.Errorf("base URL cannot be empty")
	}
	if fs == nil {
		fs = afs.New()
	}
	exists, _ := fs.Exists(ctx, baseURL)
	if !exists {
		if err := fs.Create(ctx, baseURL, file.DefaultDirOsMode, true); err != nil {
			return nil, fmt.Errorf("failed to create base directory: %w", err)
		}
	}
	return &Service{baseURL: baseURL, fs: fs}, nil
}
