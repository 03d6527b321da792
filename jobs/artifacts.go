package jobs

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
)

// ErrArtifactNotFound is returned for unknown or expired export ids.
var ErrArtifactNotFound = errors.New("jobs: export artifact not found")

// ArtifactStatus tracks an export job through the queue.
type ArtifactStatus string

const (
	StatusPending ArtifactStatus = "pending"
	StatusDone    ArtifactStatus = "done"
	StatusEmpty   ArtifactStatus = "empty"
	StatusFailed  ArtifactStatus = "failed"
)

// Artifact describes a stored export. Data is only populated by Fetch.
type Artifact struct {
	ID        string         `json:"id"`
	Kind      ExportKind     `json:"kind"`
	Status    ArtifactStatus `json:"status"`
	Filename  string         `json:"filename,omitempty"`
	Error     string         `json:"error,omitempty"`
	OwnerID   string         `json:"owner_id,omitempty"`
	UpdatedAt time.Time      `json:"updated_at"`
	Data      []byte         `json:"-"`
}

// ArtifactStore keeps export status and bytes in Redis with a TTL.
type ArtifactStore struct {
	client *redis.Client
	ttl    time.Duration
	now    func() time.Time
}

// NewArtifactStore constructs a store. A non-positive ttl defaults to one hour.
func NewArtifactStore(client *redis.Client, ttl time.Duration) *ArtifactStore {
	if ttl <= 0 {
		ttl = time.Hour
	}
	return &ArtifactStore{client: client, ttl: ttl, now: func() time.Time { return time.Now().UTC() }}
}

func artifactKey(id string) string { return "reports:artifact:" + id }

func artifactMetaKey(id string) string { return artifactKey(id) + ":meta" }

// MarkPending records a freshly enqueued export.
func (s *ArtifactStore) MarkPending(ctx context.Context, id string, kind ExportKind, ownerID string) error {
	return s.writeMeta(ctx, Artifact{ID: id, Kind: kind, Status: StatusPending, OwnerID: ownerID})
}

// Complete stores the rendered bytes and flips the status to done.
func (s *ArtifactStore) Complete(ctx context.Context, id, filename string, data []byte) error {
	meta, err := s.Status(ctx, id)
	if err != nil && !errors.Is(err, ErrArtifactNotFound) {
		return err
	}
	meta.ID = id
	meta.Status = StatusDone
	meta.Filename = filename
	meta.Error = ""
	if err := s.client.Set(ctx, artifactKey(id), data, s.ttl).Err(); err != nil {
		return err
	}
	return s.writeMeta(ctx, meta)
}

// MarkEmpty records that the report had nothing to export.
func (s *ArtifactStore) MarkEmpty(ctx context.Context, id string) error {
	return s.update(ctx, id, StatusEmpty, "")
}

// MarkFailed records a terminal failure.
func (s *ArtifactStore) MarkFailed(ctx context.Context, id string, cause error) error {
	msg := ""
	if cause != nil {
		msg = cause.Error()
	}
	return s.update(ctx, id, StatusFailed, msg)
}

// Status returns export metadata without the payload.
func (s *ArtifactStore) Status(ctx context.Context, id string) (Artifact, error) {
	raw, err := s.client.Get(ctx, artifactMetaKey(id)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return Artifact{}, ErrArtifactNotFound
		}
		return Artifact{}, err
	}
	var meta Artifact
	if err := json.Unmarshal(raw, &meta); err != nil {
		return Artifact{}, err
	}
	return meta, nil
}

// Fetch returns metadata plus bytes for a finished export.
func (s *ArtifactStore) Fetch(ctx context.Context, id string) (Artifact, error) {
	meta, err := s.Status(ctx, id)
	if err != nil {
		return Artifact{}, err
	}
	if meta.Status != StatusDone {
		return meta, nil
	}
	data, err := s.client.Get(ctx, artifactKey(id)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return Artifact{}, ErrArtifactNotFound
		}
		return Artifact{}, err
	}
	meta.Data = data
	return meta, nil
}

func (s *ArtifactStore) update(ctx context.Context, id string, status ArtifactStatus, msg string) error {
	meta, err := s.Status(ctx, id)
	if err != nil && !errors.Is(err, ErrArtifactNotFound) {
		return err
	}
	meta.ID = id
	meta.Status = status
	meta.Error = msg
	return s.writeMeta(ctx, meta)
}

func (s *ArtifactStore) writeMeta(ctx context.Context, meta Artifact) error {
	meta.UpdatedAt = s.now()
	data, err := json.Marshal(meta)
	if err != nil {
		return err
	}
	return s.client.Set(ctx, artifactMetaKey(meta.ID), data, s.ttl).Err()
}
