// Package filestore stores raw generated audio behind an opaque locator.
package filestore

import (
	"context"
	"fmt"
	"strings"

	"github.com/igolaizola/moodtune/pkg/filestore/local"
	"github.com/igolaizola/moodtune/pkg/filestore/s3"
)

type fs interface {
	Upload(ctx context.Context, path, name string) error
	Download(ctx context.Context, path, name string) error
	Delete(ctx context.Context, name string) error
}

type Store struct {
	fs fs
}

// SetAudio uploads the file at path under the given locator.
func (s *Store) SetAudio(ctx context.Context, path, name string) error {
	return s.fs.Upload(ctx, path, name)
}

// GetAudio downloads the audio stored under the locator to path.
func (s *Store) GetAudio(ctx context.Context, path, name string) error {
	return s.fs.Download(ctx, path, name)
}

// DeleteAudio removes the audio stored under the locator.
func (s *Store) DeleteAudio(ctx context.Context, name string) error {
	return s.fs.Delete(ctx, name)
}

func New(typ, conn string, debug bool) (*Store, error) {
	var fs fs
	switch typ {
	case "s3":
		split := strings.Split(conn, "@")
		if len(split) != 2 {
			return nil, fmt.Errorf("filestore: invalid s3 connection string %q", conn)
		}
		auth := strings.Split(split[0], ":")
		if len(auth) != 2 {
			return nil, fmt.Errorf("filestore: invalid s3 auth string %q", conn)
		}
		key := auth[0]
		secret := auth[1]
		loc := strings.Split(split[1], ".")
		if len(loc) != 2 {
			return nil, fmt.Errorf("filestore: invalid s3 location string %q", conn)
		}
		bucket := loc[0]
		region := loc[1]
		candidate, err := s3.New(key, secret, region, bucket, debug)
		if err != nil {
			return nil, fmt.Errorf("filestore: %w", err)
		}
		fs = candidate
	case "local":
		fs = local.New(conn, debug)
	default:
		return nil, fmt.Errorf("filestore: unknown file storage type %q", typ)
	}
	return &Store{fs: fs}, nil
}

// WAV is the locator of a procedurally synthesized artifact.
func WAV(id string) string {
	return id + ".wav"
}

// MP3 is the locator of a provider-generated artifact.
func MP3(id string) string {
	return id + ".mp3"
}
