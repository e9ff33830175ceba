// Copyright 2025, AI Chat Studio Authors
// SPDX-License-Identifier: Apache-2.0

// Package bucketstore persists conversation history to an S3 bucket,
// one JSON object per session.  It implements chatstore.Store so
// deployments without a local disk can still keep history.
package bucketstore

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"path"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"

	"github.com/chatstudiodev/chatstudio/pkg/chatstore"
	"github.com/chatstudiodev/chatstudio/pkg/dispatch"
)

const DefaultHistoryPrefix = "history"

type S3Store struct {
	client *s3.Client
	bucket string
	prefix string
}

var _ chatstore.Store = (*S3Store)(nil)

func InitS3Store(ctx context.Context, bucket string, prefix string) (*S3Store, error) {
	if bucket == "" {
		return nil, fmt.Errorf("no history bucket configured")
	}
	cfg, err := config.LoadDefaultConfig(ctx)
	if err != nil {
		return nil, fmt.Errorf("error loading aws config: %v", err)
	}
	if prefix == "" {
		prefix = DefaultHistoryPrefix
	}
	return &S3Store{
		client: s3.NewFromConfig(cfg),
		bucket: bucket,
		prefix: prefix,
	}, nil
}

func (s *S3Store) sessionKey(sessionId string) string {
	return path.Join(s.prefix, sessionId+".json")
}

func (s *S3Store) GetHistory(ctx context.Context, sessionId string) ([]dispatch.Turn, error) {
	result, err := s.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(s.sessionKey(sessionId)),
	})
	if err != nil {
		var noKey *types.NoSuchKey
		if errors.As(err, &noKey) {
			return nil, nil
		}
		return nil, fmt.Errorf("error reading history object: %v", err)
	}
	defer result.Body.Close()
	data, err := io.ReadAll(result.Body)
	if err != nil {
		return nil, fmt.Errorf("error reading history object body: %v", err)
	}
	var turns []dispatch.Turn
	if err := json.Unmarshal(data, &turns); err != nil {
		return nil, fmt.Errorf("bad history json for session %s: %w", sessionId, err)
	}
	return turns, nil
}

// AppendTurns rewrites the session object with the new turns appended.
// The object is the unit of atomicity here; concurrent writers to the
// same session can race, which matches the single-writer-per-session
// model of the front-end.
func (s *S3Store) AppendTurns(ctx context.Context, sessionId string, turns []dispatch.Turn) error {
	if len(turns) == 0 {
		return nil
	}
	existing, err := s.GetHistory(ctx, sessionId)
	if err != nil {
		return err
	}
	updated := append(existing, turns...)
	data, err := json.Marshal(updated)
	if err != nil {
		return fmt.Errorf("error marshaling history: %v", err)
	}
	_, err = s.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(s.bucket),
		Key:         aws.String(s.sessionKey(sessionId)),
		Body:        bytes.NewReader(data),
		ContentType: aws.String("application/json"),
	})
	if err != nil {
		return fmt.Errorf("error writing history object: %v", err)
	}
	return nil
}

func (s *S3Store) ListSessions(ctx context.Context) ([]string, error) {
	var rtn []string
	input := &s3.ListObjectsV2Input{
		Bucket: aws.String(s.bucket),
		Prefix: aws.String(s.prefix + "/"),
	}
	objectPaginator := s3.NewListObjectsV2Paginator(s.client, input)
	for objectPaginator.HasMorePages() {
		output, err := objectPaginator.NextPage(ctx)
		if err != nil {
			return nil, fmt.Errorf("error listing history objects: %v", err)
		}
		for _, obj := range output.Contents {
			name := path.Base(aws.ToString(obj.Key))
			if strings.HasSuffix(name, ".json") {
				rtn = append(rtn, strings.TrimSuffix(name, ".json"))
			}
		}
	}
	return rtn, nil
}

func (s *S3Store) DeleteSession(ctx context.Context, sessionId string) error {
	_, err := s.client.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(s.sessionKey(sessionId)),
	})
	if err != nil {
		return fmt.Errorf("error deleting history object: %v", err)
	}
	return nil
}
