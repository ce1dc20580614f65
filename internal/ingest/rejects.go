package ingest

// rejects.go persists rejected rows to the archival store. Small runs get
// a delimited-text artifact with one wide header; past a volume threshold
// the sink switches to line-delimited JSON, which is cheaper to build and
// has no per-file field-union cost.

import (
	"bytes"
	"context"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/hiredata/ingestd/internal/blob"
)

// jsonlThreshold is the reject count above which artifacts are written as
// line-delimited JSON instead of CSV.
const jsonlThreshold = 10000

// reasonField is the key under which the reject reason is serialized in
// JSONL artifacts and the name of the trailing CSV column.
const reasonField = "_reason"

// Sink writes reject artifacts under <prefix>/errors/ with a unique key
// per invocation, so repeated runs never overwrite each other's rejects.
type Sink struct {
	store  blob.Store
	prefix string
}

// NewSink creates a Sink writing under the given key prefix.
func NewSink(store blob.Store, prefix string) *Sink {
	return &Sink{store: store, prefix: strings.TrimSuffix(prefix, "/")}
}

// Write persists the rejected rows under a tag-derived key and returns
// the artifact key, or an empty key when there is nothing to write.
func (s *Sink) Write(ctx context.Context, tag string, rejects []RejectedRecord) (string, error) {
	if len(rejects) == 0 {
		return "", nil
	}
	if len(rejects) > jsonlThreshold {
		return s.writeJSONL(ctx, tag, rejects)
	}
	return s.writeCSV(ctx, tag, rejects)
}

// writeCSV builds a row-oriented artifact. The header is the sorted union
// of field names across all rejects, followed by a literal "reason"
// column; rows missing a field get an empty string.
func (s *Sink) writeCSV(ctx context.Context, tag string, rejects []RejectedRecord) (string, error) {
	nameSet := make(map[string]struct{})
	for _, rej := range rejects {
		for k := range rej.Fields {
			nameSet[k] = struct{}{}
		}
	}
	headers := make([]string, 0, len(nameSet))
	for k := range nameSet {
		headers = append(headers, k)
	}
	sort.Strings(headers)

	var buf bytes.Buffer
	w := csv.NewWriter(&buf)
	if err := w.Write(append(append([]string{}, headers...), "reason")); err != nil {
		return "", fmt.Errorf("writing reject header: %w", err)
	}
	for _, rej := range rejects {
		row := make([]string, 0, len(headers)+1)
		for _, h := range headers {
			row = append(row, rej.Fields[h])
		}
		row = append(row, rej.Reason)
		if err := w.Write(row); err != nil {
			return "", fmt.Errorf("writing reject row: %w", err)
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return "", fmt.Errorf("flushing reject csv: %w", err)
	}

	key := fmt.Sprintf("%s/errors/%s-%s.csv", s.prefix, tag, artifactID())
	if err := s.store.Put(ctx, key, buf.Bytes()); err != nil {
		return "", err
	}
	return key, nil
}

// writeJSONL builds a line-delimited artifact: one self-describing object
// per reject, the reason carried under "_reason".
func (s *Sink) writeJSONL(ctx context.Context, tag string, rejects []RejectedRecord) (string, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	for _, rej := range rejects {
		obj := make(map[string]string, len(rej.Fields)+1)
		for k, v := range rej.Fields {
			obj[k] = v
		}
		obj[reasonField] = rej.Reason
		if err := enc.Encode(obj); err != nil {
			return "", fmt.Errorf("encoding reject row: %w", err)
		}
	}

	stamp := time.Now().UTC().Format("20060102T150405")
	key := fmt.Sprintf("%s/errors/%s-%s.jsonl", s.prefix, tag, stamp)
	if err := s.store.Put(ctx, key, buf.Bytes()); err != nil {
		return "", err
	}
	return key, nil
}

// artifactID returns a random component for artifact keys.
func artifactID() string {
	return strings.ReplaceAll(uuid.New().String(), "-", "")
}
