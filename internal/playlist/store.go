package playlist

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
)

// Load reads the playlist file. A missing file yields an empty playlist;
// anything else that prevents reading a well-formed record list is an error
// the caller should treat as fatal.
func Load(path string) ([]*TrackRecord, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("reading playlist: %w", err)
	}

	var records []*TrackRecord
	if err := json.Unmarshal(data, &records); err != nil {
		return nil, fmt.Errorf("parsing playlist %s: %w", path, err)
	}
	return records, nil
}

// Save writes the playlist with atomic replace semantics: the file is fully
// written to a temp path first and then renamed over the target.
func Save(path string, records []*TrackRecord) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o750); err != nil {
		return fmt.Errorf("creating playlist directory: %w", err)
	}

	data, err := json.MarshalIndent(records, "", "  ")
	if err != nil {
		return fmt.Errorf("encoding playlist: %w", err)
	}
	data = append(data, '\n')

	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o640); err != nil {
		return fmt.Errorf("writing playlist: %w", err)
	}
	if err := os.Rename(tmp, path); err != nil {
		return fmt.Errorf("replacing playlist: %w", err)
	}
	return nil
}

// MergeDedup merges newly scraped records into the existing playlist,
// keeping the first-seen record per played-track event, and returns the
// merged list (newest first) with the count of records actually added.
func MergeDedup(existing, scraped []*TrackRecord) ([]*TrackRecord, int) {
	seen := make(map[string]struct{}, len(existing))
	merged := make([]*TrackRecord, 0, len(existing)+len(scraped))

	for _, r := range existing {
		if _, dup := seen[r.UniqueKey()]; dup {
			continue
		}
		seen[r.UniqueKey()] = struct{}{}
		merged = append(merged, r)
	}

	added := 0
	for _, r := range scraped {
		if _, dup := seen[r.UniqueKey()]; dup {
			continue
		}
		seen[r.UniqueKey()] = struct{}{}
		merged = append(merged, r)
		added++
	}

	sortNewestFirst(merged)
	return merged, added
}

func sortNewestFirst(records []*TrackRecord) {
	sort.SliceStable(records, func(i, j int) bool {
		ti, iok := records[i].PlayedTime()
		tj, jok := records[j].PlayedTime()
		if iok != jok {
			return iok // parseable timestamps before broken ones
		}
		return ti.After(tj)
	})
}
