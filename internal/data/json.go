package data

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"

	"auction-analytics/internal/model"
)

// DecodeRuns reads a JSON run bundle: an array of RunInput objects.
func DecodeRuns(r io.Reader) ([]model.RunInput, error) {
	var runs []model.RunInput
	dec := json.NewDecoder(r)
	dec.DisallowUnknownFields()
	if err := dec.Decode(&runs); err != nil {
		return nil, err
	}
	if err := NormalizeRuns(runs); err != nil {
		return nil, err
	}
	return runs, nil
}

// NormalizeRuns prepares decoded runs for aggregation in place. Runs decoded
// outside this package, such as API request bodies, must pass through it too.
func NormalizeRuns(runs []model.RunInput) error {
	for i := range runs {
		if err := normalizeRun(&runs[i]); err != nil {
			return fmt.Errorf("run %d: %w", runs[i].Index, err)
		}
	}
	return nil
}

func LoadRunsJSON(path string) ([]model.RunInput, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	runs, err := DecodeRuns(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return runs, nil
}

// normalizeRun fills schedule identifiers from their map keys and validates
// limit prices.
func normalizeRun(r *model.RunInput) error {
	for id, s := range r.Schedules {
		s.ScheduleID = id
		if err := s.Validate(); err != nil {
			return err
		}
		r.Schedules[id] = s
	}
	return nil
}

// BundleSource serves runs from an in-memory bundle, selecting by index.
type BundleSource struct {
	Runs []model.RunInput
}

func (s BundleSource) LoadRuns(ctx context.Context, indices []int) ([]model.RunInput, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if len(indices) == 0 {
		return s.Runs, nil
	}
	byIndex := make(map[int]model.RunInput, len(s.Runs))
	for _, r := range s.Runs {
		byIndex[r.Index] = r
	}
	out := make([]model.RunInput, 0, len(indices))
	for _, i := range indices {
		r, ok := byIndex[i]
		if !ok {
			return nil, fmt.Errorf("run %d not in bundle", i)
		}
		out = append(out, r)
	}
	return out, nil
}
