// Package topics reads topic libraries from CSV files with rows of
// "topic,item". A header row is skipped. Items keep file order.
package topics

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strings"
)

// Seed is one topic and its items in display order.
type Seed struct {
	Name  string
	Items []string
}

func ReadFile(path string) ([]Seed, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer file.Close()
	seeds, err := Read(file)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	return seeds, nil
}

func Read(r io.Reader) ([]Seed, error) {
	reader := csv.NewReader(r)
	reader.TrimLeadingSpace = true
	reader.FieldsPerRecord = -1
	rows, err := reader.ReadAll()
	if err != nil {
		return nil, err
	}

	var seeds []Seed
	index := make(map[string]int)
	seen := make(map[string]map[string]struct{})
	for i, row := range rows {
		if len(row) < 2 {
			continue
		}
		name := strings.TrimSpace(row[0])
		item := strings.TrimSpace(row[1])
		if i == 0 && strings.EqualFold(name, "topic") {
			continue
		}
		if name == "" || item == "" {
			continue
		}
		key := strings.ToLower(name)
		at, ok := index[key]
		if !ok {
			at = len(seeds)
			index[key] = at
			seen[key] = make(map[string]struct{})
			seeds = append(seeds, Seed{Name: name})
		}
		itemKey := strings.ToLower(item)
		if _, dup := seen[key][itemKey]; dup {
			continue
		}
		seen[key][itemKey] = struct{}{}
		seeds[at].Items = append(seeds[at].Items, item)
	}
	return seeds, nil
}
