// Package derive turns a raw market snapshot into the ranked, bounded list
// persisted as the derived document.
package derive

import (
	"bytes"
	"encoding/json"
	"fmt"
	"sort"
	"strings"

	"snapshot-keeper/internal/domain"
)

// ExtractAssets returns the asset sequence of a raw snapshot: the "data" field
// when the payload is an object, otherwise the payload itself. Elements that
// are not objects, or do not decode as an asset, are skipped.
func ExtractAssets(raw []byte) ([]domain.AssetRecord, error) {
	seq := bytes.TrimSpace(raw)
	if len(seq) > 0 && seq[0] == '{' {
		var wrapper struct {
			Data json.RawMessage `json:"data"`
		}
		if err := json.Unmarshal(seq, &wrapper); err != nil {
			return nil, fmt.Errorf("%w: %v", domain.ErrMalformedSnapshot, err)
		}
		seq = bytes.TrimSpace(wrapper.Data)
	}
	if len(seq) == 0 || seq[0] != '[' {
		return nil, fmt.Errorf("%w: payload is not an asset sequence", domain.ErrMalformedSnapshot)
	}

	var items []json.RawMessage
	if err := json.Unmarshal(seq, &items); err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrMalformedSnapshot, err)
	}

	assets := make([]domain.AssetRecord, 0, len(items))
	for _, item := range items {
		item = bytes.TrimSpace(item)
		if len(item) == 0 || item[0] != '{' {
			continue
		}
		var a domain.AssetRecord
		if err := json.Unmarshal(item, &a); err != nil {
			continue
		}
		assets = append(assets, a)
	}
	return assets, nil
}

// Filter ranks and truncates the assets of a raw snapshot. It never returns a
// nil list: a malformed payload yields an empty list together with an error
// wrapping domain.ErrMalformedSnapshot, which callers are expected to log.
func Filter(raw []byte, capacity int) (domain.DerivedList, error) {
	assets, err := ExtractAssets(raw)
	if err != nil {
		return domain.DerivedList{}, err
	}
	return FilterAssets(assets, capacity), nil
}

// FilterAssets drops derivative tokens, emits the priority symbols first in
// their fixed order, then the remaining assets by 24h change descending
// (stable), truncated to capacity.
//
// When a priority symbol occurs more than once, the first occurrence takes the
// priority slot and later ones are ranked with everything else.
func FilterAssets(assets []domain.AssetRecord, capacity int) domain.DerivedList {
	if capacity <= 0 {
		return domain.DerivedList{}
	}

	priorityIndex := make(map[string]int, len(domain.PrioritySymbols))
	for i, symbol := range domain.PrioritySymbols {
		priorityIndex[symbol] = i
	}

	slots := make([]*domain.DerivedEntry, len(domain.PrioritySymbols))
	others := make(domain.DerivedList, 0, len(assets))
	for _, asset := range assets {
		if isExcluded(asset.Name) {
			continue
		}
		entry := project(asset)
		if idx, ok := priorityIndex[entry.Symbol]; ok && slots[idx] == nil {
			slots[idx] = &entry
			continue
		}
		others = append(others, entry)
	}

	sort.SliceStable(others, func(i, j int) bool {
		return others[i].H24 > others[j].H24
	})

	out := make(domain.DerivedList, 0, min(capacity, len(assets)))
	for _, slot := range slots {
		if slot != nil {
			out = append(out, *slot)
		}
	}
	out = append(out, others...)
	if len(out) > capacity {
		out = out[:capacity]
	}
	return out
}

func isExcluded(name string) bool {
	for _, marker := range domain.ExcludedNameMarkers {
		if strings.Contains(name, marker) {
			return true
		}
	}
	return false
}

func project(asset domain.AssetRecord) domain.DerivedEntry {
	entry := domain.DerivedEntry{
		Symbol: asset.Symbol,
		Name:   asset.Name,
		Price:  asset.Price,
	}
	if asset.PercentChange.H24 != nil {
		entry.H24 = *asset.PercentChange.H24
	}
	return entry
}
