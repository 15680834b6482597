package domain

import "encoding/json"

// AssetRecord is one entry of the market snapshot as served by the source API.
type AssetRecord struct {
	ID            AssetID       `json:"id"`
	Symbol        string        `json:"symbol"`
	Name          string        `json:"name"`
	Price         float64       `json:"price"`
	PercentChange PercentChange `json:"percentChange"`
}

// PercentChange holds relative price changes. H24 is nil when the source omits it.
type PercentChange struct {
	H24 *float64 `json:"h24"`
}

// DerivedEntry is the projection of an asset kept in the derived document.
type DerivedEntry struct {
	Symbol string  `json:"symbol"`
	Name   string  `json:"name"`
	Price  float64 `json:"price"`
	H24    float64 `json:"h24"`
}

// DerivedList is ordered; the order is part of the persisted contract.
type DerivedList []DerivedEntry

// FindSymbol returns the index of the first entry with symbol, or -1.
func (l DerivedList) FindSymbol(symbol string) int {
	for i, e := range l {
		if e.Symbol == symbol {
			return i
		}
	}
	return -1
}

// PrioritySymbols are always emitted first, in this order.
var PrioritySymbols = []string{"BTC", "ETH", "SOL", "BNB"}

// ExcludedNameMarkers mark derivative tokens that duplicate an underlying asset.
var ExcludedNameMarkers = []string{"Wrapped", "Staked", "Restaked"}

// The sentiment index lives in the derived document but is maintained by a
// separate process; the ranking filter never produces it.
const (
	SideEntrySymbol = "FGI"
	SideEntryName   = "Fear & Greed Index"
)

// AssetID accepts both string and numeric identifiers; sources disagree on the type.
type AssetID string

func (id *AssetID) UnmarshalJSON(data []byte) error {
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*id = AssetID(s)
		return nil
	}
	if string(data) == "null" {
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return err
	}
	*id = AssetID(n.String())
	return nil
}
