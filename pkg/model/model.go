// Package model holds the wire-format data types shared between the
// pipeline stages and the HTTP client: Area, Tile, Dig, License, CoinList
// and Treasure. They are deliberately thin — plain structs with JSON tags,
// no behavior beyond small predicates — so every stage can take exclusive ownership of a value as
// it moves through a queue.
package model

// Area is a rectangular sub-region of the world, identified by its
// lower-left corner and its extent.
type Area struct {
	PosX  uint64 `json:"posX"`
	PosY  uint64 `json:"posY"`
	SizeX uint64 `json:"sizeX"`
	SizeY uint64 `json:"sizeY"`
}

// IsPoint reports whether the Area is a single 1x1 cell.
func (a Area) IsPoint() bool {
	return a.SizeX == 1 && a.SizeY == 1
}

// Tile decorates an Area with the believed treasure count. Amount==0 means
// "unknown or known-empty".
type Tile struct {
	Area   Area   `json:"area"`
	Amount uint64 `json:"amount"`
}

// IsPoint reports whether the underlying Area is a point.
func (t Tile) IsPoint() bool {
	return t.Area.IsPoint()
}

// Dig is one license-gated probe at a fixed position and depth.
type Dig struct {
	PosX      uint64 `json:"posX"`
	PosY      uint64 `json:"posY"`
	Depth     int    `json:"depth"`
	LicenseID uint64 `json:"licenseID"`
}

// License is a server-issued permit for a bounded number of dig operations.
type License struct {
	ID         uint64 `json:"id"`
	DigAllowed int    `json:"digAllowed"`
	DigUsed    int    `json:"digUsed"`
}

// Exhausted reports whether every allowed dig on this License has been used.
func (l License) Exhausted() bool {
	return l.DigUsed >= l.DigAllowed
}

// CoinList is an ordered sequence of opaque coin identifiers. Order only
// matters for splitting (§4.3.1 optimal_split).
type CoinList []uint64

// Treasure is an opaque token redeemable exactly once at the cash endpoint.
type Treasure string
