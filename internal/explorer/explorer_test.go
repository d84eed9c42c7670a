package explorer

import (
	"reflect"
	"testing"

	"github.com/rawblock/goldrush-engine/pkg/model"
)

func TestSplitToTiles(t *testing.T) {
	tests := []struct {
		name     string
		area     model.Area
		tileSize uint64
		want     []model.Area
	}{
		{
			name:     "even division",
			area:     model.Area{PosX: 0, PosY: 5, SizeX: 9, SizeY: 1},
			tileSize: 3,
			want: []model.Area{
				{PosX: 0, PosY: 5, SizeX: 3, SizeY: 1},
				{PosX: 3, PosY: 5, SizeX: 3, SizeY: 1},
				{PosX: 6, PosY: 5, SizeX: 3, SizeY: 1},
			},
		},
		{
			name:     "trailing remainder of one",
			area:     model.Area{PosX: 10, PosY: 0, SizeX: 7, SizeY: 1},
			tileSize: 3,
			want: []model.Area{
				{PosX: 10, PosY: 0, SizeX: 3, SizeY: 1},
				{PosX: 13, PosY: 0, SizeX: 3, SizeY: 1},
				{PosX: 16, PosY: 0, SizeX: 1, SizeY: 1},
			},
		},
		{
			// spec.md §4.2.1 Concrete Scenario #1.
			name:     "trailing remainder of two splits into separate width-1 tiles",
			area:     model.Area{PosX: 0, PosY: 0, SizeX: 17, SizeY: 1},
			tileSize: 3,
			want: []model.Area{
				{PosX: 0, PosY: 0, SizeX: 3, SizeY: 1},
				{PosX: 3, PosY: 0, SizeX: 3, SizeY: 1},
				{PosX: 6, PosY: 0, SizeX: 3, SizeY: 1},
				{PosX: 9, PosY: 0, SizeX: 3, SizeY: 1},
				{PosX: 12, PosY: 0, SizeX: 3, SizeY: 1},
				{PosX: 15, PosY: 0, SizeX: 1, SizeY: 1},
				{PosX: 16, PosY: 0, SizeX: 1, SizeY: 1},
			},
		},
		{
			name:     "tile size 1 covers every cell",
			area:     model.Area{PosX: 0, PosY: 0, SizeX: 3, SizeY: 1},
			tileSize: 1,
			want: []model.Area{
				{PosX: 0, PosY: 0, SizeX: 1, SizeY: 1},
				{PosX: 1, PosY: 0, SizeX: 1, SizeY: 1},
				{PosX: 2, PosY: 0, SizeX: 1, SizeY: 1},
			},
		},
		{
			name:     "tile size exceeds area splits into width-1 tiles",
			area:     model.Area{PosX: 0, PosY: 0, SizeX: 2, SizeY: 1},
			tileSize: 5,
			want: []model.Area{
				{PosX: 0, PosY: 0, SizeX: 1, SizeY: 1},
				{PosX: 1, PosY: 0, SizeX: 1, SizeY: 1},
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := splitToTiles(tt.area, tt.tileSize)
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("splitToTiles(%+v, %d) = %+v, want %+v", tt.area, tt.tileSize, got, tt.want)
			}
		})
	}
}

func TestSumAmounts(t *testing.T) {
	tiles := []model.Tile{{Amount: 3}, {Amount: 0}, {Amount: 7}}
	if got := sumAmounts(tiles); got != 10 {
		t.Errorf("sumAmounts() = %d, want 10", got)
	}
	if got := sumAmounts(nil); got != 0 {
		t.Errorf("sumAmounts(nil) = %d, want 0", got)
	}
}

func TestSubAmount(t *testing.T) {
	tests := []struct {
		name           string
		total, consumed uint64
		want           uint64
	}{
		{"normal subtraction", 10, 3, 7},
		{"exact exhaustion", 5, 5, 0},
		{"over-consumption floors at zero", 3, 10, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := subAmount(tt.total, tt.consumed); got != tt.want {
				t.Errorf("subAmount(%d, %d) = %d, want %d", tt.total, tt.consumed, got, tt.want)
			}
		})
	}
}

func TestPoolFlatTileSize(t *testing.T) {
	tests := []struct {
		name          string
		p             *Pool
		sizeX         uint64
		want          uint64
	}{
		{"small area collapses to single cells", &Pool{FlatSize: 3, FlatThreshold: 31, BinaryEnabled: true}, 3, 1},
		{"mid area uses flat size", &Pool{FlatSize: 3, FlatThreshold: 31, BinaryEnabled: true}, 20, 3},
		{"binary disabled falls back to threshold width", &Pool{FlatSize: 3, FlatThreshold: 31, BinaryEnabled: false}, 50, 31},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.p.flatTileSize(tt.sizeX); got != tt.want {
				t.Errorf("flatTileSize(%d) = %d, want %d", tt.sizeX, got, tt.want)
			}
		})
	}
}
