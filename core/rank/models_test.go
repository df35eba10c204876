package rank

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNextRank(t *testing.T) {
	white := Rank{ID: "white", Name: "10th Gup", Order: 1}
	yellow := Rank{ID: "yellow", Name: "8th Gup", Order: 3}
	green := Rank{ID: "green", Name: "6th Gup", Order: 5}
	black := Rank{ID: "black", Name: "1st Dan", Order: 11}

	// unsorted on purpose
	ranks := []Rank{green, black, white, yellow}

	tests := []struct {
		name      string
		ranks     []Rank
		currentID string
		want      Rank
		wantErr   error
	}{
		{name: "no rank yet", ranks: ranks, want: white},
		{name: "lowest to next", ranks: ranks, currentID: white.ID, want: yellow},
		{name: "skips gaps in order", ranks: ranks, currentID: green.ID, want: black},
		{name: "highest rank", ranks: ranks, currentID: black.ID, wantErr: ErrHighestRank},
		{name: "unknown rank", ranks: ranks, currentID: "purple", wantErr: ErrNotFound},
		{name: "empty ladder", wantErr: ErrHighestRank},
		{name: "single rank", ranks: []Rank{white}, currentID: white.ID, wantErr: ErrHighestRank},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := NextRank(tt.ranks, tt.currentID)
			if tt.wantErr != nil {
				assert.Equal(t, tt.wantErr, err)
				return
			}
			if assert.NoError(t, err) {
				assert.Equal(t, tt.want, got)
			}
		})
	}
}
