package pagination

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOffsetRequest_Validate(t *testing.T) {
	tests := []struct {
		name     string
		req      OffsetRequest
		wantPage int
		wantSize int
		wantErr  bool
	}{
		{"defaults", OffsetRequest{}, 1, PageDefaultSize, false},
		{"explicit", OffsetRequest{Page: 3, Size: 5}, 3, 5, false},
		{"size capped", OffsetRequest{Page: 1, Size: PageMaxSize + 1}, 1, PageMaxSize, false},
		{"negative page", OffsetRequest{Page: -1}, 0, 0, true},
		{"negative size", OffsetRequest{Size: -5}, 0, 0, true},
		{"page overflows offset", OffsetRequest{Page: math.MaxInt/20 + 1, Size: 20}, 0, 0, true},
		{"largest page", OffsetRequest{Page: math.MaxInt / 20, Size: 20}, math.MaxInt / 20, 20, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := tt.req
			err := req.Validate()
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantPage, req.Page)
			assert.Equal(t, tt.wantSize, req.Size)
		})
	}
}

func TestOffsetRequest_Offset(t *testing.T) {
	req := OffsetRequest{Page: 3, Size: 10}
	assert.Equal(t, 20, req.Offset())
}

func TestNewOffsetResult(t *testing.T) {
	res := NewOffsetResult([]int{1, 2}, 5, 1, 2)
	assert.True(t, res.HasMore)

	res = NewOffsetResult([]int{5}, 5, 3, 2)
	assert.False(t, res.HasMore)

	empty := NewOffsetResult[int](nil, 0, 1, 10)
	assert.NotNil(t, empty.Items)
	assert.Empty(t, empty.Items)
}
