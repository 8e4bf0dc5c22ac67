package pagination

import (
	"fmt"
	"math"
)

// OffsetRequest represents an offset-based pagination request
type OffsetRequest struct {
	Page int `json:"page" query:"page"`
	Size int `json:"size" query:"size"`
}

// Validate rejects negative values and fills in defaults for unset ones.
// Sizes above PageMaxSize are capped. Page*Size must fit in an int.
func (r *OffsetRequest) Validate() error {
	if r.Page < 0 {
		return fmt.Errorf("page must not be negative, got %d", r.Page)
	}
	if r.Size < 0 {
		return fmt.Errorf("size must not be negative, got %d", r.Size)
	}
	if r.Page == 0 {
		r.Page = 1
	}
	if r.Size == 0 {
		r.Size = PageDefaultSize
	}
	if r.Size > PageMaxSize {
		r.Size = PageMaxSize
	}
	if r.Page > math.MaxInt/r.Size {
		return fmt.Errorf("page %d is out of range for size %d", r.Page, r.Size)
	}
	return nil
}

// Offset is the number of items skipped before this page.
func (r *OffsetRequest) Offset() int {
	return (r.Page - 1) * r.Size
}
