package audit

import (
	"reflect"
	"time"

	"github.com/shopspring/decimal"

	"pharmaledger/internal/core/id"
)

// Diff is the shallow update diff: every key of changes whose value differs
// from old[key]. Keys absent from changes are ignored.
func Diff(old, changes map[string]any) map[string]any {
	out := make(map[string]any)
	for key, newVal := range changes {
		oldVal := old[key]
		if !equal(oldVal, newVal) {
			out[key] = Change{Old: oldVal, New: newVal}
		}
	}
	return out
}

func equal(a, b any) bool {
	switch av := a.(type) {
	case decimal.Decimal:
		if bv, ok := b.(decimal.Decimal); ok {
			return av.Equal(bv)
		}
	case time.Time:
		if bv, ok := b.(time.Time); ok {
			return av.Equal(bv)
		}
	case *id.ID:
		if bv, ok := b.(*id.ID); ok {
			if av == nil || bv == nil {
				return av == bv
			}
			return *av == *bv
		}
	}
	return reflect.DeepEqual(a, b)
}
