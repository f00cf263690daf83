package statistics

import (
	"sort"

	"github.com/shopspring/decimal"
	"github.com/thrasher-corp/gfobtester/common/convert"
)

// ExtensionKeys returns the extension counter names in sorted order
func (r *Result) ExtensionKeys() []string {
	keys := make([]string, 0, len(r.Extensions))
	for k := range r.Extensions {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func convertToString(d decimal.Decimal) string {
	return convert.DecimalToHumanFriendlyString(d, 2)
}
