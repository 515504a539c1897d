package exporter

import (
	"fmt"
	"strconv"
	"time"

	"github.com/shopspring/decimal"

	"salespulse/pkg/contracts/domain"
)

// formatCell renders a table value for CSV output. Money values always
// carry exactly 2 decimal places.
func formatCell(v interface{}) string {
	switch x := v.(type) {
	case nil:
		return ""
	case string:
		return x
	case int:
		return strconv.Itoa(x)
	case int64:
		return strconv.FormatInt(x, 10)
	case float64:
		return fmt.Sprintf("%.2f", x)
	case decimal.Decimal:
		return x.StringFixed(2)
	case time.Time:
		return x.Format(domain.DateLayout)
	default:
		return fmt.Sprint(x)
	}
}

// cellValue converts a table value into something excelize stores as a
// native number or text cell.
func cellValue(v interface{}) interface{} {
	switch x := v.(type) {
	case decimal.Decimal:
		return x.Round(2).InexactFloat64()
	case time.Time:
		return x.Format(domain.DateLayout)
	default:
		return x
	}
}
