package domain

import (
	"fmt"
	"sort"
)

// TaxBracket 累退税率档位：持有自然日数 <= MaxCalendarDays 时适用 Rate。
// MaxCalendarDays 为 0 表示无上限，只能出现在最后一档
type TaxBracket struct {
	MaxCalendarDays int     `json:"max_calendar_days" mapstructure:"max_calendar_days"`
	Rate            float64 `json:"rate" mapstructure:"rate"`
}

// TaxTable 有序税率表
type TaxTable struct {
	brackets []TaxBracket
}

// DefaultTaxBrackets 巴西固定收益所得税累退表
func DefaultTaxBrackets() []TaxBracket {
	return []TaxBracket{
		{MaxCalendarDays: 180, Rate: 0.225},
		{MaxCalendarDays: 360, Rate: 0.20},
		{MaxCalendarDays: 720, Rate: 0.175},
		{MaxCalendarDays: 0, Rate: 0.15},
	}
}

// NewTaxTable 校验并排序税率档位
func NewTaxTable(brackets []TaxBracket) (*TaxTable, error) {
	if len(brackets) == 0 {
		return nil, fmt.Errorf("%w: tax table is empty", ErrInvalidInput)
	}

	sorted := make([]TaxBracket, len(brackets))
	copy(sorted, brackets)
	// 无上限档位排在最后
	sort.SliceStable(sorted, func(i, j int) bool {
		a, b := sorted[i].MaxCalendarDays, sorted[j].MaxCalendarDays
		if a == 0 {
			return false
		}
		if b == 0 {
			return true
		}
		return a < b
	})

	for i, b := range sorted {
		if b.Rate < 0 || b.Rate > 1 {
			return nil, fmt.Errorf("%w: tax rate %v out of [0,1]", ErrInvalidInput, b.Rate)
		}
		if b.MaxCalendarDays < 0 {
			return nil, fmt.Errorf("%w: bracket limit %d is negative", ErrInvalidInput, b.MaxCalendarDays)
		}
		if b.MaxCalendarDays == 0 && i != len(sorted)-1 {
			return nil, fmt.Errorf("%w: only one open-ended tax bracket is allowed", ErrInvalidInput)
		}
		if i > 0 && b.MaxCalendarDays != 0 && sorted[i-1].MaxCalendarDays == b.MaxCalendarDays {
			return nil, fmt.Errorf("%w: duplicate tax bracket limit %d", ErrInvalidInput, b.MaxCalendarDays)
		}
	}

	return &TaxTable{brackets: sorted}, nil
}

// Brackets 返回档位副本
func (t *TaxTable) Brackets() []TaxBracket {
	out := make([]TaxBracket, len(t.brackets))
	copy(out, t.brackets)
	return out
}

// RateFor 返回持有 calendarDays 自然日适用的税率；超过所有上限时取最后一档
func (t *TaxTable) RateFor(calendarDays int) float64 {
	for _, b := range t.brackets {
		if b.MaxCalendarDays == 0 || calendarDays <= b.MaxCalendarDays {
			return b.Rate
		}
	}
	return t.brackets[len(t.brackets)-1].Rate
}
