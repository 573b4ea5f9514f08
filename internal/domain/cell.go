package domain

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"
)

// CellKind tags the variant held by a Cell.
type CellKind int

const (
	CellBlank CellKind = iota
	CellNumber
	CellText
	CellDate
)

// Cell is one loosely-typed spreadsheet cell. Exactly one of the payload
// fields is meaningful, selected by Kind.
type Cell struct {
	Kind   CellKind
	Number float64
	Text   string
	Date   time.Time
}

func BlankCell() Cell           { return Cell{Kind: CellBlank} }
func NumberCell(v float64) Cell { return Cell{Kind: CellNumber, Number: v} }
func TextCell(s string) Cell    { return Cell{Kind: CellText, Text: s} }
func DateCell(t time.Time) Cell { return Cell{Kind: CellDate, Date: t} }

// Label renders the cell the way it would appear as a column header.
func (c Cell) Label() string {
	switch c.Kind {
	case CellNumber:
		return strconv.FormatFloat(c.Number, 'f', -1, 64)
	case CellText:
		return strings.TrimSpace(c.Text)
	case CellDate:
		return c.Date.Format("2006-01-02")
	default:
		return ""
	}
}

// ErrBlankCell marks coercion attempts against an empty cell.
var ErrBlankCell = errors.New("blank cell")

// dateLayouts are the calendar formats accepted in date columns, in the
// order they are tried.
var dateLayouts = []string{
	"2006-01-02",
	"2006/01/02",
	"2006.01.02",
	"2006-01-02 15:04:05",
	"01-02-2006",
}

// ParseNumber coerces a cell to a float64. Text values may use a comma as
// the decimal separator. The caller decides whether a failure drops the cell
// or the row.
func ParseNumber(c Cell) (float64, error) {
	switch c.Kind {
	case CellNumber:
		return c.Number, nil
	case CellText:
		s := strings.TrimSpace(strings.ReplaceAll(c.Text, ",", "."))
		if s == "" {
			return 0, ErrBlankCell
		}
		v, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return 0, fmt.Errorf("parse number %q: %w", c.Text, err)
		}
		return v, nil
	case CellBlank:
		return 0, ErrBlankCell
	default:
		return 0, fmt.Errorf("parse number: cell is a %v", c.Kind)
	}
}

// ParseDate coerces a cell to a calendar date (midnight, zone-less). Time
// components of datetime cells are discarded.
func ParseDate(c Cell) (time.Time, error) {
	switch c.Kind {
	case CellDate:
		return truncateToDate(c.Date), nil
	case CellText:
		s := strings.TrimSpace(c.Text)
		if s == "" {
			return time.Time{}, ErrBlankCell
		}
		for _, layout := range dateLayouts {
			if t, err := time.Parse(layout, s); err == nil {
				return truncateToDate(t), nil
			}
		}
		return time.Time{}, fmt.Errorf("parse date %q: unrecognized format", c.Text)
	case CellBlank:
		return time.Time{}, ErrBlankCell
	default:
		return time.Time{}, fmt.Errorf("parse date: cell is a %v", c.Kind)
	}
}

func truncateToDate(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

// Round2 rounds a decibel value to two decimals, the storage precision.
func Round2(v float64) float64 {
	return math.Round(v*100) / 100
}
