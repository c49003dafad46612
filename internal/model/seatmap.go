package model

import (
    "strconv"
    "strings"
)

// SeatsPerRow is the width of every seat map.
const SeatsPerRow = 10

// maxRowLetters bounds row labels to ZZZ (18,278 rows), far beyond any
// screen and short enough that the row index cannot overflow.
const maxRowLetters = 3

// SeatRow is one row of a seat map: its letter label and the seat labels
// it contains, left to right.
type SeatRow struct {
    Label string
    Seats []string
}

// Layout returns the seat map of a screen with total seats.  Rows are
// labelled A..Z, AA, AB... and the last row may be shorter.
func Layout(total int) []SeatRow {
    if total <= 0 {
        return nil
    }
    rows := make([]SeatRow, 0, (total+SeatsPerRow-1)/SeatsPerRow)
    for i := 0; i < total; i += SeatsPerRow {
        r := SeatRow{Label: RowLabel(i / SeatsPerRow)}
        for j := i; j < total && j < i+SeatsPerRow; j++ {
            r.Seats = append(r.Seats, SeatLabel(j))
        }
        rows = append(rows, r)
    }
    return rows
}

// SeatLabel converts a zero-based seat index into a label like "A1".
func SeatLabel(index int) string {
    if index < 0 {
        return ""
    }
    return RowLabel(index/SeatsPerRow) + strconv.Itoa(index%SeatsPerRow+1)
}

// SeatIndex parses a label like "b10" back into its zero-based index.
func SeatIndex(label string) (int, bool) {
    s := NormalizeSeatLabel(label)
    split := strings.IndexFunc(s, func(r rune) bool { return r >= '0' && r <= '9' })
    if split <= 0 {
        return -1, false
    }
    row, ok := rowIndex(s[:split])
    if !ok {
        return -1, false
    }
    col, err := strconv.Atoi(s[split:])
    if err != nil || col < 1 || col > SeatsPerRow || s[split] == '0' {
        return -1, false
    }
    return row*SeatsPerRow + col - 1, true
}

// SeatInRange reports whether label names a seat of a screen with total seats.
func SeatInRange(label string, total int) bool {
    i, ok := SeatIndex(label)
    return ok && i >= 0 && i < total
}

// NormalizeSeatLabel trims and upper-cases a seat label.
func NormalizeSeatLabel(s string) string {
    return strings.ToUpper(strings.TrimSpace(s))
}

// RowLabel converts a zero-based row index to an alphabetical label
// like A, B, ..., Z, AA.
func RowLabel(i int) string {
    if i < 0 {
        return ""
    }
    var res []byte
    for {
        res = append(res, byte('A'+i%26))
        i = i/26 - 1
        if i < 0 {
            break
        }
    }
    for j, k := 0, len(res)-1; j < k; j, k = j+1, k-1 {
        res[j], res[k] = res[k], res[j]
    }
    return string(res)
}

func rowIndex(label string) (int, bool) {
    if label == "" || len(label) > maxRowLetters {
        return -1, false
    }
    n := 0
    for i := 0; i < len(label); i++ {
        ch := label[i]
        if ch < 'A' || ch > 'Z' {
            return -1, false
        }
        n = n*26 + int(ch-'A'+1)
    }
    return n - 1, true
}
