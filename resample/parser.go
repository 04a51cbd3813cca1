package resample

import (
	"bufio"
	"bytes"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/fexlab/fexmine/models"
)

var (
	// ErrNoData means the report contains no line for the requested
	// symbol/contract combination, even after the month rollover retry.
	ErrNoData = errors.New("no matching tick data")

	// ErrMalformedTick means a tick field failed numeric parsing or the
	// stream is not in chronological order. The whole batch is aborted.
	ErrMalformedTick = errors.New("malformed tick")

	// ErrShapeMismatch means matching lines disagree on field count.
	ErrShapeMismatch = errors.New("tick record shape mismatch")
)

const tickTimestampLayout = "20060102150405"

// minTickFields is date, symbol, contract, time, price, volume. Reports
// carry trailing fields (near/far leg info) that are discarded.
const minTickFields = 6

// ContractMonth formats the contract-month token for a report date.
func ContractMonth(date time.Time) string {
	return date.Format("200601")
}

// NextContractMonth advances a YYYYMM token by one month, for month-end
// archives whose active contract has already rolled.
func NextContractMonth(month string) (string, error) {
	t, err := time.Parse("200601", month)
	if err != nil {
		return "", fmt.Errorf("invalid contract month %q: %w", month, err)
	}
	return t.AddDate(0, 1, 0).Format("200601"), nil
}

// ParseTicks extracts the ticks for one symbol and contract month from a raw
// daily report. Line order is preserved; the exchange writes reports
// chronologically and window assignment depends on it.
func ParseTicks(raw []byte, symbol, contractMonth string) ([]models.Tick, error) {
	var ticks []models.Tick
	shape := 0

	sc := bufio.NewScanner(bytes.NewReader(raw))
	sc.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if line == "" {
			continue
		}
		fields := strings.Split(line, ",")
		for i := range fields {
			fields[i] = strings.TrimSpace(fields[i])
		}
		if len(fields) < minTickFields {
			continue
		}
		if fields[1] != symbol || fields[2] != contractMonth {
			continue
		}
		if shape == 0 {
			shape = len(fields)
		} else if len(fields) != shape {
			return nil, fmt.Errorf("%w: expected %d fields, got %d in %q",
				ErrShapeMismatch, shape, len(fields), line)
		}

		ts, err := time.Parse(tickTimestampLayout, fields[0]+fields[3])
		if err != nil {
			return nil, fmt.Errorf("%w: bad timestamp in %q: %v", ErrMalformedTick, line, err)
		}
		price, err := strconv.ParseInt(fields[4], 10, 64)
		if err != nil {
			return nil, fmt.Errorf("%w: bad price in %q: %v", ErrMalformedTick, line, err)
		}
		volume, err := strconv.ParseInt(fields[5], 10, 64)
		if err != nil {
			return nil, fmt.Errorf("%w: bad volume in %q: %v", ErrMalformedTick, line, err)
		}

		ticks = append(ticks, models.Tick{
			Symbol:   symbol,
			Contract: contractMonth,
			Time:     ts,
			Price:    price,
			Volume:   volume,
		})
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("failed to scan report: %w", err)
	}
	if len(ticks) == 0 {
		return nil, fmt.Errorf("%w: symbol=%s contract=%s", ErrNoData, symbol, contractMonth)
	}
	return ticks, nil
}

// ParseTicksWithRollover parses with the given contract month and, when
// nothing matches, retries once with the month advanced. It returns the
// contract month that actually matched.
func ParseTicksWithRollover(raw []byte, symbol, contractMonth string) ([]models.Tick, string, error) {
	ticks, err := ParseTicks(raw, symbol, contractMonth)
	if err == nil {
		return ticks, contractMonth, nil
	}
	if !errors.Is(err, ErrNoData) {
		return nil, "", err
	}

	next, merr := NextContractMonth(contractMonth)
	if merr != nil {
		return nil, "", merr
	}
	ticks, err = ParseTicks(raw, symbol, next)
	if err != nil {
		return nil, "", err
	}
	return ticks, next, nil
}
