package ingest

import (
	"strings"
	"testing"

	"github.com/fexlab/fexmine/symbols"
)

const futuresDump = `日期,商品,身份別,多方口數,多方金額,空方口數,空方金額,淨額口數,淨額金額,多方未平倉口數,多方未平倉金額,空方未平倉口數,空方未平倉金額,淨額未平倉口數,淨額未平倉金額
2024/01/02,臺股期貨,外資,1,2,3,4,5,6,7,8,9,10,11,12
2024/01/02,臺股期貨,投信,10,20,30,40,50,60,70,80,90,100,110,120
2024/01/02,不明商品,外資,1,2,3,4,5,6,7,8,9,10,11,12
`

func TestParseFuturesCSV(t *testing.T) {
	rows, err := parseFuturesCSV(symbols.ReplaceAll(futuresDump))
	if err != nil {
		t.Fatalf("Failed to parse futures dump: %v", err)
	}
	if len(rows) != 2 {
		t.Fatalf("Expected 2 rows, got %d", len(rows))
	}

	r := rows[0]
	if r.Date != "2024/01/02" || r.Product != "TX" || r.Institutional != "FOR" {
		t.Errorf("Expected 2024/01/02 TX FOR, got %s %s %s", r.Date, r.Product, r.Institutional)
	}
	if r.TRBContract != 1 || r.OINetAmount != 12 {
		t.Errorf("Expected value columns 1..12, got first=%d last=%d", r.TRBContract, r.OINetAmount)
	}
	if rows[1].Institutional != "INV" {
		t.Errorf("Expected second row INV, got %s", rows[1].Institutional)
	}
}

func TestParseFuturesCSVEmpty(t *testing.T) {
	if _, err := parseFuturesCSV("header,only\n"); err == nil {
		t.Error("Expected error for dump with no importable rows, got nil")
	}
}

func TestParseOptionsCSV(t *testing.T) {
	dump := strings.Join([]string{
		"2024/01/02,臺指選擇權,買權,外資,1,2,3,4,5,6,7,8,9,10,11,12",
		"2024/01/02,臺指選擇權,賣權,外資,2,3,4,5,6,7,8,9,10,11,12,13",
	}, "\n")

	rows, err := parseOptionsCSV(symbols.ReplaceAll(dump))
	if err != nil {
		t.Fatalf("Failed to parse options dump: %v", err)
	}
	if len(rows) != 2 {
		t.Fatalf("Expected 2 rows, got %d", len(rows))
	}
	if rows[0].Product != "TXO" || rows[0].Side != "CALL" {
		t.Errorf("Expected TXO CALL, got %s %s", rows[0].Product, rows[0].Side)
	}
	if rows[1].Side != "PUT" || rows[1].OINetAmount != 13 {
		t.Errorf("Expected PUT with last value 13, got %s %d", rows[1].Side, rows[1].OINetAmount)
	}
}

func TestParseCSVSkipsBadValueRow(t *testing.T) {
	dump := strings.Join([]string{
		"2024/01/02,TX,FOR,1,2,3,4,5,6,7,8,9,10,11,12",
		"2024/01/03,TX,FOR,a,2,3,4,5,6,7,8,9,10,11,12",
	}, "\n")

	rows, err := parseFuturesCSV(dump)
	if err != nil {
		t.Fatalf("Failed to parse dump: %v", err)
	}
	if len(rows) != 1 {
		t.Errorf("Expected unparseable row to be skipped, got %d rows", len(rows))
	}
}
