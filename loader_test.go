package tradechain

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func writeFile(t *testing.T, dir, name, content string) {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}
}

func TestLoadActivity(t *testing.T) {
	dir := t.TempDir()
	header := "id,account,datetime,symbol,instruction,quantity,price\n"

	// A stale stampless export, superseded by the dated one.
	writeFile(t, dir, "x1887.transactions.csv",
		header+"t0,x1887,2021-10-01T09:00:00,XYZ,BUY,1,10\n")
	writeFile(t, dir, "x1887.20211105.transactions.csv",
		header+
			"t1,x1887,2021-11-01T09:30:00,XYZ,BUY,10,99.5\n"+
			"t2,x1887,2021-11-03T10:00:00,XYZ,SELL,-10,101.5\n")
	writeFile(t, dir, "sub/x2663.transactions.csv",
		header+
			"t3,x2663,2021-11-02T09:00:00,ABC,BUY,5,20\n"+
			"bad,x2663,2021-11-02T09:01:00,abc,BUY,5,20\n")
	writeFile(t, dir, "x1887.positions.csv",
		"account,symbol,quantity,as_of_date\nx1887,XYZ,10,2021-11-05\n")
	writeFile(t, dir, "notes.txt", "not an export\n")

	txns, positions, issues, err := LoadActivity(dir)
	if err != nil {
		t.Fatalf("LoadActivity failed: %v", err)
	}

	var ids []string
	for _, tx := range txns {
		ids = append(ids, tx.ID)
	}
	// Sorted by event time; t0 came from the superseded file.
	if got, want := strings.Join(ids, ","), "t1,t3,t2"; got != want {
		t.Errorf("transactions = %s, want %s", got, want)
	}

	if len(positions) != 1 || positions[0].Account != "x1887" {
		t.Errorf("positions = %v", positions)
	}

	if len(issues) != 1 || !strings.Contains(issues[0].Error(), "x2663.transactions.csv") {
		t.Errorf("issues = %v, want one naming the file", issues)
	}
}

func TestLoadActivity_BadTable(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "x1887.transactions.csv", "id,account\n") // missing columns

	if _, _, _, err := LoadActivity(dir); err == nil {
		t.Error("LoadActivity accepted a table without required columns")
	}
}

func TestLoadConfig_Missing(t *testing.T) {
	cfg, err := LoadConfig(filepath.Join(t.TempDir(), DefaultConfigName))
	if err != nil {
		t.Fatalf("LoadConfig failed on a missing file: %v", err)
	}
	if len(cfg.Accounts) != 0 || len(cfg.Chains) != 0 {
		t.Errorf("missing config not empty: %+v", cfg)
	}
}

func TestSaveConfig_RoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", DefaultConfigName)
	if err := SaveConfig(path, testConfig()); err != nil {
		t.Fatalf("SaveConfig failed: %v", err)
	}

	loaded, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("LoadConfig failed: %v", err)
	}
	if got, want := encodeConfig(t, loaded), encodeConfig(t, testConfig()); got != want {
		t.Errorf("round trip mismatch:\ngot:\n%s\nwant:\n%s", got, want)
	}
}
