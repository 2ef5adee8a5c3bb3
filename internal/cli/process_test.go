package cli

import (
	"os"
	"path/filepath"
	"testing"
)

func TestReadDocuments(t *testing.T) {
	dir := t.TempDir()
	files := map[string]string{
		"b-discharge.json": `{"patient_details":{"name":"John Doe"}}`,
		"a-approval.json":  `{"approved":true}`,
		".hidden":          `ignored`,
	}
	for name, content := range files {
		if err := os.WriteFile(filepath.Join(dir, name), []byte(content), 0644); err != nil {
			t.Fatalf("write %s: %v", name, err)
		}
	}
	if err := os.Mkdir(filepath.Join(dir, "subdir"), 0755); err != nil {
		t.Fatal(err)
	}

	docs, err := readDocuments(dir)
	if err != nil {
		t.Fatalf("readDocuments() error = %v", err)
	}
	if len(docs) != 2 {
		t.Fatalf("docs = %d, want 2 (hidden files and directories skipped)", len(docs))
	}
	if docs[0].Name != "a-approval.json" || docs[1].Name != "b-discharge.json" {
		t.Errorf("order = %s, %s; want sorted by name", docs[0].Name, docs[1].Name)
	}
	if len(docs[0].Content) == 0 {
		t.Error("document content not loaded")
	}
}

func TestLoadTariffsArray(t *testing.T) {
	path := filepath.Join(t.TempDir(), "tariffs.json")
	raw := `[{"item_code":"XR1","item_name":"X-Ray","tariff_price":1500}]`
	if err := os.WriteFile(path, []byte(raw), 0644); err != nil {
		t.Fatal(err)
	}

	entries, err := loadTariffs(path)
	if err != nil {
		t.Fatalf("loadTariffs() error = %v", err)
	}
	if len(entries) != 1 || entries[0].ItemCode != "XR1" || entries[0].TariffPrice != 1500 {
		t.Errorf("entries = %+v", entries)
	}
}

func TestLoadTariffsKeyedObject(t *testing.T) {
	path := filepath.Join(t.TempDir(), "tariffs.json")
	raw := `{"XR1":{"item_name":"X-Ray","tariff_price":1500},"CT1":{"item_name":"CT Scan","tariff_price":5000}}`
	if err := os.WriteFile(path, []byte(raw), 0644); err != nil {
		t.Fatal(err)
	}

	entries, err := loadTariffs(path)
	if err != nil {
		t.Fatalf("loadTariffs() error = %v", err)
	}
	if len(entries) != 2 {
		t.Fatalf("entries = %d, want 2", len(entries))
	}
	if entries[0].ItemCode != "CT1" || entries[1].ItemCode != "XR1" {
		t.Errorf("codes should be filled from keys and sorted: %+v", entries)
	}
}

func TestLoadTariffsRejectsEmptyAndInvalid(t *testing.T) {
	dir := t.TempDir()

	empty := filepath.Join(dir, "empty.json")
	if err := os.WriteFile(empty, []byte(`[]`), 0644); err != nil {
		t.Fatal(err)
	}
	if _, err := loadTariffs(empty); err == nil {
		t.Error("empty tariff array should be rejected")
	}

	invalid := filepath.Join(dir, "invalid.json")
	if err := os.WriteFile(invalid, []byte(`not json`), 0644); err != nil {
		t.Fatal(err)
	}
	if _, err := loadTariffs(invalid); err == nil {
		t.Error("invalid tariff file should be rejected")
	}
}
