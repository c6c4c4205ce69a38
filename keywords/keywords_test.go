package keywords

import (
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"
)

func TestParse(t *testing.T) {
	text := "  multistream  \r\n\nOBS setup\nmultistream\n\n" + strings.Repeat("x", MaxKeywordLen+1) + "\nobs SETUP\nlive shopping"
	got, tooLong := Parse(text)
	want := []string{"multistream", "OBS setup", "live shopping"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("Parse = %q, want %q", got, want)
	}
	if tooLong != 1 {
		t.Errorf("tooLong = %d, want 1", tooLong)
	}
	if got, tooLong := Parse(" \n \n"); len(got) != 0 || tooLong != 0 {
		t.Errorf("Parse(blank) = %q, %d, want empty", got, tooLong)
	}
	if _, tooLong := Parse(strings.Repeat("y", MaxKeywordLen)); tooLong != 0 {
		t.Errorf("a keyword of exactly MaxKeywordLen was rejected")
	}
}

func TestLoadMissingFile(t *testing.T) {
	kws, err := Load(filepath.Join(t.TempDir(), "nope.txt"))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if len(kws) != 0 {
		t.Errorf("Load = %q, want empty", kws)
	}
}

func TestSaveAndLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "SCRAP", "KEYWORDS.txt")
	if err := Save(path, []string{"alpha", "beta"}); err != nil {
		t.Fatalf("Save: %v", err)
	}
	b, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if string(b) != "alpha\nbeta\n" {
		t.Errorf("file = %q", b)
	}
	kws, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if !reflect.DeepEqual(kws, []string{"alpha", "beta"}) {
		t.Errorf("Load = %q", kws)
	}

	if err := Save(path, nil); err != nil {
		t.Fatalf("Save(empty): %v", err)
	}
	if b, _ := os.ReadFile(path); len(b) != 0 {
		t.Errorf("file = %q, want empty", b)
	}
}
