package gather

import (
	"errors"
	"os"
	"path/filepath"
	"reflect"
	"sort"
	"strings"
	"testing"
	"time"

	"github.com/bibflow/bibflow/internal/hashdoc"
)

// dig returns distinct stand-in digests; resolution only ever compares
// digests for equality.
func dig(s string) string { return "digest-of-" + s }

func docFields(title, journal string) hashdoc.Digests {
	return hashdoc.Digests{
		"title":   dig(title),
		"journal": dig(journal),
	}
}

func sortedIDs(m map[string][]int, file string) []int {
	ids := append([]int(nil), m[file]...)
	sort.Ints(ids)
	return ids
}

func TestResolveSingleVersion(t *testing.T) {
	index := hashdoc.Index{
		"corpus/rel1.xml": {"10": docFields("a", "j")},
		"corpus/rel2.xml": {"20": docFields("b", "j")},
	}
	got, err := Resolve(index, nil)
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if want := []int{10}; !reflect.DeepEqual(sortedIDs(got, "corpus/rel1.xml"), want) {
		t.Errorf("rel1 ids = %v, want %v", got["corpus/rel1.xml"], want)
	}
	if want := []int{20}; !reflect.DeepEqual(sortedIDs(got, "corpus/rel2.xml"), want) {
		t.Errorf("rel2 ids = %v, want %v", got["corpus/rel2.xml"], want)
	}
}

func TestResolveUnchangedCollapsesToOldest(t *testing.T) {
	index := hashdoc.Index{
		"rel1.xml": {"10": docFields("same", "j")},
		"rel2.xml": {"10": docFields("same", "j")},
		"rel3.xml": {"10": docFields("same", "j")},
	}
	got, err := Resolve(index, nil)
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if want := []int{10}; !reflect.DeepEqual(sortedIDs(got, "rel1.xml"), want) {
		t.Errorf("owner = %v, want the oldest release", got)
	}
	if len(got["rel2.xml"])+len(got["rel3.xml"]) != 0 {
		t.Errorf("newer releases also own the id: %v", got)
	}
}

func TestResolveChangeFreezesNewerFile(t *testing.T) {
	index := hashdoc.Index{
		"rel1.xml": {"10": docFields("old", "j")},
		"rel2.xml": {"10": docFields("new", "j")},
		"rel3.xml": {"10": docFields("new", "j")},
	}
	got, err := Resolve(index, nil)
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if want := []int{10}; !reflect.DeepEqual(sortedIDs(got, "rel2.xml"), want) {
		t.Errorf("owner map = %v, want rel2 to own id 10", got)
	}
}

func TestResolveFieldSelectionChangesOwnership(t *testing.T) {
	// The title changed between releases but the journal did not, so the
	// outcome depends on which fields take part.
	index := hashdoc.Index{
		"rel1.xml": {"10": docFields("old title", "j")},
		"rel2.xml": {"10": docFields("new title", "j")},
	}

	byTitle, err := Resolve(index, []string{"title"})
	if err != nil {
		t.Fatalf("Resolve by title: %v", err)
	}
	if want := []int{10}; !reflect.DeepEqual(sortedIDs(byTitle, "rel2.xml"), want) {
		t.Errorf("by title: owner map = %v, want rel2", byTitle)
	}

	byJournal, err := Resolve(index, []string{"journal"})
	if err != nil {
		t.Fatalf("Resolve by journal: %v", err)
	}
	if want := []int{10}; !reflect.DeepEqual(sortedIDs(byJournal, "rel1.xml"), want) {
		t.Errorf("by journal: owner map = %v, want rel1", byJournal)
	}
}

func TestResolveReleaseOrderFromFileNames(t *testing.T) {
	// rel9 orders before rel10 numerically even though it sorts after it
	// lexically.
	index := hashdoc.Index{
		"rel10.xml": {"10": docFields("new", "j")},
		"rel9.xml":  {"10": docFields("old", "j")},
	}
	got, err := Resolve(index, nil)
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if want := []int{10}; !reflect.DeepEqual(sortedIDs(got, "rel10.xml"), want) {
		t.Errorf("owner map = %v, want rel10 as the newer release", got)
	}
}

func TestResolveUnknownField(t *testing.T) {
	index := hashdoc.Index{
		"rel1.xml": {"10": docFields("a", "j")},
	}
	_, err := Resolve(index, []string{"body"})
	if !errors.Is(err, ErrUnknownField) {
		t.Errorf("Resolve with unknown field = %v, want ErrUnknownField", err)
	}
}

func TestResolveNonIntegerID(t *testing.T) {
	index := hashdoc.Index{
		"rel1.xml": {"PMC123": docFields("a", "j")},
	}
	_, err := Resolve(index, nil)
	if err == nil || !strings.Contains(err.Error(), "PMC123") {
		t.Errorf("Resolve with non-integer id = %v, want an error naming it", err)
	}
}

func writeHashFiles(t *testing.T, hashDir string, index hashdoc.Index) {
	t.Helper()
	i := 0
	for source, digests := range index {
		name := filepath.Join(hashDir, filepath.Base(source)+".json")
		if err := hashdoc.WriteFile(name, source, digests); err != nil {
			t.Fatalf("writing hash file %d: %v", i, err)
		}
		i++
	}
}

func readPMIDs(t *testing.T, path string) string {
	t.Helper()
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("reading %s: %v", path, err)
	}
	return string(data)
}

func TestRunWritesSortedPMIDFiles(t *testing.T) {
	hashDir := t.TempDir()
	outDir := filepath.Join(t.TempDir(), "pmids")
	writeHashFiles(t, hashDir, hashdoc.Index{
		"rel1.xml": {
			"30": docFields("a", "j"),
			"4":  docFields("b", "j"),
			"99": docFields("c", "j"),
		},
	})

	if err := Run(hashDir, outDir, Options{}); err != nil {
		t.Fatalf("Run: %v", err)
	}
	got := readPMIDs(t, filepath.Join(outDir, "rel1.xml.pmids"))
	if want := "4\n30\n99\n"; got != want {
		t.Errorf("pmids file = %q, want %q", got, want)
	}
}

func TestRunAppliesExclusions(t *testing.T) {
	hashDir := t.TempDir()
	outDir := filepath.Join(t.TempDir(), "pmids")
	writeHashFiles(t, hashDir, hashdoc.Index{
		"rel1.xml": {
			"10": docFields("a", "j"),
			"20": docFields("b", "j"),
		},
	})

	opts := Options{Exclude: map[int]bool{10: true}}
	if err := Run(hashDir, outDir, opts); err != nil {
		t.Fatalf("Run: %v", err)
	}
	got := readPMIDs(t, filepath.Join(outDir, "rel1.xml.pmids"))
	if want := "20\n"; got != want {
		t.Errorf("pmids file = %q, want %q", got, want)
	}
}

func TestRunPreservesMtimeWhenUnchanged(t *testing.T) {
	hashDir := t.TempDir()
	outDir := filepath.Join(t.TempDir(), "pmids")
	writeHashFiles(t, hashDir, hashdoc.Index{
		"rel1.xml": {"10": docFields("a", "j")},
	})

	if err := Run(hashDir, outDir, Options{}); err != nil {
		t.Fatalf("first Run: %v", err)
	}
	outFile := filepath.Join(outDir, "rel1.xml.pmids")

	// Age the output, then bump a hash file so the run is not
	// short-circuited; the rewrite must restore the old mtime.
	old := time.Now().Add(-2 * time.Hour)
	if err := os.Chtimes(outFile, old, old); err != nil {
		t.Fatal(err)
	}
	info, err := os.Stat(outFile)
	if err != nil {
		t.Fatal(err)
	}
	before := info.ModTime()

	now := time.Now()
	hashFiles, err := filepath.Glob(filepath.Join(hashDir, "*.json"))
	if err != nil || len(hashFiles) == 0 {
		t.Fatalf("hash files: %v, %v", hashFiles, err)
	}
	if err := os.Chtimes(hashFiles[0], now, now); err != nil {
		t.Fatal(err)
	}

	if err := Run(hashDir, outDir, Options{}); err != nil {
		t.Fatalf("second Run: %v", err)
	}
	info, err = os.Stat(outFile)
	if err != nil {
		t.Fatal(err)
	}
	if !info.ModTime().Equal(before) {
		t.Errorf("mtime changed on identical rewrite: %v -> %v", before, info.ModTime())
	}
}

func TestRunShortCircuitsWhenOutputsNewer(t *testing.T) {
	hashDir := t.TempDir()
	outDir := filepath.Join(t.TempDir(), "pmids")
	writeHashFiles(t, hashDir, hashdoc.Index{
		"rel1.xml": {"10": docFields("a", "j")},
	})

	if err := Run(hashDir, outDir, Options{}); err != nil {
		t.Fatalf("first Run: %v", err)
	}
	outFile := filepath.Join(outDir, "rel1.xml.pmids")
	future := time.Now().Add(time.Hour)
	if err := os.Chtimes(outFile, future, future); err != nil {
		t.Fatal(err)
	}

	// Corrupt the hash dir; a short-circuited run must never read it.
	hashFiles, err := filepath.Glob(filepath.Join(hashDir, "*.json"))
	if err != nil || len(hashFiles) == 0 {
		t.Fatalf("hash files: %v, %v", hashFiles, err)
	}
	old := time.Now().Add(-time.Hour)
	if err := os.WriteFile(hashFiles[0], []byte("not json"), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := os.Chtimes(hashFiles[0], old, old); err != nil {
		t.Fatal(err)
	}

	if err := Run(hashDir, outDir, Options{}); err != nil {
		t.Fatalf("short-circuited Run: %v", err)
	}
	got := readPMIDs(t, outFile)
	if want := "10\n"; got != want {
		t.Errorf("pmids file = %q, want untouched %q", got, want)
	}
}

func TestRunShortCircuitIgnoresSubdirectories(t *testing.T) {
	hashDir := t.TempDir()
	outDir := filepath.Join(t.TempDir(), "pmids")
	writeHashFiles(t, hashDir, hashdoc.Index{
		"rel1.xml": {"10": docFields("a", "j")},
	})

	if err := Run(hashDir, outDir, Options{}); err != nil {
		t.Fatalf("first Run: %v", err)
	}
	outFile := filepath.Join(outDir, "rel1.xml.pmids")
	future := time.Now().Add(time.Hour)
	if err := os.Chtimes(outFile, future, future); err != nil {
		t.Fatal(err)
	}

	// Corrupt the hash file, then add a subdirectory newer than every
	// output. Only hash files count as inputs, so the run must still
	// short-circuit and never touch the corrupt file.
	hashFiles, err := filepath.Glob(filepath.Join(hashDir, "*.json"))
	if err != nil || len(hashFiles) == 0 {
		t.Fatalf("hash files: %v, %v", hashFiles, err)
	}
	old := time.Now().Add(-time.Hour)
	if err := os.WriteFile(hashFiles[0], []byte("not json"), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := os.Chtimes(hashFiles[0], old, old); err != nil {
		t.Fatal(err)
	}
	scratch := filepath.Join(hashDir, "scratch")
	if err := os.Mkdir(scratch, 0o755); err != nil {
		t.Fatal(err)
	}
	later := future.Add(time.Hour)
	if err := os.Chtimes(scratch, later, later); err != nil {
		t.Fatal(err)
	}

	if err := Run(hashDir, outDir, Options{}); err != nil {
		t.Fatalf("Run with fresh subdirectory: %v", err)
	}
	got := readPMIDs(t, outFile)
	if want := "10\n"; got != want {
		t.Errorf("pmids file = %q, want untouched %q", got, want)
	}
}

func TestRunUnknownFieldFails(t *testing.T) {
	hashDir := t.TempDir()
	outDir := filepath.Join(t.TempDir(), "pmids")
	writeHashFiles(t, hashDir, hashdoc.Index{
		"rel1.xml": {"10": docFields("a", "j")},
	})
	err := Run(hashDir, outDir, Options{Fields: []string{"nope"}})
	if !errors.Is(err, ErrUnknownField) {
		t.Errorf("Run = %v, want ErrUnknownField", err)
	}
}
