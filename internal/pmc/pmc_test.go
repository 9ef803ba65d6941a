package pmc

import (
	"io"
	"os"
	"path/filepath"
	"reflect"
	"testing"

	"github.com/bibflow/bibflow/internal/document"
)

const articleXML = `<?xml version="1.0"?>
<article>
  <front>
    <journal-meta>
      <journal-title-group>
        <journal-title>Journal of Worm Research</journal-title>
        <abbrev-journal-title>J Worm Res</abbrev-journal-title>
      </journal-title-group>
    </journal-meta>
    <article-meta>
      <article-id pub-id-type="pmid">555</article-id>
      <article-id pub-id-type="pmc">PMC555</article-id>
      <article-id pub-id-type="doi">10.1000/worms.5</article-id>
      <title-group>
        <article-title>Worm locomotion</article-title>
        <subtitle>a field study</subtitle>
      </title-group>
      <contrib-group>
        <contrib contrib-type="author">
          <name>
            <surname>Smith</surname>
            <given-names>Jane</given-names>
          </name>
        </contrib>
        <contrib contrib-type="editor">
          <name><surname>Ignored</surname></name>
        </contrib>
        <contrib contrib-type="author">
          <collab>Worm Consortium</collab>
        </contrib>
      </contrib-group>
      <pub-date pub-type="ppub">
        <year>2010</year>
      </pub-date>
      <pub-date pub-type="epub">
        <day>5</day>
        <month>3</month>
        <year>2010</year>
      </pub-date>
      <abstract>
        <p>Worms move in waves.</p>
      </abstract>
    </article-meta>
  </front>
  <body>
    <sec>
      <title>Introduction</title>
      <p>Worms are found in soil <xref rid="b1">1</xref> worldwide.</p>
    </sec>
    <sec>
      <title>2. Methods</title>
      <p>We watched worms.</p>
    </sec>
  </body>
  <back>
    <app>
      <p>Supplementary counts.</p>
    </app>
  </back>
  <floats-group>
    <fig>
      <caption><p>A worm.</p></caption>
    </fig>
  </floats-group>
  <sub-article>
    <front-stub>
      <title-group>
        <article-title>Reviewer comments</article-title>
      </title-group>
    </front-stub>
    <body>
      <p>Looks fine.</p>
    </body>
  </sub-article>
</article>`

func readerFor(t *testing.T, content string) *Reader {
	t.Helper()
	path := filepath.Join(t.TempDir(), "article.xml")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("writing fixture: %v", err)
	}
	r, err := NewReader(path)
	if err != nil {
		t.Fatalf("NewReader: %v", err)
	}
	t.Cleanup(func() { r.Close() })
	return r
}

func TestParseArticle(t *testing.T) {
	r := readerFor(t, articleXML)
	doc, err := r.Next()
	if err != nil {
		t.Fatalf("Next: %v", err)
	}

	if doc.ID != "555" {
		t.Errorf("ID = %q, want %q", doc.ID, "555")
	}
	if got := doc.SecondaryID(document.IDKindPMC); got != "PMC555" {
		t.Errorf("pmc id = %q", got)
	}
	// The electronic date has all three components; the print date has
	// only the year, so the more complete one wins.
	if doc.Date != (document.Date{Year: 2010, Month: 3, Day: 5}) {
		t.Errorf("Date = %v, want 2010-3-5", doc.Date)
	}
	if want := []string{"Worm locomotion"}; !reflect.DeepEqual(doc.Title, want) {
		t.Errorf("Title = %v, want %v", doc.Title, want)
	}
	if want := []string{"a field study"}; !reflect.DeepEqual(doc.Subtitle, want) {
		t.Errorf("Subtitle = %v, want %v", doc.Subtitle, want)
	}
	if want := []string{"Worms move in waves."}; !reflect.DeepEqual(doc.Abstract, want) {
		t.Errorf("Abstract = %v, want %v", doc.Abstract, want)
	}
	if doc.Journal != "Journal of Worm Research" {
		t.Errorf("Journal = %q", doc.Journal)
	}
	if doc.JournalISO != "J Worm Res" {
		t.Errorf("JournalISO = %q", doc.JournalISO)
	}
	if want := []string{"Jane Smith", "Worm Consortium"}; !reflect.DeepEqual(doc.Authors, want) {
		t.Errorf("Authors = %v, want %v", doc.Authors, want)
	}

	wantBody := []string{
		"Introduction",
		"Worms are found in soil worldwide.",
		"2. Methods",
		"We watched worms.",
	}
	if !reflect.DeepEqual(doc.Body, wantBody) {
		t.Errorf("Body = %v, want %v", doc.Body, wantBody)
	}
	wantSubs := []string{"introduction", "introduction", "methods", "methods"}
	if !reflect.DeepEqual(doc.Subsections, wantSubs) {
		t.Errorf("Subsections = %v, want %v", doc.Subsections, wantSubs)
	}
	if want := []string{"Supplementary counts."}; !reflect.DeepEqual(doc.Back, want) {
		t.Errorf("Back = %v, want %v", doc.Back, want)
	}
	if want := []string{"A worm."}; !reflect.DeepEqual(doc.Floating, want) {
		t.Errorf("Floating = %v, want %v", doc.Floating, want)
	}
}

func TestSubtitleIsSeparateFromTitle(t *testing.T) {
	const xmlDoc = `<article>
  <front>
    <article-meta>
      <article-id pub-id-type="pmid">12</article-id>
      <title-group>
        <article-title>Main title</article-title>
        <subtitle>A subtitle</subtitle>
      </title-group>
    </article-meta>
  </front>
</article>`
	r := readerFor(t, xmlDoc)
	doc, err := r.Next()
	if err != nil {
		t.Fatalf("Next: %v", err)
	}
	if want := []string{"Main title"}; !reflect.DeepEqual(doc.Title, want) {
		t.Errorf("Title = %v, want %v", doc.Title, want)
	}
	if want := []string{"A subtitle"}; !reflect.DeepEqual(doc.Subtitle, want) {
		t.Errorf("Subtitle = %v, want %v", doc.Subtitle, want)
	}
}

func TestSubArticleInheritsHeader(t *testing.T) {
	r := readerFor(t, articleXML)
	if _, err := r.Next(); err != nil {
		t.Fatalf("main article: %v", err)
	}
	sub, err := r.Next()
	if err != nil {
		t.Fatalf("sub-article: %v", err)
	}

	if sub.ID != "555" {
		t.Errorf("sub ID = %q, want inherited %q", sub.ID, "555")
	}
	if got := sub.SecondaryID(document.IDKindDOI); got != "10.1000/worms.5" {
		t.Errorf("sub doi = %q, want inherited", got)
	}
	if sub.Date != (document.Date{Year: 2010, Month: 3, Day: 5}) {
		t.Errorf("sub Date = %v, want inherited", sub.Date)
	}
	if sub.Journal != "Journal of Worm Research" {
		t.Errorf("sub Journal = %q, want inherited", sub.Journal)
	}
	if want := []string{"Reviewer comments"}; !reflect.DeepEqual(sub.Title, want) {
		t.Errorf("sub Title = %v, want its own %v", sub.Title, want)
	}
	if want := []string{"Looks fine."}; !reflect.DeepEqual(sub.Body, want) {
		t.Errorf("sub Body = %v, want %v", sub.Body, want)
	}

	if _, err := r.Next(); err != io.EOF {
		t.Errorf("Next after sub-article = %v, want io.EOF", err)
	}
}

func TestSubArticleWithOwnIDInheritsNothing(t *testing.T) {
	const xmlDoc = `<article>
  <front>
    <article-meta>
      <article-id pub-id-type="pmid">1</article-id>
      <pub-date><year>2000</year></pub-date>
    </article-meta>
    <journal-meta>
      <journal-title>Parent Journal</journal-title>
    </journal-meta>
  </front>
  <sub-article>
    <front-stub>
      <article-id pub-id-type="pmid">2</article-id>
    </front-stub>
  </sub-article>
</article>`
	r := readerFor(t, xmlDoc)
	if _, err := r.Next(); err != nil {
		t.Fatalf("main article: %v", err)
	}
	sub, err := r.Next()
	if err != nil {
		t.Fatalf("sub-article: %v", err)
	}
	if sub.ID != "2" {
		t.Errorf("sub ID = %q, want its own %q", sub.ID, "2")
	}
	if !sub.Date.IsZero() {
		t.Errorf("sub Date = %v, want zero", sub.Date)
	}
	if sub.Journal != "" {
		t.Errorf("sub Journal = %q, want empty", sub.Journal)
	}
}

func TestSeasonDate(t *testing.T) {
	const xmlDoc = `<article>
  <front>
    <article-meta>
      <article-id pub-id-type="pmid">9</article-id>
      <pub-date>
        <season>Jul-Aug</season>
        <year>1999</year>
      </pub-date>
    </article-meta>
  </front>
</article>`
	r := readerFor(t, xmlDoc)
	doc, err := r.Next()
	if err != nil {
		t.Fatalf("Next: %v", err)
	}
	if doc.Date != (document.Date{Year: 1999, Month: 7}) {
		t.Errorf("Date = %v, want 1999-7-0", doc.Date)
	}
}

func TestTagSubsections(t *testing.T) {
	blocks := []string{
		"Preamble before any heading",
		"1. Introduction",
		"Some intro text",
		"Materials and Methods",
		"Protocol details",
		"An Unrecognized Heading",
		"Results",
		"Findings",
	}
	want := []string{
		"",
		"introduction",
		"introduction",
		"materials and methods",
		"materials and methods",
		"materials and methods",
		"results",
		"results",
	}
	if got := tagSubsections(blocks); !reflect.DeepEqual(got, want) {
		t.Errorf("tagSubsections = %v, want %v", got, want)
	}
}
