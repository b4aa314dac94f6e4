package main

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/FocuswithJustin/JuniperSongs/core/song"
	"github.com/FocuswithJustin/JuniperSongs/core/verse"
)

const performance = `<verse label="v1">Amazing grace</verse>` +
	`<verse label="c1">My chains are gone</verse>` +
	`<verse label="v2">Twas grace that taught</verse>` +
	`<verse label="c1">My chains are gone</verse>`

type result struct {
	code   int
	stdout string
	stderr string
}

func runCLI(t *testing.T, stdin string, args ...string) result {
	t.Helper()
	var stdout, stderr bytes.Buffer
	code := run(args, strings.NewReader(stdin), &stdout, &stderr)
	return result{code: code, stdout: stdout.String(), stderr: stderr.String()}
}

// libraryArgs points a command at a fresh database and away from any user config.
func libraryArgs(t *testing.T) []string {
	t.Helper()
	dir := t.TempDir()
	return []string{
		"--config", filepath.Join(dir, "missing.toml"),
		"--db", filepath.Join(dir, "songs.db"),
	}
}

func runLibrary(t *testing.T, base []string, stdin string, args ...string) result {
	t.Helper()
	res := runCLI(t, stdin, append(append([]string{}, base...), args...)...)
	if res.code != 0 {
		t.Fatalf("songtext %s: exit %d, stderr: %s", strings.Join(args, " "), res.code, res.stderr)
	}
	return res
}

func listSongs(t *testing.T, base []string) []song.Song {
	t.Helper()
	res := runLibrary(t, base, "", "songs", "list", "--json")
	var songs []song.Song
	if err := json.Unmarshal([]byte(res.stdout), &songs); err != nil {
		t.Fatalf("decode list: %v\n%s", err, res.stdout)
	}
	return songs
}

func TestVersion(t *testing.T) {
	res := runCLI(t, "", "version")
	if res.code != 0 {
		t.Fatalf("expected exit 0, got %d", res.code)
	}
	if !strings.Contains(res.stdout, "songtext dev") {
		t.Errorf("expected version line, got %q", res.stdout)
	}
	if !strings.Contains(res.stdout, "sqlite driver:") {
		t.Errorf("expected driver line, got %q", res.stdout)
	}
}

func TestUnknownCommand(t *testing.T) {
	res := runCLI(t, "", "hymns")
	if res.code != 2 {
		t.Errorf("expected exit 2, got %d", res.code)
	}
}

func TestOrderCheck(t *testing.T) {
	res := runCLI(t, "", "order", "check", "V1  C1\nv02")
	if res.code != 0 {
		t.Fatalf("expected exit 0, got %d: %s", res.code, res.stderr)
	}
	if res.stdout != "v1 c1 v2\n" {
		t.Errorf("expected canonical order, got %q", res.stdout)
	}

	res = runCLI(t, "", "order", "check", "v1, c1")
	if res.code != 1 {
		t.Errorf("expected exit 1, got %d", res.code)
	}
	if !strings.Contains(res.stderr, "invalid order format") {
		t.Errorf("expected order error, got %q", res.stderr)
	}
}

func TestOrderContract(t *testing.T) {
	res := runCLI(t, performance, "order", "contract")
	if res.code != 0 {
		t.Fatalf("expected exit 0, got %d: %s", res.code, res.stderr)
	}
	if res.stdout != "v1 c1 v2 c1\n" {
		t.Errorf("expected %q, got %q", "v1 c1 v2 c1\n", res.stdout)
	}
}

func TestOrderExpand(t *testing.T) {
	sources := `<verse label="v1">Amazing grace</verse><verse label="c1">My chains are gone</verse>`

	res := runCLI(t, sources, "order", "expand", "v1 c1 c1 v2", "--json")
	if res.code != 0 {
		t.Fatalf("expected exit 0, got %d: %s", res.code, res.stderr)
	}
	var seq []verse.Verse
	if err := json.Unmarshal([]byte(res.stdout), &seq); err != nil {
		t.Fatalf("decode sequence: %v", err)
	}
	if len(seq) != 4 {
		t.Fatalf("expected 4 records, got %d", len(seq))
	}
	if seq[2].Content != "My chains are gone" {
		t.Errorf("expected repeated chorus, got %q", seq[2].Content)
	}
	if !strings.Contains(res.stderr, "no lyrics for v2") {
		t.Errorf("expected dangling warning, got %q", res.stderr)
	}

	res = runCLI(t, sources, "order", "expand", "v1 c1", "--markup")
	if res.stdout != sources+"\n" {
		t.Errorf("expected markup %q, got %q", sources, res.stdout)
	}
}

func TestVersesDedupe(t *testing.T) {
	res := runCLI(t, performance, "verses", "dedupe", "--json")
	if res.code != 0 {
		t.Fatalf("expected exit 0, got %d: %s", res.code, res.stderr)
	}
	var out struct {
		Verses []verse.Verse `json:"verses"`
		Order  string        `json:"order"`
	}
	if err := json.Unmarshal([]byte(res.stdout), &out); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(out.Verses) != 3 {
		t.Errorf("expected 3 unique verses, got %d", len(out.Verses))
	}
	if out.Order != "v1 c1 v2 c1" {
		t.Errorf("expected order %q, got %q", "v1 c1 v2 c1", out.Order)
	}
}

func TestVersesNormalize(t *testing.T) {
	res := runCLI(t, performance, "verses", "normalize", "--json")
	if res.code != 0 {
		t.Fatalf("expected exit 0, got %d: %s", res.code, res.stderr)
	}
	var out struct {
		Lyrics string `json:"lyrics"`
		Order  string `json:"order"`
	}
	if err := json.Unmarshal([]byte(res.stdout), &out); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if strings.Count(out.Lyrics, "<verse ") != 3 {
		t.Errorf("expected 3 stored verses, got %q", out.Lyrics)
	}
	if out.Order != "v1 c1 v2 c1" {
		t.Errorf("expected order %q, got %q", "v1 c1 v2 c1", out.Order)
	}

	res = runCLI(t, performance, "verses", "normalize", "--order", "v1, c1")
	if res.code != 1 {
		t.Errorf("expected exit 1 for invalid order, got %d", res.code)
	}
}

func TestVersesParseAndRender(t *testing.T) {
	res := runCLI(t, "Amazing grace\n\nMy chains are gone", "verses", "parse", "--json")
	if res.code != 0 {
		t.Fatalf("expected exit 0, got %d: %s", res.code, res.stderr)
	}
	var parsed struct {
		Format string        `json:"format"`
		Verses []verse.Verse `json:"verses"`
	}
	if err := json.Unmarshal([]byte(res.stdout), &parsed); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(parsed.Verses) == 0 {
		t.Fatal("expected parsed verses")
	}

	records, err := json.Marshal(parsed.Verses)
	if err != nil {
		t.Fatal(err)
	}
	res = runCLI(t, string(records), "verses", "render")
	if res.code != 0 {
		t.Fatalf("expected exit 0, got %d: %s", res.code, res.stderr)
	}
	want := verse.Serialize(parsed.Verses) + "\n"
	if diff := cmp.Diff(want, res.stdout); diff != "" {
		t.Errorf("render mismatch (-want +got):\n%s", diff)
	}
}

func TestVersesParseTable(t *testing.T) {
	res := runCLI(t, performance, "verses", "parse")
	if res.code != 0 {
		t.Fatalf("expected exit 0, got %d: %s", res.code, res.stderr)
	}
	for _, want := range []string{"Format: markup", "Amazing grace", "c1"} {
		if !strings.Contains(res.stdout, want) {
			t.Errorf("expected %q in output:\n%s", want, res.stdout)
		}
	}
}

func TestSongLifecycle(t *testing.T) {
	base := libraryArgs(t)

	runLibrary(t, base, performance, "songs", "add", "--title", "Amazing Grace", "--author", "John Newton")
	songs := listSongs(t, base)
	if len(songs) != 1 {
		t.Fatalf("expected 1 song, got %d", len(songs))
	}
	id := songs[0].ID
	if songs[0].VerseOrder != "v1 c1 v2 c1" {
		t.Errorf("expected stored order, got %q", songs[0].VerseOrder)
	}

	res := runLibrary(t, base, "", "songs", "show", id)
	if strings.Count(res.stdout, "My chains are gone") != 2 {
		t.Errorf("expected chorus twice in performance view:\n%s", res.stdout)
	}

	res = runLibrary(t, base, "", "songs", "show", id, "--xml")
	for _, want := range []string{"<title>Amazing Grace</title>", "<author>John Newton</author>", "<verseOrder>v1 c1 v2 c1</verseOrder>"} {
		if !strings.Contains(res.stdout, want) {
			t.Errorf("expected %q in OpenLyrics output", want)
		}
	}

	runLibrary(t, base, "", "songs", "update", id, "--title", "Amazing Grace (My Chains Are Gone)", "--clear-order")
	songs = listSongs(t, base)
	if songs[0].Title != "Amazing Grace (My Chains Are Gone)" {
		t.Errorf("expected new title, got %q", songs[0].Title)
	}
	if songs[0].VerseOrder != "" {
		t.Errorf("expected order cleared, got %q", songs[0].VerseOrder)
	}

	res = runCLI(t, "", append(append([]string{}, base...), "songs", "update", id, "--title", "x", "--revision", "0000000000000000")...)
	if res.code != 1 || !strings.Contains(res.stderr, "changed") {
		t.Errorf("expected revision conflict, got exit %d: %s", res.code, res.stderr)
	}

	runLibrary(t, base, "", "songs", "delete", id)
	res = runLibrary(t, base, "", "songs", "list")
	if !strings.Contains(res.stdout, "No songs") {
		t.Errorf("expected empty library, got %q", res.stdout)
	}

	res = runCLI(t, "", append(append([]string{}, base...), "songs", "show", id)...)
	if res.code != 1 {
		t.Errorf("expected exit 1 for missing song, got %d", res.code)
	}
}

func TestSongsListQuery(t *testing.T) {
	base := libraryArgs(t)
	runLibrary(t, base, "Line", "songs", "add", "--title", "Be Thou My Vision")
	runLibrary(t, base, "Line", "songs", "add", "--title", "Holy Holy Holy", "--author", "Reginald Heber")

	res := runLibrary(t, base, "", "songs", "list", "-q", "heber")
	if !strings.Contains(res.stdout, "Holy Holy Holy") || strings.Contains(res.stdout, "Be Thou My Vision") {
		t.Errorf("expected only the matching song:\n%s", res.stdout)
	}
}

func TestImportFormats(t *testing.T) {
	base := libraryArgs(t)
	dir := t.TempDir()

	jsonPath := filepath.Join(dir, "songs.json")
	jsonDoc := `[{"title":"Amazing Grace","lyrics":[{"order":1,"content":"` +
		strings.ReplaceAll(performance, `"`, `\"`) + `","label":null}]},` +
		`{"title":"Doxology","lyrics":"Praise God"}]`
	if err := os.WriteFile(jsonPath, []byte(jsonDoc), 0o644); err != nil {
		t.Fatal(err)
	}
	textPath := filepath.Join(dir, "Be Thou My Vision.txt")
	if err := os.WriteFile(textPath, []byte("Be Thou my vision\n\nRiches I heed not"), 0o644); err != nil {
		t.Fatal(err)
	}
	xmlPath := filepath.Join(dir, "holy.xml")
	xmlDoc := `<?xml version="1.0" encoding="UTF-8"?>
<song xmlns="http://openlyrics.info/namespace/2009/song" version="0.9">
  <properties><titles><title>Holy Holy Holy</title></titles><verseOrder>v1 v1</verseOrder></properties>
  <lyrics><verse name="v1"><lines>Holy, holy, holy</lines></verse></lyrics>
</song>`
	if err := os.WriteFile(xmlPath, []byte(xmlDoc), 0o644); err != nil {
		t.Fatal(err)
	}

	res := runLibrary(t, base, "", "songs", "import", jsonPath)
	if !strings.Contains(res.stdout, "Imported 2 song(s)") {
		t.Errorf("expected 2 imported, got %q", res.stdout)
	}
	runLibrary(t, base, "", "songs", "import", textPath)
	runLibrary(t, base, "", "songs", "import", xmlPath)

	titles := map[string]song.Song{}
	for _, s := range listSongs(t, base) {
		titles[s.Title] = s
	}
	for _, want := range []string{"Amazing Grace", "Doxology", "Be Thou My Vision", "Holy Holy Holy"} {
		if _, ok := titles[want]; !ok {
			t.Errorf("expected %q in library", want)
		}
	}
	if got := titles["Amazing Grace"].VerseOrder; got != "v1 c1 v2 c1" {
		t.Errorf("expected legacy lyrics normalized, got order %q", got)
	}
	if got := titles["Holy Holy Holy"].VerseOrder; got != "v1 v1" {
		t.Errorf("expected OpenLyrics order kept, got %q", got)
	}
}

func TestImportRejectsMismatchedFile(t *testing.T) {
	base := libraryArgs(t)
	path := filepath.Join(t.TempDir(), "songs.tar.xz")
	if err := os.WriteFile(path, []byte("not compressed"), 0o644); err != nil {
		t.Fatal(err)
	}
	res := runCLI(t, "", append(append([]string{}, base...), "songs", "import", path)...)
	if res.code != 1 || !strings.Contains(res.stderr, "file type mismatch") {
		t.Errorf("expected type mismatch, got exit %d: %s", res.code, res.stderr)
	}
}

func TestExportImportBundle(t *testing.T) {
	src := libraryArgs(t)
	runLibrary(t, src, performance, "songs", "add", "--title", "Amazing Grace")
	runLibrary(t, src, "Praise God", "songs", "add", "--title", "Doxology")
	before := listSongs(t, src)

	bundle := filepath.Join(t.TempDir(), "library.tar.xz")
	res := runLibrary(t, src, "", "songs", "export", bundle)
	if !strings.Contains(res.stdout, "Exported 2 song(s)") {
		t.Errorf("expected 2 exported, got %q", res.stdout)
	}

	dst := libraryArgs(t)
	runLibrary(t, dst, "", "songs", "import", bundle)
	after := listSongs(t, dst)
	if diff := cmp.Diff(before, after); diff != "" {
		t.Errorf("restored library mismatch (-want +got):\n%s", diff)
	}
}

func TestConfigInit(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")

	res := runCLI(t, "", "config", "init", path)
	if res.code != 0 {
		t.Fatalf("expected exit 0, got %d: %s", res.code, res.stderr)
	}
	if _, err := os.Stat(path); err != nil {
		t.Fatalf("expected config file: %v", err)
	}

	res = runCLI(t, "", "config", "init", path)
	if res.code != 1 || !strings.Contains(res.stderr, "already exists") {
		t.Errorf("expected refusal to overwrite, got exit %d: %s", res.code, res.stderr)
	}
	if res = runCLI(t, "", "config", "init", path, "--force"); res.code != 0 {
		t.Errorf("expected --force to overwrite, got exit %d", res.code)
	}

	res = runCLI(t, "", "--config", path, "--db", filepath.Join(t.TempDir(), "songs.db"), "songs", "list")
	if res.code != 0 {
		t.Errorf("expected sample config to load, got exit %d: %s", res.code, res.stderr)
	}
}
