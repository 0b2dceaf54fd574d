package qdex_test

import (
	"reflect"
	"strings"
	"testing"

	gojson "github.com/goccy/go-json"

	"github.com/openqda/qdex"
)

// fixtureDoc exercises every entity family: users, a recursive codebook,
// variables, cases with variable values, text/PDF/audio sources with
// selections, transcripts with sync points, notes, sets, and a graph.
const fixtureDoc = `<?xml version="1.0" encoding="utf-8"?>
<Project xmlns="urn:QDA-XML:project:1.0" name="Field Study" origin="qdex" creatingUserGUID="00000000-0000-4000-8000-000000000001" creationDateTime="2024-02-29T10:00:00Z">
  <Users>
    <User guid="00000000-0000-4000-8000-000000000001" name="Ana" id="ana"/>
  </Users>
  <CodeBook>
    <Codes>
      <Code guid="00000000-0000-4000-8000-000000000002" name="Theme" isCodable="true" color="#ff0000">
        <Description>Top-level theme</Description>
        <Code guid="00000000-0000-4000-8000-000000000003" name="Subtheme" isCodable="false"/>
      </Code>
    </Codes>
  </CodeBook>
  <Variables>
    <Variable guid="00000000-0000-4000-8000-000000000004" name="Age" typeOfVariable="Integer"/>
  </Variables>
  <Cases>
    <Case guid="00000000-0000-4000-8000-000000000005" name="Case one">
      <CodeRef targetGUID="00000000-0000-4000-8000-000000000002"/>
      <VariableValue>
        <VariableRef targetGUID="00000000-0000-4000-8000-000000000004"/>
        <IntegerValue>42</IntegerValue>
      </VariableValue>
    </Case>
  </Cases>
  <Sources>
    <TextSource guid="00000000-0000-4000-8000-000000000006" name="Interview one" creatingUser="00000000-0000-4000-8000-000000000001" creationDateTime="2024-01-15T09:30:00Z">
      <PlainTextContent>I think the weather matters. &amp; so does &lt;context&gt;.</PlainTextContent>
      <PlainTextSelection guid="00000000-0000-4000-8000-000000000007" startPosition="0" endPosition="7">
        <Coding guid="00000000-0000-4000-8000-000000000008">
          <CodeRef targetGUID="00000000-0000-4000-8000-000000000002"/>
        </Coding>
      </PlainTextSelection>
    </TextSource>
    <PDFSource guid="00000000-0000-4000-8000-000000000014" path="docs/report.pdf">
      <Representation guid="00000000-0000-4000-8000-000000000015" plainTextPath="internal://report.txt"/>
      <PDFSelection guid="00000000-0000-4000-8000-000000000016" page="2" firstX="0" firstY="0" secondX="100" secondY="50"/>
    </PDFSource>
    <AudioSource guid="00000000-0000-4000-8000-000000000009" path="audio/a1.m4a">
      <Transcript guid="00000000-0000-4000-8000-00000000000a" plainTextPath="internal://t1.txt">
        <SyncPoint guid="00000000-0000-4000-8000-00000000000b" timeStamp="0" position="0"/>
        <TranscriptSelection guid="00000000-0000-4000-8000-00000000000c" fromSyncPoint="00000000-0000-4000-8000-00000000000b" toSyncPoint="00000000-0000-4000-8000-00000000000b"/>
      </Transcript>
      <AudioSelection guid="00000000-0000-4000-8000-00000000000d" begin="0" end="1500"/>
    </AudioSource>
  </Sources>
  <Notes>
    <Note guid="00000000-0000-4000-8000-00000000000e" name="Memo">
      <PlainTextContent>Remember to follow up.</PlainTextContent>
    </Note>
  </Notes>
  <Sets>
    <Set guid="00000000-0000-4000-8000-00000000000f" name="Key codes">
      <MemberCode targetGUID="00000000-0000-4000-8000-000000000002"/>
    </Set>
  </Sets>
  <Graphs>
    <Graph guid="00000000-0000-4000-8000-000000000010">
      <Vertex guid="00000000-0000-4000-8000-000000000011" firstX="10" firstY="20" shape="Rectangle"/>
      <Vertex guid="00000000-0000-4000-8000-000000000012" firstX="30" firstY="40"/>
      <Edge guid="00000000-0000-4000-8000-000000000013" sourceVertex="00000000-0000-4000-8000-000000000011" targetVertex="00000000-0000-4000-8000-000000000012" lineStyle="solid"/>
    </Graph>
  </Graphs>
  <Description>A small but representative project.</Description>
  <NoteRef targetGUID="00000000-0000-4000-8000-00000000000e"/>
</Project>
`

func TestParseDocument_MinimalScenario(t *testing.T) {
	v, err := qdex.ParseDocument(`<Project name="Minimal"/>`)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	want := map[string]any{"qde": map[string]any{"attributes": map[string]any{"name": "Minimal"}}}
	if !reflect.DeepEqual(v, want) {
		t.Fatalf("got %v, want %v", v, want)
	}

	text, err := qdex.BuildDocument(v)
	if err != nil {
		t.Fatalf("build: %v", err)
	}
	if !strings.HasPrefix(text, `<?xml version="1.0" encoding="utf-8"?>`) {
		t.Fatalf("missing declaration: %q", text)
	}
	if !strings.Contains(text, `<Project name="Minimal"/>`) {
		t.Fatalf("expected attribute-only root, got %q", text)
	}
}

func TestRoundTrip_XMLJSONXML(t *testing.T) {
	v1, err := qdex.ParseDocument(fixtureDoc)
	if err != nil {
		t.Fatalf("parse fixture: %v", err)
	}
	text, err := qdex.BuildDocument(v1)
	if err != nil {
		t.Fatalf("build: %v", err)
	}
	v2, err := qdex.ParseDocument(text)
	if err != nil {
		t.Fatalf("reparse: %v", err)
	}
	if !reflect.DeepEqual(v1, v2) {
		t.Fatalf("round trip changed the document\nfirst:  %v\nsecond: %v", v1, v2)
	}
}

func TestRoundTrip_JSONXMLJSON(t *testing.T) {
	v, err := qdex.ParseDocument(fixtureDoc)
	if err != nil {
		t.Fatalf("parse fixture: %v", err)
	}
	text, err := qdex.BuildDocument(v)
	if err != nil {
		t.Fatalf("build: %v", err)
	}
	back, err := qdex.ParseDocument(text)
	if err != nil {
		t.Fatalf("reparse: %v", err)
	}
	if !reflect.DeepEqual(v, back) {
		t.Fatalf("JSON value not preserved across XML")
	}
}

func TestBuildDocument_Determinism(t *testing.T) {
	v, err := qdex.ParseDocument(fixtureDoc)
	if err != nil {
		t.Fatalf("parse fixture: %v", err)
	}
	first, err := qdex.BuildDocument(v)
	if err != nil {
		t.Fatalf("build: %v", err)
	}

	// A structurally equal value arriving through a different decoder (with
	// json.Number scalars and fresh map insertion order) must serialize to
	// byte-identical text.
	enc, err := qdex.ParseDocumentJSON(fixtureDoc)
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	second, err := qdex.BuildDocumentJSON(enc)
	if err != nil {
		t.Fatalf("build from JSON bytes: %v", err)
	}
	if first != second {
		t.Fatalf("serialization is not deterministic\nfirst:  %q\nsecond: %q", first, second)
	}
}

func TestAlwaysArray_SingleCodeStaysArray(t *testing.T) {
	v, err := qdex.ParseDocument(fixtureDoc)
	if err != nil {
		t.Fatalf("parse fixture: %v", err)
	}
	project := v["qde"].(map[string]any)
	codes := project["CodeBook"].(map[string]any)["Codes"].(map[string]any)
	arr, ok := codes["Code"].([]any)
	if !ok || len(arr) != 1 {
		t.Fatalf("single Code must be a one-element array, got %T", codes["Code"])
	}

	// Depth and the child's wrapped attributes survive the round trip.
	top := arr[0].(map[string]any)
	child := top["Code"].([]any)[0].(map[string]any)
	attrs := child["attributes"].(map[string]any)
	if attrs["name"] != "Subtheme" {
		t.Fatalf("nested code name lost, got %v", attrs["name"])
	}
	if _, deeper := child["Code"]; deeper {
		t.Fatalf("recursion depth must be preserved exactly")
	}
}

func TestRoundTrip_EmptyContainer(t *testing.T) {
	v1, err := qdex.ParseDocument(`<Project name="p"><Users></Users></Project>`)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	text, err := qdex.BuildDocument(v1)
	if err != nil {
		t.Fatalf("build: %v", err)
	}
	if !strings.Contains(text, "<Users/>") {
		t.Fatalf("blank container must stay an element, got %q", text)
	}
	v2, err := qdex.ParseDocument(text)
	if err != nil {
		t.Fatalf("reparse: %v", err)
	}
	if !reflect.DeepEqual(v1, v2) {
		t.Fatalf("blank container did not round trip: %v vs %v", v1, v2)
	}
}

func TestRoundTrip_VendorExtensionElement(t *testing.T) {
	// Unknown element-cased content passes validation, so it must also
	// survive the round trip as an element, not degrade to an attribute.
	v1, err := qdex.ParseDocument(`<Project name="p"><Memo>follow up</Memo></Project>`)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	text, err := qdex.BuildDocument(v1)
	if err != nil {
		t.Fatalf("build: %v", err)
	}
	if !strings.Contains(text, "<Memo>follow up</Memo>") {
		t.Fatalf("extension element must stay an element, got %q", text)
	}
	v2, err := qdex.ParseDocument(text)
	if err != nil {
		t.Fatalf("reparse: %v", err)
	}
	if !reflect.DeepEqual(v1, v2) {
		t.Fatalf("extension element did not round trip: %v vs %v", v1, v2)
	}
}

func TestRoundTrip_PDFSource(t *testing.T) {
	v, err := qdex.ParseDocument(fixtureDoc)
	if err != nil {
		t.Fatalf("parse fixture: %v", err)
	}
	project := v["qde"].(map[string]any)
	pdf := project["Sources"].(map[string]any)["PDFSource"].([]any)[0].(map[string]any)
	rep, ok := pdf["Representation"].(map[string]any)
	if !ok || rep["plainTextPath"] != "internal://report.txt" {
		t.Fatalf("nested representation lost, got %v", pdf["Representation"])
	}
	sel := pdf["PDFSelection"].([]any)[0].(map[string]any)
	if sel["page"] != int64(2) {
		t.Fatalf("page must coerce to an integer, got %v (%T)", sel["page"], sel["page"])
	}
}

func TestParseDocument_VerbatimText(t *testing.T) {
	v, err := qdex.ParseDocument(fixtureDoc)
	if err != nil {
		t.Fatalf("parse fixture: %v", err)
	}
	project := v["qde"].(map[string]any)
	sources := project["Sources"].(map[string]any)
	ts := sources["TextSource"].([]any)[0].(map[string]any)
	want := "I think the weather matters. & so does <context>."
	if ts["PlainTextContent"] != want {
		t.Fatalf("content not preserved verbatim: %q", ts["PlainTextContent"])
	}
}

func TestParseDocument_MalformedMarkup(t *testing.T) {
	_, err := qdex.ParseDocument(`<Project name="broken"><Users>`)
	iss, ok := qdex.AsIssues(err)
	if !ok || len(iss) == 0 {
		t.Fatalf("expected Issues, got %v", err)
	}
	if iss[0].Code != qdex.CodeParseError {
		t.Fatalf("expected parse_error, got %v", iss[0].Code)
	}
	if iss[0].Cause == nil {
		t.Fatalf("parse errors must carry the parser diagnostics")
	}
}

func TestParseDocument_ValidationFailureHasPath(t *testing.T) {
	_, err := qdex.ParseDocument(`<Project name="p"><Users><User guid="nope"/></Users></Project>`)
	iss, ok := qdex.AsIssues(err)
	if !ok {
		t.Fatalf("expected Issues, got %v", err)
	}
	found := false
	for _, it := range iss {
		if it.Code == qdex.CodeInvalidFormat && strings.Contains(it.Path, "/qde/Users/User/0/guid") {
			found = true
		}
	}
	if !found {
		t.Fatalf("expected invalid_format at /qde/Users/User/0/guid, got %v", iss)
	}
}

func TestParseDocument_WrongRoot(t *testing.T) {
	_, err := qdex.ParseDocument(`<NotAProject/>`)
	if err == nil {
		t.Fatalf("expected error for wrong root element")
	}
}

func TestBuildDocument_InputShape(t *testing.T) {
	_, err := qdex.BuildDocument(42)
	iss, ok := qdex.AsIssues(err)
	if !ok || iss[0].Code != qdex.CodeInputShape {
		t.Fatalf("expected input_shape, got %v", err)
	}

	_, err = qdex.BuildDocument(map[string]any{"qde": "not an object"})
	iss, ok = qdex.AsIssues(err)
	if !ok || iss[0].Code != qdex.CodeInputShape {
		t.Fatalf("expected input_shape for non-object qde, got %v", err)
	}
}

func TestBuildDocument_EnvelopeTolerance(t *testing.T) {
	bare := map[string]any{"attributes": map[string]any{"name": "Minimal"}}
	wrapped := map[string]any{"qde": bare}

	a, err := qdex.BuildDocument(bare)
	if err != nil {
		t.Fatalf("bare: %v", err)
	}
	b, err := qdex.BuildDocument(wrapped)
	if err != nil {
		t.Fatalf("wrapped: %v", err)
	}
	if a != b {
		t.Fatalf("envelope must not affect output")
	}
}

func TestBuildDocument_NilFieldsOmitted(t *testing.T) {
	text, err := qdex.BuildDocument(map[string]any{
		"attributes":  map[string]any{"name": "Minimal", "origin": nil},
		"Description": nil,
	})
	if err != nil {
		t.Fatalf("build: %v", err)
	}
	if strings.Contains(text, "origin") || strings.Contains(text, "Description") {
		t.Fatalf("absent fields must not be emitted: %q", text)
	}
}

func TestValidate_EnvelopeAndErrors(t *testing.T) {
	if err := qdex.Validate(map[string]any{"qde": map[string]any{"attributes": map[string]any{"name": "x"}}}); err != nil {
		t.Fatalf("valid document rejected: %v", err)
	}
	err := qdex.Validate(map[string]any{"qde": map[string]any{}})
	if err == nil {
		t.Fatalf("expected required-name failure")
	}
}

func TestValidate_VendorQdeKeyIsNotEnvelope(t *testing.T) {
	// A bare project carrying a vendor qde extension alongside other fields
	// must validate as a project, not be unwrapped as the envelope.
	v := map[string]any{
		"attributes": map[string]any{"name": "x"},
		"qde":        map[string]any{"vendor": "data"},
	}
	if err := qdex.Validate(v); err != nil {
		t.Fatalf("bare project with qde extension rejected: %v", err)
	}
}

func TestBuildDocumentJSON(t *testing.T) {
	text, err := qdex.BuildDocumentJSON([]byte(`{"qde":{"attributes":{"name":"Minimal"}}}`))
	if err != nil {
		t.Fatalf("build: %v", err)
	}
	if !strings.Contains(text, `name="Minimal"`) {
		t.Fatalf("unexpected output: %q", text)
	}

	_, err = qdex.BuildDocumentJSON([]byte(`{not json`))
	iss, ok := qdex.AsIssues(err)
	if !ok || iss[0].Code != qdex.CodeParseError {
		t.Fatalf("expected parse_error for bad JSON, got %v", err)
	}
}

func TestBuildDocumentYAML(t *testing.T) {
	src := []byte("qde:\n  attributes:\n    name: Minimal\n  Description: from yaml\n")
	text, err := qdex.BuildDocumentYAML(src)
	if err != nil {
		t.Fatalf("build: %v", err)
	}
	if !strings.Contains(text, `name="Minimal"`) || !strings.Contains(text, "<Description>from yaml</Description>") {
		t.Fatalf("unexpected output: %q", text)
	}
}

func TestParseDocumentJSON(t *testing.T) {
	enc, err := qdex.ParseDocumentJSON(`<Project name="Minimal"/>`)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	var v map[string]any
	if err := gojson.Unmarshal(enc, &v); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if _, ok := v["qde"]; !ok {
		t.Fatalf("expected qde envelope in %s", enc)
	}
}

func TestConcurrentConversions(t *testing.T) {
	done := make(chan error, 8)
	for i := 0; i < 8; i++ {
		go func() {
			v, err := qdex.ParseDocument(fixtureDoc)
			if err != nil {
				done <- err
				return
			}
			_, err = qdex.BuildDocument(v)
			done <- err
		}()
	}
	for i := 0; i < 8; i++ {
		if err := <-done; err != nil {
			t.Fatalf("concurrent conversion failed: %v", err)
		}
	}
}
