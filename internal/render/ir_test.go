package render

import (
	"encoding/json"
	"testing"

	"github.com/verithos/policyforge-backend/internal/steps"
)

func canonicalStep(t *testing.T, step int, raw json.RawMessage) json.RawMessage {
	t.Helper()
	payload, fe := steps.Validate(step, raw)
	if fe != nil {
		t.Fatalf("step %d fixture invalid: %v", step, fe)
	}
	out, err := steps.Marshal(payload)
	if err != nil {
		t.Fatal(err)
	}
	return out
}

func fullStepData(t *testing.T) map[int]json.RawMessage {
	t.Helper()
	out := map[int]json.RawMessage{}
	for step := 1; step <= 12; step++ {
		out[step] = canonicalStep(t, step, steps.ValidExample(step))
	}
	return out
}

func sectionIDs(sections []Section) []string {
	out := make([]string, 0, len(sections))
	for _, s := range sections {
		out = append(out, s.ID)
	}
	return out
}

func TestBuildIRFullPolicyCanonicalOrder(t *testing.T) {
	sections, err := BuildIRFromSteps(fullStepData(t), "Política Acme", "es")
	if err != nil {
		t.Fatal(err)
	}
	ids := sectionIDs(sections)

	// The full example selects no online channels beyond web forms, no
	// minors, no transfers with entries; compute the expected subset of the
	// canonical order by hand.
	want := []string{
		"presentation", "scope", "controller", "subjects", "categories",
		"online_usage", "sources", "purposes", "legal_bases", "transfers",
		"retention", "rights", "security", "automated_decisions", "changes",
		"contact",
	}
	if len(ids) != len(want) {
		t.Fatalf("section ids = %v, want %v", ids, want)
	}
	for i := range want {
		if ids[i] != want[i] {
			t.Fatalf("section %d = %s, want %s (full: %v)", i, ids[i], want[i], ids)
		}
	}

	// Ordering must be a subsequence of the canonical order.
	pos := map[string]int{}
	for i, id := range SectionOrder() {
		pos[id] = i
	}
	for i := 1; i < len(ids); i++ {
		if pos[ids[i-1]] >= pos[ids[i]] {
			t.Fatalf("sections out of canonical order: %s before %s", ids[i-1], ids[i])
		}
	}
}

func TestBuildIREmptyPolicy(t *testing.T) {
	sections, err := BuildIRFromSteps(map[int]json.RawMessage{}, "Nueva política", "es")
	if err != nil {
		t.Fatal(err)
	}
	ids := sectionIDs(sections)
	if len(ids) != 2 || ids[0] != "presentation" || ids[1] != "scope" {
		t.Fatalf("empty policy sections = %v", ids)
	}
}

func TestInternationalTransfersInclusion(t *testing.T) {
	// Only step 7 set, flag off: the transfers section is omitted.
	data := map[int]json.RawMessage{
		7: canonicalStep(t, 7, json.RawMessage(`{"has_international_transfers":false}`)),
	}
	sections, err := BuildIRFromSteps(data, "p", "es")
	if err != nil {
		t.Fatal(err)
	}
	for _, id := range sectionIDs(sections) {
		if id == "transfers" {
			t.Fatal("transfers section should be omitted when the flag is off")
		}
	}

	// Flag on with exactly one transfer: the section appears with exactly
	// one bullet entry.
	data[7] = canonicalStep(t, 7, json.RawMessage(`{"has_international_transfers":true,"transfers":[{"country":"USA","recipient":"AWS","purpose":"hosting"}]}`))
	sections, err = BuildIRFromSteps(data, "p", "es")
	if err != nil {
		t.Fatal(err)
	}
	var transfers *Section
	for i := range sections {
		if sections[i].ID == "transfers" {
			transfers = &sections[i]
		}
	}
	if transfers == nil {
		t.Fatal("transfers section missing")
	}
	items := 0
	for _, b := range transfers.Blocks {
		if b.Kind == BlockBullets {
			items += len(b.Items)
		}
	}
	if items != 1 {
		t.Fatalf("transfers bullet entries = %d, want 1", items)
	}
}

func TestRecipientsAloneIncludeTransfersSection(t *testing.T) {
	data := map[int]json.RawMessage{
		7: canonicalStep(t, 7, json.RawMessage(`{"recipients":[{"name":"Gestoría","category":"processor","purpose":"contabilidad"}],"has_international_transfers":false}`)),
	}
	sections, err := BuildIRFromSteps(data, "p", "es")
	if err != nil {
		t.Fatal(err)
	}
	found := false
	for _, id := range sectionIDs(sections) {
		if id == "transfers" {
			found = true
		}
	}
	if !found {
		t.Fatal("recipients alone should include the section")
	}
}

func TestMinorsSectionInclusion(t *testing.T) {
	// Minor data declared in step 2 alone is enough.
	data := map[int]json.RawMessage{
		2: canonicalStep(t, 2, json.RawMessage(`{"categories":["identification","minors"]}`)),
	}
	sections, err := BuildIRFromSteps(data, "p", "es")
	if err != nil {
		t.Fatal(err)
	}
	found := false
	for _, id := range sectionIDs(sections) {
		if id == "minors" {
			found = true
		}
	}
	if !found {
		t.Fatal("minors section missing with minor data category")
	}

	// No minor data anywhere: omitted.
	data = map[int]json.RawMessage{
		2: canonicalStep(t, 2, json.RawMessage(`{"categories":["identification"]}`)),
		3: canonicalStep(t, 3, json.RawMessage(`{"subjects":["customers"]}`)),
	}
	sections, err = BuildIRFromSteps(data, "p", "es")
	if err != nil {
		t.Fatal(err)
	}
	for _, id := range sectionIDs(sections) {
		if id == "minors" {
			t.Fatal("minors section should be omitted")
		}
	}
}

func TestOnlineUsageInclusion(t *testing.T) {
	data := map[int]json.RawMessage{
		6: canonicalStep(t, 6, json.RawMessage(`{"sources":["direct"]}`)),
	}
	sections, err := BuildIRFromSteps(data, "p", "es")
	if err != nil {
		t.Fatal(err)
	}
	for _, id := range sectionIDs(sections) {
		if id == "online_usage" {
			t.Fatal("online usage should be omitted for offline-only sources")
		}
	}

	data[6] = canonicalStep(t, 6, json.RawMessage(`{"sources":["direct","web_forms"]}`))
	sections, err = BuildIRFromSteps(data, "p", "es")
	if err != nil {
		t.Fatal(err)
	}
	found := false
	for _, id := range sectionIDs(sections) {
		if id == "online_usage" {
			found = true
		}
	}
	if !found {
		t.Fatal("online usage missing with web form collection")
	}
}

func TestBuildIRUnsupportedLocale(t *testing.T) {
	if _, err := BuildIRFromSteps(map[int]json.RawMessage{}, "p", "tlh"); err == nil {
		t.Fatal("expected unsupported locale error")
	}
}

func TestBuildIRDeterministic(t *testing.T) {
	data := fullStepData(t)
	a, err := BuildIRFromSteps(data, "p", "es")
	if err != nil {
		t.Fatal(err)
	}
	b, err := BuildIRFromSteps(data, "p", "es")
	if err != nil {
		t.Fatal(err)
	}
	ja, _ := json.Marshal(a)
	jb, _ := json.Marshal(b)
	if string(ja) != string(jb) {
		t.Fatal("IR is not deterministic for identical input")
	}
}
