package project

import (
	"encoding/json"
	"os"
	"testing"
)

func TestSanitizeName(t *testing.T) {
	cases := []struct {
		in, want string
	}{
		{"My Project", "My_Project"},
		{"  demo  ", "demo"},
		{"a/b\\c", "a_b_c"},
		{"...", ""},
		{"ep-01.final", "ep-01.final"},
	}
	for _, tc := range cases {
		if got := SanitizeName(tc.in); got != tc.want {
			t.Errorf("SanitizeName(%q) = %q, want %q", tc.in, got, tc.want)
		}
	}
}

func TestCreateWritesDefaultLedger(t *testing.T) {
	root := t.TempDir()
	p, err := Create(root, "Demo")
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	data, err := os.ReadFile(p.LedgerPath())
	if err != nil {
		t.Fatalf("read ledger: %v", err)
	}
	var record struct {
		ProjectName string          `json:"project_name"`
		Approvals   map[string]bool `json:"approvals"`
	}
	if err := json.Unmarshal(data, &record); err != nil {
		t.Fatalf("parse ledger: %v", err)
	}
	if record.ProjectName != "Demo" {
		t.Fatalf("project_name = %q, want Demo", record.ProjectName)
	}
	if len(record.Approvals) != len(ApprovalStages) {
		t.Fatalf("approvals = %d entries, want %d", len(record.Approvals), len(ApprovalStages))
	}
	for _, s := range ApprovalStages {
		if record.Approvals[string(s)] {
			t.Fatalf("stage %s approved by default", s)
		}
	}
}

func TestCreateRejectsExisting(t *testing.T) {
	root := t.TempDir()
	if _, err := Create(root, "Demo"); err != nil {
		t.Fatalf("create: %v", err)
	}
	if _, err := Create(root, "Demo"); err == nil {
		t.Fatal("second create succeeded, want error")
	}
}

func TestApprovedMissingLedgerReadsFalse(t *testing.T) {
	root := t.TempDir()
	p, err := Create(root, "Demo")
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if err := os.Remove(p.LedgerPath()); err != nil {
		t.Fatalf("remove ledger: %v", err)
	}
	if p.Approved(ApprovalScript) {
		t.Fatal("missing ledger read as approved")
	}
}

func TestSetApprovalCreatesLedgerWithDefaults(t *testing.T) {
	root := t.TempDir()
	p, err := Create(root, "Demo")
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if err := os.Remove(p.LedgerPath()); err != nil {
		t.Fatalf("remove ledger: %v", err)
	}
	if err := p.SetApproval(ApprovalAudio, true); err != nil {
		t.Fatalf("set approval: %v", err)
	}
	if !p.Approved(ApprovalAudio) {
		t.Fatal("audio not approved after set")
	}
	// The other stages come back as explicit defaults, not absent keys.
	data, err := os.ReadFile(p.LedgerPath())
	if err != nil {
		t.Fatalf("read ledger: %v", err)
	}
	var record struct {
		Approvals map[string]bool `json:"approvals"`
	}
	if err := json.Unmarshal(data, &record); err != nil {
		t.Fatalf("parse ledger: %v", err)
	}
	if len(record.Approvals) != len(ApprovalStages) {
		t.Fatalf("approvals = %d entries, want %d", len(record.Approvals), len(ApprovalStages))
	}
}

func TestSetApprovalPreservesOtherStages(t *testing.T) {
	root := t.TempDir()
	p, err := Create(root, "Demo")
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if err := p.SetApproval(ApprovalScript, true); err != nil {
		t.Fatalf("approve script: %v", err)
	}
	if err := p.SetApproval(ApprovalImages, true); err != nil {
		t.Fatalf("approve images: %v", err)
	}
	if !p.Approved(ApprovalScript) {
		t.Fatal("script approval lost by later write")
	}
	if err := p.SetApproval(ApprovalScript, false); err != nil {
		t.Fatalf("revoke script: %v", err)
	}
	if !p.Approved(ApprovalImages) {
		t.Fatal("images approval lost by revoke of script")
	}
}

func TestSetApprovalLeavesWholeRecordOnly(t *testing.T) {
	root := t.TempDir()
	p, err := Create(root, "Demo")
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if err := p.SetApproval(ApprovalScript, true); err != nil {
		t.Fatalf("set approval: %v", err)
	}
	// The record is replaced by rename; no scratch file survives a write.
	if _, err := os.Stat(p.LedgerPath() + ".tmp"); !os.IsNotExist(err) {
		t.Fatalf("scratch ledger file left behind: %v", err)
	}
	data, err := os.ReadFile(p.LedgerPath())
	if err != nil {
		t.Fatalf("read ledger: %v", err)
	}
	var record struct {
		Approvals map[string]bool `json:"approvals"`
	}
	if err := json.Unmarshal(data, &record); err != nil {
		t.Fatalf("record not a whole JSON document: %v", err)
	}
	if !record.Approvals[string(ApprovalScript)] {
		t.Fatal("script approval missing from rewritten record")
	}
}

func TestListReturnsSortedProjects(t *testing.T) {
	root := t.TempDir()
	for _, name := range []string{"bravo", "alpha"} {
		if _, err := Create(root, name); err != nil {
			t.Fatalf("create %s: %v", name, err)
		}
	}
	names, err := List(root)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(names) != 2 || names[0] != "alpha" || names[1] != "bravo" {
		t.Fatalf("names = %v, want [alpha bravo]", names)
	}
}
