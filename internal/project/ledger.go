package project

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
)

// ApprovalStage names a stage output a human can sign off on. Transcription
// and image prompting carry no gate.
type ApprovalStage string

const (
	ApprovalScript   ApprovalStage = "script"
	ApprovalAudio    ApprovalStage = "audio"
	ApprovalMetadata ApprovalStage = "metadata"
	ApprovalImages   ApprovalStage = "images"
	ApprovalVideo    ApprovalStage = "video"
)

// ApprovalStages lists the gated stages in pipeline order.
var ApprovalStages = []ApprovalStage{
	ApprovalScript,
	ApprovalAudio,
	ApprovalMetadata,
	ApprovalImages,
	ApprovalVideo,
}

// ledgerRecord is the on-disk shape of config.json.
type ledgerRecord struct {
	ProjectName string          `json:"project_name"`
	Approvals   map[string]bool `json:"approvals"`
}

func defaultLedger(name string) ledgerRecord {
	approvals := make(map[string]bool, len(ApprovalStages))
	for _, stage := range ApprovalStages {
		approvals[string(stage)] = false
	}
	return ledgerRecord{ProjectName: name, Approvals: approvals}
}

// Approved reports whether the given stage carries a human sign-off. A
// missing or unreadable record reads as not approved, never as an error.
func (p *Project) Approved(stage ApprovalStage) bool {
	record, err := p.readLedger()
	if err != nil {
		return false
	}
	return record.Approvals[string(stage)]
}

// SetApproval reads, modifies, and rewrites the whole approval record so the
// other stages' flags survive. When no record exists yet it is created with
// defaults first.
func (p *Project) SetApproval(stage ApprovalStage, value bool) error {
	record, err := p.readLedger()
	if err != nil {
		if !errors.Is(err, fs.ErrNotExist) {
			return err
		}
		record = defaultLedger(p.name)
	}
	if record.Approvals == nil {
		record.Approvals = defaultLedger(p.name).Approvals
	}
	record.Approvals[string(stage)] = value
	return p.writeLedger(record)
}

func (p *Project) readLedger() (ledgerRecord, error) {
	data, err := os.ReadFile(p.LedgerPath())
	if err != nil {
		return ledgerRecord{}, err
	}
	var record ledgerRecord
	if err := json.Unmarshal(data, &record); err != nil {
		return ledgerRecord{}, fmt.Errorf("project: parse approval record: %w", err)
	}
	return record, nil
}

// writeLedger writes next to the record then renames it into place, so a
// concurrent read never sees a half-written record.
func (p *Project) writeLedger(record ledgerRecord) error {
	encoded, err := json.MarshalIndent(record, "", "  ")
	if err != nil {
		return fmt.Errorf("project: encode approval record: %w", err)
	}
	tmp := p.LedgerPath() + ".tmp"
	if err := os.WriteFile(tmp, append(encoded, '\n'), 0o644); err != nil {
		return fmt.Errorf("project: write approval record: %w", err)
	}
	return os.Rename(tmp, p.LedgerPath())
}
