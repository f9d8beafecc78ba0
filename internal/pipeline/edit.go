package pipeline

import (
	"bytes"
	"os"

	"github.com/bibolabs/vidforge/internal/project"
)

// SaveScript persists an operator edit of the narration script. Approval is
// revoked only when the saved content actually differs from what was on
// disk; re-saving identical text keeps the sign-off.
func SaveScript(p *project.Project, content []byte) (changed bool, err error) {
	existing, readErr := os.ReadFile(p.SummaryPath())
	if readErr == nil && bytes.Equal(existing, content) {
		return false, nil
	}
	if err := writeFileArtifact(p.SummaryPath(), content); err != nil {
		return false, err
	}
	if err := p.SetApproval(project.ApprovalScript, false); err != nil {
		return true, err
	}
	return true, nil
}
