package workspace

import (
	"context"

	"github.com/hashicorp/go-multierror"
	"github.com/pkg/errors"

	"github.com/jingkaihe/prime-agent/pkg/logger"
	"github.com/jingkaihe/prime-agent/pkg/reconcile"
)

// SyncReport describes what a sync did. On a partial failure it still lists
// the writes that went through.
type SyncReport struct {
	Summary       reconcile.Summary
	SkillsWritten []string
	SkillsFailed  []string
	AgentsWritten bool
}

// Sync reconciles the aggregate file with the skills directory and applies
// the result. Skill files are written first; the aggregate is written only
// when every skill write succeeded and its rendering changed. The synced
// bodies are then recorded as the base for the next run.
func (w *Workspace) Sync(ctx context.Context) (*SyncReport, error) {
	log := logger.G(ctx).WithField("policy", w.policy)

	doc, modTime, exists, err := w.readAgents()
	if err != nil {
		return nil, err
	}
	snapshot, err := w.store.Snapshot()
	if err != nil {
		return nil, err
	}

	result, err := reconcile.Plan(reconcile.Input{
		Document:      doc,
		AgentsModTime: modTime,
		Skills:        snapshot,
		Policy:        w.policy,
		Base:          w.loadBase(ctx),
	})
	if err != nil {
		return nil, err
	}

	report := &SyncReport{Summary: result.Summary}

	var merr *multierror.Error
	for _, write := range result.SkillWrites {
		if err := w.store.Write(write.Name, write.Content); err != nil {
			report.SkillsFailed = append(report.SkillsFailed, write.Name)
			merr = multierror.Append(merr, errors.Wrapf(err, "skill '%s'", write.Name))
			continue
		}
		report.SkillsWritten = append(report.SkillsWritten, write.Name)
		log.WithField("skill", write.Name).Debug("skill file written")
	}
	if err := merr.ErrorOrNil(); err != nil {
		return report, errors.Wrapf(err, "sync wrote %d of %d skill files and left '%s' unchanged",
			len(report.SkillsWritten), len(result.SkillWrites), w.agentsPath)
	}

	if result.DocumentChanged() {
		if err := w.writeAgents(result.Document.Render()); err != nil {
			return report, err
		}
		report.AgentsWritten = true
		log.WithField("file", w.agentsPath).WithField("created", !exists).Debug("aggregate file written")
	}

	if err := w.saveBase(result.Base()); err != nil {
		return report, errors.Wrap(err, "sync applied but its state was not recorded")
	}
	return report, nil
}
