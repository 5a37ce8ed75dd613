// Package reconcile computes the writes that bring AGENTS.md and the skills
// directory back in line with each other. It works on in-memory snapshots
// only; callers read the inputs and apply the result.
//
// For every name in either snapshot, in lexicographic order:
//   - section and skill with identical bytes: nothing to do
//   - bodies that only differ in line endings or trailing newlines: the
//     Policy side is copied over, without reporting a conflict
//   - only one side changed since the last sync (per Input.Base): that side
//     is copied over, without reporting a conflict
//   - both sides changed, or no base is known: a conflict, and the Policy
//     picks a winner
//   - section without a skill file: the skill file is recreated from it
//   - skill file without a section: a section is appended after the last one
package reconcile

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/aymanbagabas/go-udiff"
	"github.com/pkg/errors"
	"github.com/samber/lo"

	"github.com/jingkaihe/prime-agent/pkg/agentsmd"
	"github.com/jingkaihe/prime-agent/pkg/skills"
	"github.com/jingkaihe/prime-agent/pkg/types/sections"
)

// Action is what a Decision asks the caller to do.
type Action int

const (
	// ActionNone means both sides already agree.
	ActionNone Action = iota
	// ActionAddSection appends a section for a skill that was never aggregated.
	ActionAddSection
	// ActionAddSkill recreates a skill file from an orphaned section.
	ActionAddSkill
	// ActionUpdateSection overwrites a section with its skill body.
	ActionUpdateSection
	// ActionUpdateSkill overwrites a skill file with its section body.
	ActionUpdateSkill
	// ActionConflict is a divergence that PolicyFail refuses to resolve.
	ActionConflict
)

func (a Action) String() string {
	switch a {
	case ActionNone:
		return "none"
	case ActionAddSection:
		return "add-section"
	case ActionAddSkill:
		return "add-skill"
	case ActionUpdateSection:
		return "update-section"
	case ActionUpdateSkill:
		return "update-skill"
	case ActionConflict:
		return "conflict"
	default:
		return fmt.Sprintf("action(%d)", int(a))
	}
}

// Decision is the merge outcome for a single name.
type Decision struct {
	Name    string
	Action  Action
	Content string
	// Winner is set whenever both sides existed with different bytes. Diff is
	// set when they also differ after normalization.
	Winner Side
	Diff   string
	// Conflict marks a divergence the base could not settle.
	Conflict bool
}

// Diverged reports whether both sides existed with different normalized
// bodies.
func (d Decision) Diverged() bool {
	return d.Diff != ""
}

// Input is a snapshot of both sides.
type Input struct {
	Document      *agentsmd.Document
	AgentsModTime time.Time
	Skills        map[string]skills.Entry
	Policy        Policy
	// Base maps a name to the sections.Fingerprint of its body at the last
	// successful sync. Names without an entry have no known base.
	Base map[string]string
}

// SkillWrite is one skill file to create or overwrite.
type SkillWrite struct {
	Name    string
	Content string
}

// Summary lists changed names per side.
type Summary struct {
	SectionsAdded   []string
	SectionsUpdated []string
	SkillsAdded     []string
	SkillsUpdated   []string
	Conflicts       []Decision
}

// Result is the reconciled state. Document is a new document; the input is
// never modified.
type Result struct {
	Document    *agentsmd.Document
	SkillWrites []SkillWrite
	Decisions   []Decision
	Summary     Summary
}

// DocumentChanged reports whether any section was added or updated.
func (r *Result) DocumentChanged() bool {
	return len(r.Summary.SectionsAdded) > 0 || len(r.Summary.SectionsUpdated) > 0
}

// Changed reports whether anything needs writing on either side.
func (r *Result) Changed() bool {
	return r.DocumentChanged() || len(r.SkillWrites) > 0
}

// Base returns the fingerprints to record once the result has been applied
// and both sides hold the same bodies.
func (r *Result) Base() map[string]string {
	base := make(map[string]string)
	for _, s := range r.Document.Sections() {
		base[s.Name] = sections.Fingerprint(s.Content())
	}
	return base
}

// Plan reconciles the snapshots. With PolicyFail it returns an error wrapping
// ErrReconciliationConflict that names every conflicting skill. A body that
// cannot be carried as a section fails with ErrInvalidBody.
func Plan(in Input) (*Result, error) {
	doc := in.Document
	if doc == nil {
		doc = agentsmd.Empty()
	}
	policy := in.Policy
	if policy == "" {
		policy = DefaultPolicy
	}

	result := &Result{Document: doc.Clone()}

	for _, name := range unionNames(doc, in.Skills) {
		if err := sections.ValidateName(name); err != nil {
			return nil, err
		}

		var section *sections.Section
		if s, ok := doc.Section(name); ok {
			section = &s
		}
		var skill *skills.Entry
		if e, ok := in.Skills[name]; ok {
			skill = &e
		}

		d := Decide(name, section, skill, in.Base[name], in.AgentsModTime, policy)
		if d.Action == ActionAddSection || d.Action == ActionUpdateSection {
			if err := agentsmd.CheckBody(name, d.Content); err != nil {
				return nil, err
			}
		}
		result.Decisions = append(result.Decisions, d)
		result.apply(d)
	}

	if policy == PolicyFail && len(result.Summary.Conflicts) > 0 {
		names := make([]string, 0, len(result.Summary.Conflicts))
		for _, c := range result.Summary.Conflicts {
			names = append(names, c.Name)
		}
		return nil, errors.Wrapf(sections.ErrReconciliationConflict, "skills diverge from AGENTS.md: %s", strings.Join(names, ", "))
	}

	return result, nil
}

// Decide is the per-name merge rule. section or skill is nil when that side
// does not have the name. base is the fingerprint recorded at the last sync,
// or "" when unknown. agentsModTime stands in for the section's modification
// time under PolicyNewest.
func Decide(name string, section *sections.Section, skill *skills.Entry, base string, agentsModTime time.Time, policy Policy) Decision {
	switch {
	case section == nil && skill == nil:
		return Decision{Name: name, Action: ActionNone}
	case section == nil:
		return Decision{Name: name, Action: ActionAddSection, Content: skill.Content}
	case skill == nil:
		return Decision{Name: name, Action: ActionAddSkill, Content: section.Content()}
	}

	sectionContent := section.Content()
	if sectionContent == skill.Content {
		return Decision{Name: name, Action: ActionNone}
	}

	d := Decision{Name: name}
	skillPrint, sectionPrint := sections.Fingerprint(skill.Content), sections.Fingerprint(sectionContent)

	if skillPrint == sectionPrint {
		side := winner(policy, skill.ModTime, agentsModTime)
		if side == "" {
			side = SideSkill
		}
		return d.resolve(side, skill.Content, sectionContent)
	}

	d.Diff = udiff.Unified(skillLabel(name), agentsLabel(name), skill.Content, sectionContent)
	switch base {
	case "":
	case skillPrint:
		return d.resolve(SideAgents, skill.Content, sectionContent)
	case sectionPrint:
		return d.resolve(SideSkill, skill.Content, sectionContent)
	}

	d.Conflict = true
	side := winner(policy, skill.ModTime, agentsModTime)
	if side == "" {
		d.Action = ActionConflict
		return d
	}
	return d.resolve(side, skill.Content, sectionContent)
}

func (d Decision) resolve(side Side, skillContent, sectionContent string) Decision {
	d.Winner = side
	if side == SideSkill {
		d.Action, d.Content = ActionUpdateSection, skillContent
	} else {
		d.Action, d.Content = ActionUpdateSkill, sectionContent
	}
	return d
}

func winner(policy Policy, skillModTime, agentsModTime time.Time) Side {
	switch policy {
	case PolicySkill:
		return SideSkill
	case PolicyAgents:
		return SideAgents
	case PolicyNewest:
		if agentsModTime.After(skillModTime) {
			return SideAgents
		}
		return SideSkill
	default:
		return ""
	}
}

func (r *Result) apply(d Decision) {
	switch d.Action {
	case ActionAddSection:
		r.Document.Upsert(sections.New(d.Name, d.Content))
		r.Summary.SectionsAdded = append(r.Summary.SectionsAdded, d.Name)
	case ActionAddSkill:
		r.SkillWrites = append(r.SkillWrites, SkillWrite{Name: d.Name, Content: d.Content})
		r.Summary.SkillsAdded = append(r.Summary.SkillsAdded, d.Name)
	case ActionUpdateSection:
		r.Document.Upsert(sections.New(d.Name, d.Content))
		r.Summary.SectionsUpdated = append(r.Summary.SectionsUpdated, d.Name)
	case ActionUpdateSkill:
		r.SkillWrites = append(r.SkillWrites, SkillWrite{Name: d.Name, Content: d.Content})
		r.Summary.SkillsUpdated = append(r.Summary.SkillsUpdated, d.Name)
	}
	if d.Conflict {
		r.Summary.Conflicts = append(r.Summary.Conflicts, d)
	}
}

func unionNames(doc *agentsmd.Document, entries map[string]skills.Entry) []string {
	names := lo.Uniq(append(doc.SectionNames(), lo.Keys(entries)...))
	sort.Strings(names)
	return names
}

func skillLabel(name string) string {
	return fmt.Sprintf("skills/%s/SKILL.md", name)
}

func agentsLabel(name string) string {
	return fmt.Sprintf("AGENTS.md#%s", name)
}
