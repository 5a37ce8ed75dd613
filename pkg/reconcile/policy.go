package reconcile

import (
	"strings"

	"github.com/pkg/errors"
)

// Policy decides which side wins when a section and its skill file both
// exist with different bodies.
type Policy string

const (
	// PolicyNewest keeps the side modified last. Ties go to the skill file.
	PolicyNewest Policy = "newest"
	// PolicySkill always keeps the skill file.
	PolicySkill Policy = "skill"
	// PolicyAgents always keeps the aggregate section.
	PolicyAgents Policy = "agents"
	// PolicyFail refuses to sync while any body diverges.
	PolicyFail Policy = "fail"
)

// DefaultPolicy is used when none is configured
const DefaultPolicy = PolicyNewest

// Policies lists every accepted policy
var Policies = []Policy{PolicyNewest, PolicySkill, PolicyAgents, PolicyFail}

// ParsePolicy accepts a policy name, case-insensitively. An empty string is
// the default policy.
func ParsePolicy(s string) (Policy, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	if s == "" {
		return DefaultPolicy, nil
	}
	for _, p := range Policies {
		if string(p) == s {
			return p, nil
		}
	}
	return "", errors.Errorf("unknown conflict policy '%s' (expected one of newest, skill, agents, fail)", s)
}

// Side identifies one of the two copies of a skill.
type Side string

const (
	SideSkill  Side = "skill"
	SideAgents Side = "agents"
)
