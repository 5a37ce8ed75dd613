package workspace

import (
	"context"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/pkg/errors"
	"github.com/samber/lo"

	"github.com/jingkaihe/prime-agent/pkg/logger"
	"github.com/jingkaihe/prime-agent/pkg/types/sections"
)

// SkillInfo is one row of the list output
type SkillInfo struct {
	Name        string
	Description string
	Path        string
}

// List returns every skill in the store, sorted by name. Skills whose
// frontmatter cannot be parsed are still listed, without a description.
func (w *Workspace) List(ctx context.Context) ([]SkillInfo, error) {
	names, err := w.store.List()
	if err != nil {
		return nil, err
	}

	infos := make([]SkillInfo, 0, len(names))
	for _, name := range names {
		info := SkillInfo{Name: name, Path: w.store.Path(name)}
		meta, err := w.store.Describe(name)
		if err != nil {
			logger.G(ctx).WithError(err).WithField("skill", name).Debug("failed to read skill frontmatter")
		} else {
			info.Description = meta.Description
		}
		infos = append(infos, info)
	}
	return infos, nil
}

// ExpandNames turns get arguments into skill names. Every argument may hold a
// comma separated list; blank items are dropped. Items containing glob
// metacharacters are matched against the store and expand to the matching
// names in sorted order, failing with ErrNotFound when nothing matches. The
// first occurrence of a name wins, so argument order is kept.
func (w *Workspace) ExpandNames(args []string) ([]string, error) {
	var (
		names     []string
		available []string
		listed    bool
	)

	for _, arg := range args {
		for _, item := range strings.Split(arg, ",") {
			item = strings.TrimSpace(item)
			if item == "" {
				continue
			}

			if !isPattern(item) {
				if err := sections.ValidateName(item); err != nil {
					return nil, err
				}
				names = append(names, item)
				continue
			}

			if !doublestar.ValidatePattern(item) {
				return nil, errors.Wrapf(sections.ErrInvalidName, "invalid skill pattern '%s'", item)
			}
			if !listed {
				var err error
				if available, err = w.store.List(); err != nil {
					return nil, err
				}
				listed = true
			}

			matches := lo.Filter(available, func(name string, _ int) bool {
				ok, _ := doublestar.Match(item, name)
				return ok
			})
			if len(matches) == 0 {
				return nil, errors.Wrapf(sections.ErrNotFound, "no skill matches '%s'", item)
			}
			names = append(names, matches...)
		}
	}

	if len(names) == 0 {
		return nil, errors.Wrap(sections.ErrInvalidName, "no skill names given")
	}
	return lo.Uniq(names), nil
}

func isPattern(item string) bool {
	return strings.ContainsAny(item, "*?[{")
}
