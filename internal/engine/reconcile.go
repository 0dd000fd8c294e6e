package engine

import (
	"log/slog"

	"github.com/courseforge/courseforge/internal/content"
	"github.com/courseforge/courseforge/internal/store"
)

// ReconcileStats summarizes one reconciliation pass.
type ReconcileStats struct {
	Modules   int // placeholders mapped to permanent module identifiers
	Lessons   int
	Resources int
	Ambiguous int // matches where more than one candidate fit the tier
	Unmatched int // placeholders the server tree had no candidate for
}

// Matched returns the total number of identifier rewrites.
func (s ReconcileStats) Matched() int {
	return s.Modules + s.Lessons + s.Resources
}

// Reconcile maps entities in a server-returned tree onto local
// placeholder identifiers and returns a state with every reference to
// each matched placeholder rewritten.
//
// Matching runs per sibling set, in tiers of decreasing confidence:
//
//  1. canonical title, position, and child count
//  2. canonical title and position
//  3. canonical title
//
// Within a tier the first candidate in server order wins and is claimed
// so no two placeholders map to the same server entity. Additional
// candidates in the winning tier are logged as ambiguous. Entities that
// already carry permanent identifiers claim their server counterparts
// up front and are otherwise untouched, which also makes the pass
// idempotent: running it twice is a no-op the second time.
//
// Placeholders with no candidate stay placeholders; a later save
// creates them. When nothing matched, the original state is returned
// unchanged so pointer identity still means "nothing happened".
func Reconcile(cur *store.State, server *content.CourseTree, logger *slog.Logger) (*store.State, ReconcileStats) {
	if logger == nil {
		logger = slog.Default()
	}
	next := cur.Clone()
	var stats ReconcileStats
	changed := false

	// Module pass.
	claimed := claimByID(next.ModuleOrder, len(server.Modules), func(si int) string {
		return server.Modules[si].ID
	})
	cands := make([]matchKey, len(server.Modules))
	for si := range server.Modules {
		sm := &server.Modules[si]
		cands[si] = matchKey{
			title:    content.TitleKey(sm.Title),
			order:    sm.Order,
			children: len(sm.Lessons),
		}
	}
	for i := 0; i < len(next.ModuleOrder); i++ {
		id := next.ModuleOrder[i]
		if !content.IsTempID(id) {
			continue
		}
		local := next.Modules[id]
		key := matchKey{
			title:    content.TitleKey(local.Title),
			order:    local.Order,
			children: len(next.LessonOrder[id]),
		}
		si, ambiguous, ok := pickMatch(key, cands, claimed)
		if !ok {
			stats.Unmatched++
			continue
		}
		if ambiguous {
			stats.Ambiguous++
			logger.Warn("reconcile: ambiguous module match",
				"placeholder", id, "chosen", server.Modules[si].ID, "title", local.Title)
		}
		claimed[si] = true
		rewriteModuleID(next, id, server.Modules[si].ID)
		changed = true
		stats.Modules++
	}

	// Lesson and resource passes, per module now present on the server.
	for _, mid := range next.ModuleOrder {
		sm := findServerModule(server, mid)
		if sm == nil {
			continue
		}
		if reconcileLessons(next, mid, sm, &stats, logger) {
			changed = true
		}
	}

	if !changed {
		return cur, stats
	}
	return next, stats
}

func reconcileLessons(next *store.State, moduleID string, sm *content.ModuleTree, stats *ReconcileStats, logger *slog.Logger) bool {
	changed := false

	claimed := claimByID(next.LessonOrder[moduleID], len(sm.Lessons), func(si int) string {
		return sm.Lessons[si].ID
	})
	cands := make([]matchKey, len(sm.Lessons))
	for si := range sm.Lessons {
		sl := &sm.Lessons[si]
		cands[si] = matchKey{
			title:    content.TitleKey(sl.Title),
			order:    sl.Order,
			children: len(sl.Resources),
		}
	}
	ids := next.LessonOrder[moduleID]
	for i := 0; i < len(ids); i++ {
		id := ids[i]
		if !content.IsTempID(id) {
			continue
		}
		local := next.Lessons[id]
		key := matchKey{
			title:    content.TitleKey(local.Title),
			order:    local.Order,
			children: len(next.ResourceOrder[id]),
		}
		si, ambiguous, ok := pickMatch(key, cands, claimed)
		if !ok {
			stats.Unmatched++
			continue
		}
		if ambiguous {
			stats.Ambiguous++
			logger.Warn("reconcile: ambiguous lesson match",
				"placeholder", id, "chosen", sm.Lessons[si].ID, "title", local.Title)
		}
		claimed[si] = true
		rewriteLessonID(next, moduleID, id, sm.Lessons[si].ID)
		changed = true
		stats.Lessons++
	}

	for _, lid := range next.LessonOrder[moduleID] {
		sl := findServerLesson(sm, lid)
		if sl == nil {
			continue
		}
		if reconcileResources(next, lid, sl, stats, logger) {
			changed = true
		}
	}
	return changed
}

func reconcileResources(next *store.State, lessonID string, sl *content.LessonTree, stats *ReconcileStats, logger *slog.Logger) bool {
	changed := false

	claimed := claimByID(next.ResourceOrder[lessonID], len(sl.Resources), func(si int) string {
		return sl.Resources[si].ID
	})
	cands := make([]matchKey, len(sl.Resources))
	for si := range sl.Resources {
		sr := &sl.Resources[si]
		cands[si] = matchKey{title: content.TitleKey(sr.Title), order: sr.Order}
	}
	ids := next.ResourceOrder[lessonID]
	for i := 0; i < len(ids); i++ {
		id := ids[i]
		if !content.IsTempID(id) {
			continue
		}
		local := next.Resources[id]
		key := matchKey{title: content.TitleKey(local.Title), order: local.Order}
		si, ambiguous, ok := pickMatch(key, cands, claimed)
		if !ok {
			stats.Unmatched++
			continue
		}
		if ambiguous {
			stats.Ambiguous++
			logger.Warn("reconcile: ambiguous resource match",
				"placeholder", id, "chosen", sl.Resources[si].ID, "title", local.Title)
		}
		claimed[si] = true
		rewriteResourceID(next, lessonID, id, sl.Resources[si].ID)
		changed = true
		stats.Resources++
	}
	return changed
}

// matchKey is the comparable identity used for placeholder matching.
// Resources have no children, so their keys leave children at zero and
// the first two tiers coincide.
type matchKey struct {
	title    string
	order    int
	children int
}

// pickMatch selects the server candidate for one placeholder. Within
// the highest tier that has any unclaimed match, the first candidate in
// server order wins; ambiguous reports whether others also fit.
func pickMatch(local matchKey, cands []matchKey, claimed map[int]bool) (idx int, ambiguous, ok bool) {
	tiers := []func(matchKey) bool{
		func(c matchKey) bool {
			return c.title == local.title && c.order == local.order && c.children == local.children
		},
		func(c matchKey) bool { return c.title == local.title && c.order == local.order },
		func(c matchKey) bool { return c.title == local.title },
	}
	for _, fits := range tiers {
		found := -1
		count := 0
		for i, c := range cands {
			if claimed[i] || !fits(c) {
				continue
			}
			count++
			if found == -1 {
				found = i
			}
		}
		if count > 0 {
			return found, count > 1, true
		}
	}
	return -1, false, false
}

// claimByID pre-claims server candidates whose identifiers already
// exist locally, so placeholder matching cannot steal them.
func claimByID(localIDs []string, serverLen int, serverID func(int) string) map[int]bool {
	local := make(map[string]bool, len(localIDs))
	for _, id := range localIDs {
		if !content.IsTempID(id) {
			local[id] = true
		}
	}
	claimed := make(map[int]bool, serverLen)
	for si := 0; si < serverLen; si++ {
		if local[serverID(si)] {
			claimed[si] = true
		}
	}
	return claimed
}

func findServerModule(server *content.CourseTree, id string) *content.ModuleTree {
	for i := range server.Modules {
		if server.Modules[i].ID == id {
			return &server.Modules[i]
		}
	}
	return nil
}

func findServerLesson(sm *content.ModuleTree, id string) *content.LessonTree {
	for i := range sm.Lessons {
		if sm.Lessons[i].ID == id {
			return &sm.Lessons[i]
		}
	}
	return nil
}

// rewriteModuleID replaces every reference to a module's placeholder:
// the entity map key, the entity's own ID, the course ordering list,
// the lesson ordering key, and each child lesson's parent reference.
func rewriteModuleID(next *store.State, old, perm string) {
	m := *next.Modules[old]
	m.ID = perm
	delete(next.Modules, old)
	next.Modules[perm] = &m

	for i, id := range next.ModuleOrder {
		if id == old {
			next.ModuleOrder[i] = perm
			break
		}
	}
	next.LessonOrder[perm] = next.LessonOrder[old]
	delete(next.LessonOrder, old)
	for _, lid := range next.LessonOrder[perm] {
		l := *next.Lessons[lid]
		l.ModuleID = perm
		next.Lessons[lid] = &l
	}
}

func rewriteLessonID(next *store.State, moduleID, old, perm string) {
	l := *next.Lessons[old]
	l.ID = perm
	delete(next.Lessons, old)
	next.Lessons[perm] = &l

	ids := next.LessonOrder[moduleID]
	for i, id := range ids {
		if id == old {
			ids[i] = perm
			break
		}
	}
	next.ResourceOrder[perm] = next.ResourceOrder[old]
	delete(next.ResourceOrder, old)
	for _, rid := range next.ResourceOrder[perm] {
		r := *next.Resources[rid]
		r.LessonID = perm
		next.Resources[rid] = &r
	}
}

func rewriteResourceID(next *store.State, lessonID, old, perm string) {
	r := *next.Resources[old]
	r.ID = perm
	delete(next.Resources, old)
	next.Resources[perm] = &r

	ids := next.ResourceOrder[lessonID]
	for i, id := range ids {
		if id == old {
			ids[i] = perm
			break
		}
	}
}
