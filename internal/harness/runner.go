package harness

import (
	"context"
	"fmt"
	"strings"

	"github.com/courseforge/courseforge/internal/content"
	"github.com/courseforge/courseforge/internal/courseapi"
	"github.com/courseforge/courseforge/internal/engine"
	"github.com/courseforge/courseforge/internal/testutil"
)

// Runner executes scenario steps against an engine. Identifiers
// returned by add operations are captured under step names and
// substituted into later $name references.
type Runner struct {
	eng  *engine.Engine
	fake *testutil.FakeClient
	vars map[string]string
}

// NewRunner binds a runner to an engine. The fake collaborator is
// optional; without it, fail-next steps error.
func NewRunner(eng *engine.Engine, fake *testutil.FakeClient) *Runner {
	return &Runner{eng: eng, fake: fake, vars: map[string]string{}}
}

// Run executes every step in order and then flushes pending saves.
func (r *Runner) Run(ctx context.Context, steps []Step) error {
	for i, s := range steps {
		if err := r.step(ctx, s); err != nil {
			return fmt.Errorf("step %d (%s): %w", i+1, s.Op, err)
		}
	}
	return r.eng.Flush(ctx)
}

func (r *Runner) step(ctx context.Context, s Step) error {
	switch s.Op {
	case "update-course":
		return r.eng.UpdateCourse(engine.CourseUpdate{
			Title:       s.Title,
			Description: s.Description,
			PriceCents:  s.PriceCents,
		})

	case "add-module":
		m, err := r.eng.AddModule(text(s.Title), text(s.Description))
		if err != nil {
			return err
		}
		r.bind(s.As, m.ID)
		return nil

	case "update-module":
		id, err := r.resolve(s.ID)
		if err != nil {
			return err
		}
		return r.eng.UpdateModule(id, engine.ModuleUpdate{
			Title:       s.Title,
			Description: s.Description,
		})

	case "delete-module":
		id, err := r.resolve(s.ID)
		if err != nil {
			return err
		}
		return r.eng.DeleteModule(id)

	case "reorder-modules":
		ids, err := r.resolveAll(s.IDs)
		if err != nil {
			return err
		}
		return r.eng.ReorderModules(ids)

	case "add-lesson":
		moduleID, err := r.resolve(s.Module)
		if err != nil {
			return err
		}
		typ := content.LessonType(defaulted(s.Type, string(content.LessonText)))
		access := content.AccessLevel(defaulted(s.Access, string(content.AccessFree)))
		l, err := r.eng.AddLesson(moduleID, text(s.Title), typ, access)
		if err != nil {
			return err
		}
		r.bind(s.As, l.ID)
		return nil

	case "update-lesson":
		id, err := r.resolve(s.ID)
		if err != nil {
			return err
		}
		upd := engine.LessonUpdate{
			Title:       s.Title,
			Content:     s.Content,
			ContentHTML: s.ContentHTML,
		}
		if s.Type != "" {
			typ := content.LessonType(s.Type)
			upd.Type = &typ
		}
		if s.Access != "" {
			access := content.AccessLevel(s.Access)
			upd.Access = &access
		}
		return r.eng.UpdateLesson(id, upd)

	case "delete-lesson":
		id, err := r.resolve(s.ID)
		if err != nil {
			return err
		}
		return r.eng.DeleteLesson(id)

	case "reorder-lessons":
		moduleID, err := r.resolve(s.Module)
		if err != nil {
			return err
		}
		ids, err := r.resolveAll(s.IDs)
		if err != nil {
			return err
		}
		return r.eng.ReorderLessons(moduleID, ids)

	case "move-lesson":
		id, err := r.resolve(s.ID)
		if err != nil {
			return err
		}
		target, err := r.resolve(s.Target)
		if err != nil {
			return err
		}
		return r.eng.MoveLesson(id, target, index(s.Index))

	case "add-resource":
		lessonID, err := r.resolve(s.Lesson)
		if err != nil {
			return err
		}
		typ := content.ResourceType(defaulted(s.Type, string(content.ResourceLink)))
		res, err := r.eng.AddResource(lessonID, text(s.Title), typ, text(s.URL), s.Premium != nil && *s.Premium)
		if err != nil {
			return err
		}
		r.bind(s.As, res.ID)
		return nil

	case "update-resource":
		id, err := r.resolve(s.ID)
		if err != nil {
			return err
		}
		upd := engine.ResourceUpdate{
			Title:   s.Title,
			URL:     s.URL,
			Premium: s.Premium,
		}
		if s.Type != "" {
			typ := content.ResourceType(s.Type)
			upd.Type = &typ
		}
		return r.eng.UpdateResource(id, upd)

	case "delete-resource":
		id, err := r.resolve(s.ID)
		if err != nil {
			return err
		}
		return r.eng.DeleteResource(id)

	case "reorder-resources":
		lessonID, err := r.resolve(s.Lesson)
		if err != nil {
			return err
		}
		ids, err := r.resolveAll(s.IDs)
		if err != nil {
			return err
		}
		return r.eng.ReorderResources(lessonID, ids)

	case "move-resource":
		id, err := r.resolve(s.ID)
		if err != nil {
			return err
		}
		target, err := r.resolve(s.Target)
		if err != nil {
			return err
		}
		return r.eng.MoveResource(id, target, index(s.Index))

	case "publish":
		return r.eng.Publish(ctx)

	case "unpublish":
		return r.eng.Unpublish(ctx)

	case "clone":
		clone, err := r.eng.CloneCourse(ctx)
		if err != nil {
			return err
		}
		r.bind(s.As, clone.ID)
		return nil

	case "flush":
		return r.eng.Flush(ctx)

	case "fail-next":
		if r.fake == nil {
			return fmt.Errorf("fail-next requires a fake collaborator")
		}
		kind, err := parseKind(s.Kind)
		if err != nil {
			return err
		}
		times := s.Times
		if times == 0 {
			times = 1
		}
		errs := make([]error, times)
		for i := range errs {
			errs[i] = courseapi.NewError(kind, s.Method, "injected failure")
		}
		r.fake.FailNext(s.Method, errs...)
		return nil

	default:
		return fmt.Errorf("unknown op %q", s.Op)
	}
}

func (r *Runner) bind(name, id string) {
	if name != "" {
		r.vars[name] = id
	}
}

func (r *Runner) resolve(ref string) (string, error) {
	if !strings.HasPrefix(ref, "$") {
		return ref, nil
	}
	id, ok := r.vars[ref[1:]]
	if !ok {
		return "", fmt.Errorf("unknown reference %s", ref)
	}
	return id, nil
}

func (r *Runner) resolveAll(refs []string) ([]string, error) {
	ids := make([]string, len(refs))
	for i, ref := range refs {
		id, err := r.resolve(ref)
		if err != nil {
			return nil, err
		}
		ids[i] = id
	}
	return ids, nil
}

func text(p *string) string {
	if p == nil {
		return ""
	}
	return *p
}

func defaulted(s, fallback string) string {
	if s == "" {
		return fallback
	}
	return s
}

func index(p *int) int {
	if p == nil {
		return -1
	}
	return *p
}

func parseKind(s string) (courseapi.Kind, error) {
	switch strings.ToLower(s) {
	case "network":
		return courseapi.KindNetwork, nil
	case "rate-limited":
		return courseapi.KindRateLimited, nil
	case "validation":
		return courseapi.KindValidation, nil
	case "conflict":
		return courseapi.KindConflict, nil
	case "fatal":
		return courseapi.KindFatal, nil
	default:
		return "", fmt.Errorf("unknown failure kind %q", s)
	}
}
