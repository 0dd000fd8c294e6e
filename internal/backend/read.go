package backend

import (
	"context"
	"database/sql"
	"errors"

	"github.com/courseforge/courseforge/internal/content"
	"github.com/courseforge/courseforge/internal/courseapi"
)

// querier is satisfied by both *sql.DB and *sql.Tx, so tree reads can
// run standalone or inside a write transaction.
type querier interface {
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// FetchCourse implements courseapi.Client.
func (b *Backend) FetchCourse(ctx context.Context, courseID string) (*content.CourseTree, error) {
	const op = "fetch course"
	id, err := parseID(op, courseID)
	if err != nil {
		return nil, err
	}
	return fetchTree(ctx, b.db, op, id)
}

// fetchTree loads a full course tree in authored order. Order fields
// are positional indexes, not raw position values, so a tree read from
// a database with position gaps still normalizes cleanly.
func fetchTree(ctx context.Context, q querier, op string, courseID int64) (*content.CourseTree, error) {
	tree := &content.CourseTree{}
	row := q.QueryRowContext(ctx, `
		SELECT id, title, description, price_cents, draft, published
		FROM courses WHERE id = ?
	`, courseID)
	var id int64
	if err := row.Scan(&id, &tree.Title, &tree.Description, &tree.PriceCents, &tree.Draft, &tree.Published); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, courseapi.NewError(courseapi.KindFatal, op, "no such course "+formatID(courseID))
		}
		return nil, courseapi.WrapError(courseapi.KindFatal, op, err)
	}
	tree.ID = formatID(id)

	moduleIdx := map[int64]int{}
	rows, err := q.QueryContext(ctx, `
		SELECT id, title, description
		FROM modules WHERE course_id = ?
		ORDER BY position, id
	`, courseID)
	if err != nil {
		return nil, courseapi.WrapError(courseapi.KindFatal, op, err)
	}
	for rows.Next() {
		var mid int64
		m := content.Module{CourseID: tree.ID}
		if err := rows.Scan(&mid, &m.Title, &m.Description); err != nil {
			rows.Close()
			return nil, courseapi.WrapError(courseapi.KindFatal, op, err)
		}
		m.ID = formatID(mid)
		m.Order = len(tree.Modules)
		moduleIdx[mid] = len(tree.Modules)
		tree.Modules = append(tree.Modules, content.ModuleTree{Module: m})
	}
	if err := rows.Err(); err != nil {
		rows.Close()
		return nil, courseapi.WrapError(courseapi.KindFatal, op, err)
	}
	rows.Close()

	lessonIdx := map[int64][2]int{}
	rows, err = q.QueryContext(ctx, `
		SELECT l.id, l.module_id, l.title, l.content, l.content_html, l.type, l.access
		FROM lessons l
		JOIN modules m ON m.id = l.module_id
		WHERE m.course_id = ?
		ORDER BY m.position, m.id, l.position, l.id
	`, courseID)
	if err != nil {
		return nil, courseapi.WrapError(courseapi.KindFatal, op, err)
	}
	for rows.Next() {
		var lid, mid int64
		l := content.Lesson{}
		var typ, access string
		if err := rows.Scan(&lid, &mid, &l.Title, &l.Content, &l.ContentHTML, &typ, &access); err != nil {
			rows.Close()
			return nil, courseapi.WrapError(courseapi.KindFatal, op, err)
		}
		mi := moduleIdx[mid]
		mt := &tree.Modules[mi]
		l.ID = formatID(lid)
		l.ModuleID = mt.ID
		l.Type = content.LessonType(typ)
		l.Access = content.AccessLevel(access)
		l.Order = len(mt.Lessons)
		lessonIdx[lid] = [2]int{mi, len(mt.Lessons)}
		mt.Lessons = append(mt.Lessons, content.LessonTree{Lesson: l})
	}
	if err := rows.Err(); err != nil {
		rows.Close()
		return nil, courseapi.WrapError(courseapi.KindFatal, op, err)
	}
	rows.Close()

	rows, err = q.QueryContext(ctx, `
		SELECT r.id, r.lesson_id, r.title, r.type, r.url, r.premium
		FROM resources r
		JOIN lessons l ON l.id = r.lesson_id
		JOIN modules m ON m.id = l.module_id
		WHERE m.course_id = ?
		ORDER BY r.lesson_id, r.position, r.id
	`, courseID)
	if err != nil {
		return nil, courseapi.WrapError(courseapi.KindFatal, op, err)
	}
	defer rows.Close()
	for rows.Next() {
		var rid, lid int64
		r := content.Resource{}
		var typ string
		if err := rows.Scan(&rid, &lid, &r.Title, &typ, &r.URL, &r.Premium); err != nil {
			return nil, courseapi.WrapError(courseapi.KindFatal, op, err)
		}
		pos, ok := lessonIdx[lid]
		if !ok {
			continue
		}
		lt := &tree.Modules[pos[0]].Lessons[pos[1]]
		r.ID = formatID(rid)
		r.LessonID = lt.ID
		r.Type = content.ResourceType(typ)
		r.Order = len(lt.Resources)
		lt.Resources = append(lt.Resources, r)
	}
	if err := rows.Err(); err != nil {
		return nil, courseapi.WrapError(courseapi.KindFatal, op, err)
	}
	return tree, nil
}
