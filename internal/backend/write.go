package backend

import (
	"context"
	"database/sql"
	"errors"

	"github.com/courseforge/courseforge/internal/content"
	"github.com/courseforge/courseforge/internal/courseapi"
)

// CreateCourse seeds a new course row and returns a copy carrying its
// permanent identifier. Not part of the engine's persistence contract;
// the CLI and tests use it to set up a database.
func (b *Backend) CreateCourse(ctx context.Context, course *content.Course) (*content.Course, error) {
	const op = "create course"
	res, err := b.db.ExecContext(ctx, `
		INSERT INTO courses (title, description, price_cents, draft, published)
		VALUES (?, ?, ?, ?, ?)
	`, course.Title, course.Description, course.PriceCents, course.Draft, course.Published)
	if err != nil {
		return nil, courseapi.WrapError(courseapi.KindFatal, op, err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return nil, courseapi.WrapError(courseapi.KindFatal, op, err)
	}
	out := *course
	out.ID = formatID(id)
	b.logger.Info("backend: course created", "id", out.ID, "title", out.Title)
	return &out, nil
}

// SaveCourse implements courseapi.Client.
//
// The whole tree is synchronized in one transaction: placeholders are
// inserted, known entities updated (reparenting included), and rows the
// tree no longer mentions are deleted. The stored tree is read back and
// returned for reconciliation.
func (b *Backend) SaveCourse(ctx context.Context, tree *content.CourseTree) (*content.CourseTree, error) {
	const op = "save course"
	courseID, err := parseID(op, tree.ID)
	if err != nil {
		return nil, err
	}

	var saved *content.CourseTree
	err = b.inTx(ctx, op, func(tx *sql.Tx) error {
		res, err := tx.ExecContext(ctx, `
			UPDATE courses SET title = ?, description = ?, price_cents = ?, draft = ?, published = ?
			WHERE id = ?
		`, tree.Title, tree.Description, tree.PriceCents, tree.Draft, tree.Published, courseID)
		if err != nil {
			return courseapi.WrapError(courseapi.KindFatal, op, err)
		}
		if n, _ := res.RowsAffected(); n == 0 {
			return courseapi.NewError(courseapi.KindFatal, op, "no such course "+tree.ID)
		}

		existingModules, err := idSet(ctx, tx, op,
			`SELECT id FROM modules WHERE course_id = ?`, courseID)
		if err != nil {
			return err
		}
		existingLessons, err := idSet(ctx, tx, op, `
			SELECT l.id FROM lessons l
			JOIN modules m ON m.id = l.module_id
			WHERE m.course_id = ?
		`, courseID)
		if err != nil {
			return err
		}
		existingResources, err := idSet(ctx, tx, op, `
			SELECT r.id FROM resources r
			JOIN lessons l ON l.id = r.lesson_id
			JOIN modules m ON m.id = l.module_id
			WHERE m.course_id = ?
		`, courseID)
		if err != nil {
			return err
		}

		keptModules := map[int64]bool{}
		keptLessons := map[int64]bool{}
		keptResources := map[int64]bool{}

		for mi := range tree.Modules {
			mt := &tree.Modules[mi]
			var mid int64
			if content.IsTempID(mt.ID) {
				res, err := tx.ExecContext(ctx, `
					INSERT INTO modules (course_id, title, description, position)
					VALUES (?, ?, ?, ?)
				`, courseID, mt.Title, mt.Description, mi)
				if err != nil {
					return courseapi.WrapError(courseapi.KindFatal, op, err)
				}
				if mid, err = res.LastInsertId(); err != nil {
					return courseapi.WrapError(courseapi.KindFatal, op, err)
				}
			} else {
				if mid, err = parseID(op, mt.ID); err != nil {
					return err
				}
				if !existingModules[mid] {
					return courseapi.NewError(courseapi.KindConflict, op, "unknown module "+mt.ID)
				}
				if _, err := tx.ExecContext(ctx, `
					UPDATE modules SET title = ?, description = ?, position = ?
					WHERE id = ?
				`, mt.Title, mt.Description, mi, mid); err != nil {
					return courseapi.WrapError(courseapi.KindFatal, op, err)
				}
			}
			keptModules[mid] = true

			for li := range mt.Lessons {
				lt := &mt.Lessons[li]
				var lid int64
				if content.IsTempID(lt.ID) {
					res, err := tx.ExecContext(ctx, `
						INSERT INTO lessons (module_id, title, content, content_html, type, access, position)
						VALUES (?, ?, ?, ?, ?, ?, ?)
					`, mid, lt.Title, lt.Content, lt.ContentHTML, string(lt.Type), string(lt.Access), li)
					if err != nil {
						return courseapi.WrapError(courseapi.KindFatal, op, err)
					}
					if lid, err = res.LastInsertId(); err != nil {
						return courseapi.WrapError(courseapi.KindFatal, op, err)
					}
				} else {
					if lid, err = parseID(op, lt.ID); err != nil {
						return err
					}
					if !existingLessons[lid] {
						return courseapi.NewError(courseapi.KindConflict, op, "unknown lesson "+lt.ID)
					}
					if _, err := tx.ExecContext(ctx, `
						UPDATE lessons SET module_id = ?, title = ?, content = ?, content_html = ?, type = ?, access = ?, position = ?
						WHERE id = ?
					`, mid, lt.Title, lt.Content, lt.ContentHTML, string(lt.Type), string(lt.Access), li, lid); err != nil {
						return courseapi.WrapError(courseapi.KindFatal, op, err)
					}
				}
				keptLessons[lid] = true

				for ri := range lt.Resources {
					r := &lt.Resources[ri]
					var rid int64
					if content.IsTempID(r.ID) {
						res, err := tx.ExecContext(ctx, `
							INSERT INTO resources (lesson_id, title, type, url, premium, position)
							VALUES (?, ?, ?, ?, ?, ?)
						`, lid, r.Title, string(r.Type), r.URL, r.Premium, ri)
						if err != nil {
							return courseapi.WrapError(courseapi.KindFatal, op, err)
						}
						if rid, err = res.LastInsertId(); err != nil {
							return courseapi.WrapError(courseapi.KindFatal, op, err)
						}
					} else {
						if rid, err = parseID(op, r.ID); err != nil {
							return err
						}
						if !existingResources[rid] {
							return courseapi.NewError(courseapi.KindConflict, op, "unknown resource "+r.ID)
						}
						if _, err := tx.ExecContext(ctx, `
							UPDATE resources SET lesson_id = ?, title = ?, type = ?, url = ?, premium = ?, position = ?
							WHERE id = ?
						`, lid, r.Title, string(r.Type), r.URL, r.Premium, ri, rid); err != nil {
							return courseapi.WrapError(courseapi.KindFatal, op, err)
						}
					}
					keptResources[rid] = true
				}
			}
		}

		// Rows the tree no longer mentions are gone. Cascades clean up
		// descendants of deleted parents; the remaining deletes are
		// no-ops for already-cascaded rows.
		if err := deleteAbsent(ctx, tx, op, "resources", existingResources, keptResources); err != nil {
			return err
		}
		if err := deleteAbsent(ctx, tx, op, "lessons", existingLessons, keptLessons); err != nil {
			return err
		}
		if err := deleteAbsent(ctx, tx, op, "modules", existingModules, keptModules); err != nil {
			return err
		}

		saved, err = fetchTree(ctx, tx, op, courseID)
		return err
	})
	if err != nil {
		return nil, err
	}
	b.logger.Debug("backend: course saved", "id", saved.ID, "modules", len(saved.Modules))
	return saved, nil
}

// CreateLesson implements courseapi.Client.
func (b *Backend) CreateLesson(ctx context.Context, moduleID string, lesson *content.Lesson) (*content.Lesson, error) {
	const op = "create lesson"
	mid, err := parseID(op, moduleID)
	if err != nil {
		return nil, err
	}

	var out content.Lesson
	err = b.inTx(ctx, op, func(tx *sql.Tx) error {
		var exists int64
		if err := tx.QueryRowContext(ctx,
			`SELECT id FROM modules WHERE id = ?`, mid).Scan(&exists); err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return courseapi.NewError(courseapi.KindConflict, op, "unknown module "+moduleID)
			}
			return courseapi.WrapError(courseapi.KindFatal, op, err)
		}
		var position int
		if err := tx.QueryRowContext(ctx,
			`SELECT COUNT(*) FROM lessons WHERE module_id = ?`, mid).Scan(&position); err != nil {
			return courseapi.WrapError(courseapi.KindFatal, op, err)
		}
		res, err := tx.ExecContext(ctx, `
			INSERT INTO lessons (module_id, title, content, content_html, type, access, position)
			VALUES (?, ?, ?, ?, ?, ?, ?)
		`, mid, lesson.Title, lesson.Content, lesson.ContentHTML, string(lesson.Type), string(lesson.Access), position)
		if err != nil {
			return courseapi.WrapError(courseapi.KindFatal, op, err)
		}
		lid, err := res.LastInsertId()
		if err != nil {
			return courseapi.WrapError(courseapi.KindFatal, op, err)
		}
		out = *lesson
		out.ID = formatID(lid)
		out.ModuleID = moduleID
		out.Order = position
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &out, nil
}

// ReorderModules implements courseapi.Client.
func (b *Backend) ReorderModules(ctx context.Context, courseID string, ids []string) error {
	const op = "reorder modules"
	cid, err := parseID(op, courseID)
	if err != nil {
		return err
	}
	return b.inTx(ctx, op, func(tx *sql.Tx) error {
		return reorderRows(ctx, tx, op, "modules", ids,
			`SELECT id FROM modules WHERE course_id = ?`, cid)
	})
}

// ReorderLessons implements courseapi.Client.
func (b *Backend) ReorderLessons(ctx context.Context, moduleID string, ids []string) error {
	const op = "reorder lessons"
	mid, err := parseID(op, moduleID)
	if err != nil {
		return err
	}
	return b.inTx(ctx, op, func(tx *sql.Tx) error {
		var exists int64
		if err := tx.QueryRowContext(ctx,
			`SELECT id FROM modules WHERE id = ?`, mid).Scan(&exists); err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return courseapi.NewError(courseapi.KindConflict, op, "unknown module "+moduleID)
			}
			return courseapi.WrapError(courseapi.KindFatal, op, err)
		}
		return reorderRows(ctx, tx, op, "lessons", ids,
			`SELECT id FROM lessons WHERE module_id = ?`, mid)
	})
}

// MoveLesson implements courseapi.Client. index == -1 appends.
func (b *Backend) MoveLesson(ctx context.Context, lessonID, targetModuleID string, index int) error {
	const op = "move lesson"
	lid, err := parseID(op, lessonID)
	if err != nil {
		return err
	}
	tmid, err := parseID(op, targetModuleID)
	if err != nil {
		return err
	}
	return b.inTx(ctx, op, func(tx *sql.Tx) error {
		var smid, sourceCourse, targetCourse int64
		err := tx.QueryRowContext(ctx, `
			SELECT l.module_id, m.course_id FROM lessons l
			JOIN modules m ON m.id = l.module_id
			WHERE l.id = ?
		`, lid).Scan(&smid, &sourceCourse)
		if err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return courseapi.NewError(courseapi.KindConflict, op, "unknown lesson "+lessonID)
			}
			return courseapi.WrapError(courseapi.KindFatal, op, err)
		}
		if err := tx.QueryRowContext(ctx,
			`SELECT course_id FROM modules WHERE id = ?`, tmid).Scan(&targetCourse); err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return courseapi.NewError(courseapi.KindConflict, op, "unknown module "+targetModuleID)
			}
			return courseapi.WrapError(courseapi.KindFatal, op, err)
		}
		if sourceCourse != targetCourse {
			return courseapi.NewError(courseapi.KindValidation, op, "cannot move a lesson across courses")
		}

		source, err := idList(ctx, tx, op,
			`SELECT id FROM lessons WHERE module_id = ? ORDER BY position, id`, smid)
		if err != nil {
			return err
		}
		source = removeInt(source, lid)

		target := source
		if smid != tmid {
			if err := writePositions(ctx, tx, op, "lessons", source); err != nil {
				return err
			}
			if target, err = idList(ctx, tx, op,
				`SELECT id FROM lessons WHERE module_id = ? ORDER BY position, id`, tmid); err != nil {
				return err
			}
			target = removeInt(target, lid)
		}
		if index < 0 || index > len(target) {
			index = len(target)
		}
		target = append(target[:index:index], append([]int64{lid}, target[index:]...)...)

		if _, err := tx.ExecContext(ctx,
			`UPDATE lessons SET module_id = ? WHERE id = ?`, tmid, lid); err != nil {
			return courseapi.WrapError(courseapi.KindFatal, op, err)
		}
		return writePositions(ctx, tx, op, "lessons", target)
	})
}

// Publish implements courseapi.Client.
func (b *Backend) Publish(ctx context.Context, courseID string) (*content.CourseTree, error) {
	return b.setPublished(ctx, "publish course", courseID, true)
}

// Unpublish implements courseapi.Client.
func (b *Backend) Unpublish(ctx context.Context, courseID string) (*content.CourseTree, error) {
	return b.setPublished(ctx, "unpublish course", courseID, false)
}

func (b *Backend) setPublished(ctx context.Context, op, courseID string, published bool) (*content.CourseTree, error) {
	cid, err := parseID(op, courseID)
	if err != nil {
		return nil, err
	}
	res, err := b.db.ExecContext(ctx,
		`UPDATE courses SET published = ?, draft = ? WHERE id = ?`, published, !published, cid)
	if err != nil {
		return nil, courseapi.WrapError(courseapi.KindFatal, op, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return nil, courseapi.NewError(courseapi.KindFatal, op, "no such course "+courseID)
	}
	b.logger.Info("backend: publication changed", "course", courseID, "published", published)
	return fetchTree(ctx, b.db, op, cid)
}

// Clone implements courseapi.Client. The duplicate keeps the source's
// content but always starts as an unpublished draft.
func (b *Backend) Clone(ctx context.Context, courseID string) (*content.CourseTree, error) {
	const op = "clone course"
	cid, err := parseID(op, courseID)
	if err != nil {
		return nil, err
	}
	source, err := fetchTree(ctx, b.db, op, cid)
	if err != nil {
		return nil, err
	}

	var clone *content.CourseTree
	err = b.inTx(ctx, op, func(tx *sql.Tx) error {
		res, err := tx.ExecContext(ctx, `
			INSERT INTO courses (title, description, price_cents, draft, published)
			VALUES (?, ?, ?, 1, 0)
		`, source.Title, source.Description, source.PriceCents)
		if err != nil {
			return courseapi.WrapError(courseapi.KindFatal, op, err)
		}
		newID, err := res.LastInsertId()
		if err != nil {
			return courseapi.WrapError(courseapi.KindFatal, op, err)
		}
		for mi := range source.Modules {
			mt := &source.Modules[mi]
			res, err := tx.ExecContext(ctx, `
				INSERT INTO modules (course_id, title, description, position)
				VALUES (?, ?, ?, ?)
			`, newID, mt.Title, mt.Description, mi)
			if err != nil {
				return courseapi.WrapError(courseapi.KindFatal, op, err)
			}
			mid, err := res.LastInsertId()
			if err != nil {
				return courseapi.WrapError(courseapi.KindFatal, op, err)
			}
			for li := range mt.Lessons {
				lt := &mt.Lessons[li]
				res, err := tx.ExecContext(ctx, `
					INSERT INTO lessons (module_id, title, content, content_html, type, access, position)
					VALUES (?, ?, ?, ?, ?, ?, ?)
				`, mid, lt.Title, lt.Content, lt.ContentHTML, string(lt.Type), string(lt.Access), li)
				if err != nil {
					return courseapi.WrapError(courseapi.KindFatal, op, err)
				}
				newLID, err := res.LastInsertId()
				if err != nil {
					return courseapi.WrapError(courseapi.KindFatal, op, err)
				}
				for ri := range lt.Resources {
					r := &lt.Resources[ri]
					if _, err := tx.ExecContext(ctx, `
						INSERT INTO resources (lesson_id, title, type, url, premium, position)
						VALUES (?, ?, ?, ?, ?, ?)
					`, newLID, r.Title, string(r.Type), r.URL, r.Premium, ri); err != nil {
						return courseapi.WrapError(courseapi.KindFatal, op, err)
					}
				}
			}
		}
		clone, err = fetchTree(ctx, tx, op, newID)
		return err
	})
	if err != nil {
		return nil, err
	}
	b.logger.Info("backend: course cloned", "source", courseID, "clone", clone.ID)
	return clone, nil
}

// reorderRows validates that ids is a permutation of the rows selected
// by query and rewrites their positions. Unknown identifiers are
// conflicts; duplicates and wrong lengths are validation failures.
func reorderRows(ctx context.Context, tx *sql.Tx, op, table string, ids []string, query string, arg int64) error {
	existing, err := idList(ctx, tx, op, query, arg)
	if err != nil {
		return err
	}
	have := make(map[int64]bool, len(existing))
	for _, id := range existing {
		have[id] = true
	}

	ordered := make([]int64, 0, len(ids))
	seen := make(map[int64]bool, len(ids))
	for _, id := range ids {
		n, err := parseID(op, id)
		if err != nil {
			return err
		}
		if !have[n] {
			return courseapi.NewError(courseapi.KindConflict, op, "unknown identifier "+id)
		}
		if seen[n] {
			return courseapi.NewError(courseapi.KindValidation, op, "duplicate identifier "+id)
		}
		seen[n] = true
		ordered = append(ordered, n)
	}
	if len(ordered) != len(existing) {
		return courseapi.NewError(courseapi.KindValidation, op, "ordering must list every row exactly once")
	}
	return writePositions(ctx, tx, op, table, ordered)
}

func writePositions(ctx context.Context, tx *sql.Tx, op, table string, ids []int64) error {
	for i, id := range ids {
		if _, err := tx.ExecContext(ctx,
			`UPDATE `+table+` SET position = ? WHERE id = ?`, i, id); err != nil {
			return courseapi.WrapError(courseapi.KindFatal, op, err)
		}
	}
	return nil
}

func idSet(ctx context.Context, tx *sql.Tx, op, query string, arg int64) (map[int64]bool, error) {
	ids, err := idList(ctx, tx, op, query, arg)
	if err != nil {
		return nil, err
	}
	set := make(map[int64]bool, len(ids))
	for _, id := range ids {
		set[id] = true
	}
	return set, nil
}

func idList(ctx context.Context, tx *sql.Tx, op, query string, arg int64) ([]int64, error) {
	rows, err := tx.QueryContext(ctx, query, arg)
	if err != nil {
		return nil, courseapi.WrapError(courseapi.KindFatal, op, err)
	}
	defer rows.Close()
	var ids []int64
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, courseapi.WrapError(courseapi.KindFatal, op, err)
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		return nil, courseapi.WrapError(courseapi.KindFatal, op, err)
	}
	return ids, nil
}

func deleteAbsent(ctx context.Context, tx *sql.Tx, op, table string, existing, kept map[int64]bool) error {
	for id := range existing {
		if kept[id] {
			continue
		}
		if _, err := tx.ExecContext(ctx,
			`DELETE FROM `+table+` WHERE id = ?`, id); err != nil {
			return courseapi.WrapError(courseapi.KindFatal, op, err)
		}
	}
	return nil
}

func removeInt(ids []int64, id int64) []int64 {
	out := make([]int64, 0, len(ids))
	for _, v := range ids {
		if v != id {
			out = append(out, v)
		}
	}
	return out
}
