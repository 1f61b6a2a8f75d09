package store

import (
	"context"

	"gpad/internal/models"
)

func (s *Store) ListTags(ctx context.Context) ([]models.Tag, error) {
	rows, err := s.queryContext(ctx, `
		SELECT tags.id, tags.name, COUNT(notes.id)
		FROM tags
		LEFT JOIN note_tags ON tags.id = note_tags.tag_id
		LEFT JOIN notes ON notes.id = note_tags.note_id AND notes.action != ?
		GROUP BY tags.id
		ORDER BY tags.name
	`, int(models.ActionDelete))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	tags := []models.Tag{}
	for rows.Next() {
		var t models.Tag
		if err := rows.Scan(&t.ID, &t.Name, &t.Count); err != nil {
			return nil, err
		}
		tags = append(tags, t)
	}
	return tags, rows.Err()
}
