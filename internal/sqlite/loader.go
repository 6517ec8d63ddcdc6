package sqlite

import (
	"database/sql"
	"fmt"

	"github.com/mesh-intelligence/rumor/pkg/types"
)

// Load returns every stored guest in first-save order and every tag in
// creation order.
func (b *Backend) Load() ([]types.Guest, []types.Tag, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if !b.attached {
		return nil, nil, types.ErrDetached
	}
	guests, err := loadGuests(b.db)
	if err != nil {
		return nil, nil, err
	}
	tags, err := loadTags(b.db)
	if err != nil {
		return nil, nil, err
	}
	return guests, tags, nil
}

func loadGuests(db *sql.DB) ([]types.Guest, error) {
	rows, err := db.Query(selectGuests)
	if err != nil {
		return nil, fmt.Errorf("querying guests: %w", err)
	}
	defer rows.Close()

	var guests []types.Guest
	for rows.Next() {
		var (
			g      types.Guest
			status string
			tags   string
		)
		if err := rows.Scan(
			&g.ID, &g.FullName, &status, &g.InstagramHandle, &g.FollowerCount,
			&tags, &g.Email, &g.Phone, &g.InvitedBefore, &g.Notes,
		); err != nil {
			return nil, fmt.Errorf("scanning guest: %w", err)
		}
		g.RSVPStatus = types.RSVPStatus(status)
		if g.Tags, err = decodeTags(tags); err != nil {
			return nil, fmt.Errorf("guest %s: %w", g.ID, err)
		}
		guests = append(guests, g)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("reading guests: %w", err)
	}
	return guests, nil
}

func loadTags(db *sql.DB) ([]types.Tag, error) {
	rows, err := db.Query(selectTags)
	if err != nil {
		return nil, fmt.Errorf("querying tags: %w", err)
	}
	defer rows.Close()

	var tags []types.Tag
	for rows.Next() {
		var t types.Tag
		if err := rows.Scan(&t.ID, &t.Name, &t.Color); err != nil {
			return nil, fmt.Errorf("scanning tag: %w", err)
		}
		tags = append(tags, t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("reading tags: %w", err)
	}
	return tags, nil
}
