package sqlite

// Schema DDL. seq preserves insertion order across upserts: ON CONFLICT
// updates the row in place and keeps its seq.
const (
	createGuests = `CREATE TABLE IF NOT EXISTS guests (
    seq INTEGER PRIMARY KEY AUTOINCREMENT,
    guest_id TEXT NOT NULL UNIQUE,
    full_name TEXT NOT NULL,
    rsvp_status TEXT NOT NULL,
    instagram_handle TEXT NOT NULL DEFAULT '',
    follower_count INTEGER NOT NULL DEFAULT 0,
    tags TEXT NOT NULL DEFAULT '[]',
    email TEXT NOT NULL,
    phone TEXT NOT NULL DEFAULT '',
    invited_before INTEGER NOT NULL DEFAULT 0,
    notes TEXT NOT NULL DEFAULT ''
);`

	createTags = `CREATE TABLE IF NOT EXISTS tags (
    seq INTEGER PRIMARY KEY AUTOINCREMENT,
    tag_id TEXT NOT NULL UNIQUE,
    name TEXT NOT NULL,
    color TEXT NOT NULL DEFAULT ''
);`
)

// Index DDL.
const (
	idxGuestsStatus = `CREATE INDEX IF NOT EXISTS idx_guests_rsvp_status ON guests(rsvp_status);`
	idxTagsName     = `CREATE INDEX IF NOT EXISTS idx_tags_name ON tags(name COLLATE NOCASE);`
)

// schemaDDL lists every statement run on attach, in order.
var schemaDDL = []string{
	createGuests,
	createTags,
	idxGuestsStatus,
	idxTagsName,
}

const upsertGuest = `INSERT INTO guests (
    guest_id, full_name, rsvp_status, instagram_handle, follower_count,
    tags, email, phone, invited_before, notes
) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
ON CONFLICT(guest_id) DO UPDATE SET
    full_name = excluded.full_name,
    rsvp_status = excluded.rsvp_status,
    instagram_handle = excluded.instagram_handle,
    follower_count = excluded.follower_count,
    tags = excluded.tags,
    email = excluded.email,
    phone = excluded.phone,
    invited_before = excluded.invited_before,
    notes = excluded.notes;`

const selectGuests = `SELECT guest_id, full_name, rsvp_status, instagram_handle,
    follower_count, tags, email, phone, invited_before, notes
FROM guests ORDER BY seq;`

const upsertTag = `INSERT INTO tags (tag_id, name, color) VALUES (?, ?, ?)
ON CONFLICT(tag_id) DO UPDATE SET name = excluded.name, color = excluded.color;`

const selectTags = `SELECT tag_id, name, color FROM tags ORDER BY seq;`
