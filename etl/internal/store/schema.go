package store

// Schema is the complete DDL for the CFR database. It is idempotent and
// applied on every open.
//
// cfr_sections carries no foreign key to agencies: the upstream XML has no
// native agency attribution, so the association is recomputed at read time
// by matching title/chapter/part against cfr_references (see query.go).
const Schema = `
-- Regulatory agencies, flattened parent/child (children are one level deep)
CREATE TABLE IF NOT EXISTS agencies (
    agency_id      INTEGER PRIMARY KEY,
    name           TEXT NOT NULL,
    short_name     TEXT NOT NULL DEFAULT '',
    display_name   TEXT NOT NULL DEFAULT '',
    sortable_name  TEXT NOT NULL DEFAULT '',
    slug           TEXT NOT NULL UNIQUE,
    parent_id      INTEGER
);

-- Claims that an agency regulates a title/chapter/part
CREATE TABLE IF NOT EXISTS cfr_references (
    reference_id   INTEGER PRIMARY KEY AUTOINCREMENT,
    agency_id      INTEGER NOT NULL REFERENCES agencies(agency_id),
    title          TEXT NOT NULL DEFAULT '',
    chapter        TEXT NOT NULL DEFAULT '',
    part           TEXT NOT NULL DEFAULT ''
);
CREATE INDEX IF NOT EXISTS idx_cfr_references_agency ON cfr_references(agency_id);

-- One row per leaf section of regulatory text
CREATE TABLE IF NOT EXISTS cfr_sections (
    section_id        INTEGER PRIMARY KEY AUTOINCREMENT,
    title_number      TEXT NOT NULL DEFAULT '',
    title_head        TEXT NOT NULL DEFAULT '',
    chapter_number    TEXT NOT NULL DEFAULT '',
    chapter_head      TEXT NOT NULL DEFAULT '',
    subchapter_number TEXT NOT NULL DEFAULT '',
    subchapter_head   TEXT NOT NULL DEFAULT '',
    part_number       TEXT NOT NULL DEFAULT '',
    part_head         TEXT NOT NULL DEFAULT '',
    section_number    TEXT NOT NULL DEFAULT '',
    section_title     TEXT NOT NULL DEFAULT '',
    body              TEXT NOT NULL DEFAULT ''
);
CREATE INDEX IF NOT EXISTS idx_cfr_sections_title
    ON cfr_sections(title_number, chapter_number, part_number);

-- Fetch log (observability)
CREATE TABLE IF NOT EXISTS fetch_log (
    id             TEXT PRIMARY KEY,
    service        TEXT NOT NULL,
    url            TEXT NOT NULL,
    status         TEXT NOT NULL,
    status_code    INTEGER NOT NULL DEFAULT 0,
    error_message  TEXT NOT NULL DEFAULT '',
    duration_ms    INTEGER NOT NULL DEFAULT 0,
    fetched_at     INTEGER NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_fetch_log_time ON fetch_log(fetched_at DESC);
`
