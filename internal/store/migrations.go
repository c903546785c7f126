package store

const schema = `
CREATE TABLE IF NOT EXISTS videos (
    key          TEXT PRIMARY KEY,
    id           TEXT,
    title        TEXT,
    author       TEXT,
    digg         INTEGER,
    comment      INTEGER,
    share        INTEGER,
    collect      INTEGER,
    play         INTEGER,
    source_url   TEXT,
    fetched_at   DATETIME,
    ok           BOOLEAN NOT NULL DEFAULT 0,
    error_reason TEXT,
    first_seen   DATETIME NOT NULL,
    updated_at   DATETIME NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_videos_id ON videos(id);
CREATE INDEX IF NOT EXISTS idx_videos_ok ON videos(ok);
CREATE INDEX IF NOT EXISTS idx_videos_updated ON videos(updated_at);
`
