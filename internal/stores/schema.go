package stores

// Full-snapshot schema: the deck is loaded whole on open and written
// whole on save, so the tables mirror the snapshot contract directly.
// queue_pos is set for queued cards only and records draw order.
const schema = `
CREATE TABLE IF NOT EXISTS cards (
    id INTEGER PRIMARY KEY,
    status INTEGER NOT NULL,
    level INTEGER NOT NULL,
    multiplier REAL NOT NULL,
    last_tested INTEGER,
    next_due INTEGER,
    priority INTEGER NOT NULL,
    hint INTEGER NOT NULL,
    queue_pos INTEGER
);

CREATE TABLE IF NOT EXISTS day_stats (
    day INTEGER PRIMARY KEY,
    item_count INTEGER NOT NULL,
    item_learned INTEGER NOT NULL,
    test_count INTEGER NOT NULL,
    test_learned INTEGER NOT NULL,
    test_wrong INTEGER NOT NULL,
    time_spent_ms INTEGER NOT NULL
);

CREATE TABLE IF NOT EXISTS deck_info (
    key TEXT PRIMARY KEY,
    value TEXT NOT NULL
);
`

const schemaVersion = "1"
