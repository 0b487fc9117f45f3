package repository

// Schema is the DDL for the plant store. Applied manually or via the CLI's
// schema command; there is no migration framework.
const Schema = `
CREATE TABLE IF NOT EXISTS plants (
    id       UUID PRIMARY KEY,
    owner    TEXT NOT NULL,
    name     TEXT NOT NULL,
    info     JSONB,
    added_at TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE INDEX IF NOT EXISTS plants_owner_idx ON plants (owner);

CREATE TABLE IF NOT EXISTS reminders (
    id             UUID PRIMARY KEY,
    plant_id       UUID NOT NULL REFERENCES plants(id) ON DELETE CASCADE,
    type           TEXT NOT NULL,
    frequency_days INT NOT NULL CHECK (frequency_days > 0),
    last_completed TIMESTAMPTZ,
    next_due       TIMESTAMPTZ NOT NULL,
    history        JSONB NOT NULL DEFAULT '[]',
    seq            BIGSERIAL
);

CREATE INDEX IF NOT EXISTS reminders_plant_idx ON reminders (plant_id, seq);
CREATE INDEX IF NOT EXISTS reminders_due_idx ON reminders (next_due);

CREATE TABLE IF NOT EXISTS devices (
    token      TEXT PRIMARY KEY,
    owner      TEXT NOT NULL,
    platform   TEXT NOT NULL DEFAULT '',
    created_at TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE INDEX IF NOT EXISTS devices_owner_idx ON devices (owner);
`
