// Package db provides SQLite-based storage for the wardrobe.
// It owns the connection lifecycle, the writer lock and schema migrations;
// the domain packages read and write through the *sql.DB it hands out.
package db

// SchemaVersion is the current supported schema version.
// Open refuses to run against a database whose version exceeds it.
const SchemaVersion = 3

// schemaV1 creates the wardrobe tables.
const schemaV1 = `
CREATE TABLE IF NOT EXISTS schema_migrations (
  version       INTEGER PRIMARY KEY,
  applied_ts    INTEGER NOT NULL
);

-- Clothing inventory
CREATE TABLE IF NOT EXISTS clothes (
  id               INTEGER PRIMARY KEY AUTOINCREMENT,
  image_path       TEXT NOT NULL DEFAULT '',
  clothing_type    TEXT NOT NULL,
  color_primary    TEXT,
  color_secondary  TEXT,
  pattern          TEXT NOT NULL DEFAULT 'solid',
  formality        TEXT NOT NULL DEFAULT 'casual',
  season_weight    TEXT NOT NULL DEFAULT 'medium',
  times_worn       INTEGER NOT NULL DEFAULT 0 CHECK (times_worn >= 0),
  last_worn        INTEGER,
  in_laundry       INTEGER NOT NULL DEFAULT 0,
  favorite         INTEGER NOT NULL DEFAULT 0,
  created_at       INTEGER NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_clothes_type ON clothes(clothing_type);
CREATE INDEX IF NOT EXISTS idx_clothes_laundry ON clothes(in_laundry);

-- Worn outfits, one row per wear action
CREATE TABLE IF NOT EXISTS outfits (
  id                 INTEGER PRIMARY KEY AUTOINCREMENT,
  top_id             INTEGER,
  bottom_id          INTEGER,
  shoes_id           INTEGER,
  dress_id           INTEGER,
  outerwear_id       INTEGER,
  occasion           TEXT NOT NULL,
  weather_temp       REAL,
  weather_condition  TEXT,
  worn_at            INTEGER NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_outfits_worn_at ON outfits(worn_at);

-- Learned style preferences
CREATE TABLE IF NOT EXISTS style_profile (
  preference_type   TEXT NOT NULL,
  preference_value  TEXT NOT NULL,
  weight            REAL NOT NULL DEFAULT 1.0 CHECK (weight >= 0.0 AND weight <= 5.0),
  updated_at        INTEGER NOT NULL,
  PRIMARY KEY (preference_type, preference_value)
);

-- Explicit outfit ratings
CREATE TABLE IF NOT EXISTS outfit_ratings (
  id          INTEGER PRIMARY KEY AUTOINCREMENT,
  outfit_id   INTEGER NOT NULL REFERENCES outfits(id),
  rating      INTEGER NOT NULL CHECK (rating BETWEEN 1 AND 5),
  feedback    TEXT,
  created_at  INTEGER NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_ratings_outfit ON outfit_ratings(outfit_id);
`

// schemaV2 adds the image hash used to de-duplicate re-added photos.
const schemaV2 = `
ALTER TABLE clothes ADD COLUMN image_hash TEXT;
CREATE INDEX IF NOT EXISTS idx_clothes_image_hash ON clothes(image_hash);
`

// schemaV3 keeps the last good weather report per city so a later run
// can fall back to it when the provider is down.
const schemaV3 = `
CREATE TABLE IF NOT EXISTS weather_cache (
  city        TEXT PRIMARY KEY,
  report      TEXT NOT NULL,
  fetched_at  INTEGER NOT NULL
);
`

// AllTables lists all tables in the schema for validation purposes.
var AllTables = []string{
	"schema_migrations",
	"clothes",
	"outfits",
	"style_profile",
	"outfit_ratings",
	"weather_cache",
}

// AllIndexes lists all indexes in the schema for validation purposes.
var AllIndexes = []string{
	"idx_clothes_type",
	"idx_clothes_laundry",
	"idx_clothes_image_hash",
	"idx_outfits_worn_at",
	"idx_ratings_outfit",
}
