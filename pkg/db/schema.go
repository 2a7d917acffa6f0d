package db

const schema = `
-- Performance and reliability settings
PRAGMA journal_mode = WAL;
PRAGMA synchronous = NORMAL;
PRAGMA foreign_keys = ON;
PRAGMA temp_store = MEMORY;

-- Resources: every distinct web resource URL a record pointed at
CREATE TABLE IF NOT EXISTS resources (
    resource_id INTEGER PRIMARY KEY AUTOINCREMENT,
    url TEXT NOT NULL UNIQUE,
    scheme TEXT NOT NULL,
    domain TEXT NOT NULL,
    path TEXT,
    created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
);

CREATE INDEX IF NOT EXISTS idx_resources_domain ON resources(domain);

-- Probe accesses: every probe of a resource, tied to the run that made it
CREATE TABLE IF NOT EXISTS probe_accesses (
    access_id INTEGER PRIMARY KEY AUTOINCREMENT,
    resource_id INTEGER NOT NULL,
    run_id TEXT NOT NULL,
    outcome TEXT NOT NULL,         -- ok, failed, canceled
    status_code INTEGER DEFAULT 0,
    error_kind TEXT,
    sniffed_mime_type TEXT,
    mime_code INTEGER DEFAULT 0,
    width INTEGER DEFAULT 0,
    height INTEGER DEFAULT 0,
    duration_ms INTEGER DEFAULT 0,
    accessed_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
    FOREIGN KEY (resource_id) REFERENCES resources(resource_id) ON DELETE CASCADE
);

CREATE INDEX IF NOT EXISTS idx_accesses_resource ON probe_accesses(resource_id);
CREATE INDEX IF NOT EXISTS idx_accesses_run ON probe_accesses(run_id);

-- Tier results: one row per calculation
CREATE TABLE IF NOT EXISTS tier_results (
    result_id INTEGER PRIMARY KEY AUTOINCREMENT,
    run_id TEXT NOT NULL UNIQUE,
    europeana_id TEXT NOT NULL,
    provider_id TEXT,
    content_tier TEXT NOT NULL,
    metadata_tier TEXT NOT NULL,
    edm_type TEXT,
    license TEXT,
    portal_link TEXT,
    provider_link TEXT,
    report_json TEXT NOT NULL,     -- full TierReport
    created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
);

CREATE INDEX IF NOT EXISTS idx_results_record ON tier_results(europeana_id);
CREATE INDEX IF NOT EXISTS idx_results_provider ON tier_results(provider_id);
CREATE INDEX IF NOT EXISTS idx_results_content ON tier_results(content_tier);
CREATE INDEX IF NOT EXISTS idx_results_metadata ON tier_results(metadata_tier);
`
