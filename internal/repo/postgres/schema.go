package postgres

const schemaSQL = `
CREATE TABLE IF NOT EXISTS pages (
  id         BIGSERIAL PRIMARY KEY,
  slug       VARCHAR(100) NOT NULL UNIQUE,
  name       VARCHAR(255) NOT NULL,
  created_at TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE TABLE IF NOT EXISTS endpoints (
  id         BIGSERIAL PRIMARY KEY,
  page_id    BIGINT NOT NULL REFERENCES pages(id) ON DELETE CASCADE,
  name       VARCHAR(255) NOT NULL,
  url        TEXT NOT NULL,
  method     VARCHAR(10) NOT NULL DEFAULT 'GET',
  interval_seconds INTEGER NOT NULL DEFAULT 30 CHECK (interval_seconds > 0),
  timeout_seconds  INTEGER NOT NULL DEFAULT 10 CHECK (timeout_seconds > 0),
  active     BOOLEAN NOT NULL DEFAULT TRUE,
  created_at TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE TABLE IF NOT EXISTS checks (
  id            BIGSERIAL PRIMARY KEY,
  endpoint_id   BIGINT NOT NULL REFERENCES endpoints(id) ON DELETE CASCADE,
  status        TEXT NOT NULL CHECK (status IN ('up','down','degraded')),
  response_time INTEGER NULL,
  status_code   INTEGER NULL,
  error         TEXT NULL,
  checked_at    TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE INDEX IF NOT EXISTS idx_checks_endpoint_time ON checks (endpoint_id, checked_at DESC, id DESC);
CREATE INDEX IF NOT EXISTS idx_checks_time          ON checks (checked_at);

CREATE TABLE IF NOT EXISTS incidents (
  id          BIGSERIAL PRIMARY KEY,
  page_id     BIGINT NOT NULL REFERENCES pages(id) ON DELETE CASCADE,
  title       VARCHAR(255) NOT NULL,
  description TEXT NULL,
  status      TEXT NOT NULL CHECK (status IN ('investigating','identified','monitoring','resolved')),
  created_at  TIMESTAMPTZ NOT NULL DEFAULT now(),
  updated_at  TIMESTAMPTZ NOT NULL DEFAULT now(),
  resolved_at TIMESTAMPTZ NULL
);

CREATE INDEX IF NOT EXISTS idx_incidents_page ON incidents (page_id, created_at DESC);
`
