package postgres

const schemaSQL = `
CREATE TABLE IF NOT EXISTS optimization_runs (
	id           UUID PRIMARY KEY,
	strategy     TEXT NOT NULL DEFAULT '',
	started_at   TIMESTAMPTZ NOT NULL,
	completed_at TIMESTAMPTZ NOT NULL,
	analyzed     INTEGER NOT NULL DEFAULT 0,
	failed       INTEGER NOT NULL DEFAULT 0,
	fallbacks    INTEGER NOT NULL DEFAULT 0
);

CREATE TABLE IF NOT EXISTS optimization_results (
	id                     BIGSERIAL PRIMARY KEY,
	run_id                 UUID NOT NULL REFERENCES optimization_runs(id) ON DELETE CASCADE,
	position               INTEGER NOT NULL,
	item_id                TEXT NOT NULL,
	strategy               TEXT NOT NULL,
	status                 TEXT NOT NULL,
	reason                 TEXT NOT NULL DEFAULT '',
	message                TEXT NOT NULL DEFAULT '',
	order_quantity         DOUBLE PRECISION NOT NULL DEFAULT 0,
	reorder_point          DOUBLE PRECISION NOT NULL DEFAULT 0,
	safety_stock           DOUBLE PRECISION NOT NULL DEFAULT 0,
	target_inventory_level DOUBLE PRECISION NOT NULL DEFAULT 0,
	expected_shortage      DOUBLE PRECISION NOT NULL DEFAULT 0,
	service_level          DOUBLE PRECISION NOT NULL DEFAULT 0,
	annual_demand          DOUBLE PRECISION NOT NULL DEFAULT 0,
	mean_daily_demand      DOUBLE PRECISION NOT NULL DEFAULT 0,
	std_daily_demand       DOUBLE PRECISION NOT NULL DEFAULT 0,
	abc_category           TEXT NOT NULL DEFAULT '',
	is_fallback            BOOLEAN NOT NULL DEFAULT FALSE,
	recommendations        TEXT[] NOT NULL DEFAULT '{}',
	details                JSONB,
	created_at             TIMESTAMPTZ NOT NULL DEFAULT NOW(),
	UNIQUE (run_id, position)
);

CREATE INDEX IF NOT EXISTS idx_optimization_results_item_created
	ON optimization_results (item_id, created_at DESC);
`
