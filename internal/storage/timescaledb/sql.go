package timescaledb

const createExtensionSQL = `CREATE EXTENSION IF NOT EXISTS timescaledb;`

const createRunsTableSQL = `
CREATE TABLE IF NOT EXISTS snowmelt_runs (
    id uuid PRIMARY KEY,
    scenario text NOT NULL,
    created_at timestamp WITH TIME ZONE NOT NULL,
    site jsonb NOT NULL,
    weather jsonb NOT NULL
);`

const createPointsTableSQL = `
CREATE TABLE IF NOT EXISTS snowmelt_points (
    time timestamp WITH TIME ZONE NOT NULL,
    run_id uuid NOT NULL,
    scenario text NOT NULL,
    idx integer NOT NULL,
    air_temperature float8 NULL,
    net_rad float8 NULL,
    stability_regime text NULL,
    vapor_regime text NULL,
    total_melt float8 NULL,
    total_ablation float8 NULL,
    total_water_output float8 NULL,
    ti_total_melt float8 NULL,
    ti_water_output float8 NULL,
    error text NULL
);`

const createHypertableSQL = `SELECT create_hypertable('snowmelt_points', 'time', if_not_exists => true);`

const createIndexesSQL = `
CREATE INDEX IF NOT EXISTS idx_snowmelt_runs_scenario ON snowmelt_runs (scenario, created_at DESC);
CREATE INDEX IF NOT EXISTS idx_snowmelt_points_run ON snowmelt_points (run_id, idx);
`

// Daily summary of every stored sweep, per scenario and air temperature
const create1dViewSQL = `CREATE MATERIALIZED VIEW IF NOT EXISTS snowmelt_1d
WITH (timescaledb.continuous, timescaledb.materialized_only = false)
AS
SELECT
    time_bucket('1 day', time) as bucket,
    scenario,
    air_temperature,
    count(*) as runs,
    avg(total_melt) as total_melt,
    max(total_melt) as max_total_melt,
    min(total_melt) as min_total_melt,
    avg(ti_total_melt) as ti_total_melt
FROM snowmelt_points
WHERE error IS NULL
GROUP BY bucket, scenario, air_temperature
WITH NO DATA;`

const addAggregationPolicy1dSQL = `SELECT add_continuous_aggregate_policy('snowmelt_1d', INTERVAL '1 year', INTERVAL '1 hour', INTERVAL '1 hour', if_not_exists => true);`

const addRetentionPolicySQL = `SELECT add_retention_policy('snowmelt_points', INTERVAL '2 years', if_not_exists => true);`

// schemaSteps run in order when the engine starts
var schemaSteps = []struct {
	name string
	sql  string
}{
	{"TimescaleDB extension", createExtensionSQL},
	{"runs table", createRunsTableSQL},
	{"points table", createPointsTableSQL},
	{"points hypertable", createHypertableSQL},
	{"indexes", createIndexesSQL},
	{"1d view", create1dViewSQL},
	{"1d aggregation policy", addAggregationPolicy1dSQL},
	{"retention policy", addRetentionPolicySQL},
}
