package mdata

// QueryInsert appends metric to the stored value list for one cell,
// matching §6's persisted layout: table metric(tenant, rollup, period,
// path, time, data list<double>), append-only writes.
const QueryInsert = `UPDATE metric USING TTL ? SET data = data + ? WHERE tenant = ? AND rollup = ? AND period = ? AND path = ? AND time = ?`

// QuerySelect reads every stored cell for one path in a time range,
// inclusive of both ends (C9 fetch).
const QuerySelect = `SELECT time, data FROM metric WHERE tenant = ? AND rollup = ? AND period = ? AND path = ? AND time >= ? AND time <= ?`

// SchemaTable is the CQL used to create the table, run once at startup
// when CreateKeyspace is set, grounded on the teacher's schema-driven
// EnsureTableExists (cassandra/ensure.go).
const SchemaTable = `CREATE TABLE IF NOT EXISTS metric (
	tenant text,
	rollup int,
	period int,
	path text,
	time bigint,
	data list<double>,
	PRIMARY KEY ((tenant, rollup, period, path), time)
) WITH CLUSTERING ORDER BY (time ASC)`
