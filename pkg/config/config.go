package config

// this holds the resolved configuration values from CLI
//
//nolint:lll // readablity
var (
	WaitForServices   string  // duration to wait for other services to be ready
	LogLevel          string  // sets the log level (zap log level values)
	LogFormat         string  // text vs json
	LogFilter         string  // zapfilter rules, e.g. "*:info sim.bot:debug"
	EnableTelemetry   bool    // enable telemetry
	TelemetryEndpoint string  // endpoint for telemetry, "stdout" writes to the console
	NatsURL           string  // nats server(s) receiving the race feed, empty disables the feed
	SnapshotEvery     int     // publish every n-th snapshot
	RaceConfigFile    string  // path to the race config file
	Realtime          bool    // if false the race runs as fast as possible
	MaxTime           float64 // stop the race after this many simulated seconds, 0 means no limit
	Watch             bool    // restart the race when the race config or track file changes
)
