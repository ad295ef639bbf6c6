package projections

// InstrumentationVersion is reported on the telemetry this library emits.
const InstrumentationVersion = "0.1.0"
