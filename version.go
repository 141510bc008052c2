package valuesets

// Version is the release of the gofhir-valuesets tool.
const Version = "0.1.0"
