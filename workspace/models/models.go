package models

// CompileRecord is one compiler invocation taken from a compile database.
// Records are immutable once parsed; a newer scan supersedes the whole
// record rather than mutating it.
type CompileRecord struct {
	SourceFile     string
	Command        string
	DatabaseOrigin string
}

// ParsedFlags is the derived view of a CompileRecord.
//
// IncludePaths lists workspace-local entries first, then the appended
// toolchain defaults. SystemIncludePaths is the deduplicated subset of
// IncludePaths that lies outside the workspace, in insertion order.
type ParsedFlags struct {
	CompilerPath       string
	IncludePaths       []string
	SystemIncludePaths []string
	Defines            []string
}

// DatabaseFile is one on-disk compile database and the records it
// contributed, replaced wholesale on every re-read.
type DatabaseFile struct {
	FilePath string
	Records  []CompileRecord
}

// SourceFileConfiguration is the flag record handed to editor tooling.
// Standard and IntelliSenseMode are passed through from configuration,
// not derived from the compile database.
type SourceFileConfiguration struct {
	Standard         string   `json:"standard"`
	IntelliSenseMode string   `json:"intelliSenseMode"`
	IncludePath      []string `json:"includePath"`
	Defines          []string `json:"defines"`
	CompilerPath     string   `json:"compilerPath"`
}
