package main

// CLIResult is the top-level JSON envelope for all commands.
type CLIResult struct {
	Command    string `json:"command"`
	Results    any    `json:"results"`
	TotalCount *int   `json:"total_count,omitempty"`
	Error      string `json:"error,omitempty"`
}

// CLIRenameResult reports what a rename changed.
type CLIRenameResult struct {
	OldName       string   `json:"old_name"`
	NewName       string   `json:"new_name"`
	Kind          string   `json:"kind"`
	Occurrences   int      `json:"occurrences"`
	ModifiedFiles []string `json:"modified_files"`
	DryRun        bool     `json:"dry_run,omitempty"`
}

// CLIResolvedType is the outcome of receiver type resolution. Type is empty
// when the receiver does not resolve to a known declaration.
type CLIResolvedType struct {
	Receiver string `json:"receiver"`
	Type     string `json:"type"`
}

// CLICursorInfo describes the node under a cursor position.
type CLICursorInfo struct {
	Text         string `json:"text"`
	NodeType     string `json:"node_type"`
	Kind         string `json:"kind,omitempty"`
	StartByte    int    `json:"start_byte"`
	EndByte      int    `json:"end_byte"`
	Package      string `json:"package,omitempty"`
	IsEntity     bool   `json:"is_entity,omitempty"`
	EntityName   string `json:"entity_name,omitempty"`
	EntityIDType string `json:"entity_id_type,omitempty"`
}

// CLIClassLocation pairs a class name with its declaring file.
type CLIClassLocation struct {
	Class string `json:"class"`
	File  string `json:"file"`
}

// CLISourceFile is one discovered source file.
type CLISourceFile struct {
	Path string `json:"path"`
}

// CLICreatedFile reports a file generated from a template.
type CLICreatedFile struct {
	Path     string `json:"path"`
	Template string `json:"template"`
}

// CLIMatch is one query match: its captures by name.
type CLIMatch struct {
	Captures map[string]CLICapture `json:"captures"`
}

// CLICapture is one captured node.
type CLICapture struct {
	Text      string `json:"text"`
	NodeType  string `json:"node_type"`
	StartByte int    `json:"start_byte"`
	EndByte   int    `json:"end_byte"`
}
