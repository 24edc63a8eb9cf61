package source

type (
	// FileID uniquely identifies a source file within a FileSet.
	FileID uint32
	// FileFlags encodes metadata about a source file.
	FileFlags uint8
)

const (
	// FileVirtual indicates the file was added from memory (test, stdin, etc.).
	FileVirtual FileFlags = 1 << iota
	// FileHasBOM indicates the content starts with a UTF-8 BOM.
	FileHasBOM
	// FileHasCRLF indicates the content contains at least one \r\n sequence.
	FileHasCRLF
)

// File captures metadata and content for a single input file.
//
// Content is stored exactly as read from disk: no BOM stripping, no CRLF
// normalization. Rewrites must leave every untouched byte identical, so the
// flags only record what was seen, they never change the buffer.
type File struct {
	ID      FileID
	Path    string
	Content []byte
	LineIdx []uint32
	Hash    [32]byte
	Flags   FileFlags
}

// LineCol represents a human-readable position in a file.
type LineCol struct {
	Line uint32 // 1-based
	Col  uint32 // 1-based
}
