package report

// Одна json-строка на файл, финальная строка закрывает поток.

type refactorJSON struct {
	Deprecation string `json:"deprecation"`
	Log         string `json:"log"`
}

type fileLineJSON struct {
	Mode      string         `json:"mode"`
	FilePath  string         `json:"file_path"`
	Refactors []refactorJSON `json:"refactors"`
}

type failureLineJSON struct {
	Mode     string `json:"mode"`
	FilePath string `json:"file_path"`
	Error    string `json:"error"`
}

type completeLineJSON struct {
	Mode         string `json:"mode"`
	FilesScanned int    `json:"files_scanned"`
	FilesChanged int    `json:"files_changed"`
	Refactors    int    `json:"refactors"`
	Failures     int    `json:"failures,omitempty"`
}
