package cli

import (
	"bufio"
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	"cuelang.org/go/cue/load"
	"cuelang.org/go/cue/token"

	"github.com/yakshavingxyz/datadance/internal/codec"
	"github.com/yakshavingxyz/datadance/internal/compiler"
	"github.com/yakshavingxyz/datadance/internal/ir"
)

// Error code constants - unified across all CLI commands.
const (
	ErrCodeGeneric      = "E001" // Generic/unknown error
	ErrCodeScanError    = "E002" // Directory scan error
	ErrCodeNoDocuments  = "E003" // No documents found
	ErrCodeLoadFailed   = "E004" // CUE load or file decode failed
	ErrCodeNotFound     = "E005" // Path not found
	ErrCodeBuildFailed  = "E006" // CUE build failed
	ErrCodeWriteFailed  = "E007" // File write error
	ErrCodeBadRecords   = "E008" // Records file could not be decoded
	ErrCodeNoSuchName   = "E009" // --name matched no document
	ErrCodeAmbiguousDoc = "E010" // several documents and no --name
)

// LoadError represents an error that occurred while loading documents or
// records.
type LoadError struct {
	Code    string
	Message string
	Pos     token.Pos // CUE position if available
}

func (e *LoadError) Error() string {
	if e.Pos.IsValid() {
		return fmt.Sprintf("%s:%d:%d: %s: %s", e.Pos.Filename(), e.Pos.Line(), e.Pos.Column(), e.Code, e.Message)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// LoadDocuments reads transform documents from path.
//
// A directory is loaded as one CUE package. A .cue file is compiled on its
// own. .json, .yaml and .yml files hold either a single document (an object
// with a transforms field) or a document map keyed by name.
func LoadDocuments(path string) ([]ir.Document, error) {
	info, err := os.Stat(path)
	if os.IsNotExist(err) {
		return nil, &LoadError{Code: ErrCodeNotFound, Message: fmt.Sprintf("path not found: %s", path)}
	}
	if err != nil {
		return nil, &LoadError{Code: ErrCodeNotFound, Message: fmt.Sprintf("error accessing %s: %v", path, err)}
	}

	var docs []ir.Document
	switch {
	case info.IsDir():
		docs, err = loadCUEDir(path)
	case strings.EqualFold(filepath.Ext(path), ".cue"):
		docs, err = loadCUEFile(path)
	default:
		docs, err = loadDataFile(path)
	}
	if err != nil {
		return nil, err
	}
	if len(docs) == 0 {
		return nil, &LoadError{Code: ErrCodeNoDocuments, Message: fmt.Sprintf("no documents found in %s", path)}
	}

	fallback := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	for i := range docs {
		if docs[i].Name == "" {
			docs[i].Name = fallback
		}
	}
	return docs, nil
}

// SelectDocument returns the document called name. With an empty name the
// only document is returned; several documents need a name.
func SelectDocument(docs []ir.Document, name string) (ir.Document, error) {
	if name == "" {
		if len(docs) == 1 {
			return docs[0], nil
		}
		names := make([]string, len(docs))
		for i, d := range docs {
			names[i] = d.Name
		}
		return ir.Document{}, &LoadError{
			Code:    ErrCodeAmbiguousDoc,
			Message: fmt.Sprintf("%d documents found, select one with --name (%s)", len(docs), strings.Join(names, ", ")),
		}
	}
	for _, d := range docs {
		if d.Name == name {
			return d, nil
		}
	}
	return ir.Document{}, &LoadError{Code: ErrCodeNoSuchName, Message: fmt.Sprintf("document %q not found", name)}
}

func loadCUEDir(dir string) ([]ir.Document, error) {
	cueFiles, err := FindCUEFiles(dir)
	if err != nil {
		return nil, &LoadError{Code: ErrCodeScanError, Message: fmt.Sprintf("error scanning directory: %v", err)}
	}
	if len(cueFiles) == 0 {
		return nil, &LoadError{Code: ErrCodeNoDocuments, Message: fmt.Sprintf("no CUE files found in %s", dir)}
	}

	instances := load.Instances([]string{"."}, &load.Config{Dir: dir})
	if len(instances) == 0 {
		return nil, &LoadError{Code: ErrCodeLoadFailed, Message: "no CUE instances loaded"}
	}
	inst := instances[0]
	if inst.Err != nil {
		return nil, &LoadError{Code: ErrCodeLoadFailed, Message: fmt.Sprintf("loading CUE files: %v", inst.Err)}
	}

	value := cuecontext.New().BuildInstance(inst)
	if err := value.Err(); err != nil {
		return nil, &LoadError{Code: ErrCodeBuildFailed, Message: fmt.Sprintf("building CUE value: %v", err)}
	}

	docs, err := compiler.CompileDocuments(value)
	if err != nil {
		return nil, convertCompileError(err)
	}
	return docs, nil
}

func loadCUEFile(path string) ([]ir.Document, error) {
	src, err := os.ReadFile(path)
	if err != nil {
		return nil, &LoadError{Code: ErrCodeLoadFailed, Message: fmt.Sprintf("reading %s: %v", path, err)}
	}
	value := cuecontext.New().CompileBytes(src, cue.Filename(path))
	if err := value.Err(); err != nil {
		return nil, &LoadError{Code: ErrCodeBuildFailed, Message: fmt.Sprintf("building CUE value: %v", err)}
	}

	docs, err := compiler.CompileDocuments(value)
	if err != nil {
		return nil, convertCompileError(err)
	}
	return docs, nil
}

func loadDataFile(path string) ([]ir.Document, error) {
	c, err := codecForPath(path)
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, &LoadError{Code: ErrCodeLoadFailed, Message: fmt.Sprintf("reading %s: %v", path, err)}
	}
	obj, err := codec.DecodeObject(c, data)
	if err != nil {
		return nil, &LoadError{Code: ErrCodeLoadFailed, Message: fmt.Sprintf("decoding %s: %v", path, err)}
	}

	if _, ok := obj["transforms"]; ok {
		doc, err := ir.DecodeDocument(obj)
		if err != nil {
			return nil, &LoadError{Code: ErrCodeLoadFailed, Message: err.Error()}
		}
		return []ir.Document{doc}, nil
	}

	raw, ok := obj["document"]
	if !ok {
		return nil, nil
	}
	byName, ok := raw.(ir.Object)
	if !ok {
		return nil, &LoadError{Code: ErrCodeLoadFailed, Message: fmt.Sprintf("document: expected object, got %s", ir.KindOf(raw))}
	}

	docs := make([]ir.Document, 0, len(byName))
	for _, name := range byName.SortedKeys() {
		docObj, ok := byName[name].(ir.Object)
		if !ok {
			return nil, &LoadError{Code: ErrCodeLoadFailed, Message: fmt.Sprintf("document.%s: expected object, got %s", name, ir.KindOf(byName[name]))}
		}
		doc, err := ir.DecodeDocument(docObj)
		if err != nil {
			return nil, &LoadError{Code: ErrCodeLoadFailed, Message: fmt.Sprintf("document.%s.%v", name, err)}
		}
		if doc.Name == "" {
			doc.Name = name
		}
		docs = append(docs, doc)
	}
	return docs, nil
}

// LoadRecords reads input records from path, or from stdin when path is "-".
//
// Accepted layouts: JSON Lines (.jsonl, .ndjson), a JSON array or a single
// JSON object (.json), and a YAML sequence or single mapping (.yaml, .yml).
// Stdin is read as JSON Lines unless it starts with '['.
func LoadRecords(path string, stdin io.Reader) ([]ir.Object, error) {
	var (
		data []byte
		err  error
		ext  = strings.ToLower(filepath.Ext(path))
	)
	if path == "-" {
		data, err = io.ReadAll(stdin)
		ext = ".jsonl"
		if bytes.HasPrefix(bytes.TrimSpace(data), []byte("[")) {
			ext = ".json"
		}
	} else {
		data, err = os.ReadFile(path)
	}
	if os.IsNotExist(err) {
		return nil, &LoadError{Code: ErrCodeNotFound, Message: fmt.Sprintf("records file not found: %s", path)}
	}
	if err != nil {
		return nil, &LoadError{Code: ErrCodeBadRecords, Message: fmt.Sprintf("reading %s: %v", path, err)}
	}

	switch ext {
	case ".jsonl", ".ndjson":
		return decodeJSONLines(data)
	case ".json":
		return decodeRecordList(codec.JSON(), data)
	case ".yaml", ".yml":
		return decodeRecordList(codec.YAML(), data)
	default:
		return nil, &LoadError{Code: ErrCodeBadRecords, Message: fmt.Sprintf("unsupported records format %q (want .jsonl, .json, .yaml)", ext)}
	}
}

func decodeJSONLines(data []byte) ([]ir.Object, error) {
	var records []ir.Object
	sc := bufio.NewScanner(bytes.NewReader(data))
	sc.Buffer(make([]byte, 0, 64*1024), 16*1024*1024)
	line := 0
	for sc.Scan() {
		line++
		text := bytes.TrimSpace(sc.Bytes())
		if len(text) == 0 {
			continue
		}
		obj, err := codec.DecodeObject(codec.JSON(), text)
		if err != nil {
			return nil, &LoadError{Code: ErrCodeBadRecords, Message: fmt.Sprintf("line %d: %v", line, err)}
		}
		records = append(records, obj)
	}
	if err := sc.Err(); err != nil {
		return nil, &LoadError{Code: ErrCodeBadRecords, Message: err.Error()}
	}
	return records, nil
}

func decodeRecordList(c codec.Codec, data []byte) ([]ir.Object, error) {
	var v ir.Value
	if err := c.Unmarshal(data, &v); err != nil {
		return nil, &LoadError{Code: ErrCodeBadRecords, Message: err.Error()}
	}
	switch v := v.(type) {
	case ir.Object:
		return []ir.Object{v}, nil
	case ir.Array:
		records := make([]ir.Object, len(v))
		for i, item := range v {
			obj, ok := item.(ir.Object)
			if !ok {
				return nil, &LoadError{Code: ErrCodeBadRecords, Message: fmt.Sprintf("record %d: expected object, got %s", i, ir.KindOf(item))}
			}
			records[i] = obj
		}
		return records, nil
	default:
		return nil, &LoadError{Code: ErrCodeBadRecords, Message: fmt.Sprintf("expected object or list of objects, got %s", ir.KindOf(v))}
	}
}

// codecForPath picks a codec from a file extension.
func codecForPath(path string) (codec.Codec, error) {
	ext := strings.TrimPrefix(strings.ToLower(filepath.Ext(path)), ".")
	c, err := codec.ForName(ext)
	if err != nil {
		return nil, &LoadError{Code: ErrCodeLoadFailed, Message: fmt.Sprintf("%s: %v", path, err)}
	}
	return c, nil
}

// FindCUEFiles walks the directory and returns all .cue file paths.
func FindCUEFiles(dir string) ([]string, error) {
	var files []string
	err := filepath.Walk(dir, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if !info.IsDir() && filepath.Ext(path) == ".cue" {
			files = append(files, path)
		}
		return nil
	})
	return files, err
}

// convertCompileError converts a compiler error to a LoadError with position info.
func convertCompileError(err error) *LoadError {
	var compileErr *compiler.CompileError
	if errors.As(err, &compileErr) {
		return &LoadError{
			Code:    ErrCodeGeneric,
			Message: compileErr.Error(),
			Pos:     compileErr.Pos,
		}
	}
	return &LoadError{Code: ErrCodeGeneric, Message: err.Error()}
}
