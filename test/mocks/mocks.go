package mocks

import (
	"io"
	"os"

	"github.com/vivekkundariya/opskit/internal/application/ports"
	"github.com/vivekkundariya/opskit/internal/domain/safety"
)

// MockCredentialFileReader is a mock implementation of ports.CredentialFileReader.
// Paths present in Files are returned as parsed files; everything else is
// reported as missing.
type MockCredentialFileReader struct {
	Files    map[string]map[string]string
	ReadFunc func(path string) (*ports.CredentialFile, error)

	// Track calls for assertions
	ReadCalls []string
}

func (m *MockCredentialFileReader) Read(path string) (*ports.CredentialFile, error) {
	m.ReadCalls = append(m.ReadCalls, path)
	if m.ReadFunc != nil {
		return m.ReadFunc(path)
	}
	values, ok := m.Files[path]
	if !ok {
		return nil, &os.PathError{Op: "open", Path: path, Err: os.ErrNotExist}
	}
	return &ports.CredentialFile{Path: path, Values: values}, nil
}

// MockEnvironmentReader is a mock implementation of ports.EnvironmentReader
type MockEnvironmentReader struct {
	Vars map[string]string

	// Track calls
	LookupCalls []string
}

func (m *MockEnvironmentReader) Lookup(name string) (string, bool) {
	m.LookupCalls = append(m.LookupCalls, name)
	v, ok := m.Vars[name]
	return v, ok
}

// MockInputSource is a mock implementation of safety.InputSource. Answers
// are consumed in order; once exhausted Ask returns io.EOF.
type MockInputSource struct {
	Answers []string
	AskFunc func(p safety.Prompt) (string, error)

	// Track calls
	AskCalls []safety.Prompt
}

func (m *MockInputSource) Ask(p safety.Prompt) (string, error) {
	m.AskCalls = append(m.AskCalls, p)
	if m.AskFunc != nil {
		return m.AskFunc(p)
	}
	if len(m.Answers) == 0 {
		return "", io.EOF
	}
	a := m.Answers[0]
	m.Answers = m.Answers[1:]
	return a, nil
}
